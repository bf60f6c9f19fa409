package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/metrics"
	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// AdvisorService exposes AI drafting and result checking to admins.
// Suggestions are cached for review; nothing here changes a tip's status.
type AdvisorService struct {
	advisor Advisor
	tips    *TipService
	cache   SuggestionCache
	metrics *metrics.Metrics
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewAdvisorService creates a new advisor service. advisor and cache may be
// nil, in which case AI calls fail with models.ErrAIUnavailable and
// suggestions are not retained. With a cache, tips drops a tip's
// suggestion once that tip is settled or deleted.
func NewAdvisorService(
	advisor Advisor,
	tips *TipService,
	cache SuggestionCache,
	m *metrics.Metrics,
	timeout time.Duration,
	logger zerolog.Logger,
) *AdvisorService {
	if tips != nil && cache != nil {
		tips.suggestions = cache
	}
	return &AdvisorService{
		advisor: advisor,
		tips:    tips,
		cache:   cache,
		metrics: m,
		timeout: timeout,
		now:     time.Now,
		logger:  logger.With().Str("component", "advisor_service").Logger(),
	}
}

// Available reports whether an advisor is configured
func (s *AdvisorService) Available() bool {
	return s.advisor != nil
}

// DraftAnalysis asks the advisor for rationale text the admin can edit
func (s *AdvisorService) DraftAnalysis(ctx context.Context, actor models.Actor, req models.AnalysisRequest) (string, error) {
	if err := requireAdmin(actor, "draft analysis"); err != nil {
		return "", err
	}
	if s.advisor == nil {
		return "", fmt.Errorf("draft analysis: %w: no advisor configured", models.ErrAIUnavailable)
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.advisor.DraftAnalysis(cctx, req)
	s.metrics.AdvisorCall("analysis", err)
	if err != nil {
		s.logger.Warn().Err(err).Msg("analysis draft failed")
		return "", aiError("draft analysis", err)
	}
	return text, nil
}

// CheckResult asks the advisor whether a pending tip has been decided
func (s *AdvisorService) CheckResult(ctx context.Context, actor models.Actor, tipID string) (*models.ResultSuggestion, error) {
	if err := requireAdmin(actor, "check result"); err != nil {
		return nil, err
	}

	tip, err := s.tips.GetTip(ctx, tipID)
	if err != nil {
		return nil, err
	}
	if tip.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: tip %s is already settled as %s", models.ErrConflict, tipID, tip.Status)
	}

	return s.Suggest(ctx, tip)
}

// Suggest runs a result check for tip and caches the suggestion
func (s *AdvisorService) Suggest(ctx context.Context, tip *models.Tip) (*models.ResultSuggestion, error) {
	if s.advisor == nil {
		return nil, fmt.Errorf("check result: %w: no advisor configured", models.ErrAIUnavailable)
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	suggestion, err := s.advisor.CheckResult(cctx, tip)
	s.metrics.AdvisorCall("result_check", err)
	if err != nil {
		s.logger.Warn().Err(err).Str("tip_id", tip.ID).Msg("result check failed")
		return nil, aiError("check result", err)
	}

	suggestion.TipID = tip.ID
	if suggestion.CheckedAt.IsZero() {
		suggestion.CheckedAt = s.now().UTC()
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, suggestion); err != nil {
			s.logger.Warn().Err(err).Str("tip_id", tip.ID).Msg("failed to cache result suggestion")
		}
	}

	s.logger.Info().
		Str("tip_id", tip.ID).
		Str("suggested_status", string(suggestion.Status)).
		Float64("confidence", suggestion.Confidence).
		Msg("result suggestion ready for review")

	return suggestion, nil
}

// GetSuggestion returns the latest cached suggestion for a tip
func (s *AdvisorService) GetSuggestion(ctx context.Context, actor models.Actor, tipID string) (*models.ResultSuggestion, error) {
	if err := requireAdmin(actor, "get suggestion"); err != nil {
		return nil, err
	}
	if s.cache == nil {
		return nil, fmt.Errorf("suggestion for %s: %w", tipID, models.ErrNotFound)
	}

	suggestion, err := s.cache.Get(ctx, tipID)
	if err != nil {
		return nil, backendError(s.metrics, "get suggestion", err)
	}
	return suggestion, nil
}

func aiError(op string, err error) error {
	if errors.Is(err, models.ErrAIUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrAIUnavailable, err)
}
