package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/metrics"
	"github.com/cypherlabdev/maestro-tips/internal/models"
	"github.com/cypherlabdev/maestro-tips/pkg/stats"
)

// TipService enforces the tip state machine on top of a TipStore
type TipService struct {
	store       TipStore
	publisher   EventPublisher
	notifier    Notifier
	suggestions SuggestionCache
	metrics     *metrics.Metrics
	timeout     time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

// NewTipService creates a new tip service. publisher, notifier and m may be nil.
func NewTipService(
	store TipStore,
	publisher EventPublisher,
	notifier Notifier,
	m *metrics.Metrics,
	timeout time.Duration,
	logger zerolog.Logger,
) *TipService {
	return &TipService{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		timeout:   timeout,
		now:       time.Now,
		logger:    logger.With().Str("component", "tip_service").Logger(),
	}
}

// CreateTip validates and publishes a new PENDING tip
func (s *TipService) CreateTip(ctx context.Context, actor models.Actor, input models.CreateTipInput) (*models.Tip, error) {
	if err := requireAdmin(actor, "create tip"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	tip := models.NewTip(NewID(), input, s.now())

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.CreateTip(cctx, tip); err != nil {
		return nil, backendError(s.metrics, "create tip", err)
	}

	s.metrics.TipCreated()
	s.logger.Info().
		Str("tip_id", tip.ID).
		Str("category", string(tip.Category)).
		Str("odds", tip.Odds.String()).
		Int("legs", len(tip.Legs)).
		Str("admin", actor.UserID).
		Msg("tip created")

	s.publish(ctx, models.EventTipCreated, tip.ID, tip.Category, tip.Clone(), nil)

	if s.notifier != nil {
		nctx, ncancel := withTimeout(ctx, s.timeout)
		defer ncancel()
		if err := s.notifier.TipPublished(nctx, tip); err != nil {
			s.logger.Warn().Err(err).Str("tip_id", tip.ID).Msg("failed to announce tip")
		}
	}

	return tip, nil
}

// ListTips returns every tip newest first. Backend failures are absorbed:
// the caller gets an empty list and the failure is logged.
func (s *TipService) ListTips(ctx context.Context) []*models.Tip {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tips, err := s.store.ListTips(cctx)
	if err != nil {
		s.metrics.BackendError("list tips")
		s.metrics.DegradedRead("list tips")
		s.logger.Warn().Err(err).Msg("failed to list tips, serving empty result")
		return []*models.Tip{}
	}
	if tips == nil {
		tips = []*models.Tip{}
	}
	for _, tip := range tips {
		tip.Normalize()
	}

	stats.SortTips(tips)
	return tips
}

// GetTip returns a single tip
func (s *TipService) GetTip(ctx context.Context, id string) (*models.Tip, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tip, err := s.store.GetTip(cctx, id)
	if err != nil {
		return nil, backendError(s.metrics, "get tip", err)
	}
	return tip.Normalize(), nil
}

// VoteOnTip records one agree or disagree vote on a pending tip
func (s *TipService) VoteOnTip(ctx context.Context, id string, vote models.VoteType) (models.Votes, error) {
	if !vote.Valid() {
		return models.Votes{}, fmt.Errorf("%w: vote type must be agree or disagree, got %q", models.ErrValidation, vote)
	}

	tip, err := s.GetTip(ctx, id)
	if err != nil {
		return models.Votes{}, err
	}
	if tip.Status != models.StatusPending {
		return models.Votes{}, fmt.Errorf("%w: tip %s is already settled as %s", models.ErrConflict, id, tip.Status)
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	votes, err := s.store.VoteOnTip(cctx, id, vote)
	if err != nil {
		return models.Votes{}, backendError(s.metrics, "vote on tip", err)
	}

	s.metrics.VoteRecorded(string(vote))
	s.logger.Debug().
		Str("tip_id", id).
		Str("vote", string(vote)).
		Int64("agree", votes.Agree).
		Int64("disagree", votes.Disagree).
		Msg("vote recorded")

	s.publish(ctx, models.EventTipVoted, id, tip.Category, nil, &votes)

	return votes, nil
}

// SettleTip moves a pending tip to WON, LOST or VOID.
// Settling an already settled tip fails with models.ErrConflict.
func (s *TipService) SettleTip(ctx context.Context, actor models.Actor, id string, input models.SettleTipInput) (*models.Tip, error) {
	if err := requireAdmin(actor, "settle tip"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tip, err := s.store.SettleTip(cctx, id, input.Status, input.Score)
	if err != nil {
		return nil, backendError(s.metrics, "settle tip", err)
	}

	tip.Normalize()
	s.metrics.TipSettled(string(tip.Status))
	s.logger.Info().
		Str("tip_id", id).
		Str("status", string(tip.Status)).
		Str("admin", actor.UserID).
		Msg("tip settled")

	s.publish(ctx, models.EventTipSettled, id, tip.Category, tip.Clone(), nil)
	s.dropSuggestion(ctx, id)

	return tip, nil
}

// DeleteTip removes a tip. Deleting an unknown id succeeds.
func (s *TipService) DeleteTip(ctx context.Context, actor models.Actor, id string) error {
	if err := requireAdmin(actor, "delete tip"); err != nil {
		return err
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.DeleteTip(cctx, id); err != nil {
		return backendError(s.metrics, "delete tip", err)
	}

	s.logger.Info().Str("tip_id", id).Str("admin", actor.UserID).Msg("tip deleted")
	s.publish(ctx, models.EventTipDeleted, id, "", nil, nil)
	s.dropSuggestion(ctx, id)

	return nil
}

// dropSuggestion forgets the cached result suggestion of a tip that is no
// longer pending. Failures are logged; the entry expires with its TTL.
func (s *TipService) dropSuggestion(ctx context.Context, id string) {
	if s.suggestions == nil {
		return
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.suggestions.Delete(cctx, id); err != nil {
		s.logger.Warn().Err(err).Str("tip_id", id).Msg("failed to drop result suggestion")
	}
}

// publish emits a lifecycle event. Failures are logged, never returned:
// the write has already taken effect.
func (s *TipService) publish(ctx context.Context, eventType models.EventType, tipID string, category models.Category, tip *models.Tip, votes *models.Votes) {
	if s.publisher == nil {
		return
	}

	event := models.TipEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		TipID:     tipID,
		Category:  category,
		Tip:       tip,
		Votes:     votes,
		Timestamp: s.now().UTC(),
	}

	pctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.publisher.Publish(pctx, event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("tip_id", tipID).
			Str("event", string(eventType)).
			Msg("failed to publish tip event")
	}
}
