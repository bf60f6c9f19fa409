// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// DefaultSpec checks every 15 minutes, on the minute
const DefaultSpec = "0 */15 * * * *"

// TipLister returns the current tips, newest first
type TipLister interface {
	ListTips(ctx context.Context) []*models.Tip
}

// Suggester produces and caches a result suggestion for one tip
type Suggester interface {
	Suggest(ctx context.Context, tip *models.Tip) (*models.ResultSuggestion, error)
}

// Config holds result checker configuration
type Config struct {
	Spec        string        // six-field cron spec, seconds first
	SettleDelay time.Duration // how long after kickoff a match is assumed finished
	MaxPerRun   int           // advisor calls per run, 0 for unlimited
}

// ResultChecker asks the advisor about pending tips whose matches should
// have finished. It only caches suggestions; settlement stays with an admin.
type ResultChecker struct {
	tips      TipLister
	suggester Suggester
	config    Config
	cron      *cron.Cron
	now       func() time.Time
	logger    zerolog.Logger
}

// NewResultChecker creates a result checker
func NewResultChecker(tips TipLister, suggester Suggester, config Config, logger zerolog.Logger) *ResultChecker {
	if config.Spec == "" {
		config.Spec = DefaultSpec
	}
	return &ResultChecker{
		tips:      tips,
		suggester: suggester,
		config:    config,
		cron:      cron.New(cron.WithSeconds()),
		now:       time.Now,
		logger:    logger.With().Str("component", "result_checker").Logger(),
	}
}

// Start schedules the job. Each run is bounded by ctx.
func (r *ResultChecker) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.config.Spec, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error().Err(err).Msg("result check run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", r.config.Spec, err)
	}

	r.cron.Start()
	r.logger.Info().
		Str("spec", r.config.Spec).
		Dur("settle_delay", r.config.SettleDelay).
		Msg("result checker scheduled")
	return nil
}

// Stop stops scheduling and waits for a running job to finish
func (r *ResultChecker) Stop() {
	<-r.cron.Stop().Done()
}

// RunOnce checks every due tip and returns how many suggestions were made.
// Individual failures are logged; the run fails only when every check failed.
func (r *ResultChecker) RunOnce(ctx context.Context) (int, error) {
	due := r.due(r.tips.ListTips(ctx))
	if len(due) == 0 {
		return 0, nil
	}
	if r.config.MaxPerRun > 0 && len(due) > r.config.MaxPerRun {
		due = due[:r.config.MaxPerRun]
	}

	checked := 0
	var lastErr error
	for _, tip := range due {
		if err := ctx.Err(); err != nil {
			return checked, err
		}

		suggestion, err := r.suggester.Suggest(ctx, tip)
		if err != nil {
			lastErr = err
			r.logger.Warn().Err(err).Str("tip_id", tip.ID).Msg("result check failed")
			continue
		}

		checked++
		r.logger.Debug().
			Str("tip_id", tip.ID).
			Str("suggested_status", string(suggestion.Status)).
			Msg("suggestion cached")
	}

	r.logger.Info().
		Int("due", len(due)).
		Int("checked", checked).
		Msg("result check run complete")

	if checked == 0 && lastErr != nil {
		return 0, fmt.Errorf("all %d result checks failed: %w", len(due), lastErr)
	}
	return checked, nil
}

// due returns pending tips whose kickoff plus the settle delay has passed
func (r *ResultChecker) due(tips []*models.Tip) []*models.Tip {
	cutoff := r.now().Add(-r.config.SettleDelay)
	out := make([]*models.Tip, 0, len(tips))
	for _, tip := range tips {
		if tip.Status != models.StatusPending {
			continue
		}
		if tip.KickoffTime.IsZero() || tip.KickoffTime.After(cutoff) {
			continue
		}
		out = append(out, tip)
	}
	return out
}
