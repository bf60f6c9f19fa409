package service

import (
	"context"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// EventPublisher abstracts delivery of tip lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, event models.TipEvent) error
}

// Advisor abstracts the generative-text collaborator.
// Its output is a suggestion only and is never applied automatically.
type Advisor interface {
	DraftAnalysis(ctx context.Context, req models.AnalysisRequest) (string, error)
	CheckResult(ctx context.Context, tip *models.Tip) (*models.ResultSuggestion, error)
}

// SuggestionCache stores the latest result suggestion per tip
type SuggestionCache interface {
	Set(ctx context.Context, suggestion *models.ResultSuggestion) error
	Get(ctx context.Context, tipID string) (*models.ResultSuggestion, error)
	Delete(ctx context.Context, tipID string) error
}

// Notifier abstracts outbound announcements
type Notifier interface {
	TipPublished(ctx context.Context, tip *models.Tip) error
	MessageReceived(ctx context.Context, msg *models.Message) error
}

// Broadcaster fans events out to live subscribers
type Broadcaster interface {
	Broadcast(event models.TipEvent) bool
}
