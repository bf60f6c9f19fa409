package service

import (
	"context"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// TipStore abstracts the authoritative tip collection.
//
// Implementations must return models.ErrNotFound for unknown ids on
// GetTip, VoteOnTip and SettleTip, and models.ErrConflict from SettleTip
// when the tip has already left PENDING. The status check and the write
// happen atomically. DeleteTip is idempotent.
type TipStore interface {
	CreateTip(ctx context.Context, tip *models.Tip) error
	GetTip(ctx context.Context, id string) (*models.Tip, error)
	ListTips(ctx context.Context) ([]*models.Tip, error)
	VoteOnTip(ctx context.Context, id string, vote models.VoteType) (models.Votes, error)
	SettleTip(ctx context.Context, id string, status models.TipStatus, score *string) (*models.Tip, error)
	DeleteTip(ctx context.Context, id string) error
}

// NewsStore abstracts news post persistence
type NewsStore interface {
	CreateNews(ctx context.Context, post *models.NewsPost) error
	ListNews(ctx context.Context) ([]*models.NewsPost, error)
	DeleteNews(ctx context.Context, id string) error
}

// MessageStore abstracts the admin inbox.
//
// ReplyToMessage records the reply and marks the message read in one step;
// it returns models.ErrConflict if the message already has a reply.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context) ([]*models.Message, error)
	ListMessagesByUser(ctx context.Context, userID string) ([]*models.Message, error)
	ReplyToMessage(ctx context.Context, id, reply string) (*models.Message, error)
}

// Backend is a complete persistence adapter selected at process start
type Backend interface {
	TipStore
	NewsStore
	MessageStore
	Name() string
	Ping(ctx context.Context) error
	Close() error
}
