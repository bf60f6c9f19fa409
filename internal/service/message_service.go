package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/metrics"
	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// MessageService runs the user to admin inbox
type MessageService struct {
	store    MessageStore
	notifier Notifier
	metrics  *metrics.Metrics
	timeout  time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func NewMessageService(store MessageStore, notifier Notifier, m *metrics.Metrics, timeout time.Duration, logger zerolog.Logger) *MessageService {
	return &MessageService{
		store:    store,
		notifier: notifier,
		metrics:  m,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger.With().Str("component", "message_service").Logger(),
	}
}

// SendMessage stores a message from a signed-in user and alerts the admin
func (s *MessageService) SendMessage(ctx context.Context, actor models.Actor, input models.CreateMessageInput) (*models.Message, error) {
	if err := requireUser(actor, "send message"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	name := actor.Name
	if name == "" {
		name = actor.UserID
	}

	msg := &models.Message{
		ID:        NewID(),
		UserID:    actor.UserID,
		UserName:  name,
		Content:   strings.TrimSpace(input.Content),
		CreatedAt: s.now().UTC(),
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.CreateMessage(cctx, msg); err != nil {
		return nil, backendError(s.metrics, "send message", err)
	}

	s.logger.Info().Str("message_id", msg.ID).Str("user_id", msg.UserID).Msg("message received")

	if s.notifier != nil {
		nctx, ncancel := withTimeout(ctx, s.timeout)
		defer ncancel()
		if err := s.notifier.MessageReceived(nctx, msg); err != nil {
			s.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to notify admin")
		}
	}

	return msg, nil
}

// ListMessages returns the whole inbox for admins and the caller's own
// thread for users, oldest first. Backend failures yield an empty list.
func (s *MessageService) ListMessages(ctx context.Context, actor models.Actor) ([]*models.Message, error) {
	if err := requireUser(actor, "list messages"); err != nil {
		return nil, err
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var (
		msgs []*models.Message
		err  error
	)
	if actor.IsAdmin() {
		msgs, err = s.store.ListMessages(cctx)
	} else {
		msgs, err = s.store.ListMessagesByUser(cctx, actor.UserID)
	}
	if err != nil {
		s.metrics.BackendError("list messages")
		s.metrics.DegradedRead("list messages")
		s.logger.Warn().Err(err).Str("user_id", actor.UserID).Msg("failed to list messages, serving empty result")
		return []*models.Message{}, nil
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
	return msgs, nil
}

// Reply answers a message exactly once and marks it read
func (s *MessageService) Reply(ctx context.Context, actor models.Actor, id string, input models.ReplyInput) (*models.Message, error) {
	if err := requireAdmin(actor, "reply to message"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.store.ReplyToMessage(cctx, id, strings.TrimSpace(input.Reply))
	if err != nil {
		return nil, backendError(s.metrics, "reply to message", err)
	}

	s.logger.Info().Str("message_id", id).Str("admin", actor.UserID).Msg("message answered")
	return msg, nil
}
