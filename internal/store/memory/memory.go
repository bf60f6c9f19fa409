// Package memory is the in-process backend used when no remote store is
// configured. Data lives as long as the process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// Store keeps tips, news and messages in maps guarded by one lock
type Store struct {
	mu       sync.RWMutex
	tips     map[string]*models.Tip
	news     map[string]*models.NewsPost
	messages map[string]*models.Message
}

// New creates an empty memory store
func New() *Store {
	return &Store{
		tips:     make(map[string]*models.Tip),
		news:     make(map[string]*models.NewsPost),
		messages: make(map[string]*models.Message),
	}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func (s *Store) CreateTip(ctx context.Context, tip *models.Tip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tips[tip.ID]; exists {
		return fmt.Errorf("tip %s: %w: already exists", tip.ID, models.ErrConflict)
	}
	s.tips[tip.ID] = tip.Clone()
	return nil
}

func (s *Store) GetTip(ctx context.Context, id string) (*models.Tip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	tip, ok := s.tips[id]
	if !ok {
		return nil, fmt.Errorf("tip %s: %w", id, models.ErrNotFound)
	}
	return tip.Clone(), nil
}

func (s *Store) ListTips(ctx context.Context) ([]*models.Tip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Tip, 0, len(s.tips))
	for _, tip := range s.tips {
		out = append(out, tip.Clone())
	}
	return out, nil
}

func (s *Store) VoteOnTip(ctx context.Context, id string, vote models.VoteType) (models.Votes, error) {
	if err := ctx.Err(); err != nil {
		return models.Votes{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tip, ok := s.tips[id]
	if !ok {
		return models.Votes{}, fmt.Errorf("tip %s: %w", id, models.ErrNotFound)
	}
	switch vote {
	case models.VoteAgree:
		tip.Votes.Agree++
	case models.VoteDisagree:
		tip.Votes.Disagree++
	default:
		return models.Votes{}, fmt.Errorf("%w: unknown vote %q", models.ErrValidation, vote)
	}
	return tip.Votes, nil
}

func (s *Store) SettleTip(ctx context.Context, id string, status models.TipStatus, score *string) (*models.Tip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tip, ok := s.tips[id]
	if !ok {
		return nil, fmt.Errorf("tip %s: %w", id, models.ErrNotFound)
	}
	if tip.Status != models.StatusPending {
		return nil, fmt.Errorf("tip %s is %s: %w", id, tip.Status, models.ErrConflict)
	}

	tip.Status = status
	if score != nil {
		v := *score
		tip.ResultScore = &v
	}
	return tip.Clone(), nil
}

func (s *Store) DeleteTip(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tips, id)
	return nil
}

func (s *Store) CreateNews(ctx context.Context, post *models.NewsPost) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *post
	s.news[post.ID] = &cp
	return nil
}

func (s *Store) ListNews(ctx context.Context) ([]*models.NewsPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.NewsPost, 0, len(s.news))
	for _, post := range s.news {
		cp := *post
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) DeleteNews(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.news, id)
	return nil
}

func (s *Store) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *msg
	s.messages[msg.ID] = &cp
	return nil
}

func (s *Store) ListMessages(ctx context.Context) ([]*models.Message, error) {
	return s.listMessages(ctx, func(*models.Message) bool { return true })
}

func (s *Store) ListMessagesByUser(ctx context.Context, userID string) ([]*models.Message, error) {
	return s.listMessages(ctx, func(m *models.Message) bool { return m.UserID == userID })
}

func (s *Store) listMessages(ctx context.Context, keep func(*models.Message) bool) ([]*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Message, 0)
	for _, msg := range s.messages {
		if keep(msg) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) ReplyToMessage(ctx context.Context, id, reply string) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, models.ErrNotFound)
	}
	if msg.Answered() {
		return nil, fmt.Errorf("message %s already answered: %w", id, models.ErrConflict)
	}

	msg.Reply = &reply
	msg.IsRead = true
	cp := *msg
	return &cp, nil
}
