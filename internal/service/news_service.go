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

// NewsService manages editorial news posts
type NewsService struct {
	store   NewsStore
	metrics *metrics.Metrics
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func NewNewsService(store NewsStore, m *metrics.Metrics, timeout time.Duration, logger zerolog.Logger) *NewsService {
	return &NewsService{
		store:   store,
		metrics: m,
		timeout: timeout,
		now:     time.Now,
		logger:  logger.With().Str("component", "news_service").Logger(),
	}
}

// CreateNews publishes a news post
func (s *NewsService) CreateNews(ctx context.Context, actor models.Actor, input models.CreateNewsInput) (*models.NewsPost, error) {
	if err := requireAdmin(actor, "create news"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	post := &models.NewsPost{
		ID:        NewID(),
		Title:     strings.TrimSpace(input.Title),
		Category:  strings.TrimSpace(input.Category),
		Body:      input.Body,
		ImageURL:  input.ImageURL,
		VideoURL:  input.VideoURL,
		Source:    input.Source,
		MatchDate: input.MatchDate,
		CreatedAt: s.now().UTC(),
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.CreateNews(cctx, post); err != nil {
		return nil, backendError(s.metrics, "create news", err)
	}

	s.logger.Info().Str("news_id", post.ID).Str("title", post.Title).Msg("news published")
	return post, nil
}

// ListNews returns news newest first, degrading to an empty list on backend failure
func (s *NewsService) ListNews(ctx context.Context) []*models.NewsPost {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	posts, err := s.store.ListNews(cctx)
	if err != nil {
		s.metrics.BackendError("list news")
		s.metrics.DegradedRead("list news")
		s.logger.Warn().Err(err).Msg("failed to list news, serving empty result")
		return []*models.NewsPost{}
	}
	if posts == nil {
		posts = []*models.NewsPost{}
	}

	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts
}

// DeleteNews removes a news post. Deleting an unknown id succeeds.
func (s *NewsService) DeleteNews(ctx context.Context, actor models.Actor, id string) error {
	if err := requireAdmin(actor, "delete news"); err != nil {
		return err
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.DeleteNews(cctx, id); err != nil {
		return backendError(s.metrics, "delete news", err)
	}

	s.logger.Info().Str("news_id", id).Msg("news deleted")
	return nil
}
