package service

import (
	"context"

	"github.com/cypherlabdev/maestro-tips/internal/models"
	"github.com/cypherlabdev/maestro-tips/pkg/stats"
)

// StatsService recomputes win-rate summaries from the current tip snapshot.
// It holds no state; every call rescans the store.
type StatsService struct {
	tips *TipService
}

func NewStatsService(tips *TipService) *StatsService {
	return &StatsService{tips: tips}
}

// Global summarizes all settled tips
func (s *StatsService) Global(ctx context.Context) models.MaestroStats {
	return stats.Global(s.tips.ListTips(ctx))
}

// Partition summarizes the settled tips of one category
func (s *StatsService) Partition(ctx context.Context, category models.Category) (models.MaestroStats, error) {
	if !category.Valid() {
		c, err := models.ParseCategory(string(category))
		if err != nil {
			return models.MaestroStats{}, err
		}
		category = c
	}
	return stats.Partition(s.tips.ListTips(ctx), category), nil
}

// Board summarizes globally and per category from a single snapshot
func (s *StatsService) Board(ctx context.Context) models.Board {
	return stats.Board(s.tips.ListTips(ctx))
}
