// Package stats derives win-rate and form summaries from tip snapshots.
// Every function is a pure projection: inputs are never mutated and no
// state is kept between calls.
package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

const (
	// GlobalStreakLength is how many recent outcomes the global view shows
	GlobalStreakLength = 10

	// PartitionStreakLength is how many recent outcomes a category view shows
	PartitionStreakLength = 5
)

var hundred = decimal.NewFromInt(100)

// SortTips orders tips newest first, breaking createdAt ties by ascending id.
// The sort is stable and happens in place.
func SortTips(tips []*models.Tip) {
	sort.SliceStable(tips, func(i, j int) bool {
		return Less(tips[i], tips[j])
	})
}

// Less is the canonical listing comparator
func Less(a, b *models.Tip) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Global summarizes every settled tip, with a streak of up to 10 outcomes
func Global(tips []*models.Tip) models.MaestroStats {
	return summarize(tips, GlobalStreakLength)
}

// Partition summarizes the settled tips of one category, with a streak of up to 5 outcomes
func Partition(tips []*models.Tip, category models.Category) models.MaestroStats {
	return summarize(FilterCategory(tips, category), PartitionStreakLength)
}

// Board returns the global summary together with every category's summary
func Board(tips []*models.Tip) models.Board {
	board := models.Board{
		Global:     Global(tips),
		Categories: make(map[models.Category]models.MaestroStats, len(models.Categories)),
	}
	for _, category := range models.Categories {
		board.Categories[category] = Partition(tips, category)
	}
	return board
}

// FilterCategory returns the tips published under category, order preserved
func FilterCategory(tips []*models.Tip, category models.Category) []*models.Tip {
	out := make([]*models.Tip, 0, len(tips))
	for _, tip := range tips {
		if tip.Category == category {
			out = append(out, tip)
		}
	}
	return out
}

// WinRate returns won/total as a percentage rounded to one decimal.
// A zero total yields 0.
func WinRate(won, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(won)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(total))).
		Round(1)
	f, _ := rate.Float64()
	return f
}

func summarize(tips []*models.Tip, streakLength int) models.MaestroStats {
	settled := make([]*models.Tip, 0, len(tips))
	won := 0
	for _, tip := range tips {
		if tip.Status == models.StatusPending {
			continue
		}
		settled = append(settled, tip)
		if tip.Status == models.StatusWon {
			won++
		}
	}

	SortTips(settled)

	n := min(len(settled), streakLength)
	streak := make([]models.TipStatus, 0, n)
	for _, tip := range settled[:n] {
		streak = append(streak, tip.Status)
	}

	return models.MaestroStats{
		WinRate:   WinRate(won, len(settled)),
		TotalTips: len(settled),
		WonTips:   won,
		Streak:    streak,
	}
}
