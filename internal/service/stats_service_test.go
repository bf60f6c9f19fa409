package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// TestStatsService_Board tests global and per-category summaries from live data
func TestStatsService_Board(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()
	svc := NewStatsService(setup.service)

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	outcomes := []struct {
		input  models.CreateTipInput
		status models.TipStatus
	}{
		{singleTip(), models.StatusWon},
		{singleTip(), models.StatusWon},
		{singleTip(), models.StatusLost},
		{fourPlusTip(), models.StatusWon},
		{fourPlusTip(), models.StatusPending},
		{singleTip(), models.StatusPending},
	}

	for i, o := range outcomes {
		setup.at(base.Add(time.Duration(i) * time.Hour))
		tip, err := setup.service.CreateTip(setup.ctx, admin, o.input)
		require.NoError(t, err)
		if o.status.Terminal() {
			_, err = setup.service.SettleTip(setup.ctx, admin, tip.ID, models.SettleTipInput{Status: o.status})
			require.NoError(t, err)
		}
	}

	global := svc.Global(setup.ctx)
	assert.Equal(t, 75.0, global.WinRate)
	assert.Equal(t, 4, global.TotalTips)
	assert.Equal(t, 3, global.WonTips)
	assert.Equal(t, []models.TipStatus{models.StatusWon, models.StatusLost, models.StatusWon, models.StatusWon}, global.Streak)

	single, err := svc.Partition(setup.ctx, models.CategorySingle)
	require.NoError(t, err)
	assert.Equal(t, 66.7, single.WinRate)
	assert.Equal(t, 3, single.TotalTips)

	board := svc.Board(setup.ctx)
	assert.Equal(t, global, board.Global)
	assert.Len(t, board.Categories, len(models.Categories))
	assert.Equal(t, 100.0, board.Categories[models.CategoryOdd4Plus].WinRate)
	assert.Equal(t, 0.0, board.Categories[models.CategoryOdd2Plus].WinRate)
	assert.Empty(t, board.Categories[models.CategoryOdd2Plus].Streak)
}

// TestStatsService_PartitionParsesCategory tests lenient category names and rejection of unknown ones
func TestStatsService_PartitionParsesCategory(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()
	svc := NewStatsService(setup.service)

	got, err := svc.Partition(setup.ctx, "odd_2_plus")
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalTips)
	assert.NotNil(t, got.Streak)

	_, err = svc.Partition(setup.ctx, "TREBLE")
	assert.ErrorIs(t, err, models.ErrValidation)
}
