package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/maestro-tips/internal/models"
	"github.com/cypherlabdev/maestro-tips/internal/service"
	"github.com/cypherlabdev/maestro-tips/internal/store/storetest"
)

var created = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

// TestStore_Conformance runs the shared backend suite
func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) service.Backend {
		return New()
	})
}

// TestStore_ConcurrentVotes tests that concurrent votes are never lost
func TestStore_ConcurrentVotes(t *testing.T) {
	s := New()
	ctx := context.Background()
	tip := storetest.NewSingleTip("tip-1", created)
	require.NoError(t, s.CreateTip(ctx, tip))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vote := models.VoteAgree
			if i%4 == 0 {
				vote = models.VoteDisagree
			}
			_, err := s.VoteOnTip(ctx, tip.ID, vote)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.GetTip(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(75), got.Votes.Agree)
	assert.Equal(t, int64(25), got.Votes.Disagree)
}

// TestStore_ReturnsCopies tests that callers cannot mutate stored state
func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	tip := storetest.NewAccumulatorTip("tip-1", created)
	require.NoError(t, s.CreateTip(ctx, tip))

	tip.Legs[0].Teams = "mutated after create"
	got, err := s.GetTip(ctx, tip.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated after create", got.Legs[0].Teams)

	got.Status = models.StatusWon
	again, err := s.GetTip(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
}

// TestStore_DuplicateID tests that ids are unique
func TestStore_DuplicateID(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateTip(ctx, storetest.NewSingleTip("dup", created)))
	assert.ErrorIs(t, s.CreateTip(ctx, storetest.NewSingleTip("dup", created)), models.ErrConflict)
}
