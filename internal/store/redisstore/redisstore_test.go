package redisstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/maestro-tips/internal/models"
	"github.com/cypherlabdev/maestro-tips/internal/service"
	"github.com/cypherlabdev/maestro-tips/internal/store/storetest"
)

// testRedisStoreSetup is a helper struct to hold test dependencies
type testRedisStoreSetup struct {
	store     *Store
	miniRedis *miniredis.Miniredis
	ctx       context.Context
}

// setupTestRedisStore creates a store backed by miniredis
func setupTestRedisStore(t *testing.T) *testRedisStoreSetup {
	mr := miniredis.RunT(t)

	store := New(Config{Addr: mr.Addr(), KeyPrefix: "test"}, zerolog.Nop())

	return &testRedisStoreSetup{
		store:     store,
		miniRedis: mr,
		ctx:       context.Background(),
	}
}

// TestStore_Conformance runs the shared backend suite on miniredis
func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) service.Backend {
		return setupTestRedisStore(t).store
	})
}

// TestStore_KeyLayout tests documents and index entries land under the prefix
func TestStore_KeyLayout(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.store.Close()

	tip := storetest.NewSingleTip("tip-1", time.Now())
	require.NoError(t, setup.store.CreateTip(setup.ctx, tip))
	require.NoError(t, setup.store.CreateMessage(setup.ctx, &models.Message{ID: "m1", UserID: "u1", Content: "hi", CreatedAt: time.Now()}))

	assert.True(t, setup.miniRedis.Exists("test:tip:tip-1"))
	members, err := setup.miniRedis.Members("test:tips")
	require.NoError(t, err)
	assert.Equal(t, []string{"tip-1"}, members)

	userMembers, err := setup.miniRedis.Members("test:user:u1:messages")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, userMembers)

	require.NoError(t, setup.store.DeleteTip(setup.ctx, tip.ID))
	assert.False(t, setup.miniRedis.Exists("test:tip:tip-1"))
}

// TestStore_ConcurrentVotes tests that WATCH retries lose no votes
func TestStore_ConcurrentVotes(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.store.Close()

	tip := storetest.NewSingleTip("tip-1", time.Now())
	require.NoError(t, setup.store.CreateTip(setup.ctx, tip))

	const voters = 16
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := setup.store.VoteOnTip(setup.ctx, tip.ID, models.VoteAgree)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := setup.store.GetTip(setup.ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(voters), got.Votes.Agree)
	assert.Zero(t, got.Votes.Disagree)
}

// TestStore_SkipsDanglingIndexEntries tests listing when a document vanished behind the index
func TestStore_SkipsDanglingIndexEntries(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.store.Close()

	require.NoError(t, setup.store.CreateTip(setup.ctx, storetest.NewSingleTip("kept", time.Now())))
	require.NoError(t, setup.store.CreateTip(setup.ctx, storetest.NewSingleTip("gone", time.Now())))
	setup.miniRedis.Del("test:tip:gone")

	tips, err := setup.store.ListTips(setup.ctx)
	require.NoError(t, err)
	require.Len(t, tips, 1)
	assert.Equal(t, "kept", tips[0].ID)
}

// TestStore_ConnectionError tests that an unreachable server surfaces as an error
func TestStore_ConnectionError(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.store.Close()

	setup.miniRedis.Close()

	_, err := setup.store.ListTips(setup.ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
	assert.Error(t, setup.store.Ping(setup.ctx))
}

// TestStore_FailedCreateLeavesNothing tests that a create whose index
// write fails does not leave a readable document behind
func TestStore_FailedCreateLeavesNothing(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.store.Close()

	require.NoError(t, setup.miniRedis.Set("test:tips", "not-a-set"))

	err := setup.store.CreateTip(setup.ctx, storetest.NewSingleTip("tip-1", time.Now()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrConflict)

	assert.False(t, setup.miniRedis.Exists("test:tip:tip-1"))
	_, err = setup.store.GetTip(setup.ctx, "tip-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = setup.store.VoteOnTip(setup.ctx, "tip-1", models.VoteAgree)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// TestStore_FailedMessageIndexLeavesNothing tests rollback when the
// per-user index cannot be written
func TestStore_FailedMessageIndexLeavesNothing(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.store.Close()

	require.NoError(t, setup.miniRedis.Set("test:user:u1:messages", "not-a-set"))

	err := setup.store.CreateMessage(setup.ctx, &models.Message{ID: "m1", UserID: "u1", Content: "hi", CreatedAt: time.Now()})
	require.Error(t, err)

	assert.False(t, setup.miniRedis.Exists("test:message:m1"))
	_, err = setup.store.ReplyToMessage(setup.ctx, "m1", "hello")
	assert.ErrorIs(t, err, models.ErrNotFound)

	msgs, err := setup.store.ListMessages(setup.ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

// TestStore_DuplicateCreate tests that a second create with the same id
// conflicts and leaves the first document untouched
func TestStore_DuplicateCreate(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.store.Close()

	first := storetest.NewSingleTip("tip-1", time.Now())
	require.NoError(t, setup.store.CreateTip(setup.ctx, first))

	second := storetest.NewSingleTip("tip-1", time.Now())
	second.Teams = "Other vs Teams"
	assert.ErrorIs(t, setup.store.CreateTip(setup.ctx, second), models.ErrConflict)

	got, err := setup.store.GetTip(setup.ctx, "tip-1")
	require.NoError(t, err)
	assert.Equal(t, first.Teams, got.Teams)
}
