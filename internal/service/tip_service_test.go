package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/maestro-tips/internal/metrics"
	"github.com/cypherlabdev/maestro-tips/internal/mocks"
	"github.com/cypherlabdev/maestro-tips/internal/models"
	"github.com/cypherlabdev/maestro-tips/internal/store/memory"
)

var (
	admin   = models.Actor{UserID: "admin-1", Name: "Maestro", Role: models.RoleAdmin}
	user    = models.Actor{UserID: "user-1", Name: "Punter", Role: models.RoleUser}
	visitor = models.Actor{}
)

// testTipServiceSetup is a helper struct to hold test dependencies
type testTipServiceSetup struct {
	service   *TipService
	store     *memory.Store
	publisher *mocks.MockEventPublisher
	notifier  *mocks.MockNotifier
	metrics   *metrics.Metrics
	ctrl      *gomock.Controller
	ctx       context.Context
}

// setupTestTipService creates a tip service over a memory store with mocked collaborators
func setupTestTipService(t *testing.T) *testTipServiceSetup {
	ctrl := gomock.NewController(t)
	store := memory.New()
	publisher := mocks.NewMockEventPublisher(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	m := metrics.New(prometheus.NewRegistry())

	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	notifier.EXPECT().TipPublished(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := NewTipService(store, publisher, notifier, m, time.Second, zerolog.Nop())

	return &testTipServiceSetup{
		service:   svc,
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		ctrl:      ctrl,
		ctx:       context.Background(),
	}
}

// cleanup cleans up test resources
func (s *testTipServiceSetup) cleanup() {
	s.ctrl.Finish()
}

// at pins the service clock so created_at values are deterministic
func (s *testTipServiceSetup) at(ts time.Time) {
	s.service.now = func() time.Time { return ts }
}

func singleTip() models.CreateTipInput {
	return models.CreateTipInput{
		Category:    models.CategorySingle,
		Teams:       "Arsenal vs Chelsea",
		League:      "Premier League",
		Prediction:  "Home win",
		Odds:        decimal.RequireFromString("2.10"),
		KickoffTime: time.Date(2026, 5, 2, 17, 30, 0, 0, time.UTC),
	}
}

func fourPlusTip() models.CreateTipInput {
	return models.CreateTipInput{
		Category: models.CategoryOdd4Plus,
		Legs: []models.Leg{
			{Teams: "Inter vs Milan", League: "Serie A", Prediction: "BTTS"},
			{Teams: "Lyon vs Lille", League: "Ligue 1", Prediction: "Over 1.5"},
		},
		Odds:        decimal.RequireFromString("4.75"),
		KickoffTime: time.Date(2026, 5, 3, 19, 45, 0, 0, time.UTC),
	}
}

// TestCreateTip_StartsPending tests that every category starts PENDING
func TestCreateTip_StartsPending(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()

	inputs := []models.CreateTipInput{singleTip(), fourPlusTip()}
	odd2 := fourPlusTip()
	odd2.Category = models.CategoryOdd2Plus
	inputs = append(inputs, odd2)

	for _, in := range inputs {
		tip, err := setup.service.CreateTip(setup.ctx, admin, in)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, tip.Status, in.Category)
		assert.NotEmpty(t, tip.ID)
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(setup.metrics.TipsCreated))
}

// TestCreateTip_RequiresAdmin tests authorization on tip creation
func TestCreateTip_RequiresAdmin(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()

	for _, actor := range []models.Actor{user, visitor} {
		_, err := setup.service.CreateTip(setup.ctx, actor, singleTip())
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	}
	assert.Empty(t, setup.service.ListTips(setup.ctx))
}

// TestCreateTip_ValidationError tests that malformed input never reaches the store
func TestCreateTip_ValidationError(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()

	in := singleTip()
	in.Legs = []models.Leg{{Teams: "x", League: "y", Prediction: "z"}}

	_, err := setup.service.CreateTip(setup.ctx, admin, in)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, setup.service.ListTips(setup.ctx))
}

// TestCreateTip_PublishesEvent tests that creation emits a tip.created event
func TestCreateTip_PublishesEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := mocks.NewMockEventPublisher(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	svc := NewTipService(memory.New(), publisher, notifier, nil, time.Second, zerolog.Nop())

	publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev models.TipEvent) error {
			assert.Equal(t, models.EventTipCreated, ev.Type)
			assert.Equal(t, models.CategorySingle, ev.Category)
			require.NotNil(t, ev.Tip)
			assert.Equal(t, ev.TipID, ev.Tip.ID)
			return nil
		})
	notifier.EXPECT().TipPublished(gomock.Any(), gomock.Any()).Return(errors.New("discord down"))

	_, err := svc.CreateTip(context.Background(), admin, singleTip())
	assert.NoError(t, err)
}

// TestVoteOnTip_CountsEveryCall tests that agree+disagree equals the number of votes cast
func TestVoteOnTip_CountsEveryCall(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()

	tip, err := setup.service.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)

	sequence := []models.VoteType{
		models.VoteAgree, models.VoteAgree, models.VoteDisagree,
		models.VoteAgree, models.VoteDisagree, models.VoteAgree, models.VoteAgree,
	}

	var last models.Votes
	for _, v := range sequence {
		last, err = setup.service.VoteOnTip(setup.ctx, tip.ID, v)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(5), last.Agree)
	assert.Equal(t, int64(2), last.Disagree)
	assert.Equal(t, int64(len(sequence)), last.Total())

	stored, err := setup.service.GetTip(setup.ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, last, stored.Votes)
}

// TestVoteOnTip_Errors tests invalid votes, unknown tips and settled tips
func TestVoteOnTip_Errors(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()

	tip, err := setup.service.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)

	_, err = setup.service.VoteOnTip(setup.ctx, tip.ID, "maybe")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = setup.service.VoteOnTip(setup.ctx, "missing", models.VoteAgree)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = setup.service.SettleTip(setup.ctx, admin, tip.ID, models.SettleTipInput{Status: models.StatusLost})
	require.NoError(t, err)

	_, err = setup.service.VoteOnTip(setup.ctx, tip.ID, models.VoteAgree)
	assert.ErrorIs(t, err, models.ErrConflict)
}

// TestSettleTip_VisibleInList tests that a settled tip lists with its status and score
func TestSettleTip_VisibleInList(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()

	tip, err := setup.service.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)

	score := "2-1"
	settled, err := setup.service.SettleTip(setup.ctx, admin, tip.ID, models.SettleTipInput{
		Status: models.StatusWon,
		Score:  &score,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusWon, settled.Status)

	tips := setup.service.ListTips(setup.ctx)
	require.Len(t, tips, 1)
	assert.Equal(t, models.StatusWon, tips[0].Status)
	require.NotNil(t, tips[0].ResultScore)
	assert.Equal(t, "2-1", *tips[0].ResultScore)
}

// TestSettleTip_RejectsResettle tests that a settled tip is never overwritten
func TestSettleTip_RejectsResettle(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()

	tip, err := setup.service.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)

	first := "2-1"
	_, err = setup.service.SettleTip(setup.ctx, admin, tip.ID, models.SettleTipInput{Status: models.StatusWon, Score: &first})
	require.NoError(t, err)

	second := "0-3"
	_, err = setup.service.SettleTip(setup.ctx, admin, tip.ID, models.SettleTipInput{Status: models.StatusLost, Score: &second})
	assert.ErrorIs(t, err, models.ErrConflict)

	// the overwrite must not have happened
	stored, err := setup.service.GetTip(setup.ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWon, stored.Status)
	assert.Equal(t, "2-1", *stored.ResultScore)
}

// TestSettleTip_Errors tests authorization, validation and unknown ids
func TestSettleTip_Errors(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()

	tip, err := setup.service.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)

	_, err = setup.service.SettleTip(setup.ctx, user, tip.ID, models.SettleTipInput{Status: models.StatusWon})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = setup.service.SettleTip(setup.ctx, admin, tip.ID, models.SettleTipInput{Status: models.StatusPending})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = setup.service.SettleTip(setup.ctx, admin, "missing", models.SettleTipInput{Status: models.StatusVoid})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// TestDeleteTip_RemovesFromListAndStats tests deletion visibility and idempotence
func TestDeleteTip_RemovesFromListAndStats(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()
	stats := NewStatsService(setup.service)

	tip, err := setup.service.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)
	_, err = setup.service.SettleTip(setup.ctx, admin, tip.ID, models.SettleTipInput{Status: models.StatusWon})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Global(setup.ctx).TotalTips)

	require.NoError(t, setup.service.DeleteTip(setup.ctx, admin, tip.ID))

	assert.Empty(t, setup.service.ListTips(setup.ctx))
	assert.Equal(t, 0, stats.Global(setup.ctx).TotalTips)

	_, err = setup.service.GetTip(setup.ctx, tip.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.NoError(t, setup.service.DeleteTip(setup.ctx, admin, tip.ID))
	assert.ErrorIs(t, setup.service.DeleteTip(setup.ctx, user, tip.ID), models.ErrUnauthorized)
}

// TestListTips_NewestFirst tests ordering regardless of insertion order
func TestListTips_NewestFirst(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()

	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	setup.at(base.Add(2 * time.Hour))
	newer, err := setup.service.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)

	setup.at(base)
	older, err := setup.service.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)

	setup.at(base.Add(time.Hour))
	middle, err := setup.service.CreateTip(setup.ctx, admin, fourPlusTip())
	require.NoError(t, err)

	tips := setup.service.ListTips(setup.ctx)
	require.Len(t, tips, 3)
	assert.Equal(t, newer.ID, tips[0].ID)
	assert.Equal(t, middle.ID, tips[1].ID)
	assert.Equal(t, older.ID, tips[2].ID)
}

// TestCreateTip_AccumulatorRoundTrip tests that legs survive create then list unchanged
func TestCreateTip_AccumulatorRoundTrip(t *testing.T) {
	setup := setupTestTipService(t)
	defer setup.cleanup()

	in := fourPlusTip()
	_, err := setup.service.CreateTip(setup.ctx, admin, in)
	require.NoError(t, err)

	tips := setup.service.ListTips(setup.ctx)
	require.Len(t, tips, 1)
	assert.Equal(t, models.CategoryOdd4Plus, tips[0].Category)
	assert.Equal(t, in.Legs, tips[0].Legs)
	assert.True(t, tips[0].Odds.Equal(in.Odds))
}

// TestListTips_DegradesOnBackendFailure tests that read failures yield an empty list
func TestListTips_DegradesOnBackendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockTipStore(ctrl)
	m := metrics.New(prometheus.NewRegistry())
	svc := NewTipService(store, nil, nil, m, time.Second, zerolog.Nop())

	store.EXPECT().ListTips(gomock.Any()).Return(nil, errors.New("connection refused"))

	tips := svc.ListTips(context.Background())
	assert.NotNil(t, tips)
	assert.Empty(t, tips)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DegradedReads.WithLabelValues("list tips")))
}

// TestWrites_BackendUnavailable tests that write failures surface as ErrBackendUnavailable
func TestWrites_BackendUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockTipStore(ctrl)
	svc := NewTipService(store, nil, nil, nil, time.Second, zerolog.Nop())
	ctx := context.Background()

	store.EXPECT().CreateTip(gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded)
	store.EXPECT().SettleTip(gomock.Any(), "t1", models.StatusVoid, gomock.Nil()).Return(nil, errors.New("io timeout"))
	store.EXPECT().DeleteTip(gomock.Any(), "t1").Return(errors.New("io timeout"))

	_, err := svc.CreateTip(ctx, admin, singleTip())
	assert.ErrorIs(t, err, models.ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = svc.SettleTip(ctx, admin, "t1", models.SettleTipInput{Status: models.StatusVoid})
	assert.ErrorIs(t, err, models.ErrBackendUnavailable)

	assert.ErrorIs(t, svc.DeleteTip(ctx, admin, "t1"), models.ErrBackendUnavailable)
}

// TestSettleTip_StoreConflictPassesThrough tests that store conflicts are not masked
func TestSettleTip_StoreConflictPassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockTipStore(ctrl)
	svc := NewTipService(store, nil, nil, nil, time.Second, zerolog.Nop())

	store.EXPECT().
		SettleTip(gomock.Any(), "t1", models.StatusWon, gomock.Any()).
		Return(nil, models.ErrConflict)

	_, err := svc.SettleTip(context.Background(), admin, "t1", models.SettleTipInput{Status: models.StatusWon})
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.NotErrorIs(t, err, models.ErrBackendUnavailable)
}
