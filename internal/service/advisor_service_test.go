package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/maestro-tips/internal/mocks"
	"github.com/cypherlabdev/maestro-tips/internal/models"
	"github.com/cypherlabdev/maestro-tips/internal/store/memory"
)

// testAdvisorServiceSetup is a helper struct to hold test dependencies
type testAdvisorServiceSetup struct {
	service *AdvisorService
	tips    *TipService
	advisor *mocks.MockAdvisor
	cache   *mocks.MockSuggestionCache
	ctrl    *gomock.Controller
	ctx     context.Context
}

// setupTestAdvisorService creates an advisor service with mocked AI and cache
func setupTestAdvisorService(t *testing.T) *testAdvisorServiceSetup {
	ctrl := gomock.NewController(t)
	advisor := mocks.NewMockAdvisor(ctrl)
	cache := mocks.NewMockSuggestionCache(ctrl)

	tips := NewTipService(memory.New(), nil, nil, nil, time.Second, zerolog.Nop())
	svc := NewAdvisorService(advisor, tips, cache, nil, time.Second, zerolog.Nop())

	return &testAdvisorServiceSetup{
		service: svc,
		tips:    tips,
		advisor: advisor,
		cache:   cache,
		ctrl:    ctrl,
		ctx:     context.Background(),
	}
}

// cleanup cleans up test resources
func (s *testAdvisorServiceSetup) cleanup() {
	s.ctrl.Finish()
}

// TestDraftAnalysis_Success tests that draft text is passed back to the admin
func TestDraftAnalysis_Success(t *testing.T) {
	setup := setupTestAdvisorService(t)
	defer setup.cleanup()

	req := models.AnalysisRequest{Category: models.CategorySingle, Teams: "Arsenal vs Chelsea", Prediction: "Home win"}
	setup.advisor.EXPECT().DraftAnalysis(gomock.Any(), req).Return("Arsenal unbeaten at home.", nil)

	text, err := setup.service.DraftAnalysis(setup.ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, "Arsenal unbeaten at home.", text)
}

// TestDraftAnalysis_Errors tests authorization and unavailable advisors
func TestDraftAnalysis_Errors(t *testing.T) {
	setup := setupTestAdvisorService(t)
	defer setup.cleanup()

	_, err := setup.service.DraftAnalysis(setup.ctx, user, models.AnalysisRequest{})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	setup.advisor.EXPECT().DraftAnalysis(gomock.Any(), gomock.Any()).Return("", errors.New("quota exceeded"))
	_, err = setup.service.DraftAnalysis(setup.ctx, admin, models.AnalysisRequest{})
	assert.ErrorIs(t, err, models.ErrAIUnavailable)

	bare := NewAdvisorService(nil, setup.tips, nil, nil, time.Second, zerolog.Nop())
	assert.False(t, bare.Available())
	_, err = bare.DraftAnalysis(setup.ctx, admin, models.AnalysisRequest{})
	assert.ErrorIs(t, err, models.ErrAIUnavailable)
}

// TestCheckResult_NeverSettles tests that a suggestion is cached but the tip stays pending
func TestCheckResult_NeverSettles(t *testing.T) {
	setup := setupTestAdvisorService(t)
	defer setup.cleanup()

	tip, err := setup.tips.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)

	setup.advisor.EXPECT().
		CheckResult(gomock.Any(), gomock.Any()).
		Return(&models.ResultSuggestion{Status: models.StatusWon, Score: "2-0", Confidence: 0.9, Reason: "Final whistle 2-0"}, nil)
	setup.cache.EXPECT().
		Set(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, s *models.ResultSuggestion) error {
			assert.Equal(t, tip.ID, s.TipID)
			return nil
		})

	suggestion, err := setup.service.CheckResult(setup.ctx, admin, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWon, suggestion.Status)
	assert.Equal(t, tip.ID, suggestion.TipID)
	assert.False(t, suggestion.CheckedAt.IsZero())

	stored, err := setup.tips.GetTip(setup.ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.ResultScore)
}

// TestCheckResult_SettledTip tests that settled tips are not re-checked
func TestCheckResult_SettledTip(t *testing.T) {
	setup := setupTestAdvisorService(t)
	defer setup.cleanup()

	tip, err := setup.tips.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)
	setup.cache.EXPECT().Delete(gomock.Any(), tip.ID).Return(nil)
	_, err = setup.tips.SettleTip(setup.ctx, admin, tip.ID, models.SettleTipInput{Status: models.StatusLost})
	require.NoError(t, err)

	_, err = setup.service.CheckResult(setup.ctx, admin, tip.ID)
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = setup.service.CheckResult(setup.ctx, admin, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// TestSuggestion_DroppedWhenTipLeavesPending tests that settling or deleting
// a tip forgets its cached suggestion
func TestSuggestion_DroppedWhenTipLeavesPending(t *testing.T) {
	setup := setupTestAdvisorService(t)
	defer setup.cleanup()

	settled, err := setup.tips.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)
	removed, err := setup.tips.CreateTip(setup.ctx, admin, singleTip())
	require.NoError(t, err)

	gomock.InOrder(
		setup.cache.EXPECT().Delete(gomock.Any(), settled.ID).Return(nil),
		setup.cache.EXPECT().Delete(gomock.Any(), removed.ID).Return(errors.New("redis down")),
	)

	_, err = setup.tips.SettleTip(setup.ctx, admin, settled.ID, models.SettleTipInput{Status: models.StatusWon})
	require.NoError(t, err)

	// a cache outage does not fail the delete
	require.NoError(t, setup.tips.DeleteTip(setup.ctx, admin, removed.ID))

	// a rejected re-settle leaves the cache alone
	_, err = setup.tips.SettleTip(setup.ctx, admin, settled.ID, models.SettleTipInput{Status: models.StatusLost})
	assert.ErrorIs(t, err, models.ErrConflict)
}

// TestSuggest_CacheFailureIgnored tests that a cache outage does not lose the suggestion
func TestSuggest_CacheFailureIgnored(t *testing.T) {
	setup := setupTestAdvisorService(t)
	defer setup.cleanup()

	tip := &models.Tip{ID: "t1", Status: models.StatusPending}
	setup.advisor.EXPECT().CheckResult(gomock.Any(), tip).Return(&models.ResultSuggestion{Status: models.StatusVoid}, nil)
	setup.cache.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	suggestion, err := setup.service.Suggest(setup.ctx, tip)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVoid, suggestion.Status)
}

// TestGetSuggestion tests reading cached suggestions
func TestGetSuggestion(t *testing.T) {
	setup := setupTestAdvisorService(t)
	defer setup.cleanup()

	want := &models.ResultSuggestion{TipID: "t1", Status: models.StatusWon}
	setup.cache.EXPECT().Get(gomock.Any(), "t1").Return(want, nil)
	setup.cache.EXPECT().Get(gomock.Any(), "t2").Return(nil, models.ErrNotFound)

	got, err := setup.service.GetSuggestion(setup.ctx, admin, "t1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = setup.service.GetSuggestion(setup.ctx, admin, "t2")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = setup.service.GetSuggestion(setup.ctx, user, "t1")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
