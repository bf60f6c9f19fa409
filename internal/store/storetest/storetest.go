// Package storetest is a conformance suite every service.Backend
// implementation runs from its own tests.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/maestro-tips/internal/models"
	"github.com/cypherlabdev/maestro-tips/internal/service"
)

// Factory returns an empty backend. It is called once per subtest.
type Factory func(t *testing.T) service.Backend

// Run executes the conformance suite against backends built by newBackend
func Run(t *testing.T, newBackend Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, b service.Backend)
	}{
		{"CreateAndGetTip", testCreateAndGetTip},
		{"GetTipNotFound", testGetTipNotFound},
		{"AccumulatorLegsRoundTrip", testAccumulatorLegsRoundTrip},
		{"ListTips", testListTips},
		{"VoteOnTip", testVoteOnTip},
		{"VoteOnMissingTip", testVoteOnMissingTip},
		{"SettleTip", testSettleTip},
		{"SettleTipTwice", testSettleTipTwice},
		{"SettleMissingTip", testSettleMissingTip},
		{"DeleteTip", testDeleteTip},
		{"News", testNews},
		{"Messages", testMessages},
		{"ReplyTwice", testReplyTwice},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend(t)
			t.Cleanup(func() { _ = b.Close() })
			tt.fn(t, b)
		})
	}
}

var created = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// NewSingleTip returns a pending single tip with the given id
func NewSingleTip(id string, createdAt time.Time) *models.Tip {
	return models.NewTip(id, models.CreateTipInput{
		Category:    models.CategorySingle,
		Teams:       "Real Madrid vs Barcelona",
		League:      "La Liga",
		Prediction:  "Both teams to score",
		Odds:        decimal.RequireFromString("1.72"),
		KickoffTime: time.Date(2026, 3, 15, 20, 0, 0, 0, time.UTC),
		Analysis:    "Both sides scored in the last five meetings.",
	}, createdAt)
}

// NewAccumulatorTip returns a pending ODD_4_PLUS tip with two legs
func NewAccumulatorTip(id string, createdAt time.Time) *models.Tip {
	return models.NewTip(id, models.CreateTipInput{
		Category: models.CategoryOdd4Plus,
		Legs: []models.Leg{
			{Teams: "Ajax vs PSV", League: "Eredivisie", Prediction: "Over 2.5"},
			{Teams: "Celtic vs Rangers", League: "Premiership", Prediction: "Home win"},
		},
		Odds:        decimal.RequireFromString("4.35"),
		KickoffTime: time.Date(2026, 3, 16, 18, 0, 0, 0, time.UTC),
		BettingCode: "X7K2P",
	}, createdAt)
}

func testCreateAndGetTip(t *testing.T, b service.Backend) {
	ctx := context.Background()
	tip := NewSingleTip("tip-single", created)
	require.NoError(t, b.CreateTip(ctx, tip))

	got, err := b.GetTip(ctx, tip.ID)
	require.NoError(t, err)
	assertSameTip(t, tip, got)
}

func testGetTipNotFound(t *testing.T, b service.Backend) {
	_, err := b.GetTip(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testAccumulatorLegsRoundTrip(t *testing.T, b service.Backend) {
	ctx := context.Background()
	tip := NewAccumulatorTip("tip-acca", created)
	require.NoError(t, b.CreateTip(ctx, tip))

	tips, err := b.ListTips(ctx)
	require.NoError(t, err)
	require.Len(t, tips, 1)
	assertSameTip(t, tip, tips[0])
}

func testListTips(t *testing.T, b service.Backend) {
	ctx := context.Background()

	tips, err := b.ListTips(ctx)
	require.NoError(t, err)
	assert.Empty(t, tips)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.CreateTip(ctx, NewSingleTip(fmt.Sprintf("tip-%d", i), created.Add(time.Duration(i)*time.Minute))))
	}

	tips, err = b.ListTips(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(tips))
	for _, tip := range tips {
		ids = append(ids, tip.ID)
	}
	assert.ElementsMatch(t, []string{"tip-0", "tip-1", "tip-2"}, ids)
}

func testVoteOnTip(t *testing.T, b service.Backend) {
	ctx := context.Background()
	tip := NewSingleTip("tip-vote", created)
	require.NoError(t, b.CreateTip(ctx, tip))

	votes := []models.VoteType{models.VoteAgree, models.VoteDisagree, models.VoteAgree, models.VoteAgree}
	var last models.Votes
	var err error
	for _, v := range votes {
		last, err = b.VoteOnTip(ctx, tip.ID, v)
		require.NoError(t, err)
	}
	assert.Equal(t, models.Votes{Agree: 3, Disagree: 1}, last)

	got, err := b.GetTip(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, last, got.Votes)
}

func testVoteOnMissingTip(t *testing.T, b service.Backend) {
	_, err := b.VoteOnTip(context.Background(), "nope", models.VoteAgree)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testSettleTip(t *testing.T, b service.Backend) {
	ctx := context.Background()
	tip := NewSingleTip("tip-settle", created)
	require.NoError(t, b.CreateTip(ctx, tip))

	score := "2-1"
	settled, err := b.SettleTip(ctx, tip.ID, models.StatusWon, &score)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWon, settled.Status)
	require.NotNil(t, settled.ResultScore)
	assert.Equal(t, "2-1", *settled.ResultScore)

	got, err := b.GetTip(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWon, got.Status)
	require.NotNil(t, got.ResultScore)
	assert.Equal(t, "2-1", *got.ResultScore)

	// settling without a score leaves it unset
	other := NewSingleTip("tip-void", created)
	require.NoError(t, b.CreateTip(ctx, other))
	voided, err := b.SettleTip(ctx, other.ID, models.StatusVoid, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVoid, voided.Status)
	assert.Nil(t, voided.ResultScore)
}

func testSettleTipTwice(t *testing.T, b service.Backend) {
	ctx := context.Background()
	tip := NewSingleTip("tip-twice", created)
	require.NoError(t, b.CreateTip(ctx, tip))

	first := "1-0"
	_, err := b.SettleTip(ctx, tip.ID, models.StatusWon, &first)
	require.NoError(t, err)

	second := "0-2"
	_, err = b.SettleTip(ctx, tip.ID, models.StatusLost, &second)
	assert.ErrorIs(t, err, models.ErrConflict)

	got, err := b.GetTip(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWon, got.Status)
	assert.Equal(t, "1-0", *got.ResultScore)
}

func testSettleMissingTip(t *testing.T, b service.Backend) {
	_, err := b.SettleTip(context.Background(), "nope", models.StatusWon, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testDeleteTip(t *testing.T, b service.Backend) {
	ctx := context.Background()
	tip := NewSingleTip("tip-delete", created)
	require.NoError(t, b.CreateTip(ctx, tip))

	require.NoError(t, b.DeleteTip(ctx, tip.ID))
	_, err := b.GetTip(ctx, tip.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	tips, err := b.ListTips(ctx)
	require.NoError(t, err)
	assert.Empty(t, tips)

	assert.NoError(t, b.DeleteTip(ctx, tip.ID))
}

func testNews(t *testing.T, b service.Backend) {
	ctx := context.Background()
	source := "BBC Sport"
	match := time.Date(2026, 4, 2, 19, 0, 0, 0, time.UTC)
	post := &models.NewsPost{
		ID:        "news-1",
		Title:     "Title race",
		Category:  "analysis",
		Body:      "Three points separate the top four.",
		Source:    &source,
		MatchDate: &match,
		CreatedAt: created,
	}
	require.NoError(t, b.CreateNews(ctx, post))
	require.NoError(t, b.CreateNews(ctx, &models.NewsPost{ID: "news-2", Title: "Other", Body: "x", CreatedAt: created}))

	posts, err := b.ListNews(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	var got *models.NewsPost
	for _, p := range posts {
		if p.ID == post.ID {
			got = p
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, post.Body, got.Body)
	require.NotNil(t, got.Source)
	assert.Equal(t, source, *got.Source)
	require.NotNil(t, got.MatchDate)
	assert.True(t, match.Equal(*got.MatchDate))
	assert.Nil(t, got.ImageURL)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, b.DeleteNews(ctx, post.ID))
	require.NoError(t, b.DeleteNews(ctx, post.ID))
	posts, err = b.ListNews(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func testMessages(t *testing.T, b service.Backend) {
	ctx := context.Background()
	require.NoError(t, b.CreateMessage(ctx, &models.Message{ID: "m1", UserID: "u1", UserName: "Ann", Content: "hi", CreatedAt: created}))
	require.NoError(t, b.CreateMessage(ctx, &models.Message{ID: "m2", UserID: "u2", UserName: "Bob", Content: "yo", CreatedAt: created}))
	require.NoError(t, b.CreateMessage(ctx, &models.Message{ID: "m3", UserID: "u1", UserName: "Ann", Content: "again", CreatedAt: created.Add(time.Minute)}))

	all, err := b.ListMessages(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := b.ListMessagesByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, m := range mine {
		assert.Equal(t, "u1", m.UserID)
	}

	none, err := b.ListMessagesByUser(ctx, "u9")
	require.NoError(t, err)
	assert.Empty(t, none)

	replied, err := b.ReplyToMessage(ctx, "m2", "Noted")
	require.NoError(t, err)
	require.NotNil(t, replied.Reply)
	assert.Equal(t, "Noted", *replied.Reply)
	assert.True(t, replied.IsRead)
	assert.Equal(t, "yo", replied.Content)

	_, err = b.ReplyToMessage(ctx, "missing", "x")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testReplyTwice(t *testing.T, b service.Backend) {
	ctx := context.Background()
	require.NoError(t, b.CreateMessage(ctx, &models.Message{ID: "m1", UserID: "u1", Content: "hi", CreatedAt: created}))

	_, err := b.ReplyToMessage(ctx, "m1", "first")
	require.NoError(t, err)

	_, err = b.ReplyToMessage(ctx, "m1", "second")
	assert.ErrorIs(t, err, models.ErrConflict)

	msgs, err := b.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "first", *msgs[0].Reply)
}

func testPing(t *testing.T, b service.Backend) {
	assert.NoError(t, b.Ping(context.Background()))
	assert.NotEmpty(t, b.Name())
}

func assertSameTip(t *testing.T, want, got *models.Tip) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.Teams, got.Teams)
	assert.Equal(t, want.League, got.League)
	assert.Equal(t, want.Prediction, got.Prediction)
	assert.Equal(t, len(want.Legs), len(got.Legs))
	if len(want.Legs) > 0 {
		assert.Equal(t, want.Legs, got.Legs)
	}
	assert.True(t, want.Odds.Equal(got.Odds), "odds %s != %s", want.Odds, got.Odds)
	assert.True(t, want.KickoffTime.Equal(got.KickoffTime))
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Votes, got.Votes)
	assert.Equal(t, want.Analysis, got.Analysis)
	assert.Equal(t, want.BettingCode, got.BettingCode)
}
