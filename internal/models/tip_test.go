package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleInput() CreateTipInput {
	return CreateTipInput{
		Category:    CategorySingle,
		Teams:       "Arsenal vs Chelsea",
		League:      "Premier League",
		Prediction:  "Over 2.5",
		Odds:        decimal.RequireFromString("1.85"),
		KickoffTime: time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC),
	}
}

func accumulatorInput(category Category, legs int) CreateTipInput {
	in := CreateTipInput{
		Category:    category,
		Odds:        decimal.RequireFromString("4.20"),
		KickoffTime: time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC),
	}
	for i := 0; i < legs; i++ {
		in.Legs = append(in.Legs, Leg{Teams: "A vs B", League: "Serie A", Prediction: "1X"})
	}
	return in
}

// TestCreateTipInput_Validate tests category and legs consistency
func TestCreateTipInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateTipInput)
		input   CreateTipInput
		wantErr bool
	}{
		{name: "valid single", input: singleInput()},
		{name: "valid accumulator", input: accumulatorInput(CategoryOdd2Plus, 2)},
		{name: "valid four plus", input: accumulatorInput(CategoryOdd4Plus, 4)},
		{
			name:    "unknown category",
			input:   singleInput(),
			mutate:  func(in *CreateTipInput) { in.Category = "PARLAY" },
			wantErr: true,
		},
		{
			name:    "single with legs",
			input:   singleInput(),
			mutate:  func(in *CreateTipInput) { in.Legs = []Leg{{Teams: "A", League: "B", Prediction: "C"}} },
			wantErr: true,
		},
		{
			name:    "single missing prediction",
			input:   singleInput(),
			mutate:  func(in *CreateTipInput) { in.Prediction = "  " },
			wantErr: true,
		},
		{
			name:    "accumulator without legs",
			input:   accumulatorInput(CategoryOdd2Plus, 0),
			wantErr: true,
		},
		{
			name:    "incomplete leg",
			input:   accumulatorInput(CategoryOdd4Plus, 3),
			mutate:  func(in *CreateTipInput) { in.Legs[1].League = "" },
			wantErr: true,
		},
		{
			name:    "zero odds",
			input:   singleInput(),
			mutate:  func(in *CreateTipInput) { in.Odds = decimal.Zero },
			wantErr: true,
		},
		{
			name:    "missing kickoff",
			input:   singleInput(),
			mutate:  func(in *CreateTipInput) { in.KickoffTime = time.Time{} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			err := in.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestNewTip_Single tests that single tips start pending with an empty leg list
func TestNewTip_Single(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	tip := NewTip("tip-1", singleInput(), now)

	assert.Equal(t, "tip-1", tip.ID)
	assert.Equal(t, StatusPending, tip.Status)
	assert.NotNil(t, tip.Legs)
	assert.Empty(t, tip.Legs)
	assert.False(t, tip.IsMulti())
	assert.Nil(t, tip.ResultScore)
	assert.Zero(t, tip.Votes.Total())
	assert.Equal(t, now, tip.CreatedAt)
}

// TestNewTip_AccumulatorPlaceholders tests summary fields filled in for accumulators
func TestNewTip_AccumulatorPlaceholders(t *testing.T) {
	tip := NewTip("tip-2", accumulatorInput(CategoryOdd4Plus, 5), time.Now())

	assert.True(t, tip.IsMulti())
	assert.Len(t, tip.Legs, 5)
	assert.Equal(t, "Accumulator (5 matches)", tip.Teams)
	assert.Equal(t, AccumulatorLeague, tip.League)
	assert.Equal(t, AccumulatorPrediction, tip.Prediction)
}

// TestTip_Clone tests that clones share no mutable state
func TestTip_Clone(t *testing.T) {
	score := "2-1"
	tip := NewTip("tip-3", accumulatorInput(CategoryOdd2Plus, 2), time.Now())
	tip.ResultScore = &score

	clone := tip.Clone()
	clone.Legs[0].Teams = "changed"
	*clone.ResultScore = "0-0"

	assert.Equal(t, "A vs B", tip.Legs[0].Teams)
	assert.Equal(t, "2-1", *tip.ResultScore)
}

// TestParseCategory tests case-insensitive category parsing
func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" odd_2_plus ")
	require.NoError(t, err)
	assert.Equal(t, CategoryOdd2Plus, c)

	_, err = ParseCategory("treble")
	assert.ErrorIs(t, err, ErrValidation)
}

// TestSettleTipInput_Validate tests that only terminal statuses are accepted
func TestSettleTipInput_Validate(t *testing.T) {
	for _, s := range []TipStatus{StatusWon, StatusLost, StatusVoid} {
		in := SettleTipInput{Status: s}
		assert.NoError(t, in.Validate())
	}
	in := SettleTipInput{Status: StatusPending}
	assert.ErrorIs(t, in.Validate(), ErrValidation)
}

// TestActor tests role checks
func TestActor(t *testing.T) {
	assert.True(t, Actor{}.Anonymous())
	assert.False(t, Actor{Role: RoleAdmin}.IsAdmin())
	assert.True(t, Actor{UserID: "u1", Role: "admin"}.IsAdmin())
	assert.False(t, Actor{UserID: "u1", Role: RoleUser}.IsAdmin())
}
