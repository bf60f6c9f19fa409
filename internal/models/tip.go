package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the risk/odds band a tip is published under
type Category string

const (
	CategorySingle   Category = "SINGLE"
	CategoryOdd2Plus Category = "ODD_2_PLUS"
	CategoryOdd4Plus Category = "ODD_4_PLUS"
)

// Categories lists every category in display order
var Categories = []Category{CategorySingle, CategoryOdd2Plus, CategoryOdd4Plus}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategorySingle, CategoryOdd2Plus, CategoryOdd4Plus:
		return true
	}
	return false
}

// Multi reports whether tips in this category are accumulators
func (c Category) Multi() bool {
	return c == CategoryOdd2Plus || c == CategoryOdd4Plus
}

// ParseCategory parses a category name, case-insensitively
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
	}
	return c, nil
}

// TipStatus is the settlement state of a tip
type TipStatus string

const (
	StatusPending TipStatus = "PENDING"
	StatusWon     TipStatus = "WON"
	StatusLost    TipStatus = "LOST"
	StatusVoid    TipStatus = "VOID"
)

// Terminal reports whether s is a settled outcome
func (s TipStatus) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusVoid
}

// VoteType is the community sentiment a vote expresses
type VoteType string

const (
	VoteAgree    VoteType = "agree"
	VoteDisagree VoteType = "disagree"
)

// Valid reports whether v is agree or disagree
func (v VoteType) Valid() bool {
	return v == VoteAgree || v == VoteDisagree
}

// Leg is a single match prediction inside an accumulator
type Leg struct {
	Teams      string `json:"teams" firestore:"teams"`
	League     string `json:"league" firestore:"league"`
	Prediction string `json:"prediction" firestore:"prediction"`
}

// Votes holds community sentiment counters
type Votes struct {
	Agree    int64 `json:"agree" firestore:"agree"`
	Disagree int64 `json:"disagree" firestore:"disagree"`
}

// Total returns the number of votes cast
func (v Votes) Total() int64 {
	return v.Agree + v.Disagree
}

// Tip is a published bet recommendation, single or accumulator
type Tip struct {
	ID          string          `json:"id"`
	Category    Category        `json:"category"`
	Teams       string          `json:"teams"`
	League      string          `json:"league"`
	Prediction  string          `json:"prediction"`
	Legs        []Leg           `json:"legs"`
	Odds        decimal.Decimal `json:"odds"`
	KickoffTime time.Time       `json:"kickoff_time"`
	Status      TipStatus       `json:"status"`
	ResultScore *string         `json:"result_score,omitempty"`
	Votes       Votes           `json:"votes"`
	Analysis    string          `json:"analysis,omitempty"`
	BettingCode string          `json:"betting_code,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IsMulti reports whether the tip is an accumulator
func (t *Tip) IsMulti() bool {
	return len(t.Legs) > 0
}

// Clone returns a deep copy of the tip
func (t *Tip) Clone() *Tip {
	c := *t
	if t.Legs != nil {
		c.Legs = make([]Leg, len(t.Legs))
		copy(c.Legs, t.Legs)
	}
	if t.ResultScore != nil {
		score := *t.ResultScore
		c.ResultScore = &score
	}
	return &c
}

// Normalize replaces a nil leg list with an empty one so single tips
// serialize legs as [] rather than null
func (t *Tip) Normalize() *Tip {
	if t.Legs == nil {
		t.Legs = []Leg{}
	}
	return t
}

// CreateTipInput is the payload an admin submits to publish a tip
type CreateTipInput struct {
	Category    Category        `json:"category"`
	Teams       string          `json:"teams"`
	League      string          `json:"league"`
	Prediction  string          `json:"prediction"`
	Legs        []Leg           `json:"legs"`
	Odds        decimal.Decimal `json:"odds"`
	KickoffTime time.Time       `json:"kickoff_time"`
	Analysis    string          `json:"analysis"`
	BettingCode string          `json:"betting_code"`
}

// Placeholder summary text stored on accumulators
const (
	AccumulatorLeague     = "Multiple leagues"
	AccumulatorPrediction = "Accumulator"
)

// Validate checks category/legs consistency and required fields
func (in *CreateTipInput) Validate() error {
	if !in.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, in.Category)
	}
	if !in.Odds.IsPositive() {
		return fmt.Errorf("%w: odds must be positive", ErrValidation)
	}
	if in.KickoffTime.IsZero() {
		return fmt.Errorf("%w: kickoff_time is required", ErrValidation)
	}

	if !in.Category.Multi() {
		if len(in.Legs) > 0 {
			return fmt.Errorf("%w: %s tips cannot have legs", ErrValidation, in.Category)
		}
		if blank(in.Teams) || blank(in.League) || blank(in.Prediction) {
			return fmt.Errorf("%w: teams, league and prediction are required", ErrValidation)
		}
		return nil
	}

	if len(in.Legs) == 0 {
		return fmt.Errorf("%w: %s tips need at least one leg", ErrValidation, in.Category)
	}
	for i, leg := range in.Legs {
		if blank(leg.Teams) || blank(leg.League) || blank(leg.Prediction) {
			return fmt.Errorf("%w: leg %d is missing teams, league or prediction", ErrValidation, i+1)
		}
	}
	return nil
}

// NewTip builds a PENDING tip from validated input
func NewTip(id string, in CreateTipInput, now time.Time) *Tip {
	tip := &Tip{
		ID:          id,
		Category:    in.Category,
		Teams:       strings.TrimSpace(in.Teams),
		League:      strings.TrimSpace(in.League),
		Prediction:  strings.TrimSpace(in.Prediction),
		Odds:        in.Odds,
		KickoffTime: in.KickoffTime.UTC(),
		Legs:        []Leg{},
		Status:      StatusPending,
		Analysis:    strings.TrimSpace(in.Analysis),
		BettingCode: strings.TrimSpace(in.BettingCode),
		CreatedAt:   now.UTC(),
	}

	if len(in.Legs) > 0 {
		tip.Legs = make([]Leg, len(in.Legs))
		copy(tip.Legs, in.Legs)
		if tip.Teams == "" {
			tip.Teams = fmt.Sprintf("Accumulator (%d matches)", len(in.Legs))
		}
		if tip.League == "" {
			tip.League = AccumulatorLeague
		}
		if tip.Prediction == "" {
			tip.Prediction = AccumulatorPrediction
		}
	}

	return tip
}

// SettleTipInput carries a terminal outcome and optional final score
type SettleTipInput struct {
	Status TipStatus `json:"status"`
	Score  *string   `json:"score,omitempty"`
}

// Validate checks that the requested status is terminal
func (in *SettleTipInput) Validate() error {
	if !in.Status.Terminal() {
		return fmt.Errorf("%w: status must be WON, LOST or VOID, got %q", ErrValidation, in.Status)
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
