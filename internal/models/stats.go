package models

import "time"

// MaestroStats is the win-rate and form summary derived from settled tips
type MaestroStats struct {
	WinRate   float64     `json:"win_rate"`   // percentage, one decimal
	TotalTips int         `json:"total_tips"` // settled tips only
	WonTips   int         `json:"won_tips"`
	Streak    []TipStatus `json:"streak"` // most recent first
}

// Board is the global summary plus one summary per category
type Board struct {
	Global     MaestroStats              `json:"global"`
	Categories map[Category]MaestroStats `json:"categories"`
}

// EventType names a tip lifecycle event
type EventType string

const (
	EventTipCreated EventType = "tip.created"
	EventTipVoted   EventType = "tip.voted"
	EventTipSettled EventType = "tip.settled"
	EventTipDeleted EventType = "tip.deleted"
)

// TipEvent is published after every successful tip mutation
type TipEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TipID     string    `json:"tip_id"`
	Category  Category  `json:"category,omitempty"`
	Tip       *Tip      `json:"tip,omitempty"`
	Votes     *Votes    `json:"votes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ResultSuggestion is an unverified, AI-produced settlement proposal.
// It never changes a tip's status on its own.
type ResultSuggestion struct {
	TipID      string    `json:"tip_id"`
	Status     TipStatus `json:"status"`
	Score      string    `json:"score,omitempty"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	CheckedAt  time.Time `json:"checked_at"`
}

// AnalysisRequest describes the match(es) an analysis draft is wanted for
type AnalysisRequest struct {
	Category   Category `json:"category"`
	Teams      string   `json:"teams"`
	League     string   `json:"league"`
	Prediction string   `json:"prediction"`
	Legs       []Leg    `json:"legs"`
}
