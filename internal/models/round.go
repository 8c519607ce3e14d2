package models

import (
	"encoding/json"
	"time"
)

// Game identifies one of the three minigames
type Game string

const (
	GameQuiz       Game = "quiz"
	GameCategories Game = "categories"
	GameDetective  Game = "detective"
)

// Round lifecycle states. A round leaves in_progress exactly once;
// every other state is terminal.
const (
	RoundInProgress = "in_progress"
	RoundComplete   = "complete"
	RoundExhausted  = "exhausted"
	RoundExpired    = "expired"
)

// TriesPerRound is the incorrect-guess budget every round starts with
const TriesPerRound = 3

// XPPerCorrect is the reward for each correctly solved item
const XPPerCorrect = 20

// Round is one playthrough attempt of a minigame. Payload holds the
// generated items including server-held answers; Progress holds what the
// user has done so far. Neither is sent to the client verbatim.
type Round struct {
	ID             string
	UserID         string
	Game           Game
	Status         string
	TriesRemaining int
	Payload        json.RawMessage
	Progress       json.RawMessage
	StartedAt      time.Time
	UpdatedAt      time.Time
}

// Terminal reports whether the round can no longer accept submissions
func (r *Round) Terminal() bool {
	return r.Status != RoundInProgress
}

// RoundSummary is the per-round history entry kept in game state
type RoundSummary struct {
	RoundID         string  `json:"round_id"`
	WeekStart       string  `json:"week_start"`
	Difficulty      string  `json:"difficulty,omitempty"`
	Correct         int     `json:"correct"`
	Total           int     `json:"total"`
	Accuracy        float64 `json:"accuracy"`
	XPEarned        int     `json:"xp_earned"`
	StreakMaintained bool   `json:"streak_maintained"`
	CompletedAt     string  `json:"completed_at"`
}

// GameState is the durable per-user per-game record: streak, quiz
// difficulty, weekly-cap marker and recent round history.
type GameState struct {
	UserID         string
	Game           Game
	Streak         int
	Difficulty     string
	LastPlayedWeek string
	History        []RoundSummary
	LastSummary    *RoundSummary
	UpdatedAt      time.Time
}
