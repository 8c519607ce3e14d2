package models

import "time"

// Progression is a user's cross-game XP record. Level and rank are never
// stored; they are derived from TotalXP on read so they cannot drift.
type Progression struct {
	UserID       string
	TotalXP      int
	GamesPlayed  int
	LastXPSource string
	LastXPAmount int
	UpdatedAt    time.Time
}

// Rank is a named XP bracket
type Rank struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	Tier      string `json:"tier"`
	Threshold int    `json:"threshold"`
}

// RankInfo is a rank plus the user's position inside it
type RankInfo struct {
	Rank
	NextRank  *Rank   `json:"next_rank,omitempty"`
	Progress  float64 `json:"progress"`
	XPInRank  int     `json:"xp_in_rank"`
	XPForNext int     `json:"xp_for_next"`
}
