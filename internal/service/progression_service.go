package service

import (
	"fmt"
	"log"
	"math"

	"finquest/internal/auth"
	"finquest/internal/database"
	"finquest/internal/models"
	"finquest/internal/repository"
)

// MaxLevel caps the derived level
const MaxLevel = 100

// ranks in ascending threshold order. Thresholds are lifetime XP.
var ranks = []models.Rank{
	{Name: "Penny Pincher", Color: "#B87333", Tier: "bronze", Threshold: 0},
	{Name: "Savvy Saver", Color: "#CD7F32", Tier: "bronze", Threshold: 500},
	{Name: "Budget Master", Color: "#C0C0C0", Tier: "silver", Threshold: 1500},
	{Name: "Portfolio Pro", Color: "#FFD700", Tier: "gold", Threshold: 3500},
	{Name: "Investment Expert", Color: "#E5E4E2", Tier: "platinum", Threshold: 7000},
	{Name: "Finance Legend", Color: "#B9F2FF", Tier: "diamond", Threshold: 12000},
}

// ProgressionService owns the cross-game XP ledger and everything
// derived from it.
type ProgressionService struct {
	repo      *repository.ProgressionRepository
	stateRepo *repository.GameStateRepository
	email     *EmailService
}

// NewProgressionService creates a new progression service
func NewProgressionService(repo *repository.ProgressionRepository, stateRepo *repository.GameStateRepository, email *EmailService) *ProgressionService {
	return &ProgressionService{repo: repo, stateRepo: stateRepo, email: email}
}

// Ranks returns the rank table in ascending order
func (s *ProgressionService) Ranks() []models.Rank {
	out := make([]models.Rank, len(ranks))
	copy(out, ranks)
	return out
}

// Level derives the level for a lifetime XP total
func Level(totalXP int) int {
	if totalXP <= 0 {
		return 1
	}
	level := int(math.Sqrt(float64(totalXP) / 2))
	if level < 1 {
		return 1
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// RankFor derives the rank bracket and position for a lifetime XP total
func RankFor(totalXP int) models.RankInfo {
	current := ranks[0]
	var next *models.Rank
	for i := range ranks {
		if totalXP >= ranks[i].Threshold {
			current = ranks[i]
			if i+1 < len(ranks) {
				n := ranks[i+1]
				next = &n
			} else {
				next = nil
			}
		}
	}

	info := models.RankInfo{Rank: current, NextRank: next}
	if next != nil {
		span := next.Threshold - current.Threshold
		info.XPInRank = totalXP - current.Threshold
		info.XPForNext = next.Threshold - totalXP
		if span > 0 {
			info.Progress = float64(info.XPInRank) / float64(span)
		}
	} else {
		info.XPInRank = totalXP - current.Threshold
		info.Progress = 1.0
	}
	return info
}

// Profile is the client-facing progression view
type Profile struct {
	UserID       string          `json:"user_id"`
	TotalXP      int             `json:"total_xp"`
	Level        int             `json:"level"`
	Rank         models.RankInfo `json:"rank"`
	GamesPlayed  int             `json:"games_played"`
	LastXPSource string          `json:"last_xp_source,omitempty"`
	LastXPAmount int             `json:"last_xp_amount,omitempty"`
}

// GetProfile builds the profile for a user
func (s *ProgressionService) GetProfile(userID string) (*Profile, error) {
	prog, err := s.repo.Get(userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		UserID:       userID,
		TotalXP:      prog.TotalXP,
		Level:        Level(prog.TotalXP),
		Rank:         RankFor(prog.TotalXP),
		GamesPlayed:  prog.GamesPlayed,
		LastXPSource: prog.LastXPSource,
		LastXPAmount: prog.LastXPAmount,
	}, nil
}

// GameStats is one game's slice of the stats view
type GameStats struct {
	Streak      int                   `json:"streak"`
	Difficulty  string                `json:"difficulty,omitempty"`
	LastSummary *models.RoundSummary  `json:"last_summary,omitempty"`
	History     []models.RoundSummary `json:"history"`
}

// GetStats builds the per-game stats view
func (s *ProgressionService) GetStats(userID string) (map[string]GameStats, error) {
	stats := make(map[string]GameStats)
	for _, game := range []models.Game{models.GameQuiz, models.GameCategories, models.GameDetective} {
		state, err := s.stateRepo.Get(userID, game)
		if err != nil {
			return nil, err
		}
		gs := GameStats{History: []models.RoundSummary{}}
		if state != nil {
			gs.Streak = state.Streak
			gs.Difficulty = state.Difficulty
			gs.LastSummary = state.LastSummary
			if state.History != nil {
				gs.History = state.History
			}
		}
		stats[string(game)] = gs
	}
	return stats, nil
}

// Award credits XP on the caller's transaction. The ledger increment is
// a single relative UPDATE, so two games finalizing at once both land.
func (s *ProgressionService) Award(q database.DBTX, userID, source string, xp int) error {
	return s.repo.RecordGame(q, userID, source, xp)
}

// PriorTotal fetches the ledger total before an award, for rank-change
// detection.
func (s *ProgressionService) PriorTotal(userID string) (int, error) {
	prog, err := s.repo.Get(userID)
	if err != nil {
		return 0, err
	}
	return prog.TotalXP, nil
}

// NotifyRankChange sends a rank-up email when the award crossed a rank
// threshold. Fire and forget; a failed email never fails the round.
func (s *ProgressionService) NotifyRankChange(user auth.Identity, oldXP, newXP int) {
	if s.email == nil || user.Email == "" {
		return
	}
	oldRank := RankFor(oldXP)
	newRank := RankFor(newXP)
	if oldRank.Name == newRank.Name {
		return
	}
	go func() {
		if err := s.email.SendRankUpEmail(user.Email, user.Name, newRank.Rank, Level(newXP)); err != nil {
			log.Printf("Failed to send rank-up email to %s: %v", user.Email, err)
		}
	}()
}

// sourceFor labels a ledger entry with the game that produced it
func sourceFor(game models.Game) string {
	return fmt.Sprintf("game:%s", game)
}
