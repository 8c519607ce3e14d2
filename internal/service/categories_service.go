package service

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finquest/internal/auth"
	"finquest/internal/database"
	"finquest/internal/models"
	"finquest/internal/repository"
)

const (
	// CategoriesTileCount is the number of category/amount pairs per round
	CategoriesTileCount = 5

	// MinActiveCategories is the floor of spending buckets with activity
	// needed to build a round
	MinActiveCategories = 3

	// maxZeroDecoys caps the padding tiles for thin category data
	maxZeroDecoys = 2
)

// CategoriesService runs the category matching game: pair each spending
// bucket with what was actually spent on it.
type CategoriesService struct {
	db          *database.DB
	rounds      *repository.RoundRepository
	states      *repository.GameStateRepository
	txns        *repository.TransactionRepository
	progression *ProgressionService
	locks       *roundLocks
}

// NewCategoriesService creates a new categories service
func NewCategoriesService(db *database.DB, rounds *repository.RoundRepository, states *repository.GameStateRepository, txns *repository.TransactionRepository, progression *ProgressionService) *CategoriesService {
	return &CategoriesService{
		db:          db,
		rounds:      rounds,
		states:      states,
		txns:        txns,
		progression: progression,
		locks:       newRoundLocks(),
	}
}

// CategoriesRoundView is the client-facing view of a round. Amount tiles
// arrive shuffled; which amount belongs to which category is the game.
type CategoriesRoundView struct {
	RoundID        string                `json:"round_id"`
	WeekStart      string                `json:"week_start"`
	CategoryTiles  []models.CategoryTile `json:"category_tiles"`
	AmountTiles    []models.AmountTile   `json:"amount_tiles"`
	TriesRemaining int                   `json:"tries_remaining"`
	Solved         []models.MatchPair    `json:"solved"`
	Status         string                `json:"status"`
}

// CategoriesStartResult is either a playable round or a low-data grant.
// The grant carries the updated ledger totals.
type CategoriesStartResult struct {
	Round   *CategoriesRoundView `json:"round,omitempty"`
	Granted bool                 `json:"granted"`
	GrantXP int                  `json:"grant_xp,omitempty"`
	TotalXP int                  `json:"total_xp,omitempty"`
	Level   int                  `json:"level,omitempty"`
	Streak  int                  `json:"streak,omitempty"`
	Message string               `json:"message,omitempty"`
}

// Start begins a matching round from the past week's spending, or
// resumes the active one. The game has no weekly cap.
func (s *CategoriesService) Start(user auth.Identity) (*CategoriesStartResult, error) {
	now := time.Now().UTC()

	active, err := s.rounds.GetActive(user.UserID, models.GameCategories)
	if err != nil {
		return nil, err
	}
	if active != nil {
		view, err := s.roundView(active)
		if err != nil {
			return nil, err
		}
		return &CategoriesStartResult{Round: view}, nil
	}

	weekTxns, err := s.txns.ListSince(user.UserID, DaysAgo(now, 7))
	if err != nil {
		return nil, err
	}
	totals := SumByCategory(weekTxns)
	if len(totals) < MinActiveCategories {
		return s.grantLowData(user)
	}

	rng := rand.New(rand.NewSource(now.UnixNano()))
	payload := buildCategoriesPayload(totals, WeekStart(now), rng)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode categories payload: %w", err)
	}
	progressJSON, err := json.Marshal(models.CategoriesProgress{})
	if err != nil {
		return nil, err
	}

	round := &models.Round{
		ID:             uuid.New().String(),
		UserID:         user.UserID,
		Game:           models.GameCategories,
		Status:         models.RoundInProgress,
		TriesRemaining: models.TriesPerRound,
		Payload:        payloadJSON,
		Progress:       progressJSON,
		StartedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.rounds.Create(round); err != nil {
		return nil, err
	}

	view, err := s.roundView(round)
	if err != nil {
		return nil, err
	}
	return &CategoriesStartResult{Round: view}, nil
}

func (s *CategoriesService) grantLowData(user auth.Identity) (*CategoriesStartResult, error) {
	priorXP, err := s.progression.PriorTotal(user.UserID)
	if err != nil {
		return nil, err
	}

	state, err := s.states.Get(user.UserID, models.GameCategories)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &models.GameState{UserID: user.UserID, Game: models.GameCategories}
	}
	state.Streak++

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.progression.Award(tx, user.UserID, "categories:low_data", LowDataXP); err != nil {
		return nil, err
	}
	if err := s.states.Save(tx, state); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.progression.NotifyRankChange(user, priorXP, priorXP+LowDataXP)

	return &CategoriesStartResult{
		Granted: true,
		GrantXP: LowDataXP,
		TotalXP: priorXP + LowDataXP,
		Level:   Level(priorXP + LowDataXP),
		Streak:  state.Streak,
		Message: "You need spending in at least three categories to play. Here's some XP to keep your streak going.",
	}, nil
}

// buildCategoriesPayload selects up to five spending buckets (highest,
// lowest, evenly spaced middles) padded with zero-spend decoys, and
// builds shuffled tile pools with the hidden truth map.
func buildCategoriesPayload(totals []CategoryTotal, weekStart string, rng *rand.Rand) models.CategoriesPayload {
	selected := pickSpread(totals, CategoriesTileCount)

	if len(selected) < CategoriesTileCount {
		used := make(map[string]bool)
		for _, ct := range selected {
			used[ct.Category] = true
		}
		decoys := 0
		for _, c := range models.CategoryBuckets {
			if len(selected) == CategoriesTileCount || decoys == maxZeroDecoys {
				break
			}
			if !used[c] {
				selected = append(selected, CategoryTotal{Category: c, Total: decimal.Zero})
				decoys++
			}
		}
	}

	shuffledCats := make([]CategoryTotal, len(selected))
	copy(shuffledCats, selected)
	rng.Shuffle(len(shuffledCats), func(i, j int) {
		shuffledCats[i], shuffledCats[j] = shuffledCats[j], shuffledCats[i]
	})

	amountOrder := make([]int, len(shuffledCats))
	for i := range amountOrder {
		amountOrder[i] = i
	}
	rng.Shuffle(len(amountOrder), func(i, j int) {
		amountOrder[i], amountOrder[j] = amountOrder[j], amountOrder[i]
	})

	payload := models.CategoriesPayload{
		WeekStart: weekStart,
		Truth:     make(map[string]string),
	}

	amountTileFor := make(map[int]string)
	for pos, catIdx := range amountOrder {
		id := fmt.Sprintf("amt_%d", pos)
		amountTileFor[catIdx] = id
		payload.AmountTiles = append(payload.AmountTiles, models.AmountTile{
			ID:    id,
			Value: shuffledCats[catIdx].Total.RoundBank(2).StringFixed(2),
			Label: money(shuffledCats[catIdx].Total),
		})
	}
	// AmountTiles were appended in shuffled category order; re-sort the
	// pool by tile id so the client sees a stable amt_0..amt_4 list.
	sort.Slice(payload.AmountTiles, func(i, j int) bool {
		return payload.AmountTiles[i].ID < payload.AmountTiles[j].ID
	})

	for i, ct := range shuffledCats {
		catID := fmt.Sprintf("cat_%d", i)
		payload.CategoryTiles = append(payload.CategoryTiles, models.CategoryTile{
			ID:       catID,
			Label:    titleCase(ct.Category),
			Category: ct.Category,
		})
		payload.Truth[catID] = amountTileFor[i]
	}
	return payload
}

// pickSpread keeps the highest, lowest and evenly spaced middle entries
// of a descending-sorted total list
func pickSpread(totals []CategoryTotal, n int) []CategoryTotal {
	if len(totals) <= n {
		out := make([]CategoryTotal, len(totals))
		copy(out, totals)
		return out
	}

	out := make([]CategoryTotal, 0, n)
	last := len(totals) - 1
	for i := 0; i < n; i++ {
		idx := i * last / (n - 1)
		out = append(out, totals[idx])
	}
	return out
}

// CategoriesMatchResult is the outcome of one match attempt. The ledger
// fields are present once the round has finalized.
type CategoriesMatchResult struct {
	Correct        bool                    `json:"correct"`
	TriesRemaining int                     `json:"tries_remaining"`
	Solved         int                     `json:"solved"`
	Total          int                     `json:"total"`
	Status         string                  `json:"status"`
	Reveal         []models.CategoryReveal `json:"reveal,omitempty"`
	Summary        *models.RoundSummary    `json:"summary,omitempty"`
	TotalXP        int                     `json:"total_xp,omitempty"`
	Level          int                     `json:"level,omitempty"`
	Streak         int                     `json:"streak,omitempty"`
}

// Match grades one category/amount pairing. A wrong pair burns a try but
// leaves the board intact. The round finalizes itself when every
// category is matched or the tries run out.
func (s *CategoriesService) Match(user auth.Identity, roundID, categoryID, amountID string) (*CategoriesMatchResult, error) {
	unlock := s.locks.Lock(roundID)
	defer unlock()

	round, err := s.rounds.GetByID(roundID)
	if err != nil {
		return nil, err
	}
	if round == nil || round.UserID != user.UserID || round.Game != models.GameCategories {
		return nil, ErrRoundUnavailable
	}
	if round.Terminal() {
		return nil, ErrRoundUnavailable
	}

	var payload models.CategoriesPayload
	if err := json.Unmarshal(round.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode categories payload: %w", err)
	}
	var progress models.CategoriesProgress
	if err := json.Unmarshal(round.Progress, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode categories progress: %w", err)
	}

	if !hasCategoryTile(payload, categoryID) || findAmountTile(payload, amountID) == nil {
		return nil, ErrInvalidSelection
	}
	if progress.SolvedCategory(categoryID) {
		return nil, ErrAlreadyAnswered
	}
	for _, pair := range progress.Solved {
		if pair.AmountID == amountID {
			return nil, ErrInvalidSelection
		}
	}

	// Zero-spend decoys make duplicate amount labels possible, so grade
	// by value rather than tile identity.
	truthTile := findAmountTile(payload, payload.Truth[categoryID])
	pickedTile := findAmountTile(payload, amountID)
	correct := truthTile != nil && pickedTile.Value == truthTile.Value

	if correct {
		progress.Solved = append(progress.Solved, models.MatchPair{CategoryID: categoryID, AmountID: amountID})
	} else {
		round.TriesRemaining--
	}

	result := &CategoriesMatchResult{
		Correct: correct,
		Solved:  len(progress.Solved),
		Total:   len(payload.CategoryTiles),
	}

	switch {
	case len(progress.Solved) == len(payload.CategoryTiles):
		round.Status = models.RoundComplete
	case round.TriesRemaining <= 0:
		round.TriesRemaining = 0
		round.Status = models.RoundExhausted
	}
	result.TriesRemaining = round.TriesRemaining
	result.Status = round.Status

	if !round.Terminal() {
		data, err := json.Marshal(&progress)
		if err != nil {
			return nil, err
		}
		round.Progress = data
		if err := s.rounds.Update(s.db, round); err != nil {
			return nil, err
		}
		return result, nil
	}

	summary, streak, totalXP, err := s.finalize(user, round, &payload, &progress)
	if err != nil {
		return nil, err
	}
	result.Summary = summary
	result.Streak = streak
	result.TotalXP = totalXP
	result.Level = Level(totalXP)
	result.Reveal = buildReveal(&payload)
	return result, nil
}

// finalize credits XP for solved pairs and updates the streak: kept only
// when the whole board was cleared. Returns the summary, the streak and
// the ledger total after the credit.
func (s *CategoriesService) finalize(user auth.Identity, round *models.Round, payload *models.CategoriesPayload, progress *models.CategoriesProgress) (*models.RoundSummary, int, int, error) {
	solved := len(progress.Solved)
	total := len(payload.CategoryTiles)

	summary := models.RoundSummary{
		RoundID:          round.ID,
		WeekStart:        payload.WeekStart,
		Correct:          solved,
		Total:            total,
		XPEarned:         solved * models.XPPerCorrect,
		StreakMaintained: round.Status == models.RoundComplete,
		CompletedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if total > 0 {
		summary.Accuracy = float64(solved) / float64(total)
	}

	state, err := s.states.Get(user.UserID, models.GameCategories)
	if err != nil {
		return nil, 0, 0, err
	}
	if state == nil {
		state = &models.GameState{UserID: user.UserID, Game: models.GameCategories}
	}
	if summary.StreakMaintained {
		state.Streak++
	} else {
		state.Streak = 0
	}
	state.LastPlayedWeek = payload.WeekStart
	state.History = append(state.History, summary)
	state.LastSummary = &summary

	priorXP, err := s.progression.PriorTotal(user.UserID)
	if err != nil {
		return nil, 0, 0, err
	}

	data, err := json.Marshal(progress)
	if err != nil {
		return nil, 0, 0, err
	}
	round.Progress = data

	tx, err := s.db.Begin()
	if err != nil {
		return nil, 0, 0, err
	}
	defer tx.Rollback()

	if err := s.rounds.Update(tx, round); err != nil {
		return nil, 0, 0, err
	}
	if err := s.states.Save(tx, state); err != nil {
		return nil, 0, 0, err
	}
	if err := s.progression.Award(tx, user.UserID, sourceFor(models.GameCategories), summary.XPEarned); err != nil {
		return nil, 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, 0, err
	}

	s.progression.NotifyRankChange(user, priorXP, priorXP+summary.XPEarned)
	return &summary, state.Streak, priorXP + summary.XPEarned, nil
}

// CategoriesStateResult is the current-round plus game-state view
type CategoriesStateResult struct {
	Round       *CategoriesRoundView `json:"round,omitempty"`
	Streak      int                  `json:"streak"`
	LastSummary *models.RoundSummary `json:"last_summary,omitempty"`
}

// State reports the active round (if any) and the persistent game state
func (s *CategoriesService) State(user auth.Identity) (*CategoriesStateResult, error) {
	result := &CategoriesStateResult{}

	state, err := s.states.Get(user.UserID, models.GameCategories)
	if err != nil {
		return nil, err
	}
	if state != nil {
		result.Streak = state.Streak
		result.LastSummary = state.LastSummary
	}

	active, err := s.rounds.GetActive(user.UserID, models.GameCategories)
	if err != nil {
		return nil, err
	}
	if active != nil {
		result.Round, err = s.roundView(active)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *CategoriesService) roundView(round *models.Round) (*CategoriesRoundView, error) {
	var payload models.CategoriesPayload
	if err := json.Unmarshal(round.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode categories payload: %w", err)
	}
	var progress models.CategoriesProgress
	if err := json.Unmarshal(round.Progress, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode categories progress: %w", err)
	}

	solved := progress.Solved
	if solved == nil {
		solved = []models.MatchPair{}
	}
	return &CategoriesRoundView{
		RoundID:        round.ID,
		WeekStart:      payload.WeekStart,
		CategoryTiles:  payload.CategoryTiles,
		AmountTiles:    payload.AmountTiles,
		TriesRemaining: round.TriesRemaining,
		Solved:         solved,
		Status:         round.Status,
	}, nil
}

// buildReveal lists the true pairings, biggest spend first
func buildReveal(payload *models.CategoriesPayload) []models.CategoryReveal {
	reveal := make([]models.CategoryReveal, 0, len(payload.CategoryTiles))
	for _, cat := range payload.CategoryTiles {
		tile := findAmountTile(*payload, payload.Truth[cat.ID])
		if tile == nil {
			continue
		}
		reveal = append(reveal, models.CategoryReveal{
			Category: cat.Category,
			Amount:   tile.Value,
			Label:    tile.Label,
		})
	}
	sort.Slice(reveal, func(i, j int) bool {
		a, errA := decimal.NewFromString(reveal[i].Amount)
		b, errB := decimal.NewFromString(reveal[j].Amount)
		if errA != nil || errB != nil {
			return reveal[i].Amount > reveal[j].Amount
		}
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return reveal[i].Category < reveal[j].Category
	})
	return reveal
}

func hasCategoryTile(payload models.CategoriesPayload, id string) bool {
	for _, t := range payload.CategoryTiles {
		if t.ID == id {
			return true
		}
	}
	return false
}

func findAmountTile(payload models.CategoriesPayload, id string) *models.AmountTile {
	for i := range payload.AmountTiles {
		if payload.AmountTiles[i].ID == id {
			return &payload.AmountTiles[i]
		}
	}
	return nil
}

// titleCase capitalizes a category bucket name for display
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
