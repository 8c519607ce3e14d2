package service

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"finquest/internal/auth"
	"finquest/internal/database"
	"finquest/internal/models"
	"finquest/internal/repository"
)

const (
	// DetectiveHistoryDays is the lookback window for anomaly detection
	DetectiveHistoryDays = 90

	// MinDetectiveTransactions is the history floor below which a round
	// cannot be generated
	MinDetectiveTransactions = 15

	// DetectiveLowDataXP is the consolation grant, sized as a full board
	// of correct finds
	DetectiveLowDataXP = DetectiveRoundSize * models.XPPerCorrect
)

// DetectiveService runs the anomaly-hunting game: find the suspicious
// transactions hidden in a sample of the user's history.
type DetectiveService struct {
	db          *database.DB
	rounds      *repository.RoundRepository
	states      *repository.GameStateRepository
	txns        *repository.TransactionRepository
	progression *ProgressionService
	locks       *roundLocks
}

// NewDetectiveService creates a new detective service
func NewDetectiveService(db *database.DB, rounds *repository.RoundRepository, states *repository.GameStateRepository, txns *repository.TransactionRepository, progression *ProgressionService) *DetectiveService {
	return &DetectiveService{
		db:          db,
		rounds:      rounds,
		states:      states,
		txns:        txns,
		progression: progression,
		locks:       newRoundLocks(),
	}
}

// DetectiveRoundView is the client-facing view of a round. Which
// transactions are anomalous stays server-side until the reveal.
type DetectiveRoundView struct {
	RoundID        string                    `json:"round_id"`
	WeekStart      string                    `json:"week_start"`
	Transactions   []models.RoundTransaction `json:"transactions"`
	TotalAnomalies int                       `json:"total_anomalies"`
	Found          int                       `json:"found"`
	TriesRemaining int                       `json:"tries_remaining"`
	Status         string                    `json:"status"`
}

// DetectiveStartResult is either a playable round or a low-data grant.
// The grant carries the updated ledger totals.
type DetectiveStartResult struct {
	Round   *DetectiveRoundView `json:"round,omitempty"`
	Granted bool                `json:"granted"`
	GrantXP int                 `json:"grant_xp,omitempty"`
	TotalXP int                 `json:"total_xp,omitempty"`
	Level   int                 `json:"level,omitempty"`
	Streak  int                 `json:"streak,omitempty"`
	Message string              `json:"message,omitempty"`
}

// Start begins this week's detective round, or resumes the active one.
// One completed round per week; thin history gets the low-data grant.
func (s *DetectiveService) Start(user auth.Identity) (*DetectiveStartResult, error) {
	now := time.Now().UTC()
	week := WeekStart(now)

	active, err := s.rounds.GetActive(user.UserID, models.GameDetective)
	if err != nil {
		return nil, err
	}
	if active != nil {
		view, err := s.roundView(active)
		if err != nil {
			return nil, err
		}
		return &DetectiveStartResult{Round: view}, nil
	}

	state, err := s.states.Get(user.UserID, models.GameDetective)
	if err != nil {
		return nil, err
	}
	if state != nil && state.LastPlayedWeek == week {
		return nil, &WeeklyCapError{LastSummary: state.LastSummary, NextWeekStart: WeekStart(now.AddDate(0, 0, 7))}
	}

	history, err := s.txns.ListSince(user.UserID, DaysAgo(now, DetectiveHistoryDays))
	if err != nil {
		return nil, err
	}
	if len(history) < MinDetectiveTransactions {
		return s.grantLowData(user, state, week)
	}

	rng := rand.New(rand.NewSource(now.UnixNano()))
	payload := buildDetectivePayload(history, week, rng)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode detective payload: %w", err)
	}
	progressJSON, err := json.Marshal(models.DetectiveProgress{})
	if err != nil {
		return nil, err
	}

	round := &models.Round{
		ID:             uuid.New().String(),
		UserID:         user.UserID,
		Game:           models.GameDetective,
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
	return &DetectiveStartResult{Round: view}, nil
}

func (s *DetectiveService) grantLowData(user auth.Identity, state *models.GameState, week string) (*DetectiveStartResult, error) {
	priorXP, err := s.progression.PriorTotal(user.UserID)
	if err != nil {
		return nil, err
	}

	if state == nil {
		state = &models.GameState{UserID: user.UserID, Game: models.GameDetective}
	}
	state.Streak++
	state.LastPlayedWeek = week

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.progression.Award(tx, user.UserID, "detective:low_data", DetectiveLowDataXP); err != nil {
		return nil, err
	}
	if err := s.states.Save(tx, state); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.progression.NotifyRankChange(user, priorXP, priorXP+DetectiveLowDataXP)

	return &DetectiveStartResult{
		Granted: true,
		GrantXP: DetectiveLowDataXP,
		TotalXP: priorXP + DetectiveLowDataXP,
		Level:   Level(priorXP + DetectiveLowDataXP),
		Streak:  state.Streak,
		Message: "Not enough transaction history yet to investigate. Here's some XP to keep your streak going.",
	}, nil
}

// DetectiveGuessResult is the outcome of one guess. The ledger fields
// are present once the round has finalized.
type DetectiveGuessResult struct {
	Correct        bool                   `json:"correct"`
	TriesRemaining int                    `json:"tries_remaining"`
	Found          int                    `json:"found"`
	TotalAnomalies int                    `json:"total_anomalies"`
	Status         string                 `json:"status"`
	Reveal         []models.AnomalyReveal `json:"reveal,omitempty"`
	Summary        *models.RoundSummary   `json:"summary,omitempty"`
	TotalXP        int                    `json:"total_xp,omitempty"`
	Level          int                    `json:"level,omitempty"`
	Streak         int                    `json:"streak,omitempty"`
	Feedback       string                 `json:"feedback,omitempty"`
}

// Guess accuses one transaction of being anomalous. A wrong accusation
// burns a try. The round finalizes itself when every anomaly is found or
// the tries run out.
func (s *DetectiveService) Guess(user auth.Identity, roundID, transactionID string) (*DetectiveGuessResult, error) {
	unlock := s.locks.Lock(roundID)
	defer unlock()

	round, err := s.rounds.GetByID(roundID)
	if err != nil {
		return nil, err
	}
	if round == nil || round.UserID != user.UserID || round.Game != models.GameDetective {
		return nil, ErrRoundUnavailable
	}
	if round.Terminal() {
		return nil, ErrRoundUnavailable
	}

	var payload models.DetectivePayload
	if err := json.Unmarshal(round.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode detective payload: %w", err)
	}
	var progress models.DetectiveProgress
	if err := json.Unmarshal(round.Progress, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode detective progress: %w", err)
	}

	if !payload.HasTransaction(transactionID) {
		return nil, ErrInvalidSelection
	}
	if progress.Found(transactionID) {
		return nil, ErrAlreadyAnswered
	}
	for _, fp := range progress.FalsePositiveIDs {
		if fp == transactionID {
			return nil, ErrAlreadyAnswered
		}
	}

	correct := payload.IsAnomaly(transactionID)
	if correct {
		progress.FoundIDs = append(progress.FoundIDs, transactionID)
	} else {
		progress.FalsePositiveIDs = append(progress.FalsePositiveIDs, transactionID)
		round.TriesRemaining--
	}

	result := &DetectiveGuessResult{
		Correct:        correct,
		Found:          len(progress.FoundIDs),
		TotalAnomalies: len(payload.AnomalyIDs),
	}

	switch {
	case len(progress.FoundIDs) == len(payload.AnomalyIDs):
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
	result.Reveal = buildAnomalyReveal(&payload, &progress)
	result.Feedback = detectiveFeedback(summary.Accuracy)
	return result, nil
}

// finalize credits XP for found anomalies and updates the streak: kept
// only when every anomaly was found. Returns the summary, the streak
// and the ledger total after the credit.
func (s *DetectiveService) finalize(user auth.Identity, round *models.Round, payload *models.DetectivePayload, progress *models.DetectiveProgress) (*models.RoundSummary, int, int, error) {
	found := len(progress.FoundIDs)
	total := len(payload.AnomalyIDs)

	summary := models.RoundSummary{
		RoundID:          round.ID,
		WeekStart:        payload.WeekStart,
		Correct:          found,
		Total:            total,
		XPEarned:         found * models.XPPerCorrect,
		StreakMaintained: round.Status == models.RoundComplete,
		CompletedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if total > 0 {
		summary.Accuracy = float64(found) / float64(total)
	}

	state, err := s.states.Get(user.UserID, models.GameDetective)
	if err != nil {
		return nil, 0, 0, err
	}
	if state == nil {
		state = &models.GameState{UserID: user.UserID, Game: models.GameDetective}
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
	if err := s.progression.Award(tx, user.UserID, sourceFor(models.GameDetective), summary.XPEarned); err != nil {
		return nil, 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, 0, err
	}

	s.progression.NotifyRankChange(user, priorXP, priorXP+summary.XPEarned)
	return &summary, state.Streak, priorXP + summary.XPEarned, nil
}

// DetectiveStateResult is the current-round plus game-state view
type DetectiveStateResult struct {
	Round          *DetectiveRoundView  `json:"round,omitempty"`
	Streak         int                  `json:"streak"`
	PlayedThisWeek bool                 `json:"played_this_week"`
	LastSummary    *models.RoundSummary `json:"last_summary,omitempty"`
}

// State reports the active round (if any) and the persistent game state
func (s *DetectiveService) State(user auth.Identity) (*DetectiveStateResult, error) {
	result := &DetectiveStateResult{}

	state, err := s.states.Get(user.UserID, models.GameDetective)
	if err != nil {
		return nil, err
	}
	if state != nil {
		result.Streak = state.Streak
		result.PlayedThisWeek = state.LastPlayedWeek == WeekStart(time.Now())
		result.LastSummary = state.LastSummary
	}

	active, err := s.rounds.GetActive(user.UserID, models.GameDetective)
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

func (s *DetectiveService) roundView(round *models.Round) (*DetectiveRoundView, error) {
	var payload models.DetectivePayload
	if err := json.Unmarshal(round.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode detective payload: %w", err)
	}
	var progress models.DetectiveProgress
	if err := json.Unmarshal(round.Progress, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode detective progress: %w", err)
	}

	return &DetectiveRoundView{
		RoundID:        round.ID,
		WeekStart:      payload.WeekStart,
		Transactions:   payload.Transactions,
		TotalAnomalies: len(payload.AnomalyIDs),
		Found:          len(progress.FoundIDs),
		TriesRemaining: round.TriesRemaining,
		Status:         round.Status,
	}, nil
}

// buildAnomalyReveal lists every transaction's true nature in board order
func buildAnomalyReveal(payload *models.DetectivePayload, progress *models.DetectiveProgress) []models.AnomalyReveal {
	reveal := make([]models.AnomalyReveal, 0, len(payload.Transactions))
	for _, txn := range payload.Transactions {
		entry := models.AnomalyReveal{
			TransactionID: txn.ID,
			WasAnomaly:    payload.IsAnomaly(txn.ID),
			FoundByUser:   progress.Found(txn.ID),
		}
		if entry.WasAnomaly {
			entry.Reasons = payload.Reasons[txn.ID]
		}
		reveal = append(reveal, entry)
	}
	return reveal
}
