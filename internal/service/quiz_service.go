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
	// MinQuizTransactions is the past-7-day transaction floor below which
	// a quiz round cannot be generated
	MinQuizTransactions = 5

	// LowDataXP is the consolation grant when there is not enough
	// spending data to build a round
	LowDataXP = 100

	// StreakAccuracy is the round accuracy needed to keep a streak alive
	StreakAccuracy = 0.60

	// Difficulty adjustment thresholds over the recent-round window
	advanceAccuracy  = 0.80
	demoteAccuracy   = 0.40
	difficultyWindow = 5
)

// QuizService runs the weekly spending quiz
type QuizService struct {
	db          *database.DB
	rounds      *repository.RoundRepository
	states      *repository.GameStateRepository
	txns        *repository.TransactionRepository
	progression *ProgressionService
	locks       *roundLocks
}

// NewQuizService creates a new quiz service
func NewQuizService(db *database.DB, rounds *repository.RoundRepository, states *repository.GameStateRepository, txns *repository.TransactionRepository, progression *ProgressionService) *QuizService {
	return &QuizService{
		db:          db,
		rounds:      rounds,
		states:      states,
		txns:        txns,
		progression: progression,
		locks:       newRoundLocks(),
	}
}

// QuizRoundView is the client-facing view of a quiz round
type QuizRoundView struct {
	RoundID    string                      `json:"round_id"`
	WeekStart  string                      `json:"week_start"`
	Difficulty string                      `json:"difficulty"`
	Questions  []models.PublicQuizQuestion `json:"questions"`
	Answered   int                         `json:"answered"`
	Status     string                      `json:"status"`
}

// QuizStartResult is either a playable round or a low-data grant. The
// grant carries the updated ledger totals.
type QuizStartResult struct {
	Round   *QuizRoundView `json:"round,omitempty"`
	Granted bool           `json:"granted"`
	GrantXP int            `json:"grant_xp,omitempty"`
	TotalXP int            `json:"total_xp,omitempty"`
	Level   int            `json:"level,omitempty"`
	Streak  int            `json:"streak,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Start begins this week's quiz round, or resumes the active one.
// Users with too little recent spending get the low-data grant instead.
func (s *QuizService) Start(user auth.Identity) (*QuizStartResult, error) {
	now := time.Now().UTC()
	week := WeekStart(now)

	active, err := s.rounds.GetActive(user.UserID, models.GameQuiz)
	if err != nil {
		return nil, err
	}
	if active != nil {
		view, err := s.roundView(active)
		if err != nil {
			return nil, err
		}
		return &QuizStartResult{Round: view}, nil
	}

	state, err := s.states.Get(user.UserID, models.GameQuiz)
	if err != nil {
		return nil, err
	}
	if state != nil && state.LastPlayedWeek == week {
		return nil, &WeeklyCapError{LastSummary: state.LastSummary, NextWeekStart: WeekStart(now.AddDate(0, 0, 7))}
	}

	weekTxns, err := s.txns.ListSince(user.UserID, DaysAgo(now, 7))
	if err != nil {
		return nil, err
	}
	weekTotal := TotalSpend(weekTxns)
	if len(weekTxns) < MinQuizTransactions || weekTotal.IsZero() {
		return s.grantLowData(user, state, week)
	}

	recent, err := s.txns.ListSince(user.UserID, DaysAgo(now, 14))
	if err != nil {
		return nil, err
	}
	priorTxns := FilterDateRange(recent, DaysAgo(now, 14), DaysAgo(now, 7))

	difficulty := "basic"
	if state != nil && state.Difficulty != "" {
		difficulty = state.Difficulty
	}

	rng := rand.New(rand.NewSource(now.UnixNano()))
	payload := models.QuizPayload{
		WeekStart:  week,
		Difficulty: difficulty,
		Questions: generateQuizQuestions(quizInputs{
			weekTxns:  weekTxns,
			priorTxns: priorTxns,
			totals:    SumByCategory(weekTxns),
			weekTotal: weekTotal,
		}, difficulty, rng),
	}

	round, err := s.createRound(user.UserID, payload)
	if err != nil {
		return nil, err
	}
	view, err := s.roundView(round)
	if err != nil {
		return nil, err
	}
	return &QuizStartResult{Round: view}, nil
}

func (s *QuizService) createRound(userID string, payload models.QuizPayload) (*models.Round, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quiz payload: %w", err)
	}
	progressJSON, err := json.Marshal(models.QuizProgress{})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	round := &models.Round{
		ID:             uuid.New().String(),
		UserID:         userID,
		Game:           models.GameQuiz,
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
	return round, nil
}

func (s *QuizService) grantLowData(user auth.Identity, state *models.GameState, week string) (*QuizStartResult, error) {
	priorXP, err := s.progression.PriorTotal(user.UserID)
	if err != nil {
		return nil, err
	}

	if state == nil {
		state = &models.GameState{UserID: user.UserID, Game: models.GameQuiz, Difficulty: "basic"}
	}
	state.Streak++
	state.LastPlayedWeek = week

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.progression.Award(tx, user.UserID, "quiz:low_data", LowDataXP); err != nil {
		return nil, err
	}
	if err := s.states.Save(tx, state); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.progression.NotifyRankChange(user, priorXP, priorXP+LowDataXP)

	return &QuizStartResult{
		Granted: true,
		GrantXP: LowDataXP,
		TotalXP: priorXP + LowDataXP,
		Level:   Level(priorXP + LowDataXP),
		Streak:  state.Streak,
		Message: "Not enough recent transactions for a quiz this week. Here's some XP to keep your streak going.",
	}, nil
}

// QuizAnswerResult is the graded outcome of one answer submission
type QuizAnswerResult struct {
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correct_index"`
	Explanation  string `json:"explanation"`
	Answered     int    `json:"answered"`
	Total        int    `json:"total"`
	XPEarned     int    `json:"xp_earned"`
}

// Answer grades one question. XP is banked in the round and credited to
// the ledger at completion.
func (s *QuizService) Answer(user auth.Identity, roundID, questionID string, selectedIndex int) (*QuizAnswerResult, error) {
	unlock := s.locks.Lock(roundID)
	defer unlock()

	round, payload, progress, err := s.loadRound(user.UserID, roundID)
	if err != nil {
		return nil, err
	}
	if round.Terminal() {
		return nil, ErrRoundUnavailable
	}

	var question *models.QuizQuestion
	for i := range payload.Questions {
		if payload.Questions[i].ID == questionID {
			question = &payload.Questions[i]
			break
		}
	}
	if question == nil || selectedIndex < 0 || selectedIndex >= len(question.Choices) {
		return nil, ErrInvalidSelection
	}
	if progress.Answered(questionID) {
		return nil, ErrAlreadyAnswered
	}

	correct := selectedIndex == question.CorrectIndex
	answer := models.QuizAnswer{
		QuestionID:    questionID,
		SelectedIndex: selectedIndex,
		CorrectIndex:  question.CorrectIndex,
		Correct:       correct,
		AnsweredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if correct {
		answer.XPEarned = models.XPPerCorrect
	}
	progress.Answers = append(progress.Answers, answer)

	if err := s.saveProgress(round, progress); err != nil {
		return nil, err
	}

	return &QuizAnswerResult{
		Correct:      correct,
		CorrectIndex: question.CorrectIndex,
		Explanation:  question.Meta["explanation"],
		Answered:     len(progress.Answers),
		Total:        len(payload.Questions),
		XPEarned:     answer.XPEarned,
	}, nil
}

// QuizCompleteResult is the end-of-round summary with the updated
// ledger totals
type QuizCompleteResult struct {
	Summary        models.RoundSummary `json:"summary"`
	TotalXP        int                 `json:"total_xp"`
	Level          int                 `json:"level"`
	Streak         int                 `json:"streak"`
	NextDifficulty string              `json:"next_difficulty"`
}

// Complete finalizes the round: XP is credited, the streak and
// difficulty are updated and the weekly cap marker is set. Completing an
// already complete round returns the same summary with no side effects.
// Unanswered questions count as incorrect.
func (s *QuizService) Complete(user auth.Identity, roundID string) (*QuizCompleteResult, error) {
	unlock := s.locks.Lock(roundID)
	defer unlock()

	round, payload, progress, err := s.loadRound(user.UserID, roundID)
	if err != nil {
		return nil, err
	}

	if round.Status == models.RoundComplete {
		state, err := s.states.Get(user.UserID, models.GameQuiz)
		if err != nil {
			return nil, err
		}
		totalXP, err := s.progression.PriorTotal(user.UserID)
		if err != nil {
			return nil, err
		}
		result := &QuizCompleteResult{
			Summary: buildQuizSummary(round, payload, progress),
			TotalXP: totalXP,
			Level:   Level(totalXP),
		}
		if state != nil {
			result.Streak = state.Streak
			result.NextDifficulty = state.Difficulty
			if state.LastSummary != nil && state.LastSummary.RoundID == roundID {
				result.Summary = *state.LastSummary
			}
		}
		return result, nil
	}
	if round.Terminal() {
		return nil, ErrRoundUnavailable
	}

	summary := buildQuizSummary(round, payload, progress)

	state, err := s.states.Get(user.UserID, models.GameQuiz)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &models.GameState{UserID: user.UserID, Game: models.GameQuiz, Difficulty: payload.Difficulty}
	}

	summary.StreakMaintained = summary.Accuracy >= StreakAccuracy
	if summary.StreakMaintained {
		state.Streak++
	} else {
		state.Streak = 0
	}
	state.LastPlayedWeek = payload.WeekStart
	state.History = append(state.History, summary)
	state.LastSummary = &summary
	state.Difficulty = adjustDifficulty(payload.Difficulty, state.History)

	priorXP, err := s.progression.PriorTotal(user.UserID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	round.Status = models.RoundComplete
	if err := s.rounds.Update(tx, round); err != nil {
		return nil, err
	}
	if err := s.states.Save(tx, state); err != nil {
		return nil, err
	}
	if err := s.progression.Award(tx, user.UserID, sourceFor(models.GameQuiz), summary.XPEarned); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.progression.NotifyRankChange(user, priorXP, priorXP+summary.XPEarned)

	return &QuizCompleteResult{
		Summary:        summary,
		TotalXP:        priorXP + summary.XPEarned,
		Level:          Level(priorXP + summary.XPEarned),
		Streak:         state.Streak,
		NextDifficulty: state.Difficulty,
	}, nil
}

// QuizStateResult is the current-round plus game-state view
type QuizStateResult struct {
	Round          *QuizRoundView       `json:"round,omitempty"`
	Streak         int                  `json:"streak"`
	Difficulty     string               `json:"difficulty"`
	PlayedThisWeek bool                 `json:"played_this_week"`
	LastSummary    *models.RoundSummary `json:"last_summary,omitempty"`
}

// State reports the active round (if any) and the persistent quiz state
func (s *QuizService) State(user auth.Identity) (*QuizStateResult, error) {
	result := &QuizStateResult{Difficulty: "basic"}

	state, err := s.states.Get(user.UserID, models.GameQuiz)
	if err != nil {
		return nil, err
	}
	if state != nil {
		result.Streak = state.Streak
		if state.Difficulty != "" {
			result.Difficulty = state.Difficulty
		}
		result.PlayedThisWeek = state.LastPlayedWeek == WeekStart(time.Now())
		result.LastSummary = state.LastSummary
	}

	active, err := s.rounds.GetActive(user.UserID, models.GameQuiz)
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

func (s *QuizService) loadRound(userID, roundID string) (*models.Round, *models.QuizPayload, *models.QuizProgress, error) {
	round, err := s.rounds.GetByID(roundID)
	if err != nil {
		return nil, nil, nil, err
	}
	if round == nil || round.UserID != userID || round.Game != models.GameQuiz {
		return nil, nil, nil, ErrRoundUnavailable
	}

	var payload models.QuizPayload
	if err := json.Unmarshal(round.Payload, &payload); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode quiz payload: %w", err)
	}
	var progress models.QuizProgress
	if err := json.Unmarshal(round.Progress, &progress); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode quiz progress: %w", err)
	}
	return round, &payload, &progress, nil
}

func (s *QuizService) saveProgress(round *models.Round, progress *models.QuizProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to encode quiz progress: %w", err)
	}
	round.Progress = data
	return s.rounds.Update(s.db, round)
}

func (s *QuizService) roundView(round *models.Round) (*QuizRoundView, error) {
	var payload models.QuizPayload
	if err := json.Unmarshal(round.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode quiz payload: %w", err)
	}
	var progress models.QuizProgress
	if err := json.Unmarshal(round.Progress, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode quiz progress: %w", err)
	}

	questions := make([]models.PublicQuizQuestion, len(payload.Questions))
	for i, q := range payload.Questions {
		questions[i] = q.Public()
	}
	return &QuizRoundView{
		RoundID:    round.ID,
		WeekStart:  payload.WeekStart,
		Difficulty: payload.Difficulty,
		Questions:  questions,
		Answered:   len(progress.Answers),
		Status:     round.Status,
	}, nil
}

func buildQuizSummary(round *models.Round, payload *models.QuizPayload, progress *models.QuizProgress) models.RoundSummary {
	correct := progress.CorrectCount()
	total := len(payload.Questions)

	summary := models.RoundSummary{
		RoundID:     round.ID,
		WeekStart:   payload.WeekStart,
		Difficulty:  payload.Difficulty,
		Correct:     correct,
		Total:       total,
		XPEarned:    correct * models.XPPerCorrect,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if total > 0 {
		summary.Accuracy = float64(correct) / float64(total)
	}
	summary.StreakMaintained = summary.Accuracy >= StreakAccuracy
	return summary
}

// adjustDifficulty moves the quiz tier based on average accuracy over
// the recent-round window
func adjustDifficulty(current string, history []models.RoundSummary) string {
	window := history
	if len(window) > difficultyWindow {
		window = window[len(window)-difficultyWindow:]
	}
	if len(window) == 0 {
		return current
	}

	sum := 0.0
	for _, s := range window {
		sum += s.Accuracy
	}
	avg := sum / float64(len(window))

	idx := 0
	for i, level := range models.DifficultyLevels {
		if level == current {
			idx = i
		}
	}

	switch {
	case avg >= advanceAccuracy && idx < len(models.DifficultyLevels)-1:
		return models.DifficultyLevels[idx+1]
	case avg < demoteAccuracy && idx > 0:
		return models.DifficultyLevels[idx-1]
	default:
		return current
	}
}
