package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"finquest/internal/database"
	"finquest/internal/models"
)

// maxHistoryEntries bounds the per-game round history kept in state.
// Difficulty adjustment only ever looks at the last five rounds.
const maxHistoryEntries = 10

// GameStateRepository handles per-user per-game state persistence
type GameStateRepository struct {
	db *database.DB
}

// NewGameStateRepository creates a new game state repository
func NewGameStateRepository(db *database.DB) *GameStateRepository {
	return &GameStateRepository{db: db}
}

// Get fetches state for one user and game. Returns nil when the user has
// never played this game.
func (r *GameStateRepository) Get(userID string, game models.Game) (*models.GameState, error) {
	state := &models.GameState{UserID: userID, Game: game}
	var historyJSON, summaryJSON sql.NullString

	err := r.db.QueryRow(`
		SELECT streak, difficulty, last_played_week, history_json, last_summary, updated_at
		FROM game_state
		WHERE user_id = ? AND game = ?
	`, userID, string(game)).Scan(
		&state.Streak, &state.Difficulty, &state.LastPlayedWeek,
		&historyJSON, &summaryJSON, &state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}

	if historyJSON.Valid && historyJSON.String != "" {
		if err := json.Unmarshal([]byte(historyJSON.String), &state.History); err != nil {
			return nil, fmt.Errorf("failed to decode round history: %w", err)
		}
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		var summary models.RoundSummary
		if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err != nil {
			return nil, fmt.Errorf("failed to decode last summary: %w", err)
		}
		state.LastSummary = &summary
	}
	return state, nil
}

// Save persists game state, creating the row on first play. History is
// trimmed to the most recent entries before writing.
func (r *GameStateRepository) Save(q database.DBTX, state *models.GameState) error {
	if len(state.History) > maxHistoryEntries {
		state.History = state.History[len(state.History)-maxHistoryEntries:]
	}

	historyJSON, err := json.Marshal(state.History)
	if err != nil {
		return fmt.Errorf("failed to encode round history: %w", err)
	}

	summaryJSON := ""
	if state.LastSummary != nil {
		data, err := json.Marshal(state.LastSummary)
		if err != nil {
			return fmt.Errorf("failed to encode last summary: %w", err)
		}
		summaryJSON = string(data)
	}

	result, err := q.Exec(`
		UPDATE game_state
		SET streak = ?, difficulty = ?, last_played_week = ?,
		    history_json = ?, last_summary = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND game = ?
	`, state.Streak, state.Difficulty, state.LastPlayedWeek,
		string(historyJSON), summaryJSON, state.UserID, string(state.Game))
	if err != nil {
		return fmt.Errorf("failed to update game state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check game state update: %w", err)
	}
	if rows > 0 {
		return nil
	}

	_, err = q.Exec(`
		INSERT INTO game_state (user_id, game, streak, difficulty, last_played_week, history_json, last_summary, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, state.UserID, string(state.Game), state.Streak, state.Difficulty,
		state.LastPlayedWeek, string(historyJSON), summaryJSON)
	if err != nil {
		return fmt.Errorf("failed to insert game state: %w", err)
	}
	return nil
}
