package repository

import (
	"database/sql"
	"fmt"

	"finquest/internal/database"
	"finquest/internal/models"
)

// ProgressionRepository handles progression ledger persistence
type ProgressionRepository struct {
	db *database.DB
}

// NewProgressionRepository creates a new progression repository
func NewProgressionRepository(db *database.DB) *ProgressionRepository {
	return &ProgressionRepository{db: db}
}

// Get fetches a user's ledger row. Users who have never earned XP get a
// zeroed record rather than an error.
func (r *ProgressionRepository) Get(userID string) (*models.Progression, error) {
	p := &models.Progression{UserID: userID}

	err := r.db.QueryRow(`
		SELECT total_xp, games_played, last_xp_source, last_xp_amount, updated_at
		FROM progression
		WHERE user_id = ?
	`, userID).Scan(&p.TotalXP, &p.GamesPlayed, &p.LastXPSource, &p.LastXPAmount, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progression: %w", err)
	}
	return p, nil
}

// RecordGame credits XP for a finished round and bumps the play counter.
// The increment happens in SQL so concurrent finalizations from different
// games never lose an update. Runs on whatever DBTX the caller provides
// so it can share a transaction with the round status flip.
func (r *ProgressionRepository) RecordGame(q database.DBTX, userID, source string, xp int) error {
	result, err := q.Exec(`
		UPDATE progression
		SET total_xp = total_xp + ?,
		    games_played = games_played + 1,
		    last_xp_source = ?,
		    last_xp_amount = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, xp, source, xp, userID)
	if err != nil {
		return fmt.Errorf("failed to update progression: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check progression update: %w", err)
	}
	if rows > 0 {
		return nil
	}

	_, err = q.Exec(`
		INSERT INTO progression (user_id, total_xp, games_played, last_xp_source, last_xp_amount, updated_at)
		VALUES (?, ?, 1, ?, ?, CURRENT_TIMESTAMP)
	`, userID, xp, source, xp)
	if err != nil {
		return fmt.Errorf("failed to insert progression: %w", err)
	}
	return nil
}
