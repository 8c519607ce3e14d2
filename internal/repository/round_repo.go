package repository

import (
	"database/sql"
	"fmt"
	"time"

	"finquest/internal/database"
	"finquest/internal/models"
)

// RoundRepository handles round persistence
type RoundRepository struct {
	db *database.DB
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *database.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

// Create inserts a new round
func (r *RoundRepository) Create(round *models.Round) error {
	_, err := r.db.Exec(`
		INSERT INTO rounds (id, user_id, game, status, tries_remaining, payload_json, progress_json, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, round.ID, round.UserID, string(round.Game), round.Status, round.TriesRemaining,
		string(round.Payload), string(round.Progress), round.StartedAt, round.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// GetByID fetches a round by id. Returns nil when no such round exists.
func (r *RoundRepository) GetByID(id string) (*models.Round, error) {
	return r.scanRound(r.db.QueryRow(`
		SELECT id, user_id, game, status, tries_remaining, payload_json, progress_json, started_at, updated_at
		FROM rounds
		WHERE id = ?
	`, id))
}

// GetActive fetches the user's in-progress round for a game, if any
func (r *RoundRepository) GetActive(userID string, game models.Game) (*models.Round, error) {
	return r.scanRound(r.db.QueryRow(`
		SELECT id, user_id, game, status, tries_remaining, payload_json, progress_json, started_at, updated_at
		FROM rounds
		WHERE user_id = ? AND game = ? AND status = ?
		ORDER BY started_at DESC
		LIMIT 1
	`, userID, string(game), models.RoundInProgress))
}

func (r *RoundRepository) scanRound(row *sql.Row) (*models.Round, error) {
	round := &models.Round{}
	var game, payload, progress string

	err := row.Scan(&round.ID, &round.UserID, &game, &round.Status, &round.TriesRemaining,
		&payload, &progress, &round.StartedAt, &round.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}

	round.Game = models.Game(game)
	round.Payload = []byte(payload)
	round.Progress = []byte(progress)
	return round, nil
}

// Update persists a round's mutable fields
func (r *RoundRepository) Update(q database.DBTX, round *models.Round) error {
	round.UpdatedAt = time.Now().UTC()
	_, err := q.Exec(`
		UPDATE rounds
		SET status = ?, tries_remaining = ?, progress_json = ?, updated_at = ?
		WHERE id = ?
	`, round.Status, round.TriesRemaining, string(round.Progress), round.UpdatedAt, round.ID)
	if err != nil {
		return fmt.Errorf("failed to update round: %w", err)
	}
	return nil
}

// ExpireStale flips in-progress rounds idle since before the cutoff to
// expired. Returns the number of rounds affected.
func (r *RoundRepository) ExpireStale(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`
		UPDATE rounds
		SET status = ?, updated_at = ?
		WHERE status = ? AND updated_at < ?
	`, models.RoundExpired, time.Now().UTC(), models.RoundInProgress, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire rounds: %w", err)
	}
	return result.RowsAffected()
}
