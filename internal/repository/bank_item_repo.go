package repository

import (
	"database/sql"
	"fmt"

	"finquest/internal/database"
	"finquest/internal/models"
)

// BankItemRepository handles linked-institution persistence
type BankItemRepository struct {
	db *database.DB
}

// NewBankItemRepository creates a new bank item repository
func NewBankItemRepository(db *database.DB) *BankItemRepository {
	return &BankItemRepository{db: db}
}

// Save writes a linked item, replacing an existing link to the same
// provider item (re-linking rotates the access token).
func (r *BankItemRepository) Save(item *models.BankItem) error {
	result, err := r.db.Exec(`
		UPDATE bank_items
		SET access_token_cipher = ?, institution = ?, linked_at = ?
		WHERE user_id = ? AND provider_item_id = ?
	`, item.AccessTokenCipher, item.Institution, item.LinkedAt,
		item.UserID, item.ProviderItemID)
	if err != nil {
		return fmt.Errorf("failed to update bank item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check bank item update: %w", err)
	}
	if rows > 0 {
		return nil
	}

	_, err = r.db.Exec(`
		INSERT INTO bank_items (id, user_id, provider_item_id, access_token_cipher, institution, linked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.ID, item.UserID, item.ProviderItemID, item.AccessTokenCipher,
		item.Institution, item.LinkedAt)
	if err != nil {
		return fmt.Errorf("failed to insert bank item: %w", err)
	}
	return nil
}

// ListByUser fetches all of a user's linked items
func (r *BankItemRepository) ListByUser(userID string) ([]models.BankItem, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, provider_item_id, access_token_cipher, institution, linked_at
		FROM bank_items
		WHERE user_id = ?
		ORDER BY linked_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank items: %w", err)
	}
	defer rows.Close()

	var items []models.BankItem
	for rows.Next() {
		var item models.BankItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProviderItemID,
			&item.AccessTokenCipher, &item.Institution, &item.LinkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bank item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetByID fetches one linked item. Returns nil when no such item exists.
func (r *BankItemRepository) GetByID(id string) (*models.BankItem, error) {
	item := &models.BankItem{}
	err := r.db.QueryRow(`
		SELECT id, user_id, provider_item_id, access_token_cipher, institution, linked_at
		FROM bank_items
		WHERE id = ?
	`, id).Scan(&item.ID, &item.UserID, &item.ProviderItemID,
		&item.AccessTokenCipher, &item.Institution, &item.LinkedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank item: %w", err)
	}
	return item, nil
}
