package repository

import (
	"fmt"

	"github.com/shopspring/decimal"

	"finquest/internal/database"
	"finquest/internal/models"
)

// TransactionRepository handles synced bank transaction persistence
type TransactionRepository struct {
	db *database.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Upsert writes a transaction, replacing any existing row with the same
// provider id. Providers re-deliver transactions with amended fields, so
// update wins over skip.
func (r *TransactionRepository) Upsert(q database.DBTX, txn *models.Transaction) error {
	result, err := q.Exec(`
		UPDATE transactions
		SET txn_date = ?, name = ?, merchant = ?, amount = ?,
		    pfc_primary = ?, pfc_detailed = ?, category_path = ?
		WHERE id = ? AND user_id = ?
	`, txn.Date, txn.Name, txn.Merchant, txn.Amount.String(),
		txn.PFCPrimary, txn.PFCDetailed, txn.CategoryPath, txn.ID, txn.UserID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check transaction update: %w", err)
	}
	if rows > 0 {
		return nil
	}

	_, err = q.Exec(`
		INSERT INTO transactions (id, user_id, txn_date, name, merchant, amount, pfc_primary, pfc_detailed, category_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.UserID, txn.Date, txn.Name, txn.Merchant, txn.Amount.String(),
		txn.PFCPrimary, txn.PFCDetailed, txn.CategoryPath)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// UpsertBatch writes a set of transactions in one database transaction
func (r *TransactionRepository) UpsertBatch(txns []models.Transaction) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range txns {
		if err := r.Upsert(tx, &txns[i]); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return len(txns), nil
}

// ListSince fetches a user's transactions on or after sinceDate
// (YYYY-MM-DD), newest first.
func (r *TransactionRepository) ListSince(userID, sinceDate string) ([]models.Transaction, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, txn_date, name, merchant, amount, pfc_primary, pfc_detailed, category_path
		FROM transactions
		WHERE user_id = ? AND txn_date >= ?
		ORDER BY txn_date DESC, id
	`, userID, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		var amount string
		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.Date, &txn.Name, &txn.Merchant,
			&amount, &txn.PFCPrimary, &txn.PFCDetailed, &txn.CategoryPath); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// CountSince counts a user's transactions on or after sinceDate
func (r *TransactionRepository) CountSince(userID, sinceDate string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM transactions
		WHERE user_id = ? AND txn_date >= ?
	`, userID, sinceDate).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
