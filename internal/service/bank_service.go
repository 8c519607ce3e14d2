package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finquest/internal/auth"
	"finquest/internal/banklink"
	"finquest/internal/models"
	"finquest/internal/repository"
)

// SyncLookbackDays is how far back a transaction sync reaches. Matches
// the detective game's history window so one sync feeds every game.
const SyncLookbackDays = DetectiveHistoryDays

// BankService links institutions and syncs their transactions
type BankService struct {
	provider banklink.Provider
	sealer   *banklink.TokenSealer
	items    *repository.BankItemRepository
	txns     *repository.TransactionRepository
}

// NewBankService creates a new bank service
func NewBankService(provider banklink.Provider, sealer *banklink.TokenSealer, items *repository.BankItemRepository, txns *repository.TransactionRepository) *BankService {
	return &BankService{provider: provider, sealer: sealer, items: items, txns: txns}
}

// LinkedItem is the client-facing view of a linked institution
type LinkedItem struct {
	ItemID      string `json:"item_id"`
	Institution string `json:"institution"`
	LinkedAt    string `json:"linked_at"`
}

// ExchangePublicToken completes a link: the public token from the
// client-side flow becomes a sealed access token in storage.
func (s *BankService) ExchangePublicToken(ctx context.Context, user auth.Identity, publicToken string) (*LinkedItem, error) {
	result, err := s.provider.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	sealed, err := s.sealer.Seal(result.AccessToken)
	if err != nil {
		return nil, err
	}

	item := &models.BankItem{
		ID:                uuid.New().String(),
		UserID:            user.UserID,
		ProviderItemID:    result.ItemID,
		AccessTokenCipher: sealed,
		Institution:       result.Institution,
		LinkedAt:          time.Now().UTC(),
	}
	if err := s.items.Save(item); err != nil {
		return nil, err
	}

	return &LinkedItem{
		ItemID:      item.ID,
		Institution: item.Institution,
		LinkedAt:    item.LinkedAt.Format(time.RFC3339),
	}, nil
}

// SyncResult reports a transaction sync
type SyncResult struct {
	ItemsSynced  int `json:"items_synced"`
	Transactions int `json:"transactions"`
}

// SyncTransactions pulls recent transactions for every linked item and
// upserts them into the game data set
func (s *BankService) SyncTransactions(ctx context.Context, user auth.Identity) (*SyncResult, error) {
	items, err := s.items.ListByUser(user.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &SyncResult{}, nil
	}

	since := DaysAgo(time.Now(), SyncLookbackDays)
	result := &SyncResult{}

	for _, item := range items {
		token, err := s.sealer.Open(item.AccessTokenCipher)
		if err != nil {
			return nil, fmt.Errorf("failed to unseal token for item %s: %w", item.ID, err)
		}

		fetched, err := s.provider.FetchTransactions(ctx, token, since)
		if err != nil {
			return nil, fmt.Errorf("fetch failed for item %s: %w", item.ID, err)
		}

		txns := make([]models.Transaction, 0, len(fetched))
		for _, pt := range fetched {
			amount, err := decimal.NewFromString(pt.Amount)
			if err != nil {
				return nil, fmt.Errorf("bad amount %q from provider: %w", pt.Amount, err)
			}
			txns = append(txns, models.Transaction{
				ID:           pt.ID,
				UserID:       user.UserID,
				Date:         pt.Date,
				Name:         pt.Name,
				Merchant:     pt.Merchant,
				Amount:       amount,
				PFCPrimary:   pt.PFCPrimary,
				PFCDetailed:  pt.PFCDetailed,
				CategoryPath: pt.CategoryPath,
			})
		}

		n, err := s.txns.UpsertBatch(txns)
		if err != nil {
			return nil, err
		}
		result.ItemsSynced++
		result.Transactions += n
	}
	return result, nil
}

// ListLinkedItems returns the user's linked institutions
func (s *BankService) ListLinkedItems(user auth.Identity) ([]LinkedItem, error) {
	items, err := s.items.ListByUser(user.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]LinkedItem, 0, len(items))
	for _, item := range items {
		out = append(out, LinkedItem{
			ItemID:      item.ID,
			Institution: item.Institution,
			LinkedAt:    item.LinkedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}
