package service

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finquest/internal/models"
	"finquest/internal/repository"
)

// SeedService imports, exports and fabricates transaction data. Backs
// the seed CLI; the server never touches it.
type SeedService struct {
	txns *repository.TransactionRepository
}

// NewSeedService creates a new seed service
func NewSeedService(txns *repository.TransactionRepository) *SeedService {
	return &SeedService{txns: txns}
}

// exportRecord is the file format for export/import
type exportRecord struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Name         string `json:"name"`
	Merchant     string `json:"merchant,omitempty"`
	Amount       string `json:"amount"`
	PFCPrimary   string `json:"pfc_primary,omitempty"`
	PFCDetailed  string `json:"pfc_detailed,omitempty"`
	CategoryPath string `json:"category_path,omitempty"`
}

// Export serializes a user's transaction history to JSON
func (s *SeedService) Export(userID string) ([]byte, error) {
	txns, err := s.txns.ListSince(userID, "0000-01-01")
	if err != nil {
		return nil, err
	}

	records := make([]exportRecord, 0, len(txns))
	for _, t := range txns {
		records = append(records, exportRecord{
			ID:           t.ID,
			Date:         t.Date,
			Name:         t.Name,
			Merchant:     t.Merchant,
			Amount:       t.Amount.String(),
			PFCPrimary:   t.PFCPrimary,
			PFCDetailed:  t.PFCDetailed,
			CategoryPath: t.CategoryPath,
		})
	}
	return json.MarshalIndent(records, "", "  ")
}

// Import loads transactions from exported JSON into a user's history
func (s *SeedService) Import(userID string, data []byte) (int, error) {
	var records []exportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("failed to parse import file: %w", err)
	}

	txns := make([]models.Transaction, 0, len(records))
	for _, rec := range records {
		amount, err := decimal.NewFromString(rec.Amount)
		if err != nil {
			return 0, fmt.Errorf("bad amount %q for %s: %w", rec.Amount, rec.ID, err)
		}
		id := rec.ID
		if id == "" {
			id = uuid.New().String()
		}
		txns = append(txns, models.Transaction{
			ID:           id,
			UserID:       userID,
			Date:         rec.Date,
			Name:         rec.Name,
			Merchant:     rec.Merchant,
			Amount:       amount,
			PFCPrimary:   rec.PFCPrimary,
			PFCDetailed:  rec.PFCDetailed,
			CategoryPath: rec.CategoryPath,
		})
	}
	return s.txns.UpsertBatch(txns)
}

// demoMerchants drive the fabricated history, one pool per bucket
var demoMerchants = map[string][]string{
	"dining":         {"Corner Bistro", "Noodle House", "Bluebird Cafe", "Taco Stand"},
	"groceries":      {"Fresh Market", "Corner Grocery", "Harvest Foods"},
	"transportation": {"Metro Transit", "City Gas", "RideShare Co"},
	"entertainment":  {"Streamflix", "Downtown Cinema", "Arcade Alley"},
	"shopping":       {"General Store", "Outfitters", "Page & Co Books"},
	"travel":         {"Rail Lines", "Budget Inn"},
}

var demoPFCPrimary = map[string]string{
	"dining":         "FOOD_AND_DRINK",
	"groceries":      "FOOD_AND_DRINK",
	"transportation": "TRANSPORTATION",
	"entertainment":  "ENTERTAINMENT",
	"shopping":       "GENERAL_MERCHANDISE",
	"travel":         "TRAVEL",
}

var demoPFCDetailed = map[string]string{
	"groceries": "FOOD_AND_DRINK_GROCERIES",
	"dining":    "FOOD_AND_DRINK_RESTAURANT",
}

// GenerateDemo fabricates days of plausible spending so every game has
// enough data to play immediately
func (s *SeedService) GenerateDemo(userID string, days int, seed int64) (int, error) {
	if days <= 0 {
		days = 90
	}
	rng := rand.New(rand.NewSource(seed))
	now := time.Now().UTC()

	var txns []models.Transaction
	for d := 0; d < days; d++ {
		date := now.AddDate(0, 0, -d).Format("2006-01-02")
		perDay := 1 + rng.Intn(3)
		for i := 0; i < perDay; i++ {
			bucket := models.CategoryBuckets[rng.Intn(len(models.CategoryBuckets))]
			pool := demoMerchants[bucket]
			merchant := pool[rng.Intn(len(pool))]
			amount := decimal.NewFromFloat(5 + rng.Float64()*80).RoundBank(2)
			// occasional splurge gives the detective something to find
			if rng.Intn(40) == 0 {
				amount = amount.Mul(decimal.NewFromInt(8))
			}

			txns = append(txns, models.Transaction{
				ID:          uuid.New().String(),
				UserID:      userID,
				Date:        date,
				Name:        merchant,
				Merchant:    merchant,
				Amount:      amount,
				PFCPrimary:  demoPFCPrimary[bucket],
				PFCDetailed: demoPFCDetailed[bucket],
			})
		}
	}
	return s.txns.UpsertBatch(txns)
}
