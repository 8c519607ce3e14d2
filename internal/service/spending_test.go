package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finquest/internal/models"
)

func txn(id, date, merchant, amount, pfcPrimary, pfcDetailed string) models.Transaction {
	d, _ := decimal.NewFromString(amount)
	return models.Transaction{
		ID:          id,
		UserID:      "u1",
		Date:        date,
		Name:        merchant,
		Merchant:    merchant,
		Amount:      d,
		PFCPrimary:  pfcPrimary,
		PFCDetailed: pfcDetailed,
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"monday maps to itself", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), "2025-03-10"},
		{"wednesday maps back to monday", time.Date(2025, 3, 12, 23, 59, 0, 0, time.UTC), "2025-03-10"},
		{"sunday maps back six days", time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), "2025-03-10"},
		{"month boundary", time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC), "2025-03-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStart(tt.in); got != tt.want {
				t.Errorf("WeekStart(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		name string
		txn  models.Transaction
		want string
	}{
		{"detailed code wins", txn("t1", "2025-03-10", "SuperMart", "50", "GENERAL_MERCHANDISE", "FOOD_AND_DRINK_GROCERIES"), "groceries"},
		{"primary code", txn("t2", "2025-03-10", "Cinema", "20", "ENTERTAINMENT", ""), "entertainment"},
		{"merchant keyword fallback", txn("t3", "2025-03-10", "Joe's Coffee Shop", "5", "", ""), "dining"},
		{"rideshare keyword", txn("t4", "2025-03-10", "UBER TRIP 4421", "18", "", ""), "transportation"},
		{"unmappable", txn("t5", "2025-03-10", "ACME Payroll", "900", "", ""), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCategory(&tt.txn); got != tt.want {
				t.Errorf("NormalizeCategory = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCategoryBucketsResolveFromCategoryPath(t *testing.T) {
	for _, bucket := range models.CategoryBuckets {
		txn := models.Transaction{
			ID:           "t-" + bucket,
			UserID:       "u1",
			Date:         "2025-03-10",
			Name:         "Somewhere",
			Amount:       decimal.RequireFromString("10.00"),
			CategoryPath: "Payments > " + bucket,
		}
		if got := NormalizeCategory(&txn); got != bucket {
			t.Errorf("bucket %q normalized to %q", bucket, got)
		}
	}
}

func TestSumByCategory(t *testing.T) {
	txns := []models.Transaction{
		txn("t1", "2025-03-10", "Bistro", "30.00", "FOOD_AND_DRINK", ""),
		txn("t2", "2025-03-11", "Bistro", "20.00", "FOOD_AND_DRINK", ""),
		txn("t3", "2025-03-11", "Fresh Market", "80.00", "", "FOOD_AND_DRINK_GROCERIES"),
		txn("t4", "2025-03-12", "Refund Co", "-15.00", "FOOD_AND_DRINK", ""),
		txn("t5", "2025-03-12", "ACME Payroll", "1000.00", "", ""),
	}

	totals := SumByCategory(txns)
	if len(totals) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(totals))
	}
	if totals[0].Category != "groceries" || !totals[0].Total.Equal(decimal.RequireFromString("80.00")) {
		t.Errorf("top bucket = %s %s, want groceries 80.00", totals[0].Category, totals[0].Total)
	}
	if totals[1].Category != "dining" || !totals[1].Total.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("second bucket = %s %s, want dining 50.00 (refund excluded)", totals[1].Category, totals[1].Total)
	}
}

func TestTotalSpendIgnoresInflows(t *testing.T) {
	txns := []models.Transaction{
		txn("t1", "2025-03-10", "Bistro", "30.00", "FOOD_AND_DRINK", ""),
		txn("t2", "2025-03-11", "Refund", "-10.00", "", ""),
	}
	if got := TotalSpend(txns); !got.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("TotalSpend = %s, want 30.00", got)
	}
}

func TestFilterDateRange(t *testing.T) {
	txns := []models.Transaction{
		txn("t1", "2025-03-09", "A", "1", "", ""),
		txn("t2", "2025-03-10", "B", "1", "", ""),
		txn("t3", "2025-03-16", "C", "1", "", ""),
		txn("t4", "2025-03-17", "D", "1", "", ""),
	}
	got := FilterDateRange(txns, "2025-03-10", "2025-03-17")
	if len(got) != 2 || got[0].ID != "t2" || got[1].ID != "t3" {
		t.Errorf("FilterDateRange kept %d txns, want t2 and t3", len(got))
	}
}
