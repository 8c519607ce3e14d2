package service

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finquest/internal/models"
)

// WeekStart returns the Monday of t's week in UTC as YYYY-MM-DD. All
// weekly caps key off this value.
func WeekStart(t time.Time) string {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -offset)
	return monday.Format("2006-01-02")
}

// DaysAgo returns the date n days before t in UTC as YYYY-MM-DD
func DaysAgo(t time.Time, n int) string {
	return t.UTC().AddDate(0, 0, -n).Format("2006-01-02")
}

// pfcCategories maps provider personal-finance categories onto game
// buckets. Detailed codes are checked before primary ones.
var pfcDetailedCategories = map[string]string{
	"FOOD_AND_DRINK_GROCERIES":           "groceries",
	"FOOD_AND_DRINK_RESTAURANT":          "dining",
	"FOOD_AND_DRINK_FAST_FOOD":           "dining",
	"FOOD_AND_DRINK_COFFEE":              "dining",
	"GENERAL_MERCHANDISE_SUPERSTORES":    "groceries",
	"TRANSPORTATION_PUBLIC_TRANSIT":      "transportation",
	"TRANSPORTATION_TAXIS_AND_RIDE_SHARES": "transportation",
	"TRANSPORTATION_GAS":                 "transportation",
}

var pfcPrimaryCategories = map[string]string{
	"FOOD_AND_DRINK":      "dining",
	"GENERAL_MERCHANDISE": "shopping",
	"TRANSPORTATION":      "transportation",
	"ENTERTAINMENT":       "entertainment",
	"TRAVEL":              "travel",
}

// merchantKeywords is the fallback for transactions with no usable
// provider category.
var merchantKeywords = map[string]string{
	"grocery":    "groceries",
	"market":     "groceries",
	"restaurant": "dining",
	"cafe":       "dining",
	"coffee":     "dining",
	"pizza":      "dining",
	"uber":       "transportation",
	"lyft":       "transportation",
	"transit":    "transportation",
	"gas":        "transportation",
	"cinema":     "entertainment",
	"theater":    "entertainment",
	"spotify":    "entertainment",
	"netflix":    "entertainment",
	"hotel":      "travel",
	"airline":    "travel",
	"airbnb":     "travel",
}

// NormalizeCategory maps a transaction onto one of the game buckets.
// Returns "" for transactions that fit none (transfers, income, fees).
func NormalizeCategory(txn *models.Transaction) string {
	if c, ok := pfcDetailedCategories[txn.PFCDetailed]; ok {
		return c
	}
	if c, ok := pfcPrimaryCategories[txn.PFCPrimary]; ok {
		return c
	}
	if txn.CategoryPath != "" {
		lower := strings.ToLower(txn.CategoryPath)
		for _, bucket := range models.CategoryBuckets {
			if strings.Contains(lower, bucket) {
				return bucket
			}
		}
	}
	name := strings.ToLower(txn.MerchantOrName())
	for keyword, bucket := range merchantKeywords {
		if strings.Contains(name, keyword) {
			return bucket
		}
	}
	return ""
}

// CategoryTotal is a game bucket with its summed spend
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// SumByCategory aggregates positive (outflow) amounts per game bucket.
// Results are sorted by total descending for deterministic selection.
func SumByCategory(txns []models.Transaction) []CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	for i := range txns {
		if txns[i].Amount.Sign() <= 0 {
			continue
		}
		bucket := NormalizeCategory(&txns[i])
		if bucket == "" {
			continue
		}
		sums[bucket] = sums[bucket].Add(txns[i].Amount)
	}

	totals := make([]CategoryTotal, 0, len(sums))
	for category, total := range sums {
		totals = append(totals, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].Total.Equal(totals[j].Total) {
			return totals[i].Total.GreaterThan(totals[j].Total)
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}

// TotalSpend sums positive amounts across all transactions
func TotalSpend(txns []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range txns {
		if txns[i].Amount.Sign() > 0 {
			total = total.Add(txns[i].Amount)
		}
	}
	return total
}

// FilterDateRange keeps transactions with from <= date < to (YYYY-MM-DD)
func FilterDateRange(txns []models.Transaction, from, to string) []models.Transaction {
	var out []models.Transaction
	for _, txn := range txns {
		if txn.Date >= from && txn.Date < to {
			out = append(out, txn)
		}
	}
	return out
}
