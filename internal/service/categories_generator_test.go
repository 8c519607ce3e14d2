package service

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func centsTotals(pairs map[string]string) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(pairs))
	for category, amount := range pairs {
		out = append(out, CategoryTotal{Category: category, Total: decimal.RequireFromString(amount)})
	}
	// SumByCategory returns descending totals; mirror that
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Total.GreaterThan(out[i].Total) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func TestBuildCategoriesPayloadFullBoard(t *testing.T) {
	totals := centsTotals(map[string]string{
		"dining":         "150.00",
		"groceries":      "240.00",
		"transportation": "60.00",
		"entertainment":  "45.00",
		"shopping":       "120.00",
		"travel":         "300.00",
	})

	rng := rand.New(rand.NewSource(9))
	payload := buildCategoriesPayload(totals, "2025-03-10", rng)

	if len(payload.CategoryTiles) != CategoriesTileCount {
		t.Fatalf("got %d category tiles, want %d", len(payload.CategoryTiles), CategoriesTileCount)
	}
	if len(payload.AmountTiles) != CategoriesTileCount {
		t.Fatalf("got %d amount tiles, want %d", len(payload.AmountTiles), CategoriesTileCount)
	}
	if len(payload.Truth) != CategoriesTileCount {
		t.Fatalf("truth map has %d entries, want %d", len(payload.Truth), CategoriesTileCount)
	}

	// highest and lowest spend always make the board
	categories := make(map[string]bool)
	for _, tile := range payload.CategoryTiles {
		categories[tile.Category] = true
	}
	if !categories["travel"] || !categories["entertainment"] {
		t.Errorf("board %v missing highest or lowest category", categories)
	}

	// every truth pairing points at the tile holding that category's total
	byCategory := make(map[string]string)
	for _, ct := range totals {
		byCategory[ct.Category] = ct.Total.StringFixed(2)
	}
	for _, cat := range payload.CategoryTiles {
		amtID, ok := payload.Truth[cat.ID]
		if !ok {
			t.Fatalf("no truth entry for %s", cat.ID)
		}
		tile := findAmountTile(payload, amtID)
		if tile == nil {
			t.Fatalf("truth points at missing tile %s", amtID)
		}
		if tile.Value != byCategory[cat.Category] {
			t.Errorf("category %s pairs with %s, want %s", cat.Category, tile.Value, byCategory[cat.Category])
		}
	}
}

func TestBuildCategoriesPayloadZeroDecoys(t *testing.T) {
	totals := centsTotals(map[string]string{
		"dining":    "90.00",
		"groceries": "150.00",
		"travel":    "210.00",
	})

	rng := rand.New(rand.NewSource(4))
	payload := buildCategoriesPayload(totals, "2025-03-10", rng)

	if len(payload.CategoryTiles) != CategoriesTileCount {
		t.Fatalf("got %d category tiles, want %d", len(payload.CategoryTiles), CategoriesTileCount)
	}

	zeros := 0
	for _, tile := range payload.AmountTiles {
		if tile.Value == "0.00" {
			zeros++
		}
	}
	if zeros != 2 {
		t.Errorf("got %d zero decoys, want 2", zeros)
	}
}

func TestPickSpread(t *testing.T) {
	totals := centsTotals(map[string]string{
		"travel":         "600.00",
		"groceries":      "500.00",
		"dining":         "400.00",
		"shopping":       "300.00",
		"transportation": "200.00",
		"entertainment":  "100.00",
	})

	picked := pickSpread(totals, 5)
	if len(picked) != 5 {
		t.Fatalf("picked %d, want 5", len(picked))
	}
	if picked[0].Category != "travel" {
		t.Errorf("first pick = %s, want highest (travel)", picked[0].Category)
	}
	if picked[len(picked)-1].Category != "entertainment" {
		t.Errorf("last pick = %s, want lowest (entertainment)", picked[len(picked)-1].Category)
	}

	small := pickSpread(totals[:3], 5)
	if len(small) != 3 {
		t.Errorf("short list should pass through, got %d", len(small))
	}
}

func TestBuildRevealSortedByAmount(t *testing.T) {
	totals := centsTotals(map[string]string{
		"dining":         "150.00",
		"groceries":      "240.00",
		"transportation": "60.00",
		"entertainment":  "45.00",
		"travel":         "300.00",
	})

	rng := rand.New(rand.NewSource(2))
	payload := buildCategoriesPayload(totals, "2025-03-10", rng)
	reveal := buildReveal(&payload)

	if len(reveal) != CategoriesTileCount {
		t.Fatalf("reveal has %d rows, want %d", len(reveal), CategoriesTileCount)
	}
	for i := 1; i < len(reveal); i++ {
		prev := decimal.RequireFromString(reveal[i-1].Amount)
		cur := decimal.RequireFromString(reveal[i].Amount)
		if cur.GreaterThan(prev) {
			t.Errorf("reveal not sorted descending at row %d", i)
		}
	}
	if reveal[0].Category != "travel" {
		t.Errorf("biggest spend first: got %s, want travel", reveal[0].Category)
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("dining"); got != "Dining" {
		t.Errorf("titleCase(dining) = %q", got)
	}
	if got := titleCase(""); got != "" {
		t.Errorf("titleCase(empty) = %q", got)
	}
}
