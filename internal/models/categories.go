package models

// CategoryBuckets are the spending buckets the games draw from
var CategoryBuckets = []string{"dining", "groceries", "transportation", "entertainment", "shopping", "travel"}

// CategoryTile is one entry in the category pool
type CategoryTile struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// AmountTile is one entry in the amount pool
type AmountTile struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// CategoriesPayload is the server-held content of a categories round.
// Truth maps category tile IDs to their matching amount tile IDs and is
// never sent to the client.
type CategoriesPayload struct {
	WeekStart     string            `json:"week_start"`
	CategoryTiles []CategoryTile    `json:"category_tiles"`
	AmountTiles   []AmountTile      `json:"amount_tiles"`
	Truth         map[string]string `json:"truth"`
}

// MatchPair is one solved category/amount pairing
type MatchPair struct {
	CategoryID string `json:"category_id"`
	AmountID   string `json:"amount_id"`
}

// CategoriesProgress is the mutable progress of a categories round
type CategoriesProgress struct {
	Solved []MatchPair `json:"solved"`
}

// SolvedCategory reports whether a category tile has already been matched
func (p *CategoriesProgress) SolvedCategory(categoryID string) bool {
	for _, m := range p.Solved {
		if m.CategoryID == categoryID {
			return true
		}
	}
	return false
}

// CategoryReveal is one row of the end-of-round reveal, ordered by amount
type CategoryReveal struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Label    string `json:"label"`
}
