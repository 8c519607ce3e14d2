package banklink

import "context"

// ProviderTransaction is one transaction as delivered by the link
// provider's API
type ProviderTransaction struct {
	ID           string `json:"transaction_id"`
	Date         string `json:"date"`
	Name         string `json:"name"`
	Merchant     string `json:"merchant_name"`
	Amount       string `json:"amount"`
	PFCPrimary   string `json:"personal_finance_category_primary"`
	PFCDetailed  string `json:"personal_finance_category_detailed"`
	CategoryPath string `json:"category_path"`
}

// LinkResult is a successful public-token exchange
type LinkResult struct {
	ItemID      string `json:"item_id"`
	AccessToken string `json:"access_token"`
	Institution string `json:"institution_name"`
}

// Provider is the bank aggregation API surface the service depends on
type Provider interface {
	// ExchangePublicToken trades a client-side public token for a
	// durable item access token
	ExchangePublicToken(ctx context.Context, publicToken string) (*LinkResult, error)

	// FetchTransactions pulls an item's transactions on or after the
	// since date (YYYY-MM-DD)
	FetchTransactions(ctx context.Context, accessToken, since string) ([]ProviderTransaction, error)
}
