package models

import "github.com/shopspring/decimal"

// Transaction is one bank transaction pulled from the link provider.
// Dates are YYYY-MM-DD strings so range queries work identically across
// the supported database engines.
type Transaction struct {
	ID           string
	UserID       string
	Date         string
	Name         string
	Merchant     string
	Amount       decimal.Decimal
	PFCPrimary   string
	PFCDetailed  string
	CategoryPath string
}

// MerchantOrName returns the best available display name
func (t *Transaction) MerchantOrName() string {
	if t.Merchant != "" {
		return t.Merchant
	}
	return t.Name
}
