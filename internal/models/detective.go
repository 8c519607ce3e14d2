package models

// RoundTransaction is the redacted transaction view shown in a detective
// round. Whether it is an anomaly stays server-side until reveal.
type RoundTransaction struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Merchant string `json:"merchant_name"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
}

// DetectivePayload is the server-held content of a detective round
type DetectivePayload struct {
	WeekStart    string              `json:"week_start"`
	Transactions []RoundTransaction  `json:"transactions"`
	AnomalyIDs   []string            `json:"anomaly_ids"`
	Reasons      map[string][]string `json:"reasons"`
}

// IsAnomaly reports whether a transaction id is one of the seeded anomalies
func (p *DetectivePayload) IsAnomaly(id string) bool {
	for _, a := range p.AnomalyIDs {
		if a == id {
			return true
		}
	}
	return false
}

// HasTransaction reports whether the id belongs to this round's item set
func (p *DetectivePayload) HasTransaction(id string) bool {
	for _, t := range p.Transactions {
		if t.ID == id {
			return true
		}
	}
	return false
}

// DetectiveProgress is the mutable progress of a detective round
type DetectiveProgress struct {
	FoundIDs         []string `json:"found_ids"`
	FalsePositiveIDs []string `json:"false_positive_ids"`
}

// Found reports whether an anomaly has already been identified
func (p *DetectiveProgress) Found(id string) bool {
	for _, f := range p.FoundIDs {
		if f == id {
			return true
		}
	}
	return false
}

// AnomalyReveal is one row of the end-of-round reveal
type AnomalyReveal struct {
	TransactionID string   `json:"transaction_id"`
	WasAnomaly    bool     `json:"was_anomaly"`
	FoundByUser   bool     `json:"found_by_user"`
	Reasons       []string `json:"reasons"`
}
