package service

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finquest/internal/models"
)

const (
	// DetectiveRoundSize is the number of transactions shown per round
	DetectiveRoundSize = 8

	// Anomaly count bounds per round
	detectiveMinAnomalies = 2
	detectiveMaxAnomalies = 4

	// zScoreThreshold flags amounts far from the user's mean spend
	zScoreThreshold = 2.0

	// rareMerchantMax is the visit ceiling for the rare-merchant signal
	rareMerchantMax = 2
)

// suspiciousMerchants seeds planted anomalies when the user's real
// history is too clean to fill a round
var suspiciousMerchants = []string{
	"Lux Casino Royale",
	"Midnight Electronics Outlet",
	"Golden Crown Jewelers",
	"Apex Crypto Exchange",
	"Prestige Auto Spa",
	"Skyline Helicopter Tours",
}

type amountStats struct {
	mean   float64
	stddev float64
	q95    float64
	count  int
}

func computeAmountStats(txns []models.Transaction) amountStats {
	var amounts []float64
	for i := range txns {
		if txns[i].Amount.Sign() > 0 {
			f, _ := txns[i].Amount.Float64()
			amounts = append(amounts, f)
		}
	}

	stats := amountStats{count: len(amounts)}
	if len(amounts) == 0 {
		return stats
	}

	sum := 0.0
	for _, a := range amounts {
		sum += a
	}
	stats.mean = sum / float64(len(amounts))

	variance := 0.0
	for _, a := range amounts {
		variance += (a - stats.mean) * (a - stats.mean)
	}
	stats.stddev = math.Sqrt(variance / float64(len(amounts)))

	sorted := make([]float64, len(amounts))
	copy(sorted, amounts)
	sort.Float64s(sorted)
	idx := int(0.95 * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	stats.q95 = sorted[idx]
	return stats
}

// detectAnomalies scores every transaction in the history window and
// returns reasons keyed by transaction id. A transaction is anomalous
// when any signal fires.
func detectAnomalies(history []models.Transaction) map[string][]string {
	stats := computeAmountStats(history)

	merchantVisits := make(map[string]int)
	for i := range history {
		merchantVisits[history[i].MerchantOrName()]++
	}

	reasons := make(map[string][]string)
	for i := range history {
		txn := &history[i]
		if txn.Amount.Sign() <= 0 {
			continue
		}
		amount, _ := txn.Amount.Float64()

		var rs []string
		if stats.stddev > 0 {
			z := (amount - stats.mean) / stats.stddev
			if z > zScoreThreshold {
				rs = append(rs, fmt.Sprintf("%s is far above your typical spend of %s", money(txn.Amount), money(decimal.NewFromFloat(stats.mean).RoundBank(2))))
			}
		}
		if stats.count > 10 && amount > stats.q95 {
			rs = append(rs, "This is among your largest transactions in the past 90 days")
		}
		if merchantVisits[txn.MerchantOrName()] <= rareMerchantMax && amount > stats.mean {
			rs = append(rs, fmt.Sprintf("You rarely shop at %s", txn.MerchantOrName()))
		}
		if len(rs) > 0 {
			reasons[txn.ID] = rs
		}
	}
	return reasons
}

// buildDetectivePayload assembles a round: real anomalies topped up with
// planted ones, normal transactions as filler, all shuffled together.
func buildDetectivePayload(history []models.Transaction, weekStart string, rng *rand.Rand) models.DetectivePayload {
	reasons := detectAnomalies(history)

	var anomalous, normal []models.Transaction
	for _, txn := range history {
		if _, ok := reasons[txn.ID]; ok {
			anomalous = append(anomalous, txn)
		} else {
			normal = append(normal, txn)
		}
	}
	// biggest first, so the most blatant anomalies make the cut
	sort.Slice(anomalous, func(i, j int) bool {
		return anomalous[i].Amount.GreaterThan(anomalous[j].Amount)
	})

	if len(anomalous) > detectiveMaxAnomalies {
		anomalous = anomalous[:detectiveMaxAnomalies]
	}
	for len(anomalous) < detectiveMinAnomalies {
		planted, plantedReasons := plantAnomaly(history, rng)
		anomalous = append(anomalous, planted)
		reasons[planted.ID] = plantedReasons
	}

	fillerCount := DetectiveRoundSize - len(anomalous)
	if fillerCount > len(normal) {
		fillerCount = len(normal)
	}
	// history arrives newest first; fillers are the most recent normals
	roundTxns := append([]models.Transaction{}, normal[:fillerCount]...)
	roundTxns = append(roundTxns, anomalous...)
	rng.Shuffle(len(roundTxns), func(i, j int) {
		roundTxns[i], roundTxns[j] = roundTxns[j], roundTxns[i]
	})

	payload := models.DetectivePayload{
		WeekStart: weekStart,
		Reasons:   make(map[string][]string),
	}
	for _, txn := range roundTxns {
		payload.Transactions = append(payload.Transactions, models.RoundTransaction{
			ID:       txn.ID,
			Date:     txn.Date,
			Merchant: txn.MerchantOrName(),
			Amount:   money(txn.Amount),
			Category: NormalizeCategory(&txn),
		})
		if rs, ok := reasons[txn.ID]; ok {
			payload.AnomalyIDs = append(payload.AnomalyIDs, txn.ID)
			payload.Reasons[txn.ID] = rs
		}
	}
	return payload
}

// plantAnomaly fabricates a suspicious transaction modeled on the user's
// real spending, inflated well past their mean
func plantAnomaly(history []models.Transaction, rng *rand.Rand) (models.Transaction, []string) {
	stats := computeAmountStats(history)
	base := stats.mean
	if base < 10 {
		base = 10
	}
	multiplier := 3.0 + rng.Float64()*3.0
	amount := decimal.NewFromFloat(base * multiplier).RoundBank(2)

	merchant := suspiciousMerchants[rng.Intn(len(suspiciousMerchants))]
	date := ""
	if len(history) > 0 {
		date = history[rng.Intn(len(history)/2+1)].Date
	}

	txn := models.Transaction{
		ID:       "sus_" + uuid.New().String(),
		Date:     date,
		Name:     merchant,
		Merchant: merchant,
		Amount:   amount,
	}
	return txn, []string{
		fmt.Sprintf("You have never shopped at %s before", merchant),
		fmt.Sprintf("%s is far above your typical spend of %s", money(amount), money(decimal.NewFromFloat(stats.mean).RoundBank(2))),
	}
}

// detectiveFeedback grades the round in plain words
func detectiveFeedback(accuracy float64) string {
	switch {
	case accuracy >= 1.0:
		return "Perfect detective work! You spotted every suspicious transaction."
	case accuracy >= 0.6:
		return "Sharp eyes. Most of the suspicious activity didn't get past you."
	case accuracy > 0:
		return "You caught some of them, but a few anomalies slipped through."
	default:
		return "The anomalies got away this time. Check the reveal to see what to look for."
	}
}
