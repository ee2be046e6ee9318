// Package recurrence detects recurring charges in a user's transaction
// history and derives recurring-bill summaries from them.
package recurrence

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/normalize"
	"github.com/tomin-mx/tomin/internal/store"
)

const (
	// historyWindow is how far back detection looks.
	historyWindow = 18 * 30 * 24 * time.Hour

	// minTransactions is the minimum total history required to run at all.
	minTransactions = 3

	// minGroupSize is the minimum evidence per merchant group.
	minGroupSize = 2

	// confidenceThreshold is the flagging cutoff.
	confidenceThreshold = 0.70

	// similarityConstant is a fixed stand-in for an unimplemented
	// description-similarity signal; it always contributes as 1.0.
	similarityConstant = 1.0
)

// Detector flags recurring transaction groups. Deterministic and idempotent:
// re-running over the same history produces the same flags and metadata.
type Detector struct {
	transactions store.TransactionStore
	now          func() time.Time
}

// NewDetector creates a detector over the given transaction store.
func NewDetector(transactions store.TransactionStore) *Detector {
	return &Detector{transactions: transactions, now: time.Now}
}

// Execute analyzes the user's recent history and flags recurring groups.
// Returns the number of transactions flagged.
func (d *Detector) Execute(ctx context.Context, userID string) (int, error) {
	all, err := d.transactions.TransactionsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	cutoff := d.now().Add(-historyWindow)
	var history []domain.Transaction
	for _, tx := range all {
		if tx.Date.After(cutoff) {
			history = append(history, tx)
		}
	}

	if len(history) < minTransactions {
		log.Printf("INFO: user %s has %d transactions in window, skipping recurrence detection", userID, len(history))
		return 0, nil
	}

	flagged := 0
	for key, group := range groupByMerchant(history) {
		analysis, ok := analyzeGroup(key, group)
		if !ok {
			continue
		}

		ids := make([]string, len(group))
		for i, tx := range group {
			ids[i] = tx.ID
		}
		if err := d.transactions.UpdateRecurring(ctx, ids, analysis); err != nil {
			return flagged, err
		}
		flagged += len(ids)
		log.Printf("INFO: flagged %d %s transactions for user %s (%s, confidence %.2f)",
			len(ids), key, userID, analysis.Frequency, analysis.Confidence)
	}
	return flagged, nil
}

// groupByMerchant partitions transactions by normalized merchant key,
// dropping empty keys and groups below the minimum evidence size.
func groupByMerchant(txs []domain.Transaction) map[string][]domain.Transaction {
	groups := make(map[string][]domain.Transaction)
	for _, tx := range txs {
		name := tx.MerchantName
		if name == "" {
			name = tx.Description
		}
		key := normalize.Merchant(name)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], tx)
	}
	for key, group := range groups {
		if len(group) < minGroupSize {
			delete(groups, key)
		}
	}
	return groups
}

// analyzeGroup computes a group's cadence, consistency scores and confidence.
// Returns false when the group has no dominant named cadence or falls below
// the confidence threshold.
func analyzeGroup(key string, group []domain.Transaction) (*domain.RecurringAnalysis, bool) {
	sort.Slice(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })

	intervals := make([]int, 0, len(group)-1)
	for i := 1; i < len(group); i++ {
		days := int(math.Round(group[i].Date.Sub(group[i-1].Date).Hours() / 24))
		intervals = append(intervals, days)
	}

	frequency, cadenceConsistency := dominantCadence(intervals)
	if frequency == domain.FrequencyUnknown {
		return nil, false
	}

	amountConsistency := amountConsistency(group)
	occurrenceWeight := math.Min(float64(len(group))/6.0, 1.0)

	confidence := 0.2*similarityConstant +
		0.3*amountConsistency +
		0.3*cadenceConsistency +
		0.2*occurrenceWeight
	if confidence < confidenceThreshold {
		return nil, false
	}

	last := group[len(group)-1].Date
	meanInterval := 0.0
	for _, days := range intervals {
		meanInterval += float64(days)
	}
	meanInterval /= float64(len(intervals))

	return &domain.RecurringAnalysis{
		Merchant:     key,
		Frequency:    frequency,
		AvgAmount:    math.Round(meanAmount(group)*100) / 100,
		Confidence:   math.Round(confidence*100) / 100,
		Occurrences:  len(group),
		LastSeen:     last,
		NextExpected: last.AddDate(0, 0, int(math.Round(meanInterval))),
	}, true
}

// dominantCadence buckets intervals and returns the winning named bucket and
// its hit fraction. Unknown winning or tying means no cadence.
func dominantCadence(intervals []int) (domain.Frequency, float64) {
	if len(intervals) == 0 {
		return domain.FrequencyUnknown, 0
	}

	hits := make(map[domain.Frequency]int)
	for _, days := range intervals {
		hits[domain.ClassifyInterval(days)]++
	}

	best := domain.FrequencyUnknown
	bestHits := hits[domain.FrequencyUnknown]
	for _, freq := range []domain.Frequency{
		domain.FrequencyWeekly,
		domain.FrequencyBiWeekly,
		domain.FrequencyMonthly,
		domain.FrequencyQuarterly,
		domain.FrequencyYearly,
	} {
		if hits[freq] > bestHits {
			best = freq
			bestHits = hits[freq]
		}
	}
	if best == domain.FrequencyUnknown {
		return domain.FrequencyUnknown, 0
	}
	return best, float64(bestHits) / float64(len(intervals))
}

// amountConsistency is the fraction of amounts within max(1.0, |mean|*0.05)
// of the group mean.
func amountConsistency(group []domain.Transaction) float64 {
	mean := meanAmount(group)
	tolerance := math.Max(1.0, math.Abs(mean)*0.05)

	within := 0
	for _, tx := range group {
		if math.Abs(tx.Amount-mean) <= tolerance {
			within++
		}
	}
	return float64(within) / float64(len(group))
}

func meanAmount(group []domain.Transaction) float64 {
	sum := 0.0
	for _, tx := range group {
		sum += tx.Amount
	}
	return sum / float64(len(group))
}
