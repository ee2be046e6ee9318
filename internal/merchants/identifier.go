// Package merchants links transactions to canonical merchants via label
// matching and seeds the global merchant table from configuration.
package merchants

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/normalize"
	"github.com/tomin-mx/tomin/internal/store"
)

// identificationWindow is how far back unlinked transactions are considered.
const identificationWindow = 90 * 24 * time.Hour

// Identifier links unlinked transactions to merchants by matching global
// labels against normalized descriptions.
type Identifier struct {
	transactions store.TransactionStore
	merchants    store.MerchantStore
	now          func() time.Time
}

// NewIdentifier creates an identifier over the given stores.
func NewIdentifier(transactions store.TransactionStore, merchants store.MerchantStore) *Identifier {
	return &Identifier{transactions: transactions, merchants: merchants, now: time.Now}
}

// compiledLabel pairs a label with its word-boundary matcher and merchant.
type compiledLabel struct {
	label    domain.MerchantLabel
	pattern  *regexp.Regexp
	merchant domain.Merchant
}

// Execute scans the user's recent unlinked transactions and links each to
// the first matching label. Labels are tried longest-first so a short
// generic label cannot preempt a longer specific one ("uber" must not steal
// "uber eats" descriptions). Returns the number of links made.
func (id *Identifier) Execute(ctx context.Context, userID string) (int, error) {
	labels, err := id.merchants.Labels(ctx)
	if err != nil {
		return 0, err
	}
	if len(labels) == 0 {
		log.Printf("INFO: no merchant labels configured, skipping identification for user %s", userID)
		return 0, nil
	}

	merchantsByID := make(map[string]domain.Merchant)
	all, err := id.merchants.Merchants(ctx)
	if err != nil {
		return 0, err
	}
	for _, m := range all {
		merchantsByID[m.ID] = m
	}

	compiled, err := compileLabels(labels, merchantsByID)
	if err != nil {
		return 0, err
	}

	txs, err := id.transactions.TransactionsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	cutoff := id.now().Add(-identificationWindow)
	matches := 0
	for _, tx := range txs {
		if tx.MerchantID != "" || tx.Date.Before(cutoff) {
			continue
		}

		description := normalize.Merchant(tx.Description)
		for _, cl := range compiled {
			if !cl.pattern.MatchString(description) {
				continue
			}
			if err := id.transactions.SetMerchant(ctx, []string{tx.ID}, cl.merchant.ID, cl.merchant.Name); err != nil {
				return matches, err
			}
			matches++
			break
		}
	}

	log.Printf("INFO: merchant identification linked %d transactions for user %s", matches, userID)
	return matches, nil
}

// compileLabels sorts labels longest-first and builds a case-insensitive
// word-boundary matcher per label. Labels pointing at unknown merchants are
// skipped.
func compileLabels(labels []domain.MerchantLabel, merchantsByID map[string]domain.Merchant) ([]compiledLabel, error) {
	sorted := make([]domain.MerchantLabel, len(labels))
	copy(sorted, labels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Label) > len(sorted[j].Label)
	})

	compiled := make([]compiledLabel, 0, len(sorted))
	for _, l := range sorted {
		merchant, ok := merchantsByID[l.MerchantID]
		if !ok {
			log.Printf("WARN: label %q references unknown merchant %s, skipping", l.Label, l.MerchantID)
			continue
		}
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(l.Label) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("failed to compile label %q: %w", l.Label, err)
		}
		compiled = append(compiled, compiledLabel{label: l, pattern: pattern, merchant: merchant})
	}
	return compiled, nil
}
