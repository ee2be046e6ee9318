// Package validate checks parsed statements before they are persisted or
// exported.
package validate

import (
	"fmt"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
)

// Result contains all validation errors and warnings for a parsed statement.
type Result struct {
	Errors   []Issue
	Warnings []Issue
}

// Issue is one validation finding.
type Issue struct {
	Entity  string // "transaction" or "savings_movement"
	ID      string
	Field   string
	Message string
}

// OK reports whether the statement passed without errors. Warnings do not
// block persistence.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// implausibleAmount flags obviously wrong parses; no real statement line in
// this corpus exceeds a million pesos.
const implausibleAmount = 1_000_000.0

// Statement validates every transaction and savings movement of a parsed
// statement, checking field constraints and intra-statement ID uniqueness.
func Statement(stmt *domain.ParsedStatement) *Result {
	result := &Result{
		Errors:   []Issue{},
		Warnings: []Issue{},
	}
	now := time.Now()

	txIDs := make(map[string]bool)
	for i := range stmt.Transactions {
		tx := &stmt.Transactions[i]

		if err := tx.Validate(); err != nil {
			result.Errors = append(result.Errors, Issue{
				Entity:  "transaction",
				ID:      tx.ID,
				Message: err.Error(),
			})
		}

		if tx.ID != "" {
			if txIDs[tx.ID] {
				result.Errors = append(result.Errors, Issue{
					Entity:  "transaction",
					ID:      tx.ID,
					Field:   "ID",
					Message: "duplicate transaction ID",
				})
			}
			txIDs[tx.ID] = true
		}

		if tx.Date.After(now.AddDate(0, 0, 1)) {
			result.Warnings = append(result.Warnings, Issue{
				Entity:  "transaction",
				ID:      tx.ID,
				Field:   "Date",
				Message: fmt.Sprintf("transaction dated in the future: %s", tx.Date.Format("2006-01-02")),
			})
		}

		if tx.Amount > implausibleAmount || tx.Amount < -implausibleAmount {
			result.Warnings = append(result.Warnings, Issue{
				Entity:  "transaction",
				ID:      tx.ID,
				Field:   "Amount",
				Message: fmt.Sprintf("implausibly large amount: %.2f", tx.Amount),
			})
		}
	}

	mvIDs := make(map[string]bool)
	for i := range stmt.Savings {
		mv := &stmt.Savings[i]

		if err := mv.Validate(); err != nil {
			result.Errors = append(result.Errors, Issue{
				Entity:  "savings_movement",
				ID:      mv.ID,
				Message: err.Error(),
			})
		}

		if mv.ID != "" {
			if mvIDs[mv.ID] || txIDs[mv.ID] {
				result.Errors = append(result.Errors, Issue{
					Entity:  "savings_movement",
					ID:      mv.ID,
					Field:   "ID",
					Message: "duplicate movement ID",
				})
			}
			mvIDs[mv.ID] = true
		}

		if mv.GoalName == "" {
			result.Warnings = append(result.Warnings, Issue{
				Entity:  "savings_movement",
				ID:      mv.ID,
				Field:   "GoalName",
				Message: "savings movement without a goal name",
			})
		}
	}

	return result
}
