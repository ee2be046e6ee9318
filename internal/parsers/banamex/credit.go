package banamex

import (
	"log"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/normalize"
	"github.com/tomin-mx/tomin/internal/parser"
	"github.com/tomin-mx/tomin/internal/parsers/creditline"
)

// parseCredit scans the one-line-per-transaction credit card layout. Each
// line carries an operation date, a posting date, a free-text description, an
// explicit sign and a dollar amount; the shared creditline scanner pulls them
// out in a single pass.
func (p *Parser) parseCredit(text string, userID string, categories parser.Categorizer) *domain.ParsedStatement {
	lines := creditline.Scan(text)

	transactions := make([]domain.Transaction, 0, len(lines))
	for _, ln := range lines {
		month := parser.MonthNumber(ln.Month)
		if month == 0 {
			// Unknown month abbreviation; keep the transaction rather than
			// dropping it, pinned to January like an unparseable date.
			month = 1
		}
		date := time.Date(ln.Year, time.Month(month), ln.Day, 0, 0, 0, 0, time.UTC)

		amount := ln.Amount
		if ln.Negative {
			amount = -amount
		}

		tx := domain.NewTransaction(userID, amount, ln.Description, date)
		tx.CategoryID = categories.Match(ln.Description)
		tx.MerchantName = normalize.Merchant(ln.Description)
		transactions = append(transactions, tx)
	}

	log.Printf("INFO: Banamex credit parse extracted %d transactions for user %s", len(transactions), userID)
	return &domain.ParsedStatement{
		Transactions: transactions,
		AccountType:  domain.AccountTypeCredit,
	}
}
