// Package nu parses Nu México account statements. Nu statements are
// single-line per movement and mix regular transactions with "Cajita"
// savings-goal movements in the same listing; the goal name follows a colon
// in the movement description.
package nu

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/normalize"
	"github.com/tomin-mx/tomin/internal/parser"
)

const bankName = "Nu"

var detectionSignatures = []string{
	"Cuenta Nu:",
	"Nu México Financiera",
	"ayuda@nu.com.mx",
	"Detalle de movimientos en tu cuenta",
	"Cajitas",
}

// movementPattern captures day, uppercase 3-letter month, year, description,
// sign and amount, e.g. "02 ENE 2024 Spotify -$199.00".
var movementPattern = regexp.MustCompile(`(\d{1,2})\s+([A-Z]{3})\s+(\d{4})\s+(.*?)\s+([+-])\$([\d,]+\.\d{2})`)

const defaultGoalName = "Cajita"

// Parser extracts Nu statements. Stateless and safe for concurrent use.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) BankName() string {
	return bankName
}

// CanParse matches Nu detection signatures case-insensitively.
func (p *Parser) CanParse(text string) bool {
	return parser.ContainsAnyFold(text, detectionSignatures)
}

// Parse extracts transactions and Cajita savings movements in one regex pass.
// A movement whose description mentions a Cajita is a savings movement, with
// the goal name taken from the text after the last colon.
func (p *Parser) Parse(text string, userID string, categories parser.Categorizer) (*domain.ParsedStatement, error) {
	var transactions []domain.Transaction
	var savings []domain.SavingsMovement

	for _, m := range movementPattern.FindAllStringSubmatch(text, -1) {
		day, dayErr := strconv.Atoi(m[1])
		year, yearErr := strconv.Atoi(m[3])
		amount, amountErr := parser.ParseAmount(m[6])
		if dayErr != nil || yearErr != nil || amountErr != nil {
			continue
		}

		month := parser.MonthNumber(m[2])
		if month == 0 {
			month = 1
		}
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

		description := strings.TrimSpace(m[4])
		negative := m[5] == "-"
		if negative {
			amount = -amount
		}

		if strings.Contains(description, "Cajita") {
			direction := domain.MovementDeposit
			if negative {
				direction = domain.MovementWithdrawal
			}
			savings = append(savings, domain.NewSavingsMovement(
				userID, amount, description, date, direction, goalName(description)))
			continue
		}

		tx := domain.NewTransaction(userID, amount, description, date)
		tx.CategoryID = categories.Match(description)
		tx.MerchantName = normalize.Merchant(description)
		transactions = append(transactions, tx)
	}

	log.Printf("INFO: Nu parse extracted %d transactions and %d savings movements for user %s",
		len(transactions), len(savings), userID)
	return &domain.ParsedStatement{
		Transactions: transactions,
		Savings:      savings,
		AccountType:  domain.AccountTypeDebit,
	}, nil
}

// goalName extracts the savings goal after the last colon, defaulting when
// the description carries none.
func goalName(description string) string {
	if idx := strings.LastIndex(description, ":"); idx >= 0 {
		if name := strings.TrimSpace(description[idx+1:]); name != "" {
			return name
		}
	}
	return defaultGoalName
}
