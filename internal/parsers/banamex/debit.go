package banamex

import (
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/normalize"
	"github.com/tomin-mx/tomin/internal/parser"
)

// balanceTolerance absorbs rounding noise when checking whether a candidate
// amount explains the printed balance delta.
const balanceTolerance = 0.05

// minAmount filters zero-amount artifacts produced by balance restatements.
const minAmount = 0.001

// maxDescriptionLen caps accumulated multi-line descriptions.
const maxDescriptionLen = 120

const placeholderDescription = "MOVIMIENTO BANAMEX"

var (
	// dateTokenPattern opens a transaction block: a day number followed by a
	// 3-letter Spanish month at the start of a line.
	dateTokenPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2})\s+(ENE|FEB|MAR|ABR|MAY|JUN|JUL|AGO|SEP|OCT|NOV|DIC)\b`)

	// yearHeaderPattern pulls the statement year from the period header, e.g.
	// "DEL 1 AL 31 DE ENERO DE 2024".
	yearHeaderPattern = regexp.MustCompile(`(?i)AL\s+\d{1,2}\s+DE\s+\p{L}+\s+DE\s+(\d{4})`)

	// previousBalancePattern seeds the running balance.
	previousBalancePattern = regexp.MustCompile(`(?i)SALDO\s+ANTERIOR\D*([\d,]+\.\d{2})`)

	// adminTailPattern strips trailing branch/authorization/reference noise
	// from accumulated descriptions.
	adminTailPattern = regexp.MustCompile(`(?i)(?:^|\s)(?:SUC\b|SUCURSAL\b|AUT\.?\s|AUTORIZACION\b|REF\.?\s|REFERENCIA\b|FOLIO\b|CAJERO\b|CLAVE\s+DE\s+RASTREO\b|RFC\b).*$`)

	// horaMarkerPattern closes a transaction block. Whole word only: HORARIO
	// in service-hours footers and continuation lines must not match.
	horaMarkerPattern = regexp.MustCompile(`(?i)\bHORA\b`)
)

// boilerplateKeywords mark layout noise that must never join a description.
var boilerplateKeywords = []string{
	"ESTADO DE CUENTA",
	"PAGINA",
	"GRUPO FINANCIERO",
	"WWW.BANAMEX.COM",
	"COMISION NACIONAL",
	"DETALLE DE OPERACIONES",
	"FECHA CONCEPTO",
	"RETIROS DEPOSITOS SALDO",
}

// incomeKeywords mark descriptions that are deposits when the balance delta
// is ambiguous.
var incomeKeywords = []string{
	"PAGO RECIBIDO",
	"NOMINA",
	"DEPOSITO",
	"TRANSFERENCIA RECIBIDA",
	"ABONO",
}

// debitScan accumulates one in-flight transaction block. Debit statements
// print each movement across several lines: a "DD MON" line opens the block,
// description fragments follow, and the line carrying the HORA time marker
// closes it with the movement value and the new running balance.
type debitScan struct {
	active    bool
	day       int
	month     int
	descParts []string
	balance   float64
	year      int
}

// parseDebit reconstructs debit transactions by balance reconciliation. The
// statement prints unsigned movement values next to a running balance, so the
// sign of each movement is inferred from which arithmetic explains the
// printed balance.
func (p *Parser) parseDebit(text string, userID string, categories parser.Categorizer) *domain.ParsedStatement {
	scan := debitScan{year: statementYear(text)}
	if m := previousBalancePattern.FindStringSubmatch(text); m != nil {
		if v, err := parser.ParseAmount(m[1]); err == nil {
			scan.balance = v
		}
	} else {
		// Best effort: reconciliation still runs, seeded at zero.
		log.Printf("WARN: Banamex debit statement has no SALDO ANTERIOR header, seeding balance at 0 for user %s", userID)
	}

	var transactions []domain.Transaction
	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || isBoilerplate(line) {
			continue
		}

		if m := dateTokenPattern.FindStringSubmatch(line); m != nil {
			// A new date token while a block is open abandons the unclosed
			// block; without a HORA terminator its amounts are untrustworthy.
			day, _ := strconv.Atoi(m[1])
			scan.active = true
			scan.day = day
			scan.month = parser.MonthNumber(m[2])
			scan.descParts = scan.descParts[:0]
			rest := strings.TrimSpace(line[len(m[0]):])
			if rest != "" {
				scan.descParts = append(scan.descParts, rest)
			}
			continue
		}

		if !scan.active {
			continue
		}

		if !horaMarkerPattern.MatchString(line) {
			scan.descParts = append(scan.descParts, line)
			continue
		}

		if tx, ok := scan.close(line, userID); ok {
			tx.CategoryID = categories.Match(tx.Description)
			tx.MerchantName = normalize.Merchant(tx.Description)
			transactions = append(transactions, tx)
		}
		scan.active = false
	}

	log.Printf("INFO: Banamex debit parse extracted %d transactions for user %s", len(transactions), userID)
	return &domain.ParsedStatement{
		Transactions: transactions,
		AccountType:  domain.AccountTypeDebit,
	}
}

// close resolves the amounts on a HORA terminator line against the running
// balance and emits the accumulated transaction, if any.
func (s *debitScan) close(line string, userID string) (domain.Transaction, bool) {
	amounts := parser.ExtractAmounts(line)
	description := s.description()

	var amount float64
	switch {
	case len(amounts) >= 2:
		value := amounts[len(amounts)-2]
		newBalance := amounts[len(amounts)-1]
		amount = s.reconcile(value, newBalance, description)
		s.balance = newBalance
	case len(amounts) == 1:
		// A lone number matching the running balance is a restatement, not a
		// movement. Otherwise treat it as the new balance and emit the delta.
		if math.Abs(amounts[0]-s.balance) <= balanceTolerance {
			return domain.Transaction{}, false
		}
		amount = amounts[0] - s.balance
		s.balance = amounts[0]
	default:
		return domain.Transaction{}, false
	}

	if math.Abs(amount) < minAmount {
		return domain.Transaction{}, false
	}

	date := time.Date(s.year, time.Month(s.month), s.day, 0, 0, 0, 0, time.UTC)
	return domain.NewTransaction(userID, amount, description, date), true
}

// reconcile decides the sign of a movement value against the printed balance
// transition. The deposit test runs first so that a deposit and a withdrawal
// of the same magnitude cannot be confused. When neither arithmetic explains
// the new balance, income keywords in the description break the tie.
func (s *debitScan) reconcile(value, newBalance float64, description string) float64 {
	if math.Abs(s.balance+value-newBalance) <= balanceTolerance {
		return value
	}
	if math.Abs(s.balance-value-newBalance) <= balanceTolerance {
		return -value
	}
	if parser.ContainsAnyFold(description, incomeKeywords) {
		return value
	}
	return -value
}

// description joins, cleans and truncates the accumulated fragments.
func (s *debitScan) description() string {
	joined := strings.Join(s.descParts, " ")
	joined = adminTailPattern.ReplaceAllString(joined, "")
	joined = strings.TrimSpace(joined)
	if len(joined) > maxDescriptionLen {
		joined = strings.TrimSpace(joined[:maxDescriptionLen])
	}
	if joined == "" {
		return placeholderDescription
	}
	return joined
}

// statementYear reads the year from the statement period header, falling back
// to the current year when absent.
func statementYear(text string) int {
	if m := yearHeaderPattern.FindStringSubmatch(text); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return y
		}
	}
	return time.Now().Year()
}

func isBoilerplate(line string) bool {
	return parser.ContainsAnyFold(line, boilerplateKeywords)
}
