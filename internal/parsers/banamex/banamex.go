// Package banamex parses Banamex statement text. Credit-card statements use a
// one-line-per-transaction layout handled by a single regex scan; debit
// statements spread each transaction over several lines and print only a
// running balance, so amounts are reconstructed by balance reconciliation.
package banamex

import (
	"strings"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/parser"
)

const bankName = "Banamex"

var detectionSignatures = []string{
	"BANAMEX",
	"Tarjetas Banamex",
	"GRUPO FINANCIERO BANAMEX",
	"www.banamex.com",
}

// Parser handles both Banamex statement layouts. Stateless; all parse state
// lives on the stack of a single Parse call, so the shared instance is safe
// for concurrent use.
type Parser struct{}

var parserInstance = &Parser{}

// NewParser returns the shared Banamex parser instance.
func NewParser() *Parser {
	return parserInstance
}

// BankName returns the issuing bank name.
func (p *Parser) BankName() string {
	return bankName
}

// CanParse matches Banamex detection signatures case-insensitively.
func (p *Parser) CanParse(text string) bool {
	return parser.ContainsAnyFold(text, detectionSignatures)
}

// Parse extracts a statement, routing to the debit balance-reconciling scan
// when the text carries debit-account markers and to the credit line scan
// otherwise. Malformed regions are skipped, never raised.
func (p *Parser) Parse(text string, userID string, categories parser.Categorizer) (*domain.ParsedStatement, error) {
	if isDebitStatement(text) {
		return p.parseDebit(text, userID, categories), nil
	}
	return p.parseCredit(text, userID, categories), nil
}

// isDebitStatement detects the multi-line debit layout by its previous-balance
// header or by a line opening with the unhyphenated "DD MON" date token.
// Credit statements hyphenate their dates, so neither marker appears there;
// footer text like "HORARIO DE ATENCION" must not influence the routing.
func isDebitStatement(text string) bool {
	if strings.Contains(strings.ToUpper(text), "SALDO ANTERIOR") {
		return true
	}
	for _, line := range strings.Split(text, "\n") {
		if dateTokenPattern.MatchString(line) {
			return true
		}
	}
	return false
}
