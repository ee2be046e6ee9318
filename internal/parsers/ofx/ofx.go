// Package ofx parses OFX/QFX statement exports. Unlike the heuristic bank
// parsers, OFX has a real envelope, so structural failures surface as errors
// instead of empty statements.
package ofx

import (
	"fmt"
	"log"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/normalize"
	"github.com/tomin-mx/tomin/internal/parser"
)

const bankName = "OFX"

// Parser implements OFX/QFX parsing with a stateless design. Each method
// operates solely on the input text, making the shared instance safe for
// concurrent use without locking.
type Parser struct{}

var parserInstance = &Parser{}

// NewParser returns the shared OFX parser instance.
func NewParser() *Parser {
	return parserInstance
}

// BankName returns the format identifier; OFX exports carry no single
// issuing bank.
func (p *Parser) BankName() string {
	return bankName
}

// CanParse checks for OFX envelope markers (both v1 SGML and v2 XML forms).
func (p *Parser) CanParse(text string) bool {
	upper := strings.ToUpper(text)
	return strings.Contains(upper, "OFXHEADER") ||
		strings.Contains(upper, "<?OFX") ||
		strings.Contains(upper, "<OFX>")
}

// Parse decodes the OFX envelope and maps bank and credit card statements to
// domain transactions. OFX amounts are already signed (deposits positive,
// charges negative) and are kept as-is.
func (p *Parser) Parse(text string, userID string, categories parser.Categorizer) (*domain.ParsedStatement, error) {
	response, err := ofxgo.ParseResponse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX envelope (%d bytes): %w", len(text), err)
	}

	if len(response.CreditCard) > 0 {
		return p.parseCreditCard(response, userID, categories)
	}
	if len(response.Bank) > 0 {
		return p.parseBank(response, userID, categories)
	}

	return nil, fmt.Errorf("no supported statement type in OFX response (creditcard: %d, bank: %d)",
		len(response.CreditCard), len(response.Bank))
}

func (p *Parser) parseCreditCard(resp *ofxgo.Response, userID string, categories parser.Categorizer) (*domain.ParsedStatement, error) {
	ccStmt, ok := resp.CreditCard[0].(*ofxgo.CCStatementResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected credit card statement type %T", resp.CreditCard[0])
	}
	if ccStmt.BankTranList == nil {
		return nil, fmt.Errorf("missing transaction list in credit card statement")
	}

	transactions, err := p.mapTransactions(ccStmt.BankTranList, userID, categories)
	if err != nil {
		return nil, err
	}

	log.Printf("INFO: OFX credit card parse extracted %d transactions for user %s", len(transactions), userID)
	return &domain.ParsedStatement{
		Transactions: transactions,
		AccountType:  domain.AccountTypeCredit,
	}, nil
}

func (p *Parser) parseBank(resp *ofxgo.Response, userID string, categories parser.Categorizer) (*domain.ParsedStatement, error) {
	bankStmt, ok := resp.Bank[0].(*ofxgo.StatementResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected bank statement type %T", resp.Bank[0])
	}
	if bankStmt.BankTranList == nil {
		return nil, fmt.Errorf("missing transaction list in bank statement")
	}

	transactions, err := p.mapTransactions(bankStmt.BankTranList, userID, categories)
	if err != nil {
		return nil, err
	}

	log.Printf("INFO: OFX bank parse extracted %d transactions for user %s", len(transactions), userID)
	return &domain.ParsedStatement{
		Transactions: transactions,
		AccountType:  domain.AccountTypeDebit,
	}, nil
}

func (p *Parser) mapTransactions(tranList *ofxgo.TransactionList, userID string, categories parser.Categorizer) ([]domain.Transaction, error) {
	transactions := make([]domain.Transaction, 0, len(tranList.Transactions))
	for i, txn := range tranList.Transactions {
		mapped, err := mapTransaction(txn, userID, categories)
		if err != nil {
			return nil, fmt.Errorf("failed to map transaction at index %d: %w", i, err)
		}
		transactions = append(transactions, mapped)
	}
	return transactions, nil
}

// mapTransaction converts one OFX transaction to the domain model. Posted
// date wins over user date; Name wins over Memo for the description.
func mapTransaction(txn ofxgo.Transaction, userID string, categories parser.Categorizer) (domain.Transaction, error) {
	id := txn.FiTID.String()

	date := txn.DtPosted.Time
	if date.IsZero() {
		date = txn.DtUser.Time
	}
	if date.IsZero() {
		return domain.Transaction{}, fmt.Errorf("transaction %s missing both posted date and user date", id)
	}

	description := strings.TrimSpace(txn.Name.String())
	if description == "" {
		description = strings.TrimSpace(txn.Memo.String())
	}
	if description == "" {
		return domain.Transaction{}, fmt.Errorf("transaction %s missing both name and memo fields", id)
	}

	amount, exact := txn.TrnAmt.Float64()
	if !exact {
		log.Printf("WARN: precision loss in OFX transaction %s amount %v", id, txn.TrnAmt)
	}

	tx := domain.NewTransaction(userID, amount, description, date)
	tx.CategoryID = categories.Match(description)
	tx.MerchantName = normalize.Merchant(description)
	return tx, nil
}
