// Package signature provides detection-only statement parsers: banks whose
// layouts are recognized but not yet extracted, and the generic fallback.
package signature

import (
	"log"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/parser"
)

// Parser recognizes a bank by its detection signatures and yields an empty
// ParsedStatement. An empty result signals "could not extract", not an error;
// the ingestion pipeline still records the upload.
type Parser struct {
	bankName    string
	accountType domain.AccountType
	signatures  []string
}

// New creates a signature-only parser for the given bank.
func New(bankName string, accountType domain.AccountType, signatures ...string) *Parser {
	return &Parser{
		bankName:    bankName,
		accountType: accountType,
		signatures:  signatures,
	}
}

// NewBBVA recognizes BBVA / Bancomer statements.
func NewBBVA() *Parser {
	return New("BBVA", domain.AccountTypeDebit, "BBVA", "BANCOMER")
}

// NewSantander recognizes Santander statements.
func NewSantander() *Parser {
	return New("Santander", domain.AccountTypeDebit, "SANTANDER")
}

// NewFallback returns the registry fallback: matches everything, extracts
// nothing.
func NewFallback() *Parser {
	return &Parser{bankName: "Generic", accountType: domain.AccountTypeDebit}
}

// BankName returns the bank this parser recognizes.
func (p *Parser) BankName() string {
	return p.bankName
}

// CanParse matches the configured signatures case-insensitively. A parser
// with no signatures matches everything (the fallback).
func (p *Parser) CanParse(text string) bool {
	if len(p.signatures) == 0 {
		return true
	}
	return parser.ContainsAnyFold(text, p.signatures)
}

// Parse yields an empty statement tagged with the parser's account type.
func (p *Parser) Parse(text string, userID string, categories parser.Categorizer) (*domain.ParsedStatement, error) {
	log.Printf("INFO: %s parser matched statement for user %s but extraction is not implemented (%d chars)", p.bankName, userID, len(text))
	return &domain.ParsedStatement{AccountType: p.accountType}, nil
}
