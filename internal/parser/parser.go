// Package parser defines the strategy interface all bank statement parsers
// implement, plus text helpers shared by the concrete parsers.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tomin-mx/tomin/internal/domain"
)

// Parser is the capability interface for all bank statement parsers.
//
// Parsers are heuristic extractors: Parse must tolerate malformed regions by
// skipping them and only return an error on structural failure (for formats
// with a real envelope, like OFX). A parser that recognizes the text but can
// extract nothing returns an empty ParsedStatement.
type Parser interface {
	// BankName returns the human-readable issuing bank name.
	BankName() string

	// CanParse reports whether this parser recognizes the statement text.
	// Matching is against self-declared detection signatures, case-insensitive.
	CanParse(text string) bool

	// Parse extracts transactions and savings movements from statement text.
	// Produced entities are owned by userID and categorized against categories.
	Parse(text string, userID string, categories Categorizer) (*domain.ParsedStatement, error)
}

// Categorizer is the category-matching contract parsers use to tag extracted
// transactions. Satisfied by categorize.Matcher.
type Categorizer interface {
	Match(description string) string
}

// SpanishMonths maps the 3-letter Spanish month abbreviations used on Mexican
// statements to month numbers.
var SpanishMonths = map[string]int{
	"ene": 1, "feb": 2, "mar": 3, "abr": 4, "may": 5, "jun": 6,
	"jul": 7, "ago": 8, "sep": 9, "oct": 10, "nov": 11, "dic": 12,
}

// MonthNumber resolves a 3-letter Spanish month abbreviation
// case-insensitively. Returns 0 when unknown.
func MonthNumber(abbr string) int {
	return SpanishMonths[strings.ToLower(abbr)]
}

// amountPattern matches decimal amounts with optional thousands separators.
var amountPattern = regexp.MustCompile(`[\d,]+\.\d{2}`)

// ParseAmount converts "1,234.56" to 1234.56.
func ParseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}

// ExtractAmounts returns every decimal amount found on a line, in order.
// Values that fail to parse after separator removal are skipped.
func ExtractAmounts(line string) []float64 {
	matches := amountPattern.FindAllString(line, -1)
	amounts := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := ParseAmount(m)
		if err != nil {
			continue
		}
		amounts = append(amounts, v)
	}
	return amounts
}

// ContainsAnyFold reports whether text contains any of the signatures,
// case-insensitively.
func ContainsAnyFold(text string, signatures []string) bool {
	upper := strings.ToUpper(text)
	for _, sig := range signatures {
		if strings.Contains(upper, strings.ToUpper(sig)) {
			return true
		}
	}
	return false
}
