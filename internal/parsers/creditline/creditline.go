// Package creditline extracts credit-card transaction lines of the form
//
//	02-ene-2024  04-ene-2024  NETFLIX.COM  -  $199.00
//
// where the first date is the operation date, the second the posting date,
// and the standalone sign precedes the amount. A "-" marks a payment or
// credit to the card; "+" (or no recognized sign context) marks a charge.
package creditline

import (
	"regexp"
	"strconv"

	"github.com/tomin-mx/tomin/internal/parser"
)

// Line is one matched transaction line, dates still unresolved.
type Line struct {
	Day         int
	Month       string
	Year        int
	Description string
	Negative    bool
	Amount      float64
}

// linePattern captures operation day/month/year, skips the posting date,
// then captures the description, the sign and the amount.
var linePattern = regexp.MustCompile(`(?i)(\d{1,2})-([a-z]{3})-(\d{4})\s+\d{1,2}-[a-z]{3}-\d{4}\s+(.*?)\s+([+-])\s+\$([\d,]+\.\d{2})`)

// Scan returns every transaction line found in the statement text, in
// document order. Lines whose numeric fields fail to parse are skipped.
func Scan(text string) []Line {
	matches := linePattern.FindAllStringSubmatch(text, -1)
	lines := make([]Line, 0, len(matches))
	for _, m := range matches {
		day, dayErr := strconv.Atoi(m[1])
		year, yearErr := strconv.Atoi(m[3])
		amount, amountErr := parser.ParseAmount(m[6])
		if dayErr != nil || yearErr != nil || amountErr != nil {
			continue
		}
		lines = append(lines, Line{
			Day:         day,
			Month:       m[2],
			Year:        year,
			Description: m[4],
			Negative:    m[5] == "-",
			Amount:      amount,
		})
	}
	return lines
}
