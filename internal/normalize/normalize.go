// Package normalize provides deterministic merchant text normalization.
//
// Both parse-time merchant tagging and detection-time grouping depend on this
// producing identical output for the same raw string regardless of formatting
// noise (masked card numbers, reference codes, varying separators), so the
// step order is fixed and must not be reordered.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Numeric tokens, including card masks and reference numbers like "*1234".
	numberPattern = regexp.MustCompile(`\*?\d+`)
	// Date fragments like 01/24/2025 or 01/24/25.
	datePattern      = regexp.MustCompile(`\d{2}/\d{2}/\d{2,4}`)
	separatorPattern = regexp.MustCompile(`[/.\-]`)
	spacePattern     = regexp.MustCompile(`\s+`)

	// Banking jargon stripped as whole words. English terms plus their
	// Mexican-banking equivalents and transaction-channel tokens.
	stopWords = []string{
		"payment", "transfer", "debit", "card",
		"pago", "transferencia", "debito", "tarjeta", "compra", "spei", "ref",
	}
	stopWordPatterns = compileStopWords(stopWords)

	// NFD decomposition + combining mark removal, so accented and plain
	// spellings of the same word normalize identically.
	foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

func compileStopWords(words []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return patterns
}

// Merchant normalizes raw transaction or merchant text into a canonical
// grouping key. Returns "" for empty input. Idempotent: applying it twice
// yields the same result as applying it once.
func Merchant(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)

	if folded, _, err := transform.String(foldAccents, text); err == nil {
		text = folded
	}

	text = numberPattern.ReplaceAllString(text, "")
	text = datePattern.ReplaceAllString(text, "")
	text = separatorPattern.ReplaceAllString(text, " ")

	for _, pattern := range stopWordPatterns {
		text = pattern.ReplaceAllString(text, "")
	}

	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
