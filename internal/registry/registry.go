// Package registry holds the ordered set of bank statement parsers and
// selects one for a given statement text.
package registry

import (
	"log"

	"github.com/tomin-mx/tomin/internal/parser"
	"github.com/tomin-mx/tomin/internal/parsers/banamex"
	"github.com/tomin-mx/tomin/internal/parsers/nu"
	"github.com/tomin-mx/tomin/internal/parsers/ofx"
	"github.com/tomin-mx/tomin/internal/parsers/signature"
)

// Registry selects a parser by first-match-wins over a fixed priority order.
// Order matters: signature sets are not disjoint (a bank's name can appear in
// another bank's template), so selection must walk the configured sequence,
// never a specificity order.
type Registry struct {
	parsers  []parser.Parser
	fallback parser.Parser
}

// New creates a registry with the given priority order and fallback.
func New(fallback parser.Parser, parsers ...parser.Parser) *Registry {
	return &Registry{parsers: parsers, fallback: fallback}
}

// NewDefault creates the production registry in its fixed priority order.
func NewDefault() *Registry {
	return New(
		signature.NewFallback(),
		signature.NewBBVA(),
		signature.NewSantander(),
		nu.NewParser(),
		banamex.NewParser(),
		ofx.NewParser(),
	)
}

// Register appends a parser after the existing priority order.
func (r *Registry) Register(p parser.Parser) {
	r.parsers = append(r.parsers, p)
}

// Select returns the first parser whose CanParse accepts the text, or the
// fallback when none does. Deterministic for a given registry and text.
func (r *Registry) Select(text string) parser.Parser {
	for _, p := range r.parsers {
		if p.CanParse(text) {
			log.Printf("INFO: selected %s parser", p.BankName())
			return p
		}
	}
	log.Printf("INFO: no bank signature matched, using %s parser", r.fallback.BankName())
	return r.fallback
}

// ListParsers returns the bank names in priority order, fallback last.
func (r *Registry) ListParsers() []string {
	names := make([]string, 0, len(r.parsers)+1)
	for _, p := range r.parsers {
		names = append(names, p.BankName())
	}
	return append(names, r.fallback.BankName())
}
