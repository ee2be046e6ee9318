package registry

import (
	"testing"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/parser"
	"github.com/tomin-mx/tomin/internal/parsers/signature"
)

func TestSelect_PriorityOrder(t *testing.T) {
	r := NewDefault()

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"banamex credit", "ESTADO DE CUENTA Tarjetas Banamex", "Banamex"},
		{"bbva", "BBVA MEXICO ESTADO DE CUENTA", "BBVA"},
		{"santander", "SANTANDER ESTADO DE CUENTA", "Santander"},
		{"nu", "Nu México Financiera Detalle de movimientos en tu cuenta", "Nu"},
		{"ofx envelope", "OFXHEADER:100\nDATA:OFXSGML", "OFX"},
		{"unknown falls back", "texto sin banco reconocible", "Generic"},
		{"empty falls back", "", "Generic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Select(tt.text).BankName(); got != tt.expected {
				t.Errorf("Select(%q) = %q; want %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestSelect_OverlappingSignaturesDeterministic(t *testing.T) {
	r := NewDefault()
	text := "BBVA BANCOMER transferencia a cuenta BANAMEX"

	// BBVA is configured earlier than Banamex, so it must win every time.
	for i := 0; i < 50; i++ {
		if got := r.Select(text).BankName(); got != "BBVA" {
			t.Fatalf("Select() = %q on iteration %d; want BBVA (priority order)", got, i)
		}
	}
}

func TestSelect_FallbackYieldsEmptyStatement(t *testing.T) {
	r := NewDefault()
	p := r.Select("texto sin banco reconocible")

	stmt, err := p.Parse("texto sin banco reconocible", "user-1", noopCategorizer{})
	if err != nil {
		t.Fatalf("fallback Parse() error = %v", err)
	}
	if !stmt.Empty() {
		t.Error("fallback Parse() should yield an empty statement")
	}
}

func TestRegister_AppendsAfterPriorityOrder(t *testing.T) {
	r := New(signature.NewFallback(), signature.NewBBVA())
	r.Register(signature.New("Azteca", domain.AccountTypeDebit, "BANCO AZTECA"))

	if got := r.Select("BANCO AZTECA").BankName(); got != "Azteca" {
		t.Errorf("Select() = %q; want registered Azteca parser", got)
	}
	if got := r.Select("BBVA BANCO AZTECA").BankName(); got != "BBVA" {
		t.Errorf("Select() = %q; registered parsers must not preempt the configured order", got)
	}
}

func TestListParsers(t *testing.T) {
	got := NewDefault().ListParsers()
	want := []string{"BBVA", "Santander", "Nu", "Banamex", "OFX", "Generic"}

	if len(got) != len(want) {
		t.Fatalf("ListParsers() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListParsers()[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

type noopCategorizer struct{}

func (noopCategorizer) Match(description string) string { return "" }

var _ parser.Parser = (*signature.Parser)(nil)
