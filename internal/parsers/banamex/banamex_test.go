package banamex

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
)

// stubCategorizer records nothing and matches everything to one ID.
type stubCategorizer struct{ id string }

func (s stubCategorizer) Match(description string) string { return s.id }

func TestCanParse(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"uppercase signature", "ESTADO DE CUENTA BANAMEX", true},
		{"mixed case signature", "Tarjetas Banamex al corte", true},
		{"url signature", "consulta www.banamex.com", true},
		{"other bank", "ESTADO DE CUENTA BBVA BANCOMER", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.CanParse(tt.text); got != tt.expected {
				t.Errorf("CanParse(%q) = %v; want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestParse_CreditStatement(t *testing.T) {
	text := strings.Join([]string{
		"BANAMEX ESTADO DE CUENTA",
		"02-ene-2024  04-ene-2024  NETFLIX.COM  +  $199.00",
		"15-ene-2024  16-ene-2024  PAGO RECIBIDO GRACIAS  -  $1,500.00",
		"texto sin formato que debe ignorarse",
	}, "\n")

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "entretenimiento"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if stmt.AccountType != domain.AccountTypeCredit {
		t.Errorf("AccountType = %q; want credit", stmt.AccountType)
	}
	if len(stmt.Transactions) != 2 {
		t.Fatalf("got %d transactions; want 2", len(stmt.Transactions))
	}

	first := stmt.Transactions[0]
	if first.Amount != 199.00 {
		t.Errorf("first amount = %v; want 199.00", first.Amount)
	}
	if first.Description != "NETFLIX.COM" {
		t.Errorf("first description = %q; want NETFLIX.COM", first.Description)
	}
	if want := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC); !first.Date.Equal(want) {
		t.Errorf("first date = %v; want %v", first.Date, want)
	}
	if first.MerchantName != "netflix com" {
		t.Errorf("first merchant = %q; want %q", first.MerchantName, "netflix com")
	}
	if first.CategoryID != "entretenimiento" {
		t.Errorf("first category = %q; want entretenimiento", first.CategoryID)
	}
	if first.UserID != "user-1" {
		t.Errorf("first user = %q; want user-1", first.UserID)
	}

	second := stmt.Transactions[1]
	if second.Amount != -1500.00 {
		t.Errorf("second amount = %v; want -1500.00 (sign marker negates)", second.Amount)
	}
}

func TestParse_CreditWithServiceHoursFooter(t *testing.T) {
	// HORARIO in the customer-service footer must not route the statement to
	// debit mode, which would discard every credit line.
	text := strings.Join([]string{
		"BANAMEX ESTADO DE CUENTA",
		"02-ene-2024  04-ene-2024  NETFLIX.COM  +  $199.00",
		"15-ene-2024  16-ene-2024  PAGO RECIBIDO GRACIAS  -  $1,500.00",
		"HORARIO DE ATENCION LUNES A VIERNES DE 9:00 A 18:00",
	}, "\n")

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "entretenimiento"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if stmt.AccountType != domain.AccountTypeCredit {
		t.Errorf("AccountType = %q; want credit", stmt.AccountType)
	}
	if len(stmt.Transactions) != 2 {
		t.Fatalf("got %d transactions; want 2", len(stmt.Transactions))
	}
}

func debitStatement(lines ...string) string {
	header := []string{
		"BANAMEX ESTADO DE CUENTA",
		"DEL 1 AL 31 DE ENERO DE 2024",
		"SALDO ANTERIOR 10,171.57",
	}
	return strings.Join(append(header, lines...), "\n")
}

func TestParse_DebitDepositReconciliation(t *testing.T) {
	text := debitStatement(
		"05 ENE TRANSFERENCIA SPEI",
		"BANCO EMISOR XYZ",
		"HORA 14:22 500.00 10,671.57",
	)

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "sin-categoria"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if stmt.AccountType != domain.AccountTypeDebit {
		t.Errorf("AccountType = %q; want debit", stmt.AccountType)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions; want 1", len(stmt.Transactions))
	}

	tx := stmt.Transactions[0]
	if tx.Amount != 500.00 {
		t.Errorf("amount = %v; want +500.00 (balance rose by the value)", tx.Amount)
	}
	if want := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC); !tx.Date.Equal(want) {
		t.Errorf("date = %v; want %v (year from period header)", tx.Date, want)
	}
	if !strings.Contains(tx.Description, "TRANSFERENCIA SPEI") {
		t.Errorf("description = %q; want SPEI fragment", tx.Description)
	}
	if !strings.Contains(tx.Description, "BANCO EMISOR XYZ") {
		t.Errorf("description = %q; want continuation line appended", tx.Description)
	}
}

func TestParse_DebitWithdrawalReconciliation(t *testing.T) {
	text := debitStatement(
		"07 ENE RETIRO CAJERO AUTOMATICO",
		"HORA 09:10 500.00 9,671.57",
	)

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "sin-categoria"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions; want 1", len(stmt.Transactions))
	}
	if got := stmt.Transactions[0].Amount; got != -500.00 {
		t.Errorf("amount = %v; want -500.00 (balance fell by the value)", got)
	}
}

func TestParse_DebitRunningBalanceAdvances(t *testing.T) {
	text := debitStatement(
		"05 ENE DEPOSITO EFECTIVO",
		"HORA 10:00 500.00 10,671.57",
		"09 ENE COMPRA SUPERMERCADO",
		"HORA 18:40 1,200.00 9,471.57",
	)

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "sin-categoria"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(stmt.Transactions) != 2 {
		t.Fatalf("got %d transactions; want 2", len(stmt.Transactions))
	}
	if got := stmt.Transactions[0].Amount; got != 500.00 {
		t.Errorf("first amount = %v; want +500.00", got)
	}
	// Second movement reconciles against the advanced balance, not the seed.
	if got := stmt.Transactions[1].Amount; got != -1200.00 {
		t.Errorf("second amount = %v; want -1200.00", got)
	}
}

func TestParse_DebitAmbiguousFallsBackToKeywords(t *testing.T) {
	// Neither prev+value nor prev-value explains the printed balance, so the
	// income keyword decides the sign and the printed balance is adopted.
	text := debitStatement(
		"12 ENE PAGO RECIBIDO NOMINA EMPRESA SA",
		"HORA 08:00 8,000.00 3,000.00",
		"14 ENE CARGO DESCONOCIDO",
		"HORA 12:00 400.00 2,600.00",
	)

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "sin-categoria"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(stmt.Transactions) != 2 {
		t.Fatalf("got %d transactions; want 2", len(stmt.Transactions))
	}
	if got := stmt.Transactions[0].Amount; got != 8000.00 {
		t.Errorf("ambiguous income amount = %v; want +8000.00", got)
	}
	// The adopted balance (3,000.00) makes the next line reconcile normally.
	if got := stmt.Transactions[1].Amount; got != -400.00 {
		t.Errorf("follow-up amount = %v; want -400.00", got)
	}
}

func TestParse_DebitContinuationMentionsHorario(t *testing.T) {
	// A continuation line containing HORARIO is description text, not the
	// block terminator; only the whole word HORA closes the block.
	text := debitStatement(
		"05 ENE PAGO SERVICIO GIMNASIO",
		"HORARIO PREMIUM 24 7",
		"HORA 14:22 350.00 9,821.57",
	)

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "sin-categoria"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions; want 1", len(stmt.Transactions))
	}
	tx := stmt.Transactions[0]
	if tx.Amount != -350.00 {
		t.Errorf("amount = %v; want -350.00 (balance fell by the value)", tx.Amount)
	}
	if !strings.Contains(tx.Description, "HORARIO PREMIUM") {
		t.Errorf("description = %q; continuation line must be appended, not treated as terminator", tx.Description)
	}
}

func TestParse_DebitSingleNumberRestatement(t *testing.T) {
	text := debitStatement(
		"05 ENE SALDO",
		"HORA 00:00 10,171.57",
	)

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "sin-categoria"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(stmt.Transactions) != 0 {
		t.Errorf("got %d transactions; want 0 (restatement of running balance)", len(stmt.Transactions))
	}
}

func TestParse_DebitSingleNumberDelta(t *testing.T) {
	text := debitStatement(
		"05 ENE AJUSTE",
		"HORA 00:00 10,471.57",
	)

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "sin-categoria"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions; want 1", len(stmt.Transactions))
	}
	if got := stmt.Transactions[0].Amount; math.Abs(got-300.00) > 0.001 {
		t.Errorf("amount = %v; want newBalance - previousBalance = 300.00", got)
	}
}

func TestParse_DebitDescriptionCleanup(t *testing.T) {
	text := debitStatement(
		"05 ENE COMPRA OXXO CENTRO SUC 0423 AUT 991823 REF 7718",
		"HORA 18:40 120.00 10,051.57",
	)

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "sin-categoria"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions; want 1", len(stmt.Transactions))
	}
	if got := stmt.Transactions[0].Description; got != "COMPRA OXXO CENTRO" {
		t.Errorf("description = %q; want administrative tail stripped", got)
	}
}

func TestParse_DebitEmptyDescriptionPlaceholder(t *testing.T) {
	text := debitStatement(
		"05 ENE SUC 0423 AUT 991823",
		"HORA 18:40 120.00 10,051.57",
	)

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "sin-categoria"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions; want 1", len(stmt.Transactions))
	}
	if got := stmt.Transactions[0].Description; got != placeholderDescription {
		t.Errorf("description = %q; want placeholder", got)
	}
}

func TestParse_DebitSkipsBoilerplate(t *testing.T) {
	text := debitStatement(
		"05 ENE COMPRA FARMACIA",
		"ESTADO DE CUENTA PAGINA 2 DE 5",
		"HORA 18:40 120.00 10,051.57",
	)

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "sin-categoria"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions; want 1", len(stmt.Transactions))
	}
	if got := stmt.Transactions[0].Description; got != "COMPRA FARMACIA" {
		t.Errorf("description = %q; boilerplate must not leak into it", got)
	}
}

func TestParse_DebitMalformedYieldsNothing(t *testing.T) {
	text := "BANAMEX\nSALDO ANTERIOR 10,171.57\nHORA sin bloque abierto 100.00 200.00\ntexto suelto"

	p := NewParser()
	stmt, err := p.Parse(text, "user-1", stubCategorizer{id: "sin-categoria"})
	if err != nil {
		t.Fatalf("Parse() error = %v; heuristic parser must not raise", err)
	}
	if !stmt.Empty() {
		t.Errorf("got %d transactions; want empty statement", len(stmt.Transactions))
	}
}
