package parser

import "testing"

func TestMonthNumber(t *testing.T) {
	tests := []struct {
		abbr     string
		expected int
	}{
		{"ene", 1},
		{"ENE", 1},
		{"Dic", 12},
		{"ago", 8},
		{"xyz", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := MonthNumber(tt.abbr); got != tt.expected {
			t.Errorf("MonthNumber(%q) = %d; want %d", tt.abbr, got, tt.expected)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"1,234.56", 1234.56, false},
		{"10,671.57", 10671.57, false},
		{"500.00", 500.00, false},
		{" 99.99 ", 99.99, false},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAmount(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseAmount(%q) = %v; want %v", tt.input, got, tt.expected)
		}
	}
}

func TestExtractAmounts(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []float64
	}{
		{
			name:     "two amounts in order",
			line:     "RETIRO CAJERO HORA 14:22 500.00 10,171.57",
			expected: []float64{500.00, 10171.57},
		},
		{
			name:     "single amount",
			line:     "SALDO HORA 09:10 10,171.57",
			expected: []float64{10171.57},
		},
		{
			name:     "no amounts",
			line:     "ESTADO DE CUENTA",
			expected: []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAmounts(tt.line)
			if len(got) != len(tt.expected) {
				t.Fatalf("ExtractAmounts(%q) = %v; want %v", tt.line, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("ExtractAmounts(%q)[%d] = %v; want %v", tt.line, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestContainsAnyFold(t *testing.T) {
	if !ContainsAnyFold("estado de cuenta banamex", []string{"BANAMEX"}) {
		t.Error("ContainsAnyFold should match case-insensitively")
	}
	if ContainsAnyFold("estado de cuenta", []string{"BANAMEX", "BBVA"}) {
		t.Error("ContainsAnyFold should not match absent signatures")
	}
}
