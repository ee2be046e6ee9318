// Package domain defines the core entities shared by parsing, ingestion,
// recurrence detection and merchant identification.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AccountType tags a parsed statement with the kind of account it came from.
type AccountType string

const (
	AccountTypeCredit AccountType = "credit"
	AccountTypeDebit  AccountType = "debit"
)

// MovementDirection is the direction of a savings movement.
type MovementDirection string

const (
	MovementDeposit    MovementDirection = "deposit"
	MovementWithdrawal MovementDirection = "withdrawal"
)

// Frequency is the recurrence cadence bucket inferred from date gaps.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiWeekly  Frequency = "bi-weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyUnknown   Frequency = "unknown"
)

// FrequencyDays maps each named cadence bucket to its inclusive day range.
// An interval outside every range is FrequencyUnknown.
var FrequencyDays = map[Frequency][2]int{
	FrequencyWeekly:    {6, 10},
	FrequencyBiWeekly:  {13, 18},
	FrequencyMonthly:   {26, 35},
	FrequencyQuarterly: {80, 100},
	FrequencyYearly:    {350, 385},
}

// BillStatus is the lifecycle status of a computed recurring bill.
type BillStatus string

const (
	BillStatusActive         BillStatus = "active"
	BillStatusPotentialChurn BillStatus = "potential_churn"
	BillStatusCancelled      BillStatus = "cancelled"
)

// Transaction is a single financial event extracted from a statement.
//
// Amount is signed; the sign convention is fixed per bank parser (credit
// statements mark charges positive and payments negative, debit statements
// mark deposits positive and withdrawals negative).
//
// Transactions are created by parsers or seeds and mutated only by the
// recurrence detector (Recurring + Recurrence) and the merchant identifier
// (MerchantID + MerchantName).
type Transaction struct {
	ID           string
	UserID       string
	Amount       float64
	Description  string
	Date         time.Time
	CategoryID   string
	MerchantID   string
	MerchantName string
	Recurring    bool
	FileID       string
	Recurrence   *RecurringAnalysis
}

// NewTransaction creates a transaction with a fresh ID.
func NewTransaction(userID string, amount float64, description string, date time.Time) Transaction {
	return Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      amount,
		Description: description,
		Date:        date,
	}
}

// RecurringAnalysis is the structured result the recurrence detector attaches
// to every transaction of a confirmed recurring group.
type RecurringAnalysis struct {
	Merchant     string    `json:"merchant"`
	Frequency    Frequency `json:"frequency"`
	AvgAmount    float64   `json:"avg_amount"`
	Confidence   float64   `json:"confidence"`
	Occurrences  int       `json:"occurrences"`
	LastSeen     time.Time `json:"last_seen"`
	NextExpected time.Time `json:"next_expected"`
}

// SavingsMovement is a deposit into or withdrawal from a named savings goal
// ("Cajita"). Amount keeps the statement sign; Direction is authoritative.
type SavingsMovement struct {
	ID          string
	UserID      string
	Amount      float64
	Description string
	Date        time.Time
	Direction   MovementDirection
	GoalName    string
	FileID      string
}

// NewSavingsMovement creates a savings movement with a fresh ID.
func NewSavingsMovement(userID string, amount float64, description string, date time.Time, dir MovementDirection, goal string) SavingsMovement {
	return SavingsMovement{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      amount,
		Description: description,
		Date:        date,
		Direction:   dir,
		GoalName:    goal,
	}
}

// ParsedStatement is the transient result of one parser invocation. It is
// consumed by the ingestion pipeline and never persisted as its own entity.
type ParsedStatement struct {
	Transactions []Transaction
	Savings      []SavingsMovement
	AccountType  AccountType
}

// Empty reports whether the parse produced nothing. An empty statement is the
// fallback parser's "could not extract" signal, not an error.
func (s *ParsedStatement) Empty() bool {
	return len(s.Transactions) == 0 && len(s.Savings) == 0
}

// Merchant is a canonical, verified merchant identity.
type Merchant struct {
	ID                string
	Name              string
	Icon              string
	DefaultCategoryID string
}

// MerchantLabel is a normalized text pattern that implies one merchant.
// Labels are global, not per-user; each label maps to exactly one merchant.
type MerchantLabel struct {
	ID         string
	MerchantID string
	Label      string
}

// Category is a spending category with its substring matching labels.
type Category struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Color  string   `yaml:"color"`
	Icon   string   `yaml:"icon"`
	Labels []string `yaml:"labels"`
}

// ProcessedFile records a statement upload, keyed by the SHA-256 of the
// extracted text so a re-scan of the same document is recognized as a
// duplicate even when the raw bytes differ.
type ProcessedFile struct {
	Hash      string
	UserID    string
	BankName  string
	CreatedAt time.Time
}

// RecurringBill aggregates one merchant's recurring transactions within a
// reporting period. Recomputed on every query, never stored.
type RecurringBill struct {
	MerchantName string
	AvgAmount    float64
	LastAmount   float64
	TotalAmount  float64
	Frequency    Frequency
	Occurrences  int
	NextExpected time.Time
	Transactions []Transaction
	Status       BillStatus
}

// ValidateAccountType checks if the account type is a known value.
func ValidateAccountType(t AccountType) bool {
	return t == AccountTypeCredit || t == AccountTypeDebit
}

// ValidateFrequency checks if the frequency is a known named bucket.
func ValidateFrequency(f Frequency) bool {
	_, ok := FrequencyDays[f]
	return ok
}

// ClassifyInterval maps a day gap between consecutive transactions to its
// cadence bucket, or FrequencyUnknown when it falls outside every range.
func ClassifyInterval(days int) Frequency {
	for freq, bounds := range FrequencyDays {
		if days >= bounds[0] && days <= bounds[1] {
			return freq
		}
	}
	return FrequencyUnknown
}

// Validate checks a transaction's required fields.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	if t.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}
	if t.Description == "" {
		return fmt.Errorf("description cannot be empty")
	}
	return nil
}

// Validate checks a savings movement's required fields.
func (m *SavingsMovement) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("movement ID is required")
	}
	if m.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if m.Direction != MovementDeposit && m.Direction != MovementWithdrawal {
		return fmt.Errorf("invalid movement direction %q", m.Direction)
	}
	return nil
}
