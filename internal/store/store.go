// Package store defines the persistence contracts shared by the Firestore
// and SQLite backends.
package store

import (
	"context"

	"github.com/tomin-mx/tomin/internal/domain"
)

// TransactionStore persists transactions and the mutations the recurrence
// detector and merchant identifier apply to them.
type TransactionStore interface {
	SaveTransactions(ctx context.Context, txs []domain.Transaction) error
	TransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error)

	// UpdateRecurring stamps the recurring flag and analysis metadata on the
	// given transactions. A nil analysis clears the flag.
	UpdateRecurring(ctx context.Context, ids []string, analysis *domain.RecurringAnalysis) error

	// SetMerchant links transactions to an identified merchant.
	SetMerchant(ctx context.Context, ids []string, merchantID, merchantName string) error
}

// SavingsStore persists savings-goal movements.
type SavingsStore interface {
	SaveSavingsMovements(ctx context.Context, movements []domain.SavingsMovement) error
	SavingsMovementsByUser(ctx context.Context, userID string) ([]domain.SavingsMovement, error)
}

// FileStore records processed statement uploads for duplicate detection.
type FileStore interface {
	// FileExists reports whether a statement with this content hash was
	// already processed for the user.
	FileExists(ctx context.Context, userID, hash string) (bool, error)
	SaveFile(ctx context.Context, file domain.ProcessedFile) error
}

// MerchantStore persists canonical merchants and their matching labels.
type MerchantStore interface {
	SaveMerchant(ctx context.Context, m domain.Merchant) error
	Merchants(ctx context.Context) ([]domain.Merchant, error)
	SaveLabel(ctx context.Context, l domain.MerchantLabel) error
	Labels(ctx context.Context) ([]domain.MerchantLabel, error)
}

// Store is the full persistence surface the application wires together.
type Store interface {
	TransactionStore
	SavingsStore
	FileStore
	MerchantStore
}
