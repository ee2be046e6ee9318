// Package sqlite implements the persistence contracts on an embedded SQLite
// database. It backs the CLI and tests; the server uses Firestore.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tomin-mx/tomin/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	amount        REAL NOT NULL,
	description   TEXT NOT NULL,
	date          TEXT NOT NULL,
	category_id   TEXT NOT NULL DEFAULT '',
	merchant_id   TEXT NOT NULL DEFAULT '',
	merchant_name TEXT NOT NULL DEFAULT '',
	recurring     INTEGER NOT NULL DEFAULT 0,
	file_id       TEXT NOT NULL DEFAULT '',
	recurrence    TEXT
);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);

CREATE TABLE IF NOT EXISTS savings_movements (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	amount      REAL NOT NULL,
	description TEXT NOT NULL,
	date        TEXT NOT NULL,
	direction   TEXT NOT NULL,
	goal_name   TEXT NOT NULL DEFAULT '',
	file_id     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_savings_user ON savings_movements(user_id);

CREATE TABLE IF NOT EXISTS processed_files (
	hash       TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	bank_name  TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	PRIMARY KEY (hash, user_id)
);

CREATE TABLE IF NOT EXISTS merchants (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	icon                TEXT NOT NULL DEFAULT '',
	default_category_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS merchant_labels (
	id          TEXT PRIMARY KEY,
	merchant_id TEXT NOT NULL,
	label       TEXT NOT NULL UNIQUE
);
`

// Store is a SQLite-backed implementation of store.Store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTransactions inserts transactions in one database transaction.
func (s *Store) SaveTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions
		(id, user_id, amount, description, date, category_id, merchant_id, merchant_name, recurring, file_id, recurrence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range txs {
		recurrence, err := marshalRecurrence(t.Recurrence)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, t.ID, t.UserID, t.Amount, t.Description,
			t.Date.UTC().Format(time.RFC3339), t.CategoryID, t.MerchantID, t.MerchantName,
			boolToInt(t.Recurring), t.FileID, recurrence); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// TransactionsByUser returns all of a user's transactions ordered by date.
func (s *Store) TransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, amount, description, date,
		category_id, merchant_id, merchant_name, recurring, file_id, recurrence
		FROM transactions WHERE user_id = ? ORDER BY date`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var date string
		var recurring int
		var recurrence sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Description, &date,
			&t.CategoryID, &t.MerchantID, &t.MerchantName, &recurring, &t.FileID, &recurrence); err != nil {
			return nil, err
		}
		t.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date for transaction %s: %w", t.ID, err)
		}
		t.Recurring = recurring != 0
		if recurrence.Valid && recurrence.String != "" {
			var analysis domain.RecurringAnalysis
			if err := json.Unmarshal([]byte(recurrence.String), &analysis); err != nil {
				return nil, fmt.Errorf("failed to decode recurrence for transaction %s: %w", t.ID, err)
			}
			t.Recurrence = &analysis
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// UpdateRecurring stamps the recurring flag and analysis on the given
// transactions. A nil analysis clears both.
func (s *Store) UpdateRecurring(ctx context.Context, ids []string, analysis *domain.RecurringAnalysis) error {
	if len(ids) == 0 {
		return nil
	}
	recurrence, err := marshalRecurrence(analysis)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE transactions SET recurring = ?, recurrence = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, boolToInt(analysis != nil), recurrence, id); err != nil {
			return fmt.Errorf("failed to update transaction %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// SetMerchant links transactions to an identified merchant.
func (s *Store) SetMerchant(ctx context.Context, ids []string, merchantID, merchantName string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE transactions SET merchant_id = ?, merchant_name = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, merchantID, merchantName, id); err != nil {
			return fmt.Errorf("failed to update transaction %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// SaveSavingsMovements inserts savings movements in one database transaction.
func (s *Store) SaveSavingsMovements(ctx context.Context, movements []domain.SavingsMovement) error {
	if len(movements) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO savings_movements
		(id, user_id, amount, description, date, direction, goal_name, file_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range movements {
		if _, err := stmt.ExecContext(ctx, m.ID, m.UserID, m.Amount, m.Description,
			m.Date.UTC().Format(time.RFC3339), string(m.Direction), m.GoalName, m.FileID); err != nil {
			return fmt.Errorf("failed to insert savings movement %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// SavingsMovementsByUser returns a user's savings movements ordered by date.
func (s *Store) SavingsMovementsByUser(ctx context.Context, userID string) ([]domain.SavingsMovement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, amount, description, date,
		direction, goal_name, file_id FROM savings_movements WHERE user_id = ? ORDER BY date`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []domain.SavingsMovement
	for rows.Next() {
		var m domain.SavingsMovement
		var date, direction string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Amount, &m.Description, &date,
			&direction, &m.GoalName, &m.FileID); err != nil {
			return nil, err
		}
		m.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date for movement %s: %w", m.ID, err)
		}
		m.Direction = domain.MovementDirection(direction)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// FileExists reports whether this content hash was already processed for the
// user.
func (s *Store) FileExists(ctx context.Context, userID, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_files WHERE hash = ? AND user_id = ?`, hash, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveFile records a processed statement upload.
func (s *Store) SaveFile(ctx context.Context, file domain.ProcessedFile) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO processed_files (hash, user_id, bank_name, created_at)
		VALUES (?, ?, ?, ?)`, file.Hash, file.UserID, file.BankName,
		file.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// SaveMerchant upserts a canonical merchant.
func (s *Store) SaveMerchant(ctx context.Context, m domain.Merchant) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO merchants (id, name, icon, default_category_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, icon = excluded.icon,
			default_category_id = excluded.default_category_id`,
		m.ID, m.Name, m.Icon, m.DefaultCategoryID)
	return err
}

// Merchants returns all canonical merchants.
func (s *Store) Merchants(ctx context.Context) ([]domain.Merchant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, icon, default_category_id FROM merchants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var merchants []domain.Merchant
	for rows.Next() {
		var m domain.Merchant
		if err := rows.Scan(&m.ID, &m.Name, &m.Icon, &m.DefaultCategoryID); err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}
	return merchants, rows.Err()
}

// SaveLabel inserts a merchant label. Labels are globally unique; inserting
// an existing label for a different merchant fails.
func (s *Store) SaveLabel(ctx context.Context, l domain.MerchantLabel) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO merchant_labels (id, merchant_id, label)
		VALUES (?, ?, ?)`, l.ID, l.MerchantID, l.Label)
	return err
}

// Labels returns all merchant labels.
func (s *Store) Labels(ctx context.Context) ([]domain.MerchantLabel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, merchant_id, label FROM merchant_labels`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []domain.MerchantLabel
	for rows.Next() {
		var l domain.MerchantLabel
		if err := rows.Scan(&l.ID, &l.MerchantID, &l.Label); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

func marshalRecurrence(analysis *domain.RecurringAnalysis) (sql.NullString, error) {
	if analysis == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(analysis)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode recurrence analysis: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
