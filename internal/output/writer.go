// Package output writes batch parse results as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
)

// Report is the JSON document produced by one batch parse run.
type Report struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Files       []FileResult `json:"files"`
}

// FileResult is the outcome of parsing one statement file.
type FileResult struct {
	Path         string           `json:"path"`
	Bank         string           `json:"bank"`
	Fingerprint  string           `json:"fingerprint"`
	Duplicate    bool             `json:"duplicate,omitempty"`
	Transactions []TransactionRow `json:"transactions"`
	Savings      []SavingsRow     `json:"savings"`
}

// TransactionRow is one exported transaction.
type TransactionRow struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CategoryID  string    `json:"categoryId,omitempty"`
}

// SavingsRow is one exported savings movement.
type SavingsRow struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Direction string    `json:"direction"`
	GoalName  string    `json:"goalName"`
}

// WriteOptions configures how the report is written.
type WriteOptions struct {
	MergeMode bool   // If true, load the existing file and append to it
	FilePath  string // Output path (empty = stdout)
}

// NewFileResult converts a parsed statement into its export form.
func NewFileResult(path, bank, fingerprint string, duplicate bool, stmt *domain.ParsedStatement) FileResult {
	result := FileResult{
		Path:         path,
		Bank:         bank,
		Fingerprint:  fingerprint,
		Duplicate:    duplicate,
		Transactions: []TransactionRow{},
		Savings:      []SavingsRow{},
	}
	if stmt == nil {
		return result
	}
	for _, tx := range stmt.Transactions {
		result.Transactions = append(result.Transactions, TransactionRow{
			ID:          tx.ID,
			Amount:      tx.Amount,
			Description: tx.Description,
			Date:        tx.Date,
			CategoryID:  tx.CategoryID,
		})
	}
	for _, mv := range stmt.Savings {
		result.Savings = append(result.Savings, SavingsRow{
			ID:        mv.ID,
			Amount:    mv.Amount,
			Date:      mv.Date,
			Direction: string(mv.Direction),
			GoalName:  mv.GoalName,
		})
	}
	return result
}

// WriteReport serializes the report as JSON with 2-space indentation.
func WriteReport(report *Report, w io.Writer) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report as JSON: %w", err)
	}
	return nil
}

// WriteReportToFile writes the report to a file or stdout based on options.
func WriteReportToFile(report *Report, opts WriteOptions) (err error) {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if opts.MergeMode && opts.FilePath != "" {
		existing, err := LoadReport(opts.FilePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to load existing report for merge: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Warning: merge mode requested but %s does not exist, creating new file\n", opts.FilePath)
		} else {
			existing.GeneratedAt = report.GeneratedAt
			existing.Files = append(existing.Files, report.Files...)
			report = existing
		}
	}

	if opts.FilePath == "" {
		return WriteReport(report, os.Stdout)
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = WriteReport(report, f); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", opts.FilePath, err)
	}
	return nil
}

// LoadReport reads an existing report for merge mode.
func LoadReport(filePath string) (*Report, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	f, err := os.Open(filePath)
	if err != nil {
		// Unwrapped so the caller can check os.IsNotExist.
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", filePath, closeErr)
		}
	}()

	var report Report
	if err := json.NewDecoder(f).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report JSON: %w", err)
	}
	return &report, nil
}
