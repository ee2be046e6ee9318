// Package ingest runs the statement upload pipeline: extract text, detect
// the bank, parse, persist, notify.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/notify"
	"github.com/tomin-mx/tomin/internal/parser"
	"github.com/tomin-mx/tomin/internal/store"
)

// Spanish user-facing messages. Internal error detail is logged, never
// surfaced to the user.
const (
	msgComplete = "Tu estado de cuenta ha sido procesado exitosamente."
	msgError    = "No pudimos procesar tu estado de cuenta. Intenta de nuevo."
)

// Extractor turns uploaded file bytes into statement text.
type Extractor func(data []byte) (string, error)

// Selector picks a parser for statement text. Satisfied by registry.Registry.
type Selector interface {
	Select(text string) parser.Parser
}

// Notifier delivers fire-and-forget user notifications. Satisfied by
// notify.Hub.
type Notifier interface {
	NotifyUser(userID string, n notify.Notification)
}

// Repository is the persistence surface the pipeline needs.
type Repository interface {
	store.TransactionStore
	store.SavingsStore
	store.FileStore
}

// Pipeline processes one uploaded statement end to end. Each upload is an
// independent unit of work; callers run Execute in the background and return
// an accepted acknowledgment immediately.
type Pipeline struct {
	extract    Extractor
	registry   Selector
	categories parser.Categorizer
	repo       Repository
	notifier   Notifier
}

// NewPipeline wires the pipeline's collaborators.
func NewPipeline(extract Extractor, registry Selector, categories parser.Categorizer, repo Repository, notifier Notifier) *Pipeline {
	return &Pipeline{
		extract:    extract,
		registry:   registry,
		categories: categories,
		repo:       repo,
		notifier:   notifier,
	}
}

// Execute processes an upload and reports success. Every failure path is
// caught here: the user gets a generic localized error notification and the
// detail goes to the log.
func (p *Pipeline) Execute(ctx context.Context, userID string, fileBytes []byte) bool {
	text, err := p.extract(fileBytes)
	if err != nil {
		log.Printf("ERROR: text extraction failed for user %s: %v", userID, err)
		p.fail(userID)
		return false
	}

	// Hash the extracted text, not the raw bytes, so a re-scan of the same
	// document is recognized as a duplicate.
	hash := Fingerprint(text)

	duplicate, err := p.repo.FileExists(ctx, userID, hash)
	if err != nil {
		log.Printf("ERROR: duplicate check failed for user %s: %v", userID, err)
		p.fail(userID)
		return false
	}
	if duplicate {
		// Already processed; nothing to save, but the upload itself worked.
		log.Printf("INFO: duplicate statement %s for user %s, skipping persistence", hash, userID)
		p.complete(userID)
		return true
	}

	bankParser := p.registry.Select(text)
	stmt, err := bankParser.Parse(text, userID, p.categories)
	if err != nil {
		log.Printf("ERROR: %s parse failed for user %s: %v", bankParser.BankName(), userID, err)
		p.fail(userID)
		return false
	}

	for i := range stmt.Transactions {
		stmt.Transactions[i].FileID = hash
	}
	for i := range stmt.Savings {
		stmt.Savings[i].FileID = hash
	}

	if err := p.repo.SaveTransactions(ctx, stmt.Transactions); err != nil {
		log.Printf("ERROR: failed to save transactions for user %s: %v", userID, err)
		p.fail(userID)
		return false
	}
	if err := p.repo.SaveSavingsMovements(ctx, stmt.Savings); err != nil {
		log.Printf("ERROR: failed to save savings movements for user %s: %v", userID, err)
		p.fail(userID)
		return false
	}
	if err := p.repo.SaveFile(ctx, domain.ProcessedFile{
		Hash:      hash,
		UserID:    userID,
		BankName:  bankParser.BankName(),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		log.Printf("ERROR: failed to record processed file for user %s: %v", userID, err)
		p.fail(userID)
		return false
	}

	log.Printf("INFO: processed statement %s for user %s via %s (%d transactions, %d savings movements)",
		hash, userID, bankParser.BankName(), len(stmt.Transactions), len(stmt.Savings))
	p.complete(userID)
	return true
}

func (p *Pipeline) complete(userID string) {
	p.notifier.NotifyUser(userID, notify.Notification{
		Type:    notify.TypeUploadComplete,
		Status:  "success",
		Message: msgComplete,
	})
}

func (p *Pipeline) fail(userID string) {
	p.notifier.NotifyUser(userID, notify.Notification{
		Type:    notify.TypeUploadError,
		Status:  "error",
		Message: msgError,
	})
}

// Fingerprint returns the hex SHA-256 of the extracted statement text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
