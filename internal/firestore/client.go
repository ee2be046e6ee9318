// Package firestore implements the persistence contracts on Cloud Firestore
// and exposes the Firebase Auth client the HTTP middleware uses.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tomin-mx/tomin/internal/domain"
)

const (
	transactionsCollection = "tomin-transactions"
	savingsCollection      = "tomin-savings-movements"
	filesCollection        = "tomin-processed-files"
	merchantsCollection    = "tomin-merchants"
	labelsCollection       = "tomin-merchant-labels"
)

// Client wraps the Firestore client with statement-processing operations.
type Client struct {
	Firestore *firestore.Client
	Auth      *auth.Client
	projectID string
}

// NewClient creates a Firestore client using Application Default Credentials,
// or an explicit credentials file when credsPath is set.
func NewClient(ctx context.Context, projectID, credsPath string) (*Client, error) {
	conf := &firebase.Config{ProjectID: projectID}

	var opts []option.ClientOption
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		firestoreClient.Close()
		return nil, fmt.Errorf("failed to create Auth client: %w", err)
	}

	return &Client{
		Firestore: firestoreClient,
		Auth:      authClient,
		projectID: projectID,
	}, nil
}

// Close closes the Firestore client.
func (c *Client) Close() error {
	return c.Firestore.Close()
}

// transactionDoc is the Firestore shape of a domain.Transaction.
type transactionDoc struct {
	ID           string                    `firestore:"id"`
	UserID       string                    `firestore:"userId"`
	Amount       float64                   `firestore:"amount"`
	Description  string                    `firestore:"description"`
	Date         time.Time                 `firestore:"date"`
	CategoryID   string                    `firestore:"categoryId"`
	MerchantID   string                    `firestore:"merchantId"`
	MerchantName string                    `firestore:"merchantName"`
	Recurring    bool                      `firestore:"recurring"`
	FileID       string                    `firestore:"fileId"`
	Recurrence   *domain.RecurringAnalysis `firestore:"recurrence,omitempty"`
	CreatedAt    time.Time                 `firestore:"createdAt"`
}

func toTransactionDoc(t domain.Transaction) transactionDoc {
	return transactionDoc{
		ID:           t.ID,
		UserID:       t.UserID,
		Amount:       t.Amount,
		Description:  t.Description,
		Date:         t.Date,
		CategoryID:   t.CategoryID,
		MerchantID:   t.MerchantID,
		MerchantName: t.MerchantName,
		Recurring:    t.Recurring,
		FileID:       t.FileID,
		Recurrence:   t.Recurrence,
		CreatedAt:    time.Now().UTC(),
	}
}

func (d transactionDoc) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:           d.ID,
		UserID:       d.UserID,
		Amount:       d.Amount,
		Description:  d.Description,
		Date:         d.Date,
		CategoryID:   d.CategoryID,
		MerchantID:   d.MerchantID,
		MerchantName: d.MerchantName,
		Recurring:    d.Recurring,
		FileID:       d.FileID,
		Recurrence:   d.Recurrence,
	}
}

// savingsDoc is the Firestore shape of a domain.SavingsMovement.
type savingsDoc struct {
	ID          string    `firestore:"id"`
	UserID      string    `firestore:"userId"`
	Amount      float64   `firestore:"amount"`
	Description string    `firestore:"description"`
	Date        time.Time `firestore:"date"`
	Direction   string    `firestore:"direction"`
	GoalName    string    `firestore:"goalName"`
	FileID      string    `firestore:"fileId"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

// fileDoc is the Firestore shape of a domain.ProcessedFile, keyed by hash.
type fileDoc struct {
	Hash      string    `firestore:"hash"`
	UserID    string    `firestore:"userId"`
	BankName  string    `firestore:"bankName"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// merchantDoc is the Firestore shape of a domain.Merchant.
type merchantDoc struct {
	ID                string `firestore:"id"`
	Name              string `firestore:"name"`
	Icon              string `firestore:"icon"`
	DefaultCategoryID string `firestore:"defaultCategoryId"`
}

// labelDoc is the Firestore shape of a domain.MerchantLabel.
type labelDoc struct {
	ID         string `firestore:"id"`
	MerchantID string `firestore:"merchantId"`
	Label      string `firestore:"label"`
}

// bulkJob is the BulkWriterJob behavior the flush check needs. Set and
// Update errors on a BulkWriter surface only through each job's Results,
// never through End.
type bulkJob interface {
	Results() (*firestore.WriteResult, error)
}

// awaitBulkJobs checks every enqueued write after the writer has been
// flushed and surfaces the first failure.
func awaitBulkJobs(jobs []bulkJob, describe func(i int) string) error {
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("failed to write %s: %w", describe(i), err)
		}
	}
	return nil
}

// SaveTransactions writes transactions in Firestore write batches.
func (c *Client) SaveTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	bw := c.Firestore.BulkWriter(ctx)
	jobs := make([]bulkJob, 0, len(txs))
	for _, t := range txs {
		doc := c.Firestore.Collection(transactionsCollection).Doc(t.ID)
		job, err := bw.Set(doc, toTransactionDoc(t))
		if err != nil {
			return fmt.Errorf("failed to enqueue transaction %s: %w", t.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()
	return awaitBulkJobs(jobs, func(i int) string { return "transaction " + txs[i].ID })
}

// TransactionsByUser retrieves all transactions for a user ordered by date.
func (c *Client) TransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	iter := c.Firestore.Collection(transactionsCollection).
		Where("userId", "==", userID).
		OrderBy("date", firestore.Asc).
		Documents(ctx)

	var txs []domain.Transaction
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate transactions for user %s: %w", userID, err)
		}

		var d transactionDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse transaction: %w", err)
		}
		txs = append(txs, d.toDomain())
	}
	return txs, nil
}

// UpdateRecurring stamps the recurring flag and analysis on the given
// transactions.
func (c *Client) UpdateRecurring(ctx context.Context, ids []string, analysis *domain.RecurringAnalysis) error {
	if len(ids) == 0 {
		return nil
	}
	bw := c.Firestore.BulkWriter(ctx)
	jobs := make([]bulkJob, 0, len(ids))
	for _, id := range ids {
		doc := c.Firestore.Collection(transactionsCollection).Doc(id)
		updates := []firestore.Update{
			{Path: "recurring", Value: analysis != nil},
			{Path: "recurrence", Value: analysis},
		}
		job, err := bw.Update(doc, updates)
		if err != nil {
			return fmt.Errorf("failed to enqueue recurring update for %s: %w", id, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()
	return awaitBulkJobs(jobs, func(i int) string { return "recurring update for " + ids[i] })
}

// SetMerchant links transactions to an identified merchant.
func (c *Client) SetMerchant(ctx context.Context, ids []string, merchantID, merchantName string) error {
	if len(ids) == 0 {
		return nil
	}
	bw := c.Firestore.BulkWriter(ctx)
	jobs := make([]bulkJob, 0, len(ids))
	for _, id := range ids {
		doc := c.Firestore.Collection(transactionsCollection).Doc(id)
		updates := []firestore.Update{
			{Path: "merchantId", Value: merchantID},
			{Path: "merchantName", Value: merchantName},
		}
		job, err := bw.Update(doc, updates)
		if err != nil {
			return fmt.Errorf("failed to enqueue merchant update for %s: %w", id, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()
	return awaitBulkJobs(jobs, func(i int) string { return "merchant update for " + ids[i] })
}

// SaveSavingsMovements writes savings movements in one bulk write.
func (c *Client) SaveSavingsMovements(ctx context.Context, movements []domain.SavingsMovement) error {
	if len(movements) == 0 {
		return nil
	}
	bw := c.Firestore.BulkWriter(ctx)
	jobs := make([]bulkJob, 0, len(movements))
	for _, m := range movements {
		doc := c.Firestore.Collection(savingsCollection).Doc(m.ID)
		job, err := bw.Set(doc, savingsDoc{
			ID:          m.ID,
			UserID:      m.UserID,
			Amount:      m.Amount,
			Description: m.Description,
			Date:        m.Date,
			Direction:   string(m.Direction),
			GoalName:    m.GoalName,
			FileID:      m.FileID,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to enqueue savings movement %s: %w", m.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()
	return awaitBulkJobs(jobs, func(i int) string { return "savings movement " + movements[i].ID })
}

// SavingsMovementsByUser retrieves all savings movements for a user.
func (c *Client) SavingsMovementsByUser(ctx context.Context, userID string) ([]domain.SavingsMovement, error) {
	iter := c.Firestore.Collection(savingsCollection).
		Where("userId", "==", userID).
		OrderBy("date", firestore.Asc).
		Documents(ctx)

	var movements []domain.SavingsMovement
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate savings movements for user %s: %w", userID, err)
		}

		var d savingsDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse savings movement: %w", err)
		}
		movements = append(movements, domain.SavingsMovement{
			ID:          d.ID,
			UserID:      d.UserID,
			Amount:      d.Amount,
			Description: d.Description,
			Date:        d.Date,
			Direction:   domain.MovementDirection(d.Direction),
			GoalName:    d.GoalName,
			FileID:      d.FileID,
		})
	}
	return movements, nil
}

// fileDocID scopes the processed-file record to the user so the same
// statement uploaded by two users is not a cross-user duplicate.
func fileDocID(userID, hash string) string {
	return userID + ":" + hash
}

// FileExists reports whether this content hash was already processed for the
// user.
func (c *Client) FileExists(ctx context.Context, userID, hash string) (bool, error) {
	doc := c.Firestore.Collection(filesCollection).Doc(fileDocID(userID, hash))
	snap, err := doc.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check processed file: %w", err)
	}
	return snap.Exists(), nil
}

// SaveFile records a processed statement upload.
func (c *Client) SaveFile(ctx context.Context, file domain.ProcessedFile) error {
	doc := c.Firestore.Collection(filesCollection).Doc(fileDocID(file.UserID, file.Hash))
	_, err := doc.Set(ctx, fileDoc{
		Hash:      file.Hash,
		UserID:    file.UserID,
		BankName:  file.BankName,
		CreatedAt: file.CreatedAt,
	})
	return err
}

// SaveMerchant upserts a canonical merchant.
func (c *Client) SaveMerchant(ctx context.Context, m domain.Merchant) error {
	_, err := c.Firestore.Collection(merchantsCollection).Doc(m.ID).Set(ctx, merchantDoc{
		ID:                m.ID,
		Name:              m.Name,
		Icon:              m.Icon,
		DefaultCategoryID: m.DefaultCategoryID,
	})
	return err
}

// Merchants retrieves all canonical merchants.
func (c *Client) Merchants(ctx context.Context) ([]domain.Merchant, error) {
	iter := c.Firestore.Collection(merchantsCollection).Documents(ctx)

	var merchants []domain.Merchant
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate merchants: %w", err)
		}

		var d merchantDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse merchant: %w", err)
		}
		merchants = append(merchants, domain.Merchant{
			ID:                d.ID,
			Name:              d.Name,
			Icon:              d.Icon,
			DefaultCategoryID: d.DefaultCategoryID,
		})
	}
	return merchants, nil
}

// SaveLabel writes a merchant label, keyed by the label text itself so each
// label maps to exactly one merchant.
func (c *Client) SaveLabel(ctx context.Context, l domain.MerchantLabel) error {
	doc := c.Firestore.Collection(labelsCollection).Doc(l.Label)
	_, err := doc.Create(ctx, labelDoc{
		ID:         l.ID,
		MerchantID: l.MerchantID,
		Label:      l.Label,
	})
	return err
}

// Labels retrieves all merchant labels.
func (c *Client) Labels(ctx context.Context) ([]domain.MerchantLabel, error) {
	iter := c.Firestore.Collection(labelsCollection).Documents(ctx)

	var labels []domain.MerchantLabel
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate merchant labels: %w", err)
		}

		var d labelDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse merchant label: %w", err)
		}
		labels = append(labels, domain.MerchantLabel{
			ID:         d.ID,
			MerchantID: d.MerchantID,
			Label:      d.Label,
		})
	}
	return labels, nil
}
