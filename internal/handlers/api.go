// Package handlers implements the HTTP endpoints of the API server.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/middleware"
	"github.com/tomin-mx/tomin/internal/recurrence"
	"github.com/tomin-mx/tomin/internal/store"
)

// BillReporter computes recurring-bill summaries for a user.
type BillReporter interface {
	Bills(ctx context.Context, userID string, q recurrence.BillQuery) ([]domain.RecurringBill, error)
}

// APIHandler serves the read-only query endpoints.
type APIHandler struct {
	transactions store.TransactionStore
	savings      store.SavingsStore
	bills        BillReporter
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(transactions store.TransactionStore, savings store.SavingsStore, bills BillReporter) *APIHandler {
	return &APIHandler{transactions: transactions, savings: savings, bills: bills}
}

type transactionJSON struct {
	ID           string                    `json:"id"`
	Amount       float64                   `json:"amount"`
	Description  string                    `json:"description"`
	Date         time.Time                 `json:"date"`
	CategoryID   string                    `json:"categoryId,omitempty"`
	MerchantID   string                    `json:"merchantId,omitempty"`
	MerchantName string                    `json:"merchantName,omitempty"`
	Recurring    bool                      `json:"recurring"`
	Recurrence   *domain.RecurringAnalysis `json:"recurrenceAnalysis,omitempty"`
}

type savingsJSON struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Direction   string    `json:"direction"`
	GoalName    string    `json:"goalName"`
}

type billJSON struct {
	MerchantName string    `json:"merchantName"`
	AvgAmount    float64   `json:"avgAmount"`
	LastAmount   float64   `json:"lastAmount"`
	TotalAmount  float64   `json:"totalAmount"`
	Frequency    string    `json:"frequency"`
	Occurrences  int       `json:"occurrences"`
	NextExpected time.Time `json:"nextExpected"`
	Status       string    `json:"status"`
}

// GetTransactions handles GET /api/transactions
func (h *APIHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	transactions, err := h.transactions.TransactionsByUser(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR: Failed to fetch transactions for user %s: %v", userID, err)
		http.Error(w, "Failed to fetch transactions", http.StatusInternalServerError)
		return
	}

	out := make([]transactionJSON, 0, len(transactions))
	for _, tx := range transactions {
		out = append(out, transactionJSON{
			ID:           tx.ID,
			Amount:       tx.Amount,
			Description:  tx.Description,
			Date:         tx.Date,
			CategoryID:   tx.CategoryID,
			MerchantID:   tx.MerchantID,
			MerchantName: tx.MerchantName,
			Recurring:    tx.Recurring,
			Recurrence:   tx.Recurrence,
		})
	}
	writeJSON(w, userID, out)
}

// GetSavingsMovements handles GET /api/savings
func (h *APIHandler) GetSavingsMovements(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	movements, err := h.savings.SavingsMovementsByUser(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR: Failed to fetch savings movements for user %s: %v", userID, err)
		http.Error(w, "Failed to fetch savings movements", http.StatusInternalServerError)
		return
	}

	out := make([]savingsJSON, 0, len(movements))
	for _, m := range movements {
		out = append(out, savingsJSON{
			ID:          m.ID,
			Amount:      m.Amount,
			Description: m.Description,
			Date:        m.Date,
			Direction:   string(m.Direction),
			GoalName:    m.GoalName,
		})
	}
	writeJSON(w, userID, out)
}

// GetRecurringBills handles GET /api/recurring-bills
func (h *APIHandler) GetRecurringBills(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	q := recurrence.BillQuery{Period: r.URL.Query().Get("period")}
	if v := r.URL.Query().Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			http.Error(w, "Invalid month", http.StatusBadRequest)
			return
		}
		q.Month = month
	}
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		q.Year = year
	}

	bills, err := h.bills.Bills(r.Context(), userID, q)
	if err != nil {
		log.Printf("ERROR: Failed to compute recurring bills for user %s: %v", userID, err)
		http.Error(w, "Failed to fetch recurring bills", http.StatusInternalServerError)
		return
	}

	out := make([]billJSON, 0, len(bills))
	for _, b := range bills {
		out = append(out, billJSON{
			MerchantName: b.MerchantName,
			AvgAmount:    b.AvgAmount,
			LastAmount:   b.LastAmount,
			TotalAmount:  b.TotalAmount,
			Frequency:    string(b.Frequency),
			Occurrences:  b.Occurrences,
			NextExpected: b.NextExpected,
			Status:       string(b.Status),
		})
	}
	writeJSON(w, userID, out)
}

func writeJSON(w http.ResponseWriter, userID string, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: Failed to encode response for user %s: %v", userID, err)
	}
}
