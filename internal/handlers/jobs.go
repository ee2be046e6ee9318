package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/tomin-mx/tomin/internal/middleware"
)

// Job is a per-user batch task returning how many records it touched.
type Job interface {
	Execute(ctx context.Context, userID string) (int, error)
}

// JobHandler exposes the recurrence detector and merchant identifier as
// on-demand triggers.
type JobHandler struct {
	detector   Job
	identifier Job
}

// NewJobHandler creates a new job handler.
func NewJobHandler(detector, identifier Job) *JobHandler {
	return &JobHandler{detector: detector, identifier: identifier}
}

// DetectRecurring handles POST /api/recurrence/detect
func (h *JobHandler) DetectRecurring(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.detector, "flagged")
}

// IdentifyMerchants handles POST /api/merchants/identify
func (h *JobHandler) IdentifyMerchants(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.identifier, "matched")
}

func (h *JobHandler) run(w http.ResponseWriter, r *http.Request, job Job, field string) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := job.Execute(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR: Job failed for user %s: %v", userID, err)
		http.Error(w, "Job failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"%s":%d}`, field, count)
}
