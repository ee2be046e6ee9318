package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/tomin-mx/tomin/internal/middleware"
)

// maxUploadBytes bounds a single statement upload. Real statements are
// well under a megabyte of PDF.
const maxUploadBytes = 10 << 20

// UploadPipeline runs the statement ingestion flow for one file.
type UploadPipeline interface {
	Execute(ctx context.Context, userID string, fileBytes []byte) bool
}

// UploadHandler accepts statement files and hands them to the pipeline.
type UploadHandler struct {
	pipeline UploadPipeline
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(pipeline UploadPipeline) *UploadHandler {
	return &UploadHandler{pipeline: pipeline}
}

// Upload handles POST /api/statements/upload. The file is read up front and
// processed in the background; the outcome arrives on the notification
// stream, so the response is always 202.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	authInfo, ok := middleware.GetAuth(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		log.Printf("ERROR: Failed to read upload %s for user %s: %v", header.Filename, authInfo.UserID, err)
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	log.Printf("INFO: Accepted statement upload %s (%d bytes) for user %s", header.Filename, len(data), authInfo.UserID)

	go func() {
		// The request context dies with the response; processing outlives it.
		h.pipeline.Execute(context.Background(), authInfo.UserID, data)
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprint(w, `{"status":"processing"}`)
}
