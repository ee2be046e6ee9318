// Package server wires the API endpoints to the Firestore-backed stores.
package server

import (
	"context"
	"net/http"

	"github.com/tomin-mx/tomin/internal/categorize"
	"github.com/tomin-mx/tomin/internal/extract"
	"github.com/tomin-mx/tomin/internal/firestore"
	"github.com/tomin-mx/tomin/internal/handlers"
	"github.com/tomin-mx/tomin/internal/ingest"
	"github.com/tomin-mx/tomin/internal/merchants"
	"github.com/tomin-mx/tomin/internal/middleware"
	"github.com/tomin-mx/tomin/internal/notify"
	"github.com/tomin-mx/tomin/internal/recurrence"
	"github.com/tomin-mx/tomin/internal/registry"
)

// Server is the statement-processing API server.
type Server struct {
	fsClient *firestore.Client
	hub      *notify.Hub
	mux      *http.ServeMux
}

// New creates a server backed by Firestore. credsPath may be empty, in which
// case application default credentials apply.
func New(ctx context.Context, projectID, credsPath string) (*Server, error) {
	fsClient, err := firestore.NewClient(ctx, projectID, credsPath)
	if err != nil {
		return nil, err
	}

	matcher, err := categorize.LoadEmbedded()
	if err != nil {
		fsClient.Close()
		return nil, err
	}

	s := &Server{
		fsClient: fsClient,
		hub:      notify.NewHub(),
		mux:      http.NewServeMux(),
	}

	s.setupRoutes(matcher)
	return s, nil
}

func (s *Server) setupRoutes(matcher *categorize.Matcher) {
	// Health check (no auth required)
	s.mux.HandleFunc("/health", handlers.HealthCheck)

	authMiddleware := middleware.NewAuthMiddleware(s.fsClient.Auth)

	pipeline := ingest.NewPipeline(extract.Text, registry.NewDefault(), matcher, s.fsClient, s.hub)

	apiHandler := handlers.NewAPIHandler(s.fsClient, s.fsClient, recurrence.NewReporter(s.fsClient))
	uploadHandler := handlers.NewUploadHandler(pipeline)
	jobHandler := handlers.NewJobHandler(
		recurrence.NewDetector(s.fsClient),
		merchants.NewIdentifier(s.fsClient, s.fsClient),
	)
	streamHandler := handlers.NewStreamHandler(s.hub)

	// Protected API routes
	s.mux.Handle("/api/transactions", authMiddleware.RequireAuth(http.HandlerFunc(apiHandler.GetTransactions)))
	s.mux.Handle("/api/savings", authMiddleware.RequireAuth(http.HandlerFunc(apiHandler.GetSavingsMovements)))
	s.mux.Handle("/api/recurring-bills", authMiddleware.RequireAuth(http.HandlerFunc(apiHandler.GetRecurringBills)))
	s.mux.Handle("/api/statements/upload", authMiddleware.RequireAuth(http.HandlerFunc(uploadHandler.Upload)))
	s.mux.Handle("/api/recurrence/detect", authMiddleware.RequireAuth(http.HandlerFunc(jobHandler.DetectRecurring)))
	s.mux.Handle("/api/merchants/identify", authMiddleware.RequireAuth(http.HandlerFunc(jobHandler.IdentifyMerchants)))
	s.mux.Handle("/api/notifications/stream", authMiddleware.RequireAuth(http.HandlerFunc(streamHandler.Stream)))
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return middleware.CORS(s.mux)
}

// Close closes the server resources.
func (s *Server) Close() error {
	return s.fsClient.Close()
}
