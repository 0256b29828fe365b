package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/meridian/oddsync/internal/cache"
	"github.com/meridian/oddsync/internal/store"
	syncpkg "github.com/meridian/oddsync/internal/sync"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(baseCtx context.Context, port string, db *store.Database, cache *cache.RedisCache, runner *syncpkg.Runner) *Server {
	handler := NewHandler(baseCtx, db, cache, runner)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Edges
	api.HandleFunc("/edges", handler.GetEdges).Methods("GET")
	api.HandleFunc("/games/{gameID}/edges", handler.GetGameEdges).Methods("GET")

	// Catalog
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/games", handler.GetGamesBySeason).Methods("GET")

	// Sync operations
	api.HandleFunc("/sync", handler.TriggerSync).Methods("POST")
	api.HandleFunc("/sync/status", handler.GetSyncStatus).Methods("GET")
	api.HandleFunc("/sync/unmatched", handler.GetUnmatchedNames).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
