package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/meridian/oddsync/internal/cache"
	"github.com/meridian/oddsync/internal/store"
	"github.com/meridian/oddsync/internal/store/repository"
	syncpkg "github.com/meridian/oddsync/internal/sync"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db       *store.Database
	cache    *cache.RedisCache
	runner   *syncpkg.Runner
	baseCtx  context.Context
	teamRepo *repository.TeamRepository
	gameRepo *repository.GameRepository
	edgeRepo *repository.EdgeRepository
	markRepo *repository.SyncMarkRepository
}

// NewHandler creates a new handler. baseCtx bounds background work started
// from requests, so triggered syncs stop on process shutdown rather than on
// client disconnect.
func NewHandler(baseCtx context.Context, db *store.Database, cache *cache.RedisCache, runner *syncpkg.Runner) *Handler {
	return &Handler{
		db:       db,
		cache:    cache,
		runner:   runner,
		baseCtx:  baseCtx,
		teamRepo: repository.NewTeamRepository(db),
		gameRepo: repository.NewGameRepository(db),
		edgeRepo: repository.NewEdgeRepository(db),
		markRepo: repository.NewSyncMarkRepository(db),
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	dbStatus, cacheStatus := "healthy", "healthy"

	if err := h.db.HealthCheck(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
		status = http.StatusServiceUnavailable
	}
	if h.cache != nil {
		if err := h.cache.HealthCheck(r.Context()); err != nil {
			cacheStatus = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}

	respondJSON(w, status, map[string]string{
		"status":   overall,
		"service":  "oddsync",
		"version":  "1.0.0",
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}

// GetEdges returns current qualified edges ranked by magnitude
func (h *Handler) GetEdges(w http.ResponseWriter, r *http.Request) {
	edges, err := h.edgeRepo.ListQualified(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch edges", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"edges": edges,
		"count": len(edges),
	})
}

// GetGameEdges returns all edge records for one game, qualified or not
func (h *Handler) GetGameEdges(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID, err := strconv.Atoi(vars["gameID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid game ID", err)
		return
	}

	game, err := h.gameRepo.GetByID(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch game", err)
		return
	}
	if game == nil {
		respondError(w, http.StatusNotFound, "Game not found", nil)
		return
	}

	edges, err := h.edgeRepo.ListForGame(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch edges", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game":  game,
		"edges": edges,
	})
}

// GetTeams returns the team catalog
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamRepo.GetAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch teams", err)
		return
	}

	respondJSON(w, http.StatusOK, teams)
}

// GetGamesBySeason returns games for a season, optionally filtered by week
func (h *Handler) GetGamesBySeason(w http.ResponseWriter, r *http.Request) {
	season, err := strconv.Atoi(r.URL.Query().Get("season"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing or invalid season", err)
		return
	}

	games, err := h.gameRepo.ListBySeason(r.Context(), season)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch games", err)
		return
	}

	if weekStr := r.URL.Query().Get("week"); weekStr != "" {
		week, err := strconv.Atoi(weekStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid week", err)
			return
		}
		filtered := games[:0]
		for _, g := range games {
			if g.Week == week {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

// GetSyncStatus returns runner state and marked partitions
func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	marked, err := h.markRepo.ListMarked(r.Context(), syncpkg.SyncTypeHistoricalOdds)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch sync marks", err)
		return
	}

	budget := 0
	if h.cache != nil {
		if b, err := h.cache.BudgetRemaining(r.Context(), syncpkg.ProviderOddsAPI); err == nil {
			budget = b
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runner":            h.runner.Status(),
		"marked_partitions": marked,
		"budget_remaining":  budget,
	})
}

// TriggerSync starts a background sync over a date range
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
		return
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
		return
	}
	if end.Before(start) {
		respondError(w, http.StatusBadRequest, "End date before start date", nil)
		return
	}

	// The run outlives the request; it is cancelled by process shutdown,
	// not by the client disconnecting.
	if !h.runner.Trigger(h.baseCtx, start, end) {
		respondError(w, http.StatusConflict, "Sync already running", nil)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"message": "Sync started",
		"start":   req.Start,
		"end":     req.End,
	})
}

// GetUnmatchedNames returns the deduplicated unmatched-name ledger
func (h *Handler) GetUnmatchedNames(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"names": map[string]int64{}})
		return
	}

	names, err := h.cache.UnmatchedNames(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch unmatched names", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"names": names,
		"count": len(names),
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
