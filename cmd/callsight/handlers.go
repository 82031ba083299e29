package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/brunobiangulo/callsight/store"
)

type handler struct {
	store *store.Store
}

func newHandler(s *store.Store) *handler {
	return &handler{store: s}
}

// GET /api/stats
func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.RunStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to aggregate stats")
		slog.Error("stats error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /api/calls?limit=N
func (h *handler) handleCalls(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 0 and 1000")
			return
		}
		limit = n
	}

	calls, err := h.store.ListCalls(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list calls")
		slog.Error("list calls error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"calls": calls,
	})
}

// GET /api/runs
func (h *handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		slog.Error("list runs error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
