package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/loreseek/loreseek/internal/models"
	"github.com/loreseek/loreseek/internal/sanitize"
)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	window := models.ParseTimeWindow(r.URL.Query().Get("t"))
	forum := r.URL.Query().Get("forum")
	s.logger.Debug("query request",
		zap.String("q", sanitize.LogPrefix(q)),
		zap.String("t", string(window)), zap.String("forum", forum))

	// Rejected queries still get a 200 with a structured body; the
	// response Status and Error fields carry the outcome.
	s.respondJSON(w, http.StatusOK, s.pipeline.Run(r.Context(), q, window, forum))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	token := r.URL.Query().Get("session")
	if token == "" {
		s.respondError(w, http.StatusBadRequest, "missing query parameter session")
		return
	}

	resp := s.pipeline.Summary(r.Context(), q, token)
	status := http.StatusOK
	if resp.Error != "" {
		status = http.StatusNotFound
	}
	s.respondJSON(w, status, resp)
}

func (s *Server) handleCheckCache(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	s.respondJSON(w, http.StatusOK, s.pipeline.CheckCache(r.Context(), q))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count posts failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	threshold, minMatches := s.cache.Gate()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"posts":             count,
		"vector_index_size": s.cache.Size(),
		"cache_gate": map[string]interface{}{
			"distance_threshold": threshold,
			"min_matches":        minMatches,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
