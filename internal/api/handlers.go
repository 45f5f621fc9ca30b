// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "yutenji-concierge/internal/common/errors"
	"yutenji-concierge/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.ReadyTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.Checks))
	for _, c := range s.deps.Checks {
		if err := c.Check(ctx); err != nil {
			checks[c.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}

	body := map[string]interface{}{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
		"checks": checks,
	}
	if status != http.StatusOK {
		body["status"] = "not_ready"
	}
	if s.deps.Status != nil {
		for k, v := range s.deps.Status() {
			body[k] = v
		}
	}
	writeJSON(w, status, body)
}

func (s *Server) handleRestaurants(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.deps.Catalog.FetchCatalog(r.Context())
	if err != nil {
		s.responder.Respond(w, r, apperrors.NewCatalogFetchFailedError(err))
		return
	}
	if catalog == nil {
		catalog = models.Catalog{}
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.responder.Respond(w, r, apperrors.NewInvalidRequestError("request body too large"))
			return
		}
		s.responder.Respond(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	// A started turn runs to completion even if the client goes away.
	out, err := s.deps.Turns.HandleRaw(context.WithoutCancel(r.Context()), raw)
	if err != nil {
		s.responder.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
