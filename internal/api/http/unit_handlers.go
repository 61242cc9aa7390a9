package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/exampulse/exampulse/internal/assessment"
	auth "github.com/exampulse/exampulse/internal/auth/middleware"
)

// POST /units — teacher creates a draft test paper.
func CreateUnitHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var in assessment.UnitInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		unit, err := svc.CreateUnit(r.Context(), id.ID, in)
		if err != nil {
			writeError(w, err)
			return
		}
		unit.QuestionSet = nil // answer keys never leave the server
		writeJSON(w, http.StatusCreated, unit)
	}
}

// POST /units/{unitID}/assign — assign an owned unit to classes.
func AssignUnitHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			ClassIDs []string `json:"class_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		unit, err := svc.AssignUnit(r.Context(), id.ID, chi.URLParam(r, "unitID"), req.ClassIDs)
		if err != nil {
			writeError(w, err)
			return
		}
		unit.QuestionSet = nil
		writeJSON(w, http.StatusOK, unit)
	}
}

// GET /units — list the caller's own units.
func ListUnitsHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		units, err := svc.ListUnits(r.Context(), id.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, units)
	}
}

// POST /questions/preview — synthesize a set without freezing it anywhere.
// Teacher-only; the payload includes answer keys by design.
func PreviewQuestionsHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Subject    string `json:"subject"`
			Count      int    `json:"count"`
			Difficulty string `json:"difficulty"`
			Topic      string `json:"topic"`
			RequireAI  bool   `json:"require_ai"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		qs, source, err := svc.SynthesizePreview(r.Context(), assessment.SynthesisRequest{
			Subject:    req.Subject,
			Count:      req.Count,
			Difficulty: req.Difficulty,
			Topic:      req.Topic,
			RequireAI:  req.RequireAI,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"questions": qs,
			"source":    source,
		})
	}
}
