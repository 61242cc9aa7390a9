package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/exampulse/exampulse/internal/assessment"
	auth "github.com/exampulse/exampulse/internal/auth/middleware"
)

func caller(r *http.Request) (assessment.Student, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return assessment.Student{}, false
	}
	return assessment.Student{ID: id.ID, Name: id.Name, Year: id.Year}, true
}

// POST /units/{unitID}/attempts — start or resume; idempotent per
// (student, unit).
func StartAttemptHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, ok := caller(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		res, err := svc.StartOrResume(r.Context(), student, chi.URLParam(r, "unitID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /attempts/{attemptID}/answers — incremental autosave merge.
func SaveAnswersHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, ok := caller(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			Answers   map[string]interface{} `json:"answers"`
			TimeSpent map[string]interface{} `json:"time_spent"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := svc.SaveAnswers(r.Context(), student, chi.URLParam(r, "attemptID"), req.Answers, req.TimeSpent)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /attempts/{attemptID}/submit — exactly-once grading transition. A
// violation_reason marks the submission as proctoring-driven.
func SubmitAttemptHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, ok := caller(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			ViolationReason string                 `json:"violation_reason"`
			TimeSpent       map[string]interface{} `json:"time_spent"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req) // empty body is a plain submit
		}
		res, err := svc.Submit(r.Context(), student, chi.URLParam(r, "attemptID"), req.ViolationReason, req.TimeSpent)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /attempts/{attemptID}/result — post-submission review.
func GetResultHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, ok := caller(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		res, err := svc.Result(r.Context(), student, chi.URLParam(r, "attemptID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /quizzes — generate a task quiz and start its attempt.
func StartTaskQuizHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, ok := caller(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			Subject string `json:"subject"`
			Topic   string `json:"topic"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := svc.StartTaskQuiz(r.Context(), student, req.Subject, req.Topic)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
