package http

import (
	"encoding/json"
	"net/http"

	"github.com/exampulse/exampulse/internal/assessment"
)

// writeError maps engine error kinds to stable status codes so clients can
// branch on them.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch assessment.KindOf(err) {
	case assessment.KindNotFound:
		status = http.StatusNotFound
	case assessment.KindForbidden:
		status = http.StatusForbidden
	case assessment.KindConflict:
		status = http.StatusConflict
	case assessment.KindUnavailable:
		status = http.StatusServiceUnavailable
	case assessment.KindValidation:
		status = http.StatusBadRequest
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
