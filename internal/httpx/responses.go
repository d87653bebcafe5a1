package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Timestamp        time.Time `json:"timestamp"`
	Status           int       `json:"status"`
	Error            string    `json:"error"`
	Message          string    `json:"message"`
	Path             string    `json:"path"`
	ValidationErrors []string  `json:"validationErrors,omitempty"`
}

const (
	ReasonValidationFailed = "Validation Failed"
	MessageInvalidInput    = "Invalid input data"
	MessageMalformedJSON   = "Malformed JSON request"
	MessageUnexpected      = "An unexpected error occurred"
)

var now = time.Now

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// JSONSuccess writes data with the given status.
func JSONSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

func JSONSuccessNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// JSONError writes an ErrorResponse whose reason is the status text.
func JSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSONErrorWithReason(w, r, status, http.StatusText(status), message, nil)
}

// JSONValidationError writes a 400 carrying per-field messages.
func JSONValidationError(w http.ResponseWriter, r *http.Request, validationErrors []string) {
	JSONErrorWithReason(w, r, http.StatusBadRequest, ReasonValidationFailed, MessageInvalidInput, validationErrors)
}

func JSONErrorWithReason(w http.ResponseWriter, r *http.Request, status int, reason, message string, validationErrors []string) {
	writeJSON(w, status, ErrorResponse{
		Timestamp:        now().UTC(),
		Status:           status,
		Error:            reason,
		Message:          message,
		Path:             r.URL.Path,
		ValidationErrors: validationErrors,
	})
}
