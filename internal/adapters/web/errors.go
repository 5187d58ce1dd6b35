package web

import (
	"encoding/json"
	"net/http"

	"hvac-ledger/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeJSONStatus(w, status, errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeServiceError translates a core error into its HTTP status. The body
// carries the error's message only; causes stay in the server log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	msg := "internal error"
	if typed := core.As(err); typed != nil {
		msg = typed.Message()
	}
	writeError(w, r, msg, string(core.KindOf(err)), statusFor(err))
}

func statusFor(err error) int {
	switch core.KindOf(err) {
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindConflict, core.KindInvalidTransition, core.KindInsufficientStock, core.KindReferentialIntegrity:
		return http.StatusConflict
	}
	if core.IsRetryable(err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
