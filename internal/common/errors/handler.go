// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// Responder writes errors to HTTP clients with standardized logging.
type Responder struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string    `json:"error"`
	Code    ErrorCode `json:"code"`
	// Details explains client errors. Server-side causes are never exposed.
	Details string    `json:"details,omitempty"`
}

func NewResponder(logger Logger) *Responder {
	return &Responder{logger: logger}
}

// Respond normalizes err, logs it and writes the mapped status and body.
func (h *Responder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(r, stdErr, status)

	w.Header().Set("Content-Type", "application/json")
	backoff := stdErr.Code == ErrCodeAdmissionRejected || stdErr.Code == ErrCodeRateLimited
	if backoff && w.Header().Get("Retry-After") == "" {
		w.Header().Set("Retry-After", "1")
	}
	body := ErrorBody{
		Error: UserMessage(stdErr.Code),
		Code:  stdErr.Code,
	}
	if status < http.StatusInternalServerError {
		body.Details = stdErr.Details
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Responder) logError(r *http.Request, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        status,
	}
	if r != nil {
		fields["method"] = r.Method
		fields["path"] = r.URL.Path
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}

	// Rejections and bad payloads are client-side conditions.
	if status < http.StatusInternalServerError {
		h.logger.Warn("request rejected", fields)
		return
	}
	h.logger.Error("request failed", fields)
}
