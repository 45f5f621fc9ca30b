// Package errors provides the standardized error taxonomy shared by the
// recommendation pipeline and its HTTP surface.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeAdmissionRejected ErrorCode = "ADMISSION_REJECTED"
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"

	ErrCodeCatalogFetchFailed ErrorCode = "CATALOG_FETCH_FAILED"
	ErrCodeLogInsertFailed    ErrorCode = "LOG_INSERT_FAILED"

	ErrCodeProviderFailed  ErrorCode = "PROVIDER_FAILED"
	ErrCodeProviderTimeout ErrorCode = "PROVIDER_TIMEOUT"

	ErrCodeClassificationFailed ErrorCode = "CLASSIFICATION_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewAdmissionRejectedError reports that another turn is in flight. The client
// is expected to back off and retry.
func NewAdmissionRejectedError() *StandardError {
	return newError(ErrCodeAdmissionRejected, "Another request is being processed", nil, true)
}

// NewRateLimitedError reports that a client exceeded its per-window request
// allowance.
func NewRateLimitedError() *StandardError {
	return newError(ErrCodeRateLimited, "Too many requests from this client", nil, true)
}

// NewInvalidRequestError creates a non-retryable payload validation error.
func NewInvalidRequestError(details string) *StandardError {
	e := newError(ErrCodeInvalidRequest, "Invalid request payload", nil, false)
	e.Details = details
	return e
}

// NewCatalogFetchFailedError wraps a failed catalog read.
func NewCatalogFetchFailedError(err error) *StandardError {
	return newError(ErrCodeCatalogFetchFailed, "Restaurant catalog fetch failed", err, false)
}

// NewLogInsertFailedError wraps a failed interaction log insert.
func NewLogInsertFailedError(err error) *StandardError {
	return newError(ErrCodeLogInsertFailed, "Interaction log insert failed", err, false)
}

// NewProviderFailedError wraps a failed or empty completion call.
func NewProviderFailedError(err error) *StandardError {
	return newError(ErrCodeProviderFailed, "Completion provider call failed", err, false)
}

// NewProviderTimeoutError wraps a completion call that ran out of time.
func NewProviderTimeoutError(err error) *StandardError {
	return newError(ErrCodeProviderTimeout, "Completion provider timed out", err, false)
}

// NewClassificationFailedError reports unusable provider output during intent
// classification. It aborts the turn.
func NewClassificationFailedError(err error) *StandardError {
	return newError(ErrCodeClassificationFailed, "Intent classification failed", err, false)
}

// NewInternalError wraps anything that does not fit another code.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus maps an error code to the status returned by the HTTP surface.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeAdmissionRejected, ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// userMessages are the transcript-facing apology texts.
var userMessages = map[ErrorCode]string{
	ErrCodeAdmissionRejected:    "リクエスト処理中",
	ErrCodeRateLimited:          "リクエストが多すぎます",
	ErrCodeInvalidRequest:       "リクエスト形式エラー",
	ErrCodeCatalogFetchFailed:   "データ取得エラー",
	ErrCodeLogInsertFailed:      "ログ保存エラー",
	ErrCodeProviderFailed:       "AI推薦エラー",
	ErrCodeProviderTimeout:      "AI推薦エラー",
	ErrCodeClassificationFailed: "AI推薦エラー",
}

// UserMessage returns the message shown in place of the assistant turn.
func UserMessage(code ErrorCode) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return "サーバーエラー"
}

// ==========================
// 4. Utility Functions
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	return Normalize(err).Code
}

// GetErrorCategory returns the category of the error code, matching the
// taxonomy used in logs and metrics.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "ADMISSION") || strings.HasPrefix(codeStr, "RATE"):
		return "ADMISSION"
	case strings.HasPrefix(codeStr, "CATALOG") || strings.HasPrefix(codeStr, "LOG_"):
		return "STORE"
	case strings.HasPrefix(codeStr, "PROVIDER"):
		return "PROVIDER"
	case strings.HasPrefix(codeStr, "CLASSIFICATION"):
		return "CLASSIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
