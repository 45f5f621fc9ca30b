// internal/concierge/classify-intent/handler.go
package classifyintent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yutenji-concierge/internal/common/llm"
)

const Purpose = "classify"

// ErrClassificationFailed means the provider gave no usable verdict.
var ErrClassificationFailed = errors.New("CLASSIFICATION_FAILED")

// Completer is the slice of the completion client the classifier needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	completer   Completer
	instruction string
	logger      Logger
}

// NewHandler builds a classifier that sends instruction as the system message.
func NewHandler(completer Completer, instruction string, log Logger) *Handler {
	return &Handler{
		completer:   completer,
		instruction: instruction,
		logger: log.With(map[string]interface{}{
			"component": "classify-intent",
		}),
	}
}

// Classify reports whether text asks for a restaurant. Provider transport
// errors are returned as-is; an empty reply yields ErrClassificationFailed.
func (h *Handler) Classify(ctx context.Context, text string) (bool, error) {
	reply, err := h.completer.Complete(llm.WithPurpose(ctx, Purpose), h.instruction, text)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyCompletion) {
			return false, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
		}
		return false, err
	}
	if strings.TrimSpace(reply) == "" {
		return false, fmt.Errorf("%w: empty reply", ErrClassificationFailed)
	}

	seeking := ParseVerdict(reply)
	h.logger.Info("intent classified", map[string]interface{}{
		"seeking": seeking,
		"reply":   truncate(reply, 40),
	})
	return seeking, nil
}

// ParseVerdict is true when reply contains "true" in any letter case.
func ParseVerdict(reply string) bool {
	return strings.Contains(strings.ToLower(reply), "true")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
