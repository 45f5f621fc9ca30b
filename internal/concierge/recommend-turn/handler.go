// internal/concierge/recommend-turn/handler.go
package recommendturn

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	apperrors "yutenji-concierge/internal/common/errors"
	"yutenji-concierge/internal/common/llm"
	"yutenji-concierge/internal/common/metrics"
	"yutenji-concierge/internal/common/observability"
	classifyintent "yutenji-concierge/internal/concierge/classify-intent"
	composeprompt "yutenji-concierge/internal/concierge/compose-prompt"
	datastore "yutenji-concierge/internal/concierge/data-store"
	formatresponse "yutenji-concierge/internal/concierge/format-response"
	"yutenji-concierge/internal/models"
)

const (
	purposeRecommend    = "recommend"
	purposeConversation = "conversation"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Store is the data store gateway as seen by the orchestrator.
type Store interface {
	FetchCatalog(ctx context.Context) (models.Catalog, error)
	FetchCatalogFresh(ctx context.Context) (models.Catalog, error)
	InsertLog(ctx context.Context, entry models.InteractionLog) error
}

type Classifier interface {
	Classify(ctx context.Context, text string) (bool, error)
}

type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Dependencies groups the collaborators of a Handler.
type Dependencies struct {
	Gate       *AdmissionGate
	Store      Store
	Classifier Classifier
	Composer   *composeprompt.Composer
	Completer  Completer
	Formatter  *formatresponse.Formatter
	Obs        *observability.Observability
}

// Handler runs one chat turn end to end under the admission gate.
type Handler struct {
	config     Config
	gate       *AdmissionGate
	store      Store
	classifier Classifier
	composer   *composeprompt.Composer
	completer  Completer
	formatter  *formatresponse.Formatter
	obs        *observability.Observability
	logger     Logger
}

func NewHandler(config *Config, deps Dependencies, log Logger) *Handler {
	gate := deps.Gate
	if gate == nil {
		gate = NewAdmissionGate()
	}
	return &Handler{
		config:     config.withDefaults(),
		gate:       gate,
		store:      deps.Store,
		classifier: deps.Classifier,
		composer:   deps.Composer,
		completer:  deps.Completer,
		formatter:  deps.Formatter,
		obs:        deps.Obs,
		logger: log.With(map[string]interface{}{
			"component": "recommend-turn",
		}),
	}
}

// Gate exposes the admission gate for readiness reporting.
func (h *Handler) Gate() *AdmissionGate {
	return h.gate
}

// HandleRaw admits, parses and executes one turn. Every returned error is a
// *errors.StandardError; the admission slot is released on every path.
func (h *Handler) HandleRaw(ctx context.Context, raw []byte) (*Output, error) {
	token, release, ok := h.gate.Acquire()
	if !ok {
		// Logged once by the caller's error responder.
		metrics.AdmissionRejected.Inc()
		return nil, apperrors.NewAdmissionRejectedError()
	}
	defer release()

	metrics.TurnsInFlight.Inc()
	defer metrics.TurnsInFlight.Dec()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, h.config.TurnTimeout)
	defer cancel()

	kind := "invalid"
	parsed, err := ParseRequest(raw)
	if err == nil {
		kind = string(parsed.Turn.Kind())
		if parsed.SessionID == "" {
			parsed.SessionID = uuid.NewString()
		}
	}

	var out *Output
	if err == nil {
		out, err = h.execute(ctx, parsed)
	}

	fields := map[string]interface{}{
		"requestId":  middleware.GetReqID(ctx),
		"admission":  token,
		"turnKind":   kind,
		"durationMs": time.Since(start).Milliseconds(),
	}
	if parsed != nil {
		fields["sessionId"] = parsed.SessionID
	}

	if err != nil {
		stdErr := classifyError(err).WithMetadata("turnKind", kind)
		metrics.TurnsFailed.WithLabelValues(kind, string(stdErr.Code)).Inc()
		h.obs.RecordTurn(ctx, kind, string(stdErr.Code), time.Since(start))
		fields["outcome"] = string(stdErr.Code)
		fields["error"] = stdErr.Details
		h.logger.Error("turn failed", fields)
		return nil, stdErr
	}

	result := "recommendation"
	if out.Response != "" {
		result = "response"
	}
	metrics.TurnsCompleted.WithLabelValues(kind, result).Inc()
	h.obs.RecordTurn(ctx, kind, result, time.Since(start))
	fields["outcome"] = result
	h.logger.Info("turn completed", fields)
	return out, nil
}

func (h *Handler) execute(ctx context.Context, parsed *ParsedTurn) (*Output, error) {
	switch turn := parsed.Turn.(type) {
	case StructuredTurn:
		return h.handleStructured(ctx, parsed, turn)
	case FreeTextTurn:
		return h.handleFreeText(ctx, parsed, turn)
	default:
		return nil, apperrors.NewInvalidRequestError("unknown turn kind")
	}
}

// handleStructured serves the opening turn. It is restaurant-seeking by
// construction, so no classification happens. A client catalog is never
// used here.
func (h *Handler) handleStructured(ctx context.Context, parsed *ParsedTurn, turn StructuredTurn) (*Output, error) {
	pref := turn.Preferences
	if err := h.store.InsertLog(ctx, models.InteractionLogFromPreference(parsed.SessionID, pref)); err != nil {
		return nil, err
	}

	fetch := h.store.FetchCatalog
	if parsed.ForceRefresh {
		fetch = h.store.FetchCatalogFresh
	}
	catalog, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	text, err := h.recommend(ctx, composeprompt.RecommendationContext{
		Description: h.composer.StructuredDescription(pref),
		Location:    h.resolve(pref.Location),
		Situation:   h.resolve(pref.Situation),
		Catalog:     catalog,
	})
	if err != nil {
		return nil, err
	}
	return &Output{Recommendation: text, SessionID: parsed.SessionID}, nil
}

func (h *Handler) handleFreeText(ctx context.Context, parsed *ParsedTurn, turn FreeTextTurn) (*Output, error) {
	seeking, err := h.classifier.Classify(ctx, turn.Text)
	if err != nil {
		return nil, err
	}

	if !seeking {
		if err := h.store.InsertLog(ctx, models.InteractionLog{
			SessionID: parsed.SessionID,
			FreeText:  turn.Text,
		}); err != nil {
			return nil, err
		}
		prompt := h.composer.ComposeConversationalPrompt(turn.Text)
		reply, err := h.completer.Complete(llm.WithPurpose(ctx, purposeConversation), prompt.System, prompt.User)
		if err != nil {
			return nil, err
		}
		return &Output{Response: reply, SessionID: parsed.SessionID}, nil
	}

	location := h.resolve(turn.CarriedLocation)
	situation := h.resolve(turn.CarriedSituation)

	catalog, err := h.catalogFor(ctx, parsed)
	if err != nil {
		return nil, err
	}

	prompt, err := h.composer.ComposeRecommendationPrompt(composeprompt.RecommendationContext{
		Description: turn.Text,
		Location:    location,
		Situation:   situation,
		Catalog:     catalog,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if err := h.store.InsertLog(ctx, models.InteractionLog{
		SessionID: parsed.SessionID,
		FreeText:  turn.Text,
		Location:  location,
		Situation: situation,
	}); err != nil {
		return nil, err
	}

	text, err := h.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &Output{Recommendation: text, SessionID: parsed.SessionID}, nil
}

// catalogFor picks the catalog source for a restaurant-seeking free-text
// turn. A client catalog is used only when trusted, non-empty and not
// overridden by forceRefresh.
func (h *Handler) catalogFor(ctx context.Context, parsed *ParsedTurn) (models.Catalog, error) {
	if parsed.ForceRefresh {
		return h.store.FetchCatalogFresh(ctx)
	}
	if h.config.TrustClientCatalog && parsed.ClientCatalog.Len() > 0 {
		metrics.CatalogReads.WithLabelValues("client").Inc()
		return parsed.ClientCatalog, nil
	}
	return h.store.FetchCatalog(ctx)
}

func (h *Handler) recommend(ctx context.Context, rc composeprompt.RecommendationContext) (string, error) {
	prompt, err := h.composer.ComposeRecommendationPrompt(rc)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return h.complete(ctx, prompt)
}

func (h *Handler) complete(ctx context.Context, prompt composeprompt.Prompt) (string, error) {
	raw, err := h.completer.Complete(llm.WithPurpose(ctx, purposeRecommend), prompt.System, prompt.User)
	if err != nil {
		return "", err
	}
	return h.formatter.Format(raw), nil
}

func (h *Handler) resolve(v string) string {
	if v == "" {
		return h.composer.Unspecified()
	}
	return v
}

// classifyError maps component sentinels onto the shared taxonomy.
func classifyError(err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	switch {
	case errors.Is(err, datastore.ErrCatalogFetch):
		return apperrors.NewCatalogFetchFailedError(err)
	case errors.Is(err, datastore.ErrLogInsert):
		return apperrors.NewLogInsertFailedError(err)
	case errors.Is(err, classifyintent.ErrClassificationFailed):
		return apperrors.NewClassificationFailedError(err)
	case errors.Is(err, llm.ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewProviderTimeoutError(err)
	case errors.Is(err, llm.ErrProviderFailed), errors.Is(err, llm.ErrEmptyCompletion):
		return apperrors.NewProviderFailedError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}
