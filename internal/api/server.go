// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "yutenji-concierge/internal/common/errors"
	recommendturn "yutenji-concierge/internal/concierge/recommend-turn"
	"yutenji-concierge/internal/models"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// TurnHandler runs one chat turn from a raw request body.
type TurnHandler interface {
	HandleRaw(ctx context.Context, raw []byte) (*recommendturn.Output, error)
}

type CatalogReader interface {
	FetchCatalog(ctx context.Context) (models.Catalog, error)
}

// ReadinessCheck is one dependency probed by /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Config struct {
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	ReadyTimeout       time.Duration
	// RateLimitRequests caps turn requests per client IP within
	// RateLimitWindow. Zero disables the limiter.
	RateLimitRequests  int
	RateLimitWindow    time.Duration
}

type Dependencies struct {
	Turns   TurnHandler
	Catalog CatalogReader
	Checks  []ReadinessCheck
	// Status adds extra fields to the /ready body.
	Status func() map[string]interface{}
}

type Server struct {
	config    Config
	deps      Dependencies
	responder *apperrors.Responder
	logger    Logger
}

func NewServer(cfg *Config, deps Dependencies, log Logger) *Server {
	conf := *cfg
	if conf.MaxBodyBytes <= 0 {
		conf.MaxBodyBytes = 1 << 20
	}
	if conf.ReadyTimeout <= 0 {
		conf.ReadyTimeout = 2 * time.Second
	}
	if conf.RateLimitWindow <= 0 {
		conf.RateLimitWindow = time.Minute
	}
	if len(conf.CORSAllowedOrigins) == 0 {
		conf.CORSAllowedOrigins = []string{"*"}
	}
	l := log.With(map[string]interface{}{"component": "api"})
	return &Server{
		config:    conf,
		deps:      deps,
		responder: apperrors.NewResponder(l),
		logger:    l,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/restaurants", s.handleRestaurants)
	r.With(s.rateLimit()).Post("/recommend", s.handleRecommend)

	// Legacy route names used by the web client.
	r.Route("/api", func(r chi.Router) {
		r.Get("/getRestaurants", s.handleRestaurants)
		r.With(s.rateLimit()).Post("/recommend", s.handleRecommend)
	})

	return r
}

// rateLimit limits turn submissions per client IP. RealIP runs first, so
// the key is the forwarded address when behind a proxy.
func (s *Server) rateLimit() func(http.Handler) http.Handler {
	if s.config.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		s.config.RateLimitRequests,
		s.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.responder.Respond(w, r, apperrors.NewRateLimitedError())
		}),
	)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
			return
		}
		s.logger.Info("http request", map[string]interface{}{
			"requestId":  chimiddleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}
