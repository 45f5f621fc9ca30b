// internal/concierge/data-store/handler.go
package datastore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"yutenji-concierge/internal/common/metrics"
	"yutenji-concierge/internal/models"
)

var (
	ErrCatalogFetch = errors.New("CATALOG_FETCH_FAILED")
	ErrLogInsert    = errors.New("LOG_INSERT_FAILED")
)

//go:embed schema.sql
var schemaTemplate string

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Handler is the gateway to the restaurant catalog and the interaction log.
// The redis client is optional; nil disables the catalog cache.
type Handler struct {
	config      Config
	db          *sql.DB
	redisClient *redis.Client
	logger      Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log Logger) *Handler {
	return &Handler{
		config:      config.withDefaults(),
		db:          db,
		redisClient: redisClient,
		logger: log.With(map[string]interface{}{
			"component": "data-store",
		}),
	}
}

func (h *Handler) cacheKey() string {
	return "concierge:catalog:" + h.config.CatalogTable
}

// FetchCatalog returns every catalog row, reading through the cache when one
// is configured.
func (h *Handler) FetchCatalog(ctx context.Context) (models.Catalog, error) {
	if catalog, ok := h.readCache(ctx); ok {
		metrics.CatalogReads.WithLabelValues("cache").Inc()
		return catalog, nil
	}
	return h.FetchCatalogFresh(ctx)
}

// FetchCatalogFresh always queries the store and refreshes the cache.
func (h *Handler) FetchCatalogFresh(ctx context.Context) (models.Catalog, error) {
	catalog, err := h.queryCatalog(ctx)
	if err != nil {
		h.logger.Error("catalog fetch failed", map[string]interface{}{
			"table": h.config.CatalogTable,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrCatalogFetch, err)
	}
	metrics.CatalogReads.WithLabelValues("store").Inc()
	h.writeCache(ctx, catalog)
	return catalog, nil
}

func (h *Handler) queryCatalog(ctx context.Context) (models.Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT row_to_json(r) FROM %s r", pq.QuoteIdentifier(h.config.CatalogTable))
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	catalog := models.Catalog{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		catalog = append(catalog, models.RestaurantRecord(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (h *Handler) readCache(ctx context.Context) (models.Catalog, bool) {
	if h.redisClient == nil {
		return nil, false
	}
	val, err := h.redisClient.Get(ctx, h.cacheKey()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("catalog cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, false
	}
	var catalog models.Catalog
	if err := json.Unmarshal(val, &catalog); err != nil {
		h.logger.Warn("catalog cache entry unreadable", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}
	return catalog, true
}

func (h *Handler) writeCache(ctx context.Context, catalog models.Catalog) {
	if h.redisClient == nil || h.config.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(catalog)
	if err != nil {
		return
	}
	if err := h.redisClient.Set(ctx, h.cacheKey(), data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("catalog cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// InsertLog appends one interaction row. Empty fields are written as NULL.
func (h *Handler) InsertLog(ctx context.Context, entry models.InteractionLog) error {
	ctx, cancel := context.WithTimeout(ctx, h.config.QueryTimeout)
	defer cancel()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (session_id, input_text, budget, location, genre, situation, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pq.QuoteIdentifier(h.config.LogTable),
	)
	_, err := h.db.ExecContext(ctx, query,
		nullString(entry.SessionID),
		nullString(entry.FreeText),
		nullString(entry.Budget),
		nullString(entry.Location),
		nullString(entry.Cuisine),
		nullString(entry.Situation),
		entry.CreatedAt,
	)
	if err != nil {
		h.logger.Error("interaction log insert failed", map[string]interface{}{
			"table":     h.config.LogTable,
			"sessionId": entry.SessionID,
			"error":     err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrLogInsert, err)
	}
	return nil
}

// EnsureSchema creates the catalog and log tables when they are missing.
func (h *Handler) EnsureSchema(ctx context.Context) error {
	ddl := strings.NewReplacer(
		"{{catalog}}", pq.QuoteIdentifier(h.config.CatalogTable),
		"{{log}}", pq.QuoteIdentifier(h.config.LogTable),
	).Replace(schemaTemplate)

	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := h.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	h.logger.Info("schema ensured", map[string]interface{}{
		"catalogTable": h.config.CatalogTable,
		"logTable":     h.config.LogTable,
	})
	return nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
