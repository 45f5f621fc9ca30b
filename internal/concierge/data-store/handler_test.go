// internal/concierge/data-store/handler_test.go
package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yutenji-concierge/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }
func (l *TestLogger) With(fields map[string]interface{}) Logger      { return l }

// ==========================
// Helpers
// ==========================

const catalogQuery = `SELECT row_to_json(r) FROM "restaurants" r`

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func catalogRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"row_to_json"}).
		AddRow(`{"name":"やきとり祐天","genre":"居酒屋"}`).
		AddRow(`{"name":"Trattoria Yu","genre":"イタリアン"}`).
		AddRow(`{"name":"鮨 しん","genre":"寿司"}`)
}

func newTestHandler(t *testing.T, db *sql.DB, rc *redis.Client) *Handler {
	return NewHandler(&Config{CacheTTL: time.Minute}, db, rc, &TestLogger{t: t})
}

// ==========================
// FetchCatalog
// ==========================

func TestFetchCatalog_FromStore(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(catalogQuery)).WillReturnRows(catalogRows())

	catalog, err := newTestHandler(t, db, nil).FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, catalog.Len())

	var first map[string]string
	require.NoError(t, json.Unmarshal(catalog[0], &first))
	assert.Equal(t, "やきとり祐天", first["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchCatalog_EmptyTable(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(catalogQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"row_to_json"}))

	catalog, err := newTestHandler(t, db, nil).FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, catalog)
	assert.Equal(t, 0, catalog.Len())
}

func TestFetchCatalog_StoreError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(catalogQuery)).WillReturnError(errors.New("connection refused"))

	_, err := newTestHandler(t, db, nil).FetchCatalog(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogFetch)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFetchCatalog_ReadsThroughCache(t *testing.T) {
	db, mock := setupMockDB(t)
	mr, rc := setupRedis(t)
	h := newTestHandler(t, db, rc)

	mock.ExpectQuery(regexp.QuoteMeta(catalogQuery)).WillReturnRows(catalogRows())

	first, err := h.FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.True(t, mr.Exists("concierge:catalog:restaurants"))

	// Second read must be served from redis; sqlmock would fail an unexpected query.
	second, err := h.FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Len(), second.Len())
	assert.JSONEq(t, string(first[1]), string(second[1]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchCatalogFresh_BypassesCache(t *testing.T) {
	db, mock := setupMockDB(t)
	mr, rc := setupRedis(t)
	require.NoError(t, mr.Set("concierge:catalog:restaurants", `[{"name":"stale"}]`))

	mock.ExpectQuery(regexp.QuoteMeta(catalogQuery)).WillReturnRows(catalogRows())

	catalog, err := newTestHandler(t, db, rc).FetchCatalogFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())

	cached, err := mr.Get("concierge:catalog:restaurants")
	require.NoError(t, err)
	assert.NotContains(t, cached, "stale")
}

func TestFetchCatalog_CorruptCacheFallsBackToStore(t *testing.T) {
	db, mock := setupMockDB(t)
	mr, rc := setupRedis(t)
	require.NoError(t, mr.Set("concierge:catalog:restaurants", `not-json`))

	mock.ExpectQuery(regexp.QuoteMeta(catalogQuery)).WillReturnRows(catalogRows())

	catalog, err := newTestHandler(t, db, rc).FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())
}

func TestFetchCatalog_RedisDownFallsBackToStore(t *testing.T) {
	db, mock := setupMockDB(t)
	mr, rc := setupRedis(t)
	mr.Close()

	mock.ExpectQuery(regexp.QuoteMeta(catalogQuery)).WillReturnRows(catalogRows())

	catalog, err := newTestHandler(t, db, rc).FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())
}

// ==========================
// InsertLog
// ==========================

const insertPrefix = `INSERT INTO "user_logs" (session_id, input_text, budget, location, genre, situation, created_at)`

func TestInsertLog_StructuredTurn(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(insertPrefix)).
		WithArgs("sess-1", nil, "3000円", "祐天寺", "居酒屋", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := models.InteractionLogFromPreference("sess-1", models.Preference{
		Budget:   "3000円",
		Location: "祐天寺",
		Cuisine:  "居酒屋",
	})
	require.NoError(t, newTestHandler(t, db, nil).InsertLog(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertLog_FreeTextTurn(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(insertPrefix)).
		WithArgs("sess-2", "ビールが美味しいところある？", nil, "学芸大学", nil, "友人", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := newTestHandler(t, db, nil).InsertLog(context.Background(), models.InteractionLog{
		SessionID: "sess-2",
		FreeText:  "ビールが美味しいところある？",
		Location:  "学芸大学",
		Situation: "友人",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertLog_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(insertPrefix)).
		WillReturnError(errors.New(`pq: relation "user_logs" does not exist`))

	err := newTestHandler(t, db, nil).InsertLog(context.Background(), models.InteractionLog{SessionID: "s"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLogInsert)
}

// ==========================
// EnsureSchema
// ==========================

func TestEnsureSchema(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "restaurants"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "user_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, newTestHandler(t, db, nil).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "restaurants"`)).
		WillReturnError(errors.New("permission denied"))

	err := newTestHandler(t, db, nil).EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}
