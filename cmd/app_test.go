package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry/config"
	"pantry/domain/ingredient"
	"pantry/domain/shared"
)

const (
	seedCategoryID = "cat_cpantryseedcat00000000001"
	seedUnitID     = "unt_cpantryseedunt00000000001"
)

type listEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   int             `json:"count"`
}

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.App.Env = "test"
	cfg.Server.RateLimit.Enabled = false
	return cfg
}

func buildApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := NewBuilder(cfg).WithRegistry(NewRegistry()).Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })
	return app
}

func do(engine *gin.Engine, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func listCount(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var env listEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	return env.Count
}

func createTomato(t *testing.T, engine *gin.Engine, user string) {
	t.Helper()
	w := do(engine, http.MethodPost, "/api/v1/ingredients", user, map[string]any{
		"name":         "トマト",
		"category_id":  seedCategoryID,
		"quantity":     2,
		"unit_id":      seedUnitID,
		"storage_type": "REFRIGERATED",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestBuild_MockDriver(t *testing.T) {
	cfg := loadTestConfig(t)
	require.Equal(t, DriverMock, cfg.Database.Driver)

	app := buildApp(t, cfg)
	engine := app.GetEngine()
	assert.Nil(t, app.Infrastructure().DB)

	assert.Equal(t, 10, listCount(t, do(engine, http.MethodGet, "/api/v1/categories", "", nil)))
	assert.Equal(t, 9, listCount(t, do(engine, http.MethodGet, "/api/v1/units", "", nil)))

	user := shared.GenerateUserID().Value()
	createTomato(t, engine, user)
	assert.Equal(t, 1, listCount(t, do(engine, http.MethodGet, "/api/v1/ingredients", user, nil)))

	history := app.EventBus().GetPublishHistory()
	require.Len(t, history, 1)
	assert.Equal(t, ingredient.EventCreated, history[0].EventName)

	w := do(engine, http.MethodGet, "/api/v1/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBuild_SQLite(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Database.Driver = "sqlite"
	cfg.Database.Database = filepath.Join(t.TempDir(), "pantry.db")

	app := buildApp(t, cfg)
	engine := app.GetEngine()
	require.NotNil(t, app.Infrastructure().DB)

	assert.Equal(t, 10, listCount(t, do(engine, http.MethodGet, "/api/v1/categories", "", nil)))

	user := shared.GenerateUserID().Value()
	createTomato(t, engine, user)

	history := app.EventBus().GetPublishHistory()
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	assert.Equal(t, ingredient.EventCreated, last.EventName)
	assert.True(t, last.Success)

	w := do(engine, http.MethodGet, "/api/v1/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestBuild_SQLiteReopenKeepsData(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Database.Driver = "sqlite"
	cfg.Database.Database = filepath.Join(t.TempDir(), "pantry.db")
	user := shared.GenerateUserID().Value()

	first, err := NewBuilder(cfg).WithRegistry(NewRegistry()).Build(context.Background())
	require.NoError(t, err)
	createTomato(t, first.GetEngine(), user)
	require.NoError(t, first.Close())

	second := buildApp(t, cfg)
	engine := second.GetEngine()
	assert.Equal(t, 1, listCount(t, do(engine, http.MethodGet, "/api/v1/ingredients", user, nil)))
	assert.Equal(t, 10, listCount(t, do(engine, http.MethodGet, "/api/v1/categories", "", nil)))
}

func TestBuild_MetricsEndpoint(t *testing.T) {
	app := buildApp(t, loadTestConfig(t))
	engine := app.GetEngine()

	do(engine, http.MethodGet, "/api/v1/categories", "", nil)

	w := do(engine, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "pantry_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestBuild_UnreachableRedis(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := NewBuilder(cfg).WithRegistry(NewRegistry()).Build(context.Background())
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Server.Port = "0"
	app := buildApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
