package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/Corphon/CurriculumDesigner/internal/config"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Port:               "0",
		DataDir:            filepath.Join(dir, "data"),
		LogDir:             filepath.Join(dir, "logs"),
		LLMProvider:        "anthropic",
		LLMModel:           "claude-test",
		LLMMaxTokens:       1024,
		StorageDriver:      driver,
		RateLimitPerMinute: 30,
		PDFConcurrency:     1,
		ConfigSecret:       "test-secret",
	}
}

func TestNewWithoutAPIKey(t *testing.T) {
	a, err := New(testConfig(t, config.StorageFile), utils.NewNopLogger())
	require.NoError(t, err)
	defer a.Close()

	ready, state := a.Generation.Status()
	assert.False(t, ready)
	assert.NotEmpty(t, state)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"llm_ready":false`)
}

func TestNewWithAPIKeyAndSQLite(t *testing.T) {
	cfg := testConfig(t, config.StorageSQLite)
	cfg.AnthropicAPIKey = "sk-test"
	a, err := New(cfg, utils.NewNopLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.Generation.IsReady())
	assert.Equal(t, "anthropic", a.Generation.ProviderName())

	sess, err := a.Sessions.Create(context.Background(), models.ModeCreate)
	require.NoError(t, err)
	got, err := a.Sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestRunStopsOnCancel(t *testing.T) {
	a, err := New(testConfig(t, config.StorageFile), utils.NewNopLogger())
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
