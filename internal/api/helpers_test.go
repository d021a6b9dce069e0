package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Corphon/CurriculumDesigner/internal/config"
	"github.com/Corphon/CurriculumDesigner/internal/llm"
	"github.com/Corphon/CurriculumDesigner/internal/services"
	"github.com/Corphon/CurriculumDesigner/internal/storage"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// stubProvider answers calls with queued replies, in order.
type stubProvider struct {
	mu      sync.Mutex
	replies []string
	failure error
}

func (p *stubProvider) reply(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, text)
}

func (p *stubProvider) next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failure != nil {
		return "", p.failure
	}
	if len(p.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r, nil
}

func (p *stubProvider) Initialize(map[string]string) error         { return nil }
func (p *stubProvider) GetName() string                            { return "stub" }
func (p *stubProvider) GetSupportedModels() []string               { return []string{"stub-model"} }
func (p *stubProvider) FetchAvailableModels(context.Context) error { return nil }
func (p *stubProvider) SetCustomModels([]string)                   {}

func (p *stubProvider) CompleteText(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	text, err := p.next()
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Text: text, ProviderName: "stub"}, nil
}

func (p *stubProvider) StreamCompletion(context.Context, llm.CompletionRequest) (<-chan llm.StreamResponse, error) {
	text, err := p.next()
	if err != nil {
		return nil, err
	}
	ch := make(chan llm.StreamResponse, 3)
	half := len(text) / 2
	ch <- llm.StreamResponse{Text: text[:half]}
	ch <- llm.StreamResponse{Text: text[half:]}
	ch <- llm.StreamResponse{Done: true}
	close(ch)
	return ch, nil
}

type testServer struct {
	router   *gin.Engine
	provider *stubProvider
	progress *services.ProgressService
	sessions *services.SessionService
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	settings, err := config.NewManager(&config.Config{
		DataDir:      t.TempDir(),
		LLMProvider:  "stub",
		ConfigSecret: "test-secret",
	})
	require.NoError(t, err)

	logger := utils.NewNopLogger()
	metrics := utils.NewPipelineMetrics(utils.NewMetricsCollector(), logger)
	locks := services.NewLockManager()
	progress := services.NewProgressService()
	provider := &stubProvider{}

	sessions := services.NewSessionService(store, locks, logger)
	gen := services.NewGenerationServiceWithProvider("stub", provider, metrics, logger)
	enhance := services.NewEnhanceService(sessions, gen, locks, progress, logger)
	t.Cleanup(func() {
		enhance.Close()
		locks.Stop()
		store.Close()
	})

	handler := NewHandler(Deps{
		Sessions:   sessions,
		Curriculum: services.NewCurriculumService(sessions, gen, locks, logger),
		Enhance:    enhance,
		Exports:    services.NewExportService(sessions, nil, services.ExportOptions{}, metrics, logger),
		Progress:   progress,
		Generation: gen,
		Settings:   settings,
		Metrics:    metrics,
		Logger:     logger,
	})
	return &testServer{
		router:   SetupRouter(handler, opts),
		provider: provider,
		progress: progress,
		sessions: sessions,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// envelope decodes a JSON reply, with Data left raw for the caller.
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	RequestID string          `json:"request_id"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func (s *testServer) createSession(t *testing.T, mode string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/sessions", map[string]string{"mode": mode})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sess struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &sess))
	return sess.ID
}
