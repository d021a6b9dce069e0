package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Corphon/CurriculumDesigner/internal/llm"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/storage"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
	"github.com/stretchr/testify/require"
)

type fakeReply struct {
	text string
	err  error
}

// fakeProvider answers every call with the next queued reply, streamed or
// not, and records the prompts it saw.
type fakeProvider struct {
	mu      sync.Mutex
	replies []fakeReply
	prompts []string
}

func (p *fakeProvider) queue(replies ...fakeReply) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, replies...)
}

func (p *fakeProvider) reply(text string) { p.queue(fakeReply{text: text}) }

func (p *fakeProvider) fail(msg string) { p.queue(fakeReply{err: errors.New(msg)}) }

func (p *fakeProvider) lastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) == 0 {
		return ""
	}
	return p.prompts[len(p.prompts)-1]
}

func (p *fakeProvider) next(req llm.CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, req.Prompt)
	if len(p.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r.text, r.err
}

func (p *fakeProvider) Initialize(map[string]string) error { return nil }
func (p *fakeProvider) GetName() string                    { return "fake" }
func (p *fakeProvider) GetSupportedModels() []string       { return []string{"fake-model"} }
func (p *fakeProvider) FetchAvailableModels(context.Context) error {
	return nil
}
func (p *fakeProvider) SetCustomModels([]string) {}

func (p *fakeProvider) CompleteText(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	text, err := p.next(req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Text: text, ProviderName: "fake"}, nil
}

func (p *fakeProvider) StreamCompletion(_ context.Context, req llm.CompletionRequest) (<-chan llm.StreamResponse, error) {
	text, err := p.next(req)
	if err != nil {
		return nil, err
	}
	pieces := chunk(text, 8)
	ch := make(chan llm.StreamResponse, len(pieces)+1)
	for _, piece := range pieces {
		ch <- llm.StreamResponse{Text: piece}
	}
	ch <- llm.StreamResponse{Done: true}
	close(ch)
	return ch, nil
}

func chunk(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > 0 {
		n := size
		if n > len(runes) {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

type testEnv struct {
	provider   *fakeProvider
	store      storage.SnapshotStore
	locks      *LockManager
	progress   *ProgressService
	metrics    *utils.PipelineMetrics
	sessions   *SessionService
	gen        *GenerationService
	curriculum *CurriculumService
	enhance    *EnhanceService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	logger := utils.NewNopLogger()
	env := &testEnv{
		provider: &fakeProvider{},
		store:    store,
		locks:    NewLockManager(),
		progress: NewProgressService(),
		metrics:  utils.NewPipelineMetrics(utils.NewMetricsCollector(), logger),
	}
	env.sessions = NewSessionService(store, env.locks, logger)
	env.gen = NewGenerationServiceWithProvider("fake", env.provider, env.metrics, logger)
	env.curriculum = NewCurriculumService(env.sessions, env.gen, env.locks, logger)
	env.enhance = NewEnhanceService(env.sessions, env.gen, env.locks, env.progress, logger)

	t.Cleanup(func() {
		env.enhance.Close()
		env.locks.Stop()
		store.Close()
	})
	return env
}

func fence(tag, body string) string {
	return "```json-" + tag + "\n" + body + "\n```"
}

var testCourse = models.CourseInfo{
	Topic:      "Databases",
	Audience:   models.AudienceBeginners,
	Format:     models.FormatBootcamp,
	Philosophy: models.PhilosophyHandsOn,
}

// createSessionWithModules returns a create-mode session whose module list
// has been approved.
func createSessionWithModules(t *testing.T, env *testEnv, names ...string) string {
	t.Helper()
	ctx := context.Background()
	sess, err := env.sessions.Create(ctx, models.ModeCreate)
	require.NoError(t, err)
	_, err = env.curriculum.SetCourseInfo(ctx, sess.ID, testCourse)
	require.NoError(t, err)

	suggested := make([]models.SuggestedModule, 0, len(names))
	for _, n := range names {
		suggested = append(suggested, models.SuggestedModule{Name: n})
	}
	_, err = env.curriculum.SetSuggestedModules(ctx, sess.ID, suggested)
	require.NoError(t, err)
	_, err = env.curriculum.ApproveModules(ctx, sess.ID)
	require.NoError(t, err)
	return sess.ID
}
