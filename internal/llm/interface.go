// internal/llm/interface.go
package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrUnknownProvider = errors.New("unknown llm provider")

// CompletionRequest is the provider-neutral request shape.
type CompletionRequest struct {
	Prompt       string                 `json:"prompt"`
	SystemPrompt string                 `json:"system_prompt,omitempty"`
	MaxTokens    int                    `json:"max_tokens,omitempty"`
	Temperature  float32                `json:"temperature,omitempty"`
	TopP         float32                `json:"top_p,omitempty"`
	Model        string                 `json:"model,omitempty"`
	StopWords    []string               `json:"stop_words,omitempty"`
	ExtraParams  map[string]interface{} `json:"extra_params,omitempty"`
}

type CompletionResponse struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	TokensUsed   int    `json:"tokens_used,omitempty"`
	PromptTokens int    `json:"prompt_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
}

// StreamResponse is one element of a streamed completion. Text carries only
// the new delta. The final element has Done set; Err is non-nil when the
// stream ended abnormally.
type StreamResponse struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	Done         bool   `json:"done"`
	Err          error  `json:"-"`
}

// Provider is implemented by every LLM backend.
type Provider interface {
	Initialize(config map[string]string) error
	GetName() string
	GetSupportedModels() []string
	CompleteText(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// StreamCompletion returns a channel that is closed after the Done
	// element, or when ctx is cancelled.
	StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan StreamResponse, error)
	FetchAvailableModels(ctx context.Context) error
	SetCustomModels(models []string)
}

type ProviderFactory func() Provider

var (
	mu        sync.RWMutex
	providers = make(map[string]ProviderFactory)
)

// Register adds a provider factory under name.
func Register(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// GetProvider creates and initializes the named provider.
func GetProvider(name string, config map[string]string) (Provider, error) {
	mu.RLock()
	factory, exists := providers[name]
	mu.RUnlock()
	if !exists {
		return nil, ErrUnknownProvider
	}

	provider := factory()
	if err := provider.Initialize(config); err != nil {
		return nil, err
	}
	return provider, nil
}

// ListProviders returns registered provider names, sorted.
func ListProviders() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetSupportedModelsForProvider lists the recommended models of a provider
// without initializing it.
func GetSupportedModelsForProvider(name string) []string {
	mu.RLock()
	factory, exists := providers[name]
	mu.RUnlock()
	if !exists {
		return []string{}
	}
	return factory().GetSupportedModels()
}
