// internal/services/llm_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/CurriculumDesigner/internal/config"
	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/llm"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
)

// Generation steps, used as metric and log labels.
const (
	StepResearch    = "research"
	StepPrereqs     = "prerequisites"
	StepConcepts    = "concepts"
	StepLessons     = "lessons"
	StepModule      = "module"
	StepDeepDive    = "deep-dive"
	StepAssessments = "assessments"
	StepDelivery    = "delivery"
	StepAnalysis    = "analysis"
	StepWhatsNew    = "whats-new"
	StepProposals   = "proposals"
	StepChange      = "change"
)

// GenerationService is the single entry point to the configured LLM
// provider. It never retries; a failed call is reported to the caller.
type GenerationService struct {
	providerMutex      sync.RWMutex
	provider           llm.Provider
	providerName       string
	isReady            bool
	readyState         string
	activeDefaultModel string

	metrics *utils.PipelineMetrics
	logger  *utils.Logger
}

// NewGenerationService initializes the provider named in settings. A
// provider that cannot be initialized leaves the service in a not-ready
// state instead of failing startup, so the key can be set later.
func NewGenerationService(settings config.LLMSettings, metrics *utils.PipelineMetrics, logger *utils.Logger) *GenerationService {
	s := newGenerationService(metrics, logger)
	if settings.Provider == "" {
		s.readyState = "LLM provider not configured"
		return s
	}
	if settings.Config["api_key"] == "" {
		s.readyState = "API key not configured"
		return s
	}
	if err := s.UpdateProvider(settings.Provider, settings.Config); err != nil {
		s.logger.Warn("llm provider not initialized", "provider", settings.Provider, "error", err)
	}
	return s
}

// NewGenerationServiceWithProvider wraps an already initialized provider.
func NewGenerationServiceWithProvider(name string, provider llm.Provider, metrics *utils.PipelineMetrics, logger *utils.Logger) *GenerationService {
	s := newGenerationService(metrics, logger)
	s.provider = provider
	s.providerName = name
	s.isReady = provider != nil
	s.readyState = "Ready"
	return s
}

func newGenerationService(metrics *utils.PipelineMetrics, logger *utils.Logger) *GenerationService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if metrics == nil {
		metrics = utils.NewPipelineMetrics(utils.NewMetricsCollector(), logger)
	}
	return &GenerationService{
		readyState: "Uninitialized",
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *GenerationService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.isReady && s.provider != nil
}

// Status reports readiness and a readable description.
func (s *GenerationService) Status() (bool, string) {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.isReady && s.provider != nil, s.readyState
}

func (s *GenerationService) ProviderName() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.providerName
}

// Models lists the models of the active provider.
func (s *GenerationService) Models() []string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	if s.provider == nil {
		return []string{}
	}
	return s.provider.GetSupportedModels()
}

// UpdateProvider swaps the provider. On failure the previous provider is
// dropped and the service reports not ready.
func (s *GenerationService) UpdateProvider(providerName string, cfg map[string]string) error {
	provider, err := llm.GetProvider(providerName, cfg)
	if err != nil {
		s.providerMutex.Lock()
		s.provider = nil
		s.isReady = false
		s.readyState = fmt.Sprintf("Configuration failed: %v", err)
		s.providerMutex.Unlock()
		return apperrors.NewValidationError("configure llm provider "+providerName, err)
	}

	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()
	s.provider = provider
	s.providerName = providerName
	s.activeDefaultModel = extractDefaultModel(cfg)
	s.isReady = true
	s.readyState = "Ready"
	return nil
}

func (s *GenerationService) current() (llm.Provider, string, error) {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	if !s.isReady || s.provider == nil {
		return nil, "", apperrors.NewUpstreamError("generation service not ready: "+s.readyState, nil)
	}
	return s.provider, s.activeDefaultModel, nil
}

// Stream runs one streamed completion. onChunk receives each text delta in
// order; the full text is returned once the stream ends cleanly.
func (s *GenerationService) Stream(ctx context.Context, step, system, prompt string, onChunk func(string)) (full string, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordGeneration(step, time.Since(start), err) }()

	provider, model, err := s.current()
	if err != nil {
		return "", err
	}
	stream, err := provider.StreamCompletion(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: system,
		Model:        model,
	})
	if err != nil {
		return "", apperrors.NewUpstreamError(step+" generation failed", err)
	}

	var sb strings.Builder
	done := false
	for chunk := range stream {
		if chunk.Err != nil {
			return "", apperrors.NewUpstreamError(step+" generation failed", chunk.Err)
		}
		if chunk.Text != "" {
			sb.WriteString(chunk.Text)
			if onChunk != nil {
				onChunk(chunk.Text)
			}
		}
		if chunk.Done {
			done = true
		}
	}
	if !done {
		cause := ctx.Err()
		if cause == nil {
			cause = fmt.Errorf("stream ended early")
		}
		return "", apperrors.NewUpstreamError(step+" generation interrupted", cause)
	}

	s.logger.Debug("generation finished", "step", step, "chars", sb.Len(), "elapsed", time.Since(start))
	return sb.String(), nil
}

// Complete runs one non-streamed completion.
func (s *GenerationService) Complete(ctx context.Context, step, system, prompt string) (text string, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordGeneration(step, time.Since(start), err) }()

	provider, model, err := s.current()
	if err != nil {
		return "", err
	}
	resp, err := provider.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: system,
		Model:        model,
	})
	if err != nil {
		return "", apperrors.NewUpstreamError(step+" generation failed", err)
	}
	s.logger.Debug("generation finished", "step", step, "tokens", resp.TokensUsed, "elapsed", time.Since(start))
	return resp.Text, nil
}

func extractDefaultModel(cfg map[string]string) string {
	if cfg == nil {
		return ""
	}
	if model := strings.TrimSpace(cfg["default_model"]); model != "" {
		return model
	}
	return strings.TrimSpace(cfg["model"])
}
