// internal/api/handlers.go
package api

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/Corphon/CurriculumDesigner/internal/config"
	"github.com/Corphon/CurriculumDesigner/internal/llm"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/services"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
	"github.com/gin-gonic/gin"
)

// Deps is everything the HTTP layer calls into.
type Deps struct {
	Sessions   *services.SessionService
	Curriculum *services.CurriculumService
	Enhance    *services.EnhanceService
	Exports    *services.ExportService
	Progress   *services.ProgressService
	Generation *services.GenerationService
	Settings   *config.Manager
	Metrics    *utils.PipelineMetrics
	Logger     *utils.Logger
}

// Handler serves the REST, SSE and WebSocket endpoints.
type Handler struct {
	sessions   *services.SessionService
	curriculum *services.CurriculumService
	enhance    *services.EnhanceService
	exports    *services.ExportService
	progress   *services.ProgressService
	generation *services.GenerationService
	settings   *config.Manager
	metrics    *utils.PipelineMetrics
	logger     *utils.Logger
	response   *ResponseHelper
	started    time.Time
}

func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Handler{
		sessions:   d.Sessions,
		curriculum: d.Curriculum,
		enhance:    d.Enhance,
		exports:    d.Exports,
		progress:   d.Progress,
		generation: d.Generation,
		settings:   d.Settings,
		metrics:    d.Metrics,
		logger:     logger,
		response:   NewResponseHelper(logger),
		started:    time.Now(),
	}
}

// ===============================
// Sessions
// ===============================

type createSessionRequest struct {
	Mode models.Mode `json:"mode" binding:"required"`
}

func (h *Handler) ListSessions(c *gin.Context) {
	list, err := h.sessions.List(c.Request.Context())
	if err != nil {
		h.response.FromError(c, err)
		return
	}
	h.response.Success(c, list)
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	sess, err := h.sessions.Create(c.Request.Context(), req.Mode)
	if err != nil {
		h.response.FromError(c, err)
		return
	}
	h.response.Created(c, sess)
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	h.reply(c, sess, err)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.response.FromError(c, err)
		return
	}
	h.response.Success(c, nil, "session deleted")
}

func (h *Handler) ResetSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	sess, err := h.sessions.Reset(c.Request.Context(), c.Param("id"), req.Mode)
	h.reply(c, sess, err)
}

func (h *Handler) AdvancePhase(c *gin.Context) {
	var req struct {
		Phase int `json:"phase"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	sess, err := h.sessions.AdvancePhase(c.Request.Context(), c.Param("id"), req.Phase)
	h.reply(c, sess, err)
}

// EditText replaces one raw text blob from the raw view.
func (h *Handler) EditText(c *gin.Context) {
	var req struct {
		Ref     string `json:"ref"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	sess, err := h.sessions.EditText(c.Request.Context(), c.Param("id"), services.TextField(c.Param("field")), req.Ref, req.Content)
	h.reply(c, sess, err)
}

// reply writes a session result or the error that replaced it.
func (h *Handler) reply(c *gin.Context, data interface{}, err error) {
	if err != nil {
		h.response.FromError(c, err)
		return
	}
	h.response.Success(c, data)
}

// moduleIndex parses the :index path parameter.
func (h *Handler) moduleIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		h.response.Error(c, http.StatusBadRequest, ErrorInvalidIndex, "module index must be a non-negative integer")
		return 0, false
	}
	return index, true
}

// ===============================
// LLM settings
// ===============================

type llmConfigRequest struct {
	Provider string            `json:"provider" binding:"required"`
	Config   map[string]string `json:"config"`
}

type llmStatusResponse struct {
	Ready     bool     `json:"ready"`
	Status    string   `json:"status"`
	Provider  string   `json:"provider"`
	Model     string   `json:"model,omitempty"`
	HasAPIKey bool     `json:"has_api_key"`
	Models    []string `json:"models"`
}

func (h *Handler) llmStatus() llmStatusResponse {
	ready, state := h.generation.Status()
	resp := llmStatusResponse{
		Ready:    ready,
		Status:   state,
		Provider: h.generation.ProviderName(),
		Models:   h.generation.Models(),
	}
	if h.settings != nil {
		s := h.settings.LLM()
		resp.Model = s.Config["default_model"]
		resp.HasAPIKey = s.Config["api_key"] != ""
		if resp.Provider == "" {
			resp.Provider = s.Provider
		}
	}
	return resp
}

func (h *Handler) GetLLMStatus(c *gin.Context) {
	h.response.Success(c, h.llmStatus())
}

// GetLLMModels lists models for ?provider=, or for the active provider.
func (h *Handler) GetLLMModels(c *gin.Context) {
	provider := c.Query("provider")
	if provider == "" {
		h.response.Success(c, gin.H{"provider": h.generation.ProviderName(), "models": h.generation.Models()})
		return
	}
	if !slices.Contains(llm.ListProviders(), provider) {
		h.response.NotFound(c, ErrorNotFound, "unknown provider: "+provider)
		return
	}
	h.response.Success(c, gin.H{"provider": provider, "models": llm.GetSupportedModelsForProvider(provider)})
}

func (h *Handler) GetLLMProviders(c *gin.Context) {
	h.response.Success(c, llm.ListProviders())
}

// UpdateLLMConfig swaps the provider and persists the settings once the new
// provider has been built successfully.
func (h *Handler) UpdateLLMConfig(c *gin.Context) {
	var req llmConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if h.settings == nil {
		h.response.InternalError(c, "settings are not available")
		return
	}

	merged := h.settings.LLM()
	if merged.Provider != req.Provider {
		merged.Config = map[string]string{}
	}
	for k, v := range req.Config {
		merged.Config[k] = v
	}
	if err := h.generation.UpdateProvider(req.Provider, merged.Config); err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorLLMConfigInvalid, "llm configuration rejected", err.Error())
		return
	}
	if err := h.settings.UpdateLLM(req.Provider, merged.Config); err != nil {
		h.logger.Error("persist llm settings", "provider", req.Provider, "error", err)
		h.response.InternalError(c, "settings applied but could not be saved")
		return
	}
	h.logger.Info("llm provider updated", "provider", req.Provider)
	h.response.Success(c, h.llmStatus(), "llm configuration updated")
}

// ===============================
// Health and metrics
// ===============================

func (h *Handler) Health(c *gin.Context) {
	ready, state := h.generation.Status()
	h.response.Success(c, gin.H{
		"status":    "ok",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"llm_ready": ready,
		"llm_state": state,
	})
}

func (h *Handler) GetMetrics(c *gin.Context) {
	if h.metrics == nil {
		h.response.Success(c, gin.H{})
		return
	}
	h.response.Success(c, h.metrics.Collector().Snapshot())
}
