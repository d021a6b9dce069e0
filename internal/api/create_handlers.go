// internal/api/create_handlers.go
package api

import (
	"context"

	"github.com/Corphon/CurriculumDesigner/internal/interview"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/services"
	"github.com/gin-gonic/gin"
)

func (h *Handler) SetCourseInfo(c *gin.Context) {
	var ci models.CourseInfo
	if err := c.ShouldBindJSON(&ci); err != nil {
		h.response.BadRequest(c, "invalid course info", err.Error())
		return
	}
	sess, err := h.curriculum.SetCourseInfo(c.Request.Context(), c.Param("id"), ci)
	h.reply(c, sess, err)
}

// Research streams the topic landscape.
func (h *Handler) Research(c *gin.Context) {
	id := c.Param("id")
	h.streamStep(c, func(ctx context.Context, onChunk func(string)) (*models.Session, error) {
		return h.curriculum.Research(ctx, id, onChunk)
	})
}

func (h *Handler) SetSuggestedModules(c *gin.Context) {
	var req struct {
		Modules []models.SuggestedModule `json:"modules"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	sess, err := h.curriculum.SetSuggestedModules(c.Request.Context(), c.Param("id"), req.Modules)
	h.reply(c, sess, err)
}

func (h *Handler) ToggleLandscapeItem(c *gin.Context) {
	sess, err := h.curriculum.ToggleLandscapeItem(c.Request.Context(), c.Param("id"), c.Param("category"), c.Param("itemID"))
	h.reply(c, sess, err)
}

func (h *Handler) ApproveModules(c *gin.Context) {
	sess, err := h.curriculum.ApproveModules(c.Request.Context(), c.Param("id"))
	h.reply(c, sess, err)
}

func (h *Handler) UpdateModule(c *gin.Context) {
	index, ok := h.moduleIndex(c)
	if !ok {
		return
	}
	var patch services.ModulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.response.BadRequest(c, "invalid module patch", err.Error())
		return
	}
	sess, err := h.curriculum.UpdateModule(c.Request.Context(), c.Param("id"), index, patch)
	h.reply(c, sess, err)
}

type interviewRequest struct {
	Action interview.Action      `json:"action" binding:"required"`
	Patch  *services.ModulePatch `json:"patch,omitempty"`
}

// Interview advances a module's interview. Approving the lesson plan
// streams the module content; the earlier steps answer with the session.
func (h *Handler) Interview(c *gin.Context) {
	index, ok := h.moduleIndex(c)
	if !ok {
		return
	}
	var req interviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	id := c.Param("id")

	if req.Action == interview.ActionApprovePlan {
		h.streamStep(c, func(ctx context.Context, onChunk func(string)) (*models.Session, error) {
			return h.curriculum.Interview(ctx, id, index, req.Action, req.Patch, onChunk)
		})
		return
	}
	sess, err := h.curriculum.Interview(c.Request.Context(), id, index, req.Action, req.Patch, nil)
	h.reply(c, sess, err)
}

func (h *Handler) DeepDive(c *gin.Context) {
	index, ok := h.moduleIndex(c)
	if !ok {
		return
	}
	dive, err := h.curriculum.DeepDive(c.Request.Context(), c.Param("id"), index, c.Param("conceptID"))
	h.reply(c, dive, err)
}

// Assessments streams the assessment plan for the chosen types.
func (h *Handler) Assessments(c *gin.Context) {
	var req struct {
		Types []models.AssessmentType `json:"types"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	id := c.Param("id")
	h.streamStep(c, func(ctx context.Context, onChunk func(string)) (*models.Session, error) {
		return h.curriculum.Assessments(ctx, id, req.Types, onChunk)
	})
}

// Delivery streams the delivery plan for the chosen formats.
func (h *Handler) Delivery(c *gin.Context) {
	var req struct {
		Formats []models.DeliveryFormat `json:"formats"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	id := c.Param("id")
	h.streamStep(c, func(ctx context.Context, onChunk func(string)) (*models.Session, error) {
		return h.curriculum.Delivery(ctx, id, req.Formats, onChunk)
	})
}
