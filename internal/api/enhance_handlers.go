// internal/api/enhance_handlers.go
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/services"
	"github.com/gin-gonic/gin"
)

// UploadFile accepts one course file as the multipart field "file".
func (h *Handler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorFileUploadFailed, "missing or oversized multipart field \"file\"", err.Error())
		return
	}
	if header.Size > services.MaxUploadBytes {
		h.response.Error(c, http.StatusRequestEntityTooLarge, ErrorFileTooLarge,
			fmt.Sprintf("file exceeds %d MB", services.MaxUploadBytes>>20))
		return
	}
	f, err := header.Open()
	if err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorFileUploadFailed, "could not read upload", err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, services.MaxUploadBytes+1))
	if err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorFileUploadFailed, "could not read upload", err.Error())
		return
	}

	file, err := h.enhance.UploadFile(c.Request.Context(), c.Param("id"), header.Filename, data)
	if err != nil {
		h.response.FromError(c, err)
		return
	}
	h.response.Created(c, file)
}

func (h *Handler) RemoveFile(c *gin.Context) {
	sess, err := h.enhance.RemoveFile(c.Request.Context(), c.Param("id"), c.Param("fileID"))
	h.reply(c, sess, err)
}

// Analyze streams the analysis report of the uploaded files.
func (h *Handler) Analyze(c *gin.Context) {
	id := c.Param("id")
	h.streamStep(c, func(ctx context.Context, onChunk func(string)) (*models.Session, error) {
		return h.enhance.Analyze(ctx, id, onChunk)
	})
}

func (h *Handler) SetGapAction(c *gin.Context) {
	var req struct {
		Action models.GapAction `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	sess, err := h.enhance.SetGapAction(c.Request.Context(), c.Param("id"), c.Param("gapID"), req.Action)
	h.reply(c, sess, err)
}

func (h *Handler) AddGap(c *gin.Context) {
	var req struct {
		Type        models.GapType `json:"type" binding:"required"`
		Description string         `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	sess, err := h.enhance.AddGap(c.Request.Context(), c.Param("id"), req.Type, req.Description)
	h.reply(c, sess, err)
}

func (h *Handler) SetStrengthAction(c *gin.Context) {
	var req struct {
		Action models.StrengthAction `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	sess, err := h.enhance.SetStrengthAction(c.Request.Context(), c.Param("id"), c.Param("strengthID"), req.Action)
	h.reply(c, sess, err)
}

// WhatsNew streams recent developments for the course topic.
func (h *Handler) WhatsNew(c *gin.Context) {
	id := c.Param("id")
	h.streamStep(c, func(ctx context.Context, onChunk func(string)) (*models.Session, error) {
		return h.enhance.WhatsNew(ctx, id, onChunk)
	})
}

func (h *Handler) SetWhatsNewItem(c *gin.Context) {
	var req struct {
		Selected *bool `json:"selected"`
		Expanded *bool `json:"expanded"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	sess, err := h.enhance.SetWhatsNewItem(c.Request.Context(), c.Param("id"), c.Param("itemID"), req.Selected, req.Expanded)
	h.reply(c, sess, err)
}

func (h *Handler) Proposals(c *gin.Context) {
	sess, err := h.enhance.Proposals(c.Request.Context(), c.Param("id"))
	h.reply(c, sess, err)
}

func (h *Handler) ToggleProposal(c *gin.Context) {
	sess, err := h.enhance.ToggleProposal(c.Request.Context(), c.Param("id"), c.Param("proposalID"))
	h.reply(c, sess, err)
}

// GenerateChanges starts the change pipeline. Progress is available from
// /api/progress/:taskID or the progress WebSocket.
func (h *Handler) GenerateChanges(c *gin.Context) {
	taskID, err := h.enhance.GenerateChanges(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.response.FromError(c, err)
		return
	}
	h.response.Accepted(c, gin.H{"task_id": taskID}, "change generation started")
}

func (h *Handler) RegenerateChange(c *gin.Context) {
	var req struct {
		Feedback string `json:"feedback"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.response.BadRequest(c, "invalid request body", err.Error())
			return
		}
	}
	taskID, err := h.enhance.RegenerateChange(c.Request.Context(), c.Param("id"), c.Param("changeID"), req.Feedback)
	if err != nil {
		h.response.FromError(c, err)
		return
	}
	h.response.Accepted(c, gin.H{"task_id": taskID}, "change regeneration started")
}

func (h *Handler) ApproveChange(c *gin.Context) {
	sess, err := h.enhance.ApproveChange(c.Request.Context(), c.Param("id"), c.Param("changeID"))
	h.reply(c, sess, err)
}

func (h *Handler) RejectChange(c *gin.Context) {
	sess, err := h.enhance.RejectChange(c.Request.Context(), c.Param("id"), c.Param("changeID"))
	h.reply(c, sess, err)
}

func (h *Handler) SetChangeFeedback(c *gin.Context) {
	var req struct {
		Feedback string `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	sess, err := h.enhance.SetChangeFeedback(c.Request.Context(), c.Param("id"), c.Param("changeID"), req.Feedback)
	h.reply(c, sess, err)
}
