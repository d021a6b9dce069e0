// internal/api/export_handlers.go
package api

import (
	"context"

	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/gin-gonic/gin"
)

// ExportFiles returns the assembled markdown files for preview.
func (h *Handler) ExportFiles(c *gin.Context) {
	files, err := h.exports.Files(c.Request.Context(), c.Param("id"))
	h.reply(c, files, err)
}

func (h *Handler) ExportMarkdown(c *gin.Context) {
	h.download(c, h.exports.Markdown)
}

func (h *Handler) ExportSlides(c *gin.Context) {
	h.download(c, h.exports.Slides)
}

func (h *Handler) ExportPDF(c *gin.Context) {
	h.download(c, h.exports.PDF)
}

func (h *Handler) download(c *gin.Context, build func(ctx context.Context, id string) (*models.ExportResult, error)) {
	res, err := build(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.response.FromError(c, err)
		return
	}
	h.response.File(c, res)
}
