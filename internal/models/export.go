// internal/models/export.go
package models

// ExportFile is one assembled markdown document. Name is a bare file name
// such as "curriculum.md".
type ExportFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Export formats understood by the export service.
const (
	ExportMarkdown = "markdown"
	ExportSlides   = "slides"
	ExportPDF      = "pdf"
)

// ExportResult describes a packaged artifact.
type ExportResult struct {
	SessionID   string `json:"session_id"`
	Format      string `json:"format"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Data        []byte `json:"-"`
}
