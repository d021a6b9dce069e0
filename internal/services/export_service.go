// internal/services/export_service.go
package services

import (
	"context"
	"time"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/export"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
)

// ExportOptions configure the packaged artifacts.
type ExportOptions struct {
	Author         string
	PDFConcurrency int
}

// ExportService assembles sessions into markdown files and packages them.
type ExportService struct {
	sessions *SessionService
	renderer export.PDFRenderer
	opts     ExportOptions
	metrics  *utils.PipelineMetrics
	logger   *utils.Logger
}

// NewExportService builds the service. renderer may be nil, in which case
// PDF exports fail with an export error.
func NewExportService(sessions *SessionService, renderer export.PDFRenderer, opts ExportOptions, metrics *utils.PipelineMetrics, logger *utils.Logger) *ExportService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if metrics == nil {
		metrics = utils.NewPipelineMetrics(utils.NewMetricsCollector(), logger)
	}
	return &ExportService{sessions: sessions, renderer: renderer, opts: opts, metrics: metrics, logger: logger}
}

// Files returns the assembled markdown files of the session.
func (s *ExportService) Files(ctx context.Context, id string) ([]models.ExportFile, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return export.Assemble(sess), nil
}

// Markdown packages the files into a zip under curriculum/.
func (s *ExportService) Markdown(ctx context.Context, id string) (*models.ExportResult, error) {
	return s.build(ctx, id, models.ExportMarkdown, func(_ *models.Session, files []models.ExportFile) (*models.ExportResult, error) {
		data, err := export.MarkdownZip(files)
		if err != nil {
			return nil, err
		}
		return &models.ExportResult{FileName: "curriculum-markdown.zip", ContentType: "application/zip", Data: data}, nil
	})
}

// Slides renders the self-contained HTML deck.
func (s *ExportService) Slides(ctx context.Context, id string) (*models.ExportResult, error) {
	return s.build(ctx, id, models.ExportSlides, func(sess *models.Session, files []models.ExportFile) (*models.ExportResult, error) {
		deck := export.BuildDeck(files, export.BuildMeta(sess, s.opts.Author))
		data, err := export.RenderDeck(deck)
		if err != nil {
			return nil, err
		}
		name := "curriculum-slides.html"
		if sess.Mode == models.ModeEnhance {
			name = "enhancement-report-slides.html"
		}
		return &models.ExportResult{FileName: name, ContentType: "text/html; charset=utf-8", Data: data}, nil
	})
}

// PDF renders every file to PDF and zips them under curriculum-pdf/.
func (s *ExportService) PDF(ctx context.Context, id string) (*models.ExportResult, error) {
	return s.build(ctx, id, models.ExportPDF, func(_ *models.Session, files []models.ExportFile) (*models.ExportResult, error) {
		data, err := export.PDFBundle(ctx, files, s.renderer, s.opts.PDFConcurrency)
		if err != nil {
			return nil, err
		}
		return &models.ExportResult{FileName: "curriculum-pdf.zip", ContentType: "application/zip", Data: data}, nil
	})
}

func (s *ExportService) build(ctx context.Context, id, format string,
	pack func(*models.Session, []models.ExportFile) (*models.ExportResult, error)) (result *models.ExportResult, err error) {
	start := time.Now()
	files := 0
	defer func() { s.metrics.RecordExport(format, files, time.Since(start), err) }()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	assembled := export.Assemble(sess)
	files = len(assembled)
	if files == 0 {
		return nil, apperrors.NewValidationError("nothing to export yet", nil)
	}

	result, err = pack(sess, assembled)
	if err != nil {
		err = apperrors.WrapError(err, format+" export failed", apperrors.ErrorTypeExport)
		s.logger.Error("export failed", "session_id", id, "format", format, "error", err)
		return nil, err
	}
	result.SessionID = id
	result.Format = format
	result.Size = len(result.Data)
	s.logger.Info("export built", "session_id", id, "format", format, "files", files, "bytes", result.Size)
	return result, nil
}
