// internal/export/pdf.go
package export

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/models"
)

// PDFRenderer turns one standalone HTML page into PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, page string) ([]byte, error)
}

// PDFRendererFunc adapts a plain function to PDFRenderer.
type PDFRendererFunc func(ctx context.Context, page string) ([]byte, error)

func (f PDFRendererFunc) RenderPDF(ctx context.Context, page string) ([]byte, error) {
	return f(ctx, page)
}

// PDFName maps "notes.md" to "notes.pdf".
func PDFName(name string) string {
	return strings.TrimSuffix(name, ".md") + ".pdf"
}

// PDFBundle renders every file and zips the results under curriculum-pdf/,
// in input order. At most concurrency pages render at once. The first
// failure cancels the rest and no archive is produced.
func PDFBundle(ctx context.Context, files []models.ExportFile, r PDFRenderer, concurrency int) ([]byte, error) {
	if r == nil {
		return nil, apperrors.NewExportError("no PDF renderer configured", nil)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	rendered := make([][]byte, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			data, err := r.RenderPDF(gctx, PrintPage(f))
			if err != nil {
				return apperrors.NewExportError("render "+f.Name, err)
			}
			rendered[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]zipEntry, 0, len(files))
	for i, f := range files {
		entries = append(entries, zipEntry{path: PDFFolder + "/" + PDFName(f.Name), data: rendered[i]})
	}
	return writeZip(entries)
}

// PrintPage wraps a file in the print stylesheet. Colours are plain hex so
// every renderer resolves them.
func PrintPage(f models.ExportFile) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(strings.TrimSuffix(f.Name, ".md")))
	b.WriteString(printCSS)
	b.WriteString("</head>\n<body>\n<div class=\"doc\">\n")
	b.WriteString(DocumentToHTML(f.Content))
	b.WriteString("\n</div>\n</body>\n</html>\n")
	return b.String()
}

const printCSS = `<style>
  @page { size: A4 portrait; margin: 15mm; }
  body { margin: 0; background: #ffffff; }
  .doc { font-family: system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #1a1a1a; max-width: 800px; }
  h1 { font-size: 24px; border-bottom: 2px solid #333333; padding-bottom: 8px; margin-top: 24px; color: #1a1a1a; }
  h2 { font-size: 20px; color: #2563eb; margin-top: 20px; }
  h3 { font-size: 16px; color: #4b5563; margin-top: 16px; }
  pre { background-color: #f3f4f6; padding: 12px; border-radius: 6px; overflow-x: auto; font-size: 13px; white-space: pre-wrap; }
  code { background-color: #f3f4f6; padding: 2px 4px; border-radius: 3px; font-size: 13px; color: #1a1a1a; }
  pre code { background-color: transparent; padding: 0; }
  table { border-collapse: collapse; width: 100%; margin: 12px 0; }
  th, td { border: 1px solid #d1d5db; padding: 8px 12px; text-align: left; }
  th { background-color: #f9fafb; font-weight: 600; }
  li { margin: 4px 0; }
  hr { border: none; border-top: 1px solid #e5e7eb; margin: 24px 0; }
  strong, p { color: #1a1a1a; }
  em { color: #4b5563; }
</style>
`

// mmToInch converts the page margin for the DevTools print call.
const mmToInch = 1 / 25.4

// RodRenderer prints pages with a headless Chromium driven by go-rod. The
// browser is started on first use and shared by concurrent renders.
type RodRenderer struct {
	bin string

	mu      sync.Mutex
	browser *rod.Browser
}

// NewRodRenderer uses bin as the browser executable; empty means the
// launcher's lookup or download.
func NewRodRenderer(bin string) *RodRenderer {
	return &RodRenderer{bin: bin}
}

func (r *RodRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(true)
	if r.bin != "" {
		l = l.Bin(r.bin)
	} else if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	// The browser outlives the request that started it.
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	r.browser = browser
	return browser, nil
}

// RenderPDF loads the page into a fresh tab and prints it to A4.
func (r *RodRenderer) RenderPDF(ctx context.Context, pageHTML string) ([]byte, error) {
	browser, err := r.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.SetDocumentContent(pageHTML); err != nil {
		return nil, fmt.Errorf("set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	a4Width, a4Height := 210*mmToInch, 297*mmToInch
	margin := 15 * mmToInch
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      &a4Width,
		PaperHeight:     &a4Height,
		MarginTop:       &margin,
		MarginBottom:    &margin,
		MarginLeft:      &margin,
		MarginRight:     &margin,
	})
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return io.ReadAll(stream)
}

// Close shuts the browser down if it was started.
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}
