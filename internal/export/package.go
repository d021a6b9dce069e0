// internal/export/package.go
package export

import (
	"archive/zip"
	"bytes"
	"time"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/models"
)

const (
	MarkdownFolder = "curriculum"
	PDFFolder      = "curriculum-pdf"
)

// zipEntry is one file inside an archive.
type zipEntry struct {
	path string
	data []byte
}

// MarkdownZip packs the files under the curriculum/ folder in input order.
func MarkdownZip(files []models.ExportFile) ([]byte, error) {
	entries := make([]zipEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, zipEntry{path: MarkdownFolder + "/" + f.Name, data: []byte(f.Content)})
	}
	return writeZip(entries)
}

func writeZip(entries []zipEntry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// Fixed timestamps keep archives byte-stable for the same input.
	modified := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.path,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, apperrors.NewExportError("create zip entry "+e.path, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, apperrors.NewExportError("write zip entry "+e.path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, apperrors.NewExportError("finalize zip", err)
	}
	return buf.Bytes(), nil
}
