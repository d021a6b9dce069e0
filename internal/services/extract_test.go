package services

import (
	"archive/zip"
	"bytes"
	"testing"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Databases 101</w:t></w:r></w:p>
    <w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Week 1</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Tables </w:t></w:r><w:r><w:t>and keys.</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Lab</w:t></w:r><w:r><w:tab/><w:t>schema design</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractTextDocx(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML,
	})

	text, err := ExtractText("Course.DOCX", data)
	require.NoError(t, err)
	assert.Equal(t, "# Databases 101\n\n## Week 1\n\nTables and keys.\n\nLab\tschema design", text)
}

func TestExtractTextRejects(t *testing.T) {
	_, err := ExtractText("broken.docx", []byte("not a zip"))
	assert.True(t, apperrors.IsValidationError(err))

	_, err = ExtractText("empty.docx", buildDocx(t, map[string]string{"word/styles.xml": "<styles/>"}))
	assert.True(t, apperrors.IsValidationError(err))

	_, err = ExtractText("slides.pdf", []byte("%PDF-1.7"))
	assert.True(t, apperrors.IsValidationError(err))

	_, err = ExtractText("deck.pptx", []byte("x"))
	assert.True(t, apperrors.IsValidationError(err))

	_, err = ExtractText("notes.md", []byte{0xff, 0xfe, 0x00})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = ExtractText("big.txt", make([]byte, MaxUploadBytes+1))
	assert.True(t, apperrors.IsValidationError(err))
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 1, headingLevel("Title"))
	assert.Equal(t, 3, headingLevel("Heading3"))
	assert.Equal(t, 2, headingLevel("heading 2"))
	assert.Equal(t, 6, headingLevel("Heading9"))
	assert.Equal(t, 0, headingLevel("Normal"))
	assert.Equal(t, 0, headingLevel("HeadingX"))
}
