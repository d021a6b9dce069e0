// internal/services/extract.go
package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
)

// MaxUploadBytes bounds one uploaded course file.
const MaxUploadBytes = 10 << 20

// ExtractText returns the plain text of an uploaded course file. Markdown and
// text files are taken as is; .docx paragraphs are joined with blank lines and
// heading styles become markdown headings.
func ExtractText(name string, data []byte) (string, error) {
	if len(data) > MaxUploadBytes {
		return "", apperrors.NewValidationError("file too large: "+name, nil)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".txt":
		if !utf8.Valid(data) {
			return "", apperrors.NewValidationError("file is not valid UTF-8 text: "+name, nil)
		}
		return strings.TrimSpace(string(data)), nil
	case ".docx":
		text, err := extractDocx(data)
		if err != nil {
			return "", apperrors.NewValidationError("could not read "+name, err)
		}
		if text == "" {
			return "", apperrors.NewValidationError("no text found in "+name, nil)
		}
		return text, nil
	case ".pdf":
		return "", apperrors.NewValidationError("PDF text extraction is not supported; upload .md, .txt or .docx", nil)
	default:
		return "", apperrors.NewValidationError("unsupported file type: "+name, nil)
	}
}

func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var body []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		body, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		break
	}
	if body == nil {
		return "", io.ErrUnexpectedEOF
	}

	var paras []string
	for _, p := range docxParagraphs(body) {
		if p.text == "" {
			continue
		}
		if level := headingLevel(p.style); level > 0 {
			paras = append(paras, strings.Repeat("#", level)+" "+p.text)
			continue
		}
		paras = append(paras, p.text)
	}
	return strings.Join(paras, "\n\n"), nil
}

type docxParagraph struct {
	style string
	text  string
}

// docxParagraphs walks w:p elements collecting w:t runs and the w:pStyle value.
func docxParagraphs(body []byte) []docxParagraph {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var (
		out         []docxParagraph
		inParagraph bool
		inText      bool
		style       string
		text        strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			// io.EOF or malformed tail; keep what was read
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph, inText, style = true, false, ""
				text.Reset()
			case "pStyle":
				for _, a := range t.Attr {
					if a.Name.Local == "val" {
						style = a.Value
					}
				}
			case "t":
				inText = inParagraph
			case "tab":
				if inParagraph {
					text.WriteByte('\t')
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inParagraph {
					out = append(out, docxParagraph{style: style, text: strings.TrimSpace(text.String())})
				}
				inParagraph = false
			}
		}
	}
}

// headingLevel maps "Heading1".."Heading6" and "Title" to a markdown level.
func headingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if !strings.HasPrefix(s, "heading") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "heading"))
	if err != nil || n < 1 {
		return 0
	}
	if n > 6 {
		n = 6
	}
	return n
}
