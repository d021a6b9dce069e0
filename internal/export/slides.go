// internal/export/slides.go
package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Corphon/CurriculumDesigner/internal/models"
)

type SlideKind string

const (
	SlideTitle   SlideKind = "title"
	SlideTOC     SlideKind = "toc"
	SlideDivider SlideKind = "divider"
	SlideContent SlideKind = "content"
	SlideEnd     SlideKind = "end"
)

// Slide is one page of the deck. Body is HTML for content slides and plain
// text for title and end slides.
type Slide struct {
	Kind    SlideKind  `json:"kind"`
	Heading string     `json:"heading"`
	Body    string     `json:"body"`
	Section string     `json:"section,omitempty"`
	Anchor  string     `json:"anchor,omitempty"`
	TOC     []TOCEntry `json:"toc,omitempty"`
}

// TOCEntry links to a divider slide.
type TOCEntry struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Anchor string `json:"anchor"`
}

// SlideMeta describes the deck as a whole.
type SlideMeta struct {
	Title    string      `json:"title"`
	Subtitle string      `json:"subtitle"`
	Author   string      `json:"author"`
	Mode     models.Mode `json:"mode"`
}

// Deck is the full slide sequence plus the counts shown on the end slide.
type Deck struct {
	Meta          SlideMeta `json:"meta"`
	Slides        []Slide   `json:"slides"`
	Documents     int       `json:"documents"`
	ContentSlides int       `json:"content_slides"`
	Sections      int       `json:"sections"`
}

var (
	reH1 = regexp.MustCompile(`(?m)^# (.+)$`)
	reH2 = regexp.MustCompile(`^## (.+)`)
)

// Segment turns each file into a divider slide followed by one content
// slide per H2 section. Anchors are numbered across all files.
func Segment(files []models.ExportFile) []Slide {
	var slides []Slide
	n := 0
	for _, f := range files {
		n++
		slides = append(slides, segmentFile(f.Content, f.Name, fmt.Sprintf("section-%d", n))...)
	}
	return slides
}

func segmentFile(content, fileName, anchor string) []Slide {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	section := strings.TrimSuffix(fileName, ".md")
	body := content
	if loc := reH1.FindStringSubmatchIndex(content); loc != nil {
		section = content[loc[2]:loc[3]]
		body = content[:loc[0]] + content[loc[1]:]
	}
	body = strings.TrimSpace(body)

	slides := []Slide{{Kind: SlideDivider, Heading: section, Section: section, Anchor: anchor}}

	for _, chunk := range splitH2(body) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		heading := section
		text := chunk
		if m := reH2.FindStringSubmatch(chunk); m != nil {
			heading = m[1]
			text = chunk[len(m[0]):]
		}
		slides = append(slides, Slide{
			Kind:    SlideContent,
			Heading: heading,
			Body:    MarkdownToHTML(strings.TrimSpace(text)),
			Section: section,
		})
	}
	return slides
}

// splitH2 cuts text before every line that starts with "## ".
func splitH2(text string) []string {
	var chunks []string
	var cur strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "## ") && cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if i > 0 && cur.Len() > 0 {
			cur.WriteString("\n")
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// BuildDeck frames the segmented files with title, contents and end slides.
func BuildDeck(files []models.ExportFile, meta SlideMeta) *Deck {
	body := Segment(files)

	var toc []TOCEntry
	contentCount := 0
	for _, s := range body {
		switch s.Kind {
		case SlideDivider:
			toc = append(toc, TOCEntry{Number: len(toc) + 1, Name: s.Heading, Anchor: s.Anchor})
		case SlideContent:
			contentCount++
		}
	}

	slides := make([]Slide, 0, len(body)+3)
	slides = append(slides, Slide{Kind: SlideTitle, Heading: meta.Title, Body: meta.Subtitle})
	slides = append(slides, Slide{Kind: SlideTOC, Heading: "Table of Contents", TOC: toc})
	slides = append(slides, body...)
	slides = append(slides, Slide{
		Kind:    SlideEnd,
		Heading: "End of Presentation",
		Body:    fmt.Sprintf("%d documents · %d content slides · %d sections", len(files), contentCount, len(toc)),
	})

	return &Deck{
		Meta:          meta,
		Slides:        slides,
		Documents:     len(files),
		ContentSlides: contentCount,
		Sections:      len(toc),
	}
}

// BuildMeta derives the deck title and subtitle from the session.
func BuildMeta(s *models.Session, author string) SlideMeta {
	if s.Mode == models.ModeEnhance {
		name := "Curriculum"
		if s.AnalysisReportStructured != nil && s.AnalysisReportStructured.CourseName != "" {
			name = s.AnalysisReportStructured.CourseName
		}
		return SlideMeta{
			Title:    name + " — Enhancement Report",
			Subtitle: fmt.Sprintf("%d approved changes", len(s.ApprovedChanges())),
			Author:   author,
			Mode:     models.ModeEnhance,
		}
	}

	topic := "Curriculum"
	var parts []string
	if ci := s.CourseInfo; ci != nil {
		if ci.Topic != "" {
			topic = ci.Topic
		}
		for _, p := range []string{string(ci.Audience), string(ci.Format)} {
			if p != "" {
				parts = append(parts, strings.ToUpper(p[:1])+p[1:])
			}
		}
	}
	return SlideMeta{
		Title:    topic + " — Curriculum Plan",
		Subtitle: strings.Join(parts, " · "),
		Author:   author,
		Mode:     models.ModeCreate,
	}
}
