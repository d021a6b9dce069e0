// internal/export/assemble.go
package export

import (
	"fmt"
	"strings"

	"github.com/Corphon/CurriculumDesigner/internal/models"
)

const sectionSeparator = "\n\n---\n\n"

// Assemble builds the export file set for the session's mode. Output depends
// only on the session state.
func Assemble(s *models.Session) []models.ExportFile {
	if s.Mode == models.ModeEnhance {
		return assembleEnhance(&s.EnhancementDocument)
	}
	return assembleCreate(&s.CurriculumDocument)
}

func assembleCreate(d *models.CurriculumDocument) []models.ExportFile {
	topic := "curriculum"
	if d.CourseInfo != nil && d.CourseInfo.Topic != "" {
		topic = d.CourseInfo.Topic
	}

	var files []models.ExportFile

	var contents []string
	for _, m := range d.Modules {
		if m.Content != "" {
			contents = append(contents, m.Content)
		}
	}
	if len(contents) > 0 {
		files = append(files, models.ExportFile{
			Name:    "curriculum.md",
			Content: fmt.Sprintf("# %s - Curriculum\n\n%s", topic, strings.Join(contents, sectionSeparator)),
		})
	}

	if d.TopicLandscape != "" {
		files = append(files, models.ExportFile{
			Name:    "resources.md",
			Content: fmt.Sprintf("# %s - Topic Landscape & Resources\n\n%s", topic, d.TopicLandscape),
		})
	}
	if d.AssessmentsContent != "" {
		files = append(files, models.ExportFile{
			Name:    "assessments.md",
			Content: fmt.Sprintf("# %s - Assessments\n\n%s", topic, d.AssessmentsContent),
		})
	}
	if d.DeliveryContent != "" {
		files = append(files, models.ExportFile{
			Name:    "delivery-plan.md",
			Content: fmt.Sprintf("# %s - Delivery Plan\n\n%s", topic, d.DeliveryContent),
		})
	}
	return files
}

func assembleEnhance(d *models.EnhancementDocument) []models.ExportFile {
	name := "curriculum"
	if d.AnalysisReportStructured != nil && d.AnalysisReportStructured.CourseName != "" {
		name = d.AnalysisReportStructured.CourseName
	}

	var files []models.ExportFile

	if d.AnalysisReportRaw != "" {
		files = append(files, models.ExportFile{
			Name:    "analysis-report.md",
			Content: fmt.Sprintf("# %s - Analysis Report\n\n%s", name, d.AnalysisReportRaw),
		})
	}
	if d.WhatsNewContent != "" {
		files = append(files, models.ExportFile{
			Name:    "whats-new.md",
			Content: fmt.Sprintf("# %s - What's New\n\n%s", name, d.WhatsNewContent),
		})
	}

	if approved := d.ApprovedChanges(); len(approved) > 0 {
		sections := make([]string, 0, len(approved))
		for _, c := range approved {
			var b strings.Builder
			b.WriteString("## " + c.Title + "\n\n")
			if c.Before != "" {
				b.WriteString("### Before\n" + c.Before + "\n\n### After\n")
			}
			b.WriteString(c.After)
			sections = append(sections, b.String())
		}
		files = append(files, models.ExportFile{
			Name:    "changes.md",
			Content: fmt.Sprintf("# %s - Applied Changes\n\n%s", name, strings.Join(sections, sectionSeparator)),
		})
	}

	if len(d.Changelog) > 0 {
		lines := make([]string, 0, len(d.Changelog))
		for _, e := range d.Changelog {
			lines = append(lines, fmt.Sprintf("- **[%s]** %s (%s)", e.Category, e.Description, e.Date))
		}
		files = append(files, models.ExportFile{
			Name:    "changelog.md",
			Content: fmt.Sprintf("# %s - Changelog\n\n%s", name, strings.Join(lines, "\n")),
		})
	}
	return files
}
