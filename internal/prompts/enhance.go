// internal/prompts/enhance.go
package prompts

import (
	"fmt"
	"strings"

	"github.com/Corphon/CurriculumDesigner/internal/models"
)

// researchExcerpt caps how much what's-new text a targeted update carries.
const researchExcerpt = 2000

// Analysis is the only prompt that sees raw uploaded file contents.
func Analysis(files []models.UploadedFile) string {
	parts := make([]string, 0, len(files))
	for i, f := range files {
		parts = append(parts, fmt.Sprintf("--- FILE %d: %s ---\n%s\n--- END FILE %d ---", i+1, f.Name, f.Content, i+1))
	}

	return fmt.Sprintf(`Please analyze the following curriculum materials:

%s

Provide these sections:

## Course Overview
Course name, format, depth level and number of modules.

## Content Inventory
Per module: name, topics covered, estimated recency, and status (current, needs-update or outdated).

## Strengths
3-5 things the curriculum does well.

## Gaps & Opportunities
Each gap tagged missing, outdated or opportunity.

---

%s

`+"```json-analysis"+`
{
  "courseName": "Detected course name",
  "moduleCount": 5,
  "format": "e.g. semester, bootcamp, self-paced",
  "depth": "e.g. introductory, intermediate, advanced",
  "contentInventory": [
    { "moduleName": "Module", "topicsCovered": ["topic"], "estimatedRecency": "e.g. 2023", "status": "current|needs-update|outdated" }
  ],
  "gaps": [{ "type": "missing|outdated|opportunity", "description": "Description" }],
  "strengths": [{ "description": "Strength" }]
}
`+"```", strings.Join(parts, "\n\n"), blockFooter)
}

func inventoryLines(r *models.AnalysisReport, withTopics bool) []string {
	lines := make([]string, 0, len(r.ContentInventory))
	for _, item := range r.ContentInventory {
		if withTopics {
			lines = append(lines, fmt.Sprintf("- %s (%s, ~%s): %s",
				item.ModuleName, item.Status, item.EstimatedRecency, strings.Join(item.TopicsCovered, ", ")))
		} else {
			lines = append(lines, fmt.Sprintf("- %s (%s)", item.ModuleName, item.Status))
		}
	}
	return lines
}

// gapLines drops skipped gaps and marks deferred ones.
func gapLines(r *models.AnalysisReport) []string {
	var lines []string
	for _, g := range r.Gaps {
		switch g.Action {
		case models.GapSkip:
			continue
		case models.GapDefer:
			lines = append(lines, fmt.Sprintf("- [%s, deferred] %s", g.Type, g.Description))
		default:
			lines = append(lines, fmt.Sprintf("- [%s] %s", g.Type, g.Description))
		}
	}
	return lines
}

// keptStrengths lists strengths the user chose to keep.
func keptStrengths(r *models.AnalysisReport) []string {
	var lines []string
	for _, s := range r.Strengths {
		if s.Action != models.StrengthDeEmphasize {
			lines = append(lines, "- "+s.Description)
		}
	}
	return lines
}

// WhatsNew researches the field from the structured analysis only.
func WhatsNew(r *models.AnalysisReport) string {
	return fmt.Sprintf(`I have an existing curriculum for %q with %d modules at the %s level (%s format).

Content inventory:
%s

Identified gaps:
%s

Write a "What's New" report with these sections:

## Recent Developments
## Industry Trends
## Updated Resources
## Pedagogical Updates

Focus on gaps and outdated content. Name exact tools, versions and resources.

---

%s

`+"```json-whatsnew"+`
{
  "items": [
    { "category": "recent-developments|industry-trends|updated-resources|pedagogical-updates", "title": "Finding", "summary": "One sentence", "details": "A short paragraph" }
  ]
}
`+"```",
		r.CourseName, r.ModuleCount, r.Depth, r.Format,
		bulletList(inventoryLines(r, true), "(none)"),
		bulletList(gapLines(r), "(none)"),
		blockFooter)
}

// ResearchSummary is the research context handed to later steps: the
// selected what's-new items when there are any, otherwise the raw report.
func ResearchSummary(doc *models.EnhancementDocument) string {
	var lines []string
	for _, item := range doc.WhatsNewItems {
		if item.Selected {
			lines = append(lines, fmt.Sprintf("- [%s] %s: %s", item.Category, item.Title, item.Summary))
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "\n")
	}
	return doc.WhatsNewContent
}

// Proposals asks for enhancement proposals as a bare JSON object.
func Proposals(r *models.AnalysisReport, research string) string {
	return fmt.Sprintf(`Based on the analysis of %q and recent research, generate specific enhancement proposals.

Current modules:
%s

Identified gaps:
%s

Strengths to keep:
%s

Recent research findings:
%s

Generate 6-10 proposals, each with a title, a detailed description, a category (update-outdated, add-modules, refresh-examples, add-delivery, enhance-assessments, add-interactive) and an impact (high, medium, low).

%s

{
  "proposals": [
    { "category": "update-outdated", "title": "Proposal title", "description": "Detailed description", "impact": "high|medium|low" }
  ]
}`, r.CourseName,
		bulletList(inventoryLines(r, false), "(none)"),
		bulletList(gapLines(r), "(none)"),
		bulletList(keptStrengths(r), "(none)"),
		research, jsonOnly)
}

// Update carries the inputs of one targeted change.
type Update struct {
	Proposal models.EnhancementProposal
	Report   *models.AnalysisReport
	Research string
	// Set when regenerating.
	Feedback      string
	PreviousAfter string
}

// TargetedUpdate generates the content for one proposal, ending with a
// json-change block.
func TargetedUpdate(u Update) string {
	p := u.Proposal
	research := u.Research
	if r := []rune(research); len(r) > researchExcerpt {
		research = string(r[:researchExcerpt])
	}

	courseName, inventory := "", "(none)"
	if u.Report != nil {
		courseName = u.Report.CourseName
		inventory = bulletList(inventoryLines(u.Report, true), "(none)")
	}

	var revision string
	if u.Feedback != "" {
		revision = fmt.Sprintf("\n**Revision request.** A previous version was reviewed:\n\n%s\n\nReviewer feedback: %s\n\nRevise the update to address the feedback.\n", u.PreviousAfter, u.Feedback)
	}

	return fmt.Sprintf(`Generate a specific curriculum update for this enhancement:

**Enhancement:** %s
**Category:** %s
**Description:** %s

**Current curriculum %q:**
%s

**Recent research findings (summary):**
%s
%s
Write the update:

## Enhancement: %s

### What Changes
Exactly what is added, updated or modified.

### Updated Content
Curriculum-ready content: objectives, explanations, examples, exercises, discussion questions. For updates to existing content, make clear what was before and what is after.

---

%s

`+"```json-change"+`
{
  "title": %q,
  "before": "Brief summary of the original content, or null for a new addition",
  "after": "Brief summary of the updated or new content"
}
`+"```",
		p.Title, p.Category, p.Description, courseName, inventory, research, revision,
		p.Title, blockFooter, p.Title)
}
