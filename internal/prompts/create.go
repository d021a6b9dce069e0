// internal/prompts/create.go
package prompts

import (
	"fmt"
	"strings"

	"github.com/Corphon/CurriculumDesigner/internal/models"
)

// Research asks for the topic landscape and module breakdown, each followed
// by its structured block.
func Research(ci *models.CourseInfo) string {
	format := label(formatLabels, ci.Format)
	audience := label(audienceLabels, ci.Audience)

	return fmt.Sprintf(`I'm designing a course with these specifications:

- **Topic:** %s
- **Target Audience:** %s
- **Format:** %s
- **Teaching Philosophy:** %s

Please generate TWO sections.

## SECTION 1: Topic Landscape

### Current Trends
4-6 current trends with brief explanations.

### Essential Tools & Technologies
4-6 tools or frameworks and why they matter.

### Recommended Resources
4-6 books, courses or online resources.

### Industry Context
How the topic is used in practice (2-3 paragraphs).

## SECTION 2: Suggested Module Breakdown

For a %s format targeting %s, propose 5-8 modules as a numbered list with title, one-line description and estimated duration. Each module builds on the previous ones.

---

%s

`+"```json-landscape"+`
{
  "trends": [{ "name": "Trend", "description": "Brief explanation" }],
  "tools": [{ "name": "Tool", "description": "Why it matters", "category": "Category" }],
  "resources": [{ "title": "Title", "type": "book|course|website|tutorial", "description": "Brief description" }],
  "industryContext": "A paragraph or two about industry usage."
}
`+"```"+`

`+"```json-modules"+`
[
  { "name": "Module Title", "description": "One-line description", "estimatedDuration": "e.g. 2 weeks" }
]
`+"```",
		ci.Topic, audience, format, label(philosophyLabels, ci.Philosophy),
		strings.ToLower(format), strings.ToLower(audience), blockFooter)
}

// Prerequisites starts the interview for one module.
func Prerequisites(ci *models.CourseInfo, modules []models.Module, index int) string {
	m := &modules[index]
	return fmt.Sprintf(`%s

%sFor %s of %d:

Propose 3-5 prerequisites students need before this module. For each, suggest include (teach it here), recap (brief review) or skip (the %s audience already knows it).

%s

{
  "prerequisites": [
    { "name": "Prerequisite", "description": "Why it is needed", "status": "include|recap|skip" }
  ]
}`, courseLine(ci), completedModules(modules[:index]), moduleRef(index, m), len(modules), ci.Audience, jsonOnly)
}

// activePrereqLines lists non-skipped prerequisites.
func activePrereqLines(prereqs []models.Prerequisite, include, recap string) []string {
	var lines []string
	for _, p := range prereqs {
		switch p.Status {
		case models.PrereqSkip:
			continue
		case models.PrereqInclude:
			lines = append(lines, fmt.Sprintf("- %s (%s)", p.Name, include))
		default:
			lines = append(lines, fmt.Sprintf("- %s (%s)", p.Name, recap))
		}
	}
	return lines
}

// Concepts continues the interview from the confirmed prerequisites.
func Concepts(ci *models.CourseInfo, m *models.Module, index int) string {
	return fmt.Sprintf(`%s

For %s

**Confirmed prerequisites:**
%s

Propose 4-6 core concepts for this module, each with a priority: emphasize (most important), normal, or optional (deep-dive for advanced students).

%s

{
  "concepts": [
    { "name": "Concept", "description": "What it covers and why it matters", "priority": "emphasize|normal|optional" }
  ]
}`, courseLine(ci), moduleRef(index, m),
		bulletList(activePrereqLines(m.Prerequisites, "will be taught", "quick recap"), "(none, the audience already knows all prerequisites)"),
		jsonOnly)
}

func conceptLines(concepts []models.CoreConcept) []string {
	lines := make([]string, 0, len(concepts))
	for _, c := range concepts {
		lines = append(lines, fmt.Sprintf("- %s [%s]: %s", c.Name, c.Priority, c.Description))
	}
	return lines
}

// Lessons asks for the lesson plan from confirmed prerequisites and concepts.
func Lessons(ci *models.CourseInfo, m *models.Module, index int) string {
	return fmt.Sprintf(`%s

For %s

**Prerequisites:**
%s

**Core concepts to cover:**
%s

Propose:
1. **Lessons**: 3-5 lessons that sequence the concepts, each with a teaching approach (Problem-First, Theory-to-Practice, Scaffolding, Hands-On Demo).
2. **Activities**: 3-4 activities (hands-on, interactive, group, individual).

%s

{
  "lessons": [
    { "title": "Lesson", "description": "What it covers", "teachingApproach": "Problem-First|Theory-to-Practice|Scaffolding|Hands-On Demo" }
  ],
  "activities": [
    { "title": "Activity", "description": "What students do", "type": "hands-on|interactive|group|individual" }
  ]
}`, courseLine(ci), moduleRef(index, m),
		bulletList(activePrereqLines(m.Prerequisites, "teach", "recap"), "(none)"),
		bulletList(conceptLines(m.CoreConcepts), "(none)"),
		jsonOnly)
}

var prereqMarks = map[models.PrerequisiteStatus]string{
	models.PrereqInclude: "[include]",
	models.PrereqRecap:   "[recap]",
	models.PrereqSkip:    "[skip]",
}

// ModuleContent generates the full module from the approved interview.
// Disabled lessons and activities are left out.
func ModuleContent(ci *models.CourseInfo, modules []models.Module, index int) string {
	m := &modules[index]

	prereqs := make([]string, 0, len(m.Prerequisites))
	for _, p := range m.Prerequisites {
		prereqs = append(prereqs, fmt.Sprintf("%s %s: %s", prereqMarks[p.Status], p.Name, p.Description))
	}

	var lessons []string
	for i, l := range m.LessonPlan.EnabledLessons() {
		lessons = append(lessons, fmt.Sprintf("%d. %s (%s): %s", i+1, l.Title, l.TeachingApproach, l.Description))
	}
	var activities []string
	for _, a := range m.LessonPlan.EnabledActivities() {
		activities = append(activities, fmt.Sprintf("- [%s] %s: %s", a.Type, a.Title, a.Description))
	}

	return fmt.Sprintf(`%s

%s**Approved interview for %s**

**Prerequisites:**
%s

**Core Concepts:**
%s

**Lesson Plan:**
%s

**Activities:**
%s

---

Now generate the full module content using this structure:

# Module %d: %s

## Learning Objectives
4-6 specific, measurable objectives using Bloom's taxonomy verbs.

## Lesson N: [Title]
### Overview
### Key Concepts
### Hands-On Exercise
### Discussion Questions

(one Lesson section per lesson in the approved plan)

## Module Summary
Key takeaways and preparation for the next module.

Apply the teaching approach given for each lesson. Weave "include" prerequisites into the early lessons and open with a short review of "recap" items.`,
		courseLine(ci), completedModules(modules[:index]), moduleRef(index, m),
		bulletList(prereqs, "(none)"),
		bulletList(conceptLines(m.CoreConcepts), "(none)"),
		bulletList(lessons, "(none)"),
		bulletList(activities, "(none)"),
		index+1, m.Name)
}

// DeepDive explains one concept. The reply is a bare JSON object.
func DeepDive(ci *models.CourseInfo, moduleName string, concept models.CoreConcept) string {
	ref := "**" + concept.Name + "**"
	if concept.Description != "" {
		ref += " (" + concept.Description + ")"
	}
	return fmt.Sprintf(`%s

In the module %q there's a concept: %s.

Provide a mini deep-dive: a clear explanation, why it matters, 3-5 sub-topics, 2-3 common misconceptions with corrections, and one concrete teaching tip.

%s

{
  "explanation": "Clear explanation paragraphs",
  "whyItMatters": "Real-world relevance",
  "subTopics": ["Sub-topic: brief description"],
  "misconceptions": ["What students think. What is actually true."],
  "teachingTip": "A concrete teaching suggestion"
}`, courseLine(ci), moduleName, ref, jsonOnly)
}

func moduleList(modules []models.Module) string {
	lines := make([]string, 0, len(modules))
	for i, m := range modules {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, m.Name))
	}
	return bulletList(lines, "(none)")
}

var assessmentGuides = map[models.AssessmentType]string{
	models.AssessmentQuizzes:     "### Quizzes\nPer module: duration and points, 3-5 multiple choice questions with explanations, 2-3 short answer questions with rubrics.",
	models.AssessmentLabs:        "### Practical Labs\n2-3 labs spanning modules: objectives, requirements with point values, a grading rubric table.",
	models.AssessmentProjects:    "### Projects\n1-2 projects: outcomes assessed, 2-3 milestones with deliverables, final submission requirements, rubric.",
	models.AssessmentWritten:     "### Written Assignments\n2-3 analysis or reflection prompts with word counts and grading criteria.",
	models.AssessmentPeerReviews: "### Peer Review Forms\nA review template: checklist, strengths, areas for improvement, questions, rating scale.",
	models.AssessmentPortfolio:   "### Portfolio Assessment\nRequired artifacts per module, reflection requirements, presentation expectations, holistic rubric.",
}

// Assessments covers the selected assessment types across all modules.
func Assessments(ci *models.CourseInfo, modules []models.Module, types []models.AssessmentType) string {
	selected := make([]string, 0, len(types))
	guides := make([]string, 0, len(types))
	for _, t := range types {
		selected = append(selected, "- "+label(assessmentLabels, t))
		if g, ok := assessmentGuides[t]; ok {
			guides = append(guides, g)
		}
	}
	return fmt.Sprintf(`I'm designing assessments for a course on %q for %s students in a %s format.

**Course Modules:**
%s

**Selected Assessment Types:**
%s

Generate assessments for each selected type:

%s

## Assessment Calendar

| Week | Module | Assessment | Type | Weight |
|------|--------|------------|------|--------|

End with a grade breakdown summary.`,
		ci.Topic, ci.Audience, ci.Format, moduleList(modules),
		strings.Join(selected, "\n"), strings.Join(guides, "\n\n"))
}

var deliveryGuides = map[models.DeliveryFormat]string{
	models.DeliverySlides:       "## Slide Deck Template (Module 1)\nTitle, objectives, agenda, concept slides (max 3 bullets), code examples, exercise, takeaways, Q&A. Use --- separators.",
	models.DeliveryJupyter:      "## Jupyter Notebook Template (Module 1)\nSetup cells, explanations, demo code, exercises with YOUR CODE HERE placeholders, self-check asserts.",
	models.DeliveryLMS:          "## LMS Package Structure\nDirectory tree, landing and lesson page templates, quiz format notes for Canvas and Moodle.",
	models.DeliveryVideoScripts: "## Video Script Template (Module 1, Lesson 1)\nPre-production checklist, timed sections with VISUAL: and SCRIPT: cues, post-production notes.",
	models.DeliveryGitHubRepo:   "## GitHub Repository Structure\nDirectory tree, README and SYLLABUS templates, starter/solution layout, autograding workflow.",
}

// Delivery covers the selected delivery formats, using Module 1 as the
// worked example.
func Delivery(ci *models.CourseInfo, modules []models.Module, formats []models.DeliveryFormat) string {
	selected := make([]string, 0, len(formats))
	guides := make([]string, 0, len(formats))
	for _, f := range formats {
		selected = append(selected, "- "+label(deliveryLabels, f))
		if g, ok := deliveryGuides[f]; ok {
			guides = append(guides, g)
		}
	}
	return fmt.Sprintf(`I'm creating delivery templates for a course on %q for %s students in a %s format using a %s approach.

**Course Modules:**
%s

**Selected Delivery Formats:**
%s

For each format, build a complete template for Module 1 and structure guidance for the rest.

%s

## Implementation Roadmap

A prioritized checklist with estimated effort per item.`,
		ci.Topic, ci.Audience, ci.Format, ci.Philosophy, moduleList(modules),
		strings.Join(selected, "\n"), strings.Join(guides, "\n\n"))
}
