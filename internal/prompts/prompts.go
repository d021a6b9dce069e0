// internal/prompts/prompts.go
package prompts

import (
	"fmt"
	"strings"

	"github.com/Corphon/CurriculumDesigner/internal/models"
)

// System is the system prompt for every create-mode step.
const System = `You are an expert instructional designer helping users build structured, modern curricula.

Write well-structured Markdown: clear headings, bullet points, tables.

Apply these patterns where they fit:
- Problem-First: open with a concrete problem before the theory that solves it.
- Theory-to-Practice: definitions first when examples need the vocabulary.
- Scaffolding: simplest form first, then add layers and edge cases.
- Recap and Refresh: briefly revisit prerequisite concepts from earlier modules.

Use Bloom's taxonomy verbs for learning objectives, include concrete examples, design hands-on exercises with clear steps and expected outcomes, and suggest current tools and resources.`

// EnhanceSystem is the system prompt for enhance-mode steps.
const EnhanceSystem = System + `

You are now improving an EXISTING curriculum. Highlight strengths before gaps, estimate recency from the tools and concepts mentioned, separate outdated content from missing topics and opportunities, and keep every change coherent with the existing course.
Proposal categories: update-outdated, add-modules, refresh-examples, add-delivery, enhance-assessments, add-interactive. Impact: high, medium or low.`

var audienceLabels = map[models.Audience]string{
	models.AudienceBeginners:    "Beginners (no prior knowledge)",
	models.AudienceIntermediate: "Intermediate (some background)",
	models.AudienceAdvanced:     "Advanced (experienced practitioners)",
	models.AudienceMixed:        "Mixed levels",
}

var formatLabels = map[models.CourseFormat]string{
	models.FormatSemester:  "University Semester (15 weeks)",
	models.FormatBootcamp:  "Intensive Bootcamp (4-8 weeks)",
	models.FormatWorkshop:  "Workshop Series (multiple sessions)",
	models.FormatSelfPaced: "Self-Paced Online Course",
}

var philosophyLabels = map[models.Philosophy]string{
	models.PhilosophyProjectBased: "Project-Based (learn by building)",
	models.PhilosophyTheoryFirst:  "Theory-First (concepts then application)",
	models.PhilosophyProblemBased: "Problem-Based (real-world challenges)",
	models.PhilosophyHandsOn:      "Hands-On Labs (guided exercises)",
}

var assessmentLabels = map[models.AssessmentType]string{
	models.AssessmentQuizzes:     "Quizzes (knowledge checks with answer keys)",
	models.AssessmentLabs:        "Practical Labs (hands-on skill assessments)",
	models.AssessmentProjects:    "Projects (applied learning with milestones)",
	models.AssessmentWritten:     "Written Assignments (analysis and reflection)",
	models.AssessmentPeerReviews: "Peer Reviews (collaborative assessment forms)",
	models.AssessmentPortfolio:   "Portfolio Assessment (cumulative demonstration)",
}

var deliveryLabels = map[models.DeliveryFormat]string{
	models.DeliverySlides:       "Slide Decks (Markdown slides)",
	models.DeliveryJupyter:      "Jupyter Notebooks (interactive coding lessons)",
	models.DeliveryLMS:          "LMS Package Structure (Canvas/Moodle)",
	models.DeliveryVideoScripts: "Video Course Scripts (with production notes)",
	models.DeliveryGitHubRepo:   "GitHub Repository Structure (code and docs)",
}

func label[K comparable](labels map[K]string, k K) string {
	if l, ok := labels[k]; ok {
		return l
	}
	return fmt.Sprint(k)
}

// courseLine is the one-sentence course context most prompts open with.
func courseLine(ci *models.CourseInfo) string {
	return fmt.Sprintf("I'm designing a course on %q for %s students using a %s approach in a %s format.",
		ci.Topic, ci.Audience, ci.Philosophy, ci.Format)
}

func moduleRef(index int, m *models.Module) string {
	ref := fmt.Sprintf("Module %d: %q", index+1, m.Name)
	if m.Description != "" {
		ref += " (" + m.Description + ")"
	}
	return ref
}

// completedModules lists earlier modules that already have content.
func completedModules(modules []models.Module) string {
	var lines []string
	for _, m := range modules {
		if m.Status == models.StatusComplete && m.Content != "" {
			lines = append(lines, fmt.Sprintf("Module %d: %s", len(lines)+1, m.Name))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "**Previously completed modules:**\n" + strings.Join(lines, "\n") + "\n\n"
}

func bulletList(lines []string, empty string) string {
	if len(lines) == 0 {
		return empty
	}
	return strings.Join(lines, "\n")
}

const jsonOnly = "**Respond with ONLY valid JSON, no other text:**"

const blockFooter = "**IMPORTANT: after all the readable content above, append the structured JSON block(s) exactly as shown. They are parsed by the app and must be valid JSON.**"
