package prompts

import (
	"strings"
	"testing"

	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/stretchr/testify/assert"
)

var course = &models.CourseInfo{
	Topic:      "Rust",
	Audience:   models.AudienceIntermediate,
	Format:     models.FormatWorkshop,
	Philosophy: models.PhilosophyHandsOn,
}

func TestResearchRequestsBothBlocks(t *testing.T) {
	p := Research(course)
	assert.Contains(t, p, "**Topic:** Rust")
	assert.Contains(t, p, "Intermediate (some background)")
	assert.Contains(t, p, "```json-landscape")
	assert.Contains(t, p, "```json-modules")
}

func TestPrerequisitesListsCompletedModulesOnly(t *testing.T) {
	modules := []models.Module{
		{Name: "Ownership", Status: models.StatusComplete, Content: "done"},
		{Name: "Traits", Status: models.StatusPending},
		{Name: "Async", Status: models.StatusPending},
	}
	p := Prerequisites(course, modules, 2)
	assert.Contains(t, p, "Module 1: Ownership")
	assert.NotContains(t, p, "Traits")
	assert.Contains(t, p, `Module 3: "Async" of 3`)
}

func TestConceptsSkipsSkippedPrerequisites(t *testing.T) {
	m := &models.Module{Name: "Traits", Prerequisites: []models.Prerequisite{
		{Name: "Structs", Status: models.PrereqInclude},
		{Name: "Enums", Status: models.PrereqRecap},
		{Name: "Variables", Status: models.PrereqSkip},
	}}
	p := Concepts(course, m, 1)
	assert.Contains(t, p, "- Structs (will be taught)")
	assert.Contains(t, p, "- Enums (quick recap)")
	assert.NotContains(t, p, "Variables")

	m.Prerequisites = m.Prerequisites[2:]
	assert.Contains(t, Concepts(course, m, 1), "(none, the audience already knows all prerequisites)")
}

func TestModuleContentUsesEnabledItemsInOrder(t *testing.T) {
	modules := []models.Module{{
		Name: "Traits",
		LessonPlan: &models.LessonPlan{
			Lessons: []models.LessonPlanItem{
				{Title: "Second", Order: 2, Enabled: true},
				{Title: "Dropped", Order: 1, Enabled: false},
				{Title: "First", Order: 0, Enabled: true},
			},
			Activities: []models.ActivityItem{
				{Title: "Pair lab", Type: "group", Enabled: true},
				{Title: "Quiz game", Type: "interactive", Enabled: false},
			},
		},
	}}
	p := ModuleContent(course, modules, 0)
	assert.Less(t, strings.Index(p, "1. First"), strings.Index(p, "2. Second"))
	assert.NotContains(t, p, "Dropped")
	assert.Contains(t, p, "- [group] Pair lab")
	assert.NotContains(t, p, "Quiz game")
	assert.Contains(t, p, "# Module 1: Traits")
}

func TestAssessmentsIncludesOnlySelectedGuides(t *testing.T) {
	p := Assessments(course, []models.Module{{Name: "A"}}, []models.AssessmentType{models.AssessmentLabs})
	assert.Contains(t, p, "### Practical Labs")
	assert.NotContains(t, p, "### Quizzes")
	assert.Contains(t, p, "1. A")
}

func TestWhatsNewDropsSkippedGaps(t *testing.T) {
	r := &models.AnalysisReport{
		CourseName: "Web Dev",
		Gaps: []models.GapItem{
			{Type: models.GapMissing, Description: "No testing", Action: models.GapInclude},
			{Type: models.GapOutdated, Description: "jQuery", Action: models.GapSkip},
			{Type: models.GapOpportunity, Description: "AI tools", Action: models.GapDefer},
		},
	}
	p := WhatsNew(r)
	assert.Contains(t, p, "- [missing] No testing")
	assert.NotContains(t, p, "jQuery")
	assert.Contains(t, p, "- [opportunity, deferred] AI tools")
	assert.Contains(t, p, "```json-whatsnew")
}

func TestResearchSummaryPrefersSelectedItems(t *testing.T) {
	doc := &models.EnhancementDocument{
		WhatsNewContent: "raw report",
		WhatsNewItems: []models.WhatsNewItem{
			{Category: models.WhatsNewTrends, Title: "Edge", Summary: "s1", Selected: true},
			{Title: "Ignored", Selected: false},
		},
	}
	assert.Equal(t, "- [industry-trends] Edge: s1", ResearchSummary(doc))

	doc.WhatsNewItems[0].Selected = false
	assert.Equal(t, "raw report", ResearchSummary(doc))
}

func TestTargetedUpdateRevision(t *testing.T) {
	u := Update{
		Proposal: models.EnhancementProposal{Title: "Add testing", Category: models.CategoryAddModules},
		Research: strings.Repeat("x", researchExcerpt+50),
	}
	p := TargetedUpdate(u)
	assert.Contains(t, p, "```json-change")
	assert.Contains(t, p, `"title": "Add testing"`)
	assert.NotContains(t, p, strings.Repeat("x", researchExcerpt+1))
	assert.NotContains(t, p, "Revision request")

	u.Feedback = "more examples"
	u.PreviousAfter = "old draft"
	p = TargetedUpdate(u)
	assert.Contains(t, p, "Reviewer feedback: more examples")
	assert.Contains(t, p, "old draft")
}
