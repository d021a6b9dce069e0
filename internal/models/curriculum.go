// internal/models/curriculum.go
package models

import (
	"strings"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
)

type Audience string

const (
	AudienceBeginners    Audience = "beginners"
	AudienceIntermediate Audience = "intermediate"
	AudienceAdvanced     Audience = "advanced"
	AudienceMixed        Audience = "mixed"
)

type CourseFormat string

const (
	FormatSemester  CourseFormat = "semester"
	FormatBootcamp  CourseFormat = "bootcamp"
	FormatWorkshop  CourseFormat = "workshop"
	FormatSelfPaced CourseFormat = "self-paced"
)

type Philosophy string

const (
	PhilosophyProjectBased Philosophy = "project-based"
	PhilosophyTheoryFirst  Philosophy = "theory-first"
	PhilosophyProblemBased Philosophy = "problem-based"
	PhilosophyHandsOn      Philosophy = "hands-on"
)

// CourseInfo is required before any create-mode generation call.
type CourseInfo struct {
	Topic      string       `json:"topic"`
	Audience   Audience     `json:"audience"`
	Format     CourseFormat `json:"format"`
	Philosophy Philosophy   `json:"philosophy"`
}

// Validate checks the required fields and enum values.
func (c *CourseInfo) Validate() error {
	if c == nil {
		return apperrors.NewValidationError("course info is required", nil)
	}
	if strings.TrimSpace(c.Topic) == "" {
		return apperrors.NewValidationError("topic is required", nil)
	}
	switch c.Audience {
	case AudienceBeginners, AudienceIntermediate, AudienceAdvanced, AudienceMixed:
	default:
		return apperrors.NewValidationError("invalid audience: "+string(c.Audience), nil)
	}
	switch c.Format {
	case FormatSemester, FormatBootcamp, FormatWorkshop, FormatSelfPaced:
	default:
		return apperrors.NewValidationError("invalid format: "+string(c.Format), nil)
	}
	switch c.Philosophy {
	case PhilosophyProjectBased, PhilosophyTheoryFirst, PhilosophyProblemBased, PhilosophyHandsOn:
	default:
		return apperrors.NewValidationError("invalid philosophy: "+string(c.Philosophy), nil)
	}
	return nil
}

type TrendItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Included    bool   `json:"included"`
}

type ToolItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Included    bool   `json:"included"`
}

type ResourceItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
	Included    bool   `json:"included"`
}

// Landscape item categories accepted by TopicLandscape.ToggleItem.
const (
	LandscapeTrends    = "trends"
	LandscapeTools     = "tools"
	LandscapeResources = "resources"
)

type TopicLandscape struct {
	Trends          []TrendItem    `json:"trends"`
	Tools           []ToolItem     `json:"tools"`
	Resources       []ResourceItem `json:"resources"`
	IndustryContext string         `json:"industryContext"`
}

// ToggleItem flips the included flag of one item. It reports whether the
// item was found.
func (l *TopicLandscape) ToggleItem(category, id string) bool {
	switch category {
	case LandscapeTrends:
		for i := range l.Trends {
			if l.Trends[i].ID == id {
				l.Trends[i].Included = !l.Trends[i].Included
				return true
			}
		}
	case LandscapeTools:
		for i := range l.Tools {
			if l.Tools[i].ID == id {
				l.Tools[i].Included = !l.Tools[i].Included
				return true
			}
		}
	case LandscapeResources:
		for i := range l.Resources {
			if l.Resources[i].ID == id {
				l.Resources[i].Included = !l.Resources[i].Included
				return true
			}
		}
	}
	return false
}

type SuggestedModule struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	EstimatedDuration string `json:"estimatedDuration"`
}

type ModuleStatus string

const (
	StatusPending ModuleStatus = "pending"

	// Written by an older single-shot flow. Still rendered, never entered.
	StatusProposing ModuleStatus = "proposing"
	StatusProposed  ModuleStatus = "proposed"
	StatusApproved  ModuleStatus = "approved"

	StatusInterviewingPrereqs  ModuleStatus = "interviewing-prereqs"
	StatusPrereqsConfirmed     ModuleStatus = "prereqs-confirmed"
	StatusInterviewingConcepts ModuleStatus = "interviewing-concepts"
	StatusConceptsConfirmed    ModuleStatus = "concepts-confirmed"
	StatusInterviewingLessons  ModuleStatus = "interviewing-lessons"
	StatusLessonsApproved      ModuleStatus = "lessons-approved"

	StatusGenerating ModuleStatus = "generating"
	StatusComplete   ModuleStatus = "complete"
)

func (s ModuleStatus) IsLegacy() bool {
	return s == StatusProposing || s == StatusProposed || s == StatusApproved
}

type PrerequisiteStatus string

const (
	PrereqInclude PrerequisiteStatus = "include"
	PrereqRecap   PrerequisiteStatus = "recap"
	PrereqSkip    PrerequisiteStatus = "skip"
)

type Prerequisite struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Status      PrerequisiteStatus `json:"status"`
}

type ConceptPriority string

const (
	PriorityEmphasize ConceptPriority = "emphasize"
	PriorityNormal    ConceptPriority = "normal"
	PriorityOptional  ConceptPriority = "optional"
)

type CoreConcept struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Priority    ConceptPriority `json:"priority"`
}

type LessonPlanItem struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	TeachingApproach string `json:"teachingApproach"`
	Order            int    `json:"order"`
	Enabled          bool   `json:"enabled"`
}

type ActivityItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Enabled     bool   `json:"enabled"`
}

type LessonPlan struct {
	Lessons    []LessonPlanItem `json:"lessons"`
	Activities []ActivityItem   `json:"activities"`
}

// EnabledLessons returns the enabled lessons sorted by Order.
func (p *LessonPlan) EnabledLessons() []LessonPlanItem {
	if p == nil {
		return nil
	}
	out := make([]LessonPlanItem, 0, len(p.Lessons))
	for _, l := range p.Lessons {
		if l.Enabled {
			out = append(out, l)
		}
	}
	// insertion sort keeps equal orders stable
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Order < out[j-1].Order; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (p *LessonPlan) EnabledActivities() []ActivityItem {
	if p == nil {
		return nil
	}
	out := make([]ActivityItem, 0, len(p.Activities))
	for _, a := range p.Activities {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out
}

// Module is one unit of the curriculum. Interview payloads are filled stage
// by stage; Content is set only on completion.
type Module struct {
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Status        ModuleStatus   `json:"status"`
	Proposal      string         `json:"proposal,omitempty"`
	Content       string         `json:"content,omitempty"`
	Prerequisites []Prerequisite `json:"prerequisites"`
	CoreConcepts  []CoreConcept  `json:"coreConcepts"`
	LessonPlan    *LessonPlan    `json:"lessonPlan"`
}

type AssessmentType string

const (
	AssessmentQuizzes     AssessmentType = "quizzes"
	AssessmentLabs        AssessmentType = "labs"
	AssessmentProjects    AssessmentType = "projects"
	AssessmentWritten     AssessmentType = "written"
	AssessmentPeerReviews AssessmentType = "peer-reviews"
	AssessmentPortfolio   AssessmentType = "portfolio"
)

func (a AssessmentType) Valid() bool {
	switch a {
	case AssessmentQuizzes, AssessmentLabs, AssessmentProjects, AssessmentWritten, AssessmentPeerReviews, AssessmentPortfolio:
		return true
	}
	return false
}

type DeliveryFormat string

const (
	DeliverySlides       DeliveryFormat = "slides"
	DeliveryJupyter      DeliveryFormat = "jupyter"
	DeliveryLMS          DeliveryFormat = "lms"
	DeliveryVideoScripts DeliveryFormat = "video-scripts"
	DeliveryGitHubRepo   DeliveryFormat = "github-repo"
)

func (d DeliveryFormat) Valid() bool {
	switch d {
	case DeliverySlides, DeliveryJupyter, DeliveryLMS, DeliveryVideoScripts, DeliveryGitHubRepo:
		return true
	}
	return false
}

// MaxPhase is the last wizard phase index in either mode.
const MaxPhase = 4

// CurriculumDocument is the create-mode aggregate.
type CurriculumDocument struct {
	CourseInfo                 *CourseInfo       `json:"courseInfo"`
	TopicLandscape             string            `json:"topicLandscape"`
	TopicLandscapeStructured   *TopicLandscape   `json:"topicLandscapeStructured"`
	SuggestedModules           string            `json:"suggestedModules"`
	SuggestedModulesStructured []SuggestedModule `json:"suggestedModulesStructured"`
	Modules                    []Module          `json:"modules"`
	CurrentModuleIndex         int               `json:"currentModuleIndex"`
	SelectedAssessmentTypes    []AssessmentType  `json:"selectedAssessmentTypes"`
	AssessmentsContent         string            `json:"assessmentsContent"`
	SelectedDeliveryFormats    []DeliveryFormat  `json:"selectedDeliveryFormats"`
	DeliveryContent            string            `json:"deliveryContent"`
	CurrentPhase               int               `json:"currentPhase"`
}

// Module returns a pointer to the module at index, or a not-found error.
func (d *CurriculumDocument) Module(index int) (*Module, error) {
	if index < 0 || index >= len(d.Modules) {
		return nil, apperrors.NewNotFoundError("module not found", nil)
	}
	return &d.Modules[index], nil
}

// AdvancePhase moves the cursor forward only.
func (d *CurriculumDocument) AdvancePhase(phase int) {
	if phase > MaxPhase {
		phase = MaxPhase
	}
	if phase > d.CurrentPhase {
		d.CurrentPhase = phase
	}
}
