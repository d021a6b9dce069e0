// internal/services/curriculum_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Corphon/CurriculumDesigner/internal/blocks"
	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/interview"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/prompts"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
	"github.com/google/uuid"
)

// CurriculumService runs the create-mode wizard steps.
type CurriculumService struct {
	sessions *SessionService
	gen      *GenerationService
	locks    *LockManager
	logger   *utils.Logger
}

func NewCurriculumService(sessions *SessionService, gen *GenerationService, locks *LockManager, logger *utils.Logger) *CurriculumService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &CurriculumService{sessions: sessions, gen: gen, locks: locks, logger: logger}
}

// SetCourseInfo validates and stores the course description.
func (s *CurriculumService) SetCourseInfo(ctx context.Context, id string, ci models.CourseInfo) (*models.Session, error) {
	ci.Topic = strings.TrimSpace(ci.Topic)
	if err := ci.Validate(); err != nil {
		return nil, err
	}
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		if err := requireMode(sess, models.ModeCreate); err != nil {
			return err
		}
		sess.CourseInfo = &ci
		return nil
	})
}

// Research streams the topic landscape and suggested modules. The display
// text is split into the two raw sections; structured blocks are stored
// when they parse and cleared otherwise.
func (s *CurriculumService) Research(ctx context.Context, id string, onChunk func(string)) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireMode(sess, models.ModeCreate); err != nil {
		return nil, err
	}
	if err := sess.CourseInfo.Validate(); err != nil {
		return nil, err
	}

	release, ok := s.locks.TryAcquire(busyKey(id, StepResearch))
	if !ok {
		return nil, apperrors.NewConflictError("research is already running", nil)
	}
	defer release()

	full, err := s.gen.Stream(ctx, StepResearch, prompts.System, prompts.Research(sess.CourseInfo), onChunk)
	if err != nil {
		return nil, err
	}
	return s.sessions.Update(context.WithoutCancel(ctx), id, func(next *models.Session) error {
		d := &next.CurriculumDocument
		d.TopicLandscape, d.SuggestedModules = blocks.SplitResearch(blocks.Strip(full))
		d.TopicLandscapeStructured = nil
		if l, ok := blocks.ParseLandscape(full); ok {
			d.TopicLandscapeStructured = l
		}
		d.SuggestedModulesStructured = nil
		if mods, ok := blocks.ParseSuggestedModules(full); ok {
			d.SuggestedModulesStructured = mods
		}
		return nil
	})
}

// SetSuggestedModules replaces the suggested module list. The list order is
// the module order; adding, removing and reordering are all expressed by
// sending the new list.
func (s *CurriculumService) SetSuggestedModules(ctx context.Context, id string, modules []models.SuggestedModule) (*models.Session, error) {
	cleaned := make([]models.SuggestedModule, 0, len(modules))
	for i, m := range modules {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("module %d has no name", i+1), nil)
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		cleaned = append(cleaned, m)
	}
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		if err := requireMode(sess, models.ModeCreate); err != nil {
			return err
		}
		sess.SuggestedModulesStructured = cleaned
		return nil
	})
}

func (s *CurriculumService) ToggleLandscapeItem(ctx context.Context, id, category, itemID string) (*models.Session, error) {
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		if err := requireMode(sess, models.ModeCreate); err != nil {
			return err
		}
		if sess.TopicLandscapeStructured == nil || !sess.TopicLandscapeStructured.ToggleItem(category, itemID) {
			return apperrors.NewNotFoundError(fmt.Sprintf("landscape item %s/%s not found", category, itemID), nil)
		}
		return nil
	})
}

// ApproveModules turns the suggested modules into pending curriculum
// modules and moves the wizard to phase 1. Without structured suggestions
// the names are read from the numbered list in the raw text.
func (s *CurriculumService) ApproveModules(ctx context.Context, id string) (*models.Session, error) {
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		if err := requireMode(sess, models.ModeCreate); err != nil {
			return err
		}
		for i := range sess.Modules {
			if sess.Modules[i].Status == models.StatusGenerating || s.locks.Busy(moduleKey(sess.ID, i)) {
				return apperrors.NewConflictError("a module is being generated", nil)
			}
		}

		var modules []models.Module
		if len(sess.SuggestedModulesStructured) > 0 {
			for _, sm := range sess.SuggestedModulesStructured {
				if strings.TrimSpace(sm.Name) == "" {
					continue
				}
				modules = append(modules, models.Module{
					Name:        strings.TrimSpace(sm.Name),
					Description: sm.Description,
					Status:      models.StatusPending,
				})
			}
		} else {
			for _, name := range blocks.ParseModuleNames(sess.SuggestedModules) {
				modules = append(modules, models.Module{Name: name, Status: models.StatusPending})
			}
		}
		if len(modules) == 0 {
			return apperrors.NewValidationError("could not parse module names; edit the modules or re-generate", nil)
		}

		sess.Modules = modules
		sess.CurrentModuleIndex = 0
		sess.CurriculumDocument.AdvancePhase(1)
		return nil
	})
}

// ModulePatch carries user edits to a module's interview payloads. Nil
// fields are left alone. Each payload can only be edited while its own
// stage is open.
type ModulePatch struct {
	Name          *string               `json:"name,omitempty"`
	Prerequisites []models.Prerequisite `json:"prerequisites,omitempty"`
	CoreConcepts  []models.CoreConcept  `json:"coreConcepts,omitempty"`
	LessonPlan    *models.LessonPlan    `json:"lessonPlan,omitempty"`
}

// apply stores the patch on m. With a non-empty action only the payload
// that action confirms is accepted.
func (p *ModulePatch) apply(m *models.Module, action interview.Action) error {
	if p == nil {
		return nil
	}
	if !interview.EditableAt(m.Status) {
		return apperrors.NewConflictError(fmt.Sprintf("module %q can no longer be edited (%s)", m.Name, m.Status), nil)
	}
	confirms, _ := interview.Confirms(action)
	for _, f := range []struct {
		set     bool
		payload interview.Payload
	}{
		{p.Prerequisites != nil, interview.PayloadPrerequisites},
		{p.CoreConcepts != nil, interview.PayloadCoreConcepts},
		{p.LessonPlan != nil, interview.PayloadLessonPlan},
	} {
		if !f.set {
			continue
		}
		if !interview.PayloadEditable(m.Status, f.payload) {
			return apperrors.NewConflictError(fmt.Sprintf("%s of module %q cannot be edited while it is %s", f.payload, m.Name, m.Status), nil)
		}
		if action != "" && f.payload != confirms {
			return apperrors.NewConflictError(fmt.Sprintf("%s does not confirm %s", action, f.payload), nil)
		}
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return apperrors.NewValidationError("module name is required", nil)
		}
		m.Name = name
	}
	if p.Prerequisites != nil {
		prereqs := append([]models.Prerequisite{}, p.Prerequisites...)
		for i := range prereqs {
			switch prereqs[i].Status {
			case models.PrereqInclude, models.PrereqRecap, models.PrereqSkip:
			default:
				return apperrors.NewValidationError("invalid prerequisite status: "+string(prereqs[i].Status), nil)
			}
			if prereqs[i].ID == "" {
				prereqs[i].ID = uuid.NewString()
			}
		}
		m.Prerequisites = prereqs
	}
	if p.CoreConcepts != nil {
		concepts := append([]models.CoreConcept{}, p.CoreConcepts...)
		for i := range concepts {
			switch concepts[i].Priority {
			case models.PriorityEmphasize, models.PriorityNormal, models.PriorityOptional:
			default:
				return apperrors.NewValidationError("invalid concept priority: "+string(concepts[i].Priority), nil)
			}
			if concepts[i].ID == "" {
				concepts[i].ID = uuid.NewString()
			}
		}
		m.CoreConcepts = concepts
	}
	if p.LessonPlan != nil {
		plan := *p.LessonPlan
		plan.Lessons = append([]models.LessonPlanItem{}, plan.Lessons...)
		plan.Activities = append([]models.ActivityItem{}, plan.Activities...)
		for i := range plan.Lessons {
			if plan.Lessons[i].ID == "" {
				plan.Lessons[i].ID = uuid.NewString()
			}
		}
		for i := range plan.Activities {
			if plan.Activities[i].ID == "" {
				plan.Activities[i].ID = uuid.NewString()
			}
		}
		m.LessonPlan = &plan
	}
	return nil
}

// UpdateModule stores edits without advancing the interview.
func (s *CurriculumService) UpdateModule(ctx context.Context, id string, index int, patch ModulePatch) (*models.Session, error) {
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		if err := requireMode(sess, models.ModeCreate); err != nil {
			return err
		}
		m, err := sess.Module(index)
		if err != nil {
			return err
		}
		if s.locks.Busy(moduleKey(sess.ID, index)) {
			return apperrors.NewConflictError("module is being generated", nil)
		}
		return patch.apply(m, "")
	})
}

var interviewSteps = map[interview.Action]string{
	interview.ActionStart:           StepPrereqs,
	interview.ActionConfirmPrereqs:  StepConcepts,
	interview.ActionConfirmConcepts: StepLessons,
	interview.ActionApprovePlan:     StepModule,
}

// Interview runs one step of a module interview. The patch holds what the
// user confirmed for the current stage and is stored before the step
// starts. approve-plan streams the module content through onChunk; the
// other steps reply with JSON. On failure the module returns to its last
// confirmed stage.
func (s *CurriculumService) Interview(ctx context.Context, id string, index int, action interview.Action, patch *ModulePatch, onChunk func(string)) (*models.Session, error) {
	step, ok := interviewSteps[action]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown interview action %q", action), nil)
	}
	release, ok := s.locks.TryAcquire(moduleKey(id, index))
	if !ok {
		return nil, apperrors.NewConflictError("module is already being generated", nil)
	}
	defer release()

	var (
		t      interview.Transition
		prompt string
	)
	_, err := s.sessions.Update(ctx, id, func(sess *models.Session) error {
		if err := requireMode(sess, models.ModeCreate); err != nil {
			return err
		}
		if err := sess.CourseInfo.Validate(); err != nil {
			return err
		}
		m, err := sess.Module(index)
		if err != nil {
			return err
		}
		// we hold the module key, so a stored generating status is left
		// over from an interrupted call
		if m.Status == models.StatusGenerating {
			m.Status = models.StatusLessonsApproved
		}
		if err := patch.apply(m, action); err != nil {
			return err
		}
		if t, err = interview.Begin(m, action); err != nil {
			return err
		}
		sess.CurrentModuleIndex = index
		prompt = interviewPrompt(sess, index, action)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var full string
	if action == interview.ActionApprovePlan {
		full, err = s.gen.Stream(ctx, step, prompts.System, prompt, onChunk)
	} else {
		full, err = s.gen.Complete(ctx, step, prompts.System, prompt)
	}
	var store func(m *models.Module)
	if err == nil {
		store, err = interviewResult(action, full)
	}

	persist := context.WithoutCancel(ctx)
	if err != nil {
		s.logger.Warn("interview step failed", "session_id", id, "module", index, "action", action, "error", err)
		if _, rerr := s.sessions.Update(persist, id, func(sess *models.Session) error {
			m, err := sess.Module(index)
			if err != nil {
				return err
			}
			interview.Revert(m, t)
			return nil
		}); rerr != nil {
			s.logger.Error("revert module status", "session_id", id, "module", index, "error", rerr)
		}
		return nil, err
	}

	return s.sessions.Update(persist, id, func(sess *models.Session) error {
		m, err := sess.Module(index)
		if err != nil {
			return err
		}
		store(m)
		interview.Finish(m, t)
		return nil
	})
}

func interviewPrompt(sess *models.Session, index int, action interview.Action) string {
	ci, m := sess.CourseInfo, &sess.Modules[index]
	switch action {
	case interview.ActionStart:
		return prompts.Prerequisites(ci, sess.Modules, index)
	case interview.ActionConfirmPrereqs:
		return prompts.Concepts(ci, m, index)
	case interview.ActionConfirmConcepts:
		return prompts.Lessons(ci, m, index)
	default:
		return prompts.ModuleContent(ci, sess.Modules, index)
	}
}

// interviewResult parses a step reply into the function that stores it.
func interviewResult(action interview.Action, full string) (func(m *models.Module), error) {
	unreadable := apperrors.NewExtractionError("could not read the "+interviewSteps[action]+" reply", nil)
	switch action {
	case interview.ActionStart:
		prereqs, ok := blocks.ParsePrerequisites(full)
		if !ok {
			return nil, unreadable
		}
		return func(m *models.Module) { m.Prerequisites = prereqs }, nil
	case interview.ActionConfirmPrereqs:
		concepts, ok := blocks.ParseConcepts(full)
		if !ok {
			return nil, unreadable
		}
		return func(m *models.Module) { m.CoreConcepts = concepts }, nil
	case interview.ActionConfirmConcepts:
		plan, ok := blocks.ParseLessonPlan(full)
		if !ok {
			return nil, unreadable
		}
		return func(m *models.Module) { m.LessonPlan = plan }, nil
	default:
		content := strings.TrimSpace(blocks.Strip(full))
		if content == "" {
			return nil, apperrors.NewUpstreamError("module generation returned no content", nil)
		}
		return func(m *models.Module) { m.Content = content }, nil
	}
}

// DeepDive explains one core concept. Nothing is stored.
func (s *CurriculumService) DeepDive(ctx context.Context, id string, index int, conceptID string) (*blocks.DeepDive, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireMode(sess, models.ModeCreate); err != nil {
		return nil, err
	}
	if err := sess.CourseInfo.Validate(); err != nil {
		return nil, err
	}
	m, err := sess.Module(index)
	if err != nil {
		return nil, err
	}
	var concept *models.CoreConcept
	for i := range m.CoreConcepts {
		if m.CoreConcepts[i].ID == conceptID || m.CoreConcepts[i].Name == conceptID {
			concept = &m.CoreConcepts[i]
			break
		}
	}
	if concept == nil {
		return nil, apperrors.NewNotFoundError("concept not found: "+conceptID, nil)
	}

	text, err := s.gen.Complete(ctx, StepDeepDive, prompts.System, prompts.DeepDive(sess.CourseInfo, m.Name, *concept))
	if err != nil {
		return nil, err
	}
	dd, ok := blocks.ParseDeepDive(text)
	if !ok {
		return nil, apperrors.NewExtractionError("could not read the deep-dive reply", nil)
	}
	return dd, nil
}

// Assessments streams the assessment plan for the selected types.
func (s *CurriculumService) Assessments(ctx context.Context, id string, types []models.AssessmentType, onChunk func(string)) (*models.Session, error) {
	types = dedupe(types)
	if len(types) == 0 {
		return nil, apperrors.NewValidationError("select at least one assessment type", nil)
	}
	for _, t := range types {
		if !t.Valid() {
			return nil, apperrors.NewValidationError("invalid assessment type: "+string(t), nil)
		}
	}
	return s.streamPlan(ctx, id, StepAssessments, onChunk,
		func(sess *models.Session) string { return prompts.Assessments(sess.CourseInfo, sess.Modules, types) },
		func(d *models.CurriculumDocument, content string) {
			d.SelectedAssessmentTypes = types
			d.AssessmentsContent = content
		})
}

// Delivery streams the delivery plan for the selected formats.
func (s *CurriculumService) Delivery(ctx context.Context, id string, formats []models.DeliveryFormat, onChunk func(string)) (*models.Session, error) {
	formats = dedupe(formats)
	if len(formats) == 0 {
		return nil, apperrors.NewValidationError("select at least one delivery format", nil)
	}
	for _, f := range formats {
		if !f.Valid() {
			return nil, apperrors.NewValidationError("invalid delivery format: "+string(f), nil)
		}
	}
	return s.streamPlan(ctx, id, StepDelivery, onChunk,
		func(sess *models.Session) string { return prompts.Delivery(sess.CourseInfo, sess.Modules, formats) },
		func(d *models.CurriculumDocument, content string) {
			d.SelectedDeliveryFormats = formats
			d.DeliveryContent = content
		})
}

func (s *CurriculumService) streamPlan(ctx context.Context, id, step string, onChunk func(string),
	prompt func(*models.Session) string, store func(*models.CurriculumDocument, string)) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireMode(sess, models.ModeCreate); err != nil {
		return nil, err
	}
	if err := sess.CourseInfo.Validate(); err != nil {
		return nil, err
	}
	if len(sess.Modules) == 0 {
		return nil, apperrors.NewValidationError("approve the module list first", nil)
	}

	release, ok := s.locks.TryAcquire(busyKey(id, step))
	if !ok {
		return nil, apperrors.NewConflictError(step+" is already running", nil)
	}
	defer release()

	full, err := s.gen.Stream(ctx, step, prompts.System, prompt(sess), onChunk)
	if err != nil {
		return nil, err
	}
	return s.sessions.Update(context.WithoutCancel(ctx), id, func(next *models.Session) error {
		store(&next.CurriculumDocument, strings.TrimSpace(blocks.Strip(full)))
		return nil
	})
}

func dedupe[T comparable](in []T) []T {
	seen := make(map[T]bool, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func busyKey(sessionID, step string) string {
	return sessionID + "/" + step
}

func moduleKey(sessionID string, index int) string {
	return fmt.Sprintf("%s/module/%d", sessionID, index)
}
