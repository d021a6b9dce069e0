// internal/interview/interview.go
package interview

import (
	"fmt"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/models"
)

// Action triggers one generation call of the module interview.
type Action string

const (
	ActionStart           Action = "start"
	ActionConfirmPrereqs  Action = "confirm-prereqs"
	ActionConfirmConcepts Action = "confirm-concepts"
	ActionApprovePlan     Action = "approve-plan"
)

// Transition describes one interview step. From lists the statuses the step
// may start from; InFlight is held while the call runs; Fallback is restored
// when it fails; Done is set when it succeeds.
type Transition struct {
	Action   Action
	From     []models.ModuleStatus
	InFlight models.ModuleStatus
	Fallback models.ModuleStatus
	Done     models.ModuleStatus
}

var transitions = map[Action]Transition{
	ActionStart: {
		Action: ActionStart,
		From: []models.ModuleStatus{
			models.StatusPending,
			models.StatusProposing, models.StatusProposed, models.StatusApproved,
		},
		InFlight: models.StatusInterviewingPrereqs,
		Fallback: models.StatusPending,
		Done:     models.StatusInterviewingPrereqs,
	},
	ActionConfirmPrereqs: {
		Action:   ActionConfirmPrereqs,
		From:     []models.ModuleStatus{models.StatusInterviewingPrereqs, models.StatusPrereqsConfirmed},
		InFlight: models.StatusInterviewingConcepts,
		Fallback: models.StatusPrereqsConfirmed,
		Done:     models.StatusInterviewingConcepts,
	},
	ActionConfirmConcepts: {
		Action:   ActionConfirmConcepts,
		From:     []models.ModuleStatus{models.StatusInterviewingConcepts, models.StatusConceptsConfirmed},
		InFlight: models.StatusInterviewingLessons,
		Fallback: models.StatusConceptsConfirmed,
		Done:     models.StatusInterviewingLessons,
	},
	ActionApprovePlan: {
		Action:   ActionApprovePlan,
		From:     []models.ModuleStatus{models.StatusInterviewingLessons, models.StatusLessonsApproved},
		InFlight: models.StatusGenerating,
		Fallback: models.StatusLessonsApproved,
		Done:     models.StatusComplete,
	},
}

// Lookup returns the transition for action.
func Lookup(action Action) (Transition, bool) {
	t, ok := transitions[action]
	return t, ok
}

// Retry maps a fallback status back to the step that can be retried from it.
func Retry(status models.ModuleStatus) (Action, bool) {
	switch status {
	case models.StatusPending:
		return ActionStart, true
	case models.StatusPrereqsConfirmed:
		return ActionConfirmPrereqs, true
	case models.StatusConceptsConfirmed:
		return ActionConfirmConcepts, true
	case models.StatusLessonsApproved:
		return ActionApprovePlan, true
	}
	return "", false
}

// Begin validates that action may run on m and moves m to the in-flight
// status. Callers store the confirmed payload on m before calling Begin, so
// the prompt for the step is built from m alone.
func Begin(m *models.Module, action Action) (Transition, error) {
	t, ok := transitions[action]
	if !ok {
		return Transition{}, apperrors.NewValidationError(fmt.Sprintf("unknown interview action %q", action), nil)
	}
	if !allowed(t, m.Status) {
		return Transition{}, apperrors.NewConflictError(
			fmt.Sprintf("module %q is %s; %s is not allowed", m.Name, m.Status, action), nil)
	}
	if err := requires(m, action); err != nil {
		return Transition{}, err
	}
	m.Status = t.InFlight
	return t, nil
}

// Revert restores the last confirmed stage after a failed call.
func Revert(m *models.Module, t Transition) {
	m.Status = t.Fallback
}

// Finish records a successful call.
func Finish(m *models.Module, t Transition) {
	m.Status = t.Done
}

func allowed(t Transition, status models.ModuleStatus) bool {
	for _, s := range t.From {
		if s == status {
			return true
		}
	}
	return false
}

func requires(m *models.Module, action Action) error {
	switch action {
	case ActionConfirmPrereqs:
		if m.Prerequisites == nil {
			return apperrors.NewValidationError("prerequisites must be generated before they can be confirmed", nil)
		}
	case ActionConfirmConcepts:
		if m.CoreConcepts == nil {
			return apperrors.NewValidationError("core concepts must be generated before they can be confirmed", nil)
		}
	case ActionApprovePlan:
		if m.LessonPlan == nil {
			return apperrors.NewValidationError("lesson plan must be generated before it can be approved", nil)
		}
	}
	return nil
}

// ActivePrerequisites are the confirmed prerequisites not marked skip.
func ActivePrerequisites(m *models.Module) []models.Prerequisite {
	var out []models.Prerequisite
	for _, p := range m.Prerequisites {
		if p.Status != models.PrereqSkip {
			out = append(out, p)
		}
	}
	return out
}

// EditableAt reports whether the module may still be renamed by the user.
// Edits are refused while a call is in flight and after completion.
func EditableAt(status models.ModuleStatus) bool {
	switch status {
	case models.StatusGenerating, models.StatusComplete:
		return false
	}
	return true
}

// Payload names one stage's user-confirmed data on a module.
type Payload string

const (
	PayloadPrerequisites Payload = "prerequisites"
	PayloadCoreConcepts  Payload = "coreConcepts"
	PayloadLessonPlan    Payload = "lessonPlan"
)

// PayloadEditable reports whether p belongs to the stage the module is in.
// Once a stage is confirmed and the next one has started, its payload is
// frozen.
func PayloadEditable(status models.ModuleStatus, p Payload) bool {
	switch p {
	case PayloadPrerequisites:
		return status == models.StatusInterviewingPrereqs || status == models.StatusPrereqsConfirmed
	case PayloadCoreConcepts:
		return status == models.StatusInterviewingConcepts || status == models.StatusConceptsConfirmed
	case PayloadLessonPlan:
		return status == models.StatusInterviewingLessons || status == models.StatusLessonsApproved
	}
	return false
}

// Confirms returns the payload that action confirms, if any.
func Confirms(action Action) (Payload, bool) {
	switch action {
	case ActionConfirmPrereqs:
		return PayloadPrerequisites, true
	case ActionConfirmConcepts:
		return PayloadCoreConcepts, true
	case ActionApprovePlan:
		return PayloadLessonPlan, true
	}
	return "", false
}
