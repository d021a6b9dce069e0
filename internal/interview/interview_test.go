package interview

import (
	"testing"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullInterviewReachesComplete(t *testing.T) {
	m := &models.Module{Name: "SQL", Status: models.StatusPending}

	tr, err := Begin(m, ActionStart)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInterviewingPrereqs, m.Status)
	m.Prerequisites = []models.Prerequisite{{Name: "Algebra", Status: models.PrereqInclude}}
	Finish(m, tr)

	tr, err = Begin(m, ActionConfirmPrereqs)
	require.NoError(t, err)
	m.CoreConcepts = []models.CoreConcept{{Name: "Joins"}}
	Finish(m, tr)
	assert.Equal(t, models.StatusInterviewingConcepts, m.Status)

	tr, err = Begin(m, ActionConfirmConcepts)
	require.NoError(t, err)
	m.LessonPlan = &models.LessonPlan{}
	Finish(m, tr)
	assert.Equal(t, models.StatusInterviewingLessons, m.Status)

	tr, err = Begin(m, ActionApprovePlan)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGenerating, m.Status)
	m.Content = "# SQL"
	Finish(m, tr)
	assert.Equal(t, models.StatusComplete, m.Status)
}

func TestRevertLandsOnPreviousConfirmedStage(t *testing.T) {
	cases := []struct {
		name   string
		module models.Module
		action Action
		want   models.ModuleStatus
	}{
		{"start", models.Module{Status: models.StatusPending}, ActionStart, models.StatusPending},
		{"prereqs", models.Module{Status: models.StatusInterviewingPrereqs, Prerequisites: []models.Prerequisite{}}, ActionConfirmPrereqs, models.StatusPrereqsConfirmed},
		{"concepts", models.Module{Status: models.StatusInterviewingConcepts, CoreConcepts: []models.CoreConcept{}}, ActionConfirmConcepts, models.StatusConceptsConfirmed},
		{"plan", models.Module{Status: models.StatusInterviewingLessons, LessonPlan: &models.LessonPlan{}}, ActionApprovePlan, models.StatusLessonsApproved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.module
			tr, err := Begin(&m, tc.action)
			require.NoError(t, err)
			assert.NotEqual(t, tc.want, m.Status)
			Revert(&m, tr)
			assert.Equal(t, tc.want, m.Status)

			retry, ok := Retry(m.Status)
			require.True(t, ok)
			_, err = Begin(&m, retry)
			assert.NoError(t, err)
		})
	}
}

func TestBeginRejectsOutOfOrder(t *testing.T) {
	m := &models.Module{Status: models.StatusPending}
	_, err := Begin(m, ActionApprovePlan)
	assert.True(t, apperrors.IsConflictError(err))
	assert.Equal(t, models.StatusPending, m.Status)

	m.Status = models.StatusComplete
	_, err = Begin(m, ActionStart)
	assert.True(t, apperrors.IsConflictError(err))

	_, err = Begin(m, Action("dance"))
	assert.True(t, apperrors.IsValidationError(err))
}

func TestBeginRequiresPayload(t *testing.T) {
	m := &models.Module{Status: models.StatusInterviewingPrereqs}
	_, err := Begin(m, ActionConfirmPrereqs)
	assert.True(t, apperrors.IsValidationError(err))
	assert.Equal(t, models.StatusInterviewingPrereqs, m.Status)
}

func TestLegacyModulesCanOnlyRestart(t *testing.T) {
	for _, s := range []models.ModuleStatus{models.StatusProposing, models.StatusProposed, models.StatusApproved} {
		m := &models.Module{Status: s}
		_, err := Begin(m, ActionConfirmPrereqs)
		assert.Error(t, err)
		_, err = Begin(m, ActionStart)
		assert.NoError(t, err)
	}
	for _, tr := range transitions {
		assert.False(t, tr.InFlight.IsLegacy())
		assert.False(t, tr.Fallback.IsLegacy())
		assert.False(t, tr.Done.IsLegacy())
	}
}

func TestActivePrerequisitesSkipsSkipped(t *testing.T) {
	m := &models.Module{Prerequisites: []models.Prerequisite{
		{Name: "a", Status: models.PrereqInclude},
		{Name: "b", Status: models.PrereqSkip},
		{Name: "c", Status: models.PrereqRecap},
	}}
	got := ActivePrerequisites(m)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[1].Name)
}

func TestEditableAt(t *testing.T) {
	assert.True(t, EditableAt(models.StatusInterviewingConcepts))
	assert.False(t, EditableAt(models.StatusGenerating))
	assert.False(t, EditableAt(models.StatusComplete))
}

func TestPayloadEditableFollowsStage(t *testing.T) {
	cases := []struct {
		status models.ModuleStatus
		ok     []Payload
	}{
		{models.StatusPending, nil},
		{models.StatusInterviewingPrereqs, []Payload{PayloadPrerequisites}},
		{models.StatusPrereqsConfirmed, []Payload{PayloadPrerequisites}},
		{models.StatusInterviewingConcepts, []Payload{PayloadCoreConcepts}},
		{models.StatusConceptsConfirmed, []Payload{PayloadCoreConcepts}},
		{models.StatusInterviewingLessons, []Payload{PayloadLessonPlan}},
		{models.StatusLessonsApproved, []Payload{PayloadLessonPlan}},
		{models.StatusGenerating, nil},
		{models.StatusComplete, nil},
		{models.StatusApproved, nil},
	}
	for _, tc := range cases {
		for _, p := range []Payload{PayloadPrerequisites, PayloadCoreConcepts, PayloadLessonPlan} {
			want := len(tc.ok) == 1 && tc.ok[0] == p
			assert.Equal(t, want, PayloadEditable(tc.status, p), "%s/%s", tc.status, p)
		}
	}
}

func TestConfirms(t *testing.T) {
	_, ok := Confirms(ActionStart)
	assert.False(t, ok)

	p, ok := Confirms(ActionConfirmPrereqs)
	require.True(t, ok)
	assert.Equal(t, PayloadPrerequisites, p)

	p, _ = Confirms(ActionConfirmConcepts)
	assert.Equal(t, PayloadCoreConcepts, p)

	p, _ = Confirms(ActionApprovePlan)
	assert.Equal(t, PayloadLessonPlan, p)
}
