package models

import (
	"encoding/json"
	"testing"
	"time"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseInfoValidate(t *testing.T) {
	ok := &CourseInfo{Topic: "Rust", Audience: AudienceBeginners, Format: FormatBootcamp, Philosophy: PhilosophyHandsOn}
	assert.NoError(t, ok.Validate())

	var missing *CourseInfo
	assert.True(t, apperrors.IsValidationError(missing.Validate()))

	bad := *ok
	bad.Topic = "  "
	assert.True(t, apperrors.IsValidationError(bad.Validate()))

	bad = *ok
	bad.Audience = "experts"
	assert.True(t, apperrors.IsValidationError(bad.Validate()))
}

func TestAdvancePhaseIsMonotonicAndCapped(t *testing.T) {
	var d CurriculumDocument
	d.AdvancePhase(2)
	d.AdvancePhase(1)
	assert.Equal(t, 2, d.CurrentPhase)
	d.AdvancePhase(9)
	assert.Equal(t, MaxPhase, d.CurrentPhase)

	var e EnhancementDocument
	e.AdvancePhase(3)
	e.AdvancePhase(0)
	assert.Equal(t, 3, e.EnhancePhase)
}

func TestToggleLandscapeItem(t *testing.T) {
	l := &TopicLandscape{
		Trends: []TrendItem{{ID: "t1", Included: true}},
		Tools:  []ToolItem{{ID: "x1", Included: true}},
	}
	assert.True(t, l.ToggleItem(LandscapeTrends, "t1"))
	assert.False(t, l.Trends[0].Included)
	assert.False(t, l.ToggleItem(LandscapeResources, "t1"))
	assert.False(t, l.ToggleItem("bogus", "x1"))
	assert.True(t, l.Tools[0].Included)
}

func TestEnabledLessonsSortedByOrder(t *testing.T) {
	p := &LessonPlan{Lessons: []LessonPlanItem{
		{ID: "a", Order: 3, Enabled: true},
		{ID: "b", Order: 1, Enabled: true},
		{ID: "c", Order: 2, Enabled: false},
		{ID: "d", Order: 1, Enabled: true},
	}}
	got := p.EnabledLessons()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "d", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})

	var nilPlan *LessonPlan
	assert.Nil(t, nilPlan.EnabledLessons())
}

func TestSessionSerializesFlat(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := NewSession("s1", ModeCreate, now)
	s.CourseInfo = &CourseInfo{Topic: "Go"}
	s.UploadedFiles = []UploadedFile{{ID: "u1", Name: "a.md", Content: "x"}}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "courseInfo")
	assert.Contains(t, raw, "enhancePhase")
	assert.NotContains(t, raw, "uploadedFiles")
	assert.NotContains(t, raw, "UploadedFiles")
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession("s1", ModeCreate, time.Now())
	s.Modules = []Module{{Name: "m1", Status: StatusPending}}
	s.UploadedFiles = []UploadedFile{{ID: "u1"}}

	c := s.Clone()
	c.Modules[0].Name = "changed"
	c.UploadedFiles[0].ID = "changed"

	assert.Equal(t, "m1", s.Modules[0].Name)
	assert.Equal(t, "u1", s.UploadedFiles[0].ID)
}

func TestSessionResetKeepsIdentity(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSession("s1", ModeCreate, created)
	s.CourseInfo = &CourseInfo{Topic: "Go"}
	s.Changes = []ChangeItem{{ID: "c1"}}

	s.Reset(ModeEnhance, created.Add(time.Hour))
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, ModeEnhance, s.Mode)
	assert.Equal(t, created, s.CreatedAt)
	assert.Nil(t, s.CourseInfo)
	assert.Empty(t, s.Changes)
}

func TestSessionTitle(t *testing.T) {
	s := NewSession("s1", ModeEnhance, time.Now())
	assert.Equal(t, "curriculum", s.Title())
	s.AnalysisReportStructured = &AnalysisReport{CourseName: "Data 101"}
	assert.Equal(t, "Data 101", s.Title())
}

func TestEnhancementLookups(t *testing.T) {
	d := EnhancementDocument{
		EnhancementProposals: []EnhancementProposal{{ID: "p1", Selected: true}, {ID: "p2"}},
		Changes:              []ChangeItem{{ID: "c1", Status: ChangeApproved}, {ID: "c2", Status: ChangeGenerated}},
	}
	_, err := d.Change("nope")
	assert.True(t, apperrors.IsNotFoundError(err))

	c, err := d.Change("c2")
	require.NoError(t, err)
	c.Status = ChangeRejected
	assert.Equal(t, ChangeRejected, d.Changes[1].Status)

	assert.Len(t, d.SelectedProposals(), 1)
	assert.Len(t, d.ApprovedChanges(), 1)
}
