package enhance

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc() *models.EnhancementDocument {
	return &models.EnhancementDocument{
		EnhancementProposals: []models.EnhancementProposal{
			{ID: "p1", Title: "Add Rust", Category: models.CategoryAddModules, Selected: true},
			{ID: "p2", Title: "Skip me", Selected: false},
			{ID: "p3", Title: "Refresh labs", Category: models.CategoryRefreshExamples, Selected: true},
		},
	}
}

func collect(ch <-chan Event) []Event {
	var out []Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestPlanChangesFollowsProposalOrder(t *testing.T) {
	doc := newDoc()
	jobs, err := PlanChanges(doc)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "p1", jobs[0].Proposal.ID)
	assert.Equal(t, "p3", jobs[1].Proposal.ID)
	require.Len(t, doc.Changes, 2)
	assert.Equal(t, models.ChangePending, doc.Changes[0].Status)
	assert.Equal(t, jobs[1].ChangeID, doc.Changes[1].ID)
}

func TestPlanChangesNeedsSelection(t *testing.T) {
	doc := &models.EnhancementDocument{}
	_, err := PlanChanges(doc)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestRunIsSequentialAndFailuresAreIsolated(t *testing.T) {
	doc := newDoc()
	jobs, err := PlanChanges(doc)
	require.NoError(t, err)

	var order []string
	gen := GeneratorFunc(func(ctx context.Context, job Job, onChunk func(string)) (string, error) {
		order = append(order, job.Proposal.ID)
		if job.Proposal.ID == "p1" {
			onChunk("partial")
			return "", errors.New("upstream down")
		}
		onChunk("## New labs\n")
		onChunk("```json-change\n{\"before\":\"old labs\",\"after\":\"new\"}\n```")
		return "## New labs\n```json-change\n{\"before\":\"old labs\",\"after\":\"new\"}\n```", nil
	})

	events := collect(Run(context.Background(), gen, jobs))
	for _, ev := range events {
		require.NoError(t, ApplyEvent(doc, ev))
	}

	assert.Equal(t, []string{"p1", "p3"}, order)

	kinds := make([]EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{
		EventStarted, EventChunk, EventFailed,
		EventStarted, EventChunk, EventChunk, EventCompleted,
	}, kinds)

	assert.Equal(t, models.ChangePending, doc.Changes[0].Status)
	assert.Equal(t, models.ChangeGenerated, doc.Changes[1].Status)
	assert.Equal(t, "old labs", doc.Changes[1].Before)
	assert.Equal(t, "## New labs", doc.Changes[1].After)
	assert.Equal(t, "Refresh labs", doc.Changes[1].Title)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	jobs := []Job{{ChangeID: "a"}, {ChangeID: "b"}}
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, job Job, onChunk func(string)) (string, error) {
		calls++
		cancel()
		return "", ctx.Err()
	})

	for range Run(ctx, gen, jobs) {
	}
	assert.Equal(t, 1, calls)
}

func TestApproveTwiceAppendsTwice(t *testing.T) {
	doc := newDoc()
	_, err := PlanChanges(doc)
	require.NoError(t, err)
	doc.Changes[0].Status = models.ChangeGenerated
	doc.Changes[1].Status = models.ChangeGenerated

	day1 := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(48 * time.Hour)

	e1, err := Approve(doc, doc.Changes[1].ID, day1)
	require.NoError(t, err)
	e2, err := Approve(doc, doc.Changes[0].ID, day2)
	require.NoError(t, err)
	_, err = Approve(doc, doc.Changes[0].ID, day2)
	require.NoError(t, err)

	require.Len(t, doc.Changelog, 3)
	assert.NotEqual(t, e1.ID, e2.ID)
	assert.Equal(t, "2025-05-01", doc.Changelog[0].Date)
	assert.Equal(t, "2025-05-03", doc.Changelog[1].Date)
	assert.Equal(t, models.CategoryRefreshExamples, doc.Changelog[0].Category)
	assert.Equal(t, "Approved: Add Rust", doc.Changelog[1].Description)
	assert.Equal(t, doc.Changelog[1].Description, doc.Changelog[2].Description)
}

func TestApproveUsesDefaultCategory(t *testing.T) {
	doc := &models.EnhancementDocument{Changes: []models.ChangeItem{{ID: "c", EnhancementID: "gone", Title: "T", Status: models.ChangeGenerated}}}
	entry, err := Approve(doc, "c", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.CategoryUpdateOutdated, entry.Category)
}

func TestApproveAndRejectGuards(t *testing.T) {
	doc := &models.EnhancementDocument{Changes: []models.ChangeItem{{ID: "c", Status: models.ChangePending}}}
	_, err := Approve(doc, "c", time.Now())
	assert.True(t, apperrors.IsConflictError(err))
	assert.True(t, apperrors.IsConflictError(Reject(doc, "c")))
	assert.True(t, apperrors.IsNotFoundError(Reject(doc, "missing")))
	assert.Empty(t, doc.Changelog)
}

func TestRegenerateCarriesFeedbackAndKeepsChangelog(t *testing.T) {
	doc := newDoc()
	_, err := PlanChanges(doc)
	require.NoError(t, err)
	c := &doc.Changes[0]
	c.Status = models.ChangeGenerated
	c.After = "v1"
	_, err = Approve(doc, c.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, SetFeedback(doc, c.ID, "more examples"))
	job, err := Regenerate(doc, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "more examples", job.Feedback)
	assert.Equal(t, "v1", job.PreviousAfter)
	assert.Equal(t, "p1", job.Proposal.ID)
	assert.Equal(t, models.ChangePending, doc.Changes[0].Status)
	assert.Len(t, doc.Changelog, 1)
}

func TestAllProcessed(t *testing.T) {
	doc := &models.EnhancementDocument{}
	assert.False(t, AllProcessed(doc))
	doc.Changes = []models.ChangeItem{{Status: models.ChangeApproved}, {Status: models.ChangeRejected}}
	assert.True(t, AllProcessed(doc))
	doc.Changes = append(doc.Changes, models.ChangeItem{Status: models.ChangePending})
	assert.False(t, AllProcessed(doc))
}

func TestParseResultWithoutBlock(t *testing.T) {
	r := ParseResult("just text", "Fallback")
	assert.Equal(t, "Fallback", r.Title)
	assert.Equal(t, "just text", r.After)
	assert.Equal(t, "", r.Before)
}
