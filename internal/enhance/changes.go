// internal/enhance/changes.go
package enhance

import (
	"fmt"
	"time"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/google/uuid"
)

var newID = uuid.NewString

// ChangelogDateLayout is the layout of ChangelogEntry.Date.
const ChangelogDateLayout = "2006-01-02"

// PlanChanges replaces doc.Changes with one pending change per selected
// proposal, in proposal order, and returns the matching jobs.
func PlanChanges(doc *models.EnhancementDocument) ([]Job, error) {
	selected := doc.SelectedProposals()
	if len(selected) == 0 {
		return nil, apperrors.NewValidationError("select at least one enhancement proposal", nil)
	}
	for _, c := range doc.Changes {
		if c.Status == models.ChangeGenerating {
			return nil, apperrors.NewConflictError("change generation already in progress", nil)
		}
	}

	changes := make([]models.ChangeItem, 0, len(selected))
	jobs := make([]Job, 0, len(selected))
	for _, p := range selected {
		id := newID()
		changes = append(changes, models.ChangeItem{
			ID:            id,
			EnhancementID: p.ID,
			Title:         p.Title,
			Status:        models.ChangePending,
		})
		jobs = append(jobs, Job{ChangeID: id, Proposal: p})
	}
	doc.Changes = changes
	return jobs, nil
}

// ApplyEvent folds a pipeline event into the document. Failed changes go
// back to pending so they can be regenerated.
func ApplyEvent(doc *models.EnhancementDocument, ev Event) error {
	if ev.Kind == EventChunk {
		return nil
	}
	c, err := doc.Change(ev.ChangeID)
	if err != nil {
		return err
	}
	switch ev.Kind {
	case EventStarted:
		c.Status = models.ChangeGenerating
	case EventCompleted:
		if ev.Result != nil {
			if ev.Result.Title != "" {
				c.Title = ev.Result.Title
			}
			c.Before = ev.Result.Before
			c.After = ev.Result.After
		}
		c.Status = models.ChangeGenerated
	case EventFailed:
		c.Status = models.ChangePending
	}
	return nil
}

// Approve marks a change approved and appends one changelog entry. Approving
// an approved change appends again.
func Approve(doc *models.EnhancementDocument, changeID string, now time.Time) (*models.ChangelogEntry, error) {
	c, err := doc.Change(changeID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.ChangeGenerated && c.Status != models.ChangeApproved {
		return nil, apperrors.NewConflictError(fmt.Sprintf("change %s is %s and cannot be approved", changeID, c.Status), nil)
	}
	c.Status = models.ChangeApproved

	category := models.CategoryUpdateOutdated
	if p, ok := doc.Proposal(c.EnhancementID); ok && p.Category != "" {
		category = p.Category
	}
	entry := models.ChangelogEntry{
		ID:          newID(),
		Date:        now.Format(ChangelogDateLayout),
		Category:    category,
		Description: "Approved: " + c.Title,
	}
	doc.Changelog = append(doc.Changelog, entry)
	return &entry, nil
}

// Reject marks a change rejected. The changelog is left alone.
func Reject(doc *models.EnhancementDocument, changeID string) error {
	c, err := doc.Change(changeID)
	if err != nil {
		return err
	}
	if c.Status != models.ChangeGenerated && c.Status != models.ChangeApproved {
		return apperrors.NewConflictError(fmt.Sprintf("change %s is %s and cannot be rejected", changeID, c.Status), nil)
	}
	c.Status = models.ChangeRejected
	return nil
}

// SetFeedback stores reviewer feedback for the next regeneration.
func SetFeedback(doc *models.EnhancementDocument, changeID, feedback string) error {
	c, err := doc.Change(changeID)
	if err != nil {
		return err
	}
	c.Feedback = feedback
	return nil
}

// Regenerate prepares a single-change job carrying the stored feedback and
// the previous text. The change goes back to pending.
func Regenerate(doc *models.EnhancementDocument, changeID string) (Job, error) {
	c, err := doc.Change(changeID)
	if err != nil {
		return Job{}, err
	}
	if c.Status == models.ChangeGenerating {
		return Job{}, apperrors.NewConflictError("change is already generating", nil)
	}
	p, ok := doc.Proposal(c.EnhancementID)
	if !ok {
		return Job{}, apperrors.NewNotFoundError("proposal for change not found", nil)
	}
	job := Job{
		ChangeID:      c.ID,
		Proposal:      *p,
		Feedback:      c.Feedback,
		PreviousAfter: c.After,
	}
	c.Status = models.ChangePending
	return job, nil
}

// AllProcessed reports whether no change is pending or generating.
func AllProcessed(doc *models.EnhancementDocument) bool {
	if len(doc.Changes) == 0 {
		return false
	}
	for _, c := range doc.Changes {
		if c.Status == models.ChangePending || c.Status == models.ChangeGenerating {
			return false
		}
	}
	return true
}
