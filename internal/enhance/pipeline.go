// internal/enhance/pipeline.go
package enhance

import (
	"context"
	"strings"

	"github.com/Corphon/CurriculumDesigner/internal/blocks"
	"github.com/Corphon/CurriculumDesigner/internal/models"
)

// Job is one change to generate. Feedback and PreviousAfter are set only when
// a change is regenerated.
type Job struct {
	ChangeID      string
	Proposal      models.EnhancementProposal
	Feedback      string
	PreviousAfter string
}

// Generator streams the text of one change. onChunk receives deltas in order;
// the returned string is the full reply.
type Generator interface {
	GenerateChange(ctx context.Context, job Job, onChunk func(string)) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, job Job, onChunk func(string)) (string, error)

func (f GeneratorFunc) GenerateChange(ctx context.Context, job Job, onChunk func(string)) (string, error) {
	return f(ctx, job, onChunk)
}

type EventKind string

const (
	EventStarted   EventKind = "started"
	EventChunk     EventKind = "chunk"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event reports pipeline progress. Index is zero-based within the run.
type Event struct {
	Kind     EventKind `json:"kind"`
	ChangeID string    `json:"change_id"`
	Index    int       `json:"index"`
	Total    int       `json:"total"`
	Text     string    `json:"text,omitempty"`
	Error    string    `json:"error,omitempty"`
	Result   *Result   `json:"result,omitempty"`

	Err error `json:"-"`
}

// Result is the parsed outcome of one generated change.
type Result struct {
	Title  string `json:"title"`
	Before string `json:"before,omitempty"`
	After  string `json:"after"`
}

// ParseResult turns a full reply into a Result. The display text becomes
// After; the json-change block supplies Before and the title.
func ParseResult(full, fallbackTitle string) *Result {
	r := &Result{Title: fallbackTitle, After: blocks.Strip(full)}
	if payload, ok := blocks.ParseChange(full); ok {
		r.Before = strings.TrimSpace(payload.Before)
		if payload.Title != "" {
			r.Title = payload.Title
		}
	}
	return r
}

// Run processes jobs strictly in order on a single goroutine. The returned
// channel is closed after the last job, or after ctx is cancelled. A failed
// job does not stop the run.
func Run(ctx context.Context, gen Generator, jobs []Job) <-chan Event {
	events := make(chan Event, 16)

	go func() {
		defer close(events)

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		total := len(jobs)
		for i, job := range jobs {
			if ctx.Err() != nil {
				return
			}
			if !emit(Event{Kind: EventStarted, ChangeID: job.ChangeID, Index: i, Total: total}) {
				return
			}

			full, err := gen.GenerateChange(ctx, job, func(text string) {
				emit(Event{Kind: EventChunk, ChangeID: job.ChangeID, Index: i, Total: total, Text: text})
			})
			if err != nil {
				if !emit(Event{Kind: EventFailed, ChangeID: job.ChangeID, Index: i, Total: total, Error: err.Error(), Err: err}) {
					return
				}
				continue
			}

			result := ParseResult(full, job.Proposal.Title)
			if !emit(Event{Kind: EventCompleted, ChangeID: job.ChangeID, Index: i, Total: total, Result: result}) {
				return
			}
		}
	}()

	return events
}
