// internal/services/progress_service.go
package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/Corphon/CurriculumDesigner/internal/enhance"
)

// Tracker statuses.
const (
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// ProgressUpdate is what subscribers receive. Event is set when the update
// came from the change pipeline.
type ProgressUpdate struct {
	TaskID   string         `json:"task_id"`
	Progress int            `json:"progress"`
	Message  string         `json:"message"`
	Status   string         `json:"status"`
	Event    *enhance.Event `json:"event,omitempty"`
}

// ProgressTracker follows one background task.
type ProgressTracker struct {
	TaskID     string
	SessionID  string
	Progress   int
	Message    string
	Status     string
	StartTime  time.Time
	UpdateTime time.Time

	// Done is closed once, when the task completes or fails.
	Done chan struct{}

	subscribers map[chan ProgressUpdate]bool
	finished    bool
	mutex       sync.Mutex
}

// ProgressService owns the trackers of running and recently finished tasks.
type ProgressService struct {
	trackers map[string]*ProgressTracker
	mutex    sync.RWMutex
}

func NewProgressService() *ProgressService {
	return &ProgressService{trackers: make(map[string]*ProgressTracker)}
}

// CreateTracker registers a tracker. An existing tracker with the same id is
// returned unchanged.
func (s *ProgressService) CreateTracker(taskID, sessionID string) *ProgressTracker {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if tracker, exists := s.trackers[taskID]; exists {
		return tracker
	}
	now := time.Now()
	tracker := &ProgressTracker{
		TaskID:      taskID,
		SessionID:   sessionID,
		Message:     "queued",
		Status:      TaskRunning,
		StartTime:   now,
		UpdateTime:  now,
		Done:        make(chan struct{}),
		subscribers: make(map[chan ProgressUpdate]bool),
	}
	s.trackers[taskID] = tracker
	return tracker
}

func (s *ProgressService) GetTracker(taskID string) (*ProgressTracker, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	tracker, exists := s.trackers[taskID]
	return tracker, exists
}

// CleanupCompletedTasks drops finished trackers older than maxAge.
func (s *ProgressService) CleanupCompletedTasks(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	now := time.Now()
	for id, tracker := range s.trackers {
		tracker.mutex.Lock()
		stale := tracker.finished && now.Sub(tracker.UpdateTime) > maxAge
		tracker.mutex.Unlock()
		if stale {
			delete(s.trackers, id)
			removed++
		}
	}
	return removed
}

// UpdateProgress moves the progress forward. Lower values are ignored.
func (t *ProgressTracker) UpdateProgress(progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.finished {
		return
	}
	t.advance(progress, message)
	t.broadcast(nil)
}

// Publish forwards a pipeline event. Progress is derived from the event's
// position in the run.
func (t *ProgressTracker) Publish(ev enhance.Event) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.finished {
		return
	}

	if ev.Total > 0 {
		switch ev.Kind {
		case enhance.EventStarted:
			t.advance(ev.Index*100/ev.Total, fmt.Sprintf("generating change %d of %d", ev.Index+1, ev.Total))
		case enhance.EventCompleted, enhance.EventFailed:
			t.advance((ev.Index+1)*100/ev.Total, fmt.Sprintf("processed change %d of %d", ev.Index+1, ev.Total))
		}
	}
	t.UpdateTime = time.Now()
	t.broadcast(&ev)
}

func (t *ProgressTracker) Complete(message string) {
	t.finish(TaskCompleted, 100, message)
}

func (t *ProgressTracker) Fail(errorMsg string) {
	t.finish(TaskFailed, -1, "task failed: "+errorMsg)
}

func (t *ProgressTracker) finish(status string, progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.finished {
		return
	}
	if progress >= 0 {
		t.Progress = progress
	}
	if message != "" {
		t.Message = message
	}
	t.Status = status
	t.UpdateTime = time.Now()
	t.finished = true
	t.broadcast(nil)
	close(t.Done)
}

func (t *ProgressTracker) advance(progress int, message string) {
	if progress > t.Progress {
		t.Progress = progress
	}
	if message != "" {
		t.Message = message
	}
	t.UpdateTime = time.Now()
}

// broadcast sends without blocking. A full subscriber misses the update.
func (t *ProgressTracker) broadcast(ev *enhance.Event) {
	update := t.snapshot()
	update.Event = ev
	for subscriber := range t.subscribers {
		select {
		case subscriber <- update:
		default:
		}
	}
}

func (t *ProgressTracker) snapshot() ProgressUpdate {
	return ProgressUpdate{TaskID: t.TaskID, Progress: t.Progress, Message: t.Message, Status: t.Status}
}

// Snapshot returns the current state without subscribing.
func (t *ProgressTracker) Snapshot() ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.snapshot()
}

// Subscribe returns a channel primed with the current state.
func (t *ProgressTracker) Subscribe() chan ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	subscriber := make(chan ProgressUpdate, 64)
	t.subscribers[subscriber] = true
	subscriber <- t.snapshot()
	return subscriber
}

func (t *ProgressTracker) Unsubscribe(subscriber chan ProgressUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.subscribers[subscriber] {
		delete(t.subscribers, subscriber)
		close(subscriber)
	}
}
