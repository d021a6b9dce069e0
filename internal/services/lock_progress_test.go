package services

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Corphon/CurriculumDesigner/internal/enhance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquire(t *testing.T) {
	lm := NewLockManager()
	defer lm.Stop()

	release, ok := lm.TryAcquire("s1/research")
	require.True(t, ok)
	assert.True(t, lm.Busy("s1/research"))

	_, ok = lm.TryAcquire("s1/research")
	assert.False(t, ok)

	other, ok := lm.TryAcquire("s1/assessments")
	require.True(t, ok)
	other()

	release()
	release()
	assert.False(t, lm.Busy("s1/research"))

	again, ok := lm.TryAcquire("s1/research")
	require.True(t, ok)
	again()
}

func TestExecuteWithSessionLockSerializes(t *testing.T) {
	lm := NewLockManager()
	defer lm.Stop()

	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = lm.ExecuteWithSessionLock("s1", func() error {
				if inside.Add(1) > 1 {
					overlap.Store(true)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.False(t, overlap.Load())

	boom := errors.New("boom")
	assert.ErrorIs(t, lm.ExecuteWithSessionLock("s1", func() error { return boom }), boom)
}

func TestProgressTrackerPublish(t *testing.T) {
	ps := NewProgressService()
	tracker := ps.CreateTracker("task-1", "s1")
	sub := tracker.Subscribe()

	first := <-sub
	assert.Equal(t, TaskRunning, first.Status)
	assert.Zero(t, first.Progress)

	tracker.Publish(enhance.Event{Kind: enhance.EventStarted, ChangeID: "a", Index: 1, Total: 4})
	update := <-sub
	assert.Equal(t, 25, update.Progress)
	require.NotNil(t, update.Event)
	assert.Equal(t, "a", update.Event.ChangeID)

	tracker.Publish(enhance.Event{Kind: enhance.EventCompleted, ChangeID: "a", Index: 1, Total: 4})
	assert.Equal(t, 50, (<-sub).Progress)

	// progress never moves backwards
	tracker.Publish(enhance.Event{Kind: enhance.EventStarted, ChangeID: "b", Index: 0, Total: 4})
	assert.Equal(t, 50, (<-sub).Progress)

	tracker.Complete("done")
	final := <-sub
	assert.Equal(t, TaskCompleted, final.Status)
	assert.Equal(t, 100, final.Progress)

	select {
	case <-tracker.Done:
	default:
		t.Fatal("Done not closed")
	}

	// finished trackers ignore later calls
	tracker.Fail("late")
	tracker.Publish(enhance.Event{Kind: enhance.EventFailed, Index: 3, Total: 4})
	assert.Equal(t, TaskCompleted, tracker.Snapshot().Status)

	tracker.Unsubscribe(sub)
	tracker.Unsubscribe(sub)
}

func TestProgressTrackerFailAndCleanup(t *testing.T) {
	ps := NewProgressService()
	tracker := ps.CreateTracker("task-2", "s1")
	tracker.UpdateProgress(40, "halfway")
	tracker.Fail("interrupted by shutdown")

	snap := tracker.Snapshot()
	assert.Equal(t, TaskFailed, snap.Status)
	assert.Equal(t, 40, snap.Progress)
	assert.Equal(t, "task failed: interrupted by shutdown", snap.Message)

	running := ps.CreateTracker("task-3", "s1")
	time.Sleep(time.Millisecond)
	assert.Equal(t, 1, ps.CleanupCompletedTasks(0))
	_, ok := ps.GetTracker("task-2")
	assert.False(t, ok)
	_, ok = ps.GetTracker(running.TaskID)
	assert.True(t, ok)
}
