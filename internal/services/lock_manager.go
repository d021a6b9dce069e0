// internal/services/lock_manager.go
package services

import (
	"sync"
	"time"
)

// LockManager serializes mutations per session and tracks the generation
// calls currently running, so a second call on the same target is refused
// instead of queued.
type LockManager struct {
	sessionLocks map[string]*LockInfo
	busy         map[string]time.Time
	globalLock   sync.Mutex

	lockTTL       time.Duration
	cleanupTicker *time.Ticker
	stop          chan struct{}
	stopOnce      sync.Once
}

// LockInfo wraps a session mutex. ReferenceCount keeps the entry alive while
// a caller holds or waits for it.
type LockInfo struct {
	Mutex          *sync.Mutex
	LastUsed       time.Time
	ReferenceCount int32
}

func NewLockManager() *LockManager {
	lm := &LockManager{
		sessionLocks: make(map[string]*LockInfo),
		busy:         make(map[string]time.Time),
		lockTTL:      30 * time.Minute,
		stop:         make(chan struct{}),
	}
	lm.startCleanup()
	return lm
}

func (lm *LockManager) acquire(sessionID string) *LockInfo {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()

	info, exists := lm.sessionLocks[sessionID]
	if !exists {
		info = &LockInfo{Mutex: &sync.Mutex{}}
		lm.sessionLocks[sessionID] = info
	}
	info.ReferenceCount++
	info.LastUsed = time.Now()
	return info
}

func (lm *LockManager) release(info *LockInfo) {
	lm.globalLock.Lock()
	info.ReferenceCount--
	info.LastUsed = time.Now()
	lm.globalLock.Unlock()
}

// ExecuteWithSessionLock runs fn while holding the session's mutex.
func (lm *LockManager) ExecuteWithSessionLock(sessionID string, fn func() error) error {
	info := lm.acquire(sessionID)
	defer lm.release(info)

	info.Mutex.Lock()
	defer info.Mutex.Unlock()
	return fn()
}

// TryAcquire marks key busy. It returns false when the key is already held;
// otherwise the returned release func frees it. Extra calls are no-ops.
func (lm *LockManager) TryAcquire(key string) (func(), bool) {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()

	if _, held := lm.busy[key]; held {
		return nil, false
	}
	lm.busy[key] = time.Now()

	var once sync.Once
	return func() {
		once.Do(func() {
			lm.globalLock.Lock()
			delete(lm.busy, key)
			lm.globalLock.Unlock()
		})
	}, true
}

// Busy reports whether key is currently held.
func (lm *LockManager) Busy(key string) bool {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()
	_, held := lm.busy[key]
	return held
}

// Stop ends the cleanup loop.
func (lm *LockManager) Stop() {
	lm.stopOnce.Do(func() {
		lm.cleanupTicker.Stop()
		close(lm.stop)
	})
}

func (lm *LockManager) startCleanup() {
	lm.cleanupTicker = time.NewTicker(5 * time.Minute)
	go func() {
		for {
			select {
			case <-lm.cleanupTicker.C:
				lm.cleanupUnusedLocks()
			case <-lm.stop:
				return
			}
		}
	}()
}

func (lm *LockManager) cleanupUnusedLocks() {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()

	now := time.Now()
	for id, info := range lm.sessionLocks {
		if info.ReferenceCount == 0 && now.Sub(info.LastUsed) > lm.lockTTL {
			delete(lm.sessionLocks, id)
		}
	}
}
