// internal/storage/file_storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const snapshotExt = ".json"

// FileStorage keeps one JSON envelope per session under BaseDir.
type FileStorage struct {
	BaseDir string

	// path -> *sync.RWMutex
	fileLocks sync.Map

	cache        map[string]*CacheEntry
	cacheMutex   sync.RWMutex
	cacheExpiry  time.Duration
	maxCacheSize int
}

// CacheEntry is a raw file read kept for cacheExpiry.
type CacheEntry struct {
	Data      []byte
	Timestamp time.Time
}

// NewFileStorage creates baseDir if needed.
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStorage{
		BaseDir:      baseDir,
		cache:        make(map[string]*CacheEntry),
		cacheExpiry:  5 * time.Minute,
		maxCacheSize: 100,
	}, nil
}

func (fs *FileStorage) getFileLock(fullPath string) *sync.RWMutex {
	value, _ := fs.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

func (fs *FileStorage) path(id string) (string, error) {
	if err := checkID(id); err != nil {
		return "", err
	}
	return filepath.Join(fs.BaseDir, id+snapshotExt), nil
}

func (fs *FileStorage) Save(ctx context.Context, id string, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := fs.path(id)
	if err != nil {
		return err
	}
	content, err := EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", id, err)
	}

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	// write-then-rename so readers never see a partial file
	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	fs.updateCache(fullPath, content)
	return nil
}

func (fs *FileStorage) Load(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := fs.path(id)
	if err != nil {
		return nil, err
	}
	content, err := fs.read(fullPath)
	if err != nil {
		return nil, err
	}
	return DecodeRecord(content)
}

func (fs *FileStorage) read(fullPath string) ([]byte, error) {
	if data, ok := fs.cached(fullPath); ok {
		return data, nil
	}

	lock := fs.getFileLock(fullPath)
	lock.RLock()
	defer lock.RUnlock()

	// a writer may have filled the cache while we waited
	if data, ok := fs.cached(fullPath); ok {
		return data, nil
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	fs.updateCache(fullPath, content)
	return content, nil
}

func (fs *FileStorage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := fs.path(id)
	if err != nil {
		return err
	}

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	fs.invalidateCache(fullPath)
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete snapshot: %w", err)
	}
	fs.fileLocks.Delete(fullPath)
	return nil
}

// List returns the stored ids, sorted.
func (fs *FileStorage) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(fs.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("read storage directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, snapshotExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (fs *FileStorage) Close() error {
	fs.cacheMutex.Lock()
	fs.cache = make(map[string]*CacheEntry)
	fs.cacheMutex.Unlock()
	return nil
}

func (fs *FileStorage) cached(path string) ([]byte, bool) {
	fs.cacheMutex.RLock()
	defer fs.cacheMutex.RUnlock()
	entry, ok := fs.cache[path]
	if !ok || time.Since(entry.Timestamp) >= fs.cacheExpiry {
		return nil, false
	}
	return entry.Data, true
}

func (fs *FileStorage) updateCache(path string, data []byte) {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()

	fs.cache[path] = &CacheEntry{Data: data, Timestamp: time.Now()}
	if len(fs.cache) <= fs.maxCacheSize {
		return
	}

	// evict the oldest entry, dropping expired ones on the way
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range fs.cache {
		if time.Since(entry.Timestamp) >= fs.cacheExpiry {
			delete(fs.cache, key)
			continue
		}
		if oldestKey == "" || entry.Timestamp.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.Timestamp
		}
	}
	if len(fs.cache) > fs.maxCacheSize && oldestKey != "" {
		delete(fs.cache, oldestKey)
	}
}

func (fs *FileStorage) invalidateCache(path string) {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()
	delete(fs.cache, path)
}
