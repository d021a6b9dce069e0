package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]SnapshotStore {
	t.Helper()
	fileStore, err := NewFileStorage(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)
	sqliteStore, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		fileStore.Close()
		sqliteStore.Close()
	})
	return map[string]SnapshotStore{"file": fileStore, "sqlite": sqliteStore}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			rec := &Record{Version: 5, State: json.RawMessage(`{"id":"b","mode":"create"}`)}
			require.NoError(t, store.Save(ctx, "b", rec))
			require.NoError(t, store.Save(ctx, "a", &Record{Version: 5, State: json.RawMessage(`{"id":"a"}`)}))

			got, err := store.Load(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, 5, got.Version)
			assert.JSONEq(t, `{"id":"b","mode":"create"}`, string(got.State))

			require.NoError(t, store.Save(ctx, "b", &Record{Version: 5, State: json.RawMessage(`{"id":"b","mode":"enhance"}`)}))
			got, err = store.Load(ctx, "b")
			require.NoError(t, err)
			assert.JSONEq(t, `{"id":"b","mode":"enhance"}`, string(got.State))

			ids, err := store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, ids)

			require.NoError(t, store.Delete(ctx, "a"))
			assert.ErrorIs(t, store.Delete(ctx, "a"), ErrNotFound)
			_, err = store.Load(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFileStorageRejectsPathIDs(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, fs.Save(context.Background(), "../escape", &Record{State: json.RawMessage(`{}`)}), ErrInvalidID)
	_, err = fs.Load(context.Background(), "a/b")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestFileStorageWritesEnvelope(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir)
	require.NoError(t, err)
	require.NoError(t, fs.Save(context.Background(), "s1", &Record{Version: 3, State: json.RawMessage(`{"x":1}`)}))

	raw, err := os.ReadFile(filepath.Join(dir, "s1.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":3,"state":{"x":1}}`, string(raw))
	_, err = os.Stat(filepath.Join(dir, "s1.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestDecodeRecordWithoutEnvelope(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"courseInfo":{"topic":"Go"}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Version)
	assert.JSONEq(t, `{"courseInfo":{"topic":"Go"}}`, string(rec.State))

	_, err = DecodeRecord([]byte(`not json`))
	assert.Error(t, err)
}
