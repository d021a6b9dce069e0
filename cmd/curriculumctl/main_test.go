package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legacySession is a bare pre-envelope state, read as schema version 0.
const legacySession = `{
  "id": "legacy-course",
  "courseInfo": {"topic": "Databases", "audience": "beginners", "format": "bootcamp", "philosophy": "hands-on"},
  "topicLandscape": "## Trends\n\n- Serverless SQL",
  "modules": [{"name": "Foundations", "content": "# Foundations\n\nTables and keys."}]
}`

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--data-dir", dataDir, "--driver", "file"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestImportListExport(t *testing.T) {
	dataDir := t.TempDir()
	src := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(src, []byte(legacySession), 0644))

	out, err := run(t, dataDir, "import", src)
	require.NoError(t, err)
	assert.Contains(t, out, "imported legacy-course (v0 -> v")

	out, err = run(t, dataDir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "legacy-course")

	out, err = run(t, dataDir, "dump", "legacy-course")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
	assert.Contains(t, out, "Foundations")

	out, err = run(t, dataDir, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 1 sessions upgraded")

	target := filepath.Join(t.TempDir(), "course.zip")
	out, err = run(t, dataDir, "export", "legacy-course", "--format", "markdown", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)
	for _, f := range zr.File {
		assert.True(t, strings.HasPrefix(f.Name, "curriculum/"), f.Name)
	}
}

func TestExportErrors(t *testing.T) {
	dataDir := t.TempDir()

	_, err := run(t, dataDir, "export", "missing")
	assert.Error(t, err)

	_, err = run(t, dataDir, "export", "missing", "--format", "docx")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, dataDir, "dump")
	assert.Error(t, err)
}
