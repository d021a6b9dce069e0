package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var courseInfo = map[string]string{
	"topic":      "Databases",
	"audience":   "beginners",
	"format":     "bootcamp",
	"philosophy": "hands-on",
}

const researchText = "## SECTION 1: Topic Landscape\nRelational stores still dominate.\n\n" +
	"## SECTION 2: Suggested Modules\n1. **Foundations**: tables and keys\n2. **Transactions**: ACID in practice"

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	id := srv.createSession(t, "create")

	rec := srv.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
	assert.Equal(t, env.RequestID, rec.Header().Get("X-Request-ID"))

	rec = srv.do(t, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	rec = srv.do(t, http.MethodPost, "/api/sessions/"+id+"/reset", map[string]string{"mode": "enhance"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"enhance"`)

	rec = srv.do(t, http.MethodDelete, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env = decode(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCreateSessionValidation(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	rec := srv.do(t, http.MethodPost, "/api/sessions", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrorBadRequest, decode(t, rec).Error.Code)

	rec = srv.do(t, http.MethodPost, "/api/sessions", map[string]string{"mode": "remix"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec).Error.Code)
}

func TestResearchStreamsServerSentEvents(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	id := srv.createSession(t, "create")

	rec := srv.do(t, http.MethodPut, "/api/sessions/"+id+"/create/course-info", courseInfo)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	srv.provider.reply(researchText)
	rec = srv.do(t, http.MethodPost, "/api/sessions/"+id+"/create/research", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `data: {"text":`), body)
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"), body)

	var streamed strings.Builder
	for _, line := range strings.Split(body, "\n") {
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok || payload == "[DONE]" {
			continue
		}
		var ev struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.Unmarshal([]byte(payload), &ev))
		streamed.WriteString(ev.Text)
	}
	assert.Equal(t, researchText, streamed.String())

	rec = srv.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Contains(t, rec.Body.String(), "Relational stores still dominate.")
}

func TestStreamFailureBeforeFirstChunkIsJSON(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	id := srv.createSession(t, "create")
	srv.do(t, http.MethodPut, "/api/sessions/"+id+"/create/course-info", courseInfo)

	srv.provider.failure = errors.New("upstream overloaded")
	rec := srv.do(t, http.MethodPost, "/api/sessions/"+id+"/create/research", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "GENERATION_FAILED", decode(t, rec).Error.Code)

	// missing course info is caught before any generation
	other := srv.createSession(t, "create")
	rec = srv.do(t, http.MethodPost, "/api/sessions/"+other+"/create/research", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModuleIndexValidation(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	id := srv.createSession(t, "create")

	rec := srv.do(t, http.MethodPatch, "/api/sessions/"+id+"/create/modules/first", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrorInvalidIndex, decode(t, rec).Error.Code)
}

func TestUploadFile(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	id := srv.createSession(t, "enhance")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "syllabus.md")
	require.NoError(t, err)
	_, err = part.Write([]byte("# Databases 101\n\nWeek 1: tables."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/enhance/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var file struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &file))
	assert.Equal(t, "syllabus.md", file.Name)
	assert.Contains(t, file.Content, "Week 1: tables.")

	rec = srv.do(t, http.MethodDelete, "/api/sessions/"+id+"/enhance/files/"+file.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/sessions/"+id+"/enhance/files", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrorFileUploadFailed, decode(t, rec).Error.Code)
}

func TestExportEmptySessionIsRejected(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	id := srv.createSession(t, "create")

	rec := srv.do(t, http.MethodGet, "/api/sessions/"+id+"/export/markdown", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decode(t, rec).Success)
}

func TestExportSlidesDownload(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	id := srv.createSession(t, "create")
	srv.do(t, http.MethodPut, "/api/sessions/"+id+"/create/course-info", courseInfo)
	srv.provider.reply(researchText)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/sessions/"+id+"/create/research", nil).Code)

	rec := srv.do(t, http.MethodGet, "/api/sessions/"+id+"/export/slides", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "curriculum-slides.html")
	assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
}

func TestLLMSettings(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	rec := srv.do(t, http.MethodGet, "/api/llm/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status llmStatusResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &status))
	assert.True(t, status.Ready)
	assert.Equal(t, "stub", status.Provider)
	assert.False(t, status.HasAPIKey)

	rec = srv.do(t, http.MethodPut, "/api/llm/config", map[string]interface{}{
		"provider": "no-such-provider",
		"config":   map[string]string{"api_key": "sk-test-1234567890"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrorLLMConfigInvalid, decode(t, rec).Error.Code)
	assert.NotContains(t, rec.Body.String(), "sk-test-1234567890")

	rec = srv.do(t, http.MethodGet, "/api/llm/models?provider=no-such-provider", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProgressUnknownTask(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	rec := srv.do(t, http.MethodGet, "/api/progress/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrorTaskNotFound, decode(t, rec).Error.Code)
}

func TestProgressStreamOfFinishedTask(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	tracker := srv.progress.CreateTracker("task-1", "s1")
	tracker.Complete("all changes generated")

	rec := srv.do(t, http.MethodGet, "/api/progress/task-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: progress\ndata: "), body)
	assert.Contains(t, body, `"status":"completed"`)
	assert.Contains(t, body, `"progress":100`)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	rec := srv.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"llm_ready":true`)

	rec = srv.do(t, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	rec := srv.do(t, http.MethodOptions, "/api/sessions", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
