// internal/api/sse.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/services"
	"github.com/gin-gonic/gin"
)

const heartbeatInterval = 15 * time.Second

// sseWriter emits server-sent events. Headers are only committed on the
// first write, so a request that fails early still gets a JSON envelope.
type sseWriter struct {
	c       *gin.Context
	started bool
}

func (w *sseWriter) start() {
	if w.started {
		return
	}
	w.started = true
	h := w.c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.c.Status(http.StatusOK)
}

func (w *sseWriter) data(payload string) {
	w.start()
	fmt.Fprintf(w.c.Writer, "data: %s\n\n", payload)
	w.c.Writer.Flush()
}

func (w *sseWriter) send(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte(`{"error":"encode event"}`)
	}
	w.data(string(b))
}

func (w *sseWriter) event(name string, v interface{}) {
	w.start()
	b, _ := json.Marshal(v)
	fmt.Fprintf(w.c.Writer, "event: %s\ndata: %s\n\n", name, b)
	w.c.Writer.Flush()
}

// streamStep runs a streamed generation step. Text deltas go out as
// {"text":...} events and the stream ends with [DONE] or one
// {"error":...} event. Errors raised before the first delta are answered
// with a plain JSON envelope instead.
func (h *Handler) streamStep(c *gin.Context, run func(ctx context.Context, onChunk func(string)) (*models.Session, error)) {
	w := &sseWriter{c: c}
	_, err := run(c.Request.Context(), func(text string) {
		w.send(gin.H{"text": text})
	})
	if err != nil {
		if !w.started {
			h.response.FromError(c, err)
			return
		}
		w.send(gin.H{"error": sanitizeErrorMessage(err.Error())})
		return
	}
	w.data("[DONE]")
}

// SubscribeProgress relays a background task's updates as SSE until it
// finishes or the client goes away.
func (h *Handler) SubscribeProgress(c *gin.Context) {
	tracker, ok := h.progress.GetTracker(c.Param("taskID"))
	if !ok {
		h.response.NotFound(c, ErrorTaskNotFound, "task not found")
		return
	}

	sub := tracker.Subscribe()
	defer tracker.Unsubscribe(sub)

	w := &sseWriter{c: c}
	w.start()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case update, open := <-sub:
			if !open {
				return
			}
			w.event("progress", update)
			if update.Status == services.TaskCompleted || update.Status == services.TaskFailed {
				return
			}
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": heartbeat\n\n")
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
