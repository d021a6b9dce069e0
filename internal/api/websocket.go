// internal/api/websocket.go
package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Corphon/CurriculumDesigner/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait   = 10 * time.Second
	wsPongTimeout = 60 * time.Second
	wsPingPeriod  = wsPongTimeout * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the UI is served from other origins in development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// progressClient is one WebSocket following one task.
type progressClient struct {
	conn   *websocket.Conn
	closed int32
	done   chan struct{}
}

func (client *progressClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		client.conn.Close()
	}
}

// readLoop drains client frames so pongs and close frames are processed.
func (client *progressClient) readLoop() {
	defer close(client.done)
	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ProgressWebSocket pushes a task's progress updates as JSON text frames
// and closes normally once the task finishes.
func (h *Handler) ProgressWebSocket(c *gin.Context) {
	tracker, ok := h.progress.GetTracker(c.Param("taskID"))
	if !ok {
		h.response.NotFound(c, ErrorTaskNotFound, "task not found")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "task_id", tracker.TaskID, "error", err)
		return
	}
	client := &progressClient{conn: conn, done: make(chan struct{})}
	defer client.Close()
	go client.readLoop()

	sub := tracker.Subscribe()
	defer tracker.Unsubscribe(sub)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-client.done:
			return
		case update, open := <-sub:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(update); err != nil {
				return
			}
			if update.Status == services.TaskCompleted || update.Status == services.TaskFailed {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, update.Status),
					time.Now().Add(wsWriteWait))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
