package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const defaultHeartbeatInterval = 25 * time.Second

// handleEvents streams realtime messages addressed to the caller as server-sent events.
func (h *httpHandler) handleEvents(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	stream, cleanup := h.realtime.Subscribe(ctx, identity.UserID)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if err := writeEvent(c.Writer, RealtimeMessage{
		UserID:    identity.UserID,
		EventType: realtimeEventReady,
		Source:    realtimeSourceBackend,
		Timestamp: h.clock().UTC(),
	}); err != nil {
		return
	}
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case message, open := <-stream:
			if !open {
				return
			}
			if err := writeEvent(c.Writer, message); err != nil {
				h.logger.Debug("realtime stream closed", zap.Error(err), zap.Int64("user_id", int64(identity.UserID)))
				return
			}
			c.Writer.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(c.Writer, ": "+realtimeEventHeartbeat+"\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// writeEvent frames one message as an SSE event named after its type.
func writeEvent(w io.Writer, message RealtimeMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", message.EventType, payload)
	return err
}
