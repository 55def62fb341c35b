package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWriteEventFramesMessage(t *testing.T) {
	var buffer bytes.Buffer
	message := RealtimeMessage{
		UserID:    9,
		EventType: RealtimeEventCommentAdded,
		Source:    realtimeSourceBackend,
		VideoID:   4,
		CommentID: 12,
		Timestamp: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := writeEvent(&buffer, message); err != nil {
		t.Fatalf("writeEvent failed: %v", err)
	}

	frame := buffer.String()
	if !strings.HasPrefix(frame, "event: comment-added\ndata: ") || !strings.HasSuffix(frame, "\n\n") {
		t.Fatalf("unexpected frame %q", frame)
	}
	data := strings.TrimSuffix(strings.TrimPrefix(frame, "event: comment-added\ndata: "), "\n\n")
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(data), &decoded); err != nil {
		t.Fatalf("failed to decode payload %q: %v", data, err)
	}
	if decoded["type"] != RealtimeEventCommentAdded || decoded["comment_id"] != float64(12) {
		t.Fatalf("unexpected payload %#v", decoded)
	}
	if _, present := decoded["user_id"]; present {
		t.Fatalf("recipient id must not be serialized")
	}
}

type sseEvent struct {
	name string
	data string
}

// readSSE returns the next event frame or heartbeat comment from the stream.
func readSSE(t *testing.T, reader *bufio.Reader) sseEvent {
	t.Helper()
	var event sseEvent
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("failed to read stream: %v", err)
		}
		line = strings.TrimSuffix(line, "\n")
		switch {
		case line == "":
			if event.name != "" || event.data != "" {
				return event
			}
		case strings.HasPrefix(line, ": "):
			event.name = strings.TrimPrefix(line, ": ")
		case strings.HasPrefix(line, "event: "):
			event.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			event.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func openEventStream(t *testing.T, ctx context.Context, baseURL, token string) *bufio.Reader {
	t.Helper()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/events", http.NoBody)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	request.Header.Set("Authorization", "Bearer "+token)
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	t.Cleanup(func() { response.Body.Close() })
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.StatusCode)
	}
	if contentType := response.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "text/event-stream") {
		t.Fatalf("unexpected content type %q", contentType)
	}
	return bufio.NewReader(response.Body)
}

func TestEventStreamDeliversOwnerNotifications(t *testing.T) {
	server := newTestServer(t)
	ownerToken, owner := server.mustRegister(t, "streamer")
	fanToken, _ := server.mustRegister(t, "viewer")
	video := server.mustCreateVideo(t, ownerToken, "Live Set", "")

	httpServer := httptest.NewServer(server.handler)
	defer httpServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := openEventStream(t, ctx, httpServer.URL, ownerToken)

	ready := readSSE(t, reader)
	if ready.name != realtimeEventReady {
		t.Fatalf("expected ready event first, got %#v", ready)
	}
	if server.realtime.SubscriberCount(owner.ID) != 1 {
		t.Fatalf("expected the stream to be registered")
	}

	expectStatus(t, server.do(t, http.MethodPost, "/videos/"+video.ID.String()+"/like", fanToken, nil), http.StatusOK)

	reaction := readSSE(t, reader)
	if reaction.name != RealtimeEventVideoReaction {
		t.Fatalf("expected reaction event, got %#v", reaction)
	}
	var payload RealtimeMessage
	if err := json.Unmarshal([]byte(reaction.data), &payload); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if payload.VideoID != video.ID || payload.LikeCount != 1 {
		t.Fatalf("unexpected reaction payload %#v", payload)
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for server.realtime.SubscriberCount(owner.ID) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream was not unregistered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEventStreamSendsHeartbeats(t *testing.T) {
	server := newTestServer(t, withHeartbeat(20*time.Millisecond))
	token, _ := server.mustRegister(t, "idler")

	httpServer := httptest.NewServer(server.handler)
	defer httpServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := openEventStream(t, ctx, httpServer.URL, token)

	if ready := readSSE(t, reader); ready.name != realtimeEventReady {
		t.Fatalf("expected ready event first, got %#v", ready)
	}
	if heartbeat := readSSE(t, reader); heartbeat.name != realtimeEventHeartbeat {
		t.Fatalf("expected heartbeat comment, got %#v", heartbeat)
	}
}

func TestEventStreamRequiresSession(t *testing.T) {
	server := newTestServer(t)
	expectError(t, server.do(t, http.MethodGet, "/events", "", nil), http.StatusUnauthorized, "unauthorized")
}
