package server

import (
	"context"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
)

const (
	RealtimeEventVideoReaction   = "video-reaction"
	RealtimeEventCommentAdded    = "comment-added"
	RealtimeEventSubscriberAdded = "subscriber-added"
	realtimeEventReady           = "ready"
	realtimeEventHeartbeat       = "heartbeat"
	realtimeSourceBackend        = "clipstore-api"

	defaultRealtimeBufferSize = 16
)

// RealtimeMessage is an event addressed to one user, usually a content owner.
type RealtimeMessage struct {
	UserID       catalog.UserID    `json:"-"`
	EventType    string            `json:"type"`
	Source       string            `json:"source"`
	ActorID      catalog.UserID    `json:"actor_id,omitempty"`
	VideoID      catalog.VideoID   `json:"video_id,omitempty"`
	CommentID    catalog.CommentID `json:"comment_id,omitempty"`
	LikeCount    int64             `json:"like_count,omitempty"`
	DislikeCount int64             `json:"dislike_count,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// RealtimeDispatcher fans messages out to every open stream of the addressed user.
type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[catalog.UserID]map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
}

type realtimeSubscriber struct {
	id     int64
	stream chan RealtimeMessage
}

func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[catalog.UserID]map[int64]*realtimeSubscriber),
		bufferSize:  defaultRealtimeBufferSize,
	}
}

// Subscribe registers a stream for userID until ctx ends or cleanup is called.
func (d *RealtimeDispatcher) Subscribe(ctx context.Context, userID catalog.UserID) (<-chan RealtimeMessage, func()) {
	if userID == 0 {
		ch := make(chan RealtimeMessage)
		close(ch)
		return ch, func() {}
	}
	subscriber := &realtimeSubscriber{
		id:     d.nextSequence(),
		stream: make(chan RealtimeMessage, d.bufferSize),
	}
	d.registerSubscriber(userID, subscriber)
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			d.unregisterSubscriber(userID, subscriber.id)
		})
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish delivers without blocking; full buffers drop the message. It returns
// the number of streams that accepted it.
func (d *RealtimeDispatcher) Publish(message RealtimeMessage) int {
	if message.UserID == 0 || message.EventType == "" {
		return 0
	}
	if message.Source == "" {
		message.Source = realtimeSourceBackend
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	delivered := 0
	for _, subscriber := range d.subscribers[message.UserID] {
		select {
		case subscriber.stream <- message:
			delivered++
		default:
		}
	}
	return delivered
}

// SubscriberCount reports the number of open streams for userID.
func (d *RealtimeDispatcher) SubscriberCount(userID catalog.UserID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers[userID])
}

func (d *RealtimeDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *RealtimeDispatcher) registerSubscriber(userID catalog.UserID, subscriber *realtimeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[userID]; !ok {
		d.subscribers[userID] = make(map[int64]*realtimeSubscriber)
	}
	d.subscribers[userID][subscriber.id] = subscriber
}

func (d *RealtimeDispatcher) unregisterSubscriber(userID catalog.UserID, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[userID]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, userID)
		}
	}
	d.mu.Unlock()
}
