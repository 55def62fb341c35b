package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func receiveRealtime(t *testing.T, stream <-chan RealtimeMessage) RealtimeMessage {
	t.Helper()
	select {
	case message := <-stream:
		return message
	case <-time.After(time.Second):
		t.Fatal("expected realtime message within deadline")
		return RealtimeMessage{}
	}
}

func TestReactionsToggleAndNotifyOwner(t *testing.T) {
	server := newTestServer(t)
	ownerToken, owner := server.mustRegister(t, "chef")
	fanToken, fan := server.mustRegister(t, "fan")
	video := server.mustCreateVideo(t, ownerToken, "Ramen", "")
	path := "/videos/" + video.ID.String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, cleanup := server.realtime.Subscribe(ctx, owner.ID)
	defer cleanup()

	liked := server.do(t, http.MethodPost, path+"/like", fanToken, nil)
	expectStatus(t, liked, http.StatusOK)
	var view catalog.VideoView
	decodeBody(t, liked, &view)
	if !view.Liked || view.LikeCount != 1 {
		t.Fatalf("expected a like, got %#v", view)
	}
	message := receiveRealtime(t, stream)
	if message.EventType != RealtimeEventVideoReaction || message.ActorID != fan.ID || message.LikeCount != 1 {
		t.Fatalf("unexpected reaction event %#v", message)
	}

	disliked := server.do(t, http.MethodPost, path+"/dislike", fanToken, nil)
	decodeBody(t, disliked, &view)
	if view.Liked || !view.Disliked || view.LikeCount != 0 || view.DislikeCount != 1 {
		t.Fatalf("expected dislike to replace like, got %#v", view)
	}
	message = receiveRealtime(t, stream)
	if message.DislikeCount != 1 || message.LikeCount != 0 {
		t.Fatalf("unexpected counts in event %#v", message)
	}

	expectStatus(t, server.do(t, http.MethodPost, path+"/like", ownerToken, nil), http.StatusOK)
	select {
	case unexpected := <-stream:
		t.Fatalf("owners must not be notified of their own reactions: %#v", unexpected)
	case <-time.After(100 * time.Millisecond):
	}

	if got := testutil.ToFloat64(server.metrics.RealtimeEventTotal.WithLabelValues(RealtimeEventVideoReaction, "delivered")); got != 2 {
		t.Fatalf("expected two delivered reaction events, got %v", got)
	}

	var liked2 listResponsePayload[catalog.Video]
	decodeBody(t, server.do(t, http.MethodGet, "/me/liked", ownerToken, nil), &liked2)
	if len(liked2.Items) != 1 || liked2.Items[0].ID != video.ID {
		t.Fatalf("expected the video in liked list, got %#v", liked2.Items)
	}

	expectError(t, server.do(t, http.MethodPost, "/videos/999/like", fanToken, nil), http.StatusNotFound, "video_not_found")
}

func TestSaveToggleIsIndependent(t *testing.T) {
	server := newTestServer(t)
	token, _ := server.mustRegister(t, "collector")
	video := server.mustCreateVideo(t, token, "Keeper", "")
	path := "/videos/" + video.ID.String() + "/save"

	var view catalog.VideoView
	decodeBody(t, server.do(t, http.MethodPost, path, token, nil), &view)
	if !view.Saved || view.Liked {
		t.Fatalf("expected only the save flag, got %#v", view)
	}

	var saved listResponsePayload[catalog.Video]
	decodeBody(t, server.do(t, http.MethodGet, "/me/saved", token, nil), &saved)
	if len(saved.Items) != 1 {
		t.Fatalf("expected one saved video, got %d", len(saved.Items))
	}

	decodeBody(t, server.do(t, http.MethodPost, path, token, nil), &view)
	if view.Saved {
		t.Fatalf("expected second save to clear the flag")
	}
}

func TestCommentThreadsAndModeration(t *testing.T) {
	server := newTestServer(t)
	ownerToken, owner := server.mustRegister(t, "host")
	guestToken, guest := server.mustRegister(t, "guest")
	strangerToken, _ := server.mustRegister(t, "lurker")
	video := server.mustCreateVideo(t, ownerToken, "Q and A", "")
	path := "/videos/" + video.ID.String() + "/comments"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, cleanup := server.realtime.Subscribe(ctx, owner.ID)
	defer cleanup()

	created := server.do(t, http.MethodPost, path, guestToken, map[string]string{"text": "First question"})
	expectStatus(t, created, http.StatusCreated)
	var root catalog.Comment
	decodeBody(t, created, &root)
	if root.AuthorID != guest.ID || root.VideoID != video.ID {
		t.Fatalf("unexpected comment %#v", root)
	}
	message := receiveRealtime(t, stream)
	if message.EventType != RealtimeEventCommentAdded || message.CommentID != root.ID {
		t.Fatalf("unexpected comment event %#v", message)
	}

	reply := server.do(t, http.MethodPost, path, ownerToken, map[string]interface{}{"text": "Answer", "parent_id": root.ID})
	expectStatus(t, reply, http.StatusCreated)
	var answer catalog.Comment
	decodeBody(t, reply, &answer)

	nested := server.do(t, http.MethodPost, path, guestToken, map[string]interface{}{"text": "Follow-up", "parent_id": answer.ID})
	expectError(t, nested, http.StatusConflict, "nested_reply")
	expectError(t, server.do(t, http.MethodPost, path, guestToken, map[string]string{"text": ""}), http.StatusBadRequest, "invalid_request")

	var threads listResponsePayload[catalog.CommentThread]
	decodeBody(t, server.do(t, http.MethodGet, path, "", nil), &threads)
	if len(threads.Items) != 1 {
		t.Fatalf("expected one thread, got %d", len(threads.Items))
	}
	thread := threads.Items[0]
	if thread.Author == nil || thread.Author.Username != "guest" || len(thread.Replies) != 1 || thread.Replies[0].ID != answer.ID {
		t.Fatalf("unexpected thread %#v", thread)
	}

	commentPath := "/comments/" + root.ID.String()
	expectError(t, server.do(t, http.MethodDelete, commentPath, strangerToken, nil), http.StatusForbidden, "forbidden")
	expectStatus(t, server.do(t, http.MethodDelete, commentPath, ownerToken, nil), http.StatusNoContent)
	expectError(t, server.do(t, http.MethodDelete, commentPath, ownerToken, nil), http.StatusNotFound, "comment_not_found")

	decodeBody(t, server.do(t, http.MethodGet, path, "", nil), &threads)
	if len(threads.Items) != 0 {
		t.Fatalf("expected replies to be removed with their parent, got %#v", threads.Items)
	}
	expectError(t, server.do(t, http.MethodGet, "/videos/999/comments", "", nil), http.StatusNotFound, "video_not_found")
}

func TestSubscriptionsOverHTTP(t *testing.T) {
	server := newTestServer(t)
	publisherToken, publisher := server.mustRegister(t, "publisher")
	subscriberToken, subscriber := server.mustRegister(t, "subscriber")
	path := "/users/" + publisher.ID.String() + "/subscription"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, cleanup := server.realtime.Subscribe(ctx, publisher.ID)
	defer cleanup()

	expectStatus(t, server.do(t, http.MethodPost, path, subscriberToken, nil), http.StatusCreated)
	message := receiveRealtime(t, stream)
	if message.EventType != RealtimeEventSubscriberAdded || message.ActorID != subscriber.ID {
		t.Fatalf("unexpected subscriber event %#v", message)
	}
	duplicate := expectError(t, server.do(t, http.MethodPost, path, subscriberToken, nil), http.StatusConflict, "already_subscribed")
	if duplicate.Code != "catalog.subscribe.already_subscribed" {
		t.Fatalf("unexpected duplicate subscription code %q", duplicate.Code)
	}
	expectError(t, server.do(t, http.MethodPost, path, publisherToken, nil), http.StatusConflict, "self_subscription")
	expectError(t, server.do(t, http.MethodPost, "/users/999/subscription", subscriberToken, nil), http.StatusNotFound, "user_not_found")

	var profile publicProfilePayload
	decodeBody(t, server.do(t, http.MethodGet, "/users/"+publisher.ID.String(), "", nil), &profile)
	if profile.SubscriberCount != 1 {
		t.Fatalf("expected one subscriber, got %d", profile.SubscriberCount)
	}

	var subscriptions listResponsePayload[catalog.Subscription]
	decodeBody(t, server.do(t, http.MethodGet, "/me/subscriptions", subscriberToken, nil), &subscriptions)
	if len(subscriptions.Items) != 1 || subscriptions.Items[0].PublisherID != publisher.ID {
		t.Fatalf("unexpected subscriptions %#v", subscriptions.Items)
	}

	expectStatus(t, server.do(t, http.MethodDelete, path, subscriberToken, nil), http.StatusNoContent)
	expectError(t, server.do(t, http.MethodDelete, path, subscriberToken, nil), http.StatusNotFound, "subscription_not_found")

	decodeBody(t, server.do(t, http.MethodGet, "/users/"+publisher.ID.String(), "", nil), &profile)
	if profile.SubscriberCount != 0 {
		t.Fatalf("expected subscriber count to drop back, got %d", profile.SubscriberCount)
	}
}

func TestWatchProgressOverHTTP(t *testing.T) {
	server := newTestServer(t)
	token, _ := server.mustRegister(t, "binger")
	video := server.mustCreateVideo(t, token, "Episode One", "")
	path := "/videos/" + video.ID.String() + "/progress"

	negative := server.do(t, http.MethodPut, path, token, map[string]float64{"seconds": -1})
	payload := expectError(t, negative, http.StatusBadRequest, "invalid_request")
	if len(payload.Fields) != 1 || payload.Fields[0].Field != "seconds" {
		t.Fatalf("expected seconds violation, got %#v", payload.Fields)
	}

	expectStatus(t, server.do(t, http.MethodPut, path, token, map[string]float64{"seconds": 42.5}), http.StatusOK)
	var progress progressResponsePayload
	decodeBody(t, server.do(t, http.MethodGet, path, token, nil), &progress)
	if progress.Seconds != 42.5 || progress.VideoID != video.ID {
		t.Fatalf("unexpected progress %#v", progress)
	}

	expectError(t, server.do(t, http.MethodPut, "/videos/999/progress", token, map[string]float64{"seconds": 1}), http.StatusNotFound, "video_not_found")
}
