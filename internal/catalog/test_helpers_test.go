package catalog

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(Config{
		Clock: func() time.Time {
			return time.Unix(1700000000, 0)
		},
	})
}

func mustCreateUser(t *testing.T, store *Store, username string) User {
	t.Helper()
	user, err := store.CreateUser(NewUser{Username: username})
	if err != nil {
		t.Fatalf("unexpected create user error: %v", err)
	}
	return user
}

func mustCreateVideo(t *testing.T, store *Store, owner UserID, title string, category CategoryID) Video {
	t.Helper()
	video, err := store.CreateVideo(NewVideo{OwnerID: owner, Title: title, CategoryID: category})
	if err != nil {
		t.Fatalf("unexpected create video error: %v", err)
	}
	return video
}

func mustCreateComment(t *testing.T, store *Store, video VideoID, author UserID, text string, parent CommentID) Comment {
	t.Helper()
	comment, err := store.CreateComment(video, author, text, parent)
	if err != nil {
		t.Fatalf("unexpected create comment error: %v", err)
	}
	return comment
}

func expectErrorKind(t *testing.T, err error, kind error, code string) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected service error, got %T", err)
	}
	if code != "" && serviceErr.Code() != code {
		t.Fatalf("unexpected error code: got %s want %s", serviceErr.Code(), code)
	}
}

func pointerTo[T any](value T) *T {
	return &value
}
