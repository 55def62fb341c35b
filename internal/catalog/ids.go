package catalog

import "strconv"

// UserID identifies a user account.
type UserID int64

// VideoID identifies a content item.
type VideoID int64

// CommentID identifies a comment.
type CommentID int64

// SubscriptionID identifies a subscription edge.
type SubscriptionID int64

// PlaylistID identifies a playlist.
type PlaylistID int64

// CategoryID identifies a category.
type CategoryID int64

// AllCategories is the sentinel category that never filters results.
const AllCategories CategoryID = 1

// String returns the decimal form of the identifier.
func (id UserID) String() string { return strconv.FormatInt(int64(id), 10) }

// String returns the decimal form of the identifier.
func (id VideoID) String() string { return strconv.FormatInt(int64(id), 10) }

// String returns the decimal form of the identifier.
func (id CommentID) String() string { return strconv.FormatInt(int64(id), 10) }

// String returns the decimal form of the identifier.
func (id PlaylistID) String() string { return strconv.FormatInt(int64(id), 10) }

// Matches reports whether a video in category c passes the filter.
func (id CategoryID) Matches(c CategoryID) bool {
	if id == 0 || id == AllCategories {
		return true
	}
	return id == c
}

type entityKind int

const (
	kindUser entityKind = iota
	kindVideo
	kindComment
	kindSubscription
	kindCategory
	kindPlaylist
	kindCount
)

// idAllocator hands out monotonic ids per entity kind, starting at 1.
// Callers hold the store lock.
type idAllocator struct {
	last [kindCount]int64
}

func (a *idAllocator) next(kind entityKind) int64 {
	a.last[kind]++
	return a.last[kind]
}

// videoUserKey is the composite key for per (video, user) relation maps.
type videoUserKey struct {
	video VideoID
	user  UserID
}

// subscriptionKey is the composite key for the subscription index.
type subscriptionKey struct {
	subscriber UserID
	publisher  UserID
}
