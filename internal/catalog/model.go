package catalog

import "time"

// Role enumerates account roles.
type Role string

const (
	// RoleUser is the default account role.
	RoleUser Role = "user"
	// RoleAdmin may moderate promotions.
	RoleAdmin Role = "admin"
)

// Geolocation is the last reported position of a user.
type Geolocation struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is a registered account.
type User struct {
	ID              UserID       `json:"id"`
	Username        string       `json:"username"`
	PasswordHash    string       `json:"-"`
	DisplayName     string       `json:"display_name"`
	AvatarURL       string       `json:"avatar_url"`
	Description     string       `json:"description"`
	SubscriberCount int64        `json:"subscriber_count"`
	AdRevenueCents  int64        `json:"ad_revenue_cents"`
	Location        *Geolocation `json:"location,omitempty"`
	Role            Role         `json:"role"`
	CreatedAt       time.Time    `json:"created_at"`
}

// UserSummary is the public owner card attached to videos and search results.
type UserSummary struct {
	ID              UserID `json:"id"`
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	AvatarURL       string `json:"avatar_url"`
	SubscriberCount int64  `json:"subscriber_count"`
}

// NewUser describes the registration input.
type NewUser struct {
	Username     string
	PasswordHash string
	DisplayName  string
	AvatarURL    string
	Description  string
	Role         Role
}

// UserChanges is a partial profile update; nil fields are left untouched.
type UserChanges struct {
	PasswordHash *string
	DisplayName  *string
	AvatarURL    *string
	Description  *string
	Role         *Role
}

// Video is a published content item.
type Video struct {
	ID                VideoID    `json:"id"`
	OwnerID           UserID     `json:"owner_id"`
	CategoryID        CategoryID `json:"category_id,omitempty"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	MediaURL          string     `json:"media_url"`
	ViewCount         int64      `json:"view_count"`
	LikeCount         int64      `json:"like_count"`
	DislikeCount      int64      `json:"dislike_count"`
	AdImpressionCount int64      `json:"ad_impression_count"`
	AdRevenueCents    int64      `json:"ad_revenue_cents"`
	IsArchived        bool       `json:"is_archived"`
	IsDeleted         bool       `json:"is_deleted"`
	IsPromoted        bool       `json:"is_promoted"`
	PromotionPending  bool       `json:"promotion_pending"`
	CreatedAt         time.Time  `json:"created_at"`
}

// NewVideo describes the publish input.
type NewVideo struct {
	OwnerID     UserID
	CategoryID  CategoryID
	Title       string
	Description string
	MediaURL    string
}

// VideoChanges is a partial video update; nil fields are left untouched.
type VideoChanges struct {
	CategoryID  *CategoryID
	Title       *string
	Description *string
	MediaURL    *string
	IsArchived  *bool
}

// VideoView is a video snapshot annotated for a specific viewer.
type VideoView struct {
	Video
	Liked    bool         `json:"liked"`
	Disliked bool         `json:"disliked"`
	Saved    bool         `json:"saved"`
	Owner    *UserSummary `json:"owner,omitempty"`
}

// VideoQuery filters a video listing. Archived videos are listed only for an
// owner query with IncludeArchived set.
type VideoQuery struct {
	CategoryID      CategoryID
	OwnerID         UserID
	IncludeArchived bool
	Offset          int
	Limit           int
}

// Comment is a remark attached to a video. ParentID zero marks a top-level comment.
type Comment struct {
	ID           CommentID `json:"id"`
	VideoID      VideoID   `json:"video_id"`
	AuthorID     UserID    `json:"author_id,omitempty"`
	Text         string    `json:"text"`
	LikeCount    int64     `json:"like_count"`
	DislikeCount int64     `json:"dislike_count"`
	ParentID     CommentID `json:"parent_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CommentThread is a top-level comment with its direct replies.
type CommentThread struct {
	Comment
	Author  *UserSummary `json:"author,omitempty"`
	Replies []Comment    `json:"replies"`
}

// Subscription links a subscriber to a publisher.
type Subscription struct {
	ID           SubscriptionID `json:"id"`
	SubscriberID UserID         `json:"subscriber_id"`
	PublisherID  UserID         `json:"publisher_id"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Category groups videos.
type Category struct {
	ID   CategoryID `json:"id"`
	Name string     `json:"name"`
}

// Playlist is an ordered collection of videos owned by a user.
type Playlist struct {
	ID          PlaylistID      `json:"id"`
	OwnerID     UserID          `json:"owner_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	IsPrivate   bool            `json:"is_private"`
	Entries     []PlaylistEntry `json:"entries"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PlaylistEntry is one membership; Position is the append index and is never reused.
type PlaylistEntry struct {
	VideoID  VideoID `json:"video_id"`
	Position int     `json:"position"`
}

// PlaylistChanges is a partial playlist update.
type PlaylistChanges struct {
	Title       *string
	Description *string
	IsPrivate   *bool
}

// PlaylistItem resolves a membership to the current video. Missing marks a
// dangling membership whose video has been permanently deleted, Unavailable
// one whose video is soft deleted. Video is nil in both cases.
type PlaylistItem struct {
	PlaylistEntry
	Video       *Video `json:"video,omitempty"`
	Missing     bool   `json:"missing"`
	Unavailable bool   `json:"unavailable"`
}

// HistoryEntry is one resolved watch history item.
type HistoryEntry struct {
	Video           Video   `json:"video"`
	ProgressSeconds float64 `json:"progress_seconds"`
}
