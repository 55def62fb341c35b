package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that an entity id does not resolve.
	ErrNotFound = errors.New("catalog: not found")
	// ErrInvalidState indicates that the entity flags do not permit the operation.
	ErrInvalidState = errors.New("catalog: invalid state")
	// ErrConflict indicates that the operation collides with an existing entity.
	ErrConflict = errors.New("catalog: conflict")
	// ErrInvalidInput indicates that a typed input is out of range.
	ErrInvalidInput = errors.New("catalog: invalid input")
)

// ServiceError carries a stable operation code alongside the sentinel cause.
type ServiceError struct {
	code   string
	reason string
	err    error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the operation.reason code, e.g. catalog.like_video.video_not_found.
func (e *ServiceError) Code() string {
	return e.code
}

// Reason returns the trailing reason segment of the code.
func (e *ServiceError) Reason() string {
	return e.reason
}

const (
	opCreateUser           = "catalog.create_user"
	opGetUser              = "catalog.get_user"
	opUpdateUser           = "catalog.update_user"
	opUpdateLocation       = "catalog.update_location"
	opCreateVideo          = "catalog.create_video"
	opGetVideo             = "catalog.get_video"
	opUpdateVideo          = "catalog.update_video"
	opIncrementViews       = "catalog.increment_views"
	opRecordAdImpression   = "catalog.record_ad_impression"
	opRequestPromotion     = "catalog.request_promotion"
	opResolvePromotion     = "catalog.resolve_promotion"
	opSoftDeleteVideo      = "catalog.soft_delete_video"
	opRestoreVideo         = "catalog.restore_video"
	opPermanentDelete      = "catalog.permanently_delete_video"
	opLikeVideo            = "catalog.like_video"
	opDislikeVideo         = "catalog.dislike_video"
	opSaveVideo            = "catalog.save_video"
	opCreateComment        = "catalog.create_comment"
	opListComments         = "catalog.list_comments"
	opGetComment           = "catalog.get_comment"
	opDeleteComment        = "catalog.delete_comment"
	opSubscribe            = "catalog.subscribe"
	opUnsubscribe          = "catalog.unsubscribe"
	opGetCategory          = "catalog.get_category"
	opRecordView           = "catalog.record_view"
	opSaveProgress         = "catalog.save_progress"
	opCreatePlaylist       = "catalog.create_playlist"
	opGetPlaylist          = "catalog.get_playlist"
	opUpdatePlaylist       = "catalog.update_playlist"
	opDeletePlaylist       = "catalog.delete_playlist"
	opAddToPlaylist        = "catalog.add_to_playlist"
	opRemoveFromPlaylist   = "catalog.remove_from_playlist"
	opListPlaylistVideos   = "catalog.list_playlist_videos"
	reasonUserNotFound     = "user_not_found"
	reasonVideoNotFound    = "video_not_found"
	reasonCommentNotFound  = "comment_not_found"
	reasonParentNotFound   = "parent_not_found"
	reasonPlaylistMissing  = "playlist_not_found"
	reasonEntryNotFound    = "entry_not_found"
	reasonCategoryMissing  = "category_not_found"
	reasonSubscriptionGone = "subscription_not_found"
	reasonUsernameTaken    = "username_taken"
	reasonInvalidUsername  = "invalid_username"
	reasonInvalidTitle     = "invalid_title"
	reasonInvalidText      = "invalid_text"
	reasonInvalidLocation  = "invalid_location"
	reasonInvalidAmount    = "invalid_amount"
	reasonInvalidProgress  = "invalid_progress"
	reasonNotDeleted       = "not_deleted"
	reasonPurged           = "permanently_deleted"
	reasonAlreadyDeleted   = "already_deleted"
	reasonNestedReply      = "nested_reply"
	reasonParentMismatch   = "parent_video_mismatch"
	reasonSelfSubscribe    = "self_subscription"
	reasonSubscribed       = "already_subscribed"
	reasonNotPending       = "promotion_not_pending"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, reason: reason, err: cause}
}
