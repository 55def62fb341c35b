package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/clipstore/internal/auth"
	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
	"github.com/gin-gonic/gin"
)

type createCommentRequestPayload struct {
	Text     string `json:"text" validate:"required,max=2000"`
	ParentID int64  `json:"parent_id" validate:"min=0"`
}

func (h *httpHandler) handleLike(c *gin.Context) {
	h.toggleReaction(c, h.catalog.Like)
}

func (h *httpHandler) handleDislike(c *gin.Context) {
	h.toggleReaction(c, h.catalog.Dislike)
}

func (h *httpHandler) toggleReaction(c *gin.Context, toggle func(catalog.VideoID, catalog.UserID) (catalog.VideoView, error)) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := toggle(catalog.VideoID(videoID), identity.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if view.OwnerID != identity.UserID {
		h.publish(RealtimeMessage{
			UserID:       view.OwnerID,
			EventType:    RealtimeEventVideoReaction,
			ActorID:      identity.UserID,
			VideoID:      view.ID,
			LikeCount:    view.LikeCount,
			DislikeCount: view.DislikeCount,
		})
	}
	c.JSON(http.StatusOK, view)
}

func (h *httpHandler) handleToggleSave(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.catalog.ToggleSave(catalog.VideoID(videoID), identity.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *httpHandler) handleListLiked(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, listResponsePayload[catalog.Video]{Items: h.catalog.ListLiked(identity.UserID)})
}

func (h *httpHandler) handleListSaved(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, listResponsePayload[catalog.Video]{Items: h.catalog.ListSaved(identity.UserID)})
}

func (h *httpHandler) handleListComments(c *gin.Context) {
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	threads, err := h.catalog.ListComments(catalog.VideoID(videoID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponsePayload[catalog.CommentThread]{Items: threads})
}

func (h *httpHandler) handleCreateComment(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var request createCommentRequestPayload
	if !bindPayload(c, &request) {
		return
	}
	comment, err := h.catalog.CreateComment(catalog.VideoID(videoID), identity.UserID, request.Text, catalog.CommentID(request.ParentID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if view, err := h.catalog.GetVideo(comment.VideoID, 0); err == nil && view.OwnerID != identity.UserID {
		h.publish(RealtimeMessage{
			UserID:    view.OwnerID,
			EventType: RealtimeEventCommentAdded,
			ActorID:   identity.UserID,
			VideoID:   comment.VideoID,
			CommentID: comment.ID,
		})
	}
	c.JSON(http.StatusCreated, comment)
}

// handleDeleteComment lets the author, the video owner or an admin remove a comment.
func (h *httpHandler) handleDeleteComment(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	comment, err := h.catalog.GetComment(catalog.CommentID(commentID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.canModerateComment(identity, comment) {
		respondForbidden(c)
		return
	}
	if err := h.catalog.DeleteComment(comment.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) canModerateComment(identity auth.Identity, comment catalog.Comment) bool {
	if comment.AuthorID != 0 && comment.AuthorID == identity.UserID {
		return true
	}
	view, err := h.catalog.GetVideo(comment.VideoID, 0)
	if err != nil {
		return identity.IsAdmin()
	}
	return canManage(identity, view.OwnerID)
}

// handleSubscribe rejects an existing pair with 409.
func (h *httpHandler) handleSubscribe(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	publisherID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	publisher := catalog.UserID(publisherID)
	subscription, err := h.catalog.SubscribeOnce(identity.UserID, publisher)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.publish(RealtimeMessage{
		UserID:    publisher,
		EventType: RealtimeEventSubscriberAdded,
		ActorID:   identity.UserID,
	})
	c.JSON(http.StatusCreated, subscription)
}

func (h *httpHandler) handleUnsubscribe(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	publisherID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.Unsubscribe(identity.UserID, catalog.UserID(publisherID)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleListSubscriptions(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, listResponsePayload[catalog.Subscription]{Items: h.catalog.ListSubscriptions(identity.UserID)})
}

func (h *httpHandler) publish(message RealtimeMessage) {
	if message.Timestamp.IsZero() {
		message.Timestamp = h.clock().UTC()
	}
	delivered := h.realtime.Publish(message)
	h.metrics.RecordRealtimeEvent(message.EventType, delivered > 0)
}
