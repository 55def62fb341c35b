package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
	"github.com/gin-gonic/gin"
)

type createVideoRequestPayload struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	MediaURL    string `json:"media_url" validate:"omitempty,url"`
	CategoryID  int64  `json:"category_id" validate:"min=0"`
}

type updateVideoRequestPayload struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	MediaURL    *string `json:"media_url" validate:"omitempty,url"`
	CategoryID  *int64  `json:"category_id" validate:"omitempty,min=0"`
	IsArchived  *bool   `json:"is_archived"`
}

type adImpressionRequestPayload struct {
	RevenueCents int64 `json:"revenue_cents" validate:"min=0"`
}

type resolvePromotionRequestPayload struct {
	Approved *bool `json:"approved" validate:"required"`
}

type listResponsePayload[T any] struct {
	Items []T `json:"items"`
}

func (h *httpHandler) handleListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, listResponsePayload[catalog.Category]{Items: h.catalog.ListCategories()})
}

func (h *httpHandler) handleListVideos(c *gin.Context) {
	query, ok := parseVideoQuery(c)
	if !ok {
		return
	}
	ownerID, ok := parseQueryInt(c, "owner_id")
	if !ok {
		return
	}
	query.OwnerID = catalog.UserID(ownerID)
	query.IncludeArchived = query.OwnerID != 0 && query.OwnerID == viewerID(c)
	c.JSON(http.StatusOK, listResponsePayload[catalog.Video]{Items: h.catalog.ListVideos(query)})
}

func (h *httpHandler) handleListUserVideos(c *gin.Context) {
	ownerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	query, ok := parseVideoQuery(c)
	if !ok {
		return
	}
	if _, err := h.catalog.GetUser(catalog.UserID(ownerID)); err != nil {
		h.respondError(c, err)
		return
	}
	query.OwnerID = catalog.UserID(ownerID)
	query.IncludeArchived = query.OwnerID == viewerID(c)
	c.JSON(http.StatusOK, listResponsePayload[catalog.Video]{Items: h.catalog.ListVideos(query)})
}

func parseVideoQuery(c *gin.Context) (catalog.VideoQuery, bool) {
	categoryID, ok := parseQueryInt(c, "category_id")
	if !ok {
		return catalog.VideoQuery{}, false
	}
	offset, ok := parseQueryInt(c, "offset")
	if !ok {
		return catalog.VideoQuery{}, false
	}
	limit, ok := parseQueryInt(c, "limit")
	if !ok {
		return catalog.VideoQuery{}, false
	}
	return catalog.VideoQuery{
		CategoryID: catalog.CategoryID(categoryID),
		Offset:     offset,
		Limit:      limit,
	}, true
}

// handleGetVideo treats ?view=true as a genuine view: the view counter is
// incremented and, for signed-in callers, the watch history is updated.
func (h *httpHandler) handleGetVideo(c *gin.Context) {
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	id := catalog.VideoID(videoID)
	viewer := viewerID(c)

	view, err := h.catalog.GetVideo(id, viewer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if view.IsDeleted && view.OwnerID != viewer {
		respondNotFound(c, "video_not_found")
		return
	}

	if c.Query("view") == "true" && !view.IsDeleted {
		if _, err := h.catalog.IncrementViews(id); err != nil {
			h.respondError(c, err)
			return
		}
		if viewer != 0 {
			if err := h.catalog.RecordView(viewer, id); err != nil {
				h.respondError(c, err)
				return
			}
		}
		if view, err = h.catalog.GetVideo(id, viewer); err != nil {
			h.respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, view)
}

func (h *httpHandler) handleCreateVideo(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	var request createVideoRequestPayload
	if !bindPayload(c, &request) {
		return
	}
	video, err := h.catalog.CreateVideo(catalog.NewVideo{
		OwnerID:     identity.UserID,
		CategoryID:  catalog.CategoryID(request.CategoryID),
		Title:       request.Title,
		Description: request.Description,
		MediaURL:    request.MediaURL,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, video)
}

func (h *httpHandler) handleUpdateVideo(c *gin.Context) {
	video, ok := h.managedVideo(c)
	if !ok {
		return
	}
	var request updateVideoRequestPayload
	if !bindPayload(c, &request) {
		return
	}
	changes := catalog.VideoChanges{
		Title:       request.Title,
		Description: request.Description,
		MediaURL:    request.MediaURL,
		IsArchived:  request.IsArchived,
	}
	if request.CategoryID != nil {
		categoryID := catalog.CategoryID(*request.CategoryID)
		changes.CategoryID = &categoryID
	}
	updated, err := h.catalog.UpdateVideo(video.ID, changes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *httpHandler) handleSoftDeleteVideo(c *gin.Context) {
	video, ok := h.managedVideo(c)
	if !ok {
		return
	}
	deleted, err := h.catalog.SoftDeleteVideo(video.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

func (h *httpHandler) handleRestoreVideo(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	id := catalog.VideoID(videoID)
	// Restore goes through the store even when the video is gone so a purged
	// id reports its tombstone rather than a plain not found.
	if view, err := h.catalog.GetVideo(id, 0); err == nil && !canManage(identity, view.OwnerID) {
		respondForbidden(c)
		return
	}
	restored, err := h.catalog.RestoreVideo(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restored)
}

func (h *httpHandler) handlePermanentDelete(c *gin.Context) {
	video, ok := h.managedVideo(c)
	if !ok {
		return
	}
	if err := h.catalog.PermanentlyDeleteVideo(video.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleListTrash(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, listResponsePayload[catalog.Video]{Items: h.catalog.ListTrash(identity.UserID)})
}

func (h *httpHandler) handleAdImpression(c *gin.Context) {
	if _, ok := mustIdentity(c); !ok {
		return
	}
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var request adImpressionRequestPayload
	if !bindPayload(c, &request) {
		return
	}
	video, err := h.catalog.RecordAdImpression(catalog.VideoID(videoID), request.RevenueCents)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *httpHandler) handleRequestPromotion(c *gin.Context) {
	video, ok := h.managedVideo(c)
	if !ok {
		return
	}
	updated, err := h.catalog.RequestPromotion(video.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, updated)
}

func (h *httpHandler) handleResolvePromotion(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	if !identity.IsAdmin() {
		respondForbidden(c)
		return
	}
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var request resolvePromotionRequestPayload
	if !bindPayload(c, &request) {
		return
	}
	updated, err := h.catalog.ResolvePromotion(catalog.VideoID(videoID), *request.Approved)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// managedVideo resolves the :id video and checks that the caller owns it or is an admin.
func (h *httpHandler) managedVideo(c *gin.Context) (catalog.Video, bool) {
	identity, ok := mustIdentity(c)
	if !ok {
		return catalog.Video{}, false
	}
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return catalog.Video{}, false
	}
	view, err := h.catalog.GetVideo(catalog.VideoID(videoID), 0)
	if err != nil {
		h.respondError(c, err)
		return catalog.Video{}, false
	}
	if !canManage(identity, view.OwnerID) {
		respondForbidden(c)
		return catalog.Video{}, false
	}
	return view.Video, true
}
