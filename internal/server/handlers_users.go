package server

import (
	"net/http"
	"strings"

	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
	"github.com/gin-gonic/gin"
)

type updateProfileRequestPayload struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=64"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=72"`
}

type locationRequestPayload struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

type progressRequestPayload struct {
	Seconds *float64 `json:"seconds" validate:"required,min=0"`
}

type progressResponsePayload struct {
	VideoID catalog.VideoID `json:"video_id"`
	Seconds float64         `json:"seconds"`
}

type publicProfilePayload struct {
	catalog.UserSummary
	Description string `json:"description"`
}

func (h *httpHandler) handleListUsers(c *gin.Context) {
	offset, ok := parseQueryInt(c, "offset")
	if !ok {
		return
	}
	limit, ok := parseQueryInt(c, "limit")
	if !ok {
		return
	}
	users := h.catalog.ListUsers(offset, limit)
	summaries := make([]catalog.UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, summaryOf(user))
	}
	c.JSON(http.StatusOK, listResponsePayload[catalog.UserSummary]{Items: summaries})
}

func summaryOf(user catalog.User) catalog.UserSummary {
	return catalog.UserSummary{
		ID:              user.ID,
		Username:        user.Username,
		DisplayName:     user.DisplayName,
		AvatarURL:       user.AvatarURL,
		SubscriberCount: user.SubscriberCount,
	}
}

func (h *httpHandler) handleGetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.catalog.GetUser(catalog.UserID(userID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicProfilePayload{
		UserSummary: summaryOf(user),
		Description: user.Description,
	})
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	user, err := h.catalog.GetUser(identity.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	var request updateProfileRequestPayload
	if !bindPayload(c, &request) {
		return
	}
	changes := catalog.UserChanges{
		DisplayName: request.DisplayName,
		AvatarURL:   request.AvatarURL,
		Description: request.Description,
	}
	if request.Password != nil {
		hash, err := h.passwords.Hash(*request.Password)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "weak_password"})
			return
		}
		changes.PasswordHash = &hash
	}
	if changes.DisplayName != nil {
		trimmed := strings.TrimSpace(*changes.DisplayName)
		changes.DisplayName = &trimmed
	}
	user, err := h.catalog.UpdateUser(identity.UserID, changes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) handleUpdateLocation(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	var request locationRequestPayload
	if !bindPayload(c, &request) {
		return
	}
	user, err := h.catalog.UpdateLocation(identity.UserID, *request.Latitude, *request.Longitude)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) handleGetHistory(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, listResponsePayload[catalog.HistoryEntry]{Items: h.catalog.GetHistory(identity.UserID)})
}

func (h *httpHandler) handleClearHistory(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	h.catalog.ClearHistory(identity.UserID)
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleGetProgress(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	id := catalog.VideoID(videoID)
	c.JSON(http.StatusOK, progressResponsePayload{VideoID: id, Seconds: h.catalog.GetProgress(identity.UserID, id)})
}

func (h *httpHandler) handleSaveProgress(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var request progressRequestPayload
	if !bindPayload(c, &request) {
		return
	}
	id := catalog.VideoID(videoID)
	if err := h.catalog.SaveProgress(identity.UserID, id, *request.Seconds); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progressResponsePayload{VideoID: id, Seconds: *request.Seconds})
}
