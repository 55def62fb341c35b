package server

import (
	"net/http"
	"strconv"

	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
	"github.com/gin-gonic/gin"
)

type createPlaylistRequestPayload struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	IsPrivate   bool   `json:"is_private"`
}

type updatePlaylistRequestPayload struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsPrivate   *bool   `json:"is_private"`
}

type addPlaylistVideoRequestPayload struct {
	VideoID int64 `json:"video_id" validate:"required,min=1"`
}

type playlistResponsePayload struct {
	catalog.Playlist
	Items []catalog.PlaylistItem `json:"items"`
}

func (h *httpHandler) handleCreatePlaylist(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	var request createPlaylistRequestPayload
	if !bindPayload(c, &request) {
		return
	}
	playlist, err := h.catalog.CreatePlaylist(identity.UserID, request.Title, request.Description, request.IsPrivate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, playlist)
}

// handleGetPlaylist hides private playlists from everyone but the owner.
func (h *httpHandler) handleGetPlaylist(c *gin.Context) {
	playlistID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	playlist, err := h.catalog.GetPlaylist(catalog.PlaylistID(playlistID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if playlist.IsPrivate && playlist.OwnerID != viewerID(c) {
		respondNotFound(c, "playlist_not_found")
		return
	}
	items, err := h.catalog.ListPlaylistVideos(playlist.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlistResponsePayload{Playlist: playlist, Items: items})
}

func (h *httpHandler) handleListUserPlaylists(c *gin.Context) {
	ownerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	owner := catalog.UserID(ownerID)
	playlists := h.catalog.ListPlaylists(owner, owner == viewerID(c))
	c.JSON(http.StatusOK, listResponsePayload[catalog.Playlist]{Items: playlists})
}

func (h *httpHandler) handleUpdatePlaylist(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}
	var request updatePlaylistRequestPayload
	if !bindPayload(c, &request) {
		return
	}
	updated, err := h.catalog.UpdatePlaylist(playlist.ID, catalog.PlaylistChanges{
		Title:       request.Title,
		Description: request.Description,
		IsPrivate:   request.IsPrivate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *httpHandler) handleDeletePlaylist(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}
	if err := h.catalog.DeletePlaylist(playlist.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleAddToPlaylist(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}
	var request addPlaylistVideoRequestPayload
	if !bindPayload(c, &request) {
		return
	}
	entry, err := h.catalog.AddToPlaylist(playlist.ID, catalog.VideoID(request.VideoID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *httpHandler) handleRemoveFromPlaylist(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil || position < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_position"})
		return
	}
	if err := h.catalog.RemoveFromPlaylist(playlist.ID, position); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) ownedPlaylist(c *gin.Context) (catalog.Playlist, bool) {
	identity, ok := mustIdentity(c)
	if !ok {
		return catalog.Playlist{}, false
	}
	playlistID, ok := parseIDParam(c, "id")
	if !ok {
		return catalog.Playlist{}, false
	}
	playlist, err := h.catalog.GetPlaylist(catalog.PlaylistID(playlistID))
	if err != nil {
		h.respondError(c, err)
		return catalog.Playlist{}, false
	}
	if playlist.OwnerID != identity.UserID {
		respondForbidden(c)
		return catalog.Playlist{}, false
	}
	return playlist, true
}
