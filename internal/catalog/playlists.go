package catalog

import (
	"sort"
	"strings"
)

// CreatePlaylist creates an empty playlist for an existing owner.
func (s *Store) CreatePlaylist(ownerID UserID, title, description string, isPrivate bool) (Playlist, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return Playlist{}, newServiceError(opCreatePlaylist, reasonInvalidTitle, ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ownerID]; !ok {
		return Playlist{}, newServiceError(opCreatePlaylist, reasonUserNotFound, ErrNotFound)
	}
	playlist := &Playlist{
		ID:          PlaylistID(s.ids.next(kindPlaylist)),
		OwnerID:     ownerID,
		Title:       trimmed,
		Description: description,
		IsPrivate:   isPrivate,
		Entries:     []PlaylistEntry{},
		CreatedAt:   s.now(),
	}
	s.playlists[playlist.ID] = playlist
	s.nextPosition[playlist.ID] = 0
	return copyPlaylist(playlist), nil
}

// GetPlaylist resolves a playlist by id.
func (s *Store) GetPlaylist(id PlaylistID) (Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlist, ok := s.playlists[id]
	if !ok {
		return Playlist{}, newServiceError(opGetPlaylist, reasonPlaylistMissing, ErrNotFound)
	}
	return copyPlaylist(playlist), nil
}

// ListPlaylists returns the owner's playlists newest first.
func (s *Store) ListPlaylists(ownerID UserID, includePrivate bool) []Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := make([]*Playlist, 0)
	for _, playlist := range s.playlists {
		if playlist.OwnerID != ownerID {
			continue
		}
		if playlist.IsPrivate && !includePrivate {
			continue
		}
		owned = append(owned, playlist)
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].ID > owned[j].ID
	})
	result := make([]Playlist, len(owned))
	for index, playlist := range owned {
		result[index] = copyPlaylist(playlist)
	}
	return result
}

// UpdatePlaylist applies a partial update.
func (s *Store) UpdatePlaylist(id PlaylistID, changes PlaylistChanges) (Playlist, error) {
	if changes.Title != nil && strings.TrimSpace(*changes.Title) == "" {
		return Playlist{}, newServiceError(opUpdatePlaylist, reasonInvalidTitle, ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.playlists[id]
	if !ok {
		return Playlist{}, newServiceError(opUpdatePlaylist, reasonPlaylistMissing, ErrNotFound)
	}
	if changes.Title != nil {
		playlist.Title = strings.TrimSpace(*changes.Title)
	}
	if changes.Description != nil {
		playlist.Description = *changes.Description
	}
	if changes.IsPrivate != nil {
		playlist.IsPrivate = *changes.IsPrivate
	}
	return copyPlaylist(playlist), nil
}

// DeletePlaylist removes a playlist and its memberships.
func (s *Store) DeletePlaylist(id PlaylistID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.playlists[id]; !ok {
		return newServiceError(opDeletePlaylist, reasonPlaylistMissing, ErrNotFound)
	}
	delete(s.playlists, id)
	delete(s.nextPosition, id)
	return nil
}

// AddToPlaylist appends a video. Ownership is checked by the caller. The
// position comes from a per-playlist counter that is never rewound.
func (s *Store) AddToPlaylist(id PlaylistID, videoID VideoID) (PlaylistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.playlists[id]
	if !ok {
		return PlaylistEntry{}, newServiceError(opAddToPlaylist, reasonPlaylistMissing, ErrNotFound)
	}
	if _, ok := s.videos[videoID]; !ok {
		return PlaylistEntry{}, newServiceError(opAddToPlaylist, reasonVideoNotFound, ErrNotFound)
	}
	entry := PlaylistEntry{VideoID: videoID, Position: s.nextPosition[id]}
	s.nextPosition[id] = entry.Position + 1
	playlist.Entries = append(playlist.Entries, entry)
	return entry, nil
}

// RemoveFromPlaylist drops the entry at position. Remaining positions are kept as is.
func (s *Store) RemoveFromPlaylist(id PlaylistID, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.playlists[id]
	if !ok {
		return newServiceError(opRemoveFromPlaylist, reasonPlaylistMissing, ErrNotFound)
	}
	for index, entry := range playlist.Entries {
		if entry.Position != position {
			continue
		}
		entries := make([]PlaylistEntry, 0, len(playlist.Entries)-1)
		entries = append(entries, playlist.Entries[:index]...)
		entries = append(entries, playlist.Entries[index+1:]...)
		playlist.Entries = entries
		return nil
	}
	return newServiceError(opRemoveFromPlaylist, reasonEntryNotFound, ErrNotFound)
}

// ListPlaylistVideos resolves each membership in position order. A membership
// whose video no longer exists is returned as a stub with Missing set, one
// whose video sits in the trash as a stub with Unavailable set.
func (s *Store) ListPlaylistVideos(id PlaylistID) ([]PlaylistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlist, ok := s.playlists[id]
	if !ok {
		return nil, newServiceError(opListPlaylistVideos, reasonPlaylistMissing, ErrNotFound)
	}
	items := make([]PlaylistItem, 0, len(playlist.Entries))
	for _, entry := range playlist.Entries {
		item := PlaylistItem{PlaylistEntry: entry}
		video, ok := s.videos[entry.VideoID]
		switch {
		case !ok:
			item.Missing = true
		case video.IsDeleted:
			item.Unavailable = true
		default:
			snapshot := *video
			item.Video = &snapshot
		}
		items = append(items, item)
	}
	return items, nil
}
