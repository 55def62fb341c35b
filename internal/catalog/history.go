package catalog

import "math"

// RecordView moves the video to the front of the user's history, evicting the
// oldest entry past the history limit.
func (s *Store) RecordView(userID UserID, videoID VideoID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[videoID]; !ok {
		return newServiceError(opRecordView, reasonVideoNotFound, ErrNotFound)
	}

	previous := s.history[userID]
	entries := make([]VideoID, 0, len(previous)+1)
	entries = append(entries, videoID)
	for _, id := range previous {
		if id != videoID {
			entries = append(entries, id)
		}
	}
	if len(entries) > s.historyLimit {
		entries = entries[:s.historyLimit]
	}
	s.history[userID] = entries
	return nil
}

// GetHistory returns the user's history most recent first. Entries whose
// video is in the trash or permanently deleted are skipped.
func (s *Store) GetHistory(userID UserID) []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.history[userID]
	entries := make([]HistoryEntry, 0, len(ids))
	for _, id := range ids {
		video, ok := s.videos[id]
		if !ok || video.IsDeleted {
			continue
		}
		entries = append(entries, HistoryEntry{
			Video:           *video,
			ProgressSeconds: s.progress[videoUserKey{video: id, user: userID}],
		})
	}
	return entries
}

// ClearHistory drops every history entry of the user. Progress is kept.
func (s *Store) ClearHistory(userID UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, userID)
}

// SaveProgress stores the resumable offset, last write wins.
func (s *Store) SaveProgress(userID UserID, videoID VideoID, seconds float64) error {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return newServiceError(opSaveProgress, reasonInvalidProgress, ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[videoID]; !ok {
		return newServiceError(opSaveProgress, reasonVideoNotFound, ErrNotFound)
	}
	s.progress[videoUserKey{video: videoID, user: userID}] = seconds
	return nil
}

// GetProgress returns the stored offset or zero.
func (s *Store) GetProgress(userID UserID, videoID VideoID) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress[videoUserKey{video: videoID, user: userID}]
}
