package catalog

// Like toggles the user's like on a video. An existing dislike is cleared.
func (s *Store) Like(videoID VideoID, userID UserID) (VideoView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[videoID]
	if !ok {
		return VideoView{}, newServiceError(opLikeVideo, reasonVideoNotFound, ErrNotFound)
	}
	key := videoUserKey{video: videoID, user: userID}
	toggleReaction(key, s.likes, &video.LikeCount, s.dislikes, &video.DislikeCount)
	return s.viewLocked(video, userID), nil
}

// Dislike toggles the user's dislike on a video. An existing like is cleared.
func (s *Store) Dislike(videoID VideoID, userID UserID) (VideoView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[videoID]
	if !ok {
		return VideoView{}, newServiceError(opDislikeVideo, reasonVideoNotFound, ErrNotFound)
	}
	key := videoUserKey{video: videoID, user: userID}
	toggleReaction(key, s.dislikes, &video.DislikeCount, s.likes, &video.LikeCount)
	return s.viewLocked(video, userID), nil
}

// toggleReaction flips the chosen edge and clears the opposite one. Counters never drop below zero.
func toggleReaction(key videoUserKey, chosen map[videoUserKey]struct{}, chosenCount *int64, opposite map[videoUserKey]struct{}, oppositeCount *int64) {
	if _, held := chosen[key]; held {
		delete(chosen, key)
		decrementFloor(chosenCount)
		return
	}
	chosen[key] = struct{}{}
	*chosenCount++
	if _, held := opposite[key]; held {
		delete(opposite, key)
		decrementFloor(oppositeCount)
	}
}

func decrementFloor(counter *int64) {
	if *counter > 0 {
		*counter--
	}
}

// ToggleSave flips the saved edge independently of reactions.
func (s *Store) ToggleSave(videoID VideoID, userID UserID) (VideoView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[videoID]
	if !ok {
		return VideoView{}, newServiceError(opSaveVideo, reasonVideoNotFound, ErrNotFound)
	}
	key := videoUserKey{video: videoID, user: userID}
	if _, saved := s.saves[key]; saved {
		delete(s.saves, key)
	} else {
		s.saves[key] = struct{}{}
	}
	return s.viewLocked(video, userID), nil
}

// ListLiked returns the visible videos the user likes, newest first.
func (s *Store) ListLiked(userID UserID) []Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectEdgesLocked(s.likes, userID)
}

// ListSaved returns the visible videos the user saved, newest first.
func (s *Store) ListSaved(userID UserID) []Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectEdgesLocked(s.saves, userID)
}

func (s *Store) collectEdgesLocked(edges map[videoUserKey]struct{}, userID UserID) []Video {
	matched := make([]*Video, 0)
	for key := range edges {
		if key.user != userID {
			continue
		}
		video, ok := s.videos[key.video]
		if !ok || video.IsDeleted {
			continue
		}
		matched = append(matched, video)
	}
	sortVideosNewestFirst(matched)
	return dereferenceVideos(matched)
}
