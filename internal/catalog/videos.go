package catalog

import "strings"

// CreateVideo publishes a new content item for an existing owner.
func (s *Store) CreateVideo(input NewVideo) (Video, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Video{}, newServiceError(opCreateVideo, reasonInvalidTitle, ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[input.OwnerID]; !ok {
		return Video{}, newServiceError(opCreateVideo, reasonUserNotFound, ErrNotFound)
	}
	categoryID, err := s.resolveCategoryLocked(opCreateVideo, input.CategoryID)
	if err != nil {
		return Video{}, err
	}

	video := &Video{
		ID:          VideoID(s.ids.next(kindVideo)),
		OwnerID:     input.OwnerID,
		CategoryID:  categoryID,
		Title:       title,
		Description: input.Description,
		MediaURL:    strings.TrimSpace(input.MediaURL),
		CreatedAt:   s.now(),
	}
	s.videos[video.ID] = video
	return *video, nil
}

// resolveCategoryLocked maps the sentinel to "no category" and rejects unknown ids.
func (s *Store) resolveCategoryLocked(operation string, id CategoryID) (CategoryID, error) {
	if id == 0 || id == AllCategories {
		return 0, nil
	}
	if _, ok := s.categories[id]; !ok {
		return 0, newServiceError(operation, reasonCategoryMissing, ErrNotFound)
	}
	return id, nil
}

// GetVideo returns a snapshot of the video. When viewer is non-zero the
// snapshot carries that user's reaction and save flags. The stored item is
// never mutated.
func (s *Store) GetVideo(id VideoID, viewer UserID) (VideoView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[id]
	if !ok {
		return VideoView{}, newServiceError(opGetVideo, reasonVideoNotFound, ErrNotFound)
	}
	return s.viewLocked(video, viewer), nil
}

func (s *Store) viewLocked(video *Video, viewer UserID) VideoView {
	view := VideoView{
		Video: *video,
		Owner: s.summaryLocked(video.OwnerID),
	}
	if viewer != 0 {
		key := videoUserKey{video: video.ID, user: viewer}
		_, view.Liked = s.likes[key]
		_, view.Disliked = s.dislikes[key]
		_, view.Saved = s.saves[key]
	}
	return view
}

// ListVideos returns videos newest first. Soft-deleted videos never appear.
// Archived videos only appear when the listing is scoped to their owner.
func (s *Store) ListVideos(query VideoQuery) []Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*Video, 0, len(s.videos))
	for _, video := range s.videos {
		if video.IsDeleted {
			continue
		}
		if query.OwnerID != 0 && video.OwnerID != query.OwnerID {
			continue
		}
		if video.IsArchived && (query.OwnerID == 0 || !query.IncludeArchived) {
			continue
		}
		if !query.CategoryID.Matches(video.CategoryID) {
			continue
		}
		matched = append(matched, video)
	}
	sortVideosNewestFirst(matched)
	start, end := pageBounds(len(matched), query.Offset, query.Limit)
	return dereferenceVideos(matched[start:end])
}

// ListTrash returns the owner's soft-deleted videos newest first.
func (s *Store) ListTrash(ownerID UserID) []Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trashed := make([]*Video, 0)
	for _, video := range s.videos {
		if video.IsDeleted && video.OwnerID == ownerID {
			trashed = append(trashed, video)
		}
	}
	sortVideosNewestFirst(trashed)
	return dereferenceVideos(trashed)
}

// SearchCandidates returns up to limit non-deleted videos newest first that
// pass the category filter. A non-positive limit returns every match.
func (s *Store) SearchCandidates(categoryID CategoryID, limit int) []Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*Video, 0, len(s.videos))
	for _, video := range s.videos {
		if video.IsDeleted || !categoryID.Matches(video.CategoryID) {
			continue
		}
		matched = append(matched, video)
	}
	sortVideosNewestFirst(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return dereferenceVideos(matched)
}

// UpdateVideo applies a partial update.
func (s *Store) UpdateVideo(id VideoID, changes VideoChanges) (Video, error) {
	if changes.Title != nil && strings.TrimSpace(*changes.Title) == "" {
		return Video{}, newServiceError(opUpdateVideo, reasonInvalidTitle, ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return Video{}, newServiceError(opUpdateVideo, reasonVideoNotFound, ErrNotFound)
	}
	categoryID := video.CategoryID
	if changes.CategoryID != nil {
		resolved, err := s.resolveCategoryLocked(opUpdateVideo, *changes.CategoryID)
		if err != nil {
			return Video{}, err
		}
		categoryID = resolved
	}

	video.CategoryID = categoryID
	if changes.Title != nil {
		video.Title = strings.TrimSpace(*changes.Title)
	}
	if changes.Description != nil {
		video.Description = *changes.Description
	}
	if changes.MediaURL != nil {
		video.MediaURL = strings.TrimSpace(*changes.MediaURL)
	}
	if changes.IsArchived != nil {
		video.IsArchived = *changes.IsArchived
	}
	return *video, nil
}

// IncrementViews counts one genuine view. The caller decides what a view is.
func (s *Store) IncrementViews(id VideoID) (Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return Video{}, newServiceError(opIncrementViews, reasonVideoNotFound, ErrNotFound)
	}
	video.ViewCount++
	return *video, nil
}

// RecordAdImpression counts one served ad and credits revenue to the video and its owner.
func (s *Store) RecordAdImpression(id VideoID, revenueCents int64) (Video, error) {
	if revenueCents < 0 {
		return Video{}, newServiceError(opRecordAdImpression, reasonInvalidAmount, ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return Video{}, newServiceError(opRecordAdImpression, reasonVideoNotFound, ErrNotFound)
	}
	video.AdImpressionCount++
	video.AdRevenueCents += revenueCents
	if owner, ok := s.users[video.OwnerID]; ok {
		owner.AdRevenueCents += revenueCents
	}
	return *video, nil
}

// RequestPromotion marks the video as awaiting promotion review.
func (s *Store) RequestPromotion(id VideoID) (Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return Video{}, newServiceError(opRequestPromotion, reasonVideoNotFound, ErrNotFound)
	}
	if video.IsDeleted {
		return Video{}, newServiceError(opRequestPromotion, reasonAlreadyDeleted, ErrInvalidState)
	}
	video.PromotionPending = true
	return *video, nil
}

// ResolvePromotion settles a pending promotion request.
func (s *Store) ResolvePromotion(id VideoID, approved bool) (Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return Video{}, newServiceError(opResolvePromotion, reasonVideoNotFound, ErrNotFound)
	}
	if !video.PromotionPending {
		return Video{}, newServiceError(opResolvePromotion, reasonNotPending, ErrInvalidState)
	}
	video.PromotionPending = false
	video.IsPromoted = approved
	return *video, nil
}

// SoftDeleteVideo hides the video from every listing except the owner's trash.
func (s *Store) SoftDeleteVideo(id VideoID) (Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return Video{}, newServiceError(opSoftDeleteVideo, reasonVideoNotFound, ErrNotFound)
	}
	if video.IsDeleted {
		return Video{}, newServiceError(opSoftDeleteVideo, reasonAlreadyDeleted, ErrInvalidState)
	}
	video.IsDeleted = true
	return *video, nil
}

// RestoreVideo brings a soft-deleted video back.
func (s *Store) RestoreVideo(id VideoID) (Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, gone := s.purged[id]; gone {
		return Video{}, newServiceError(opRestoreVideo, reasonPurged, ErrInvalidState)
	}
	video, ok := s.videos[id]
	if !ok {
		return Video{}, newServiceError(opRestoreVideo, reasonVideoNotFound, ErrNotFound)
	}
	if !video.IsDeleted {
		return Video{}, newServiceError(opRestoreVideo, reasonNotDeleted, ErrInvalidState)
	}
	video.IsDeleted = false
	return *video, nil
}

// PermanentlyDeleteVideo removes the video and cascades to its comments and
// per-user edges. Playlist memberships and history entries are left in place
// and resolve as dangling afterwards.
func (s *Store) PermanentlyDeleteVideo(id VideoID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[id]; !ok {
		return newServiceError(opPermanentDelete, reasonVideoNotFound, ErrNotFound)
	}
	delete(s.videos, id)
	s.purged[id] = struct{}{}

	for commentID, comment := range s.comments {
		if comment.VideoID == id {
			delete(s.comments, commentID)
		}
	}
	for _, edges := range []map[videoUserKey]struct{}{s.likes, s.dislikes, s.saves} {
		for key := range edges {
			if key.video == id {
				delete(edges, key)
			}
		}
	}
	for key := range s.progress {
		if key.video == id {
			delete(s.progress, key)
		}
	}
	return nil
}
