package catalog

import (
	"sort"
	"strings"
)

// CreateComment attaches a comment to a video. A non-zero parentID makes it a
// reply; replies must point at a top-level comment of the same video.
// authorID may be zero for anonymous comments.
func (s *Store) CreateComment(videoID VideoID, authorID UserID, text string, parentID CommentID) (Comment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Comment{}, newServiceError(opCreateComment, reasonInvalidText, ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[videoID]; !ok {
		return Comment{}, newServiceError(opCreateComment, reasonVideoNotFound, ErrNotFound)
	}
	if parentID != 0 {
		parent, ok := s.comments[parentID]
		if !ok {
			return Comment{}, newServiceError(opCreateComment, reasonParentNotFound, ErrNotFound)
		}
		if parent.VideoID != videoID {
			return Comment{}, newServiceError(opCreateComment, reasonParentMismatch, ErrInvalidState)
		}
		if parent.ParentID != 0 {
			return Comment{}, newServiceError(opCreateComment, reasonNestedReply, ErrInvalidState)
		}
	}

	comment := &Comment{
		ID:        CommentID(s.ids.next(kindComment)),
		VideoID:   videoID,
		AuthorID:  authorID,
		Text:      trimmed,
		ParentID:  parentID,
		CreatedAt: s.now(),
	}
	s.comments[comment.ID] = comment
	return *comment, nil
}

// GetComment resolves a comment by id.
func (s *Store) GetComment(id CommentID) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return Comment{}, newServiceError(opGetComment, reasonCommentNotFound, ErrNotFound)
	}
	return *comment, nil
}

// ListComments returns the top-level comments of a video newest first, each
// with its replies oldest first.
func (s *Store) ListComments(videoID VideoID) ([]CommentThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.videos[videoID]; !ok {
		return nil, newServiceError(opListComments, reasonVideoNotFound, ErrNotFound)
	}

	roots := make([]*Comment, 0)
	replies := make(map[CommentID][]Comment)
	for _, comment := range s.comments {
		if comment.VideoID != videoID {
			continue
		}
		if comment.ParentID == 0 {
			roots = append(roots, comment)
			continue
		}
		replies[comment.ParentID] = append(replies[comment.ParentID], *comment)
	}
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].ID > roots[j].ID
	})

	threads := make([]CommentThread, 0, len(roots))
	for _, root := range roots {
		children := replies[root.ID]
		sort.Slice(children, func(i, j int) bool {
			return children[i].ID < children[j].ID
		})
		if children == nil {
			children = []Comment{}
		}
		threads = append(threads, CommentThread{
			Comment: *root,
			Author:  s.summaryLocked(root.AuthorID),
			Replies: children,
		})
	}
	return threads, nil
}

// CountComments returns the number of comments, replies included, on a video.
func (s *Store) CountComments(videoID VideoID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			count++
		}
	}
	return count
}

// DeleteComment removes a comment and its replies.
func (s *Store) DeleteComment(id CommentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return newServiceError(opDeleteComment, reasonCommentNotFound, ErrNotFound)
	}
	delete(s.comments, id)
	for replyID, reply := range s.comments {
		if reply.ParentID == id {
			delete(s.comments, replyID)
		}
	}
	return nil
}
