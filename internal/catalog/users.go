package catalog

import (
	"math"
	"sort"
	"strings"
)

// CreateUser registers a new account. Usernames are unique case-insensitively.
func (s *Store) CreateUser(input NewUser) (User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return User{}, newServiceError(opCreateUser, reasonInvalidUsername, ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(username)
	if _, taken := s.usernames[key]; taken {
		return User{}, newServiceError(opCreateUser, reasonUsernameTaken, ErrConflict)
	}

	role := input.Role
	if role == "" {
		role = RoleUser
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = username
	}

	user := &User{
		ID:           UserID(s.ids.next(kindUser)),
		Username:     username,
		PasswordHash: input.PasswordHash,
		DisplayName:  displayName,
		AvatarURL:    strings.TrimSpace(input.AvatarURL),
		Description:  input.Description,
		Role:         role,
		CreatedAt:    s.now(),
	}
	s.users[user.ID] = user
	s.usernames[key] = user.ID
	return copyUser(user), nil
}

// GetUser resolves a user by id.
func (s *Store) GetUser(id UserID) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return User{}, newServiceError(opGetUser, reasonUserNotFound, ErrNotFound)
	}
	return copyUser(user), nil
}

// GetUserByUsername resolves a user by case-insensitive username.
func (s *Store) GetUserByUsername(username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return User{}, newServiceError(opGetUser, reasonUserNotFound, ErrNotFound)
	}
	return copyUser(s.users[id]), nil
}

// ListUsers returns users newest first.
func (s *Store) ListUsers(offset, limit int) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].ID > users[j].ID
	})
	start, end := pageBounds(len(users), offset, limit)
	result := make([]User, 0, end-start)
	for _, user := range users[start:end] {
		result = append(result, copyUser(user))
	}
	return result
}

// UpdateUser applies a partial profile update.
func (s *Store) UpdateUser(id UserID, changes UserChanges) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return User{}, newServiceError(opUpdateUser, reasonUserNotFound, ErrNotFound)
	}
	if changes.PasswordHash != nil {
		user.PasswordHash = *changes.PasswordHash
	}
	if changes.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*changes.DisplayName)
	}
	if changes.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*changes.AvatarURL)
	}
	if changes.Description != nil {
		user.Description = *changes.Description
	}
	if changes.Role != nil {
		user.Role = *changes.Role
	}
	return copyUser(user), nil
}

// UpdateLocation records the latest position of a user.
func (s *Store) UpdateLocation(id UserID, latitude, longitude float64) (User, error) {
	if math.IsNaN(latitude) || math.IsNaN(longitude) ||
		latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return User{}, newServiceError(opUpdateLocation, reasonInvalidLocation, ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return User{}, newServiceError(opUpdateLocation, reasonUserNotFound, ErrNotFound)
	}
	user.Location = &Geolocation{
		Latitude:  latitude,
		Longitude: longitude,
		UpdatedAt: s.now(),
	}
	return copyUser(user), nil
}

// UserSummaries returns owner cards for the ids that resolve.
func (s *Store) UserSummaries(ids []UserID) map[UserID]UserSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make(map[UserID]UserSummary, len(ids))
	for _, id := range ids {
		if summary := s.summaryLocked(id); summary != nil {
			summaries[id] = *summary
		}
	}
	return summaries
}

func (s *Store) summaryLocked(id UserID) *UserSummary {
	user, ok := s.users[id]
	if !ok {
		return nil
	}
	return &UserSummary{
		ID:              user.ID,
		Username:        user.Username,
		DisplayName:     user.DisplayName,
		AvatarURL:       user.AvatarURL,
		SubscriberCount: user.SubscriberCount,
	}
}
