package catalog

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultHistoryLimit caps the per-user watch history.
	DefaultHistoryLimit = 100
	defaultPageLimit    = 25
	maxPageLimit        = 100
	allCategoriesName   = "All"
)

var defaultCategoryNames = []string{
	allCategoriesName,
	"Music",
	"Gaming",
	"Education",
	"Entertainment",
	"Sports",
	"News",
	"Technology",
	"Comedy",
	"Cooking",
	"Travel",
}

// Config describes the optional knobs of the store.
type Config struct {
	Clock        func() time.Time
	Categories   []string
	HistoryLimit int
}

// Store owns every catalog entity and relation map. All methods are safe for
// concurrent use; each call holds the store lock for its full duration so
// multi-step mutations such as reaction toggles are never observed half-applied.
type Store struct {
	mu           sync.RWMutex
	clock        func() time.Time
	historyLimit int
	ids          idAllocator

	users         map[UserID]*User
	usernames     map[string]UserID
	videos        map[VideoID]*Video
	purged        map[VideoID]struct{}
	comments      map[CommentID]*Comment
	subscriptions map[SubscriptionID]*Subscription
	subscribed    map[subscriptionKey]SubscriptionID
	categories    map[CategoryID]*Category
	playlists     map[PlaylistID]*Playlist
	nextPosition  map[PlaylistID]int

	likes    map[videoUserKey]struct{}
	dislikes map[videoUserKey]struct{}
	saves    map[videoUserKey]struct{}
	history  map[UserID][]VideoID
	progress map[videoUserKey]float64
}

// NewStore constructs an empty store with the bootstrap category set.
func NewStore(cfg Config) *Store {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	s := &Store{
		clock:         clock,
		historyLimit:  historyLimit,
		users:         make(map[UserID]*User),
		usernames:     make(map[string]UserID),
		videos:        make(map[VideoID]*Video),
		purged:        make(map[VideoID]struct{}),
		comments:      make(map[CommentID]*Comment),
		subscriptions: make(map[SubscriptionID]*Subscription),
		subscribed:    make(map[subscriptionKey]SubscriptionID),
		categories:    make(map[CategoryID]*Category),
		playlists:     make(map[PlaylistID]*Playlist),
		nextPosition:  make(map[PlaylistID]int),
		likes:         make(map[videoUserKey]struct{}),
		dislikes:      make(map[videoUserKey]struct{}),
		saves:         make(map[videoUserKey]struct{}),
		history:       make(map[UserID][]VideoID),
		progress:      make(map[videoUserKey]float64),
	}
	for _, name := range bootstrapCategoryNames(cfg.Categories) {
		id := CategoryID(s.ids.next(kindCategory))
		s.categories[id] = &Category{ID: id, Name: name}
	}
	return s
}

// bootstrapCategoryNames always places the sentinel first so it receives id 1.
func bootstrapCategoryNames(configured []string) []string {
	if len(configured) == 0 {
		return defaultCategoryNames
	}
	names := []string{allCategoriesName}
	seen := map[string]struct{}{strings.ToLower(allCategoriesName): {}}
	for _, raw := range configured {
		name := strings.TrimSpace(raw)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

// ListCategories returns the bootstrap categories in id order.
func (s *Store) ListCategories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]Category, 0, len(s.categories))
	for _, category := range s.categories {
		categories = append(categories, *category)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].ID < categories[j].ID
	})
	return categories
}

// GetCategory resolves a category by id.
func (s *Store) GetCategory(id CategoryID) (Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return Category{}, newServiceError(opGetCategory, reasonCategoryMissing, ErrNotFound)
	}
	return *category, nil
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

// pageBounds clamps offset and limit and returns slice bounds for total items.
func pageBounds(total, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	} else if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return offset, end
}

func copyUser(user *User) User {
	copied := *user
	if user.Location != nil {
		location := *user.Location
		copied.Location = &location
	}
	return copied
}

func copyPlaylist(playlist *Playlist) Playlist {
	copied := *playlist
	copied.Entries = append([]PlaylistEntry(nil), playlist.Entries...)
	if copied.Entries == nil {
		copied.Entries = []PlaylistEntry{}
	}
	return copied
}

func sortVideosNewestFirst(videos []*Video) {
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].ID > videos[j].ID
	})
}

func dereferenceVideos(videos []*Video) []Video {
	result := make([]Video, len(videos))
	for index, video := range videos {
		result[index] = *video
	}
	return result
}
