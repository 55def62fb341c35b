package search

import (
	"math"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
)

type stubCatalog struct {
	videos         []catalog.Video
	owners         map[catalog.UserID]catalog.UserSummary
	candidateCalls int
	lastLimit      int
}

func (s *stubCatalog) SearchCandidates(categoryID catalog.CategoryID, limit int) []catalog.Video {
	s.candidateCalls++
	s.lastLimit = limit
	matched := make([]catalog.Video, 0, len(s.videos))
	for _, video := range s.videos {
		if categoryID.Matches(video.CategoryID) {
			matched = append(matched, video)
		}
	}
	return matched
}

func (s *stubCatalog) UserSummaries(ids []catalog.UserID) map[catalog.UserID]catalog.UserSummary {
	result := make(map[catalog.UserID]catalog.UserSummary, len(ids))
	for _, id := range ids {
		if owner, ok := s.owners[id]; ok {
			result[id] = owner
		}
	}
	return result
}

func newTestEngine(t *testing.T, source Catalog) *Engine {
	t.Helper()
	engine, err := NewEngine(Config{Catalog: source})
	if err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}
	return engine
}

func almostEqual(left, right float64) bool {
	return math.Abs(left-right) < 1e-9
}

func TestNewEngineRequiresCatalog(t *testing.T) {
	if _, err := NewEngine(Config{}); err == nil {
		t.Fatalf("expected missing catalog error")
	}
	engine := newTestEngine(t, &stubCatalog{})
	if engine.corpusCap != DefaultCorpusCap || engine.resultLimit != DefaultResultLimit {
		t.Fatalf("expected defaults, got %d/%d", engine.corpusCap, engine.resultLimit)
	}
}

func TestSearchEmptyQuerySkipsCatalog(t *testing.T) {
	source := &stubCatalog{videos: []catalog.Video{{ID: 1, Title: "anything"}}}
	engine := newTestEngine(t, source)

	for _, text := range []string{"", "   ", "\t\n"} {
		results := engine.Search(Query{Text: text})
		if results == nil || len(results) != 0 {
			t.Fatalf("expected empty non-nil results for %q, got %#v", text, results)
		}
	}
	if source.candidateCalls != 0 {
		t.Fatalf("empty queries must not read the catalog, got %d calls", source.candidateCalls)
	}
}

func TestSearchCookingScenario(t *testing.T) {
	source := &stubCatalog{
		videos: []catalog.Video{
			{ID: 2, OwnerID: 7, Title: "Cooking Tutorial", ViewCount: 10, LikeCount: 1},
			{ID: 1, OwnerID: 7, Title: "Cooking Pasta Tutorial", ViewCount: 5000, LikeCount: 300},
		},
		owners: map[catalog.UserID]catalog.UserSummary{
			7: {ID: 7, Username: "chef"},
		},
	}
	engine := newTestEngine(t, source)

	results := engine.Search(Query{Text: "Cooking  Tutorial"})
	if len(results) != 2 {
		t.Fatalf("expected both videos, got %d", len(results))
	}
	if results[0].ID != 1 || results[1].ID != 2 {
		t.Fatalf("expected the popular video first, got %d,%d", results[0].ID, results[1].ID)
	}
	if !almostEqual(results[0].SearchScore, 88) {
		t.Fatalf("unexpected score for A: %v", results[0].SearchScore)
	}
	if !almostEqual(results[1].SearchScore, 80.02) {
		t.Fatalf("unexpected score for B: %v", results[1].SearchScore)
	}
	for _, result := range results {
		if result.Owner == nil || result.Owner.Username != "chef" {
			t.Fatalf("expected owner summary, got %#v", result.Owner)
		}
	}
	if source.lastLimit != DefaultCorpusCap {
		t.Fatalf("expected corpus cap passed to the catalog, got %d", source.lastLimit)
	}

	again := engine.Search(Query{Text: "cooking tutorial"})
	for index := range results {
		if again[index].ID != results[index].ID || again[index].SearchScore != results[index].SearchScore {
			t.Fatalf("search is not deterministic at %d", index)
		}
	}
}

func TestSearchNearTieDefersToPopularity(t *testing.T) {
	source := &stubCatalog{
		videos: []catalog.Video{
			{ID: 2, Title: "cooking", LikeCount: 5},
			{ID: 1, Title: "cooking", ViewCount: 40},
		},
	}
	engine := newTestEngine(t, source)

	results := engine.Search(Query{Text: "cooking"})
	if len(results) != 2 {
		t.Fatalf("expected two results, got %d", len(results))
	}
	if results[0].SearchScore >= results[1].SearchScore {
		t.Fatalf("expected the winner to score lower inside the tie band, got %v >= %v", results[0].SearchScore, results[1].SearchScore)
	}
	if results[0].ID != 1 {
		t.Fatalf("expected the more popular video first, got %d", results[0].ID)
	}
	if results[0].Owner != nil {
		t.Fatalf("unknown owners must be left empty")
	}
}

func TestSearchDiscardsNonPositiveScores(t *testing.T) {
	source := &stubCatalog{
		videos: []catalog.Video{
			{ID: 1, Title: "abc"},
			{ID: 2, Title: "zzzz fan club"},
		},
	}
	engine := newTestEngine(t, source)

	results := engine.Search(Query{Text: "zzzz"})
	if len(results) != 1 || results[0].ID != 2 {
		t.Fatalf("expected only the matching video, got %#v", results)
	}
}

func TestSearchAppliesResultLimit(t *testing.T) {
	videos := make([]catalog.Video, 0, 5)
	for index := 5; index >= 1; index-- {
		videos = append(videos, catalog.Video{ID: catalog.VideoID(index), Title: "match", ViewCount: int64(index * 1000)})
	}
	engine, err := NewEngine(Config{Catalog: &stubCatalog{videos: videos}, ResultLimit: 2})
	if err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}
	results := engine.Search(Query{Text: "match"})
	if len(results) != 2 || results[0].ID != 5 || results[1].ID != 4 {
		t.Fatalf("expected the two highest scores, got %#v", results)
	}
}

func TestQueryScorerSignals(t *testing.T) {
	scorer := newQueryScorer([]string{"pasta"})

	tests := []struct {
		name        string
		title       string
		description string
		want        float64
	}{
		{name: "title low similarity tier with grams", title: "pasts", want: 10},
		{name: "description has no low tier", description: "pasts", want: 0},
		{name: "description contains and high tier", description: "pastas", want: 9},
		{name: "exact title word", title: "Pasta", want: 10 + 8 + 7 + 6 + 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.score(tt.title, tt.description); !almostEqual(got, tt.want) {
				t.Fatalf("score(%q, %q) = %v, want %v", tt.title, tt.description, got, tt.want)
			}
		})
	}
}

func TestSearchThroughStoreHonoursFilters(t *testing.T) {
	store := catalog.NewStore(catalog.Config{
		Clock: func() time.Time { return time.Unix(1700000000, 0) },
	})
	owner, err := store.CreateUser(catalog.NewUser{Username: "owner", DisplayName: "Owner"})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	create := func(title string, category catalog.CategoryID) catalog.Video {
		t.Helper()
		video, err := store.CreateVideo(catalog.NewVideo{OwnerID: owner.ID, Title: title, CategoryID: category})
		if err != nil {
			t.Fatalf("create video failed: %v", err)
		}
		return video
	}
	music := create("guitar lesson", 2)
	gaming := create("guitar hero speedrun", 3)
	trashed := create("guitar restring", 2)
	if _, err := store.SoftDeleteVideo(trashed.ID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	engine := newTestEngine(t, store)

	all := engine.Search(Query{Text: "guitar", CategoryID: catalog.AllCategories})
	if len(all) != 2 {
		t.Fatalf("expected two visible matches, got %#v", all)
	}
	for _, result := range all {
		if result.ID == trashed.ID {
			t.Fatalf("soft-deleted videos must not be searchable")
		}
		if result.Owner == nil || result.Owner.DisplayName != "Owner" {
			t.Fatalf("expected owner summary, got %#v", result.Owner)
		}
	}

	filtered := engine.Search(Query{Text: "guitar", CategoryID: 2})
	if len(filtered) != 1 || filtered[0].ID != music.ID {
		t.Fatalf("expected only the music video, got %#v", filtered)
	}
	filtered = engine.Search(Query{Text: "guitar", CategoryID: 3})
	if len(filtered) != 1 || filtered[0].ID != gaming.ID {
		t.Fatalf("expected only the gaming video, got %#v", filtered)
	}

	stored, _ := store.GetVideo(music.ID, 0)
	if stored.ViewCount != 0 {
		t.Fatalf("search must not mutate videos")
	}
}
