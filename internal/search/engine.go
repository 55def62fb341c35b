package search

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
)

const (
	// DefaultCorpusCap bounds how many of the newest videos are scored per query.
	DefaultCorpusCap = 1000
	// DefaultResultLimit bounds how many ranked results are returned.
	DefaultResultLimit = 50

	nearTieThreshold = 0.1

	weightTitleContains       = 10
	weightDescriptionContains = 5
	weightTitleSimilarHigh    = 8
	weightTitleSimilarLow     = 6
	weightDescriptionSimilar  = 4
	weightTitlePhonetic       = 7
	weightDescriptionPhonetic = 3
	weightSharedNgram         = 2
	weightPartialContainment  = 4

	similarityHigh = 0.8
	similarityLow  = 0.6

	viewsPerPoint = 1000.0
	maxViewBoost  = 10.0
	likesPerPoint = 100.0
	maxLikeBoost  = 5.0
)

var errMissingCatalog = errors.New("search: catalog dependency required")

// Catalog is the read-only view of the entity store used by the engine.
type Catalog interface {
	SearchCandidates(categoryID catalog.CategoryID, limit int) []catalog.Video
	UserSummaries(ids []catalog.UserID) map[catalog.UserID]catalog.UserSummary
}

// Config wires the engine.
type Config struct {
	Catalog     Catalog
	CorpusCap   int
	ResultLimit int
}

// Engine ranks videos against free-text queries. It never mutates the catalog.
type Engine struct {
	catalog     Catalog
	corpusCap   int
	resultLimit int
}

// NewEngine validates the configuration and applies defaults.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Catalog == nil {
		return nil, errMissingCatalog
	}
	corpusCap := cfg.CorpusCap
	if corpusCap <= 0 {
		corpusCap = DefaultCorpusCap
	}
	resultLimit := cfg.ResultLimit
	if resultLimit <= 0 {
		resultLimit = DefaultResultLimit
	}
	return &Engine{
		catalog:     cfg.Catalog,
		corpusCap:   corpusCap,
		resultLimit: resultLimit,
	}, nil
}

// Query is a free-text search request. CategoryID zero or catalog.AllCategories
// searches every category.
type Query struct {
	Text       string
	CategoryID catalog.CategoryID
}

// Result is a ranked video. SearchScore is computed per query and never stored.
type Result struct {
	catalog.Video
	SearchScore float64              `json:"search_score"`
	Owner       *catalog.UserSummary `json:"owner,omitempty"`
}

// Search returns the matching videos ordered by descending relevance.
func (e *Engine) Search(query Query) []Result {
	tokens := normalizeQuery(query.Text)
	if len(tokens) == 0 {
		return []Result{}
	}

	scorer := newQueryScorer(tokens)
	candidates := e.catalog.SearchCandidates(query.CategoryID, e.corpusCap)
	results := make([]Result, 0, len(candidates))
	for _, video := range candidates {
		score := scorer.score(video.Title, video.Description) + popularityBoost(video)
		if score <= 0 {
			continue
		}
		results = append(results, Result{Video: video, SearchScore: score})
	}

	rank(results)
	if len(results) > e.resultLimit {
		results = results[:e.resultLimit]
	}

	ownerIDs := make([]catalog.UserID, 0, len(results))
	for _, result := range results {
		ownerIDs = append(ownerIDs, result.OwnerID)
	}
	owners := e.catalog.UserSummaries(ownerIDs)
	for index := range results {
		if owner, ok := owners[results[index].OwnerID]; ok {
			summary := owner
			results[index].Owner = &summary
		}
	}
	return results
}

// rank orders by score; scores within the near-tie band defer to popularity.
// Candidates arrive newest first so equal keys keep a deterministic order.
func rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		left, right := results[i], results[j]
		if math.Abs(left.SearchScore-right.SearchScore) <= nearTieThreshold {
			return popularity(left.Video) > popularity(right.Video)
		}
		return left.SearchScore > right.SearchScore
	})
}

func popularity(video catalog.Video) int64 {
	return video.ViewCount + 2*video.LikeCount
}

func popularityBoost(video catalog.Video) float64 {
	views := math.Min(float64(video.ViewCount)/viewsPerPoint, maxViewBoost)
	likes := math.Min(float64(video.LikeCount)/likesPerPoint, maxLikeBoost)
	return views + likes
}

type queryToken struct {
	text  string
	code  string
	grams []string
}

type queryScorer struct {
	tokens []queryToken
}

func newQueryScorer(tokens []string) queryScorer {
	prepared := make([]queryToken, 0, len(tokens))
	for _, token := range tokens {
		prepared = append(prepared, queryToken{
			text:  token,
			code:  soundex(token),
			grams: ngrams(token),
		})
	}
	return queryScorer{tokens: prepared}
}

// score accumulates the text signals of every query token against one video.
func (q queryScorer) score(title, description string) float64 {
	lowerTitle := strings.ToLower(title)
	lowerDescription := strings.ToLower(description)
	titleWords := indexWords(lowerTitle)
	descriptionWords := indexWords(lowerDescription)

	total := 0.0
	for _, token := range q.tokens {
		if strings.Contains(lowerTitle, token.text) {
			total += weightTitleContains
		}
		if strings.Contains(lowerDescription, token.text) {
			total += weightDescriptionContains
		}

		for _, word := range titleWords {
			switch wordSimilarity := similarity(token.text, word.text); {
			case wordSimilarity > similarityHigh:
				total += weightTitleSimilarHigh
			case wordSimilarity > similarityLow:
				total += weightTitleSimilarLow
			}
			if token.code == word.code {
				total += weightTitlePhonetic
			}
			total += float64(weightSharedNgram * sharedNgrams(token.grams, word.grams))
			if strings.Contains(word.text, token.text) || strings.Contains(token.text, word.text) {
				total += weightPartialContainment
			}
		}

		// Description words only earn the high similarity tier.
		for _, word := range descriptionWords {
			if similarity(token.text, word.text) > similarityHigh {
				total += weightDescriptionSimilar
			}
			if token.code == word.code {
				total += weightDescriptionPhonetic
			}
		}
	}
	return total
}
