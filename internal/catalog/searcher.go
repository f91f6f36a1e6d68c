package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gamehub-dev/gamehub/internal/cache"
	"github.com/gamehub-dev/gamehub/internal/search"
)

// PageSize is the fixed catalog page size.
const PageSize = 60

// AllGenres is the filter value meaning "no genre filter".
const AllGenres = "All"

var sortKeys = map[string]search.Ordering{
	"relevance":     search.OrderRelevance,
	"name":          search.OrderTitle,
	"release(asc)":  search.OrderTimeAsc,
	"release(desc)": search.OrderTimeDesc,
	"rating":        search.OrderRankTitle,
}

const selectSummary = "SELECT id, game_id, slug, title, cover_image, release, rating FROM games"

func scanSummary(rows pgx.Rows) (GameSummary, error) {
	var g GameSummary
	err := rows.Scan(&g.ID, &g.GameID, &g.Slug, &g.Title, &g.CoverImage, &g.Release, &g.Rating)
	return g, err
}

// Searcher lists and suggests games. The games profile pairs the adaptive
// similarity threshold with release/rating orderings; a search vector over
// the title is maintained at write time by the catalog sync.
type Searcher struct {
	db       search.Querier
	pipeline *search.Pipeline[GameSummary]
}

func NewSearcher(db search.Querier, store cache.Store, ttl time.Duration) *Searcher {
	return &Searcher{
		db: db,
		pipeline: &search.Pipeline[GameSummary]{
			DB:    db,
			Cache: store,
			Profile: search.Profile{
				Name:           "games",
				Table:          "games",
				TitleColumn:    "title",
				TimeColumn:     "release",
				RankColumn:     "rating",
				VectorColumn:   "search_vector",
				PageSize:       PageSize,
				MinCachedPage:  5,
				MinCachedCount: 100,
				TTL:            ttl,
				Threshold:      search.AdaptiveThreshold,
				SortKeys:       sortKeys,
			},
			Select: selectSummary,
			Scan:   scanSummary,
		},
	}
}

// List returns one page of games for the query. An unknown genre is ignored
// rather than rejected, leaving the set unfiltered.
func (s *Searcher) List(ctx context.Context, text, sortKey, genre string, page int) (search.Page[GameSummary], error) {
	req := search.Request{Text: text, Sort: sortKey, Page: page}

	if genre != "" && genre != AllGenres {
		known, err := s.genreExists(ctx, genre)
		if err != nil {
			return search.Page[GameSummary]{}, err
		}
		if known {
			req.Filter = search.Filter{
				Label: genre,
				Predicate: "EXISTS (SELECT 1 FROM game_genres gg JOIN genres g ON g.id = gg.genre_id" +
					" WHERE gg.game_id = games.id AND g.name = @genre)",
				Args: map[string]any{"genre": genre},
			}
		}
	}

	return s.pipeline.List(ctx, req)
}

// Suggest returns up to five games ranked by the active search score.
func (s *Searcher) Suggest(ctx context.Context, text string) ([]GameSummary, error) {
	return s.pipeline.Suggest(ctx, text)
}

func (s *Searcher) genreExists(ctx context.Context, genre string) (bool, error) {
	var known bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM genres WHERE name = @genre)",
		pgx.NamedArgs{"genre": genre},
	).Scan(&known)
	if err != nil {
		return false, fmt.Errorf("genre lookup: %w", err)
	}
	return known, nil
}
