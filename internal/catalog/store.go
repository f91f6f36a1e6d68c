package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/gamehub-dev/gamehub/internal/cache"
	"github.com/gamehub-dev/gamehub/internal/search"
)

// ErrNotFound is returned when no game matches the requested slug.
var ErrNotFound = errors.New("game not found")

const (
	topRatedKey   = "top_rated_list"
	topRatedTTL   = 30 * time.Minute
	topRatedLimit = 20
)

// Store serves the catalog reads outside the search pipeline: game detail,
// genre listing, and the cached top-rated list.
type Store struct {
	db    search.Querier
	cache cache.Store
}

func NewStore(db search.Querier, store cache.Store) *Store {
	return &Store{db: db, cache: store}
}

// GameBySlug loads a game's detail view with its videos and screenshots.
func (s *Store) GameBySlug(ctx context.Context, slug string) (*Game, []Video, []Screenshot, error) {
	var g Game
	err := s.db.QueryRow(ctx, `
		SELECT id, game_id, slug, title, cover_image, release, rating, summary, storyline
		FROM games
		WHERE slug = @slug
	`, pgx.NamedArgs{"slug": slug}).Scan(
		&g.ID, &g.GameID, &g.Slug, &g.Title, &g.CoverImage, &g.Release, &g.Rating,
		&g.Summary, &g.Storyline,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, ErrNotFound
		}
		return nil, nil, nil, fmt.Errorf("load game: %w", err)
	}

	g.Genres, err = s.gameGenres(ctx, g.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	videos, err := s.gameVideos(ctx, g.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	screenshots, err := s.gameScreenshots(ctx, g.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return &g, videos, screenshots, nil
}

// TopRated returns the twenty best-rated games, memoized for thirty minutes.
func (s *Store) TopRated(ctx context.Context) ([]GameSummary, error) {
	if data, err := s.cache.Get(ctx, topRatedKey); err == nil {
		var out []GameSummary
		if jsonErr := json.Unmarshal(data, &out); jsonErr == nil {
			return out, nil
		} else {
			log.Warn().Err(jsonErr).Msg("discarding corrupt top-rated cache entry")
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Msg("top-rated cache get failed; recomputing")
	}

	sql := fmt.Sprintf(`
		%s
		WHERE rating IS NOT NULL
		ORDER BY rating DESC, title ASC
		LIMIT %d
	`, selectSummary, topRatedLimit)
	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("top-rated query: %w", err)
	}
	defer rows.Close()

	out := make([]GameSummary, 0, topRatedLimit)
	for rows.Next() {
		g, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan top-rated row: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top-rated rows: %w", err)
	}

	if data, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, topRatedKey, data, topRatedTTL); err != nil {
			log.Warn().Err(err).Msg("top-rated cache set failed")
		}
	}
	return out, nil
}

// Genres returns every genre ordered by name.
func (s *Store) Genres(ctx context.Context) ([]Genre, error) {
	rows, err := s.db.Query(ctx, "SELECT id, name FROM genres ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("genres query: %w", err)
	}
	defer rows.Close()

	var out []Genre
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan genre row: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) gameGenres(ctx context.Context, gameID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.name
		FROM genres g
		JOIN game_genres gg ON gg.genre_id = g.id
		WHERE gg.game_id = @game_id
		ORDER BY g.name
	`, pgx.NamedArgs{"game_id": gameID})
	if err != nil {
		return nil, fmt.Errorf("game genres query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan game genre row: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *Store) gameVideos(ctx context.Context, gameID int64) ([]Video, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, src FROM videos WHERE game_id = @game_id ORDER BY id",
		pgx.NamedArgs{"game_id": gameID})
	if err != nil {
		return nil, fmt.Errorf("videos query: %w", err)
	}
	defer rows.Close()

	var out []Video
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.ID, &v.Src); err != nil {
			return nil, fmt.Errorf("scan video row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) gameScreenshots(ctx context.Context, gameID int64) ([]Screenshot, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, src FROM screenshots WHERE game_id = @game_id ORDER BY id",
		pgx.NamedArgs{"game_id": gameID})
	if err != nil {
		return nil, fmt.Errorf("screenshots query: %w", err)
	}
	defer rows.Close()

	var out []Screenshot
	for rows.Next() {
		var sc Screenshot
		if err := rows.Scan(&sc.ID, &sc.Src); err != nil {
			return nil, fmt.Errorf("scan screenshot row: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
