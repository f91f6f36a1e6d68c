package igdb

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/gamehub-dev/gamehub/internal/search"
)

const (
	maxTitleLen = 149
	maxSlugLen  = 80
)

// DB is the write surface the syncer needs.
type DB interface {
	search.Querier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// GameEmbedder stores a similarity vector for an imported game.
type GameEmbedder interface {
	EmbedGame(ctx context.Context, gameID int64, title string, summary *string) error
}

// Syncer pulls the IGDB catalog into the games tables. Runs are idempotent:
// every statement upserts on the stable IGDB id.
type Syncer struct {
	db     DB
	client *Client
	embed  GameEmbedder
}

// NewSyncer builds a syncer. embed may be nil, in which case games are
// imported without similarity vectors.
func NewSyncer(db DB, client *Client, embed GameEmbedder) *Syncer {
	return &Syncer{db: db, client: client, embed: embed}
}

// Sync walks the remote catalog page by page until a short page, upserting
// each game. A game that fails to import is logged and skipped so one bad
// record cannot stall the whole run.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	imported := 0
	for offset := 0; ; offset += PageSize {
		games, err := s.client.Games(ctx, PageSize, offset)
		if err != nil {
			return imported, fmt.Errorf("fetch games at offset %d: %w", offset, err)
		}

		for _, g := range games {
			if err := s.upsertGame(ctx, g); err != nil {
				log.Warn().Err(err).Int64("igdb_id", g.ID).Str("title", g.Name).
					Msg("skipping game that failed to import")
				continue
			}
			imported++
		}

		if len(games) < PageSize {
			return imported, nil
		}
	}
}

func (s *Syncer) upsertGame(ctx context.Context, g Game) error {
	title := normalizeTitle(g.Name)
	if title == "" {
		return fmt.Errorf("game %d has no title", g.ID)
	}
	summary := nullableText(g.Summary)

	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO games (game_id, slug, title, cover_image, release, rating, summary, storyline, search_vector)
		VALUES (@game_id, @slug, @title, @cover_image, @release, @rating, @summary, @storyline,
			to_tsvector('english', @title))
		ON CONFLICT (game_id) DO UPDATE SET
			slug = EXCLUDED.slug,
			title = EXCLUDED.title,
			cover_image = EXCLUDED.cover_image,
			release = EXCLUDED.release,
			rating = EXCLUDED.rating,
			summary = EXCLUDED.summary,
			storyline = EXCLUDED.storyline,
			search_vector = EXCLUDED.search_vector
		RETURNING id
	`, pgx.NamedArgs{
		// game_id is a text column mirroring the upstream id.
		"game_id":     strconv.FormatInt(g.ID, 10),
		"slug":        slugify(title, g.ID),
		"title":       title,
		"cover_image": coverURL(g.Cover.URL),
		"release":     releaseTime(g.FirstReleaseDate),
		"rating":      normalizeRating(g.Rating, g.AggregatedRating),
		"summary":     summary,
		"storyline":   nullableText(g.Storyline),
	}).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert game %d: %w", g.ID, err)
	}

	if s.embed != nil {
		if err := s.embed.EmbedGame(ctx, id, title, summary); err != nil {
			log.Warn().Err(err).Int64("igdb_id", g.ID).Str("title", title).
				Msg("embedding failed; game imported without similar-games support")
		}
	}

	for _, genre := range g.Genres {
		if err := s.attachGenre(ctx, id, genre.Name); err != nil {
			return err
		}
	}
	for _, v := range g.Videos {
		if v.VideoID == "" {
			continue
		}
		src := "https://www.youtube.com/embed/" + v.VideoID
		if _, err := s.db.Exec(ctx, `
			INSERT INTO videos (game_id, src) VALUES (@game_id, @src)
			ON CONFLICT (game_id, src) DO NOTHING
		`, pgx.NamedArgs{"game_id": id, "src": src}); err != nil {
			return fmt.Errorf("insert video for game %d: %w", g.ID, err)
		}
	}
	for _, sc := range g.Screenshots {
		src := coverURL(sc.URL)
		if src == nil {
			continue
		}
		if _, err := s.db.Exec(ctx, `
			INSERT INTO screenshots (game_id, src) VALUES (@game_id, @src)
			ON CONFLICT (game_id, src) DO NOTHING
		`, pgx.NamedArgs{"game_id": id, "src": *src}); err != nil {
			return fmt.Errorf("insert screenshot for game %d: %w", g.ID, err)
		}
	}
	return nil
}

func (s *Syncer) attachGenre(ctx context.Context, gameID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	// The no-op update makes RETURNING fire on conflict too.
	var genreID int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO genres (name) VALUES (@name)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, pgx.NamedArgs{"name": name}).Scan(&genreID)
	if err != nil {
		return fmt.Errorf("upsert genre %q: %w", name, err)
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO game_genres (game_id, genre_id) VALUES (@game_id, @genre_id)
		ON CONFLICT (game_id, genre_id) DO NOTHING
	`, pgx.NamedArgs{"game_id": gameID, "genre_id": genreID}); err != nil {
		return fmt.Errorf("link genre %q: %w", name, err)
	}
	return nil
}

func normalizeTitle(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > maxTitleLen {
		name = name[:maxTitleLen]
	}
	return name
}

// coverURL upgrades IGDB's protocol-relative thumbnail URL to an https
// cover-size one. Empty input stays NULL.
func coverURL(raw string) *string {
	if raw == "" {
		return nil
	}
	u := strings.Replace(raw, "t_thumb", "t_cover_big", 1)
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return &u
}

// normalizeRating maps IGDB's 0-100 member rating to a 0-10 score with one
// decimal, falling back to the critic aggregate. Unrated games stay NULL.
func normalizeRating(member, critic float64) *float64 {
	src := member
	if src == 0 {
		src = critic
	}
	if src == 0 {
		return nil
	}
	r := math.Round(src) / 10
	return &r
}

func releaseTime(unix int64) *time.Time {
	if unix == 0 {
		return nil
	}
	t := time.Unix(unix, 0).UTC()
	return &t
}

func nullableText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// slugify derives a URL slug from the title plus the IGDB id, which keeps
// slugs unique across games sharing a title.
func slugify(title string, id int64) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return strconv.FormatInt(id, 10)
	}
	return slug + "-" + strconv.FormatInt(id, 10)
}
