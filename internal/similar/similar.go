// Package similar maintains pgvector embeddings for games and answers
// "players also liked" queries by cosine distance over them.
package similar

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/gamehub-dev/gamehub/internal/catalog"
	"github.com/gamehub-dev/gamehub/internal/search"
)

// DefaultLimit is how many neighbors SimilarGames returns when the caller
// passes a non-positive limit.
const DefaultLimit = 6

// DB adds write access on top of the read-only query surface.
type DB interface {
	search.Querier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Service embeds game documents and serves nearest-neighbor lookups.
type Service struct {
	db    DB
	embed Embedder
}

func NewService(db DB, embed Embedder) *Service {
	return &Service{db: db, embed: embed}
}

// Document builds the text that gets embedded for a game. Title and summary
// are enough signal; storylines are long and mostly plot noise.
func Document(title string, summary *string) string {
	if summary == nil || strings.TrimSpace(*summary) == "" {
		return title
	}
	return title + "\n\n" + *summary
}

// EmbedGame builds the game's document and upserts its embedding. The
// catalog sync calls this per imported game.
func (s *Service) EmbedGame(ctx context.Context, gameID int64, title string, summary *string) error {
	return s.UpsertEmbedding(ctx, gameID, Document(title, summary))
}

// UpsertEmbedding embeds doc and stores it as the game's vector, replacing
// any previous one. Re-running over the whole catalog is idempotent.
func (s *Service) UpsertEmbedding(ctx context.Context, gameID int64, doc string) error {
	vec, err := s.embed.EmbedText(ctx, doc)
	if err != nil {
		return fmt.Errorf("embed game %d: %w", gameID, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO game_embeddings (game_id, model, embedding)
		VALUES (@game_id, @model, @embedding)
		ON CONFLICT (game_id) DO UPDATE
		SET model = EXCLUDED.model, embedding = EXCLUDED.embedding
	`, pgx.NamedArgs{
		"game_id":   gameID,
		"model":     s.embed.Model(),
		"embedding": pgvector.NewHalfVector(vec),
	})
	if err != nil {
		return fmt.Errorf("store embedding for game %d: %w", gameID, err)
	}
	return nil
}

// SimilarGames returns the nearest neighbors of the given game by cosine
// distance, excluding the game itself. Games without an embedding yet return
// an empty list, not an error.
func (s *Service) SimilarGames(ctx context.Context, gameID int64, limit int) ([]catalog.GameSummary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	sql := fmt.Sprintf(`
		WITH source AS (
			SELECT embedding FROM game_embeddings WHERE game_id = @game_id
		)
		SELECT g.id, g.game_id, g.slug, g.title, g.cover_image, g.release, g.rating
		FROM games g
		JOIN game_embeddings ge ON ge.game_id = g.id
		CROSS JOIN source s
		WHERE g.id <> @game_id
		ORDER BY ge.embedding <=> s.embedding
		LIMIT %d
	`, limit)
	rows, err := s.db.Query(ctx, sql, pgx.NamedArgs{"game_id": gameID})
	if err != nil {
		return nil, fmt.Errorf("similar games query: %w", err)
	}
	defer rows.Close()

	out := make([]catalog.GameSummary, 0, limit)
	for rows.Next() {
		var g catalog.GameSummary
		if err := rows.Scan(&g.ID, &g.GameID, &g.Slug, &g.Title, &g.CoverImage, &g.Release, &g.Rating); err != nil {
			return nil, fmt.Errorf("scan similar game row: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
