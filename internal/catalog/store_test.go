package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamehub-dev/gamehub/internal/cache"
	"github.com/gamehub-dev/gamehub/internal/search/searchtest"
)

func TestTopRatedCacheRoundTrip(t *testing.T) {
	db := searchtest.NewDB()
	db.QueueRows([][]any{
		{int64(1), "g1", "chrono-trigger-1", "Chrono Trigger", nil, nil, 9.7},
		{int64(2), "g2", "hades-2", "Hades", nil, nil, 9.3},
	}, "rating IS NOT NULL")

	s := NewStore(db, cache.NewMemory())

	first, err := s.TopRated(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Chrono Trigger", first[0].Title)

	second, err := s.TopRated(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, db.Calls("rating IS NOT NULL"))
}

func TestGameBySlugNotFound(t *testing.T) {
	db := searchtest.NewDB()
	db.QueueRows(nil, "WHERE slug = @slug")

	s := NewStore(db, cache.NewMemory())
	_, _, _, err := s.GameBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGameBySlugLoadsRelations(t *testing.T) {
	db := searchtest.NewDB()
	db.QueueRow([]any{
		int64(1), "g1", "dragon-quest-1", "Dragon Quest", nil, nil, 8.5,
		"A summary", nil,
	}, "WHERE slug = @slug")
	db.QueueRows([][]any{{"RPG"}}, "JOIN game_genres")
	db.QueueRows([][]any{{int64(10), "https://www.youtube.com/embed/abc"}}, "FROM videos")
	db.QueueRows([][]any{{int64(20), "https://img.example/1.png"}}, "FROM screenshots")

	s := NewStore(db, cache.NewMemory())
	game, videos, screenshots, err := s.GameBySlug(context.Background(), "dragon-quest-1")
	require.NoError(t, err)
	assert.Equal(t, "Dragon Quest", game.Title)
	assert.Equal(t, []string{"RPG"}, game.Genres)
	require.NotNil(t, game.Summary)
	assert.Equal(t, "A summary", *game.Summary)
	assert.Nil(t, game.Storyline)
	require.Len(t, videos, 1)
	require.Len(t, screenshots, 1)
}

func TestGenresOrdered(t *testing.T) {
	db := searchtest.NewDB()
	db.QueueRows([][]any{
		{int64(1), "Adventure"},
		{int64(2), "RPG"},
	}, "FROM genres ORDER BY name")

	s := NewStore(db, cache.NewMemory())
	genres, err := s.Genres(context.Background())
	require.NoError(t, err)
	require.Len(t, genres, 2)
	assert.Equal(t, "Adventure", genres[0].Name)
}
