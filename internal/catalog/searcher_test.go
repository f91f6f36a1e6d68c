package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamehub-dev/gamehub/internal/cache"
	"github.com/gamehub-dev/gamehub/internal/search/searchtest"
)

func TestListKnownGenreFilters(t *testing.T) {
	db := searchtest.NewDB()
	db.QueueRow([]any{true}, "FROM genres WHERE name")
	db.QueueRow([]any{true}, "SELECT EXISTS")
	db.QueueRow([]any{12}, "SELECT count(*)")
	db.QueueRows([][]any{
		{int64(1), "g1", "dragon-quest-1", "Dragon Quest", nil, nil, 8.5},
	}, "SELECT id, game_id, slug")

	s := NewSearcher(db, cache.NewMemory(), time.Hour)
	out, err := s.List(context.Background(), "dragon", "relevance", "RPG", 1)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Dragon Quest", out.Items[0].Title)
	require.NotNil(t, out.Items[0].Rating)
	assert.Equal(t, 8.5, *out.Items[0].Rating)

	calls := db.Executed()
	page := calls[len(calls)-1]
	assert.Contains(t, page.SQL, "g.name = @genre")
}

func TestListUnknownGenreIgnored(t *testing.T) {
	db := searchtest.NewDB()
	db.QueueRow([]any{false}, "FROM genres WHERE name")
	db.QueueRow([]any{true}, "SELECT EXISTS")
	db.QueueRow([]any{12}, "SELECT count(*)")
	db.QueueRows([][]any{
		{int64(1), "g1", "dragon-quest-1", "Dragon Quest", nil, nil, nil},
	}, "SELECT id, game_id, slug")

	s := NewSearcher(db, cache.NewMemory(), time.Hour)
	_, err := s.List(context.Background(), "dragon", "relevance", "Nope", 1)
	require.NoError(t, err)

	// A genre nobody has heard of is ignored, not an error and not a
	// guaranteed-empty filter.
	calls := db.Executed()
	page := calls[len(calls)-1]
	assert.NotContains(t, page.SQL, "@genre")
}

func TestListAllGenresSkipsLookup(t *testing.T) {
	db := searchtest.NewDB()
	db.QueueRow([]any{true}, "SELECT EXISTS")
	db.QueueRow([]any{12}, "SELECT count(*)")
	db.QueueRows([][]any{
		{int64(1), "g1", "dragon-quest-1", "Dragon Quest", nil, nil, nil},
	}, "SELECT id, game_id, slug")

	s := NewSearcher(db, cache.NewMemory(), time.Hour)
	_, err := s.List(context.Background(), "dragon", "relevance", AllGenres, 1)
	require.NoError(t, err)
	assert.Zero(t, db.Calls("FROM genres WHERE name"))
}
