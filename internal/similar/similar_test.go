package similar

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamehub-dev/gamehub/internal/search/searchtest"
)

type stubEmbedder struct {
	vec   []float32
	texts []string
}

func (s *stubEmbedder) Model() string   { return "test-model" }
func (s *stubEmbedder) Dimensions() int { return len(s.vec) }
func (s *stubEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	s.texts = append(s.texts, text)
	return s.vec, nil
}

func TestDocument(t *testing.T) {
	summary := "A knight seeks a dragon."
	assert.Equal(t, "Dragon Quest\n\nA knight seeks a dragon.", Document("Dragon Quest", &summary))
	assert.Equal(t, "Dragon Quest", Document("Dragon Quest", nil))

	blank := "   "
	assert.Equal(t, "Dragon Quest", Document("Dragon Quest", &blank))
}

func TestL2Normalize(t *testing.T) {
	vec := []float32{3, 4}
	l2Normalize(vec)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)

	zero := []float32{0, 0}
	l2Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestUpsertEmbedding(t *testing.T) {
	db := searchtest.NewDB()
	db.QueueRows(nil, "INSERT INTO game_embeddings")

	svc := NewService(db, &stubEmbedder{vec: []float32{1, 0}})
	require.NoError(t, svc.UpsertEmbedding(context.Background(), 7, "Dragon Quest"))
	assert.Equal(t, 1, db.Calls("ON CONFLICT (game_id) DO UPDATE"))
}

func TestEmbedGameBuildsDocument(t *testing.T) {
	db := searchtest.NewDB()
	db.QueueRows(nil, "INSERT INTO game_embeddings")

	summary := "A knight seeks a dragon."
	emb := &stubEmbedder{vec: []float32{1, 0}}
	svc := NewService(db, emb)
	require.NoError(t, svc.EmbedGame(context.Background(), 7, "Dragon Quest", &summary))

	assert.Equal(t, []string{"Dragon Quest\n\nA knight seeks a dragon."}, emb.texts)
	assert.Equal(t, 1, db.Calls("INSERT INTO game_embeddings"))
}

func TestSimilarGamesExcludesSelf(t *testing.T) {
	db := searchtest.NewDB()
	db.QueueRows([][]any{
		{int64(2), "g2", "dragon-warrior-2", "Dragon Warrior", nil, nil, 8.1},
	}, "WITH source AS")

	svc := NewService(db, &stubEmbedder{vec: []float32{1, 0}})
	out, err := svc.SimilarGames(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Dragon Warrior", out[0].Title)

	calls := db.Executed()
	knn := calls[len(calls)-1]
	assert.Contains(t, knn.SQL, "g.id <> @game_id")
	assert.Contains(t, knn.SQL, "ge.embedding <=> s.embedding")
	assert.Contains(t, knn.SQL, "LIMIT 6")
}
