package forum

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gamehub-dev/gamehub/internal/cache"
	"github.com/gamehub-dev/gamehub/internal/search"
)

// PageSize is the fixed forum page size.
const PageSize = 5

// Anonymous is the actor label for unauthenticated callers. Scoped counts
// differ per user, so the actor is always part of the forum count key.
const Anonymous = "anon"

// Post type scopes recognized by List. Anything else lists every post.
const (
	TypeGeneral = "general"
	TypeGame    = "game"
	TypeMine    = "myposts"
	TypeLiked   = "liked"
)

var sortKeys = map[string]search.Ordering{
	"relevance":     search.OrderRelevance,
	"title":         search.OrderTitle,
	"created(asc)":  search.OrderTimeAsc,
	"created(desc)": search.OrderTimeDesc,
	"likes":         search.OrderRankTime,
}

const selectSummary = `SELECT id, slug, title, post_type, user_id,
	(SELECT username FROM users WHERE users.id = forum_posts.user_id) AS author,
	game_id, created_at, like_count, dislike_count, comment_count, views
FROM forum_posts`

func scanSummary(rows pgx.Rows) (PostSummary, error) {
	var p PostSummary
	err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.PostType, &p.AuthorID, &p.Author,
		&p.GameID, &p.CreatedAt, &p.LikeCount, &p.DislikeCount, &p.CommentCount, &p.Views)
	return p, err
}

// Searcher lists and suggests forum posts. The forum profile uses a fixed
// similarity threshold and created/likes orderings.
type Searcher struct {
	pipeline *search.Pipeline[PostSummary]
}

// NewSearcher builds the forum pipeline. scopedFallback controls whether the
// trigram fallback keeps the post-type/ownership scope; see
// search.Profile.ScopedFallback.
func NewSearcher(db search.Querier, store cache.Store, ttl time.Duration, scopedFallback bool) *Searcher {
	return &Searcher{
		pipeline: &search.Pipeline[PostSummary]{
			DB:    db,
			Cache: store,
			Profile: search.Profile{
				Name:           "forum",
				Table:          "forum_posts",
				TitleColumn:    "title",
				TimeColumn:     "created_at",
				RankColumn:     "like_count",
				VectorColumn:   "search_vector",
				PageSize:       PageSize,
				MinCachedPage:  2,
				MinCachedCount: 50,
				TTL:            ttl,
				Threshold:      search.FixedThreshold(0.2),
				SortKeys:       sortKeys,
				ScopedFallback: scopedFallback,
			},
			Select: selectSummary,
			Scan:   scanSummary,
		},
	}
}

// List returns one page of posts. postType selects the base scope; the
// ownership scopes require an authenticated actor and otherwise fall back to
// listing every post, matching the permissive behavior of the HTTP layer.
func (s *Searcher) List(ctx context.Context, text, sortKey, postType string, page int, actorID int64) (search.Page[PostSummary], error) {
	req := search.Request{
		Text:  text,
		Sort:  sortKey,
		Page:  page,
		Scope: scopeFor(postType, actorID),
		Actor: actorLabel(actorID),
	}
	return s.pipeline.List(ctx, req)
}

// Suggest returns up to five posts ranked by the active search score.
func (s *Searcher) Suggest(ctx context.Context, text string) ([]PostSummary, error) {
	return s.pipeline.Suggest(ctx, text)
}

func scopeFor(postType string, actorID int64) search.Scope {
	switch {
	case postType == TypeGeneral || postType == TypeGame:
		return search.Scope{
			Label:     postType,
			Predicate: "post_type = @post_type",
			Args:      map[string]any{"post_type": postType},
		}
	case postType == TypeMine && actorID != 0:
		return search.Scope{
			Label:     TypeMine,
			Predicate: "user_id = @actor_id",
			Args:      map[string]any{"actor_id": actorID},
		}
	case postType == TypeLiked && actorID != 0:
		return search.Scope{
			Label: TypeLiked,
			Predicate: "EXISTS (SELECT 1 FROM post_reactions pr" +
				" WHERE pr.post_id = forum_posts.id AND pr.user_id = @actor_id AND pr.reaction = 'like')",
			Args: map[string]any{"actor_id": actorID},
		}
	default:
		return search.Scope{}
	}
}

func actorLabel(actorID int64) string {
	if actorID == 0 {
		return Anonymous
	}
	return strconv.FormatInt(actorID, 10)
}
