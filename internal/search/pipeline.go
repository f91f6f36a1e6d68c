package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/gamehub-dev/gamehub/internal/cache"
)

// SuggestLimit caps the number of items Suggest returns.
const SuggestLimit = 5

// Scope restricts the base candidate set before search runs: post type,
// ownership, liked-by-actor. The catalog has no scopes; the forum does.
type Scope struct {
	Label     string // cache-key component, e.g. "myposts"
	Predicate string // boolean SQL fragment, may be empty
	Args      map[string]any
}

// Filter is layered on top of whatever the resolver returns, in every mode.
// The catalog's genre filter is the one user of this.
type Filter struct {
	Label     string
	Predicate string
	Args      map[string]any
}

// Profile carries the per-domain constants of the pipeline.
type Profile struct {
	Name         string // cache namespace: "games", "forum"
	Table        string
	TitleColumn  string
	TimeColumn   string
	RankColumn   string
	VectorColumn string

	PageSize int
	// MinCachedPage is the smallest result count worth caching a page for.
	// Small result sets are recomputed every call instead of churning keys.
	MinCachedPage int
	// MinCachedCount is the count above which the cardinality itself is
	// cached; small counts are cheap to recompute.
	MinCachedCount int
	TTL            time.Duration

	Threshold ThresholdFunc
	SortKeys  map[string]Ordering

	// ScopedFallback keeps the request's Scope applied in the trigram
	// fallback branch. Off by default: the fallback historically searches
	// the whole table, so a scoped search can surface results outside its
	// scope when full-text misses. Kept toggleable until product decides.
	ScopedFallback bool
}

// Request is a normalized per-call query. It is built from untrusted input
// by the caller (ParsePage for the page) and discarded after the response.
type Request struct {
	Text   string
	Sort   string
	Page   int
	Scope  Scope
	Filter Filter
	// Actor is the caller's identity ("anon" or a user id). When set it
	// becomes part of the count-cache key, since scoped counts differ
	// per user.
	Actor string
}

// Page is one serialized result page plus the total page count.
type Page[T any] struct {
	Items []T `json:"items"`
	Pages int `json:"pages"`
}

// Pipeline executes list and suggest queries for one domain. It is stateless
// across calls; the cache store is the only cross-call state.
type Pipeline[T any] struct {
	DB      Querier
	Cache   cache.Store
	Profile Profile

	// Select is the projection, "SELECT ... FROM <table>", matching Scan.
	Select string
	Scan   func(rows pgx.Rows) (T, error)
}

// List runs the full pipeline: page cache, rank/fallback resolution, scope
// and filter predicates, sort, cached count, pagination, page cache store.
//
// An empty candidate set returns ([], 0) without counting or caching.
// Data-store errors propagate; cache-store errors degrade to a miss.
func (p *Pipeline[T]) List(ctx context.Context, req Request) (Page[T], error) {
	prof := p.Profile
	page := req.Page
	if page < 1 {
		page = 1
	}

	// Scoped result sets differ per actor, so the actor is part of the key;
	// serving one user's "myposts" page to another would leak private rows.
	keyParts := []string{req.Text, req.Scope.Label, req.Filter.Label, req.Sort,
		strconv.Itoa(page), strconv.Itoa(prof.PageSize)}
	if req.Actor != "" {
		keyParts = append([]string{req.Actor}, keyParts...)
	}
	pageKey := cache.Key(prof.Name+"_search", keyParts...)
	if out, ok := p.cachedPage(ctx, pageKey); ok {
		return out, nil
	}

	res, err := Resolve(ctx, p.DB, prof, req.Scope, req.Text, prof.Threshold(utf8.RuneCountInString(req.Text)))
	if err != nil {
		return Page[T]{}, err
	}

	where, args, err := p.buildWhere(res, req)
	if err != nil {
		return Page[T]{}, err
	}

	found, err := p.exists(ctx, where, args)
	if err != nil {
		return Page[T]{}, err
	}
	if !found {
		return Page[T]{Items: []T{}, Pages: 0}, nil
	}

	ord := resolveOrdering(prof.SortKeys, req.Sort, res.Mode)
	orderBy := orderClause(ord, prof, res.RankExpr)

	total, err := p.count(ctx, req, where, args)
	if err != nil {
		return Page[T]{}, err
	}

	pages := PageCount(total, prof.PageSize)
	effective := ClampPage(page, pages)
	offset := (effective - 1) * prof.PageSize

	sql := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		p.Select, where, orderBy, prof.PageSize, offset)
	items, err := p.queryItems(ctx, sql, args)
	if err != nil {
		return Page[T]{}, err
	}

	out := Page[T]{Items: items, Pages: pages}
	if total >= prof.MinCachedPage {
		p.storePage(ctx, pageKey, out)
	}
	return out, nil
}

// Suggest returns the top matches for queryText, bypassing every cache. It
// always recomputes the full-text-then-trigram resolution and orders by the
// resolution's own score.
func (p *Pipeline[T]) Suggest(ctx context.Context, queryText string) ([]T, error) {
	if queryText == "" {
		return []T{}, nil
	}

	res, err := Resolve(ctx, p.DB, p.Profile, Scope{}, queryText, p.Profile.Threshold(utf8.RuneCountInString(queryText)))
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("%s WHERE %s ORDER BY %s DESC LIMIT %d",
		p.Select, res.Predicate, res.RankExpr, SuggestLimit)
	return p.queryItems(ctx, sql, res.Args)
}

// buildWhere combines the resolution predicate with the request's scope and
// filter. The scope is dropped in the trigram branch unless the profile opts
// in; the filter applies in every mode.
func (p *Pipeline[T]) buildWhere(res Resolution, req Request) (string, pgx.NamedArgs, error) {
	args := pgx.NamedArgs{}
	if err := mergeNamedArgs(args, res.Args); err != nil {
		return "", nil, err
	}

	var preds []string
	if res.Predicate != "" {
		preds = append(preds, res.Predicate)
	}

	scoped := res.Mode != ModeTrigram || p.Profile.ScopedFallback
	if scoped && req.Scope.Predicate != "" {
		preds = append(preds, req.Scope.Predicate)
		if err := mergeNamedArgs(args, req.Scope.Args); err != nil {
			return "", nil, err
		}
	}
	if req.Filter.Predicate != "" {
		preds = append(preds, req.Filter.Predicate)
		if err := mergeNamedArgs(args, req.Filter.Args); err != nil {
			return "", nil, err
		}
	}

	if len(preds) == 0 {
		preds = append(preds, "TRUE")
	}
	return strings.Join(preds, " AND "), args, nil
}

func (p *Pipeline[T]) exists(ctx context.Context, where string, args pgx.NamedArgs) (bool, error) {
	var found bool
	sql := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s)", p.Profile.Table, where)
	if err := p.DB.QueryRow(ctx, sql, args).Scan(&found); err != nil {
		return false, fmt.Errorf("candidate probe: %w", err)
	}
	return found, nil
}

// count returns the candidate-set cardinality, memoized above the profile
// threshold. Counting under full-text or trigram predicates is expensive;
// small counts are recomputed rather than cached.
func (p *Pipeline[T]) count(ctx context.Context, req Request, where string, args pgx.NamedArgs) (int, error) {
	parts := []string{req.Text, req.Scope.Label, req.Filter.Label}
	if req.Actor != "" {
		parts = append([]string{req.Actor}, parts...)
	}
	key := cache.Key(p.Profile.Name+"_count", parts...)

	if data, err := p.Cache.Get(ctx, key); err == nil {
		if n, convErr := strconv.Atoi(string(data)); convErr == nil {
			return n, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Str("key", key).Msg("count cache get failed; recomputing")
	}

	var n int
	sql := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", p.Profile.Table, where)
	if err := p.DB.QueryRow(ctx, sql, args).Scan(&n); err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}

	if n > p.Profile.MinCachedCount {
		if err := p.Cache.Set(ctx, key, []byte(strconv.Itoa(n)), p.Profile.TTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("count cache set failed")
		}
	}
	return n, nil
}

func (p *Pipeline[T]) queryItems(ctx context.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := p.DB.Query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("page query: %w", err)
	}
	defer rows.Close()

	items := make([]T, 0, p.Profile.PageSize)
	for rows.Next() {
		item, err := p.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("page rows: %w", err)
	}
	return items, nil
}

func (p *Pipeline[T]) cachedPage(ctx context.Context, key string) (Page[T], bool) {
	data, err := p.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Str("key", key).Msg("page cache get failed; recomputing")
		}
		return Page[T]{}, false
	}
	var out Page[T]
	if err := json.Unmarshal(data, &out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding corrupt page cache entry")
		return Page[T]{}, false
	}
	return out, true
}

func (p *Pipeline[T]) storePage(ctx context.Context, key string, page Page[T]) {
	data, err := json.Marshal(page)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("page cache marshal failed")
		return
	}
	if err := p.Cache.Set(ctx, key, data, p.Profile.TTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("page cache set failed")
	}
}
