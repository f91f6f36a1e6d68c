package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Mode names which search mechanism produced the candidate set.
type Mode int

const (
	// ModeNone means there was no query; the base set is unrestricted and
	// carries no relevance signal.
	ModeNone Mode = iota
	// ModeFullText means the candidates matched the precomputed tsvector.
	ModeFullText
	// ModeTrigram means full-text matched nothing and the candidates come
	// from fuzzy title similarity instead.
	ModeTrigram
)

// Resolution is the outcome of the rank/fallback decision: a WHERE fragment
// restricting the candidate set and a score expression usable for
// relevance ordering.
type Resolution struct {
	Mode      Mode
	Predicate string // boolean SQL fragment; empty for ModeNone
	RankExpr  string // score expression for "ORDER BY ... DESC"
	Args      pgx.NamedArgs
}

// Resolve decides between full-text and trigram candidates for queryText.
//
// The full-text probe runs against the scoped base set. When it matches
// nothing, the trigram fallback recomputes from the whole table unless
// p.ScopedFallback is set; the unscoped fallback reproduces behavior other
// parts of the app have come to depend on (see Profile.ScopedFallback).
//
// queryText must be pre-sanitized free text; it is passed to plainto_tsquery,
// which never interprets search-engine operators.
func Resolve(ctx context.Context, db Querier, p Profile, scope Scope, queryText string, threshold float64) (Resolution, error) {
	if queryText == "" {
		return Resolution{Mode: ModeNone, Args: pgx.NamedArgs{}}, nil
	}

	ftsPredicate := fmt.Sprintf("%s @@ plainto_tsquery('english', @q)", p.VectorColumn)

	probeArgs := pgx.NamedArgs{"q": queryText}
	probe := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s", p.Table, ftsPredicate)
	if scope.Predicate != "" {
		probe += " AND " + scope.Predicate
		if err := mergeNamedArgs(probeArgs, scope.Args); err != nil {
			return Resolution{}, err
		}
	}
	probe += ")"

	var matched bool
	if err := db.QueryRow(ctx, probe, probeArgs).Scan(&matched); err != nil {
		return Resolution{}, fmt.Errorf("full-text probe: %w", err)
	}

	if matched {
		return Resolution{
			Mode:      ModeFullText,
			Predicate: ftsPredicate,
			RankExpr:  fmt.Sprintf("ts_rank(%s, plainto_tsquery('english', @q))", p.VectorColumn),
			Args:      pgx.NamedArgs{"q": queryText},
		}, nil
	}

	return Resolution{
		Mode:      ModeTrigram,
		Predicate: fmt.Sprintf("similarity(%s, @q) > @threshold", p.TitleColumn),
		RankExpr:  fmt.Sprintf("similarity(%s, @q)", p.TitleColumn),
		Args:      pgx.NamedArgs{"q": queryText, "threshold": threshold},
	}, nil
}

func mergeNamedArgs(dst pgx.NamedArgs, src map[string]any) error {
	for k, v := range src {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("named arg key is empty")
		}
		if _, ok := dst[k]; ok {
			return fmt.Errorf("named arg %q already set", k)
		}
		dst[k] = v
	}
	return nil
}
