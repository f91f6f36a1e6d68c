package search

import "fmt"

// SortRelevance orders by the active search mechanism's own score. It has no
// meaning without a query; see resolveOrdering.
const SortRelevance = "relevance"

// Ordering is a concrete ordering over the candidate set.
type Ordering int

const (
	// OrderRelevance orders by full-text rank or trigram similarity,
	// descending. Only valid when a search resolution is active.
	OrderRelevance Ordering = iota
	// OrderTitle orders by title ascending.
	OrderTitle
	// OrderTimeAsc orders by the domain timestamp ascending, nulls last,
	// with a title tie-break.
	OrderTimeAsc
	// OrderTimeDesc is the chronological default: timestamp descending,
	// nulls last, title tie-break.
	OrderTimeDesc
	// OrderRankTitle orders by the rank score (rating) descending, nulls
	// last, with a title tie-break.
	OrderRankTitle
	// OrderRankTime orders by the rank score (likes) descending with a
	// timestamp tie-break, newest first.
	OrderRankTime
)

// resolveOrdering maps a raw sort key onto an Ordering. Unrecognized keys
// degrade to the chronological default, as does relevance when there is no
// query to be relevant to.
func resolveOrdering(keys map[string]Ordering, sortKey string, mode Mode) Ordering {
	ord, ok := keys[sortKey]
	if !ok {
		return OrderTimeDesc
	}
	if ord == OrderRelevance && mode == ModeNone {
		return OrderTimeDesc
	}
	return ord
}

// orderClause renders the ORDER BY fragment for an ordering. rankExpr is the
// active resolution's score expression and is only consulted for
// OrderRelevance.
func orderClause(ord Ordering, p Profile, rankExpr string) string {
	switch ord {
	case OrderRelevance:
		return rankExpr + " DESC"
	case OrderTitle:
		return p.TitleColumn + " ASC"
	case OrderTimeAsc:
		return fmt.Sprintf("%s ASC NULLS LAST, %s ASC", p.TimeColumn, p.TitleColumn)
	case OrderRankTitle:
		return fmt.Sprintf("%s DESC NULLS LAST, %s ASC", p.RankColumn, p.TitleColumn)
	case OrderRankTime:
		return fmt.Sprintf("%s DESC, %s DESC", p.RankColumn, p.TimeColumn)
	default:
		return fmt.Sprintf("%s DESC NULLS LAST, %s ASC", p.TimeColumn, p.TitleColumn)
	}
}
