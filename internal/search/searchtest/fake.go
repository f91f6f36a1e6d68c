// Package searchtest provides a scripted search.Querier for pipeline tests.
// Statements are matched by substrings of their SQL, and every executed
// statement is recorded so tests can assert on call counts.
package searchtest

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Call is one executed statement.
type Call struct {
	SQL  string
	Args []any
}

type rule struct {
	substrs []string
	rows    [][]any
	err     error
}

// DB is a scripted Querier. Rules are consulted in registration order; the
// first rule whose substrings all appear in the SQL wins. Rules are not
// consumed, so repeated identical statements keep matching.
type DB struct {
	mu       sync.Mutex
	rules    []rule
	executed []Call
}

func NewDB() *DB {
	return &DB{}
}

// QueueRow scripts a single-row result for statements containing all substrs.
func (d *DB) QueueRow(values []any, substrs ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules = append(d.rules, rule{substrs: substrs, rows: [][]any{values}})
}

// QueueRows scripts a multi-row result for statements containing all substrs.
func (d *DB) QueueRows(rows [][]any, substrs ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules = append(d.rules, rule{substrs: substrs, rows: rows})
}

// QueueErr scripts a failure for statements containing all substrs.
func (d *DB) QueueErr(err error, substrs ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules = append(d.rules, rule{substrs: substrs, err: err})
}

// Calls returns the number of executed statements containing all substrs.
func (d *DB) Calls(substrs ...string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.executed {
		if containsAll(c.SQL, substrs) {
			n++
		}
	}
	return n
}

// Executed returns a copy of every recorded statement, in order.
func (d *DB) Executed() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.executed))
	copy(out, d.executed)
	return out
}

func (d *DB) match(sql string, args []any) (rule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executed = append(d.executed, Call{SQL: sql, Args: args})
	for _, r := range d.rules {
		if containsAll(sql, r.substrs) {
			return r, nil
		}
	}
	return rule{}, fmt.Errorf("searchtest: no rule matches statement: %s", sql)
}

func containsAll(sql string, substrs []string) bool {
	for _, s := range substrs {
		if !strings.Contains(sql, s) {
			return false
		}
	}
	return true
}

func (d *DB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	r, err := d.match(sql, args)
	if err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return &Rows{rows: r.rows, idx: -1}, nil
}

func (d *DB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r, err := d.match(sql, args)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.CommandTag{}, r.err
}

func (d *DB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	r, err := d.match(sql, args)
	if err != nil {
		return &Row{err: err}
	}
	if r.err != nil {
		return &Row{err: r.err}
	}
	if len(r.rows) == 0 {
		return &Row{err: pgx.ErrNoRows}
	}
	return &Row{values: r.rows[0]}
}

// Row implements pgx.Row over a single scripted value tuple.
type Row struct {
	values []any
	err    error
}

func (r *Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assignAll(dest, r.values)
}

// Rows implements pgx.Rows over scripted value tuples.
type Rows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *Rows) Close()                                       {}
func (r *Rows) Err() error                                   { return r.err }
func (r *Rows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *Rows) RawValues() [][]byte                          { return nil }
func (r *Rows) Conn() *pgx.Conn                              { return nil }

func (r *Rows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *Rows) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return nil, fmt.Errorf("searchtest: Values called outside a row")
	}
	return r.rows[r.idx], nil
}

func (r *Rows) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return fmt.Errorf("searchtest: Scan called outside a row")
	}
	return assignAll(dest, r.rows[r.idx])
}

func assignAll(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("searchtest: scan expects %d destinations, got %d", len(values), len(dest))
	}
	for i, v := range values {
		if err := assign(dest[i], v); err != nil {
			return fmt.Errorf("searchtest: destination %d: %w", i, err)
		}
	}
	return nil
}

// assign writes a scripted value into a scan destination, covering the
// pointer and pointer-to-pointer shapes the domain row types use.
func assign(dest any, v any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("destination must be a non-nil pointer, got %T", dest)
	}
	elem := dv.Elem()

	if v == nil {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}

	sv := reflect.ValueOf(v)
	if sv.Type().AssignableTo(elem.Type()) {
		elem.Set(sv)
		return nil
	}
	// Nullable columns scan into pointers; allocate and set through.
	if elem.Kind() == reflect.Pointer && sv.Type().AssignableTo(elem.Type().Elem()) {
		ptr := reflect.New(elem.Type().Elem())
		ptr.Elem().Set(sv)
		elem.Set(ptr)
		return nil
	}
	if sv.Type().ConvertibleTo(elem.Type()) {
		elem.Set(sv.Convert(elem.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", v, elem.Type())
}
