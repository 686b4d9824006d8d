package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sqliteTimeLayout is how timestamps are stored in SQLite TEXT columns.
const sqliteTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// rowIter is the subset of pgx.Rows and *sql.Rows the scanners need.
type rowIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// querier is implemented by both backends so the SQL lives in one place.
type querier interface {
	query(ctx context.Context, sql string, args ...any) (rowIter, func(), error)
	dialect() dialect
}

// dialect captures the differences between Postgres and SQLite that the read
// queries care about: bind syntax and how timestamps are compared.
type dialect struct {
	placeholder func(n int) string
	timeArg     func(t time.Time) any
	timeExpr    func(expr string) string
}

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	timeArg:     func(t time.Time) any { return t },
	timeExpr:    func(expr string) string { return expr },
}

// SQLite stores timestamps as ISO-8601 text, possibly with mixed offsets,
// so comparisons go through julianday.
var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	timeArg:     func(t time.Time) any { return t.UTC().Format(sqliteTimeLayout) },
	timeExpr:    func(expr string) string { return "julianday(" + expr + ")" },
}

// whereBuilder accumulates AND-ed conditions and their bind arguments.
type whereBuilder struct {
	d     dialect
	conds []string
	args  []any
}

func newWhere(d dialect) *whereBuilder {
	return &whereBuilder{d: d}
}

func (w *whereBuilder) bind(v any) string {
	w.args = append(w.args, v)
	return w.d.placeholder(len(w.args))
}

func (w *whereBuilder) raw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) eq(col string, v any) {
	w.conds = append(w.conds, col+" = "+w.bind(v))
}

func (w *whereBuilder) compareTime(col, op string, t time.Time) {
	ph := w.bind(w.d.timeArg(t))
	w.conds = append(w.conds, fmt.Sprintf("%s %s %s", w.d.timeExpr(col), op, w.d.timeExpr(ph)))
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// nullTime scans timestamps from either driver: pgx hands over time.Time,
// modernc/sqlite hands over the stored text.
type nullTime struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Scan implements sql.Scanner.
func (n *nullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = v, true
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (n *nullTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			n.Time, n.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("parsing timestamp %q", s)
}

func (n nullTime) ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
