package store

import (
	"fmt"
	"strings"

	"github.com/roach88/brancheval/internal/tracking"
)

// predicate is a WHERE clause fragment over a single table.
type predicate interface {
	compile() (string, []any, error)
}

// equals matches rows whose column equals value.
type equals struct {
	column string
	value  any
}

// and is a conjunction. An empty conjunction matches every row.
type and []predicate

// selectQuery is a parameterized SELECT. Every compiled query carries an
// ORDER BY ending in the primary key, so results never depend on the
// database's physical row order.
type selectQuery struct {
	columns []string
	from    string
	where   predicate
	orderBy []string
	key     string
}

var runColumns = []string{"id", "project", "name", "branch", "state", "created_at", "last_step", "summary", "config", "tags", "notes"}

func (e equals) compile() (string, []any, error) {
	if e.column == "" {
		return "", nil, fmt.Errorf("equals: empty column")
	}
	return e.column + " = ?", []any{e.value}, nil
}

func (a and) compile() (string, []any, error) {
	if len(a) == 0 {
		return "1 = 1", nil, nil
	}
	parts := make([]string, 0, len(a))
	var args []any
	for _, p := range a {
		sql, params, err := p.compile()
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, params...)
	}
	return strings.Join(parts, " AND "), args, nil
}

// compile renders q with ? placeholders. Values are never interpolated.
func (q selectQuery) compile() (string, []any, error) {
	if q.from == "" {
		return "", nil, fmt.Errorf("select: empty table")
	}
	if q.key == "" {
		return "", nil, fmt.Errorf("select %s: missing key column for stable order", q.from)
	}

	cols := "*"
	if len(q.columns) > 0 {
		cols = strings.Join(q.columns, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, q.from)

	var args []any
	if q.where != nil {
		sql, params, err := q.where.compile()
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE " + sql)
		args = params
	}

	order := append([]string{}, q.orderBy...)
	order = append(order, q.key+" ASC")
	b.WriteString(" ORDER BY " + strings.Join(order, ", "))
	return b.String(), args, nil
}

// runFilter turns a run query into a predicate. Empty fields match all.
func runFilter(q tracking.Query) predicate {
	var p and
	if q.Project != "" {
		p = append(p, equals{column: "project", value: q.Project})
	}
	if q.Branch != "" {
		p = append(p, equals{column: "branch", value: q.Branch})
	}
	if q.State != "" {
		p = append(p, equals{column: "state", value: string(q.State)})
	}
	if len(p) == 0 {
		return nil
	}
	return p
}

// listRunsQuery selects runs matching q, newest first.
func listRunsQuery(q tracking.Query) selectQuery {
	return selectQuery{
		columns: runColumns,
		from:    "runs",
		where:   runFilter(q),
		orderBy: []string{"created_at DESC"},
		key:     "id",
	}
}
