package datagrid

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrInvalidTable is returned when the configured table is not a plain identifier
	ErrInvalidTable = errors.New("invalid table name")
	// ErrInvalidColumn marks a sort or filter column absent from the result fields
	ErrInvalidColumn = errors.New("column not in result fields")
)

// QuerySpec holds the statements of one render. Count and Select share Args.
type QuerySpec struct {
	Select string
	Count  string
	Args   []any
	Offset int
	Limit  int
}

func (g *Grid) checkTable() error {
	if !tableIdent.MatchString(g.table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, g.table)
	}
	return nil
}

// probeQuery selects no rows; it only exposes the result fields
func (g *Grid) probeQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE 1=0", g.fields, g.table)
}

// checkColumns drops the sort and filter of st when they reference columns
// not returned by the query
func (g *Grid) checkColumns(st State, fields []string) State {
	if st.Sort != nil && !slices.Contains(fields, st.Sort.Column) {
		g.logger.Warn("Dropping sort", "column", st.Sort.Column, "error", ErrInvalidColumn)
		st.Sort = nil
	}
	if st.Filter != nil && !slices.Contains(fields, st.Filter.Column) {
		g.logger.Warn("Dropping filter", "column", st.Filter.Column, "error", ErrInvalidColumn)
		st.Filter = nil
	}
	return st
}

func (g *Grid) buildWhere(st State, d Dialect) (string, []any) {
	clauses := []string{}
	args := []any{}

	if g.where != "" {
		clauses = append(clauses, "("+g.where+")")
		args = append(args, g.whereArgs...)
	}

	if g.allowFilters && st.Filter != nil {
		value := st.Filter.Value
		if !strings.Contains(value, "%") {
			value = "%" + value + "%"
		}
		clauses = append(clauses, fmt.Sprintf("(%s LIKE ?)", d.Ident(st.Filter.Column)))
		args = append(args, value)
	}

	return strings.Join(clauses, " AND "), args
}

func buildOrder(st State, d Dialect) string {
	if st.Sort == nil {
		return ""
	}
	return fmt.Sprintf("ORDER BY %s %s", d.Ident(st.Sort.Column), st.Sort.Direction)
}

// buildQuery composes the count and select statements for st
func (g *Grid) buildQuery(st State, d Dialect) QuerySpec {
	where, args := g.buildWhere(st, d)

	q := QuerySpec{
		Args:   args,
		Offset: st.Offset(g.perPage),
		Limit:  g.perPage,
	}

	count := []string{"SELECT COUNT(*) FROM " + g.table}
	sel := []string{fmt.Sprintf("SELECT %s FROM %s", g.fields, g.table)}
	if where != "" {
		count = append(count, "WHERE "+where)
		sel = append(sel, "WHERE "+where)
	}
	if order := buildOrder(st, d); order != "" {
		sel = append(sel, order)
	}
	sel = append(sel, fmt.Sprintf("LIMIT %d OFFSET %d", q.Limit, q.Offset))

	q.Count = strings.Join(count, " ")
	q.Select = strings.Join(sel, " ")
	return q
}
