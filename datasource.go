package datagrid

import (
	"context"
	"regexp"
	"strings"
)

// DataSource executes the SQL built by a Grid. Implementations must accept
// `?` placeholders and bind args positionally.
type DataSource interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Count(ctx context.Context, query string, args ...any) (int, error)
	Dialect() Dialect
}

// Rows is a forward-only cursor over a result set. Values are the textual
// form of each column, aligned with Columns; NULL is the empty string.
type Rows interface {
	Columns() []string
	Next() bool
	Values() []string
	Err() error
	Close() error
}

// Dialect describes how identifiers are quoted.
type Dialect struct {
	Name  string
	Quote string
}

var (
	DialectANSI  = Dialect{Name: "ansi", Quote: `"`}
	DialectMySQL = Dialect{Name: "mysql", Quote: "`"}
)

var (
	plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	tableIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// Ident returns name ready for SQL text. Plain identifiers are left as is,
// anything else is quoted with embedded quotes doubled.
func (d Dialect) Ident(name string) string {
	if plainIdent.MatchString(name) {
		return name
	}
	q := d.Quote
	if q == "" {
		q = `"`
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}
