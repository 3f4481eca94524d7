package datagrid

import (
	"regexp"
	"strings"
)

// Row is one fetched record with values in column order
type Row struct {
	Index   int // position on the current page, zero based
	Columns []string
	Values  []string
}

// Get returns the value of the named column
func (r Row) Get(column string) (string, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return "", false
}

var placeholderRe = regexp.MustCompile(`%([A-Za-z0-9_ \-]*)%`)

// substitute replaces %column% tokens with row values. %_P% stands for the
// primary key column when one is set. Unknown columns are left untouched.
// escape, when not nil, is applied to every substituted value.
func substitute(tmpl string, row Row, primary string, escape func(string) string) string {
	if !strings.Contains(tmpl, "%") {
		return tmpl
	}
	if primary != "" {
		tmpl = strings.ReplaceAll(tmpl, "%_P%", "%"+primary+"%")
	}
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		v, ok := row.Get(m[1 : len(m)-1])
		if !ok {
			return m
		}
		if escape != nil {
			return escape(v)
		}
		return v
	})
}

// substituteAll applies substitute element-wise
func substituteAll(tmpls []string, row Row, primary string, escape func(string) string) []string {
	out := make([]string, len(tmpls))
	for i, t := range tmpls {
		out[i] = substitute(t, row, primary, escape)
	}
	return out
}
