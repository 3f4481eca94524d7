package datagrid

import (
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/google/uuid"
)

// ErrQuery wraps data source failures rendered as an inline notice
var ErrQuery = errors.New("grid query failed")

// RenderResult is the output of one render. Err is set when a query failed
// and the error notice was rendered instead of the table.
type RenderResult struct {
	ID    string `json:"id"`
	Total int    `json:"total"`
	First int    `json:"first"`
	Last  int    `json:"last"`
	Pages int    `json:"pages"`
	HTML  string `json:"html"`
	Err   error  `json:"-"`
}

// Render queries the data source for st and renders the grid. Query
// failures are rendered as a notice and reported in RenderResult.Err; the
// returned error is only set for invalid configuration.
func (g *Grid) Render(ctx context.Context, st State) (*RenderResult, error) {
	if err := g.checkTable(); err != nil {
		return nil, err
	}

	res := &RenderResult{ID: uuid.NewString()}
	log := g.logger.With("render", res.ID, "table", g.table)
	var b strings.Builder

	if !st.Ajax {
		writeStateScript(&b, st)
		b.WriteString(reloadScript)
	}

	fail := func(err error) (*RenderResult, error) {
		log.Error("Grid query failed", "error", err)
		res.Err = fmt.Errorf("%w: %w", ErrQuery, err)
		writeError(&b, err)
		res.HTML = b.String()
		return res, nil
	}

	d := g.src.Dialect()

	// Sort and filter columns come from the client and are only accepted
	// when the query actually returns them.
	if st.Sort != nil || (g.allowFilters && st.Filter != nil) {
		fields, err := g.fieldNames(ctx)
		if err != nil {
			return fail(err)
		}
		st = g.checkColumns(st, fields)
	}

	q := g.buildQuery(st, d)
	log.Debug("Grid query", "select", q.Select, "count", q.Count)

	// Count runs first so a render never holds two connections at once.
	total, err := g.src.Count(ctx, q.Count, q.Args...)
	if err != nil {
		return fail(err)
	}
	res.Total = total

	rows, err := g.src.Query(ctx, q.Select, q.Args...)
	if err != nil {
		return fail(err)
	}
	defer rows.Close()

	columns := rows.Columns()
	var body strings.Builder
	first, last, err := g.writeBody(&body, rows, st, columns, total)
	if err != nil {
		return fail(err)
	}
	res.First, res.Last = first, last

	b.WriteString(`<form action="#" name="dg" id="dg">`)
	g.writeButtons(&b)
	b.WriteString(`<table class="tbl">`)
	g.writeHeader(&b, st, columns)
	b.WriteString(body.String())

	pager := NewPager(total, g.perPage, st.Page)
	res.Pages = pager.Pages
	g.writeFooter(&b, pager, total, first, last, g.columnCount(columns))
	b.WriteString(`</table></form>`)

	res.HTML = b.String()
	log.Debug("Grid rendered", "total", total, "first", first, "last", last)
	return res, nil
}

func (g *Grid) fieldNames(ctx context.Context) ([]string, error) {
	rows, err := g.src.Query(ctx, g.probeQuery())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return rows.Columns(), nil
}

func writeError(b *strings.Builder, err error) {
	msg := strings.NewReplacer(`'`, "", `"`, "").Replace(err.Error())
	fmt.Fprintf(b, `<div class="tbl-error" style="color: red; font-weight: bold; border: 2px solid red; padding: 10px;">Oops! We ran into a problem while trying to output the table. <a href="javascript:;" onclick="tblReset()">Click here</a> to reset the table or <a href="javascript:;" onclick="alert('%s')">here</a> to review the error.</div>`,
		html.EscapeString(template.JSEscapeString(msg)))
}

func (g *Grid) writeButtons(b *strings.Builder) {
	if g.create != nil {
		text := html.EscapeString(g.create.Text)
		fmt.Fprintf(b, `<span class="tbl-create"><a %s title="%s"><img src="%s" class="tbl-create-image">%s</a></span>`,
			linkAttrs(g.create.Action, g.create.ActionType), text, g.image(imgCreate), text)
	}
	if g.reset != "" {
		text := html.EscapeString(g.reset)
		fmt.Fprintf(b, `<span class="tbl-reset"><a href="javascript:;" onclick="tblReset()" title="%s"><img src="%s" class="tbl-reset-image">%s</a></span>`,
			text, g.image(imgReset), text)
	}
}

func (g *Grid) filterable(column string) bool {
	t, ok := g.types[column]
	return !ok || t.filterable()
}

func (g *Grid) writeHeader(b *strings.Builder, st State, columns []string) {
	if g.hideHeader {
		return
	}
	b.WriteString(`<thead><tr>`)
	if g.showRowNumber {
		b.WriteString(`<td class="tbl-header">&nbsp;</td>`)
	}
	if g.showCheckboxes {
		b.WriteString(`<td class="tbl-header tbl-checkall"><input type="checkbox" name="checkall" onclick="tblToggleCheckAll()"></td>`)
	}

	for _, c := range g.visibleColumns(columns) {
		header := html.EscapeString(g.headerText(c))
		jsCol := html.EscapeString(template.JSEscapeString(c))
		active := st.Sort != nil && st.Sort.Column == c

		if g.hideOrder {
			b.WriteString(`<td class="tbl-header">` + header)
		} else {
			next := Asc
			if active && st.Sort.Direction == Asc {
				next = Desc
			}
			fmt.Fprintf(b, `<td class="tbl-header"><a href="javascript:;" onclick="tblSetOrder('%s', '%s')">%s</a>`, jsCol, next, header)
			if active {
				fmt.Fprintf(b, `&nbsp;<img src="%s" class="tbl-order">`, g.image("sort_"+strings.ToLower(string(st.Sort.Direction))+".svg"))
			}
		}

		if g.allowFilters && g.filterable(c) {
			display, value := "none", ""
			if st.Filter != nil && st.Filter.Column == c && st.Filter.Value != "" {
				display, value = "block", st.Filter.Value
			}
			id := html.EscapeString(c)
			fmt.Fprintf(b, `<a href="javascript:;" onclick="tblShowHideFilter('%s')"><img src="%s" class="tbl-filter-image"></a><br><div class="tbl-filter-box" id="filter-%s" style="display:%s"><input type="text" size="6" id="filter-value-%s" value="%s">&nbsp;<a href="javascript:;" onclick="tblSetFilter('%s')">filter</a></div>`,
				jsCol, g.image(imgFilter), id, display, id, html.EscapeString(value), jsCol)
		}
		b.WriteString(`</td>`)
	}

	if len(g.controls) > 0 {
		b.WriteString(`<td class="tbl-header">&nbsp;</td>`)
	}
	b.WriteString(`</tr></thead>`)
}

// writeBody renders the fetched rows and returns the first and last row
// numbers shown
func (g *Grid) writeBody(b *strings.Builder, rows Rows, st State, columns []string, total int) (int, int, error) {
	b.WriteString(`<tbody>`)
	defer b.WriteString(`</tbody>`)

	if total == 0 {
		fmt.Fprintf(b, `<tr><td colspan="%d" class="tbl-noresults">%s</td></tr>`, g.columnCount(columns), TextNoResults)
		return 0, 0, nil
	}

	first, last := 0, 0
	for i := 0; rows.Next(); i++ {
		row := Row{Index: i, Columns: columns, Values: rows.Values()}

		parity := "even"
		if i%2 == 1 {
			parity = "odd"
		}
		b.WriteString(`<tr class="tbl-row tbl-row-` + parity)
		if g.rowSelect != "" {
			b.WriteString(` tbl-row-highlight" onclick="` + html.EscapeString(substitute(g.rowSelect, row, g.primary, nil)))
		}
		b.WriteString(`">`)

		last = rowNumber(st.Page, g.perPage, i)
		if first == 0 {
			first = last
		}

		if g.showRowNumber {
			fmt.Fprintf(b, `<td class="tbl-row-num">%d</td>`, last)
		}
		if g.showCheckboxes {
			pk, _ := row.Get(g.primary)
			fmt.Fprintf(b, `<td align="center"><input type="checkbox" class="tbl-checkbox" name="tbl-checkbox" value="%s"></td>`, html.EscapeString(pk))
		}

		for j, c := range columns {
			if g.hidden[c] {
				continue
			}
			b.WriteString(`<td class="tbl-cell">` + g.formatCell(row, c, row.Values[j]) + `</td>`)
		}

		if len(g.controls) > 0 {
			b.WriteString(`<td class="tbl-controls">`)
			for _, ctl := range g.controls {
				b.WriteString(g.controlMarkup(ctl, row))
			}
			b.WriteString(`</td>`)
		}
		b.WriteString(`</tr>`)
	}
	return first, last, rows.Err()
}

func (g *Grid) formatCell(row Row, column, value string) string {
	t, ok := g.types[column]
	if !ok {
		return html.EscapeString(value)
	}
	out, err := t.format(&cell{grid: g, row: row, column: column, value: value})
	if err != nil {
		g.logger.Debug("Column value fallback", "column", column, "row", row.Index, "error", err)
	}
	return out
}

func (g *Grid) writeFooter(b *strings.Builder, p Pager, total, first, last, colspan int) {
	if g.hideFooter {
		return
	}
	fmt.Fprintf(b, `<tfoot><tr class="tbl-footer"><td class="tbl-nav" colspan="%d"><table width="100%%" class="tbl-footer"><tr><td width="33%%" class="tbl-found">Found <em>%d</em> results`, colspan, total)
	if total > 0 {
		fmt.Fprintf(b, `, showing <em>%d</em> to <em>%d</em>`, first, last)
	}
	b.WriteString(`</td><td width="33%" class="tbl-pages">`)

	if total > g.perPage {
		g.writeArrows(b, p)
	}

	b.WriteString(`</td><td width="33%" class="tbl-page">`)
	if p.Pages > 0 {
		b.WriteString(`Page `)
		if !g.hidePageList && p.Pages > 1 {
			b.WriteString(`<select name="tbl-page" onchange="tblSetPage(this.options[this.selectedIndex].value)">`)
			for i := 1; i <= p.Pages; i++ {
				sel := ""
				if i == p.Page {
					sel = ` selected="selected"`
				}
				fmt.Fprintf(b, `<option value="%d"%s>%d</option>`, i, sel, i)
			}
			b.WriteString(`</select>`)
		} else {
			fmt.Fprintf(b, "%d", p.Page)
		}
		fmt.Fprintf(b, " of %d", p.Pages)
	}
	b.WriteString(`</td></tr></table></td></tr></tfoot>`)
}

func (g *Grid) writeArrows(b *strings.Builder, p Pager) {
	arrow := func(name, alt, title string, page int, enabled bool) {
		if !enabled {
			fmt.Fprintf(b, `<img src="%s" class="tbl-arrows" alt="%s" title="%s">`, g.image(name+"_disabled.svg"), alt, title)
			return
		}
		fmt.Fprintf(b, `<a href="javascript:;" onclick="tblSetPage(%d)"><img src="%s" class="tbl-arrows" alt="%s" title="%s"></a>`, page, g.image(name+".svg"), alt, title)
	}

	arrow("arrow_first", "&lt;&lt;", "First Page", 1, p.HasPrev)
	arrow("arrow_left", "&lt;", "Previous Page", p.Page-1, p.HasPrev)

	for _, i := range p.Links() {
		if i == p.Page {
			fmt.Fprintf(b, `&nbsp;<span class="page-selected">%d</span>&nbsp;`, i)
		} else {
			fmt.Fprintf(b, `&nbsp;<a href="javascript:;" onclick="tblSetPage(%d)">%d</a>&nbsp;`, i, i)
		}
	}

	arrow("arrow_right", "&gt;", "Next Page", p.Page+1, p.HasNext)
	arrow("arrow_last", "&gt;&gt;", "Last Page", p.Pages, p.HasNext)
}
