package datagrid

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	columns  []string
	rows     [][]string
	total    int
	queryErr error
	countErr error
	queries  []string
	args     [][]any

	// open counts cursors not yet closed; busy is set when a statement
	// ran while another cursor was still open
	open int
	busy bool
}

func (f *fakeSource) Query(_ context.Context, query string, args ...any) (Rows, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.busy = f.busy || f.open > 0
	f.open++
	if strings.Contains(query, "WHERE 1=0") {
		return &fakeRows{src: f, columns: f.columns}, nil
	}
	return &fakeRows{src: f, columns: f.columns, rows: f.rows}, nil
}

func (f *fakeSource) Count(_ context.Context, query string, args ...any) (int, error) {
	f.queries = append(f.queries, query)
	f.busy = f.busy || f.open > 0
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.total, nil
}

func (f *fakeSource) Dialect() Dialect { return DialectANSI }

type fakeRows struct {
	src     *fakeSource
	columns []string
	rows    [][]string
	pos     int
	closed  bool
}

func (r *fakeRows) Columns() []string { return r.columns }
func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}
func (r *fakeRows) Values() []string { return r.rows[r.pos-1] }
func (r *fakeRows) Err() error       { return nil }
func (r *fakeRows) Close() error {
	if !r.closed && r.src != nil {
		r.src.open--
	}
	r.closed = true
	return nil
}

func people() *fakeSource {
	return &fakeSource{
		columns: []string{"Id", "FirstName", "LastName", "Gender"},
		rows: [][]string{
			{"1", "Ada", "Lovelace", "f"},
			{"2", "Alan", "Turing", "m"},
			{"3", "Grace", "Hopper", "f"},
		},
		total: 3,
	}
}

func TestRenderBasic(t *testing.T) {
	src := people()
	g := New(src)
	g.SetQuery("*", "people", "Id", "")

	res, err := g.Render(context.Background(), State{Page: 1})
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.First)
	assert.Equal(t, 3, res.Last)
	assert.Equal(t, 1, res.Pages)

	assert.Contains(t, res.HTML, "function tblSetPage(page)")
	assert.Contains(t, res.HTML, "function updateTable() { window.location")
	assert.Contains(t, res.HTML, `<form action="#" name="dg" id="dg"><table class="tbl">`)
	assert.Contains(t, res.HTML, `<td class="tbl-cell">Lovelace</td>`)
	assert.Contains(t, res.HTML, `<tr class="tbl-row tbl-row-even">`)
	assert.Contains(t, res.HTML, `<tr class="tbl-row tbl-row-odd">`)
	assert.Contains(t, res.HTML, `onclick="tblSetOrder('LastName', 'ASC')"`)
	assert.Contains(t, res.HTML, "Found <em>3</em> results, showing <em>1</em> to <em>3</em>")
	assert.Contains(t, res.HTML, "Page 1 of 1")
	assert.NotContains(t, res.HTML, "tbl-arrows")
	assert.True(t, strings.HasSuffix(res.HTML, "</table></form>"))

	// no sort or filter requested, so no probe query
	require.Len(t, src.queries, 2)
	assert.Equal(t, "SELECT COUNT(*) FROM people", src.queries[0])
	assert.Equal(t, "SELECT * FROM people LIMIT 10 OFFSET 0", src.queries[1])
}

func TestRenderOneCursorAtATime(t *testing.T) {
	src := people()
	g := New(src)
	g.SetQuery("*", "people", "Id", "")
	g.AllowFilters(true)

	st := State{
		Page:   1,
		Sort:   &Sort{Column: "LastName", Direction: Asc},
		Filter: &Filter{Column: "Gender", Value: "f"},
	}
	res, err := g.Render(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	require.Len(t, src.queries, 3)
	if src.busy {
		t.Errorf("Expected every cursor closed before the next statement, queries: %v", src.queries)
	}
	if src.open != 0 {
		t.Errorf("Expected no open cursors after render, got %d", src.open)
	}
}

func TestRenderHiddenColumns(t *testing.T) {
	g := New(people())
	g.SetQuery("*", "people", "Id", "")
	g.HideColumn("Id", "Gender")
	g.SetColumnHeader("FirstName", "First Name")
	g.ShowRowNumber(true)
	g.ShowCheckboxes(true)
	g.AddStandardControl(StandardDelete, "alert('Deleting %_P%')", ActionOnClick)

	res, err := g.Render(context.Background(), State{Page: 1})
	require.NoError(t, err)

	assert.NotContains(t, res.HTML, "tblSetOrder('Id'")
	assert.NotContains(t, res.HTML, "tblSetOrder('Gender'")
	assert.NotContains(t, res.HTML, `<td class="tbl-cell">f</td>`)
	assert.Contains(t, res.HTML, ">First Name</a>")
	assert.Equal(t, 6, strings.Count(res.HTML, `<td class="tbl-cell">`))

	// row number + checkbox + 2 visible + controls
	assert.Equal(t, 5, g.columnCount(people().columns))
	assert.Contains(t, res.HTML, `colspan="5"`)

	assert.Contains(t, res.HTML, `<td class="tbl-row-num">2</td>`)
	assert.Contains(t, res.HTML, `class="tbl-checkbox" name="tbl-checkbox" value="3"`)
	assert.Contains(t, res.HTML, `onclick="alert(&#39;Deleting 2&#39;)"`)
	assert.Contains(t, res.HTML, `alt="Delete"`)
}

func TestRenderNoResults(t *testing.T) {
	src := &fakeSource{columns: []string{"Id", "Name"}}
	g := New(src)
	g.SetQuery("*", "people", "", "")
	g.ShowRowNumber(true)

	res, err := g.Render(context.Background(), State{Page: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(res.HTML, "tbl-noresults"))
	assert.Contains(t, res.HTML, `<tr><td colspan="3" class="tbl-noresults">No results found!</td></tr>`)
	assert.Contains(t, res.HTML, "Found <em>0</em> results</td>")
	assert.NotContains(t, res.HTML, "tbl-arrows")
	assert.NotContains(t, res.HTML, `onclick="tblSetPage(`)
	assert.NotContains(t, res.HTML, "Page 1 of")
	assert.Equal(t, 0, res.First)
	assert.Equal(t, 0, res.Pages)
}

func TestRenderRejectsUnknownSort(t *testing.T) {
	src := people()
	g := New(src)
	g.SetQuery("*", "people", "Id", "")
	g.AllowFilters(true)

	st := State{
		Page:   1,
		Sort:   &Sort{Column: "Password", Direction: Asc},
		Filter: &Filter{Column: "LastName", Value: "o"},
	}
	res, err := g.Render(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	require.Len(t, src.queries, 3)
	assert.Equal(t, "SELECT * FROM people WHERE 1=0", src.queries[0])
	assert.Equal(t, "SELECT COUNT(*) FROM people WHERE (LastName LIKE ?)", src.queries[1])
	assert.Equal(t, "SELECT * FROM people WHERE (LastName LIKE ?) LIMIT 10 OFFSET 0", src.queries[2])
	assert.Equal(t, []any{"%o%"}, src.args[1])
	for _, q := range src.queries {
		assert.NotContains(t, q, "Password")
	}

	// filter box of the active filter is open
	assert.Contains(t, res.HTML, `id="filter-LastName" style="display:block"`)
	assert.Contains(t, res.HTML, `id="filter-value-LastName" value="o"`)
	assert.Contains(t, res.HTML, `id="filter-FirstName" style="display:none"`)
}

func TestRenderSortIndicator(t *testing.T) {
	g := New(people())
	g.SetQuery("*", "people", "Id", "")

	res, err := g.Render(context.Background(), State{Page: 1, Sort: &Sort{Column: "LastName", Direction: Asc}})
	require.NoError(t, err)
	assert.Contains(t, res.HTML, `tblSetOrder('LastName', 'DESC')`)
	assert.Contains(t, res.HTML, `class="tbl-order"`)
	assert.Contains(t, res.HTML, `var tblorder = 'LastName:ASC'`)
}

func TestRenderQueryFailure(t *testing.T) {
	src := people()
	src.queryErr = errors.New(`Unknown column 'x' in "order clause"`)
	g := New(src)
	g.SetQuery("*", "people", "", "")

	res, err := g.Render(context.Background(), State{Page: 1})
	require.NoError(t, err)
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, ErrQuery))

	assert.Contains(t, res.HTML, "Oops! We ran into a problem")
	assert.Contains(t, res.HTML, `onclick="tblReset()"`)
	assert.Contains(t, res.HTML, "alert('Unknown column x in order clause')")
	assert.NotContains(t, res.HTML, "<table")
	assert.Contains(t, res.HTML, "function tblReset()")
}

func TestRenderCountFailure(t *testing.T) {
	src := people()
	src.countErr = errors.New("count broke")
	g := New(src)
	g.SetQuery("*", "people", "", "")

	res, err := g.Render(context.Background(), State{Page: 1, Ajax: true})
	require.NoError(t, err)
	assert.Error(t, res.Err)
	assert.Contains(t, res.HTML, "count broke")
	assert.NotContains(t, res.HTML, "<script")
}

func TestRenderInvalidTable(t *testing.T) {
	g := New(people())
	g.SetQuery("*", "people; DROP TABLE people", "", "")

	_, err := g.Render(context.Background(), State{Page: 1})
	assert.True(t, errors.Is(err, ErrInvalidTable))
}

func TestRenderAjaxFragment(t *testing.T) {
	g := New(people())
	g.SetQuery("*", "people", "Id", "")

	res, err := g.Render(context.Background(), State{Page: 1, Ajax: true})
	require.NoError(t, err)
	assert.NotContains(t, res.HTML, "<script")
	assert.True(t, strings.HasPrefix(res.HTML, `<form action="#" name="dg" id="dg">`))
}

func TestRenderPagination(t *testing.T) {
	src := people()
	src.total = 100
	g := New(src)
	g.SetQuery("*", "people", "", "")
	g.SetResultsPerPage(4)

	res, err := g.Render(context.Background(), State{Page: 15})
	require.NoError(t, err)

	assert.Equal(t, 25, res.Pages)
	assert.Equal(t, 57, res.First)
	assert.Equal(t, 59, res.Last)
	assert.Equal(t, "SELECT * FROM people LIMIT 4 OFFSET 56", src.queries[1])

	assert.Contains(t, res.HTML, `onclick="tblSetPage(1)"`)
	assert.Contains(t, res.HTML, `onclick="tblSetPage(14)"`)
	assert.Contains(t, res.HTML, `onclick="tblSetPage(5)">5</a>`)
	assert.NotContains(t, res.HTML, `onclick="tblSetPage(4)">4</a>`)
	assert.Contains(t, res.HTML, `<span class="page-selected">15</span>`)
	assert.Contains(t, res.HTML, `onclick="tblSetPage(25)">25</a>`)
	assert.Contains(t, res.HTML, `<option value="15" selected="selected">15</option>`)
	assert.Contains(t, res.HTML, " of 25")

	g.HidePageSelectList(true)
	res, err = g.Render(context.Background(), State{Page: 25})
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Page 25 of 25")
	assert.Contains(t, res.HTML, `title="Next Page"`)
	assert.Contains(t, res.HTML, `alt="&gt;" title="Next Page">`)
	assert.NotContains(t, res.HTML, `tblSetPage(26)`)
}

func TestRenderButtonsAndRowSelect(t *testing.T) {
	g := New(people())
	g.SetQuery("*", "people", "Id", "")
	g.ShowCreateButton("/people/new", ActionHref, "")
	g.ShowReset("")
	g.SetRowSelect("alert('You have selected id # %Id%')")
	g.AddCustomControl(CustomText, "promote(%_P%)", ActionOnClick, "Promote Me", "")
	g.HideHeader(true)
	g.HideFooter(true)

	res, err := g.Render(context.Background(), State{Page: 1, Ajax: true})
	require.NoError(t, err)

	assert.Contains(t, res.HTML, `<span class="tbl-create"><a href="/people/new" title="New Record">`)
	assert.Contains(t, res.HTML, `<span class="tbl-reset"><a href="javascript:;" onclick="tblReset()" title="Reset Table">`)
	assert.Contains(t, res.HTML, `tbl-row-highlight" onclick="alert(&#39;You have selected id # 2&#39;)">`)
	assert.Contains(t, res.HTML, `<a href="javascript:;" onclick="promote(3)">Promote Me</a>`)
	assert.NotContains(t, res.HTML, "<thead>")
	assert.NotContains(t, res.HTML, "<tfoot>")
}

func TestRenderColumnTypes(t *testing.T) {
	g := New(people())
	g.SetQuery("*", "people", "Id", "")
	g.AllowFilters(true)
	g.SetColumnType("Gender", ArrayMap{Values: map[string]string{"m": "Male"}})
	g.SetColumnType("FirstName", Href{URL: "/people/%_P%"})

	res, err := g.Render(context.Background(), State{Page: 1})
	require.NoError(t, err)

	assert.Contains(t, res.HTML, `<td class="tbl-cell">Male</td>`)
	// unmapped value renders empty instead of aborting the row
	assert.Contains(t, res.HTML, `<td class="tbl-cell"></td>`)
	assert.Contains(t, res.HTML, `<td class="tbl-cell"><a href="/people/3">Grace</a></td>`)

	// mapped columns get no filter box, links do
	assert.NotContains(t, res.HTML, `id="filter-Gender"`)
	assert.Contains(t, res.HTML, `id="filter-FirstName"`)
}
