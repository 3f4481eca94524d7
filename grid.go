package datagrid

import (
	"log/slog"
)

const (
	DefaultResultsPerPage = 10

	TextReset     = "Reset Table"
	TextNoResults = "No results found!"
	TextCreate    = "New Record"
)

// Grid holds the display and query configuration of one data grid. It is
// configured through its setters and rendered once; it must not be shared
// between requests.
type Grid struct {
	src    DataSource
	assets AssetProvider
	logger *slog.Logger

	fields    string
	table     string
	primary   string
	where     string
	whereArgs []any

	perPage   int
	hidden    map[string]bool
	headers   map[string]string
	types     map[string]ColumnType
	controls  []Control
	create    *Button
	reset     string
	rowSelect string

	allowFilters   bool
	hideOrder      bool
	showCheckboxes bool
	showRowNumber  bool
	hidePageList   bool
	hideHeader     bool
	hideFooter     bool

	images map[string]string
}

// New creates a grid reading from src
func New(src DataSource) *Grid {
	return &Grid{
		src:     src,
		assets:  DefaultAssets(),
		logger:  slog.Default(),
		fields:  "*",
		perPage: DefaultResultsPerPage,
		hidden:  make(map[string]bool),
		headers: make(map[string]string),
		types:   make(map[string]ColumnType),
		images:  make(map[string]string),
	}
}

// SetQuery sets the selected fields ("*" for all), the table, an optional
// primary key column and an optional raw WHERE condition with its bound args.
func (g *Grid) SetQuery(fields, table, primary, where string, args ...any) {
	if fields == "" {
		fields = "*"
	}
	g.fields = fields
	g.table = table
	g.primary = primary
	g.where = where
	g.whereArgs = args
}

// SetResultsPerPage sets the page size; values below 1 are ignored
func (g *Grid) SetResultsPerPage(n int) {
	if n > 0 {
		g.perPage = n
	}
}

// HideColumn hides columns from the header and the body
func (g *Grid) HideColumn(columns ...string) {
	for _, c := range columns {
		g.hidden[c] = true
	}
}

// SetColumnHeader overrides the header caption of a column
func (g *Grid) SetColumnHeader(column, header string) {
	g.headers[column] = header
}

// SetColumnType binds a display type to a column, replacing any previous one
func (g *Grid) SetColumnType(column string, t ColumnType) {
	if t == nil {
		delete(g.types, column)
		return
	}
	g.types[column] = t
}

// AddStandardControl adds an edit or delete control to every row
func (g *Grid) AddStandardControl(kind ControlKind, action string, at ActionType) {
	if kind != StandardEdit && kind != StandardDelete {
		g.logger.Warn("Ignoring invalid standard control", "kind", kind)
		return
	}
	g.controls = append(g.controls, Control{Kind: kind, Action: action, ActionType: at})
}

// AddCustomControl adds a text or image control to every row. Controls are
// rendered in the order they were added.
func (g *Grid) AddCustomControl(kind ControlKind, action string, at ActionType, text, imageSrc string) {
	if kind != CustomImage {
		kind = CustomText
	}
	g.controls = append(g.controls, Control{Kind: kind, Action: action, ActionType: at, Text: text, Image: imageSrc})
}

// ShowCreateButton adds a create control above the table
func (g *Grid) ShowCreateButton(action string, at ActionType, text string) {
	if text == "" {
		text = TextCreate
	}
	g.create = &Button{Action: action, ActionType: at, Text: text}
}

// ShowReset adds a reset control above the table
func (g *Grid) ShowReset(text string) {
	if text == "" {
		text = TextReset
	}
	g.reset = text
}

// SetRowSelect makes whole rows clickable, running onclick with row placeholders
func (g *Grid) SetRowSelect(onclick string) { g.rowSelect = onclick }

func (g *Grid) AllowFilters(allow bool)        { g.allowFilters = allow }
func (g *Grid) HideOrder(hide bool)            { g.hideOrder = hide }
func (g *Grid) ShowCheckboxes(show bool)       { g.showCheckboxes = show }
func (g *Grid) ShowRowNumber(show bool)        { g.showRowNumber = show }
func (g *Grid) HidePageSelectList(hide bool)   { g.hidePageList = hide }
func (g *Grid) HideHeader(hide bool)           { g.hideHeader = hide }
func (g *Grid) HideFooter(hide bool)           { g.hideFooter = hide }
func (g *Grid) SetAssets(assets AssetProvider) { g.assets = assets }

// SetLogger replaces the default slog logger
func (g *Grid) SetLogger(l *slog.Logger) {
	if l != nil {
		g.logger = l
	}
}

func (g *Grid) visibleColumns(columns []string) []string {
	visible := make([]string, 0, len(columns))
	for _, c := range columns {
		if !g.hidden[c] {
			visible = append(visible, c)
		}
	}
	return visible
}

// columnCount is the number of table cells per row
func (g *Grid) columnCount(columns []string) int {
	n := len(g.visibleColumns(columns))
	if g.showRowNumber {
		n++
	}
	if g.showCheckboxes {
		n++
	}
	if len(g.controls) > 0 {
		n++
	}
	return n
}

func (g *Grid) headerText(column string) string {
	if h, ok := g.headers[column]; ok {
		return h
	}
	return column
}
