package datagrid

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrFormat marks a cell value a column type could not transform
var ErrFormat = errors.New("value outside column type domain")

// ColumnType is the display binding of a column. The set of variants is
// closed: Date, Image, OnClick, ArrayMap, Dollar, Href, Check, Percent,
// Custom and Func.
type ColumnType interface {
	// format returns the cell markup. On error the returned markup is the
	// fallback to render.
	format(c *cell) (string, error)
	filterable() bool
}

type cell struct {
	grid   *Grid
	row    Row
	column string
	value  string
}

func (c *cell) substitute(tmpl string, escape func(string) string) string {
	return substitute(tmpl, c.row, c.grid.primary, escape)
}

// truthy follows the loose notion used for link columns: empty and "0" are false
func truthy(v string) bool {
	return v != "" && v != "0"
}

func parseNumber(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrFormat, v)
	}
	return f, nil
}

// OnClick wraps non-empty values in a link running Script
type OnClick struct {
	Script string
}

func (t OnClick) format(c *cell) (string, error) {
	v := html.EscapeString(c.value)
	if !truthy(c.value) {
		return v, nil
	}
	return `<a ` + linkAttrs(c.substitute(t.Script, nil), ActionOnClick) + `>` + v + `</a>`, nil
}

func (OnClick) filterable() bool { return true }

// Href wraps non-empty values in a link to URL
type Href struct {
	URL string
}

func (t Href) format(c *cell) (string, error) {
	v := html.EscapeString(c.value)
	if !truthy(c.value) {
		return v, nil
	}
	return `<a ` + linkAttrs(c.substitute(t.URL, nil), ActionHref) + `>` + v + `</a>`, nil
}

func (Href) filterable() bool { return true }

// Date reformats a date with a Go reference layout. With Parse set the
// value is a date/time string, otherwise a unix timestamp in seconds.
type Date struct {
	Layout   string
	Parse    bool
	Location *time.Location
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"02.01.2006 15:04:05",
	"02.01.2006",
	time.RFC1123Z,
	time.RFC1123,
}

func (t Date) format(c *cell) (string, error) {
	loc := t.Location
	if loc == nil {
		loc = time.UTC
	}
	v := strings.TrimSpace(c.value)

	var ts time.Time
	if t.Parse {
		parsed := false
		for _, layout := range dateLayouts {
			if p, err := time.ParseInLocation(layout, v, loc); err == nil {
				ts, parsed = p, true
				break
			}
		}
		if !parsed {
			return "", fmt.Errorf("%w: unparseable date %q", ErrFormat, v)
		}
	} else {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: invalid timestamp %q", ErrFormat, v)
		}
		ts = time.Unix(sec, 0)
	}
	return html.EscapeString(ts.In(loc).Format(t.Layout)), nil
}

func (Date) filterable() bool { return false }

// Image renders an image whose source is Src with row placeholders
type Image struct {
	Src string
}

func (t Image) format(c *cell) (string, error) {
	return fmt.Sprintf(`<img src="%s" id="%s-%d">`,
		html.EscapeString(c.substitute(t.Src, nil)), html.EscapeString(c.column), c.row.Index), nil
}

func (Image) filterable() bool { return false }

// ArrayMap replaces the value with Values[value]
type ArrayMap struct {
	Values map[string]string
}

func (t ArrayMap) format(c *cell) (string, error) {
	v, ok := t.Values[c.value]
	if !ok {
		return "", fmt.Errorf("%w: no mapping for %q", ErrFormat, c.value)
	}
	return v, nil
}

func (ArrayMap) filterable() bool { return false }

// Check renders a check glyph for 1, yes, true or Match
type Check struct {
	Match string
}

func (t Check) format(c *cell) (string, error) {
	switch {
	case c.value == "1", c.value == "yes", c.value == "true", t.Match != "" && c.value == t.Match:
		return `<img src="` + c.grid.image(imgCheck) + `" alt="&#10003;" class="tbl-check">`, nil
	}
	return "", nil
}

func (Check) filterable() bool { return false }

// Bar colors the proportional percent bar
type Bar struct {
	Back string `yaml:"back" json:"back"`
	Fore string `yaml:"fore" json:"fore"`
}

// Percent renders a rounded percentage. Fraction means 0.5 is 50%.
type Percent struct {
	Fraction bool
	Bar      *Bar
}

func (t Percent) format(c *cell) (string, error) {
	f, err := parseNumber(c.value)
	if err != nil {
		return html.EscapeString(c.value), err
	}
	if t.Fraction {
		f *= 100
	}
	p := strconv.FormatFloat(math.Round(f), 'f', 0, 64) + "%"
	if t.Bar != nil {
		return fmt.Sprintf(`<div style="background: %s; width: %s; color: %s;">%s</div>`,
			html.EscapeString(t.Bar.Back), p, html.EscapeString(t.Bar.Fore), p), nil
	}
	return p, nil
}

func (Percent) filterable() bool { return false }

// Dollar renders a currency amount with two decimals
type Dollar struct{}

var amountPrinter = message.NewPrinter(language.English)

func (Dollar) format(c *cell) (string, error) {
	f, err := parseNumber(c.value)
	if err != nil {
		return html.EscapeString(c.value), err
	}
	return "$" + amountPrinter.Sprintf("%.2f", f), nil
}

func (Dollar) filterable() bool { return true }

// Custom renders Template with row placeholders as raw markup
type Custom struct {
	Template string
}

func (t Custom) format(c *cell) (string, error) {
	return c.substitute(t.Template, html.EscapeString), nil
}

func (Custom) filterable() bool { return false }

// Func calls Fn with Args after placeholder substitution. The result is
// used as raw markup.
type Func struct {
	Fn   func(args ...string) string
	Args []string
}

func (t Func) format(c *cell) (string, error) {
	if t.Fn == nil {
		return html.EscapeString(c.value), fmt.Errorf("%w: no function bound to %s", ErrFormat, c.column)
	}
	return t.Fn(substituteAll(t.Args, c.row, c.grid.primary, nil)...), nil
}

func (Func) filterable() bool { return false }
