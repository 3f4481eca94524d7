package datagrid

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Direction of an ORDER BY clause
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Sort is the requested ordering column
type Sort struct {
	Column    string
	Direction Direction
}

// Filter is the requested LIKE filter
type Filter struct {
	Column string
	Value  string
}

// MaxPage bounds requested pages so row offsets and page windows cannot overflow
const MaxPage = 1 << 24

// State captures pagination, sort and filter from the request. It is built
// once per request and not modified afterwards.
type State struct {
	Page   int
	Fresh  bool // page was absent or invalid
	Sort   *Sort
	Filter *Filter
	Ajax   bool
}

// ParseRequest reads page, order, filter and useajax from the query string
func ParseRequest(r *http.Request) State {
	return ParseState(r.URL.Query())
}

// ParseState builds a State from raw parameters
func ParseState(q url.Values) State {
	s := State{Page: 1, Ajax: IsAjax(q)}

	if p, err := strconv.Atoi(strings.TrimSpace(q.Get("page"))); err == nil && p > 0 {
		s.Page = min(p, MaxPage)
	} else {
		s.Fresh = true
	}

	if o := q.Get("order"); o != "" {
		column, dir := parseCond(o)
		if column != "" {
			d := Desc
			if dir == string(Asc) {
				d = Asc
			}
			s.Sort = &Sort{Column: column, Direction: d}
		}
	}

	if f := q.Get("filter"); f != "" {
		column, value := parseCond(f)
		if column != "" {
			s.Filter = &Filter{Column: column, Value: value}
		}
	}

	return s
}

// IsAjax reports whether the request asks for a partial table refresh
func IsAjax(q url.Values) bool {
	return q.Get("useajax") == "true"
}

var condSanitizer = strings.NewReplacer(`'`, "", `"`, "", "<", "", ">", "", `\`, "")

// parseCond splits "column:value" after stripping quote and markup characters
func parseCond(in string) (string, string) {
	parts := strings.SplitN(condSanitizer.Replace(in), ":", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// Offset returns the first row index for the page
func (s State) Offset(perPage int) int {
	if s.Page <= 1 {
		return 0
	}
	return (min(s.Page, MaxPage) - 1) * perPage
}

// Values encodes the state back into request parameters
func (s State) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(s.Page))
	if s.Sort != nil {
		v.Set("order", s.Sort.Column+":"+string(s.Sort.Direction))
	}
	if s.Filter != nil {
		v.Set("filter", s.Filter.Column+":"+s.Filter.Value)
	}
	return v
}
