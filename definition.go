package datagrid

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema/definition.schema.json
var definitionSchema []byte

// ErrDefinition is returned for grid definitions that fail validation
var ErrDefinition = errors.New("invalid grid definition")

// FuncMap registers the functions available to "function" columns by name
type FuncMap map[string]func(args ...string) string

// Definition describes a grid in YAML or JSON
type Definition struct {
	Title string `yaml:"title" json:"title"`
	Query struct {
		Fields     string `yaml:"fields" json:"fields"`
		Table      string `yaml:"table" json:"table"`
		PrimaryKey string `yaml:"primary_key" json:"primary_key"`
		Where      string `yaml:"where" json:"where"`
	} `yaml:"query" json:"query"`
	ResultsPerPage int                  `yaml:"results_per_page" json:"results_per_page"`
	AllowFilters   bool                 `yaml:"allow_filters" json:"allow_filters"`
	HideOrder      bool                 `yaml:"hide_order" json:"hide_order"`
	ShowCheckboxes bool                 `yaml:"show_checkboxes" json:"show_checkboxes"`
	ShowRowNumber  bool                 `yaml:"show_row_number" json:"show_row_number"`
	HidePageList   bool                 `yaml:"hide_page_list" json:"hide_page_list"`
	HideHeader     bool                 `yaml:"hide_header" json:"hide_header"`
	HideFooter     bool                 `yaml:"hide_footer" json:"hide_footer"`
	RowSelect      string               `yaml:"row_select" json:"row_select"`
	Reset          string               `yaml:"reset" json:"reset"`
	Hidden         []string             `yaml:"hidden" json:"hidden"`
	Headers        map[string]string    `yaml:"headers" json:"headers"`
	Columns        map[string]ColumnDef `yaml:"columns" json:"columns"`
	Controls       []ControlDef         `yaml:"controls" json:"controls"`
	Create         *ButtonDef           `yaml:"create" json:"create"`

	types map[string]ColumnType
}

// ColumnDef is the serialized form of a ColumnType
type ColumnDef struct {
	Type     string            `yaml:"type" json:"type"`
	Layout   string            `yaml:"layout" json:"layout,omitempty"`
	Parse    bool              `yaml:"parse" json:"parse,omitempty"`
	Location string            `yaml:"location" json:"location,omitempty"`
	Src      string            `yaml:"src" json:"src,omitempty"`
	Script   string            `yaml:"script" json:"script,omitempty"`
	URL      string            `yaml:"url" json:"url,omitempty"`
	Values   map[string]string `yaml:"values" json:"values,omitempty"`
	Match    string            `yaml:"match" json:"match,omitempty"`
	Fraction bool              `yaml:"fraction" json:"fraction,omitempty"`
	Bar      *Bar              `yaml:"bar" json:"bar,omitempty"`
	Template string            `yaml:"template" json:"template,omitempty"`
	Function string            `yaml:"function" json:"function,omitempty"`
	Args     []string          `yaml:"args" json:"args,omitempty"`
}

type ControlDef struct {
	Kind       string `yaml:"kind" json:"kind"`
	Action     string `yaml:"action" json:"action"`
	ActionType string `yaml:"action_type" json:"action_type"`
	Text       string `yaml:"text" json:"text"`
	Image      string `yaml:"image" json:"image"`
}

type ButtonDef struct {
	Action     string `yaml:"action" json:"action"`
	ActionType string `yaml:"action_type" json:"action_type"`
	Text       string `yaml:"text" json:"text"`
}

// LoadDefinition reads and validates a definition file
func LoadDefinition(path string, funcs FuncMap) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := ParseDefinition(data, funcs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// LoadDefinitions loads every .yaml, .yml and .json file in dir, keyed by
// file name without extension
func LoadDefinitions(dir string, funcs FuncMap) (map[string]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	defs := make(map[string]*Definition)
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml" && ext != ".json") {
			continue
		}
		d, err := LoadDefinition(filepath.Join(dir, e.Name()), funcs)
		if err != nil {
			return nil, err
		}
		defs[strings.TrimSuffix(e.Name(), ext)] = d
	}
	return defs, nil
}

// ParseDefinition validates data against the definition schema and resolves
// column functions from funcs
func ParseDefinition(data []byte, funcs FuncMap) (*Definition, error) {
	if err := ValidateDefinition(data); err != nil {
		return nil, err
	}

	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDefinition, err)
	}

	d.types = make(map[string]ColumnType, len(d.Columns))
	for name, c := range d.Columns {
		t, err := c.columnType(funcs)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %w", ErrDefinition, name, err)
		}
		d.types[name] = t
	}
	return &d, nil
}

// ValidateDefinition checks a YAML or JSON definition against the schema
func ValidateDefinition(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrDefinition, err)
	}
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrDefinition)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(definitionSchema), gojsonschema.NewGoLoader(stringKeys(doc)))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDefinition, err)
	}
	if !result.Valid() {
		msgs := []string{}
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrDefinition, strings.Join(msgs, "; "))
	}
	return nil
}

// stringKeys converts YAML mappings with non-string keys, such as
// `values: {0: No, 1: Yes}`, into JSON objects
func stringKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = stringKeys(val)
		}
		return m
	case map[string]interface{}:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	}
	return v
}

func (c ColumnDef) columnType(funcs FuncMap) (ColumnType, error) {
	switch c.Type {
	case "date":
		t := Date{Layout: c.Layout, Parse: c.Parse}
		if c.Location != "" {
			loc, err := time.LoadLocation(c.Location)
			if err != nil {
				return nil, err
			}
			t.Location = loc
		}
		return t, nil
	case "image":
		return Image{Src: c.Src}, nil
	case "onclick":
		return OnClick{Script: c.Script}, nil
	case "array":
		return ArrayMap{Values: c.Values}, nil
	case "dollar":
		return Dollar{}, nil
	case "href":
		return Href{URL: c.URL}, nil
	case "check":
		return Check{Match: c.Match}, nil
	case "percent":
		return Percent{Fraction: c.Fraction, Bar: c.Bar}, nil
	case "custom":
		return Custom{Template: c.Template}, nil
	case "function":
		fn, ok := funcs[c.Function]
		if !ok {
			return nil, fmt.Errorf("unknown function %q", c.Function)
		}
		return Func{Fn: fn, Args: c.Args}, nil
	}
	return nil, fmt.Errorf("unknown column type %q", c.Type)
}

func actionType(s string) ActionType {
	if s == "href" {
		return ActionHref
	}
	return ActionOnClick
}

// Apply configures g from the definition
func (d *Definition) Apply(g *Grid) error {
	g.SetQuery(d.Query.Fields, d.Query.Table, d.Query.PrimaryKey, d.Query.Where)
	if d.ResultsPerPage > 0 {
		g.SetResultsPerPage(d.ResultsPerPage)
	}
	g.AllowFilters(d.AllowFilters)
	g.HideOrder(d.HideOrder)
	g.ShowCheckboxes(d.ShowCheckboxes)
	g.ShowRowNumber(d.ShowRowNumber)
	g.HidePageSelectList(d.HidePageList)
	g.HideHeader(d.HideHeader)
	g.HideFooter(d.HideFooter)
	g.SetRowSelect(d.RowSelect)
	if d.Reset != "" {
		g.ShowReset(d.Reset)
	}
	g.HideColumn(d.Hidden...)
	for col, h := range d.Headers {
		g.SetColumnHeader(col, h)
	}
	for col, t := range d.types {
		g.SetColumnType(col, t)
	}

	for _, c := range d.Controls {
		at := actionType(c.ActionType)
		switch c.Kind {
		case "edit":
			g.AddStandardControl(StandardEdit, c.Action, at)
		case "delete":
			g.AddStandardControl(StandardDelete, c.Action, at)
		case "image":
			g.AddCustomControl(CustomImage, c.Action, at, c.Text, c.Image)
		default:
			g.AddCustomControl(CustomText, c.Action, at, c.Text, "")
		}
	}

	if d.Create != nil {
		g.ShowCreateButton(d.Create.Action, actionType(d.Create.ActionType), d.Create.Text)
	}
	return g.checkTable()
}
