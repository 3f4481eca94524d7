package datagrid

import (
	"fmt"
	"html"
)

// ActionType selects how an action string is attached to a link
type ActionType int

const (
	// ActionOnClick runs the action as inline script
	ActionOnClick ActionType = iota
	// ActionHref navigates to the action as a URL
	ActionHref
)

// ControlKind identifies a row control
type ControlKind int

const (
	StandardEdit ControlKind = iota + 1
	StandardDelete
	CustomText
	CustomImage
)

// Control is a per-row action link rendered in the controls column
type Control struct {
	Kind       ControlKind
	Action     string
	ActionType ActionType
	Text       string
	Image      string // image source for CustomImage
}

// Button is the create button shown above the table
type Button struct {
	Action     string
	ActionType ActionType
	Text       string
}

// linkAttrs builds the href/onclick attributes of an anchor. action is
// escaped as a whole, so it may already contain substituted row values.
func linkAttrs(action string, t ActionType) string {
	if t == ActionHref {
		return `href="` + html.EscapeString(action) + `"`
	}
	return `href="javascript:;" onclick="` + html.EscapeString(action) + `"`
}

func (g *Grid) controlMarkup(c Control, row Row) string {
	attrs := linkAttrs(substitute(c.Action, row, g.primary, nil), c.ActionType)
	switch c.Kind {
	case StandardEdit:
		return fmt.Sprintf(`<a %s><img src="%s" alt="Edit" title="Edit" class="tbl-control-image"></a>`, attrs, g.image(imgEdit))
	case StandardDelete:
		return fmt.Sprintf(`<a %s><img src="%s" alt="Delete" title="Delete" class="tbl-control-image"></a>`, attrs, g.image(imgDelete))
	case CustomImage:
		text := html.EscapeString(c.Text)
		return fmt.Sprintf(`<a %s><img src="%s" alt="%s" title="%s" class="tbl-control-image"></a>`, attrs, html.EscapeString(c.Image), text, text)
	default:
		return `<a ` + attrs + `>` + html.EscapeString(c.Text) + `</a>`
	}
}
