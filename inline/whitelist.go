package inline

import (
	"slices"
	"strings"
)

// PropertyWhitelist is fixed ordered set of presentation properties captured
// into exported artifact. Nothing outside of it is ever written.
type PropertyWhitelist struct {
	names []string
}

// Whitelist lists captured properties in the order they are written.
var Whitelist = PropertyWhitelist{names: []string{
	"display",
	"color",
	"background-color",
	"font-family",
	"font-size",
	"font-weight",
	"font-style",
	"line-height",
	"text-align",
	"text-decoration-line",
	"text-transform",
	"letter-spacing",
	"white-space",
	"vertical-align",
	"list-style-type",
	"margin-top",
	"margin-right",
	"margin-bottom",
	"margin-left",
	"padding-top",
	"padding-right",
	"padding-bottom",
	"padding-left",
	"border-style",
	"border-width",
	"border-color",
	"border-radius",
	"border-collapse",
}}

// Properties returns copy of the list.
func (w PropertyWhitelist) Properties() []string {
	return slices.Clone(w.names)
}

func (w PropertyWhitelist) Contains(name string) bool {
	return slices.Contains(w.names, name)
}

func (w PropertyWhitelist) Len() int {
	return len(w.names)
}

// IsAbsent reports values which mean property is not meaningfully set.
func IsAbsent(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none", "normal", "auto":
		return true
	}
	return false
}
