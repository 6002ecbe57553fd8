package css

import (
	"fmt"
	"io"
	"strings"
)

// Declaration is a single property declaration. Property names are lower
// case, custom properties keep their "--" prefix. Value is normalized raw
// text with "!important" removed.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// IsCustom returns true for custom property (--name) declarations.
func (d Declaration) IsCustom() bool {
	return strings.HasPrefix(d.Property, "--")
}

func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important"
	}
	return d.Property + ": " + d.Value
}

// Rule represents a qualified rule. Selectors are kept as written, grouped
// selector list is split on top level commas.
type Rule struct {
	Selectors    []string
	Declarations []Declaration
}

// SelectorText returns selector list as it would be written in a stylesheet.
func (r Rule) SelectorText() string {
	return strings.Join(r.Selectors, ", ")
}

// Get returns last declaration of the property, important declarations win.
func (r Rule) Get(property string) (Declaration, bool) {
	var (
		found Declaration
		ok    bool
	)
	for _, d := range r.Declarations {
		if d.Property != property {
			continue
		}
		if ok && found.Important && !d.Important {
			continue
		}
		found, ok = d, true
	}
	return found, ok
}

// String returns rule text in a single line, similar to cssText of a
// browser rule object.
func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteString(r.SelectorText())
	sb.WriteString(" {")
	for _, d := range r.Declarations {
		sb.WriteString(" ")
		sb.WriteString(d.String())
		sb.WriteString(";")
	}
	sb.WriteString(" }")
	return sb.String()
}

// MediaQuery is a single query of a media query list.
type MediaQuery struct {
	Raw      string   // query text as written
	Type     string   // media type, empty when query has features only
	Negated  bool     // "not" modifier
	Features []string // parenthesized conditions without parentheses, lower case
}

// Matches reports whether query applies to an on screen rendering of a
// document. Only "all" and "screen" media types match. Feature conditions
// are assumed to hold with the exception of prefers-color-scheme which
// matches light scheme only.
func (mq MediaQuery) Matches() bool {
	typeMatches := true
	switch mq.Type {
	case "", "all", "screen":
	default:
		typeMatches = false
	}

	featuresMatch := true
	for _, f := range mq.Features {
		name, value, _ := strings.Cut(f, ":")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name == "prefers-color-scheme" && value != "light" {
			featuresMatch = false
			break
		}
	}

	result := typeMatches && featuresMatch
	if mq.Negated {
		return !result
	}
	return result
}

// MediaQueryList is comma separated list of queries, empty list matches.
type MediaQueryList []MediaQuery

func (l MediaQueryList) Matches() bool {
	if len(l) == 0 {
		return true
	}
	for _, q := range l {
		if q.Matches() {
			return true
		}
	}
	return false
}

func (l MediaQueryList) String() string {
	parts := make([]string, 0, len(l))
	for _, q := range l {
		parts = append(parts, q.Raw)
	}
	return strings.Join(parts, ", ")
}

// MediaBlock represents a @media block with nested items.
type MediaBlock struct {
	Queries MediaQueryList
	Items   []StylesheetItem
}

// StylesheetItem is a single item in a stylesheet.
// Exactly one of Rule, MediaBlock, or Import is non-nil.
type StylesheetItem struct {
	Rule       *Rule
	MediaBlock *MediaBlock
	Import     *string
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Items    []StylesheetItem // All top-level items in source order
	Warnings []string         // Warnings for unsupported features
}

// Imports returns all @import URLs from the stylesheet in source order.
func (s *Stylesheet) Imports() []string {
	var urls []string
	for _, item := range s.Items {
		if item.Import != nil {
			urls = append(urls, *item.Import)
		}
	}
	return urls
}

// EffectiveRules returns rules applicable to screen rendering in source
// order: top level rules and rules of matching @media blocks.
func (s *Stylesheet) EffectiveRules() []Rule {
	return effectiveRules(s.Items, nil)
}

func effectiveRules(items []StylesheetItem, acc []Rule) []Rule {
	for _, item := range items {
		switch {
		case item.Rule != nil:
			acc = append(acc, *item.Rule)
		case item.MediaBlock != nil && item.MediaBlock.Queries.Matches():
			acc = effectiveRules(item.MediaBlock.Items, acc)
		}
	}
	return acc
}

// RulesBySelector returns all top-level rules having the given selector in
// the selector list.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	for _, item := range s.Items {
		if item.Rule == nil {
			continue
		}
		for _, sel := range item.Rule.Selectors {
			if sel == selector {
				matches = append(matches, *item.Rule)
				break
			}
		}
	}
	return matches
}

// RuleTexts returns text of every top level item, one entry per item.
func (s *Stylesheet) RuleTexts() []string {
	texts := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		texts = append(texts, itemText(item))
	}
	return texts
}

func itemText(item StylesheetItem) string {
	switch {
	case item.Import != nil:
		return fmt.Sprintf("@import url(\"%s\");", cssEscapeDoubleQuoted(*item.Import))
	case item.MediaBlock != nil:
		var sb strings.Builder
		sb.WriteString("@media ")
		sb.WriteString(item.MediaBlock.Queries.String())
		sb.WriteString(" {")
		for _, nested := range item.MediaBlock.Items {
			sb.WriteString(" ")
			sb.WriteString(itemText(nested))
		}
		sb.WriteString(" }")
		return sb.String()
	case item.Rule != nil:
		return item.Rule.String()
	}
	return ""
}

// WriteTo writes the stylesheet to w in source order, one item per line,
// implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, text := range s.RuleTexts() {
		n, err := fmt.Fprintln(w, text)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
func cssEscapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
