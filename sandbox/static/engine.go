// Package static implements rendering engine computing presentation values
// without a browser: built-in user agent sheet, selector matching, cascade,
// inheritance and value resolution for the properties of interest.
package static

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"richcopy/css"
	"richcopy/sandbox"
)

//go:embed ua.css
var userAgentCSS []byte

type Engine struct {
	ua     *css.Stylesheet
	parser *css.Parser
	log    *zap.Logger
}

func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	parser := css.NewParser(log)
	return &Engine{
		ua:     parser.Parse(userAgentCSS, "ua.css"),
		parser: parser,
		log:    log.Named("static-engine"),
	}
}

type value struct {
	v string
	// explicit is set when value was declared for the element or inherited
	// from declared one
	explicit bool
}

type computed struct {
	values   map[string]value
	custom   map[string]string
	fontSize float64
}

type surface struct {
	root     *html.Node
	computed map[*html.Node]*computed
}

// Load parses the document, collects its style elements and computes values
// for every element.
func (e *Engine) Load(ctx context.Context, document []byte, props []string) (sandbox.Surface, error) {
	doc, err := html.Parse(bytes.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("unable to parse document: %w", err)
	}

	c := &cascade{log: e.log}
	c.compile(e.ua, originUserAgent)
	var styles []*html.Node
	collectStyles(doc, &styles)
	for i, n := range styles {
		var text strings.Builder
		for t := n.FirstChild; t != nil; t = t.NextSibling {
			if t.Type == html.TextNode {
				text.WriteString(t.Data)
			}
		}
		sheet := e.parser.Parse([]byte(text.String()), "style#"+strconv.Itoa(i))
		for _, w := range sheet.Warnings {
			e.log.Debug("Stylesheet warning", zap.String("warning", w))
		}
		c.compile(sheet, originAuthor)
	}

	for _, p := range props {
		if _, ok := properties[p]; !ok {
			if _, ok := composites[p]; !ok {
				e.log.Debug("Property is not computed by static engine", zap.String("property", p))
			}
		}
	}

	s := &surface{computed: make(map[*html.Node]*computed)}
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			s.root = n
			break
		}
	}
	if s.root == nil {
		return nil, fmt.Errorf("document has no root element")
	}

	rootComputed := s.compute(c, s.root, nil, nil)
	if err := s.walk(ctx, c, s.root, rootComputed, rootComputed); err != nil {
		return nil, err
	}
	e.log.Debug("Computed styles", zap.Int("rules", len(c.rules)), zap.Int("elements", len(s.computed)))
	return s, nil
}

func (s *surface) walk(ctx context.Context, c *cascade, n *html.Node, parent, root *computed) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type != html.ElementNode {
			continue
		}
		cc := s.compute(c, ch, parent, root)
		if err := s.walk(ctx, c, ch, cc, root); err != nil {
			return err
		}
	}
	return nil
}

func collectStyles(n *html.Node, acc *[]*html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Style {
		*acc = append(*acc, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectStyles(c, acc)
	}
}

func (s *surface) Root() *html.Node { return s.root }

func (s *surface) Close() error {
	s.computed = nil
	return nil
}

func (s *surface) ComputedValue(n *html.Node, property string) (string, bool) {
	cv, ok := s.computed[n]
	if !ok {
		return "", false
	}

	if pattern, ok := composites[property]; ok {
		return cv.composite(pattern)
	}

	if strings.HasPrefix(property, "--") {
		v, ok := cv.custom[property]
		return v, ok
	}

	val, ok := cv.values[property]
	if !ok {
		return "", false
	}
	if properties[property].declared && !val.explicit {
		return "", false
	}
	if property == "line-height" {
		if f, err := strconv.ParseFloat(val.v, 64); err == nil {
			return formatPx(f * cv.fontSize), true
		}
	}
	if strings.HasSuffix(property, "-width") && strings.HasPrefix(property, "border-") {
		if cv.noBorder() {
			return "", false
		}
		if cv.sideNone(strings.TrimSuffix(strings.TrimPrefix(property, "border-"), "-width")) {
			return "0px", true
		}
	}
	return val.v, true
}

func (cv *computed) composite(pattern string) (string, bool) {
	var (
		vals     [4]string
		explicit bool
	)
	for i, side := range sides {
		val := cv.values[strings.Replace(pattern, "%s", side, 1)]
		vals[i] = val.v
		explicit = explicit || val.explicit
	}
	if !explicit {
		return "", false
	}
	if strings.HasPrefix(pattern, "border-") && pattern != "border-%s-style" && cv.noBorder() {
		return "", false
	}
	if pattern == "border-%s-width" {
		for i, side := range sides {
			if cv.sideNone(side) {
				vals[i] = "0px"
			}
		}
	}
	return collapse(vals[0], vals[1], vals[2], vals[3]), true
}

// sideNone reports that border of the side is not drawn, its width
// computes to zero then.
func (cv *computed) sideNone(side string) bool {
	switch cv.values["border-"+side+"-style"].v {
	case "none", "hidden", "":
		return true
	}
	return false
}

// noBorder reports that no side has visible border style.
func (cv *computed) noBorder() bool {
	for _, side := range sides {
		if !cv.sideNone(side) {
			return false
		}
	}
	return true
}

// compute resolves every known property for the element given computed
// values of its parent.
func (s *surface) compute(c *cascade, n *html.Node, parent, root *computed) *computed {
	spec := c.match(n)

	cv := &computed{
		values: make(map[string]value, len(properties)),
		custom: make(map[string]string),
	}
	if parent != nil {
		for k, v := range parent.custom {
			cv.custom[k] = v
		}
	}
	// custom properties first, they may refer to inherited ones and to each
	// other
	declared := make(map[string]string)
	for name, sp := range spec {
		if strings.HasPrefix(name, "--") {
			declared[name] = sp.raw
		}
	}
	if len(declared) > 0 {
		merged := make(map[string]string, len(cv.custom)+len(declared))
		for k, v := range cv.custom {
			merged[k] = v
		}
		for k, v := range declared {
			merged[k] = v
		}
		for name, raw := range declared {
			if v, ok := substitute(raw, merged); ok {
				cv.custom[name] = v
			} else {
				delete(cv.custom, name)
			}
		}
	}

	parentSize, rootSize := 16.0, 16.0
	if parent != nil {
		parentSize = parent.fontSize
	}
	if root != nil {
		rootSize = root.fontSize
	}

	// font-size and color go first, other values depend on them
	order := make([]string, 0, len(properties))
	order = append(order, "font-size", "color")
	for name := range properties {
		if name != "font-size" && name != "color" {
			order = append(order, name)
		}
	}

	expanded := make(map[string]map[string]string)
	for _, name := range order {
		prop := properties[name]
		raw, explicit, found := cv.specifiedValue(name, spec, expanded)

		var parentVal value
		if parent != nil {
			parentVal = parent.values[name]
		}

		switch {
		case !found || strings.EqualFold(raw, "unset") || strings.EqualFold(raw, "revert"):
			if prop.inherited && parent != nil {
				cv.values[name] = value{v: parentVal.v, explicit: parentVal.explicit}
				if name == "font-size" {
					cv.fontSize = parentSize
				}
				continue
			}
			raw, explicit = prop.initial, found
		case strings.EqualFold(raw, "inherit"):
			if parent != nil {
				cv.values[name] = parentVal
				if name == "font-size" {
					cv.fontSize = parentSize
				}
				continue
			}
			raw = prop.initial
		case strings.EqualFold(raw, "initial"):
			raw = prop.initial
		}

		cv.values[name] = value{v: cv.resolve(name, raw, parent, parentSize, rootSize), explicit: explicit}
	}
	s.computed[n] = cv
	return cv
}

// specifiedValue returns cascaded value of the longhand with custom
// properties substituted. Value invalid after substitution is treated as not
// specified.
func (cv *computed) specifiedValue(name string, spec map[string]specified, expanded map[string]map[string]string) (string, bool, bool) {
	sp, ok := spec[name]
	if !ok {
		return "", false, false
	}
	if sp.shorthand == "" {
		v, ok := substitute(sp.raw, cv.custom)
		return strings.TrimSpace(v), ok, ok
	}

	key := sp.shorthand + "\x00" + sp.raw
	values, ok := expanded[key]
	if !ok {
		if v, valid := substitute(sp.raw, cv.custom); valid {
			values = expand(sp.shorthand, strings.TrimSpace(v))
		}
		expanded[key] = values
	}
	v, ok := values[name]
	return v, ok, ok
}

func (cv *computed) resolve(name, raw string, parent *computed, parentSize, rootSize float64) string {
	switch name {
	case "font-size":
		px, ok := resolveFontSize(raw, parentSize, rootSize)
		if !ok {
			px = parentSize
		}
		cv.fontSize = px
		return formatPx(px)
	case "font-weight":
		parentWeight := "400"
		if parent != nil {
			parentWeight = parent.values["font-weight"].v
		}
		return resolveFontWeight(raw, parentWeight)
	case "line-height":
		if strings.HasSuffix(raw, "%") {
			return resolveLengths(raw, cv.fontSize, rootSize, cv.fontSize)
		}
	case "text-align":
		if strings.EqualFold(raw, "-webkit-center") {
			return "center"
		}
	}

	switch properties[name].kind {
	case kindColor:
		current := "rgb(0, 0, 0)"
		if name == "color" {
			if parent != nil {
				current = parent.values["color"].v
			}
		} else {
			current = cv.values["color"].v
		}
		return normalizeColor(raw, current)
	case kindLength:
		switch strings.ToLower(raw) {
		case "thin":
			return "1px"
		case "medium":
			if strings.HasPrefix(name, "border-") {
				return "3px"
			}
		case "thick":
			return "5px"
		}
		return resolveLengths(raw, cv.fontSize, rootSize, 0)
	}
	return raw
}
