package static

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"richcopy/css"
)

type origin int

const (
	originUserAgent origin = iota
	originAuthor
)

type rule struct {
	sel    cascadia.Sel
	spec   cascadia.Specificity
	decls  []css.Declaration
	origin origin
	order  int
}

// precedence orders declarations competing for the same property.
type precedence struct {
	level  int
	inline bool
	spec   cascadia.Specificity
	order  int
}

func (p precedence) less(o precedence) bool {
	if p.level != o.level {
		return p.level < o.level
	}
	if p.inline != o.inline {
		return !p.inline
	}
	if p.spec != o.spec {
		return p.spec.Less(o.spec)
	}
	return p.order < o.order
}

func level(o origin, important bool) int {
	switch {
	case o == originUserAgent && !important:
		return 0
	case o == originAuthor && !important:
		return 1
	case o == originAuthor:
		return 2
	}
	return 3
}

// specified is a winning declaration for a longhand. When set through a
// shorthand raw keeps full shorthand value which is expanded after custom
// properties are substituted.
type specified struct {
	raw       string
	shorthand string
	prec      precedence
}

type cascade struct {
	rules []rule
	log   *zap.Logger
}

// compile turns stylesheet rules into matchable ones. Selectors cascadia
// cannot handle and pseudo-element selectors are skipped.
func (c *cascade) compile(sheet *css.Stylesheet, o origin) {
	for _, r := range sheet.EffectiveRules() {
		if len(r.Declarations) == 0 {
			continue
		}
		for _, text := range r.Selectors {
			sel, err := cascadia.Parse(text)
			if err != nil {
				c.log.Debug("Skipping unsupported selector", zap.String("selector", text), zap.Error(err))
				continue
			}
			if sel.PseudoElement() != "" {
				continue
			}
			c.rules = append(c.rules, rule{
				sel:    sel,
				spec:   sel.Specificity(),
				decls:  r.Declarations,
				origin: o,
				order:  len(c.rules),
			})
		}
	}
}

var inlineOrder = 1 << 30

// match collects winning declarations for the element.
func (c *cascade) match(n *html.Node) map[string]specified {
	res := make(map[string]specified)

	apply := func(d css.Declaration, prec precedence) {
		if d.IsCustom() {
			put(res, d.Property, specified{raw: d.Value, prec: prec})
			return
		}
		if names := longhands(d.Property); names != nil {
			for _, l := range names {
				put(res, l, specified{raw: d.Value, shorthand: d.Property, prec: prec})
			}
			return
		}
		put(res, d.Property, specified{raw: d.Value, prec: prec})
	}

	if align := attr(n, "align"); align != "" {
		apply(css.Declaration{Property: "text-align", Value: strings.ToLower(align)}, precedence{level: 1, order: -1})
	}

	for _, r := range c.rules {
		if !r.sel.Match(n) {
			continue
		}
		for i, d := range r.decls {
			apply(d, precedence{level: level(r.origin, d.Important), spec: r.spec, order: r.order<<16 | i})
		}
	}

	if style := attr(n, "style"); style != "" {
		for i, d := range css.ParseDeclarations(style) {
			apply(d, precedence{level: level(originAuthor, d.Important), inline: true, order: inlineOrder + i})
		}
	}
	return res
}

func put(m map[string]specified, name string, s specified) {
	if prev, ok := m[name]; ok && s.prec.less(prev.prec) {
		return
	}
	m[name] = s
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
