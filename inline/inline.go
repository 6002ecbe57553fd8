// Package inline burns computed presentation values of the rendered tree
// into inline style attributes.
package inline

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"richcopy/sandbox"
)

// Inliner is safe to reuse, it keeps no state between calls.
type Inliner struct {
	affordances cascadia.SelectorGroup
	log         *zap.Logger
}

// New returns inliner removing elements matching affordance selectors before
// inlining.
func New(affordances []string, log *zap.Logger) (*Inliner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	in := &Inliner{log: log.Named("inline")}
	for _, s := range affordances {
		group, err := cascadia.ParseGroup(s)
		if err != nil {
			return nil, fmt.Errorf("bad affordance selector '%s': %w", s, err)
		}
		in.affordances = append(in.affordances, group...)
	}
	return in, nil
}

// Inline mutates frame content in place.
func (in *Inliner) Inline(f *sandbox.Frame) error {
	if f == nil || f.Content == nil {
		return fmt.Errorf("nothing to inline")
	}

	if len(in.affordances) > 0 {
		removed := goquery.NewDocumentFromNode(f.Content).FindMatcher(cascadia.Selector(in.affordances.Match)).Remove()
		if removed.Length() > 0 {
			in.log.Debug("Removed affordances", zap.Int("count", removed.Length()))
		}
	}

	props := Whitelist.Properties()
	var (
		visited int
		styled  int
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		visited++
		if setStyle(n, styleFor(f, n, props)) {
			styled++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				walk(c)
			}
		}
	}
	walk(f.Content)

	in.log.Debug("Inlined computed styles", zap.Int("elements", visited), zap.Int("styled", styled))
	return nil
}

func styleFor(f *sandbox.Frame, n *html.Node, props []string) string {
	parts := make([]string, 0, len(props))
	for _, p := range props {
		v, ok := f.ComputedValue(n, p)
		if !ok || IsAbsent(v) {
			continue
		}
		parts = append(parts, p+": "+strings.TrimSpace(v)+";")
	}
	return strings.Join(parts, " ")
}

// setStyle replaces style attribute of the node. Empty style removes it.
func setStyle(n *html.Node, style string) bool {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != "style" {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
	if style == "" {
		return false
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: style})
	return true
}

// Serialize renders the tree rooted at n.
func Serialize(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", fmt.Errorf("unable to serialize tree: %w", err)
	}
	return sb.String(), nil
}
