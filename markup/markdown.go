// Package markup renders document markup into HTML tree.
package markup

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/russross/blackfriday/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"richcopy/common"
)

// CopyButtonClass is class of copy button added to code blocks.
const CopyButtonClass = "copy-code-button"

// Renderer renders markup into container node. Relative links are resolved
// against source path.
type Renderer interface {
	Render(ctx context.Context, markup string, container *html.Node, sourcePath string) error
}

type Markdown struct {
	copyButtons bool
	log         *zap.Logger
}

// NewMarkdown returns markdown renderer. When copyButtons is set code blocks
// get copy buttons the way interactive preview shows them.
func NewMarkdown(copyButtons bool, log *zap.Logger) *Markdown {
	if log == nil {
		log = zap.NewNop()
	}
	return &Markdown{copyButtons: copyButtons, log: log.Named("markup")}
}

const extensions = blackfriday.CommonExtensions |
	blackfriday.AutoHeadingIDs |
	blackfriday.Footnotes |
	blackfriday.HardLineBreak

func (m *Markdown) Render(ctx context.Context, markup string, container *html.Node, sourcePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.FootnoteReturnLinks,
	})
	out := blackfriday.Run([]byte(markup), blackfriday.WithExtensions(extensions), blackfriday.WithRenderer(renderer))

	nodes, err := html.ParseFragment(bytes.NewReader(out), container)
	if err != nil {
		return fmt.Errorf("unable to parse rendered markup: %w", err)
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	base := ""
	if sourcePath != "" {
		if abs, err := filepath.Abs(sourcePath); err == nil {
			base = filepath.Dir(abs)
		}
	}
	m.decorate(container, base)

	m.log.Debug("Rendered markup", zap.String("source", sourcePath), zap.Int("html", len(out)))
	return ctx.Err()
}

func (m *Markdown) decorate(n *html.Node, base string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		m.decorate(c, base)

		switch c.DataAtom {
		case atom.Img:
			rewriteAttr(c, "src", base)
		case atom.A:
			rewriteAttr(c, "href", base)
		case atom.Pre:
			if m.copyButtons {
				c.AppendChild(copyButton())
			}
		case atom.Li, atom.P:
			trimTrailingBreak(c)
		}
	}
}

// trimTrailingBreak drops break hard line breaks leave at the end of
// list items and paragraphs along with whitespace following it.
func trimTrailingBreak(n *html.Node) {
	last := n.LastChild
	for last != nil && last.Type == html.TextNode && strings.TrimSpace(last.Data) == "" {
		last = last.PrevSibling
	}
	if last == nil || last.Type != html.ElementNode || last.DataAtom != atom.Br {
		return
	}
	for last.NextSibling != nil {
		n.RemoveChild(last.NextSibling)
	}
	n.RemoveChild(last)
}

func copyButton() *html.Node {
	b := &html.Node{
		Type:     html.ElementNode,
		Data:     "button",
		DataAtom: atom.Button,
		Attr:     []html.Attribute{{Key: "class", Val: CopyButtonClass}},
	}
	b.AppendChild(&html.Node{Type: html.TextNode, Data: "Copy"})
	return b
}

// rewriteAttr makes relative reference absolute file URL.
func rewriteAttr(n *html.Node, key, base string) {
	if base == "" {
		return
	}
	for i, a := range n.Attr {
		if a.Key != key {
			continue
		}
		if abs, ok := FileURL(a.Val, base); ok {
			n.Attr[i].Val = abs
		}
		return
	}
}

// FileURL resolves relative reference against base directory. Remote,
// fragment only and empty references are not touched.
func FileURL(ref, base string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || common.IsRemote(ref) {
		return "", false
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	p := u.Path
	if !filepath.IsAbs(filepath.FromSlash(p)) && !strings.HasPrefix(p, "/") {
		p = filepath.ToSlash(filepath.Join(base, filepath.FromSlash(p)))
	}
	if !strings.HasPrefix(p, "/") {
		// drive letter paths
		p = "/" + p
	}
	res := url.URL{Scheme: "file", Path: p, RawQuery: u.RawQuery, Fragment: u.Fragment}
	return res.String(), true
}
