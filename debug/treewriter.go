// Package debug renders trees in human readable form for debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{w: &strings.Builder{}}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Node writes element subtree: one line per element with its class, then
// inline style and non blank text children below it.
func (tw *TreeWriter) Node(depth int, n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		if class := attr(n, "class"); class != "" {
			tw.Line(depth, "<%s class=%s>", n.Data, strconv.Quote(class))
		} else {
			tw.Line(depth, "<%s>", n.Data)
		}
		if style := attr(n, "style"); style != "" {
			tw.TextBlock(depth+1, "style", style)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			tw.Node(depth+1, c)
		}
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			tw.TextBlock(depth, "text", text)
		}
	}
}

// DumpTree returns textual form of the tree rooted at n.
func DumpTree(n *html.Node) string {
	tw := NewTreeWriter()
	tw.Node(0, n)
	return tw.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
