// Package sandbox renders markup into an isolated document and exposes
// computed presentation values of the resulting tree.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"richcopy/markup"
)

// ErrRenderUnavailable is returned when rendering surface could not be
// constructed, loaded in time or accessed.
var ErrRenderUnavailable = errors.New("rendering surface unavailable")

// Engine loads composed document into a rendering surface. Properties lists
// names of computed values surface is expected to answer for.
type Engine interface {
	Load(ctx context.Context, document []byte, properties []string) (Surface, error)
}

// Surface is loaded document.
type Surface interface {
	// Root returns document element.
	Root() *html.Node
	// ComputedValue returns cascade resolved value of the property for the
	// node of the surface tree.
	ComputedValue(n *html.Node, property string) (string, bool)
	Close() error
}

// Frame is handed to the callback while surface is alive. Content is the
// preview container wrapping rendered markup.
type Frame struct {
	Content *html.Node
	surface Surface
}

// NewFrame binds content node to the surface it belongs to.
func NewFrame(content *html.Node, surface Surface) *Frame {
	return &Frame{Content: content, surface: surface}
}

func (f *Frame) ComputedValue(n *html.Node, property string) (string, bool) {
	return f.surface.ComputedValue(n, property)
}

type Request struct {
	Markup     string
	CSS        string
	SourcePath string
}

type Options struct {
	BodyClasses    []string
	ContainerClass string
	LoadTimeout    time.Duration
	Properties     []string
}

type Sandbox struct {
	engine   Engine
	renderer markup.Renderer
	opts     Options
	log      *zap.Logger
}

func New(engine Engine, renderer markup.Renderer, opts Options, log *zap.Logger) *Sandbox {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 30 * time.Second
	}
	return &Sandbox{engine: engine, renderer: renderer, opts: opts, log: log.Named("sandbox")}
}

// Render composes standalone document for the request, loads it and calls fn
// with the preview container. Surface is closed exactly once when Render
// returns, whatever happened.
func (s *Sandbox) Render(ctx context.Context, req Request, fn func(*Frame) error) (err error) {
	doc, err := s.compose(ctx, req)
	if err != nil {
		return err
	}

	surface, err := s.load(ctx, doc)
	if err != nil {
		return err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			if cerr := surface.Close(); cerr != nil {
				s.log.Warn("Unable to close rendering surface", zap.Error(cerr))
			}
		})
	}
	defer release()

	content := findContent(surface.Root())
	if content == nil {
		return fmt.Errorf("%w: preview container not found", ErrRenderUnavailable)
	}
	return fn(NewFrame(content, surface))
}

type loaded struct {
	surface Surface
	err     error
}

// load waits for the engine no longer than configured timeout. Surface
// arriving after the deadline is closed immediately.
func (s *Sandbox) load(ctx context.Context, doc []byte) (Surface, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.LoadTimeout)
	defer cancel()

	done := make(chan loaded, 1)
	go func() {
		surface, err := s.engine.Load(ctx, doc, s.opts.Properties)
		done <- loaded{surface: surface, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if res.surface != nil {
				res.surface.Close()
			}
			return nil, fmt.Errorf("%w: %w", ErrRenderUnavailable, res.err)
		}
		if res.surface == nil {
			return nil, fmt.Errorf("%w: engine returned no surface", ErrRenderUnavailable)
		}
		return res.surface, nil
	case <-ctx.Done():
		go func() {
			if res := <-done; res.surface != nil {
				if err := res.surface.Close(); err != nil {
					s.log.Debug("Unable to close late surface", zap.Error(err))
				}
			}
		}()
		return nil, fmt.Errorf("%w: load did not complete in %s: %w", ErrRenderUnavailable, s.opts.LoadTimeout, ctx.Err())
	}
}

// compose builds document with injected style, ambient body classes and
// preview container holding rendered markup.
func (s *Sandbox) compose(ctx context.Context, req Request) ([]byte, error) {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htm := element(atom.Html)
	root.AppendChild(htm)

	head := element(atom.Head)
	htm.AppendChild(head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	style := element(atom.Style)
	style.AppendChild(&html.Node{Type: html.TextNode, Data: escapeStyle(req.CSS)})
	head.AppendChild(style)

	body := element(atom.Body)
	if len(s.opts.BodyClasses) > 0 {
		body.Attr = append(body.Attr, html.Attribute{Key: "class", Val: strings.Join(s.opts.BodyClasses, " ")})
	}
	htm.AppendChild(body)

	container := element(atom.Div)
	if s.opts.ContainerClass != "" {
		container.Attr = append(container.Attr, html.Attribute{Key: "class", Val: s.opts.ContainerClass})
	}
	body.AppendChild(container)

	if err := s.renderer.Render(ctx, req.Markup, container, req.SourcePath); err != nil {
		return nil, fmt.Errorf("%w: unable to render markup: %w", ErrRenderUnavailable, err)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("%w: unable to compose document: %w", ErrRenderUnavailable, err)
	}
	s.log.Debug("Composed sandbox document", zap.Int("size", buf.Len()), zap.Int("css", len(req.CSS)))
	return buf.Bytes(), nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

// escapeStyle keeps style text from closing its element early.
func escapeStyle(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// findContent returns first element child of the body.
func findContent(root *html.Node) *html.Node {
	body := FindElement(root, atom.Body)
	if body == nil {
		return nil
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// FindElement returns first element with the given atom in document order.
func FindElement(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
