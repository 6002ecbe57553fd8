// Package chrome implements rendering engine backed by headless Chrome.
// Computed values are read once, right after the document is loaded.
package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"richcopy/sandbox"
)

const indexAttr = "data-rc-idx"

// snapshotScript tags every element with its document order index and
// returns serialized document together with computed values of requested
// properties for every element.
const snapshotScript = `(props) => {
	const all = document.documentElement.querySelectorAll('*');
	const styles = [];
	document.documentElement.setAttribute('` + indexAttr + `', '0');
	const rootStyle = getComputedStyle(document.documentElement);
	styles.push(props.map((p) => rootStyle.getPropertyValue(p)));
	all.forEach((el, i) => {
		el.setAttribute('` + indexAttr + `', String(i + 1));
		const cs = getComputedStyle(el);
		styles.push(props.map((p) => cs.getPropertyValue(p)));
	});
	return JSON.stringify({html: document.documentElement.outerHTML, styles: styles});
}`

type snapshot struct {
	HTML   string     `json:"html"`
	Styles [][]string `json:"styles"`
}

type Engine struct {
	controlURL string
	bin        string
	log        *zap.Logger
}

// New returns engine connecting to the browser at controlURL or, when it is
// empty, launching local browser (bin overrides browser executable).
func New(controlURL, bin string, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{controlURL: controlURL, bin: bin, log: log.Named("chrome-engine")}
}

// Teardown runs after load context is gone and is bounded on its own.
const (
	closeTimeout = 10 * time.Second
	exitGrace    = 2 * time.Second
)

type surface struct {
	root   *html.Node
	props  map[string]int
	values map[*html.Node][]string
	remote bool
	// closers release browser resources in reverse order of acquisition.
	closers []func(ctx context.Context) error
}

func (s *surface) onClose(fn func(ctx context.Context) error) {
	s.closers = append(s.closers, fn)
}

func (e *Engine) Load(ctx context.Context, document []byte, props []string) (_ sandbox.Surface, err error) {
	s := &surface{props: make(map[string]int, len(props)), values: make(map[*html.Node][]string)}
	for i, p := range props {
		s.props[p] = i
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, s.Close())
		}
	}()

	browser, err := s.connect(ctx, e)
	if err != nil {
		return nil, err
	}

	created, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("unable to create page: %w", err)
	}
	s.onClose(func(ctx context.Context) error { return created.Context(ctx).Close() })

	// only load phase is bound to ctx
	page := created.Context(ctx)
	if err = page.SetDocumentContent(string(document)); err != nil {
		return nil, fmt.Errorf("unable to set document content: %w", err)
	}
	if err = page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("document did not load: %w", err)
	}

	res, err := page.Eval(snapshotScript, props)
	if err != nil {
		return nil, fmt.Errorf("unable to read computed styles: %w", err)
	}
	var snap snapshot
	if err = json.Unmarshal([]byte(res.Value.Str()), &snap); err != nil {
		return nil, fmt.Errorf("unable to decode computed styles: %w", err)
	}
	if err = s.attach(snap); err != nil {
		return nil, err
	}
	e.log.Debug("Loaded document", zap.Int("elements", len(s.values)), zap.Bool("remote", s.remote))
	return s, nil
}

func (s *surface) connect(ctx context.Context, e *Engine) (*rod.Browser, error) {
	u := e.controlURL
	if u == "" {
		// launcher cancels its own context right after launch
		l := launcher.New().Headless(true)
		if e.bin != "" {
			l = l.Bin(e.bin)
		}
		var err error
		if u, err = l.Launch(); err != nil {
			return nil, fmt.Errorf("unable to launch browser: %w", err)
		}
		s.onClose(func(ctx context.Context) error { return cleanup(ctx, l) })
		e.log.Debug("Launched local browser")
	} else {
		s.remote = true
	}

	// connection lives until surface is closed, load ctx only interrupts
	// connecting
	bctx, bcancel := context.WithCancel(context.Background())
	s.onClose(func(context.Context) error { bcancel(); return nil })
	stop := context.AfterFunc(ctx, bcancel)
	defer stop()

	b := rod.New().ControlURL(u).Context(bctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("unable to connect to browser: %w", err)
	}
	if !s.remote {
		s.onClose(func(ctx context.Context) error { return b.Context(ctx).Close() })
	}
	return b, nil
}

// cleanup waits for launched browser to exit after it was asked to close and
// kills it when it does not.
func cleanup(ctx context.Context, l *launcher.Launcher) error {
	done := make(chan struct{})
	go func() {
		l.Cleanup()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(exitGrace):
	case <-ctx.Done():
	}
	l.Kill()
	<-done
	return nil
}

// attach parses serialized document and binds computed values to its
// elements using index markers which are removed afterwards.
func (s *surface) attach(snap snapshot) error {
	doc, err := html.Parse(strings.NewReader("<!DOCTYPE html>" + snap.HTML))
	if err != nil {
		return fmt.Errorf("unable to parse loaded document: %w", err)
	}
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			s.root = n
			break
		}
	}
	if s.root == nil {
		return fmt.Errorf("loaded document has no root element")
	}

	var bind func(n *html.Node)
	bind = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for i, a := range n.Attr {
				if a.Key != indexAttr {
					continue
				}
				n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
				if idx, err := strconv.Atoi(a.Val); err == nil && idx >= 0 && idx < len(snap.Styles) {
					s.values[n] = snap.Styles[idx]
				}
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			bind(c)
		}
	}
	bind(s.root)
	return nil
}

func (s *surface) Root() *html.Node { return s.root }

func (s *surface) ComputedValue(n *html.Node, property string) (string, bool) {
	i, ok := s.props[property]
	if !ok {
		return "", false
	}
	vals, ok := s.values[n]
	if !ok || i >= len(vals) {
		return "", false
	}
	return vals[i], true
}

// Close closes page and, unless browser is remote, the browser itself. It
// does not depend on the context surface was loaded with.
func (s *surface) Close() (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	for i := len(s.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.closers[i](ctx))
	}
	s.closers = nil
	s.values = nil
	return err
}
