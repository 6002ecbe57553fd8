// Package export drives single "copy document as rich text" action: it reads
// the document, aggregates styles and resolves media concurrently, renders
// everything in the sandbox, inlines computed styles and hands resulting
// artifact to the clipboard writer.
package export

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"richcopy/config"
	"richcopy/debug"
	"richcopy/inline"
	"richcopy/sandbox"
	"richcopy/settings"
)

// Source reads exported documents.
type Source interface {
	Rel(name string) (string, error)
	Abs(rel string) string
	ReadText(name string) (string, error)
}

type Aggregator interface {
	Aggregate(ctx context.Context, s *settings.ExportSettings) (string, error)
}

type Resolver interface {
	Resolve(ctx context.Context, markup, fromPath string) string
}

type Renderer interface {
	Render(ctx context.Context, req sandbox.Request, fn func(*sandbox.Frame) error) error
}

type Inliner interface {
	Inline(f *sandbox.Frame) error
}

type Writer interface {
	Write(ctx context.Context, name, artifact string) error
}

// Exporter wires pipeline stages together. Every stage is a collaborator so
// the pipeline itself keeps only ordering and cleanup rules.
type Exporter struct {
	src       Source
	aggregate Aggregator
	resolve   Resolver
	render    Renderer
	inline    Inliner
	write     Writer
	notify    Notifier
	rpt       *config.Report
	log       *zap.Logger
}

type Option func(*Exporter)

// WithNotifier sets destination of user visible outcome messages.
func WithNotifier(n Notifier) Option { return func(e *Exporter) { e.notify = n } }

// WithReport stores intermediate results of every export in debug report.
func WithReport(rpt *config.Report) Option { return func(e *Exporter) { e.rpt = rpt } }

func New(src Source, agg Aggregator, res Resolver, rnd Renderer, inl Inliner, wr Writer, log *zap.Logger, options ...Option) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Exporter{
		src:       src,
		aggregate: agg,
		resolve:   res,
		render:    rnd,
		inline:    inl,
		write:     wr,
		log:       log.Named("export"),
	}
	for _, o := range options {
		o(e)
	}
	if e.notify == nil {
		e.notify = NewLogNotifier(e.log)
	}
	return e
}

// Export copies document as inlined rich text. Settings are read only. Any
// stage failure aborts the whole export, nothing is written to the clipboard
// in this case and the failure is reported to the notifier as well as
// returned.
func (e *Exporter) Export(ctx context.Context, doc string, es *settings.ExportSettings) error {
	id := uuid.New()
	log := e.log.With(zap.Stringer("export", id))

	start := time.Now()
	log.Debug("Export starting", zap.String("document", doc))

	name, err := e.run(ctx, log, doc, es)
	if err != nil {
		log.Debug("Export failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		e.notify.Failure(err)
		return err
	}

	log.Debug("Export completed", zap.Duration("elapsed", time.Since(start)))
	e.notify.Success(fmt.Sprintf("Copied '%s' as rich text", name))
	return nil
}

func (e *Exporter) run(ctx context.Context, log *zap.Logger, doc string, es *settings.ExportSettings) (string, error) {
	if es == nil {
		es = settings.Defaults()
	}

	rel, err := e.src.Rel(doc)
	if err != nil {
		return "", err
	}
	text, err := e.src.ReadText(rel)
	if err != nil {
		return "", err
	}
	e.rpt.StoreData(path.Join("export", path.Base(rel)), []byte(text))

	var (
		css    string
		markup = text
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		css, err = e.aggregate.Aggregate(gctx, es)
		return err
	})
	if es.ImageHandling.Embed() {
		g.Go(func() error {
			markup = e.resolve.Resolve(gctx, text, rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	e.rpt.StoreData("export/styles.css", []byte(css))

	var artifact string
	req := sandbox.Request{Markup: markup, CSS: css, SourcePath: e.src.Abs(rel)}
	err = e.render.Render(ctx, req, func(f *sandbox.Frame) error {
		if err := e.inline.Inline(f); err != nil {
			return err
		}
		if e.rpt != nil {
			e.rpt.StoreData("export/tree.txt", []byte(debug.DumpTree(f.Content)))
		}
		out, err := inline.Serialize(f.Content)
		if err != nil {
			return err
		}
		artifact = out
		return nil
	})
	if err != nil {
		return "", err
	}
	e.rpt.StoreData("export/artifact.html", []byte(artifact))
	log.Debug("Artifact ready", zap.Int("bytes", len(artifact)))

	name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	// sandbox is gone at this point
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := e.write.Write(ctx, name, artifact); err != nil {
		return "", err
	}
	return name, nil
}
