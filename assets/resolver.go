// Package assets embeds local media referenced by markup as base64 data URIs.
package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"richcopy/common"
	"richcopy/vault"
)

// ErrResolutionSkipped marks a reference left as written. It is only ever
// logged.
var ErrResolutionSkipped = errors.New("asset resolution skipped")

// Source resolves and reads referenced assets.
type Source interface {
	ResolveReference(rawRef, fromPath string) (vault.Asset, bool)
	ReadBinary(vault.Asset) ([]byte, error)
}

type Options struct {
	// Workers limits concurrent resolutions, 0 means number of CPUs.
	Workers      int
	MaxWidth     int
	JPEGQuality  int
	RasterizeSVG bool
}

type Resolver struct {
	src  Source
	opts Options
	log  *zap.Logger
}

func NewResolver(src Source, opts Options, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 85
	}
	return &Resolver{src: src, opts: opts, log: log.Named("assets")}
}

// Resolve rewrites every resolvable local media reference of markup into
// embedded data reference. Resolutions run concurrently, results are joined
// by position so output order always follows the input. Unresolvable, remote
// and malformed references are kept verbatim, Resolve never fails.
func (r *Resolver) Resolve(ctx context.Context, markup, fromPath string) string {
	segs := Scan(markup)
	replaced := make([]string, len(segs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	count := 0
	for i, seg := range segs {
		if seg.Ref == nil {
			continue
		}
		count++
		g.Go(func() error {
			text, err := r.resolve(gctx, seg.Ref, fromPath)
			if err != nil {
				r.log.Debug("Reference left as is", zap.String("reference", seg.Ref.Raw), zap.Error(err))
				return nil
			}
			replaced[i] = text
			return nil
		})
	}
	_ = g.Wait()

	if count > 0 {
		r.log.Debug("Resolved media references", zap.Int("references", count), zap.String("document", fromPath))
	}
	return Join(segs, replaced)
}

func (r *Resolver) resolve(ctx context.Context, ref *Reference, fromPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolutionSkipped, err)
	}
	if common.IsRemote(ref.Target) {
		return "", fmt.Errorf("%w: remote target", ErrResolutionSkipped)
	}

	target := ref.Target
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}

	asset, ok := r.src.ResolveReference(target, fromPath)
	if !ok {
		r.log.Warn("Unable to resolve media reference", zap.String("target", target), zap.String("document", fromPath))
		return "", fmt.Errorf("%w: not found", ErrResolutionSkipped)
	}
	data, err := r.src.ReadBinary(asset)
	if err != nil {
		r.log.Warn("Unable to read media", zap.String("path", asset.Path), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrResolutionSkipped, err)
	}

	data, mime := r.prepare(asset, data)
	return embedded(ref, mime, data), nil
}

func embedded(ref *Reference, mime string, data []byte) string {
	var sb strings.Builder
	sb.Grow(base64.StdEncoding.EncodedLen(len(data)) + len(ref.Alt) + len(mime) + 32)
	sb.WriteString("![")
	sb.WriteString(ref.Alt)
	sb.WriteString("](data:")
	sb.WriteString(mime)
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	if ref.Title != "" {
		sb.WriteString(" ")
		sb.WriteString(ref.Title)
	}
	sb.WriteString(")")
	return sb.String()
}

// MimeType maps file extension (without dot, any case) to MIME type.
func MimeType(ext string) string {
	switch strings.ToLower(ext) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "svg":
		return "image/svg+xml"
	case "webp":
		return "image/webp"
	}
	return "application/octet-stream"
}
