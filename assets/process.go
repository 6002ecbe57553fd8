package assets

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/beevik/etree"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"richcopy/vault"
)

// prepare returns asset bytes ready for embedding and their MIME type.
// Original data is returned unless processing was requested and succeeded.
func (r *Resolver) prepare(asset vault.Asset, data []byte) ([]byte, string) {
	mime := MimeType(asset.Ext())

	switch {
	case mime == "image/svg+xml":
		if !r.opts.RasterizeSVG {
			return data, mime
		}
		if !isSVG(data) {
			r.log.Debug("Not an SVG document, embedding as is", zap.String("path", asset.Path))
			return data, mime
		}
		img, err := RasterizeSVG(data, r.opts.MaxWidth)
		if err != nil {
			r.log.Warn("Unable to rasterize SVG, embedding as is", zap.String("path", asset.Path), zap.Error(err))
			return data, mime
		}
		out, err := encode(img, "png", r.opts.JPEGQuality)
		if err != nil {
			r.log.Warn("Unable to encode rasterized SVG, embedding as is", zap.String("path", asset.Path), zap.Error(err))
			return data, mime
		}
		r.log.Debug("Rasterized SVG", zap.String("path", asset.Path), zap.Int("width", img.Bounds().Dx()))
		return out, "image/png"

	case r.opts.MaxWidth > 0:
		return r.downscale(asset, data, mime)
	}
	return data, mime
}

// downscale reduces raster images wider than configured maximum. Animated
// GIFs are left alone.
func (r *Resolver) downscale(asset vault.Asset, data []byte, mime string) ([]byte, string) {
	kind, err := filetype.Match(data)
	if err != nil {
		return data, mime
	}
	var format string
	switch kind.MIME.Value {
	case "image/png":
		format = "png"
	case "image/jpeg":
		format = "jpeg"
	case "image/webp":
		// re-encoded as png, there is no webp encoder
		format = "png"
	default:
		return data, mime
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		r.log.Warn("Unable to decode image, embedding as is", zap.String("path", asset.Path), zap.Error(err))
		return data, mime
	}
	if img.Bounds().Dx() <= r.opts.MaxWidth {
		return data, mime
	}

	resized := imaging.Resize(img, r.opts.MaxWidth, 0, imaging.Lanczos)
	out, err := encode(resized, format, r.opts.JPEGQuality)
	if err != nil {
		r.log.Warn("Unable to encode resized image, embedding as is", zap.String("path", asset.Path), zap.Error(err))
		return data, mime
	}
	r.log.Debug("Downscaled image", zap.String("path", asset.Path),
		zap.Int("from", img.Bounds().Dx()), zap.Int("to", resized.Bounds().Dx()))
	return out, "image/" + format
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "jpeg":
		err = imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		err = imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// isSVG checks that data is XML document with svg root element.
func isSVG(data []byte) bool {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return false
	}
	root := doc.Root()
	return root != nil && root.Tag == "svg"
}
