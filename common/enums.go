// The only reason this package exists is because enums are shared between
// program configuration, user settings and export pipeline and I do not want
// settings package to depend on program configuration.
package common

//go:generate go tool go-enum --marshal --names

// How local media referenced from the document is exported.
// ENUM(embed, keep-reference)
type ImageHandling int

// Embed reports whether local media should be replaced with data URIs.
func (h ImageHandling) Embed() bool {
	return h == ImageHandlingEmbed
}

// Engine used by rendering sandbox to compute presentation values.
// ENUM(static, chrome)
type Engine int

// Destination of the produced rich-text artifact.
// ENUM(auto, file, stdout)
type ClipboardSink int
