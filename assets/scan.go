package assets

import (
	"regexp"
	"strings"
)

// referencePattern matches embedded media in both syntaxes. Wiki form goes
// first so "![[x]]" is never taken for a bracket link.
//
//	![[target]] ![[target|label]]
//	![alt](target) ![alt](target "title") ![alt](<target with spaces>)
var referencePattern = regexp.MustCompile(
	`!\[\[([^\]|\n]+)(?:\|([^\]\n]*))?\]\]` +
		`|!\[([^\]\n]*)\]\(\s*(<[^>\n]*>|[^)\s]+)(?:\s+("[^"\n]*"|'[^'\n]*'))?\s*\)`)

// Reference is a single media reference found in markup.
type Reference struct {
	Raw    string // matched text as written
	Alt    string // alt text or wiki label
	Target string // target without angle brackets
	Title  string // optional title including quotes
	Wiki   bool
}

// Segment is either literal text or a reference, a sequence of segments
// reconstructs the scanned markup.
type Segment struct {
	Literal string
	Ref     *Reference
}

// Scan splits markup into segments, left to right without overlaps. Every
// character outside of a match is kept in literal segments.
func Scan(markup string) []Segment {
	var (
		segs []Segment
		last int
	)
	for _, m := range referencePattern.FindAllStringSubmatchIndex(markup, -1) {
		if m[0] > last {
			segs = append(segs, Segment{Literal: markup[last:m[0]]})
		}
		segs = append(segs, Segment{Ref: newReference(markup, m)})
		last = m[1]
	}
	if last < len(markup) {
		segs = append(segs, Segment{Literal: markup[last:]})
	}
	return segs
}

func group(s string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}

func newReference(s string, m []int) *Reference {
	ref := &Reference{Raw: s[m[0]:m[1]]}
	if m[2] >= 0 {
		ref.Wiki = true
		ref.Target = strings.TrimSpace(group(s, m, 1))
		ref.Alt = group(s, m, 2)
		// heading or block subpath is not part of file name
		if before, _, found := strings.Cut(ref.Target, "#"); found {
			ref.Target = strings.TrimSpace(before)
		}
		return ref
	}
	ref.Alt = group(s, m, 3)
	ref.Target = strings.TrimSuffix(strings.TrimPrefix(group(s, m, 4), "<"), ">")
	ref.Title = group(s, m, 5)
	return ref
}

// Join reassembles segments, replacement results are taken by segment
// index.
func Join(segs []Segment, replaced []string) string {
	var sb strings.Builder
	for i, seg := range segs {
		switch {
		case seg.Ref == nil:
			sb.WriteString(seg.Literal)
		case i < len(replaced) && replaced[i] != "":
			sb.WriteString(replaced[i])
		default:
			sb.WriteString(seg.Ref.Raw)
		}
	}
	return sb.String()
}
