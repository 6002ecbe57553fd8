package assets

import (
	"testing"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		refs    []Reference
		literal int
	}{
		{
			name:   "bracket link",
			markup: "before ![alt](img.png) after",
			refs:   []Reference{{Raw: "![alt](img.png)", Alt: "alt", Target: "img.png"}},
		},
		{
			name:   "bracket link with title",
			markup: `![a b](dir/img.png "The title")`,
			refs:   []Reference{{Raw: `![a b](dir/img.png "The title")`, Alt: "a b", Target: "dir/img.png", Title: `"The title"`}},
		},
		{
			name:   "angle brackets",
			markup: "![](<my image.png>)",
			refs:   []Reference{{Raw: "![](<my image.png>)", Target: "my image.png"}},
		},
		{
			name:   "wiki",
			markup: "![[diagram.svg]]",
			refs:   []Reference{{Raw: "![[diagram.svg]]", Target: "diagram.svg", Wiki: true}},
		},
		{
			name:   "wiki with label and subpath",
			markup: "![[photo.jpg#top|Holiday]]",
			refs:   []Reference{{Raw: "![[photo.jpg#top|Holiday]]", Alt: "Holiday", Target: "photo.jpg", Wiki: true}},
		},
		{
			name:   "mixed",
			markup: "![[a.png]] and ![b](b.png)![[c.png|c]]",
			refs: []Reference{
				{Raw: "![[a.png]]", Target: "a.png", Wiki: true},
				{Raw: "![b](b.png)", Alt: "b", Target: "b.png"},
				{Raw: "![[c.png|c]]", Alt: "c", Target: "c.png", Wiki: true},
			},
		},
		{
			name:   "not references",
			markup: "[link](x.png) ![broken](x.png ![[unterminated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := Scan(tt.markup)

			var (
				refs  []Reference
				whole string
			)
			for _, s := range segs {
				if s.Ref != nil {
					refs = append(refs, *s.Ref)
					whole += s.Ref.Raw
				} else {
					whole += s.Literal
				}
			}
			if whole != tt.markup {
				t.Errorf("segments do not reconstruct markup: %q", whole)
			}
			if len(refs) != len(tt.refs) {
				t.Fatalf("found %d references, want %d: %+v", len(refs), len(tt.refs), refs)
			}
			for i := range refs {
				if refs[i] != tt.refs[i] {
					t.Errorf("reference %d = %+v, want %+v", i, refs[i], tt.refs[i])
				}
			}
		})
	}
}

func TestJoin_KeepsUnreplaced(t *testing.T) {
	segs := Scan("x ![a](a.png) y ![b](b.png) z")
	replaced := make([]string, len(segs))
	replaced[3] = "B"

	if got, want := Join(segs, replaced), "x ![a](a.png) y B z"; got != want {
		t.Errorf("Join() = %q, want %q", got, want)
	}
}

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"png":  "image/png",
		"PNG":  "image/png",
		"jpg":  "image/jpeg",
		"jpeg": "image/jpeg",
		"gif":  "image/gif",
		"svg":  "image/svg+xml",
		"webp": "image/webp",
		"bmp":  "application/octet-stream",
		"":     "application/octet-stream",
	}
	for ext, want := range tests {
		if got := MimeType(ext); got != want {
			t.Errorf("MimeType(%q) = %q, want %q", ext, got, want)
		}
	}
}
