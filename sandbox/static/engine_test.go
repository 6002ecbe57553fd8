package static

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"richcopy/sandbox"
)

const testDocument = `<!DOCTYPE html><html><head><meta charset="utf-8"><style>
:root { --accent: #ff0000; }
body.theme-dark { color: var(--accent); font-size: 20px; line-height: 1.5; }
p { margin: 1em 2em; }
.x { color: blue !important; }
#id { color: green; }
h1 { font-size: 2em; }
em { font-size: 50%; }
div.box { border: 2px solid rgba(0,0,0,.5); padding: 1pt; background: url(x.png) no-repeat #fff; }
@media print { p { color: red; } }
span { color: var(--missing, #00ff00); }
a:hover { color: black; }
p::first-line { color: black; }
</style></head><body class="theme-dark"><div class="c"><h1>T</h1><p id="id" class="x" style="color: yellow">P</p><p>Q<em>e</em></p><div class="box">b</div><span style="font-weight: bold">s</span><table><tbody><tr><td align="right">c</td></tr></tbody></table></div></body></html>`

func load(t *testing.T, doc string) sandbox.Surface {
	t.Helper()
	s, err := New(zaptest.NewLogger(t)).Load(context.Background(), []byte(doc), []string{"color", "margin", "unknown-property"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func byTag(tag string, nth int) func(*html.Node) bool {
	seen := 0
	return func(n *html.Node) bool {
		if n.Data != tag {
			return false
		}
		seen++
		return seen == nth
	}
}

func byClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, f := range strings.Fields(attr(n, "class")) {
			if f == class {
				return true
			}
		}
		return false
	}
}

func TestEngine_ComputedValues(t *testing.T) {
	s := load(t, testDocument)
	root := s.Root()
	if root == nil || root.Data != "html" {
		t.Fatalf("Root() = %v, want html element", root)
	}

	tests := []struct {
		name     string
		match    func(*html.Node) bool
		property string
		want     string
		present  bool
	}{
		{name: "custom property color", match: byTag("body", 1), property: "color", want: "rgb(255, 0, 0)", present: true},
		{name: "custom property value", match: byTag("body", 1), property: "--accent", want: "#ff0000", present: true},
		{name: "unitless line height", match: byTag("body", 1), property: "line-height", want: "30px", present: true},
		{name: "inherited line height", match: byTag("h1", 1), property: "line-height", want: "60px", present: true},
		{name: "em font size", match: byTag("h1", 1), property: "font-size", want: "40px", present: true},
		{name: "ua font weight", match: byTag("h1", 1), property: "font-weight", want: "700", present: true},
		{name: "ua margin in em", match: byTag("h1", 1), property: "margin-top", want: "26.8px", present: true},
		{name: "margin composite", match: byTag("h1", 1), property: "margin", want: "26.8px 0px", present: true},
		{name: "important beats inline", match: byTag("p", 1), property: "color", want: "rgb(0, 0, 255)", present: true},
		{name: "print media ignored", match: byTag("p", 2), property: "color", want: "rgb(255, 0, 0)", present: true},
		{name: "margin shorthand left", match: byTag("p", 2), property: "margin-left", want: "40px", present: true},
		{name: "margin shorthand composite", match: byTag("p", 2), property: "margin", want: "20px 40px", present: true},
		{name: "percent font size", match: byTag("em", 1), property: "font-size", want: "10px", present: true},
		{name: "ua italic", match: byTag("em", 1), property: "font-style", want: "italic", present: true},
		{name: "border width", match: byClass("box"), property: "border-width", want: "2px", present: true},
		{name: "border style", match: byClass("box"), property: "border-style", want: "solid", present: true},
		{name: "border color alpha", match: byClass("box"), property: "border-color", want: "rgba(0, 0, 0, 0.5)", present: true},
		{name: "points to pixels", match: byClass("box"), property: "padding-top", want: "1.3333px", present: true},
		{name: "background shorthand", match: byClass("box"), property: "background-color", want: "rgb(255, 255, 255)", present: true},
		{name: "var fallback", match: byTag("span", 1), property: "color", want: "rgb(0, 255, 0)", present: true},
		{name: "inline bold", match: byTag("span", 1), property: "font-weight", want: "700", present: true},
		{name: "inline display", match: byTag("span", 1), property: "display", want: "inline", present: true},
		{name: "align attribute", match: byTag("td", 1), property: "text-align", want: "right", present: true},
		{name: "ua display block", match: byClass("c"), property: "display", want: "block", present: true},
		{name: "undeclared margin", match: byClass("c"), property: "margin-top"},
		{name: "undeclared margin composite", match: byClass("c"), property: "margin"},
		{name: "undeclared border", match: byClass("c"), property: "border-width"},
		{name: "undeclared background", match: byClass("c"), property: "background-color"},
		{name: "undeclared text-align", match: byClass("c"), property: "text-align"},
		{name: "unknown property", match: byClass("c"), property: "unknown-property"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := find(root, tt.match)
			if n == nil {
				t.Fatal("element not found")
			}
			got, ok := s.ComputedValue(n, tt.property)
			if ok != tt.present {
				t.Fatalf("ComputedValue(%s) present = %v (%q), want %v", tt.property, ok, got, tt.present)
			}
			if ok && got != tt.want {
				t.Errorf("ComputedValue(%s) = %q, want %q", tt.property, got, tt.want)
			}
		})
	}
}

func TestEngine_Inheritance(t *testing.T) {
	s := load(t, `<html><head><style>
div { color: #123456; font-family: Georgia, serif; text-align: center; }
section { color: inherit; text-align: initial; }
</style></head><body><div><p>a<b>b</b></p><section>c</section></div></body></html>`)

	b := find(s.Root(), byTag("b", 1))
	if v, _ := s.ComputedValue(b, "color"); v != "rgb(18, 52, 86)" {
		t.Errorf("inherited color = %q", v)
	}
	if v, _ := s.ComputedValue(b, "font-family"); v != "Georgia,serif" {
		t.Errorf("inherited font-family = %q", v)
	}
	if v, ok := s.ComputedValue(b, "text-align"); !ok || v != "center" {
		t.Errorf("inherited declared text-align = %q, %v", v, ok)
	}
	if v, _ := s.ComputedValue(b, "font-weight"); v != "700" {
		t.Errorf("bolder over normal = %q, want 700", v)
	}

	section := find(s.Root(), byTag("section", 1))
	if v, _ := s.ComputedValue(section, "color"); v != "rgb(18, 52, 86)" {
		t.Errorf("explicit inherit color = %q", v)
	}
	if v, _ := s.ComputedValue(section, "text-align"); v != "start" {
		t.Errorf("initial text-align = %q, want start", v)
	}
}

func TestEngine_NoBorder(t *testing.T) {
	s := load(t, `<html><head><style>p { border: none; border-radius: 3px; }</style></head><body><p>x</p></body></html>`)

	p := find(s.Root(), byTag("p", 1))
	if v, ok := s.ComputedValue(p, "border-width"); ok {
		t.Errorf("border-width reported without border style: %q", v)
	}
	if v, ok := s.ComputedValue(p, "border-color"); ok {
		t.Errorf("border-color reported without border style: %q", v)
	}
	if v, _ := s.ComputedValue(p, "border-style"); v != "none" {
		t.Errorf("border-style = %q, want none", v)
	}
	if v, _ := s.ComputedValue(p, "border-radius"); v != "3px" {
		t.Errorf("border-radius = %q, want 3px", v)
	}
}

func TestEngine_SingleSideBorder(t *testing.T) {
	s := load(t, `<html><head><style>blockquote { border-left: 2px solid #ccc; }
p { border-width: 4px; border-left-style: dashed; }
</style></head><body><blockquote>x</blockquote><p>y</p></body></html>`)

	q := find(s.Root(), byTag("blockquote", 1))
	if v, _ := s.ComputedValue(q, "border-style"); v != "none none none solid" {
		t.Errorf("border-style = %q", v)
	}
	if v, _ := s.ComputedValue(q, "border-width"); v != "0px 0px 0px 2px" {
		t.Errorf("border-width = %q, want 0px 0px 0px 2px", v)
	}
	if v, ok := s.ComputedValue(q, "border-top-width"); ok {
		t.Errorf("undeclared border-top-width reported: %q", v)
	}
	if v, _ := s.ComputedValue(q, "border-left-width"); v != "2px" {
		t.Errorf("border-left-width = %q, want 2px", v)
	}

	p := find(s.Root(), byTag("p", 1))
	if v, _ := s.ComputedValue(p, "border-width"); v != "0px 0px 0px 4px" {
		t.Errorf("border-width = %q, want 0px 0px 0px 4px", v)
	}
	if v, _ := s.ComputedValue(p, "border-top-width"); v != "0px" {
		t.Errorf("border-top-width without style = %q, want 0px", v)
	}
}

func TestEngine_Close(t *testing.T) {
	s := load(t, `<html><body><p>x</p></body></html>`)
	p := find(s.Root(), byTag("p", 1))
	if _, ok := s.ComputedValue(p, "display"); !ok {
		t.Fatal("display should be computed")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := s.ComputedValue(p, "display"); ok {
		t.Error("values must not be available after Close")
	}
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(zaptest.NewLogger(t)).Load(ctx, []byte(`<html><body><p>x</p></body></html>`), nil); err == nil {
		t.Error("Load() with cancelled context expected error")
	}
}
