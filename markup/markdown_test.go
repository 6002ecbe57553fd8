package markup

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func render(t *testing.T, m *Markdown, markup, source string) string {
	t.Helper()
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	if err := m.Render(context.Background(), markup, container, source); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	var buf bytes.Buffer
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			t.Fatal(err)
		}
	}
	return buf.String()
}

func TestMarkdown_Render(t *testing.T) {
	m := NewMarkdown(false, zaptest.NewLogger(t))

	out := render(t, m, "# Title\n\nSome *emphasis* and **strong**.\n\n- one\n- two\n", "")

	for _, want := range []string{`<h1 id="title">Title</h1>`, "<em>emphasis</em>", "<strong>strong</strong>", "<li>one</li>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}

func TestMarkdown_ListItemBreaks(t *testing.T) {
	m := NewMarkdown(false, zaptest.NewLogger(t))

	out := render(t, m, "- one\n- two\n  continued\n\nline\nnext\n", "")

	for _, want := range []string{"<li>one</li>", "two<br/>", "line<br/>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	if regexp.MustCompile(`<br/>\s*</(li|p)>`).MatchString(out) {
		t.Errorf("trailing break left:\n%s", out)
	}
}

func TestMarkdown_Tables(t *testing.T) {
	m := NewMarkdown(false, zaptest.NewLogger(t))

	out := render(t, m, "| a | b |\n|---|---|\n| 1 | 2 |\n", "")
	if !strings.Contains(out, "<table>") || !strings.Contains(out, "<td>1</td>") {
		t.Errorf("table not rendered:\n%s", out)
	}
}

func TestMarkdown_CopyButtons(t *testing.T) {
	src := "```go\nfmt.Println(1)\n```\n"

	with := render(t, NewMarkdown(true, zaptest.NewLogger(t)), src, "")
	if !strings.Contains(with, `<button class="copy-code-button">Copy</button></pre>`) {
		t.Errorf("copy button missing:\n%s", with)
	}

	without := render(t, NewMarkdown(false, zaptest.NewLogger(t)), src, "")
	if strings.Contains(without, "button") {
		t.Errorf("unexpected copy button:\n%s", without)
	}
}

func TestMarkdown_RelativeLinks(t *testing.T) {
	m := NewMarkdown(false, zaptest.NewLogger(t))
	base := filepath.Join(string(filepath.Separator)+"vault", "notes")
	source := filepath.Join(base, "doc.md")

	out := render(t, m, "![a](img/a%20b.png) ![d](data:image/png;base64,iQ==) [w](https://example.com) [s](#sec) [o](other.md)", source)

	wantImg := `src="file://` + filepath.ToSlash(filepath.Join(base, "img")) + `/a%20b.png"`
	if !strings.HasPrefix(wantImg, `src="file:///`) {
		wantImg = strings.Replace(wantImg, "file://", "file:///", 1)
	}
	for _, want := range []string{
		wantImg,
		`src="data:image/png;base64,iQ=="`,
		`href="https://example.com"`,
		`href="#sec"`,
		`other.md"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}

func TestFileURL(t *testing.T) {
	tests := []struct {
		ref  string
		want string
		ok   bool
	}{
		{ref: "a.png", want: "file:///base/a.png", ok: true},
		{ref: "sub/a b.png", want: "file:///base/sub/a%20b.png", ok: true},
		{ref: "../up.png", want: "file:///up.png", ok: true},
		{ref: "/abs/x.png", want: "file:///abs/x.png", ok: true},
		{ref: "doc.md#part", want: "file:///base/doc.md#part", ok: true},
		{ref: "#part"},
		{ref: ""},
		{ref: "https://x/y"},
		{ref: "data:image/png;base64,AA=="},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := FileURL(tt.ref, "/base")
			if ok != tt.ok {
				t.Fatalf("FileURL(%q) ok = %v, want %v", tt.ref, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("FileURL(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestMarkdown_Cancelled(t *testing.T) {
	m := NewMarkdown(false, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	if err := m.Render(ctx, "text", container, ""); err == nil {
		t.Error("Render() with cancelled context expected error")
	}
	if container.FirstChild != nil {
		t.Error("cancelled render must not produce content")
	}
}
