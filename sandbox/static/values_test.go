package static

import (
	"reflect"
	"testing"
)

func TestSubstitute(t *testing.T) {
	custom := map[string]string{
		"--a":     "solid",
		"--width": "1px",
		"--ref":   "var(--width)",
		"--cycle": "var(--cycle)",
	}

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "red", want: "red", ok: true},
		{in: "var(--width)", want: "1px", ok: true},
		{in: "var(--missing, 2px)", want: "2px", ok: true},
		{in: "var(--missing)", ok: false},
		{in: "var(--width) var(--a) var(--b, red)", want: "1px solid red", ok: true},
		{in: "var(--x, var(--a))", want: "solid", ok: true},
		{in: "var(--ref)", want: "1px", ok: true},
		{in: "var(--f, a, b)", want: "a, b", ok: true},
		{in: "var(--cycle)", ok: false},
		{in: "var(--width", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := substitute(tt.in, custom)
			if ok != tt.ok {
				t.Fatalf("substitute(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("substitute(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveLengths(t *testing.T) {
	tests := []struct {
		in      string
		em, rem float64
		base    float64
		want    string
	}{
		{in: "1em", em: 20, rem: 16, want: "20px"},
		{in: "0.5rem", em: 20, rem: 16, want: "8px"},
		{in: "12pt", want: "16px"},
		{in: "1in", want: "96px"},
		{in: "1em 2em", em: 10, want: "10px 20px"},
		{in: "0", want: "0px"},
		{in: "0 auto", want: "0px auto"},
		{in: "50%", want: "50%"},
		{in: "50%", base: 20, want: "10px"},
		{in: "-1em", em: 8, want: "-8px"},
		{in: "calc(1em + 2px)", em: 10, want: "calc(10px + 2px)"},
		{in: "1.5", want: "1.5"},
		{in: "1fr", want: "1fr"},
		{in: "#000", want: "#000"},
		{in: "14px", want: "14px"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := resolveLengths(tt.in, tt.em, tt.rem, tt.base); got != tt.want {
				t.Errorf("resolveLengths(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveFontSize(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{in: "medium", want: 16},
		{in: "x-large", want: 24},
		{in: "larger", want: 24},
		{in: "smaller", want: 16.666666666666668},
		{in: "1.5em", want: 30},
		{in: "150%", want: 30},
		{in: "2rem", want: 32},
		{in: "18px", want: 18},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := resolveFontSize(tt.in, 20, 16)
			if !ok || got != tt.want {
				t.Errorf("resolveFontSize(%q) = %v, %v, want %v", tt.in, got, ok, tt.want)
			}
		})
	}

	if _, ok := resolveFontSize("bogus", 20, 16); ok {
		t.Error("resolveFontSize(bogus) expected failure")
	}
}

func TestResolveFontWeight(t *testing.T) {
	tests := []struct {
		in, parent, want string
	}{
		{"normal", "700", "400"},
		{"bold", "400", "700"},
		{"bolder", "400", "700"},
		{"bolder", "700", "900"},
		{"lighter", "700", "400"},
		{"600", "400", "600"},
	}
	for _, tt := range tests {
		if got := resolveFontWeight(tt.in, tt.parent); got != tt.want {
			t.Errorf("resolveFontWeight(%q, %q) = %q, want %q", tt.in, tt.parent, got, tt.want)
		}
	}
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "red", want: "rgb(255, 0, 0)"},
		{in: "#0000ee", want: "rgb(0, 0, 238)"},
		{in: "#fff", want: "rgb(255, 255, 255)"},
		{in: "rgba(255, 208, 0, 0.4)", want: "rgba(255, 208, 0, 0.4)"},
		{in: "transparent", want: "rgba(0, 0, 0, 0)"},
		{in: "hsl(0, 100%, 50%)", want: "rgb(255, 0, 0)"},
		{in: "currentcolor", want: "rgb(1, 2, 3)"},
		{in: "not-a-color", want: "not-a-color"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := normalizeColor(tt.in, "rgb(1, 2, 3)"); got != tt.want {
				t.Errorf("normalizeColor(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  map[string]string
	}{
		{
			name: "margin", value: "1px 2px 3px",
			want: map[string]string{"margin-top": "1px", "margin-right": "2px", "margin-bottom": "3px", "margin-left": "2px"},
		},
		{
			name: "padding", value: "inherit",
			want: map[string]string{"padding-top": "inherit", "padding-right": "inherit", "padding-bottom": "inherit", "padding-left": "inherit"},
		},
		{
			name: "border-top", value: "thin dashed rgb(1, 2, 3)",
			want: map[string]string{"border-top-width": "thin", "border-top-style": "dashed", "border-top-color": "rgb(1, 2, 3)"},
		},
		{
			name: "border-left", value: "solid",
			want: map[string]string{"border-left-width": "medium", "border-left-style": "solid", "border-left-color": "currentcolor"},
		},
		{
			name: "background", value: "url(a.png) no-repeat center",
			want: map[string]string{"background-color": "transparent"},
		},
		{
			name: "list-style", value: "square inside",
			want: map[string]string{"list-style-type": "square"},
		},
		{
			name: "text-decoration", value: "underline dotted red",
			want: map[string]string{"text-decoration-line": "underline"},
		},
		{
			name: "text-decoration", value: "none",
			want: map[string]string{"text-decoration-line": "none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+" "+tt.value, func(t *testing.T) {
			if got := expand(tt.name, tt.value); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expand(%q, %q) = %v, want %v", tt.name, tt.value, got, tt.want)
			}
		})
	}

	border := expand("border", "1px solid red")
	if len(border) != 12 || border["border-bottom-style"] != "solid" || border["border-left-width"] != "1px" {
		t.Errorf("expand(border) = %v", border)
	}
}

func TestCollapse(t *testing.T) {
	tests := []struct {
		in   [4]string
		want string
	}{
		{[4]string{"1px", "1px", "1px", "1px"}, "1px"},
		{[4]string{"1px", "2px", "1px", "2px"}, "1px 2px"},
		{[4]string{"1px", "2px", "3px", "2px"}, "1px 2px 3px"},
		{[4]string{"1px", "2px", "3px", "4px"}, "1px 2px 3px 4px"},
	}
	for _, tt := range tests {
		if got := collapse(tt.in[0], tt.in[1], tt.in[2], tt.in[3]); got != tt.want {
			t.Errorf("collapse(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitFields(t *testing.T) {
	got := splitFields(`1px  solid rgb(1, 2, 3) "a b"`)
	want := []string{"1px", "solid", "rgb(1, 2, 3)", `"a b"`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitFields() = %q, want %q", got, want)
	}
}
