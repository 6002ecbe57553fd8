package static

import (
	"strings"
)

type valueKind int

const (
	kindKeyword valueKind = iota
	kindLength
	kindColor
)

// property describes how the engine computes a longhand.
type property struct {
	inherited bool
	initial   string
	kind      valueKind
	// declared properties are reported only when some rule set them for the
	// element or for the ancestor they were inherited from
	declared bool
}

var properties = map[string]property{
	"display":              {initial: "inline"},
	"color":                {inherited: true, initial: "rgb(0, 0, 0)", kind: kindColor},
	"background-color":     {initial: "rgba(0, 0, 0, 0)", kind: kindColor, declared: true},
	"font-family":          {inherited: true, initial: "serif"},
	"font-size":            {inherited: true, initial: "16px", kind: kindLength},
	"font-weight":          {inherited: true, initial: "400"},
	"font-style":           {inherited: true, initial: "normal"},
	"line-height":          {inherited: true, initial: "normal", kind: kindLength},
	"text-align":           {inherited: true, initial: "start", declared: true},
	"text-decoration-line": {initial: "none"},
	"text-transform":       {inherited: true, initial: "none"},
	"letter-spacing":       {inherited: true, initial: "normal", kind: kindLength},
	"white-space":          {inherited: true, initial: "normal"},
	"vertical-align":       {initial: "baseline", kind: kindLength, declared: true},
	"list-style-type":      {inherited: true, initial: "disc", declared: true},
	"border-collapse":      {inherited: true, initial: "separate", declared: true},
	"border-radius":        {initial: "0px", kind: kindLength, declared: true},
}

var sides = [4]string{"top", "right", "bottom", "left"}

func init() {
	for _, side := range sides {
		properties["margin-"+side] = property{initial: "0px", kind: kindLength, declared: true}
		properties["padding-"+side] = property{initial: "0px", kind: kindLength, declared: true}
		properties["border-"+side+"-width"] = property{initial: "medium", kind: kindLength, declared: true}
		properties["border-"+side+"-style"] = property{initial: "none", declared: true}
		properties["border-"+side+"-color"] = property{initial: "currentcolor", kind: kindColor, declared: true}
	}
}

// composites are reported by collapsing four side longhands.
var composites = map[string]string{
	"margin":       "margin-%s",
	"padding":      "padding-%s",
	"border-width": "border-%s-width",
	"border-style": "border-%s-style",
	"border-color": "border-%s-color",
}

var (
	borderStyles = map[string]bool{
		"none": true, "hidden": true, "dotted": true, "dashed": true, "solid": true,
		"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
	}
	borderWidths = map[string]bool{"thin": true, "medium": true, "thick": true}
	listTypes    = map[string]bool{
		"none": true, "disc": true, "circle": true, "square": true, "decimal": true,
		"decimal-leading-zero": true, "lower-roman": true, "upper-roman": true,
		"lower-alpha": true, "upper-alpha": true, "lower-latin": true, "upper-latin": true,
		"lower-greek": true, "armenian": true, "georgian": true,
	}
	decorationLines = map[string]bool{"underline": true, "overline": true, "line-through": true, "blink": true}
)

// longhands returns names of longhands the shorthand sets, nil when property
// is not a known shorthand.
func longhands(name string) []string {
	switch name {
	case "margin", "padding":
		return sided(name + "-%s")
	case "border-width", "border-style", "border-color":
		return sided("border-%s-" + strings.TrimPrefix(name, "border-"))
	case "border":
		res := sided("border-%s-width")
		res = append(res, sided("border-%s-style")...)
		return append(res, sided("border-%s-color")...)
	case "border-top", "border-right", "border-bottom", "border-left":
		return []string{name + "-width", name + "-style", name + "-color"}
	case "background":
		return []string{"background-color"}
	case "list-style":
		return []string{"list-style-type"}
	case "text-decoration":
		return []string{"text-decoration-line"}
	}
	return nil
}

func sided(pattern string) []string {
	res := make([]string, 0, 4)
	for _, side := range sides {
		res = append(res, strings.Replace(pattern, "%s", side, 1))
	}
	return res
}

// expand splits shorthand value into longhand values. Value must already
// have custom properties substituted.
func expand(name, value string) map[string]string {
	fields := splitFields(value)
	if len(fields) == 1 && isWideKeyword(fields[0]) {
		res := make(map[string]string)
		for _, l := range longhands(name) {
			res[l] = fields[0]
		}
		return res
	}

	switch name {
	case "margin", "padding", "border-width", "border-style", "border-color":
		return boxValues(longhands(name), fields)
	case "border":
		w, s, c := borderParts(fields)
		res := make(map[string]string, 12)
		for _, side := range sides {
			res["border-"+side+"-width"] = w
			res["border-"+side+"-style"] = s
			res["border-"+side+"-color"] = c
		}
		return res
	case "border-top", "border-right", "border-bottom", "border-left":
		w, s, c := borderParts(fields)
		return map[string]string{name + "-width": w, name + "-style": s, name + "-color": c}
	case "background":
		color := "transparent"
		for _, f := range fields {
			if isColor(f) {
				color = f
			}
		}
		return map[string]string{"background-color": color}
	case "list-style":
		typ := "disc"
		for _, f := range fields {
			if listTypes[strings.ToLower(f)] {
				typ = strings.ToLower(f)
			}
		}
		return map[string]string{"list-style-type": typ}
	case "text-decoration":
		var lines []string
		for _, f := range fields {
			if decorationLines[strings.ToLower(f)] {
				lines = append(lines, strings.ToLower(f))
			}
		}
		if len(lines) == 0 {
			return map[string]string{"text-decoration-line": "none"}
		}
		return map[string]string{"text-decoration-line": strings.Join(lines, " ")}
	}
	return nil
}

func boxValues(names []string, fields []string) map[string]string {
	var t, r, b, l string
	switch len(fields) {
	case 1:
		t, r, b, l = fields[0], fields[0], fields[0], fields[0]
	case 2:
		t, r, b, l = fields[0], fields[1], fields[0], fields[1]
	case 3:
		t, r, b, l = fields[0], fields[1], fields[2], fields[1]
	case 4:
		t, r, b, l = fields[0], fields[1], fields[2], fields[3]
	default:
		return nil
	}
	return map[string]string{names[0]: t, names[1]: r, names[2]: b, names[3]: l}
}

func borderParts(fields []string) (width, style, color string) {
	width, style, color = "medium", "none", "currentcolor"
	for _, f := range fields {
		lf := strings.ToLower(f)
		switch {
		case borderStyles[lf]:
			style = lf
		case borderWidths[lf] || isLength(lf):
			width = lf
		default:
			color = f
		}
	}
	return width, style, color
}

// collapse shortens four side values the way computed shorthands are
// reported.
func collapse(t, r, b, l string) string {
	switch {
	case t == r && r == b && b == l:
		return t
	case t == b && r == l:
		return t + " " + r
	case r == l:
		return t + " " + r + " " + b
	}
	return t + " " + r + " " + b + " " + l
}

func isWideKeyword(v string) bool {
	switch strings.ToLower(v) {
	case "inherit", "initial", "unset", "revert":
		return true
	}
	return false
}

// splitFields splits value on whitespace outside of parentheses and quotes.
func splitFields(value string) []string {
	var (
		res   []string
		cur   strings.Builder
		depth int
		quote rune
	)
	flush := func() {
		if cur.Len() > 0 {
			res = append(res, cur.String())
			cur.Reset()
		}
	}
	for _, r := range value {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'):
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return res
}
