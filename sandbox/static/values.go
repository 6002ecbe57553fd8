package static

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

const maxSubstitutionDepth = 16

// substitute replaces var() references with custom property values. It
// reports false when a reference has neither value nor fallback.
func substitute(value string, custom map[string]string) (string, bool) {
	return substituteDepth(value, custom, 0)
}

func substituteDepth(value string, custom map[string]string, depth int) (string, bool) {
	if depth > maxSubstitutionDepth {
		return "", false
	}
	for {
		start := strings.Index(value, "var(")
		if start < 0 {
			return value, true
		}
		end := matchingParen(value, start+3)
		if end < 0 {
			return "", false
		}

		name, fallback, hasFallback := strings.Cut(value[start+4:end], ",")
		name = strings.TrimSpace(name)

		var (
			repl string
			ok   bool
		)
		if v, found := custom[name]; found {
			repl, ok = substituteDepth(v, custom, depth+1)
		} else if hasFallback {
			repl, ok = substituteDepth(strings.TrimSpace(fallback), custom, depth+1)
		}
		if !ok {
			return "", false
		}
		value = value[:start] + repl + value[end+1:]
	}
}

// matchingParen returns index of parenthesis closing the one at open.
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var (
	numberPattern = regexp.MustCompile(`(?i)-?(?:\d+\.?\d*|\.\d+)(px|em|rem|pt|pc|in|cm|mm|q|%)?`)
	lengthPattern = regexp.MustCompile(`(?i)^-?(?:\d+\.?\d*|\.\d+)(px|em|rem|pt|pc|in|cm|mm|q|%)?$`)
)

func isLength(v string) bool {
	m := lengthPattern.FindStringSubmatch(v)
	if m == nil {
		return false
	}
	return m[1] != "" || strings.Trim(v, "0.-") == ""
}

func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	return strings.IndexByte(" \t\n(),/", s[i]) >= 0
}

// resolveLengths converts relative and absolute units to pixels. Percentages
// are resolved against percentBase when it is positive and kept otherwise.
func resolveLengths(value string, em, rem, percentBase float64) string {
	var (
		sb   strings.Builder
		last int
	)
	for _, loc := range numberPattern.FindAllStringSubmatchIndex(value, -1) {
		start, end := loc[0], loc[1]
		if !isBoundary(value, start-1) || !isBoundary(value, end) {
			continue
		}
		unit := ""
		if loc[2] >= 0 {
			unit = strings.ToLower(value[loc[2]:loc[3]])
		}
		num := value[start:end]
		if unit != "" {
			num = value[start:loc[2]]
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			continue
		}

		var px float64
		switch unit {
		case "px":
			continue
		case "":
			if f != 0 {
				continue
			}
		case "em":
			px = f * em
		case "rem":
			px = f * rem
		case "pt":
			px = f * 4 / 3
		case "pc":
			px = f * 16
		case "in":
			px = f * 96
		case "cm":
			px = f * 96 / 2.54
		case "mm":
			px = f * 96 / 25.4
		case "q":
			px = f * 96 / 101.6
		case "%":
			if percentBase <= 0 {
				continue
			}
			px = f * percentBase / 100
		}
		sb.WriteString(value[last:start])
		sb.WriteString(formatPx(px))
		last = end
	}
	if last == 0 {
		return value
	}
	sb.WriteString(value[last:])
	return sb.String()
}

func formatPx(v float64) string {
	v = math.Round(v*10000) / 10000
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

// parsePx returns numeric value of the pixel length.
func parsePx(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasSuffix(v, "px") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	return f, err == nil
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 9, "x-small": 10, "small": 13, "medium": 16,
	"large": 18, "x-large": 24, "xx-large": 32, "xxx-large": 48,
}

// resolveFontSize computes font size in pixels. Relative values refer to
// parent font size.
func resolveFontSize(v string, parent, root float64) (float64, bool) {
	lv := strings.ToLower(strings.TrimSpace(v))
	if px, ok := fontSizeKeywords[lv]; ok {
		return px, true
	}
	switch lv {
	case "smaller":
		return parent / 1.2, true
	case "larger":
		return parent * 1.2, true
	}
	return parsePx(resolveLengths(lv, parent, root, parent))
}

// resolveFontWeight normalizes weight to numeric form.
func resolveFontWeight(v, parent string) string {
	p, err := strconv.Atoi(parent)
	if err != nil {
		p = 400
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "normal":
		return "400"
	case "bold":
		return "700"
	case "bolder":
		switch {
		case p < 350:
			return "400"
		case p < 550:
			return "700"
		}
		return "900"
	case "lighter":
		switch {
		case p < 550:
			return "100"
		case p < 750:
			return "400"
		}
		return "700"
	}
	return strings.TrimSpace(v)
}

func isColor(v string) bool {
	if strings.EqualFold(v, "currentcolor") {
		return true
	}
	_, err := csscolorparser.Parse(v)
	return err == nil
}

// normalizeColor formats color the way computed values are reported:
// rgb() for opaque colors, rgba() otherwise. Unparsable values are returned
// unchanged.
func normalizeColor(v, current string) string {
	if strings.EqualFold(strings.TrimSpace(v), "currentcolor") {
		return current
	}
	c, err := csscolorparser.Parse(strings.TrimSpace(v))
	if err != nil {
		return v
	}
	r, g, b := channel(c.R), channel(c.G), channel(c.B)
	if c.A >= 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
	}
	a := strconv.FormatFloat(math.Round(c.A*1000)/1000, 'f', -1, 64)
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, a)
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
