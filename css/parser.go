package css

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]string, 0),
	}

	// Log parsing start with source identifier if provided
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	sheet.Items = append(sheet.Items, p.parseItems(parser, sheet, false)...)
	return sheet
}

// parseItems reads rule list until end of input or, for nested lists, until
// the end of enclosing @-rule block.
func (p *Parser) parseItems(parser *css.Parser, sheet *Stylesheet, nested bool) []StylesheetItem {
	var (
		items   []StylesheetItem
		pending []string
	)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			// End of input or error
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return items

		case css.EndAtRuleGrammar:
			if nested {
				return items
			}

		case css.BeginAtRuleGrammar:
			atRule := strings.ToLower(string(data))
			switch atRule {
			case "@media":
				queries := parseMediaQueryList(tokensText(parser.Values()))
				block := &MediaBlock{Queries: queries, Items: p.parseItems(parser, sheet, true)}
				p.log.Debug("Parsed @media block", zap.Stringer("query", queries), zap.Int("items", len(block.Items)))
				items = append(items, StylesheetItem{MediaBlock: block})
			case "@supports":
				// feature support is assumed, rules are kept in place
				items = append(items, p.parseItems(parser, sheet, true)...)
			default:
				p.skipAtRuleBlock(parser)
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.AtRuleGrammar:
			// Simple @-rule without block (e.g., @import)
			atRule := strings.ToLower(string(data))
			if atRule == "@import" {
				if url := extractImportURL(parser.Values()); url != "" {
					items = append(items, StylesheetItem{Import: &url})
					p.log.Debug("Parsed @import", zap.String("url", url))
				}
			} else {
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.QualifiedRuleGrammar:
			// part of grouped selector list, rest follows with ruleset
			pending = append(pending, selectorText(data, parser.Values()))

		case css.BeginRulesetGrammar:
			selectors := splitSelectors(append(pending, selectorText(data, parser.Values())))
			pending = nil
			decls := p.parseDeclarations(parser, sheet)
			if len(selectors) == 0 {
				sheet.Warnings = append(sheet.Warnings, "ruleset without selector")
				continue
			}
			items = append(items, StylesheetItem{Rule: &Rule{Selectors: selectors, Declarations: decls}})

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			sheet.Warnings = append(sheet.Warnings, "declaration outside of ruleset: "+string(data))
		}
	}
}

// extractImportURL extracts the URL from @import tokens.
// Handles: @import "url"; @import url("url"); @import url(url);
func extractImportURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			// the token data is the full url(...) string
			s := string(t.Data)
			s = strings.TrimPrefix(s, "url(")
			s = strings.TrimSuffix(s, ")")
			return unquote(strings.TrimSpace(s))
		}
	}
	return ""
}

// tokensText joins token data collapsing whitespace, comments are dropped.
func tokensText(tokens []css.Token) string {
	var sb strings.Builder
	space := false
	for _, t := range tokens {
		switch t.TokenType {
		case css.WhitespaceToken:
			space = true
			continue
		case css.CommentToken:
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

func selectorText(data []byte, values []css.Token) string {
	tokens := make([]css.Token, 0, len(values)+1)
	if len(data) > 0 {
		tokens = append(tokens, css.Token{TokenType: css.IdentToken, Data: data})
	}
	return tokensText(append(tokens, values...))
}

// splitSelectors joins selector list pieces and splits them again on top
// level commas, so commas inside functional pseudo classes survive.
func splitSelectors(pieces []string) []string {
	var selectors []string
	for _, s := range splitTopLevel(strings.Join(pieces, ","), ',') {
		if s = strings.TrimSpace(s); s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// splitTopLevel splits on separator outside of parentheses, brackets and
// quoted strings.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser, sheet *Stylesheet) []Declaration {
	var decls []Declaration

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls

		case css.DeclarationGrammar:
			if d, ok := makeDeclaration(strings.ToLower(string(data)), parser.Values()); ok {
				decls = append(decls, d)
			}

		case css.CustomPropertyGrammar:
			if d, ok := makeDeclaration(string(data), parser.Values()); ok {
				decls = append(decls, d)
			}

		case css.BeginRulesetGrammar, css.BeginAtRuleGrammar:
			// nested rules are not supported
			sheet.Warnings = append(sheet.Warnings, "unsupported nested rule")
			p.skipAtRuleBlock(parser)
		}
	}
}

var importantPattern = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)

func makeDeclaration(property string, tokens []css.Token) (Declaration, bool) {
	property = strings.TrimSpace(property)
	value := tokensText(tokens)
	if property == "" {
		return Declaration{}, false
	}

	d := Declaration{Property: property}
	if loc := importantPattern.FindStringIndex(value); loc != nil {
		d.Important = true
		value = strings.TrimSpace(value[:loc[0]])
	}
	if value == "" {
		return Declaration{}, false
	}
	d.Value = value
	return d, true
}

// ParseDeclarations parses declaration list of inline style attribute.
func ParseDeclarations(text string) []Declaration {
	parser := css.NewParser(parse.NewInputString(text), true)

	var decls []Declaration
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			return decls
		case css.DeclarationGrammar:
			if d, ok := makeDeclaration(strings.ToLower(string(data)), parser.Values()); ok {
				decls = append(decls, d)
			}
		case css.CustomPropertyGrammar:
			if d, ok := makeDeclaration(string(data), parser.Values()); ok {
				decls = append(decls, d)
			}
		}
	}
}

// skipAtRuleBlock skips tokens until the matching end of a block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// parseMediaQueryList parses queries like "screen and (max-width: 600px), print".
func parseMediaQueryList(text string) MediaQueryList {
	var list MediaQueryList
	for _, part := range splitTopLevel(text, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		list = append(list, parseMediaQuery(part))
	}
	return list
}

func parseMediaQuery(raw string) MediaQuery {
	mq := MediaQuery{Raw: raw}

	rest := strings.ToLower(raw)
	for {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			break
		}
		depth, end := 0, -1
		for i := open; i < len(rest) && end < 0; i++ {
			switch rest[i] {
			case '(':
				depth++
			case ')':
				if depth--; depth == 0 {
					end = i
				}
			}
		}
		if end < 0 {
			// unbalanced, take the rest
			end = len(rest) - 1
		}
		mq.Features = append(mq.Features, strings.TrimSpace(strings.Trim(rest[open:end+1], "()")))
		rest = rest[:open] + " " + rest[end+1:]
	}

	for _, word := range strings.Fields(rest) {
		switch word {
		case "not":
			mq.Negated = true
		case "only", "and":
		default:
			if mq.Type == "" {
				mq.Type = word
			}
		}
	}
	return mq
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
