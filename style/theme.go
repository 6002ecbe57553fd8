package style

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"richcopy/config"
	"richcopy/css"
)

//go:embed app.css
var builtinCSS []byte

// ErrCrossOrigin marks stylesheets whose rules are not accessible.
var ErrCrossOrigin = errors.New("rules of remote stylesheet are not accessible")

// Theme is ambient rendering environment described by configuration:
// built-in application stylesheet, theme stylesheets and enabled snippets,
// in this order, together with classes carried by preview body and content
// container.
type Theme struct {
	src    Source
	parser *css.Parser
	cfg    config.ThemeConfig
	log    *zap.Logger
}

func NewTheme(cfg *config.ThemeConfig, src Source, log *zap.Logger) *Theme {
	if log == nil {
		log = zap.NewNop()
	}
	return &Theme{
		src:    src,
		parser: css.NewParser(log),
		cfg:    *cfg,
		log:    log.Named("theme"),
	}
}

func (t *Theme) BodyClasses() []string {
	return append([]string(nil), t.cfg.BodyClasses...)
}

func (t *Theme) ContainerClass() string {
	return t.cfg.ContainerClass
}

func (t *Theme) StyleSheets() []Sheet {
	var sheets []Sheet
	if t.cfg.Builtin {
		sheets = append(sheets, &textSheet{name: "app.css", data: builtinCSS, parser: t.parser})
	}
	for _, name := range t.cfg.Stylesheets {
		sheets = append(sheets, t.sheet(name))
	}
	for _, name := range t.cfg.Snippets {
		sheets = append(sheets, t.sheet(name))
	}
	return sheets
}

func (t *Theme) sheet(name string) Sheet {
	if isRemote(name) {
		return remoteSheet(name)
	}
	return &fileSheet{path: name, src: t.src, parser: t.parser}
}

func isRemote(name string) bool {
	if strings.HasPrefix(name, "//") {
		return true
	}
	u, err := url.Parse(name)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

type textSheet struct {
	name   string
	data   []byte
	parser *css.Parser
}

func (s *textSheet) Name() string { return s.name }

func (s *textSheet) Rules() ([]string, error) {
	return s.parser.Parse(s.data, s.name).RuleTexts(), nil
}

type fileSheet struct {
	path   string
	src    Source
	parser *css.Parser
}

func (s *fileSheet) Name() string { return s.path }

func (s *fileSheet) Rules() ([]string, error) {
	text, err := s.src.ReadText(s.path)
	if err != nil {
		return nil, fmt.Errorf("unable to read stylesheet: %w", err)
	}
	return s.parser.Parse([]byte(text), s.path).RuleTexts(), nil
}

type remoteSheet string

func (s remoteSheet) Name() string { return string(s) }

func (s remoteSheet) Rules() ([]string, error) {
	return nil, fmt.Errorf("%w: %s", ErrCrossOrigin, string(s))
}
