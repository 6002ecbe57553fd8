package clipboard

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"

	"richcopy/config"
)

// NameValues are available for output name template expansion.
type NameValues struct {
	Name  string
	Stamp time.Time
}

type nameTemplate struct {
	tmpl *template.Template
}

func parseNameTemplate(text string) (*nameTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("output name template is empty")
	}
	funcMap := sprig.FuncMap()
	funcMap["slug"] = slug.Make

	tmpl, err := template.New(string(config.OutputNameTemplateFieldName)).Funcs(funcMap).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("unable to parse template field %s: %w", config.OutputNameTemplateFieldName, err)
	}
	return &nameTemplate{tmpl: tmpl}, nil
}

// expand returns relative file path. Every path segment is cleaned so
// expansion could not escape output directory.
func (t *nameTemplate) expand(name string, stamp time.Time) (string, error) {
	buf := new(bytes.Buffer)
	if err := t.tmpl.Execute(buf, NameValues{Name: name, Stamp: stamp}); err != nil {
		return "", fmt.Errorf("unable to expand output name: %w", err)
	}

	var segments []string
	for _, s := range strings.FieldsFunc(filepath.ToSlash(buf.String()), func(r rune) bool { return r == '/' }) {
		s = strings.TrimSpace(s)
		if s == "" || s == "." || s == ".." {
			continue
		}
		segments = append(segments, config.CleanFileName(s))
	}
	if len(segments) == 0 {
		return "", fmt.Errorf("output name template produced empty name")
	}
	return filepath.Join(segments...), nil
}
