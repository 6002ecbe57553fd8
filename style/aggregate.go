// Package style decides which CSS text governs rendering of an export:
// either user selected profile stylesheet or snapshot of all ambient theme
// rules.
package style

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"richcopy/settings"
)

var ErrSourceUnavailable = errors.New("style source unavailable")

// SourceError is returned when selected profile stylesheet cannot be used.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSourceUnavailable, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// Source gives access to profile stylesheets.
type Source interface {
	Exists(path string) bool
	ReadText(path string) (string, error)
}

// Sheet is a single active stylesheet of the ambient environment.
type Sheet interface {
	// Name identifies sheet in logs.
	Name() string
	// Rules returns text of every rule, fails when rules cannot be read.
	Rules() ([]string, error)
}

// Ambient enumerates currently active stylesheets in their order.
type Ambient interface {
	StyleSheets() []Sheet
}

type Aggregator struct {
	src     Source
	ambient Ambient
	log     *zap.Logger
}

func NewAggregator(src Source, ambient Ambient, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{src: src, ambient: ambient, log: log.Named("style")}
}

// Aggregate returns CSS text for the export. Named profile is used verbatim,
// missing or unreadable profile file is fatal. Unknown profile name and
// Default sentinel select ambient rules.
func (a *Aggregator) Aggregate(ctx context.Context, s *settings.ExportSettings) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if !s.IsDefault() {
		if p, ok := s.Profile(s.ActiveProfileName); ok {
			return a.profile(p)
		}
		a.log.Debug("Active profile not found, using ambient theme", zap.String("profile", s.ActiveProfileName))
	}
	return a.snapshot(ctx)
}

func (a *Aggregator) profile(p settings.StyleProfile) (string, error) {
	if !a.src.Exists(p.Path) {
		return "", &SourceError{Path: p.Path, Err: fs.ErrNotExist}
	}
	text, err := a.src.ReadText(p.Path)
	if err != nil {
		return "", &SourceError{Path: p.Path, Err: err}
	}
	a.log.Debug("Using profile stylesheet", zap.String("profile", p.Name), zap.String("path", p.Path), zap.Int("bytes", len(text)))
	return text, nil
}

func (a *Aggregator) snapshot(ctx context.Context) (string, error) {
	var parts []string
	for _, sheet := range a.ambient.StyleSheets() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rules, err := sheet.Rules()
		if err != nil {
			a.log.Debug("Skipping unreadable stylesheet", zap.String("sheet", sheet.Name()), zap.Error(err))
			continue
		}
		parts = append(parts, strings.Join(rules, "\n"))
	}
	a.log.Debug("Collected ambient rules", zap.Int("sheets", len(parts)))
	return strings.Join(parts, "\n\n"), nil
}
