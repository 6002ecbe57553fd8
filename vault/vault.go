// Package vault provides access to documents and media under a single content
// root. All paths handed out are slash separated and relative to the root,
// nothing outside of it can be reached.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

var ErrOutsideRoot = errors.New("path is outside of vault root")

// Asset is a concrete binary file inside vault.
type Asset struct {
	// Path is relative to the vault root.
	Path string
}

// Ext returns lower case extension without leading dot.
func (a Asset) Ext() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(a.Path), "."))
}

func (a Asset) Name() string {
	return path.Base(a.Path)
}

type Vault struct {
	root string
	fsys fs.FS
	log  *zap.Logger
}

// New opens vault at root directory.
func New(root string, log *zap.Logger) (*Vault, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("unable to open vault '%s': %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("unable to open vault '%s': %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("unable to open vault '%s': not a directory", root)
	}
	return &Vault{root: abs, fsys: os.DirFS(abs), log: log.Named("vault")}, nil
}

// Root returns absolute path of the vault directory.
func (v *Vault) Root() string {
	return v.root
}

// Rel converts document path to vault relative form. Absolute paths must be
// under the root, relative ones are taken as relative to the root already.
func (v *Vault) Rel(name string) (string, error) {
	if filepath.IsAbs(name) {
		rel, err := filepath.Rel(v.root, name)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
		}
		name = rel
	}
	name = path.Clean(filepath.ToSlash(name))
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
	}
	return name, nil
}

// Abs returns absolute OS path for vault relative path.
func (v *Vault) Abs(rel string) string {
	return filepath.Join(v.root, filepath.FromSlash(rel))
}

// Exists reports whether a regular file is present at path.
func (v *Vault) Exists(name string) bool {
	rel, err := v.Rel(name)
	if err != nil {
		return false
	}
	return v.isFile(rel)
}

func (v *Vault) ReadText(name string) (string, error) {
	rel, err := v.Rel(name)
	if err != nil {
		return "", err
	}
	data, err := fs.ReadFile(v.fsys, rel)
	if err != nil {
		return "", fmt.Errorf("unable to read '%s': %w", rel, err)
	}
	return string(data), nil
}

func (v *Vault) ReadBinary(a Asset) ([]byte, error) {
	if !fs.ValidPath(a.Path) {
		return nil, fmt.Errorf("%w: %s", ErrOutsideRoot, a.Path)
	}
	data, err := fs.ReadFile(v.fsys, a.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to read asset '%s': %w", a.Path, err)
	}
	return data, nil
}

func (v *Vault) isFile(rel string) bool {
	info, err := fs.Stat(v.fsys, rel)
	return err == nil && info.Mode().IsRegular()
}

// ResolveReference finds asset for raw reference as written in a document
// located at fromPath. Lookup order: next to the document, from the vault
// root, anywhere in the vault by file name (shallowest first).
func (v *Vault) ResolveReference(rawRef, fromPath string) (Asset, bool) {
	ref := strings.TrimSpace(norm.NFC.String(filepath.ToSlash(rawRef)))
	if len(ref) == 0 {
		return Asset{}, false
	}

	from, err := v.Rel(fromPath)
	if err != nil {
		from = "."
	}

	var candidates []string
	if !strings.HasPrefix(ref, "/") {
		candidates = append(candidates, path.Join(path.Dir(from), ref))
	}
	candidates = append(candidates, path.Clean(strings.TrimLeft(ref, "/")))

	for _, c := range candidates {
		if v.acceptable(c) {
			return Asset{Path: c}, true
		}
	}

	if strings.Contains(ref, "/") {
		return Asset{}, false
	}
	return v.search(ref)
}

func (v *Vault) acceptable(rel string) bool {
	if !fs.ValidPath(rel) || rel == "." {
		return false
	}
	if strings.EqualFold(path.Ext(rel), ".md") {
		return false
	}
	return v.isFile(rel)
}

func (v *Vault) search(name string) (Asset, bool) {
	matches, err := doublestar.Glob(v.fsys, "**/"+escapeMeta(name), doublestar.WithFilesOnly())
	if err != nil {
		v.log.Debug("Vault search failed", zap.String("name", name), zap.Error(err))
		return Asset{}, false
	}
	matches = slices.DeleteFunc(matches, func(m string) bool {
		return !v.acceptable(m)
	})
	if len(matches) == 0 {
		return Asset{}, false
	}
	slices.SortFunc(matches, func(a, b string) int {
		if da, db := strings.Count(a, "/"), strings.Count(b, "/"); da != db {
			return da - db
		}
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})
	if len(matches) > 1 {
		v.log.Debug("Ambiguous reference, using shallowest match", zap.String("name", name), zap.Strings("matches", matches))
	}
	return Asset{Path: matches[0]}, true
}

func escapeMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
