// Package clipboard places finished HTML artifact into the system rich-text
// clipboard or one of the alternative sinks.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"richcopy/common"
)

// ErrClipboardUnavailable is returned when artifact could not be delivered.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

const artifactName = "artifact.html"

// Command is a platform command copying file into the clipboard. When Stdin
// is set the file is fed to command standard input.
type Command struct {
	Name  string
	Args  []string
	Stdin bool
}

// Runner executes command with artifact file path.
type Runner func(ctx context.Context, cmd Command, path string) error

type Options struct {
	Sink         common.ClipboardSink
	OutputDir    string
	NameTemplate string
	Sanitize     bool
}

type Writer struct {
	opts     Options
	name     *nameTemplate
	policy   *bluemonday.Policy
	run      Runner
	lookPath func(string) (string, error)
	getenv   func(string) string
	goos     string
	tempDir  string
	stdout   io.Writer
	log      *zap.Logger
}

type Option func(*Writer)

func WithRunner(r Runner) Option { return func(w *Writer) { w.run = r } }

func WithLookPath(f func(string) (string, error)) Option { return func(w *Writer) { w.lookPath = f } }

func WithEnv(f func(string) string) Option { return func(w *Writer) { w.getenv = f } }

func WithPlatform(goos string) Option { return func(w *Writer) { w.goos = goos } }

// WithTempDir sets base directory for scoped artifact files.
func WithTempDir(dir string) Option { return func(w *Writer) { w.tempDir = dir } }

func WithStdout(out io.Writer) Option { return func(w *Writer) { w.stdout = out } }

func New(opts Options, log *zap.Logger, options ...Option) (*Writer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Writer{
		opts:     opts,
		run:      execRunner,
		lookPath: exec.LookPath,
		getenv:   os.Getenv,
		goos:     runtime.GOOS,
		stdout:   os.Stdout,
		log:      log.Named("clipboard"),
	}
	for _, o := range options {
		o(w)
	}
	if !opts.Sink.IsValid() {
		return nil, fmt.Errorf("unknown clipboard sink: %s", opts.Sink)
	}
	if opts.Sink == common.ClipboardSinkFile {
		t, err := parseNameTemplate(opts.NameTemplate)
		if err != nil {
			return nil, err
		}
		w.name = t
	}
	if opts.Sanitize {
		w.policy = newPolicy()
	}
	return w, nil
}

// newPolicy keeps user generated content markup together with inline styles
// and embedded images.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style", "class").Globally()
	p.AllowDataURIImages()
	p.AllowURLSchemes("mailto", "http", "https", "file")
	return p
}

// Write delivers artifact. Document name is used by file sink to build
// destination name.
func (w *Writer) Write(ctx context.Context, name, artifact string) error {
	if w.policy != nil {
		before := len(artifact)
		artifact = w.policy.Sanitize(artifact)
		w.log.Debug("Sanitized artifact", zap.Int("before", before), zap.Int("after", len(artifact)))
	}

	switch w.opts.Sink {
	case common.ClipboardSinkStdout:
		if _, err := io.WriteString(w.stdout, artifact); err != nil {
			return fmt.Errorf("%w: %w", ErrClipboardUnavailable, err)
		}
		return nil
	case common.ClipboardSinkFile:
		return w.toFile(name, artifact)
	}
	return w.toClipboard(ctx, artifact)
}

func (w *Writer) toClipboard(ctx context.Context, artifact string) error {
	cmd, err := w.command()
	if err != nil {
		return err
	}
	return w.scoped(w.tempDir, artifact, func(path string) error {
		if err := w.run(ctx, cmd, path); err != nil {
			return fmt.Errorf("%w: %s failed: %w", ErrClipboardUnavailable, cmd.Name, err)
		}
		w.log.Debug("Copied artifact", zap.String("command", cmd.Name), zap.Int("size", len(artifact)))
		return nil
	})
}

// command picks first available platform command.
func (w *Writer) command() (Command, error) {
	candidates := Commands(w.goos, w.getenv)
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, err := w.lookPath(c.Name); err == nil {
			return c, nil
		}
		names = append(names, c.Name)
	}
	return Command{}, fmt.Errorf("%w: none of [%s] found", ErrClipboardUnavailable, strings.Join(names, ", "))
}

// Commands lists clipboard commands for the platform in order of preference.
// Artifact path placeholder is "{}".
func Commands(goos string, getenv func(string) string) []Command {
	switch goos {
	case "darwin":
		return []Command{{Name: "osascript", Args: []string{"-e", `set the clipboard to (read (POSIX file "{}") as «class HTML»)`}}}
	case "windows":
		return []Command{{Name: "powershell", Args: []string{"-NoProfile", "-NonInteractive", "-Command",
			"Set-Clipboard -AsHtml -Value (Get-Content -Raw -Encoding UTF8 -LiteralPath '{}')"}}}
	}
	var res []Command
	if getenv("WAYLAND_DISPLAY") != "" {
		res = append(res, Command{Name: "wl-copy", Args: []string{"--type", "text/html"}, Stdin: true})
	}
	return append(res, Command{Name: "xclip", Args: []string{"-selection", "clipboard", "-t", "text/html", "-i", "{}"}})
}

// scoped materializes artifact in its own temporary directory which exists
// only while fn runs.
func (w *Writer) scoped(base, artifact string, fn func(path string) error) error {
	dir, err := os.MkdirTemp(base, "richcopy-*")
	if err != nil {
		return fmt.Errorf("%w: unable to create scoped directory: %w", ErrClipboardUnavailable, err)
	}
	defer func() {
		if rerr := os.RemoveAll(dir); rerr != nil {
			w.log.Warn("Unable to remove scoped directory", zap.String("dir", dir), zap.Error(rerr))
		}
	}()

	path := filepath.Join(dir, artifactName)
	if err := os.WriteFile(path, []byte(artifact), 0600); err != nil {
		return fmt.Errorf("%w: unable to materialize artifact: %w", ErrClipboardUnavailable, err)
	}
	return fn(path)
}

// toFile writes artifact under template generated name. Artifact is
// materialized in scoped directory and moved into place so destination never
// holds partial content.
func (w *Writer) toFile(name, artifact string) error {
	dst, err := w.name.expand(name, time.Now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClipboardUnavailable, err)
	}
	if w.opts.OutputDir != "" {
		dst = filepath.Join(w.opts.OutputDir, dst)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: unable to create destination directory: %w", ErrClipboardUnavailable, err)
	}

	base := w.tempDir
	if base == "" {
		// rename does not work across file systems
		base = filepath.Dir(dst)
	}
	return w.scoped(base, artifact, func(path string) error {
		if err := os.Chmod(path, 0644); err != nil {
			return fmt.Errorf("%w: %w", ErrClipboardUnavailable, err)
		}
		if err := os.Rename(path, dst); err != nil {
			return fmt.Errorf("%w: unable to write '%s': %w", ErrClipboardUnavailable, dst, err)
		}
		w.log.Info("Artifact written", zap.String("file", dst))
		return nil
	})
}

// Helpers forked by xclip and wl-copy keep serving the selection after the
// command exits and inherit its descriptors, so output goes to a file rather
// than to a pipe runner would wait on.
const waitDelay = 2 * time.Second

func execRunner(ctx context.Context, cmd Command, path string) error {
	args := make([]string, len(cmd.Args))
	for i, a := range cmd.Args {
		args[i] = strings.ReplaceAll(a, "{}", path)
	}
	c := exec.CommandContext(ctx, cmd.Name, args...)
	if cmd.Stdin {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		c.Stdin = f
	}
	stderr, err := os.CreateTemp(filepath.Dir(path), "stderr-*")
	if err != nil {
		return err
	}
	defer func() {
		stderr.Close()
		os.Remove(stderr.Name())
	}()
	c.Stderr = stderr
	c.WaitDelay = waitDelay

	if err := c.Run(); err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		if out, rerr := os.ReadFile(stderr.Name()); rerr == nil {
			if msg := strings.TrimSpace(string(out)); msg != "" {
				return fmt.Errorf("%w: %s", err, msg)
			}
		}
		return err
	}
	return nil
}
