package configure

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap/zaptest"

	"richcopy/common"
	"richcopy/settings"
	"richcopy/state"
)

func newEnv(t *testing.T) (context.Context, *state.LocalEnv, *settings.FileStore) {
	t.Helper()
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = zaptest.NewLogger(t)

	store, err := settings.NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	env.Store = store
	env.Settings = settings.Defaults()
	return ctx, env, store
}

func run(ctx context.Context, args ...string) error {
	app := &cli.Command{
		Name: "richcopy",
		Commands: []*cli.Command{
			{Name: "list", Action: ListProfiles},
			{Name: "add", Action: AddProfile},
			{Name: "remove", Action: RemoveProfile},
			{Name: "rename", Action: RenameProfile},
			{Name: "path", Action: SetProfilePath},
			{Name: "select", Action: SelectProfile},
			{Name: "embed", Action: Images(common.ImageHandlingEmbed)},
			{Name: "keep-reference", Action: Images(common.ImageHandlingKeepReference)},
		},
	}
	return app.Run(ctx, append([]string{"richcopy"}, args...))
}

func TestCommands_Persisted(t *testing.T) {
	ctx, env, store := newEnv(t)

	steps := [][]string{
		{"add", "Work", "styles/work.css"},
		{"add", "Plain", "plain.css"},
		{"select", "Work"},
		{"rename", "Work", "Office"},
		{"path", "Plain", "styles/plain.css"},
		{"keep-reference"},
	}
	for _, s := range steps {
		if err := run(ctx, s...); err != nil {
			t.Fatalf("%v: error = %v", s, err)
		}
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, s := range []*settings.ExportSettings{env.Settings, loaded} {
		if s.ActiveProfileName != "Office" {
			t.Errorf("active profile = %q", s.ActiveProfileName)
		}
		if p, ok := s.Profile("Plain"); !ok || p.Path != "styles/plain.css" {
			t.Errorf("Plain profile = %+v, %v", p, ok)
		}
		if s.ImageHandling != common.ImageHandlingKeepReference {
			t.Errorf("image handling = %s", s.ImageHandling)
		}
	}

	if err := run(ctx, "remove", "Office"); err != nil {
		t.Fatalf("remove error = %v", err)
	}
	if !env.Settings.IsDefault() {
		t.Errorf("removing active profile must select Default, got %q", env.Settings.ActiveProfileName)
	}
}

func TestCommands_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "duplicate", args: []string{"add", "Work", "b.css"}, wantErr: settings.ErrProfileExists},
		{name: "reserved", args: []string{"add", "Default", "b.css"}, wantErr: settings.ErrReservedName},
		{name: "select unknown", args: []string{"select", "Nope"}, wantErr: settings.ErrProfileNotFound},
		{name: "rename unknown", args: []string{"rename", "Nope", "Other"}, wantErr: settings.ErrProfileNotFound},
		{name: "missing argument", args: []string{"add", "Solo"}},
		{name: "extra argument", args: []string{"remove", "Work", "Other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, env, _ := newEnv(t)
			if err := run(ctx, "add", "Work", "a.css"); err != nil {
				t.Fatal(err)
			}
			before := env.Settings

			err := run(ctx, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if env.Settings != before {
				t.Error("settings replaced after failed command")
			}
		})
	}
}

func TestCommands_SaveFailureKeepsSettings(t *testing.T) {
	ctx, env, _ := newEnv(t)

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	store, err := settings.NewFileStore(filepath.Join(blocker, "settings.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	env.Store = store

	if err := run(ctx, "add", "Work", "a.css"); err == nil {
		t.Fatal("expected save error")
	}
	if len(env.Settings.Profiles) != 0 {
		t.Errorf("settings changed although save failed: %+v", env.Settings.Profiles)
	}
}

func TestListProfiles(t *testing.T) {
	ctx, _, _ := newEnv(t)

	var buf bytes.Buffer
	out = &buf
	t.Cleanup(func() { out = os.Stdout })

	if err := run(ctx, "add", "Work", "styles/work.css"); err != nil {
		t.Fatal(err)
	}
	if err := run(ctx, "list"); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{"* Default\t(ambient theme)\n", "  Work\tstyles/work.css\n", "images: embed\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("listing does not contain %q:\n%s", want, got)
		}
	}

	buf.Reset()
	if err := run(ctx, "select", "Work"); err != nil {
		t.Fatal(err)
	}
	if err := run(ctx, "list"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "* Work\t") || !strings.Contains(buf.String(), "  Default\t") {
		t.Errorf("selection is not marked:\n%s", buf.String())
	}
}
