package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"richcopy/common"
)

func TestFileStore_MissingFile(t *testing.T) {
	st, err := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	s, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !s.IsDefault() || s.ImageHandling != common.ImageHandlingEmbed {
		t.Errorf("Load() of missing file = %+v, want defaults", s)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	for _, name := range []string{"settings.yaml", "settings.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			st, err := NewFileStore(path)
			if err != nil {
				t.Fatalf("NewFileStore() error = %v", err)
			}

			s := Defaults()
			if err := s.AddProfile("mail", "styles/mail.css"); err != nil {
				t.Fatal(err)
			}
			if err := s.Select("mail"); err != nil {
				t.Fatal(err)
			}
			s.ImageHandling = common.ImageHandlingKeepReference

			if err := st.Save(s); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := st.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got.ActiveProfileName != "mail" {
				t.Errorf("ActiveProfileName = %q", got.ActiveProfileName)
			}
			if p, ok := got.Profile("mail"); !ok || p.Path != "styles/mail.css" {
				t.Errorf("Profile(mail) = %+v, %v", p, ok)
			}
			if got.ImageHandling != common.ImageHandlingKeepReference {
				t.Errorf("ImageHandling = %s", got.ImageHandling)
			}

			entries, err := os.ReadDir(filepath.Dir(path))
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("temporary files left behind: %v", entries)
			}
		})
	}
}

func TestFileStore_JSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.jsonc")
	content := `{
  // picked by hand
  "active_profile": "print",
  "profiles": [
    {"name": "print", "path": "print.css"}, /* trailing comma next */
  ],
  "image_handling": "keep-reference"
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	st, _ := NewFileStore(path)
	s, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.ActiveProfileName != "print" || len(s.Profiles) != 1 || s.ImageHandling.Embed() {
		t.Errorf("Load() = %+v", s)
	}
}

func TestFileStore_PartialFileMergedWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("profiles:\n  - name: a\n    path: a.css\n"), 0644); err != nil {
		t.Fatal(err)
	}

	st, _ := NewFileStore(path)
	s, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !s.IsDefault() || s.ActiveProfileName != DefaultProfileName {
		t.Errorf("ActiveProfileName = %q, want Default", s.ActiveProfileName)
	}
	if s.ImageHandling != common.ImageHandlingEmbed {
		t.Errorf("ImageHandling = %s, want embed", s.ImageHandling)
	}
}

func TestFileStore_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "unknown yaml field", file: "s.yaml", content: "colour: red\n"},
		{name: "bad image handling", file: "s.yaml", content: "image_handling: inline\n"},
		{name: "unknown json field", file: "s.json", content: `{"colour": "red"}`},
		{name: "broken json", file: "s.json", content: `{"profiles": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			st, _ := NewFileStore(path)
			_, err := st.Load()
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), "unable to decode settings") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
