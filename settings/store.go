package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	yaml "gopkg.in/yaml.v3"

	"richcopy/misc"
)

// Store persists export settings.
type Store interface {
	// Load returns stored settings merged with defaults.
	Load() (*ExportSettings, error)
	Save(*ExportSettings) error
}

// FileStore keeps settings in a single file. Files with .json or .jsonc
// extension are JSON (comments allowed on read), anything else is YAML.
type FileStore struct {
	path string
}

// NewFileStore returns store for the path, empty path selects default
// location under user configuration directory.
func NewFileStore(path string) (*FileStore, error) {
	if len(path) == 0 {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("unable to locate user configuration directory: %w", err)
		}
		path = filepath.Join(dir, misc.GetAppName(), "settings.yaml")
	}
	return &FileStore{path: filepath.Clean(path)}, nil
}

func (st *FileStore) Path() string {
	return st.path
}

func (st *FileStore) isJSON() bool {
	switch strings.ToLower(filepath.Ext(st.path)) {
	case ".json", ".jsonc":
		return true
	}
	return false
}

func (st *FileStore) Load() (*ExportSettings, error) {
	s := Defaults()

	data, err := os.ReadFile(st.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read settings: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}

	if st.isJSON() {
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		err = dec.Decode(s)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(s)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to decode settings '%s': %w", st.path, err)
	}

	if len(s.ActiveProfileName) == 0 {
		s.ActiveProfileName = DefaultProfileName
	}
	if s.Profiles == nil {
		s.Profiles = []StyleProfile{}
	}
	return s, nil
}

// Save replaces settings file atomically.
func (st *FileStore) Save(s *ExportSettings) (err error) {
	var data []byte
	if st.isJSON() {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return fmt.Errorf("unable to encode settings: %w", err)
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("unable to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(st.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("unable to save settings: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to save settings: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("unable to save settings: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("unable to save settings: %w", err)
	}
	if err = os.Rename(tmp.Name(), st.path); err != nil {
		return fmt.Errorf("unable to save settings: %w", err)
	}
	return nil
}

