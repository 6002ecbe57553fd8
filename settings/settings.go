// Package settings keeps user export settings: active style selection, user
// managed style profiles and image handling mode.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"richcopy/common"
)

// DefaultProfileName is a sentinel selecting ambient theme rules. It is
// never looked up among profiles.
const DefaultProfileName = "Default"

var (
	ErrEmptyName       = errors.New("profile name is empty")
	ErrReservedName    = fmt.Errorf("profile name %q is reserved", DefaultProfileName)
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileNotFound = errors.New("profile not found")
)

// StyleProfile is a named pointer to a stylesheet file relative to the vault
// root.
type StyleProfile struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// ExportSettings is read only input of every export.
type ExportSettings struct {
	ActiveProfileName string               `yaml:"active_profile" json:"active_profile"`
	Profiles          []StyleProfile       `yaml:"profiles" json:"profiles"`
	ImageHandling     common.ImageHandling `yaml:"image_handling" json:"image_handling"`
}

func Defaults() *ExportSettings {
	return &ExportSettings{
		ActiveProfileName: DefaultProfileName,
		Profiles:          []StyleProfile{},
		ImageHandling:     common.ImageHandlingEmbed,
	}
}

// IsDefault reports whether ambient theme is selected.
func (s *ExportSettings) IsDefault() bool {
	return s.ActiveProfileName == "" || s.ActiveProfileName == DefaultProfileName
}

// Profile looks up profile by name. When names are duplicated (hand edited
// file) first match wins.
func (s *ExportSettings) Profile(name string) (StyleProfile, bool) {
	if idx := s.index(name); idx >= 0 {
		return s.Profiles[idx], true
	}
	return StyleProfile{}, false
}

func (s *ExportSettings) index(name string) int {
	for i, p := range s.Profiles {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", ErrEmptyName
	case strings.EqualFold(name, DefaultProfileName):
		return "", ErrReservedName
	}
	return name, nil
}

// AddProfile appends new profile to the end of the list.
func (s *ExportSettings) AddProfile(name, path string) error {
	name, err := checkName(name)
	if err != nil {
		return err
	}
	if s.index(name) >= 0 {
		return fmt.Errorf("%w: %s", ErrProfileExists, name)
	}
	s.Profiles = append(s.Profiles, StyleProfile{Name: name, Path: strings.TrimSpace(path)})
	return nil
}

// RemoveProfile deletes profile, removing active profile resets selection to
// Default.
func (s *ExportSettings) RemoveProfile(name string) error {
	idx := s.index(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	s.Profiles = append(s.Profiles[:idx], s.Profiles[idx+1:]...)
	if s.ActiveProfileName == name && s.index(name) < 0 {
		s.ActiveProfileName = DefaultProfileName
	}
	return nil
}

// RenameProfile changes profile name, selection follows the renamed profile.
func (s *ExportSettings) RenameProfile(oldName, newName string) error {
	idx := s.index(oldName)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, oldName)
	}
	newName, err := checkName(newName)
	if err != nil {
		return err
	}
	if newName == oldName {
		return nil
	}
	if s.index(newName) >= 0 {
		return fmt.Errorf("%w: %s", ErrProfileExists, newName)
	}
	s.Profiles[idx].Name = newName
	if s.ActiveProfileName == oldName {
		s.ActiveProfileName = newName
	}
	return nil
}

func (s *ExportSettings) SetProfilePath(name, path string) error {
	idx := s.index(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	s.Profiles[idx].Path = strings.TrimSpace(path)
	return nil
}

// Select makes named profile active. Default is always selectable.
func (s *ExportSettings) Select(name string) error {
	if name == DefaultProfileName {
		s.ActiveProfileName = DefaultProfileName
		return nil
	}
	if s.index(name) < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	s.ActiveProfileName = name
	return nil
}

func (s *ExportSettings) SetImageHandling(mode common.ImageHandling) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: %s", common.ErrInvalidImageHandling, mode)
	}
	s.ImageHandling = mode
	return nil
}

// Clone returns deep copy, so export never observes later mutations.
func (s *ExportSettings) Clone() *ExportSettings {
	c := *s
	c.Profiles = append([]StyleProfile(nil), s.Profiles...)
	return &c
}
