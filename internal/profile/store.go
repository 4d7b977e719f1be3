package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^\w\-.]`)

// SanitizeName maps a display name onto a filesystem-safe stem.
func SanitizeName(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// Store persists one JSON document per profile, keyed by sanitized name.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.dir, SanitizeName(name)+".json")
}

func (s *Store) Save(p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create profile dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.pathFor(p.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write profile %q: %w", p.Name, err)
	}
	return nil
}

func (s *Store) Load(name string) (*Profile, error) {
	data, err := os.ReadFile(s.pathFor(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %q: %w", name, err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %q: %w", name, err)
	}
	return &p, nil
}

// List returns every saved profile, skipping files that fail to parse.
func (s *Store) List() ([]*Profile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var profiles []*Profile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var p Profile
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		profiles = append(profiles, &p)
	}
	return profiles, nil
}

// Delete removes a saved profile. Deleting a missing profile is a no-op.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.pathFor(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
