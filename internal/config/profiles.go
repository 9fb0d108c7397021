package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/StampPaper/internal/model"
)

// DefaultProfilesPath returns the default file path for custom paper formats.
func DefaultProfilesPath() string {
	return filepath.Join(DefaultConfigDir(), "papers.toml")
}

type profileFile struct {
	Papers []model.PaperProfile `json:"papers" toml:"papers"`
}

// SaveCustomProfiles saves custom paper formats.
func SaveCustomProfiles(path string, profiles []model.PaperProfile) error {
	data, err := Encode(path, profileFile{Papers: profiles})
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// LoadCustomProfiles loads custom paper formats.
// Returns an empty slice if the file does not exist.
func LoadCustomProfiles(path string) ([]model.PaperProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.PaperProfile{}, nil
		}
		return nil, err
	}

	var f profileFile
	if err := decode(path, data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse paper formats %s: %w", path, err)
	}
	for i, p := range f.Papers {
		if p.Name == "" {
			return nil, fmt.Errorf("paper format %d in %s has no name", i, path)
		}
		if p.Width <= 0 || p.Height <= 0 {
			return nil, fmt.Errorf("paper format %s has invalid size %.1fx%.1f mm", p.Name, p.Width, p.Height)
		}
		f.Papers[i].IsBuiltIn = false
	}
	if f.Papers == nil {
		f.Papers = []model.PaperProfile{}
	}
	return f.Papers, nil
}
