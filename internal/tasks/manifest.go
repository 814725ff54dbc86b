package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/shared"
	"gopkg.in/yaml.v3"
)

// UploadManifest describes a batch upload in YAML:
//
//	defaults:
//	  category: landscape
//	files:
//	  - path: sunset.jpg
//	    title: Sunset
//	    tags: sea,sun
type UploadManifest struct {
	Defaults models.PhotoMetadata `yaml:"defaults"`
	Files    []ManifestEntry      `yaml:"files"`
}

// ManifestEntry is one file of an [UploadManifest]; empty metadata fields inherit the defaults.
type ManifestEntry struct {
	Path                 string `yaml:"path"`
	models.PhotoMetadata `yaml:",inline"`
}

// LoadManifest reads an upload manifest. Relative file paths resolve against the manifest's directory.
func LoadManifest(path string) (*UploadManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m UploadManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: failed to parse manifest: %v", shared.ErrInvalidInput, err)
	}
	if len(m.Files) == 0 {
		return nil, fmt.Errorf("%w: manifest lists no files", shared.ErrInvalidInput)
	}

	base := filepath.Dir(path)
	for i := range m.Files {
		f := &m.Files[i]
		f.Path = strings.TrimSpace(f.Path)
		if f.Path == "" {
			return nil, fmt.Errorf("%w: manifest entry %d has no path", shared.ErrInvalidInput, i+1)
		}
		if !filepath.IsAbs(f.Path) {
			f.Path = filepath.Join(base, f.Path)
		}
		f.PhotoMetadata = mergeMetadata(f.PhotoMetadata, m.Defaults)
	}
	return &m, nil
}

// Paths lists the manifest's files in order.
func (m *UploadManifest) Paths() []string {
	paths := make([]string, len(m.Files))
	for i, f := range m.Files {
		paths[i] = f.Path
	}
	return paths
}

// Metadata returns the merged metadata for path, which may be relative or absolute.
func (m *UploadManifest) Metadata(path string) models.PhotoMetadata {
	want := absPath(path)
	for _, f := range m.Files {
		if absPath(f.Path) == want {
			return f.PhotoMetadata
		}
	}
	return m.Defaults
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func mergeMetadata(m, defaults models.PhotoMetadata) models.PhotoMetadata {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}
	return models.PhotoMetadata{
		Title:       pick(m.Title, defaults.Title),
		Description: pick(m.Description, defaults.Description),
		Camera:      pick(m.Camera, defaults.Camera),
		Settings:    pick(m.Settings, defaults.Settings),
		Category:    pick(m.Category, defaults.Category),
		Tags:        pick(m.Tags, defaults.Tags),
	}
}
