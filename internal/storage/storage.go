package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ManifestFile is the name of the manifest inside the data directory.
const ManifestFile = "manifest.json"

// Entry describes one downloaded CSV file.
type Entry struct {
	FileName     string    `json:"file_name"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	SHA256       string    `json:"sha256"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Manifest is the set of known files keyed by file name.
type Manifest struct {
	Entries   map[string]*Entry `json:"entries"`
	UpdatedAt string            `json:"updated_at"`
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Entries: make(map[string]*Entry)}
}

// Storage handles the data directory and its manifest
type Storage struct {
	dataDir string
}

// New creates the data directory if needed and returns a Storage for it.
func New(dataDir string) (*Storage, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

func (s *Storage) manifestPath() string {
	return filepath.Join(s.dataDir, ManifestFile)
}

// LoadManifest reads the manifest, returning an empty one if none exists yet.
func (s *Storage) LoadManifest() (*Manifest, error) {
	data, err := os.ReadFile(s.manifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]*Entry)
	}

	return &m, nil
}

// SaveManifest writes the manifest to disk
func (s *Storage) SaveManifest(m *Manifest) error {
	m.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := os.WriteFile(s.manifestPath(), data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	return nil
}

// Record adds or replaces an entry and saves the manifest.
func (s *Storage) Record(entry *Entry) error {
	m, err := s.LoadManifest()
	if err != nil {
		return err
	}
	m.Entries[entry.FileName] = entry
	return s.SaveManifest(m)
}

// Files returns the paths of manifest entries that are still on disk,
// sorted by file name.
func (s *Storage) Files() ([]string, error) {
	m, err := s.LoadManifest()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(m.Entries))
	for name := range m.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(s.dataDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}
