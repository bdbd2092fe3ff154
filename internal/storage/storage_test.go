package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadManifest_Missing(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	m, err := store.LoadManifest()
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Entries == nil || len(m.Entries) != 0 {
		t.Errorf("expected empty initialized manifest, got %+v", m)
	}
}

func TestRecordAndFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	for _, name := range []string{"b.csv", "a.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("Period\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := store.Record(&Entry{
			FileName:     name,
			URL:          "https://example.com/" + name,
			Size:         7,
			DownloadedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("Record(%s) error = %v", name, err)
		}
	}

	// Recorded but since removed from disk.
	if err := store.Record(&Entry{FileName: "gone.csv"}); err != nil {
		t.Fatal(err)
	}

	// Present on disk but never recorded.
	if err := os.WriteFile(filepath.Join(dir, "stray.csv"), []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := store.Files()
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}

	want := []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")}
	if len(files) != len(want) {
		t.Fatalf("Files() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestRecord_Replaces(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Record(&Entry{FileName: "x.csv", SHA256: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(&Entry{FileName: "x.csv", SHA256: "new"}); err != nil {
		t.Fatal(err)
	}

	m, err := store.LoadManifest()
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(m.Entries))
	}
	if m.Entries["x.csv"].SHA256 != "new" {
		t.Errorf("SHA256 = %q, want new", m.Entries["x.csv"].SHA256)
	}
	if m.UpdatedAt == "" {
		t.Error("UpdatedAt should be set on save")
	}
}

func TestLoadManifest_Corrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.LoadManifest(); err == nil {
		t.Error("LoadManifest() expected error for corrupt file")
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if store.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", store.Dir(), dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("data directory not created: %v", err)
	}
}
