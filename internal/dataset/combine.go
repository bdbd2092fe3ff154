package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoFiles is returned when there is nothing to combine.
var ErrNoFiles = errors.New("no CSV files to combine")

// ListCSVFiles returns the paths of ".csv" files directly inside dir, sorted
// by name. Subdirectories are not searched.
func ListCSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// CombineFiles reads every file and concatenates them in the given order.
func CombineFiles(files []string) (*Table, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	tables := make([]*Table, 0, len(files))
	for _, path := range files {
		t, err := ReadCSV(path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	return Concat(tables...), nil
}

// CombineAll combines every CSV file in dir. It returns the table and the
// number of files read, or ErrNoFiles if the directory holds none.
func CombineAll(dir string) (*Table, int, error) {
	files, err := ListCSVFiles(dir)
	if err != nil {
		return nil, 0, err
	}

	t, err := CombineFiles(files)
	if err != nil {
		return nil, 0, err
	}
	return t, len(files), nil
}
