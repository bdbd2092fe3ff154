package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pfrederiksen/ae-data/internal/logger"
)

const (
	PeriodColumn  = "Period"
	OrgCodeColumn = "Org Code"
)

// ErrEmptyFile is returned when a CSV file has no header row.
var ErrEmptyFile = errors.New("csv file has no header row")

// Table is a header row plus data rows. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of a column by name, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ReadCSV parses a CSV file with a header row.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// Parse reads CSV data with a header row from r. Short rows are padded and
// long rows truncated to the header width, with a warning for each truncated
// row. Repeated header names get ".1", ".2", ... suffixes so no column is lost.
func Parse(r io.Reader) (*Table, error) {
	return parse(r, "")
}

func parse(r io.Reader, source string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	dedupeHeader(header)

	t := &Table{Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(t.Rows)+2, err)
		}

		if len(record) > len(header) {
			logger.Warn("Dropping cells beyond the header", logger.Fields{
				"file":    source,
				"row":     len(t.Rows) + 2,
				"columns": len(header),
				"cells":   len(record),
				"dropped": strings.Join(record[len(header):], ","),
			}, nil)
			logger.IncrCounter("rows.truncated")
		}

		row := make([]string, len(header))
		copy(row, record)
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// dedupeHeader renames repeated column names in place: the second "Total"
// becomes "Total.1", the third "Total.2", skipping names already in use.
func dedupeHeader(header []string) {
	counts := make(map[string]int, len(header))
	for i, col := range header {
		n := counts[col]
		for n > 0 {
			counts[col] = n + 1
			col = fmt.Sprintf("%s.%d", col, n)
			n = counts[col]
		}
		header[i] = col
		counts[col] = n + 1
	}
}

// WriteCSV writes the table with its header to path, replacing any existing file.
func WriteCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := Write(f, t); err != nil {
		f.Close() // nolint:errcheck
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return f.Close()
}

// Write encodes the table as CSV.
func Write(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// Concat stacks tables vertically. The result has the union of all columns
// in first-seen order; cells for columns a table lacks are empty.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	index := make(map[string]int)

	for _, t := range tables {
		for _, h := range t.Header {
			if _, ok := index[h]; !ok {
				index[h] = len(out.Header)
				out.Header = append(out.Header, h)
			}
		}
	}

	for _, t := range tables {
		positions := make([]int, len(t.Header))
		for i, h := range t.Header {
			positions[i] = index[h]
		}

		for _, src := range t.Rows {
			row := make([]string, len(out.Header))
			for i, v := range src {
				row[positions[i]] = v
			}
			out.Rows = append(out.Rows, row)
		}
	}

	return out
}
