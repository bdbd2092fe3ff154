package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pfrederiksen/ae-data/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	*pipeline.Summary
	Metrics map[string]interface{} `json:"metrics,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// writeText outputs results as human-readable tables
func writeText(w io.Writer, result *OutputResult) error {
	s := result.Summary

	fmt.Fprintln(w)
	t := newTable(w)
	t.SetTitle("Run summary (" + s.Mode + ")")
	if len(s.Years) > 0 {
		t.AppendRow(table.Row{"Fiscal years", fmt.Sprintf("%s to %s (%d)", s.Years[0], s.Years[len(s.Years)-1], len(s.Years))})
		t.AppendRow(table.Row{"Yearly pages", len(s.Pages)})
		t.AppendRow(table.Row{"Failed pages", len(s.FailedPages)})
		t.AppendRow(table.Row{"CSV links", s.Links})
		t.AppendRow(table.Row{"Downloaded", s.Downloaded})
	}
	t.AppendRow(table.Row{"Input files", s.InputFiles})
	t.AppendRow(table.Row{"Rows read", s.RowsRead})
	t.AppendRow(table.Row{"Rows dropped", s.RowsDropped})
	if s.Duration != "" {
		t.AppendRow(table.Row{"Duration", s.Duration})
	}
	t.Render()

	if s.NoFiles {
		fmt.Fprintln(w, "No output written: the data directory has no CSV files.")
		return nil
	}

	if len(s.Outputs) > 0 {
		fmt.Fprintln(w)
		o := newTable(w)
		o.AppendHeader(table.Row{"Output", "Rows", "Path"})
		for _, out := range s.Outputs {
			o.AppendRow(table.Row{out.Name, out.Rows, out.Path})
		}
		o.Render()
	}

	if len(result.Metrics) > 0 {
		fmt.Fprintln(w)
		writeMetrics(w, result.Metrics)
	}
	return nil
}

func writeMetrics(w io.Writer, metrics map[string]interface{}) {
	counters, _ := metrics["counters"].(map[string]int64)
	if len(counters) == 0 {
		return
	}

	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)

	m := newTable(w)
	m.AppendHeader(table.Row{"Counter", "Value"})
	for _, name := range names {
		m.AppendRow(table.Row{name, strconv.FormatInt(counters[name], 10)})
	}
	m.Render()
}
