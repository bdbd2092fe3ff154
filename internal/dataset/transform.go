package dataset

import (
	"fmt"
	"sort"
	"time"

	"github.com/pfrederiksen/ae-data/internal/logger"
	"github.com/pfrederiksen/ae-data/internal/period"
)

// NormalizePeriods parses the Period column of every row, drops rows whose
// period is missing, a total, or unparseable, rewrites the remaining periods
// as YYYY-MM-DD (last day of the month) and sorts them newest first. Rows with
// equal periods keep their relative order. It returns the new table and the
// number of rows dropped.
func NormalizePeriods(t *Table) (*Table, int, error) {
	col := t.Column(PeriodColumn)
	if col < 0 {
		return nil, 0, fmt.Errorf("missing %q column", PeriodColumn)
	}

	type dated struct {
		date time.Time
		row  []string
	}

	kept := make([]dated, 0, len(t.Rows))
	dropped := 0
	for _, row := range t.Rows {
		raw := row[col]
		date, err := period.Normalize(raw)
		if err != nil {
			logger.Warn("Dropping row with unparseable period", logger.Fields{
				"raw": raw,
			}, err)
			dropped++
			continue
		}

		out := append([]string(nil), row...)
		out[col] = date.Format(period.Layout)
		kept = append(kept, dated{date: date, row: out})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].date.After(kept[j].date)
	})

	result := &Table{
		Header: append([]string(nil), t.Header...),
		Rows:   make([][]string, 0, len(kept)),
	}
	for _, d := range kept {
		result.Rows = append(result.Rows, d.row)
	}

	logger.AddCounter("rows.dropped", int64(dropped))
	return result, dropped, nil
}

// FilterOrgCodes keeps rows whose Org Code is in codes, preserving order.
func FilterOrgCodes(t *Table, codes []string) (*Table, error) {
	col := t.Column(OrgCodeColumn)
	if col < 0 {
		return nil, fmt.Errorf("missing %q column", OrgCodeColumn)
	}

	allowed := make(map[string]bool, len(codes))
	for _, c := range codes {
		allowed[c] = true
	}

	result := &Table{Header: append([]string(nil), t.Header...)}
	for _, row := range t.Rows {
		if allowed[row[col]] {
			result.Rows = append(result.Rows, row)
		}
	}
	return result, nil
}
