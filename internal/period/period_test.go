package period

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantYear   int
		wantMonth  time.Month
		wantDay    int
		wantErr    error
		wantAnyErr bool
	}{
		{
			name:      "April has 30 days",
			raw:       "A-April-2022",
			wantYear:  2022,
			wantMonth: time.April,
			wantDay:   30,
		},
		{
			name:      "upper case month as published",
			raw:       "MSitAE-APRIL-2022",
			wantYear:  2022,
			wantMonth: time.April,
			wantDay:   30,
		},
		{
			name:      "leap year February",
			raw:       "MSitAE-February-2024",
			wantYear:  2024,
			wantMonth: time.February,
			wantDay:   29,
		},
		{
			name:      "non leap February",
			raw:       "MSitAE-FEB-2023",
			wantYear:  2023,
			wantMonth: time.February,
			wantDay:   28,
		},
		{
			name:      "December rolls into next year correctly",
			raw:       "MSitAE-DECEMBER-2019",
			wantYear:  2019,
			wantMonth: time.December,
			wantDay:   31,
		},
		{
			name:      "two digit year",
			raw:       "X-March-23",
			wantYear:  2023,
			wantMonth: time.March,
			wantDay:   31,
		},
		{
			name:    "total row",
			raw:     "TOTAL",
			wantErr: ErrTotal,
		},
		{
			name:    "total is case-insensitive",
			raw:     "MSitAE-Total-2022",
			wantErr: ErrTotal,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: ErrMissing,
		},
		{
			name:    "whitespace only",
			raw:     "   ",
			wantErr: ErrMissing,
		},
		{
			name:    "too few parts",
			raw:     "April-2022",
			wantErr: ErrMalformed,
		},
		{
			name:    "too many parts",
			raw:     "A-B-April-2022",
			wantErr: ErrMalformed,
		},
		{
			name:       "unknown month",
			raw:        "A-Smarch-2022",
			wantAnyErr: true,
		},
		{
			name:       "non numeric year",
			raw:        "A-April-twenty",
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)

			if tt.wantErr != nil || tt.wantAnyErr {
				if err == nil {
					t.Fatalf("Normalize(%q) = %v, want error", tt.raw, got)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("Normalize(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
				}
				if !got.IsZero() {
					t.Errorf("Normalize(%q) returned non-zero time on error: %v", tt.raw, got)
				}
				return
			}

			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.raw, err)
			}
			if got.Year() != tt.wantYear || got.Month() != tt.wantMonth || got.Day() != tt.wantDay {
				t.Errorf("Normalize(%q) = %s, want %04d-%02d-%02d",
					tt.raw, got.Format(Layout), tt.wantYear, tt.wantMonth, tt.wantDay)
			}
			if got.Location() != time.UTC {
				t.Errorf("Normalize(%q) location = %v, want UTC", tt.raw, got.Location())
			}
		})
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name string
		want time.Month
	}{
		{"January", time.January},
		{"jan", time.January},
		{"SEPT", time.September},
		{" may ", time.May},
		{"Smarch", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMonth(tt.name); got != tt.want {
				t.Errorf("ParseMonth(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestFiscalYearLabels(t *testing.T) {
	for _, r := range []struct{ start, end int }{
		{2015, 2024},
		{2022, 2022},
		{1998, 2001},
	} {
		labels := FiscalYearLabels(r.start, r.end)

		if len(labels) != r.end-r.start+1 {
			t.Fatalf("FiscalYearLabels(%d, %d) returned %d labels, want %d",
				r.start, r.end, len(labels), r.end-r.start+1)
		}

		for i, label := range labels {
			year := r.start + i
			parts := strings.Split(label, "-")
			if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
				t.Fatalf("label %q is not YYYY-YY", label)
			}
			if parts[0] != strconv.Itoa(year) {
				t.Errorf("label %q starts with %s, want %d", label, parts[0], year)
			}
			suffix, _ := strconv.Atoi(parts[1])
			if suffix != (year+1)%100 {
				t.Errorf("label %q suffix = %d, want %d", label, suffix, (year+1)%100)
			}
			if i > 0 && labels[i-1] >= label {
				t.Errorf("labels not strictly increasing: %q then %q", labels[i-1], label)
			}
		}
	}
}

func TestFiscalYearLabel_CenturyWrap(t *testing.T) {
	if got := FiscalYearLabel(1999); got != "1999-00" {
		t.Errorf("FiscalYearLabel(1999) = %q, want 1999-00", got)
	}
	if got := FiscalYearLabel(2022); got != "2022-23" {
		t.Errorf("FiscalYearLabel(2022) = %q, want 2022-23", got)
	}
}

func TestFiscalYearLabels_EmptyRange(t *testing.T) {
	if got := FiscalYearLabels(2025, 2024); len(got) != 0 {
		t.Errorf("FiscalYearLabels(2025, 2024) = %v, want empty", got)
	}
}
