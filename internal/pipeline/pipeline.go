package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pfrederiksen/ae-data/internal/config"
	"github.com/pfrederiksen/ae-data/internal/dataset"
	"github.com/pfrederiksen/ae-data/internal/fetcher"
	"github.com/pfrederiksen/ae-data/internal/logger"
	"github.com/pfrederiksen/ae-data/internal/scraper"
	"github.com/pfrederiksen/ae-data/internal/storage"
)

// Output describes one file written by the combine stage.
type Output struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// Summary reports what a run did.
type Summary struct {
	StartedAt   time.Time `json:"started_at"`
	Duration    string    `json:"duration"`
	Mode        string    `json:"mode"`
	Years       []string  `json:"years"`
	Pages       []string  `json:"pages"`
	FailedPages []string  `json:"failed_pages,omitempty"`
	Links       int       `json:"links"`
	Downloaded  int       `json:"downloaded"`
	InputFiles  int       `json:"input_files"`
	RowsRead    int       `json:"rows_read"`
	RowsDropped int       `json:"rows_dropped"`
	NoFiles     bool      `json:"no_files,omitempty"`
	Outputs     []Output  `json:"outputs"`
}

// Pipeline wires the stages together for one configuration.
type Pipeline struct {
	cfg     *config.Config
	scraper *scraper.Scraper
	fetcher *fetcher.Fetcher
	store   *storage.Storage
	out     io.Writer
	now     func() time.Time
}

// New prepares a pipeline. Progress lines are written to out. The data and
// output directories are created if they do not exist.
func New(cfg *config.Config, out io.Writer) (*Pipeline, error) {
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	sc := scraper.New(scraper.Options{
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		SkipProbe: !cfg.ShouldProbe(),
	})

	return &Pipeline{
		cfg:     cfg,
		scraper: sc,
		fetcher: fetcher.New(sc.Client(), cfg.RequestsPerSecond, store),
		store:   store,
		out:     out,
		now:     time.Now,
	}, nil
}

// Run executes the whole pipeline. The only stage errors it returns are
// download failures, storage failures, output write failures and
// cancellation of ctx. A cancelled run never writes outputs.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := p.now()
	summary := &Summary{
		StartedAt: start.UTC(),
		Mode:      p.cfg.Mode,
		Outputs:   []Output{},
	}

	if !p.cfg.SkipDownload {
		links := p.Discover(ctx, summary)
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("discovering CSV links: %w", err)
		}

		fmt.Fprintf(p.out, "Found %d CSV files to download.\n", len(links))
		summary.Links = len(links)

		if err := p.Download(ctx, links, summary); err != nil {
			return summary, err
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if err := p.Combine(summary); err != nil {
		return summary, err
	}

	summary.Duration = p.now().Sub(start).Round(time.Millisecond).String()
	logger.RecordTiming("run", p.now().Sub(start))
	return summary, nil
}

// Discover finds yearly pages and collects CSV links from each. Pages that
// fail to load are reported and skipped. It stops early once ctx is done.
func (p *Pipeline) Discover(ctx context.Context, summary *Summary) []scraper.CSVLink {
	summary.Years = p.cfg.YearLabels(p.now())
	summary.Pages = p.scraper.DiscoverYearlyPages(ctx, summary.Years)

	logger.Info("Discovered yearly pages", logger.Fields{
		"years": len(summary.Years),
		"pages": len(summary.Pages),
	})

	var links []scraper.CSVLink
	for _, page := range summary.Pages {
		found, err := p.scraper.ExtractCSVLinks(ctx, page)
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			fmt.Fprintf(p.out, "Failed to process %s: %v\n", page, err)
			logger.Error("Failed to process yearly page", logger.Fields{"url": page}, err)
			logger.IncrCounter("pages.failed")
			summary.FailedPages = append(summary.FailedPages, page)
			continue
		}

		logger.IncrCounter("pages.ok")
		logger.Debug("Extracted CSV links", logger.Fields{"url": page, "links": len(found)})
		links = append(links, found...)
	}

	return links
}

// Download fetches every link in order and stops at the first failure.
func (p *Pipeline) Download(ctx context.Context, links []scraper.CSVLink, summary *Summary) error {
	for _, link := range links {
		fmt.Fprintf(p.out, "Downloading %s...\n", link.URL)

		path, err := p.fetcher.Download(ctx, link.URL, p.store.Dir())
		if err != nil {
			logger.Error("Download failed", logger.Fields{"url": link.URL}, err)
			return fmt.Errorf("downloading CSV: %w", err)
		}

		logger.Debug("Downloaded CSV", logger.Fields{"url": link.URL, "path": path})
		summary.Downloaded++
	}
	return nil
}

func (p *Pipeline) inputFiles() ([]string, error) {
	if p.cfg.UseManifest {
		return p.store.Files()
	}
	return dataset.ListCSVFiles(p.store.Dir())
}

// Combine merges the cached CSV files and writes the outputs for the
// configured mode. An empty cache is reported and is not an error.
func (p *Pipeline) Combine(summary *Summary) error {
	files, err := p.inputFiles()
	if err != nil {
		return fmt.Errorf("listing input files: %w", err)
	}

	table, err := dataset.CombineFiles(files)
	if errors.Is(err, dataset.ErrNoFiles) {
		fmt.Fprintln(p.out, "No CSV files to combine.")
		logger.Warn("No CSV files to combine", logger.Fields{"data_dir": p.store.Dir()}, nil)
		summary.NoFiles = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("combining CSV files: %w", err)
	}

	summary.InputFiles = len(files)
	summary.RowsRead = table.Len()
	logger.SetGauge("rows.read", float64(table.Len()))

	if p.cfg.Mode == config.ModeCombined {
		return p.writeCombined(table, summary)
	}
	return p.writeNational(table, summary)
}

func (p *Pipeline) writeCombined(table *dataset.Table, summary *Summary) error {
	if err := p.write("combined", config.CombinedFile, table, summary); err != nil {
		return err
	}
	if p.cfg.XLSX {
		return p.writeWorkbook(summary, dataset.Sheet{Name: "Combined", Table: table})
	}
	return nil
}

func (p *Pipeline) writeNational(table *dataset.Table, summary *Summary) error {
	national, dropped, err := dataset.NormalizePeriods(table)
	if err != nil {
		return fmt.Errorf("normalizing periods: %w", err)
	}
	summary.RowsDropped = dropped

	ncl, err := dataset.FilterOrgCodes(national, p.cfg.OrgCodes)
	if err != nil {
		return fmt.Errorf("filtering org codes: %w", err)
	}

	if err := p.write("national", config.NationalFile, national, summary); err != nil {
		return err
	}
	if err := p.write("ncl", config.NCLFile, ncl, summary); err != nil {
		return err
	}

	if p.cfg.XLSX {
		return p.writeWorkbook(summary,
			dataset.Sheet{Name: "National", Table: national},
			dataset.Sheet{Name: "NCL", Table: ncl},
		)
	}
	return nil
}

func (p *Pipeline) write(name, file string, table *dataset.Table, summary *Summary) error {
	path := filepath.Join(p.cfg.OutputDir, file)
	if err := dataset.WriteCSV(path, table); err != nil {
		return fmt.Errorf("writing %s output: %w", name, err)
	}

	fmt.Fprintf(p.out, "Combined CSV saved to %s\n", path)
	logger.Info("Wrote output", logger.Fields{"name": name, "path": path, "rows": table.Len()})
	summary.Outputs = append(summary.Outputs, Output{Name: name, Path: path, Rows: table.Len()})
	return nil
}

func (p *Pipeline) writeWorkbook(summary *Summary, sheets ...dataset.Sheet) error {
	path := filepath.Join(p.cfg.OutputDir, config.WorkbookFile)
	if err := dataset.WriteXLSX(path, sheets...); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	fmt.Fprintf(p.out, "Workbook saved to %s\n", path)
	summary.Outputs = append(summary.Outputs, Output{Name: "workbook", Path: path, Rows: sheets[0].Table.Len()})
	return nil
}
