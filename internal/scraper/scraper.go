package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/pfrederiksen/ae-data/internal/logger"
)

const (
	BaseURL    = "https://www.england.nhs.uk/statistics/statistical-work-areas/ae-waiting-times-and-activity/"
	PagePrefix = "ae-attendances-and-emergency-admissions-"
	UserAgent  = "ae-data/1.0 (github.com/pfrederiksen/ae-data)"
	Timeout    = 30 * time.Second

	LinkTextPrefix = "Monthly A&E"
	CSVExtension   = ".csv"
)

// CSVLink is an anchor on a yearly page that points at a monthly CSV file.
type CSVLink struct {
	// Href is the attribute value exactly as it appears in the page.
	Href string `json:"href"`
	// Text is the trimmed anchor text.
	Text string `json:"text"`
	// URL is Href resolved against the page it was found on.
	URL string `json:"url"`
}

// HTTPError reports a non-2xx response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code: %d", e.Method, e.URL, e.StatusCode)
}

// ProbeResult explains the outcome of an existence check.
type ProbeResult struct {
	URL        string
	Exists     bool
	StatusCode int
	Err        error
}

// Options configures a Scraper. Zero values fall back to the package defaults.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// SkipProbe keeps every candidate yearly page without a HEAD request.
	SkipProbe bool
}

// Scraper fetches yearly index pages and extracts CSV links
type Scraper struct {
	client    *resty.Client
	baseURL   string
	skipProbe bool
}

// New creates a new Scraper instance
func New(opts Options) *Scraper {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = Timeout
	}

	client := resty.New()
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetTimeout(opts.Timeout)

	return &Scraper{
		client:    client,
		baseURL:   opts.BaseURL,
		skipProbe: opts.SkipProbe,
	}
}

// Client returns the underlying HTTP client so other stages can share its
// headers and timeout.
func (s *Scraper) Client() *resty.Client {
	return s.client
}

// YearlyPageURL returns the index page URL for a fiscal year label such as "2022-23".
func (s *Scraper) YearlyPageURL(label string) string {
	base := s.baseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + PagePrefix + label + "/"
}

// Probe issues a HEAD request and reports why a page does or does not exist.
func (s *Scraper) Probe(ctx context.Context, pageURL string) ProbeResult {
	result := ProbeResult{URL: pageURL}

	resp, err := s.client.R().SetContext(ctx).Head(pageURL)
	if err != nil {
		result.Err = fmt.Errorf("probing page: %w", err)
		return result
	}

	result.StatusCode = resp.StatusCode()
	result.Exists = resp.IsSuccess()
	if !result.Exists {
		result.Err = &HTTPError{Method: "HEAD", URL: pageURL, StatusCode: resp.StatusCode()}
	}
	return result
}

// URLExists reports whether a HEAD request to pageURL succeeds. Network
// errors and non-2xx statuses both count as "does not exist".
func (s *Scraper) URLExists(ctx context.Context, pageURL string) bool {
	result := s.Probe(ctx, pageURL)
	if !result.Exists {
		logger.Debug("Yearly page probe failed", logger.Fields{
			"url":    pageURL,
			"status": result.StatusCode,
			"error":  fmt.Sprint(result.Err),
		})
	}
	return result.Exists
}

// DiscoverYearlyPages builds one candidate URL per label and keeps those that
// exist, in label order. It returns what it has so far once ctx is done.
func (s *Scraper) DiscoverYearlyPages(ctx context.Context, labels []string) []string {
	pages := make([]string, 0, len(labels))
	for _, label := range labels {
		if ctx.Err() != nil {
			break
		}
		pageURL := s.YearlyPageURL(label)
		if s.skipProbe || s.URLExists(ctx, pageURL) {
			pages = append(pages, pageURL)
		}
	}
	return pages
}

// ExtractCSVLinks fetches a yearly page and returns its monthly CSV links.
func (s *Scraper) ExtractCSVLinks(ctx context.Context, pageURL string) ([]CSVLink, error) {
	resp, err := s.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &HTTPError{Method: "GET", URL: pageURL, StatusCode: resp.StatusCode()}
	}

	return parseCSVLinks(bytes.NewReader(resp.Body()), pageURL)
}

// parseCSVLinks extracts matching anchors from HTML
func parseCSVLinks(r io.Reader, pageURL string) ([]CSVLink, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL: %w", err)
	}

	links := make([]CSVLink, 0)
	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())

		if !strings.HasSuffix(href, CSVExtension) || !strings.HasPrefix(text, LinkTextPrefix) {
			return
		}

		link := CSVLink{Href: href, Text: text, URL: href}
		if ref, err := url.Parse(href); err == nil {
			link.URL = base.ResolveReference(ref).String()
		}
		links = append(links, link)
	})

	return links, nil
}
