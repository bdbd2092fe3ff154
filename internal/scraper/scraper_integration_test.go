package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const yearlyPage = `
<html>
	<body>
		<h2>Monthly statistics</h2>
		<ul>
			<li><a href="/files/MSitAE-April-2022.csv">Monthly A&amp;E April 2022 (CSV, 200KB)</a></li>
			<li><a href="/files/MSitAE-April-2022.xls">Monthly A&amp;E April 2022 (XLS, 400KB)</a></li>
			<li><a href="/files/MSitAE-May-2022.csv">Monthly A&amp;E May 2022 (CSV, 201KB)</a></li>
			<li><a href="/files/Quarterly.csv">Quarterly A&amp;E (CSV)</a></li>
		</ul>
	</body>
</html>
`

func TestExtractCSVLinks(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
		wantError  bool
		wantLinks  int
	}{
		{
			name:       "successful fetch with links",
			body:       yearlyPage,
			statusCode: http.StatusOK,
			wantLinks:  2,
		},
		{
			name:       "HTTP error",
			statusCode: http.StatusNotFound,
			wantError:  true,
		},
		{
			name:       "server error",
			statusCode: http.StatusInternalServerError,
			wantError:  true,
		},
		{
			name:       "empty page",
			body:       `<html><body><p>No files</p></body></html>`,
			statusCode: http.StatusOK,
			wantLinks:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "ae-data") {
					t.Errorf("User-Agent = %q, should contain 'ae-data'", ua)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body)) // nolint:errcheck
			}))
			defer server.Close()

			s := New(Options{BaseURL: server.URL})
			links, err := s.ExtractCSVLinks(context.Background(), server.URL+"/page/")

			if tt.wantError {
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("ExtractCSVLinks() error = %v, want *HTTPError", err)
				}
				if httpErr.StatusCode != tt.statusCode {
					t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, tt.statusCode)
				}
				return
			}

			if err != nil {
				t.Fatalf("ExtractCSVLinks() unexpected error: %v", err)
			}
			if len(links) != tt.wantLinks {
				t.Fatalf("got %d links, want %d", len(links), tt.wantLinks)
			}
			for _, link := range links {
				if !strings.HasPrefix(link.URL, server.URL+"/files/") {
					t.Errorf("URL = %q, want absolute URL on test server", link.URL)
				}
			}
		})
	}
}

func TestDiscoverYearlyPages(t *testing.T) {
	existing := map[string]bool{
		"/ae-attendances-and-emergency-admissions-2021-22/": true,
		"/ae-attendances-and-emergency-admissions-2023-24/": true,
	}

	var heads int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		heads++
		if existing[r.URL.Path] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := New(Options{BaseURL: server.URL + "/"})
	labels := []string{"2021-22", "2022-23", "2023-24", "2024-25"}

	pages := s.DiscoverYearlyPages(context.Background(), labels)

	want := []string{
		server.URL + "/ae-attendances-and-emergency-admissions-2021-22/",
		server.URL + "/ae-attendances-and-emergency-admissions-2023-24/",
	}
	if len(pages) != len(want) {
		t.Fatalf("got %d pages, want %d: %v", len(pages), len(want), pages)
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Errorf("pages[%d] = %q, want %q", i, pages[i], want[i])
		}
	}
	if heads != len(labels) {
		t.Errorf("HEAD requests = %d, want %d", heads, len(labels))
	}
}

func TestDiscoverYearlyPages_SkipProbe(t *testing.T) {
	s := New(Options{BaseURL: "http://127.0.0.1:0/", SkipProbe: true})

	pages := s.DiscoverYearlyPages(context.Background(), []string{"2015-16", "2016-17"})
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2 without probing", len(pages))
	}
}

func TestDiscoverYearlyPages_Cancelled(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(Options{BaseURL: server.URL + "/"})
	pages := s.DiscoverYearlyPages(ctx, []string{"2021-22", "2022-23"})

	if len(pages) != 0 {
		t.Errorf("pages = %v, want none after cancellation", pages)
	}
	if requests != 0 {
		t.Errorf("requests = %d, want 0", requests)
	}
}

func TestURLExists_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	s := New(Options{BaseURL: addr})
	if s.URLExists(context.Background(), addr+"/gone/") {
		t.Error("URLExists() = true for closed server, want false")
	}

	result := s.Probe(context.Background(), addr+"/gone/")
	if result.Exists || result.Err == nil {
		t.Errorf("Probe() = %+v, want not existing with error", result)
	}
	if result.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport failure", result.StatusCode)
	}
}

func TestProbe_StatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s := New(Options{BaseURL: server.URL})
	result := s.Probe(context.Background(), server.URL+"/x/")

	if result.Exists {
		t.Error("Exists = true for 403")
	}
	if result.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", result.StatusCode)
	}
	var httpErr *HTTPError
	if !errors.As(result.Err, &httpErr) || httpErr.Method != "HEAD" {
		t.Errorf("Err = %v, want HEAD *HTTPError", result.Err)
	}
}
