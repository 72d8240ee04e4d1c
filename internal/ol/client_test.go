package ol

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"openlibrary-explorer/internal/models"
)

func TestSearchURL(t *testing.T) {
	q := models.Query{Text: "lord of the rings", Facet: models.FacetTitles, Limit: 150, TopWords: 10}
	raw := SearchURL("https://openlibrary.org/", q)

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid url %q: %v", raw, err)
	}
	if u.Host != "openlibrary.org" || u.Path != "/search.json" {
		t.Fatalf("unexpected url: %s", raw)
	}
	params := u.Query()
	if got := params.Get("title"); got != `"lord of the rings"` {
		t.Fatalf("unexpected title param: %q", got)
	}
	if got := params.Get("fields"); got != SearchFields {
		t.Fatalf("unexpected fields: %q", got)
	}
	if got := params.Get("limit"); got != "150" {
		t.Fatalf("unexpected limit: %q", got)
	}
	if params.Has("q") {
		t.Fatal("did not expect q param for a title search")
	}
}

func TestSearchURLFacets(t *testing.T) {
	for _, facet := range models.Facets {
		q := models.Query{Text: "x", Facet: facet, Limit: 100, TopWords: 1}
		u, err := url.Parse(SearchURL(DefaultBaseURL, q))
		if err != nil {
			t.Fatalf("invalid url: %v", err)
		}
		if !u.Query().Has(facet.Param()) {
			t.Fatalf("expected %s param for facet %s", facet.Param(), facet)
		}
	}
}

func TestClientSearch(t *testing.T) {
	var gotAgent, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query().Get("author")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"docs":[]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClientWithHTTP(srv.Client(), Options{BaseURL: srv.URL, RequestsPerSecond: 100, Burst: 2})
	body, err := client.Search(context.Background(), models.Query{Text: "tolkien", Facet: models.FacetAuthors, Limit: 100, TopWords: 10})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if string(body) != `{"docs":[]}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if gotAgent != DefaultUserAgent {
		t.Fatalf("unexpected user agent: %q", gotAgent)
	}
	if gotQuery != `"tolkien"` {
		t.Fatalf("unexpected author param: %q", gotQuery)
	}
}

func TestClientSearchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client := NewClientWithHTTP(srv.Client(), Options{BaseURL: srv.URL, UserAgent: "test-agent/0"})
	_, err := client.Search(context.Background(), models.Query{Text: "x", Facet: models.FacetAnywhere, Limit: 100, TopWords: 1})
	if err == nil {
		t.Fatal("expected error for 429")
	}
	if !IsRateLimited(err) {
		t.Fatalf("expected rate-limit error, got %v", err)
	}
}

func TestClientSearchCanceled(t *testing.T) {
	client := NewClientWithHTTP(http.DefaultClient, Options{BaseURL: "http://127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Search(ctx, models.Query{Text: "x", Facet: models.FacetAnywhere, Limit: 100, TopWords: 1}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestNewHTTPClientInvalidProxy(t *testing.T) {
	if _, err := NewHTTPClient(Options{ProxyURL: "://bad"}); err == nil {
		t.Fatal("expected error for invalid proxy url")
	}
	c, err := NewHTTPClient(Options{ProxyURL: "http://proxy.local:3128"})
	if err != nil {
		t.Fatalf("NewHTTPClient error: %v", err)
	}
	if c.Timeout != defaultTotalTimeout {
		t.Fatalf("unexpected timeout: %s", c.Timeout)
	}
}
