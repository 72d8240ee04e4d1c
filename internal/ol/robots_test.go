package ol

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const openLibraryRobots = `
User-agent: *
Disallow: /api
Disallow: /edit
Disallow: /search

User-agent: Googlebot
Crawl-delay: 10
`

func TestParseRobots_Allowed(t *testing.T) {
	r := ParseRobots([]byte(openLibraryRobots), DefaultUserAgent)

	for _, path := range []string{"/works/OL1W.json", "/authors/OL1A.json", "books/OL1M.json"} {
		if !r.Allowed(path) {
			t.Errorf("expected path %q to be allowed", path)
		}
	}
	for _, path := range []string{"/search", SearchPath, "/search/authors", "/api/books", "/edit"} {
		if r.Allowed(path) {
			t.Errorf("expected path %q to be disallowed", path)
		}
	}
	if rule, ok := r.Rule(SearchPath); !ok || rule != "/search" {
		t.Fatalf("unexpected rule for %s: %q %v", SearchPath, rule, ok)
	}
}

func TestParseRobots_ProductToken(t *testing.T) {
	body := "User-agent: OpenLibraryExplorer\nDisallow: /private\n"
	r := ParseRobots([]byte(body), DefaultUserAgent)
	if r.Allowed("/private/x") {
		t.Fatal("expected product-token block to apply")
	}
	other := ParseRobots([]byte(body), "SomeoneElse/2.0")
	if !other.Allowed("/private/x") {
		t.Fatal("expected block for another agent to be ignored")
	}
}

func TestParseRobots_NilEmptyAllowed(t *testing.T) {
	var r *RobotsRules
	if !r.Allowed("/anything") {
		t.Error("nil rules should allow all")
	}
	empty := ParseRobots([]byte("User-agent: *\n"), DefaultUserAgent)
	if !empty.Allowed("/search") {
		t.Error("empty disallow list should allow all")
	}
}

func TestClientRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(openLibraryRobots))
	}))
	t.Cleanup(srv.Close)

	client := NewClientWithHTTP(srv.Client(), Options{BaseURL: srv.URL})
	rules, err := client.Robots(context.Background())
	if err != nil {
		t.Fatalf("Robots error: %v", err)
	}
	if rules.Allowed(SearchPath) {
		t.Fatal("expected search path to be disallowed")
	}
}

func TestFetchRobotsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	if _, err := FetchRobots(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("expected error for missing robots.txt")
	}
}
