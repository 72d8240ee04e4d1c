package ol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultUserAgent is sent with Open Library requests unless configured otherwise, so the site
// can identify the tool and apply robots.txt rules or rate limits.
const DefaultUserAgent = "OpenLibraryExplorer/1.0 (+https://github.com/openlibrary-explorer)"

// SearchPath is the Search API path checked against robots.txt.
const SearchPath = "/search.json"

// RobotsRules holds disallow rules for a given user-agent (e.g. *).
// Path matching follows common practice: Disallow: /search forbids any path whose
// path component starts with /search (e.g. /search, /search.json, /search/authors).
type RobotsRules struct {
	disallowPrefixes []string
}

// Allowed returns false if the URL path is disallowed by the parsed robots.txt
// rules. Empty path or uninitialized rules are treated as allowed.
func (r *RobotsRules) Allowed(path string) bool {
	_, disallowed := r.Rule(path)
	return !disallowed
}

// Rule returns the Disallow prefix matching path, if any.
func (r *RobotsRules) Rule(path string) (string, bool) {
	if r == nil {
		return "", false
	}
	path = normalizePath(path)
	for _, prefix := range r.disallowPrefixes {
		if strings.HasPrefix(path, prefix) {
			return prefix, true
		}
	}
	return "", false
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}

// FetchRobots fetches robots.txt for the given base URL (e.g. https://openlibrary.org).
func FetchRobots(ctx context.Context, client *http.Client, baseURL string) ([]byte, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = "/robots.txt"
	u.RawQuery = ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &robotsFetchError{status: resp.StatusCode, url: u.String()}
	}
	return io.ReadAll(resp.Body)
}

type robotsFetchError struct {
	status int
	url    string
}

func (e *robotsFetchError) Error() string {
	return fmt.Sprintf("robots.txt fetch failed: status %d for %s", e.status, e.url)
}

// ParseRobots parses robots.txt body and returns rules for the given userAgent.
// A block matches "*" or the product token of userAgent ("OpenLibraryExplorer" for
// "OpenLibraryExplorer/1.0 (...)"). Disallow lines are collected; matching is prefix-based.
func ParseRobots(body []byte, userAgent string) *RobotsRules {
	r := &RobotsRules{}
	product, _, _ := strings.Cut(userAgent, "/")
	scanner := bufio.NewScanner(strings.NewReader(string(body)))
	var inMatchingBlock bool
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "user-agent:") {
			agent := strings.TrimSpace(line[len("user-agent:"):])
			match := agent == "*" || strings.EqualFold(agent, strings.TrimSpace(product))
			if match && !inMatchingBlock {
				inMatchingBlock = true
			} else {
				inMatchingBlock = false
			}
			continue
		}
		if inMatchingBlock && strings.HasPrefix(strings.ToLower(line), "disallow:") {
			path := strings.TrimSpace(line[len("disallow:"):])
			if path != "" {
				path = normalizePath(path)
				r.disallowPrefixes = append(r.disallowPrefixes, path)
			}
		}
	}
	return r
}
