package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// QuerySpec is one dashboard query to submit.
type QuerySpec struct {
	Text    string `json:"text"`
	Space   string `json:"space,omitempty"`
	Matches int    `json:"matches,omitempty"`
	Top     int    `json:"top,omitempty"`
}

// Config holds the queries to submit to the dashboard API.
type Config struct {
	Queries []QuerySpec `json:"queries"`
}

func main() {
	configPath := flag.String("config", "queries.json", "Path to JSON config file with queries")
	apiBase := flag.String("api", "http://localhost:8080", "Dashboard base URL")
	flag.Parse()

	if err := run(*configPath, *apiBase, nil); err != nil {
		logrus.Fatal(err)
	}
}

// run loads config from configPath, parses apiBase, and submits all queries concurrently.
// Identical queries warm the dashboard's response cache. If client is nil, a default HTTP
// client (60s timeout) is used.
func run(configPath, apiBase string, client *http.Client) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	baseURL, err := url.Parse(apiBase)
	if err != nil {
		return err
	}

	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	var wg sync.WaitGroup
	for i, q := range cfg.Queries {
		wg.Add(1)
		go func(idx int, q QuerySpec) {
			defer wg.Done()
			submitQuery(client, baseURL, idx, q)
		}(i, q)
	}
	wg.Wait()
	logrus.Infof("submitted %d queries", len(cfg.Queries))
	return nil
}

// loadConfig reads and parses the JSON config file.
func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Queries) == 0 {
		return cfg, errNoQueries
	}
	return cfg, nil
}

var errNoQueries = fmt.Errorf("config has no queries")

func searchParams(q QuerySpec) url.Values {
	params := url.Values{"q": {q.Text}}
	if q.Space != "" {
		params.Set("space", q.Space)
	}
	if q.Matches > 0 {
		params.Set("matches", strconv.Itoa(q.Matches))
	}
	if q.Top > 0 {
		params.Set("top", strconv.Itoa(q.Top))
	}
	return params
}

func submitQuery(client *http.Client, base *url.URL, idx int, q QuerySpec) {
	u := *base
	u.Path = "/api/search"
	u.RawQuery = searchParams(q).Encode()

	log := logrus.WithFields(logrus.Fields{"idx": idx, "query": q.Text, "space": q.Space})
	start := time.Now()
	resp, err := client.Get(u.String())
	if err != nil {
		log.WithError(err).Warn("query failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Warn("query rejected")
		return
	}
	log.WithField("took", time.Since(start)).Info("query served")
}
