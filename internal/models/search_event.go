package models

import "time"

// SearchEvent records the outcome of one processed query for the events topic.
type SearchEvent struct {
	RequestID  string    `json:"request_id"`
	Query      string    `json:"query"`
	Facet      Facet     `json:"facet"`
	Limit      int       `json:"limit"`
	Hits       int       `json:"hits"`
	Cached     bool      `json:"cached"`
	Outcome    string    `json:"outcome"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
