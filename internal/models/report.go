package models

import "time"

// Matches is the facet-specific section of a report.
type Matches struct {
	Heading        string          `json:"heading"`
	Preview        []PreviewRow    `json:"preview,omitempty"`
	ShowPerson     bool            `json:"show_person,omitempty"`
	AuthorsHeading string          `json:"authors_heading,omitempty"`
	Authors        []AuthorSummary `json:"authors,omitempty"`
}

// Report is everything the presentation layer renders for one query.
// When Warning is set the analytic sections are empty.
type Report struct {
	RequestID   string           `json:"request_id"`
	Query       Query            `json:"query"`
	Warning     string           `json:"warning,omitempty"`
	NumFound    int              `json:"num_found"`
	Rows        int              `json:"rows"`
	TopWords    []WordFrequency  `json:"top_words,omitempty"`
	Characters  []CharacterPoint `json:"characters,omitempty"`
	Matches     *Matches         `json:"matches,omitempty"`
	Cached      bool             `json:"cached"`
	GeneratedAt time.Time        `json:"generated_at"`
	RawJSON     []byte           `json:"-"`
}
