package models

import (
	"errors"
	"fmt"
	"strings"
)

// Facet is the field a search targets.
type Facet string

const (
	FacetAnywhere Facet = "Anywhere"
	FacetTitles   Facet = "Titles"
	FacetAuthors  Facet = "Authors"
	FacetPersons  Facet = "Persons"
	FacetSubjects Facet = "Subjects"
	FacetPlaces   Facet = "Places"
)

// Facets lists the search spaces in the order they are offered to users.
var Facets = []Facet{FacetAnywhere, FacetTitles, FacetAuthors, FacetPersons, FacetSubjects, FacetPlaces}

var facetParams = map[Facet]string{
	FacetAnywhere: "q",
	FacetTitles:   "title",
	FacetAuthors:  "author",
	FacetPersons:  "person",
	FacetSubjects: "subject",
	FacetPlaces:   "place",
}

// Param returns the search API parameter name for the facet.
func (f Facet) Param() string {
	return facetParams[f]
}

// ParseFacet accepts a facet label ("Authors") or its API parameter ("author"), case-insensitively.
// An empty value means FacetAnywhere.
func ParseFacet(value string) (Facet, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return FacetAnywhere, nil
	}
	for _, f := range Facets {
		if strings.EqualFold(value, string(f)) || strings.EqualFold(value, f.Param()) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown search space %q", value)
}

const (
	// MinMatches is the smallest result-count limit a query may ask for.
	MinMatches = 100
	// DefaultTopWords is how many title words are charted unless asked otherwise.
	DefaultTopWords = 10
	// DefaultTopAuthors is how many authors the top-author summary keeps.
	DefaultTopAuthors = 5
	// PreviewRows is the length of the tabular preview.
	PreviewRows = 10
)

// ErrInvalidQuery is returned for queries that fail validation.
var ErrInvalidQuery = errors.New("invalid query")

// Query is one user-initiated search.
type Query struct {
	Text     string `json:"text"`
	Facet    Facet  `json:"facet"`
	Limit    int    `json:"limit"`
	TopWords int    `json:"top_words"`
}

// Validate checks the query against the dashboard's input constraints.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty search text", ErrInvalidQuery)
	}
	if q.Facet.Param() == "" {
		return fmt.Errorf("%w: unknown search space %q", ErrInvalidQuery, q.Facet)
	}
	if q.Limit < MinMatches {
		return fmt.Errorf("%w: max matches must be at least %d", ErrInvalidQuery, MinMatches)
	}
	if q.TopWords < 1 {
		return fmt.Errorf("%w: number of top words must be positive", ErrInvalidQuery)
	}
	return nil
}

// Phrase wraps the search text in literal double quotes to request exact-phrase matching.
func (q Query) Phrase() string {
	return `"` + q.Text + `"`
}
