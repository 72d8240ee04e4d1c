package ol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"openlibrary-explorer/internal/models"
)

var (
	// ErrNotJSON is returned when the response body is not JSON at all.
	ErrNotJSON = errors.New("response is not JSON")
	// ErrUnexpectedShape is returned when the body is JSON but not a search response.
	ErrUnexpectedShape = errors.New("unexpected search response shape")
)

const searchResponseSchema = `{
  "type": "object",
  "required": ["docs"],
  "properties": {
    "numFound": {"type": "integer", "minimum": 0},
    "start": {"type": "integer", "minimum": 0},
    "docs": {
      "type": "array",
      "items": {"type": "object"}
    }
  }
}`

var loadSearchSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(searchResponseSchema))
})

// ParseSearchResponse parses Open Library search JSON. The body must be a JSON object with a
// docs array of objects; every hit field is optional.
func ParseSearchResponse(body []byte) (models.SearchResponse, error) {
	if !json.Valid(body) {
		return models.SearchResponse{}, ErrNotJSON
	}

	schema, err := loadSearchSchema()
	if err != nil {
		return models.SearchResponse{}, fmt.Errorf("load search schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return models.SearchResponse{}, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return models.SearchResponse{}, fmt.Errorf("%w: %s", ErrUnexpectedShape, strings.Join(problems, "; "))
	}

	var resp models.SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.SearchResponse{}, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	resp.RawJSON = body
	return resp, nil
}
