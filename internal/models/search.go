package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SearchHit is one raw record from the Open Library search API. Only the fields requested
// through the fields parameter are decoded; every one of them may be missing or null.
type SearchHit struct {
	Key        string     `json:"key,omitempty"`
	Title      Text       `json:"title"`
	AuthorName StringList `json:"author_name"`
	Person     StringList `json:"person"`
}

// SearchResponse represents the Open Library search response.
type SearchResponse struct {
	NumFound      int         `json:"numFound,omitempty"`
	NumFoundExact bool        `json:"numFoundExact,omitempty"`
	Start         int         `json:"start,omitempty"`
	Q             string      `json:"q,omitempty"`
	Docs          []SearchHit `json:"docs"`
	RawJSON       []byte      `json:"-"`
}

// Text is a loosely typed scalar. Strings decode as-is, numbers and booleans keep their
// literal form, null decodes to the empty string. Objects and arrays are rejected.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	value, err := decodeLoose(data)
	if err != nil {
		return err
	}
	switch value.(type) {
	case map[string]any, []any:
		return fmt.Errorf("expected scalar, got %s", bytes.TrimSpace(data))
	}
	*t = Text(stringify(value))
	return nil
}

// String returns the text value.
func (t Text) String() string {
	return string(t)
}

// StringList is a loosely typed list. Each element is converted to its string form; a bare
// scalar decodes as a one-element list and null as an empty list.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	value, err := decodeLoose(data)
	if err != nil {
		return err
	}
	switch v := value.(type) {
	case nil:
		*l = nil
	case []any:
		out := make(StringList, 0, len(v))
		for _, item := range v {
			out = append(out, stringify(item))
		}
		*l = out
	case map[string]any:
		return fmt.Errorf("expected list, got object")
	default:
		*l = StringList{stringify(v)}
	}
	return nil
}

func decodeLoose(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimSpace(string(raw))
	}
}
