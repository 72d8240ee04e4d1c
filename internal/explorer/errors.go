package explorer

import (
	"errors"
	"fmt"
)

// Kind classifies why a query failed. Users see one generic notice for every analytic kind;
// the kind only shows up in logs, metrics and search events.
type Kind string

const (
	KindInvalid   Kind = "invalid"
	KindTransport Kind = "transport"
	KindMalformed Kind = "malformed"
	KindEmpty     Kind = "empty"
	KindInternal  Kind = "internal"
)

// NoResultsWarning is the notice shown when the analytic pipeline fails for a query.
const NoResultsWarning = "Sorry, couldn't find anything matching... Try changing your search criteria"

// ErrNoResults is returned when the search produced no hits.
var ErrNoResults = errors.New("no results")

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a pipeline error, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Recoverable reports whether the failure is turned into a warning rather than returned.
func (k Kind) Recoverable() bool {
	switch k {
	case KindMalformed, KindEmpty, KindInternal:
		return true
	}
	return false
}
