package document

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentNotFound is returned when a document id is unknown.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrListNotFound is returned when a list id is not part of the document.
	ErrListNotFound = errors.New("list not found")

	// ErrCandidateNotFound is returned when a candidate id is not on the list.
	ErrCandidateNotFound = errors.New("candidate not found")

	// ErrLastList is returned when removing the only list of a document.
	ErrLastList = errors.New("a document must keep at least one list")

	// ErrUnknownConfession is returned for a confession outside the district table.
	ErrUnknownConfession = errors.New("unknown confession")

	// ErrInvalidVotes is returned for negative vote counts in imported data.
	ErrInvalidVotes = errors.New("vote counts must be non-negative")

	// ErrNoLists is returned when adopting an empty set of lists.
	ErrNoLists = errors.New("no lists supplied")

	// ErrDuplicateID is returned when two lists, or two candidates of a list, share an id.
	ErrDuplicateID = errors.New("duplicate id")
)

// ConfessionError names the offending confession.
type ConfessionError struct {
	CandidateID string
	Confession  string
}

func (e *ConfessionError) Error() string {
	return fmt.Sprintf("unknown confession %q for candidate %s", e.Confession, e.CandidateID)
}

func (e *ConfessionError) Unwrap() error { return ErrUnknownConfession }

// IsNotFound returns true if the error indicates a missing document, list or candidate.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound) ||
		errors.Is(err, ErrListNotFound) ||
		errors.Is(err, ErrCandidateNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrLastList) ||
		errors.Is(err, ErrUnknownConfession) ||
		errors.Is(err, ErrInvalidVotes) ||
		errors.Is(err, ErrNoLists) ||
		errors.Is(err, ErrDuplicateID)
}
