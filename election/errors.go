/*
errors.go - Failure kinds of the allocation engine

PURPOSE:
  Only two inputs make a run fail: nothing was voted, or no list reached the
  quota. Everything else (empty lists, saturated confessions, lists with no
  seats) is a valid outcome reported through the trace.

USAGE:
  _, err := election.Allocate(lists)
  switch {
  case errors.Is(err, election.ErrNoValidVotes):
  case errors.Is(err, election.ErrNoQuotaReached):
  }

  var aerr *election.AllocationError
  if errors.As(err, &aerr) {
      render(aerr.Steps)
  }
*/
package election

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoValidVotes is returned when no lists were supplied or every list has zero votes.
	ErrNoValidVotes = errors.New("No valid votes cast.")

	// ErrNoQuotaReached is returned when every list falls below the electoral quotient.
	ErrNoQuotaReached = errors.New("No list reached the electoral quotient.")

	// ErrInvalidDistrict is returned for a malformed confession seat table.
	ErrInvalidDistrict = errors.New("invalid district")

	// ErrDistrictNotFound is returned when a district id is not registered.
	ErrDistrictNotFound = errors.New("district not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// AllocationError carries the trace accumulated before the run stopped.
type AllocationError struct {
	Err   error
	Steps []Step
}

func (e *AllocationError) Error() string { return e.Err.Error() }

func (e *AllocationError) Unwrap() error { return e.Err }

// StepsOf returns the partial trace of an allocation failure, if any.
func StepsOf(err error) []Step {
	var aerr *AllocationError
	if errors.As(err, &aerr) {
		return aerr.Steps
	}
	return nil
}
