/*
Package election provides the seat allocation engine.

PURPOSE:
  Converts raw list vote tallies into parliamentary seats under a Hare quota /
  largest remainder rule, then fills each list's seats with its candidates by
  preferential vote while honouring the fixed per-confession seat caps of the
  district. The engine is a pure function of its input: no state survives a
  call and inputs are never modified.

KEY CONCEPTS IN THIS FILE (types.go):
  - Confession: communal category with a fixed number of seats
  - Candidate / List: the input slate as entered by the editor
  - Allocation: per-list seat arithmetic for one run
  - Winner: an elected candidate tagged with its list
  - Step: one entry of the human-readable calculation trace
  - Outcome: everything a successful run produces

DESIGN PRINCIPLES:
  1. Purity: Allocate reads a snapshot and builds fresh output
  2. Precision: quotient and remainders use decimal.Decimal, never float64
  3. Auditability: every stage appends a Step in chronological order
  4. All-or-nothing: a run returns a full Outcome or an *AllocationError

USAGE:
  outcome, err := election.Allocate(lists)
  if err != nil {
      var aerr *election.AllocationError
      errors.As(err, &aerr) // aerr.Steps explains why
  }

SEE ALSO:
  - district.go: confession seat table
  - allocate.go: the allocation algorithm
  - errors.go: failure kinds
  - scenario/: counterfactual runs built on Allocate
*/
package election

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT - Lists and candidates as entered
// =============================================================================

// Confession identifies a communal category. Values outside the district
// table are tolerated and treated as having zero seats.
type Confession string

const (
	ArmenianOrthodox    Confession = "Armenian Orthodox"
	ArmenianCatholic    Confession = "Armenian Catholic"
	Maronite            Confession = "Maronite"
	GreekOrthodox       Confession = "Greek Orthodox"
	GreekCatholic       Confession = "Greek Catholic"
	ChristianMinorities Confession = "Christian Minorities"
)

// Candidate is a single person on a list.
type Candidate struct {
	ID                string
	Name              string // may be empty
	Confession        Confession
	PreferentialVotes int
}

// DisplayName returns the name, or a placeholder for unnamed candidates.
func (c Candidate) DisplayName() string {
	if c.Name == "" {
		return "(unnamed)"
	}
	return c.Name
}

// List is a slate of candidates sharing one vote total.
// Votes is trusted as entered; it need not equal the sum of preferential votes.
type List struct {
	ID         string
	Name       string
	Color      string
	Votes      int
	Candidates []Candidate
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	out := l
	if l.Candidates != nil {
		out.Candidates = make([]Candidate, len(l.Candidates))
		copy(out.Candidates, l.Candidates)
	}
	return out
}

// CloneLists deep-copies a slice of lists.
func CloneLists(lists []List) []List {
	if lists == nil {
		return nil
	}
	out := make([]List, len(lists))
	for i, l := range lists {
		out[i] = l.Clone()
	}
	return out
}

// PreferentialTotal sums the preferential votes of the list's candidates.
func (l List) PreferentialTotal() int {
	total := 0
	for _, c := range l.Candidates {
		total += c.PreferentialVotes
	}
	return total
}

// FindCandidate locates a candidate by id across lists.
// Returns the list index and candidate index, or -1, -1.
func FindCandidate(lists []List, candidateID string) (int, int) {
	for li, l := range lists {
		for ci, c := range l.Candidates {
			if c.ID == candidateID {
				return li, ci
			}
		}
	}
	return -1, -1
}

// =============================================================================
// OUTPUT - Produced fresh by every run
// =============================================================================

// Step is one entry of the calculation trace.
type Step struct {
	Title  string
	Detail string
}

// Allocation is the seat arithmetic for one qualifying list.
type Allocation struct {
	List        List
	WholeSeats  int
	Remainder   decimal.Decimal
	TotalSeats  int
	FilledSeats int // seats actually taken by candidates
}

// Winner is an elected candidate and the list it came from.
type Winner struct {
	Candidate
	ListID    string
	ListName  string
	ListColor string
}

// Outcome is the result of a successful run.
type Outcome struct {
	Steps      []Step
	Winners    []Winner
	Allocation []Allocation
	Quotient   decimal.Decimal
	Eliminated []List
}

// SeatsAllocated sums TotalSeats over the allocation.
func (o *Outcome) SeatsAllocated() int {
	n := 0
	for _, a := range o.Allocation {
		n += a.TotalSeats
	}
	return n
}

// HasWinnerNamed reports whether any winner carries the given name.
func (o *Outcome) HasWinnerNamed(name string) bool {
	for _, w := range o.Winners {
		if w.Name == name {
			return true
		}
	}
	return false
}

// HasWinnerID reports whether the candidate with the given id was elected.
func (o *Outcome) HasWinnerID(id string) bool {
	for _, w := range o.Winners {
		if w.ID == id {
			return true
		}
	}
	return false
}
