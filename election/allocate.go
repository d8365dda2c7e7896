/*
allocate.go - Hare quota / largest remainder allocation with confessional caps

PURPOSE:
  Turns list vote totals into seats and seats into elected candidates.

ALGORITHM:
  1. Valid votes      sum of list votes; zero (or no lists) fails with ErrNoValidVotes
  2. Quotient         valid votes / total seats, exact decimal
  3. Qualification    lists with votes >= quotient qualify, the rest are eliminated;
                      no qualifying list fails with ErrNoQuotaReached
  4. Whole seats      floor(votes / quotient) per qualifying list, using the
                      quotient from step 2 (eliminated votes are discarded, the
                      quotient is NOT recomputed)
  5. Remainders       leftover seats go one each to the largest remainders,
                      ties keep input order; remainders are compared as exact
                      integers scaled by the seat total
  6. Candidates       lists in input order; candidates ranked by preferential
                      votes (ties keep input order); a candidate is elected while
                      the list has seats left and the candidate's confession is
                      under its district-wide cap
  7. Unfilled seats   confessions left under their cap are reported in the trace

GREEDY ASSIGNMENT:
  Confession caps are tracked by one counter per confession shared across all
  lists of a run. Lists are served in input order and decisions are never
  revisited, so a list whose remaining candidates all belong to saturated
  confessions leaves seats empty. Those seats are not cascaded to other lists.

SEE ALSO:
  - trace.go: Step wording
  - scenario/: re-runs Allocate on mutated inputs
*/
package election

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Engine allocates seats for one district.
type Engine struct {
	District District
}

// NewEngine returns an engine for the given district.
func NewEngine(d District) *Engine {
	return &Engine{District: d.clone()}
}

// Allocate runs the engine with the Beirut I table.
func Allocate(lists []List) (*Outcome, error) {
	return NewEngine(BeirutI()).Allocate(lists)
}

// confessionTally counts filled slots per confession for a single run.
type confessionTally struct {
	district District
	filled   map[Confession]int
}

func newConfessionTally(d District) *confessionTally {
	return &confessionTally{district: d, filled: make(map[Confession]int, len(d.Seats))}
}

func (t *confessionTally) hasRoom(c Confession) bool {
	return t.filled[c] < t.district.SeatCount(c)
}

func (t *confessionTally) take(c Confession) { t.filled[c]++ }

func (t *confessionTally) shortfalls() []ConfessionSeats {
	var out []ConfessionSeats
	for _, s := range t.district.Seats {
		if t.filled[s.Confession] < s.Seats {
			out = append(out, ConfessionSeats{Confession: s.Confession, Seats: t.filled[s.Confession]})
		}
	}
	return out
}

// Allocate computes the outcome for lists. lists is not modified.
func (e *Engine) Allocate(lists []List) (*Outcome, error) {
	totalSeats := e.District.TotalSeats()
	tr := &trace{}

	validVotes := 0
	for _, l := range lists {
		validVotes += l.Votes
	}
	tr.validVotes(validVotes, len(lists))
	if validVotes == 0 || len(lists) == 0 {
		return nil, &AllocationError{Err: ErrNoValidVotes, Steps: tr.steps}
	}

	quotient := decimal.NewFromInt(int64(validVotes)).Div(decimal.NewFromInt(int64(totalSeats)))
	tr.quotient(validVotes, totalSeats, quotient)

	var qualifying, eliminated []List
	for _, l := range lists {
		if int64(l.Votes)*int64(totalSeats) >= int64(validVotes) {
			qualifying = append(qualifying, l.Clone())
		} else {
			eliminated = append(eliminated, l.Clone())
		}
	}
	if len(eliminated) > 0 {
		tr.eliminated(eliminated, quotient)
	}
	if len(qualifying) == 0 {
		return nil, &AllocationError{Err: ErrNoQuotaReached, Steps: tr.steps}
	}
	tr.qualifying(qualifying)

	// Seat arithmetic is done in integers scaled by totalSeats:
	// votes/quotient = votes*totalSeats/validVotes, and scaled[i] is the
	// remainder times totalSeats, so equal remainders compare equal.
	allocation := make([]Allocation, len(qualifying))
	scaled := make([]int64, len(qualifying))
	seatsAllocated := 0
	for i, l := range qualifying {
		numerator := int64(l.Votes) * int64(totalSeats)
		whole := numerator / int64(validVotes)
		scaled[i] = numerator - whole*int64(validVotes)
		allocation[i] = Allocation{
			List:       l,
			WholeSeats: int(whole),
			Remainder:  decimal.NewFromInt(scaled[i]).Div(decimal.NewFromInt(int64(totalSeats))),
			TotalSeats: int(whole),
		}
		seatsAllocated += allocation[i].WholeSeats
	}
	tr.wholeSeats(allocation, quotient)

	remainingSeats := totalSeats - seatsAllocated
	if remainingSeats > 0 {
		order := make([]int, len(allocation))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return scaled[order[a]] > scaled[order[b]]
		})

		granted := make([]int, 0, remainingSeats)
		for i := 0; i < remainingSeats && i < len(order); i++ {
			allocation[order[i]].TotalSeats++
			granted = append(granted, order[i])
		}
		tr.largestRemainder(allocation, granted, remainingSeats)

		if unallocated := remainingSeats - len(granted); unallocated > 0 {
			tr.unallocated(unallocated)
		}
	}
	tr.seatsPerList(allocation)

	tally := newConfessionTally(e.District)
	var winners []Winner
	for i := range allocation {
		a := &allocation[i]
		if a.TotalSeats == 0 {
			continue
		}
		winners = append(winners, assignCandidates(a, tally)...)
	}
	tr.elected(winners)

	if short := tally.shortfalls(); len(short) > 0 {
		tr.unfilled(short, e.District)
	}

	return &Outcome{
		Steps:      tr.steps,
		Winners:    winners,
		Allocation: allocation,
		Quotient:   quotient,
		Eliminated: eliminated,
	}, nil
}

// assignCandidates fills one list's seats and records them on a.
func assignCandidates(a *Allocation, tally *confessionTally) []Winner {
	ranked := make([]Candidate, len(a.List.Candidates))
	copy(ranked, a.List.Candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PreferentialVotes > ranked[j].PreferentialVotes
	})

	seatsToFill := a.TotalSeats
	var winners []Winner
	for _, c := range ranked {
		if seatsToFill <= 0 {
			break
		}
		if !tally.hasRoom(c.Confession) {
			continue
		}
		tally.take(c.Confession)
		seatsToFill--
		winners = append(winners, Winner{
			Candidate: c,
			ListID:    a.List.ID,
			ListName:  a.List.Name,
			ListColor: a.List.Color,
		})
	}
	a.FilledSeats = len(winners)
	return winners
}
