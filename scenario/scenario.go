/*
Package scenario explores what would have to change for a candidate to win.

PURPOSE:
  Given the current lists and a target candidate, runs the allocation engine
  on the unmodified input and on a fixed battery of structural mutations,
  reporting for each one whether the target is elected. Every mutated input
  is returned so a caller can adopt it as the new document.

BATTERY (always in this order):
  0. Current Configuration       unmodified input (carries no mutated lists)
  1. List +10% Votes             target's list votes x1.10, rounded
  2. List +20% Votes             target's list votes x1.20, rounded
  3. Candidate +50% Pref Votes   target's preferential votes x1.50, rounded
  4. Weakest Rival Collapses     smallest positive other list set to 0
                                 (skipped when no other list has votes)
  5. Intra-List Rival Weakens    same-list, same-confession candidates with
                                 more preferential votes than the target drop
                                 to floor(target x 0.8) (skipped when none)
  6. Low Turnout (-30%)          every list x0.70, rounded
  7. List Dominance (45%)        target list gets round(45% of all votes),
                                 the rest is split evenly across other lists

  Skipped scenarios are left out; the others keep their relative order.

WIN DETECTION:
  MatchByName (default) treats the target as elected when any winner carries
  the target's name. Two candidates sharing a name on different lists are
  therefore conflated. MatchByID compares candidate ids instead.

IMMUTABILITY:
  Inputs are deep-copied before every mutation. The caller's lists are never
  modified.

SEE ALSO:
  - election/allocate.go: the engine every scenario runs
  - sweep.go: run the battery for every candidate concurrently
*/
package scenario

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/seat-engine/election"
)

// =============================================================================
// TYPES
// =============================================================================

// Match decides how the target is recognised among winners.
type Match string

const (
	MatchByName Match = "name"
	MatchByID   Match = "id"
)

// Allocator is the engine a scenario run calls.
type Allocator interface {
	Allocate(lists []election.List) (*election.Outcome, error)
}

// Result is the verdict of one scenario.
type Result struct {
	Name        string
	Description string
	Wins        bool
	Outcome     *election.Outcome // nil when the run failed
	Err         error             // allocation failure, if any
	Lists       []election.List   // mutated input; nil for the baseline
}

// Explorer runs scenario batteries against one allocator.
type Explorer struct {
	Engine Allocator
	Match  Match
}

// NewExplorer returns an explorer matching winners by name.
func NewExplorer(engine Allocator) *Explorer {
	return &Explorer{Engine: engine, Match: MatchByName}
}

// Explore runs the battery with the Beirut I engine and name matching.
func Explore(lists []election.List, targetID string) []Result {
	return NewExplorer(election.NewEngine(election.BeirutI())).Explore(lists, targetID)
}

// =============================================================================
// BATTERY
// =============================================================================

// target is the resolved candidate and its list.
type target struct {
	candidate election.Candidate
	list      election.List
}

// mutation builds the mutated lists for one scenario; ok=false skips it.
type mutation struct {
	name  string
	build func(lists []election.List, t target) (mutated []election.List, description string, ok bool)
}

var battery = []mutation{
	{name: "List +10% Votes", build: scaleTargetList("1.1", "10")},
	{name: "List +20% Votes", build: scaleTargetList("1.2", "20")},
	{name: "Candidate +50% Pref Votes", build: boostTarget},
	{name: "Weakest Rival Collapses", build: collapseWeakestRival},
	{name: "Intra-List Rival Weakens", build: weakenIntraListRivals},
	{name: "Low Turnout (-30%)", build: lowTurnout},
	{name: "List Dominance (45%)", build: dominance},
}

// Explore resolves targetID and runs the full battery. It returns nil when
// the target is not present in lists.
func (e *Explorer) Explore(lists []election.List, targetID string) []Result {
	li, ci := election.FindCandidate(lists, targetID)
	if li < 0 {
		return nil
	}
	return e.explore(lists, li, ci)
}

// explore runs the battery for the candidate at lists[li].Candidates[ci].
func (e *Explorer) explore(lists []election.List, li, ci int) []Result {
	t := target{candidate: lists[li].Candidates[ci], list: lists[li].Clone()}

	results := make([]Result, 0, len(battery)+1)
	base := e.run(election.CloneLists(lists), t)
	base.Name = "Current Configuration"
	base.Description = "As currently entered"
	base.Lists = nil
	results = append(results, base)

	for _, m := range battery {
		mutated, description, ok := m.build(election.CloneLists(lists), t)
		if !ok {
			continue
		}
		r := e.run(mutated, t)
		r.Name = m.name
		r.Description = description
		results = append(results, r)
	}
	return results
}

func (e *Explorer) run(lists []election.List, t target) Result {
	outcome, err := e.Engine.Allocate(lists)
	r := Result{Outcome: outcome, Err: err, Lists: lists}
	if outcome != nil {
		r.Wins = e.wins(outcome, t.candidate)
	}
	return r
}

func (e *Explorer) wins(o *election.Outcome, c election.Candidate) bool {
	if e.Match == MatchByID {
		return o.HasWinnerID(c.ID)
	}
	return o.HasWinnerNamed(c.Name)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// scale multiplies n by factor and rounds half away from zero.
func scale(n int, factor decimal.Decimal) int {
	return int(decimal.NewFromInt(int64(n)).Mul(factor).Round(0).IntPart())
}

func scaleTargetList(factor, percent string) func([]election.List, target) ([]election.List, string, bool) {
	f := decimal.RequireFromString(factor)
	return func(lists []election.List, t target) ([]election.List, string, bool) {
		for i := range lists {
			if lists[i].ID == t.list.ID {
				lists[i].Votes = scale(lists[i].Votes, f)
			}
		}
		return lists, fmt.Sprintf("%s gains %s%% more list votes", t.list.Name, percent), true
	}
}

func boostTarget(lists []election.List, t target) ([]election.List, string, bool) {
	f := decimal.RequireFromString("1.5")
	for i := range lists {
		if lists[i].ID != t.list.ID {
			continue
		}
		for j := range lists[i].Candidates {
			if lists[i].Candidates[j].ID == t.candidate.ID {
				c := &lists[i].Candidates[j]
				c.PreferentialVotes = scale(c.PreferentialVotes, f)
			}
		}
	}
	return lists, fmt.Sprintf("%s gains 50%% more preferential votes", t.candidate.DisplayName()), true
}

func collapseWeakestRival(lists []election.List, t target) ([]election.List, string, bool) {
	weakest := -1
	for i, l := range lists {
		if l.ID == t.list.ID || l.Votes <= 0 {
			continue
		}
		if weakest < 0 || l.Votes < lists[weakest].Votes {
			weakest = i
		}
	}
	if weakest < 0 {
		return nil, "", false
	}
	lists[weakest].Votes = 0
	return lists, fmt.Sprintf("%s gets 0 votes (voters abstain/scatter)", lists[weakest].Name), true
}

func weakenIntraListRivals(lists []election.List, t target) ([]election.List, string, bool) {
	rivals := make(map[string]bool)
	for _, c := range t.list.Candidates {
		if c.ID != t.candidate.ID && c.Confession == t.candidate.Confession &&
			c.PreferentialVotes > t.candidate.PreferentialVotes {
			rivals[c.ID] = true
		}
	}
	if len(rivals) == 0 {
		return nil, "", false
	}

	reduced := int(decimal.NewFromInt(int64(t.candidate.PreferentialVotes)).
		Mul(decimal.RequireFromString("0.8")).Floor().IntPart())
	for i := range lists {
		if lists[i].ID != t.list.ID {
			continue
		}
		for j := range lists[i].Candidates {
			if rivals[lists[i].Candidates[j].ID] {
				lists[i].Candidates[j].PreferentialVotes = reduced
			}
		}
	}
	return lists, fmt.Sprintf("Same-confession rivals on %s lose preferential support", t.list.Name), true
}

func lowTurnout(lists []election.List, _ target) ([]election.List, string, bool) {
	f := decimal.RequireFromString("0.7")
	for i := range lists {
		lists[i].Votes = scale(lists[i].Votes, f)
	}
	return lists, "All lists lose 30% of votes uniformly", true
}

func dominance(lists []election.List, t target) ([]election.List, string, bool) {
	total := 0
	others := 0
	for _, l := range lists {
		total += l.Votes
		if l.ID != t.list.ID {
			others++
		}
	}

	targetVotes := scale(total, decimal.RequireFromString("0.45"))
	perOther := 0
	if others > 0 {
		perOther = int(decimal.NewFromInt(int64(total - targetVotes)).
			Div(decimal.NewFromInt(int64(others))).Round(0).IntPart())
	}
	for i := range lists {
		if lists[i].ID == t.list.ID {
			lists[i].Votes = targetVotes
		} else {
			lists[i].Votes = perOther
		}
	}
	return lists, fmt.Sprintf("%s captures 45%% of all votes", t.list.Name), true
}
