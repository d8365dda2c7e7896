/*
Package document owns the editable election data.

PURPOSE:
  A Document is the mutable working copy an editor changes: lists, their
  vote totals and their candidates. The allocation and scenario engines
  never see a Document directly; they read Snapshot(), a deep copy, so
  nothing an engine does can leak back into the editor's state.

OPERATIONS:
  New             one default list with a placeholder per confessional seat
  AddList         next letter name ("List B", ...) and next palette colour
  RemoveList      refuses to remove the last list
  UpdateList      name / colour / votes (votes clamped at 0)
  AddCandidate    blank name, first confession of the district, 0 votes
  UpdateCandidate name / confession / preferential votes
  RemoveCandidate
  SyncVotes       list votes := sum of its candidates' preferential votes
  ReplaceLists    adopt a scenario's mutated lists verbatim
  Snapshot        deep copy for the engines

VOTE TOTALS:
  A list's Votes is independent of its candidates' preferential votes. The
  two may diverge; SyncVotes is the only operation that reconciles them and
  it is always an explicit editor action.

SEE ALSO:
  - store.go: persistence interface
  - election/: the engine reading snapshots
*/
package document

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/seat-engine/election"
)

// Palette is cycled through as lists are added.
var Palette = []string{
	"#2563eb", "#dc2626", "#16a34a", "#9333ea", "#ea580c",
	"#0891b2", "#be185d", "#65a30d", "#7c3aed", "#0d9488",
}

// Document is an editable election.
type Document struct {
	ID         string
	Name       string
	DistrictID string
	Lists      []election.List
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New creates a document with a single default list holding one
// placeholder candidate per confessional seat of d.
func New(name string, d election.District) *Document {
	now := time.Now().UTC()
	doc := &Document{
		ID:         uuid.NewString(),
		Name:       name,
		DistrictID: d.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	first := election.List{ID: uuid.NewString(), Name: listName(0), Color: Palette[0]}
	n := 1
	for _, s := range d.Seats {
		for i := 0; i < s.Seats; i++ {
			first.Candidates = append(first.Candidates, election.Candidate{
				ID:         uuid.NewString(),
				Name:       fmt.Sprintf("Candidate %d", n),
				Confession: s.Confession,
			})
			n++
		}
	}
	doc.Lists = []election.List{first}
	return doc
}

func listName(idx int) string {
	if idx < 26 {
		return "List " + string(rune('A'+idx))
	}
	return fmt.Sprintf("List %d", idx+1)
}

func (doc *Document) touch() { doc.UpdatedAt = time.Now().UTC() }

func (doc *Document) listIndex(id string) (int, error) {
	for i, l := range doc.Lists {
		if l.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrListNotFound, id)
}

// List returns a copy of the list with the given id.
func (doc *Document) List(id string) (election.List, error) {
	i, err := doc.listIndex(id)
	if err != nil {
		return election.List{}, err
	}
	return doc.Lists[i].Clone(), nil
}

// Snapshot returns a deep copy of the lists for the engines.
func (doc *Document) Snapshot() []election.List {
	return election.CloneLists(doc.Lists)
}

// Clone returns a deep copy of the document.
func (doc *Document) Clone() *Document {
	out := *doc
	out.Lists = doc.Snapshot()
	return &out
}

// =============================================================================
// LISTS
// =============================================================================

// AddList appends an empty list named after its position.
func (doc *Document) AddList() election.List {
	idx := len(doc.Lists)
	l := election.List{
		ID:    uuid.NewString(),
		Name:  listName(idx),
		Color: Palette[idx%len(Palette)],
	}
	doc.Lists = append(doc.Lists, l)
	doc.touch()
	return l.Clone()
}

// RemoveList deletes a list. The last list cannot be removed.
func (doc *Document) RemoveList(id string) error {
	i, err := doc.listIndex(id)
	if err != nil {
		return err
	}
	if len(doc.Lists) <= 1 {
		return ErrLastList
	}
	doc.Lists = append(doc.Lists[:i], doc.Lists[i+1:]...)
	doc.touch()
	return nil
}

// ListPatch holds the list fields an editor may change. Nil fields are kept.
type ListPatch struct {
	Name  *string
	Color *string
	Votes *int
}

// UpdateList applies patch to a list. Negative votes are clamped to 0.
func (doc *Document) UpdateList(id string, patch ListPatch) (election.List, error) {
	i, err := doc.listIndex(id)
	if err != nil {
		return election.List{}, err
	}
	l := &doc.Lists[i]
	if patch.Name != nil {
		l.Name = *patch.Name
	}
	if patch.Color != nil {
		l.Color = *patch.Color
	}
	if patch.Votes != nil {
		l.Votes = clamp(*patch.Votes)
	}
	doc.touch()
	return l.Clone(), nil
}

// SyncVotes sets a list's votes to the sum of its candidates' preferential votes.
func (doc *Document) SyncVotes(id string) (election.List, error) {
	i, err := doc.listIndex(id)
	if err != nil {
		return election.List{}, err
	}
	doc.Lists[i].Votes = doc.Lists[i].PreferentialTotal()
	doc.touch()
	return doc.Lists[i].Clone(), nil
}

// ReplaceLists adopts lists verbatim, e.g. a scenario's mutated input.
func (doc *Document) ReplaceLists(lists []election.List, d election.District) error {
	if len(lists) == 0 {
		return ErrNoLists
	}
	if err := Validate(lists, d); err != nil {
		return err
	}
	doc.Lists = election.CloneLists(lists)
	doc.touch()
	return nil
}

// =============================================================================
// CANDIDATES
// =============================================================================

// AddCandidate appends a blank candidate to a list.
func (doc *Document) AddCandidate(listID string, d election.District) (election.Candidate, error) {
	i, err := doc.listIndex(listID)
	if err != nil {
		return election.Candidate{}, err
	}
	c := election.Candidate{ID: uuid.NewString()}
	if len(d.Seats) > 0 {
		c.Confession = d.Seats[0].Confession
	}
	doc.Lists[i].Candidates = append(doc.Lists[i].Candidates, c)
	doc.touch()
	return c, nil
}

// CandidatePatch holds the candidate fields an editor may change.
type CandidatePatch struct {
	Name              *string
	Confession        *election.Confession
	PreferentialVotes *int
}

// UpdateCandidate applies patch. The confession must belong to d.
func (doc *Document) UpdateCandidate(listID, candidateID string, patch CandidatePatch, d election.District) (election.Candidate, error) {
	i, err := doc.listIndex(listID)
	if err != nil {
		return election.Candidate{}, err
	}
	for j := range doc.Lists[i].Candidates {
		c := &doc.Lists[i].Candidates[j]
		if c.ID != candidateID {
			continue
		}
		if patch.Confession != nil && !d.Has(*patch.Confession) {
			return election.Candidate{}, &ConfessionError{CandidateID: candidateID, Confession: string(*patch.Confession)}
		}
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Confession != nil {
			c.Confession = *patch.Confession
		}
		if patch.PreferentialVotes != nil {
			c.PreferentialVotes = clamp(*patch.PreferentialVotes)
		}
		doc.touch()
		return *c, nil
	}
	return election.Candidate{}, fmt.Errorf("%w: %s", ErrCandidateNotFound, candidateID)
}

// RemoveCandidate deletes a candidate from a list.
func (doc *Document) RemoveCandidate(listID, candidateID string) error {
	i, err := doc.listIndex(listID)
	if err != nil {
		return err
	}
	cands := doc.Lists[i].Candidates
	for j, c := range cands {
		if c.ID == candidateID {
			doc.Lists[i].Candidates = append(cands[:j], cands[j+1:]...)
			doc.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrCandidateNotFound, candidateID)
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// =============================================================================
// VALIDATION AND SUMMARIES
// =============================================================================

// Validate rejects negative counts, duplicate ids and confessions outside d.
func Validate(lists []election.List, d election.District) error {
	listIDs := make(map[string]bool, len(lists))
	for _, l := range lists {
		if listIDs[l.ID] {
			return fmt.Errorf("%w: list %s", ErrDuplicateID, l.ID)
		}
		listIDs[l.ID] = true
		if l.Votes < 0 {
			return fmt.Errorf("%w: list %s has %d votes", ErrInvalidVotes, l.ID, l.Votes)
		}
		candidateIDs := make(map[string]bool, len(l.Candidates))
		for _, c := range l.Candidates {
			if candidateIDs[c.ID] {
				return fmt.Errorf("%w: candidate %s on list %s", ErrDuplicateID, c.ID, l.ID)
			}
			candidateIDs[c.ID] = true
			if c.PreferentialVotes < 0 {
				return fmt.Errorf("%w: candidate %s has %d preferential votes", ErrInvalidVotes, c.ID, c.PreferentialVotes)
			}
			if !d.Has(c.Confession) {
				return &ConfessionError{CandidateID: c.ID, Confession: string(c.Confession)}
			}
		}
	}
	return nil
}

// MinCandidates is the smallest slate a list should field: 40% of the
// district's seats, and never fewer than 3.
func MinCandidates(d election.District) int {
	n := int(math.Ceil(float64(d.TotalSeats()) * 0.4))
	if n < 3 {
		return 3
	}
	return n
}

// Coverage is how many candidates a list fields for one confession.
type Coverage struct {
	Confession election.Confession
	Have       int
	Needed     int
}

// Covered reports whether the list fields enough candidates for every seat.
func (c Coverage) Covered() bool { return c.Have >= c.Needed }

// Coverage counts a list's candidates per confession of d.
func (doc *Document) Coverage(listID string, d election.District) ([]Coverage, error) {
	i, err := doc.listIndex(listID)
	if err != nil {
		return nil, err
	}
	have := make(map[election.Confession]int)
	for _, c := range doc.Lists[i].Candidates {
		have[c.Confession]++
	}
	out := make([]Coverage, len(d.Seats))
	for k, s := range d.Seats {
		out[k] = Coverage{Confession: s.Confession, Have: have[s.Confession], Needed: s.Seats}
	}
	return out, nil
}

// Warning is an editor hint; it never blocks allocation.
type Warning struct {
	ListID  string
	Code    string
	Message string
}

const (
	WarnShortSlate    = "short_slate"
	WarnVotesDiverged = "votes_diverged"
)

// Warnings reports short slates and vote totals that differ from the sum
// of preferential votes.
func (doc *Document) Warnings(d election.District) []Warning {
	minimum := MinCandidates(d)
	var out []Warning
	for _, l := range doc.Lists {
		if n := len(l.Candidates); n > 0 && n < minimum {
			out = append(out, Warning{
				ListID:  l.ID,
				Code:    WarnShortSlate,
				Message: fmt.Sprintf("%s has %d candidates; lists must have at least %d", l.Name, n, minimum),
			})
		}
		if pref := l.PreferentialTotal(); pref > 0 && pref != l.Votes {
			out = append(out, Warning{
				ListID:  l.ID,
				Code:    WarnVotesDiverged,
				Message: fmt.Sprintf("%s has %d list votes but %d preferential votes", l.Name, l.Votes, pref),
			})
		}
	}
	return out
}

// Stats is the headline summary of a document.
type Stats struct {
	Lists      int
	TotalVotes int
	Quotient   decimal.Decimal
	Seats      int
}

// Stats summarises the document against d.
func (doc *Document) Stats(d election.District) Stats {
	s := Stats{Lists: len(doc.Lists), Seats: d.TotalSeats()}
	for _, l := range doc.Lists {
		s.TotalVotes += l.Votes
	}
	if s.TotalVotes > 0 && s.Seats > 0 {
		s.Quotient = decimal.NewFromInt(int64(s.TotalVotes)).Div(decimal.NewFromInt(int64(s.Seats)))
	}
	return s
}
