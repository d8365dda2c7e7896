package election

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// trace accumulates Steps for one run. Steps are only ever appended.
type trace struct {
	steps []Step
}

func (t *trace) add(title, detail string) {
	t.steps = append(t.steps, Step{Title: title, Detail: detail})
}

func votes(n int) string { return humanize.Comma(int64(n)) }

// quotientString renders at most two fraction digits.
func quotientString(q decimal.Decimal) string {
	return humanize.CommafWithDigits(q.InexactFloat64(), 2)
}

// wholeString rounds to an integer.
func wholeString(d decimal.Decimal) string {
	return humanize.Comma(d.Round(0).IntPart())
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func (t *trace) validVotes(total, lists int) {
	t.add("Total Valid Votes",
		fmt.Sprintf("%s valid votes across %d list(s).", votes(total), lists))
}

func (t *trace) quotient(total, seats int, q decimal.Decimal) {
	t.add("Electoral Quotient (Hare Quota)",
		fmt.Sprintf("%s ÷ %d = %s", votes(total), seats, quotientString(q)))
}

func (t *trace) eliminated(lists []List, q decimal.Decimal) {
	needs := wholeString(q.Ceil())
	lines := make([]string, len(lists))
	for i, l := range lists {
		lines[i] = fmt.Sprintf("%s: %s votes (needs %s)", l.Name, votes(l.Votes), needs)
	}
	t.add("Lists Eliminated (Below Quota)", strings.Join(lines, "\n"))
}

func (t *trace) qualifying(lists []List) {
	lines := make([]string, len(lists))
	for i, l := range lists {
		lines[i] = fmt.Sprintf("%s: %s votes", l.Name, votes(l.Votes))
	}
	t.add("Qualifying Lists", strings.Join(lines, "\n"))
}

func (t *trace) wholeSeats(allocation []Allocation, q decimal.Decimal) {
	lines := make([]string, len(allocation))
	for i, a := range allocation {
		lines[i] = fmt.Sprintf("%s: %s ÷ %s = %d seat(s) + %s remainder",
			a.List.Name, votes(a.List.Votes), quotientString(q), a.WholeSeats, wholeString(a.Remainder))
	}
	t.add("Whole Quota Allocation", strings.Join(lines, "\n"))
}

func (t *trace) largestRemainder(allocation []Allocation, granted []int, remaining int) {
	lines := make([]string, len(granted))
	for i, idx := range granted {
		a := allocation[idx]
		lines[i] = fmt.Sprintf("%s: remainder %s → +1 seat", a.List.Name, wholeString(a.Remainder))
	}
	t.add(fmt.Sprintf("Largest Remainder (+%d %s)", remaining, plural(remaining, "seat")),
		strings.Join(lines, "\n"))
}

func (t *trace) unallocated(n int) {
	t.add("Unallocated Seats",
		fmt.Sprintf("%d %s left over: every qualifying list already received a remainder seat.", n, plural(n, "seat")))
}

func (t *trace) seatsPerList(allocation []Allocation) {
	lines := make([]string, len(allocation))
	for i, a := range allocation {
		lines[i] = fmt.Sprintf("%s: %d seat(s)", a.List.Name, a.TotalSeats)
	}
	t.add("Seats Per List", strings.Join(lines, "\n"))
}

func (t *trace) elected(winners []Winner) {
	lines := make([]string, len(winners))
	for i, w := range winners {
		lines[i] = fmt.Sprintf("%s (%s) — %s — %s pref. votes",
			w.DisplayName(), w.Confession, w.ListName, votes(w.PreferentialVotes))
	}
	t.add("Elected Candidates", strings.Join(lines, "\n"))
}

func (t *trace) unfilled(short []ConfessionSeats, d District) {
	lines := make([]string, len(short))
	for i, s := range short {
		lines[i] = fmt.Sprintf("%s: %d/%d filled", s.Confession, s.Seats, d.SeatCount(s.Confession))
	}
	t.add("Unfilled Confessional Seats", strings.Join(lines, "\n"))
}
