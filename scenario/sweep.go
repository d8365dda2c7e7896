package scenario

import (
	"context"
	"strings"

	"github.com/warp/seat-engine/election"
	"golang.org/x/sync/errgroup"
)

// DefaultSweepLimit bounds concurrent batteries when the caller passes 0.
const DefaultSweepLimit = 4

// TargetReport is the battery result for one candidate.
type TargetReport struct {
	CandidateID   string
	CandidateName string
	ListID        string
	ListName      string
	Results       []Result
}

// WinningScenarios returns the names of scenarios the candidate wins.
func (r TargetReport) WinningScenarios() []string {
	var names []string
	for _, res := range r.Results {
		if res.Wins {
			names = append(names, res.Name)
		}
	}
	return names
}

// Sweep runs the battery for every named candidate. Candidate ids are only
// unique within a list, so each battery is bound to its candidate's position
// rather than looked up by id. Batteries run
// concurrently, at most limit at a time; each reads its own copy of lists.
// Reports follow the order candidates appear in the input.
func (e *Explorer) Sweep(ctx context.Context, lists []election.List, limit int) ([]TargetReport, error) {
	if limit <= 0 {
		limit = DefaultSweepLimit
	}
	snapshot := election.CloneLists(lists)

	var reports []TargetReport
	var positions [][2]int
	for li, l := range snapshot {
		for ci, c := range l.Candidates {
			if strings.TrimSpace(c.Name) == "" {
				continue
			}
			reports = append(reports, TargetReport{
				CandidateID:   c.ID,
				CandidateName: c.Name,
				ListID:        l.ID,
				ListName:      l.Name,
			})
			positions = append(positions, [2]int{li, ci})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range reports {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pos := positions[i]
			reports[i].Results = e.explore(election.CloneLists(snapshot), pos[0], pos[1])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
