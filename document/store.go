package document

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/warp/seat-engine/election"
)

// =============================================================================
// STORE - Persistence of documents and result runs
// =============================================================================

// Store persists documents and the runs computed from them.
//
// IMPLEMENTATIONS:
//   - store/sqlite: SQLite
//   - document/store: in-memory, for tests and dev
type Store interface {
	// SaveDocument inserts or replaces a document, lists and candidates included.
	SaveDocument(ctx context.Context, doc *Document) error

	// GetDocument returns ErrDocumentNotFound for unknown ids.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// ListDocuments returns all documents, most recently updated first.
	ListDocuments(ctx context.Context) ([]*Document, error)

	// DeleteDocument removes a document and its runs.
	DeleteDocument(ctx context.Context, id string) error

	// SaveRun appends a run. Runs are never updated.
	SaveRun(ctx context.Context, run Run) error

	// ListRuns returns a document's runs, oldest first.
	ListRuns(ctx context.Context, documentID string) ([]Run, error)
}

// Run records one allocation of a document: either the outcome or the
// failure reason, always with the trace.
type Run struct {
	ID         string
	DocumentID string
	CreatedAt  time.Time
	Error      string
	Steps      []election.Step
	Winners    []election.Winner
	Seats      []RunSeats
	Quotient   string
	Eliminated []string // list ids
}

// RunSeats is the seat arithmetic of one list in a run.
type RunSeats struct {
	ListID      string
	ListName    string
	Votes       int
	WholeSeats  int
	Remainder   string
	TotalSeats  int
	FilledSeats int
}

// NewRun captures the result of election.Allocate for a document.
func NewRun(documentID string, outcome *election.Outcome, err error) Run {
	run := Run{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		CreatedAt:  time.Now().UTC(),
	}
	if err != nil {
		run.Error = err.Error()
		run.Steps = election.StepsOf(err)
		return run
	}

	run.Steps = outcome.Steps
	run.Winners = outcome.Winners
	run.Quotient = outcome.Quotient.String()
	for _, a := range outcome.Allocation {
		run.Seats = append(run.Seats, RunSeats{
			ListID:      a.List.ID,
			ListName:    a.List.Name,
			Votes:       a.List.Votes,
			WholeSeats:  a.WholeSeats,
			Remainder:   a.Remainder.String(),
			TotalSeats:  a.TotalSeats,
			FilledSeats: a.FilledSeats,
		})
	}
	for _, l := range outcome.Eliminated {
		run.Eliminated = append(run.Eliminated, l.ID)
	}
	return run
}

// Clone returns a copy of the run that shares no slices with r.
func (r Run) Clone() Run {
	out := r
	out.Steps = append([]election.Step(nil), r.Steps...)
	out.Winners = append([]election.Winner(nil), r.Winners...)
	out.Seats = append([]RunSeats(nil), r.Seats...)
	out.Eliminated = append([]string(nil), r.Eliminated...)
	return out
}

// Failed reports whether the run ended in an allocation error.
func (r Run) Failed() bool { return r.Error != "" }
