/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine types from the external API contract. Lists and candidates
  travel as factory.ListJSON, the same shape election files use.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Allocation:
    AllocateRequest, OutcomeDTO, AllocationErrorResponse

  Scenarios:
    ScenarioRequest, ScenarioDTO, SweepRequest, TargetReportDTO

  Documents:
    DocumentDTO, DocumentSummaryDTO, CreateDocumentRequest,
    UpdateListRequest, UpdateCandidateRequest, AdoptRequest, RunDTO

  Samples:
    SampleDTO, LoadSampleRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/election.go: ListJSON type
*/
package api

import (
	"time"

	"github.com/warp/seat-engine/document"
	"github.com/warp/seat-engine/election"
	"github.com/warp/seat-engine/factory"
	"github.com/warp/seat-engine/scenario"
)

// =============================================================================
// ALLOCATION
// =============================================================================

// AllocateRequest is the body of POST /api/allocate.
type AllocateRequest struct {
	Lists []factory.ListJSON `json:"lists"`
}

// StepDTO is one trace entry.
type StepDTO struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// AllocationDTO is the seat arithmetic of one qualifying list.
type AllocationDTO struct {
	ListID      string `json:"list_id"`
	ListName    string `json:"list_name"`
	Color       string `json:"color"`
	Votes       int    `json:"votes"`
	WholeSeats  int    `json:"whole_seats"`
	Remainder   string `json:"remainder"`
	TotalSeats  int    `json:"total_seats"`
	FilledSeats int    `json:"filled_seats"`
}

// WinnerDTO is an elected candidate.
type WinnerDTO struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Confession  string `json:"confession"`
	PrefVotes   int    `json:"pref_votes"`
	ListID      string `json:"list_id"`
	ListName    string `json:"list_name"`
	ListColor   string `json:"list_color"`
}

// OutcomeDTO is a successful allocation.
type OutcomeDTO struct {
	Quotient       string          `json:"quotient"`
	SeatsAllocated int             `json:"seats_allocated"`
	Steps          []StepDTO       `json:"steps"`
	Winners        []WinnerDTO     `json:"winners"`
	Allocation     []AllocationDTO `json:"allocation"`
	Eliminated     []string        `json:"eliminated"`
}

// AllocationErrorResponse is returned with 422 when a run fails.
type AllocationErrorResponse struct {
	Error string    `json:"error"`
	Steps []StepDTO `json:"steps"`
}

func toStepDTOs(steps []election.Step) []StepDTO {
	out := make([]StepDTO, len(steps))
	for i, s := range steps {
		out[i] = StepDTO{Title: s.Title, Detail: s.Detail}
	}
	return out
}

func toWinnerDTOs(winners []election.Winner) []WinnerDTO {
	out := make([]WinnerDTO, len(winners))
	for i, w := range winners {
		out[i] = WinnerDTO{
			CandidateID: w.ID,
			Name:        w.Name,
			Confession:  string(w.Confession),
			PrefVotes:   w.PreferentialVotes,
			ListID:      w.ListID,
			ListName:    w.ListName,
			ListColor:   w.ListColor,
		}
	}
	return out
}

func toOutcomeDTO(o *election.Outcome) *OutcomeDTO {
	if o == nil {
		return nil
	}
	dto := &OutcomeDTO{
		Quotient:       o.Quotient.String(),
		SeatsAllocated: o.SeatsAllocated(),
		Steps:          toStepDTOs(o.Steps),
		Winners:        toWinnerDTOs(o.Winners),
		Allocation:     make([]AllocationDTO, len(o.Allocation)),
		Eliminated:     []string{},
	}
	for i, a := range o.Allocation {
		dto.Allocation[i] = AllocationDTO{
			ListID:      a.List.ID,
			ListName:    a.List.Name,
			Color:       a.List.Color,
			Votes:       a.List.Votes,
			WholeSeats:  a.WholeSeats,
			Remainder:   a.Remainder.String(),
			TotalSeats:  a.TotalSeats,
			FilledSeats: a.FilledSeats,
		}
	}
	for _, l := range o.Eliminated {
		dto.Eliminated = append(dto.Eliminated, l.ID)
	}
	return dto
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioRequest is the body of POST /api/scenarios. Lists is ignored by
// the document variant.
type ScenarioRequest struct {
	Lists             []factory.ListJSON `json:"lists,omitempty"`
	TargetCandidateID string             `json:"target_candidate_id"`
	Match             string             `json:"match,omitempty"` // "name" (default) or "id"
}

// ScenarioDTO is the verdict of one scenario.
type ScenarioDTO struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Wins        bool               `json:"wins"`
	Error       string             `json:"error,omitempty"`
	Outcome     *OutcomeDTO        `json:"outcome,omitempty"`
	Lists       []factory.ListJSON `json:"lists,omitempty"`
}

func toScenarioDTOs(results []scenario.Result) []ScenarioDTO {
	out := make([]ScenarioDTO, len(results))
	for i, r := range results {
		out[i] = ScenarioDTO{
			Name:        r.Name,
			Description: r.Description,
			Wins:        r.Wins,
			Outcome:     toOutcomeDTO(r.Outcome),
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
		if r.Lists != nil {
			out[i].Lists = factory.FromLists(r.Lists)
		}
	}
	return out
}

// SweepRequest is the body of POST /api/documents/{id}/sweep.
type SweepRequest struct {
	Limit int    `json:"limit,omitempty"`
	Match string `json:"match,omitempty"`
}

// TargetReportDTO summarises the battery for one candidate.
type TargetReportDTO struct {
	CandidateID   string        `json:"candidate_id"`
	CandidateName string        `json:"candidate_name"`
	ListID        string        `json:"list_id"`
	ListName      string        `json:"list_name"`
	Winning       []string      `json:"winning"`
	Scenarios     []ScenarioDTO `json:"scenarios"`
}

func toTargetReportDTOs(reports []scenario.TargetReport) []TargetReportDTO {
	out := make([]TargetReportDTO, len(reports))
	for i, r := range reports {
		out[i] = TargetReportDTO{
			CandidateID:   r.CandidateID,
			CandidateName: r.CandidateName,
			ListID:        r.ListID,
			ListName:      r.ListName,
			Winning:       r.WinningScenarios(),
			Scenarios:     toScenarioDTOs(r.Results),
		}
		if out[i].Winning == nil {
			out[i].Winning = []string{}
		}
	}
	return out
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// CreateDocumentRequest is the body of POST /api/documents. Without lists
// the document starts with one default list.
type CreateDocumentRequest struct {
	Name  string             `json:"name"`
	Lists []factory.ListJSON `json:"lists,omitempty"`
}

// UpdateListRequest patches a list. Omitted fields are kept.
type UpdateListRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
	Votes *int    `json:"votes,omitempty"`
}

// UpdateCandidateRequest patches a candidate. Omitted fields are kept.
type UpdateCandidateRequest struct {
	Name       *string `json:"name,omitempty"`
	Confession *string `json:"confession,omitempty"`
	PrefVotes  *int    `json:"pref_votes,omitempty"`
}

// AdoptRequest replaces a document's lists, usually with a scenario's lists.
type AdoptRequest struct {
	Lists []factory.ListJSON `json:"lists"`
}

// StatsDTO is the headline summary of a document.
type StatsDTO struct {
	Lists      int    `json:"lists"`
	TotalVotes int    `json:"total_votes"`
	Quotient   string `json:"quotient"`
	Seats      int    `json:"seats"`
}

// WarningDTO is an editor hint.
type WarningDTO struct {
	ListID  string `json:"list_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CoverageDTO counts a list's candidates for one confession.
type CoverageDTO struct {
	Confession string `json:"confession"`
	Have       int    `json:"have"`
	Needed     int    `json:"needed"`
}

// DocumentDTO is a full document.
type DocumentDTO struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	District  string                   `json:"district"`
	Lists     []factory.ListJSON       `json:"lists"`
	Stats     StatsDTO                 `json:"stats"`
	Warnings  []WarningDTO             `json:"warnings"`
	Coverage  map[string][]CoverageDTO `json:"coverage"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// DocumentSummaryDTO is a document in list responses.
type DocumentSummaryDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	District   string    `json:"district"`
	Lists      int       `json:"lists"`
	TotalVotes int       `json:"total_votes"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toDocumentDTO(doc *document.Document, d election.District) DocumentDTO {
	stats := doc.Stats(d)
	dto := DocumentDTO{
		ID:       doc.ID,
		Name:     doc.Name,
		District: doc.DistrictID,
		Lists:    factory.FromLists(doc.Lists),
		Stats: StatsDTO{
			Lists:      stats.Lists,
			TotalVotes: stats.TotalVotes,
			Quotient:   stats.Quotient.String(),
			Seats:      stats.Seats,
		},
		Warnings:  []WarningDTO{},
		Coverage:  make(map[string][]CoverageDTO, len(doc.Lists)),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, w := range doc.Warnings(d) {
		dto.Warnings = append(dto.Warnings, WarningDTO{ListID: w.ListID, Code: w.Code, Message: w.Message})
	}
	for _, l := range doc.Lists {
		coverage, err := doc.Coverage(l.ID, d)
		if err != nil {
			continue
		}
		for _, c := range coverage {
			dto.Coverage[l.ID] = append(dto.Coverage[l.ID], CoverageDTO{
				Confession: string(c.Confession),
				Have:       c.Have,
				Needed:     c.Needed,
			})
		}
	}
	return dto
}

func toDocumentSummaryDTO(doc *document.Document) DocumentSummaryDTO {
	dto := DocumentSummaryDTO{
		ID:        doc.ID,
		Name:      doc.Name,
		District:  doc.DistrictID,
		Lists:     len(doc.Lists),
		UpdatedAt: doc.UpdatedAt,
	}
	for _, l := range doc.Lists {
		dto.TotalVotes += l.Votes
	}
	return dto
}

// RunSeatsDTO is one list's seats in a stored run.
type RunSeatsDTO struct {
	ListID      string `json:"list_id"`
	ListName    string `json:"list_name"`
	Votes       int    `json:"votes"`
	WholeSeats  int    `json:"whole_seats"`
	Remainder   string `json:"remainder"`
	TotalSeats  int    `json:"total_seats"`
	FilledSeats int    `json:"filled_seats"`
}

// RunDTO is a stored allocation run.
type RunDTO struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	CreatedAt  time.Time     `json:"created_at"`
	Error      string        `json:"error,omitempty"`
	Quotient   string        `json:"quotient,omitempty"`
	Steps      []StepDTO     `json:"steps"`
	Winners    []WinnerDTO   `json:"winners"`
	Seats      []RunSeatsDTO `json:"seats"`
	Eliminated []string      `json:"eliminated"`
}

func toRunDTO(run document.Run) RunDTO {
	dto := RunDTO{
		ID:         run.ID,
		DocumentID: run.DocumentID,
		CreatedAt:  run.CreatedAt,
		Error:      run.Error,
		Quotient:   run.Quotient,
		Steps:      toStepDTOs(run.Steps),
		Winners:    toWinnerDTOs(run.Winners),
		Seats:      make([]RunSeatsDTO, len(run.Seats)),
		Eliminated: append([]string{}, run.Eliminated...),
	}
	for i, s := range run.Seats {
		dto.Seats[i] = RunSeatsDTO(s)
	}
	return dto
}

// =============================================================================
// DISTRICT AND SAMPLES
// =============================================================================

// DistrictDTO is the confession seat table.
type DistrictDTO struct {
	factory.DistrictJSON
	TotalSeats    int `json:"total_seats"`
	MinCandidates int `json:"min_candidates"`
}

// SampleDTO describes a built-in demo election.
type SampleDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadSampleRequest is the body of POST /api/samples/load.
type LoadSampleRequest struct {
	SampleID string `json:"sample_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}
