/*
handlers.go - HTTP API handlers for the seat allocation engine

PURPOSE:
  Exposes the allocation engine, the scenario explorer and the document
  owner via REST API. Handles HTTP request/response, JSON serialization,
  and delegates to domain logic.

ENDPOINTS:
  Stateless:
    GET    /api/health                            Liveness, pings the store
    POST   /api/allocate                          Allocate seats for posted lists
    POST   /api/scenarios                         Run the scenario battery for posted lists
    GET    /api/district                          Confession seat table

  Documents:
    GET    /api/documents                         List documents
    POST   /api/documents                         Create document
    GET    /api/documents/{id}                    Get document (stats, warnings, coverage)
    DELETE /api/documents/{id}                    Delete document and its runs
    GET    /api/documents/{id}/export?format=yaml Election file (JSON default)

  Lists and candidates:
    POST   /api/documents/{id}/lists              Add list
    PUT    /api/documents/{id}/lists/{listID}     Update list
    DELETE /api/documents/{id}/lists/{listID}     Remove list
    POST   /api/documents/{id}/lists/{listID}/sync Set votes to preferential sum
    POST   /api/documents/{id}/lists/{listID}/candidates             Add candidate
    PUT    /api/documents/{id}/lists/{listID}/candidates/{candidateID} Update candidate
    DELETE /api/documents/{id}/lists/{listID}/candidates/{candidateID} Remove candidate

  Runs and scenarios:
    POST   /api/documents/{id}/run                Allocate and record a run
    GET    /api/documents/{id}/runs               Run history
    POST   /api/documents/{id}/scenarios          Scenario battery for one candidate
    POST   /api/documents/{id}/sweep              Battery for every named candidate
    POST   /api/documents/{id}/adopt              Replace lists (adopt a scenario)

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: document persistence
  - District: seat table for stateless endpoints and new documents
  - Logger: structured logging of server-side failures

  Document edits are read-modify-write against the store and are
  serialised by a mutex so concurrent edits do not overwrite each other.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Document, list or candidate not found
  - 409: Document refers to a district that is not configured
  - 422: Allocation failed (body carries the partial trace)
  - 500: Internal errors
  - 503: Store unreachable (health only)

SEE ALSO:
  - dto.go: Request/response data structures
  - samples.go: Demo election loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/seat-engine/document"
	"github.com/warp/seat-engine/election"
	"github.com/warp/seat-engine/factory"
	"github.com/warp/seat-engine/scenario"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    document.Store
	District election.District
	Logger   *zap.Logger

	mu sync.Mutex
}

// NewHandler creates a new handler. A nil logger disables logging.
func NewHandler(store document.Store, district election.District, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Store: store, District: district, Logger: logger}
}

func (h *Handler) explorer(d election.District, match string) *scenario.Explorer {
	ex := scenario.NewExplorer(election.NewEngine(d))
	if scenario.Match(match) == scenario.MatchByID {
		ex.Match = scenario.MatchByID
	}
	return ex
}

// =============================================================================
// STATELESS ENDPOINTS
// =============================================================================

// Allocate runs the engine on the posted lists.
func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	lists := factory.ToLists(req.Lists)
	if err := document.Validate(lists, h.District); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid lists", err)
		return
	}

	outcome, err := election.NewEngine(h.District).Allocate(lists)
	if err != nil {
		writeAllocationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutcomeDTO(outcome))
}

// Scenarios runs the battery on the posted lists.
func (h *Handler) Scenarios(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	lists := factory.ToLists(req.Lists)
	if err := document.Validate(lists, h.District); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid lists", err)
		return
	}
	h.writeScenarios(w, lists, h.District, req)
}

func (h *Handler) writeScenarios(w http.ResponseWriter, lists []election.List, d election.District, req ScenarioRequest) {
	if req.TargetCandidateID == "" {
		writeError(w, http.StatusBadRequest, "target_candidate_id is required", nil)
		return
	}
	if req.Match != "" && req.Match != string(scenario.MatchByName) && req.Match != string(scenario.MatchByID) {
		writeError(w, http.StatusBadRequest, "match must be \"name\" or \"id\"", nil)
		return
	}
	results := h.explorer(d, req.Match).Explore(lists, req.TargetCandidateID)
	if results == nil {
		writeError(w, http.StatusNotFound, "Candidate not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toScenarioDTOs(results))
}

// GetDistrict returns the configured seat table.
func (h *Handler) GetDistrict(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DistrictDTO{
		DistrictJSON:  factory.FromDistrict(h.District),
		TotalSeats:    h.District.TotalSeats(),
		MinCandidates: document.MinCandidates(h.District),
	})
}

// pinger is implemented by stores backed by a connection.
type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness. Stores that can be pinged are checked; a failed
// ping answers 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			h.Logger.Warn("health check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// ListDocuments returns all documents, most recently updated first.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Store.ListDocuments(r.Context())
	if err != nil {
		h.writeInternal(w, "Failed to list documents", err)
		return
	}
	dtos := make([]DocumentSummaryDTO, len(docs))
	for i, doc := range docs {
		dtos[i] = toDocumentSummaryDTO(doc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateDocument creates a document, optionally from posted lists.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = "Untitled election"
	}

	f := &factory.ElectionFile{Name: req.Name, District: h.District.ID, Lists: req.Lists}
	doc, err := f.ToDocument(h.District)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid lists", err)
		return
	}
	if err := h.Store.SaveDocument(r.Context(), doc); err != nil {
		h.writeInternal(w, "Failed to save document", err)
		return
	}
	h.Logger.Info("document created", zap.String("document_id", doc.ID), zap.Int("lists", len(doc.Lists)))
	writeJSON(w, http.StatusCreated, toDocumentDTO(doc, h.District))
}

// GetDocument returns a document with stats, warnings and coverage.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, d, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc, d))
}

// ExportDocument returns the document as an election file that seatctl and
// CreateDocument accept. ?format=yaml selects YAML; JSON is the default.
func (h *Handler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	format := factory.FormatJSON
	contentType := "application/json"
	requested := r.URL.Query().Get("format")
	switch strings.ToLower(requested) {
	case "", "json":
	case "yaml", "yml":
		format = factory.FormatYAML
		contentType = "application/yaml"
	default:
		writeError(w, http.StatusBadRequest, "Unsupported format",
			fmt.Errorf("format must be json or yaml, got %q", requested))
		return
	}

	doc, _, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	data, err := factory.FromDocument(doc).Marshal(format)
	if err != nil {
		h.writeInternal(w, "Failed to export document", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.ID+"."+string(format)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// DeleteDocument removes a document and its runs.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteDocument(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadDocument fetches the {id} document and its district, writing the
// error response itself when it fails.
func (h *Handler) loadDocument(w http.ResponseWriter, r *http.Request) (*document.Document, election.District, bool) {
	doc, err := h.Store.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to load document", err)
		return nil, election.District{}, false
	}
	d, err := h.districtFor(doc)
	if err != nil {
		h.writeDomainError(w, "Document district is not configured", err)
		return nil, election.District{}, false
	}
	return doc, d, true
}

func (h *Handler) districtFor(doc *document.Document) (election.District, error) {
	if doc.DistrictID == h.District.ID {
		return h.District, nil
	}
	return election.LookupDistrict(doc.DistrictID)
}

// edit loads the {id} document, applies fn and saves it. fn writes nothing;
// on success the updated document is returned as JSON with status.
func (h *Handler) edit(w http.ResponseWriter, r *http.Request, status int, fn func(doc *document.Document, d election.District) error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc, d, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	if err := fn(doc, d); err != nil {
		h.writeDomainError(w, "Failed to update document", err)
		return
	}
	if err := h.Store.SaveDocument(r.Context(), doc); err != nil {
		h.writeInternal(w, "Failed to save document", err)
		return
	}
	writeJSON(w, status, toDocumentDTO(doc, d))
}

// =============================================================================
// LISTS AND CANDIDATES
// =============================================================================

// AddList appends an empty list.
func (h *Handler) AddList(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, http.StatusCreated, func(doc *document.Document, _ election.District) error {
		doc.AddList()
		return nil
	})
}

// UpdateList patches a list's name, colour or votes.
func (h *Handler) UpdateList(w http.ResponseWriter, r *http.Request) {
	var req UpdateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.edit(w, r, http.StatusOK, func(doc *document.Document, _ election.District) error {
		_, err := doc.UpdateList(chi.URLParam(r, "listID"), document.ListPatch{
			Name:  req.Name,
			Color: req.Color,
			Votes: req.Votes,
		})
		return err
	})
}

// RemoveList deletes a list. The last list cannot be removed.
func (h *Handler) RemoveList(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, http.StatusOK, func(doc *document.Document, _ election.District) error {
		return doc.RemoveList(chi.URLParam(r, "listID"))
	})
}

// SyncVotes sets a list's votes to the sum of its preferential votes.
func (h *Handler) SyncVotes(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, http.StatusOK, func(doc *document.Document, _ election.District) error {
		_, err := doc.SyncVotes(chi.URLParam(r, "listID"))
		return err
	})
}

// AddCandidate appends a blank candidate to a list.
func (h *Handler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, http.StatusCreated, func(doc *document.Document, d election.District) error {
		_, err := doc.AddCandidate(chi.URLParam(r, "listID"), d)
		return err
	})
}

// UpdateCandidate patches a candidate's name, confession or preferential votes.
func (h *Handler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	var req UpdateCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	patch := document.CandidatePatch{Name: req.Name, PreferentialVotes: req.PrefVotes}
	if req.Confession != nil {
		c := election.Confession(*req.Confession)
		patch.Confession = &c
	}
	h.edit(w, r, http.StatusOK, func(doc *document.Document, d election.District) error {
		_, err := doc.UpdateCandidate(chi.URLParam(r, "listID"), chi.URLParam(r, "candidateID"), patch, d)
		return err
	})
}

// RemoveCandidate deletes a candidate.
func (h *Handler) RemoveCandidate(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, http.StatusOK, func(doc *document.Document, _ election.District) error {
		return doc.RemoveCandidate(chi.URLParam(r, "listID"), chi.URLParam(r, "candidateID"))
	})
}

// AdoptLists replaces the document's lists, e.g. with a scenario's lists.
func (h *Handler) AdoptLists(w http.ResponseWriter, r *http.Request) {
	var req AdoptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.edit(w, r, http.StatusOK, func(doc *document.Document, d election.District) error {
		return doc.ReplaceLists(factory.ToLists(req.Lists), d)
	})
}

// =============================================================================
// RUNS AND SCENARIOS
// =============================================================================

// RunDocument allocates the document's current lists and records the run.
// A failed allocation is recorded too; the response carries its error.
func (h *Handler) RunDocument(w http.ResponseWriter, r *http.Request) {
	doc, d, ok := h.loadDocument(w, r)
	if !ok {
		return
	}

	outcome, allocErr := election.NewEngine(d).Allocate(doc.Snapshot())
	run := document.NewRun(doc.ID, outcome, allocErr)
	if err := h.Store.SaveRun(r.Context(), run); err != nil {
		h.writeDomainError(w, "Failed to record run", err)
		return
	}

	fields := []zap.Field{zap.String("document_id", doc.ID), zap.String("run_id", run.ID)}
	if allocErr != nil {
		h.Logger.Info("allocation failed", append(fields, zap.Error(allocErr))...)
	} else {
		h.Logger.Info("allocation recorded", append(fields, zap.Int("winners", len(outcome.Winners)))...)
	}
	writeJSON(w, http.StatusCreated, toRunDTO(run))
}

// ListRuns returns the document's run history, oldest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetDocument(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to load document", err)
		return
	}
	runs, err := h.Store.ListRuns(r.Context(), id)
	if err != nil {
		h.writeInternal(w, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DocumentScenarios runs the battery for one candidate of the document.
func (h *Handler) DocumentScenarios(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	doc, d, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	h.writeScenarios(w, doc.Snapshot(), d, req)
}

// Sweep runs the battery for every named candidate of the document.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	doc, d, ok := h.loadDocument(w, r)
	if !ok {
		return
	}

	reports, err := h.explorer(d, req.Match).Sweep(r.Context(), doc.Snapshot(), req.Limit)
	if err != nil {
		h.writeInternal(w, "Sweep interrupted", err)
		return
	}
	writeJSON(w, http.StatusOK, toTargetReportDTOs(reports))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeAllocationError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnprocessableEntity, AllocationErrorResponse{
		Error: err.Error(),
		Steps: toStepDTOs(election.StepsOf(err)),
	})
}

// writeDomainError maps document and district errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case document.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case document.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, election.ErrDistrictNotFound):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.writeInternal(w, message, err)
	}
}

func (h *Handler) writeInternal(w http.ResponseWriter, message string, err error) {
	h.Logger.Error(message, zap.Error(err))
	writeError(w, http.StatusInternalServerError, message, err)
}
