/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Stateless allocation and scenario endpoints
- Document editing round trips
- Runs, scenarios, sweep and adoption on stored documents
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	memstore "github.com/warp/seat-engine/document/store"
	"github.com/warp/seat-engine/election"
	"github.com/warp/seat-engine/factory"
	"github.com/warp/seat-engine/store/sqlite"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	return NewRouter(setupTestHandler(t), nil)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func loadSample(t *testing.T, router http.Handler, id string) DocumentDTO {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/samples/load", LoadSampleRequest{SampleID: id})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[DocumentDTO](t, rec)
}

// =============================================================================
// STATELESS
// =============================================================================

func TestHealth_PingsStore(t *testing.T) {
	// GIVEN: a handler on an open SQLite store
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	router := NewRouter(NewHandler(store, election.BeirutI(), nil), nil)

	// THEN: healthy while the connection is open
	rec := do(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// WHEN: the store is closed
	require.NoError(t, store.Close())

	// THEN: 503 with the ping error
	rec = do(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Store unavailable", body.Error)
	assert.NotEmpty(t, body.Details)
}

func TestHealth_StoreWithoutPing(t *testing.T) {
	router := NewRouter(NewHandler(memstore.NewMemory(), election.BeirutI(), nil), nil)

	rec := do(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAllocate_LargestRemainder(t *testing.T) {
	// GIVEN: 500 / 300 / 200 votes (quotient 125)
	// WHEN: POST /api/allocate
	// THEN: 4 / 2 / 2 seats, the 200-vote list taking the remainder seat

	router := setupRouter(t)
	rec := do(t, router, http.MethodPost, "/api/allocate", AllocateRequest{Lists: []factory.ListJSON{
		{ID: "a", Name: "A", Votes: 500},
		{ID: "b", Name: "B", Votes: 300},
		{ID: "c", Name: "C", Votes: 200},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[OutcomeDTO](t, rec)
	assert.Equal(t, "125", out.Quotient)
	assert.Equal(t, 8, out.SeatsAllocated)
	require.Len(t, out.Allocation, 3)
	assert.Equal(t, 4, out.Allocation[0].TotalSeats)
	assert.Equal(t, 2, out.Allocation[1].TotalSeats)
	assert.Equal(t, 2, out.Allocation[2].TotalSeats)
	assert.Equal(t, "75", out.Allocation[2].Remainder)
	assert.Empty(t, out.Winners)
	assert.Equal(t, "Total Valid Votes", out.Steps[0].Title)
}

func TestAllocate_FailureCarriesTrace(t *testing.T) {
	router := setupRouter(t)

	rec := do(t, router, http.MethodPost, "/api/allocate", AllocateRequest{Lists: []factory.ListJSON{
		{ID: "a", Name: "A"},
	}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	out := decode[AllocationErrorResponse](t, rec)
	assert.Equal(t, "No valid votes cast.", out.Error)
	require.Len(t, out.Steps, 1)
	assert.Equal(t, "Total Valid Votes", out.Steps[0].Title)
}

func TestAllocate_RejectsInvalidInput(t *testing.T) {
	router := setupRouter(t)

	rec := do(t, router, http.MethodPost, "/api/allocate", AllocateRequest{Lists: []factory.ListJSON{
		{ID: "a", Name: "A", Votes: -1},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/allocate", bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
	assert.Equal(t, "Invalid request body", decode[ErrorResponse](t, raw).Error)
}

func TestScenarios_Stateless(t *testing.T) {
	router := setupRouter(t)
	lists := []factory.ListJSON{
		{ID: "a", Name: "A", Votes: 600, Candidates: []factory.CandidateJSON{
			{ID: "a1", Name: "Aram", Confession: "Armenian Orthodox", PrefVotes: 300},
		}},
		{ID: "b", Name: "B", Votes: 400, Candidates: []factory.CandidateJSON{}},
	}

	rec := do(t, router, http.MethodPost, "/api/scenarios", ScenarioRequest{Lists: lists, TargetCandidateID: "a1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	results := decode[[]ScenarioDTO](t, rec)
	require.NotEmpty(t, results)
	assert.Equal(t, "Current Configuration", results[0].Name)
	assert.True(t, results[0].Wins)
	assert.Nil(t, results[0].Lists)

	rec = do(t, router, http.MethodPost, "/api/scenarios", ScenarioRequest{Lists: lists, TargetCandidateID: "nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/scenarios", ScenarioRequest{Lists: lists, TargetCandidateID: "a1", Match: "fuzzy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDistrict(t *testing.T) {
	router := setupRouter(t)

	rec := do(t, router, http.MethodGet, "/api/district", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode[DistrictDTO](t, rec)
	assert.Equal(t, "beirut-1", out.ID)
	assert.Equal(t, 8, out.TotalSeats)
	assert.Equal(t, 4, out.MinCandidates)
	require.Len(t, out.Seats, 6)
	assert.Equal(t, "Armenian Orthodox", out.Seats[0].Confession)
	assert.Equal(t, 3, out.Seats[0].Seats)
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func TestDocument_EditingRoundTrip(t *testing.T) {
	// GIVEN: a new document
	// WHEN: adding a list, setting votes, adding and editing a candidate
	// THEN: every change is persisted and visible on GET

	router := setupRouter(t)

	rec := do(t, router, http.MethodPost, "/api/documents", CreateDocumentRequest{Name: "Beirut I 2026"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[DocumentDTO](t, rec)
	require.Len(t, doc.Lists, 1)
	assert.Len(t, doc.Lists[0].Candidates, 8)
	base := "/api/documents/" + doc.ID

	rec = do(t, router, http.MethodPost, base+"/lists", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	doc = decode[DocumentDTO](t, rec)
	require.Len(t, doc.Lists, 2)
	listB := doc.Lists[1]
	assert.Equal(t, "List B", listB.Name)

	votes := 4200
	rec = do(t, router, http.MethodPut, base+"/lists/"+listB.ID, UpdateListRequest{Votes: &votes})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, base+"/lists/"+listB.ID+"/candidates", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	doc = decode[DocumentDTO](t, rec)
	cand := doc.Lists[1].Candidates[0]
	assert.Equal(t, "Armenian Orthodox", cand.Confession)

	name, confession, pref := "Lara Haddad", "Maronite", 1300
	rec = do(t, router, http.MethodPut, base+"/lists/"+listB.ID+"/candidates/"+cand.ID, UpdateCandidateRequest{
		Name: &name, Confession: &confession, PrefVotes: &pref,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc = decode[DocumentDTO](t, rec)
	assert.Equal(t, 4200, doc.Lists[1].Votes)
	assert.Equal(t, "Lara Haddad", doc.Lists[1].Candidates[0].Name)
	assert.Equal(t, 1300, doc.Lists[1].Candidates[0].PrefVotes)
	assert.Equal(t, 4200, doc.Stats.TotalVotes)
	assert.Equal(t, "525", doc.Stats.Quotient)

	// short slate and divergence warnings for List B
	codes := map[string]bool{}
	for _, w := range doc.Warnings {
		codes[w.Code] = true
	}
	assert.True(t, codes["short_slate"])
	assert.True(t, codes["votes_diverged"])

	rec = do(t, router, http.MethodPost, base+"/lists/"+listB.ID+"/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1300, decode[DocumentDTO](t, rec).Lists[1].Votes)

	rec = do(t, router, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summaries := decode[[]DocumentSummaryDTO](t, rec)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].Lists)
}

func TestDocument_ErrorStatuses(t *testing.T) {
	router := setupRouter(t)

	rec := do(t, router, http.MethodGet, "/api/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/documents", CreateDocumentRequest{Name: "x"})
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := decode[DocumentDTO](t, rec)
	base := "/api/documents/" + doc.ID
	list := doc.Lists[0]

	rec = do(t, router, http.MethodDelete, base+"/lists/"+list.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "the last list cannot be removed")

	rec = do(t, router, http.MethodPut, base+"/lists/nope", UpdateListRequest{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	druze := "Druze"
	rec = do(t, router, http.MethodPut, base+"/lists/"+list.ID+"/candidates/"+list.Candidates[0].ID, UpdateCandidateRequest{Confession: &druze})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocument_RunsAreRecorded(t *testing.T) {
	// GIVEN: a blank document (no votes) and then the three-way sample
	// WHEN: running each
	// THEN: the failure and the outcome are both recorded as runs

	router := setupRouter(t)

	rec := do(t, router, http.MethodPost, "/api/documents", CreateDocumentRequest{Name: "blank"})
	require.Equal(t, http.StatusCreated, rec.Code)
	blank := decode[DocumentDTO](t, rec)

	rec = do(t, router, http.MethodPost, "/api/documents/"+blank.ID+"/run", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	failed := decode[RunDTO](t, rec)
	assert.Equal(t, "No valid votes cast.", failed.Error)
	assert.Len(t, failed.Steps, 1)

	doc := loadSample(t, router, "three-way")
	rec = do(t, router, http.MethodPost, "/api/documents/"+doc.ID+"/run", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	run := decode[RunDTO](t, rec)
	assert.Empty(t, run.Error)
	assert.Equal(t, "2500", run.Quotient)
	assert.Len(t, run.Winners, 8)

	rec = do(t, router, http.MethodGet, "/api/documents/"+doc.ID+"/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]RunDTO](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	rec = do(t, router, http.MethodGet, "/api/documents/missing/runs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocument_ScenariosAndAdopt(t *testing.T) {
	// GIVEN: the three-way sample
	// WHEN: exploring scenarios for Levon Avedissian and adopting one
	// THEN: the baseline is a win and the adopted lists replace the document's

	router := setupRouter(t)
	doc := loadSample(t, router, "three-way")
	base := "/api/documents/" + doc.ID

	rec := do(t, router, http.MethodPost, base+"/scenarios", ScenarioRequest{TargetCandidateID: "oc-1", Match: "id"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	results := decode[[]ScenarioDTO](t, rec)
	require.Greater(t, len(results), 1)
	assert.True(t, results[0].Wins)

	var adopted *ScenarioDTO
	for i := range results {
		if results[i].Name == "List +20% Votes" {
			adopted = &results[i]
		}
	}
	require.NotNil(t, adopted)
	require.NotEmpty(t, adopted.Lists)

	rec = do(t, router, http.MethodPost, base+"/adopt", AdoptRequest{Lists: adopted.Lists})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[DocumentDTO](t, rec)
	assert.Equal(t, 7200, got.Lists[1].Votes)

	rec = do(t, router, http.MethodPost, base+"/adopt", AdoptRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocument_Sweep(t *testing.T) {
	router := setupRouter(t)
	doc := loadSample(t, router, "three-way")

	rec := do(t, router, http.MethodPost, "/api/documents/"+doc.ID+"/sweep", SweepRequest{Limit: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reports := decode[[]TargetReportDTO](t, rec)
	require.Len(t, reports, 14)
	assert.Equal(t, "sr-1", reports[0].CandidateID)
	assert.Contains(t, reports[0].Winning, "Current Configuration")

	rec = do(t, router, http.MethodPost, "/api/documents/"+doc.ID+"/sweep", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "an empty body uses defaults")
}

func TestSamples_ListAndUnknown(t *testing.T) {
	router := setupRouter(t)

	rec := do(t, router, http.MethodGet, "/api/samples", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]SampleDTO](t, rec), len(samples))

	rec = do(t, router, http.MethodPost, "/api/samples/load", LoadSampleRequest{SampleID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocument_Export(t *testing.T) {
	router := setupRouter(t)
	doc := loadSample(t, router, "three-way")
	base := "/api/documents/" + doc.ID + "/export"

	// GIVEN: the three-way sample
	// WHEN: exporting it as YAML
	rec := do(t, router, http.MethodGet, base+"?format=yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	// THEN: the file parses back to the same lists
	f, err := factory.ParseElection(rec.Body.Bytes(), factory.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, doc.Name, f.Name)
	assert.Equal(t, doc.Lists, f.Lists)

	lists, err := f.EngineLists(election.BeirutI())
	require.NoError(t, err)
	outcome, err := election.Allocate(lists)
	require.NoError(t, err)
	assert.Equal(t, 8, outcome.SeatsAllocated())

	// JSON is the default
	rec = do(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err = factory.ParseElection(rec.Body.Bytes(), factory.FormatJSON)
	require.NoError(t, err)
	assert.Len(t, f.Lists, 3)

	rec = do(t, router, http.MethodGet, base+"?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/documents/missing/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
