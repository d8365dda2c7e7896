/*
samples.go - Demo election loaders for testing and demonstrations

PURPOSE:

	Provides pre-built elections that create a ready-to-run document with
	realistic Beirut I data. Each sample demonstrates a specific part of
	the allocation: remainders, eliminations, confessional caps.

AVAILABLE SAMPLES:

	three-way:   Three competitive lists, seats decided by remainders
	fragmented:  Five lists, two of them eliminated below the quotient
	blank:       The default document (one list, eight placeholders)

USAGE VIA API:

	POST /api/samples/load
	{"sample_id": "three-way"}

ADDING NEW SAMPLES:
 1. Add to 'samples' slice with ID, name, description
 2. Add its election JSON to 'sampleElections'

NOTE:

	Loading a sample creates a new document; existing documents are kept.

SEE ALSO:
  - handlers.go: document endpoints used after loading
  - factory/election.go: election JSON schema
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/warp/seat-engine/document"
	"github.com/warp/seat-engine/factory"
	"go.uber.org/zap"
)

// =============================================================================
// SAMPLE DEFINITIONS
// =============================================================================

var samples = []SampleDTO{
	{
		ID:          "three-way",
		Name:        "Three-Way Race",
		Description: "Three competitive lists; the last seats go to the largest remainders",
	},
	{
		ID:          "fragmented",
		Name:        "Fragmented Field",
		Description: "Five lists, two fall below the electoral quotient",
	},
	{
		ID:          "blank",
		Name:        "Blank Document",
		Description: "One list with a placeholder for every confessional seat",
	},
}

var sampleElections = map[string]string{
	"three-way": `{
  "name": "Three-Way Race",
  "lists": [
    {"id": "sr", "name": "Sovereign Beirut", "color": "#2563eb", "votes": 9000, "candidates": [
      {"id": "sr-1", "name": "Hagop Derderian", "confession": "Armenian Orthodox", "pref_votes": 3000},
      {"id": "sr-2", "name": "Sevag Kassardjian", "confession": "Armenian Orthodox", "pref_votes": 1200},
      {"id": "sr-3", "name": "Jean Boghossian", "confession": "Armenian Catholic", "pref_votes": 2500},
      {"id": "sr-4", "name": "Nadim Khoury", "confession": "Maronite", "pref_votes": 1800},
      {"id": "sr-5", "name": "Ghassan Rizk", "confession": "Greek Orthodox", "pref_votes": 500}
    ]},
    {"id": "oc", "name": "Our City", "color": "#dc2626", "votes": 6000, "candidates": [
      {"id": "oc-1", "name": "Levon Avedissian", "confession": "Armenian Orthodox", "pref_votes": 900},
      {"id": "oc-2", "name": "Lara Haddad", "confession": "Maronite", "pref_votes": 2200},
      {"id": "oc-3", "name": "Ziad Atallah", "confession": "Greek Orthodox", "pref_votes": 1600},
      {"id": "oc-4", "name": "Maya Sfeir", "confession": "Greek Catholic", "pref_votes": 800},
      {"id": "oc-5", "name": "Fadi Nahas", "confession": "Christian Minorities", "pref_votes": 500}
    ]},
    {"id": "fa", "name": "Free Achrafieh", "color": "#16a34a", "votes": 5000, "candidates": [
      {"id": "fa-1", "name": "Aram Matossian", "confession": "Armenian Orthodox", "pref_votes": 1500},
      {"id": "fa-2", "name": "Nicolas Saade", "confession": "Greek Catholic", "pref_votes": 1400},
      {"id": "fa-3", "name": "Antoine Bitar", "confession": "Christian Minorities", "pref_votes": 1200},
      {"id": "fa-4", "name": "Karim Chammas", "confession": "Greek Orthodox", "pref_votes": 900}
    ]}
  ]
}`,
	"fragmented": `{
  "name": "Fragmented Field",
  "lists": [
    {"id": "a", "name": "Renewal", "color": "#2563eb", "votes": 12000, "candidates": [
      {"id": "a-1", "name": "Garo Hovsepian", "confession": "Armenian Orthodox", "pref_votes": 4000},
      {"id": "a-2", "name": "Vahe Manoukian", "confession": "Armenian Orthodox", "pref_votes": 2500},
      {"id": "a-3", "name": "Rita Azar", "confession": "Maronite", "pref_votes": 3000},
      {"id": "a-4", "name": "Elie Gerges", "confession": "Greek Orthodox", "pref_votes": 2500}
    ]},
    {"id": "b", "name": "Unity", "color": "#dc2626", "votes": 8000, "candidates": [
      {"id": "b-1", "name": "Shant Kalaydjian", "confession": "Armenian Orthodox", "pref_votes": 2600},
      {"id": "b-2", "name": "Paul Torossian", "confession": "Armenian Catholic", "pref_votes": 2400},
      {"id": "b-3", "name": "Joseph Maalouf", "confession": "Greek Catholic", "pref_votes": 1800},
      {"id": "b-4", "name": "Samir Sarkis", "confession": "Christian Minorities", "pref_votes": 1200}
    ]},
    {"id": "c", "name": "Citizens", "color": "#16a34a", "votes": 4000, "candidates": [
      {"id": "c-1", "name": "Nora Kevorkian", "confession": "Armenian Orthodox", "pref_votes": 1500},
      {"id": "c-2", "name": "Tony Khalil", "confession": "Maronite", "pref_votes": 1500},
      {"id": "c-3", "name": "Rami Habib", "confession": "Greek Orthodox", "pref_votes": 1000}
    ]},
    {"id": "d", "name": "Independents", "color": "#9333ea", "votes": 1500, "candidates": [
      {"id": "d-1", "name": "Serge Tashjian", "confession": "Armenian Catholic", "pref_votes": 900},
      {"id": "d-2", "name": "Hala Nassar", "confession": "Greek Catholic", "pref_votes": 600}
    ]},
    {"id": "e", "name": "Heritage", "color": "#ea580c", "votes": 900, "candidates": [
      {"id": "e-1", "name": "Michel Asmar", "confession": "Christian Minorities", "pref_votes": 900}
    ]}
  ]
}`,
	"blank": `{"name": "Blank Document", "lists": []}`,
}

// ListSamples returns the available samples.
func (h *Handler) ListSamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, samples)
}

// LoadSample creates a new document from a sample.
func (h *Handler) LoadSample(w http.ResponseWriter, r *http.Request) {
	var req LoadSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	raw, ok := sampleElections[req.SampleID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown sample", nil)
		return
	}

	doc, err := h.sampleDocument(raw)
	if err != nil {
		h.writeDomainError(w, "Failed to load sample", err)
		return
	}
	if err := h.Store.SaveDocument(r.Context(), doc); err != nil {
		h.writeInternal(w, "Failed to save document", err)
		return
	}
	h.Logger.Info("sample loaded", zap.String("sample_id", req.SampleID), zap.String("document_id", doc.ID))
	writeJSON(w, http.StatusCreated, toDocumentDTO(doc, h.District))
}

func (h *Handler) sampleDocument(raw string) (*document.Document, error) {
	f, err := factory.ParseElection([]byte(raw), factory.FormatJSON)
	if err != nil {
		return nil, err
	}
	f.District = h.District.ID
	return f.ToDocument(h.District)
}
