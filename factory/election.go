/*
Package factory converts JSON and YAML election files into engine types.

PURPOSE:
  Election data enters the system as documents written by people or by the
  editing front end. The factory turns those documents into election.List
  snapshots and document.Document values, and back again, so every outer
  surface (HTTP API, CLI, files) shares one wire shape.

FILE SCHEMA (JSON shown, YAML uses the same keys):
  {
    "name": "Beirut I 2026",
    "district": "beirut-1",
    "lists": [
      {
        "id": "list1",
        "name": "Strong Republic",
        "color": "#2563eb",
        "votes": 28000,
        "candidates": [
          {"id": "c1", "name": "Hagop Terzian", "confession": "Armenian Orthodox", "pref_votes": 8500}
        ]
      }
    ]
  }

KEY FEATURES:
  - Missing list/candidate ids are generated (UUID)
  - Negative counts and confessions outside the district are rejected
  - Format chosen by file extension (.yaml/.yml, otherwise JSON)

SEE ALSO:
  - district.go: district table files
  - api/dto.go: reuses ListJSON on the wire
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/warp/seat-engine/document"
	"github.com/warp/seat-engine/election"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// FILE SCHEMA TYPES
// =============================================================================

// ElectionFile is the serialized form of an election document.
type ElectionFile struct {
	Name     string     `json:"name" yaml:"name"`
	District string     `json:"district,omitempty" yaml:"district,omitempty"`
	Lists    []ListJSON `json:"lists" yaml:"lists"`
}

// ListJSON is the serialized form of a list.
type ListJSON struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	Color      string          `json:"color" yaml:"color"`
	Votes      int             `json:"votes" yaml:"votes"`
	Candidates []CandidateJSON `json:"candidates" yaml:"candidates"`
}

// CandidateJSON is the serialized form of a candidate.
type CandidateJSON struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Confession string `json:"confession" yaml:"confession"`
	PrefVotes  int    `json:"pref_votes" yaml:"pref_votes"`
}

// Format names a serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file name.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// PARSING
// =============================================================================

// ParseElection decodes an election file.
func ParseElection(data []byte, format Format) (*ElectionFile, error) {
	var f ElectionFile
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("invalid election YAML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("invalid election JSON: %w", err)
		}
	}
	return &f, nil
}

// LoadElectionFile reads and decodes an election file from disk.
func LoadElectionFile(path string) (*ElectionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseElection(data, FormatFor(path))
}

// DistrictID returns the file's district, defaulting to Beirut I.
func (f *ElectionFile) DistrictID() string {
	if f.District == "" {
		return election.BeirutI().ID
	}
	return f.District
}

// EngineLists converts the file to validated engine lists.
func (f *ElectionFile) EngineLists(d election.District) ([]election.List, error) {
	lists := ToLists(f.Lists)
	if err := document.Validate(lists, d); err != nil {
		return nil, err
	}
	return lists, nil
}

// ToDocument builds a new document from the file.
func (f *ElectionFile) ToDocument(d election.District) (*document.Document, error) {
	lists, err := f.EngineLists(d)
	if err != nil {
		return nil, err
	}
	doc := document.New(f.Name, d)
	if len(lists) > 0 {
		if err := doc.ReplaceLists(lists, d); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Marshal encodes the file in the given format.
func (f *ElectionFile) Marshal(format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(f)
	}
	return json.MarshalIndent(f, "", "  ")
}

// FromDocument builds the serialized form of a document.
func FromDocument(doc *document.Document) *ElectionFile {
	return &ElectionFile{Name: doc.Name, District: doc.DistrictID, Lists: FromLists(doc.Lists)}
}

// =============================================================================
// CONVERSION
// =============================================================================

// ToLists converts wire lists to engine lists, filling in missing ids.
func ToLists(in []ListJSON) []election.List {
	out := make([]election.List, len(in))
	for i, l := range in {
		id := l.ID
		if id == "" {
			id = uuid.NewString()
		}
		out[i] = election.List{ID: id, Name: l.Name, Color: l.Color, Votes: l.Votes}
		for _, c := range l.Candidates {
			out[i].Candidates = append(out[i].Candidates, ToCandidate(c))
		}
	}
	return out
}

// ToCandidate converts a wire candidate, filling in a missing id.
func ToCandidate(c CandidateJSON) election.Candidate {
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}
	return election.Candidate{
		ID:                id,
		Name:              c.Name,
		Confession:        election.Confession(c.Confession),
		PreferentialVotes: c.PrefVotes,
	}
}

// FromLists converts engine lists to wire lists.
func FromLists(in []election.List) []ListJSON {
	out := make([]ListJSON, len(in))
	for i, l := range in {
		out[i] = ListJSON{ID: l.ID, Name: l.Name, Color: l.Color, Votes: l.Votes, Candidates: []CandidateJSON{}}
		for _, c := range l.Candidates {
			out[i].Candidates = append(out[i].Candidates, FromCandidate(c))
		}
	}
	return out
}

// FromCandidate converts an engine candidate to its wire form.
func FromCandidate(c election.Candidate) CandidateJSON {
	return CandidateJSON{
		ID:         c.ID,
		Name:       c.Name,
		Confession: string(c.Confession),
		PrefVotes:  c.PreferentialVotes,
	}
}
