package factory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/seat-engine/document"
	"github.com/warp/seat-engine/election"
)

const electionJSON = `{
  "name": "Beirut I 2026",
  "district": "beirut-1",
  "lists": [
    {
      "id": "list1",
      "name": "Strong Republic",
      "color": "#2563eb",
      "votes": 5000,
      "candidates": [
        {"id": "c1", "name": "Hagop Terzian", "confession": "Armenian Orthodox", "pref_votes": 1200},
        {"name": "Nadim Gemayel", "confession": "Maronite", "pref_votes": 900}
      ]
    },
    {
      "id": "list2",
      "name": "Beirut Madinati",
      "color": "#dc2626",
      "votes": 3000,
      "candidates": []
    }
  ]
}`

const electionYAML = `
name: Beirut I 2026
lists:
  - id: list1
    name: Strong Republic
    votes: 5000
    candidates:
      - id: c1
        name: Hagop Terzian
        confession: Armenian Orthodox
        pref_votes: 1200
`

func TestParseElection_JSON(t *testing.T) {
	f, err := ParseElection([]byte(electionJSON), FormatJSON)
	require.NoError(t, err)

	d := election.BeirutI()
	lists, err := f.EngineLists(d)
	require.NoError(t, err)
	require.Len(t, lists, 2)

	assert.Equal(t, "list1", lists[0].ID)
	assert.Equal(t, 5000, lists[0].Votes)
	require.Len(t, lists[0].Candidates, 2)
	assert.Equal(t, election.ArmenianOrthodox, lists[0].Candidates[0].Confession)
	assert.Equal(t, 1200, lists[0].Candidates[0].PreferentialVotes)
	assert.NotEmpty(t, lists[0].Candidates[1].ID, "missing ids are generated")
	assert.Empty(t, lists[1].Candidates)
}

func TestParseElection_YAML(t *testing.T) {
	f, err := ParseElection([]byte(electionYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "Beirut I 2026", f.Name)
	assert.Equal(t, "beirut-1", f.DistrictID(), "district defaults to Beirut I")
	require.Len(t, f.Lists, 1)
	assert.Equal(t, 1200, f.Lists[0].Candidates[0].PrefVotes)
}

func TestParseElection_RejectsBadInput(t *testing.T) {
	_, err := ParseElection([]byte(`{"name": "x", "bogus": 1}`), FormatJSON)
	assert.Error(t, err)

	_, err = ParseElection([]byte("lists: [unterminated"), FormatYAML)
	assert.Error(t, err)

	f, err := ParseElection([]byte(`{"name":"x","lists":[{"name":"A","votes":-1,"candidates":[]}]}`), FormatJSON)
	require.NoError(t, err)
	_, err = f.EngineLists(election.BeirutI())
	assert.ErrorIs(t, err, document.ErrInvalidVotes)

	f, err = ParseElection([]byte(`{"name":"x","lists":[{"name":"A","votes":1,"candidates":[{"name":"c","confession":"Druze"}]}]}`), FormatJSON)
	require.NoError(t, err)
	_, err = f.EngineLists(election.BeirutI())
	assert.ErrorIs(t, err, document.ErrUnknownConfession)
}

func TestElectionFile_DocumentRoundTrip(t *testing.T) {
	// GIVEN: a parsed election file
	// WHEN: building a document and serializing it back
	// THEN: the lists come back unchanged, in both formats

	d := election.BeirutI()
	f, err := ParseElection([]byte(electionJSON), FormatJSON)
	require.NoError(t, err)

	doc, err := f.ToDocument(d)
	require.NoError(t, err)
	assert.Equal(t, "Beirut I 2026", doc.Name)
	require.Len(t, doc.Lists, 2)

	out := FromDocument(doc)
	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := out.Marshal(format)
		require.NoError(t, err)

		back, err := ParseElection(data, format)
		require.NoError(t, err)
		assert.Equal(t, out.Lists, back.Lists, format)
	}
}

func TestElectionFile_EmptyListsKeepsDefault(t *testing.T) {
	f := &ElectionFile{Name: "blank"}
	doc, err := f.ToDocument(election.BeirutI())
	require.NoError(t, err)

	require.Len(t, doc.Lists, 1)
	assert.Len(t, doc.Lists[0].Candidates, 8)
}

func TestLoadElectionFile_PicksFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "beirut.yml")
	require.NoError(t, os.WriteFile(path, []byte(electionYAML), 0o644))

	f, err := LoadElectionFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Strong Republic", f.Lists[0].Name)

	assert.Equal(t, FormatYAML, FormatFor("x.YAML"))
	assert.Equal(t, FormatJSON, FormatFor("x.json"))
	assert.Equal(t, FormatJSON, FormatFor("x"))
}

func TestParseDistrict(t *testing.T) {
	data := []byte(`
id: zahle
name: Zahle
seats:
  - confession: Greek Catholic
    seats: 2
  - confession: Maronite
    seats: 1
`)
	d, err := ParseDistrict(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "zahle", d.ID)
	assert.Equal(t, 3, d.TotalSeats())
	assert.Equal(t, 2, d.SeatCount(election.GreekCatholic))

	_, err = ParseDistrict([]byte(`{"id":"bad","name":"Bad","seats":[{"confession":"Maronite","seats":0}]}`), FormatJSON)
	assert.ErrorIs(t, err, election.ErrInvalidDistrict)
}

func TestLoadDistrictFile_Registers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metn.json")
	dj := FromDistrict(election.District{
		ID:   "metn-test",
		Name: "Metn",
		Seats: []election.ConfessionSeats{
			{Confession: election.Maronite, Seats: 4},
			{Confession: election.GreekOrthodox, Seats: 2},
		},
	})
	data, err := json.Marshal(dj)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	d, err := LoadDistrictFile(path)
	require.NoError(t, err)
	assert.Equal(t, 6, d.TotalSeats())

	got, err := election.LookupDistrict("metn-test")
	require.NoError(t, err)
	assert.Equal(t, d, got)
}
