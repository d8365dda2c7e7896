package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/warp/seat-engine/election"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DISTRICT FILES
// =============================================================================

// DistrictJSON is the serialized form of a district's seat table.
//
//	id: beirut-1
//	name: Beirut I
//	seats:
//	  - confession: Armenian Orthodox
//	    seats: 3
type DistrictJSON struct {
	ID    string          `json:"id" yaml:"id"`
	Name  string          `json:"name" yaml:"name"`
	Seats []SeatCountJSON `json:"seats" yaml:"seats"`
}

// SeatCountJSON is one row of a district's seat table.
type SeatCountJSON struct {
	Confession string `json:"confession" yaml:"confession"`
	Seats      int    `json:"seats" yaml:"seats"`
}

// ParseDistrict decodes and validates a district table.
func ParseDistrict(data []byte, format Format) (election.District, error) {
	var dj DistrictJSON
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &dj); err != nil {
			return election.District{}, fmt.Errorf("invalid district YAML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&dj); err != nil {
			return election.District{}, fmt.Errorf("invalid district JSON: %w", err)
		}
	}
	d := dj.ToDistrict()
	if err := d.Validate(); err != nil {
		return election.District{}, err
	}
	return d, nil
}

// LoadDistrictFile reads a district table from disk and registers it.
func LoadDistrictFile(path string) (election.District, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return election.District{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	d, err := ParseDistrict(data, FormatFor(path))
	if err != nil {
		return election.District{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := election.RegisterDistrict(d); err != nil {
		return election.District{}, err
	}
	return d, nil
}

// ToDistrict converts the file form to an engine district.
func (dj DistrictJSON) ToDistrict() election.District {
	d := election.District{ID: dj.ID, Name: dj.Name}
	for _, s := range dj.Seats {
		d.Seats = append(d.Seats, election.ConfessionSeats{
			Confession: election.Confession(s.Confession),
			Seats:      s.Seats,
		})
	}
	return d
}

// FromDistrict converts an engine district to its file form.
func FromDistrict(d election.District) DistrictJSON {
	dj := DistrictJSON{ID: d.ID, Name: d.Name, Seats: []SeatCountJSON{}}
	for _, s := range d.Seats {
		dj.Seats = append(dj.Seats, SeatCountJSON{Confession: string(s.Confession), Seats: s.Seats})
	}
	return dj
}
