/*
district.go - Confessional seat table and district registry

PURPOSE:
  A District is the immutable configuration every run is measured against:
  which confessions exist and how many seats each one holds. The total seat
  count of the district is the sum of its confession seats.

BUILT-IN:
  Beirut I (8 seats):
    Armenian Orthodox     3
    Armenian Catholic     1
    Maronite              1
    Greek Orthodox        1
    Greek Catholic        1
    Christian Minorities  1

REGISTRY:
  Districts are registered by ID so configuration can refer to them by name.
  factory.ParseDistrict builds additional districts from YAML; they are
  validated before registration and never mutated afterwards.

SEE ALSO:
  - allocate.go: consumes District.SeatCount and District.TotalSeats
  - factory/district.go: YAML district definitions
*/
package election

import (
	"errors"
	"fmt"
	"sync"
)

// ConfessionSeats is one row of the seat table.
type ConfessionSeats struct {
	Confession Confession
	Seats      int
}

// District is an ordered confession seat table.
type District struct {
	ID    string
	Name  string
	Seats []ConfessionSeats
}

// BeirutI returns the built-in Beirut I table.
func BeirutI() District {
	return District{
		ID:   "beirut-1",
		Name: "Beirut I",
		Seats: []ConfessionSeats{
			{Confession: ArmenianOrthodox, Seats: 3},
			{Confession: ArmenianCatholic, Seats: 1},
			{Confession: Maronite, Seats: 1},
			{Confession: GreekOrthodox, Seats: 1},
			{Confession: GreekCatholic, Seats: 1},
			{Confession: ChristianMinorities, Seats: 1},
		},
	}
}

// TotalSeats is the sum of all confession seats.
func (d District) TotalSeats() int {
	total := 0
	for _, s := range d.Seats {
		total += s.Seats
	}
	return total
}

// SeatCount returns the cap for a confession. Unknown confessions have no
// seats, so a candidate carrying one can never be elected.
func (d District) SeatCount(c Confession) int {
	for _, s := range d.Seats {
		if s.Confession == c {
			return s.Seats
		}
	}
	return 0
}

// Confessions lists the confessions in table order.
func (d District) Confessions() []Confession {
	out := make([]Confession, len(d.Seats))
	for i, s := range d.Seats {
		out[i] = s.Confession
	}
	return out
}

// Has reports whether the confession is part of the table.
func (d District) Has(c Confession) bool {
	for _, s := range d.Seats {
		if s.Confession == c {
			return true
		}
	}
	return false
}

// Validate checks the table is usable.
func (d District) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDistrict)
	}
	if len(d.Seats) == 0 {
		return fmt.Errorf("%w: %s has no confessions", ErrInvalidDistrict, d.ID)
	}
	seen := make(map[Confession]bool, len(d.Seats))
	for _, s := range d.Seats {
		if s.Confession == "" {
			return fmt.Errorf("%w: %s has an unnamed confession", ErrInvalidDistrict, d.ID)
		}
		if seen[s.Confession] {
			return fmt.Errorf("%w: %s lists %q twice", ErrInvalidDistrict, d.ID, s.Confession)
		}
		if s.Seats <= 0 {
			return fmt.Errorf("%w: %s gives %q %d seats", ErrInvalidDistrict, d.ID, s.Confession, s.Seats)
		}
		seen[s.Confession] = true
	}
	return nil
}

func (d District) clone() District {
	out := d
	out.Seats = make([]ConfessionSeats, len(d.Seats))
	copy(out.Seats, d.Seats)
	return out
}

// =============================================================================
// DISTRICT REGISTRY
// =============================================================================

var (
	districtRegistry = map[string]District{}
	districtMu       sync.RWMutex
)

func init() {
	if err := RegisterDistrict(BeirutI()); err != nil {
		panic(err)
	}
}

// RegisterDistrict validates and stores a district under its ID.
func RegisterDistrict(d District) error {
	if err := d.Validate(); err != nil {
		return err
	}
	districtMu.Lock()
	defer districtMu.Unlock()
	districtRegistry[d.ID] = d.clone()
	return nil
}

// LookupDistrict returns a registered district by ID.
func LookupDistrict(id string) (District, error) {
	districtMu.RLock()
	defer districtMu.RUnlock()
	d, ok := districtRegistry[id]
	if !ok {
		return District{}, fmt.Errorf("%w: %s", ErrDistrictNotFound, id)
	}
	return d.clone(), nil
}

// IsDistrictError reports whether err came from district configuration.
func IsDistrictError(err error) bool {
	return errors.Is(err, ErrInvalidDistrict) || errors.Is(err, ErrDistrictNotFound)
}
