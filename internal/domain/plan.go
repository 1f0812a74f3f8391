package domain

import "fmt"

// RatioBand is an inclusive range of female-occupant ratios.
type RatioBand struct {
	Min float64
	Max float64
}

// DefaultRatioBand is the required female share of a plan.
func DefaultRatioBand() RatioBand {
	return RatioBand{Min: 0.60, Max: 0.70}
}

func (b RatioBand) Validate() error {
	if b.Min < 0 || b.Max > 1 || b.Min > b.Max {
		return fmt.Errorf("%w: [%v, %v]", ErrInvalidTargetRange, b.Min, b.Max)
	}
	return nil
}

func (b RatioBand) Contains(ratio float64) bool {
	return ratio >= b.Min && ratio <= b.Max
}

func (b RatioBand) String() string {
	return fmt.Sprintf("[%.2f, %.2f]", b.Min, b.Max)
}

// Demographics summarises the gender split of a set of people.
type Demographics struct {
	Female int
	Male   int
}

func (d Demographics) Total() int { return d.Female + d.Male }

// FemaleRatio is 0 for an empty set.
func (d Demographics) FemaleRatio() float64 {
	if d.Total() == 0 {
		return 0
	}
	return float64(d.Female) / float64(d.Total())
}

// Placement is one person bound to one slot in a plan.
type Placement struct {
	Person Person
	Slot   Slot
}

// Plan is an accepted, not yet persisted seating.
type Plan struct {
	Placements []Placement
	// Unplaced holds groups that did not fit the remaining capacity.
	Unplaced []CohesionGroup
	Summary  Demographics
	// Ordering names the group ordering that produced the plan.
	Ordering string
	Attempts int
}
