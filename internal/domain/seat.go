package domain

import (
	"fmt"
	"time"
)

// Slot addresses one seat: a block number and a row-qualified seat label.
type Slot struct {
	Block int
	Seat  string
}

func (s Slot) String() string { return fmt.Sprintf("%d/%s", s.Block, s.Seat) }

// ParkingBlock is never a real block. Swaps park one row there under a
// per-operation label so the slot uniqueness constraint holds at every step.
const ParkingBlock = 0

// Occasion is one scheduling day. Seq is a small dense integer used to build
// advisory lock keys.
type Occasion struct {
	ID   string
	Seq  int64
	Name string
	Day  time.Time
}

// Assignment binds one person to one slot for one occasion.
type Assignment struct {
	ID         string
	OccasionID string
	PersonID   string
	Slot       Slot
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SameState reports whether two snapshots of the same row agree on who sits
// where.
func (a Assignment) SameState(b Assignment) bool {
	return a.ID == b.ID &&
		a.OccasionID == b.OccasionID &&
		a.PersonID == b.PersonID &&
		a.Slot == b.Slot
}
