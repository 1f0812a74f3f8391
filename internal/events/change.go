// Package events describes committed seat changes and ships them to the
// live-update broadcaster.
package events

import (
	"context"
	"time"

	"github.com/cimillas/seatplan/internal/domain"
)

type Kind string

const (
	KindPlanCommitted Kind = "plan.committed"
	KindSeatSwapped   Kind = "seat.swapped"
	KindSeatMoved     Kind = "seat.moved"
	KindSeatReleased  Kind = "seat.released"
)

// Change is the wire form of one committed mutation.
type Change struct {
	Kind        Kind             `json:"kind"`
	OccasionID  string           `json:"occasion_id"`
	Assignments []AssignmentView `json:"assignments"`
	At          time.Time        `json:"at"`
}

type AssignmentView struct {
	ID       string `json:"id"`
	PersonID string `json:"person_id"`
	Block    int    `json:"block_number"`
	Seat     string `json:"seat_label"`
}

// NewChange builds a Change from domain assignments.
func NewChange(kind Kind, occasionID string, at time.Time, assignments ...domain.Assignment) Change {
	views := make([]AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		views = append(views, AssignmentView{
			ID:       a.ID,
			PersonID: a.PersonID,
			Block:    a.Slot.Block,
			Seat:     a.Slot.Seat,
		})
	}
	return Change{Kind: kind, OccasionID: occasionID, Assignments: views, At: at}
}

// NopPublisher drops every change.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Change) error { return nil }
