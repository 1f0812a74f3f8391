package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cimillas/seatplan/internal/app"
	"github.com/cimillas/seatplan/internal/domain"
	"github.com/cimillas/seatplan/internal/logging"
)

// SeatMutator is the minimal interface needed by the seat endpoints.
type SeatMutator interface {
	SwapOrMove(ctx context.Context, in app.ReseatInput) (app.ReseatResult, error)
	Release(ctx context.Context, assignmentID string) error
	ListAssignments(ctx context.Context, occasionID string) ([]domain.Assignment, error)
}

type assignmentResponse struct {
	ID         string    `json:"id"`
	OccasionID string    `json:"occasion_id"`
	PersonID   string    `json:"person_id"`
	Block      int       `json:"block_number"`
	Seat       string    `json:"seat_label"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toAssignmentResponse(a domain.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:         a.ID,
		OccasionID: a.OccasionID,
		PersonID:   a.PersonID,
		Block:      a.Slot.Block,
		Seat:       a.Slot.Seat,
		UpdatedAt:  a.UpdatedAt,
	}
}

func toAssignmentResponses(list []domain.Assignment) []assignmentResponse {
	out := make([]assignmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAssignmentResponse(a))
	}
	return out
}

// HandleOccasionAssignments serves GET /occasions/{id}/assignments.
func HandleOccasionAssignments(svc SeatMutator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		list, err := svc.ListAssignments(r.Context(), r.PathValue("id"))
		if err != nil {
			writeDomainError(w, logging.For(r.Context(), logger), err)
			return
		}
		writeJSON(w, http.StatusOK, assignmentsResponse{Assignments: toAssignmentResponses(list)})
	}
}

type assignmentsResponse struct {
	Assignments []assignmentResponse `json:"assignments"`
}

type reseatRequest struct {
	TargetAssignmentID string `json:"target_assignment_id,omitempty"`
	BlockNumber        *int   `json:"block_number,omitempty"`
	SeatLabel          string `json:"seat_label,omitempty"`
}

type reseatResponse struct {
	Kind        string               `json:"kind"`
	Assignments []assignmentResponse `json:"assignments"`
}

// HandleReseat serves POST /assignments/{id}/reseat. The body names either a
// target assignment to swap with or an empty block and seat to move into.
func HandleReseat(svc SeatMutator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}

		var req reseatRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		res, err := svc.SwapOrMove(r.Context(), app.ReseatInput{
			SourceAssignmentID: r.PathValue("id"),
			TargetAssignmentID: req.TargetAssignmentID,
			Block:              req.BlockNumber,
			Seat:               req.SeatLabel,
		})
		if err != nil {
			writeDomainError(w, logging.For(r.Context(), logger), err)
			return
		}
		writeJSON(w, http.StatusOK, reseatResponse{
			Kind:        string(res.Kind),
			Assignments: toAssignmentResponses(res.Assignments),
		})
	}
}

// HandleAssignment serves DELETE /assignments/{id}.
func HandleAssignment(svc SeatMutator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		if err := svc.Release(r.Context(), r.PathValue("id")); err != nil {
			writeDomainError(w, logging.For(r.Context(), logger), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
