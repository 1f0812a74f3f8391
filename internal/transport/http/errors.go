package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cimillas/seatplan/internal/domain"
)

const (
	codeMethodNotAllowed        = "method_not_allowed"
	codeNotFound                = "not_found"
	codeInvalidRequestBody      = "invalid_request_body"
	codeInvalidDay              = "invalid_day"
	codeValidation              = "validation_error"
	codeInvalidID               = "invalid_id"
	codeInvalidBlock            = "invalid_block"
	codeInvalidSeatLabel        = "invalid_seat_label"
	codeTargetRequired          = "target_required"
	codeAmbiguousTarget         = "ambiguous_target"
	codeSameAssignment          = "same_assignment"
	codeSameSlot                = "same_slot"
	codeCrossOccasionSwap       = "cross_occasion_swap"
	codeNameRequired            = "name_required"
	codeInvalidGender           = "invalid_gender"
	codeInvalidStatus           = "invalid_status"
	codeAssignmentNotFound      = "assignment_not_found"
	codeOccasionNotFound        = "occasion_not_found"
	codePersonNotFound          = "person_not_found"
	codeConflict                = "conflict"
	codeSlotOccupied            = "slot_occupied"
	codePersonSeated            = "person_seated"
	codeAssignmentMoved         = "assignment_moved"
	codeNoCandidates            = "no_candidates"
	codeConstraintUnsatisfiable = "constraint_unsatisfiable"
	codePersistence             = "persistence_error"
	codeLock                    = "lock_error"
	codeForbidden               = "forbidden"
	codeInternalError           = "internal_error"
	codeUnavailable             = "unavailable"
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorDetails(w, status, code, msg, nil)
}

func writeErrorDetails(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error:   msg,
		Code:    code,
		Details: details,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// specificCodes maps concrete domain errors to stable API codes.
var specificCodes = []struct {
	err  error
	code string
}{
	{domain.ErrInvalidID, codeInvalidID},
	{domain.ErrInvalidBlock, codeInvalidBlock},
	{domain.ErrInvalidSeatLabel, codeInvalidSeatLabel},
	{domain.ErrTargetRequired, codeTargetRequired},
	{domain.ErrAmbiguousTarget, codeAmbiguousTarget},
	{domain.ErrSameAssignment, codeSameAssignment},
	{domain.ErrSameSlot, codeSameSlot},
	{domain.ErrCrossOccasionSwap, codeCrossOccasionSwap},
	{domain.ErrNameRequired, codeNameRequired},
	{domain.ErrInvalidGender, codeInvalidGender},
	{domain.ErrInvalidStatus, codeInvalidStatus},
	{domain.ErrAssignmentNotFound, codeAssignmentNotFound},
	{domain.ErrOccasionNotFound, codeOccasionNotFound},
	{domain.ErrPersonNotFound, codePersonNotFound},
	{domain.ErrSlotOccupied, codeSlotOccupied},
	{domain.ErrPersonSeated, codePersonSeated},
	{domain.ErrAssignmentMoved, codeAssignmentMoved},
	{domain.ErrNoCandidates, codeNoCandidates},
}

func codeFor(err error, fallback string) string {
	for _, c := range specificCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return fallback
}

type unsatisfiableDetails struct {
	FemaleCount      int        `json:"female_count"`
	MaleCount        int        `json:"male_count"`
	Total            int        `json:"total"`
	FemalePercentage float64    `json:"female_percentage"`
	TargetRange      [2]float64 `json:"target_range"`
	Attempts         int        `json:"attempts"`
}

type conflictDetails struct {
	ConflictingAssignment *assignmentResponse `json:"conflicting_assignment,omitempty"`
}

// writeDomainError renders err by category. Persistence and lock failures are
// checked first because they may wrap a categorised cause.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		unsat    *domain.UnsatisfiableError
		conflict *domain.ConflictError
	)
	switch {
	case errors.Is(err, domain.ErrPersistence):
		logger.Error("persistence failure", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codePersistence, "seat plan could not be stored")
	case errors.Is(err, domain.ErrLock):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, codeLock, "seat is busy, retry the request")
	case errors.As(err, &unsat):
		writeErrorDetails(w, http.StatusUnprocessableEntity, codeConstraintUnsatisfiable, "no seating plan satisfies the female ratio", unsatisfiableDetails{
			FemaleCount:      unsat.FemaleCount,
			MaleCount:        unsat.MaleCount,
			Total:            unsat.Total,
			FemalePercentage: unsat.FemalePercentage,
			TargetRange:      [2]float64{unsat.TargetRange.Min * 100, unsat.TargetRange.Max * 100},
			Attempts:         unsat.Attempts,
		})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, codeFor(err, codeValidation), err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeFor(err, codeNotFound), err.Error())
	case errors.As(err, &conflict):
		var details any
		if conflict.Conflicting != nil {
			a := toAssignmentResponse(*conflict.Conflicting)
			details = conflictDetails{ConflictingAssignment: &a}
		}
		writeErrorDetails(w, http.StatusConflict, codeFor(err, codeConflict), err.Error(), details)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, codeFor(err, codeConflict), err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
}
