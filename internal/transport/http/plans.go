package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/cimillas/seatplan/internal/app"
	"github.com/cimillas/seatplan/internal/domain"
	"github.com/cimillas/seatplan/internal/logging"
)

// PlanCommitter is the minimal interface needed to plan an occasion.
type PlanCommitter interface {
	PlanAndCommit(ctx context.Context, occasionID string) (app.PlanResult, error)
}

// HandlePlan serves POST /occasions/{id}/plan.
func HandlePlan(svc PlanCommitter, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}

		res, err := svc.PlanAndCommit(r.Context(), r.PathValue("id"))
		if err != nil {
			writeDomainError(w, logging.For(r.Context(), logger), err)
			return
		}
		writeJSON(w, http.StatusCreated, toPlanResponse(res))
	}
}

type planResponse struct {
	OccasionID     string               `json:"occasion_id"`
	Assignments    []assignmentResponse `json:"assignments"`
	Summary        summaryResponse      `json:"summary"`
	UnplacedGroups []unplacedGroup      `json:"unplaced_groups"`
	Ordering       string               `json:"ordering"`
	Attempts       int                  `json:"attempts"`
}

type summaryResponse struct {
	Female           int     `json:"female"`
	Male             int     `json:"male"`
	Total            int     `json:"total"`
	FemalePercentage float64 `json:"female_percentage"`
}

type unplacedGroup struct {
	Key       string   `json:"key"`
	PersonIDs []string `json:"person_ids"`
}

func toPlanResponse(res app.PlanResult) planResponse {
	resp := planResponse{
		OccasionID:     res.OccasionID,
		Assignments:    toAssignmentResponses(res.Assignments),
		Summary:        toSummary(res.Summary),
		UnplacedGroups: make([]unplacedGroup, 0, len(res.Unplaced)),
		Ordering:       res.Ordering,
		Attempts:       res.Attempts,
	}
	for _, g := range res.Unplaced {
		ids := make([]string, 0, g.Size())
		for _, p := range g.Members {
			ids = append(ids, p.ID)
		}
		resp.UnplacedGroups = append(resp.UnplacedGroups, unplacedGroup{Key: g.Key, PersonIDs: ids})
	}
	return resp
}

func toSummary(d domain.Demographics) summaryResponse {
	return summaryResponse{
		Female:           d.Female,
		Male:             d.Male,
		Total:            d.Total(),
		FemalePercentage: d.FemaleRatio() * 100,
	}
}
