package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cimillas/seatplan/internal/app"
	"github.com/cimillas/seatplan/internal/clock"
	"github.com/cimillas/seatplan/internal/planner"
	"github.com/cimillas/seatplan/internal/storage/postgres"
)

var planOccasion string

func init() {
	planCmd.Flags().StringVar(&planOccasion, "occasion", "", "occasion id to seat the candidate pool into (required)")
	_ = planCmd.MarkFlagRequired("occasion")
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Seat the current candidate pool into an occasion",
	Long: `Run the block planner against every candidate and commit the result.

Examples:
  # Seat everyone waiting into an occasion
  seatplan plan --occasion 7d3c1f1e-4a3b-4c55-9f0a-2b8e6c1d9a01`,
	RunE: runPlan,
}

type planSummary struct {
	OccasionID       string  `json:"occasion_id"`
	Seated           int     `json:"seated"`
	Female           int     `json:"female"`
	Male             int     `json:"male"`
	FemalePercentage float64 `json:"female_percentage"`
	UnplacedGroups   int     `json:"unplaced_groups"`
	Ordering         string  `json:"ordering"`
	Attempts         int     `json:"attempts"`
}

func runPlan(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	svc := app.NewPlanService(
		postgres.NewPlanRepository(rt.pool, rt.cfg.Database.LockTimeout),
		planner.New(rt.cfg.Layout(), rt.cfg.PlannerOptions()...),
		clock.NewSystem(),
		app.WithLogger(rt.logger),
	)
	res, err := svc.PlanAndCommit(cmd.Context(), planOccasion)
	if err != nil {
		return fmt.Errorf("plan occasion %s: %w", planOccasion, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(planSummary{
		OccasionID:       res.OccasionID,
		Seated:           len(res.Assignments),
		Female:           res.Summary.Female,
		Male:             res.Summary.Male,
		FemalePercentage: res.Summary.FemaleRatio() * 100,
		UnplacedGroups:   len(res.Unplaced),
		Ordering:         res.Ordering,
		Attempts:         res.Attempts,
	})
}
