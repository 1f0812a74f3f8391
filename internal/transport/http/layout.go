package http

import (
	"net/http"

	"github.com/cimillas/seatplan/internal/domain"
)

type layoutResponse struct {
	Blocks        int           `json:"blocks"`
	BlockCapacity int           `json:"block_capacity"`
	TotalSlots    int           `json:"total_slots"`
	Rows          []rowResponse `json:"rows"`
	FemaleRatio   [2]float64    `json:"female_ratio"`
}

type rowResponse struct {
	Label string   `json:"label"`
	Seats []string `json:"seats"`
}

// HandleLayout serves GET /layout: the venue grid and the demographic band.
func HandleLayout(layout domain.Layout, band domain.RatioBand) http.HandlerFunc {
	resp := layoutResponse{
		Blocks:        layout.Blocks,
		BlockCapacity: layout.BlockCapacity(),
		TotalSlots:    layout.TotalSlots(),
		FemaleRatio:   [2]float64{band.Min, band.Max},
	}
	index := 0
	for i, label := range layout.RowLabels {
		row := rowResponse{Label: label, Seats: make([]string, 0, layout.RowSizes[i])}
		for j := 0; j < layout.RowSizes[i]; j++ {
			row.Seats = append(row.Seats, layout.Label(index))
			index++
		}
		resp.Rows = append(resp.Rows, row)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
