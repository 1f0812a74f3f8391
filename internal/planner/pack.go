package planner

import "github.com/cimillas/seatplan/internal/domain"

// freeSeats lists, per block, the seat indices still open for the occasion in
// row-major order.
type freeSeats [][]int

func newFreeSeats(layout domain.Layout, occupied []domain.Slot) freeSeats {
	taken := make(map[domain.Slot]struct{}, len(occupied))
	for _, s := range occupied {
		taken[s] = struct{}{}
	}
	capacity := layout.BlockCapacity()
	free := make(freeSeats, layout.Blocks)
	for b := range free {
		seats := make([]int, 0, capacity)
		for idx := 0; idx < capacity; idx++ {
			slot := domain.Slot{Block: b + 1, Seat: layout.Label(idx)}
			if _, ok := taken[slot]; ok {
				continue
			}
			seats = append(seats, idx)
		}
		free[b] = seats
	}
	return free
}

type packResult struct {
	placements []domain.Placement
	unplaced   []domain.CohesionGroup
	summary    domain.Demographics
}

// pack walks groups in order with a forward-only block cursor. A group that
// does not fit the current block moves the cursor on; once the cursor runs
// past the last block every remaining group is unplaced. Groups larger than a
// whole block are skipped without moving the cursor.
func pack(layout domain.Layout, free freeSeats, groups []domain.CohesionGroup) packResult {
	var res packResult
	used := make([]int, len(free))
	capacity := layout.BlockCapacity()
	block := 0

	for i, g := range groups {
		if g.Size() > capacity {
			res.unplaced = append(res.unplaced, g)
			continue
		}
		for block < len(free) && len(free[block])-used[block] < g.Size() {
			block++
		}
		if block == len(free) {
			res.unplaced = append(res.unplaced, groups[i:]...)
			break
		}
		for _, p := range g.Members {
			idx := free[block][used[block]]
			used[block]++
			res.placements = append(res.placements, domain.Placement{
				Person: p,
				Slot:   domain.Slot{Block: block + 1, Seat: layout.Label(idx)},
			})
		}
		f, m := g.Counts()
		res.summary.Female += f
		res.summary.Male += m
	}
	return res
}
