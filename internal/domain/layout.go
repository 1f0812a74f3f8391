package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Layout describes the fixed venue topology: a number of identical blocks,
// each a grid of labelled rows filled in row-major order.
type Layout struct {
	Blocks    int
	RowLabels []string
	RowSizes  []int
}

// DefaultLayout is the venue the engine was built for: 7 blocks of 22 seats
// in rows A-E sized 5,5,4,4,4.
func DefaultLayout() Layout {
	return Layout{
		Blocks:    7,
		RowLabels: []string{"A", "B", "C", "D", "E"},
		RowSizes:  []int{5, 5, 4, 4, 4},
	}
}

// Validate rejects layouts the rest of the engine cannot address.
func (l Layout) Validate() error {
	if l.Blocks <= 0 {
		return fmt.Errorf("%w: blocks must be positive", ErrInvalidLayout)
	}
	if len(l.RowSizes) == 0 || len(l.RowLabels) != len(l.RowSizes) {
		return fmt.Errorf("%w: row labels and sizes must match", ErrInvalidLayout)
	}
	seen := make(map[string]struct{}, len(l.RowLabels))
	for i, label := range l.RowLabels {
		if label == "" || strings.ContainsAny(label, "0123456789~") {
			return fmt.Errorf("%w: bad row label %q", ErrInvalidLayout, label)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%w: duplicate row label %q", ErrInvalidLayout, label)
		}
		seen[label] = struct{}{}
		if l.RowSizes[i] <= 0 {
			return fmt.Errorf("%w: row %s has no seats", ErrInvalidLayout, label)
		}
	}
	return nil
}

// BlockCapacity returns the number of seats in one block.
func (l Layout) BlockCapacity() int {
	total := 0
	for _, n := range l.RowSizes {
		total += n
	}
	return total
}

// TotalSlots returns the number of addressable slots in the venue.
func (l Layout) TotalSlots() int {
	return l.Blocks * l.BlockCapacity()
}

// ValidBlock reports whether block is a real block number (1-based).
func (l Layout) ValidBlock(block int) bool {
	return block >= 1 && block <= l.Blocks
}

// Label returns the row-qualified label for a linear seat index within a
// block, e.g. index 7 is "B3" in the default layout. An index outside the
// block is a programming error and panics.
func (l Layout) Label(index int) string {
	if index < 0 {
		panic(fmt.Sprintf("seat index %d out of range", index))
	}
	rest := index
	for i, size := range l.RowSizes {
		if rest < size {
			return l.RowLabels[i] + strconv.Itoa(rest+1)
		}
		rest -= size
	}
	panic(fmt.Sprintf("seat index %d out of range (block capacity %d)", index, l.BlockCapacity()))
}

// ParseSeat is the inverse of Label for untrusted input.
func (l Layout) ParseSeat(label string) (int, error) {
	offset := 0
	for i, row := range l.RowLabels {
		if strings.HasPrefix(label, row) {
			num, err := strconv.Atoi(label[len(row):])
			if err == nil && num >= 1 && num <= l.RowSizes[i] && strconv.Itoa(num) == label[len(row):] {
				return offset + num - 1, nil
			}
		}
		offset += l.RowSizes[i]
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSeatLabel, label)
}

// ValidateSlot checks block range and label syntax.
func (l Layout) ValidateSlot(s Slot) error {
	if !l.ValidBlock(s.Block) {
		return fmt.Errorf("%w: %d", ErrInvalidBlock, s.Block)
	}
	if _, err := l.ParseSeat(s.Seat); err != nil {
		return err
	}
	return nil
}

// SlotOrdinal maps a slot onto 0..TotalSlots-1, block-major then row-major.
func (l Layout) SlotOrdinal(s Slot) (int, error) {
	if err := l.ValidateSlot(s); err != nil {
		return 0, err
	}
	idx, _ := l.ParseSeat(s.Seat)
	return (s.Block-1)*l.BlockCapacity() + idx, nil
}

// SlotLockKey returns the advisory lock object id for a slot of the occasion
// with sequence number seq. Keys are unique per (occasion, slot) as long as
// they fit in an int32.
func (l Layout) SlotLockKey(seq int64, s Slot) (int32, error) {
	ord, err := l.SlotOrdinal(s)
	if err != nil {
		return 0, err
	}
	if seq < 0 {
		return 0, fmt.Errorf("negative occasion sequence %d", seq)
	}
	key := seq*int64(l.TotalSlots()) + int64(ord)
	if key > 1<<31-1 {
		return 0, fmt.Errorf("slot lock key overflow for occasion sequence %d", seq)
	}
	return int32(key), nil
}
