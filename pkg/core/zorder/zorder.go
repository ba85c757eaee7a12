// Package zorder keeps block stacking ranks dense and re-layers blocks.
//
// Block zIndex values are not guaranteed to be gapless after ad hoc edits.
// [Normalize] rewrites them as 0..N-1 preserving relative order; every other
// operation normalizes first. Slice order is never changed: only ZIndex
// fields are rewritten.
package zorder

import (
	"cmp"
	"slices"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/errors"
)

// Direction selects the neighbor a block swaps with.
type Direction string

const (
	Forward  Direction = "forward"  // toward the top
	Backward Direction = "backward" // toward the bottom
)

// ParseDirection converts a user-supplied direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Forward, Backward:
		return Direction(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "direction must be forward or backward, got %q", s)
}

// stack returns block indexes ordered bottom to top. Equal zIndex values
// keep slice order.
func stack(blocks []chart.Block) []int {
	order := make([]int, len(blocks))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(blocks[a].ZIndex, blocks[b].ZIndex)
	})
	return order
}

func apply(blocks []chart.Block, order []int) []chart.Block {
	out := chart.CloneBlocks(blocks)
	for rank, idx := range order {
		out[idx].ZIndex = rank
	}
	return out
}

// Normalize returns a copy of blocks with dense zIndex values 0..N-1.
func Normalize(blocks []chart.Block) []chart.Block {
	return apply(blocks, stack(blocks))
}

// IsNormalized reports whether zIndex values are a permutation of 0..N-1.
func IsNormalized(blocks []chart.Block) bool {
	seen := make([]bool, len(blocks))
	for _, b := range blocks {
		if b.ZIndex < 0 || b.ZIndex >= len(blocks) || seen[b.ZIndex] {
			return false
		}
		seen[b.ZIndex] = true
	}
	return true
}

func find(blocks []chart.Block, order []int, id string) (int, error) {
	for rank, idx := range order {
		if blocks[idx].ID == id {
			return rank, nil
		}
	}
	return 0, errors.New(errors.ErrCodeBlockNotFound, "block %q not found", id)
}

// Reorder swaps a block with its immediate neighbor in the given direction.
// At either extreme it returns the normalized blocks with changed == false.
func Reorder(blocks []chart.Block, id string, dir Direction) ([]chart.Block, bool, error) {
	order := stack(blocks)
	rank, err := find(blocks, order, id)
	if err != nil {
		return nil, false, err
	}

	other := rank + 1
	if dir == Backward {
		other = rank - 1
	}
	if other < 0 || other >= len(order) {
		return apply(blocks, order), false, nil
	}
	order[rank], order[other] = order[other], order[rank]
	return apply(blocks, order), true, nil
}

// ToFront moves a block above every other block.
func ToFront(blocks []chart.Block, id string) ([]chart.Block, bool, error) {
	return move(blocks, id, true)
}

// ToBack moves a block below every other block.
func ToBack(blocks []chart.Block, id string) ([]chart.Block, bool, error) {
	return move(blocks, id, false)
}

func move(blocks []chart.Block, id string, front bool) ([]chart.Block, bool, error) {
	order := stack(blocks)
	rank, err := find(blocks, order, id)
	if err != nil {
		return nil, false, err
	}
	idx := order[rank]
	if (front && rank == len(order)-1) || (!front && rank == 0) {
		return apply(blocks, order), false, nil
	}
	order = slices.Delete(order, rank, rank+1)
	if front {
		order = append(order, idx)
	} else {
		order = slices.Insert(order, 0, idx)
	}
	return apply(blocks, order), true, nil
}

// Next returns the zIndex for a block added on top of blocks.
func Next(blocks []chart.Block) int {
	top := -1
	for _, b := range blocks {
		top = max(top, b.ZIndex)
	}
	return top + 1
}
