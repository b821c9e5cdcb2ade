package state

import (
	"github.com/gomlx/exceptions"
)

// NumSymmetries of the square board: 4 rotations, each optionally mirrored.
const NumSymmetries = 8

// transformCell maps a cell through the symmetry t: t%4 clockwise quarter rotations, followed
// by a horizontal mirror if t >= 4.
func transformCell(size, t, row, col int) (int, int) {
	for range t % 4 {
		row, col = col, size-1-row
	}
	if t >= 4 {
		col = size - 1 - col
	}
	return row, col
}

// Transform returns a new board transformed by symmetry t, with 0 <= t < NumSymmetries.
// The symmetry 0 is the identity.
func (b *Board) Transform(t int) *Board {
	if t < 0 || t >= NumSymmetries {
		exceptions.Panicf("invalid symmetry %d, valid values are 0 to %d", t, NumSymmetries-1)
	}
	newB := b.Clone()
	for row := range b.Size {
		for col := range b.Size {
			tRow, tCol := transformCell(b.Size, t, row, col)
			newB.set(tRow, tCol, b.At(row, col))
		}
	}
	newB.BuildDerived()
	return newB
}

// TransformPolicy maps a policy over the fixed action space (length ActionSize) through
// symmetry t. The pass action is not affected.
func (b *Board) TransformPolicy(t int, policy []float32) []float32 {
	if len(policy) != b.ActionSize() {
		exceptions.Panicf("TransformPolicy: policy has %d entries, board has action size %d",
			len(policy), b.ActionSize())
	}
	transformed := make([]float32, len(policy))
	for row := range b.Size {
		for col := range b.Size {
			tRow, tCol := transformCell(b.Size, t, row, col)
			transformed[ActionAt(b.Size, tRow, tCol)] = policy[ActionAt(b.Size, row, col)]
		}
	}
	pass := b.PassAction()
	transformed[pass] = policy[pass]
	return transformed
}

// Symmetries returns the NumSymmetries equivalent boards and their corresponding policies.
// It's used to augment training data.
func (b *Board) Symmetries(policy []float32) (boards []*Board, policies [][]float32) {
	boards = make([]*Board, NumSymmetries)
	policies = make([][]float32, NumSymmetries)
	for t := range NumSymmetries {
		boards[t] = b.Transform(t)
		policies[t] = b.TransformPolicy(t, policy)
	}
	return
}
