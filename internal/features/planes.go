package features

import (
	. "github.com/janpfeifer/othelloGo/internal/state"
)

// NumPlanes is the number of n x n planes generated by Planes. See PlanesDim.
const NumPlanes = 4

// Planes enumerated in the spatial features.
const (
	PlaneOwn = iota
	PlaneOpponent
	PlaneEmpty
	PlaneLegal
)

// PlanesDim returns the dimension of the vector returned by Planes for the given board size:
// NumPlanes*size*size plus one flag for the pass action.
func PlanesDim(size int) int {
	return NumPlanes*size*size + 1
}

// Planes returns the spatial features of the board used as input to the neural networks, from the point of view
// of the player moving next: a one-hot encoded plane for the player disks, for the opponent disks, for the
// empty cells and for the legal placements. The last element is 1 if the only valid action is to pass.
//
// It's written into f, which must be of size PlanesDim(b.Size). If f is nil, a new slice is allocated.
func Planes(b *Board, f []float32) []float32 {
	numCells := b.Size * b.Size
	if f == nil {
		f = make([]float32, PlanesDim(b.Size))
	} else {
		clear(f)
	}
	own, opp := CellFor(b.NextPlayer), CellFor(b.OpponentPlayer())
	for ii, cell := range b.Cells() {
		switch cell {
		case own:
			f[PlaneOwn*numCells+ii] = 1
		case opp:
			f[PlaneOpponent*numCells+ii] = 1
		default:
			f[PlaneEmpty*numCells+ii] = 1
		}
	}
	for _, action := range b.Derived.Actions {
		if b.IsPass(action) {
			f[NumPlanes*numCells] = 1
		} else {
			f[PlaneLegal*numCells+int(action)] = 1
		}
	}
	return f
}
