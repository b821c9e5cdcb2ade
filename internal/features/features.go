// Package features implements a shared set of features extracted from the board:
// (1) hand-crafted board features, used by linear models; (2) spatial planes, used by neural networks.
//
// These are meant to be used by different AI models.
package features

import (
	"fmt"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"k8s.io/klog/v2"
	"strings"
)

// BoardId represent an enum of board features. Those are like "global" features for the game.
// Every feature is calculated from the point of view of the player to move next.
type BoardId uint8

// FeatureSetter is the signature of a feature setter. f is the slice where to store the
// results.
type FeatureSetter func(b *Board, def *BoardSpec, f []float32)

const (
	// IdNumDisks is the fraction of the board covered by the player disks, and by the opponent disks.
	IdNumDisks BoardId = iota

	// IdMobility is the number of placements available to the player and to the opponent, divided by 10.
	IdMobility

	// IdCorners is the fraction of corners taken by the player and by the opponent.
	IdCorners

	// IdXSquares counts disks diagonally adjacent to an empty corner (they usually give away the corner).
	IdXSquares

	// IdCSquares counts disks orthogonally adjacent to an empty corner.
	IdCSquares

	// IdEdges is the fraction of the edge cells (corners excluded) taken by each player.
	IdEdges

	// IdFrontier is the fraction of each player's disks that are adjacent to an empty cell.
	IdFrontier

	// IdParity is 1 if the number of empty cells is odd: the player to move would get the last move
	// if there are no passes.
	IdParity

	// IdProgress is the fraction of the board filled so far.
	IdProgress

	// IdNumFeatureIds defined -- this must always be the last enum.
	IdNumFeatureIds
)

// BoardSpec includes the board feature name, dimension and index in the concatenation of features.
type BoardSpec struct {
	Id   BoardId
	Name string
	Dim  int

	// VecIndex refers to the index in the concatenated feature vector.
	VecIndex int
	Setter   FeatureSetter
}

var (
	// BoardSpecs enumerates in order the features extracted by FeatureVector.
	// The VecIndex attribute is properly set during the package initialization.
	BoardSpecs = [IdNumFeatureIds]BoardSpec{
		{IdNumDisks, "NumDisks", 2, 0, fNumDisks},
		{IdMobility, "Mobility", 2, 0, fMobility},
		{IdCorners, "Corners", 2, 0, fCorners},
		{IdXSquares, "XSquares", 2, 0, fCornerNeighbours},
		{IdCSquares, "CSquares", 2, 0, fCornerNeighbours},
		{IdEdges, "Edges", 2, 0, fEdges},
		{IdFrontier, "Frontier", 2, 0, fFrontier},
		{IdParity, "Parity", 1, 0, fParity},
		{IdProgress, "Progress", 1, 0, fProgress},
	}

	// BoardFeaturesDim is the dimension of all board features concatenated, set during package
	// initialization.
	BoardFeaturesDim int
)

func init() {
	// Updates the indices of BoardSpecs, and sets BoardFeaturesDim.
	BoardFeaturesDim = 0
	for ii := range BoardSpecs {
		if BoardSpecs[ii].Id != BoardId(ii) {
			klog.Fatalf("features.BoardSpecs index %d for %s doesn't match constant.",
				ii, BoardSpecs[ii].Name)
		}
		BoardSpecs[ii].VecIndex = BoardFeaturesDim
		BoardFeaturesDim += BoardSpecs[ii].Dim
	}
}

// FeatureVector calculates the feature vector, of length BoardFeaturesDim, for the given board.
func FeatureVector(b *Board) (f []float32) {
	f = make([]float32, BoardFeaturesDim)
	for ii := range BoardSpecs {
		featDef := &BoardSpecs[ii]
		featDef.Setter(b, featDef, f)
	}
	return
}

// FeaturesString returns a multi-line description of the features, one per line.
func FeaturesString(f []float32) string {
	var sb strings.Builder
	for ii := range BoardSpecs {
		def := &BoardSpecs[ii]
		if def.Dim == 1 {
			_, _ = fmt.Fprintf(&sb, "\t%s: %.2f\n", def.Name, f[def.VecIndex])
		} else {
			_, _ = fmt.Fprintf(&sb, "\t%s: %v\n", def.Name, f[def.VecIndex:def.VecIndex+def.Dim])
		}
	}
	return sb.String()
}

// players returns the player to move and its opponent.
func players(b *Board) [2]PlayerNum {
	return [2]PlayerNum{b.NextPlayer, b.OpponentPlayer()}
}

func inside(b *Board, row, col int) bool {
	return row >= 0 && row < b.Size && col >= 0 && col < b.Size
}

func fNumDisks(b *Board, def *BoardSpec, f []float32) {
	total := float32(b.Size * b.Size)
	for ii, player := range players(b) {
		f[def.VecIndex+ii] = float32(b.NumDisks(player)) / total
	}
}

func fMobility(b *Board, def *BoardSpec, f []float32) {
	own := b.NumActions()
	if own == 1 && b.IsPass(b.Derived.Actions[0]) {
		own = 0
	}
	f[def.VecIndex] = float32(own) / 10
	f[def.VecIndex+1] = float32(b.Derived.OpponentMobility) / 10
}

// corners returns the (row, col) of the 4 corners, and the direction towards the center of the board.
func corners(b *Board) [4][4]int {
	last := b.Size - 1
	return [4][4]int{{0, 0, 1, 1}, {0, last, 1, -1}, {last, 0, -1, 1}, {last, last, -1, -1}}
}

func fCorners(b *Board, def *BoardSpec, f []float32) {
	for ii, player := range players(b) {
		cell := CellFor(player)
		count := 0
		for _, corner := range corners(b) {
			if b.At(corner[0], corner[1]) == cell {
				count++
			}
		}
		f[def.VecIndex+ii] = float32(count) / 4
	}
}

// fCornerNeighbours handles both X-squares and C-squares: only squares next to an empty corner count.
func fCornerNeighbours(b *Board, def *BoardSpec, f []float32) {
	for ii, player := range players(b) {
		cell := CellFor(player)
		count := 0
		for _, corner := range corners(b) {
			row, col, dRow, dCol := corner[0], corner[1], corner[2], corner[3]
			if b.At(row, col) != Empty {
				continue
			}
			if def.Id == IdXSquares {
				if b.At(row+dRow, col+dCol) == cell {
					count++
				}
				continue
			}
			if b.At(row+dRow, col) == cell {
				count++
			}
			if b.At(row, col+dCol) == cell {
				count++
			}
		}
		maxCount := float32(4)
		if def.Id == IdCSquares {
			maxCount = 8
		}
		f[def.VecIndex+ii] = float32(count) / maxCount
	}
}

func fEdges(b *Board, def *BoardSpec, f []float32) {
	last := b.Size - 1
	var counts [2]int
	for ii, player := range players(b) {
		cell := CellFor(player)
		for jj := 1; jj < last; jj++ {
			for _, rc := range [4][2]int{{0, jj}, {last, jj}, {jj, 0}, {jj, last}} {
				if b.At(rc[0], rc[1]) == cell {
					counts[ii]++
				}
			}
		}
		f[def.VecIndex+ii] = float32(counts[ii]) / float32(4*(b.Size-2))
	}
}

func fFrontier(b *Board, def *BoardSpec, f []float32) {
	var counts [2]int
	pl := players(b)
	for row := range b.Size {
		for col := range b.Size {
			owner := b.At(row, col).Owner()
			if owner == PlayerInvalid || !touchesEmpty(b, row, col) {
				continue
			}
			if owner == pl[0] {
				counts[0]++
			} else {
				counts[1]++
			}
		}
	}
	for ii, player := range pl {
		if numDisks := b.NumDisks(player); numDisks > 0 {
			f[def.VecIndex+ii] = float32(counts[ii]) / float32(numDisks)
		} else {
			f[def.VecIndex+ii] = 0
		}
	}
}

func touchesEmpty(b *Board, row, col int) bool {
	for dRow := -1; dRow <= 1; dRow++ {
		for dCol := -1; dCol <= 1; dCol++ {
			r, c := row+dRow, col+dCol
			if (dRow != 0 || dCol != 0) && inside(b, r, c) && b.At(r, c) == Empty {
				return true
			}
		}
	}
	return false
}

func fParity(b *Board, def *BoardSpec, f []float32) {
	f[def.VecIndex] = float32(b.Derived.NumEmpty % 2)
}

func fProgress(b *Board, def *BoardSpec, f []float32) {
	total := b.Size * b.Size
	f[def.VecIndex] = float32(total-b.Derived.NumEmpty) / float32(total)
}
