package features_test

import (
	. "github.com/janpfeifer/othelloGo/internal/features"
	"github.com/janpfeifer/othelloGo/internal/generics"
	. "github.com/janpfeifer/othelloGo/internal/state"
	. "github.com/janpfeifer/othelloGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func feature(f []float32, id BoardId) []float32 {
	def := BoardSpecs[id]
	return f[def.VecIndex : def.VecIndex+def.Dim]
}

func TestFeatureVector(t *testing.T) {
	b := NewBoard(8)
	f := FeatureVector(b)
	require.Len(t, f, BoardFeaturesDim)
	assert.InDeltaSlice(t, []float32{2.0 / 64, 2.0 / 64}, feature(f, IdNumDisks), 1e-6)
	assert.InDeltaSlice(t, []float32{0.4, 0.4}, feature(f, IdMobility), 1e-6)
	assert.Equal(t, []float32{0, 0}, feature(f, IdCorners))
	assert.Equal(t, []float32{1, 1}, feature(f, IdFrontier))
	assert.Equal(t, []float32{0}, feature(f, IdParity))
	assert.InDelta(t, 4.0/64, feature(f, IdProgress)[0], 1e-6)
	assert.Contains(t, FeaturesString(f), "Mobility")

	b = BuildBoard(`
		X O . .
		X X . .
		. . . .
		. . . O`, PlayerSecond)
	f = FeatureVector(b)
	// Features are from the point of view of the next player (white).
	assert.Equal(t, []float32{0.25, 0.25}, feature(f, IdCorners))
	assert.Equal(t, []float32{0, 0}, feature(f, IdXSquares))
	assert.Equal(t, []float32{0, 0}, feature(f, IdCSquares))
	assert.Equal(t, []float32{1.0 / 8, 1.0 / 8}, feature(f, IdEdges))
	assert.Equal(t, []float32{1}, feature(f, IdParity))

	b = BuildBoard(`
		. O . .
		X X . .
		. . . .
		. . O .`, PlayerFirst)
	f = FeatureVector(b)
	assert.Equal(t, []float32{0.25, 0}, feature(f, IdXSquares))
	assert.Equal(t, []float32{1.0 / 8, 2.0 / 8}, feature(f, IdCSquares))
}

func TestPlanes(t *testing.T) {
	b := NewBoard(6)
	f := Planes(b, nil)
	require.Len(t, f, PlanesDim(6))
	require.Len(t, f, 4*36+1)
	assert.Equal(t, float32(2), generics.Sum(f[0:36]))
	assert.Equal(t, float32(2), generics.Sum(f[36:72]))
	assert.Equal(t, float32(32), generics.Sum(f[72:108]))
	assert.Equal(t, float32(4), generics.Sum(f[108:144]))
	assert.Equal(t, float32(0), f[144])

	// Own disks are always in the first plane.
	next := b.Act(b.Derived.Actions[0])
	f = Planes(next, f)
	assert.Equal(t, float32(1), generics.Sum(f[0:36]))
	assert.Equal(t, float32(4), generics.Sum(f[36:72]))

	b = BuildBoard(`
		X O . .
		. . . .
		. . . .
		. . . .`, PlayerSecond)
	f = Planes(b, nil)
	assert.Equal(t, float32(1), f[PlanesDim(4)-1])
	assert.Equal(t, float32(0), generics.Sum(f[3*16:4*16]))
}
