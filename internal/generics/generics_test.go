package generics

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestKeysSlice(t *testing.T) {
	m := map[string]int{"c0fnn": 1, "a0fnn": 5, "linear": 3}
	// The builtin map iterator in Go is non-deterministic: run it a bunch of times to show it is stably sorted.
	want := []string{"a0fnn", "c0fnn", "linear"}
	for range 100 {
		assert.Equal(t, want, KeysSlice(m))
	}
}

func TestArgMaxAll(t *testing.T) {
	assert.Nil(t, ArgMaxAll([]int{}))
	assert.Equal(t, []int{2}, ArgMaxAll([]float32{0.1, 0.2, 0.7}))
	assert.Equal(t, []int{0, 3}, ArgMaxAll([]int{5, 1, 2, 5}))
}

func TestSum(t *testing.T) {
	assert.Equal(t, 10, Sum([]int{1, 2, 3, 4}))
	assert.InDelta(t, 1.0, Sum([]float32{0.25, 0.25, 0.5}), 1e-6)
}

func TestSliceOrdering(t *testing.T) {
	s := []float32{7, -3, 2}
	assert.Equal(t, []int{1, 2, 0}, SliceOrdering(s, false))
	s2 := []int64{0, 1, 2}
	assert.Equal(t, []int{2, 1, 0}, SliceOrdering(s2, true))
	assert.Equal(t, []int{0, 2, 1}, SliceOrdering([]int{3, 1, 3}, true))
}
