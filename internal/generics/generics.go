// Package generics implements generic data structure functions missing from the stdlib.
package generics

import (
	"cmp"
	"maps"
	"slices"
)

// Number constraint for the numeric helpers below.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// SliceMap executes the given function sequentially for every element on in, and returns a mapped slice.
func SliceMap[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// KeysSlice returns the sorted keys of the map in a newly allocated slice.
func KeysSlice[M interface{ ~map[K]V }, K cmp.Ordered, V any](m M) []K {
	keys := slices.Collect(maps.Keys(m))
	slices.Sort(keys)
	return keys
}

// Sum of the values.
func Sum[T Number](values []T) (sum T) {
	for _, v := range values {
		sum += v
	}
	return
}

// ArgMaxAll returns the indices of all elements equal to the maximum value, in increasing order.
// It returns nil for an empty slice.
func ArgMaxAll[T cmp.Ordered](values []T) (indices []int) {
	if len(values) == 0 {
		return nil
	}
	maxValue := slices.Max(values)
	for ii, v := range values {
		if v == maxValue {
			indices = append(indices, ii)
		}
	}
	return
}

// SliceOrdering returns the indices of the slice sorted by their values, in increasing order or, if
// reverse is true, in decreasing order. The sort is stable.
func SliceOrdering[T cmp.Ordered](values []T, reverse bool) []int {
	indices := make([]int, len(values))
	for ii := range indices {
		indices[ii] = ii
	}
	slices.SortStableFunc(indices, func(a, b int) int {
		if reverse {
			return cmp.Compare(values[b], values[a])
		}
		return cmp.Compare(values[a], values[b])
	})
	return indices
}
