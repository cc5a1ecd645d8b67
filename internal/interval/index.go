package interval

import "sort"

// Interval is a closed [Start, End] range tagged with a value.
type Interval[T any] struct {
	Start int64
	End   int64
	Value T
}

// Searcher answers overlap queries. Implementations are immutable once built
// and safe for concurrent use.
type Searcher[T any] interface {
	// OverlapsAny reports whether any interval overlaps [begin, end].
	OverlapsAny(begin, end int64) bool
	// AllOverlapping returns the values of every interval overlapping
	// [begin, end] in start order, or nil if there are none.
	AllOverlapping(begin, end int64) []T
	// Len returns the number of indexed intervals.
	Len() int
}

// Index provides O(log n + k) overlap queries over a sorted slice.
// Intervals are loaded once and never modified after build.
type Index[T any] struct {
	intervals []Interval[T]
	maxEnd    []int64 // maxEnd[i] = max(End) for intervals[:i+1]
}

// NewIndex builds an index from intervals sorted ascending by Start, ties
// broken by End (see SortIntervals). The order is not checked; unsorted input
// gives unsound results.
func NewIndex[T any](sorted []Interval[T]) *Index[T] {
	if len(sorted) == 0 {
		return &Index[T]{}
	}

	intervals := make([]Interval[T], len(sorted))
	copy(intervals, sorted)

	// Build prefix-max array: maxEnd[i] = max(end) for intervals[:i+1]
	maxEnd := make([]int64, len(intervals))
	maxEnd[0] = intervals[0].End
	for i := 1; i < len(intervals); i++ {
		maxEnd[i] = intervals[i].End
		if maxEnd[i-1] > maxEnd[i] {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &Index[T]{intervals: intervals, maxEnd: maxEnd}
}

// SortIntervals sorts intervals into the order NewIndex expects.
func SortIntervals[T any](intervals []Interval[T]) {
	sort.SliceStable(intervals, func(i, j int) bool {
		if intervals[i].Start != intervals[j].Start {
			return intervals[i].Start < intervals[j].Start
		}
		return intervals[i].End < intervals[j].End
	})
}

// Len returns the number of indexed intervals.
func (idx *Index[T]) Len() int {
	return len(idx.intervals)
}

// OverlapsAny reports whether any interval overlaps [begin, end].
//
// The search narrows toward the first position whose maxEnd reaches begin.
// Every interval before that position ends before begin, and the interval at
// that position is the leftmost candidate, so it is always visited.
func (idx *Index[T]) OverlapsAny(begin, end int64) bool {
	lo, hi := 0, len(idx.intervals)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		iv := &idx.intervals[mid]
		if Overlaps(iv.Start, iv.End, begin, end) {
			return true
		}
		if idx.maxEnd[mid] >= begin {
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return false
}

// AllOverlapping returns the values of all intervals overlapping
// [begin, end], in start order.
func (idx *Index[T]) AllOverlapping(begin, end int64) []T {
	lastOverlapIndex := -1
	lo, hi := 0, len(idx.intervals)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if idx.maxEnd[mid] >= begin {
			iv := &idx.intervals[mid]
			if Overlaps(iv.Start, iv.End, begin, end) {
				lastOverlapIndex = mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	if lastOverlapIndex < 0 {
		return nil
	}

	var result []T
	for i := lastOverlapIndex; i < len(idx.intervals); i++ {
		iv := &idx.intervals[i]
		// Sorted by start: nothing further can overlap.
		if iv.Start > end {
			break
		}
		if iv.End >= begin {
			result = append(result, iv.Value)
		}
	}
	return result
}

// Empty is a Searcher with no intervals. It stands in wherever no data exists,
// e.g. a chromosome without annotations.
type Empty[T any] struct{}

func (Empty[T]) OverlapsAny(begin, end int64) bool   { return false }
func (Empty[T]) AllOverlapping(begin, end int64) []T { return nil }
func (Empty[T]) Len() int                             { return 0 }
