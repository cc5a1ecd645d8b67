package interval

import (
	"errors"
	"fmt"
)

// ErrChromosomeOutOfRange is returned when a reference index lies outside the
// range a forest was built for.
var ErrChromosomeOutOfRange = errors.New("chromosome index out of range")

// Forest holds one Searcher per reference sequence, addressed by dense
// chromosome index. The number of references is fixed at construction.
type Forest[T any] struct {
	refs []Searcher[T]
}

// NewForest creates a forest over the given per-reference searchers. Nil
// entries are treated as empty references.
func NewForest[T any](searchers []Searcher[T]) *Forest[T] {
	refs := make([]Searcher[T], len(searchers))
	for i, s := range searchers {
		if s == nil {
			s = Empty[T]{}
		}
		refs[i] = s
	}
	return &Forest[T]{refs: refs}
}

// BuildForest groups items by reference index, sorts each group and builds a
// forest with numRefs entries. References without items get an Empty searcher.
func BuildForest[T any](numRefs int, items []T, locate func(T) (ref int, start, end int64)) (*Forest[T], error) {
	groups := make([][]Interval[T], numRefs)
	for _, item := range items {
		ref, start, end := locate(item)
		if ref < 0 || ref >= numRefs {
			return nil, fmt.Errorf("build forest: reference %d of %d: %w", ref, numRefs, ErrChromosomeOutOfRange)
		}
		groups[ref] = append(groups[ref], Interval[T]{Start: start, End: end, Value: item})
	}

	searchers := make([]Searcher[T], numRefs)
	for i, g := range groups {
		if len(g) == 0 {
			searchers[i] = Empty[T]{}
			continue
		}
		SortIntervals(g)
		searchers[i] = NewIndex(g)
	}
	return &Forest[T]{refs: searchers}, nil
}

// NumRefs returns the number of reference sequences in the forest.
func (f *Forest[T]) NumRefs() int {
	return len(f.refs)
}

// Len returns the total number of intervals across all references.
func (f *Forest[T]) Len() int {
	n := 0
	for _, s := range f.refs {
		n += s.Len()
	}
	return n
}

// OverlapsAny reports whether any interval on reference ref overlaps
// [begin, end]. Asking about a reference the forest was not built for is a
// caller error and returns ErrChromosomeOutOfRange.
func (f *Forest[T]) OverlapsAny(ref int, begin, end int64) (bool, error) {
	if ref < 0 || ref >= len(f.refs) {
		return false, fmt.Errorf("overlaps any: reference %d of %d: %w", ref, len(f.refs), ErrChromosomeOutOfRange)
	}
	return f.refs[ref].OverlapsAny(begin, end), nil
}

// AllOverlapping returns the values overlapping [begin, end] on reference
// ref. Unlike OverlapsAny, an unknown reference is not an error: contigs the
// annotation build never indexed simply have no data, so the result is empty.
func (f *Forest[T]) AllOverlapping(ref int, begin, end int64) []T {
	if ref < 0 || ref >= len(f.refs) {
		return nil
	}
	return f.refs[ref].AllOverlapping(begin, end)
}
