package interval

import (
	"fmt"
	"math/rand"
	"testing"

	biogo "github.com/biogo/store/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedIndex() *Index[string] {
	return NewIndex([]Interval[string]{
		{Start: 5, End: 7, Value: "mary"},
		{Start: 7, End: 9, Value: "jane"},
		{Start: 10, End: 20, Value: "bob"},
	})
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 int64
		want           bool
	}{
		{"disjoint left", 1, 4, 5, 9, false},
		{"disjoint right", 10, 12, 5, 9, false},
		{"touching end", 1, 5, 5, 9, true},
		{"touching start", 9, 12, 5, 9, true},
		{"contained", 6, 7, 5, 9, true},
		{"containing", 1, 20, 5, 9, true},
		{"single position", 7, 7, 7, 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.s1, tt.e1, tt.s2, tt.e2))
			assert.Equal(t, tt.want, Overlaps(tt.s2, tt.e2, tt.s1, tt.e1), "symmetric")
		})
	}
}

func TestNewIndex_Empty(t *testing.T) {
	idx := NewIndex[string](nil)
	assert.Zero(t, idx.Len())
	assert.False(t, idx.OverlapsAny(0, 100))
	assert.Empty(t, idx.AllOverlapping(0, 100))
}

func TestEmpty(t *testing.T) {
	var s Searcher[string] = Empty[string]{}
	assert.Zero(t, s.Len())
	assert.False(t, s.OverlapsAny(-10, 10))
	assert.Nil(t, s.AllOverlapping(-10, 10))
}

func TestIndex_AllOverlapping_Named(t *testing.T) {
	idx := namedIndex()

	assert.Equal(t, []string{"jane", "bob"}, idx.AllOverlapping(8, 10))
	assert.Empty(t, idx.AllOverlapping(21, 23), "after every interval")
	assert.Empty(t, idx.AllOverlapping(4, 4), "before every interval")

	assert.True(t, idx.OverlapsAny(8, 10))
	assert.False(t, idx.OverlapsAny(21, 23))
	assert.False(t, idx.OverlapsAny(4, 4))
}

func TestIndex_Boundaries(t *testing.T) {
	idx := namedIndex()

	assert.Equal(t, []string{"mary"}, idx.AllOverlapping(5, 5), "start boundary inclusive")
	assert.Equal(t, []string{"mary", "jane"}, idx.AllOverlapping(7, 7), "shared position")
	assert.Equal(t, []string{"bob"}, idx.AllOverlapping(20, 20), "end boundary inclusive")
	assert.Equal(t, []string{"mary", "jane", "bob"}, idx.AllOverlapping(0, 100))
}

func TestIndex_MaxEndPruning(t *testing.T) {
	// A long interval followed by short ones: the prefix max must keep the
	// long one reachable for queries far to the right of the short ones.
	idx := NewIndex([]Interval[string]{
		{Start: 100, End: 500, Value: "long"},
		{Start: 105, End: 110, Value: "short1"},
		{Start: 120, End: 130, Value: "short2"},
	})

	assert.Equal(t, []string{"long"}, idx.AllOverlapping(400, 400))
	assert.True(t, idx.OverlapsAny(400, 400))
	assert.Equal(t, []string{"long", "short2"}, idx.AllOverlapping(125, 200))
}

func TestIndex_PrefixMaxNonDecreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ivs := randomIntervals(rng, 500, 10000, 300)
	idx := NewIndex(ivs)

	require.Len(t, idx.maxEnd, len(ivs))
	for i := 1; i < len(idx.maxEnd); i++ {
		assert.LessOrEqual(t, idx.maxEnd[i-1], idx.maxEnd[i], "maxEnd[%d]", i)
	}
}

func TestIndex_DoesNotAliasInput(t *testing.T) {
	ivs := []Interval[string]{{Start: 1, End: 10, Value: "a"}}
	idx := NewIndex(ivs)
	ivs[0].End = 0

	assert.Equal(t, []string{"a"}, idx.AllOverlapping(5, 5))
}

func TestSortIntervals(t *testing.T) {
	ivs := []Interval[string]{
		{Start: 10, End: 20, Value: "c"},
		{Start: 5, End: 9, Value: "b"},
		{Start: 5, End: 7, Value: "a"},
	}
	SortIntervals(ivs)

	var got []string
	for _, iv := range ivs {
		got = append(got, iv.Value)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestIndex_MatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		ivs := randomIntervals(rng, 1+rng.Intn(200), 5000, 400)
		idx := NewIndex(ivs)

		for q := 0; q < 200; q++ {
			begin := int64(rng.Intn(5600)) - 100
			end := begin + int64(rng.Intn(300))

			var linear []int
			for _, iv := range ivs {
				if Overlaps(iv.Start, iv.End, begin, end) {
					linear = append(linear, iv.Value)
				}
			}

			got := idx.AllOverlapping(begin, end)
			assert.Equal(t, linear, got, "round=%d query=[%d,%d]", round, begin, end)
			assert.Equal(t, len(linear) > 0, idx.OverlapsAny(begin, end), "round=%d query=[%d,%d]", round, begin, end)
		}
	}
}

// oracleInterval adapts a closed interval to biogo's integer interval tree.
type oracleInterval struct {
	start, end int
	uid        uintptr
}

func (o oracleInterval) Overlap(b biogo.IntRange) bool {
	// Closed interval indexing.
	return o.start <= b.End && b.Start <= o.end
}
func (o oracleInterval) ID() uintptr           { return o.uid }
func (o oracleInterval) Range() biogo.IntRange { return biogo.IntRange{Start: o.start, End: o.end} }
func (o oracleInterval) String() string        { return fmt.Sprintf("[%d,%d]#%d", o.start, o.end, o.uid) }

func TestIndex_MatchesIntervalTree(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ivs := randomIntervals(rng, 1000, 100000, 2000)
	for i := range ivs {
		ivs[i].End++ // biogo rejects empty ranges
	}
	idx := NewIndex(ivs)

	tree := &biogo.IntTree{}
	for _, iv := range ivs {
		require.NoError(t, tree.Insert(oracleInterval{start: int(iv.Start), end: int(iv.End), uid: uintptr(iv.Value)}, false))
	}

	for q := 0; q < 500; q++ {
		begin := rng.Intn(102000) - 1000
		end := begin + rng.Intn(1500)

		want := map[int]bool{}
		for _, e := range tree.Get(oracleInterval{start: begin, end: end}) {
			want[int(e.ID())] = true
		}
		got := map[int]bool{}
		for _, v := range idx.AllOverlapping(int64(begin), int64(end)) {
			got[v] = true
		}

		assert.Equal(t, want, got, "query=[%d,%d]", begin, end)
		assert.Equal(t, len(want) > 0, idx.OverlapsAny(int64(begin), int64(end)), "query=[%d,%d]", begin, end)
	}
}

// randomIntervals returns n sorted intervals whose values are their position
// in the returned slice.
func randomIntervals(rng *rand.Rand, n int, span, maxLen int) []Interval[int] {
	ivs := make([]Interval[int], n)
	for i := range ivs {
		start := int64(rng.Intn(span))
		ivs[i] = Interval[int]{Start: start, End: start + int64(rng.Intn(maxLen))}
	}
	SortIntervals(ivs)
	for i := range ivs {
		ivs[i].Value = i
	}
	return ivs
}
