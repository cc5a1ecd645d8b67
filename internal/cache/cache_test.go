package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transcriptIDs(ts []*Transcript) []string {
	var ids []string
	for _, t := range ts {
		ids = append(ids, t.ID)
	}
	return ids
}

func at(c *Cache, chrom string, pos int64) []*Transcript {
	return c.FindTranscripts(chrom, pos, pos)
}

func newTestCache(t *testing.T, transcripts ...*Transcript) *Cache {
	t.Helper()
	c := New(NewChromosomeIndex())
	for _, tx := range transcripts {
		c.AddTranscript(tx)
	}
	require.NoError(t, c.BuildIndex())
	return c
}

func TestCache_Empty(t *testing.T) {
	c := newTestCache(t)
	assert.Empty(t, at(c, "1", 100))
	assert.Zero(t, c.TranscriptCount())
}

func TestCache_SingleTranscript(t *testing.T) {
	c := newTestCache(t, &Transcript{ID: "ENST001", Chrom: "chr1", Start: 100, End: 200})

	assert.Equal(t, []string{"ENST001"}, transcriptIDs(at(c, "1", 150)))
	assert.Len(t, at(c, "chr1", 100), 1, "start boundary inclusive")
	assert.Len(t, at(c, "1", 200), 1, "end boundary inclusive")
	assert.Empty(t, at(c, "1", 99), "before start")
	assert.Empty(t, at(c, "1", 201), "after end")
	assert.Empty(t, at(c, "2", 150), "unknown chromosome")
}

func TestCache_Overlapping(t *testing.T) {
	c := newTestCache(t,
		&Transcript{ID: "C", Chrom: "1", Start: 200, End: 400},
		&Transcript{ID: "A", Chrom: "1", Start: 100, End: 300},
		&Transcript{ID: "B", Chrom: "1", Start: 150, End: 250},
	)

	assert.Equal(t, []string{"A", "B"}, transcriptIDs(at(c, "1", 175)))
	assert.Equal(t, []string{"A", "B", "C"}, transcriptIDs(at(c, "1", 250)))
	assert.Equal(t, []string{"C"}, transcriptIDs(at(c, "1", 350)))
	assert.Equal(t, []string{"C"}, transcriptIDs(c.FindTranscripts("1", 301, 500)))
	assert.Equal(t, []string{"A", "B"}, transcriptIDs(c.FindTranscripts("1", 50, 150)))
}

func TestCache_LongTranscriptSpanning(t *testing.T) {
	// A long transcript that spans many short ones.
	c := newTestCache(t,
		&Transcript{ID: "LONG", Chrom: "1", Start: 100, End: 10000},
		&Transcript{ID: "S1", Chrom: "1", Start: 200, End: 300},
		&Transcript{ID: "S2", Chrom: "1", Start: 400, End: 500},
		&Transcript{ID: "S3", Chrom: "1", Start: 600, End: 700},
	)

	assert.Equal(t, []string{"LONG"}, transcriptIDs(at(c, "1", 5000)))
	assert.Equal(t, []string{"LONG", "S2"}, transcriptIDs(at(c, "1", 450)))
}

func TestCache_MultipleChromosomes(t *testing.T) {
	c := newTestCache(t,
		&Transcript{ID: "A", Chrom: "chr1", Start: 100, End: 200},
		&Transcript{ID: "B", Chrom: "NC_000002.12", Start: 100, End: 200},
	)

	assert.Equal(t, []string{"A"}, transcriptIDs(at(c, "1", 150)))
	assert.Equal(t, []string{"B"}, transcriptIDs(at(c, "chr2", 150)))
	assert.Equal(t, []string{"1", "2"}, c.Chromosomes().Names())

	b := c.Transcripts()[1]
	assert.Equal(t, "2", b.Chrom)
	assert.Equal(t, 1, b.ChromIndex)
	assert.Equal(t, 2, c.TranscriptCount())
}

func TestCache_NotVisibleBeforeBuildIndex(t *testing.T) {
	c := New(NewChromosomeIndex())
	c.AddTranscript(&Transcript{ID: "A", Chrom: "1", Start: 100, End: 200})
	assert.Empty(t, at(c, "1", 150))

	require.NoError(t, c.BuildIndex())
	assert.Len(t, at(c, "1", 150), 1)
}
