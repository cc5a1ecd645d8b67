package cache

import (
	"fmt"

	"github.com/inodb/genecache/internal/interval"
)

// Cache provides region queries over transcripts for variant annotation.
type Cache struct {
	chroms      *ChromosomeIndex
	transcripts []*Transcript
	forest      *interval.Forest[*Transcript]
}

// New creates a new empty cache over the given chromosomes.
func New(chroms *ChromosomeIndex) *Cache {
	return &Cache{
		chroms: chroms,
		forest: interval.NewForest[*Transcript](nil),
	}
}

// AddTranscript adds a transcript to the cache. The transcript's ChromIndex
// is set from its chromosome name. Added transcripts become visible to
// region queries after the next call to BuildIndex.
func (c *Cache) AddTranscript(t *Transcript) {
	t.ChromIndex = c.chroms.Add(t.Chrom)
	t.Chrom = c.chroms.Name(t.ChromIndex)
	c.transcripts = append(c.transcripts, t)
}

// BuildIndex indexes all transcripts for region queries. The cache is safe for
// concurrent queries once BuildIndex returns.
func (c *Cache) BuildIndex() error {
	forest, err := interval.BuildForest(c.chroms.Len(), c.transcripts, func(t *Transcript) (int, int64, int64) {
		return t.ChromIndex, t.Start, t.End
	})
	if err != nil {
		return fmt.Errorf("index transcripts: %w", err)
	}
	c.forest = forest
	return nil
}

// FindTranscripts returns all transcripts that overlap [start, end] on chrom,
// in start order. Unknown chromosomes have no transcripts.
func (c *Cache) FindTranscripts(chrom string, start, end int64) []*Transcript {
	ref, ok := c.chroms.Index(chrom)
	if !ok {
		return nil
	}
	return c.forest.AllOverlapping(ref, start, end)
}

// TranscriptCount returns the total number of transcripts in the cache.
func (c *Cache) TranscriptCount() int {
	return len(c.transcripts)
}

// Transcripts returns all transcripts in insertion order.
func (c *Cache) Transcripts() []*Transcript {
	return c.transcripts
}

// Chromosomes returns the chromosome index shared with the cache.
func (c *Cache) Chromosomes() *ChromosomeIndex {
	return c.chroms
}
