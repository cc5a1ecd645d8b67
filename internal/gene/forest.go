package gene

import (
	"github.com/inodb/genecache/internal/interval"
)

// NewForest indexes genes by chromosome for region queries. Genes whose
// ChromIndex is outside [0, numRefs) are rejected.
func NewForest(genes []*Record, numRefs int) (*interval.Forest[*Record], error) {
	return interval.BuildForest(numRefs, genes, func(g *Record) (int, int64, int64) {
		return g.ChromIndex, g.Start, g.End
	})
}
