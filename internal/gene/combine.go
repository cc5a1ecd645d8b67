package gene

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ErrUnresolvedSymbols is returned when RefSeq genes are left without a
// symbol after consulting every symbol source.
var ErrUnresolvedSymbols = errors.New("unable to resolve all the missing gene symbols")

// CombineStats counts the outcome of the last Combine call.
type CombineStats struct {
	Genes          int
	UnnamedEnsembl int
	Merge          MergeStats
	Hgnc           HgncStats
}

// Combiner builds the reconciled gene set from one Ensembl and one RefSeq
// gene list.
type Combiner struct {
	hgnc    *CrossReferences
	sources []*CrossReferences
	logger  *zap.Logger
	stats   CombineStats
}

// NewCombiner creates a combiner. Ensembl and Entrez gene IDs are linked
// through hgnc only. Missing symbols and HGNC IDs are looked up in hgnc,
// then in each fallback in order (e.g. NCBI gene_info).
func NewCombiner(hgnc *CrossReferences, fallbacks ...*CrossReferences) *Combiner {
	return &Combiner{
		hgnc:    hgnc,
		sources: append([]*CrossReferences{hgnc}, fallbacks...),
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for progress messages.
func (c *Combiner) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Stats returns the counters from the last call to Combine.
func (c *Combiner) Stats() CombineStats {
	return c.stats
}

// Combine resolves missing symbols, flattens each source, merges across
// sources, fills in missing HGNC IDs and returns the genes sorted by
// chromosome, start, end and symbol. The input records are consumed.
//
// Ensembl genes without a resolvable symbol are named by their Ensembl ID.
// RefSeq genes without one fail with ErrUnresolvedSymbols.
func (c *Combiner) Combine(ensemblGenes, refSeqGenes []*Record) ([]*Record, error) {
	c.stats = CombineStats{}

	if missing := ResolveSymbols(refSeqGenes, c.sources...); len(missing) > 0 {
		return nil, fmt.Errorf("resolve RefSeq gene symbols: %d genes, first Entrez gene ID %q: %w",
			len(missing), missing[0].EntrezGeneID, ErrUnresolvedSymbols)
	}
	if missing := ResolveSymbols(ensemblGenes, c.sources...); len(missing) > 0 {
		for _, g := range missing {
			g.Symbol = g.EnsemblID
		}
		c.stats.UnnamedEnsembl = len(missing)
		c.logger.Warn("Ensembl genes without symbol, using gene ID", zap.Int("count", len(missing)))
	}

	ensemblFlattener := NewFlattener(EnsemblNamespace, "Ensembl")
	ensemblFlattener.SetLogger(c.logger)
	flatEnsembl, err := ensemblFlattener.Flatten(ensemblGenes)
	if err != nil {
		return nil, fmt.Errorf("flatten Ensembl genes: %w", err)
	}

	refSeqFlattener := NewFlattener(EntrezNamespace, "RefSeq")
	refSeqFlattener.SetLogger(c.logger)
	flatRefSeq, err := refSeqFlattener.Flatten(refSeqGenes)
	if err != nil {
		return nil, fmt.Errorf("flatten RefSeq genes: %w", err)
	}

	linked := c.hgnc.LinkIDs()
	c.logger.Info("linked Ensembl and Entrez gene IDs", zap.Int("pairs", len(linked)))

	merger := NewMerger(linked)
	merger.SetLogger(c.logger)
	merged, err := merger.Merge(flatEnsembl, flatRefSeq)
	if err != nil {
		return nil, err
	}
	c.stats.Merge = merger.Stats()

	c.stats.Hgnc = UpdateHgncIDs(merged, c.sources...)
	c.logger.Info("updated HGNC IDs",
		zap.Int("already_current", c.stats.Hgnc.AlreadyCurrent),
		zap.Int("updated", c.stats.Hgnc.Updated),
		zap.Int("unresolved", c.stats.Hgnc.Unresolved))

	SortGenes(merged)
	c.stats.Genes = len(merged)

	return merged, nil
}

// SortGenes orders genes by chromosome, start, end and symbol.
func SortGenes(genes []*Record) {
	sort.SliceStable(genes, func(i, j int) bool {
		a, b := genes[i], genes[j]
		if a.ChromIndex != b.ChromIndex {
			return a.ChromIndex < b.ChromIndex
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Symbol < b.Symbol
	})
}
