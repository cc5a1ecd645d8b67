package gene

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// MergeStats counts the outcome of a merge. The counters are informational.
type MergeStats struct {
	Merged         int
	EnsemblOrphans int
	RefSeqOrphans  int
}

// Merger reconciles Ensembl and RefSeq gene sets. Genes are grouped by symbol
// and cross-linked by Ensembl -> Entrez gene ID.
type Merger struct {
	linkedIDs map[string]string
	logger    *zap.Logger
	stats     MergeStats
	merged    []*Record
}

// NewMerger creates a merger using linkedIDs (Ensembl gene ID -> Entrez gene
// ID) to pair records across sources. The map is only read.
func NewMerger(linkedIDs map[string]string) *Merger {
	return &Merger{
		linkedIDs: linkedIDs,
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for merge statistics.
func (m *Merger) SetLogger(l *zap.Logger) {
	m.logger = l
}

// Stats returns the counters from the last call to Merge.
func (m *Merger) Stats() MergeStats {
	return m.stats
}

// Merge combines two gene lists into one reconciled list. Input records are
// mutated (tombstoned and, via flattening, absorbed); linked pairs produce new
// records with Source set to BothRefSeqAndEnsembl.
//
// Every returned orphan (an Ensembl or RefSeq record without a partner) has
// Invalid set, while merged records do not. Invalid on a returned record only
// means it was consumed by this merge, so callers must not filter on it.
func (m *Merger) Merge(genesA, genesB []*Record) ([]*Record, error) {
	genes := combineGenes(genesA, genesB)
	genesBySymbol := groupBy(genes, func(g *Record) string { return g.Symbol })
	return m.mergeGroups(genes, genesBySymbol)
}

// mergeGroups merges genes using a precomputed symbol grouping. Every
// still-valid seed's symbol must be a key of genesBySymbol.
func (m *Merger) mergeGroups(genes []*Record, genesBySymbol map[string][]*Record) ([]*Record, error) {
	m.stats = MergeStats{}
	m.merged = nil

	for _, g := range genes {
		if g.Invalid {
			continue
		}

		sameSymbol, ok := genesBySymbol[g.Symbol]
		if !ok {
			return nil, fmt.Errorf("merge: no genes found for symbol %q: %w", g.Symbol, ErrInconsistentIndex)
		}

		if err := m.mergeSameSymbol(g, sameSymbol); err != nil {
			return nil, err
		}
	}

	m.logger.Info("merged Ensembl and RefSeq genes",
		zap.Int("merged", m.stats.Merged),
		zap.Int("ensembl_orphans", m.stats.EnsemblOrphans),
		zap.Int("refseq_orphans", m.stats.RefSeqOrphans))

	return m.merged, nil
}

// combineGenes concatenates both lists ordered by chromosome, start and end.
func combineGenes(genesA, genesB []*Record) []*Record {
	genes := make([]*Record, 0, len(genesA)+len(genesB))
	genes = append(genes, genesA...)
	genes = append(genes, genesB...)

	sort.SliceStable(genes, func(i, j int) bool {
		a, b := genes[i], genes[j]
		if a.ChromIndex != b.ChromIndex {
			return a.ChromIndex < b.ChromIndex
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
	return genes
}

func (m *Merger) mergeSameSymbol(seed *Record, sameSymbol []*Record) error {
	valid, windowStart, windowEnd := validGenes(seed, sameSymbol)

	ensemblGenes := filterBySource(valid, Ensembl)
	refSeqGenes := filterBySource(valid, RefSeq)

	flatEnsembl, err := NewFlattener(EnsemblNamespace, "Ensembl").FlattenWithin(ensemblGenes, windowStart, windowEnd)
	if err != nil {
		return err
	}
	flatRefSeq, err := NewFlattener(EntrezNamespace, "RefSeq").FlattenWithin(refSeqGenes, windowStart, windowEnd)
	if err != nil {
		return err
	}

	for _, ensemblGene := range flatEnsembl {
		entrezID, ok := m.linkedIDs[ensemblGene.EnsemblID]
		if !ok {
			m.addEnsemblOrphan(ensemblGene)
			continue
		}

		refSeqGene := findByEntrezID(flatRefSeq, entrezID)
		if refSeqGene == nil {
			m.addEnsemblOrphan(ensemblGene)
			continue
		}

		merged := ensemblGene.Clone()
		merged.Source = BothRefSeqAndEnsembl
		merged.absorb(refSeqGene)
		if merged.HgncID == NoHgncID && refSeqGene.HgncID != NoHgncID {
			merged.HgncID = refSeqGene.HgncID
		}
		merged.EntrezGeneID = refSeqGene.EntrezGeneID
		m.merged = append(m.merged, merged)

		refSeqGene.Invalid = true
		ensemblGene.Invalid = true
		m.stats.Merged++
	}

	for _, refSeqGene := range flatRefSeq {
		if refSeqGene.Invalid {
			continue
		}
		m.addRefSeqOrphan(refSeqGene)
	}

	return nil
}

// validGenes collects the still-valid genes compatible with the seed that
// overlap a window grown from the seed's interval. The window is extended in
// a single pass over genes, so a gene that only reaches the window through a
// later gene is not collected.
func validGenes(seed *Record, genes []*Record) ([]*Record, int64, int64) {
	var valid []*Record
	start, end := seed.Start, seed.End

	for _, g := range genes {
		if g.Invalid || !seed.Compatible(g) || !g.Overlaps(start, end) {
			continue
		}

		valid = append(valid, g)

		if g.Start < start {
			start = g.Start
		}
		if g.End > end {
			end = g.End
		}
	}

	return valid, start, end
}

func filterBySource(genes []*Record, source DataSource) []*Record {
	var out []*Record
	for _, g := range genes {
		if g.Source == source {
			out = append(out, g)
		}
	}
	return out
}

// findByEntrezID returns the first still-valid gene with the given Entrez ID.
func findByEntrezID(genes []*Record, entrezID string) *Record {
	for _, g := range genes {
		if !g.Invalid && g.EntrezGeneID == entrezID {
			return g
		}
	}
	return nil
}

func (m *Merger) addEnsemblOrphan(g *Record) {
	m.merged = append(m.merged, g)
	g.Invalid = true
	m.stats.EnsemblOrphans++
}

func (m *Merger) addRefSeqOrphan(g *Record) {
	m.merged = append(m.merged, g)
	g.Invalid = true
	m.stats.RefSeqOrphans++
}
