package cache

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/genecache/internal/gene"
	"github.com/inodb/genecache/internal/interval"
)

var (
	// ErrNoOverlappingGene is returned when no merged gene overlaps a
	// transcript with the transcript's gene ID and strand.
	ErrNoOverlappingGene = errors.New("no overlapping gene")
	// ErrAmbiguousGene is returned when more than one merged gene matches.
	ErrAmbiguousGene = errors.New("ambiguous gene")
)

// LinkGene finds the merged gene a transcript belongs to: the single gene
// overlapping the transcript on the same strand that carries the transcript's
// gene ID.
func LinkGene(t *Transcript, genes *interval.Forest[*gene.Record]) (*gene.Record, error) {
	var match *gene.Record
	ns := t.Namespace()

	for _, g := range genes.AllOverlapping(t.ChromIndex, t.Start, t.End) {
		if g.OnReverseStrand != t.IsReverseStrand() || g.ID(ns) != t.GeneID {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("link transcript %s to gene %s: %w", t.ID, t.GeneID, ErrAmbiguousGene)
		}
		match = g
	}

	if match == nil {
		return nil, fmt.Errorf("link transcript %s to gene %s: %w", t.ID, t.GeneID, ErrNoOverlappingGene)
	}
	return match, nil
}

// AssignStats counts the outcome of AssignGenes.
type AssignStats struct {
	Linked    int
	NoGene    int
	Ambiguous int
}

// AssignGenes sets GeneIndex on each transcript to the position of its merged
// gene in genes. Transcripts without exactly one matching gene keep NoGene;
// they are counted and logged rather than treated as fatal.
func AssignGenes(transcripts []*Transcript, genes []*gene.Record, logger *zap.Logger) (AssignStats, error) {
	var stats AssignStats

	numRefs := 0
	for _, t := range transcripts {
		numRefs = max(numRefs, t.ChromIndex+1)
	}
	for _, g := range genes {
		numRefs = max(numRefs, g.ChromIndex+1)
	}

	forest, err := gene.NewForest(genes, numRefs)
	if err != nil {
		return stats, fmt.Errorf("index genes: %w", err)
	}

	indexOf := make(map[*gene.Record]int, len(genes))
	for i, g := range genes {
		indexOf[g] = i
	}

	for _, t := range transcripts {
		g, err := LinkGene(t, forest)
		switch {
		case err == nil:
			t.GeneIndex = indexOf[g]
			stats.Linked++
			continue
		case errors.Is(err, ErrAmbiguousGene):
			stats.Ambiguous++
		default:
			stats.NoGene++
		}
		t.GeneIndex = NoGene
		logger.Debug("transcript not linked", zap.Error(err))
	}

	if stats.NoGene > 0 || stats.Ambiguous > 0 {
		logger.Warn("transcripts without a unique gene",
			zap.Int("no_gene", stats.NoGene),
			zap.Int("ambiguous", stats.Ambiguous))
	}
	logger.Info("assigned transcripts to genes", zap.Int("linked", stats.Linked))

	return stats, nil
}
