// Package annotate reports the merged genes and transcripts a variant
// overlaps.
package annotate

import (
	"strconv"

	"github.com/inodb/genecache/internal/cache"
	"github.com/inodb/genecache/internal/gene"
)

// Consequence types (Sequence Ontology terms).
const (
	// The variant overlaps at least one transcript linked to the gene.
	ConsequenceTranscriptVariant = "transcript_variant"
	// The variant falls inside the gene span but outside its transcripts.
	ConsequenceGeneVariant       = "gene_variant"
	ConsequenceIntergenicVariant = "intergenic_variant"
)

// Annotation is the overlap of one variant allele with one merged gene.
// Intergenic annotations have a nil Gene.
type Annotation struct {
	VariantID   string              // Source variant identifier (chrom_pos_ref/alt)
	Allele      string              // The alternate allele
	Consequence string              // SO consequence term
	Gene        *gene.Record        // Overlapping merged gene
	Transcripts []*cache.Transcript // Overlapping transcripts linked to Gene
}

// IsIntergenic reports whether the variant overlaps no merged gene.
func (a *Annotation) IsIntergenic() bool {
	return a.Gene == nil
}

// TranscriptIDs returns the IDs of the overlapping transcripts.
func (a *Annotation) TranscriptIDs() []string {
	ids := make([]string, len(a.Transcripts))
	for i, t := range a.Transcripts {
		ids[i] = t.ID
	}
	return ids
}

// FormatVariantID creates a variant identifier from components.
func FormatVariantID(chrom string, pos int64, ref, alt string) string {
	return chrom + "_" + strconv.FormatInt(pos, 10) + "_" + ref + "/" + alt
}
