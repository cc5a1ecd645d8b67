// Package cache builds and queries the transcript and gene reference cache.
package cache

import "github.com/inodb/genecache/internal/gene"

// NoGene marks a transcript that is not linked to a merged gene.
const NoGene = -1

// Transcript represents a specific gene isoform.
type Transcript struct {
	ID           string          // Transcript ID without version (e.g., ENST00000311936, NM_004985)
	GeneID       string          // Source gene ID (Ensembl gene ID or Entrez gene ID)
	GeneName     string          // Parent gene symbol
	Chrom        string          // Normalized chromosome name
	ChromIndex   int             // Dense chromosome index
	Start        int64           // Transcript start (1-based)
	End          int64           // Transcript end (1-based, inclusive)
	Strand       int8            // +1 or -1
	Biotype      string          // Transcript biotype
	Source       gene.DataSource // Ensembl or RefSeq
	IsCanonical  bool            // Ensembl canonical flag
	IsMANESelect bool            // MANE Select transcript
	GeneIndex    int             // Index of the merged gene, NoGene if unlinked
}

// IsReverseStrand returns true if the transcript is on the reverse strand.
func (t *Transcript) IsReverseStrand() bool {
	return t.Strand == -1
}

// Namespace returns the gene ID namespace of GeneID.
func (t *Transcript) Namespace() gene.Namespace {
	return gene.NamespaceFor(t.Source)
}
