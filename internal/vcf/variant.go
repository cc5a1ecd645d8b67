// Package vcf reads variants from VCF files for gene and transcript overlap
// queries.
package vcf

import "strings"

// Variant represents a single genomic variant from a VCF file.
type Variant struct {
	Chrom         string         // Chromosome name (e.g., "12", "chr12")
	Pos           int64          // 1-based genomic position
	ID            string         // Variant identifier (e.g., rs ID)
	Ref           string         // Reference allele
	Alt           string         // Alternate allele (single allele after splitting)
	Qual          float64        // Quality score
	Filter        string         // Filter status (PASS or filter name)
	Info          map[string]any // INFO field key-value pairs
	RawInfo       string         // INFO column as read
	SampleColumns string         // FORMAT and sample columns, tab-joined
}

// End returns the last reference base covered by the variant. The span
// [Pos, End] is closed; a variant with an empty reference allele covers Pos
// only.
func (v *Variant) End() int64 {
	if len(v.Ref) <= 1 {
		return v.Pos
	}
	return v.Pos + int64(len(v.Ref)) - 1
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// IsIndel returns true if the variant is an insertion or deletion.
func (v *Variant) IsIndel() bool {
	return len(v.Ref) != len(v.Alt)
}

// IsInsertion returns true if the variant is an insertion.
func (v *Variant) IsInsertion() bool {
	return len(v.Alt) > len(v.Ref)
}

// IsDeletion returns true if the variant is a deletion.
func (v *Variant) IsDeletion() bool {
	return len(v.Ref) > len(v.Alt)
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	if len(v.Chrom) > 3 && strings.HasPrefix(v.Chrom, "chr") {
		return v.Chrom[3:]
	}
	return v.Chrom
}
