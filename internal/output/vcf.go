package output

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/inodb/genecache/internal/annotate"
	"github.com/inodb/genecache/internal/vcf"
)

// infoKey is the INFO field the VCF writer adds.
const infoKey = "GENES"

// Sub-field names of the GENES INFO field.
var geneFields = []string{
	"Allele",
	"Consequence",
	"SYMBOL",
	"Ensembl_Gene",
	"Entrez_Gene",
	"HGNC_ID",
	"Source",
	"Transcripts",
}

// VCFWriter writes annotations in VCF format with a GENES INFO field.
// Annotations are buffered per variant and flushed when the variant changes.
type VCFWriter struct {
	w           *bufio.Writer
	headerLines []string // original VCF header lines (## and #CHROM)

	// Buffered state for the current variant.
	currentChrom string                 // chromosome for grouping
	currentPos   int64                  // position for grouping
	hasVariant   bool                   // whether we have a buffered variant
	currentVars  []*vcf.Variant         // variants seen for this key (may differ in alt)
	annotations  []*annotate.Annotation // buffered annotations
	alts         []string               // unique alt alleles seen
}

// NewVCFWriter creates a new VCF output writer.
func NewVCFWriter(w io.Writer, headerLines []string) *VCFWriter {
	return &VCFWriter{
		w:           bufio.NewWriter(w),
		headerLines: headerLines,
	}
}

// WriteHeader writes the original VCF header lines with an inserted GENES
// INFO line.
func (vw *VCFWriter) WriteHeader() error {
	infoLine := fmt.Sprintf(
		"##INFO=<ID=%s,Number=.,Type=String,Description=\"Overlapping merged genes from genecache. Format: %s\">",
		infoKey, strings.Join(geneFields, "|"),
	)

	for _, line := range vw.headerLines {
		if strings.HasPrefix(line, "##INFO=<ID="+infoKey+",") {
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			if _, err := vw.w.WriteString(infoLine + "\n"); err != nil {
				return err
			}
		}
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write buffers an annotation for the given variant. When a new variant is
// encountered (different chrom/pos), the previous variant's VCF line is flushed.
func (vw *VCFWriter) Write(v *vcf.Variant, ann *annotate.Annotation) error {
	if vw.hasVariant && (vw.currentChrom != v.Chrom || vw.currentPos != v.Pos) {
		if err := vw.flushVariant(); err != nil {
			return err
		}
	}

	if !vw.hasVariant {
		vw.currentChrom = v.Chrom
		vw.currentPos = v.Pos
		vw.hasVariant = true
	}

	vw.currentVars = append(vw.currentVars, v)
	vw.annotations = append(vw.annotations, ann)
	if !slices.Contains(vw.alts, v.Alt) {
		vw.alts = append(vw.alts, v.Alt)
	}

	return nil
}

// Flush writes any buffered variant and flushes the underlying writer.
func (vw *VCFWriter) Flush() error {
	if vw.hasVariant {
		if err := vw.flushVariant(); err != nil {
			return err
		}
	}
	return vw.w.Flush()
}

// flushVariant writes the buffered variant as a VCF line with GENES entries.
func (vw *VCFWriter) flushVariant() error {
	if len(vw.currentVars) == 0 {
		return nil
	}

	// Base fields come from the first split allele.
	v := vw.currentVars[0]
	info := stripInfoKey(v.RawInfo)

	var lb strings.Builder
	lb.Grow(256)

	lb.WriteString(v.Chrom)
	lb.WriteByte('\t')
	lb.WriteString(strconv.FormatInt(v.Pos, 10))
	lb.WriteByte('\t')
	lb.WriteString(v.ID)
	lb.WriteByte('\t')
	lb.WriteString(v.Ref)
	lb.WriteByte('\t')
	lb.WriteString(strings.Join(vw.alts, ","))
	lb.WriteByte('\t')
	if v.Qual != 0 {
		lb.WriteString(strconv.FormatFloat(v.Qual, 'g', -1, 64))
	} else {
		lb.WriteByte('.')
	}
	lb.WriteByte('\t')
	lb.WriteString(v.Filter)
	lb.WriteByte('\t')
	if info != "." {
		lb.WriteString(info)
		lb.WriteByte(';')
	}
	lb.WriteString(infoKey)
	lb.WriteByte('=')
	for i, ann := range vw.annotations {
		if i > 0 {
			lb.WriteByte(',')
		}
		writeGeneEntry(&lb, ann)
	}

	if v.SampleColumns != "" {
		lb.WriteByte('\t')
		lb.WriteString(v.SampleColumns)
	}

	lb.WriteByte('\n')
	if _, err := vw.w.WriteString(lb.String()); err != nil {
		return err
	}

	vw.hasVariant = false
	vw.currentVars = nil
	vw.annotations = nil
	vw.alts = nil

	return nil
}

// stripInfoKey removes an existing GENES field from a raw INFO string.
func stripInfoKey(rawInfo string) string {
	if rawInfo == "" || rawInfo == "." {
		return "."
	}
	if !strings.Contains(rawInfo, infoKey) {
		return rawInfo
	}

	var kept []string
	for _, field := range strings.Split(rawInfo, ";") {
		if field == infoKey || strings.HasPrefix(field, infoKey+"=") {
			continue
		}
		kept = append(kept, field)
	}
	if len(kept) == 0 {
		return "."
	}
	return strings.Join(kept, ";")
}

// writeGeneEntry writes a single annotation as a pipe-delimited entry.
// Empty values are left blank; transcripts are joined with '&'.
func writeGeneEntry(b *strings.Builder, ann *annotate.Annotation) {
	b.WriteString(ann.Allele)
	b.WriteByte('|')
	b.WriteString(ann.Consequence)
	b.WriteByte('|')
	if g := ann.Gene; g != nil {
		b.WriteString(g.Symbol)
		b.WriteByte('|')
		b.WriteString(g.EnsemblID)
		b.WriteByte('|')
		b.WriteString(g.EntrezGeneID)
		b.WriteByte('|')
		if hgnc := formatHgncID(g.HgncID); hgnc != missing {
			b.WriteString(hgnc)
		}
		b.WriteByte('|')
		b.WriteString(g.Source.String())
	} else {
		b.WriteString("||||")
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(ann.TranscriptIDs(), "&"))
}
