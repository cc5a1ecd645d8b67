// Package output writes merged genes and variant overlap results.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/genecache/internal/annotate"
	"github.com/inodb/genecache/internal/cache"
	"github.com/inodb/genecache/internal/gene"
	"github.com/inodb/genecache/internal/vcf"
)

const missing = "-"

func orMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}

func formatStrand(reverse bool) string {
	if reverse {
		return "-"
	}
	return "+"
}

func formatHgncID(id int) string {
	if id == gene.NoHgncID {
		return missing
	}
	return "HGNC:" + strconv.Itoa(id)
}

// GeneWriter writes merged genes in tab-delimited format.
type GeneWriter struct {
	w       *bufio.Writer
	chroms  *cache.ChromosomeIndex
	columns []string
}

// NewGeneWriter creates a gene writer. Chromosome indexes are written as the
// names they have in chroms.
func NewGeneWriter(w io.Writer, chroms *cache.ChromosomeIndex) *GeneWriter {
	return &GeneWriter{
		w:      bufio.NewWriter(w),
		chroms: chroms,
		columns: []string{
			"#Chrom",
			"Start",
			"End",
			"Strand",
			"Symbol",
			"Ensembl_Gene",
			"Entrez_Gene",
			"HGNC_ID",
			"Source",
		},
	}
}

// WriteHeader writes the header line.
func (gw *GeneWriter) WriteHeader() error {
	_, err := gw.w.WriteString(strings.Join(gw.columns, "\t") + "\n")
	return err
}

// Write writes a single gene.
func (gw *GeneWriter) Write(g *gene.Record) error {
	values := []string{
		orMissing(gw.chroms.Name(g.ChromIndex)),
		strconv.FormatInt(g.Start, 10),
		strconv.FormatInt(g.End, 10),
		formatStrand(g.OnReverseStrand),
		orMissing(g.Symbol),
		orMissing(g.EnsemblID),
		orMissing(g.EntrezGeneID),
		formatHgncID(g.HgncID),
		g.Source.String(),
	}

	_, err := gw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteAll writes the header followed by every gene, then flushes.
func (gw *GeneWriter) WriteAll(genes []*gene.Record) error {
	if err := gw.WriteHeader(); err != nil {
		return err
	}
	for _, g := range genes {
		if err := gw.Write(g); err != nil {
			return err
		}
	}
	return gw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (gw *GeneWriter) Flush() error {
	return gw.w.Flush()
}

// OverlapWriter writes variant overlap annotations in tab-delimited format,
// one line per overlapping gene.
type OverlapWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewOverlapWriter creates a new tab-delimited overlap writer.
func NewOverlapWriter(w io.Writer) *OverlapWriter {
	return &OverlapWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Uploaded_variation",
			"Location",
			"Allele",
			"Symbol",
			"Ensembl_Gene",
			"Entrez_Gene",
			"HGNC_ID",
			"Source",
			"Consequence",
			"Transcripts",
		},
	}
}

// WriteHeader writes the header line.
func (ow *OverlapWriter) WriteHeader() error {
	_, err := ow.w.WriteString(strings.Join(ow.columns, "\t") + "\n")
	return err
}

// Write writes a single annotation.
func (ow *OverlapWriter) Write(v *vcf.Variant, ann *annotate.Annotation) error {
	location := v.Chrom + ":" + strconv.FormatInt(v.Pos, 10)
	if end := v.End(); end != v.Pos {
		location += "-" + strconv.FormatInt(end, 10)
	}

	symbol, ensembl, entrez, hgnc, source := missing, missing, missing, missing, missing
	if g := ann.Gene; g != nil {
		symbol = orMissing(g.Symbol)
		ensembl = orMissing(g.EnsemblID)
		entrez = orMissing(g.EntrezGeneID)
		hgnc = formatHgncID(g.HgncID)
		source = g.Source.String()
	}

	transcripts := missing
	if len(ann.Transcripts) > 0 {
		transcripts = strings.Join(ann.TranscriptIDs(), ",")
	}

	values := []string{
		orMissing(v.ID),
		location,
		ann.Allele,
		symbol,
		ensembl,
		entrez,
		hgnc,
		source,
		ann.Consequence,
		transcripts,
	}

	_, err := ow.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (ow *OverlapWriter) Flush() error {
	return ow.w.Flush()
}
