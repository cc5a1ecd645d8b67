package annotate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genecache/internal/cache"
	"github.com/inodb/genecache/internal/gene"
	"github.com/inodb/genecache/internal/vcf"
)

func testGenes() []*gene.Record {
	return []*gene.Record{
		{
			ChromIndex: 0, Start: 114704469, End: 114716894, OnReverseStrand: true,
			EnsemblID: "ENSG00000213281", EntrezGeneID: "4893", Symbol: "NRAS",
			HgncID: 7989, Source: gene.BothRefSeqAndEnsembl,
		},
		{
			ChromIndex: 1, Start: 25205246, End: 25250936, OnReverseStrand: true,
			EnsemblID: "ENSG00000133703", EntrezGeneID: "3845", Symbol: "KRAS",
			HgncID: 6407, Source: gene.BothRefSeqAndEnsembl,
		},
		{
			ChromIndex: 1, Start: 25240000, End: 25260000,
			EntrezGeneID: "999999", Symbol: "LOC999999",
			HgncID: gene.NoHgncID, Source: gene.RefSeq,
		},
	}
}

func newTestAnnotator(t *testing.T) *Annotator {
	t.Helper()

	chroms := cache.NewChromosomeIndex("1", "12")
	c := cache.New(chroms)
	for _, tr := range []*cache.Transcript{
		{ID: "ENST00000311936", GeneID: "ENSG00000133703", GeneName: "KRAS", Chrom: "12",
			Start: 25205246, End: 25250929, Strand: -1, Source: gene.Ensembl, IsCanonical: true, GeneIndex: 1},
		{ID: "ENST00000256078", GeneID: "ENSG00000133703", GeneName: "KRAS", Chrom: "12",
			Start: 25205246, End: 25250929, Strand: -1, Source: gene.Ensembl, GeneIndex: 1},
		{ID: "NM_999999", GeneID: "999999", GeneName: "LOC999999", Chrom: "12",
			Start: 25255000, End: 25258000, Strand: 1, Source: gene.RefSeq, GeneIndex: 2},
		{ID: "NM_UNLINKED", GeneID: "1", GeneName: "UNLINKED", Chrom: "12",
			Start: 25245000, End: 25246000, Strand: 1, Source: gene.RefSeq, GeneIndex: cache.NoGene},
	} {
		c.AddTranscript(tr)
	}
	require.NoError(t, c.BuildIndex())

	ann, err := NewAnnotator(c, chroms, testGenes())
	require.NoError(t, err)
	return ann
}

func symbols(anns []*Annotation) []string {
	var out []string
	for _, a := range anns {
		if a.Gene == nil {
			out = append(out, "-")
			continue
		}
		out = append(out, a.Gene.Symbol)
	}
	return out
}

func TestAnnotator_KRASG12C(t *testing.T) {
	a := newTestAnnotator(t)

	// KRAS G12C, chr12:25245351 C>A
	anns, err := a.Annotate(&vcf.Variant{Chrom: "chr12", Pos: 25245351, Ref: "C", Alt: "A"})
	require.NoError(t, err)
	require.Equal(t, []string{"KRAS", "LOC999999"}, symbols(anns))

	kras := anns[0]
	assert.Equal(t, "chr12_25245351_C/A", kras.VariantID)
	assert.Equal(t, "A", kras.Allele)
	assert.Equal(t, ConsequenceTranscriptVariant, kras.Consequence)
	assert.ElementsMatch(t, []string{"ENST00000256078", "ENST00000311936"}, kras.TranscriptIDs())
	assert.False(t, kras.IsIntergenic())

	loc := anns[1]
	assert.Equal(t, ConsequenceGeneVariant, loc.Consequence)
	assert.Empty(t, loc.Transcripts)
}

func TestAnnotator_CanonicalOnly(t *testing.T) {
	a := newTestAnnotator(t)
	a.SetCanonicalOnly(true)

	anns, err := a.Annotate(&vcf.Variant{Chrom: "12", Pos: 25245351, Ref: "C", Alt: "A"})
	require.NoError(t, err)
	require.NotEmpty(t, anns)
	assert.Equal(t, []string{"ENST00000311936"}, anns[0].TranscriptIDs())
}

func TestAnnotator_Intergenic(t *testing.T) {
	a := newTestAnnotator(t)

	tests := []struct {
		name string
		v    *vcf.Variant
	}{
		{"unknown chromosome", &vcf.Variant{Chrom: "Y", Pos: 100, Ref: "A", Alt: "G"}},
		{"between genes", &vcf.Variant{Chrom: "1", Pos: 1000, Ref: "A", Alt: "G"}},
		{"after last gene", &vcf.Variant{Chrom: "12", Pos: 25260001, Ref: "A", Alt: "G"}},
		{"before first gene", &vcf.Variant{Chrom: "12", Pos: 100, Ref: "A", Alt: "G"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anns, err := a.Annotate(tt.v)
			require.NoError(t, err)
			require.Len(t, anns, 1)
			assert.True(t, anns[0].IsIntergenic())
			assert.Equal(t, ConsequenceIntergenicVariant, anns[0].Consequence)
			assert.Empty(t, anns[0].Transcripts)
		})
	}
}

func TestAnnotator_DeletionSpan(t *testing.T) {
	a := newTestAnnotator(t)

	// The deletion starts before NRAS and reaches into it.
	v := &vcf.Variant{Chrom: "1", Pos: 114704460, Ref: strings.Repeat("A", 10), Alt: "A"}
	anns, err := a.Annotate(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"NRAS"}, symbols(anns))
	assert.Equal(t, ConsequenceGeneVariant, anns[0].Consequence)

	// The same position as an SNV misses it.
	anns, err = a.Annotate(&vcf.Variant{Chrom: "1", Pos: 114704460, Ref: "A", Alt: "G"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-"}, symbols(anns))
}

func TestAnnotator_UnlinkedTranscriptIgnored(t *testing.T) {
	a := newTestAnnotator(t)

	anns, err := a.Annotate(&vcf.Variant{Chrom: "12", Pos: 25245500, Ref: "G", Alt: "T"})
	require.NoError(t, err)
	for _, ann := range anns {
		assert.NotContains(t, ann.TranscriptIDs(), "NM_UNLINKED")
	}
}

func TestNewAnnotator_GeneOutsideChromosomes(t *testing.T) {
	genes := []*gene.Record{{ChromIndex: 5, Start: 1, End: 10, Symbol: "X"}}
	_, err := NewAnnotator(cache.New(cache.NewChromosomeIndex("1")), cache.NewChromosomeIndex("1"), genes)
	assert.Error(t, err)
}

type recordingWriter struct {
	rows    []string
	flushed bool
}

func (w *recordingWriter) WriteHeader() error { return nil }

func (w *recordingWriter) Write(v *vcf.Variant, ann *Annotation) error {
	symbol := "-"
	if ann.Gene != nil {
		symbol = ann.Gene.Symbol
	}
	w.rows = append(w.rows, ann.VariantID+" "+symbol)
	return nil
}

func (w *recordingWriter) Flush() error {
	w.flushed = true
	return nil
}

func TestAnnotator_AnnotateAll(t *testing.T) {
	a := newTestAnnotator(t)

	input := `##fileformat=VCFv4.2
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
12	25245351	.	C	A,T	.	PASS	.
1	1000	.	A	G	.	PASS	.
1	114716126	.	C	T	.	PASS	.
`
	parser, err := vcf.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	w := &recordingWriter{}
	require.NoError(t, a.AnnotateAllWorkers(parser, w, 3))

	assert.Equal(t, []string{
		"12_25245351_C/A KRAS",
		"12_25245351_C/A LOC999999",
		"12_25245351_C/T KRAS",
		"12_25245351_C/T LOC999999",
		"1_1000_A/G -",
		"1_114716126_C/T NRAS",
	}, w.rows)
	assert.True(t, w.flushed)
}

func TestAnnotator_AnnotateAll_ParseError(t *testing.T) {
	a := newTestAnnotator(t)

	input := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n1\tbad\t.\tA\tG\t.\t.\t.\n"
	parser, err := vcf.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	var perr *vcf.ParseError
	assert.ErrorAs(t, a.AnnotateAll(parser, &recordingWriter{}), &perr)
}

func TestFormatVariantID(t *testing.T) {
	assert.Equal(t, "12_25245351_C/A", FormatVariantID("12", 25245351, "C", "A"))
}
