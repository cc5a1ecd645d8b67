package annotate

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/inodb/genecache/internal/cache"
	"github.com/inodb/genecache/internal/gene"
	"github.com/inodb/genecache/internal/interval"
	"github.com/inodb/genecache/internal/vcf"
)

// TranscriptLookup defines the interface for finding transcripts in a region.
type TranscriptLookup interface {
	FindTranscripts(chrom string, start, end int64) []*cache.Transcript
}

// Annotator annotates variants with the merged genes and transcripts they
// overlap. It is safe for concurrent use.
type Annotator struct {
	transcripts   TranscriptLookup
	chroms        *cache.ChromosomeIndex
	genes         *interval.Forest[*gene.Record]
	geneIndex     map[*gene.Record]int
	canonicalOnly bool
	logger        *zap.Logger
}

// NewAnnotator creates an annotator over the transcript cache and the merged
// genes. Gene chromosome indexes refer to chroms.
func NewAnnotator(transcripts TranscriptLookup, chroms *cache.ChromosomeIndex, genes []*gene.Record) (*Annotator, error) {
	forest, err := gene.NewForest(genes, chroms.Len())
	if err != nil {
		return nil, fmt.Errorf("index genes: %w", err)
	}

	geneIndex := make(map[*gene.Record]int, len(genes))
	for i, g := range genes {
		geneIndex[g] = i
	}

	return &Annotator{
		transcripts: transcripts,
		chroms:      chroms,
		genes:       forest,
		geneIndex:   geneIndex,
		logger:      zap.NewNop(),
	}, nil
}

// SetCanonicalOnly configures whether to only report canonical transcripts.
func (a *Annotator) SetCanonicalOnly(canonical bool) {
	a.canonicalOnly = canonical
}

// SetLogger sets the logger for warning and info messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Annotate returns one annotation per merged gene overlapping the variant's
// reference span, in gene start order, or a single intergenic annotation.
func (a *Annotator) Annotate(v *vcf.Variant) ([]*Annotation, error) {
	variantID := FormatVariantID(v.Chrom, v.Pos, v.Ref, v.Alt)
	intergenic := []*Annotation{{
		VariantID:   variantID,
		Allele:      v.Alt,
		Consequence: ConsequenceIntergenicVariant,
	}}

	start, end := v.Pos, v.End()

	ref, ok := a.chroms.Index(v.Chrom)
	if !ok {
		return intergenic, nil
	}

	overlaps, err := a.genes.OverlapsAny(ref, start, end)
	if err != nil {
		return nil, fmt.Errorf("annotate %s: %w", variantID, err)
	}
	if !overlaps {
		return intergenic, nil
	}

	genes := a.genes.AllOverlapping(ref, start, end)
	transcripts := a.transcripts.FindTranscripts(v.Chrom, start, end)

	annotations := make([]*Annotation, 0, len(genes))
	for _, g := range genes {
		idx := a.geneIndex[g]
		ann := &Annotation{
			VariantID:   variantID,
			Allele:      v.Alt,
			Consequence: ConsequenceGeneVariant,
			Gene:        g,
		}
		for _, t := range transcripts {
			if t.GeneIndex != idx {
				continue
			}
			if a.canonicalOnly && !t.IsCanonical {
				continue
			}
			ann.Transcripts = append(ann.Transcripts, t)
		}
		if len(ann.Transcripts) > 0 {
			ann.Consequence = ConsequenceTranscriptVariant
		}
		annotations = append(annotations, ann)
	}

	return annotations, nil
}

// AnnotateAll annotates all variants from a parser and writes them in input
// order. Multi-allelic records are split first.
func (a *Annotator) AnnotateAll(parser vcf.VariantParser, writer AnnotationWriter) error {
	return a.AnnotateAllWorkers(parser, writer, 0)
}

// AnnotateAllWorkers is AnnotateAll with an explicit worker count. If workers
// is 0, runtime.NumCPU() is used.
func (a *Annotator) AnnotateAllWorkers(parser vcf.VariantParser, writer AnnotationWriter, workers int) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	reader := newAlleleReader(2 * workers)
	go reader.run(parser)

	err := inInputOrder(a.annotateAlleles(reader.jobs, workers), func(r alleleResult) error {
		if r.err != nil {
			a.logger.Warn("failed to annotate variant",
				zap.String("chrom", r.variant.Chrom),
				zap.Int64("pos", r.variant.Pos),
				zap.Error(r.err))
			return nil
		}
		for _, ann := range r.annotations {
			if err := writer.Write(r.variant, ann); err != nil {
				return fmt.Errorf("write annotation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if reader.err != nil {
		return reader.err
	}

	a.logger.Info("annotated variants", zap.Int("variants", reader.records))

	return writer.Flush()
}

// AnnotationWriter defines the interface for writing annotations.
type AnnotationWriter interface {
	WriteHeader() error
	Write(v *vcf.Variant, ann *Annotation) error
	Flush() error
}
