package annotate

import (
	"fmt"
	"sync"

	"github.com/inodb/genecache/internal/vcf"
)

// alleleJob is one alternate allele of an input record. seq numbers alleles
// in input order across the whole file.
type alleleJob struct {
	seq     int
	variant *vcf.Variant
}

// alleleResult holds the gene overlaps found for one allele.
type alleleResult struct {
	seq         int
	variant     *vcf.Variant
	annotations []*Annotation
	err         error
}

// alleleReader splits parsed records into single-allele jobs. records and
// err are only read after jobs has been closed and drained.
type alleleReader struct {
	jobs    chan alleleJob
	records int
	err     error
}

func newAlleleReader(buffer int) *alleleReader {
	return &alleleReader{jobs: make(chan alleleJob, buffer)}
}

// run reads parser to the end, or to the first read error, then closes jobs.
func (r *alleleReader) run(parser vcf.VariantParser) {
	defer close(r.jobs)

	seq := 0
	for {
		v, err := parser.Next()
		if err != nil {
			r.err = fmt.Errorf("read variant: %w", err)
			return
		}
		if v == nil {
			return
		}
		r.records++

		for _, allele := range vcf.SplitMultiAllelic(v) {
			r.jobs <- alleleJob{seq: seq, variant: allele}
			seq++
		}
	}
}

// annotateAlleles runs Annotate on jobs with the given number of workers.
// Results arrive in completion order; the channel is closed once jobs is
// drained.
func (a *Annotator) annotateAlleles(jobs <-chan alleleJob, workers int) <-chan alleleResult {
	results := make(chan alleleResult, 2*workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				anns, err := a.Annotate(job.variant)
				results <- alleleResult{seq: job.seq, variant: job.variant, annotations: anns, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// inInputOrder passes results to emit in seq order, holding back results
// that finish early. Once emit fails the remaining results are discarded so
// the workers can exit.
func inInputOrder(results <-chan alleleResult, emit func(alleleResult) error) error {
	held := make(map[int]alleleResult)
	next := 0

	for r := range results {
		held[r.seq] = r

		for ready, ok := held[next]; ok; ready, ok = held[next] {
			delete(held, next)
			next++
			if err := emit(ready); err != nil {
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
