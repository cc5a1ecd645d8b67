package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/genecache/internal/annotate"
	"github.com/inodb/genecache/internal/cache"
	"github.com/inodb/genecache/internal/duckdb"
	"github.com/inodb/genecache/internal/gene"
	"github.com/inodb/genecache/internal/output"
	"github.com/inodb/genecache/internal/vcf"
)

type queryOptions struct {
	CachePath     string
	Region        string
	Symbol        string
	OutputFormat  string
	OutputFile    string
	CanonicalOnly bool
	Workers       int
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query [input.vcf]",
		Short: "Report the merged genes overlapping variants, a region or a symbol",
		Long: `Load the DuckDB cache and report, for every variant of a VCF file, the merged
genes and linked transcripts its reference span overlaps. With --region, list the
merged genes overlapping a chromosome interval instead. With --symbol, list the
merged genes carrying a gene symbol.`,
		Example: `  genecache query input.vcf
  genecache query -f vcf -o annotated.vcf input.vcf.gz
  cat input.vcf | genecache query -
  genecache query --region chr12:25205246-25250936
  genecache query --symbol KRAS`,
		Args: func(cmd *cobra.Command, args []string) error {
			modes := len(args)
			if opts.Region != "" {
				modes++
			}
			if opts.Symbol != "" {
				modes++
			}
			if modes > 1 {
				return usageErrorf("--region, --symbol and an input file are mutually exclusive")
			}
			if modes == 0 {
				return usageErrorf("input file argument required (use '-' for stdin)")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.CachePath == "" {
				opts.CachePath = defaultCachePath(viper.GetString("assembly"))
			}
			opts.Workers = viper.GetInt("query.workers")

			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync()

			out := cmd.OutOrStdout()
			if opts.OutputFile != "" {
				f, err := os.Create(opts.OutputFile)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			switch {
			case opts.Region != "":
				return runRegionQuery(opts, out, logger)
			case opts.Symbol != "":
				return runSymbolQuery(opts, out)
			}
			return runVariantQuery(args[0], opts, out, logger)
		},
	}

	cmd.Flags().StringVar(&opts.CachePath, "cache", "", "DuckDB cache file (default: ~/.genecache/<assembly>/genecache.duckdb)")
	cmd.Flags().StringVar(&opts.Region, "region", "", "List genes overlapping chrom:start-end instead of reading variants")
	cmd.Flags().StringVar(&opts.Symbol, "symbol", "", "List genes with this symbol instead of reading variants")
	cmd.Flags().StringVarP(&opts.OutputFormat, "output-format", "f", "tab", "Output format: tab, vcf")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.CanonicalOnly, "canonical", false, "Only report canonical transcripts")
	cmd.Flags().Int("workers", 0, "Annotation workers (default: number of CPUs)")

	viper.BindPFlag("query.workers", cmd.Flags().Lookup("workers"))

	return cmd
}

// loadedCache is the queryable content of a DuckDB cache.
type loadedCache struct {
	chroms      *cache.ChromosomeIndex
	genes       []*gene.Record
	transcripts *cache.Cache
}

// openCache opens an existing cache. Open alone would create an empty one.
func openCache(path string) (*duckdb.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cache not found at %s (run: genecache combine): %w", path, err)
	}
	store, err := duckdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return store, nil
}

func loadCache(path string, logger *zap.Logger) (*loadedCache, error) {
	store, err := openCache(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	chroms, err := store.LoadChromosomes()
	if err != nil {
		return nil, err
	}
	genes, err := store.LoadGenes()
	if err != nil {
		return nil, err
	}

	c := cache.New(chroms)
	if err := store.LoadTranscripts(c); err != nil {
		return nil, err
	}
	if err := c.BuildIndex(); err != nil {
		return nil, err
	}

	logger.Info("loaded cache",
		zap.String("cache", path),
		zap.Int("genes", len(genes)),
		zap.Int("transcripts", c.TranscriptCount()))

	return &loadedCache{chroms: chroms, genes: genes, transcripts: c}, nil
}

func runVariantQuery(inputPath string, opts queryOptions, out io.Writer, logger *zap.Logger) error {
	parser, err := vcf.NewParser(inputPath)
	if err != nil {
		return err
	}
	defer parser.Close()

	var writer annotate.AnnotationWriter
	switch opts.OutputFormat {
	case "tab":
		writer = output.NewOverlapWriter(out)
	case "vcf":
		writer = output.NewVCFWriter(out, parser.Header())
	default:
		return usageErrorf("unknown output format %q", opts.OutputFormat)
	}

	lc, err := loadCache(opts.CachePath, logger)
	if err != nil {
		return err
	}

	ann, err := annotate.NewAnnotator(lc.transcripts, lc.chroms, lc.genes)
	if err != nil {
		return err
	}
	ann.SetCanonicalOnly(opts.CanonicalOnly)
	ann.SetLogger(logger)

	if err := writer.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return ann.AnnotateAllWorkers(parser, writer, opts.Workers)
}

func runRegionQuery(opts queryOptions, out io.Writer, logger *zap.Logger) error {
	chrom, start, end, err := parseRegion(opts.Region)
	if err != nil {
		return &usageError{err: err}
	}

	lc, err := loadCache(opts.CachePath, logger)
	if err != nil {
		return err
	}

	w := output.NewGeneWriter(out, lc.chroms)
	ref, ok := lc.chroms.Index(chrom)
	if !ok {
		return w.WriteAll(nil)
	}

	forest, err := gene.NewForest(lc.genes, lc.chroms.Len())
	if err != nil {
		return fmt.Errorf("index genes: %w", err)
	}
	return w.WriteAll(forest.AllOverlapping(ref, start, end))
}

func runSymbolQuery(opts queryOptions, out io.Writer) error {
	store, err := openCache(opts.CachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	chroms, err := store.LoadChromosomes()
	if err != nil {
		return err
	}
	genes, err := store.FindGenesBySymbol(opts.Symbol)
	if err != nil {
		return err
	}
	return output.NewGeneWriter(out, chroms).WriteAll(genes)
}

// parseRegion parses "chrom:start-end" or "chrom:pos" with 1-based inclusive
// coordinates. Thousands separators are accepted.
func parseRegion(region string) (chrom string, start, end int64, err error) {
	chrom, span, ok := strings.Cut(region, ":")
	if !ok || chrom == "" || span == "" {
		return "", 0, 0, fmt.Errorf("invalid region %q: want chrom:start-end", region)
	}

	span = strings.ReplaceAll(span, ",", "")
	startStr, endStr, hasEnd := strings.Cut(span, "-")
	if !hasEnd {
		endStr = startStr
	}

	start, err = strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid region start %q: %w", startStr, err)
	}
	end, err = strconv.ParseInt(endStr, 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid region end %q: %w", endStr, err)
	}
	if start < 1 || end < start {
		return "", 0, 0, fmt.Errorf("invalid region %q: want 1 <= start <= end", region)
	}
	return chrom, start, end, nil
}
