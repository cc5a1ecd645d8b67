package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/genecache/internal/cache"
	"github.com/inodb/genecache/internal/duckdb"
	"github.com/inodb/genecache/internal/gene"
	"github.com/inodb/genecache/internal/output"
)

// Source file names recorded in the cache.
const (
	sourceEnsembl = "ensembl_gtf"
	sourceRefSeq  = "refseq_gtf"
	sourceHGNC    = "hgnc"

	// gene_info files are recorded as gene_info_1, gene_info_2, ...
	sourceGeneInfo = "gene_info"
)

type combineOptions struct {
	EnsemblGTF string
	RefSeqGTF  string
	HGNC       string
	GeneInfo   []string
	CachePath  string
	TabPath    string
	Force      bool
}

func newCombineCmd() *cobra.Command {
	var opts combineOptions

	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Merge Ensembl and RefSeq genes into the cache",
		Long: `Load the GENCODE/Ensembl and RefSeq GTF files and the HGNC complete set,
flatten each source, merge the two gene sets per symbol, back-fill HGNC ids,
link every transcript to its merged gene and write the result to the DuckDB
cache. The work is skipped when the cache was built from the same files.

NCBI gene_info files are an optional second cross-reference source. They name
RefSeq genes and supply HGNC ids that the HGNC complete set lacks. Every RefSeq
gene must end up with a symbol, otherwise combine fails.`,
		Example: `  genecache combine
  genecache combine --ensembl gencode.gtf.gz --refseq refseq.gtf.gz --hgnc hgnc_complete_set.txt
  genecache combine --gene-info Homo_sapiens.gene_info.gz
  genecache combine --tab genes.tsv --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assembly := viper.GetString("assembly")
			opts.EnsemblGTF = viper.GetString("combine.ensembl_gtf")
			opts.RefSeqGTF = viper.GetString("combine.refseq_gtf")
			opts.HGNC = viper.GetString("combine.hgnc")
			opts.GeneInfo = viper.GetStringSlice("combine.gene_info")
			if err := resolveSources(&opts, DefaultDataDir(assembly), assembly); err != nil {
				return err
			}
			if opts.CachePath == "" {
				opts.CachePath = defaultCachePath(assembly)
			}

			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync()

			return runCombine(cmd.Context(), opts, logger)
		},
	}

	cmd.Flags().String("ensembl", "", "GENCODE/Ensembl GTF file")
	cmd.Flags().String("refseq", "", "RefSeq GTF file")
	cmd.Flags().String("hgnc", "", "HGNC complete set TSV file")
	cmd.Flags().StringSlice("gene-info", nil, "NCBI gene_info files used when HGNC has no answer (repeatable)")
	cmd.Flags().StringVar(&opts.CachePath, "cache", "", "DuckDB cache file (default: ~/.genecache/<assembly>/genecache.duckdb)")
	cmd.Flags().StringVar(&opts.TabPath, "tab", "", "Also write the merged genes to this tab-delimited file")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Rebuild even if the cache is up to date")

	viper.BindPFlag("combine.ensembl_gtf", cmd.Flags().Lookup("ensembl"))
	viper.BindPFlag("combine.refseq_gtf", cmd.Flags().Lookup("refseq"))
	viper.BindPFlag("combine.hgnc", cmd.Flags().Lookup("hgnc"))
	viper.BindPFlag("combine.gene_info", cmd.Flags().Lookup("gene-info"))

	return cmd
}

// resolveSources fills unset source paths from the files downloaded to dir.
// gene_info is optional and only taken from dir when none was given.
func resolveSources(opts *combineOptions, dir, assembly string) error {
	if dir != "" {
		found := findSourceFiles(dir, assembly)
		if opts.EnsemblGTF == "" {
			opts.EnsemblGTF = found.Ensembl
		}
		if opts.RefSeqGTF == "" {
			opts.RefSeqGTF = found.RefSeq
		}
		if opts.HGNC == "" {
			opts.HGNC = found.HGNC
		}
		if len(opts.GeneInfo) == 0 && found.GeneInfo != "" {
			opts.GeneInfo = []string{found.GeneInfo}
		}
	}

	for _, s := range []struct{ flag, path string }{
		{"--ensembl", opts.EnsemblGTF},
		{"--refseq", opts.RefSeqGTF},
		{"--hgnc", opts.HGNC},
	} {
		if s.path == "" {
			return usageErrorf("%s not set and no downloaded file found (run: genecache download --assembly %s)", s.flag, assembly)
		}
	}
	return nil
}

func (o combineOptions) fingerprints() ([]duckdb.FileFingerprint, error) {
	sources := []struct{ name, path string }{
		{sourceEnsembl, o.EnsemblGTF},
		{sourceRefSeq, o.RefSeqGTF},
		{sourceHGNC, o.HGNC},
	}
	for i, path := range o.GeneInfo {
		sources = append(sources, struct{ name, path string }{fmt.Sprintf("%s_%d", sourceGeneInfo, i+1), path})
	}

	var fps []duckdb.FileFingerprint
	for _, s := range sources {
		fp, err := duckdb.StatFile(s.name, s.path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", s.name, err)
		}
		fps = append(fps, fp)
	}
	return fps, nil
}

func runCombine(ctx context.Context, opts combineOptions, logger *zap.Logger) error {
	fps, err := opts.fingerprints()
	if err != nil {
		return err
	}

	store, err := duckdb.Open(opts.CachePath)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	if !opts.Force && store.SourcesMatch(fps) {
		count, err := store.GeneCount()
		if err != nil {
			return err
		}
		logger.Info("cache is up to date",
			zap.String("cache", opts.CachePath),
			zap.Int("genes", count))
		if opts.TabPath == "" {
			return nil
		}
		chroms, err := store.LoadChromosomes()
		if err != nil {
			return err
		}
		genes, err := store.LoadGenes()
		if err != nil {
			return err
		}
		return writeGeneTab(opts.TabPath, chroms, genes)
	}

	chroms := cache.NewChromosomeIndex()

	ensembl, err := loadGTF(opts.EnsemblGTF, gene.Ensembl, chroms, logger)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	refSeq, err := loadGTF(opts.RefSeqGTF, gene.RefSeq, chroms, logger)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rows, err := cache.LoadHGNC(opts.HGNC)
	if err != nil {
		return fmt.Errorf("load HGNC: %w", err)
	}
	hgnc := gene.NewCrossReferences(rows)
	logCrossReferences(logger, "HGNC", hgnc)

	var fallbacks []*gene.CrossReferences
	if len(opts.GeneInfo) > 0 {
		rows, err := cache.LoadGeneInfo(opts.GeneInfo...)
		if err != nil {
			return fmt.Errorf("load gene_info: %w", err)
		}
		geneInfo := gene.NewCrossReferences(rows)
		logCrossReferences(logger, "gene_info", geneInfo)
		fallbacks = append(fallbacks, geneInfo)
	}

	combiner := gene.NewCombiner(hgnc, fallbacks...)
	combiner.SetLogger(logger)
	genes, err := combiner.Combine(ensembl.Genes, refSeq.Genes)
	if err != nil {
		return fmt.Errorf("combine genes: %w", err)
	}
	stats := combiner.Stats()
	logger.Info("combined genes",
		zap.Int("genes", stats.Genes),
		zap.Int("merged", stats.Merge.Merged),
		zap.Int("ensembl_orphans", stats.Merge.EnsemblOrphans),
		zap.Int("refseq_orphans", stats.Merge.RefSeqOrphans),
		zap.Int("unnamed_ensembl", stats.UnnamedEnsembl),
		zap.Int("hgnc_updated", stats.Hgnc.Updated),
		zap.Int("hgnc_unresolved", stats.Hgnc.Unresolved))
	if err := ctx.Err(); err != nil {
		return err
	}

	transcripts := append(ensembl.Transcripts, refSeq.Transcripts...)
	if _, err := cache.AssignGenes(transcripts, genes, logger); err != nil {
		return fmt.Errorf("assign transcripts: %w", err)
	}

	// Forget the old sources first so an interrupted write is rebuilt.
	if err := store.RecordSources(nil); err != nil {
		return fmt.Errorf("reset sources: %w", err)
	}
	if err := store.WriteChromosomes(chroms); err != nil {
		return fmt.Errorf("write chromosomes: %w", err)
	}
	if err := store.WriteGenes(genes); err != nil {
		return fmt.Errorf("write genes: %w", err)
	}
	if err := store.WriteTranscripts(transcripts); err != nil {
		return fmt.Errorf("write transcripts: %w", err)
	}
	if err := store.RecordSources(fps); err != nil {
		return fmt.Errorf("record sources: %w", err)
	}

	logger.Info("wrote cache",
		zap.String("cache", opts.CachePath),
		zap.Int("genes", len(genes)),
		zap.Int("transcripts", len(transcripts)))

	if opts.TabPath != "" {
		return writeGeneTab(opts.TabPath, chroms, genes)
	}
	return nil
}

func logCrossReferences(logger *zap.Logger, name string, x *gene.CrossReferences) {
	st := x.Stats()
	logger.Info("loaded cross references",
		zap.String("source", name),
		zap.Int("rows", st.Entries),
		zap.Int("ensembl_symbols", st.EnsemblSymbols),
		zap.Int("entrez_symbols", st.EntrezSymbols),
		zap.Int("ensembl_hgnc", st.EnsemblHgnc),
		zap.Int("entrez_hgnc", st.EntrezHgnc))
}

func loadGTF(path string, source gene.DataSource, chroms *cache.ChromosomeIndex, logger *zap.Logger) (*cache.GTFData, error) {
	loader := cache.NewGTFLoader(path, source, chroms)
	loader.SetLogger(logger)
	data, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load %s GTF: %w", source, err)
	}
	return data, nil
}

func writeGeneTab(path string, chroms *cache.ChromosomeIndex, genes []*gene.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tab file: %w", err)
	}
	if err := output.NewGeneWriter(f, chroms).WriteAll(genes); err != nil {
		f.Close()
		return fmt.Errorf("write tab file: %w", err)
	}
	return f.Close()
}
