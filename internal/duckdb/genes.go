package duckdb

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/inodb/genecache/internal/cache"
	"github.com/inodb/genecache/internal/gene"
)

// WriteChromosomes replaces the chromosome table with the names of chroms in
// index order.
func (s *Store) WriteChromosomes(chroms *cache.ChromosomeIndex) error {
	names := chroms.Names()
	return s.replaceRows("chromosomes", len(names), func(i int) []driver.Value {
		return []driver.Value{int64(i), names[i]}
	})
}

// LoadChromosomes rebuilds the chromosome index.
func (s *Store) LoadChromosomes() (*cache.ChromosomeIndex, error) {
	rows, err := s.db.Query(`SELECT name FROM chromosomes ORDER BY chrom_index`)
	if err != nil {
		return nil, fmt.Errorf("query chromosomes: %w", err)
	}
	defer rows.Close()

	chroms := cache.NewChromosomeIndex()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan chromosome: %w", err)
		}
		chroms.Add(name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chromosomes: %w", err)
	}
	return chroms, nil
}

// WriteGenes replaces the gene table. A gene's position in genes is its
// gene_index, which transcripts refer to.
func (s *Store) WriteGenes(genes []*gene.Record) error {
	return s.replaceRows("genes", len(genes), func(i int) []driver.Value {
		g := genes[i]
		return []driver.Value{
			int64(i), int64(g.ChromIndex), g.Start, g.End, g.OnReverseStrand,
			g.EnsemblID, g.EntrezGeneID, g.Symbol, int64(g.HgncID), g.Source.String(),
		}
	})
}

// LoadGenes returns all genes in gene_index order.
func (s *Store) LoadGenes() ([]*gene.Record, error) {
	rows, err := s.db.Query(`SELECT `+geneColumns+` FROM genes ORDER BY gene_index`)
	if err != nil {
		return nil, fmt.Errorf("query genes: %w", err)
	}
	defer rows.Close()

	return scanGenes(rows)
}

const geneColumns = `chrom_index, start, end_, reverse_strand,
		ensembl_id, entrez_gene_id, symbol, hgnc_id, source`

// scanGenes scans rows selected with geneColumns.
func scanGenes(rows *sql.Rows) ([]*gene.Record, error) {
	var genes []*gene.Record
	for rows.Next() {
		var (
			g          gene.Record
			chromIndex int64
			hgncID     int64
			source     string
		)
		if err := rows.Scan(
			&chromIndex, &g.Start, &g.End, &g.OnReverseStrand,
			&g.EnsemblID, &g.EntrezGeneID, &g.Symbol, &hgncID, &source,
		); err != nil {
			return nil, fmt.Errorf("scan gene: %w", err)
		}

		g.ChromIndex = int(chromIndex)
		g.HgncID = int(hgncID)
		src, err := gene.ParseDataSource(source)
		if err != nil {
			return nil, fmt.Errorf("scan gene %s: %w", g.Symbol, err)
		}
		g.Source = src
		genes = append(genes, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genes: %w", err)
	}
	return genes, nil
}

// GeneCount returns the number of cached genes.
func (s *Store) GeneCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM genes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count genes: %w", err)
	}
	return n, nil
}

// FindGenesBySymbol returns the cached genes with the given symbol.
func (s *Store) FindGenesBySymbol(symbol string) ([]*gene.Record, error) {
	rows, err := s.db.Query(`SELECT `+geneColumns+` FROM genes WHERE symbol=? ORDER BY gene_index`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query genes by symbol: %w", err)
	}
	defer rows.Close()

	return scanGenes(rows)
}

// WriteTranscripts replaces the transcript table.
func (s *Store) WriteTranscripts(transcripts []*cache.Transcript) error {
	return s.replaceRows("transcripts", len(transcripts), func(i int) []driver.Value {
		t := transcripts[i]
		return []driver.Value{
			t.ID, t.GeneID, t.GeneName, t.Chrom, t.Start, t.End, int64(t.Strand),
			t.Biotype, t.Source.String(), t.IsCanonical, t.IsMANESelect, int64(t.GeneIndex),
		}
	})
}

// LoadTranscripts adds all cached transcripts to c, ordered by chromosome
// and start. The caller builds the index.
func (s *Store) LoadTranscripts(c *cache.Cache) error {
	rows, err := s.db.Query(`SELECT
		id, gene_id, gene_name, chrom, start, end_, strand,
		biotype, source, is_canonical, is_mane_select, gene_index
		FROM transcripts
		ORDER BY chrom, start`)
	if err != nil {
		return fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t         cache.Transcript
			strand    int64
			source    string
			geneIndex int64
		)
		if err := rows.Scan(
			&t.ID, &t.GeneID, &t.GeneName, &t.Chrom, &t.Start, &t.End, &strand,
			&t.Biotype, &source, &t.IsCanonical, &t.IsMANESelect, &geneIndex,
		); err != nil {
			return fmt.Errorf("scan transcript: %w", err)
		}

		t.Strand = int8(strand)
		t.GeneIndex = int(geneIndex)
		src, err := gene.ParseDataSource(source)
		if err != nil {
			return fmt.Errorf("scan transcript %s: %w", t.ID, err)
		}
		t.Source = src
		c.AddTranscript(&t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate transcripts: %w", err)
	}
	return nil
}
