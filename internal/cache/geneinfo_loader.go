package cache

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/inodb/genecache/internal/gene"
)

// HumanTaxID is the NCBI taxonomy ID of Homo sapiens. gene_info rows of other
// species are skipped.
const HumanTaxID = "9606"

// geneInfoColumns locates the gene_info columns used for cross-referencing.
type geneInfoColumns struct {
	taxID, geneID, symbol, dbXrefs int
}

// Column positions of the NCBI gene_info layout, used when a file has no
// "#tax_id" header line.
var defaultGeneInfoColumns = geneInfoColumns{taxID: 0, geneID: 1, symbol: 2, dbXrefs: 5}

func (c geneInfoColumns) minFields() int {
	return max(c.taxID, c.geneID, c.symbol, c.dbXrefs) + 1
}

// LoadGeneInfo loads cross references of human genes from NCBI gene_info
// files (e.g. Homo_sapiens.gene_info.gz), in argument order.
func LoadGeneInfo(paths ...string) ([]gene.CrossReference, error) {
	var refs []gene.CrossReference
	for _, path := range paths {
		r, err := openText(path)
		if err != nil {
			return nil, fmt.Errorf("open gene_info file: %w", err)
		}
		rows, err := parseGeneInfo(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		refs = append(refs, rows...)
	}
	return refs, nil
}

func parseGeneInfo(reader io.Reader) ([]gene.CrossReference, error) {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	cols := defaultGeneInfoColumns
	var refs []gene.CrossReference
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#tax_id") {
			var err error
			if cols, err = parseGeneInfoHeader(line); err != nil {
				return nil, err
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < cols.minFields() {
			return nil, fmt.Errorf("line %d: expected at least %d columns, found %d", lineNumber, cols.minFields(), len(fields))
		}
		if fields[cols.taxID] != HumanTaxID {
			continue
		}

		symbol := fields[cols.symbol]
		if symbol == "-" || symbol == "NEWENTRY" {
			symbol = ""
		}
		hgncID, ensemblIDs := parseGeneInfoXrefs(fields[cols.dbXrefs])

		row := gene.CrossReference{
			HgncID:       hgncID,
			Symbol:       symbol,
			EntrezGeneID: fields[cols.geneID],
		}
		if len(ensemblIDs) == 0 {
			refs = append(refs, row)
			continue
		}
		for _, id := range ensemblIDs {
			row.EnsemblID = id
			refs = append(refs, row)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan gene_info: %w", err)
	}
	return refs, nil
}

func parseGeneInfoHeader(line string) (geneInfoColumns, error) {
	index := make(map[string]int)
	for i, name := range strings.Split(line, "\t") {
		index[strings.TrimSpace(name)] = i
	}

	var cols geneInfoColumns
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{"#tax_id", &cols.taxID},
		{"GeneID", &cols.geneID},
		{"Symbol", &cols.symbol},
		{"dbXrefs", &cols.dbXrefs},
	} {
		i, ok := index[c.name]
		if !ok {
			return cols, fmt.Errorf("parse gene_info header: missing column %q", c.name)
		}
		*c.dst = i
	}
	return cols, nil
}

// parseGeneInfoXrefs extracts the HGNC ID and Ensembl gene IDs from a
// dbXrefs value such as "MIM:190070|HGNC:HGNC:6407|Ensembl:ENSG00000133703".
func parseGeneInfoXrefs(xrefs string) (int, []string) {
	hgncID := gene.NoHgncID
	var ensemblIDs []string

	for _, x := range strings.Split(xrefs, "|") {
		db, id, ok := strings.Cut(x, ":")
		if !ok {
			continue
		}
		switch db {
		case "HGNC":
			if hgncID == gene.NoHgncID {
				hgncID = parseHgncID(id)
			}
		case "Ensembl":
			if strings.HasPrefix(id, "ENSG") {
				ensemblIDs = append(ensemblIDs, stripVersion(id))
			}
		}
	}
	return hgncID, ensemblIDs
}

// gzipFile closes both the gzip stream and the file under it.
type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g gzipFile) Close() error {
	g.Reader.Close()
	return g.f.Close()
}

// openText opens a text file, decompressing it when the name ends in .gz.
func openText(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	return gzipFile{Reader: gz, f: f}, nil
}
