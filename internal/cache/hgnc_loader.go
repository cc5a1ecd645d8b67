package cache

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/genecache/internal/gene"
)

// HGNC complete set columns used for cross-referencing.
var hgncColumns = []string{"hgnc_id", "symbol", "entrez_id", "ensembl_gene_id"}

// LoadHGNC loads gene cross references from the HGNC complete set TSV
// (hgnc_complete_set.txt), optionally gzipped.
func LoadHGNC(path string) ([]gene.CrossReference, error) {
	r, err := openText(path)
	if err != nil {
		return nil, fmt.Errorf("open HGNC file: %w", err)
	}
	defer r.Close()

	return parseHGNC(r)
}

// parseHGNC parses the TSV content. Columns are located by header name.
func parseHGNC(reader io.Reader) ([]gene.CrossReference, error) {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("scan HGNC header: %w", err)
		}
		return nil, nil
	}

	header := strings.Split(scanner.Text(), "\t")
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range hgncColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("parse HGNC header: missing column %q", name)
		}
	}

	field := func(fields []string, name string) string {
		i := cols[name]
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	var refs []gene.CrossReference
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		refs = append(refs, gene.CrossReference{
			HgncID:       parseHgncID(field(fields, "hgnc_id")),
			Symbol:       field(fields, "symbol"),
			EntrezGeneID: field(fields, "entrez_id"),
			EnsemblID:    stripVersion(field(fields, "ensembl_gene_id")),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan HGNC: %w", err)
	}

	return refs, nil
}
