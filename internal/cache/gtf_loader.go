package cache

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/inodb/genecache/internal/gene"
)

// GTFData holds the genes and transcripts read from one GTF file, in file
// order.
type GTFData struct {
	Genes       []*gene.Record
	Transcripts []*Transcript
}

// GTFLoader loads gene and transcript records from a GENCODE/Ensembl or NCBI
// RefSeq GTF file.
type GTFLoader struct {
	path   string
	source gene.DataSource
	chroms *ChromosomeIndex
	logger *zap.Logger
}

// NewGTFLoader creates a new GTF loader. Chromosome names are registered in
// chroms as they are encountered.
func NewGTFLoader(path string, source gene.DataSource, chroms *ChromosomeIndex) *GTFLoader {
	return &GTFLoader{
		path:   path,
		source: source,
		chroms: chroms,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for progress messages.
func (l *GTFLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load parses the GTF file.
func (l *GTFLoader) Load() (*GTFData, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open GTF file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	data, err := l.parseGTF(reader)
	if err != nil {
		return nil, err
	}

	l.logger.Info("loaded GTF",
		zap.String("path", l.path),
		zap.Stringer("source", l.source),
		zap.Int("genes", len(data.Genes)),
		zap.Int("transcripts", len(data.Transcripts)))

	return data, nil
}

// gtfFeature represents a parsed GTF line.
type gtfFeature struct {
	chrom       string
	featureType string
	start       int64
	end         int64
	strand      string
	attributes  map[string]string
	rawAttrs    string
}

// parseGTF parses GTF content. Malformed lines are skipped.
func (l *GTFLoader) parseGTF(reader io.Reader) (*GTFData, error) {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	data := &GTFData{}
	skipped := 0

	for scanner.Scan() {
		line := scanner.Text()

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		feat, err := parseLine(line)
		if err != nil {
			skipped++
			continue
		}

		switch feat.featureType {
		case "gene":
			if g := l.geneRecord(feat); g != nil {
				data.Genes = append(data.Genes, g)
			}
		case "transcript":
			if t := l.transcript(feat); t != nil {
				data.Transcripts = append(data.Transcripts, t)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}

	if skipped > 0 {
		l.logger.Warn("skipped malformed GTF lines", zap.Int("count", skipped))
	}

	return data, nil
}

// geneID returns the source gene ID of a feature: the versionless gene_id for
// Ensembl, the Entrez gene ID from db_xref for RefSeq.
func (l *GTFLoader) geneID(feat *gtfFeature) string {
	if l.source == gene.RefSeq {
		return dbXref(feat.rawAttrs, "GeneID")
	}
	return stripVersion(feat.attributes["gene_id"])
}

func geneSymbol(attrs map[string]string) string {
	if s := attrs["gene_name"]; s != "" {
		return s
	}
	return attrs["gene"]
}

func (l *GTFLoader) geneRecord(feat *gtfFeature) *gene.Record {
	id := l.geneID(feat)
	if id == "" {
		return nil
	}

	g := &gene.Record{
		ChromIndex:      l.chroms.Add(feat.chrom),
		Start:           feat.start,
		End:             feat.end,
		OnReverseStrand: feat.strand == "-",
		Symbol:          geneSymbol(feat.attributes),
		HgncID:          parseHgncID(feat.attributes["hgnc_id"]),
		Source:          l.source,
	}

	if l.source == gene.RefSeq {
		g.EntrezGeneID = id
		if g.HgncID == gene.NoHgncID {
			// NCBI writes db_xref "HGNC:HGNC:6407".
			g.HgncID = parseHgncID(strings.TrimPrefix(dbXref(feat.rawAttrs, "HGNC"), "HGNC:"))
		}
	} else {
		g.EnsemblID = id
	}
	return g
}

func (l *GTFLoader) transcript(feat *gtfFeature) *Transcript {
	transcriptID := stripVersion(feat.attributes["transcript_id"])
	if transcriptID == "" {
		return nil
	}

	tags := attributeValues(feat.rawAttrs, "tag")

	biotype := feat.attributes["transcript_type"]
	if biotype == "" {
		biotype = feat.attributes["transcript_biotype"]
	}

	chromIndex := l.chroms.Add(feat.chrom)
	return &Transcript{
		ID:           transcriptID,
		GeneID:       l.geneID(feat),
		GeneName:     geneSymbol(feat.attributes),
		Chrom:        l.chroms.Name(chromIndex),
		ChromIndex:   chromIndex,
		Start:        feat.start,
		End:          feat.end,
		Strand:       parseStrand(feat.strand),
		Biotype:      biotype,
		Source:       l.source,
		IsCanonical:  slices.Contains(tags, "Ensembl_canonical"),
		IsMANESelect: slices.Contains(tags, "MANE_Select") || slices.Contains(tags, "MANE Select"),
		GeneIndex:    NoGene,
	}
}

// parseLine parses a single GTF line.
func parseLine(line string) (*gtfFeature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	if end < start {
		return nil, fmt.Errorf("invalid GTF line: end %d before start %d", end, start)
	}

	return &gtfFeature{
		chrom:       normalizeChrom(fields[0]),
		featureType: fields[2],
		start:       start,
		end:         end,
		strand:      fields[6],
		attributes:  parseAttributes(fields[8]),
		rawAttrs:    fields[8],
	}, nil
}

// splitAttributes calls fn for each key/value pair of a GTF attribute column.
// Format: key "value"; key "value"; ...
func splitAttributes(attrStr string, fn func(key, value string)) {
	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Find the first space to separate key from value
		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}

		fn(part[:idx], strings.Trim(strings.TrimSpace(part[idx+1:]), "\""))
	}
}

// parseAttributes parses GTF attribute column. Repeated keys keep the last
// value; use attributeValues for those.
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)
	splitAttributes(attrStr, func(key, value string) {
		attrs[key] = value
	})
	return attrs
}

// attributeValues returns every value of a repeated attribute such as tag.
func attributeValues(attrStr, key string) []string {
	var values []string
	splitAttributes(attrStr, func(k, v string) {
		if k == key {
			values = append(values, v)
		}
	})
	return values
}

// dbXref returns the ID of the first db_xref with the given database prefix,
// e.g. db_xref "GeneID:3845" -> "3845".
func dbXref(attrStr, db string) string {
	for _, x := range attributeValues(attrStr, "db_xref") {
		if id, ok := strings.CutPrefix(x, db+":"); ok {
			return id
		}
	}
	return ""
}

// parseHgncID parses "HGNC:6407" or "6407". It returns gene.NoHgncID if the
// value is empty or malformed.
func parseHgncID(s string) int {
	s = strings.TrimPrefix(s, "HGNC:")
	if s == "" {
		return gene.NoHgncID
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return gene.NoHgncID
	}
	return id
}

// parseStrand converts strand string to int8.
func parseStrand(s string) int8 {
	if s == "-" {
		return -1
	}
	return 1
}

// stripVersion removes the version suffix from an Ensembl ID.
// e.g., "ENST00000456328.2" -> "ENST00000456328"
func stripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}
