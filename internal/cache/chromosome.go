package cache

import (
	"strconv"
	"strings"
)

// ChromosomeIndex assigns dense indexes to reference sequence names in the
// order they are first seen. Names are normalized before lookup, so "chr7",
// "7" and "NC_000007.14" share one index.
type ChromosomeIndex struct {
	names  []string
	byName map[string]int
}

// NewChromosomeIndex creates an index containing names in order.
func NewChromosomeIndex(names ...string) *ChromosomeIndex {
	ci := &ChromosomeIndex{byName: make(map[string]int)}
	for _, n := range names {
		ci.Add(n)
	}
	return ci
}

// Add returns the index for name, assigning the next free index if the name
// is new.
func (ci *ChromosomeIndex) Add(name string) int {
	name = normalizeChrom(name)
	if i, ok := ci.byName[name]; ok {
		return i
	}
	i := len(ci.names)
	ci.names = append(ci.names, name)
	ci.byName[name] = i
	return i
}

// Index returns the index for name.
func (ci *ChromosomeIndex) Index(name string) (int, bool) {
	i, ok := ci.byName[normalizeChrom(name)]
	return i, ok
}

// Name returns the normalized name for index i, or "" if i is out of range.
func (ci *ChromosomeIndex) Name(i int) string {
	if i < 0 || i >= len(ci.names) {
		return ""
	}
	return ci.names[i]
}

// Len returns the number of chromosomes.
func (ci *ChromosomeIndex) Len() int {
	return len(ci.names)
}

// Names returns the normalized names in index order.
func (ci *ChromosomeIndex) Names() []string {
	out := make([]string, len(ci.names))
	copy(out, ci.names)
	return out
}

// normalizeChrom normalizes chromosome names by removing the "chr" prefix and
// mapping RefSeq accessions of the primary assembly to their short names.
// GENCODE uses "chr1", NCBI uses "NC_000001.11", VCF/MAF often use "1".
func normalizeChrom(chrom string) string {
	chrom = strings.TrimPrefix(chrom, "chr")

	if strings.HasPrefix(chrom, "NC_") {
		if name, ok := refSeqAccessionName(chrom); ok {
			return name
		}
	}

	if chrom == "M" {
		return "MT"
	}
	return chrom
}

// refSeqAccessionName maps NC_0000NN[.v] to 1..22, X and Y, and NC_012920
// to MT.
func refSeqAccessionName(acc string) (string, bool) {
	acc = stripVersion(acc)
	if acc == "NC_012920" {
		return "MT", true
	}
	if !strings.HasPrefix(acc, "NC_0000") {
		return "", false
	}

	n, err := strconv.Atoi(strings.TrimPrefix(acc, "NC_0000"))
	if err != nil {
		return "", false
	}
	switch {
	case n >= 1 && n <= 22:
		return strconv.Itoa(n), true
	case n == 23:
		return "X", true
	case n == 24:
		return "Y", true
	}
	return "", false
}
