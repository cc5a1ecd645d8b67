// Package gene flattens and merges gene models from the Ensembl and RefSeq
// annotation providers into one reconciled gene set.
package gene

import (
	"fmt"

	"github.com/inodb/genecache/internal/interval"
)

// DataSource identifies the annotation provider a gene came from.
type DataSource uint8

const (
	Ensembl DataSource = iota
	RefSeq
	BothRefSeqAndEnsembl
)

func (s DataSource) String() string {
	switch s {
	case Ensembl:
		return "Ensembl"
	case RefSeq:
		return "RefSeq"
	case BothRefSeqAndEnsembl:
		return "BothRefSeqAndEnsembl"
	}
	return fmt.Sprintf("DataSource(%d)", uint8(s))
}

// ParseDataSource converts a data source name, as returned by String, back to
// a DataSource.
func ParseDataSource(s string) (DataSource, error) {
	switch s {
	case "Ensembl":
		return Ensembl, nil
	case "RefSeq":
		return RefSeq, nil
	case "BothRefSeqAndEnsembl":
		return BothRefSeqAndEnsembl, nil
	}
	return 0, fmt.Errorf("unknown data source %q", s)
}

// Namespace selects which identifier a record is keyed by.
type Namespace uint8

const (
	// EnsemblNamespace keys records by Ensembl gene ID (e.g. ENSG00000133703).
	EnsemblNamespace Namespace = iota
	// EntrezNamespace keys records by Entrez/RefSeq gene ID (e.g. 3845).
	EntrezNamespace
)

func (n Namespace) String() string {
	if n == EntrezNamespace {
		return "Entrez"
	}
	return "Ensembl"
}

// NamespaceFor returns the namespace a single-source record is keyed by.
func NamespaceFor(s DataSource) Namespace {
	if s == RefSeq {
		return EntrezNamespace
	}
	return EnsemblNamespace
}

// NoHgncID marks a record without an HGNC cross-reference.
const NoHgncID = -1

// Record is a gene model from one (or, after merging, both) data sources.
// Records are mutated in place while flattening and merging.
type Record struct {
	ChromIndex      int    // Dense reference sequence index
	Start           int64  // Gene start (1-based)
	End             int64  // Gene end (1-based, inclusive)
	OnReverseStrand bool   // True for genes on the minus strand
	EnsemblID       string // Ensembl gene ID without version, empty if absent
	EntrezGeneID    string // Entrez gene ID, empty if absent
	Symbol          string // Gene symbol (e.g., KRAS)
	HgncID          int    // HGNC ID, NoHgncID if absent
	Source          DataSource

	// Invalid marks a record that has been absorbed into another record.
	// It is set at most once and never cleared.
	Invalid bool
}

// ID returns the record's identifier in the given namespace.
func (g *Record) ID(ns Namespace) string {
	if ns == EntrezNamespace {
		return g.EntrezGeneID
	}
	return g.EnsemblID
}

// Clone returns a copy of the record.
func (g *Record) Clone() *Record {
	c := *g
	return &c
}

// Overlaps reports whether the record's closed interval overlaps [start, end].
func (g *Record) Overlaps(start, end int64) bool {
	return interval.Overlaps(g.Start, g.End, start, end)
}

// Compatible reports whether two records lie on the same chromosome and strand,
// the precondition for merging them.
func (g *Record) Compatible(other *Record) bool {
	return g.ChromIndex == other.ChromIndex && g.OnReverseStrand == other.OnReverseStrand
}

// absorb extends the record to the union of both intervals.
func (g *Record) absorb(other *Record) {
	if other.Start < g.Start {
		g.Start = other.Start
	}
	if other.End > g.End {
		g.End = other.End
	}
}

func (g *Record) String() string {
	strand := "+"
	if g.OnReverseStrand {
		strand = "-"
	}
	return fmt.Sprintf("%s[%d:%d-%d%s ensembl=%s entrez=%s hgnc=%d %s]",
		g.Symbol, g.ChromIndex, g.Start, g.End, strand, g.EnsemblID, g.EntrezGeneID, g.HgncID, g.Source)
}
