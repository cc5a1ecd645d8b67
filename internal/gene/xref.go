package gene

// CrossReference is one row of an identifier cross-reference table such as
// the HGNC complete set. Empty strings and NoHgncID mark absent values.
type CrossReference struct {
	HgncID       int
	Symbol       string
	EntrezGeneID string
	EnsemblID    string
}

// uniqueValue remembers the first value seen for a key and whether a
// different value was seen later.
type uniqueValue[V comparable] struct {
	value    V
	conflict bool
}

type uniqueMap[V comparable] map[string]*uniqueValue[V]

func (m uniqueMap[V]) add(key string, value V) {
	if old, ok := m[key]; ok {
		if old.value != value {
			old.conflict = true
		}
		return
	}
	m[key] = &uniqueValue[V]{value: value}
}

// get returns the value for key if it was never contradicted.
func (m uniqueMap[V]) get(key string) (V, bool) {
	u, ok := m[key]
	if !ok || u.conflict {
		var zero V
		return zero, false
	}
	return u.value, true
}

func (m uniqueMap[V]) unique() int {
	var n int
	for _, u := range m {
		if !u.conflict {
			n++
		}
	}
	return n
}

// CrossReferences indexes cross-reference rows by Ensembl and Entrez gene ID.
// A key that maps to more than one distinct value is a conflict and is never
// returned by lookups.
type CrossReferences struct {
	entries int

	ensemblToEntrez uniqueMap[string]
	entrezToEnsembl uniqueMap[string]
	ensemblToSymbol uniqueMap[string]
	entrezToSymbol  uniqueMap[string]
	ensemblToHgnc   uniqueMap[int]
	entrezToHgnc    uniqueMap[int]
}

// NewCrossReferences indexes the given rows.
func NewCrossReferences(rows []CrossReference) *CrossReferences {
	x := &CrossReferences{
		ensemblToEntrez: uniqueMap[string]{},
		entrezToEnsembl: uniqueMap[string]{},
		ensemblToSymbol: uniqueMap[string]{},
		entrezToSymbol:  uniqueMap[string]{},
		ensemblToHgnc:   uniqueMap[int]{},
		entrezToHgnc:    uniqueMap[int]{},
	}

	for _, r := range rows {
		hasEnsembl := r.EnsemblID != ""
		hasEntrez := r.EntrezGeneID != ""
		if !hasEnsembl && !hasEntrez {
			continue
		}
		x.entries++

		if r.Symbol != "" {
			if hasEnsembl {
				x.ensemblToSymbol.add(r.EnsemblID, r.Symbol)
			}
			if hasEntrez {
				x.entrezToSymbol.add(r.EntrezGeneID, r.Symbol)
			}
		}

		if r.HgncID != NoHgncID {
			if hasEnsembl {
				x.ensemblToHgnc.add(r.EnsemblID, r.HgncID)
			}
			if hasEntrez {
				x.entrezToHgnc.add(r.EntrezGeneID, r.HgncID)
			}
		}

		if hasEnsembl && hasEntrez {
			x.ensemblToEntrez.add(r.EnsemblID, r.EntrezGeneID)
			x.entrezToEnsembl.add(r.EntrezGeneID, r.EnsemblID)
		}
	}

	return x
}

// LinkIDs returns Ensembl gene ID -> Entrez gene ID for every pair that is
// unique in both directions.
func (x *CrossReferences) LinkIDs() map[string]string {
	linked := make(map[string]string)

	for entrezID := range x.entrezToEnsembl {
		ensemblID, ok := x.entrezToEnsembl.get(entrezID)
		if !ok {
			continue
		}
		reciprocal, ok := x.ensemblToEntrez.get(ensemblID)
		if !ok {
			continue
		}
		linked[ensemblID] = reciprocal
	}

	return linked
}

// HgncID looks up an unambiguous HGNC ID, preferring the Ensembl gene ID.
// Empty IDs are ignored.
func (x *CrossReferences) HgncID(ensemblID, entrezID string) (int, bool) {
	if ensemblID != "" {
		if id, ok := x.ensemblToHgnc.get(ensemblID); ok {
			return id, true
		}
	}
	if entrezID != "" {
		if id, ok := x.entrezToHgnc.get(entrezID); ok {
			return id, true
		}
	}
	return NoHgncID, false
}

// Symbol looks up an unambiguous gene symbol, preferring the Ensembl gene ID.
func (x *CrossReferences) Symbol(ensemblID, entrezID string) (string, bool) {
	if ensemblID != "" {
		if s, ok := x.ensemblToSymbol.get(ensemblID); ok {
			return s, true
		}
	}
	if entrezID != "" {
		if s, ok := x.entrezToSymbol.get(entrezID); ok {
			return s, true
		}
	}
	return "", false
}

// CrossReferenceStats summarizes how many keys of each lookup are unique.
type CrossReferenceStats struct {
	Entries        int
	EnsemblSymbols int
	EntrezSymbols  int
	EnsemblHgnc    int
	EntrezHgnc     int
}

// Stats counts the unambiguous keys of each lookup.
func (x *CrossReferences) Stats() CrossReferenceStats {
	return CrossReferenceStats{
		Entries:        x.entries,
		EnsemblSymbols: x.ensemblToSymbol.unique(),
		EntrezSymbols:  x.entrezToSymbol.unique(),
		EnsemblHgnc:    x.ensemblToHgnc.unique(),
		EntrezHgnc:     x.entrezToHgnc.unique(),
	}
}

// HgncStats counts the outcome of UpdateHgncIDs.
type HgncStats struct {
	AlreadyCurrent int
	Updated        int
	Unresolved     int
}

// UpdateHgncIDs fills in missing HGNC IDs from the first source that knows
// the gene. Genes that already carry one are left unchanged.
func UpdateHgncIDs(genes []*Record, sources ...*CrossReferences) HgncStats {
	var stats HgncStats
	for _, g := range genes {
		if g.HgncID != NoHgncID {
			stats.AlreadyCurrent++
			continue
		}

		id, ok := lookupHgncID(g, sources)
		if !ok {
			stats.Unresolved++
			continue
		}
		g.HgncID = id
		stats.Updated++
	}
	return stats
}

func lookupHgncID(g *Record, sources []*CrossReferences) (int, bool) {
	for _, x := range sources {
		if id, ok := x.HgncID(g.EnsemblID, g.EntrezGeneID); ok {
			return id, true
		}
	}
	return NoHgncID, false
}

// ResolveSymbols fills in missing gene symbols from the first source that
// knows the gene and returns the genes still without a symbol.
func ResolveSymbols(genes []*Record, sources ...*CrossReferences) []*Record {
	var unresolved []*Record
	for _, g := range genes {
		if g.Symbol != "" {
			continue
		}
		if s, ok := lookupSymbol(g, sources); ok {
			g.Symbol = s
			continue
		}
		unresolved = append(unresolved, g)
	}
	return unresolved
}

func lookupSymbol(g *Record, sources []*CrossReferences) (string, bool) {
	for _, x := range sources {
		if s, ok := x.Symbol(g.EnsemblID, g.EntrezGeneID); ok {
			return s, true
		}
	}
	return "", false
}
