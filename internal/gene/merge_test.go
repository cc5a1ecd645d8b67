package gene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSymbol(g *Record, symbol string, hgncID int) *Record {
	g.Symbol = symbol
	g.HgncID = hgncID
	return g
}

func TestMerge_LinkedPair(t *testing.T) {
	ensembl := []*Record{withSymbol(ensemblGene("ENSG003", 0, 100, 200, false), "ABC", NoHgncID)}
	refSeq := []*Record{withSymbol(refSeqGene("500", 0, 150, 250, false), "ABC", NoHgncID)}

	m := NewMerger(map[string]string{"ENSG003": "500"})
	merged, err := m.Merge(ensembl, refSeq)
	require.NoError(t, err)
	require.Len(t, merged, 1)

	g := merged[0]
	assert.Equal(t, [2]int64{100, 250}, span(g))
	assert.Equal(t, BothRefSeqAndEnsembl, g.Source)
	assert.Equal(t, "ENSG003", g.EnsemblID)
	assert.Equal(t, "500", g.EntrezGeneID)
	assert.Equal(t, "ABC", g.Symbol)
	assert.Equal(t, MergeStats{Merged: 1}, m.Stats())
	assert.False(t, g.Invalid)
}

func TestMerge_UnlinkedEnsemblOrphan(t *testing.T) {
	ensembl := []*Record{withSymbol(ensemblGene("ENSG002", 0, 100, 200, false), "XYZ", 42)}

	m := NewMerger(map[string]string{})
	merged, err := m.Merge(ensembl, nil)
	require.NoError(t, err)
	require.Len(t, merged, 1)

	g := merged[0]
	assert.Equal(t, Ensembl, g.Source)
	assert.Equal(t, "ENSG002", g.EnsemblID)
	assert.Empty(t, g.EntrezGeneID)
	assert.Equal(t, [2]int64{100, 200}, span(g))
	assert.Equal(t, 42, g.HgncID)
	assert.Equal(t, MergeStats{EnsemblOrphans: 1}, m.Stats())
	assert.True(t, g.Invalid, "orphans are returned tombstoned")
}

func TestMerge_RefSeqOrphan(t *testing.T) {
	ensembl := []*Record{withSymbol(ensemblGene("ENSG010", 0, 100, 200, false), "DEF", NoHgncID)}
	refSeq := []*Record{withSymbol(refSeqGene("777", 0, 150, 250, false), "DEF", NoHgncID)}

	// Linked to an Entrez ID that is not in the group.
	m := NewMerger(map[string]string{"ENSG010": "999"})
	merged, err := m.Merge(ensembl, refSeq)
	require.NoError(t, err)
	require.Len(t, merged, 2)

	assert.Equal(t, Ensembl, merged[0].Source)
	assert.Equal(t, RefSeq, merged[1].Source)
	assert.Equal(t, "777", merged[1].EntrezGeneID)
	assert.Equal(t, MergeStats{EnsemblOrphans: 1, RefSeqOrphans: 1}, m.Stats())
}

func TestMerge_DifferentSymbolsNeverMerge(t *testing.T) {
	ensembl := []*Record{withSymbol(ensemblGene("ENSG003", 0, 100, 200, false), "ABC", NoHgncID)}
	refSeq := []*Record{withSymbol(refSeqGene("500", 0, 150, 250, false), "ABD", NoHgncID)}

	m := NewMerger(map[string]string{"ENSG003": "500"})
	merged, err := m.Merge(ensembl, refSeq)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, MergeStats{EnsemblOrphans: 1, RefSeqOrphans: 1}, m.Stats())
}

func TestMerge_HgncFallback(t *testing.T) {
	tests := []struct {
		name        string
		ensemblHgnc int
		refSeqHgnc  int
		want        int
	}{
		{"prefer Ensembl", 10, 20, 10},
		{"fall back to RefSeq", NoHgncID, 20, 20},
		{"neither", NoHgncID, NoHgncID, NoHgncID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ensembl := []*Record{withSymbol(ensemblGene("ENSG003", 0, 100, 200, false), "ABC", tt.ensemblHgnc)}
			refSeq := []*Record{withSymbol(refSeqGene("500", 0, 150, 250, false), "ABC", tt.refSeqHgnc)}

			merged, err := NewMerger(map[string]string{"ENSG003": "500"}).Merge(ensembl, refSeq)
			require.NoError(t, err)
			require.Len(t, merged, 1)
			assert.Equal(t, tt.want, merged[0].HgncID)
		})
	}
}

func TestMerge_StatsResetBetweenCalls(t *testing.T) {
	m := NewMerger(nil)

	_, err := m.Merge([]*Record{withSymbol(ensemblGene("ENSG001", 0, 1, 2, false), "A", NoHgncID)}, nil)
	require.NoError(t, err)
	_, err = m.Merge(nil, []*Record{withSymbol(refSeqGene("1", 0, 1, 2, false), "A", NoHgncID)})
	require.NoError(t, err)

	assert.Equal(t, MergeStats{RefSeqOrphans: 1}, m.Stats())
}

func TestMerge_CDRT1(t *testing.T) {
	ensembl := []*Record{
		withSymbol(ensemblGene("ENSG00000181464", 16, 15468797, 15469590, true), "CDRT1", NoHgncID),
		withSymbol(ensemblGene("ENSG00000241322", 16, 15468798, 15522826, true), "CDRT1", 14379),
		withSymbol(ensemblGene("ENSG00000251537", 16, 15474805, 15554967, true), "CDRT1", NoHgncID),
	}
	refSeq := []*Record{
		withSymbol(refSeqGene("374286", 16, 15491977, 15523018, true), "CDRT1", NoHgncID),
	}

	merged, err := NewMerger(map[string]string{"ENSG00000241322": "374286"}).Merge(ensembl, refSeq)
	require.NoError(t, err)
	require.Len(t, merged, 3)

	want := []struct {
		start, end int64
		ensemblID  string
		entrezID   string
		hgncID     int
	}{
		{15468797, 15469590, "ENSG00000181464", "", NoHgncID},
		{15468798, 15523018, "ENSG00000241322", "374286", 14379},
		{15474805, 15554967, "ENSG00000251537", "", NoHgncID},
	}
	for i, w := range want {
		g := merged[i]
		assert.Equal(t, 16, g.ChromIndex)
		assert.Equal(t, [2]int64{w.start, w.end}, span(g), "gene %d", i)
		assert.Equal(t, "CDRT1", g.Symbol)
		assert.Equal(t, w.ensemblID, g.EnsemblID)
		assert.Equal(t, w.entrezID, g.EntrezGeneID)
		assert.Equal(t, w.hgncID, g.HgncID)
		assert.True(t, g.OnReverseStrand)
	}
}

func TestMerge_SH3RF3(t *testing.T) {
	ensembl := []*Record{
		withSymbol(ensemblGene("ENSG00000172985", 1, 109745804, 110262207, false), "SH3RF3", 24699),
	}
	refSeq := []*Record{
		withSymbol(refSeqGene("344558", 1, 109745997, 110107395, false), "SH3RF3", NoHgncID),
		withSymbol(refSeqGene("344558", 1, 110259067, 110262207, false), "SH3RF3", NoHgncID),
	}

	merged, err := NewMerger(map[string]string{"ENSG00000172985": "344558"}).Merge(ensembl, refSeq)
	require.NoError(t, err)
	require.Len(t, merged, 1)

	g := merged[0]
	assert.Equal(t, 1, g.ChromIndex)
	assert.Equal(t, [2]int64{109745804, 110262207}, span(g))
	assert.Equal(t, "SH3RF3", g.Symbol)
	assert.Equal(t, 24699, g.HgncID)
	assert.Equal(t, "344558", g.EntrezGeneID)
	assert.Equal(t, "ENSG00000172985", g.EnsemblID)
	assert.False(t, g.OnReverseStrand)
}

func TestMerge_SRGAP2C(t *testing.T) {
	ensembl := []*Record{
		withSymbol(ensemblGene("ENSG00000171943", 0, 121107124, 121129949, false), "SRGAP2C", 30584),
	}
	refSeq := []*Record{
		withSymbol(refSeqGene("653464", 0, 120835810, 120838261, true), "SRGAP2C", NoHgncID),
		withSymbol(refSeqGene("653464", 0, 121107154, 121131061, false), "SRGAP2C", NoHgncID),
	}

	m := NewMerger(map[string]string{"ENSG00000171943": "653464"})
	merged, err := m.Merge(ensembl, refSeq)
	require.NoError(t, err)
	require.Len(t, merged, 2)

	orphan := merged[0]
	assert.Equal(t, [2]int64{120835810, 120838261}, span(orphan))
	assert.Equal(t, NoHgncID, orphan.HgncID)
	assert.Equal(t, "653464", orphan.EntrezGeneID)
	assert.Empty(t, orphan.EnsemblID)
	assert.True(t, orphan.OnReverseStrand)
	assert.Equal(t, RefSeq, orphan.Source)

	both := merged[1]
	assert.Equal(t, [2]int64{121107124, 121131061}, span(both))
	assert.Equal(t, 30584, both.HgncID)
	assert.Equal(t, "653464", both.EntrezGeneID)
	assert.Equal(t, "ENSG00000171943", both.EnsemblID)
	assert.False(t, both.OnReverseStrand)
	assert.Equal(t, BothRefSeqAndEnsembl, both.Source)

	assert.Equal(t, MergeStats{Merged: 1, RefSeqOrphans: 1}, m.Stats())
}

func TestMerge_WindowGrowsThroughChain(t *testing.T) {
	// c only reaches the seed's window after b has extended it.
	a := withSymbol(ensemblGene("ENSG001", 0, 100, 320, false), "S", NoHgncID)
	b := withSymbol(refSeqGene("1", 0, 310, 500, false), "S", NoHgncID)
	c := withSymbol(refSeqGene("1", 0, 450, 600, false), "S", NoHgncID)

	merged, err := NewMerger(map[string]string{"ENSG001": "1"}).Merge([]*Record{a}, []*Record{c, b})
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, [2]int64{100, 600}, span(merged[0]))
}

func TestMerge_Containment(t *testing.T) {
	ensembl := []*Record{
		withSymbol(ensemblGene("ENSG001", 0, 100, 200, false), "A", NoHgncID),
		withSymbol(ensemblGene("ENSG001", 0, 180, 260, false), "A", NoHgncID),
		withSymbol(ensemblGene("ENSG002", 0, 5000, 5100, true), "B", NoHgncID),
	}
	refSeq := []*Record{
		withSymbol(refSeqGene("11", 0, 90, 150, false), "A", NoHgncID),
		withSymbol(refSeqGene("22", 0, 5050, 5200, true), "B", NoHgncID),
	}
	var inputs []Record
	for _, g := range append(append([]*Record{}, ensembl...), refSeq...) {
		inputs = append(inputs, *g)
	}

	merged, err := NewMerger(map[string]string{"ENSG001": "11"}).Merge(ensembl, refSeq)
	require.NoError(t, err)
	require.Len(t, merged, 3)

	for _, in := range inputs {
		var owners int
		for _, out := range merged {
			if out.Symbol == in.Symbol && out.Compatible(&in) && out.Start <= in.Start && in.End <= out.End {
				owners++
			}
		}
		assert.Equal(t, 1, owners, "input %s", &in)
	}
}

func TestMergeGroups_MissingSymbolGroup(t *testing.T) {
	genes := []*Record{withSymbol(ensemblGene("ENSG003", 0, 100, 200, false), "ABC", NoHgncID)}
	bySymbol := map[string][]*Record{"ABD": genes}

	_, err := NewMerger(map[string]string{}).mergeGroups(genes, bySymbol)
	assert.ErrorIs(t, err, ErrInconsistentIndex)
}
