package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genecache/internal/gene"
)

const hgncTSV = "hgnc_id\tsymbol\tname\tlocus_group\tentrez_id\tensembl_gene_id\n" +
	"HGNC:6407\tKRAS\tKRAS proto-oncogene, GTPase\tprotein-coding gene\t3845\tENSG00000133703\n" +
	"HGNC:7989\tNRAS\tNRAS proto-oncogene, GTPase\tprotein-coding gene\t4893\tENSG00000213281\n" +
	"HGNC:1\tA12M1\t~withdrawn\t\t\t\n" +
	"\n" +
	"HGNC:5\tA1BG\talpha-1-B glycoprotein\tprotein-coding gene\t1\n"

func TestParseHGNC(t *testing.T) {
	refs, err := parseHGNC(strings.NewReader(hgncTSV))
	require.NoError(t, err)
	require.Len(t, refs, 4)

	assert.Equal(t, gene.CrossReference{
		HgncID:       6407,
		Symbol:       "KRAS",
		EntrezGeneID: "3845",
		EnsemblID:    "ENSG00000133703",
	}, refs[0])

	assert.Equal(t, 1, refs[2].HgncID)
	assert.Empty(t, refs[2].EntrezGeneID)
	assert.Empty(t, refs[2].EnsemblID)

	assert.Equal(t, "1", refs[3].EntrezGeneID, "short row")
	assert.Empty(t, refs[3].EnsemblID)
}

func TestParseHGNC_MissingColumn(t *testing.T) {
	_, err := parseHGNC(strings.NewReader("hgnc_id\tsymbol\n"))
	assert.ErrorContains(t, err, "entrez_id")
}

func TestParseHGNC_Empty(t *testing.T) {
	refs, err := parseHGNC(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestLoadHGNC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hgnc_complete_set.txt")
	require.NoError(t, os.WriteFile(path, []byte(hgncTSV), 0o644))

	refs, err := LoadHGNC(path)
	require.NoError(t, err)
	assert.Len(t, refs, 4)

	linked := gene.NewCrossReferences(refs).LinkIDs()
	assert.Equal(t, "3845", linked["ENSG00000133703"])
}
