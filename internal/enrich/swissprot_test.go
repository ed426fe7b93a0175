package enrich

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sha1n/pandannotate/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sprotMap = "# protein\ttaxon\tgene\n" +
	"P12345\tHomo sapiens\tGENE1\n" +
	"Q99999\tMus musculus\n" +
	"\n" +
	"KAPB_HUMAN\tHomo sapiens\tPRKACB\n"

func TestParseSwissProtMap(t *testing.T) {
	m, err := ParseSwissProtMap(strings.NewReader(sprotMap))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	_, err = ParseSwissProtMap(strings.NewReader("only-one-field\n"))
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	m, err := ParseSwissProtMap(strings.NewReader(sprotMap))
	require.NoError(t, err)

	tests := []struct {
		id    string
		found bool
		gene  string
	}{
		{"P12345", true, "GENE1"},
		{"sp|P12345|GENE1_HUMAN", true, "GENE1"},
		{"sp|P00000|KAPB_HUMAN", true, "PRKACB"},
		{"P12345.2", true, "GENE1"},
		{"sp|X00000|NOPE_HUMAN", false, ""},
		{"Q99999", true, ""},
	}
	for _, tt := range tests {
		e, ok := m.Lookup(tt.id)
		assert.Equal(t, tt.found, ok, tt.id)
		assert.Equal(t, tt.gene, e.GeneID, tt.id)

		// cached path returns the same answer
		e2, ok2 := m.Lookup(tt.id)
		assert.Equal(t, ok, ok2)
		assert.Equal(t, e, e2)
	}
}

func TestEnrich(t *testing.T) {
	m, err := ParseSwissProtMap(strings.NewReader(sprotMap))
	require.NoError(t, err)

	tbl, err := table.New(table.DefaultIndexName, "bl_sseqid", "bl_eval")
	require.NoError(t, err)
	require.NoError(t, tbl.AddRow("geneA", []string{"sp|P12345|GENE1_HUMAN", "1e-5"}))
	require.NoError(t, tbl.AddRow("geneB", []string{"sp|Q99999|X_MOUSE", "1e-3"}))
	require.NoError(t, tbl.AddRow("geneC", []string{"tr|A0A000|Y", "1e-2"}))
	require.NoError(t, tbl.AddCells("geneD", []table.Cell{{}, {Value: "1", Valid: true}}))

	out, err := m.Enrich(tbl, "bl_sseqid", SwissProtDatabase)
	require.NoError(t, err)
	assert.Equal(t, []string{"bl_sseqid", "bl_eval", "swissprot_taxon", "swissprot_gene"}, out.Columns())

	v, ok := out.Get("geneA", "swissprot_taxon")
	assert.True(t, ok)
	assert.Equal(t, "Homo sapiens", v)
	v, _ = out.Get("geneA", "swissprot_gene")
	assert.Equal(t, "GENE1", v)

	_, ok = out.Get("geneB", "swissprot_gene")
	assert.False(t, ok, "empty gene id renders as missing")
	_, ok = out.Get("geneC", "swissprot_taxon")
	assert.False(t, ok)
	_, ok = out.Get("geneD", "swissprot_taxon")
	assert.False(t, ok)
}

func TestEnrich_Errors(t *testing.T) {
	m, err := ParseSwissProtMap(strings.NewReader(sprotMap))
	require.NoError(t, err)
	tbl, err := table.New(table.DefaultIndexName, "bl_sseqid")
	require.NoError(t, err)

	_, err = m.Enrich(tbl, "bl_sseqid", "trembl")
	require.ErrorIs(t, err, ErrUnsupportedDatabase)

	_, err = m.Enrich(tbl, "bl_hit", SwissProtDatabase)
	require.ErrorIs(t, err, table.ErrUnknownColumn)
}

func TestLoadSwissProtMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprot.tsv")
	require.NoError(t, os.WriteFile(path, []byte(sprotMap), 0644))

	m, err := LoadSwissProtMap(path)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	_, err = LoadSwissProtMap(filepath.Join(t.TempDir(), "none.tsv"))
	require.Error(t, err)
}
