package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carozos/lotalloc/internal/export"
	"github.com/carozos/lotalloc/internal/table"
)

func TestSheetsFromDocumentsOrder(t *testing.T) {
	docs := map[string]export.Document{
		"Zeta":  {Columns: []string{"A"}, Rows: []map[string]any{{"A": 1.0}}},
		"Alpha": {Columns: []string{"A", "B"}, Rows: []map[string]any{{"A": "x"}}},
		"First": {Columns: []string{"A"}},
	}
	sheets := sheetsFromDocuments(docs, "First", "Missing")
	require.Len(t, sheets, 3)
	assert.Equal(t, []string{"First", "Alpha", "Zeta"}, []string{sheets[0].Name, sheets[1].Name, sheets[2].Name})
	assert.Equal(t, []any{"x", nil}, sheets[1].Rows[0])
}

func TestRenderSheetLimit(t *testing.T) {
	s := table.Sheet{Name: "ResumenMC", Columns: []string{"MERCADO-CLIENTE", "KILOS_ASIGNABLE"}}
	for _, m := range []string{"USA", "CHINA", "EUROPA"} {
		s.Rows = append(s.Rows, []any{m, 100.0})
	}
	var buf bytes.Buffer
	require.NoError(t, renderSheet(&buf, s, 2))
	out := buf.String()
	assert.Contains(t, out, "ResumenMC")
	assert.Contains(t, out, "CHINA")
	assert.NotContains(t, out, "EUROPA")
	assert.Contains(t, out, "1 more rows")
}

func TestEmitJSON(t *testing.T) {
	o := outputFlags{format: export.FormatJSON}
	var buf bytes.Buffer
	s := table.Sheet{Name: "S", Columns: []string{"A"}, Rows: [][]any{{1.5}}}
	require.NoError(t, o.emit(&buf, []table.Sheet{s}, 0))
	assert.Contains(t, buf.String(), `"A": 1.5`)
}

func TestTableFlagsNeedInputs(t *testing.T) {
	var f tableFlags
	_, err := f.load()
	assert.Error(t, err)

	dir := t.TempDir()
	lots := filepath.Join(dir, "lots.csv")
	tols := filepath.Join(dir, "tol.csv")
	require.NoError(t, os.WriteFile(lots, []byte("LOTE;ESPECIE;LINEA PRODUCTO\n1;KIWI;VERDE\n2;KIWI;ORO\n"), 0o644))
	require.NoError(t, os.WriteFile(tols, []byte("ESPECIE;LINEA PRODUCTO;MERCADO-CLIENTE\nKIWI;VERDE;USA\n"), 0o644))

	f = tableFlags{lots: lots, tolerances: tols, line: "VERDE"}
	in, err := f.load()
	require.NoError(t, err)
	assert.Len(t, in.Lots.Rows, 1)
	assert.Nil(t, in.Decrements)
}

func TestReplayFixtures(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, runReplay(cmd, []string{filepath.Join("..", "..", "..", "internal", "scenario", "testdata")}))
	assert.Contains(t, buf.String(), "PASS nectarin_basic.json")
	assert.Contains(t, buf.String(), "PASS single_cluster.json")
}
