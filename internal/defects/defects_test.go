package defects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carozos/lotalloc/internal/table"
)

func crossTable(rows ...[3]string) *table.Table {
	t := &table.Table{Name: "crossref", Columns: []string{ColTolerance, ColMeasured, ColCategory}}
	for _, r := range rows {
		t.Rows = append(t.Rows, table.Row{ColTolerance: r[0], ColMeasured: r[1], ColCategory: r[2]})
	}
	return t
}

func TestResolveKeepsQualifyingRowsInOrder(t *testing.T) {
	cross := crossTable(
		[3]string{"PIEL DE LAGARTO", "500.0__PIEL DE LAGARTO", "CALIDAD"},
		[3]string{"PUDRICION", "600.0__PUDRICION", "Condicion"},
		[3]string{"DESCRIPCION", "Observaciones", "CALIDAD"},
		[3]string{"HERIDA", "500.0__HERIDA", "quality"},
		[3]string{"NO EN LOTES", "500.0__FALTA", "CALIDAD"},
	)
	lotCols := []string{"LOTE", "500.0__PIEL DE LAGARTO", "600.0__PUDRICION", "500.0__HERIDA"}
	tolCols := []string{"MERCADO-CLIENTE", "PIEL DE LAGARTO", "PUDRICION", "HERIDA", "NO EN LOTES"}

	m := Resolve(cross, lotCols, tolCols)

	require.Len(t, m.Pairs, 3)
	assert.Equal(t, "PIEL DE LAGARTO", m.Pairs[0].Tolerance)
	assert.Equal(t, "PUDRICION", m.Pairs[1].Tolerance)
	assert.Equal(t, "HERIDA", m.Pairs[2].Tolerance)
	assert.Equal(t, []string{"600.0__PUDRICION"}, m.Condition)
	assert.Equal(t, []string{"500.0__PIEL DE LAGARTO", "500.0__HERIDA"}, m.Quality)
}

func TestResolveDropsCanonicalDuplicates(t *testing.T) {
	cross := crossTable(
		[3]string{"HERIDA", "500.0__HERIDA", "CALIDAD"},
		[3]string{"HERIDA", "500.0__HERIDA", "CONDICION"},
	)
	m := Resolve(cross, []string{"500.0__HERIDA"}, []string{"HERIDA"})

	require.Len(t, m.Pairs, 1)
	assert.Equal(t, Quality, m.Pairs[0].Category)
	assert.Empty(t, m.Condition)
}

func TestResolveKeepsEveryCapOnASharedMeasuredField(t *testing.T) {
	cross := crossTable(
		[3]string{"HERIDA LEVE", "500.0__HERIDA", "CALIDAD"},
		[3]string{"HERIDA GRAVE", "500.0__HERIDA", "CONDICION"},
		[3]string{"HERIDA TOTAL", "500.0__HERIDA", "CALIDAD"},
	)
	m := Resolve(cross, []string{"500.0__HERIDA"}, []string{"HERIDA LEVE", "HERIDA GRAVE", "HERIDA TOTAL"})

	require.Len(t, m.Pairs, 3)
	assert.Equal(t, "HERIDA GRAVE", m.Pairs[1].Tolerance)
	assert.Equal(t, []string{"500.0__HERIDA"}, m.Quality)
	assert.Equal(t, []string{"500.0__HERIDA"}, m.Condition)
}

func TestMappedSkipsBlankAndDescriptiveRows(t *testing.T) {
	cross := crossTable(
		[3]string{"", "500.0__X", "CALIDAD"},
		[3]string{"Y", "", "CALIDAD"},
		[3]string{"Z", "Z total", "CALIDAD"},
		[3]string{" W ", " 600.0__W ", "OTRA"},
	)
	pairs := Mapped(cross)

	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{Tolerance: "W", Measured: "600.0__W"}, pairs[0])
	assert.Nil(t, Mapped(nil))
}

func TestToleranceNames(t *testing.T) {
	cross := crossTable(
		[3]string{"A", "500.0__A", "CALIDAD"},
		[3]string{"B", "600.0__B", "CONDICION"},
		[3]string{"A", "500.0__A2", "CALIDAD"},
	)
	assert.Equal(t, []string{"A", "B"}, ToleranceNames(cross))
}
