package decrement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/values"
)

func lotTable() *table.Table {
	return &table.Table{
		Name:    "lots",
		Columns: []string{"LOTE", "500.0__HERIDA", "600.0__PUDRICION", "PROMSOLSOL"},
		Rows: []table.Row{
			{"LOTE": "806", "500.0__HERIDA": "10", "600.0__PUDRICION": "4", "PROMSOLSOL": "12"},
			{"LOTE": "807", "500.0__HERIDA": "", "600.0__PUDRICION": "2", "PROMSOLSOL": "11"},
		},
	}
}

func decTable(rows ...[2]string) *table.Table {
	t := &table.Table{Name: "decrements", Columns: []string{ColVariables, ColPercent}}
	for _, r := range rows {
		t.Rows = append(t.Rows, table.Row{ColVariables: r[0], ColPercent: r[1]})
	}
	return t
}

func TestParseUsesPercentColumnOrSecondColumn(t *testing.T) {
	dec, err := Parse(decTable([2]string{" 500.0__HERIDA ", "25%"}, [2]string{"600.0__PUDRICION", "0,5"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"500.0__HERIDA", "600.0__PUDRICION"}, dec.Order)
	assert.InDelta(t, 0.25, dec.Fraction("500.0__HERIDA"), 1e-12)
	assert.InDelta(t, 0.5, dec.Fraction("600.0__PUDRICION"), 1e-12)
	assert.Zero(t, dec.Fraction("500.0__OTRO"))

	alt := &table.Table{Name: "decrements", Columns: []string{ColVariables, "PORCENTAJE"}}
	alt.Rows = []table.Row{{ColVariables: "500.0__HERIDA", "PORCENTAJE": "10"}}
	dec, err = Parse(alt)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, dec.Fraction("500.0__HERIDA"), 1e-12)
}

func TestParseRequiresVariablesColumn(t *testing.T) {
	_, err := Parse(&table.Table{Name: "decrements", Columns: []string{"X", "Y"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMissingColumn))
}

func TestApplyScalesOnlyDecrementableFields(t *testing.T) {
	lots := lotTable()
	dec, err := Parse(decTable(
		[2]string{"500.0__HERIDA", "50%"},
		[2]string{"600.0__PUDRICION", "25"},
		[2]string{"PROMSOLSOL", "50"},
	))
	require.NoError(t, err)

	adj := Apply(lots, dec)

	assert.Equal(t, values.Some(5), adj.Rows[0].Num("500.0__HERIDA"))
	assert.Equal(t, values.Some(3), adj.Rows[0].Num("600.0__PUDRICION"))
	assert.Equal(t, values.Some(12), adj.Rows[0].Num("PROMSOLSOL"))
	assert.Equal(t, "", adj.Rows[1]["500.0__HERIDA"])

	// source untouched
	assert.Equal(t, "10", lots.Rows[0]["500.0__HERIDA"])
	assert.Equal(t, "4", lots.Rows[0]["600.0__PUDRICION"])
}

func TestApplyWithoutDecrementsIsIdentity(t *testing.T) {
	lots := lotTable()
	adj := Apply(lots, nil)
	assert.Equal(t, lots.Rows, adj.Rows)
}

func TestCheckLot(t *testing.T) {
	lots := lotTable()
	dec, err := Parse(decTable(
		[2]string{"500.0__HERIDA", "12.5%"},
		[2]string{"PROMSOLSOL", "50"},
		[2]string{"500.0__AUSENTE", "50"},
	))
	require.NoError(t, err)
	adj := Apply(lots, dec)

	rows := CheckLot(lots, adj, dec, "806.0")
	require.Len(t, rows, 1)
	assert.Equal(t, "500.0__HERIDA", rows[0].Variable)
	assert.Equal(t, values.Some(10), rows[0].Real)
	assert.Equal(t, "12.50%", rows[0].DecrementPct)
	assert.Equal(t, values.Some(8.75), rows[0].Adjusted)

	assert.Nil(t, CheckLot(lots, adj, dec, "999"))

	sheet := CheckSheet("806", rows)
	assert.Equal(t, "Check_806", sheet.Name)
	assert.Len(t, sheet.Rows, 1)
}
