package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/table"
)

func results() []eligibility.Result {
	return []eligibility.Result{
		{Lot: "806", Market: "USA", Quantity: 1000, Pass: true, Allocatable: 800},
		{Lot: "806", Market: "CHINA", Quantity: 1000, Pass: false},
		{Lot: "806", Market: "EUROPA", Quantity: 1000, Pass: true, Allocatable: 1000},
		{Lot: "807", Market: "USA", Quantity: 500, Pass: true, Allocatable: 500},
		{Lot: "807", Market: "CHINA", Quantity: 500, Pass: true, Allocatable: 0},
		{Lot: "807", Market: "EUROPA", Quantity: 500, Pass: false},
	}
}

func TestByMarket(t *testing.T) {
	got := ByMarket(results())
	require.Len(t, got, 3)
	assert.Equal(t, MarketSummary{Market: "USA", LotsOK: 2, Allocatable: 1300}, got[0])
	assert.Equal(t, MarketSummary{Market: "EUROPA", LotsOK: 1, Allocatable: 1000}, got[1])
	assert.Equal(t, MarketSummary{Market: "CHINA", LotsOK: 1, Allocatable: 0}, got[2])
}

func TestByLot(t *testing.T) {
	got := ByLot(results())
	require.Len(t, got, 2)
	assert.Equal(t, LotSummary{Lot: "806", Quantity: 1000, Markets: 2, Allocatable: 1800}, got[0])
	assert.Equal(t, LotSummary{Lot: "807", Quantity: 500, Markets: 1, Allocatable: 500}, got[1])
}

func TestTiesOrderByKey(t *testing.T) {
	got := ByMarket([]eligibility.Result{
		{Lot: "1", Market: "B"}, {Lot: "1", Market: "A"}, {Lot: "1", Market: "C", Allocatable: 5},
	})
	assert.Equal(t, []string{"C", "A", "B"}, []string{got[0].Market, got[1].Market, got[2].Market})
}

func TestSheets(t *testing.T) {
	m, l := Summarize(results())
	ms := MarketSheet(m)
	assert.Equal(t, []string{"MERCADO-CLIENTE", "LOTES_OK", "KILOS_ASIGNABLE"}, ms.Columns)
	assert.Equal(t, []any{"USA", 2, 1300.0}, ms.Rows[0])
	ls := LotSheet(l)
	assert.Equal(t, []any{"806", 1000.0, 2, 1800.0}, ls.Rows[0])
}

func TestMarketsFromTable(t *testing.T) {
	tb := &table.Table{
		Name:    "ResumenMC.csv",
		Columns: []string{ColMarket, ColAllocatable},
		Rows: []table.Row{
			{ColMarket: "USA", ColAllocatable: "1300"},
			{ColMarket: "", ColAllocatable: "5"},
			{ColMarket: "CHINA", ColAllocatable: "n/a"},
		},
	}
	got, err := MarketsFromTable(tb)
	require.NoError(t, err)
	assert.Equal(t, []MarketSummary{{Market: "USA", Allocatable: 1300}, {Market: "CHINA"}}, got)

	_, err = MarketsFromTable(&table.Table{Name: "x", Columns: []string{ColMarket}})
	assert.True(t, errors.Is(err, errors.ErrMissingColumn))

	_, err = MarketsFromTable(&table.Table{Name: "x", Columns: []string{ColMarket, ColAllocatable}})
	assert.True(t, errors.Is(err, errors.ErrEmptyResult))
}
