package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingColumnsCarriesAvailableColumns(t *testing.T) {
	err := MissingColumns("tolerances", []string{"MERCADO-CLIENTE"}, []string{"ESPECIE", "LINEA PRODUCTO"})
	require.Error(t, err)

	assert.True(t, Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "MERCADO-CLIENTE")
	assert.Contains(t, FlattenDetails(err), "ESPECIE | LINEA PRODUCTO")
	assert.NotEmpty(t, GetAllHints(err))
}

func TestEmptyJoinCarriesRowCounts(t *testing.T) {
	err := EmptyJoin("lots", 12, "tolerances", 0)

	assert.True(t, Is(err, ErrEmptyJoin))
	assert.Contains(t, FlattenDetails(err), "lots rows=12, tolerances rows=0")
}

func TestIsDataError(t *testing.T) {
	assert.True(t, IsDataError(Wrap(ErrEmptyResult, "evaluate")))
	assert.True(t, IsDataError(MissingColumns("lots", []string{"LOTE"}, nil)))
	assert.False(t, IsDataError(New("disk full")))
	assert.False(t, IsDataError(nil))
}
