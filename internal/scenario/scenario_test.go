package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/logging"
)

// #region fixture-tests

// TestFixtures replays every fixture under testdata. These are the
// regression baselines: a change to any rule, clustering or derivation step
// shows up here as a mismatch.
func TestFixtures(t *testing.T) {
	logging.Set(zaptest.NewLogger(t))
	defer logging.Set(nil)

	paths, err := Discover("testdata")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			f, err := LoadFixture(path)
			require.NoError(t, err)

			res, err := Replay(context.Background(), f)
			require.NoError(t, err)
			assert.Positive(t, res.Checks)
			for _, m := range res.Mismatches {
				t.Errorf("%s", m)
			}
		})
	}
}

func TestNectarinFixtureTables(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "nectarin_basic.json"))
	require.NoError(t, err)

	in := f.ToInputs()
	require.NotNil(t, in.Decrements)
	assert.Equal(t, "1000", in.Lots.Rows[0]["KILOS_REAL"])
	assert.Equal(t, "", in.Tolerances.Rows[2]["FIRMEZA INFERIOR"])
	assert.Equal(t, "50%", in.Decrements.Rows[0]["% DISMINUCION"])
	assert.Equal(t, 2, f.Config.ToParams().K)
}

func TestMissingSectionsStayNil(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "single_cluster.json"))
	require.NoError(t, err)
	in := f.ToInputs()
	assert.Nil(t, in.Decrements)
	assert.Nil(t, in.CrossRef)
}

// #endregion fixture-tests

// #region harness-tests

func TestReplayReportsMismatches(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "nectarin_basic.json"))
	require.NoError(t, err)

	wrong := 999.0
	f.Expected = FixtureExpected{
		Evaluations: []ExpectedEvaluation{
			{Lot: "806", Market: "USA", Pass: false},
			{Lot: "807", Market: "CHINA", Pass: true, Allocatable: &wrong},
			{Lot: "999", Market: "USA", Pass: true},
		},
		Markets:  []ExpectedMarket{{Market: "USA", Allocatable: 1000}},
		Clusters: map[string]int{"CHINA": 2, "JAPON": 1},
		Tolerances: []ExpectedTolerance{
			{Table: "Tol_Criticos", Variable: "BRIX", Values: []*float64{nil, nil}},
			{Table: "Tol_Nada", Variable: "BRIX"},
		},
	}

	res, err := Replay(context.Background(), f)
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, 8, res.Checks)

	got := map[string]bool{}
	for _, m := range res.Mismatches {
		got[m.Check+" "+m.Key] = true
	}
	assert.True(t, got["evaluation 806/USA"])
	assert.True(t, got["evaluation 807/CHINA"])
	assert.True(t, got["evaluation 999/USA"])
	assert.True(t, got["market #1"], "EUROPA sorts before USA")
	assert.True(t, got["cluster CHINA"])
	assert.True(t, got["cluster JAPON"])
	assert.True(t, got["tolerance Tol_Criticos/BRIX"])
	assert.True(t, got["tolerance Tol_Nada/BRIX"])
	assert.Len(t, res.Mismatches, 8)
}

func TestMismatchString(t *testing.T) {
	m := Mismatch{Check: "market", Key: "USA", Want: "1000", Got: "650"}
	assert.Equal(t, "market USA: want 1000, got 650", m.String())
}

func TestReplayRunFailure(t *testing.T) {
	f := &Fixture{
		Description: "no join",
		Lots:        FixtureTable{Columns: []string{"LOTE", "ESPECIE", "LINEA PRODUCTO"}, Rows: [][]any{{"1", "KIWI", "VERDE"}}},
		Tolerances:  FixtureTable{Columns: []string{"ESPECIE", "LINEA PRODUCTO", "MERCADO-CLIENTE"}, Rows: [][]any{{"UVA", "RED", "USA"}}},
	}
	_, err := Replay(context.Background(), f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyJoin))
	assert.Contains(t, err.Error(), `replay "no join"`)
}

// #endregion harness-tests

// #region loader-tests

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}
	paths, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")}, paths)

	single, err := Discover(paths[0])
	require.NoError(t, err)
	assert.Equal(t, paths[:1], single)

	_, err = Discover(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLoadFixtureErrors(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadFixture(bad)
	assert.Contains(t, err.Error(), "parse fixture")
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "", cellText(nil))
	assert.Equal(t, "USA", cellText(" USA "))
	assert.Equal(t, "12.5", cellText(12.5))
	assert.Equal(t, "true", cellText(true))
}

// #endregion loader-tests
