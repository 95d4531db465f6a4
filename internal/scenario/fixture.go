package scenario

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/pipeline"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/tolerance"
	"github.com/carozos/lotalloc/internal/values"
)

// #region fixture-types

// Fixture is the top-level JSON structure of a scenario.
type Fixture struct {
	Description string          `json:"description"`
	Lots        FixtureTable    `json:"lots"`
	Tolerances  FixtureTable    `json:"tolerances"`
	Decrements  *FixtureTable   `json:"decrements,omitempty"`
	CrossRef    *FixtureTable   `json:"crossref,omitempty"`
	Config      FixtureConfig   `json:"config"`
	Expected    FixtureExpected `json:"expected"`
}

// FixtureTable is a table in columnar form.
type FixtureTable struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// FixtureConfig mirrors the run parameters with JSON tags.
type FixtureConfig struct {
	K       int       `json:"k"`
	QMin    []float64 `json:"qmin,omitempty"`
	QMax    []float64 `json:"qmax,omitempty"`
	Workers int       `json:"workers,omitempty"`
}

// FixtureExpected lists what a replay must reproduce. Every section is
// optional.
type FixtureExpected struct {
	Evaluations []ExpectedEvaluation `json:"evaluations,omitempty"`
	Markets     []ExpectedMarket     `json:"markets,omitempty"`
	Clusters    map[string]int       `json:"clusters,omitempty"`
	Tolerances  []ExpectedTolerance  `json:"tolerances,omitempty"`
}

// ExpectedEvaluation checks one lot x market row.
type ExpectedEvaluation struct {
	Lot            string   `json:"lote"`
	Market         string   `json:"market"`
	Pass           bool     `json:"pass"`
	Allocatable    *float64 `json:"allocatable,omitempty"`
	ReasonContains string   `json:"reason_contains,omitempty"`
}

// ExpectedMarket checks one market summary row; order is checked too.
type ExpectedMarket struct {
	Market      string  `json:"market"`
	Allocatable float64 `json:"allocatable"`
	LotsOK      *int    `json:"lots_ok,omitempty"`
}

// ExpectedTolerance checks one row of a derivation grid. null entries
// expect a missing value.
type ExpectedTolerance struct {
	Table    string     `json:"table"`
	Variable string     `json:"variable"`
	Values   []*float64 `json:"values"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read fixture %s", path)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse fixture %s", path)
	}
	return &f, nil
}

// Discover returns the sorted *.json fixture paths in dir, or dir itself
// when it names a file.
func Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", dir)
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s", dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// ToTable converts a fixture table to a named input table.
func (ft *FixtureTable) ToTable(name string) *table.Table {
	if ft == nil {
		return nil
	}
	t := &table.Table{Name: name}
	for _, c := range ft.Columns {
		t.Columns = append(t.Columns, strings.TrimSpace(c))
	}
	for _, rec := range ft.Rows {
		row := make(table.Row, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(rec) {
				row[c] = cellText(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ToInputs converts the fixture tables to pipeline inputs.
func (f *Fixture) ToInputs() pipeline.Inputs {
	return pipeline.Inputs{
		Lots:       f.Lots.ToTable("lots"),
		Tolerances: f.Tolerances.ToTable("tolerances"),
		Decrements: f.Decrements.ToTable("decrements"),
		CrossRef:   f.CrossRef.ToTable("crossref"),
	}
}

// ToParams converts the fixture config to derivation parameters.
func (fc *FixtureConfig) ToParams() tolerance.Params {
	return tolerance.Params{K: fc.K, QMin: fc.QMin, QMax: fc.QMax}
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return values.FormatNumber(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// #endregion fixture-loader
