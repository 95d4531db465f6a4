// Package store archives pipeline runs in SQLite so that results can be
// listed and inspected after the process exits.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/carozos/lotalloc/internal/allocation"
	"github.com/carozos/lotalloc/internal/cluster"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/logging"
	"github.com/carozos/lotalloc/internal/pipeline"
	"github.com/carozos/lotalloc/internal/tolerance"
	"github.com/carozos/lotalloc/internal/values"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	species       TEXT NOT NULL,
	product_line  TEXT NOT NULL,
	k             INTEGER NOT NULL,
	qmin_json     TEXT NOT NULL,
	qmax_json     TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	evaluations   INTEGER NOT NULL,
	passing       INTEGER NOT NULL,
	markets       INTEGER NOT NULL,
	allocatable   REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS evaluations (
	run_id        TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	lote          TEXT NOT NULL,
	market        TEXT NOT NULL,
	pass          INTEGER NOT NULL,
	reasons       TEXT NOT NULL,
	kilos         REAL NOT NULL,
	allocatable   REAL NOT NULL,
	in_range_pct  REAL NOT NULL,
	PRIMARY KEY (run_id, seq),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS market_summary (
	run_id        TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	market        TEXT NOT NULL,
	lots_ok       INTEGER NOT NULL,
	allocatable   REAL NOT NULL,
	PRIMARY KEY (run_id, seq),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS lot_summary (
	run_id        TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	lote          TEXT NOT NULL,
	kilos         REAL NOT NULL,
	markets       INTEGER NOT NULL,
	allocatable   REAL NOT NULL,
	PRIMARY KEY (run_id, seq),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS cluster_assignment (
	run_id        TEXT NOT NULL,
	market        TEXT NOT NULL,
	allocatable   REAL NOT NULL,
	rank          INTEGER NOT NULL,
	cluster       INTEGER NOT NULL,
	PRIMARY KEY (run_id, market),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS tolerance_tables (
	run_id        TEXT NOT NULL,
	table_name    TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	variable      TEXT NOT NULL,
	cluster       INTEGER NOT NULL,
	value         REAL,
	market        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, table_name, seq, cluster),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`
// #endregion schema

// insertBatch bounds the rows per multi-row INSERT.
const insertBatch = 200

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// #region store-struct
// Store archives runs in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// Open opens a SQLite database and applies the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pragma")
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pragma fk")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion constructor

// #region save-run
// SaveRun archives a complete run in one transaction.
func (s *Store) SaveRun(run *pipeline.Run) error {
	if run == nil || run.Assignment == nil || run.Derivation == nil {
		return errors.Wrap(errors.ErrInvalidConfig, "save run: incomplete run")
	}
	rec := Summarize(run)
	qmin, qmax := run.Params.Schedules()
	qminJSON, err := json.Marshal(qmin)
	if err != nil {
		return errors.Wrap(err, "marshal qmin")
	}
	qmaxJSON, err := json.Marshal(qmax)
	if err != nil {
		return errors.Wrap(err, "marshal qmax")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	_, err = psql.Insert("runs").
		Columns("run_id", "species", "product_line", "k", "qmin_json", "qmax_json",
			"created_at", "evaluations", "passing", "markets", "allocatable").
		Values(rec.ID, rec.Species, rec.ProductLine, rec.K, string(qminJSON), string(qmaxJSON),
			rec.CreatedAt.Format(time.RFC3339Nano), rec.Evaluations, rec.Passing, rec.Markets, rec.Allocatable).
		RunWith(tx).Exec()
	if err != nil {
		return errors.Wrapf(err, "insert run %s", rec.ID)
	}

	evals := psql.Insert("evaluations").
		Columns("run_id", "seq", "lote", "market", "pass", "reasons", "kilos", "allocatable", "in_range_pct")
	err = batched(tx, evals, len(run.Assignment.Detail), func(b sq.InsertBuilder, i int) sq.InsertBuilder {
		r := run.Assignment.Detail[i]
		return b.Values(run.ID, i, r.Lot, r.Market, r.Pass, r.Reason(), r.Quantity, r.Allocatable, r.InRangePct)
	})
	if err != nil {
		return errors.Wrap(err, "insert evaluations")
	}

	markets := psql.Insert("market_summary").Columns("run_id", "seq", "market", "lots_ok", "allocatable")
	err = batched(tx, markets, len(run.Assignment.Markets), func(b sq.InsertBuilder, i int) sq.InsertBuilder {
		m := run.Assignment.Markets[i]
		return b.Values(run.ID, i, m.Market, m.LotsOK, m.Allocatable)
	})
	if err != nil {
		return errors.Wrap(err, "insert market summary")
	}

	lots := psql.Insert("lot_summary").Columns("run_id", "seq", "lote", "kilos", "markets", "allocatable")
	err = batched(tx, lots, len(run.Assignment.Lots), func(b sq.InsertBuilder, i int) sq.InsertBuilder {
		l := run.Assignment.Lots[i]
		return b.Values(run.ID, i, l.Lot, l.Quantity, l.Markets, l.Allocatable)
	})
	if err != nil {
		return errors.Wrap(err, "insert lot summary")
	}

	clusters := psql.Insert("cluster_assignment").Columns("run_id", "market", "allocatable", "rank", "cluster")
	err = batched(tx, clusters, len(run.Derivation.Assignments), func(b sq.InsertBuilder, i int) sq.InsertBuilder {
		a := run.Derivation.Assignments[i]
		return b.Values(run.ID, a.Market, a.Allocatable, a.Rank, a.Cluster)
	})
	if err != nil {
		return errors.Wrap(err, "insert cluster assignment")
	}

	cells := toleranceCells(run.Derivation.Result)
	tols := psql.Insert("tolerance_tables").
		Columns("run_id", "table_name", "seq", "variable", "cluster", "value", "market")
	err = batched(tx, tols, len(cells), func(b sq.InsertBuilder, i int) sq.InsertBuilder {
		c := cells[i]
		return b.Values(run.ID, c.table, c.seq, c.variable, c.cluster, nullable(c.value), c.market)
	})
	if err != nil {
		return errors.Wrap(err, "insert tolerance tables")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	logging.Logger.Debugw("run archived",
		logging.FieldRunID, run.ID,
		logging.FieldRows, len(run.Assignment.Detail))
	return nil
}

// Summarize builds the archive header of a run.
func Summarize(run *pipeline.Run) RunRecord {
	qmin, qmax := run.Params.Schedules()
	rec := RunRecord{
		ID:          run.ID,
		Species:     run.Species,
		ProductLine: run.ProductLine,
		K:           run.Params.K,
		QMin:        qmin,
		QMax:        qmax,
		CreatedAt:   run.CreatedAt,
	}
	if run.Assignment != nil {
		rec.Evaluations = len(run.Assignment.Detail)
		for _, r := range run.Assignment.Detail {
			if r.Pass {
				rec.Passing++
			}
		}
		rec.Markets = len(run.Assignment.Markets)
		for _, m := range run.Assignment.Markets {
			rec.Allocatable += m.Allocatable
		}
	}
	return rec
}

func batched(tx *sql.Tx, base sq.InsertBuilder, n int, row func(sq.InsertBuilder, int) sq.InsertBuilder) error {
	for lo := 0; lo < n; lo += insertBatch {
		b := base
		for i := lo; i < min(lo+insertBatch, n); i++ {
			b = row(b, i)
		}
		if _, err := b.RunWith(tx).Exec(); err != nil {
			return err
		}
	}
	return nil
}

type cell struct {
	table    string
	seq      int
	variable string
	cluster  int
	value    values.Opt
	market   string
}

func toleranceCells(r tolerance.Result) []cell {
	var out []cell
	grids := []struct {
		name string
		g    tolerance.Grid
	}{
		{tolerance.SheetCritical, r.Critical},
		{tolerance.SheetLax, r.Lax},
		{tolerance.SheetCriticalMono, r.CriticalMono},
		{tolerance.SheetLaxMono, r.LaxMono},
		{tolerance.SheetSuggested, r.Suggested},
		{tolerance.SheetSuggestedMono, r.SuggestedMono},
	}
	for _, g := range grids {
		for seq, row := range g.g {
			for i, v := range row.Values {
				out = append(out, cell{table: g.name, seq: seq, variable: row.Variable, cluster: i + 1, value: v})
			}
		}
	}
	for _, src := range []struct {
		name string
		s    []tolerance.Source
	}{
		{tolerance.SheetCriticalSources, r.CriticalSources},
		{tolerance.SheetLaxSources, r.LaxSources},
	} {
		for seq, s := range src.s {
			out = append(out, cell{table: src.name, seq: seq, variable: s.Variable, cluster: s.Cluster, value: s.Value, market: s.Market})
		}
	}
	return out
}

func nullable(v values.Opt) any {
	if !v.Ok {
		return nil
	}
	return v.V
}
// #endregion save-run

// #region queries
// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	q := runColumns().From("runs").OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list runs")
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetRun retrieves a run header by id.
func (s *Store) GetRun(id string) (RunRecord, error) {
	query, args, err := runColumns().From("runs").Where(sq.Eq{"run_id": id}).ToSql()
	if err != nil {
		return RunRecord{}, errors.Wrap(err, "build get run")
	}
	rec, err := scanRun(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, errors.Wrapf(errors.ErrNotFound, "run %s", id)
	}
	return rec, err
}

func runColumns() sq.SelectBuilder {
	return psql.Select("run_id", "species", "product_line", "k", "qmin_json", "qmax_json",
		"created_at", "evaluations", "passing", "markets", "allocatable")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		rec              RunRecord
		qminJSON, qmaxJS string
		created          string
	)
	err := row.Scan(&rec.ID, &rec.Species, &rec.ProductLine, &rec.K, &qminJSON, &qmaxJS,
		&created, &rec.Evaluations, &rec.Passing, &rec.Markets, &rec.Allocatable)
	if err != nil {
		return RunRecord{}, errors.Wrap(err, "scan run")
	}
	if err := json.Unmarshal([]byte(qminJSON), &rec.QMin); err != nil {
		return RunRecord{}, errors.Wrap(err, "unmarshal qmin")
	}
	if err := json.Unmarshal([]byte(qmaxJS), &rec.QMax); err != nil {
		return RunRecord{}, errors.Wrap(err, "unmarshal qmax")
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return rec, nil
}

// Evaluations returns the archived detail rows of a run, in evaluation
// order. When failedOnly is set only rows that failed a rule are returned.
func (s *Store) Evaluations(runID string, failedOnly bool) ([]EvaluationRecord, error) {
	where := sq.Eq{"run_id": runID}
	if failedOnly {
		where["pass"] = false
	}
	query, args, err := psql.
		Select("lote", "market", "pass", "reasons", "kilos", "allocatable", "in_range_pct").
		From("evaluations").Where(where).OrderBy("seq").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build evaluations")
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query evaluations")
	}
	defer rows.Close()

	var out []EvaluationRecord
	for rows.Next() {
		var r EvaluationRecord
		if err := rows.Scan(&r.Lot, &r.Market, &r.Pass, &r.Reasons, &r.Quantity, &r.Allocatable, &r.InRangePct); err != nil {
			return nil, errors.Wrap(err, "scan evaluation")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarketSummary returns the archived market summary of a run in its
// original order.
func (s *Store) MarketSummary(runID string) ([]allocation.MarketSummary, error) {
	query, args, err := psql.Select("market", "lots_ok", "allocatable").
		From("market_summary").Where(sq.Eq{"run_id": runID}).OrderBy("seq").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build market summary")
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query market summary")
	}
	defer rows.Close()

	var out []allocation.MarketSummary
	for rows.Next() {
		var m allocation.MarketSummary
		if err := rows.Scan(&m.Market, &m.LotsOK, &m.Allocatable); err != nil {
			return nil, errors.Wrap(err, "scan market summary")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Clusters returns the archived cluster assignment of a run by rank.
func (s *Store) Clusters(runID string) ([]cluster.Assignment, error) {
	query, args, err := psql.Select("market", "allocatable", "rank", "cluster").
		From("cluster_assignment").Where(sq.Eq{"run_id": runID}).OrderBy("rank").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build clusters")
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query clusters")
	}
	defer rows.Close()

	var out []cluster.Assignment
	for rows.Next() {
		var a cluster.Assignment
		if err := rows.Scan(&a.Market, &a.Allocatable, &a.Rank, &a.Cluster); err != nil {
			return nil, errors.Wrap(err, "scan cluster")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ToleranceTable rebuilds an archived grid table (for example
// tolerance.SheetCriticalMono) with k clusters per row.
func (s *Store) ToleranceTable(runID, name string, k int) (tolerance.Grid, error) {
	cells, err := s.cells(runID, name)
	if err != nil {
		return nil, err
	}
	var (
		grid tolerance.Grid
		last = -1
	)
	for _, c := range cells {
		if c.seq != last {
			grid = append(grid, tolerance.Row{Variable: c.variable, Values: make([]values.Opt, k)})
			last = c.seq
		}
		if c.cluster >= 1 && c.cluster <= k {
			grid[len(grid)-1].Values[c.cluster-1] = c.value
		}
	}
	return grid, nil
}

// Sources returns an archived source table (tolerance.SheetCriticalSources
// or tolerance.SheetLaxSources).
func (s *Store) Sources(runID, name string) ([]tolerance.Source, error) {
	cells, err := s.cells(runID, name)
	if err != nil {
		return nil, err
	}
	out := make([]tolerance.Source, len(cells))
	for i, c := range cells {
		out[i] = tolerance.Source{Variable: c.variable, Cluster: c.cluster, Market: c.market, Value: c.value}
	}
	return out, nil
}

func (s *Store) cells(runID, name string) ([]cell, error) {
	query, args, err := psql.Select("seq", "variable", "cluster", "value", "market").
		From("tolerance_tables").
		Where(sq.Eq{"run_id": runID, "table_name": name}).
		OrderBy("seq", "cluster").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build tolerance table")
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query tolerance table %s", name)
	}
	defer rows.Close()

	var out []cell
	for rows.Next() {
		var (
			c cell
			v sql.NullFloat64
		)
		if err := rows.Scan(&c.seq, &c.variable, &c.cluster, &v, &c.market); err != nil {
			return nil, errors.Wrap(err, "scan tolerance cell")
		}
		c.table = name
		if v.Valid {
			c.value = values.Some(v.Float64)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "table %s of run %s", name, runID)
	}
	return out, nil
}
// #endregion queries
