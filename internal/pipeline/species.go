package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carozos/lotalloc/internal/config"
	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/logging"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/tolerance"
)

// #region load
// LoadInputs reads the tables of a catalogued species and, when line is
// not empty, keeps only lot and tolerance rows of that product line.
func LoadInputs(data config.DataConfig, species, line string) (Inputs, error) {
	sp, ok := data.Lookup(species)
	if !ok {
		return Inputs{}, errors.WithDetailf(
			errors.Wrapf(errors.ErrNotFound, "species %q", species),
			"available: %v", data.Names())
	}

	var in Inputs
	var err error
	if in.Lots, err = table.LoadFile(data.Resolve(sp.Lots)); err != nil {
		return Inputs{}, err
	}
	if in.Tolerances, err = table.LoadFile(data.Resolve(sp.Tolerances)); err != nil {
		return Inputs{}, err
	}
	if in.Decrements, err = table.LoadFile(data.Resolve(data.Decrements)); err != nil {
		return Inputs{}, err
	}
	if in.CrossRef, err = table.LoadFile(data.Resolve(data.CrossRef)); err != nil {
		return Inputs{}, err
	}

	if line != "" {
		if in.Lots.Has(eligibility.ColProductLine) {
			in.Lots = in.Lots.Filter(eligibility.ColProductLine, line)
		}
		if in.Tolerances.Has(eligibility.ColProductLine) {
			in.Tolerances = in.Tolerances.Filter(eligibility.ColProductLine, line)
		}
	}
	return in, nil
}

// ProductLines lists the sorted distinct product lines in a species' lot
// table.
func ProductLines(data config.DataConfig, species string) ([]string, error) {
	sp, ok := data.Lookup(species)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "species %q", species)
	}
	lots, err := table.LoadFile(data.Resolve(sp.Lots))
	if err != nil {
		return nil, err
	}
	if err := lots.Require(eligibility.ColProductLine); err != nil {
		return nil, err
	}
	return lots.Distinct(eligibility.ColProductLine), nil
}

// #endregion load

// #region execute
// Execute runs evaluation then derivation over in and stamps the result
// with a new run id.
func Execute(ctx context.Context, in Inputs, params tolerance.Params, cfg eligibility.Config) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}
	run.Params.K = max(1, run.Params.K)

	var err error
	if run.Assignment, err = EvaluateAssignment(ctx, in, cfg); err != nil {
		return nil, errors.Wrap(err, "evaluate assignment")
	}
	if run.Derivation, err = DeriveClusters(run.Assignment.Markets, in.Tolerances, in.CrossRef, run.Params); err != nil {
		return nil, errors.Wrap(err, "derive clusters")
	}
	return run, nil
}

// RunSpecies loads a catalogued species and executes a full run with the
// configured cluster and engine settings.
func RunSpecies(ctx context.Context, cfg *config.Config, species, line string) (*Run, error) {
	in, err := LoadInputs(cfg.Data, species, line)
	if err != nil {
		return nil, err
	}
	run, err := Execute(ctx, in, ParamsFrom(cfg), eligibility.Config{Workers: cfg.Engine.Workers})
	if err != nil {
		return nil, err
	}
	run.Species = species
	run.ProductLine = line

	logging.Logger.Infow("run complete",
		logging.FieldRunID, run.ID,
		logging.FieldSpecies, species,
		logging.FieldProductLine, line)
	return run, nil
}

// ParamsFrom converts the cluster configuration section.
func ParamsFrom(cfg *config.Config) tolerance.Params {
	return tolerance.Params{K: cfg.Clusters.K, QMin: cfg.Clusters.QMin, QMax: cfg.Clusters.QMax}
}

// #endregion execute
