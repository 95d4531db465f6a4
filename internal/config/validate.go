package config

import "github.com/carozos/lotalloc/internal/errors"

// Validate checks value ranges and catalogue consistency.
func (c *Config) Validate() error {
	if c.Clusters.K < 1 {
		return invalid(errors.Newf("clusters.k must be >= 1, got %d", c.Clusters.K))
	}
	for _, q := range append(append([]float64(nil), c.Clusters.QMin...), c.Clusters.QMax...) {
		if q < 0 || q > 1 {
			return invalid(errors.Newf("clusters quantiles must be within [0,1], got %v", q))
		}
	}
	if c.Engine.Workers < 0 {
		return invalid(errors.Newf("engine.workers must be >= 0, got %d", c.Engine.Workers))
	}
	if c.Log.Verbosity < 0 {
		return invalid(errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity))
	}

	seen := map[string]bool{}
	for i, s := range c.Data.Species {
		if s.Name == "" {
			return invalid(errors.Newf("data.species[%d].name cannot be empty", i))
		}
		if seen[s.Name] {
			return invalid(errors.Newf("data.species: duplicate species %q", s.Name))
		}
		seen[s.Name] = true
		if s.Lots == "" || s.Tolerances == "" {
			return invalid(errors.Newf("data.species %q needs both lots and tolerances paths", s.Name))
		}
	}
	return nil
}

func invalid(err error) error {
	return errors.Mark(err, errors.ErrInvalidConfig)
}
