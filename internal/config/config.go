// Package config loads run configuration from TOML files and LOTALLOC_*
// environment variables.
package config

// #region config
// Config is the full configuration.
type Config struct {
	Data     DataConfig     `mapstructure:"data" toml:"data"`
	Clusters ClustersConfig `mapstructure:"clusters" toml:"clusters"`
	Engine   EngineConfig   `mapstructure:"engine" toml:"engine"`
	Store    StoreConfig    `mapstructure:"store" toml:"store"`
	Server   ServerConfig   `mapstructure:"server" toml:"server"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
}

// #endregion config

// #region data
// DataConfig locates input tables. Relative paths resolve against BaseDir.
type DataConfig struct {
	BaseDir    string    `mapstructure:"base_dir" toml:"base_dir"`
	Decrements string    `mapstructure:"decrements" toml:"decrements"`
	CrossRef   string    `mapstructure:"crossref" toml:"crossref"`
	Species    []Species `mapstructure:"species" toml:"species"`
}

// Species maps a species name to its lot and tolerance tables.
type Species struct {
	Name       string `mapstructure:"name" toml:"name"`
	Lots       string `mapstructure:"lots" toml:"lots"`
	Tolerances string `mapstructure:"tolerances" toml:"tolerances"`
}

// Lookup finds a species by exact name.
func (d DataConfig) Lookup(name string) (Species, bool) {
	for _, s := range d.Species {
		if s.Name == name {
			return s, true
		}
	}
	return Species{}, false
}

// Names lists species names in catalogue order.
func (d DataConfig) Names() []string {
	out := make([]string, len(d.Species))
	for i, s := range d.Species {
		out[i] = s.Name
	}
	return out
}

// #endregion data

// #region sections
// ClustersConfig sets the number of tiers and quantile schedules.
type ClustersConfig struct {
	K    int       `mapstructure:"k" toml:"k"`
	QMin []float64 `mapstructure:"qmin" toml:"qmin"`
	QMax []float64 `mapstructure:"qmax" toml:"qmax"`
}

// EngineConfig tunes evaluation.
type EngineConfig struct {
	Workers int `mapstructure:"workers" toml:"workers"`
}

// StoreConfig locates the run archive. An empty path disables archiving.
type StoreConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// ServerConfig configures the gRPC service.
type ServerConfig struct {
	Address string `mapstructure:"address" toml:"address"`
}

// LogConfig configures logging.
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json"`
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity"`
}

// #endregion sections
