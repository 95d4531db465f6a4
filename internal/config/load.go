package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/carozos/lotalloc/internal/errors"
)

// EnvPrefix prefixes environment overrides, e.g. LOTALLOC_CLUSTERS_K.
const EnvPrefix = "LOTALLOC"

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "lotalloc.toml"

// #region load
// Load reads configuration from path, or from DefaultFile when path is
// empty and the file exists. Environment variables override file values.
// The result is validated.
func Load(path string) (*Config, error) {
	v := newViper()
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}
	return unmarshal(v)
}

// LoadFromReader reads TOML configuration from r with defaults applied.
func LoadFromReader(r io.Reader) (*Config, error) {
	v := newViper()
	v.SetConfigType("toml")
	if err := v.ReadConfig(r); err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return unmarshal(v)
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return &c
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// #endregion load

// #region paths
// Resolve joins a data path with BaseDir unless it is absolute.
func (d DataConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.BaseDir, p)
}

// #endregion paths

// #region show
// TOML renders the effective configuration.
func (c *Config) TOML() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", errors.Wrap(err, "encode config")
	}
	return buf.String(), nil
}

// #endregion show
