// Package config loads run settings from a YAML file with BONDMODEL_* environment
// overrides, e.g. BONDMODEL_DATA_SOURCE or BONDMODEL_CACHE_REDIS_URL.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/bondmodel/utils"
)

const EnvPrefix = "BONDMODEL"

// Data sources.
const (
	SourceXLSX     = "xlsx"
	SourcePostgres = "postgres"
	SourceGenerate = "generate"
)

// Config is the complete run configuration.
type Config struct {
	ValuationDate  string       `mapstructure:"valuation_date"   yaml:"valuation_date"`
	HorizonEndDate string       `mapstructure:"horizon_end_date" yaml:"horizon_end_date"`
	Data           DataConfig   `mapstructure:"data"             yaml:"data"`
	Model          ModelConfig  `mapstructure:"model"            yaml:"model"`
	Cache          CacheConfig  `mapstructure:"cache"            yaml:"cache"`
	Output         OutputConfig `mapstructure:"output"           yaml:"output"`

	valuation  time.Time
	horizonEnd time.Time
	ttl        time.Duration
}

// DataConfig selects where reference data comes from.
type DataConfig struct {
	Source     string `mapstructure:"source"      yaml:"source"` // "xlsx", "postgres" or "generate"
	Path       string `mapstructure:"path"        yaml:"path"`
	DSN        string `mapstructure:"dsn"         yaml:"dsn"`
	Driver     string `mapstructure:"driver"      yaml:"driver"` // "pgx" or "postgres"
	BondsTable string `mapstructure:"bonds_table" yaml:"bonds_table"`
	CurveTable string `mapstructure:"curve_table" yaml:"curve_table"`

	// Bonds and Seed drive the synthetic source.
	Bonds int    `mapstructure:"bonds" yaml:"bonds"`
	Seed  uint64 `mapstructure:"seed"  yaml:"seed"`
}

type ModelConfig struct {
	SemiannualTenorLabel string `mapstructure:"semiannual_tenor_label" yaml:"semiannual_tenor_label"`
	Workers              int    `mapstructure:"workers"                yaml:"workers"`
}

// CacheConfig enables the Redis result cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      string `mapstructure:"ttl"       yaml:"ttl"`
}

// OutputConfig holds optional output paths. Empty paths are skipped.
type OutputConfig struct {
	XLSX    string `mapstructure:"xlsx"    yaml:"xlsx"`
	PDF     string `mapstructure:"pdf"     yaml:"pdf"`
	Metrics string `mapstructure:"metrics" yaml:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("valuation_date", "2022-01-01")
	v.SetDefault("horizon_end_date", "2053-01-01")

	v.SetDefault("data.source", SourceXLSX)
	v.SetDefault("data.path", "bond_data.xlsx")
	v.SetDefault("data.dsn", "")
	v.SetDefault("data.driver", "pgx")
	v.SetDefault("data.bonds_table", "bond_data")
	v.SetDefault("data.curve_table", "zero_curve")
	v.SetDefault("data.bonds", 1000)
	v.SetDefault("data.seed", 1234)

	v.SetDefault("model.semiannual_tenor_label", "6Y")
	v.SetDefault("model.workers", 0)

	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("output.xlsx", "")
	v.SetDefault("output.pdf", "")
	v.SetDefault("output.metrics", "")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the YAML file at path, applies environment overrides and validates the
// result. An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config.Load: reading %s: %w", path, err)
		}
	}
	return decode(v)
}

// Read is Load for an in-memory YAML document.
func Read(r io.Reader) (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("config.Read: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no environment.
func Default() *Config {
	cfg := &Config{
		ValuationDate:  "2022-01-01",
		HorizonEndDate: "2053-01-01",
		Data: DataConfig{
			Source:     SourceXLSX,
			Path:       "bond_data.xlsx",
			Driver:     "pgx",
			BondsTable: "bond_data",
			CurveTable: "zero_curve",
			Bonds:      1000,
			Seed:       1234,
		},
		Model: ModelConfig{SemiannualTenorLabel: "6Y"},
		Cache: CacheConfig{TTL: "24h"},
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks the settings and parses dates and durations.
func (c *Config) Validate() error {
	var err error
	if c.valuation, err = utils.ParseDate(c.ValuationDate); err != nil {
		return fmt.Errorf("config: valuation_date: %w", err)
	}
	if c.horizonEnd, err = utils.ParseDate(c.HorizonEndDate); err != nil {
		return fmt.Errorf("config: horizon_end_date: %w", err)
	}
	if c.horizonEnd.Before(c.valuation) {
		return fmt.Errorf("config: horizon_end_date %s is before valuation_date %s", c.HorizonEndDate, c.ValuationDate)
	}

	switch c.Data.Source {
	case SourceXLSX:
		if c.Data.Path == "" {
			return fmt.Errorf("config: data.path is required for the xlsx source")
		}
	case SourcePostgres:
		if c.Data.DSN == "" {
			return fmt.Errorf("config: data.dsn is required for the postgres source")
		}
		if c.Data.Driver != "pgx" && c.Data.Driver != "postgres" {
			return fmt.Errorf("config: data.driver must be pgx or postgres, got %q", c.Data.Driver)
		}
	case SourceGenerate:
		if c.Data.Bonds <= 0 {
			return fmt.Errorf("config: data.bonds must be positive, got %d", c.Data.Bonds)
		}
	default:
		return fmt.Errorf("config: unknown data.source %q", c.Data.Source)
	}

	if c.Model.SemiannualTenorLabel == "" {
		return fmt.Errorf("config: model.semiannual_tenor_label is empty")
	}
	if c.Model.Workers < 0 {
		return fmt.Errorf("config: model.workers must not be negative, got %d", c.Model.Workers)
	}

	c.ttl = 0
	if c.Cache.TTL != "" {
		if c.ttl, err = time.ParseDuration(c.Cache.TTL); err != nil {
			return fmt.Errorf("config: cache.ttl: %w", err)
		}
		if c.ttl < 0 {
			return fmt.Errorf("config: cache.ttl must not be negative")
		}
	}
	return nil
}

// Valuation returns the parsed valuation date. Valid after Validate.
func (c *Config) Valuation() time.Time { return c.valuation }

// HorizonEnd returns the parsed horizon end date. Valid after Validate.
func (c *Config) HorizonEnd() time.Time { return c.horizonEnd }

// CacheTTL returns the parsed cache TTL. Valid after Validate.
func (c *Config) CacheTTL() time.Duration { return c.ttl }

// WriteYAML encodes c as a config file Load can read back.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config.WriteYAML: %w", err)
	}
	return enc.Close()
}
