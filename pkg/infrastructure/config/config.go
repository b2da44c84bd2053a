// Package config loads planner settings from an optional file and REPLENISH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. REPLENISH_SOLVER_EPSILON
const EnvPrefix = "REPLENISH"

// Config is the full planner configuration
type Config struct {
	Solver  SolverConfig  `mapstructure:"solver"`
	Log     LogConfig     `mapstructure:"log"`
	Output  OutputConfig  `mapstructure:"output"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SolverConfig tunes the column generation loop
type SolverConfig struct {
	MaxIterations int     `mapstructure:"max_iterations" validate:"min=1"`
	Epsilon       float64 `mapstructure:"epsilon"        validate:"gt=0"`
	Workers       int     `mapstructure:"workers"        validate:"min=1"`
	LPTolerance   float64 `mapstructure:"lp_tolerance"   validate:"gt=0"`
}

// LogConfig selects log level and an optional rotated file
type LogConfig struct {
	Level      string `mapstructure:"level"       validate:"oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"    validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	MaxAge     int    `mapstructure:"max_age"     validate:"min=0"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format string `mapstructure:"format" validate:"oneof=text json csv"`
	Dir    string `mapstructure:"dir"`
}

// MetricsConfig names the Prometheus text file written after a run
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Solver: SolverConfig{
			MaxIterations: 100,
			Epsilon:       1e-6,
			Workers:       runtime.GOMAXPROCS(0),
			LPTolerance:   1e-10,
		},
		Log: LogConfig{
			Level:   "info",
			MaxSize: 50,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Load reads path (YAML, TOML or JSON by extension) when non-empty, applies
// environment overrides on top of the defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
			}
			return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("solver.max_iterations", d.Solver.MaxIterations)
	v.SetDefault("solver.epsilon", d.Solver.Epsilon)
	v.SetDefault("solver.workers", d.Solver.Workers)
	v.SetDefault("solver.lp_tolerance", d.Solver.LPTolerance)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("metrics.file", d.Metrics.File)
}
