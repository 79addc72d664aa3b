package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/voltdrop-cli/internal/calc"
	"github.com/sells-group/voltdrop-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Standards StandardsConfig `yaml:"standards" mapstructure:"standards"`
	Recalc    RecalcConfig    `yaml:"recalc" mapstructure:"recalc"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// StandardsConfig overrides the voltage-drop thresholds, in percent.
// The defaults follow the Philippine Electrical Code figures.
type StandardsConfig struct {
	BranchPct        float64 `yaml:"branch_pct" mapstructure:"branch_pct"`
	FeederPct        float64 `yaml:"feeder_pct" mapstructure:"feeder_pct"`
	ServicePct       float64 `yaml:"service_pct" mapstructure:"service_pct"`
	MotorRunningPct  float64 `yaml:"motor_running_pct" mapstructure:"motor_running_pct"`
	MotorStartingPct float64 `yaml:"motor_starting_pct" mapstructure:"motor_starting_pct"`
}

// Limits converts the configured thresholds into calculation limits.
func (s StandardsConfig) Limits() calc.Limits {
	return calc.Limits{
		BranchPct:        s.BranchPct,
		FeederPct:        s.FeederPct,
		ServicePct:       s.ServicePct,
		MotorRunningPct:  s.MotorRunningPct,
		MotorStartingPct: s.MotorStartingPct,
	}
}

// RecalcConfig configures the reactive recalculation engine.
type RecalcConfig struct {
	DebounceMs int  `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency   int     `yaml:"concurrency" mapstructure:"concurrency"`
	JobsPerSecond float64 `yaml:"jobs_per_second" mapstructure:"jobs_per_second"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VOLTDROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "voltdrop.db")
	v.SetDefault("standards.branch_pct", 3.0)
	v.SetDefault("standards.feeder_pct", 2.0)
	v.SetDefault("standards.service_pct", 5.0)
	v.SetDefault("standards.motor_running_pct", 3.0)
	v.SetDefault("standards.motor_starting_pct", 15.0)
	v.SetDefault("recalc.debounce_ms", 300)
	v.SetDefault("recalc.enabled", true)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.jobs_per_second", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
