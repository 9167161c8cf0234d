package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/collidium/collidium-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     store.Config    `yaml:"store" mapstructure:"store"`
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Collision CollisionConfig `yaml:"collision" mapstructure:"collision"`
	Building  BuildingConfig  `yaml:"building" mapstructure:"building"`
	Join      JoinConfig      `yaml:"join" mapstructure:"join"`
	Query     QueryConfig     `yaml:"query" mapstructure:"query"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the raw source extracts on disk.
type DataConfig struct {
	Dir           string `yaml:"dir" mapstructure:"dir"`
	CollisionsCSV string `yaml:"collisions_csv" mapstructure:"collisions_csv"`
	PermitsCSV    string `yaml:"permits_csv" mapstructure:"permits_csv"`
}

// FetchConfig configures the open-data portal downloads.
type FetchConfig struct {
	CollisionsURL  string  `yaml:"collisions_url" mapstructure:"collisions_url"`
	PermitsURL     string  `yaml:"permits_url" mapstructure:"permits_url"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries        int     `yaml:"retries" mapstructure:"retries"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// CollisionConfig configures collision normalization.
type CollisionConfig struct {
	MinDate string `yaml:"min_date" mapstructure:"min_date"`
}

// BuildingConfig configures building-permit normalization.
type BuildingConfig struct {
	MinValue    float64 `yaml:"min_value" mapstructure:"min_value"`
	FinalBefore string  `yaml:"final_before" mapstructure:"final_before"`
}

// JoinConfig configures the proximity join.
type JoinConfig struct {
	RadiusFt   float64 `yaml:"radius_ft" mapstructure:"radius_ft"`
	WindowDays int     `yaml:"window_days" mapstructure:"window_days"`
	Workers    int     `yaml:"workers" mapstructure:"workers"`
}

// QueryConfig configures the aggregation query builder.
type QueryConfig struct {
	ValidYears []int `yaml:"valid_years" mapstructure:"valid_years"`
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
	v.SetEnvPrefix("COLLIDIUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "collidium.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.collisions_csv", "collisions.csv")
	v.SetDefault("data.permits_csv", "building_permits.csv")
	v.SetDefault("fetch.collisions_url", "https://data.seattle.gov/api/views/v7k9-7dn4/rows.csv?accessType=DOWNLOAD")
	v.SetDefault("fetch.permits_url", "https://data.seattle.gov/api/views/76t5-zqzr/rows.csv?accessType=DOWNLOAD")
	v.SetDefault("fetch.timeout_secs", 300)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.requests_per_sec", 1.0)
	v.SetDefault("collision.min_date", "2013-01-01")
	v.SetDefault("building.min_value", 1_000_000)
	v.SetDefault("building.final_before", "2017-04-01")
	v.SetDefault("join.radius_ft", 1500)
	v.SetDefault("join.window_days", 365)
	v.SetDefault("join.workers", 0)
	v.SetDefault("query.valid_years", []int{2014, 2015, 2016, 2017})

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
