package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all configuration
type Config struct {
	ServiceName string          `mapstructure:"service_name"`
	Log         LogConfig       `mapstructure:"log"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Data        DataConfig      `mapstructure:"data"`
	Optimizer   OptimizerConfig `mapstructure:"optimizer"`
	Currency    CurrencyConfig  `mapstructure:"currency"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig holds the persistence collaborator's connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DataConfig selects where scenario data is read from
type DataConfig struct {
	Source string `mapstructure:"source"` // csv, yaml or postgres
	Path   string `mapstructure:"path"`   // directory for csv, file for yaml
}

// OptimizerConfig holds defaults applied to optimization requests
type OptimizerConfig struct {
	MaxTimeSlots     int     `mapstructure:"max_time_slots"`
	TimeLimitSeconds float64 `mapstructure:"time_limit_seconds"`
	SolverType       string  `mapstructure:"solver_type"`
	DemandMode       string  `mapstructure:"demand_mode"`
	Workers          int     `mapstructure:"workers"`
	AmountScale      int64   `mapstructure:"amount_scale"`
	SlotLengthDays   int     `mapstructure:"slot_length_days"`
	FallbackMarkup   float64 `mapstructure:"fallback_markup"`
	MinPenalty       int64   `mapstructure:"min_penalty"`
	SlackFloor       int64   `mapstructure:"slack_floor"`
}

// CurrencyConfig holds static display rates into the base currency
type CurrencyConfig struct {
	Base  string             `mapstructure:"base"`
	Rates map[string]float64 `mapstructure:"rates"`
}

// MetricsConfig holds metrics output settings
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

// Load reads configuration from an optional .env file, an optional YAML file and
// PROCURE_ prefixed environment variables, in increasing precedence.
func Load(configFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PROCURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("procure")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "procure")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "development")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "procure")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("data.source", "csv")
	v.SetDefault("data.path", "./data")

	v.SetDefault("optimizer.max_time_slots", 12)
	v.SetDefault("optimizer.time_limit_seconds", 30.0)
	v.SetDefault("optimizer.solver_type", "CP")
	v.SetDefault("optimizer.demand_mode", "AT_MOST_ONE")
	v.SetDefault("optimizer.workers", 4)
	v.SetDefault("optimizer.amount_scale", 1000)
	v.SetDefault("optimizer.slot_length_days", 1)
	v.SetDefault("optimizer.fallback_markup", 1.15)
	v.SetDefault("optimizer.min_penalty", 1000)
	v.SetDefault("optimizer.slack_floor", 1000)

	v.SetDefault("currency.base", "EUR")

	v.SetDefault("metrics.textfile_path", "")
}

// Fields returns the configuration as zap fields, without secrets
func (c *Config) Fields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Log.Environment),
		zap.String("data_source", c.Data.Source),
		zap.String("data_path", c.Data.Path),
		zap.String("db_host", c.Database.Host),
		zap.String("db_name", c.Database.DBName),
		zap.String("solver_type", c.Optimizer.SolverType),
		zap.Int("max_time_slots", c.Optimizer.MaxTimeSlots),
		zap.Float64("time_limit_seconds", c.Optimizer.TimeLimitSeconds),
	}
}
