package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Inventory  InventoryConfig
	Expiration ExpirationConfig
	Scheduler  SchedulerConfig
	Telemetry  TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver       string // sqlite, postgres
	Path         string // sqlite file path, ":memory:" for an in-process database
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds the event stream sink settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// InventoryConfig holds ledger and batch defaults
type InventoryConfig struct {
	OversellPolicy     string // block, allow_negative_alert
	LowStockThreshold  float64
	DefaultRotation    string // FIFO, LIFO, FEFO
	TrackBatchesOnSale bool
	CatalogFile        string
}

// ExpirationConfig holds expiration scanning settings
type ExpirationConfig struct {
	WarningWindowDays int
}

// SchedulerConfig holds background scan settings
type SchedulerConfig struct {
	Enabled            bool
	ReorderInterval    time.Duration
	ExpirationInterval time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled               bool
	CollectorEndpoint     string
	SamplingRatio         float64
	ServiceName           string
	Insecure              bool
	MetricsExportInterval time.Duration
	DBTraceEnabled        bool
	DBLogFullSQL          bool
	DBSlowQueryThresh     time.Duration
}

var (
	validPolicies  = []string{"block", "allow_negative_alert"}
	validRotations = []string{"FIFO", "LIFO", "FEFO"}
	validDrivers   = []string{"sqlite", "postgres"}
)

// Load reads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with KITCHEN_ prefix (e.g., KITCHEN_INVENTORY_OVERSELL_POLICY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	return load(v)
}

// LoadFile reads configuration from an explicit file path, still honoring
// environment overrides.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("KITCHEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// true-by-default flags
	v.SetDefault("inventory.track_batches_on_sale", true)
	v.SetDefault("scheduler.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Driver:       v.GetString("database.driver"),
			Path:         v.GetString("database.path"),
			Host:         v.GetString("database.host"),
			Port:         v.GetInt("database.port"),
			User:         v.GetString("database.user"),
			Password:     v.GetString("database.password"),
			DBName:       v.GetString("database.dbname"),
			SSLMode:      v.GetString("database.sslmode"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Stream:   v.GetString("redis.stream"),
			MaxLen:   v.GetInt64("redis.max_len"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Inventory: InventoryConfig{
			OversellPolicy:     v.GetString("inventory.oversell_policy"),
			LowStockThreshold:  v.GetFloat64("inventory.low_stock_threshold"),
			DefaultRotation:    v.GetString("inventory.default_rotation"),
			TrackBatchesOnSale: v.GetBool("inventory.track_batches_on_sale"),
			CatalogFile:        v.GetString("inventory.catalog_file"),
		},
		Expiration: ExpirationConfig{
			WarningWindowDays: v.GetInt("expiration.warning_window_days"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            v.GetBool("scheduler.enabled"),
			ReorderInterval:    v.GetDuration("scheduler.reorder_interval"),
			ExpirationInterval: v.GetDuration("scheduler.expiration_interval"),
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:           v.GetString("telemetry.service_name"),
			Insecure:              v.GetBool("telemetry.insecure"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
			DBTraceEnabled:        v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:          v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh:     v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	// zero is a valid window
	if !v.IsSet("expiration.warning_window_days") {
		cfg.Expiration.WarningWindowDays = 7
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "kitchenops"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	if cfg.Database.Path == "" {
		cfg.Database.Path = "kitchenops.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "kitchenops"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.Stream == "" {
		cfg.Redis.Stream = "kitchen:inventory:events"
	}
	if cfg.Redis.MaxLen == 0 {
		cfg.Redis.MaxLen = 10000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Inventory.OversellPolicy == "" {
		cfg.Inventory.OversellPolicy = "block"
	}
	cfg.Inventory.OversellPolicy = strings.ToLower(strings.TrimSpace(cfg.Inventory.OversellPolicy))
	if cfg.Inventory.LowStockThreshold == 0 {
		cfg.Inventory.LowStockThreshold = 5
	}
	if cfg.Inventory.DefaultRotation == "" {
		cfg.Inventory.DefaultRotation = "FIFO"
	}
	cfg.Inventory.DefaultRotation = strings.ToUpper(strings.TrimSpace(cfg.Inventory.DefaultRotation))
	if cfg.Scheduler.ReorderInterval == 0 {
		cfg.Scheduler.ReorderInterval = time.Minute
	}
	if cfg.Scheduler.ExpirationInterval == 0 {
		cfg.Scheduler.ExpirationInterval = time.Hour
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "kitchenops"
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 30 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if !slices.Contains(validDrivers, c.Database.Driver) {
		return fmt.Errorf("database.driver must be one of %v, got %q", validDrivers, c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if !slices.Contains(validPolicies, c.Inventory.OversellPolicy) {
		return fmt.Errorf("inventory.oversell_policy must be one of %v, got %q", validPolicies, c.Inventory.OversellPolicy)
	}
	if !slices.Contains(validRotations, c.Inventory.DefaultRotation) {
		return fmt.Errorf("inventory.default_rotation must be one of %v, got %q", validRotations, c.Inventory.DefaultRotation)
	}
	if c.Inventory.LowStockThreshold < 0 {
		return fmt.Errorf("inventory.low_stock_threshold cannot be negative")
	}
	if c.Expiration.WarningWindowDays < 0 {
		return fmt.Errorf("expiration.warning_window_days cannot be negative")
	}
	if c.Scheduler.ReorderInterval <= 0 || c.Scheduler.ExpirationInterval <= 0 {
		return fmt.Errorf("scheduler intervals must be positive")
	}
	if c.Redis.MaxLen < 0 {
		return fmt.Errorf("redis.max_len cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "sqlite" {
			return fmt.Errorf("database.driver cannot be sqlite in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the postgres connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
