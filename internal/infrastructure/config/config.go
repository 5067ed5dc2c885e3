package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Finance   FinanceConfig
	Telemetry TelemetryConfig
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
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// FinanceConfig holds pricing and statistics defaults
type FinanceConfig struct {
	DefaultTaxRate decimal.Decimal
	Currency       string
	SequencePrefix string
	StatsCacheTTL  time.Duration
	StatsMonths    int
	TopLimit       int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings
}

// maxStatsCacheTTL bounds how stale dashboard figures may be
const maxStatsCacheTTL = 30 * time.Second

// defaults is applied to every viper instance before any value is read.
// Keys absent here are still resolved from the file or BTP_* variables.
var defaults = map[string]any{
	"app.name": "btp-backend",
	"app.env":  "development",
	"app.port": "8080",

	"database.driver":             "postgres",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.dbname":             "btp",
	"database.sslmode":            "disable",
	"database.sqlite_path":        "btp.db",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.host": "localhost",
	"redis.port": 6379,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":       "15s",
	"http.write_timeout":      "15s",
	"http.idle_timeout":       "60s",
	"http.max_header_bytes":   1 << 20,
	"http.max_body_size":      2 << 20,
	"http.cors_allow_methods": []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID"},

	"finance.default_tax_rate": "14.975",
	"finance.currency":         "CAD",
	"finance.sequence_prefix":  "FACT",
	"finance.stats_cache_ttl":  maxStatsCacheTTL.String(),
	"finance.stats_months":     12,
	"finance.top_limit":        5,

	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "btp-backend",
	"telemetry.metrics_interval":        "60s",
	"telemetry.db_slow_query_threshold": "200ms",
}

// Load reads config.toml (when present) and BTP_* environment variables
// on top of the built-in defaults. Environment wins over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, dir := range []string{".", "./config", "/app"} {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("BTP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	finance, err := readFinance(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database:  readDatabase(v),
		Redis:     readRedis(v),
		Log:       LogConfig{Level: v.GetString("log.level"), Format: v.GetString("log.format"), Output: v.GetString("log.output")},
		HTTP:      readHTTP(v),
		Finance:   finance,
		Telemetry: readTelemetry(v),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readDatabase(v *viper.Viper) DatabaseConfig {
	sub := func(k string) string { return "database." + k }
	return DatabaseConfig{
		Driver:          v.GetString(sub("driver")),
		Host:            v.GetString(sub("host")),
		Port:            v.GetInt(sub("port")),
		User:            v.GetString(sub("user")),
		Password:        v.GetString(sub("password")),
		DBName:          v.GetString(sub("dbname")),
		SSLMode:         v.GetString(sub("sslmode")),
		SQLitePath:      v.GetString(sub("sqlite_path")),
		MaxOpenConns:    v.GetInt(sub("max_open_conns")),
		MaxIdleConns:    v.GetInt(sub("max_idle_conns")),
		ConnMaxLifetime: v.GetInt(sub("conn_max_lifetime")),
		ConnMaxIdleTime: v.GetInt(sub("conn_max_idle_time")),
	}
}

func readRedis(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Enabled:  v.GetBool("redis.enabled"),
		Host:     v.GetString("redis.host"),
		Port:     v.GetInt("redis.port"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	}
}

// An empty origin list means no cross-origin requests are allowed.
func readHTTP(v *viper.Viper) HTTPConfig {
	return HTTPConfig{
		ReadTimeout:      v.GetDuration("http.read_timeout"),
		WriteTimeout:     v.GetDuration("http.write_timeout"),
		IdleTimeout:      v.GetDuration("http.idle_timeout"),
		MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
		MaxBodySize:      v.GetInt64("http.max_body_size"),
		CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
		CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
	}
}

// readFinance parses the tax rate from its string form so 14.975 never
// passes through float64.
func readFinance(v *viper.Viper) (FinanceConfig, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("finance.default_tax_rate")))
	if err != nil {
		return FinanceConfig{}, fmt.Errorf("finance.default_tax_rate: %w", err)
	}
	return FinanceConfig{
		DefaultTaxRate: rate,
		Currency:       v.GetString("finance.currency"),
		SequencePrefix: v.GetString("finance.sequence_prefix"),
		StatsCacheTTL:  v.GetDuration("finance.stats_cache_ttl"),
		StatsMonths:    v.GetInt("finance.stats_months"),
		TopLimit:       v.GetInt("finance.top_limit"),
	}, nil
}

func readTelemetry(v *viper.Viper) TelemetryConfig {
	return TelemetryConfig{
		Enabled:           v.GetBool("telemetry.enabled"),
		CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
		SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
		ServiceName:       v.GetString("telemetry.service_name"),
		Insecure:          v.GetBool("telemetry.insecure"),
		MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
		DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
		DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
	}
}

func (c *Config) validate() error {
	checks := []func() error{
		c.Database.validate,
		c.Finance.validate,
		c.Telemetry.validate,
	}
	if c.App.Env == "production" {
		checks = append(checks, c.validateProduction)
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	if d.Driver != "postgres" && d.Driver != "sqlite" {
		return fmt.Errorf("database.driver: want postgres or sqlite, got %q", d.Driver)
	}
	switch {
	case d.MaxOpenConns <= 0:
		return errors.New("database.max_open_conns must be positive")
	case d.MaxIdleConns < 0:
		return errors.New("database.max_idle_conns cannot be negative")
	case d.MaxIdleConns > d.MaxOpenConns:
		return fmt.Errorf("database.max_idle_conns=%d cannot exceed database.max_open_conns=%d", d.MaxIdleConns, d.MaxOpenConns)
	}
	return nil
}

func (f *FinanceConfig) validate() error {
	switch {
	case f.DefaultTaxRate.IsNegative():
		return errors.New("finance.default_tax_rate cannot be negative")
	case f.StatsCacheTTL < 0 || f.StatsCacheTTL > maxStatsCacheTTL:
		return fmt.Errorf("finance.stats_cache_ttl %s is outside [0, %s]", f.StatsCacheTTL, maxStatsCacheTTL)
	case f.StatsMonths < 0, f.TopLimit < 0:
		return errors.New("finance.stats_months and finance.top_limit cannot be negative")
	}
	return nil
}

func (t *TelemetryConfig) validate() error {
	if t.SamplingRatio < 0 || t.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio %.2f is outside [0, 1]", t.SamplingRatio)
	}
	return nil
}

// validateProduction rejects settings that are only acceptable locally.
func (c *Config) validateProduction() error {
	switch {
	case c.Database.Driver == "sqlite":
		return errors.New("database.driver sqlite is not allowed in production")
	case c.Database.Password == "":
		return errors.New("database.password is required in production")
	case c.Database.SSLMode == "disable":
		return errors.New("database.sslmode=disable is not allowed in production")
	case c.Telemetry.DBLogFullSQL:
		return errors.New("telemetry.db_log_full_sql must be off in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return errors.New("http.cors_allow_origins cannot contain * in production")
		}
	}
	return nil
}

// DSN builds a postgres URL, escaping credentials.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
