package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Detector  DetectorConfig  `mapstructure:"detector"`
	Profiles  ProfilesConfig  `mapstructure:"profiles"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	NATS      NATSConfig      `mapstructure:"nats"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	// AdminToken guards profile reloads. Empty leaves them open.
	AdminToken string `mapstructure:"admin_token"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// DetectorConfig holds the defaults applied to every detection request.
type DetectorConfig struct {
	Alpha         float64            `mapstructure:"alpha"`
	MaxTextLength int                `mapstructure:"max_text_length"`
	Seed          *int64             `mapstructure:"seed"`
	Priors        map[string]float64 `mapstructure:"priors"`
	Verbose       bool               `mapstructure:"verbose"`
	BatchWorkers  int                `mapstructure:"batch_workers"`
	MaxBatchSize  int                `mapstructure:"max_batch_size"`
}

// ProfilesConfig selects where language profiles are loaded from.
type ProfilesConfig struct {
	Source string `mapstructure:"source"` // "dir" or "postgres"
	Dir    string `mapstructure:"dir"`
	// ReloadInterval reloads the profile set periodically. Zero disables it.
	ReloadInterval time.Duration `mapstructure:"reload_interval"`
}

const (
	ProfileSourceDir      = "dir"
	ProfileSourcePostgres = "postgres"
)

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Schema          string        `mapstructure:"schema"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.Schema,
	)
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TLS       bool   `mapstructure:"tls"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig configures the detection result cache.
type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // "redis", "lru" or "none"
	TTL     time.Duration `mapstructure:"ttl"`
	Size    int           `mapstructure:"size"`
}

type NATSConfig struct {
	Enabled    bool               `mapstructure:"enabled"`
	URL        string             `mapstructure:"url"`
	StreamName string             `mapstructure:"stream_name"`
	Subjects   NATSSubjectsConfig `mapstructure:"subjects"`
}

type NATSSubjectsConfig struct {
	Detection      string `mapstructure:"detection"`
	ProfilesLoaded string `mapstructure:"profiles_loaded"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "langpredict")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)

	v.SetDefault("detector.alpha", 0.5)
	v.SetDefault("detector.max_text_length", 10000)
	v.SetDefault("detector.batch_workers", 8)
	v.SetDefault("detector.max_batch_size", 100)

	v.SetDefault("profiles.source", ProfileSourceDir)
	v.SetDefault("profiles.dir", "profiles")
	v.SetDefault("profiles.reload_interval", 0)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "langpredict")
	v.SetDefault("database.dbname", "langpredict")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "langpredict:")

	v.SetDefault("cache.backend", "lru")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.size", 10000)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream_name", "LANGPREDICT")
	v.SetDefault("nats.subjects.detection", "langpredict.detection")
	v.SetDefault("nats.subjects.profiles_loaded", "langpredict.profiles.loaded")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.requests_per_minute", 600)
	v.SetDefault("ratelimit.requests_per_hour", 20000)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads configuration from file and environment variables. Without an
// explicit path a missing config file is not an error and defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/langpredict")
	}

	// Environment variables
	v.SetEnvPrefix("LANGPREDICT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("redis.host", "LANGPREDICT_REDIS_HOST")
	v.BindEnv("redis.port", "LANGPREDICT_REDIS_PORT")
	v.BindEnv("redis.password", "LANGPREDICT_REDIS_PASSWORD")
	v.BindEnv("database.host", "LANGPREDICT_DATABASE_HOST")
	v.BindEnv("database.port", "LANGPREDICT_DATABASE_PORT")
	v.BindEnv("database.user", "LANGPREDICT_DATABASE_USER")
	v.BindEnv("database.password", "LANGPREDICT_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "LANGPREDICT_DATABASE_DBNAME")
	v.BindEnv("profiles.dir", "LANGPREDICT_PROFILES_DIR")
	v.BindEnv("profiles.source", "LANGPREDICT_PROFILES_SOURCE")
	v.BindEnv("detector.seed", "LANGPREDICT_DETECTOR_SEED")
	v.BindEnv("nats.enabled", "LANGPREDICT_NATS_ENABLED")
	v.BindEnv("app.environment", "LANGPREDICT_APP_ENVIRONMENT")
	v.BindEnv("server.admin_token", "LANGPREDICT_SERVER_ADMIN_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	switch c.Profiles.Source {
	case ProfileSourceDir, ProfileSourcePostgres:
	default:
		return fmt.Errorf("unknown profiles.source %q", c.Profiles.Source)
	}
	if c.Profiles.Source == ProfileSourcePostgres && !c.Database.Enabled {
		return errors.New("profiles.source is postgres but database is disabled")
	}
	switch c.Cache.Backend {
	case "redis":
		if !c.Redis.Enabled {
			return errors.New("cache.backend is redis but redis is disabled")
		}
	case "lru", "none", "":
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.RateLimit.Enabled && !c.Redis.Enabled {
		return errors.New("ratelimit requires redis")
	}
	if c.Profiles.ReloadInterval < 0 {
		return fmt.Errorf("profiles.reload_interval must not be negative, got %s", c.Profiles.ReloadInterval)
	}
	if c.Detector.Alpha < 0 {
		return fmt.Errorf("detector.alpha must not be negative, got %g", c.Detector.Alpha)
	}
	if c.Detector.MaxTextLength <= 0 {
		return fmt.Errorf("detector.max_text_length must be positive, got %d", c.Detector.MaxTextLength)
	}
	return nil
}

// IsProduction reports whether the app runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
