package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Logger   LoggerConfig   `yaml:"logger"`
	Security SecurityConfig `yaml:"security"`
	Cache    CacheConfig    `yaml:"cache"`
	Display  DisplayConfig  `yaml:"display"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DataConfig struct {
	// Source is a local path, file:// URI or s3://bucket/key.
	Source      string        `yaml:"source"`
	LoadTimeout time.Duration `yaml:"load_timeout"`
	AWSRegion   string        `yaml:"aws_region"`
	// RFMExcludeCanceled drops canceled orders from the region RFM table,
	// which otherwise counts them.
	RFMExcludeCanceled bool `yaml:"rfm_exclude_canceled"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `yaml:"enable_rate_limit"`
	RateLimitRPS    int      `yaml:"rate_limit_rps"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	TrustedProxies  []string `yaml:"trusted_proxies"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend"`
	Size          int           `yaml:"size"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

type DisplayConfig struct {
	Currency string `yaml:"currency"`
	Locale   string `yaml:"locale"`
}

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Data: DataConfig{
			Source:      "all_data.csv",
			LoadTimeout: 60 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
		Cache: CacheConfig{
			Backend:   CacheMemory,
			Size:      64,
			TTL:       time.Hour,
			RedisAddr: "localhost:6379",
		},
		Display: DisplayConfig{
			Currency: "R$",
			Locale:   "es-CO",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by CONFIG_FILE and the environment, in that order. A .env file in the
// working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnvString("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Data.Source = getEnvString("CSV_FILE", c.Data.Source)
	c.Data.Source = getEnvString("DATA_SOURCE", c.Data.Source)
	c.Data.LoadTimeout = getEnvDuration("DATA_LOAD_TIMEOUT", c.Data.LoadTimeout)
	c.Data.AWSRegion = getEnvString("AWS_REGION", c.Data.AWSRegion)
	c.Data.RFMExcludeCanceled = getEnvBool("RFM_EXCLUDE_CANCELED", c.Data.RFMExcludeCanceled)

	c.Logger.Level = getEnvString("LOG_LEVEL", c.Logger.Level)
	c.Logger.Format = getEnvString("LOG_FORMAT", c.Logger.Format)

	c.Security.EnableRateLimit = getEnvBool("SECURITY_RATE_LIMIT_ENABLED", c.Security.EnableRateLimit)
	c.Security.RateLimitRPS = getEnvInt("SECURITY_RATE_LIMIT_RPS", c.Security.RateLimitRPS)
	c.Security.RateLimitBurst = getEnvInt("SECURITY_RATE_LIMIT_BURST", c.Security.RateLimitBurst)
	c.Security.AllowedOrigins = getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", c.Security.AllowedOrigins)
	c.Security.TrustedProxies = getEnvStringSlice("SECURITY_TRUSTED_PROXIES", c.Security.TrustedProxies)

	c.Cache.Backend = strings.ToLower(getEnvString("CACHE_BACKEND", c.Cache.Backend))
	c.Cache.Size = getEnvInt("CACHE_SIZE", c.Cache.Size)
	c.Cache.TTL = getEnvDuration("CACHE_TTL", c.Cache.TTL)
	c.Cache.RedisAddr = getEnvString("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnvString("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB = getEnvInt("REDIS_DB", c.Cache.RedisDB)

	c.Display.Currency = getEnvString("DISPLAY_CURRENCY", c.Display.Currency)
	c.Display.Locale = getEnvString("DISPLAY_LOCALE", c.Display.Locale)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if strings.TrimSpace(c.Data.Source) == "" {
		return fmt.Errorf("data source cannot be empty")
	}

	if c.Data.LoadTimeout <= 0 {
		return fmt.Errorf("data load timeout must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	validBackends := []string{CacheMemory, CacheRedis, CacheNone}
	if !slices.Contains(validBackends, c.Cache.Backend) {
		return fmt.Errorf("invalid cache backend %q, must be one of: %s", c.Cache.Backend, strings.Join(validBackends, ", "))
	}

	if c.Cache.Backend == CacheMemory && c.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive")
	}

	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("redis address is required for the redis cache")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LogValue omits credentials.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("address", c.Address()),
		slog.String("data_source", c.Data.Source),
		slog.Bool("rfm_exclude_canceled", c.Data.RFMExcludeCanceled),
		slog.String("log_level", c.Logger.Level),
		slog.Bool("rate_limit", c.Security.EnableRateLimit),
		slog.String("cache_backend", c.Cache.Backend),
		slog.Duration("cache_ttl", c.Cache.TTL),
		slog.String("locale", c.Display.Locale),
	)
}
