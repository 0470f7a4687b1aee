package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Sourcing    SourcingConfig    `mapstructure:"sourcing"`
	LP          LPConfig          `mapstructure:"lp"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
}

// SourcingConfig holds candidate-selection and built-in-optimizer options,
// mirroring internal/sourcing.Config's field set so Load can populate one
// from the other without the sourcing package depending on viper.
type SourcingConfig struct {
	Mode          string  `mapstructure:"mode"`
	ShopFixCost   float64 `mapstructure:"shop_fix_cost"`
	MaxShops      int     `mapstructure:"max_shops"`
	ConsiderShops int     `mapstructure:"consider_shops"`
	Jobs          int     `mapstructure:"jobs"`
}

// LPConfig holds the glpsol-backed solver options, mirroring
// internal/lp.Config's field set.
type LPConfig struct {
	RerunSolver      bool   `mapstructure:"rerun_solver"`
	GLPKLimitSeconds int    `mapstructure:"glpk_limit_seconds"`
	CacheDir         string `mapstructure:"cachedir"`
	SolverBinary     string `mapstructure:"solver_binary"`
}

// MarketplaceConfig holds the offer-source adapter's own options: which
// marketplace to query by default and how long a fetched offer list stays
// fresh in internal/offersource.Cache before it is re-scraped.
type MarketplaceConfig struct {
	DefaultSlug string        `mapstructure:"default_slug"`
	NumShops    int           `mapstructure:"num_shops"`
	CacheDir    string        `mapstructure:"cache_dir"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int    `mapstructure:"requests_per_second"`
	MaxRetries        int    `mapstructure:"max_retries"`
	InitialBackoffMs  int    `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int    `mapstructure:"max_backoff_ms"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type    string `mapstructure:"type"`
	BasePath string `mapstructure:"base_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	NoColor bool  `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Load .env file (parsed by loadEnvFile)
	if err := loadEnvFile(v); err != nil {
		// .env is optional, log but don't fail
		log.Warn().Err(err).Msg("Warning: .env file not loaded")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvPrefix("PRICE_SERVICE")

	// Bind env keys for nested config
	bindEnvVars(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads .env file by parsing KEY=VALUE lines and setting them as environment variables
func loadEnvFile(v *viper.Viper) error {
	// Try to load .env file from various locations
	envPaths := []string{
		".",
		"../../..", // From services/price-service to workspace root
		"./config",
	}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			// Parse .env file and set environment variables
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			// Remove quotes if present
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")

	// Storage
	v.BindEnv("storage.base_path", "STORAGE_PATH")

	// Sourcing
	v.BindEnv("sourcing.mode", "SOURCING_MODE")
	v.BindEnv("sourcing.shop_fix_cost", "SHOP_FIX_COST")
	v.BindEnv("sourcing.max_shops", "MAX_SHOPS")
	v.BindEnv("sourcing.consider_shops", "CONSIDER_SHOPS")
	v.BindEnv("sourcing.jobs", "JOBS")

	// LP
	v.BindEnv("lp.rerun_solver", "RERUN_SOLVER")
	v.BindEnv("lp.glpk_limit_seconds", "GLPK_LIMIT_SECONDS")
	v.BindEnv("lp.cachedir", "LP_CACHE_DIR")
	v.BindEnv("lp.solver_binary", "GLPK_SOLVER_BINARY")

	// Marketplace
	v.BindEnv("marketplace.default_slug", "MARKETPLACE_SLUG")
	v.BindEnv("marketplace.cache_dir", "OFFER_CACHE_DIR")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_second", 2)
	v.SetDefault("rate_limit.max_retries", 3)
	v.SetDefault("rate_limit.initial_backoff_ms", 100)
	v.SetDefault("rate_limit.max_backoff_ms", 30000)

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_path", "./data/archives")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	// Sourcing defaults (internal/sourcing.Defaults)
	v.SetDefault("sourcing.mode", "builtin")
	v.SetDefault("sourcing.shop_fix_cost", 5.0)
	v.SetDefault("sourcing.max_shops", 10)
	v.SetDefault("sourcing.consider_shops", 20)
	v.SetDefault("sourcing.jobs", 4)

	// LP defaults (internal/lp.Defaults)
	v.SetDefault("lp.rerun_solver", false)
	v.SetDefault("lp.glpk_limit_seconds", 30)
	v.SetDefault("lp.cachedir", "./lp-cache")
	v.SetDefault("lp.solver_binary", "glpsol")

	// Marketplace defaults
	v.SetDefault("marketplace.default_slug", "bricklink")
	v.SetDefault("marketplace.num_shops", 20)
	v.SetDefault("marketplace.cache_dir", "./offer-cache")
	v.SetDefault("marketplace.cache_ttl", 6*time.Hour)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
