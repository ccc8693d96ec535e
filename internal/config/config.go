package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBDriver       string
	DBPath         string
	DBDSN          string
	MigrationsPath string

	// JWT
	JWTSecret      string
	JWTExpiryHours int

	// CORS
	CORSAllowedOrigins []string

	// Rate Limiting
	RateLimitRequests int

	// Logging
	LogLevel string

	// Database
	DBQueryTimeout time.Duration

	// Sprint planning
	DefaultCapacity int

	// Burndown snapshot worker
	SnapshotInterval time.Duration
}

// fileConfig is the shape of the optional YAML config file. Any field set in
// the file overrides the corresponding environment value.
type fileConfig struct {
	Port               string   `yaml:"port"`
	Env                string   `yaml:"env"`
	DBDriver           string   `yaml:"db_driver"`
	DBPath             string   `yaml:"db_path"`
	DBDSN              string   `yaml:"db_dsn"`
	MigrationsPath     string   `yaml:"migrations_path"`
	JWTSecret          string   `yaml:"jwt_secret"`
	JWTExpiryHours     int      `yaml:"jwt_expiry_hours"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	LogLevel           string   `yaml:"log_level"`
	DefaultCapacity    int      `yaml:"default_capacity"`
}

// Load reads configuration from environment variables, then applies the
// optional YAML file named by CONFIG_FILE on top.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		DBDriver:           getEnv("DB_DRIVER", "sqlite"),
		DBPath:             getEnv("DB_PATH", "./data/sprintdeck.db"),
		DBDSN:              getEnv("DB_DSN", ""),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "./internal/db/migrations"),
		JWTSecret:          getEnv("JWT_SECRET", "change-this-to-a-secure-random-string-in-production"),
		JWTExpiryHours:     getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		RateLimitRequests:  getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DBQueryTimeout:     time.Duration(getEnvAsInt("DB_QUERY_TIMEOUT_SECONDS", 5)) * time.Second,
		DefaultCapacity:    getEnvAsInt("DEFAULT_CAPACITY", 40),
		SnapshotInterval:   time.Duration(getEnvAsInt("SNAPSHOT_INTERVAL_MINUTES", 60)) * time.Minute,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if cfg.Env == "production" && cfg.JWTSecret == "change-this-to-a-secure-random-string-in-production" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production environment")
	}

	if cfg.DefaultCapacity <= 0 {
		return nil, fmt.Errorf("default capacity must be a positive integer, got %d", cfg.DefaultCapacity)
	}

	return cfg, nil
}

// applyFile overlays values from a YAML file onto the config
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.Env != "" {
		c.Env = fc.Env
	}
	if fc.DBDriver != "" {
		c.DBDriver = fc.DBDriver
	}
	if fc.DBPath != "" {
		c.DBPath = fc.DBPath
	}
	if fc.DBDSN != "" {
		c.DBDSN = fc.DBDSN
	}
	if fc.MigrationsPath != "" {
		c.MigrationsPath = fc.MigrationsPath
	}
	if fc.JWTSecret != "" {
		c.JWTSecret = fc.JWTSecret
	}
	if fc.JWTExpiryHours > 0 {
		c.JWTExpiryHours = fc.JWTExpiryHours
	}
	if len(fc.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = fc.CORSAllowedOrigins
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.DefaultCapacity > 0 {
		c.DefaultCapacity = fc.DefaultCapacity
	}

	return nil
}

// JWTExpiry returns the JWT expiry duration
func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Silently use default - logger not available yet during config load
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated values
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, v := range splitCommaSeparated(valueStr) {
		if trimmed := trimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// splitCommaSeparated splits a string by commas
func splitCommaSeparated(s string) []string {
	var parts []string
	current := ""
	for _, ch := range s {
		if ch == ',' {
			parts = append(parts, current)
			current = ""
		} else {
			current += string(ch)
		}
	}
	if current != "" {
		parts = append(parts, current)
	}
	return parts
}

// trimSpace removes leading and trailing whitespace
func trimSpace(s string) string {
	start := 0
	end := len(s)

	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}

	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}

	return s[start:end]
}
