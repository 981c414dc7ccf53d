// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment environment the server runs in
type Environment int

const (
	EnvDevelopment Environment = iota
	EnvStaging
	EnvProduction
	EnvTest
)

func (e Environment) String() string {
	switch e {
	case EnvStaging:
		return "staging"
	case EnvProduction:
		return "prod"
	case EnvTest:
		return "test"
	default:
		return "dev"
	}
}

// ParseEnvironment accepts the short and long environment names
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", s)
}

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum JSON request body size in bytes
	MaxUploadSize     int64 // Maximum image / report upload size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	DatabaseURL            string
	DBMaxConns             int32
	DBMinConns             int32
	ReferenceLookupTimeout time.Duration
	ReferenceRefresh       string // gocron "HH:MM;HH:MM" daily times

	AIGatewayURL string
	AIAPIKey     string
	AIModel      string
	AITimeout    time.Duration
}

var refreshTimesRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(;([01]\d|2[0-3]):[0-5]\d)*$`)

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               env,
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxUploadSize:     getInt64EnvWithDefault("MAX_UPLOAD_SIZE", 10485760),    // 10MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DBMaxConns:             int32(getIntEnvWithDefault("DB_MAX_CONNS", 10)),
		DBMinConns:             int32(getIntEnvWithDefault("DB_MIN_CONNS", 2)),
		ReferenceLookupTimeout: getDurationEnvWithDefault("REFERENCE_LOOKUP_TIMEOUT", 3*time.Second),
		ReferenceRefresh:       getEnvWithDefault("REFERENCE_REFRESH", "06:00;18:00"),

		AIGatewayURL: getEnvWithDefault("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"),
		AIAPIKey:     os.Getenv("AI_API_KEY"),
		AIModel:      getEnvWithDefault("AI_MODEL", "google/gemini-2.5-flash"),
		AITimeout:    getDurationEnvWithDefault("AI_TIMEOUT", 60*time.Second),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DatabaseEnabled reports whether a reference / cabinet database is configured
func (c *Config) DatabaseEnabled() bool {
	return c.DatabaseURL != ""
}

// AssistantEnabled reports whether the AI gateway can be called
func (c *Config) AssistantEnabled() bool {
	return c.AIAPIKey != ""
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	// Validate PORT
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	// Validate ADDRESS
	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	// Validate LOG_LEVEL
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	// Validate MAX_REQUEST_BODY
	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	// Validate MAX_UPLOAD_SIZE
	if err := validateSizeLimit(cfg.MaxUploadSize, "MAX_UPLOAD_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
	}

	// Validate MAX_HEADER_SIZE
	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	// Validate LOG_RETENTION_WEEKS
	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	// Validate MAX_LOG_FILE_SIZE
	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateDatabase(cfg); err != nil {
		return fmt.Errorf("invalid database settings: %w", err)
	}

	if err := validateTimeout(cfg.ReferenceLookupTimeout, "REFERENCE_LOOKUP_TIMEOUT", time.Minute); err != nil {
		return fmt.Errorf("invalid REFERENCE_LOOKUP_TIMEOUT: %w", err)
	}

	if !refreshTimesRegex.MatchString(cfg.ReferenceRefresh) {
		return fmt.Errorf("invalid REFERENCE_REFRESH: must be HH:MM times separated by ';', got: %s", cfg.ReferenceRefresh)
	}

	if err := validateGatewayURL(cfg.AIGatewayURL); err != nil {
		return fmt.Errorf("invalid AI_GATEWAY_URL: %w", err)
	}

	if err := validateTimeout(cfg.AITimeout, "AI_TIMEOUT", 5*time.Minute); err != nil {
		return fmt.Errorf("invalid AI_TIMEOUT: %w", err)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	// Check for localhost/loopback addresses first
	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Containers bind on all interfaces behind the gateway
	if ip.IsUnspecified() {
		return nil
	}

	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 { // 1 year maximum
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateDatabase validates the DATABASE_URL and pool sizing variables
func validateDatabase(cfg *Config) error {
	if cfg.DatabaseURL != "" {
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
		}
		if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			return fmt.Errorf("DATABASE_URL must use the postgres scheme, got: %s", u.Scheme)
		}
	}

	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got: %d", cfg.DBMaxConns)
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got: %d", cfg.DBMinConns)
	}

	return nil
}

// validateTimeout validates a positive timeout with an upper bound
func validateTimeout(d time.Duration, configName string, max time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got: %s", configName, d)
	}

	if d > max {
		return fmt.Errorf("%s is too large (max %s), got: %s", configName, max, d)
	}

	return nil
}

// validateGatewayURL validates the AI_GATEWAY_URL environment variable
func validateGatewayURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("AI_GATEWAY_URL is not a valid URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("AI_GATEWAY_URL must be http or https, got: %s", raw)
	}

	if u.Host == "" {
		return fmt.Errorf("AI_GATEWAY_URL must include a host, got: %s", raw)
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault gets an environment variable as a Go duration ("3s", "1m")
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_UPLOAD_SIZE",
		"MAX_HEADER_SIZE",
		"DATABASE_URL",
		"DB_MAX_CONNS",
		"DB_MIN_CONNS",
		"REFERENCE_LOOKUP_TIMEOUT",
		"REFERENCE_REFRESH",
		"AI_GATEWAY_URL",
		"AI_API_KEY",
		"AI_MODEL",
		"AI_TIMEOUT",
	}
}
