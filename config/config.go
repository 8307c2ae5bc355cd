// Package config loads the recommendation service's configuration from
// environment variables, plus the generic EnvConfig/Validator
// helpers that loading builds on.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvConfig provides utilities for loading configuration from environment variables
type EnvConfig struct {
	prefix string // Optional prefix for all environment variables
}

// NewEnvConfig creates a new environment configuration loader
func NewEnvConfig(prefix string) *EnvConfig {
	return &EnvConfig{
		prefix: prefix,
	}
}

// GetString retrieves a string value from environment with optional default
func (ec *EnvConfig) GetString(key, defaultValue string) string {
	fullKey := ec.buildKey(key)
	if value := os.Getenv(fullKey); value != "" {
		return value
	}
	return defaultValue
}

// MustGetString retrieves a required string value from environment or panics
func (ec *EnvConfig) MustGetString(key string) string {
	fullKey := ec.buildKey(key)
	value := os.Getenv(fullKey)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s not set", fullKey))
	}
	return value
}

// GetInt retrieves an integer value from environment with optional default
func (ec *EnvConfig) GetInt(key string, defaultValue int) int {
	fullKey := ec.buildKey(key)
	if value := os.Getenv(fullKey); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// MustGetInt retrieves a required integer value from environment or panics
func (ec *EnvConfig) MustGetInt(key string) int {
	fullKey := ec.buildKey(key)
	value := os.Getenv(fullKey)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s not set", fullKey))
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		panic(fmt.Sprintf("environment variable %s is not a valid integer: %v", fullKey, err))
	}
	return intValue
}

// GetBool retrieves a boolean value from environment with optional default
func (ec *EnvConfig) GetBool(key string, defaultValue bool) bool {
	fullKey := ec.buildKey(key)
	if value := os.Getenv(fullKey); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetDuration retrieves a duration value from environment with optional default
func (ec *EnvConfig) GetDuration(key string, defaultValue time.Duration) time.Duration {
	fullKey := ec.buildKey(key)
	if value := os.Getenv(fullKey); value != "" {
		duration, err := time.ParseDuration(value)
		if err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetStringSlice retrieves a comma-separated string slice from environment
func (ec *EnvConfig) GetStringSlice(key string, defaultValue []string) []string {
	fullKey := ec.buildKey(key)
	if value := os.Getenv(fullKey); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}

// buildKey builds the full environment variable key with optional prefix
func (ec *EnvConfig) buildKey(key string) string {
	if ec.prefix != "" {
		return ec.prefix + "_" + key
	}
	return key
}

// CORSConfig contains CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

// LoadCORSConfig loads CORS configuration from environment
func LoadCORSConfig(prefix string) CORSConfig {
	env := NewEnvConfig(prefix)
	return CORSConfig{
		AllowedOrigins: env.GetStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods: env.GetStringSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: env.GetStringSlice("ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-API-Key"}),
		MaxAge:         env.GetDuration("MAX_AGE", 12*time.Hour),
	}
}

// Validator provides configuration validation utilities
type Validator struct {
	errors []string
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{
		errors: make([]string, 0),
	}
}

// RequireString validates that a string field is not empty
func (v *Validator) RequireString(field, value string) {
	if value == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", field))
	}
}

// RequireInt validates that an integer field is within range
func (v *Validator) RequireInt(field string, value, min, max int) {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %d and %d", field, min, max))
	}
}

// RequirePositiveInt validates that an integer field is positive
func (v *Validator) RequirePositiveInt(field string, value int) {
	if value <= 0 {
		v.errors = append(v.errors, fmt.Sprintf("%s must be positive", field))
	}
}

// RequireURL validates that a string is a valid URL
func (v *Validator) RequireURL(field, value string) {
	if value == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", field))
		return
	}
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		v.errors = append(v.errors, fmt.Sprintf("%s must be a valid URL (http:// or https://)", field))
	}
}

// RequireOneOf validates that a value is one of the allowed options
func (v *Validator) RequireOneOf(field, value string, allowed []string) {
	if value == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", field))
		return
	}
	for _, option := range allowed {
		if value == option {
			return
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")))
}

// IsValid returns true if there are no validation errors
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []string {
	return v.errors
}

// ErrorString returns all validation errors as a single string
func (v *Validator) ErrorString() string {
	if len(v.errors) == 0 {
		return ""
	}
	return strings.Join(v.errors, "; ")
}

// Validate runs validation and returns error if invalid
func (v *Validator) Validate() error {
	if !v.IsValid() {
		return fmt.Errorf("configuration validation failed: %s", v.ErrorString())
	}
	return nil
}

// StoreConfig names the document and graph store connection parameters
// (MONGO_URI/MONGO_DB, NEO4J_*).
type StoreConfig struct {
	MongoURI      string
	MongoDB       string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
}

func LoadStoreConfig() StoreConfig {
	env := NewEnvConfig("")
	return StoreConfig{
		MongoURI:      env.GetString("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       env.GetString("MONGO_DB", "recommendation"),
		Neo4jURI:      env.GetString("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     env.GetString("NEO4J_USER", "neo4j"),
		Neo4jPassword: env.GetString("NEO4J_PASSWORD", ""),
	}
}

// AuthConfig names the JWT/auth-bypass parameters.
type AuthConfig struct {
	JWTSecretKey  string
	JWTAlgorithm  string
	TokenTTL      time.Duration
	NoAuth        bool
}

func LoadAuthConfig() AuthConfig {
	env := NewEnvConfig("")
	return AuthConfig{
		JWTSecretKey: env.GetString("JWT_SECRET_KEY", ""),
		JWTAlgorithm: env.GetString("JWT_ALGORITHM", "HS256"),
		TokenTTL:     time.Duration(env.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60)) * time.Minute,
		NoAuth:       env.GetBool("NO_AUTH", false),
	}
}

// EmbeddingConfig names the embedding builder's cache TTL and model
// identity.
type EmbeddingConfig struct {
	TTL     time.Duration
	ModelID string
}

func LoadEmbeddingConfig() EmbeddingConfig {
	env := NewEnvConfig("")
	return EmbeddingConfig{
		TTL:     time.Duration(env.GetInt("EMBEDDING_TTL_HOURS", 2)) * time.Hour,
		ModelID: env.GetString("EMBEDDING_MODEL_ID", "default"),
	}
}

// Config bundles every section the service needs at startup.
type Config struct {
	Store     StoreConfig
	Auth      AuthConfig
	Embedding EmbeddingConfig
	Server    ServerConfig
}

// ServerConfig names the HTTP listen port.
type ServerConfig struct {
	Port int
}

func LoadServerConfig() ServerConfig {
	env := NewEnvConfig("")
	return ServerConfig{Port: env.GetInt("PORT", 8080)}
}

// Load reads every configuration section and validates the ones that must
// be non-empty for the service to start.
func Load() (*Config, error) {
	cfg := &Config{
		Store:     LoadStoreConfig(),
		Auth:      LoadAuthConfig(),
		Embedding: LoadEmbeddingConfig(),
		Server:    LoadServerConfig(),
	}

	if !cfg.Auth.NoAuth {
		v := NewValidator()
		v.RequireString("JWT_SECRET_KEY", cfg.Auth.JWTSecretKey)
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
