package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port        string
	LogLevel    string
	CORSOrigins []string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlite3, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Token configuration
	SecretKey                string
	TokenIssuer              string
	AccessTokenExpireMinutes int

	// Content generation configuration
	LLMProvider      string // gemini, openai
	LLMModel         string
	LLMBaseURL       string
	LLMAPIKey        string
	LLMTimeout       time.Duration
	GenerationPacing time.Duration

	// Export configuration
	ExportRenderer string // native, pandoc

	// Optional generation rate limit (enabled when RedisURL is set)
	RedisURL             string
	GenerationRateLimit  int
	GenerationRateWindow time.Duration
}

// Load loads configuration from environment variables, after applying the
// optional .env file named by ENV_FILE (default ".env").
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{
		Port:                     getEnv("PORT", "3000"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		CORSOrigins:              getEnvAsList("CORS_ORIGINS", []string{"https://ai-document-authoring.vercel.app"}),
		DBType:                   getEnv("DB_TYPE", "sqlite"),
		DBHost:                   getEnv("DB_HOST", "localhost"),
		DBPort:                   getEnv("DB_PORT", ""),
		DBDatabase:               getEnv("DB_DATABASE", ""),
		DBUser:                   getEnv("DB_USER", ""),
		DBPassword:               getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:        getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		SecretKey:                getEnv("SECRET_KEY", ""),
		TokenIssuer:              getEnv("TOKEN_ISSUER", "docauthor"),
		AccessTokenExpireMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		LLMProvider:              strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
		LLMModel:                 getEnv("LLM_MODEL", "gemini-2.5-pro"),
		LLMBaseURL:               getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:                getEnv("LLM_API_KEY", getEnv("GEMINI_API_KEY", "")),
		LLMTimeout:               time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		GenerationPacing:         time.Duration(getEnvAsInt("GENERATION_PACING_MS", 1500)) * time.Millisecond,
		ExportRenderer:           strings.ToLower(getEnv("EXPORT_RENDERER", "native")),
		RedisURL:                 getEnv("REDIS_URL", ""),
		GenerationRateLimit:      getEnvAsInt("GENERATION_RATE_LIMIT", 10),
		GenerationRateWindow:     time.Duration(getEnvAsInt("GENERATION_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}

	if cfg.DBPort == "" {
		cfg.DBPort = defaultPort(cfg.DBType)
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}
	switch cfg.LLMProvider {
	case "gemini":
		if cfg.LLMAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY or LLM_API_KEY is required for the gemini provider")
		}
	case "openai":
		if cfg.LLMBaseURL == "" {
			return nil, fmt.Errorf("LLM_BASE_URL is required for the openai provider")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER: %s", cfg.LLMProvider)
	}
	if cfg.ExportRenderer != "native" && cfg.ExportRenderer != "pandoc" {
		return nil, fmt.Errorf("unsupported EXPORT_RENDERER: %s", cfg.ExportRenderer)
	}
	if cfg.LLMTimeout <= 0 {
		return nil, fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive")
	}
	if cfg.GenerationPacing <= 0 {
		return nil, fmt.Errorf("GENERATION_PACING_MS must be positive")
	}

	return cfg, nil
}

func defaultPort(dbType string) string {
	switch dbType {
	case "postgres", "postgresql":
		return "5432"
	case "sqlserver", "mssql":
		return "1433"
	default:
		return "3306"
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
