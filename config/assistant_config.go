package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Storage
	RedisURL string

	// JWT
	JWTSecret string

	// OpenAI
	OpenAIAPIKey      string
	LLMModel          string
	LLMMaxTokens      int
	LLMTemperature    float64
	LLMTimeoutSec     int
	LLMMaxRetries     int
	LLMRetryBaseDelay time.Duration

	// OAuth - Google
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Conversation
	HistoryCap int

	// Rate limiting
	RateLimitPerMin int

	// Digest
	DigestMailCount  int
	DigestEventCount int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Storage
		RedisURL: getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// OpenAI
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:      getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature:    getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeoutSec:     getEnvInt("LLM_TIMEOUT_SEC", 60),
		LLMMaxRetries:     getEnvInt("LLM_MAX_RETRIES", 3),
		LLMRetryBaseDelay: time.Duration(getEnvInt("LLM_RETRY_BASE_DELAY_MS", 500)) * time.Millisecond,

		// OAuth - Google
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),

		// Conversation
		HistoryCap: getEnvInt("HISTORY_CAP", 200),

		// Rate limiting
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 30),

		// Digest
		DigestMailCount:  getEnvInt("DIGEST_MAIL_COUNT", 10),
		DigestEventCount: getEnvInt("DIGEST_EVENT_COUNT", 10),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
