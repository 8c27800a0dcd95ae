// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        int
	LogLevel    string
	HTTPTimeout time.Duration

	Database DatabaseConfig
	Auth     AuthConfig
	Chain    ChainConfig
	Insights InsightsConfig
	Kafka    KafkaConfig
}

// DatabaseConfig holds SQLite configuration.
type DatabaseConfig struct {
	Path string
}

// AuthConfig holds wallet-authentication and session configuration.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	NonceTTL  time.Duration
}

// ChainConfig holds testnet RPC and token contract configuration.
type ChainConfig struct {
	RPCEndpoint  string
	ChainID      int64
	USDCContract string
	ExplorerURL  string
}

// InsightsConfig holds AI text-service configuration.
type InsightsConfig struct {
	GeminiAPIKey string
	GeminiModel  string
	Timeout      time.Duration
}

// KafkaConfig holds settlement-event broker configuration.
// An empty BrokerAddress disables event emission.
type KafkaConfig struct {
	BrokerAddress string
	Topic         string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// .env is optional; variables may be set externally.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvAsInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPTimeout: time.Duration(getEnvAsInt("HTTP_TIMEOUT", 30)) * time.Second,
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/splitbase.db"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:  time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
			NonceTTL:  time.Duration(getEnvAsInt("NONCE_TTL_SECONDS", 300)) * time.Second,
		},
		Chain: ChainConfig{
			RPCEndpoint:  getEnv("RPC_ENDPOINT", "https://84532.rpc.thirdweb.com"),
			ChainID:      int64(getEnvAsInt("CHAIN_ID", 84532)),
			USDCContract: getEnv("USDC_CONTRACT", "0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
			ExplorerURL:  getEnv("EXPLORER_URL", "https://base-sepolia.blockscout.com"),
		},
		Insights: InsightsConfig{
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout:      time.Duration(getEnvAsInt("GEMINI_TIMEOUT", 15)) * time.Second,
		},
		Kafka: KafkaConfig{
			BrokerAddress: getEnv("KAFKA_BROKER_ADDRESS", ""),
			Topic:         getEnv("KAFKA_TOPIC", "settlement-events"),
		},
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
