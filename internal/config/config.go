package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Chat      ChatConfig
	DevServer DevServerConfig
	JWT       JWTConfig
}

type ChatConfig struct {
	ServerURL            string
	APIURL               string
	HandshakeTimeout     time.Duration
	BackoffMin           time.Duration
	BackoffMax           time.Duration
	MaxReconnectAttempts int
	HistoryPageSize      int
	MaxMessageLength     int
}

type DevServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type JWTConfig struct {
	Secret    []byte
	ExpiresIn time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env file: %v", err)
	}

	return &Config{
		Chat: ChatConfig{
			ServerURL:            getEnvOrDefault("CHAT_SERVER_URL", "ws://localhost:8080"),
			APIURL:               getEnvOrDefault("CHAT_API_URL", "http://localhost:8080"),
			HandshakeTimeout:     getDurationOrDefault("CHAT_HANDSHAKE_TIMEOUT", "10s"),
			BackoffMin:           getDurationOrDefault("CHAT_BACKOFF_MIN", "1s"),
			BackoffMax:           getDurationOrDefault("CHAT_BACKOFF_MAX", "30s"),
			MaxReconnectAttempts: getIntOrDefault("CHAT_MAX_RECONNECT_ATTEMPTS", 20),
			HistoryPageSize:      getIntOrDefault("CHAT_HISTORY_PAGE_SIZE", 50),
			MaxMessageLength:     getIntOrDefault("CHAT_MAX_MESSAGE_LENGTH", 1000),
		},
		DevServer: DevServerConfig{
			Port:         getEnvOrDefault("PORT", ":8080"),
			ReadTimeout:  getDurationOrDefault("READ_TIMEOUT", "15s"),
			WriteTimeout: getDurationOrDefault("WRITE_TIMEOUT", "15s"),
		},
		JWT: JWTConfig{
			Secret:    []byte(getEnvOrDefault("JWT_SECRET", "dev-only-secret")),
			ExpiresIn: getDurationOrDefault("JWT_EXPIRES_IN", "24h"),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key, defaultValue string) time.Duration {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Invalid duration for %s: %v", key, err)
	}
	return duration
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid integer for %s: %v", key, err)
	}
	return intValue
}
