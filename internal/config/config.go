package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreDynamo = "dynamo"
	StoreBolt   = "bolt"
	StoreMemory = "memory"
)

// Identity providers accepted by IDENTITY_PROVIDER.
const (
	IdentityJWT    = "jwt"
	IdentityGoogle = "google"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort   string
	AppEnv    string
	LogLevel  string
	LogFormat string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	StoreBackend string
	BoltPath     string

	IdentityProvider  string
	JWTPrivateKeyPath string // optional; only needed to mint tokens
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	GoogleClientID    string

	RobloxUsersBaseURL      string
	RobloxThumbnailsBaseURL string
	ExternalTimeout         time.Duration
	VerificationTTL         time.Duration

	SNSRegion   string
	SNSTopicARN string // empty disables link events

	AllowedOrigins []string // CORS allowed origins
	RateLimitRPS   float64
	RateLimitBurst int

	APIBaseURL string // used by linkctl only
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	PendingVerifications string
	LinkedAccounts       string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:   getEnv("APP_PORT", "3000"),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			PendingVerifications: getEnv("DYNAMO_TABLE_PENDING_VERIFICATIONS", "pending_verifications"),
			LinkedAccounts:       getEnv("DYNAMO_TABLE_LINKED_ACCOUNTS", "linked_accounts"),
		},

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreDynamo)),
		BoltPath:     getEnv("BOLT_PATH", "./account-link.db"),

		IdentityProvider:  strings.ToLower(getEnv("IDENTITY_PROVIDER", IdentityJWT)),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),

		RobloxUsersBaseURL:      getEnv("ROBLOX_USERS_BASE_URL", "https://users.roblox.com"),
		RobloxThumbnailsBaseURL: getEnv("ROBLOX_THUMBNAILS_BASE_URL", "https://thumbnails.roblox.com"),
		ExternalTimeout:         getEnvDuration("EXTERNAL_TIMEOUT", 8*time.Second),
		VerificationTTL:         getEnvDuration("VERIFICATION_TTL", 15*time.Minute),

		SNSRegion:   getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:3000"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("15m", "8s"). Non-positive
// values fall back so that timeouts and expiries are always finite.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
