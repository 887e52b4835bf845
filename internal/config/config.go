package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	DynamoPageSize int32

	SNSRegion               string
	SNSPublishTimeout       time.Duration
	SNSRatePerSecond        float64
	SNSRateBurst            int
	SNSMulticastConcurrency int
	BroadcastBatchSize      int

	RetentionDays int
	SweepSchedule string
	SweepTimezone string
	SweepTimeout  time.Duration

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins
	// TrustProxyHeaders takes the client address from X-Forwarded-For/X-Real-Ip.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Conversations string
	Messages      string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Conversations: getEnv("DYNAMO_TABLE_CONVERSATIONS", "chat_rooms"),
			Messages:      getEnv("DYNAMO_TABLE_MESSAGES", "messages"),
		},
		DynamoPageSize: int32(getEnvInt("DYNAMO_PAGE_SIZE", 100)),

		SNSRegion:               getEnv("SNS_REGION", "us-east-1"),
		SNSPublishTimeout:       getEnvDuration("SNS_PUBLISH_TIMEOUT", 10*time.Second),
		SNSRatePerSecond:        getEnvFloat("SNS_RATE_PER_SECOND", 50),
		SNSRateBurst:            getEnvInt("SNS_RATE_BURST", 100),
		SNSMulticastConcurrency: getEnvInt("SNS_MULTICAST_CONCURRENCY", 16),
		BroadcastBatchSize:      getEnvInt("BROADCAST_BATCH_SIZE", 500),

		RetentionDays: getEnvInt("RETENTION_DAYS", 30),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 0 * * *"),
		SweepTimezone: getEnv("SWEEP_TIMEZONE", "America/New_York"),
		SweepTimeout:  getEnvDuration("SWEEP_TIMEOUT", 30*time.Minute),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
	}
}

// RetentionWindow is the age after which messages are swept.
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	var errs []string
	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("sweep schedule: %v", err))
	}
	if _, err := time.LoadLocation(c.SweepTimezone); err != nil {
		errs = append(errs, fmt.Sprintf("sweep timezone: %v", err))
	}
	if c.RetentionDays < 1 {
		errs = append(errs, "retention days must be positive")
	}
	if c.DynamoPageSize < 1 {
		errs = append(errs, "dynamo page size must be positive")
	}
	if c.BroadcastBatchSize < 1 || c.BroadcastBatchSize > 1000 {
		errs = append(errs, "broadcast batch size must be between 1 and 1000")
	}
	if c.SNSMulticastConcurrency < 1 {
		errs = append(errs, "sns multicast concurrency must be positive")
	}
	if c.SNSRatePerSecond <= 0 || c.SNSRateBurst < 1 {
		errs = append(errs, "sns rate limit must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
