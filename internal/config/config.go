package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Receipt store backends.
const (
	ReceiptStoreNone       = "none"
	ReceiptStoreFilesystem = "filesystem"
	ReceiptStoreS3         = "s3"
)

// defaultAllowedTypes mirrors the SDK allow-list.
const defaultAllowedTypes = "application/pdf,image/jpeg,image/png,image/gif,text/plain,application/msword," +
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Config holds all application configuration
type Config struct {
	APIURL         string        // Backend base URL
	AppURL         string        // Frontend base URL used in verification links
	DBPath         string        // Local SQLite database (session + history)
	MaxFileSize    int64         // Upload size limit in bytes
	AllowedTypes   []string      // Upload MIME allow-list
	ConfirmRetries int           // Transaction status fetches per upload
	ConfirmDelay   time.Duration // Wait between transaction status fetches
	RequestTimeout time.Duration // Per-request HTTP timeout
	WalletKey      string        // Optional: hex secp256k1 private key for signing
	ListenAddr     string        // Verification server listen address
	LogLevel       string        // debug, info, warn, error
	LogFormat      string        // json or text

	ReceiptStore string // none, filesystem or s3
	ReceiptDir   string
	S3           S3Config
}

// S3Config holds the receipt bucket settings.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: S3-compatible endpoint (MinIO, LocalStack)
	AccessKeyID     string // Optional: falls back to the default AWS credential chain
	SecretAccessKey string
	PathStyle       bool
}

// Load reads configuration from an optional .env file and environment
// variables with sensible defaults. Variables already set in the environment
// take precedence over the .env file.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files. Missing files are ignored.
func LoadFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		APIURL:         getEnv("UNIVERIFY_API_URL", "http://localhost:5000"),
		AppURL:         getEnv("UNIVERIFY_APP_URL", "https://univerify.vercel.app"),
		DBPath:         getEnv("UNIVERIFY_DB_PATH", "./univerify.db"),
		MaxFileSize:    getEnvInt64("UNIVERIFY_MAX_FILE_SIZE", 10485760), // 10MB default
		AllowedTypes:   getEnvList("UNIVERIFY_ALLOWED_TYPES", defaultAllowedTypes),
		ConfirmRetries: getEnvInt("UNIVERIFY_CONFIRM_RETRIES", 10),
		ConfirmDelay:   time.Duration(getEnvInt("UNIVERIFY_CONFIRM_DELAY_MS", 2000)) * time.Millisecond,
		RequestTimeout: time.Duration(getEnvInt("UNIVERIFY_REQUEST_TIMEOUT_SECONDS", 300)) * time.Second,
		WalletKey:      getEnv("UNIVERIFY_WALLET_KEY", ""), // Optional
		ListenAddr:     getEnv("UNIVERIFY_LISTEN_ADDR", ":8080"),
		LogLevel:       strings.ToLower(getEnv("UNIVERIFY_LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("UNIVERIFY_LOG_FORMAT", "text")),
		ReceiptStore:   strings.ToLower(getEnv("UNIVERIFY_RECEIPT_STORE", ReceiptStoreNone)),
		ReceiptDir:     getEnv("UNIVERIFY_RECEIPT_DIR", "./receipts"),
		S3: S3Config{
			Bucket:          getEnv("UNIVERIFY_S3_BUCKET", ""),
			Region:          getEnv("UNIVERIFY_S3_REGION", "us-east-1"),
			Endpoint:        getEnv("UNIVERIFY_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("UNIVERIFY_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("UNIVERIFY_S3_SECRET_ACCESS_KEY", ""),
			PathStyle:       getEnvBool("UNIVERIFY_S3_PATH_STYLE", false),
		},
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate ensures configuration values are sensible
func (c *Config) validate() error {
	if err := validateHTTPURL("UNIVERIFY_API_URL", c.APIURL); err != nil {
		return err
	}

	if err := validateHTTPURL("UNIVERIFY_APP_URL", c.AppURL); err != nil {
		return err
	}

	if c.DBPath == "" {
		return fmt.Errorf("UNIVERIFY_DB_PATH cannot be empty")
	}

	if c.MaxFileSize <= 0 {
		return fmt.Errorf("UNIVERIFY_MAX_FILE_SIZE must be positive, got %d", c.MaxFileSize)
	}

	if len(c.AllowedTypes) == 0 {
		return fmt.Errorf("UNIVERIFY_ALLOWED_TYPES cannot be empty")
	}

	if c.ConfirmRetries <= 0 {
		return fmt.Errorf("UNIVERIFY_CONFIRM_RETRIES must be positive, got %d", c.ConfirmRetries)
	}

	if c.ConfirmDelay < 0 {
		return fmt.Errorf("UNIVERIFY_CONFIRM_DELAY_MS cannot be negative, got %d", c.ConfirmDelay.Milliseconds())
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("UNIVERIFY_REQUEST_TIMEOUT_SECONDS must be positive, got %v", c.RequestTimeout)
	}

	// Validate wallet key if provided (must be 64 hex characters = 32 bytes)
	if c.WalletKey != "" {
		key := strings.TrimPrefix(c.WalletKey, "0x")
		if len(key) != 64 {
			return fmt.Errorf("UNIVERIFY_WALLET_KEY must be exactly 64 hexadecimal characters (32 bytes), got %d", len(key))
		}
		if _, err := hex.DecodeString(key); err != nil {
			return fmt.Errorf("UNIVERIFY_WALLET_KEY must contain only hexadecimal characters (0-9, a-f, A-F)")
		}
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("UNIVERIFY_LISTEN_ADDR cannot be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("UNIVERIFY_LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("UNIVERIFY_LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}

	switch c.ReceiptStore {
	case ReceiptStoreNone:
	case ReceiptStoreFilesystem:
		if c.ReceiptDir == "" {
			return fmt.Errorf("UNIVERIFY_RECEIPT_DIR cannot be empty when UNIVERIFY_RECEIPT_STORE=filesystem")
		}
	case ReceiptStoreS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("UNIVERIFY_S3_BUCKET is required when UNIVERIFY_RECEIPT_STORE=s3")
		}
		if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
			return fmt.Errorf("UNIVERIFY_S3_ACCESS_KEY_ID and UNIVERIFY_S3_SECRET_ACCESS_KEY must be set together")
		}
	default:
		return fmt.Errorf("UNIVERIFY_RECEIPT_STORE must be none, filesystem or s3, got %q", c.ReceiptStore)
	}

	return nil
}

func validateHTTPURL(key, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", key)
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http or https URL, got %q", key, value)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvInt64 retrieves an int64 environment variable or returns a default value
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList retrieves a comma-separated list from environment variable
func getEnvList(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, strings.ToLower(trimmed))
		}
	}

	return result
}
