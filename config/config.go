package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the backend
type Config struct {
	Port    string
	GinMode string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	CookieSecure     bool
	AllowAdminSignup bool
	CORSOrigins      []string

	BlobDriver      string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PathStyle     bool
	SignedURLExpiry time.Duration
	MaxUploadSize   int64

	LogLevel  string
	LogFormat string
}

// LoadEnv loads environment variables from .env file
func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
}

// GetEnv gets an environment variable or returns a default value if not present
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// GetDuration parses a duration variable, falling back on missing or malformed values
func GetDuration(key string, fallback time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid duration %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

// GetBool parses a boolean variable
func GetBool(key string, fallback bool) bool {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid boolean %s=%q, using %t", key, raw, fallback)
		return fallback
	}
	return b
}

// GetInt64 parses an integer variable
func GetInt64(key string, fallback int64) int64 {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid integer %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}

// Load reads the full configuration from the environment
func Load() Config {
	return Config{
		Port:    GetEnv("PORT", "8000"),
		GinMode: GetEnv("GIN_MODE", "release"),

		DatabaseDriver: strings.ToLower(GetEnv("DATABASE_DRIVER", "postgres")),
		DatabaseURL:    GetEnv("DATABASE_URL", ""),

		JWTSecret:        GetEnv("JWT_SECRET", ""),
		AccessTokenTTL:   GetDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL:  GetDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CookieSecure:     GetBool("COOKIE_SECURE", true),
		AllowAdminSignup: GetBool("ALLOW_ADMIN_SIGNUP", false),
		CORSOrigins:      splitList(GetEnv("CORS_ORIGINS", "http://localhost:5173")),

		BlobDriver:      strings.ToLower(GetEnv("BLOB_DRIVER", "s3")),
		S3Bucket:        GetEnv("BLOB_S3_BUCKET", ""),
		S3Region:        GetEnv("BLOB_S3_REGION", "us-east-1"),
		S3Endpoint:      GetEnv("BLOB_S3_ENDPOINT", ""),
		S3PathStyle:     GetBool("BLOB_S3_PATH_STYLE", false),
		SignedURLExpiry: GetDuration("SIGNED_URL_EXPIRY", 60*time.Minute),
		MaxUploadSize:   GetInt64("MAX_UPLOAD_SIZE", 10*1024*1024),

		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "json"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
