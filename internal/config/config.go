package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// AuthConfig holds session token signing settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// UploadConfig holds intake constraints and the content directory.
type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

// OCRConfig holds the external recognition process settings.
// Command is the interpreter/binary and Script an optional first argument
// (e.g. a python script path); the artifact path is always appended as the
// final argument.
type OCRConfig struct {
	Command string
	Script  string
	Timeout time.Duration
}

// ArchiveConfig holds object storage settings for the optional artifact
// archive (S3-compatible, MinIO-supported).
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	Auth     AuthConfig
	Upload   UploadConfig
	OCR      OCRConfig
	Archive  ArchiveConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "uploads"),
			MaxSizeBytes: int64(getEnvInt("UPLOAD_MAX_SIZE_BYTES", 5*1024*1024)),
		},
		OCR: OCRConfig{
			Command: getEnv("OCR_COMMAND", "python"),
			Script:  getEnv("OCR_SCRIPT", "ocr/extract.py"),
			Timeout: time.Duration(getEnvInt("OCR_TIMEOUT_SEC", 30)) * time.Second,
		},
		Archive: ArchiveConfig{
			Enabled:   getEnvBool("ARCHIVE_ENABLED", false),
			Endpoint:  getEnv("ARCHIVE_ENDPOINT", ""),
			AccessKey: getEnv("ARCHIVE_ACCESS_KEY", ""),
			SecretKey: getEnv("ARCHIVE_SECRET_KEY", ""),
			Bucket:    getEnv("ARCHIVE_BUCKET", ""),
			UseSSL:    getEnvBool("ARCHIVE_USE_SSL", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
