package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	// Object storage. Backend is "s3" or "filesystem"; the filesystem
	// backend keeps the pipeline runnable without AWS credentials.
	StorageBackend     string
	StoragePath        string
	AWSS3Bucket        string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Generation providers.
	GoogleAIAPIKey string
	GeminiModel    string
	GeminiBaseURL  string
	ExaAPIKey      string
	ExaBaseURL     string
	PollyVoice     string

	// Local encoder.
	FFmpegPath string

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		StorageBackend:     getEnv("STORAGE_BACKEND", "s3"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		AWSS3Bucket:        os.Getenv("AWS_S3_BUCKET"),
		AWSRegion:          getEnv("AWS_REGION", "eu-central-1"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		GoogleAIAPIKey:     os.Getenv("GOOGLE_AI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		ExaAPIKey:          os.Getenv("EXA_API_KEY"),
		ExaBaseURL:         getEnv("EXA_BASE_URL", "https://api.exa.ai"),
		PollyVoice:         getEnv("POLLY_VOICE", "Joanna"),
		FFmpegPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	switch cfg.StorageBackend {
	case "s3":
		if cfg.AWSS3Bucket == "" {
			return nil, fmt.Errorf("AWS_S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	case "filesystem":
		if cfg.StoragePath == "" {
			return nil, fmt.Errorf("STORAGE_PATH is required when STORAGE_BACKEND=filesystem")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
