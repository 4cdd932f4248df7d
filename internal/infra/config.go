package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	PromptProviderGemini = "gemini"
	PromptProviderOpenAI = "openai"

	StorageDriverFS    = "fs"
	StorageDriverMinio = "minio"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	Port          string
	DefaultLocale string

	GeminiBaseURL    string
	GeminiTextModel  string
	GeminiImageModel string
	GeminiVideoModel string

	PromptProvider string
	OpenAIModel    string
	OpenAIBaseURL  string
	OpenAIOrg      string

	RetryMaxAttempts  int
	VideoPollInterval time.Duration
	VideoQuotaBackoff time.Duration
	VideoMaxPolls     int

	DatabaseURL string

	StorageDriver  string
	StoragePath    string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
	GeoIPDBPath      string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// API keys are deliberately absent: they are resolved on every remote call by
// the credentials package so a swapped key applies immediately.
func LoadConfig() (*Config, error) {
	// Optional dotenv files; a missing file is not an error.
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DefaultLocale:     getEnv("DEFAULT_LOCALE", "pt-BR"),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiTextModel:   getEnv("GEMINI_TEXT_MODEL", "gemini-3-flash-preview"),
		GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiVideoModel:  getEnv("GEMINI_VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
		PromptProvider:    strings.ToLower(getEnv("PROMPT_PROVIDER", PromptProviderGemini)),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:         os.Getenv("OPENAI_ORG"),
		RetryMaxAttempts:  getEnvInt("RETRY_MAX_ATTEMPTS", 4),
		VideoPollInterval: time.Second * time.Duration(getEnvInt("VIDEO_POLL_INTERVAL_SECONDS", 10)),
		VideoQuotaBackoff: time.Second * time.Duration(getEnvInt("VIDEO_QUOTA_BACKOFF_SECONDS", 15)),
		VideoMaxPolls:     getEnvInt("VIDEO_MAX_POLLS", 80),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverFS)),
		StoragePath:       getEnv("STORAGE_PATH", "./storage"),
		MinioEndpoint:     getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:    os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:    os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:       getEnv("MINIO_BUCKET", "posters"),
		MinioUseSSL:       getEnvBool("MINIO_USE_SSL", false),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 900)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:       splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
	}

	switch cfg.PromptProvider {
	case PromptProviderGemini, PromptProviderOpenAI:
	default:
		return nil, fmt.Errorf("PROMPT_PROVIDER must be %q or %q", PromptProviderGemini, PromptProviderOpenAI)
	}

	switch cfg.StorageDriver {
	case StorageDriverFS:
	case StorageDriverMinio:
		if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
			return nil, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when STORAGE_DRIVER=minio")
		}
		if strings.Contains(cfg.MinioEndpoint, "://") {
			return nil, fmt.Errorf("MINIO_ENDPOINT must not include scheme: %q", cfg.MinioEndpoint)
		}
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverFS, StorageDriverMinio)
	}

	if cfg.RetryMaxAttempts <= 0 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be positive")
	}
	if cfg.VideoMaxPolls <= 0 {
		return nil, fmt.Errorf("VIDEO_MAX_POLLS must be positive")
	}
	if cfg.VideoPollInterval <= 0 || cfg.VideoQuotaBackoff <= 0 {
		return nil, fmt.Errorf("video poll intervals must be positive")
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

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
