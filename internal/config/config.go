package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY environment variable is not set")

type Config struct {
	Addr             string
	AppEnv           string
	CORSAllowOrigins []string
	GeminiAPIKey     string
	TextModel        string
	ImageModel       string
	EditModel        string
	MaxUploadBytes   int64
	SessionIdleTTL   time.Duration
}

func (c Config) Development() bool {
	return c.AppEnv == "development"
}

// Load reads .env when present, then the process environment. A missing
// API key is an error; everything else has a default.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:             ":" + getenv("PORT", "8080"),
		AppEnv:           getenv("APP_ENV", "production"),
		CORSAllowOrigins: splitList(getenv("CORS_ALLOW_ORIGINS", "*")),
		GeminiAPIKey:     strings.TrimSpace(getenvFirst([]string{"GEMINI_API_KEY", "API_KEY"}, "")),
		TextModel:        os.Getenv("GEMINI_TEXT_MODEL"),
		ImageModel:       os.Getenv("GEMINI_IMAGE_MODEL"),
		EditModel:        os.Getenv("GEMINI_EDIT_MODEL"),
		MaxUploadBytes:   int64(getenvInt("MAX_UPLOAD_BYTES", 8<<20, 64*1024, 64<<20)),
		SessionIdleTTL:   getenvDuration("SESSION_IDLE_TTL", 2*time.Hour),
	}
	if cfg.GeminiAPIKey == "" {
		return cfg, ErrMissingAPIKey
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvFirst(keys []string, def string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func getenvInt(key string, def, min, max int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return def
	}
	return d
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
