package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"

	HistoryMongo  = "mongo"
	HistorySQLite = "sqlite"
)

type App struct {
	Port     string
	LogLevel string

	PostgresURI string
	RedisAddr   string
	MongoURI    string
	MongoDB     string

	HistoryBackend string
	SQLitePath     string

	LLMProvider    string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiBaseURL  string
	VertexProject  string
	VertexLocation string

	QuestionTimeLimit time.Duration
	QuestionCount     int
	SessionIdleTTL    time.Duration
	SettingsCacheTTL  time.Duration

	GCSBucket  string
	STTEnabled bool

	// 0 records transcripts inline on completion
	TranscriptWorkers int

	// WebSocket handshake origins, "*" for any
	WSAllowedOrigins []string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

// Load reads .env (if present) and the environment.
func Load() (*App, error) {
	_ = godotenv.Load()

	c := &App{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		PostgresURI: os.Getenv("POSTGRES_URI"),
		RedisAddr:   firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     getEnv("MONGO_DB", "careermentor"),

		HistoryBackend: strings.ToLower(getEnv("HISTORY_BACKEND", HistoryMongo)),
		SQLitePath:     getEnv("SQLITE_PATH", "history.db"),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    os.Getenv("GEMINI_MODEL"),
		GeminiBaseURL:  os.Getenv("GEMINI_BASE_URL"),
		VertexProject:  os.Getenv("VERTEX_PROJECT"),
		VertexLocation: getEnv("VERTEX_LOCATION", "us-central1"),

		QuestionTimeLimit: time.Duration(getEnvAsInt("QUESTION_TIME_LIMIT", 120)) * time.Second,
		QuestionCount:     getEnvAsInt("QUESTION_COUNT", 10),
		SessionIdleTTL:    getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),
		SettingsCacheTTL:  getEnvAsDuration("SETTINGS_CACHE_TTL", 10*time.Minute),

		GCSBucket:  os.Getenv("GCS_BUCKET"),
		STTEnabled: getEnvAsBool("STT_ENABLED", false),

		TranscriptWorkers: getEnvAsInt("TRANSCRIPT_WORKERS", 2),

		WSAllowedOrigins: splitList(os.Getenv("WS_ALLOWED_ORIGINS")),

		JWTSecret:   os.Getenv("AUTH_JWT_SECRET"),
		JWTIssuer:   os.Getenv("AUTH_JWT_ISSUER"),
		JWTAudience: os.Getenv("AUTH_JWT_AUDIENCE"),
	}
	return c, c.validate()
}

func (c *App) validate() error {
	var errs []error
	if c.PostgresURI == "" {
		errs = append(errs, errors.New("POSTGRES_URI environment variable is not set"))
	}
	if c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set"))
	}
	switch c.HistoryBackend {
	case HistoryMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI environment variable is not set"))
		}
	case HistorySQLite:
	default:
		errs = append(errs, errors.New("HISTORY_BACKEND must be mongo or sqlite"))
	}
	switch c.LLMProvider {
	case ProviderGemini:
	case ProviderVertex:
		if c.VertexProject == "" {
			errs = append(errs, errors.New("VERTEX_PROJECT is required when LLM_PROVIDER=vertex"))
		}
	default:
		errs = append(errs, errors.New("LLM_PROVIDER must be gemini or vertex"))
	}
	if c.TranscriptWorkers < 0 {
		errs = append(errs, errors.New("TRANSCRIPT_WORKERS must not be negative"))
	}
	if c.QuestionTimeLimit <= 0 {
		errs = append(errs, errors.New("QUESTION_TIME_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
