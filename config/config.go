package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting for the service. All values come from
// the environment with working defaults; ADMIN_TOKEN must be overridden in
// any real deployment.
type Config struct {
	Port string

	RawDir       string
	ProcessedDir string

	ChromaURL        string
	ChromaCollection string

	RedisURL     string
	CacheEnabled bool

	EmbeddingModel string
	OllamaURL      string

	OCRAPIURL string
	OCRAPIKey string
	OCRModel  string

	LLMProvider  string // "groq" or "gemini"
	GroqAPIURL   string
	GroqAPIKey   string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string

	PrometheusPort int
	SentryDSN      string
	CORSOrigins    []string

	ChunkSize   int
	TopK        int
	AdminToken  string
	WatchRawDir bool
	Debug       bool
}

// Load reads the environment (after a best-effort .env load) and returns the
// resolved configuration.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		RawDir:       getEnv("DOCS_RAW_DIR", "./data/raw"),
		ProcessedDir: getEnv("DOCS_PROCESSED_DIR", "./data/processed"),

		ChromaURL:        getEnv("CHROMA_URL", "http://localhost:8000"),
		ChromaCollection: getEnv("CHROMA_COLLECTION", "docs"),

		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CacheEnabled: getEnvBool("CACHE_ENABLED", false),

		EmbeddingModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text:v1.5"),
		OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),

		OCRAPIURL: getEnv("OCR_API_URL", "https://api.mistral.ai/v1/ocr"),
		OCRAPIKey: getEnv("OCR_API_KEY", ""),
		OCRModel:  getEnv("OCR_MODEL", "mistral-ocr-latest"),

		LLMProvider:  getEnv("LLM_PROVIDER", "groq"),
		GroqAPIURL:   getEnv("GROQ_API_URL", "https://api.groq.com/openai/v1"),
		GroqAPIKey:   getEnv("GROQ_API_KEY", ""),
		GroqModel:    getEnv("GROQ_MODEL", "llama3-8b-8192"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		PrometheusPort: getEnvInt("PROMETHEUS_PORT", 0),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
		CORSOrigins:    strings.Split(getEnv("CORS_ORIGINS", "*"), ","),

		ChunkSize:   getEnvInt("CHUNK_SIZE", 512),
		TopK:        getEnvInt("TOP_K", 5),
		AdminToken:  getEnv("ADMIN_TOKEN", "admin_secret"),
		WatchRawDir: getEnvBool("WATCH_RAW_DIR", false),
		Debug:       getEnvBool("DEBUG", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: invalid integer for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: invalid boolean for %s: %q, using default %v", key, v, fallback)
		return fallback
	}
	return b
}
