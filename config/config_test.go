package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// clearEnv blanks every key Load reads so ambient variables or a stray .env
// cannot leak into assertions about defaults. Load treats an empty value as
// unset, and godotenv never overrides a key already present in the
// environment. t.Setenv restores the originals when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DOCS_RAW_DIR", "DOCS_PROCESSED_DIR", "CHROMA_URL",
		"CHROMA_COLLECTION", "REDIS_URL", "CACHE_ENABLED", "EMBEDDING_MODEL",
		"OLLAMA_URL", "OCR_API_URL", "OCR_API_KEY", "OCR_MODEL",
		"LLM_PROVIDER", "GROQ_API_URL", "GROQ_API_KEY", "GROQ_MODEL",
		"GEMINI_API_KEY", "GEMINI_MODEL", "PROMETHEUS_PORT", "SENTRY_DSN",
		"CORS_ORIGINS", "CHUNK_SIZE", "TOP_K", "ADMIN_TOKEN",
		"WATCH_RAW_DIR", "DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./data/raw", cfg.RawDir)
	assert.Equal(t, "http://localhost:8000", cfg.ChromaURL)
	assert.Equal(t, "docs", cfg.ChromaCollection)
	assert.Equal(t, 512, cfg.ChunkSize)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, "admin_secret", cfg.AdminToken)
	assert.Equal(t, "groq", cfg.LLMProvider)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.CacheEnabled)
	assert.False(t, cfg.WatchRawDir)
	assert.Equal(t, 0, cfg.PrometheusPort)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCS_RAW_DIR", "/srv/manuals")
	t.Setenv("CHUNK_SIZE", "256")
	t.Setenv("TOP_K", "3")
	t.Setenv("ADMIN_TOKEN", "s3cret")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg := Load()
	assert.Equal(t, "/srv/manuals", cfg.RawDir)
	assert.Equal(t, 256, cfg.ChunkSize)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, "s3cret", cfg.AdminToken)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHUNK_SIZE", "not-a-number")
	t.Setenv("CACHE_ENABLED", "maybe")

	cfg := Load()
	assert.Equal(t, 512, cfg.ChunkSize)
	assert.False(t, cfg.CacheEnabled)
}
