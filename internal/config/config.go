package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Chroma vector store
	ChromaHost     string
	CollectionName string

	// RAG tuning
	TopK                int
	ConfidenceThreshold float64
	ChunkSize           int
	ChunkOverlap        int

	// Embeddings / LLM providers
	EmbeddingsProvider    string // "google" (default), "openai"
	GeminiAPIKey          string
	GoogleEmbeddingsModel string
	GoogleLLMModel        string
	OpenAIAPIKey          string
	OpenAIEmbeddingsModel string
	OpenAILLMModel        string

	// Speech (OpenAI Whisper / TTS)
	TTSModel    string
	TTSVoice    string
	TTSCacheTTL int // seconds

	// Uploads
	UploadDir        string
	MaxFileSize      int64
	MaxAudioFileSize int64

	// MongoDB (conversation history)
	MongoURI string
	DBName   string

	// Redis (rate limiting, caches, task queue)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "3001"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),

		ChromaHost:     getEnv("CHROMA_HOST", "http://localhost:8000"),
		CollectionName: getEnv("COLLECTION_NAME", "customer_docs"),

		TopK:                getEnvInt("TOP_K", 3),
		ConfidenceThreshold: getEnvFloat64("CONFIDENCE_THRESHOLD", 0.7),
		ChunkSize:           getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 50),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "google"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GoogleLLMModel:        getEnv("GOOGLE_LLM_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIEmbeddingsModel: getEnv("OPENAI_EMBEDDINGS_MODEL", "text-embedding-3-small"),
		OpenAILLMModel:        getEnv("OPENAI_LLM_MODEL", "gpt-4o-mini"),

		TTSModel:    getEnv("TTS_MODEL", "tts-1"),
		TTSVoice:    getEnv("TTS_VOICE", "alloy"),
		TTSCacheTTL: getEnvInt("TTS_CACHE_TTL", 3600),

		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		MaxFileSize:      getEnvInt64("MAX_FILE_SIZE", 52428800),       // 50MB for documents
		MaxAudioFileSize: getEnvInt64("MAX_AUDIO_FILE_SIZE", 26214400), // 25MB for audio

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/customer_ai_agent"),
		DBName:   getEnv("DB_NAME", "customer_ai_agent"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate provider credentials
	switch cfg.EmbeddingsProvider {
	case "google":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when EMBEDDINGS_PROVIDER=google - set it in .env file")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when EMBEDDINGS_PROVIDER=openai - set it in .env file")
		}
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	return cfg, nil
}

// SpeechEnabled reports whether the Whisper/TTS endpoints can be served.
// Speech always goes through OpenAI regardless of the embeddings provider.
func (c *Config) SpeechEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
