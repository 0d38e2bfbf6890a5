package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Cache   CacheConfig
	OCR     OCRConfig
	LLM     LLMConfig
	Storage StorageConfig
	Similar SimilarConfig
	Queue   QueueConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	UploadDir      string
	MaxUploadBytes int64
	WatchDir       string
}

// CacheConfig holds extraction cache configuration
type CacheConfig struct {
	Dir        string
	Backend    string
	SQLitePath string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftoppm    string
	Tesseract   string
	Lang        string
	DPI         int
	CLIMaxPages int
	LibMaxPages int
	Timeout     time.Duration
	TessdataDir string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider        string
	OpenAIKey       string
	OpenAIModel     string
	OpenAIBaseURL   string
	GeminiKey       string
	GeminiModel     string
	OllamaURL       string
	OllamaModel     string
	Temperature     float32
	MaxOutputTokens int
	MaxTokens       int
	Timeout         time.Duration
	PromptPath      string
}

// StorageConfig selects where analyzed case records live
type StorageConfig struct {
	Type         string
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

type SimilarConfig struct {
	CaseFilesDir string
}

type QueueConfig struct {
	Workers    int
	Size       int
	JobTimeout time.Duration
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	CacheBackendDir    = "dir"
	CacheBackendSQLite = "sqlite"

	StorageLocal = "local"
	StorageS3    = "s3"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":3001"),
			GRPCAddr:       getEnv("GRPC_ADDR", ""),
			UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
			WatchDir:       getEnv("WATCH_DIR", ""),
		},
		Cache: CacheConfig{
			Dir:        getEnv("CACHE_DIR", "./extraction_cache"),
			Backend:    strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendDir)),
			SQLitePath: getEnv("CACHE_SQLITE_PATH", "./extraction_cache/cache.db"),
		},
		OCR: OCRConfig{
			Pdftoppm:    getEnv("PDFTOPPM", "pdftoppm"),
			Tesseract:   getEnv("TESSERACT", "tesseract"),
			Lang:        getEnv("TESSERACT_LANG", "eng"),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			CLIMaxPages: getEnvAsInt("OCR_CLI_MAX_PAGES", 5),
			LibMaxPages: getEnvAsInt("OCR_LIB_MAX_PAGES", 3),
			Timeout:     getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
		},
		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o"),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			GeminiKey:       getEnv("GEMINI_API_KEY", ""),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
			OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("OLLAMA_MODEL", "llama3.1"),
			Temperature:     getEnvAsFloat32("LLM_TEMPERATURE", 0.2),
			MaxOutputTokens: getEnvAsInt("LLM_MAX_OUTPUT_TOKENS", 2000),
			MaxTokens:       getEnvAsInt("LLM_MAX_TOKENS", 16000),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", 90*time.Second),
			PromptPath:      getEnv("PROMPT_PATH", ""),
		},
		Storage: StorageConfig{
			Type:         strings.ToLower(getEnv("STORAGE_TYPE", StorageLocal)),
			LocalPath:    getEnv("STORAGE_LOCAL_PATH", "./analyzed_documents"),
			S3Bucket:     getEnv("AWS_S3_BUCKET", ""),
			S3Region:     getEnv("AWS_REGION", "us-east-1"),
			AWSAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		Similar: SimilarConfig{
			CaseFilesDir: getEnv("CASE_FILES_DIR", "./case-files"),
		},
		Queue: QueueConfig{
			Workers:    getEnvAsInt("QUEUE_WORKERS", 4),
			Size:       getEnvAsInt("QUEUE_SIZE", 64),
			JobTimeout: getEnvAsDuration("QUEUE_JOB_TIMEOUT", 5*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.OpenAIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	case ProviderGemini:
		if c.LLM.GeminiKey == "" {
			return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	case ProviderOllama:
	default:
		return NewAppError("CONFIG_ERROR", "unknown LLM_PROVIDER "+c.LLM.Provider, ErrInvalidInput)
	}
	switch c.Storage.Type {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return NewAppError("CONFIG_ERROR", "AWS_S3_BUCKET is required for s3 storage", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "unknown STORAGE_TYPE "+c.Storage.Type, ErrInvalidInput)
	}
	if c.Cache.Backend != CacheBackendDir && c.Cache.Backend != CacheBackendSQLite {
		return NewAppError("CONFIG_ERROR", "unknown CACHE_BACKEND "+c.Cache.Backend, ErrInvalidInput)
	}
	return nil
}
