package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server and the ingestion worker.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory (uploads, sqlite database)
	Data string
	// DSN points to where askdoc stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// JWTSecret signs access tokens
	JWTSecret string

	// Embedding configuration
	EmbeddingProvider string // ASKDOC_EMBEDDING_PROVIDER: "fake" or "openai"
	OpenAIAPIKey      string // ASKDOC_OPENAI_API_KEY
	OpenAIBaseURL     string // ASKDOC_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	EmbeddingModel    string // ASKDOC_EMBEDDING_MODEL (default: text-embedding-3-small)
	EmbeddingDim      int    // ASKDOC_EMBEDDING_DIM: dimension of the fake embedder (default: 384)

	// Pipeline configuration
	ChunkSize    int // characters per chunk (default: 500)
	ChunkOverlap int // overlapping characters between chunks (default: 50)
	MaxUploadMB  int // upload size ceiling (default: 25)

	// Retrieval configuration
	TopKDefault int // default number of chunks per answer (default: 3)
	TopKMax     int // hard ceiling for requested top_k (default: 10)

	// Usage configuration
	DailyQuestionLimit int // free questions per user per UTC day (default: 20)
	HistoryPageMax     int // max history page size (default: 100)

	// Worker configuration
	IngestInterval time.Duration // poll interval of the ingestion runner (default: 5s)
	IngestTimeout  time.Duration // wall-clock budget per ingestion run (default: 5m)
	StaleThreshold time.Duration // processing documents older than this are failed (default: 15m)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsOpenAIEnabled returns true if the real embedding backend is configured.
func (p *Profile) IsOpenAIEnabled() bool {
	return p.EmbeddingProvider == "openai" && p.OpenAIAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// FromEnv loads configuration from ASKDOC_* environment variables.
func (p *Profile) FromEnv() {
	if secret := os.Getenv("ASKDOC_JWT_SECRET"); secret != "" {
		p.JWTSecret = secret
	}

	p.EmbeddingProvider = getEnvOrDefault("ASKDOC_EMBEDDING_PROVIDER", "fake")
	p.OpenAIAPIKey = os.Getenv("ASKDOC_OPENAI_API_KEY")
	p.OpenAIBaseURL = getEnvOrDefault("ASKDOC_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.EmbeddingModel = getEnvOrDefault("ASKDOC_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingDim = getIntEnvOrDefault("ASKDOC_EMBEDDING_DIM", 384)

	p.ChunkSize = getIntEnvOrDefault("ASKDOC_CHUNK_SIZE", 500)
	p.ChunkOverlap = getIntEnvOrDefault("ASKDOC_CHUNK_OVERLAP", 50)
	p.MaxUploadMB = getIntEnvOrDefault("ASKDOC_MAX_UPLOAD_MB", 25)

	p.TopKDefault = getIntEnvOrDefault("ASKDOC_TOP_K_DEFAULT", 3)
	p.TopKMax = getIntEnvOrDefault("ASKDOC_TOP_K_MAX", 10)

	p.DailyQuestionLimit = getIntEnvOrDefault("ASKDOC_FREE_DAILY_QUESTION_LIMIT", 20)
	p.HistoryPageMax = getIntEnvOrDefault("ASKDOC_HISTORY_PAGE_MAX", 100)

	p.IngestInterval = getDurationEnvOrDefault("ASKDOC_INGEST_INTERVAL", 5*time.Second)
	p.IngestTimeout = getDurationEnvOrDefault("ASKDOC_INGEST_TIMEOUT", 5*time.Minute)
	p.StaleThreshold = getDurationEnvOrDefault("ASKDOC_STALE_THRESHOLD", 15*time.Minute)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// UploadDir returns the directory uploaded document bytes are saved to.
func (p *Profile) UploadDir() string {
	return filepath.Join(p.Data, "uploads")
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("askdoc_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if err := os.MkdirAll(p.UploadDir(), 0770); err != nil {
		return errors.Wrap(err, "failed to create upload directory")
	}

	if p.ChunkSize <= 0 || p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		return errors.Errorf("invalid chunking parameters: size %d, overlap %d", p.ChunkSize, p.ChunkOverlap)
	}
	if p.JWTSecret == "" {
		if p.Mode == "prod" {
			return errors.New("ASKDOC_JWT_SECRET is required in prod mode")
		}
		p.JWTSecret = "askdoc-dev-secret"
	}

	return nil
}
