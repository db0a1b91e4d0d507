package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	// documents.embedding is declared vector(768)
	documentEmbeddingDim = 768
)

// AppConfig is the process configuration, read from the environment.
type AppConfig struct {
	Port         string
	PostgresURI  string
	MongoURI     string
	MongoDB      string
	RedisAddr    string
	StoreBackend string

	GCPProjectID   string
	GCPLocation    string
	GeminiModel    string
	EmbeddingModel string
	EmbeddingDim   int

	CORSAllowOrigins []string

	SourceDir    string
	SourceBucket string
	SourcePrefix string
	PDFSources   []string
	CSVSources   []string

	ChunkMaxLength    int
	FollowUpThreshold float64
	TopK              int
	DisplayK          int
	EmbedCacheTTL     time.Duration

	IngestWorkers      int
	IngestEmbedBatch   int
	IngestEmbedRPS     float64
	IngestQueueWorkers int

	RequestTimeout time.Duration

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	LogLevel  string
	LogFormat string
}

// Load reads AppConfig from the environment, applying defaults. Every
// malformed value is reported, not just the first.
func Load() (*AppConfig, error) {
	var errs []error
	e := envReader{errs: &errs}

	cfg := &AppConfig{
		Port:         e.str("PORT", "8080"),
		PostgresURI:  e.str("POSTGRES_URI", ""),
		MongoURI:     e.str("MONGO_URI", ""),
		MongoDB:      e.str("MONGO_DB", "careerguide"),
		RedisAddr:    firstNonEmpty(os.Getenv("REDIS_ADDR"), os.Getenv("REDIS_URI"), os.Getenv("REDIS_URL")),
		StoreBackend: strings.ToLower(e.str("STORE_BACKEND", StorePostgres)),

		GCPProjectID:   firstNonEmpty(os.Getenv("GCP_PROJECT_ID"), os.Getenv("GOOGLE_CLOUD_PROJECT")),
		GCPLocation:    e.str("GCP_LOCATION", "us-central1"),
		GeminiModel:    e.str("GEMINI_MODEL", "gemini-1.5-flash"),
		EmbeddingModel: e.str("EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingDim:   e.intVal("EMBEDDING_DIM", documentEmbeddingDim),

		CORSAllowOrigins: e.list("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),

		SourceDir:    e.str("SOURCE_DIR", "./data"),
		SourceBucket: e.str("SOURCE_BUCKET", ""),
		SourcePrefix: e.str("SOURCE_PREFIX", ""),
		PDFSources:   e.list("PDF_SOURCES", nil),
		CSVSources:   e.list("CSV_SOURCES", nil),

		ChunkMaxLength:    e.intVal("CHUNK_MAX_LENGTH", 1000),
		FollowUpThreshold: e.floatVal("FOLLOWUP_THRESHOLD", 0.7),
		TopK:              e.intVal("TOP_K", 10),
		DisplayK:          e.intVal("DISPLAY_K", 3),
		EmbedCacheTTL:     e.duration("EMBED_CACHE_TTL", 24*time.Hour),

		IngestWorkers:      e.intVal("INGEST_WORKERS", 2),
		IngestEmbedBatch:   e.intVal("INGEST_EMBED_BATCH", 5),
		IngestEmbedRPS:     e.floatVal("INGEST_EMBED_RPS", 5),
		IngestQueueWorkers: e.intVal("INGEST_QUEUE_WORKERS", 1),

		RequestTimeout: e.duration("REQUEST_TIMEOUT", 60*time.Second),

		JWTSecret:   e.str("SUPABASE_JWT_SECRET", ""),
		JWTIssuer:   e.str("SUPABASE_JWT_ISSUER", ""),
		JWTAudience: e.str("SUPABASE_JWT_AUDIENCE", ""),

		LogLevel:  e.str("LOG_LEVEL", "info"),
		LogFormat: e.str("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}
	return cfg, errors.Join(errs...)
}

func (c *AppConfig) validate() error {
	var errs []error
	switch c.StoreBackend {
	case StorePostgres, StoreMongo:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StorePostgres, StoreMongo, c.StoreBackend))
	}
	if c.PostgresURI == "" {
		errs = append(errs, errors.New("POSTGRES_URI environment variable is not set"))
	}
	if c.StoreBackend == StoreMongo && c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required when STORE_BACKEND=mongo"))
	}
	if c.GCPProjectID == "" {
		errs = append(errs, errors.New("GCP_PROJECT_ID environment variable is not set"))
	}
	if c.EmbeddingDim != documentEmbeddingDim {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIM must be %d to match the documents table", documentEmbeddingDim))
	}
	if c.FollowUpThreshold < -1 || c.FollowUpThreshold > 1 {
		errs = append(errs, errors.New("FOLLOWUP_THRESHOLD must be within [-1, 1]"))
	}
	if c.TopK <= 0 || c.DisplayK <= 0 {
		errs = append(errs, errors.New("TOP_K and DISPLAY_K must be positive"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether bearer tokens are verified.
func (c *AppConfig) AuthEnabled() bool { return c.JWTSecret != "" }

type envReader struct {
	errs *[]error
}

func (e envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e envReader) intVal(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e envReader) floatVal(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e envReader) list(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
