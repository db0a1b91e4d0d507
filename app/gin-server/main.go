package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/careerguide/config"
	"github.com/yoockh/careerguide/internal/api/handlers"
	"github.com/yoockh/careerguide/internal/api/middleware"
	"github.com/yoockh/careerguide/internal/api/routes"
	"github.com/yoockh/careerguide/internal/cache"
	"github.com/yoockh/careerguide/internal/extract"
	"github.com/yoockh/careerguide/internal/logger"
	"github.com/yoockh/careerguide/internal/providers/embedding"
	"github.com/yoockh/careerguide/internal/providers/llm"
	"github.com/yoockh/careerguide/internal/rag"
	"github.com/yoockh/careerguide/internal/repositories"
	mongorepo "github.com/yoockh/careerguide/internal/repositories/mongo"
	"github.com/yoockh/careerguide/internal/repositories/postgres"
	"github.com/yoockh/careerguide/internal/services"
	"github.com/yoockh/careerguide/internal/storage"
	"github.com/yoockh/careerguide/internal/workers"
)

const (
	// synchronous /pdf and /csv run inside the request
	serverWriteTimeout = 15 * time.Minute
	shutdownTimeout    = 15 * time.Second
	cacheNamespace     = "careerguide"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	lg := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg *config.AppConfig, lg *logrus.Logger) error {
	// Init PostgreSQL
	if err := config.InitPostgres(cfg.PostgresURI); err != nil {
		return err
	}
	defer config.ClosePostgres()
	if err := postgres.AutoMigrateAll(config.PostgresDB); err != nil {
		return err
	}
	lg.Info("PostgreSQL connected")

	docs := postgres.NewDocumentRepo(config.PostgresDB)
	runs := postgres.NewIngestionRunRepo(config.PostgresDB)

	var convos repositories.ConversationRepository
	switch cfg.StoreBackend {
	case config.StoreMongo:
		if err := config.InitMongo(cfg.MongoURI); err != nil {
			return err
		}
		defer config.CloseMongo(context.Background())
		if err := config.EnsureMongoIndexes(cfg.MongoDB); err != nil {
			return err
		}
		convos = mongorepo.NewConversationRepo(config.MongoClient.Database(cfg.MongoDB))
		lg.Info("MongoDB connected")
	default:
		convos = postgres.NewConversationRepo(config.PostgresDB)
	}

	// Redis is optional: without it embeddings are cached in process and
	// ?async=true ingestion is unavailable.
	var embedCache cache.Cache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		if err := config.InitRedis(cfg.RedisAddr); err != nil {
			lg.WithError(err).Warn("redis unavailable, continuing without it")
		} else {
			defer config.RedisClient.Close()
			embedCache = cache.NewRedisCache(config.RedisClient, cacheNamespace)
			lg.Info("Redis connected")
		}
	}

	vertexEmbedder, err := embedding.NewVertexEmbedder(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.EmbeddingModel, cfg.EmbeddingDim)
	if err != nil {
		return err
	}
	defer vertexEmbedder.Close()
	// documents and questions are embedded with different task types, so
	// they are cached apart
	docEmbedder := embedding.NewCachedEmbedder(vertexEmbedder, embedCache, cacheScope(vertexEmbedder), cfg.EmbedCacheTTL, lg)
	queryVertex := vertexEmbedder.WithTaskType(embedding.TaskRetrievalQuery)
	queryEmbedder := embedding.NewCachedEmbedder(queryVertex, embedCache, cacheScope(queryVertex), cfg.EmbedCacheTTL, lg)

	gemini, err := llm.NewVertexGemini(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.GeminiModel)
	if err != nil {
		return err
	}
	defer gemini.Close()

	var source storage.Source = storage.NewLocalSource(cfg.SourceDir)
	if cfg.SourceBucket != "" {
		gcs, err := storage.NewGCSSource(ctx, cfg.SourceBucket, cfg.SourcePrefix)
		if err != nil {
			return err
		}
		defer gcs.Close()
		source = gcs
	}
	lg.WithField("location", source.Location()).Info("document source ready")

	settings := services.DefaultRAGSettings()
	settings.TopK = cfg.TopK
	settings.DisplayK = cfg.DisplayK
	settings.FollowUp.Threshold = cfg.FollowUpThreshold

	querySvc := services.NewQueryService(docs, convos, queryEmbedder, gemini, settings, lg)
	convSvc := services.NewConversationService(convos)
	ingestSvc := services.NewIngestionService(
		source,
		rag.NewChunker(rag.WithMaxLength(cfg.ChunkMaxLength)),
		docEmbedder,
		docs,
		runs,
		services.IngestionSettings{
			Sources: map[extract.Kind][]string{
				extract.KindPDF: cfg.PDFSources,
				extract.KindCSV: cfg.CSVSources,
			},
			Dimensions: cfg.EmbeddingDim,
			BatchSize:  cfg.IngestEmbedBatch,
			Workers:    cfg.IngestWorkers,
			RPS:        cfg.IngestEmbedRPS,
		},
		lg,
	)

	var queue handlers.JobQueue
	if config.RedisClient != nil {
		q := workers.NewIngestQueue(config.RedisClient, cache.NewRedisCache(config.RedisClient, cacheNamespace))
		pool := &workers.IngestWorkerPool{
			Redis:      config.RedisClient,
			Queue:      q,
			Ingestion:  ingestSvc,
			NumWorkers: cfg.IngestQueueWorkers,
			Logger:     lg,
		}
		if err := pool.Start(ctx); err != nil {
			return err
		}
		queue = q
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(lg), middleware.CORS(cfg.CORSAllowOrigins))

	routes.RegisterRoutes(r, routes.Deps{
		Query:        handlers.NewQueryHandler(querySvc),
		Conversation: handlers.NewConversationHandler(convSvc),
		Ingest:       handlers.NewIngestHandler(ingestSvc, queue),
		WS:           handlers.NewChatWSHandler(querySvc, cfg.CORSAllowOrigins, cfg.RequestTimeout, lg),
		Auth: middleware.JWTConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		},
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      serverWriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.WithFields(logrus.Fields{"port": cfg.Port, "auth": cfg.AuthEnabled(), "store": cfg.StoreBackend}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func cacheScope(e *embedding.VertexEmbedder) string {
	return e.Model() + ":" + strings.ToLower(e.TaskType())
}
