package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/plantops/manualrag/config"
	"github.com/plantops/manualrag/controller"
	"github.com/plantops/manualrag/services"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.Debug)
	defer logger.Sync()

	if err := ensureRawDir(cfg.RawDir); err != nil {
		log.Fatalf("FATAL: Failed to create raw document directory: %v", err)
	}

	if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer sentry.Flush(2 * time.Second)

	redisClient := newRedisClient(cfg.RedisURL, logger)

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.ChromaURL))
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}
	defer func() {
		if err := chromaClient.Close(); err != nil {
			logger.Warn("failed to close chroma client", zap.Error(err))
		}
	}()

	embedder := services.NewOllamaEmbedder(httpClient, cfg.OllamaURL, cfg.EmbeddingModel)
	store := services.NewEmbeddingStore(chromaClient, embedder, cfg.ChromaCollection, cfg.ChunkSize, logger)

	ctx := context.Background()
	if err := store.AttachLatest(ctx); err != nil {
		logger.Warn("could not attach to existing collection, queries degrade until first reindex", zap.Error(err))
	}

	var extractor services.PageExtractor
	if cfg.OCRAPIKey != "" {
		extractor = services.NewOCRService(httpClient, cfg.OCRAPIURL, cfg.OCRAPIKey, cfg.OCRModel, logger)
	} else {
		logger.Info("no OCR_API_KEY set, using local pdf extraction")
		extractor = services.NewLocalExtractor(logger)
	}

	generator := newAnswerGenerator(ctx, cfg, logger)

	ingest := services.NewIngestService(extractor, cfg.ProcessedDir, logger)
	reindexer := services.NewReindexService(ingest, store, cfg.RawDir, logger)
	queryService := services.NewQueryService(store, generator, redisClient, cfg.CacheEnabled, cfg.TopK, logger)

	queryController := controller.NewQueryController(queryService)
	adminController := controller.NewAdminController(reindexer, cfg.RawDir, logger)

	// One detached background task rebuilds the index at startup so the
	// server is ready immediately.
	reindexer.StartBackground(ctx)

	if cfg.WatchRawDir {
		watcher := services.NewRawDirWatcher(reindexer, cfg.RawDir, logger)
		go watcher.Watch(ctx)
	}

	services.ServeMetrics(cfg.PrometheusPort, logger)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(controller.Recovery(logger))
	router.Use(controller.CORS(cfg.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		indexed, err := store.Count(c.Request.Context())
		if err != nil {
			indexed = -1
		}
		c.JSON(http.StatusOK, gin.H{
			"status":         "healthy",
			"service":        "manualrag",
			"indexed_chunks": indexed,
		})
	})
	router.GET("/metrics", gin.WrapH(services.MetricsHandler()))

	router.POST("/query", queryController.Query)

	admin := router.Group("/admin", controller.AuthRequired(cfg.AdminToken))
	{
		admin.POST("/reindex", adminController.Reindex)
		admin.POST("/reindex-sse", adminController.ReindexSSE)
		admin.POST("/upload", adminController.Upload)
		admin.DELETE("/document/:doc_id", adminController.DeleteDocument)
		admin.GET("/documents", adminController.ListDocuments)
	}

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

func ensureRawDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

func newLogger(debug bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("FATAL: Failed to create logger: %v", err)
	}
	return logger
}

func newRedisClient(url string, logger *zap.Logger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("invalid redis url, cache disabled", zap.Error(err))
		return nil
	}
	return redis.NewClient(opt)
}

func newAnswerGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) services.AnswerGenerator {
	switch cfg.LLMProvider {
	case "gemini":
		generator, err := services.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			log.Fatalf("FATAL: Failed to create gemini client: %v. Make sure GEMINI_API_KEY is set.", err)
		}
		return generator
	default:
		generator, err := services.NewGroqGenerator(cfg.GroqAPIURL, cfg.GroqAPIKey, cfg.GroqModel, logger)
		if err != nil {
			log.Fatalf("FATAL: Failed to create groq client: %v", err)
		}
		return generator
	}
}
