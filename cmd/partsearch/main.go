package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/eecar/partsearch/internal/config"
	dbRedis "github.com/eecar/partsearch/internal/db/redis"
	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/ranking"
	logpkg "github.com/eecar/partsearch/internal/logger"
	"github.com/eecar/partsearch/internal/metrics"
	"github.com/eecar/partsearch/internal/repository/catalog"
	"github.com/eecar/partsearch/internal/repository/embcache"
	"github.com/eecar/partsearch/internal/repository/knowledgebase"
	"github.com/eecar/partsearch/internal/repository/querycache"
	"github.com/eecar/partsearch/internal/repository/vectorindex"
	"github.com/eecar/partsearch/internal/repository/vectorstore"
	chiTransport "github.com/eecar/partsearch/internal/transport/chi"
	openaiTransport "github.com/eecar/partsearch/internal/transport/openai"
	"github.com/eecar/partsearch/internal/usecase/attribute"
	embeddinguc "github.com/eecar/partsearch/internal/usecase/embedding"
	"github.com/eecar/partsearch/internal/usecase/explain"
	healthuc "github.com/eecar/partsearch/internal/usecase/health"
	"github.com/eecar/partsearch/internal/usecase/query"
	"github.com/eecar/partsearch/internal/usecase/retrieval"
	searchuc "github.com/eecar/partsearch/internal/usecase/search"
	"github.com/eecar/partsearch/internal/version"
)

func main() {
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting partsearch API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("vector_index", cfg.Retrieval.VectorIndex.Enabled),
		zap.Bool("knowledge_base", cfg.Retrieval.KnowledgeBase.Enabled),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, config.Seconds(cfg.Database.ReadinessTimeout)); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterMetrics()

	// Provider clients
	embedClient := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	generator := openaiTransport.NewGenerator(&openaiTransport.Config{
		APIKey:  cfg.Generation.APIKey,
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
		Logger:  logger,
	}, openaiTransport.GeneratorOptions{
		RequestsPerMinute: cfg.Generation.RequestsPerMinute,
		Burst:             cfg.Generation.Burst,
		Temperature:       cfg.Generation.Temperature,
	})

	queryEmbedder := buildQueryEmbedder(cfg, embedClient, store, logger)
	docEmbedder := embeddinguc.NewInstrumentedEmbedder(embedClient, embeddinguc.Options{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    config.Seconds(cfg.Embedding.TimeoutSec),
	}, logger)

	// Repositories
	parts := catalog.New(store, cfg.Storage.KeyPrefix, logger)
	vectors := vectorstore.New(store, cfg.Storage.KeyPrefix)

	// Retrieval backends. Only non-nil backends go to the selector.
	legacy := retrieval.NewLegacy(vectors, retrieval.LegacyOptions{
		Concurrency:   cfg.Retrieval.Legacy.Concurrency,
		MaxCandidates: cfg.Retrieval.Legacy.MaxCandidates,
	}, metrics.LegacyTruncatedTotal, logger)

	var (
		backends   []retrieval.Backend
		indexPing  healthuc.Pinger
		closeIndex = func() error { return nil }
	)

	if vi := cfg.Retrieval.VectorIndex; vi.Enabled {
		switch vi.Driver {
		case "qdrant":
			q, err := vectorindex.NewQdrant(vectorindex.QdrantConfig{
				Host:       vi.Qdrant.Host,
				Port:       vi.Qdrant.Port,
				APIKey:     vi.Qdrant.APIKey,
				UseTLS:     vi.Qdrant.UseTLS,
				Collection: vi.Qdrant.Collection,
			})
			if err != nil {
				logger.Fatal("Failed to connect to qdrant", zap.Error(err))
			}
			backends = append(backends, retrieval.NewVectorIndex(q))
			indexPing = q
			closeIndex = q.Close
		default:
			backends = append(backends, retrieval.NewVectorIndex(vectorindex.NewRedis(store, vi.IndexName, vi.DocPrefix)))
		}
		logger.Info("Vector index configured", zap.String("driver", vi.Driver))
	}
	defer func() { _ = closeIndex() }()

	if kbCfg := cfg.Retrieval.KnowledgeBase; kbCfg.Enabled {
		kb, err := knowledgebase.New(knowledgebase.Options{
			Path:        kbCfg.Path,
			Compress:    kbCfg.Compress,
			Collection:  kbCfg.Collection,
			Concurrency: kbCfg.Concurrency,
		}, knowledgebase.EmbeddingFunc(docEmbedder), logger)
		if err != nil {
			logger.Fatal("Failed to open knowledge base", zap.Error(err))
		}
		if kbCfg.IndexOnStartup && kb.Count() == 0 {
			indexKnowledgeBase(ctx, kb, parts, logger)
		}
		backends = append(backends, retrieval.NewKnowledgeBase(kb))
	}

	var cache searchuc.Cache
	if cfg.Cache.Enabled {
		cache = querycache.New(store, querycache.Options{
			KeyPrefix: cfg.Storage.KeyPrefix,
			TTL:       cfg.Cache.TTL(),
			ModelUsed: cfg.Generation.Model,
		}, metrics.QueryCacheTotal, logger)
	}

	searchSvc := searchuc.New(searchuc.Deps{
		Cache: cache,
		Expander: query.NewExpander(generator, query.ExpanderOptions{
			Enabled:   cfg.Search.Expansion.Enabled,
			Timeout:   config.Seconds(cfg.Search.Expansion.TimeoutSec),
			MaxTokens: cfg.Search.Expansion.MaxTokens,
		}, metrics.ExpansionFallbacksTotal, logger),
		Embedder: query.NewMultiEmbedder(queryEmbedder, cfg.Search.Expansion.Concurrency, logger),
		Backends: retrieval.NewSelector(legacy, backends...),
		Catalog:  parts,
		Explainer: explain.New(generator, explain.Options{
			Enabled:   cfg.Search.Explanations.Enabled,
			Timeout:   config.Seconds(cfg.Search.Explanations.TimeoutSec),
			MaxTokens: cfg.Search.Explanations.MaxTokens,
		}, metrics.ExplanationFallbacksTotal, logger),
	}, searchuc.Options{
		Alpha:            cfg.Search.HybridAlpha(),
		BM25:             ranking.BM25{K1: cfg.Search.BM25.K1, B: cfg.Search.BM25.B},
		Overfetch:        cfg.Search.Overfetch,
		RetrievalTimeout: config.Seconds(cfg.Retrieval.TimeoutSec),
		UseKnowledgeBase: cfg.Retrieval.KnowledgeBase.Enabled,
		UseVectorIndex:   cfg.Retrieval.VectorIndex.Enabled,
	}, searchuc.Metrics{
		Selections: metrics.BackendSelectionsTotal,
		Retrieval:  metrics.RetrievalDuration,
	}, logger)

	attributeSvc := attribute.New(parts, attribute.Options{
		Timeout: config.Seconds(cfg.Retrieval.TimeoutSec),
	}, metrics.AttributeSearchDuration, logger)

	healthSvc := healthuc.New(0,
		healthuc.Component{Name: "database", Pinger: store, Critical: true},
		healthuc.Component{Name: "embedding", Pinger: healthuc.PingFunc(embedClient.HealthCheck)},
		healthuc.Component{Name: "generation", Pinger: healthuc.PingFunc(generator.HealthCheck)},
		healthuc.Component{Name: "vector_index", Pinger: indexPing},
	)

	server := chiTransport.NewServer(searchSvc, attributeSvc, healthSvc, cfg.Search.MaxTopK, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  config.Seconds(cfg.HTTP.ReadTimeoutSec),
		WriteTimeout: config.Seconds(cfg.HTTP.WriteTimeoutSec),
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Seconds(cfg.HTTP.ShutdownSec))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildQueryEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
func buildQueryEmbedder(
	cfg config.Config,
	base domain.Embedder,
	store *dbRedis.Store,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if cfg.Embedding.CacheTTLHours > 0 {
		embedder = embcache.New(base, store, embcache.Options{
			KeyPrefix:  cfg.Storage.KeyPrefix,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			TTL:        time.Duration(cfg.Embedding.CacheTTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, embeddinguc.Options{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    config.Seconds(cfg.Embedding.TimeoutSec),
	}, logger)

	// Outermost, so the cache key includes the instruction.
	if cfg.Embedding.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}
	return embedder
}

// indexKnowledgeBase loads the whole catalog into an empty knowledge base.
// Failures are logged; the backend then serves an empty corpus until restart.
func indexKnowledgeBase(ctx context.Context, kb *knowledgebase.KnowledgeBase, parts *catalog.Repo, logger *zap.Logger) {
	start := time.Now()
	all, err := parts.List(ctx)
	if err != nil {
		logger.Error("Failed to list catalog for knowledge base", zap.Error(err))
		return
	}
	if err := kb.Index(ctx, all); err != nil {
		logger.Error("Failed to index knowledge base", zap.Error(err))
		return
	}
	logger.Info("Knowledge base indexed",
		zap.Int("parts", len(all)),
		zap.Duration("duration", time.Since(start)),
	)
}
