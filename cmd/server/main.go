package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/catalog"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/config"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/engine"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/generators"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/logging"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/prompts"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/storage"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// .env is optional outside development
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, closeCatalog, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to load game data", zap.String("source", cfg.Catalog.Source), zap.Error(err))
	}
	defer closeCatalog()
	logger.Info("game data loaded", zap.String("source", cfg.Catalog.Source), zap.Int("questions", cat.QuestionCount()))

	templates := prompts.NewTemplateEngine()
	if err := templates.InitializeDefaultTemplates(); err != nil {
		logger.Fatal("failed to register prompt templates", zap.Error(err))
	}

	if cfg.AI.Dialogue.APIKey == "" {
		logger.Warn("no dialogue API key configured, replies will use fallback lines")
	}
	dialogue := generators.NewDialogueClient(generators.DialogueConfig{
		APIKey:      cfg.AI.Dialogue.APIKey,
		BaseURL:     cfg.AI.Dialogue.BaseURL,
		Model:       cfg.AI.Dialogue.Model,
		Temperature: float32(cfg.AI.Dialogue.Temperature),
		MaxTokens:   cfg.AI.Dialogue.MaxTokens,
		Timeout:     cfg.AI.Dialogue.Timeout,
		MaxRetries:  cfg.AI.Dialogue.MaxRetries,
	}, templates, logger)

	backend := newImageBackend(ctx, cfg.AI.Image, logger)
	queue := generators.NewImageQueue(backend, cfg.Queue.MaxWorkers, cfg.Queue.MaxQueueSize, logger)
	queue.Start()
	defer queue.Stop()

	var cache *generators.ImageCache
	if cfg.Cache.Directory != "" {
		cache = generators.NewImageCache(cfg.Cache.Directory, cfg.Cache.MaxEntries, cfg.Cache.TTL)
		if err := cache.Initialize(ctx); err != nil {
			logger.Warn("portrait cache disabled", zap.Error(err))
			cache = nil
		} else {
			go cleanCache(ctx, cache, logger)
		}
	}

	studio := generators.NewPortraitStudio(queue, cache, templates, cfg.AI.Image.Width, cfg.AI.Image.Height, logger)

	var (
		recorder interfaces.EndingRecorder
		stats    web.EndingStatsSource
	)
	if cfg.Database.Redis.Enabled {
		redisStore, err := storage.NewRedisStore(ctx, cfg.Database.Redis)
		if err != nil {
			logger.Warn("ending statistics disabled", zap.Error(err))
		} else {
			defer redisStore.Close()
			recorder, stats = redisStore, redisStore
			logger.Info("redis connected", zap.String("addr", cfg.Database.Redis.Addr()))
		}
	}

	newController := func() *engine.Controller {
		opts := []engine.Option{engine.WithLogger(logger.Named("controller"))}
		if recorder != nil {
			opts = append(opts, engine.WithEndingRecorder(recorder))
		}
		return engine.NewController(cat, dialogue, studio, rand.New(rand.NewSource(time.Now().UnixNano())), opts...)
	}

	hub := web.NewPlayHub(logger)
	go hub.Run(ctx)

	handlers := web.NewHandlers(ctx, web.Deps{
		Catalog:       cat,
		NewController: newController,
		Hub:           hub,
		Stats:         stats,
		Queue:         queue,
		Cache:         cache,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      web.NewRouter(handlers),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

// loadCatalog returns the game data from the configured source and a close func for its connection
func loadCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*catalog.Catalog, func(), error) {
	noop := func() {}

	switch cfg.Catalog.Source {
	case config.CatalogFiles:
		cat, err := catalog.LoadFiles(cfg.Catalog.QuestionsFile, cfg.Catalog.TraitsFile)
		return cat, noop, err

	case config.CatalogMySQL:
		store, err := storage.NewMySQLStore(cfg.Database.MySQL, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("connect mysql: %w", err)
		}
		closeStore := func() { _ = store.Close() }

		defaults, err := catalog.LoadDefault()
		if err != nil {
			closeStore()
			return nil, noop, err
		}
		if err := store.SeedCatalog(ctx, defaults); err != nil {
			closeStore()
			return nil, noop, fmt.Errorf("seed catalog: %w", err)
		}
		cat, err := store.LoadCatalog(ctx)
		if err != nil {
			closeStore()
			return nil, noop, err
		}
		return cat, closeStore, nil

	default:
		cat, err := catalog.LoadDefault()
		return cat, noop, err
	}
}

func newImageBackend(ctx context.Context, cfg config.ImageConfig, logger *zap.Logger) interfaces.ImageBackend {
	if cfg.Backend == config.ImageBackendOpenAI {
		return generators.NewOpenAIImageBackend(generators.OpenAIImageConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		})
	}

	comfy := generators.NewComfyUIClient(generators.ComfyUIConfig{
		BaseURL:      cfg.ComfyUI.BaseURL,
		Checkpoint:   cfg.ComfyUI.Checkpoint,
		Steps:        cfg.ComfyUI.Steps,
		CFGScale:     cfg.ComfyUI.CFGScale,
		SamplerName:  cfg.ComfyUI.Sampler,
		Scheduler:    cfg.ComfyUI.Scheduler,
		PollInterval: cfg.ComfyUI.PollInterval,
	}, logger)

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := comfy.HealthCheck(checkCtx); err != nil {
		logger.Warn("ComfyUI not reachable, character setup will fail until it is", zap.String("url", cfg.ComfyUI.BaseURL), zap.Error(err))
	}
	return comfy
}

func cleanCache(ctx context.Context, cache *generators.ImageCache, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := cache.CleanExpired(ctx); n > 0 {
				logger.Info("expired portraits removed", zap.Int("count", n))
			}
		}
	}
}
