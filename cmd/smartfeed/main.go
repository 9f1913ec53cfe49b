package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MosinFAM/smart-feed/internal/ai"
	"github.com/MosinFAM/smart-feed/internal/api"
	"github.com/MosinFAM/smart-feed/internal/config"
	"github.com/MosinFAM/smart-feed/internal/db"
	"github.com/MosinFAM/smart-feed/internal/events"
	"github.com/MosinFAM/smart-feed/internal/extract"
	"github.com/MosinFAM/smart-feed/internal/feed"
	"github.com/MosinFAM/smart-feed/internal/moderation"
	"github.com/MosinFAM/smart-feed/internal/storage"

	"github.com/rs/cors"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	store, err := openStorage(cfg.Storage, storage.Options{NewestFirst: cfg.Feed.NewestFirst})
	if err != nil {
		log.Fatal("Failed to open storage:", err)
	}
	defer store.Close()

	// Без ключа модель не настроена: вопросы получают фиксированный ответ
	var gen ai.Generator
	if cfg.AI.APIKey != "" {
		gemini, err := ai.NewGeminiGenerator(context.Background(), cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
		if err != nil {
			log.Printf("Failed to initialize AI client: %v", err)
		} else {
			gen = gemini
			log.Printf("AI model %s configured", cfg.AI.Model)
		}
	} else {
		log.Println("GENAI_API_KEY is not set, AI features are disabled")
	}

	var cache ai.Cache
	if cfg.Cache.RedisAddr != "" {
		if rc := ai.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL); rc != nil {
			defer rc.Close()
			cache = rc
		}
	}

	client := ai.NewClient(gen, cfg.AI.Timeout, cache)

	var modelGen ai.Generator
	if client.Configured() {
		modelGen = client
	}
	gate := moderation.NewGate(modelGen, moderation.Policy{
		Denylist:  cfg.Moderation.Denylist,
		Threshold: cfg.Moderation.Threshold,
		OnError:   cfg.Moderation.OnError,
	})
	extractor := extract.NewExtractor(extract.Options{
		ImageMode: cfg.AI.ImageMode,
		Vision:    modelGen,
	})

	hub := events.NewHub()
	controller := feed.NewController(store, client, gate, extractor, hub, feed.Options{
		SuggestQuestions: cfg.Feed.SuggestQuestions,
		InlineMediaText:  cfg.Feed.InlineMediaText,
		IDAttempts:       cfg.Feed.IDAttempts,
	})

	handler := &api.Handler{Feed: controller, Hub: hub, BaseURL: cfg.Server.BaseURL}
	limiter := api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	defer limiter.Stop()
	router := api.NewRouter(handler, limiter)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server is running on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Println("Forced shutdown:", err)
	}
	log.Println("Server stopped")
}

func openStorage(cfg config.StorageConfig, opts storage.Options) (storage.Storage, error) {
	switch cfg.Type {
	case "memory":
		log.Println("Using in-memory storage")
		return storage.NewMemoryStorage(opts), nil
	case "postgres":
		conn, err := db.Connect(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(conn, cfg.MigrationsDir); err != nil {
			conn.Close()
			return nil, err
		}
		return storage.NewPostgresStorage(conn, opts), nil
	case "mongo":
		return storage.NewMongoStorage(cfg.MongoURI, cfg.MongoDatabase, opts)
	case "file":
		log.Printf("Using file storage at %s", cfg.Path)
		return storage.NewFileStorage(cfg.Path, opts)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
