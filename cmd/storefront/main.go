package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/events"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/page"
	"github.com/fjod/go_cart/storefront/internal/shipping"
	"github.com/fjod/go_cart/storefront/internal/store"
)

func main() {
	cfg, err := config.Load(getEnv("STOREFRONT_CONFIG", ""))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	ctx := context.Background()
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	kv, closeKV, err := openStore(ctx, cfg)
	if err != nil {
		lg.Error("failed to open store", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	closers = append(closers, closeKV)
	lg.Info("store ready", "backend", cfg.Storage.Backend, "origin", cfg.Origin)

	source, closeCatalog, err := openCatalog(cfg)
	if err != nil {
		lg.Error("failed to open catalog", "backend", cfg.Catalog.Backend, "error", err)
		os.Exit(1)
	}
	closers = append(closers, closeCatalog)

	var resolver shipping.Resolver = shipping.NewViaCEPClient(shipping.ClientConfig{
		BaseURL:     cfg.Shipping.ViaCEPURL,
		Timeout:     cfg.Shipping.Timeout,
		MaxFailures: cfg.Shipping.MaxFailures,
		OpenTimeout: cfg.Shipping.OpenTimeout,
		Logger:      lg,
	})
	if cfg.Shipping.CacheAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Shipping.CacheAddr})
		closers = append(closers, func() { redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			lg.Warn("address cache unavailable, resolving without it", "error", err)
		} else {
			resolver = shipping.NewCachedResolver(resolver, cache.NewRedisCache(redisClient, cfg.Shipping.CacheTTL), lg)
		}
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Origin, cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		closers = append(closers, func() {
			if err := kp.Close(); err != nil {
				lg.Warn("failed to close kafka publisher", "error", err)
			}
		})
		publisher = kp
	}

	controller, err := page.Open(ctx, page.Config{
		Catalog:            source,
		ProductID:          cfg.ProductID,
		Store:              kv,
		Resolver:           resolver,
		EnableCart:         cfg.Page.EnableCart,
		Publisher:          publisher,
		SnapshotWindow:     cfg.Page.SnapshotWindow,
		NotifyLifetime:     cfg.Page.NotifyLifetime,
		StrictAvailability: cfg.Page.StrictAvailability,
		Logger:             lg,
	})
	if err != nil {
		lg.Error("failed to open product page", "product_id", cfg.ProductID, "error", err)
		os.Exit(1)
	}
	closers = append(closers, controller.Close)

	handler := h.NewPageHandler(controller, cfg.HTTP.RequestTimeout, lg)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      h.NewRouter(handler, cfg.HTTP.RequestTimeout, lg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("storefront starting", "port", cfg.HTTP.Port, "cart", cfg.Page.EnableCart)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", "error", err)
	}
	lg.Info("server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (store.KV, func(), error) {
	switch cfg.Storage.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Storage.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return store.NewRedisStore(client, cfg.Origin), func() { client.Close() }, nil
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath, cfg.Origin)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "mongo":
		db, err := store.ConnectMongoDB(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewMongoStore(db, cfg.Origin)
		if err := s.CreateIndexes(ctx); err != nil {
			slog.Warn("failed to create mongo indexes", "error", err)
		}
		return s, func() { db.Client().Disconnect(context.Background()) }, nil
	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}

func openCatalog(cfg *config.Config) (catalog.Source, func(), error) {
	if cfg.Catalog.Backend != "sqlite" {
		return catalog.NewStaticSource(catalog.DemoProduct()), func() {}, nil
	}
	src, err := catalog.NewSQLiteSource(cfg.Catalog.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	if err := src.RunMigrations(); err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("catalog migrations: %w", err)
	}
	return src, func() { src.Close() }, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
