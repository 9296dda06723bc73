package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/sequence"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/stock"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/store"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/users"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("db connect", "error", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, log); err != nil {
			log.Fatal("db migrate", "error", err)
		}
	}

	ledger := stock.NewLedger(pool)
	directory := users.NewDirectory(pool)
	orderRepo := order.NewPostgresRepository(pool)

	// --- cache ---
	cache := productCache(ctx, cfg, log)
	products := catalog.NewReader(ledger, cache, log)

	// --- AMQP ---
	pub, closePub := publisher(cfg, pool, log)
	defer closePub()

	carts := cart.NewService(store.NewCartTransactor(pool), products, log)
	orders := order.NewService(store.NewOrderTransactor(pool), orderRepo, pub, log)

	// --- HTTP ---
	h := httpapi.NewHandler(carts, orders, ledger, directory, auth.NewVerifier(cfg.JWTSecret), log)
	r := httpapi.NewRouter(h, log, httpapi.RouterOptions{RequestTimeout: cfg.RequestTimeout})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("http server failed", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	cancel()

	log.Info("shutdown complete")
}

func productCache(ctx context.Context, cfg config.Config, log *logger.Logger) catalog.Cache {
	if cfg.RedisAddr == "" {
		log.Info("product cache disabled")
		return catalog.NopCache{}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, product cache disabled", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return catalog.NopCache{}
	}
	log.Info("product cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ProductCacheTTL.String())
	return catalog.NewRedisCache(client, cfg.ProductCacheTTL)
}

func publisher(cfg config.Config, pool sequence.Store, log *logger.Logger) (order.Publisher, func()) {
	if cfg.RabbitURL == "" {
		log.Info("event publishing disabled")
		return events.NopPublisher{}, func() {}
	}
	conn, err := events.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("rabbitmq connect", "error", err)
	}
	pub, err := events.NewPublisher(conn, sequence.NewRepository(pool), events.PublisherOptions{
		PublishEnveloped: cfg.PublishEnveloped,
	})
	if err != nil {
		_ = conn.Close()
		log.Fatal("rabbitmq publisher", "error", err)
	}
	return pub, func() {
		_ = pub.Close()
		_ = conn.Close()
	}
}
