package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rcastell/homestock/internal/adapter/handler"
	"github.com/rcastell/homestock/internal/adapter/storage"
	"github.com/rcastell/homestock/internal/config"
	"github.com/rcastell/homestock/internal/core/service"
	"github.com/rcastell/homestock/internal/metrics"
	"github.com/rcastell/homestock/internal/middleware"
	"github.com/rcastell/homestock/internal/port"
	"github.com/rcastell/homestock/internal/retry"
)

const (
	pingAttempts     = 5
	pingInitialDelay = time.Second
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load("4003")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.WithError(err).Fatal("open mysql")
	}
	defer db.Close()
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := retry.Run(ctx, pingAttempts, pingInitialDelay, db.PingContext); err != nil {
		log.WithError(err).Fatal("ping mysql")
	}
	log.Info("connected to mysql")

	store := storage.NewMySQLAdapter(db)

	// Without Redis, concurrent syncs for one owner race last-writer-wins.
	var cache port.CacheRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("ping redis")
		}
		defer rdb.Close()
		cache = storage.NewRedisAdapter(rdb)
		log.Info("connected to redis")
	} else {
		log.Warn("REDIS_ADDR unset, sync runs without owner locking")
	}

	h := handler.NewProductHandler(
		service.NewProductService(store),
		service.NewSyncService(store, cache),
		log,
	)

	r := mux.NewRouter()
	r.Use(middleware.Metrics("product"))
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	h.Register(r)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", server.Addr).Info("product service listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("product service stopped")
	}
	log.Info("product service stopped")
}
