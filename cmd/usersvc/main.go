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
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rcastell/homestock/internal/adapter/handler"
	"github.com/rcastell/homestock/internal/adapter/storage"
	"github.com/rcastell/homestock/internal/config"
	"github.com/rcastell/homestock/internal/core/service"
	"github.com/rcastell/homestock/internal/metrics"
	"github.com/rcastell/homestock/internal/middleware"
	"github.com/rcastell/homestock/internal/retry"
)

const (
	pingAttempts     = 5
	pingInitialDelay = time.Second
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load("4002")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.WithError(err).Fatal("open mysql")
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := retry.Run(ctx, pingAttempts, pingInitialDelay, db.PingContext); err != nil {
		log.WithError(err).Fatal("ping mysql")
	}
	log.Info("connected to mysql")

	h := handler.NewUserHandler(
		service.NewUserService(storage.NewMySQLAdapter(db)),
		log,
	)

	r := mux.NewRouter()
	r.Use(middleware.Metrics("user"))
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	h.Register(r)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", server.Addr).Info("user service listening")
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
		log.WithError(err).Fatal("user service stopped")
	}
	log.Info("user service stopped")
}
