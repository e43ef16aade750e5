package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rcastell/homestock/internal/adapter/handler"
	"github.com/rcastell/homestock/internal/adapter/ocr"
	"github.com/rcastell/homestock/internal/config"
	"github.com/rcastell/homestock/internal/core/service"
	"github.com/rcastell/homestock/internal/metrics"
	"github.com/rcastell/homestock/internal/middleware"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load("4004")
	if cfg.FormRecognizerEndpoint == "" || cfg.FormRecognizerAPIKey == "" {
		log.Fatal("FORM_RECOGNIZER_ENDPOINT and FORM_RECOGNIZER_API_KEY are required")
	}

	h := handler.NewOCRHandler(
		service.NewOCRService(ocr.NewFormRecognizerClient(cfg.FormRecognizerEndpoint, cfg.FormRecognizerAPIKey)),
		log,
	)

	r := mux.NewRouter()
	r.Use(middleware.Metrics("ocr"))
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	h.Register(r)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", server.Addr).Info("ocr service listening")
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
		log.WithError(err).Fatal("ocr service stopped")
	}
	log.Info("ocr service stopped")
}
