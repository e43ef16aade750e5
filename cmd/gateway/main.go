package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rcastell/homestock/internal/config"
	"github.com/rcastell/homestock/internal/httpclient"
	"github.com/rcastell/homestock/internal/metrics"
	"github.com/rcastell/homestock/internal/middleware"
)

const (
	rateLimitPerSecond = 20
	rateLimitBurst     = 40
)

type gateway struct {
	auth    *httpclient.ServiceClient
	user    *httpclient.ServiceClient
	product *httpclient.ServiceClient
	ocr     *httpclient.ServiceClient
	log     *logrus.Logger
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load("4000")
	urls := cfg.ServiceURLs()

	gw := &gateway{
		auth:    httpclient.NewServiceClient(urls["auth"]),
		user:    httpclient.NewServiceClient(urls["user"]),
		product: httpclient.NewServiceClient(urls["product"]),
		ocr:     httpclient.NewServiceClient(urls["ocr"]),
		log:     log,
	}

	r := mux.NewRouter()
	r.Use(middleware.CORS)
	r.Use(middleware.Metrics("gateway"))
	r.Use(middleware.NewRateLimiter(rateLimitPerSecond, rateLimitBurst).Middleware)
	r.Use(middleware.Auth([]byte(cfg.JWTSecret), log,
		"/auth/register", "/auth/login", "/auth/changePassword", "/health", "/metrics"))

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", gw.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", gw.rewrite(gw.auth, "/login")).Methods(http.MethodPost)
	r.HandleFunc("/auth/changePassword", gw.rewrite(gw.auth, "/changePassword")).Methods(http.MethodPut)

	r.HandleFunc("/products/addProduct", gw.rewrite(gw.product, "/product")).Methods(http.MethodPost)
	r.HandleFunc("/products/getAllProducts", gw.getAllProducts).Methods(http.MethodGet)
	r.HandleFunc("/products/updateProduct/{id}", gw.productByID(http.MethodPut)).Methods(http.MethodPut)
	r.HandleFunc("/products/deleteProduct/{id}", gw.productByID(http.MethodDelete)).Methods(http.MethodDelete)
	r.HandleFunc("/products/syncInventory", gw.rewrite(gw.product, "/syncInventory")).Methods(http.MethodPost)

	r.HandleFunc("/user/{email}", gw.userByEmail).Methods(http.MethodGet, http.MethodPut)

	r.HandleFunc("/ocr/upload", gw.rewrite(gw.ocr, "/api/ocr/upload")).Methods(http.MethodPost)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", server.Addr).Info("gateway listening")
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
		log.WithError(err).Fatal("gateway stopped")
	}
	log.Info("gateway stopped")
}

// rewrite forwards the request body and headers to a backend under a new path.
func (g *gateway) rewrite(client *httpclient.ServiceClient, path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, `{"message":"unreadable request body"}`, http.StatusBadRequest)
			return
		}

		resp, err := client.Do(r.Context(), r.Method, path, body, r.Header)
		if err != nil {
			g.serviceUnavailable(w, err)
			return
		}
		httpclient.WriteResponse(w, resp)
	}
}

// register creates the credential on the auth service, then the profile on
// the user service.
func (g *gateway) register(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"message":"unreadable request body"}`, http.StatusBadRequest)
		return
	}

	authResp, err := g.auth.Do(r.Context(), http.MethodPost, "/register", body, r.Header)
	if err != nil {
		g.serviceUnavailable(w, err)
		return
	}
	if authResp.StatusCode != http.StatusCreated {
		httpclient.WriteResponse(w, authResp)
		return
	}

	userResp, err := g.user.Do(r.Context(), http.MethodPost, "/register", body, r.Header)
	if err != nil {
		g.log.WithError(err).Error("profile creation unreachable after credential creation")
		g.serviceUnavailable(w, err)
		return
	}
	if userResp.StatusCode != http.StatusCreated {
		g.log.WithField("status", userResp.StatusCode).Error("profile creation failed after credential creation")
		httpclient.WriteResponse(w, userResp)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"message": "User registered"})
}

// getAllProducts scopes the listing to the authenticated user.
func (g *gateway) getAllProducts(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"missing bearer token"}`, http.StatusUnauthorized)
		return
	}

	resp, err := g.product.Do(r.Context(), http.MethodGet, "/products?userId="+email, nil, r.Header)
	if err != nil {
		g.serviceUnavailable(w, err)
		return
	}
	httpclient.WriteResponse(w, resp)
}

func (g *gateway) productByID(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, `{"message":"unreadable request body"}`, http.StatusBadRequest)
			return
		}

		path := "/product/" + mux.Vars(r)["id"]
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}

		resp, err := g.product.Do(r.Context(), method, path, body, r.Header)
		if err != nil {
			g.serviceUnavailable(w, err)
			return
		}
		httpclient.WriteResponse(w, resp)
	}
}

// userByEmail passes through unchanged: the backend serves the same path.
func (g *gateway) userByEmail(w http.ResponseWriter, r *http.Request) {
	if err := g.user.Forward(w, r); err != nil {
		g.serviceUnavailable(w, err)
	}
}

func (g *gateway) serviceUnavailable(w http.ResponseWriter, err error) {
	g.log.WithError(err).Error("backend unreachable")
	http.Error(w, `{"message":"service unavailable"}`, http.StatusServiceUnavailable)
}
