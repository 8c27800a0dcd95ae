package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/splitbase/backend/internal/auth"
	"github.com/splitbase/backend/internal/chain"
	"github.com/splitbase/backend/internal/config"
	"github.com/splitbase/backend/internal/events"
	"github.com/splitbase/backend/internal/insights"
	"github.com/splitbase/backend/internal/middleware"
	"github.com/splitbase/backend/internal/service"
	"github.com/splitbase/backend/internal/storage/sqlite"
	"github.com/splitbase/backend/pkg/logging"
)

func main() {
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// .env may carry LOG_LEVEL; re-apply now that it is loaded.
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()
	slog.Info("store ready", "path", cfg.Database.Path)

	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gateway, err := chain.Dial(dialCtx, cfg.Chain.RPCEndpoint, cfg.Chain.ChainID, cfg.Chain.USDCContract)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to chain RPC: %w", err)
	}
	defer gateway.Close()
	slog.Info("chain gateway ready", "endpoint", cfg.Chain.RPCEndpoint, "chainId", cfg.Chain.ChainID)

	var emitter events.Emitter = events.NoopEmitter{}
	if cfg.Kafka.BrokerAddress != "" {
		kafkaEmitter := events.NewKafkaEmitter(cfg.Kafka.BrokerAddress, cfg.Kafka.Topic, slog.Default())
		defer kafkaEmitter.Close()
		emitter = kafkaEmitter
		slog.Info("event emitter ready", "broker", cfg.Kafka.BrokerAddress, "topic", cfg.Kafka.Topic)
	}

	var model insights.TextGenerator
	if cfg.Insights.GeminiAPIKey != "" {
		model = insights.NewGeminiClient(cfg.Insights.GeminiAPIKey, cfg.Insights.GeminiModel, cfg.Insights.Timeout)
		slog.Info("insights model ready", "model", cfg.Insights.GeminiModel)
	}
	advisor := insights.NewAdvisor(model, slog.Default())

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authenticator := auth.NewAuthenticator(store, auth.NewNonceStore(cfg.Auth.NonceTTL), tokens, slog.Default())

	svc := service.New(store, authenticator, tokens, gateway, emitter, advisor, slog.Default())

	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(slog.Default()))
	router.Use(middleware.Metrics)
	router.Use(middleware.Timeout(cfg.HTTPTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/api/v1", svc.Routes)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTPTimeout,
		WriteTimeout:      cfg.HTTPTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
