package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bizmatters/mindease/console/internal/auth"
	"github.com/bizmatters/mindease/console/internal/config"
	"github.com/bizmatters/mindease/console/internal/events"
	"github.com/bizmatters/mindease/console/internal/gateway"
	"github.com/bizmatters/mindease/console/internal/metrics"
	"github.com/bizmatters/mindease/console/internal/monitoring"
	"github.com/bizmatters/mindease/console/internal/orchestration"
	"github.com/bizmatters/mindease/console/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"

	_ "github.com/bizmatters/mindease/console/docs" // swagger docs
)

// @title MindEase Console API
// @version 1.0
// @description Session controller for the MindEase stress assessment, chat and monitoring console.
// @description
// @description Each browser page activation owns its own assessment or chat session. Scoring,
// @description explanation and chat replies come from the remote scoring service.

// @contact.name API Support
// @contact.email support@bizmatters.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

const serviceTokenSubject = "mindease-console"

func main() {
	configPath := flag.String("config", os.Getenv("MINDEASE_CONFIG"), "path to a YAML config file")
	flag.Parse()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	shutdownTracer, err := initTracer(cfg.Telemetry)
	if err != nil {
		logger.Fatalf("Failed to initialize tracer: %v", err)
	}

	sessionMetrics, err := metrics.NewSessionMetrics()
	if err != nil {
		logger.Fatalf("Failed to initialize metrics: %v", err)
	}

	clientOpts := []orchestration.ClientOption{orchestration.WithMetrics(sessionMetrics)}
	if cfg.Auth.ServiceSigningKey != "" {
		serviceJWT, err := auth.NewJWTManager(cfg.Auth.ServiceSigningKey, "service")
		if err != nil {
			logger.Fatalf("Failed to initialize service token signer: %v", err)
		}
		tokens := auth.NewServiceTokenSource(serviceJWT, serviceTokenSubject, cfg.Auth.ServiceTokenTTL)
		clientOpts = append(clientOpts, orchestration.WithTokenSource(tokens))
		logger.Info("Service tokens enabled for scoring calls")
	}
	client := orchestration.NewMindEaseClient(cfg.Scoring, clientOpts...)

	var source monitoring.RecordSource = client
	if cfg.Monitoring.Source == config.SourcePostgres {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		store, err := monitoring.NewPostgresSource(ctx, cfg.Monitoring.DatabaseURL)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to connect to record store: %v", err)
		}
		defer store.Close()
		source = store
		logger.Info("Monitoring reads directly from the record store")
	}
	aggregator := monitoring.NewAggregator(source, cfg.Monitoring.Source, sessionMetrics)

	bus := events.NewBus(0)
	handler := gateway.NewHandler(client, aggregator, bus, sessionMetrics,
		orchestration.WithTimeFormat(cfg.Chat.TimeFormat))

	routerOpts := gateway.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Swagger:        true,
	}
	if cfg.Auth.ConsoleSigningKey != "" {
		consoleJWT, err := auth.NewJWTManager(cfg.Auth.ConsoleSigningKey, "console")
		if err != nil {
			logger.Fatalf("Failed to initialize console token validator: %v", err)
		}
		routerOpts.ConsoleAuth = consoleJWT
		routerOpts.ConsoleAccessKey = cfg.Auth.ConsoleAccessKey
		routerOpts.ConsoleTokenTTL = cfg.Auth.ConsoleTokenTTL
		logger.Info("Console API requires a bearer token")
	}

	evictCtx, stopEviction := context.WithCancel(context.Background())
	defer stopEviction()
	if cfg.Session.IdleTTL > 0 {
		go handler.RunEviction(evictCtx, cfg.Session.IdleTTL, cfg.Session.SweepInterval)
		logger.WithFields(logger.Fields{
			"idle_ttl": cfg.Session.IdleTTL.String(),
		}).Info("Idle session eviction enabled")
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gateway.NewRouter(handler, routerOpts)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithFields(logger.Fields{
			"addr":    server.Addr,
			"scoring": cfg.Scoring.BaseURL,
			"records": cfg.Monitoring.Source,
		}).Info("Starting MindEase console server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")
	stopEviction()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	if err := shutdownTracer(ctx); err != nil {
		logger.Warnf("Failed to flush traces: %v", err)
	}

	logger.Info("Server exited")
}

// initTracer installs the global tracer provider and propagator. Spans are
// exported to stdout only when enabled.
func initTracer(cfg config.TelemetryConfig) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	opts := []trace.TracerProviderOption{}
	if cfg.StdoutTraces {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		opts = append(opts, trace.WithBatcher(exporter))
	}

	tp := trace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
