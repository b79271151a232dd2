package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"go.uber.org/fx"

	"github.com/kevinnadar22/announce/cmd/server/factory"
	"github.com/kevinnadar22/announce/internal/app"
	"github.com/kevinnadar22/announce/internal/infra/tracing"
	transport "github.com/kevinnadar22/announce/internal/transport/http"
	"github.com/kevinnadar22/announce/pkg/config"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	fx.New(
		fx.Supply(cfg),
		fx.Provide(
			// Infrastructure
			factory.NewMongoClient,
			factory.NewArchive,
			factory.NewEventProducer,
			factory.NewDLQProducer,
			factory.NewKafkaConsumer,
			factory.NewCacheStore,
			factory.NewReadinessWaiter,

			// Upstream API
			factory.NewAPIClient,
			factory.NewAnnouncementSource,
			factory.NewReferenceSource,

			// Services
			factory.NewArchiver,
			factory.NewCollectionFetcher,
			factory.NewPagination,
			factory.NewSanitizer,
			factory.NewListingService,
			factory.NewDetailService,
			factory.NewLookupService,
			factory.NewInvalidationService,

			// HTTP Server
			factory.NewHandler,
			transport.NewHTTPServer,
		),
		fx.Invoke(
			SetupTracer,
			WaitForReady, // Block until enabled dependencies are ready
			RegisterHooks,
			StartServer,
		),
	).Run()
}

// --- Invokers ---

func RegisterHooks(lc fx.Lifecycle, invalidation *app.InvalidationService) {
	if invalidation == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			invalidation.Start(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return invalidation.Stop()
		},
	})
}

func SetupTracer(lc fx.Lifecycle, cfg *config.Config) error {
	ctx := context.Background()
	shutdown, err := tracing.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("Failed to initialize tracer", "error", err)
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Info("Shutting down tracer provider")
			return shutdown(ctx)
		},
	})
	return nil
}

// WaitForReady blocks until all enabled dependencies are ready.
func WaitForReady(waiter *app.ReadinessWaiter) error {
	return waiter.WaitForDependencies(context.Background())
}

func StartServer(lc fx.Lifecycle, server *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				slog.Info("Starting HTTP server", "address", server.Addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("HTTP server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
