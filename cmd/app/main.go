package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mrdinner/api"
	"mrdinner/cmd"
	httpin "mrdinner/internal/adapters/in/http"
	"mrdinner/internal/adapters/out/broker"
	"mrdinner/internal/adapters/out/pgnotify"
	"mrdinner/internal/adapters/out/postgres"
	"mrdinner/internal/adapters/out/postgres/catalogrepo"
	"mrdinner/internal/adapters/out/rabbitmq"
	"mrdinner/internal/core/application/events"
	"mrdinner/internal/core/application/usecases"
	"mrdinner/internal/jobs"
	"mrdinner/internal/platform/observability"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configs, err := cmd.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instruments, shutdownTelemetry, err := observability.Init(ctx, observability.Settings{
		ServiceName:  configs.OtelServiceName,
		Enabled:      configs.OtelEnabled,
		OTLPEndpoint: configs.OtelOTLPEndpoint,
		LogLevel:     slog.LevelInfo,
	})
	if err != nil {
		log.Fatalf("Error initializing observability: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTelemetry(flushCtx)
	}()
	logger := instruments.Logger

	gormDB := mustPrepareDatabase(ctx, configs, logger)
	hub := broker.NewHub(configs.SubscriberBuffer, logger)

	transport, err := newTransport(ctx, configs, hub, logger)
	if err != nil {
		log.Fatalf("Error initializing %s event transport: %v", configs.EventsTransport, err)
	}
	defer transport.close()

	app := cmd.NewCompositionRoot(gormDB, transport.publisher, instruments)
	orders := app.CreateOrderService()

	runner, err := transport.runner(orders)
	if err != nil {
		log.Fatalf("Error initializing event listener: %v", err)
	}

	jobManager := jobs.NewJobManager(hub, configs.KeepaliveSchedule, logger)
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	e, err := newWebServer(ctx, orders, hub, logger)
	if err != nil {
		log.Fatalf("Error building HTTP server: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "port", configs.HTTPPort, "events_transport", configs.EventsTransport)
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// Closing the hub ends open event streams so Shutdown does not wait on them.
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if runner != nil {
		g.Go(func() error {
			return runner(gctx)
		})
	}

	if err = g.Wait(); err != nil {
		logger.Error("Service stopped with error", "error", err)
		return
	}
	logger.Info("Service stopped")
}

func mustPrepareDatabase(ctx context.Context, configs cmd.Config, logger *slog.Logger) *gorm.DB {
	gormDB, err := postgres.Connect(ctx, configs.DSN())
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	if configs.AutoMigrate {
		if err = postgres.Migrate(ctx, gormDB); err != nil {
			log.Fatalf("Error migrating database: %v", err)
		}
	}

	if configs.CatalogSeedFile != "" {
		fx, err := catalogrepo.LoadFixtureFile(configs.CatalogSeedFile)
		if err != nil {
			log.Fatalf("Error reading catalog fixture: %v", err)
		}
		if err = catalogrepo.Seed(ctx, gormDB, fx); err != nil {
			log.Fatalf("Error seeding catalog: %v", err)
		}
		logger.Info("Catalog seeded", "file", configs.CatalogSeedFile)
	}
	return gormDB
}

// eventTransport is where committed events are published, and how events
// published by other instances reach the local hub.
type eventTransport struct {
	publisher events.Publisher
	runner    func(orders usecases.OrderService) (func(ctx context.Context) error, error)
	close     func()
}

func newTransport(ctx context.Context, configs cmd.Config, hub *broker.Hub, logger *slog.Logger) (eventTransport, error) {
	switch configs.EventsTransport {
	case cmd.TransportPostgres:
		pool, err := pgxpool.New(ctx, configs.DSN())
		if err != nil {
			return eventTransport{}, err
		}
		publisher, err := pgnotify.NewPublisher(pool, configs.EventsChannel, logger)
		if err != nil {
			pool.Close()
			return eventTransport{}, err
		}
		return eventTransport{
			publisher: publisher,
			runner: func(orders usecases.OrderService) (func(ctx context.Context) error, error) {
				listener, err := pgnotify.NewListener(pool, configs.EventsChannel, hub, orders, logger)
				if err != nil {
					return nil, err
				}
				return listener.Run, nil
			},
			close: pool.Close,
		}, nil

	case cmd.TransportRabbitMQ:
		publisher, err := rabbitmq.NewPublisher(configs.RabbitMQURL, configs.EventsChannel, logger)
		if err != nil {
			return eventTransport{}, err
		}
		return eventTransport{
			publisher: publisher,
			runner: func(usecases.OrderService) (func(ctx context.Context) error, error) {
				consumer, err := rabbitmq.NewConsumer(configs.RabbitMQURL, configs.EventsChannel, hub, logger)
				if err != nil {
					return nil, err
				}
				return consumer.Run, nil
			},
			close: func() { _ = publisher.Close() },
		}, nil

	default:
		return eventTransport{
			publisher: hub,
			runner: func(usecases.OrderService) (func(ctx context.Context) error, error) {
				return nil, nil
			},
			close: func() {},
		}, nil
	}
}

func newWebServer(ctx context.Context, orders usecases.OrderService, hub *broker.Hub, logger *slog.Logger) (*echo.Echo, error) {
	doc, err := api.Load(ctx)
	if err != nil {
		return nil, err
	}
	return httpin.NewRouter(httpin.NewServer(orders, hub, logger), doc, logger)
}
