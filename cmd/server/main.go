package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"conforma/internal/compliance"
	compliancehandler "conforma/internal/compliance/handler"
	compliancemetrics "conforma/internal/compliance/metrics"
	memorystore "conforma/internal/compliance/store/memory"
	postgresstore "conforma/internal/compliance/store/postgres"
	"conforma/internal/compliance/store/rediscache"
	jwttoken "conforma/internal/jwt_token"
	"conforma/internal/platform/config"
	"conforma/internal/platform/httpserver"
	kafkaconsumer "conforma/internal/platform/kafka/consumer"
	kafkaproducer "conforma/internal/platform/kafka/producer"
	"conforma/internal/platform/logger"
	redisplatform "conforma/internal/platform/redis"
	httptransport "conforma/internal/transport/http"
	"conforma/pkg/platform/audit"
	auditconsumer "conforma/pkg/platform/audit/consumer"
	auditpublisher "conforma/pkg/platform/audit/publisher"
	auditmemory "conforma/pkg/platform/audit/store/memory"
	auditpostgres "conforma/pkg/platform/audit/store/postgres"
	auditworker "conforma/pkg/platform/audit/worker"
)

const (
	shutdownTimeout  = 10 * time.Second
	auditPartitions  = 3
	auditEventBuffer = 1024
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		runStore   compliance.Store
		auditStore audit.Store
		outbox     *auditpostgres.Store
		db         *sql.DB
		svcOpts    []compliance.ServiceOption
	)
	checks := map[string]httptransport.HealthChecker{}

	if cfg.Postgres.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}

		runStore = postgresstore.New(db)
		outbox = auditpostgres.New(db)
		auditStore = outbox
		svcOpts = append(svcOpts, compliance.WithTxRunner(newPostgresTx(db)))
		checks["postgres"] = dbCheck{db: db}
	} else {
		log.Warn("POSTGRES_DSN not set, falling back to in-memory stores")
		runStore = memorystore.New()
		auditStore = auditmemory.NewInMemoryStore()
	}

	pub := auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithLogger(log),
		auditpublisher.WithMetrics(auditpublisher.NewMetrics()),
		auditpublisher.WithAsyncBuffer(auditEventBuffer),
	)
	defer pub.Close()

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		svcOpts = append(svcOpts, compliance.WithCache(rediscache.New(redisClient.Client, cfg.Redis.ResultTTL)))
		checks["redis"] = redisClient
	}

	g, gctx := errgroup.WithContext(ctx)

	// The outbox relay and the stream materializer only make sense with a
	// durable outbox behind them.
	if len(cfg.Kafka.Brokers) > 0 && outbox != nil {
		producer, err := kafkaproducer.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, kafkaproducer.WithLogger(log))
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, auditPartitions); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}

		relay := auditworker.NewWorker(outbox, producer, log)
		g.Go(func() error {
			if err := relay.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})

		materializer, err := kafkaconsumer.New(
			cfg.Kafka.Brokers,
			cfg.Kafka.Group,
			[]string{cfg.Kafka.Topic},
			auditconsumer.NewEventHandler(outbox, log),
			kafkaconsumer.WithLogger(log),
		)
		if err != nil {
			return fmt.Errorf("create kafka consumer: %w", err)
		}
		defer materializer.Close()
		g.Go(func() error {
			if err := materializer.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	refs := compliance.ReferenceIDs{
		CANTerminationWith: cfg.Catalog.CANTerminationWithID,
		CANTerminationWo:   cfg.Catalog.CANTerminationWoID,
		Camera:             cfg.Catalog.CameraElementID,
	}
	svcOpts = append(svcOpts,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliancemetrics.New()),
		compliance.WithAudit(pub),
	)
	service := compliance.NewService(compliance.NewCatalog(refs), runStore, svcOpts...)

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "conforma", "conforma")
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		JWTValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		Compliance:   compliancehandler.New(service, log),
		Checks:       checks,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	g.Go(func() error {
		log.Info("starting conforma", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := pub.Emit(ctx, audit.Event{Action: string(audit.EventServiceStarted)}); err != nil {
		log.Warn("service start audit event failed", "error", err)
	}

	<-gctx.Done()
	log.Info("shutting down")

	// Shutdown uses a fresh context; the signal context is already done.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := pub.Emit(shutdownCtx, audit.Event{Action: string(audit.EventServiceStopped)}); err != nil {
		log.Warn("service stop audit event failed", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	return g.Wait()
}

// dbCheck adapts *sql.DB to the router's health checker.
type dbCheck struct {
	db *sql.DB
}

func (c dbCheck) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
