package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"pintcert/internal/audit"
	"pintcert/internal/certificate"
	certificatehandler "pintcert/internal/certificate/handler"
	"pintcert/internal/event"
	"pintcert/internal/eventconfig"
	"pintcert/internal/hours"
	"pintcert/internal/notify"
	participanthandler "pintcert/internal/participant/handler"
	participantservice "pintcert/internal/participant/service"
	participantstore "pintcert/internal/participant/store"
	"pintcert/internal/platform/config"
	"pintcert/internal/platform/httpserver"
	"pintcert/internal/platform/logger"
	"pintcert/internal/platform/metrics"
	"pintcert/internal/platform/postgres"
	platformredis "pintcert/internal/platform/redis"
	"pintcert/internal/privacy"
	"pintcert/internal/staff"
	staffhandler "pintcert/internal/staff/handler"
	httptransport "pintcert/internal/transport/http"
	"pintcert/internal/validation"
	validationhandler "pintcert/internal/validation/handler"
)

// participantStore is the union of what the participant service and the
// validation workflow need from one persistence backend.
type participantStore interface {
	participantservice.Store
	validation.Store
}

// main wires dependencies and supervises the server and the audit worker.
// Business logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("service exited", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	encryptionKey, err := cfg.EncryptionKeyBytes()
	if err != nil {
		return err
	}
	privacySvc, err := privacy.New(encryptionKey, []byte(cfg.LookupKey), []byte(cfg.CertificateSecret))
	if err != nil {
		return err
	}

	// Year configuration: file source, optionally cached in Redis.
	var configSource eventconfig.Source = eventconfig.NewFileSource(cfg.YearConfigPath)
	var redisClient *goredis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = platformredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		configSource = eventconfig.NewCachedSource(configSource, redisClient, cfg.ConfigCacheTTL, log)
	}
	resolver := eventconfig.NewResolver(configSource, log)
	calc := hours.NewCalculator(resolver)

	// Stores: PostgreSQL when configured, in-memory otherwise.
	var (
		events       participantservice.ReferenceData
		participants participantStore
		auditStore   audit.Store
		staffStore   staff.Store
	)
	health := map[string]httptransport.HealthChecker{}
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		events = event.NewPostgresStore(pool)
		participants = participantstore.NewPostgres(pool)
		auditStore = audit.NewPostgresStore(pool)
		staffStore = staff.NewPostgresStore(pool)
		health["postgres"] = func() error { return pool.Ping(context.Background()) }
	} else {
		log.Warn("no database configured, using in-memory stores")
		events = event.NewInMemoryStore()
		participants = participantstore.NewMemory()
		auditStore = audit.NewInMemoryStore()
		staffStore = staff.NewInMemoryStore()
	}
	if redisClient != nil {
		health["redis"] = func() error { return platformredis.Health(context.Background(), redisClient) }
	}

	// Audit pipeline: buffered publisher drained by one worker, optionally
	// mirrored to Kafka.
	auditPub := audit.NewPublisher(cfg.AuditBuffer, log)
	var sinks []audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	auditWorker := audit.NewWorker(auditStore, auditPub.Inbox(), log, sinks...)

	tokens := staff.NewTokenService(cfg.JWTSigningKey, "pintcert", "pintcert-staff")
	staffSvc := staff.NewService(staffStore, tokens)
	if cfg.BootstrapEmail != "" && cfg.BootstrapPassword != "" {
		if err := staff.SeedSuperadmin(ctx, staffStore, cfg.BootstrapEmail, cfg.BootstrapPassword); err != nil {
			return err
		}
	}

	participantSvc := participantservice.New(participants, events, privacySvc, calc,
		participantservice.WithLogger(log),
		participantservice.WithAuditPublisher(auditPub),
		participantservice.WithNotifier(notify.NewLogNotifier(log)),
	)
	workflow := validation.New(participants, events, privacySvc, calc,
		validation.WithLogger(log),
		validation.WithAuditPublisher(auditPub),
	)
	composer := certificate.NewComposer(resolver, privacySvc, calc, cfg.VerifyBaseURL)

	m := metrics.New()
	router := httptransport.NewRouter(health,
		participanthandler.New(participantSvc, staffSvc, log, m),
		certificatehandler.New(participantSvc, workflow, events, composer, log, m),
		validationhandler.New(workflow, log, m),
		staffhandler.New(staffSvc, log, m),
	)
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting pintcert", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := auditWorker.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
