package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"diadesorte/api"
	"diadesorte/application"
	"diadesorte/config"
	"diadesorte/database"
	"diadesorte/domain/events"
	"diadesorte/domain/interfaces"
	"diadesorte/domain/services"
	"diadesorte/infrastructure"
	"diadesorte/infrastructure/observability"
	"diadesorte/repository"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// cacheStore is satisfied by both the Redis and in-memory caches
type cacheStore interface {
	interfaces.DrawCache
	interfaces.BatchStore
}

// ConfigureLogging applies the configured level and format to logrus
func ConfigureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// Services bundles the domain services shared by the server and the CLI
type Services struct {
	DB         *database.DB
	Bus        *events.Bus
	Cache      cacheStore
	History    interfaces.HistoryService
	Analysis   interfaces.AnalysisService
	Generation interfaces.GenerationService
	Export     *services.ExportService

	closers []func()
}

// Close releases the connections opened by BuildServices in reverse order
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// BuildServices connects the database and cache and wires the domain services
func BuildServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s := &Services{DB: db}
	s.closers = append(s.closers, db.Close)

	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cache, closeCache, err := buildCache(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Cache = cache
	if closeCache != nil {
		s.closers = append(s.closers, closeCache)
	}

	s.Bus = events.NewBus()
	drawRepo := repository.NewDrawRepository(db)
	source := infrastructure.NewCaixaClient(cfg.CaixaAPIURL, cfg.CaixaRequestsPerSecond)

	orchestrator := services.NewBatchOrchestrator(
		services.NewLuckyMonthSelector(cfg.LuckyMonthMethod),
		services.NewTriggerNumberExtractor(cfg.TriggerMax, cfg.AbsenceGapThreshold),
		services.NewTicketGenerator(services.NewRuleSet(cfg.TriggerMinPresent), cfg.MaxAttempts),
		cfg.GenerationWorkers,
	)

	s.History = services.NewHistoryService(drawRepo, source, cache, s.Bus)
	s.Analysis = services.NewAnalysisService(drawRepo)
	s.Generation = services.NewGenerationService(
		s.History,
		s.Analysis,
		orchestrator,
		cache,
		s.Bus,
		observability.GetMetrics(),
		cfg.MaxQuantity,
	)
	s.Export = services.NewExportService(cache)

	return s, nil
}

func buildCache(ctx context.Context, cfg *config.Config) (cacheStore, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, keeping latest draw and last batch in memory")
		return infrastructure.NewMemoryCache(infrastructure.DefaultLatestDrawTTL), nil, nil
	}

	client, err := infrastructure.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Error closing Redis client")
		}
	}
	return infrastructure.NewRedisCache(client, infrastructure.DefaultLatestDrawTTL), closeFn, nil
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"addr":        cfg.HTTPAddr,
	}).Info("Starting Dia de Sorte advisor...")

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics")
		}
	}()

	svc, err := BuildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	health := api.HealthChecks{svc.DB}
	if cfg.NATSServers != "" {
		natsClient, err := connectEventForwarding(ctx, cfg, svc.Bus)
		if err != nil {
			return err
		}
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Warn("Error closing NATS connection")
			}
		}()
		health = append(health, natsClient)
	} else {
		log.Info("NATS_SERVERS not set, events stay in process")
	}

	if cfg.DiscordEnabled() {
		session, err := infrastructure.NewDiscordSession(cfg.DiscordToken)
		if err != nil {
			return fmt.Errorf("failed to start discord session: %w", err)
		}
		defer session.Close()
		application.RegisterContestNotifications(svc.Bus, infrastructure.NewDiscordNotifier(session, cfg.DiscordChannelID))
		log.WithField("channel_id", cfg.DiscordChannelID).Info("Discord contest announcements enabled")
	}

	worker, err := application.NewHistoryRefreshWorker(svc.History, observability.GetMetrics(), cfg.HistoryRefreshCron, cfg.HistoryRefreshLimit)
	if err != nil {
		return fmt.Errorf("failed to create history refresh worker: %w", err)
	}
	stopWorker := worker.Start(ctx)
	defer stopWorker()

	handlers := api.NewHandlers(svc.History, svc.Analysis, svc.Generation, svc.Export, observability.GetMetrics(), health)
	server := api.NewServer(cfg.HTTPAddr, api.NewRouter(handlers, api.NewHTTPMetrics()))

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error shutting down HTTP server")
	}

	log.Info("Dia de Sorte advisor stopped")
	return nil
}

func connectEventForwarding(ctx context.Context, cfg *config.Config, bus *events.Bus) (*infrastructure.NATSClient, error) {
	client := infrastructure.NewNATSClient(cfg.NATSServers)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := infrastructure.EnsureEventStream(client, mapper); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}

	infrastructure.NewNATSEventPublisher(client, mapper).ForwardFrom(bus)
	log.WithField("servers", cfg.NATSServers).Info("Forwarding domain events to NATS JetStream")
	return client, nil
}
