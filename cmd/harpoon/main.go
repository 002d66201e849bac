package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/harpoonmedia/harpoon/internal/config"
	"github.com/harpoonmedia/harpoon/internal/downloads"
	"github.com/harpoonmedia/harpoon/internal/infrastructure/engine/aria2"
	natsrelay "github.com/harpoonmedia/harpoon/internal/infrastructure/events/nats"
	"github.com/harpoonmedia/harpoon/internal/infrastructure/indexer"
	"github.com/harpoonmedia/harpoon/internal/infrastructure/indexer/prowlarr"
	"github.com/harpoonmedia/harpoon/internal/infrastructure/organizer"
	"github.com/harpoonmedia/harpoon/internal/request/lifecycle"
	"github.com/harpoonmedia/harpoon/internal/request/repository"
	"github.com/harpoonmedia/harpoon/internal/request/search"
	"github.com/harpoonmedia/harpoon/pkg/database"
	"github.com/harpoonmedia/harpoon/pkg/events"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/logger"
)

func main() {
	// Optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	log.Info("starting harpoon",
		interfaces.String("environment", cfg.Server.Environment))

	db, err := database.New(database.Config{
		Driver:       cfg.Database.Driver,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxLifetime:  cfg.Database.MaxLifetime,
	})
	if err != nil {
		log.Fatal("failed to open database", interfaces.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", interfaces.Error(err))
	}

	repo := repository.NewGormRepository(db)
	bus := events.NewInMemoryEventBus(log)

	if cfg.NATS.URL != "" {
		natsClient, cleanup, err := natsrelay.NewClient(cfg.NATS, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", interfaces.Error(err))
		}
		defer cleanup()
		if err := natsrelay.NewRelay(natsClient, log).Attach(bus); err != nil {
			log.Fatal("failed to attach event relay", interfaces.Error(err))
		}
	}

	engine := aria2.NewClient(cfg.Engine.RPCURL, cfg.Engine.Secret, cfg.Engine.Timeout, log)
	indexerClient := prowlarr.NewClient(cfg.Indexer.URL, cfg.Indexer.APIKey, cfg.Indexer.Timeout, log)
	selector := indexer.NewSelector()

	var fileOrganizer interfaces.FileOrganizer
	if cfg.Organizer.URL != "" {
		fileOrganizer = organizer.NewClient(cfg.Organizer.URL, cfg.Organizer.Timeout, log)
	}

	aggregator := downloads.NewAggregator(engine, log)
	orch := lifecycle.NewOrchestrator(
		repo, engine, fileOrganizer, aggregator, bus, log, cfg.Scheduler.SearchBackoff)

	strategies := search.NewStrategies(search.Deps{
		Repo:                 repo,
		Orch:                 orch,
		Indexer:              indexerClient,
		Selector:             selector,
		Engine:               engine,
		Logger:               log,
		DownloadDir:          cfg.Engine.DownloadDir,
		EpisodeFallbackCount: cfg.Scheduler.EpisodeFallbackCount,
	})
	scheduler := search.NewScheduler(repo, orch, strategies, log, search.Options{
		SearchInterval:     cfg.Scheduler.SearchInterval,
		BatchSize:          cfg.Scheduler.BatchSize,
		BatchDelay:         cfg.Scheduler.BatchDelay,
		ExpiryInterval:     cfg.Scheduler.ExpiryInterval,
		ExpiryWindow:       cfg.Scheduler.ExpiryWindow,
		SearchLogRetention: cfg.Scheduler.SearchLogRetention,
	})
	tracker := downloads.NewTracker(repo, orch, aggregator, fileOrganizer, log, cfg.Tracker.PollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler.Start(ctx)
	tracker.Start(ctx)
	log.Info("harpoon running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTime)
	defer shutdownCancel()

	cancel()
	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		tracker.Stop()
		_ = bus.Stop()
		close(done)
	}()
	select {
	case <-done:
		log.Info("shutdown complete")
	case <-shutdownCtx.Done():
		log.Warn("shutdown timed out")
	}
}
