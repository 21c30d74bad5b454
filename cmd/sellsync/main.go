package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guarzo/sellsync/internal/analytics"
	"github.com/guarzo/sellsync/internal/config"
	"github.com/guarzo/sellsync/internal/ebay"
	"github.com/guarzo/sellsync/internal/scheduler"
	"github.com/guarzo/sellsync/internal/server"
	"github.com/guarzo/sellsync/internal/storage"
	syncsvc "github.com/guarzo/sellsync/internal/sync"
	"github.com/guarzo/sellsync/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "error"})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting sellsync")

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer store.Close()

	client := ebay.NewClient(ebay.Config{
		ClientID:     cfg.EbayClientID,
		ClientSecret: cfg.EbayClientSecret,
		RedirectURI:  cfg.EbayRedirectURI,
		Sandbox:      cfg.EbaySandbox,
	})
	tokens := ebay.NewTokenManager(client)

	svc := syncsvc.NewService(client, store, log)
	runner := syncsvc.NewRunner(svc, log)

	sched := scheduler.New(log)
	if cfg.SyncSchedule != "" {
		job := &autoSyncJob{
			runner: runner,
			tokens: tokens,
			opts: syncsvc.Options{
				DaysBack:   cfg.SyncDaysBack,
				BatchSize:  cfg.SyncPageSize,
				MaxRetries: cfg.SyncMaxRetries,
			},
			log: log,
		}
		if err := sched.AddJob(cfg.SyncSchedule, job); err != nil {
			log.Fatal().Err(err).Msg("failed to register auto-sync job")
		}
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Store:     store,
		Sync:      svc,
		Runner:    runner,
		Tokens:    tokens,
		Analytics: analytics.NewEngine(),
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

// autoSyncJob triggers a background sync on the configured schedule. An
// already-running sync is skipped, not forced.
type autoSyncJob struct {
	runner *syncsvc.Runner
	tokens *ebay.TokenManager
	opts   syncsvc.Options
	log    zerolog.Logger
}

func (j *autoSyncJob) Name() string { return "auto-sync" }

func (j *autoSyncJob) Run() error {
	token, err := j.tokens.AccessToken(context.Background())
	if err != nil {
		if errors.Is(err, ebay.ErrNoTokens) {
			return nil // nothing to do until the account is connected
		}
		return err
	}

	job, err := j.runner.Trigger(token, j.opts)
	if errors.Is(err, syncsvc.ErrSyncInProgress) {
		j.log.Debug().Msg("scheduled sync skipped, sync already running")
		return nil
	}
	if err != nil {
		return err
	}
	j.log.Info().Str("job_id", job.ID).Int("days_back", j.opts.DaysBack).Msg("scheduled sync started")
	return nil
}
