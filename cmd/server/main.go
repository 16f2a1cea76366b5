package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/adapters/bus"
	router "github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/adapters/http"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/app"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/app/orch"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/config"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	persister, err := store.Open(cfg.Persistence, cfg.RoomTTL)
	if err != nil {
		return fmt.Errorf("open persistence: %w", err)
	}
	defer persister.Close()

	var sinks []app.EventSink
	if cfg.NATS.URL != "" {
		pub, err := bus.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return err
		}
		defer pub.Close()
		sinks = append(sinks, pub)
	}
	journal := app.NewJournal(persister, cfg.Persistence.MaxRetries, sinks...)

	presence := app.NewDirectory()
	fanout := app.NewDispatcher(presence, app.PolicyByName(cfg.Backpressure))
	rooms := app.NewRoomManager(core.Deps{Notifier: fanout, Journal: journal}, cfg.RoomTTL)
	o := orch.New(presence, rooms, fanout, persister, cfg.DisconnectGrace)
	defer o.Stop()

	if n, err := store.DeactivateRooms(ctx, persister); err != nil {
		return fmt.Errorf("reconcile rooms: %w", err)
	} else if n > 0 {
		log.Info().Int("rooms", n).Msg("deactivated rooms left by a previous run")
	}

	g, gctx := errgroup.WithContext(ctx)
	r := router.SetupRouter(gctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	reaper := cron.New()
	if _, err := reaper.AddFunc(cfg.ReapSchedule, func() { o.Reap(time.Now()) }); err != nil {
		return fmt.Errorf("reap schedule %q: %w", cfg.ReapSchedule, err)
	}

	// The journal outlives the listener so leaves from closing sockets are flushed.
	journalCtx, stopJournal := context.WithCancel(context.Background())
	defer stopJournal()

	g.Go(func() error {
		return journal.Run(journalCtx)
	})
	g.Go(func() error {
		reaper.Start()
		<-gctx.Done()
		<-reaper.Stop().Done()
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("live server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		if err := o.Drain(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("connections still open at shutdown")
		}
		stopJournal()
		return nil
	})
	return g.Wait()
}
