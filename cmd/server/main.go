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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/voicebridge/internal/adapters/http"
	"github.com/dkeye/voicebridge/internal/adapters/rtc"
	events "github.com/dkeye/voicebridge/internal/adapters/signal"
	"github.com/dkeye/voicebridge/internal/app"
	"github.com/dkeye/voicebridge/internal/app/orch"
	"github.com/dkeye/voicebridge/internal/config"
	"github.com/dkeye/voicebridge/internal/observability"
)

const serviceName = "voicebridge"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// .env is optional; real env wins
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR! %v\n", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	shutdownTracing, err := observability.Setup(ctx, cfg, serviceName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}

	lk := rtc.NewLiveKit(rtc.Options{
		URL:       cfg.RTCURL,
		APIKey:    cfg.Username,
		APISecret: cfg.Password,
		AccountID: cfg.AccountID,
		TokenTTL:  cfg.TokenTTL,
	})
	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	err = lk.Connect(connectCtx)
	connectCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rtc service")
	}

	hub := events.NewHub()
	o := orch.New(lk, app.NewPolicy(cfg.MaxParticipants), hub, cfg.SubscribeTimeout)
	o.Bind()
	hub.SetSnapshot(func() any { return o.Roster() })

	syncer := app.NewSyncer(o.Session, o.Registry, lk, o, cfg.StaleParticipantTTL, cfg.SyncInterval, log.Logger)
	syncer.Start(ctx)

	r := router.SetupRouter(ctx, cfg, o, lk, hub)
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("voicebridge listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	syncer.Stop()
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// JSON in release, human-friendly otherwise
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
