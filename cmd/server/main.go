package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Karaoke/internal/adapters/audio"
	router "github.com/dkeye/Karaoke/internal/adapters/http"
	"github.com/dkeye/Karaoke/internal/adapters/identity"
	"github.com/dkeye/Karaoke/internal/adapters/profile"
	wssignal "github.com/dkeye/Karaoke/internal/adapters/signal"
	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/config"
	"github.com/dkeye/Karaoke/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	registry := app.NewRegistry()
	ctl := &wssignal.SignalWSController{
		Registry:   registry,
		Policy:     app.SimplePolicy{},
		MsgLimit:   wssignal.NewMsgRateLimiter(cfg.MsgRateLimit, cfg.MsgRateWindow),
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	}

	engine := audio.NewEngine(ctl)
	rooms := core.NewRoomManager(core.CoordinatorDeps{
		Signaling:  ctl,
		Audio:      engine,
		InviteTTL:  cfg.InviteTimeout,
		EventLogSz: cfg.EventLogSize,
		MaxSeats:   cfg.MaxSeatCount,
	})

	orch := &app.Orchestrator{
		Registry:              registry,
		Rooms:                 rooms,
		Audio:                 engine,
		Profiles:              profile.NewStore(),
		Identity:              identity.NewJWT(cfg.Secret, 24*time.Hour),
		DestroyRoomOnHostExit: cfg.DestroyRoomOnHostExit,
	}
	ctl.Orch = orch

	r := router.SetupRouter(ctx, cfg, ctl, rooms)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Karaoke room server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
