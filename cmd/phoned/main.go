package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/verent/callsig/internal/adapters/httpapi"
	"github.com/verent/callsig/internal/adapters/rtc"
	"github.com/verent/callsig/internal/adapters/ws"
	"github.com/verent/callsig/internal/call"
	"github.com/verent/callsig/internal/client"
	"github.com/verent/callsig/internal/config"
	"github.com/verent/callsig/internal/core"
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
		log.Fatal().Err(err).Msg("failed to load config")
	}

	calls := &call.Factory{
		NewMedia: func(callID uuid.UUID) (core.MediaSession, error) {
			return rtc.NewMediaSession(rtc.DefaultConfig(), callID)
		},
	}
	cl := client.New(logObserver{}, calls, ws.New)

	if err := cl.Connect(cfg); err != nil {
		log.Fatal().Err(err).Msg("connect failed")
	}

	r := httpapi.SetupRouter(cfg, cl)
	addr := fmt.Sprintf(":%d", cfg.APIPort)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("phoned control API started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	cl.Disconnect()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("phoned exited gracefully")
}
