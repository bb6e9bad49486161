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

	"github.com/dkeye/Babel/internal/adapters/chat"
	router "github.com/dkeye/Babel/internal/adapters/http"
	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/config"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/dkeye/Babel/internal/translate"
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

	reg := app.NewRegistry()
	hub := app.NewHub(reg, app.SimplePolicy{})
	translator := translate.NewClient(cfg.TranslateURL, cfg.TranslateTimeout)

	ctl := &chat.Controller{
		Hub:         hub,
		Registry:    reg,
		Translator:  translator,
		Limiter:     chat.NewMessageRateLimiter(20, 10*time.Second),
		ReadLimit:   cfg.ReadLimit,
		PingPeriod:  cfg.PingPeriod,
		SendBuffer:  cfg.SendBuffer,
		QueueSize:   cfg.QueueSize,
		DefaultLang: domain.NormalizeLanguage(cfg.DefaultLang, domain.DefaultLanguage),
	}

	r := router.SetupRouter(ctx, cfg, ctl, reg, translator)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Babel relay started")
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
