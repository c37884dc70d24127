package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Relay/internal/adapters/http"
	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/app/orch"
	_ "github.com/dkeye/Relay/internal/communicator/csgo"
	"github.com/dkeye/Relay/internal/config"
	"github.com/dkeye/Relay/internal/domain"
)

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFile == "" {
		return
	}
	var console io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, file)).With().Timestamp().Logger()
	log.Info().Str("file", cfg.LogFile).Msg("logging to file")
}

// registerServers creates the configured backends and connects each one.
// A backend that cannot be reached stays registered as disconnected.
func registerServers(ctx context.Context, cfg *config.Config, reg *app.Registry) {
	for _, sc := range cfg.Servers {
		srv, err := app.CreateServer(sc.Name, domain.CommunicatorKind(sc.Kind))
		if err != nil {
			log.Error().Err(err).Str("name", sc.Name).Str("kind", sc.Kind).Msg("skip server")
			continue
		}
		reg.InsertServer(srv)

		dialCtx, cancel := ctx, context.CancelFunc(func() {})
		if cfg.DialTimeout > 0 {
			dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		}
		err = srv.Connect(dialCtx, sc.Address, sc.Password)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("server", srv.ID().String()).Str("name", sc.Name).Msg("initial connect failed")
			continue
		}
		log.Info().Str("server", srv.ID().String()).Str("name", sc.Name).Str("status", string(srv.Status())).Msg("server registered")
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logger is ready before config.Load so it can report.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	reg := app.NewRegistry()
	registerServers(ctx, cfg, reg)

	o := &orch.Orchestrator{
		Registry:       reg,
		Limiter:        orch.NewRateLimiter(cfg.RateLimit, cfg.RateInterval),
		CommandTimeout: cfg.CommandTimeout,
		ConnectTimeout: cfg.DialTimeout,
	}

	r := router.SetupRouter(ctx, cfg, o)
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Relay server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	reg.CloseServers()
	log.Info().Msg("Server exited gracefully")
}
