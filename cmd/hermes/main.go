package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hermes-bot/hermes/internal/audit"
	"github.com/hermes-bot/hermes/internal/config"
	"github.com/hermes-bot/hermes/internal/database"
	"github.com/hermes-bot/hermes/internal/discord"
	apperrors "github.com/hermes-bot/hermes/internal/errors"
	"github.com/hermes-bot/hermes/internal/handler"
	"github.com/hermes-bot/hermes/internal/httputil"
	"github.com/hermes-bot/hermes/internal/jobs"
	"github.com/hermes-bot/hermes/internal/metrics"
	"github.com/hermes-bot/hermes/internal/middleware"
	"github.com/hermes-bot/hermes/internal/overseerr"
	"github.com/hermes-bot/hermes/internal/ratelimit"
	"github.com/hermes-bot/hermes/internal/redis"
	"github.com/hermes-bot/hermes/internal/repository"
	"github.com/hermes-bot/hermes/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	log.Info().
		Str("overseerrUrl", cfg.OverseerrBaseURL).
		Int("expiryMinutes", cfg.VerificationExpiryMinutes).
		Bool("guildCommands", cfg.AllowGuildCommands).
		Msg("starting hermes")

	var recorder audit.Recorder = audit.NewLogRecorder()
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare database schema")
		}
		cancel()
		log.Info().Msg("database connected, link history enabled")

		recorder = audit.NewDBRecorder(repository.NewLinkEventRepository(db.DB))
	}

	var limiter ratelimit.Limiter = ratelimit.Disabled{}
	if cfg.CommandRateLimitPerMin > 0 {
		if cfg.RedisURL != "" {
			redisClient, err := redis.NewClient(context.Background(), cfg.RedisURL)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to redis")
			}
			defer redisClient.Close()
			log.Info().Msg("redis connected, using shared command rate limit")

			limiter = ratelimit.NewRedisLimiter(redisClient, config.CommandRateLimitWindow)
		} else {
			limiter = ratelimit.NewMemoryLimiter(config.CommandRateLimitWindow)
		}
	}

	m := metrics.New()
	overseerrClient := overseerr.NewClient(cfg.OverseerrBaseURL, cfg.OverseerrAPIKey, config.ExternalCallTimeout)
	linkService := service.NewLinkService(
		repository.NewPendingLinkRepository(),
		service.NewAccountDirectory(overseerrClient),
		recorder,
		m,
		cfg.VerificationExpiry(),
	)
	commandHandler := handler.NewCommandHandler(
		linkService, limiter, m, cfg.CommandPrefix, cfg.AllowGuildCommands, cfg.CommandRateLimitPerMin,
	)

	sweepJob := jobs.NewSweepJob(linkService, config.SweepInterval)
	sweepJob.Start()
	defer sweepJob.Stop()

	bot, err := discord.NewBot(cfg.BotToken, commandHandler, cfg.AllowGuildCommands)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create discord bot")
	}
	if err := bot.Open(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to discord")
	}
	defer func() {
		if err := bot.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close discord session")
		}
	}()

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Method(http.MethodGet, "/health", handler.NewHealthHandler(linkService))
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, apperrors.NotFound("route"))
	})

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		IdleTimeout: config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting ops server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("hermes stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
