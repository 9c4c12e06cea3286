package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cuchito/internal/config"
	"cuchito/internal/infra"
	"cuchito/internal/middleware"
	"cuchito/internal/repository"
	"cuchito/internal/router"
	"cuchito/internal/service"
	"cuchito/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.AutoMigrate {
		if err := infra.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Msg("schema migrated")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_URL not set: product cache disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	usuarioRepo := repository.NewUsuarioRepository(db)
	authSvc := service.NewAuthService(usuarioRepo, repository.NewPerfilRepository(db), repository.NewRefreshTokenRepository(db), cfg)
	worker.StartTokenReaper(ctx, authSvc, cfg.TokenReapInterval())

	loginRL := middleware.NewRateLimiter(20, time.Minute)
	loginRL.StartPurger(ctx, 5*time.Minute)

	// Receipt e-mails: the pool is the composition root for worker handlers
	// and only runs when both a queue and an SMTP server are configured.
	deps := router.Deps{Redis: rdb, LoginLimiter: loginRL}
	var pool *worker.Pool
	mailer := infra.NewMailer(cfg)
	if rdb != nil && mailer != nil {
		mailCB := infra.NewCircuitBreaker(5, 60*time.Second)
		reciboSvc := service.NewReciboService(
			repository.NewOrdenRepository(db),
			infra.NewReceiptRenderer(cfg.BusinessName, cfg.Location()),
			cfg.ReceiptSpecialCategory,
		)
		pool = worker.NewPool(rdb)
		pool.Register(worker.JobReciboEmail, worker.NewReciboEmailWorker(reciboSvc, usuarioRepo, mailer, mailCB, cfg.BusinessName))
		pool.Start(ctx, cfg.WorkerPoolSize)

		deps.ReciboQueue = worker.NewDispatcher(rdb)
		deps.MailBreaker = mailCB
	} else {
		log.Warn().Msg("receipt e-mails disabled: requires REDIS_URL and SMTP_HOST")
	}

	r := router.New(cfg, db, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("cuchito backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	if pool != nil {
		pool.Wait()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}
