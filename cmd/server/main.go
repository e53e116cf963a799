package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eliechat/internal/apitoken"
	"eliechat/internal/app"
	"eliechat/internal/config"
	"eliechat/internal/netcheck"
	"eliechat/internal/ratelimit"
	"eliechat/internal/server"
	"eliechat/internal/util"
	"eliechat/pkg/queue"
	"eliechat/pkg/storage"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	objects, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	jobs, err := queue.NewRedisJobQueue(queue.RedisQueueConfig{
		Addr:       cfg.RedisAddr,
		Password:   cfg.RedisPassword,
		Stream:     cfg.QueueName,
		Group:      cfg.QueueGroup,
		MaxRetries: cfg.QueueMaxRetries,
		RetryDelay: time.Duration(cfg.QueueRetryDelaySeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to init job queue: %v", err)
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:    cfg.DatabaseURL,
		AssistantURL:   cfg.AssistantBaseURL,
		Prober:         netcheck.NewTCPProber(cfg.ProbeAddr, time.Duration(cfg.ProbeTimeoutSeconds)*time.Second),
		PollInterval:   time.Duration(cfg.PollIntervalSeconds) * time.Second,
		PollTimeout:    time.Duration(cfg.PollTimeoutSeconds) * time.Second,
		ReadinessDelay: time.Duration(cfg.ReadinessDelaySeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	tokens, err := apitoken.NewManager(apitoken.Config{
		Secret: cfg.AuthTokenSecret,
		TTL:    time.Duration(cfg.AuthTokenTTLMinutes) * time.Minute,
	})
	if err != nil {
		log.Fatalf("failed to init token manager: %v", err)
	}
	bootstrap, err := tokens.Sign("local")
	if err != nil {
		log.Fatalf("failed to sign bootstrap token: %v", err)
	}
	slog.Info("bootstrap API token issued", "subject", "local", "token", bootstrap)

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs.Start(ctx, cfg.QueueConcurrency, app.IngestJobHandler(appCore, objects, jobs))

	httpServer := server.New(server.Config{
		App:            appCore,
		Tokens:         tokens,
		Limiter:        limiter,
		Objects:        objects,
		Queue:          jobs,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "err", err)
		}
	}()

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
