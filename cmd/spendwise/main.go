package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendwise/internal/amqp"
	"spendwise/internal/cache"
	"spendwise/internal/config"
	"spendwise/internal/core"
	apphttp "spendwise/internal/http"
	"spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/rates"
	"spendwise/internal/scheduler"
	"spendwise/internal/services"
	"spendwise/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo})
	log.SetDefault(logger)

	logger.Info("Starting spendwise")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The notification queue is optional: without a broker, alerts are
	// still recorded but nothing is emailed.
	var publisher services.NotificationPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, alert notifications disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	budgets := services.NewBudgetService(repo, repo, repo, repo, publisher, logger)
	expenses := services.NewExpenseService(repo, budgets, logger)
	analytics := services.NewAnalyticsService(repo, repo,
		cache.NewLRU[core.Summary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL), logger)
	ratesClient := rates.NewClient(cfg.RatesBaseURL, cfg.RatesAPIKey,
		cache.NewLRU[rates.Rates](16, cfg.RatesTTL), logger)

	sched := scheduler.New(budgets, repo, repo, repo, publisherOrNoop(publisher, logger), scheduler.Config{
		BudgetSweepSpec:  cfg.BudgetSweepCron,
		WeeklyDigestSpec: cfg.WeeklyDigestCron,
	}, logger)
	if err := sched.Start(); err != nil {
		logger.Error("Failed to start scheduler", log.FieldError, err)
		os.Exit(1)
	}
	defer sched.Stop()

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Capacity:        cfg.RateLimitCapacity,
		RefillPerMinute: cfg.RateLimitRefillRate,
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Expenses:  expenses,
		Budgets:   budgets,
		Analytics: analytics,
		Rates:     ratesClient,
		Limiter:   limiter,
		JWTSecret: cfg.JWTSecret,
	}, logger)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting spendwise server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// publisherOrNoop keeps the scheduler running without a broker; digests are
// logged and dropped instead of enqueued.
func publisherOrNoop(p services.NotificationPublisher, logger *log.Logger) services.NotificationPublisher {
	if p != nil {
		return p
	}
	return noopPublisher{logger: logger.WithComponent(log.ComponentScheduler)}
}

type noopPublisher struct {
	logger *log.Logger
}

func (n noopPublisher) PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	n.logger.WarnContext(ctx, "No broker configured, dropping notification",
		log.FieldOwnerID, msg.OwnerID, "subject", msg.Subject)
	return nil
}
