package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/mail-dispatch/internal/api"
	"github.com/ignite/mail-dispatch/internal/config"
	"github.com/ignite/mail-dispatch/internal/dispatch"
	"github.com/ignite/mail-dispatch/internal/pkg/distlock"
	"github.com/ignite/mail-dispatch/internal/pkg/logger"
	"github.com/ignite/mail-dispatch/internal/repository/postgres"
	"github.com/ignite/mail-dispatch/internal/ses"
	"github.com/ignite/mail-dispatch/internal/sesmail"
	"github.com/ignite/mail-dispatch/internal/sigv4"
	"github.com/ignite/mail-dispatch/internal/templates"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Fatalf("Database unreachable: %v", err)
	}
	cancel()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis connection failed, falling back to PG advisory locks", "error", err)
			redisClient.Close()
			redisClient = nil
		}
		cancel()
	}

	creds, err := sigv4.NewCredentials(cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region, "ses")
	if err != nil {
		log.Fatalf("Invalid SES credentials: %v", err)
	}

	transportOpts := []sesmail.Option{
		sesmail.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.SES.TimeoutSeconds) * time.Second}),
	}
	if cfg.SES.Endpoint != "" {
		transportOpts = append(transportOpts, sesmail.WithEndpoint(cfg.SES.Endpoint))
	}
	transport := sesmail.NewClient(creds, transportOpts...)

	subscriberRepo := postgres.NewSubscriberRepo(db)
	campaignRepo := postgres.NewCampaignRepo(db)

	lockTTL := cfg.Dispatch.LockTTL()
	dispatcher := dispatch.New(subscriberRepo, campaignRepo, transport,
		dispatch.WithDelay(cfg.Dispatch.Delay()),
		dispatch.WithLockFactory(func(campaignID string) distlock.DistLock {
			return distlock.ForCampaign(redisClient, db, campaignID, lockTTL)
		}),
		// Renew well inside the TTL so long runs never outlive the lock.
		dispatch.WithLockExtension(lockTTL/3),
	)

	var quota api.QuotaService
	if sesClient, err := ses.NewClient(context.Background(), cfg.SES); err != nil {
		logger.Warn("quota monitor unavailable", "error", err)
	} else {
		quota = sesClient
	}

	handlers := api.NewHandlers(dispatcher, campaignRepo, templates.NewTemplateService(), quota)
	server := api.NewServer(cfg.Server, handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.Info("server listening", "addr", addr, "region", cfg.SES.Region)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
}
