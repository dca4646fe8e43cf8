package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"recogym/internal/config"
	"recogym/internal/db"
	"recogym/internal/logger"
	"recogym/internal/notify"
	"recogym/internal/server"
	"recogym/internal/user"
)

// @title ReCo Gym API
// @version 1.0
// @description Members, subscriptions, classes, front-desk sales and the cash register of ReCo Gym.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	createAdmin := flag.String("create-admin", "", "create an admin account with this username and exit; the password is read from ADMIN_PASSWORD")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(logger.Options{
		Production: cfg.IsProduction(),
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
	}); err != nil {
		logger.Fatalf("Failed to initialise logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("starting ReCo Gym API", "env", cfg.Env)

	database, err := db.Connect(cfg.DatabaseURL, db.Options{
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("migrations completed", "path", cfg.MigrationsPath)

	if *createAdmin != "" {
		svc := user.NewService(user.NewRepository(database), cfg.JWTSecret)
		u, err := svc.CreateAdmin(context.Background(), *createAdmin, os.Getenv("ADMIN_PASSWORD"))
		if err != nil {
			logger.Fatalf("Failed to create admin: %v", err)
		}
		logger.Info("admin account created", "user_id", u.ID, "username", u.Username)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		rdb      *redis.Client
		notifier notify.Notifier = notify.Nop{}
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, notifications will be retried by the client", "addr", cfg.RedisAddr, "error", err)
		}

		queue := notify.New(rdb, notify.NewSMTPSender(notify.SMTPConfig{
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Pass:     cfg.SMTPPass,
		}), cfg.GymName)
		defer queue.Close()
		go queue.Start(ctx)
		notifier = queue
		logger.Info("notification worker initialised", "redis", cfg.RedisAddr)
	} else {
		logger.Warn("REDIS_ADDR not set, notifications disabled")
	}

	srv := server.New(database, rdb, cfg, notifier)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	cancel()

	logger.Info("server stopped")
}
