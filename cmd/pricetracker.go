package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"pricetracker/internal/client"
	"pricetracker/internal/configuration"
	"pricetracker/internal/database"
	"pricetracker/internal/logger"
	"pricetracker/internal/monitor"
	"pricetracker/internal/server"
)

func main() {
	if err := runApp(); err != nil {
		time.Sleep(10 * time.Second)
		os.Exit(1)
	}
}

func runApp() (err error) {
	appContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logOutput := io.Writer(os.Stdout)
	appLogger := logger.NewLogger(logger.LevelInfo, logOutput)

	defer func() {
		if r := recover(); r != nil {
			appLogger.Errorf("APPLICATION CRASHED: %+v", r)
		}
	}()

	config, err := configuration.GetConfig("config.toml")
	if err != nil {
		appLogger.Error("Error getting configuration from config.toml:", err)
		return err
	}

	if config.LogToFile {
		logFile, err := os.OpenFile("pricetracker_backend.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			appLogger.Error("Error opening log file:", err)
			return err
		}
		defer func() {
			if err := logFile.Close(); err != nil {
				appLogger.Error("Error closing log file:", err)
			}
		}()
		logOutput = io.MultiWriter(logOutput, logFile)
	}
	appLogger = logger.NewLogger(config.LogLevel, logOutput)

	if appLogger.Level() >= logger.LevelDebug {
		conf, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			appLogger.Error("Error marshalling Config to JSON:", err)
			return err
		}
		appLogger.Debugf("Config:\n%s", conf)
	}

	appLogger.Info("Connecting to DB at", config.DatabaseURI)
	dbConn, err := database.ConnectDB(appContext, config.DatabaseURI)
	if err != nil {
		appLogger.Error("Error connecting to DB:", err)
		return err
	}
	defer func() {
		if err := dbConn.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from DB:", err)
		}
	}()
	db := database.Database{Database: dbConn.Database(database.Name)}

	var redisClient *redis.Client
	var lease monitor.Lease = monitor.NopLease{}
	if config.RedisAddress != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.RedisAddress,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		if err = redisClient.Ping(appContext).Err(); err != nil {
			appLogger.Error("Error connecting to Redis:", err)
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				appLogger.Error("Error closing Redis client:", err)
			}
		}()
		lease = monitor.RedisLease{Redis: redisClient, TTL: config.LeaseTTL}
	} else {
		appLogger.Warn("redis_address is not set, running without run lease and snapshot cache")
	}

	c := client.Client{
		Client:           &http.Client{Timeout: 15 * time.Second},
		Redis:            redisClient,
		SnapshotCacheTTL: config.SnapshotCacheTTL,
		Notifier:         config.Notifier,
		TelegramAPIURL:   config.TelegramAPIURL,
		TelegramBotToken: config.TelegramBotToken,
		FCMKey:           config.FCMKey,
		Logger:           appLogger,
	}

	var policy monitor.RetryPolicy = monitor.AlwaysRetry{}
	if config.RetryPolicy == configuration.RetryPolicyBackoff {
		policy = monitor.ExponentialBackoff{Base: config.BackoffBase, Max: config.BackoffMax}
	}

	m := monitor.Monitor{
		Items:         db,
		Ledger:        db,
		Source:        c,
		Notifier:      c,
		Notifications: db,
		Lease:         lease,
		Policy:        policy,
		Logger:        appLogger,
		BatchSize:     config.BatchSize,
		ItemDelay:     config.ItemDelay,
		FetchTimeout:  config.FetchTimeout,
	}

	srv := server.Server{
		DB:              db,
		Client:          c,
		Monitor:         m,
		Logger:          appLogger,
		AuthSecretKey:   config.AuthSecretKey,
		RegistrationKey: config.RegistrationKey,
		MaxItemsPerUser: config.MaxItemsPerUser,
	}

	appLogger.Info("Starting monitor with interval:", config.MonitorInterval)
	go m.RunInInterval(appContext, time.NewTicker(config.MonitorInterval))

	httpSrv := &http.Server{
		Handler:      srv.Router(),
		Addr:         config.ServerAddress,
		WriteTimeout: 5 * time.Minute,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		<-appContext.Done()
		appLogger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Error shutting down server:", err)
		}
	}()

	appLogger.Info("Serving on", httpSrv.Addr)
	if err = httpSrv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
