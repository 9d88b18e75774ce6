package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v9"

	"auctionhouse/internal/auction"
	"auctionhouse/internal/client"
	"auctionhouse/internal/configuration"
	"auctionhouse/internal/database"
	"auctionhouse/internal/events"
	"auctionhouse/internal/lock"
	"auctionhouse/internal/logger"
	"auctionhouse/internal/server"
)

func main() {
	if err := runApp(); err != nil {
		os.Exit(1)
	}
}

func runApp() error {
	appContext := context.Background()
	logOutput := io.Writer(os.Stdout)
	appLogger := logger.NewLogger(logger.LevelError, logOutput)

	defer func() {
		if r := recover(); r != nil {
			appLogger.Errorf("APPLICATION CRASHED: %+v", r)
		}
	}()

	configPath := "config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	config, err := configuration.GetConfig(configPath)
	if err != nil {
		appLogger.Error("Error getting configuration from", configPath+":", err)
		return err
	}

	if config.LogToFile {
		logFile, err := os.OpenFile("auctionhouse.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
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

	if config.LogLevel >= logger.LevelDebug {
		conf, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			appLogger.Error("Error marshalling Config to JSON:", err)
			return err
		}
		appLogger.Debugf("Config:\n%s", conf)
	}

	appLogger.Info("Connecting to DB at", config.DatabaseURI)
	dbConn, err := database.ConnectDB(appContext, config.DatabaseURI, config.DatabaseName)
	if err != nil {
		appLogger.Error("Error connecting to DB:", err)
		return err
	}
	defer func() {
		if err := dbConn.Disconnect(appContext); err != nil {
			appLogger.Error("Error disconnecting from DB:", err)
		}
	}()

	db := database.Database{
		Database:      dbConn.Database(config.DatabaseName),
		Locker:        lock.NewLocal(),
		MaxTxAttempts: config.TxMaxAttempts,
	}
	if config.RedisAddress != "" {
		appLogger.Info("Connecting to Redis at", config.RedisAddress)
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddress,
			Password: config.RedisPassword,
		})
		if err = rdb.Ping(appContext).Err(); err != nil {
			appLogger.Error("Error connecting to Redis:", err)
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				appLogger.Error("Error closing Redis client:", err)
			}
		}()
		db.Locker = lock.Redis{Client: rdb, TTL: config.LockTTL}
	} else {
		appLogger.Warn("redis_address is not set, Item locks are local to this instance")
	}

	engine := auction.Engine{
		Store: db,
		Clock: auction.SystemClock{},
		Increment: auction.PercentIncrement{
			Rate:  config.IncrementRate,
			Floor: config.MinIncrement,
		},
		Logger: appLogger,
	}

	if config.NatsURL != "" {
		appLogger.Info("Connecting to NATS at", config.NatsURL)
		nc, err := events.Connect(config.NatsURL)
		if err != nil {
			appLogger.Error("Error connecting to NATS:", err)
			return err
		}
		defer nc.Close()
		engine.Events = events.NATS{Conn: nc}
	}

	httpClient := client.New(config.FCMKey, client.PaymentConfig{
		URL:      config.PaymentAPIURL,
		Key:      config.PaymentAPIKey,
		Currency: config.PaymentCurrency,
	}, appLogger)
	if config.FCMKey != "" {
		engine.Notifier = httpClient
	}
	if config.PaymentAPIURL != "" {
		engine.Payments = httpClient
	}

	srv := server.Server{
		Engine:        engine,
		Logger:        appLogger,
		AuthSecretKey: config.AuthSecretKey,
	}

	httpSrv := &http.Server{
		Handler:      srv.Router(),
		Addr:         config.ServerAddress,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	appLogger.Info("Serving on", httpSrv.Addr)
	return httpSrv.ListenAndServe()
}
