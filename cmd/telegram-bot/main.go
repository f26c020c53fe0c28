package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lunch-menu/internal/app"
	"lunch-menu/internal/config"
	"lunch-menu/internal/database"
	"lunch-menu/internal/menuapi"
	"lunch-menu/internal/metrics"
	"lunch-menu/internal/telegram"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.WithField("component", "main")

	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if err := cfg.ValidateTelegram(); err != nil {
		log.WithError(err).Fatal("invalid telegram config")
	}

	// 2. Initialize the SQLite database
	db, err := database.NewDB(cfg.DatabasePath, metrics.Migrations())
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)

	// 3. Initialize the backend client and the app
	client := menuapi.NewClient(cfg, metricsStore)
	lunchApp := app.NewApp(client)

	// 4. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, lunchApp, metricsStore)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize telegram bot")
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           bot.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("telegram bot server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server exiting")
}
