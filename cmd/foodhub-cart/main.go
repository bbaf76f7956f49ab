package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/app"
	"github.com/vladislavdragonenkov/foodhub/internal/version"
)

// setupLogger настраивает формат и уровень логирования. Неизвестный уровень оставляет info.
func setupLogger(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if level == "" {
		return
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.WithError(err).Warn("unknown FOODHUB_LOG_LEVEL, using info")
		return
	}
	log.SetLevel(parsed)
}

func main() {
	setupLogger(os.Getenv("FOODHUB_LOG_LEVEL"))
	cfg := app.LoadFromEnv(app.DefaultConfig(), os.Getenv, log.WithField("component", "config"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version":         version.GetVersion(),
		"http_addr":       cfg.HTTPAddr,
		"metrics_addr":    cfg.MetricsAddr,
		"storage_driver":  cfg.StorageDriver,
		"order_transport": cfg.OrderTransport,
	}).Info("запускаем foodhub-cart")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("foodhub-cart остановлен")
}
