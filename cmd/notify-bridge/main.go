package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nocliffcapital/otcx-sub001/internal/config"
	"github.com/nocliffcapital/otcx-sub001/internal/db"
	"github.com/nocliffcapital/otcx-sub001/internal/events"
	"github.com/nocliffcapital/otcx-sub001/internal/services"
)

// Notify bridge: small service that subscribes to chain events in Redis and
// forwards the pre-formatted notification text to the bot internal API.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	notify := services.NewNotifyClient(cfg.BotInternalURL, log)

	log.Info("notify-bridge started", zap.String("bot_url", cfg.BotInternalURL))

	_ = subscriber.Subscribe(ctx, events.StreamChain, func(event events.Event) {
		text, _ := event.Payload["text"].(string)
		if text == "" {
			return
		}
		log.Info("forwarding notification", zap.String("type", event.Type))
		if err := notify.Send(ctx, event.Type, text); err != nil {
			log.Warn("notification delivery failed", zap.Error(err))
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify-bridge")
	cancel()
}
