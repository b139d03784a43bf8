package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/nocliffcapital/otcx-sub001/internal/chain"
	"github.com/nocliffcapital/otcx-sub001/internal/config"
	"github.com/nocliffcapital/otcx-sub001/internal/db"
	"github.com/nocliffcapital/otcx-sub001/internal/events"
	"github.com/nocliffcapital/otcx-sub001/internal/watcher"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.RPCURL == "" {
		log.Fatal("RPC_URL is required")
	}
	if cfg.EscrowAddress == "" || cfg.RegistryAddress == "" {
		log.Fatal("ESCROW_ADDRESS and REGISTRY_ADDRESS are required")
	}

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	client, err := chain.Dial(ctx, cfg.RPCURL, log)
	if err != nil {
		log.Fatal("failed to connect to chain rpc", zap.Error(err))
	}
	defer client.Close()

	publisher := events.NewRedisPublisher(rdb, log)
	handlers := watcher.NotificationHandlers(publisher, log)

	w := watcher.New(
		client,
		watcher.NewRedisCursorStore(rdb),
		common.HexToAddress(cfg.EscrowAddress),
		common.HexToAddress(cfg.RegistryAddress),
		handlers,
		rdb,
		cfg.PollInterval,
		log,
	)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down chain-watcher")
		cancel()
	}()

	log.Info("chain-watcher started",
		zap.String("escrow", cfg.EscrowAddress),
		zap.String("registry", cfg.RegistryAddress),
		zap.Duration("poll_interval", cfg.PollInterval),
	)

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal("watcher stopped", zap.Error(err))
	}
}
