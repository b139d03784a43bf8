package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nocliffcapital/otcx-sub001/internal/chain"
	"github.com/nocliffcapital/otcx-sub001/internal/config"
	"github.com/nocliffcapital/otcx-sub001/internal/db"
	"github.com/nocliffcapital/otcx-sub001/internal/events"
	apphttp "github.com/nocliffcapital/otcx-sub001/internal/http"
	"github.com/nocliffcapital/otcx-sub001/internal/http/handlers"
	"github.com/nocliffcapital/otcx-sub001/internal/proof"
	"github.com/nocliffcapital/otcx-sub001/internal/reconciler"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	if cfg.RPCURL == "" {
		log.Fatal("RPC_URL is required")
	}
	if cfg.EscrowAddress == "" || cfg.RegistryAddress == "" {
		log.Fatal("ESCROW_ADDRESS and REGISTRY_ADDRESS are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Chain
	client, err := chain.Dial(ctx, cfg.RPCURL, log)
	if err != nil {
		log.Fatal("failed to connect to chain rpc", zap.Error(err))
	}
	defer client.Close()

	escrow := chain.NewEscrowReader(client, common.HexToAddress(cfg.EscrowAddress))
	registry := chain.NewRegistryReader(client, common.HexToAddress(cfg.RegistryAddress))

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Reconciler
	recon := reconciler.New(escrow, registry, reconciler.Config{
		Interval:    cfg.RefreshInterval,
		Timeout:     cfg.ReconcileTimeout,
		Concurrency: cfg.ReadConcurrency,
	}, log)
	recon.SetOnRefresh(func(snap *reconciler.Snapshot) {
		err := publisher.Publish(ctx, events.StreamMarket, events.Event{
			Type: events.EventSnapshotRefreshed,
			Payload: map[string]any{
				"orders":     len(snap.Orders),
				"available":  len(snap.Available),
				"updated_at": snap.UpdatedAt,
				"paused":     snap.Paused,
			},
		})
		if err != nil {
			log.Warn("failed to publish refresh event", zap.Error(err))
		}
	})
	go recon.Run(ctx)

	// Proof pipeline: node first, vendor API next, page scrape last.
	verifier := proof.NewVerifier(cfg.ExplorerURL, []proof.Resolver{
		proof.NewNodeResolver(client, log),
		proof.NewVendorAPIResolver(cfg.ExplorerURL, cfg.ExplorerAPIKey, log),
		proof.NewPageResolver(cfg.ExplorerURL, log),
	}, cfg.AmountToleranceBPS, log)

	// Handlers
	marketHandler := handlers.NewMarketHandler(recon, escrow, cfg.StableDecimals, log)
	proofHandler := handlers.NewProofHandler(recon, verifier, publisher, log)
	wsHub := handlers.NewWSHub(subscriber, log)
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, log, rdb, marketHandler, proofHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
