package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	// Chain
	RPCURL          string
	EscrowAddress   string
	RegistryAddress string

	// Proof verification
	ExplorerURL        string // база block explorer'а — единственный разрешённый origin для proof-ссылок
	ExplorerAPIKey     string // опционально, поднимает rate limit vendor API
	AmountToleranceBPS int    // допуск по сумме трансфера, базисные пункты

	// Market view
	StableDecimals   int
	RefreshInterval  time.Duration
	ReconcileTimeout time.Duration
	ReadConcurrency  int

	// Chain watcher
	PollInterval time.Duration

	// Infra
	RedisURL       string
	BotInternalURL string

	// Server
	APIPort string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		RPCURL:          getEnv("RPC_URL", ""),
		EscrowAddress:   getEnv("ESCROW_ADDRESS", ""),
		RegistryAddress: getEnv("REGISTRY_ADDRESS", ""),

		ExplorerURL:        getEnv("EXPLORER_URL", "https://sepolia.etherscan.io"),
		ExplorerAPIKey:     getEnv("EXPLORER_API_KEY", ""),
		AmountToleranceBPS: getEnvInt("AMOUNT_TOLERANCE_BPS", 100), // 1% по умолчанию

		StableDecimals:   getEnvInt("STABLE_DECIMALS", 6),
		RefreshInterval:  time.Duration(getEnvInt("REFRESH_INTERVAL_SECONDS", 15)) * time.Second,
		ReconcileTimeout: time.Duration(getEnvInt("RECONCILE_TIMEOUT_SECONDS", 10)) * time.Second,
		ReadConcurrency:  getEnvInt("READ_CONCURRENCY", 16),

		PollInterval: time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 5)) * time.Second,

		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		BotInternalURL: getEnv("BOT_INTERNAL_URL", "http://localhost:8081"),

		APIPort: getEnv("API_PORT", "3000"),
	}

	if cfg.ReadConcurrency < 1 {
		cfg.ReadConcurrency = 1
	}

	return cfg
}

func (c *Config) Validate(log *zap.Logger) {
	if c.ExplorerAPIKey == "" {
		log.Warn("EXPLORER_API_KEY is not set, vendor API lookups run unauthenticated")
	}
	if c.AmountToleranceBPS < 0 || c.AmountToleranceBPS > 10000 {
		log.Warn("AMOUNT_TOLERANCE_BPS out of range", zap.Int("bps", c.AmountToleranceBPS))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
