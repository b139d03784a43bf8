// Package watcher polls chain logs for the escrow and registry contracts
// and dispatches decoded events to notification handlers. Delivery is
// best-effort at-most-once per run: the cursor advances after each dispatch
// attempt whether or not individual handlers succeeded.
package watcher

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisProcessedPrefix = "chain-watcher:log:"
	processedTTL         = 7 * 24 * time.Hour
)

// ChainSource is the subset of ethclient the watcher needs.
type ChainSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

type Watcher struct {
	chain        ChainSource
	cursor       CursorStore
	escrowAddr   common.Address
	registryAddr common.Address
	handlers     Handlers
	table        map[common.Hash]decodeFunc
	rdb          *redis.Client // nil disables idempotency keys
	interval     time.Duration
	log          *zap.Logger
}

func New(
	source ChainSource,
	cursor CursorStore,
	escrowAddr, registryAddr common.Address,
	handlers Handlers,
	rdb *redis.Client,
	interval time.Duration,
	log *zap.Logger,
) *Watcher {
	return &Watcher{
		chain:        source,
		cursor:       cursor,
		escrowAddr:   escrowAddr,
		registryAddr: registryAddr,
		handlers:     handlers,
		table:        buildDecodeTable(),
		rdb:          rdb,
		interval:     interval,
		log:          log,
	}
}

// Run initializes the cursor and polls until ctx is cancelled. Failed poll
// cycles are logged; the next tick is the retry.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.initCursor(ctx); err != nil {
		return fmt.Errorf("init cursor: %w", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil {
				w.log.Error("poll cycle failed", zap.Error(err))
			}
		}
	}
}

// initCursor resumes from a saved cursor, or starts at the current chain
// height so only events arriving after startup are processed.
func (w *Watcher) initCursor(ctx context.Context) error {
	height, ok, err := w.cursor.Load(ctx)
	if err != nil {
		return err
	}
	if ok {
		w.log.Info("resuming from saved cursor", zap.Uint64("height", height))
		return nil
	}

	head, err := w.chain.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("read chain height: %w", err)
	}
	if err := w.cursor.Save(ctx, head); err != nil {
		return err
	}
	w.log.Info("cursor initialized at current height (historical events skipped)",
		zap.Uint64("height", head))
	return nil
}

// Poll runs one cycle: no-op unless the chain advanced past the cursor,
// otherwise fetch logs over (cursor, head], dispatch them in log order, and
// advance the cursor. Only this method writes the cursor, and Run never
// invokes it concurrently with itself.
func (w *Watcher) Poll(ctx context.Context) error {
	cursor, ok, err := w.cursor.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}
	if !ok {
		return fmt.Errorf("cursor missing, watcher not initialized")
	}

	head, err := w.chain.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("read chain height: %w", err)
	}
	if head <= cursor {
		return nil
	}

	logs, err := w.chain.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(cursor + 1),
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: []common.Address{w.escrowAddr, w.registryAddr},
	})
	if err != nil {
		return fmt.Errorf("fetch logs (%d, %d]: %w", cursor, head, err)
	}

	// Dispatch order is safety-relevant: a status change must not be
	// processed before the addition it refers to.
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	for _, lg := range logs {
		w.dispatch(ctx, lg)
	}

	// Advance regardless of individual handler outcomes. Handlers tolerate
	// redelivery after a crash via the idempotency keys.
	if err := w.cursor.Save(ctx, head); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

// dispatch decodes and hands one log to its handler. A handler panic is
// caught and logged so it cannot block later logs or cursor advancement.
func (w *Watcher) dispatch(ctx context.Context, lg types.Log) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("event handler panicked",
				zap.String("tx", lg.TxHash.Hex()),
				zap.Uint("log_index", lg.Index),
				zap.Any("panic", r),
			)
		}
	}()

	if len(lg.Topics) == 0 {
		return
	}

	decode, known := w.table[lg.Topics[0]]
	if !known {
		return
	}

	if w.alreadyProcessed(ctx, lg) {
		return
	}

	if err := decode(lg, w.handlers); err != nil {
		w.log.Warn("failed to decode log",
			zap.String("tx", lg.TxHash.Hex()),
			zap.Uint("log_index", lg.Index),
			zap.Error(err),
		)
		return
	}

	w.markProcessed(ctx, lg)
}

func logKey(lg types.Log) string {
	return fmt.Sprintf("%s%s:%d", redisProcessedPrefix, lg.TxHash.Hex(), lg.Index)
}

func (w *Watcher) alreadyProcessed(ctx context.Context, lg types.Log) bool {
	if w.rdb == nil {
		return false
	}
	return w.rdb.Exists(ctx, logKey(lg)).Val() > 0
}

func (w *Watcher) markProcessed(ctx context.Context, lg types.Log) {
	if w.rdb == nil {
		return
	}
	w.rdb.Set(ctx, logKey(lg), "1", processedTTL)
}
