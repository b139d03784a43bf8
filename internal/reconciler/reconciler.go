package reconciler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/nocliffcapital/otcx-sub001/internal/models"
)

// EscrowSource is the gateway surface the reconciler reads orders through.
type EscrowSource interface {
	NextOrderID(ctx context.Context) (uint64, error)
	Order(ctx context.Context, id uint64) (*models.Order, error)
	Paused(ctx context.Context) (bool, error)
}

// ProjectSource provides the registry's active project list.
type ProjectSource interface {
	ActiveProjects(ctx context.Context) ([]models.Project, error)
}

// Snapshot is one fully reconciled view of the market. It is built from
// scratch every cycle and swapped in atomically; nothing is ever diffed
// against a previous snapshot.
type Snapshot struct {
	Orders    map[uint64]*models.Order
	Available []*models.Order // open & collateralized, ascending ID
	Projects  map[common.Hash]models.Project
	Stats     map[common.Hash]*MarketStats
	Paused    bool
	UpdatedAt time.Time
	Stale     bool // set when the last cycle failed and this is a retained snapshot
}

type Config struct {
	Interval    time.Duration
	Timeout     time.Duration
	Concurrency int
}

// Service re-derives the order set and market statistics on a fixed cycle.
type Service struct {
	escrow   EscrowSource
	registry ProjectSource
	cfg      Config
	log      *zap.Logger

	mu        sync.RWMutex
	snap      *Snapshot
	onRefresh func(*Snapshot)
}

func New(escrow EscrowSource, registry ProjectSource, cfg Config, log *zap.Logger) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Service{escrow: escrow, registry: registry, cfg: cfg, log: log}
}

// SetOnRefresh registers a hook invoked with every successfully published
// snapshot. Must be called before Run.
func (s *Service) SetOnRefresh(fn func(*Snapshot)) { s.onRefresh = fn }

// Snapshot returns the last published snapshot, nil before the first
// successful cycle.
func (s *Service) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Run refreshes immediately, then on every tick until ctx is cancelled.
// A failed cycle is logged and retried on the next tick; there is no
// in-cycle retry.
func (s *Service) Run(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.log.Error("initial reconcile failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.log.Error("reconcile cycle failed", zap.Error(err))
			}
		}
	}
}

// Refresh runs one reconciliation cycle. Cycle-level failures (order bound
// or project list unreadable) keep the previous snapshot, marked stale.
func (s *Service) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()

	bound, err := s.escrow.NextOrderID(ctx)
	if err != nil {
		s.markStale()
		return fmt.Errorf("read order bound: %w", err)
	}

	projects, err := s.registry.ActiveProjects(ctx)
	if err != nil {
		s.markStale()
		return fmt.Errorf("read project list: %w", err)
	}

	paused, err := s.escrow.Paused(ctx)
	if err != nil {
		// Advisory flag; keep the previous value rather than failing the cycle.
		s.log.Warn("pause flag read failed", zap.Error(err))
		if prev := s.Snapshot(); prev != nil {
			paused = prev.Paused
		}
	}

	orders := s.fetchOrders(ctx, bound)
	snap := buildSnapshot(orders, projects, paused)

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.log.Info("reconcile cycle complete",
		zap.Uint64("bound", bound),
		zap.Int("orders", len(snap.Orders)),
		zap.Int("available", len(snap.Available)),
		zap.Int("projects", len(snap.Projects)),
		zap.Duration("took", time.Since(start)),
	)

	if s.onRefresh != nil {
		s.onRefresh(snap)
	}
	return nil
}

// fetchOrders fans out one read per ID in [1, bound) with bounded
// concurrency. A failed read is logged and omitted: the order is absent
// this cycle and retried next cycle, never assumed cancelled. When the cycle
// deadline fires, remaining IDs are skipped.
func (s *Service) fetchOrders(ctx context.Context, bound uint64) map[uint64]*models.Order {
	results := make(map[uint64]*models.Order)
	if bound <= 1 {
		return results
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.cfg.Concurrency)
	)

	for id := uint64(1); id < bound; id++ {
		select {
		case <-ctx.Done():
			s.log.Warn("reconcile deadline reached, skipping remaining orders",
				zap.Uint64("next_id", id), zap.Uint64("bound", bound))
			wg.Wait()
			return results
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			defer func() { <-sem }()

			order, err := s.escrow.Order(ctx, id)
			if err != nil {
				s.log.Debug("order read failed, omitted this cycle",
					zap.Uint64("id", id), zap.Error(err))
				return
			}

			mu.Lock()
			results[id] = order
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return results
}

// markStale republishes the previous snapshot flagged stale, so consumers
// can show a staleness indicator instead of an error.
func (s *Service) markStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil || s.snap.Stale {
		return
	}
	stale := *s.snap
	stale.Stale = true
	s.snap = &stale
}

func buildSnapshot(orders map[uint64]*models.Order, projects []models.Project, paused bool) *Snapshot {
	snap := &Snapshot{
		Orders:    orders,
		Projects:  make(map[common.Hash]models.Project, len(projects)),
		Stats:     make(map[common.Hash]*MarketStats, len(projects)),
		Paused:    paused,
		UpdatedAt: time.Now(),
	}

	for _, p := range projects {
		snap.Projects[p.ID] = p
	}

	byProject := make(map[common.Hash][]*models.Order)
	for _, o := range orders {
		byProject[o.ProjectID] = append(byProject[o.ProjectID], o)
		if o.IsAvailable() {
			snap.Available = append(snap.Available, o)
		}
	}

	sort.Slice(snap.Available, func(i, j int) bool {
		return snap.Available[i].ID < snap.Available[j].ID
	})

	// Stats are derived for every known project, including ones with no
	// orders yet (all-nil stats, not missing entries).
	for _, p := range projects {
		snap.Stats[p.ID] = deriveStats(p.ID, byProject[p.ID])
	}

	return snap
}

// ProjectBySlug finds a project in the snapshot by its slug.
func (snap *Snapshot) ProjectBySlug(slug string) (models.Project, bool) {
	p, ok := snap.Projects[models.ProjectID(slug)]
	return p, ok
}
