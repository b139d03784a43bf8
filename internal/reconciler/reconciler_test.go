package reconciler

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nocliffcapital/otcx-sub001/internal/models"
)

type fakeEscrow struct {
	bound     uint64
	boundErr  error
	orders    map[uint64]*models.Order
	failIDs   map[uint64]bool
	paused    bool
	pausedErr error
}

func (f *fakeEscrow) NextOrderID(context.Context) (uint64, error) {
	if f.boundErr != nil {
		return 0, f.boundErr
	}
	return f.bound, nil
}

func (f *fakeEscrow) Order(_ context.Context, id uint64) (*models.Order, error) {
	if f.failIDs[id] {
		return nil, errors.New("read failed")
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, errors.New("no such order")
	}
	return o, nil
}

func (f *fakeEscrow) Paused(context.Context) (bool, error) {
	if f.pausedErr != nil {
		return false, f.pausedErr
	}
	return f.paused, nil
}

type fakeRegistry struct {
	projects []models.Project
	err      error
}

func (f *fakeRegistry) ActiveProjects(context.Context) ([]models.Project, error) {
	return f.projects, f.err
}

func sellOrder(id uint64, project string, price, collateral int64) *models.Order {
	return &models.Order{
		ID:               id,
		ProjectID:        models.ProjectID(project),
		Amount:           big.NewInt(1e18),
		UnitPrice:        big.NewInt(price),
		BuyerFunds:       big.NewInt(0),
		SellerCollateral: big.NewInt(collateral),
		IsSell:           true,
		Status:           models.OrderStatusOpen,
	}
}

func testConfig() Config {
	return Config{Interval: time.Minute, Timeout: 5 * time.Second, Concurrency: 4}
}

func TestRefresh_FullCycle(t *testing.T) {
	project := models.Project{ID: models.ProjectID("nova"), Slug: "nova", Name: "Nova", Active: true}
	escrow := &fakeEscrow{
		bound: 4,
		orders: map[uint64]*models.Order{
			1: sellOrder(1, "nova", 100, 50),
			2: sellOrder(2, "nova", 90, 0), // no collateral: not available
			3: sellOrder(3, "nova", 120, 10),
		},
	}
	svc := New(escrow, &fakeRegistry{projects: []models.Project{project}}, testConfig(), zap.NewNop())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	snap := svc.Snapshot()
	if snap == nil {
		t.Fatal("snapshot must be published")
	}
	if snap.Stale {
		t.Error("fresh snapshot must not be stale")
	}
	if len(snap.Orders) != 3 {
		t.Errorf("got %d orders, want 3", len(snap.Orders))
	}
	if len(snap.Available) != 2 {
		t.Fatalf("got %d available orders, want 2", len(snap.Available))
	}
	if snap.Available[0].ID != 1 || snap.Available[1].ID != 3 {
		t.Errorf("available orders must be ID-ordered, got %d,%d", snap.Available[0].ID, snap.Available[1].ID)
	}
	if _, ok := snap.Stats[project.ID]; !ok {
		t.Error("stats must exist for the known project")
	}
}

func TestRefresh_FailedReadOmitted(t *testing.T) {
	escrow := &fakeEscrow{
		bound: 4,
		orders: map[uint64]*models.Order{
			1: sellOrder(1, "nova", 100, 50),
			2: sellOrder(2, "nova", 90, 50),
			3: sellOrder(3, "nova", 120, 50),
		},
		failIDs: map[uint64]bool{2: true},
	}
	svc := New(escrow, &fakeRegistry{}, testConfig(), zap.NewNop())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("a single failed read must not fail the cycle: %v", err)
	}

	snap := svc.Snapshot()
	if _, ok := snap.Orders[2]; ok {
		t.Error("failed order must be absent, not guessed")
	}
	if len(snap.Orders) != 2 {
		t.Errorf("got %d orders, want 2", len(snap.Orders))
	}
}

func TestRefresh_BoundFailureRetainsStaleSnapshot(t *testing.T) {
	escrow := &fakeEscrow{
		bound:  2,
		orders: map[uint64]*models.Order{1: sellOrder(1, "nova", 100, 50)},
	}
	svc := New(escrow, &fakeRegistry{}, testConfig(), zap.NewNop())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	escrow.boundErr = errors.New("rpc down")
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("bound read failure must fail the cycle")
	}

	snap := svc.Snapshot()
	if snap == nil {
		t.Fatal("previous snapshot must be retained")
	}
	if !snap.Stale {
		t.Error("retained snapshot must be marked stale")
	}
	if len(snap.Orders) != 1 {
		t.Errorf("retained snapshot lost data: %d orders", len(snap.Orders))
	}

	// Next good cycle clears the marker.
	escrow.boundErr = nil
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if svc.Snapshot().Stale {
		t.Error("snapshot must be fresh again after a good cycle")
	}
}

func TestRefresh_FirstCycleFailure(t *testing.T) {
	svc := New(&fakeEscrow{boundErr: errors.New("down")}, &fakeRegistry{}, testConfig(), zap.NewNop())
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if svc.Snapshot() != nil {
		t.Error("no snapshot to retain on a failed first cycle")
	}
}

func TestRefresh_PausedReadFailureKeepsPrevious(t *testing.T) {
	escrow := &fakeEscrow{bound: 1, paused: true}
	svc := New(escrow, &fakeRegistry{}, testConfig(), zap.NewNop())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !svc.Snapshot().Paused {
		t.Fatal("paused flag not picked up")
	}

	escrow.pausedErr = errors.New("rpc flake")
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("pause flag failure must not fail the cycle: %v", err)
	}
	if !svc.Snapshot().Paused {
		t.Error("previous paused value must be kept when the read fails")
	}
}

func TestProjectBySlug(t *testing.T) {
	project := models.Project{ID: models.ProjectID("nova"), Slug: "nova"}
	svc := New(&fakeEscrow{bound: 1}, &fakeRegistry{projects: []models.Project{project}}, testConfig(), zap.NewNop())
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, ok := svc.Snapshot().ProjectBySlug("nova"); !ok {
		t.Error("project lookup by slug failed")
	}
	if _, ok := svc.Snapshot().ProjectBySlug("missing"); ok {
		t.Error("unknown slug must not resolve")
	}
}
