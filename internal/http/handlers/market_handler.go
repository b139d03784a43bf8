package handlers

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nocliffcapital/otcx-sub001/internal/http/dto"
	"github.com/nocliffcapital/otcx-sub001/internal/models"
	"github.com/nocliffcapital/otcx-sub001/internal/reconciler"
	"github.com/nocliffcapital/otcx-sub001/internal/settlement"
)

// SnapshotSource is the read surface handlers serve from. All market reads
// hit the in-memory snapshot, never the chain.
type SnapshotSource interface {
	Snapshot() *reconciler.Snapshot
}

// ProofSource reads the on-chain settlement proof for an order. Proofs are
// read lazily per request; they are not part of the snapshot.
type ProofSource interface {
	ProofOf(ctx context.Context, id uint64) (string, error)
}

type MarketHandler struct {
	snapshots      SnapshotSource
	proofs         ProofSource
	stableDecimals int32
	log            *zap.Logger
}

func NewMarketHandler(snapshots SnapshotSource, proofs ProofSource, stableDecimals int, log *zap.Logger) *MarketHandler {
	return &MarketHandler{
		snapshots:      snapshots,
		proofs:         proofs,
		stableDecimals: int32(stableDecimals),
		log:            log,
	}
}

// snapshot fetches the current snapshot or writes a 503 when no cycle has
// succeeded yet (startup, or the chain was unreachable from the start).
func (h *MarketHandler) snapshot(c *fiber.Ctx) (*reconciler.Snapshot, error) {
	snap := h.snapshots.Snapshot()
	if snap == nil {
		return nil, c.Status(fiber.StatusServiceUnavailable).
			JSON(dto.ErrorResponse{Error: "market snapshot not ready"})
	}
	return snap, nil
}

func (h *MarketHandler) GetStatus(c *fiber.Ctx) error {
	snap, err := h.snapshot(c)
	if snap == nil {
		return err
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.StatusResponse{
		Paused:    snap.Paused,
		Stale:     snap.Stale,
		UpdatedAt: snap.UpdatedAt,
		Orders:    len(snap.Orders),
		Projects:  len(snap.Projects),
	}})
}

func (h *MarketHandler) ListProjects(c *fiber.Ctx) error {
	snap, err := h.snapshot(c)
	if snap == nil {
		return err
	}

	projects := make([]dto.ProjectResponse, 0, len(snap.Projects))
	for _, p := range snap.Projects {
		projects = append(projects, dto.ProjectFromModel(p))
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Slug < projects[j].Slug })

	return c.JSON(dto.SuccessResponse{OK: true, Data: projects})
}

func (h *MarketHandler) GetProject(c *fiber.Ctx) error {
	snap, err := h.snapshot(c)
	if snap == nil {
		return err
	}

	p, ok := snap.ProjectBySlug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "project not found"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ProjectFromModel(p)})
}

func (h *MarketHandler) GetProjectStats(c *fiber.Ctx) error {
	snap, err := h.snapshot(c)
	if snap == nil {
		return err
	}

	p, ok := snap.ProjectBySlug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "project not found"})
	}

	stats, ok := snap.Stats[p.ID]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "stats not available"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.StatsFromModel(stats, h.stableDecimals)})
}

func (h *MarketHandler) ListOrders(c *fiber.Ctx) error {
	snap, err := h.snapshot(c)
	if snap == nil {
		return err
	}

	var projectFilter *models.Project
	if slug := c.Query("project"); slug != "" {
		p, ok := snap.ProjectBySlug(slug)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "project not found"})
		}
		projectFilter = &p
	}

	side := c.Query("side")
	if side != "" && side != "buy" && side != "sell" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "side must be buy or sell"})
	}
	availableOnly := c.QueryBool("available", false)

	var source []*models.Order
	if availableOnly {
		source = snap.Available
	} else {
		source = make([]*models.Order, 0, len(snap.Orders))
		for _, o := range snap.Orders {
			source = append(source, o)
		}
		sort.Slice(source, func(i, j int) bool { return source[i].ID < source[j].ID })
	}

	orders := make([]dto.OrderResponse, 0, len(source))
	for _, o := range source {
		if projectFilter != nil && o.ProjectID != projectFilter.ID {
			continue
		}
		if side == "sell" && !o.IsSell || side == "buy" && o.IsSell {
			continue
		}
		orders = append(orders, dto.OrderFromModel(o, h.stableDecimals))
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: orders})
}

func (h *MarketHandler) GetOrder(c *fiber.Ctx) error {
	snap, err := h.snapshot(c)
	if snap == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	o, ok := snap.Orders[id]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "order not found"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.OrderFromModel(o, h.stableDecimals)})
}

func (h *MarketHandler) GetSettlement(c *fiber.Ctx) error {
	snap, err := h.snapshot(c)
	if snap == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	o, ok := snap.Orders[id]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "order not found"})
	}

	proofURL, err := h.proofs.ProofOf(c.Context(), id)
	if err != nil {
		h.log.Error("proof read failed", zap.Uint64("order_id", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "chain read failed"})
	}

	state, remaining := settlement.Project(o.SettlementDeadline, proofURL != "", time.Now())

	resp := dto.SettlementResponse{
		OrderID:        id,
		State:          state.String(),
		Deadline:       o.SettlementDeadline,
		ProofSubmitted: proofURL != "",
	}
	if state == settlement.StateCountdown {
		resp.Remaining = settlement.FormatRemaining(remaining)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: resp})
}
