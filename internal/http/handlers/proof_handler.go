package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nocliffcapital/otcx-sub001/internal/events"
	"github.com/nocliffcapital/otcx-sub001/internal/http/dto"
	"github.com/nocliffcapital/otcx-sub001/internal/proof"
)

// ProofVerifier runs the settlement-proof pipeline for one submitted link.
type ProofVerifier interface {
	Verify(ctx context.Context, rawInput string, exp proof.Expected) proof.Verdict
}

type ProofHandler struct {
	snapshots SnapshotSource
	verifier  ProofVerifier
	publisher events.Publisher
	log       *zap.Logger
}

func NewProofHandler(snapshots SnapshotSource, verifier ProofVerifier, publisher events.Publisher, log *zap.Logger) *ProofHandler {
	return &ProofHandler{
		snapshots: snapshots,
		verifier:  verifier,
		publisher: publisher,
		log:       log,
	}
}

// SubmitProof verifies a settlement proof link for an order. The response is
// always a verdict; pipeline failures surface as MANUAL_REVIEW, not as 5xx.
func (h *ProofHandler) SubmitProof(c *fiber.Ctx) error {
	snap := h.snapshots.Snapshot()
	if snap == nil {
		return c.Status(fiber.StatusServiceUnavailable).
			JSON(dto.ErrorResponse{Error: "market snapshot not ready"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	var req dto.SubmitProofRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "url is required"})
	}

	o, ok := snap.Orders[id]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "order not found"})
	}
	if !o.IsTraded() {
		return c.Status(fiber.StatusConflict).
			JSON(dto.ErrorResponse{Error: "order has no active settlement"})
	}

	project, known := snap.Projects[o.ProjectID]

	var verdict proof.Verdict
	if !known || !project.HasToken() {
		// Without a token contract there is nothing to compare the transfer
		// against, so automatic verification is impossible by definition.
		verdict = proof.Verdict{
			Status:  proof.VerdictManualReview,
			Reasons: []string{"project token contract not yet known"},
		}
	} else {
		verdict = h.verifier.Verify(c.Context(), req.URL, proof.Expected{
			Seller: o.Seller,
			Buyer:  o.Buyer,
			Token:  project.Token,
			Amount: o.Amount,
		})
	}

	h.log.Info("proof verdict",
		zap.Uint64("order_id", id),
		zap.String("status", string(verdict.Status)),
		zap.Strings("reasons", verdict.Reasons),
	)

	h.publishVerdict(c.Context(), id, verdict)

	resp := dto.VerdictResponse{
		OrderID: id,
		Status:  string(verdict.Status),
		Reasons: verdict.Reasons,
	}
	if verdict.Transfer != nil {
		resp.TxHash = verdict.Transfer.TxHash.Hex()
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: resp})
}

func (h *ProofHandler) publishVerdict(ctx context.Context, orderID uint64, verdict proof.Verdict) {
	if h.publisher == nil {
		return
	}
	err := h.publisher.Publish(ctx, events.StreamMarket, events.Event{
		Type: events.EventProofVerdict,
		Payload: map[string]any{
			"order_id": orderID,
			"status":   string(verdict.Status),
			"reasons":  verdict.Reasons,
		},
	})
	if err != nil {
		h.log.Warn("failed to publish verdict event", zap.Error(err))
	}
}
