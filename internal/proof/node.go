package proof

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// ReceiptBackend is the subset of ethclient the node tier needs.
type ReceiptBackend interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// NodeResolver reads the transaction's logs directly from a blockchain node.
// First tier of the cascade: authoritative when the node is reachable.
type NodeResolver struct {
	backend ReceiptBackend
	log     *zap.Logger
}

func NewNodeResolver(backend ReceiptBackend, log *zap.Logger) *NodeResolver {
	return &NodeResolver{backend: backend, log: log}
}

func (r *NodeResolver) Name() string { return "node" }

func (r *NodeResolver) Resolve(ctx context.Context, txHash common.Hash) ([]TransferRecord, error) {
	receipt, err := r.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("fetch receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction reverted")
	}

	transfers := decodeTransferLogs(txHash, receipt.Logs)
	if len(transfers) == 0 {
		return nil, ErrNoTransfer
	}
	return transfers, nil
}
