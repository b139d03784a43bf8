package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/nocliffcapital/otcx-sub001/internal/models"
)

// EscrowReader issues read-only calls against the escrow contract and
// decodes the positional order tuple into models.Order.
type EscrowReader struct {
	backend CallBackend
	addr    common.Address
}

func NewEscrowReader(backend CallBackend, addr common.Address) *EscrowReader {
	return &EscrowReader{backend: backend, addr: addr}
}

// Address returns the escrow contract address.
func (r *EscrowReader) Address() common.Address { return r.addr }

func (r *EscrowReader) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := escrowABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &r.addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out, err := escrowABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	return out, nil
}

// NextOrderID returns the next unassigned order ID. Existing orders occupy
// [1, NextOrderID) with no gaps.
func (r *EscrowReader) NextOrderID(ctx context.Context) (uint64, error) {
	out, err := r.call(ctx, "nextOrderId")
	if err != nil {
		return 0, err
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("nextOrderId: unexpected output type %T", out[0])
	}
	return n.Uint64(), nil
}

// Order reads and decodes one order record by ID.
func (r *EscrowReader) Order(ctx context.Context, id uint64) (*models.Order, error) {
	out, err := r.call(ctx, "orders", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	return orderFromTuple(out)
}

// ProofOf returns the settlement proof string submitted for an order,
// empty if none was submitted yet.
func (r *EscrowReader) ProofOf(ctx context.Context, id uint64) (string, error) {
	out, err := r.call(ctx, "settlementProofs", new(big.Int).SetUint64(id))
	if err != nil {
		return "", err
	}
	s, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("settlementProofs: unexpected output type %T", out[0])
	}
	return s, nil
}

// Paused returns the contract-wide pause flag.
func (r *EscrowReader) Paused(ctx context.Context) (bool, error) {
	out, err := r.call(ctx, "paused")
	if err != nil {
		return false, err
	}
	b, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("paused: unexpected output type %T", out[0])
	}
	return b, nil
}

// orderFromTuple maps the 13-field positional tuple to an Order. The field
// positions are fixed by the contract; see escrowABIJSON.
func orderFromTuple(out []any) (*models.Order, error) {
	if len(out) != 13 {
		return nil, fmt.Errorf("order tuple has %d fields, want 13", len(out))
	}

	id, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("order field 0 (id): unexpected type %T", out[0])
	}
	maker, ok := out[1].(common.Address)
	if !ok {
		return nil, fmt.Errorf("order field 1 (maker): unexpected type %T", out[1])
	}
	buyer, ok := out[2].(common.Address)
	if !ok {
		return nil, fmt.Errorf("order field 2 (buyer): unexpected type %T", out[2])
	}
	seller, ok := out[3].(common.Address)
	if !ok {
		return nil, fmt.Errorf("order field 3 (seller): unexpected type %T", out[3])
	}
	projectID, ok := out[4].([32]byte)
	if !ok {
		return nil, fmt.Errorf("order field 4 (projectId): unexpected type %T", out[4])
	}
	amount, ok := out[5].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("order field 5 (amount): unexpected type %T", out[5])
	}
	unitPrice, ok := out[6].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("order field 6 (unitPrice): unexpected type %T", out[6])
	}
	buyerFunds, ok := out[7].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("order field 7 (buyerFunds): unexpected type %T", out[7])
	}
	sellerCollateral, ok := out[8].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("order field 8 (sellerCollateral): unexpected type %T", out[8])
	}
	deadline, ok := out[9].(uint64)
	if !ok {
		return nil, fmt.Errorf("order field 9 (settlementDeadline): unexpected type %T", out[9])
	}
	isSell, ok := out[10].(bool)
	if !ok {
		return nil, fmt.Errorf("order field 10 (isSell): unexpected type %T", out[10])
	}
	allowedTaker, ok := out[11].(common.Address)
	if !ok {
		return nil, fmt.Errorf("order field 11 (allowedTaker): unexpected type %T", out[11])
	}
	status, ok := out[12].(uint8)
	if !ok {
		return nil, fmt.Errorf("order field 12 (status): unexpected type %T", out[12])
	}

	return &models.Order{
		ID:                 id.Uint64(),
		Maker:              maker,
		Buyer:              buyer,
		Seller:             seller,
		ProjectID:          common.Hash(projectID),
		Amount:             amount,
		UnitPrice:          unitPrice,
		BuyerFunds:         buyerFunds,
		SellerCollateral:   sellerCollateral,
		SettlementDeadline: deadline,
		IsSell:             isSell,
		AllowedTaker:       allowedTaker,
		Status:             models.OrderStatus(status),
	}, nil
}
