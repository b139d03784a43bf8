package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// stubBackend returns canned ABI-encoded output for every call.
type stubBackend struct {
	output []byte
	err    error
	calls  int
}

func (b *stubBackend) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.output, nil
}

var testEscrowAddr = common.HexToAddress("0x00000000000000000000000000000000000000e5")

// The order decode must map the raw tuple positionally. Encode a tuple with
// the contract ABI itself and check every field survives the round trip.
func TestOrderPositionalDecode(t *testing.T) {
	maker := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	buyer := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	seller := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	taker := common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
	projectID := [32]byte(common.HexToHash("0x1234000000000000000000000000000000000000000000000000000000005678"))

	amount, _ := new(big.Int).SetString("2500000000000000000000", 10) // 2500 tokens
	unitPrice := big.NewInt(150000)                                   // 0.15 stable
	buyerFunds := big.NewInt(375000000)
	collateral, _ := new(big.Int).SetString("375000000000000000000", 10)

	output, err := escrowABI.Methods["orders"].Outputs.Pack(
		big.NewInt(7),
		maker,
		buyer,
		seller,
		projectID,
		amount,
		unitPrice,
		buyerFunds,
		collateral,
		uint64(1768000000),
		true,
		taker,
		uint8(2),
	)
	if err != nil {
		t.Fatalf("pack order tuple: %v", err)
	}

	reader := NewEscrowReader(&stubBackend{output: output}, testEscrowAddr)
	order, err := reader.Order(context.Background(), 7)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}

	if order.ID != 7 {
		t.Errorf("ID = %d, want 7", order.ID)
	}
	if order.Maker != maker || order.Buyer != buyer || order.Seller != seller {
		t.Errorf("addresses mismatched: maker=%s buyer=%s seller=%s", order.Maker, order.Buyer, order.Seller)
	}
	if order.ProjectID != common.Hash(projectID) {
		t.Errorf("ProjectID = %s", order.ProjectID)
	}
	if order.Amount.Cmp(amount) != 0 {
		t.Errorf("Amount = %s, want %s", order.Amount, amount)
	}
	if order.UnitPrice.Cmp(unitPrice) != 0 {
		t.Errorf("UnitPrice = %s, want %s", order.UnitPrice, unitPrice)
	}
	if order.BuyerFunds.Cmp(buyerFunds) != 0 {
		t.Errorf("BuyerFunds = %s, want %s", order.BuyerFunds, buyerFunds)
	}
	if order.SellerCollateral.Cmp(collateral) != 0 {
		t.Errorf("SellerCollateral = %s, want %s", order.SellerCollateral, collateral)
	}
	if order.SettlementDeadline != 1768000000 {
		t.Errorf("SettlementDeadline = %d", order.SettlementDeadline)
	}
	if !order.IsSell {
		t.Error("IsSell = false, want true")
	}
	if order.AllowedTaker != taker {
		t.Errorf("AllowedTaker = %s", order.AllowedTaker)
	}
	if order.Status != 2 {
		t.Errorf("Status = %d, want 2", order.Status)
	}
}

func TestNextOrderID(t *testing.T) {
	output, err := escrowABI.Methods["nextOrderId"].Outputs.Pack(big.NewInt(42))
	if err != nil {
		t.Fatal(err)
	}

	reader := NewEscrowReader(&stubBackend{output: output}, testEscrowAddr)
	n, err := reader.NextOrderID(context.Background())
	if err != nil {
		t.Fatalf("NextOrderID: %v", err)
	}
	if n != 42 {
		t.Errorf("NextOrderID = %d, want 42", n)
	}
}

func TestProofOf(t *testing.T) {
	output, err := escrowABI.Methods["settlementProofs"].Outputs.Pack("https://sepolia.etherscan.io/tx/0xabc")
	if err != nil {
		t.Fatal(err)
	}

	reader := NewEscrowReader(&stubBackend{output: output}, testEscrowAddr)
	proof, err := reader.ProofOf(context.Background(), 1)
	if err != nil {
		t.Fatalf("ProofOf: %v", err)
	}
	if proof != "https://sepolia.etherscan.io/tx/0xabc" {
		t.Errorf("ProofOf = %q", proof)
	}
}

func TestPaused(t *testing.T) {
	output, err := escrowABI.Methods["paused"].Outputs.Pack(true)
	if err != nil {
		t.Fatal(err)
	}

	reader := NewEscrowReader(&stubBackend{output: output}, testEscrowAddr)
	paused, err := reader.Paused(context.Background())
	if err != nil {
		t.Fatalf("Paused: %v", err)
	}
	if !paused {
		t.Error("Paused = false, want true")
	}
}

func TestCallErrorWrapped(t *testing.T) {
	backendErr := errors.New("connection refused")
	reader := NewEscrowReader(&stubBackend{err: backendErr}, testEscrowAddr)

	_, err := reader.Order(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, backendErr) {
		t.Errorf("backend error must be wrapped, got: %v", err)
	}
}
