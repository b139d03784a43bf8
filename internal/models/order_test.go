package models

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestIsAvailable(t *testing.T) {
	tests := []struct {
		name       string
		status     OrderStatus
		isSell     bool
		collateral int64
		funds      int64
		expected   bool
	}{
		{"open sell collateralized", OrderStatusOpen, true, 100, 0, true},
		{"open sell no collateral", OrderStatusOpen, true, 0, 100, false},
		{"open buy funded", OrderStatusOpen, false, 0, 100, true},
		{"open buy no funds", OrderStatusOpen, false, 100, 0, false},
		{"matched sell", OrderStatusMatched, true, 100, 100, false},
		{"settled", OrderStatusSettled, false, 100, 100, false},
		{"cancelled", OrderStatusCancelled, true, 100, 100, false},
		{"defaulted buy", OrderStatusDefaulted, false, 0, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{
				Status:           tt.status,
				IsSell:           tt.isSell,
				SellerCollateral: big.NewInt(tt.collateral),
				BuyerFunds:       big.NewInt(tt.funds),
			}
			if got := o.IsAvailable(); got != tt.expected {
				t.Errorf("IsAvailable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// Availability must equal the rule status==open && posting side funded,
// for arbitrary field combinations.
func TestIsAvailable_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		o := &Order{
			Status:           OrderStatus(rng.Intn(7)),
			IsSell:           rng.Intn(2) == 0,
			SellerCollateral: big.NewInt(rng.Int63n(3)),
			BuyerFunds:       big.NewInt(rng.Int63n(3)),
		}

		want := o.Status == OrderStatusOpen
		if o.IsSell {
			want = want && o.SellerCollateral.Sign() > 0
		} else {
			want = want && o.BuyerFunds.Sign() > 0
		}

		if got := o.IsAvailable(); got != want {
			t.Fatalf("case %d: IsAvailable() = %v, want %v (status=%d isSell=%v collateral=%s funds=%s)",
				i, got, want, o.Status, o.IsSell, o.SellerCollateral, o.BuyerFunds)
		}
	}
}

func TestIsAvailable_NilAmounts(t *testing.T) {
	o := &Order{Status: OrderStatusOpen, IsSell: true}
	if o.IsAvailable() {
		t.Error("order with nil collateral must not be available")
	}
	o = &Order{Status: OrderStatusOpen, IsSell: false}
	if o.IsAvailable() {
		t.Error("order with nil funds must not be available")
	}
}

func TestCanTake(t *testing.T) {
	taker := common.HexToAddress("0x1111111111111111111111111111111111111111")
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")

	public := &Order{}
	if !public.CanTake(taker) || !public.CanTake(other) {
		t.Error("public order must be takeable by anyone")
	}
	if public.IsPrivate() {
		t.Error("zero allowedTaker means public")
	}

	private := &Order{AllowedTaker: taker}
	if !private.IsPrivate() {
		t.Error("non-zero allowedTaker means private")
	}
	if !private.CanTake(taker) {
		t.Error("allowed taker must be able to take")
	}
	if private.CanTake(other) {
		t.Error("other address must not be able to take a private order")
	}
}

func TestIsTraded(t *testing.T) {
	traded := []OrderStatus{OrderStatusMatched, OrderStatusSettling, OrderStatusSettled}
	notTraded := []OrderStatus{OrderStatusOpen, OrderStatusCancelled, OrderStatusDefaulted}

	for _, s := range traded {
		if !(&Order{Status: s}).IsTraded() {
			t.Errorf("status %s must count as traded", s)
		}
	}
	for _, s := range notTraded {
		if (&Order{Status: s}).IsTraded() {
			t.Errorf("status %s must not count as traded", s)
		}
	}
}

func TestOrderStatusString(t *testing.T) {
	if OrderStatusOpen.String() != "open" {
		t.Errorf("got %s", OrderStatusOpen)
	}
	if OrderStatus(99).String() != "unknown" {
		t.Errorf("got %s", OrderStatus(99))
	}
}
