package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OrderStatus mirrors the escrow contract's status enum (uint8).
// Transitions are monotonic and asserted on-chain; this service only
// observes them and never drives one itself.
type OrderStatus uint8

const (
	OrderStatusOpen      OrderStatus = 0
	OrderStatusMatched   OrderStatus = 1
	OrderStatusSettling  OrderStatus = 2
	OrderStatusSettled   OrderStatus = 3
	OrderStatusCancelled OrderStatus = 4
	OrderStatusDefaulted OrderStatus = 5
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusOpen:
		return "open"
	case OrderStatusMatched:
		return "matched"
	case OrderStatusSettling:
		return "settling"
	case OrderStatusSettled:
		return "settled"
	case OrderStatusCancelled:
		return "cancelled"
	case OrderStatusDefaulted:
		return "defaulted"
	default:
		return "unknown"
	}
}

// Order mirrors one record of the escrow contract's append-only store.
// IDs are dense and gapless starting at 1 and are never reused.
type Order struct {
	ID                 uint64
	Maker              common.Address
	Buyer              common.Address
	Seller             common.Address
	ProjectID          common.Hash // keccak256 слага проекта, не адрес токена
	Amount             *big.Int    // token units, 18 decimals
	UnitPrice          *big.Int    // stable units per token
	BuyerFunds         *big.Int
	SellerCollateral   *big.Int
	SettlementDeadline uint64 // epoch seconds, 0 = window not activated
	IsSell             bool
	AllowedTaker       common.Address // zero = publicly takeable
	Status             OrderStatus
}

// IsAvailable reports whether the order may be shown for matching:
// open, with the posting side's funds actually locked.
func (o *Order) IsAvailable() bool {
	if o.Status != OrderStatusOpen {
		return false
	}
	if o.IsSell {
		return o.SellerCollateral != nil && o.SellerCollateral.Sign() > 0
	}
	return o.BuyerFunds != nil && o.BuyerFunds.Sign() > 0
}

// IsPrivate reports whether the order is restricted to a single taker.
func (o *Order) IsPrivate() bool {
	return o.AllowedTaker != (common.Address{})
}

// CanTake reports whether addr may take or settle this order.
func (o *Order) CanTake(addr common.Address) bool {
	if !o.IsPrivate() {
		return true
	}
	return o.AllowedTaker == addr
}

// IsTraded reports whether the order was matched, regardless of whether
// settlement has completed. Traded orders count toward volume and last price.
func (o *Order) IsTraded() bool {
	switch o.Status {
	case OrderStatusMatched, OrderStatusSettling, OrderStatusSettled:
		return true
	default:
		return false
	}
}

// HasDeadline reports whether a settlement window has been activated.
func (o *Order) HasDeadline() bool {
	return o.SettlementDeadline > 0
}
