package reconciler

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nocliffcapital/otcx-sub001/internal/models"
)

// tokenScale is the fixed-point scale of order amounts (18 decimals).
var tokenScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// MarketStats is the per-project view derived from the full order set.
// Nil price fields mean "no such order exists", never zero.
type MarketStats struct {
	ProjectID  common.Hash
	LowestAsk  *big.Int // min unit price among available sell orders
	HighestBid *big.Int // max unit price among available buy orders
	LastPrice  *big.Int // unit price of the most recent traded order
	OpenOrders int
	Volume     *big.Int // Σ amount×price over traded orders, stable units
}

// deriveStats recomputes statistics for one project from scratch. It never
// consults a previous cycle's value, so stale reads cannot compound.
func deriveStats(projectID common.Hash, orders []*models.Order) *MarketStats {
	stats := &MarketStats{
		ProjectID: projectID,
		Volume:    new(big.Int),
	}

	var lastTradedID uint64

	for _, o := range orders {
		if o.IsAvailable() {
			stats.OpenOrders++
			if o.IsSell {
				if stats.LowestAsk == nil || o.UnitPrice.Cmp(stats.LowestAsk) < 0 {
					stats.LowestAsk = o.UnitPrice
				}
			} else {
				if stats.HighestBid == nil || o.UnitPrice.Cmp(stats.HighestBid) > 0 {
					stats.HighestBid = o.UnitPrice
				}
			}
		}

		if o.IsTraded() {
			stats.Volume.Add(stats.Volume, notional(o))
			// IDs are assigned in creation order, so the highest traded ID
			// carries the most recent price.
			if o.ID >= lastTradedID {
				lastTradedID = o.ID
				stats.LastPrice = o.UnitPrice
			}
		}
	}

	return stats
}

// notional computes amount×price normalized back to stable units:
// amount is 18-decimals fixed point, so the product is divided by 10^18.
func notional(o *models.Order) *big.Int {
	if o.Amount == nil || o.UnitPrice == nil {
		return new(big.Int)
	}
	n := new(big.Int).Mul(o.Amount, o.UnitPrice)
	return n.Div(n, tokenScale)
}
