package dto

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/nocliffcapital/otcx-sub001/internal/models"
	"github.com/nocliffcapital/otcx-sub001/internal/reconciler"
)

// tokenDecimals is the fixed-point scale of order amounts.
const tokenDecimals = 18

// FormatUnits renders a raw fixed-point integer as a human decimal string:
// FormatUnits(1_500_000, 6) = "1.5".
func FormatUnits(x *big.Int, decimals int32) string {
	if x == nil {
		return "0"
	}
	return decimal.NewFromBigInt(x, -decimals).String()
}

func formatUnitsPtr(x *big.Int, decimals int32) *string {
	if x == nil {
		return nil
	}
	s := FormatUnits(x, decimals)
	return &s
}

func addrOrEmpty(a common.Address) string {
	if a == (common.Address{}) {
		return ""
	}
	return a.Hex()
}

func ProjectFromModel(p models.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID.Hex(),
		Slug:        p.Slug,
		Name:        p.Name,
		Token:       addrOrEmpty(p.Token),
		IsPoints:    p.IsPoints,
		Active:      p.Active,
		MetadataURI: p.MetadataURI,
	}
}

func StatsFromModel(s *reconciler.MarketStats, stableDecimals int32) StatsResponse {
	return StatsResponse{
		ProjectID:  s.ProjectID.Hex(),
		LowestAsk:  formatUnitsPtr(s.LowestAsk, stableDecimals),
		HighestBid: formatUnitsPtr(s.HighestBid, stableDecimals),
		LastPrice:  formatUnitsPtr(s.LastPrice, stableDecimals),
		OpenOrders: s.OpenOrders,
		Volume:     FormatUnits(s.Volume, stableDecimals),
	}
}

func OrderFromModel(o *models.Order, stableDecimals int32) OrderResponse {
	side := "buy"
	if o.IsSell {
		side = "sell"
	}
	return OrderResponse{
		ID:                 o.ID,
		ProjectID:          o.ProjectID.Hex(),
		Side:               side,
		Maker:              o.Maker.Hex(),
		Buyer:              addrOrEmpty(o.Buyer),
		Seller:             addrOrEmpty(o.Seller),
		Amount:             FormatUnits(o.Amount, tokenDecimals),
		UnitPrice:          FormatUnits(o.UnitPrice, stableDecimals),
		BuyerFunds:         FormatUnits(o.BuyerFunds, stableDecimals),
		SellerCollateral:   FormatUnits(o.SellerCollateral, stableDecimals),
		Status:             o.Status.String(),
		Private:            o.IsPrivate(),
		AllowedTaker:       addrOrEmpty(o.AllowedTaker),
		SettlementDeadline: o.SettlementDeadline,
	}
}
