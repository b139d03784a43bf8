package dto

import "time"

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type StatusResponse struct {
	Paused    bool      `json:"paused"`
	Stale     bool      `json:"stale"`
	UpdatedAt time.Time `json:"updated_at"`
	Orders    int       `json:"orders"`
	Projects  int       `json:"projects"`
}

type ProjectResponse struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Token       string `json:"token,omitempty"`
	IsPoints    bool   `json:"is_points"`
	Active      bool   `json:"active"`
	MetadataURI string `json:"metadata_uri,omitempty"`
}

// StatsResponse serializes per-project market statistics. Nil price fields
// come through as JSON null, zero is a real price.
type StatsResponse struct {
	ProjectID  string  `json:"project_id"`
	LowestAsk  *string `json:"lowest_ask"`
	HighestBid *string `json:"highest_bid"`
	LastPrice  *string `json:"last_price"`
	OpenOrders int     `json:"open_orders"`
	Volume     string  `json:"volume"`
}

type OrderResponse struct {
	ID                 uint64 `json:"id"`
	ProjectID          string `json:"project_id"`
	Side               string `json:"side"`
	Maker              string `json:"maker"`
	Buyer              string `json:"buyer,omitempty"`
	Seller             string `json:"seller,omitempty"`
	Amount             string `json:"amount"`
	UnitPrice          string `json:"unit_price"`
	BuyerFunds         string `json:"buyer_funds"`
	SellerCollateral   string `json:"seller_collateral"`
	Status             string `json:"status"`
	Private            bool   `json:"private"`
	AllowedTaker       string `json:"allowed_taker,omitempty"`
	SettlementDeadline uint64 `json:"settlement_deadline,omitempty"`
}

type SettlementResponse struct {
	OrderID        uint64 `json:"order_id"`
	State          string `json:"state"`
	Deadline       uint64 `json:"deadline,omitempty"`
	Remaining      string `json:"remaining,omitempty"`
	ProofSubmitted bool   `json:"proof_submitted"`
}

type VerdictResponse struct {
	OrderID uint64   `json:"order_id"`
	Status  string   `json:"status"`
	Reasons []string `json:"reasons,omitempty"`
	TxHash  string   `json:"tx_hash,omitempty"`
}
