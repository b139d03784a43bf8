package watcher

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/nocliffcapital/otcx-sub001/internal/chain"
)

// Decoded event payloads.

type ProjectAdded struct {
	ProjectID common.Hash
	Slug      string
	Name      string
}

type ProjectStatusChanged struct {
	ProjectID common.Hash
	Active    bool
}

type SettlementActivated struct {
	OrderID  uint64
	Deadline uint64
}

// Handlers receives decoded events, one call per log, in log order.
// Handlers must be idempotent: a crash between dispatch and cursor
// advancement can redeliver events on restart.
type Handlers struct {
	ProjectAdded         func(ProjectAdded)
	ProjectStatusChanged func(ProjectStatusChanged)
	SettlementActivated  func(SettlementActivated)
}

// decodeTable maps topic0 to a decode-and-dispatch function. New event kinds
// are added as table entries, not as branching logic.
type decodeFunc func(lg types.Log, h Handlers) error

func buildDecodeTable() map[common.Hash]decodeFunc {
	registryABI := chain.RegistryABI()
	escrowABI := chain.EscrowABI()

	return map[common.Hash]decodeFunc{
		registryABI.Events["ProjectAdded"].ID: func(lg types.Log, h Handlers) error {
			if len(lg.Topics) < 2 {
				return fmt.Errorf("ProjectAdded: missing indexed projectId")
			}
			out, err := registryABI.Events["ProjectAdded"].Inputs.NonIndexed().Unpack(lg.Data)
			if err != nil {
				return fmt.Errorf("ProjectAdded: %w", err)
			}
			slug, _ := out[0].(string)
			name, _ := out[1].(string)
			if h.ProjectAdded != nil {
				h.ProjectAdded(ProjectAdded{ProjectID: lg.Topics[1], Slug: slug, Name: name})
			}
			return nil
		},

		registryABI.Events["ProjectStatusChanged"].ID: func(lg types.Log, h Handlers) error {
			if len(lg.Topics) < 2 {
				return fmt.Errorf("ProjectStatusChanged: missing indexed projectId")
			}
			out, err := registryABI.Events["ProjectStatusChanged"].Inputs.NonIndexed().Unpack(lg.Data)
			if err != nil {
				return fmt.Errorf("ProjectStatusChanged: %w", err)
			}
			active, _ := out[0].(bool)
			if h.ProjectStatusChanged != nil {
				h.ProjectStatusChanged(ProjectStatusChanged{ProjectID: lg.Topics[1], Active: active})
			}
			return nil
		},

		escrowABI.Events["SettlementActivated"].ID: func(lg types.Log, h Handlers) error {
			if len(lg.Topics) < 2 {
				return fmt.Errorf("SettlementActivated: missing indexed orderId")
			}
			out, err := escrowABI.Events["SettlementActivated"].Inputs.NonIndexed().Unpack(lg.Data)
			if err != nil {
				return fmt.Errorf("SettlementActivated: %w", err)
			}
			deadline, _ := out[0].(uint64)
			orderID := lg.Topics[1].Big().Uint64()
			if h.SettlementActivated != nil {
				h.SettlementActivated(SettlementActivated{OrderID: orderID, Deadline: deadline})
			}
			return nil
		},
	}
}
