package proof

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// transferTopic is the canonical ERC-20 Transfer(address,address,uint256)
// event signature.
var transferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// ErrNoTransfer means the lookup itself succeeded but the transaction
// carried no decodable token transfer.
var ErrNoTransfer = errors.New("no token transfer found in transaction")

// TransferRecord is one decoded ERC-20 transfer extracted from a transaction.
type TransferRecord struct {
	TxHash common.Hash
	Token  common.Address
	From   common.Address
	To     common.Address
	Amount *big.Int
}

// Resolver attempts to resolve a transaction hash to its decoded token
// transfers. Implementations are composed into an ordered fallback chain:
// a failing tier downgrades to the next one, it never aborts the pipeline.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, txHash common.Hash) ([]TransferRecord, error)
}

// decodeTransferLogs extracts every ERC-20 Transfer from a receipt's logs:
// topic0 = transfer signature, two indexed address topics, amount in data.
func decodeTransferLogs(txHash common.Hash, logs []*types.Log) []TransferRecord {
	var out []TransferRecord
	for _, lg := range logs {
		if lg == nil || len(lg.Topics) != 3 || lg.Topics[0] != transferTopic {
			continue
		}
		if len(lg.Data) < 32 {
			continue
		}
		out = append(out, TransferRecord{
			TxHash: txHash,
			Token:  lg.Address,
			From:   common.BytesToAddress(lg.Topics[1].Bytes()),
			To:     common.BytesToAddress(lg.Topics[2].Bytes()),
			Amount: new(big.Int).SetBytes(lg.Data[:32]),
		})
	}
	return out
}
