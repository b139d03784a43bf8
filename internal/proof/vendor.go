package proof

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// vendorEndpoints maps known explorer hosts to their transaction API bases.
// Hosts not listed here are assumed to run blockscout, which serves the same
// proxy-style API under /api on the explorer host itself.
var vendorEndpoints = map[string]string{
	"etherscan.io":            "https://api.etherscan.io/api",
	"www.etherscan.io":        "https://api.etherscan.io/api",
	"sepolia.etherscan.io":    "https://api-sepolia.etherscan.io/api",
	"holesky.etherscan.io":    "https://api-holesky.etherscan.io/api",
	"basescan.org":            "https://api.basescan.org/api",
	"sepolia.basescan.org":    "https://api-sepolia.basescan.org/api",
	"arbiscan.io":             "https://api.arbiscan.io/api",
	"polygonscan.com":         "https://api.polygonscan.com/api",
	"sepolia.polygonscan.com": "https://api-sepolia.polygonscan.com/api",
}

// VendorAPIResolver queries the explorer vendor's HTTP API, keyed by the
// explorer hostname. Second tier of the cascade; works without an API key,
// a key only raises rate limits.
type VendorAPIResolver struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewVendorAPIResolver(explorerURL, apiKey string, log *zap.Logger) *VendorAPIResolver {
	endpoint := ""
	if u, err := url.Parse(explorerURL); err == nil && u.Hostname() != "" {
		host := strings.ToLower(u.Hostname())
		if e, ok := vendorEndpoints[host]; ok {
			endpoint = e
		} else {
			endpoint = "https://" + host + "/api"
		}
	}

	return &VendorAPIResolver{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

func (r *VendorAPIResolver) Name() string { return "vendor-api" }

// rpcReceipt mirrors the proxy-style eth_getTransactionReceipt response both
// etherscan and blockscout serve.
type rpcReceipt struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Result *struct {
		Status string `json:"status"`
		Logs   []struct {
			Address string   `json:"address"`
			Topics  []string `json:"topics"`
			Data    string   `json:"data"`
		} `json:"logs"`
	} `json:"result"`
}

func (r *VendorAPIResolver) Resolve(ctx context.Context, txHash common.Hash) ([]TransferRecord, error) {
	if r.endpoint == "" {
		return nil, fmt.Errorf("no vendor API endpoint for explorer")
	}

	q := url.Values{}
	q.Set("module", "proxy")
	q.Set("action", "eth_getTransactionReceipt")
	q.Set("txhash", txHash.Hex())
	if r.apiKey != "" {
		q.Set("apikey", r.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vendor API unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vendor API returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	return parseRPCReceipt(txHash, body)
}

// parseRPCReceipt decodes a proxy-style receipt payload and extracts its
// token transfers.
func parseRPCReceipt(txHash common.Hash, body []byte) ([]TransferRecord, error) {
	var receipt rpcReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return nil, fmt.Errorf("decode vendor response: %w", err)
	}
	if receipt.Error != nil {
		return nil, fmt.Errorf("vendor API error: %s", receipt.Error.Message)
	}
	if receipt.Result == nil {
		return nil, fmt.Errorf("transaction not found")
	}
	if receipt.Result.Status != "" && receipt.Result.Status != "0x1" {
		return nil, fmt.Errorf("transaction reverted")
	}

	logs := make([]*types.Log, 0, len(receipt.Result.Logs))
	for _, lg := range receipt.Result.Logs {
		topics := make([]common.Hash, 0, len(lg.Topics))
		for _, t := range lg.Topics {
			topics = append(topics, common.HexToHash(t))
		}
		logs = append(logs, &types.Log{
			Address: common.HexToAddress(lg.Address),
			Topics:  topics,
			Data:    common.FromHex(lg.Data),
		})
	}

	transfers := decodeTransferLogs(txHash, logs)
	if len(transfers) == 0 {
		return nil, ErrNoTransfer
	}
	return transfers, nil
}
