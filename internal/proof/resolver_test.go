package proof

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

func transferLog(token, from, to common.Address, amount *big.Int) *types.Log {
	return &types.Log{
		Address: token,
		Topics: []common.Hash{
			transferTopic,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: common.LeftPadBytes(amount.Bytes(), 32),
	}
}

func TestDecodeTransferLogs(t *testing.T) {
	txHash := common.HexToHash(sampleHash)
	amount := big.NewInt(123456789)

	logs := []*types.Log{
		// Unrelated event: wrong topic0.
		{Address: tokenAddr, Topics: []common.Hash{common.HexToHash("0x01")}},
		transferLog(tokenAddr, sellerAddr, buyerAddr, amount),
		// Transfer-shaped but missing an indexed topic (ERC-721 style data layouts differ).
		{Address: tokenAddr, Topics: []common.Hash{transferTopic, common.BytesToHash(sellerAddr.Bytes())}},
	}

	transfers := decodeTransferLogs(txHash, logs)
	if len(transfers) != 1 {
		t.Fatalf("got %d transfers, want 1", len(transfers))
	}

	tr := transfers[0]
	if tr.Token != tokenAddr || tr.From != sellerAddr || tr.To != buyerAddr {
		t.Errorf("decoded transfer = %+v", tr)
	}
	if tr.Amount.Cmp(amount) != 0 {
		t.Errorf("amount = %s, want %s", tr.Amount, amount)
	}
	if tr.TxHash != txHash {
		t.Errorf("txHash = %s", tr.TxHash)
	}
}

func TestParseRPCReceipt(t *testing.T) {
	txHash := common.HexToHash(sampleHash)
	body := `{
		"jsonrpc": "2.0",
		"result": {
			"status": "0x1",
			"logs": [{
				"address": "0x9999999999999999999999999999999999999999",
				"topics": [
					"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
					"0x000000000000000000000000cccccccccccccccccccccccccccccccccccccccc",
					"0x000000000000000000000000bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
				],
				"data": "0x00000000000000000000000000000000000000000000000000000000075bcd15"
			}]
		}
	}`

	transfers, err := parseRPCReceipt(txHash, []byte(body))
	if err != nil {
		t.Fatalf("parseRPCReceipt: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("got %d transfers", len(transfers))
	}
	if transfers[0].From != sellerAddr || transfers[0].To != buyerAddr || transfers[0].Token != tokenAddr {
		t.Errorf("transfer = %+v", transfers[0])
	}
	if transfers[0].Amount.Int64() != 123456789 {
		t.Errorf("amount = %s", transfers[0].Amount)
	}
}

func TestParseRPCReceipt_Errors(t *testing.T) {
	txHash := common.HexToHash(sampleHash)

	tests := []struct {
		name string
		body string
	}{
		{"null result", `{"result": null}`},
		{"vendor error", `{"error": {"message": "rate limit"}}`},
		{"reverted tx", `{"result": {"status": "0x0", "logs": []}}`},
		{"no transfer logs", `{"result": {"status": "0x1", "logs": []}}`},
		{"garbage", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseRPCReceipt(txHash, []byte(tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}

	// Empty-logs case must be ErrNoTransfer specifically, so the cascade can
	// tell "lookup worked, nothing there" apart from transport failures.
	_, err := parseRPCReceipt(txHash, []byte(`{"result": {"status": "0x1", "logs": []}}`))
	if !errors.Is(err, ErrNoTransfer) {
		t.Errorf("want ErrNoTransfer, got %v", err)
	}
}

func TestParseTransferRows(t *testing.T) {
	html := `<html><body>
	<ul>
	  <li class="tile" data-test="token_transfer">
	    <a href="/address/0xcccccccccccccccccccccccccccccccccccccccc">seller</a>
	    <a href="/address/0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb">buyer</a>
	    <span>1,250.5</span>
	    <a href="/token/0x9999999999999999999999999999999999999999">NOVA</a>
	  </li>
	  <li class="tile">
	    <a href="/address/0x1111111111111111111111111111111111111111">incomplete row</a>
	  </li>
	</ul>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	r := NewPageResolver("https://sepolia.etherscan.io", zap.NewNop())
	transfers := r.parseTransferRows(doc, common.HexToHash(sampleHash))
	if len(transfers) != 1 {
		t.Fatalf("got %d transfers, want 1", len(transfers))
	}

	tr := transfers[0]
	if tr.From != sellerAddr || tr.To != buyerAddr || tr.Token != tokenAddr {
		t.Errorf("transfer = %+v", tr)
	}

	// 1,250.5 tokens at 18 decimals
	want, _ := new(big.Int).SetString("1250500000000000000000", 10)
	if tr.Amount.Cmp(want) != 0 {
		t.Errorf("amount = %s, want %s", tr.Amount, want)
	}
}

func TestVendorEndpointSelection(t *testing.T) {
	r := NewVendorAPIResolver("https://sepolia.etherscan.io", "", zap.NewNop())
	if r.endpoint != "https://api-sepolia.etherscan.io/api" {
		t.Errorf("endpoint = %q", r.endpoint)
	}

	// Unknown hosts fall back to the blockscout layout on the same host.
	r = NewVendorAPIResolver("https://explorer.acme-chain.org", "", zap.NewNop())
	if r.endpoint != "https://explorer.acme-chain.org/api" {
		t.Errorf("endpoint = %q", r.endpoint)
	}
}
