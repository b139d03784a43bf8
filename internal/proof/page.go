package proof

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PageResolver fetches the explorer's own transaction page and scrapes the
// token-transfer row out of the rendered HTML. Last tier of the cascade:
// best-effort, works on server-rendered explorers (blockscout family), fails
// cleanly on script-rendered ones.
type PageResolver struct {
	explorerURL   string
	tokenDecimals int32
	httpClient    *http.Client
	maxRetries    int
	log           *zap.Logger
}

func NewPageResolver(explorerURL string, log *zap.Logger) *PageResolver {
	return &PageResolver{
		explorerURL:   strings.TrimRight(explorerURL, "/"),
		tokenDecimals: 18,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		maxRetries:    2,
		log:           log,
	}
}

func (r *PageResolver) Name() string { return "page" }

func (r *PageResolver) Resolve(ctx context.Context, txHash common.Hash) ([]TransferRecord, error) {
	pageURL := fmt.Sprintf("%s/tx/%s", r.explorerURL, txHash.Hex())

	var doc *goquery.Document
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := r.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, pageURL)
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return nil, fmt.Errorf("fetch explorer page: %w", lastErr)
	}

	transfers := r.parseTransferRows(doc, txHash)
	if len(transfers) == 0 {
		return nil, ErrNoTransfer
	}
	return transfers, nil
}

var (
	addressHrefRe = regexp.MustCompile(`(?i)/address/(0x[0-9a-f]{40})`)
	tokenHrefRe   = regexp.MustCompile(`(?i)/token/(0x[0-9a-f]{40})`)
	amountTextRe  = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)
)

// parseTransferRows walks the token-transfer containers blockscout-style
// pages render: two /address/ links (from, to), one /token/ link, and a
// human-formatted amount in the row text. A row missing any part is skipped.
func (r *PageResolver) parseTransferRows(doc *goquery.Document, txHash common.Hash) []TransferRecord {
	var out []TransferRecord

	doc.Find(`[data-test="token_transfer"], .token-transfer, li.tile`).Each(func(_ int, row *goquery.Selection) {
		var addrs []common.Address
		var token *common.Address

		row.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if m := tokenHrefRe.FindStringSubmatch(href); m != nil && token == nil {
				t := common.HexToAddress(m[1])
				token = &t
				return
			}
			if m := addressHrefRe.FindStringSubmatch(href); m != nil && len(addrs) < 2 {
				addrs = append(addrs, common.HexToAddress(m[1]))
			}
		})

		if token == nil || len(addrs) != 2 {
			return
		}

		amount, ok := r.parseAmount(row.Text())
		if !ok {
			return
		}

		out = append(out, TransferRecord{
			TxHash: txHash,
			Token:  *token,
			From:   addrs[0],
			To:     addrs[1],
			Amount: amount,
		})
	})

	return out
}

// parseAmount converts a human-formatted token amount ("1,234.5") back to
// raw 18-decimals units. Pages show display units, so this is inherently
// approximate; the tolerance band in the comparison step absorbs it.
func (r *PageResolver) parseAmount(text string) (*big.Int, bool) {
	m := amountTextRe.FindString(text)
	if m == "" {
		return nil, false
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return nil, false
	}

	raw := d.Shift(r.tokenDecimals)
	if raw.IsNegative() {
		return nil, false
	}
	return raw.BigInt(), true
}
