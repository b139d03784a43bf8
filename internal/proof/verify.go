package proof

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type VerdictStatus string

const (
	VerdictApproved     VerdictStatus = "APPROVED"
	VerdictNotApproved  VerdictStatus = "NOT_APPROVED"
	VerdictManualReview VerdictStatus = "MANUAL_REVIEW"
)

// reasonUnretrievable is the one reason MANUAL_REVIEW carries: all retrieval
// tiers are down or empty-handed, a human has to open the link.
const reasonUnretrievable = "could not retrieve transaction details automatically"

// Verdict is the verification outcome. Verification always produces one of
// the three statuses; it never surfaces a raw error to the submitter.
type Verdict struct {
	Status   VerdictStatus
	Reasons  []string
	Transfer *TransferRecord // decoded transfer that produced the verdict, when available
}

// Expected describes the transfer the order's settlement requires.
type Expected struct {
	Seller common.Address // transfer sender
	Buyer  common.Address // transfer receiver
	Token  common.Address // token contract
	Amount *big.Int       // raw token units
}

// Verifier runs the settlement-proof pipeline: hash extraction, explorer
// origin check, the retrieval cascade, and field comparison.
type Verifier struct {
	explorerURL  string
	resolvers    []Resolver
	toleranceBPS int64
	log          *zap.Logger
}

func NewVerifier(explorerURL string, resolvers []Resolver, toleranceBPS int, log *zap.Logger) *Verifier {
	return &Verifier{
		explorerURL:  explorerURL,
		resolvers:    resolvers,
		toleranceBPS: int64(toleranceBPS),
		log:          log,
	}
}

// Verify checks a user-submitted proof link against the expected transfer.
func (v *Verifier) Verify(ctx context.Context, rawInput string, exp Expected) Verdict {
	txHash := ExtractTxHash(rawInput)
	if txHash == nil {
		return Verdict{
			Status:  VerdictNotApproved,
			Reasons: []string{"unparseable URL: no transaction hash found"},
		}
	}

	// Origin check precedes any retrieval and never depends on it: it is the
	// one guarantee that holds even with every fetch path down. A bare hash
	// carries no origin and is resolved against our own node anyway.
	if !IsBareHash(rawInput) && !ValidateExplorerURL(rawInput, v.explorerURL) {
		return Verdict{
			Status:  VerdictNotApproved,
			Reasons: []string{fmt.Sprintf("URL host is not %s or a subdomain of it", hostOf(v.explorerURL))},
		}
	}

	transfers := v.resolve(ctx, *txHash)
	if len(transfers) == 0 {
		// Deliberate terminal state, not an error: a human must open the URL.
		return Verdict{
			Status:  VerdictManualReview,
			Reasons: []string{reasonUnretrievable},
		}
	}

	best, reasons := bestMatch(transfers, exp, v.toleranceBPS)
	if len(reasons) == 0 {
		return Verdict{Status: VerdictApproved, Transfer: best}
	}
	return Verdict{Status: VerdictNotApproved, Reasons: reasons, Transfer: best}
}

// resolve walks the cascade in priority order; the first tier that returns
// transfers wins. Failures (including panics) downgrade to the next tier.
func (v *Verifier) resolve(ctx context.Context, txHash common.Hash) []TransferRecord {
	for _, r := range v.resolvers {
		transfers, err := v.tryResolver(ctx, r, txHash)
		if err != nil {
			v.log.Debug("proof resolver failed, trying next tier",
				zap.String("resolver", r.Name()),
				zap.String("tx", txHash.Hex()),
				zap.Error(err),
			)
			continue
		}
		if len(transfers) > 0 {
			v.log.Info("transaction resolved",
				zap.String("resolver", r.Name()),
				zap.String("tx", txHash.Hex()),
				zap.Int("transfers", len(transfers)),
			)
			return transfers
		}
	}
	return nil
}

func (v *Verifier) tryResolver(ctx context.Context, r Resolver, txHash common.Hash) (transfers []TransferRecord, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			transfers = nil
			err = fmt.Errorf("resolver %s panicked: %v", r.Name(), rec)
		}
	}()
	return r.Resolve(ctx, txHash)
}

// bestMatch compares every decoded transfer against the expectation and
// keeps the one with the fewest mismatches: settlement transactions often
// carry extra transfers (fees, routing) that must not poison the verdict.
func bestMatch(transfers []TransferRecord, exp Expected, toleranceBPS int64) (*TransferRecord, []string) {
	var (
		best        *TransferRecord
		bestReasons []string
	)

	for i := range transfers {
		reasons := compare(&transfers[i], exp, toleranceBPS)
		if best == nil || len(reasons) < len(bestReasons) {
			best = &transfers[i]
			bestReasons = reasons
		}
		if len(bestReasons) == 0 {
			break
		}
	}
	return best, bestReasons
}

// compare collects every field mismatch. It never stops at the first one,
// the submitter gets all reasons together. Addresses are compared as parsed
// bytes, so hex casing cannot cause a mismatch.
func compare(rec *TransferRecord, exp Expected, toleranceBPS int64) []string {
	var reasons []string

	if rec.From != exp.Seller {
		reasons = append(reasons, fmt.Sprintf("sender %s does not match seller %s", rec.From.Hex(), exp.Seller.Hex()))
	}
	if rec.To != exp.Buyer {
		reasons = append(reasons, fmt.Sprintf("receiver %s does not match buyer %s", rec.To.Hex(), exp.Buyer.Hex()))
	}
	if rec.Token != exp.Token {
		reasons = append(reasons, fmt.Sprintf("token %s does not match expected contract %s", rec.Token.Hex(), exp.Token.Hex()))
	}
	if !withinTolerance(rec.Amount, exp.Amount, toleranceBPS) {
		reasons = append(reasons, fmt.Sprintf("transferred amount %s differs from expected %s beyond tolerance", rec.Amount, exp.Amount))
	}

	return reasons
}

// withinTolerance checks |observed − expected| ≤ expected × bps / 10000
// in exact integer arithmetic.
func withinTolerance(observed, expected *big.Int, bps int64) bool {
	if observed == nil || expected == nil {
		return false
	}
	diff := new(big.Int).Sub(observed, expected)
	diff.Abs(diff)

	lhs := new(big.Int).Mul(diff, big.NewInt(10000))
	rhs := new(big.Int).Mul(expected, big.NewInt(bps))
	return lhs.Cmp(rhs) <= 0
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return strings.TrimPrefix(rawURL, "https://")
	}
	return u.Hostname()
}
