package proof

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Ordered matchers for the transaction hash inside user-submitted input.
// Explorer URL shapes first (/tx/<hash>, hash fragments), then a prefixed
// hash anywhere, then a bare 64-hex run. First match wins.
var txHashMatchers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/tx/(0x[0-9a-f]{64})`),
	regexp.MustCompile(`(?i)#[^\s]*?(0x[0-9a-f]{64})`),
	regexp.MustCompile(`(?i)\b(0x[0-9a-f]{64})\b`),
	regexp.MustCompile(`(?i)\b([0-9a-f]{64})\b`),
}

// bareHashOnly matches input that is nothing but a transaction hash.
// Such input carries no origin, so the explorer origin check is skipped.
var bareHashOnly = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{64}$`)

// ExtractTxHash recovers a 32-byte transaction hash from common explorer URL
// shapes or a directly pasted hash. Idempotent on already-valid 66-character
// hashes. Returns nil when the input contains no 64-hex-digit run.
func ExtractTxHash(input string) *common.Hash {
	s := strings.TrimSpace(input)

	for _, re := range txHashMatchers {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		hex := m[1]
		if !strings.HasPrefix(strings.ToLower(hex), "0x") {
			hex = "0x" + hex
		}
		h := common.HexToHash(hex)
		return &h
	}
	return nil
}

// IsBareHash reports whether the input is just a transaction hash with no
// surrounding URL.
func IsBareHash(input string) bool {
	return bareHashOnly.MatchString(strings.TrimSpace(input))
}

// ValidateExplorerURL checks that a submitted link points at the allow-listed
// explorer: exact hostname, a subdomain of it, or a www. variant. Substring
// matching is deliberately not used — "sepolia-etherscan.io.evil.com" must
// not pass for "sepolia.etherscan.io".
func ValidateExplorerURL(raw, allowedBase string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	allowed, err := url.Parse(allowedBase)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	want := strings.ToLower(allowed.Hostname())
	if host == "" || want == "" {
		return false
	}

	if host == want {
		return true
	}
	if host == "www."+want || "www."+host == want {
		return true
	}
	return strings.HasSuffix(host, "."+want)
}
