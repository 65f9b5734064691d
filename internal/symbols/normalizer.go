package symbols

import "strings"

// defaultRemap maps known-problematic disclosure symbols to tradable
// equivalents on the price provider. Keys are post-sanitize forms.
var defaultRemap = map[string]string{
	"$BTC":     "BTC-USD",
	"$ETH":     "ETH-USD",
	"VWUSX:US": "VWUSX",
	"XSP":      "SPY",
}

// Normalizer canonicalizes raw ticker strings from disclosure filings.
// Normalization is pure and total: it never fails, it either returns a
// best-effort canonical symbol or reports the input as unusable.
type Normalizer struct {
	remap map[string]string
}

// New creates a Normalizer. Overrides are merged over the built-in remap
// table and win on conflict.
func New(overrides map[string]string) *Normalizer {
	remap := make(map[string]string, len(defaultRemap)+len(overrides))
	for k, v := range defaultRemap {
		remap[k] = v
	}
	for k, v := range overrides {
		remap[k] = v
	}
	return &Normalizer{remap: remap}
}

// Normalize returns the canonical symbol and true, or ("", false) when the
// raw value cannot name a tradable instrument.
//
// Filings use '/' and '.' for share classes (BRK/B, BRK.B); the provider
// wants '-' (BRK-B). The remap table runs after sanitizing so its keys can
// rescue symbols the reject rules would otherwise drop, e.g. "$BTC".
func (n *Normalizer) Normalize(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || isPlaceholder(s) {
		return "", false
	}

	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, ".", "-")

	if mapped, ok := n.remap[s]; ok {
		return mapped, true
	}

	// Currency-prefixed symbols are crypto holdings with no quoted pair;
	// digit-leading ones are bonds or malformed CUSIPs.
	if s[0] == '$' || (s[0] >= '0' && s[0] <= '9') {
		return "", false
	}
	return s, true
}

func isPlaceholder(s string) bool {
	switch s {
	case "--", "---", "NAN", "N-A", "N/A", "UNKNOWN":
		return true
	}
	return false
}
