package gate

import "strings"

// crawlerTokens is the fixed vocabulary of crawler-indicative substrings.
// Matching is case-insensitive.
var crawlerTokens = []string{
	"bot",
	"crawler",
	"spider",
	"slurp",
	"bingpreview",
	"facebookexternalhit",
	"headless",
}

// IsAutomatedClient reports whether the client-supplied user agent looks like
// an automated crawler. An empty user agent is treated as non-bot: the
// exemption is never granted to clients that merely omit the header.
//
// This is a heuristic, not a security boundary. A false negative falls back
// into the normal redirect path, and a false positive only ever affects
// public routes.
func IsAutomatedClient(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, token := range crawlerTokens {
		if strings.Contains(ua, token) {
			return true
		}
	}
	return false
}
