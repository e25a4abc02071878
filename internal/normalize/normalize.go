// Package normalize canonicalizes user identities before storage or
// comparison. All authorization in this codebase is equality over these
// normalized strings, so every ingress path must pass through here.
package normalize

import "strings"

// Email returns the canonical form of an email-shaped identity:
// surrounding whitespace trimmed and the address lower-cased.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
