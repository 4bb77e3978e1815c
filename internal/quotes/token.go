package quotes

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
)

// Share tokens are opaque, URL-safe, and at most 30 chars. The format is
// validated before any lookup so malformed input never reaches the database.
var shareTokenRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,30}$`)

// ValidShareToken reports whether tok matches the share-token contract.
func ValidShareToken(tok string) bool {
	return shareTokenRe.MatchString(tok)
}

// NewShareToken returns a fresh 22-char base64url token (16 random bytes).
func NewShareToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
