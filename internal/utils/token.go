package utils

import (
    "crypto/rand"
    "encoding/hex"
)

// NewMailToken returns a cryptographically secure random token used for
// account confirmation and password-reset links.  Tokens are single-use:
// the repository clears the column once the token is redeemed.
func NewMailToken() (string, error) {
    return randomHex(32) // 32 bytes -> 64 hex chars
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
