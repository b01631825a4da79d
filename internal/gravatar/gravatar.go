// Package gravatar derives deterministic avatar URLs from email
// addresses, so every account has an image before uploading one.
package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

const baseURL = "https://www.gravatar.com/avatar/"

// URL returns the gravatar URL for the given email: 200px, PG-rated,
// with the "mystery man" fallback for addresses without a gravatar.
func URL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("%s%s?s=200&r=pg&d=mm", baseURL, hex.EncodeToString(sum[:]))
}
