package gatepass

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const (
	publicIDPrefix       = "GP"
	publicIDRandomLength = 6
	base36Alphabet       = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewPublicID builds a shareable gate pass id: a fixed prefix, the
// submission time in base36 millis, and a random base36 suffix. The
// result is uppercased so lookups can normalize case the same way.
func NewPublicID(now time.Time) (string, error) {
	timestamp := strconv.FormatInt(now.UnixMilli(), 36)

	suffix := make([]byte, publicIDRandomLength)
	randomBytes := make([]byte, publicIDRandomLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	for i, b := range randomBytes {
		suffix[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}

	return strings.ToUpper(publicIDPrefix + timestamp + string(suffix)), nil
}

// NormalizePublicID maps user-entered ids onto the stored form.
func NormalizePublicID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
