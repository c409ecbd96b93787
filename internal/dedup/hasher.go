// Package dedup is the content-addressed record of every message the bridge
// has already processed. It is what makes the at-least-once APRS-IS feed
// exactly-once-effective across reconnects and restarts.
package dedup

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
)

// Hasher computes the dedup fingerprint of a frame.
type Hasher struct {
	algorithm string
}

// NewHasher creates a new hasher instance. md5 is the default and matches
// digests recorded by earlier deployments; sha256 is selectable for new
// databases.
func NewHasher(algorithm string) *Hasher {
	return &Hasher{algorithm: algorithm}
}

// Fingerprint digests sender, body and ack ID in that fixed order. A missing
// ack ID contributes the empty string, keeping the function total. The
// algorithm and field order must never change for an existing database or
// every stored message would be re-published after the next restart.
func (h *Hasher) Fingerprint(sender, body, ackID string) string {
	input := sender + body + ackID

	switch h.algorithm {
	case "sha256":
		sum := sha256.Sum256([]byte(input))
		return hex.EncodeToString(sum[:])
	default:
		sum := md5.Sum([]byte(input))
		return hex.EncodeToString(sum[:])
	}
}
