package fs

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
	"go.trai.ch/shrink/internal/core/ports"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes BLAKE3 content digests.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// ComputeHash returns the hex encoded BLAKE3-256 digest of data.
func (h *Hasher) ComputeHash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
