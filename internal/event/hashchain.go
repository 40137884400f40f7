package event

import "crypto/sha256"

// HashChain links outbound events by hashing each event's state digest
// together with the previous hash, so downstream consumers can detect
// divergence or reordering.
type HashChain struct {
	prev [32]byte
}

func NewHashChain() *HashChain {
	return &HashChain{}
}

// Compute hashes (prev || sequence || digest) and advances the chain tip.
func (h *HashChain) Compute(sequence int64, digest []byte) [32]byte {
	hasher := sha256.New()
	hasher.Write(h.prev[:])
	hasher.Write([]byte{
		byte(sequence),
		byte(sequence >> 8),
		byte(sequence >> 16),
		byte(sequence >> 24),
		byte(sequence >> 32),
		byte(sequence >> 40),
		byte(sequence >> 48),
		byte(sequence >> 56),
	})
	hasher.Write(digest)

	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	h.prev = out
	return out
}

// Prev returns the chain tip.
func (h *HashChain) Prev() [32]byte {
	return h.prev
}

// SetPrev restores the chain tip, e.g. after restart.
func (h *HashChain) SetPrev(hash [32]byte) {
	h.prev = hash
}
