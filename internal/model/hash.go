package model

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the length in bytes of a ContentHash.
const HashSize = 32

// ContentHash is the SHA-256 digest of a WorkPackage's canonical encoding.
// Its lowercase hex form is the store key and the registry reference.
type ContentHash [HashSize]byte

// Hex returns the lowercase hex encoding of the hash.
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements fmt.Stringer.
func (h ContentHash) String() string { return h.Hex() }

// IsZero reports whether the hash is the all-zero value.
func (h ContentHash) IsZero() bool { return h == ContentHash{} }

// ParseContentHash decodes a lowercase or uppercase hex string into a
// ContentHash.
func ParseContentHash(s string) (ContentHash, error) {
	var h ContentHash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parse content hash: %w", err)
	}
	if len(b) != HashSize {
		return h, fmt.Errorf("parse content hash: got %d bytes, want %d", len(b), HashSize)
	}
	copy(h[:], b)
	return h, nil
}
