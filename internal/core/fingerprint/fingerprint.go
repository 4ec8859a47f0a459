// Package fingerprint computes the stable keys for the "seen" sets: one per
// (entity, brand) pair and one per (entity, brand, class, fanciful) product
// variant. Keys are sha256 over a versioned preimage so they are safe as
// fixed-width DB columns and map keys, and the entity id is always part of
// the preimage: textually identical brands under different entities never
// collide.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

type (
	// Key32 is the fixed-size array form of a fingerprint (map-key friendly)
	Key32 [32]byte

	// Key is the slice form of a fingerprint (easy for DB/IO)
	Key []byte
)

// Placeholder substitutes for an absent brand, class, or fanciful name so
// the fingerprint stays stable whether a field is missing or empty
const Placeholder = "(none)"

// orEmpty applies the placeholder to blank normalized fields
func orEmpty(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// Brand computes the key for a (entity, normalized brand) pair
func Brand(entityID int64, brandNorm string) Key32 {
	return sha256.Sum256([]byte(
		"brand|" + strconv.FormatInt(entityID, 10) + "|" + orEmpty(brandNorm),
	))
}

// SKU computes the key for a (entity, brand, class, fanciful) product variant
func SKU(entityID int64, brandNorm, classCode, fancifulNorm string) Key32 {
	return sha256.Sum256([]byte(
		"sku|" + strconv.FormatInt(entityID, 10) +
			"|" + orEmpty(brandNorm) +
			"|" + orEmpty(classCode) +
			"|" + orEmpty(fancifulNorm),
	))
}

// Bytes returns the slice form of the key
func (k Key32) Bytes() Key { return k[:] }

// Hex returns the lowercase hex encoding of the key
func (k Key32) Hex() string { return hex.EncodeToString(k[:]) }

// FromBytes converts a byte slice to a Key32, returning ok=false on bad length
func FromBytes(b []byte) (Key32, bool) {
	var k Key32
	if len(b) != len(k) {
		return Key32{}, false
	}
	copy(k[:], b)
	return k, true
}
