package tracker

import (
	"crypto/rand"
	"encoding/hex"
)

// slugBytes is the amount of randomness behind each slug. 6 bytes gives a
// ~2^-48 pairwise collision probability; the unique index on the link
// table is the actual enforcement mechanism.
const slugBytes = 6

// NewSlug returns a 12-character hex slug from crypto-strength randomness.
func NewSlug() string {
	b := make([]byte, slugBytes)
	rand.Read(b)
	return hex.EncodeToString(b)
}
