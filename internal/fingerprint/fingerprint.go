// Package fingerprint derives the stable one-way identifiers and attribute
// fingerprints that key consent records. All functions are deterministic and
// side-effect free; the same inputs always produce the same outputs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint is the derived identity of one (user, source, relying party)
// release: the storage partition key, the join key against stored records,
// and the fingerprint of the released attribute set.
type Fingerprint struct {
	HashedUserID  string
	TargetedID    string
	AttributeHash string
}

// Calculator derives salted one-way identifiers. The salt is a process-wide
// secret; deployments with different salts produce disjoint consent stores.
type Calculator struct {
	salt string
}

func NewCalculator(salt string) *Calculator {
	return &Calculator{salt: salt}
}

// HashedUserID is the storage partition key for a user's consent records.
// One-way over (userID, sourceID).
func (c *Calculator) HashedUserID(userID, sourceID string) string {
	return hashParts(userID, c.salt, sourceID)
}

// TargetedID scopes a consent record to one (user, source, destination)
// triple. It is the join key between freshly computed state and stored
// records, so it must be stable across requests.
func (c *Calculator) TargetedID(userID, sourceID, destinationID string) string {
	return hashParts(userID, c.salt, sourceID, destinationID)
}

// AttributeFingerprint summarizes an attribute set. With hashing disabled it
// returns the canonical serialization, usable for equality comparison and
// audit display; with hashing enabled it returns a one-way hash of that same
// form. Insensitive to map key insertion order; sensitive to any change in
// keys, value sets, or value ordering within a key.
func AttributeFingerprint(attributes map[string][]string, hashed bool) string {
	canonical := canonicalize(attributes)
	if !hashed {
		return canonical
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// canonicalize serializes the attribute map with stable key ordering.
// json.Marshal sorts map keys and preserves slice order, which is exactly
// the canonical form needed here. The map's value type makes an encoding
// failure impossible.
func canonicalize(attributes map[string][]string) string {
	if attributes == nil {
		attributes = map[string][]string{}
	}
	raw, err := json.Marshal(attributes)
	if err != nil {
		panic("fingerprint: canonicalize attribute map: " + err.Error())
	}
	return string(raw)
}

func hashParts(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{'|'})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
