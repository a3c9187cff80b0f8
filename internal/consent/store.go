// Package consent persists consent records. A record ties a targeted ID,
// the one-way identifier of a (user, source, relying party) triple, to the
// fingerprint of the attribute set the user consented to release.
package consent

import "context"

// Record is the persisted unit, scoped to one user partition.
type Record struct {
	TargetedID    string
	AttributeHash string
}

// Store is the consent storage contract. Saves are upserts keyed by
// (hashedUserID, targetedID); deletes report how many records were removed
// so callers can detect a diverged view.
type Store interface {
	// GetConsents returns all records in the user's partition.
	GetConsents(ctx context.Context, hashedUserID string) ([]Record, error)

	// SaveConsent creates or overwrites the record for targetedID.
	SaveConsent(ctx context.Context, hashedUserID, targetedID, attributeHash string) error

	// DeleteConsent removes the record for targetedID and returns the
	// number of records removed.
	DeleteConsent(ctx context.Context, hashedUserID, targetedID string) (int64, error)
}
