// Package reconcile classifies, per relying party, whether the user's
// previously recorded consent still matches what would be released today,
// and applies grant/revoke actions against the consent store.
package reconcile

import (
	"consentadmin/internal/consent"
	"consentadmin/internal/fingerprint"
)

// Status is the derived consent state of one relying party. Derived on
// every pass, never persisted.
type Status string

const (
	// StatusNone: no consent record exists for the targeted ID.
	StatusNone Status = "none"

	// StatusChanged: a record exists but the attribute release has changed
	// since consent was recorded; consent must be re-confirmed.
	StatusChanged Status = "changed"

	// StatusOK: the stored fingerprint matches the current release.
	StatusOK Status = "ok"
)

// Entry is the reconciliation result for one relying party. Output order
// follows the input relying-party order.
type Entry struct {
	RelyingPartyID     string
	DisplayName        string
	Description        string // empty when the relying party publishes none
	ServiceURL         string
	Status             Status
	Fingerprint        fingerprint.Fingerprint
	ReleasedAttributes map[string][]string
}

// Action is a user-issued consent decision.
type Action string

const (
	ActionGrant  Action = "grant"
	ActionRevoke Action = "revoke"
)

// Outcome reports the stored state after an action.
type Outcome string

const (
	OutcomeStored    Outcome = "stored"
	OutcomeNotStored Outcome = "not_stored"
)

// IndexRecords builds the targeted-ID lookup used for classification from a
// user's stored records.
func IndexRecords(records []consent.Record) map[string]string {
	stored := make(map[string]string, len(records))
	for _, r := range records {
		stored[r.TargetedID] = r.AttributeHash
	}
	return stored
}
