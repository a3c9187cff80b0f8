// Package audit captures consent decisions as structured events. Consent
// changes have regulatory significance, so the pipeline favors explicit
// event types and pluggable sinks over free-form logging.
package audit

import (
	"context"
	"time"
)

// Category classifies events for retention and routing.
type Category string

const (
	// CategoryCompliance covers events with legal significance: consent
	// grants and revocations. Long retention, tamper-evident sinks.
	CategoryCompliance Category = "compliance"

	// CategoryOperations covers events kept for debugging visibility.
	CategoryOperations Category = "operations"
)

// EventType names the audited actions.
type EventType string

const (
	EventConsentGranted EventType = "consent_granted"
	EventConsentRevoked EventType = "consent_revoked"
)

// Event is emitted from domain logic. It carries only one-way identifiers;
// raw user IDs and attribute values never enter the audit stream.
type Event struct {
	ID           string    `json:"id"`
	Category     Category  `json:"category"`
	Timestamp    time.Time `json:"timestamp"`
	Action       string    `json:"action"`
	HashedUserID string    `json:"hashed_user_id"`
	RelyingParty string    `json:"relying_party"`
	TargetedID   string    `json:"targeted_id"`
	RequestID    string    `json:"request_id,omitempty"`
}

// Sink receives events for persistence or forwarding.
type Sink interface {
	Append(ctx context.Context, event Event) error
}
