// Package metadata defines the descriptor model for the hosted identity
// source and the remote relying parties, plus the provider contract the
// reconciliation engine consumes.
package metadata

import (
	"context"
	"sort"
)

// Well-known metadata set names.
const (
	SetIdPHosted = "saml20-idp-hosted"
	SetIdPRemote = "saml20-idp-remote"
	SetSPRemote  = "saml20-sp-remote"
)

// DefaultUserIDAttribute identifies the user when the identity source does
// not override it.
const DefaultUserIDAttribute = "eduPersonPrincipalName"

// LocalizedString maps a locale tag to a display string.
type LocalizedString map[string]string

// Resolve returns the value for the preferred locale, falling back to "en"
// and then to any value (smallest locale tag, for determinism).
func (l LocalizedString) Resolve(locale string) (string, bool) {
	if len(l) == 0 {
		return "", false
	}
	if v, ok := l[locale]; ok && v != "" {
		return v, true
	}
	if v, ok := l["en"]; ok && v != "" {
		return v, true
	}
	tags := make([]string, 0, len(l))
	for tag := range l {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		if l[tag] != "" {
			return l[tag], true
		}
	}
	return "", false
}

// IdentitySource describes the hosted identity provider.
type IdentitySource struct {
	EntityID    string `json:"entityId"`
	MetadataSet string `json:"metadataSet"`

	// UserIDAttribute overrides the attribute identifying the user.
	UserIDAttribute string `json:"userIdAttribute,omitempty"`

	// ConsentDisabled lists relying parties that never go through consent
	// for this source.
	ConsentDisabled []string `json:"consentDisable,omitempty"`
}

// ConsentDisabledFor reports whether the relying party is excluded from
// consent handling for this source.
func (s *IdentitySource) ConsentDisabledFor(rpEntityID string) bool {
	for _, id := range s.ConsentDisabled {
		if id == rpEntityID {
			return true
		}
	}
	return false
}

// UserIDAttributeName returns the configured user-identifying attribute or
// the well-known default.
func (s *IdentitySource) UserIDAttributeName() string {
	if s.UserIDAttribute != "" {
		return s.UserIDAttribute
	}
	return DefaultUserIDAttribute
}

// RelyingParty describes a service provider receiving attributes.
type RelyingParty struct {
	EntityID    string `json:"entityId"`
	MetadataSet string `json:"metadataSet"`

	Name                    LocalizedString `json:"name,omitempty"`
	OrganizationDisplayName LocalizedString `json:"organizationDisplayName,omitempty"`
	Description             LocalizedString `json:"description,omitempty"`
	ServiceURL              string          `json:"serviceUrl,omitempty"`

	// AttributeLimit restricts which attributes the release pipeline lets
	// through to this relying party. Empty means no restriction.
	AttributeLimit []string `json:"attributeLimit,omitempty"`

	// ConsentExemptAttributes are excluded from consent tracking for this
	// relying party on top of the deployment-wide exclusion list.
	ConsentExemptAttributes []string `json:"consentExemptAttributes,omitempty"`
}

// DestinationID is the identifier scoping consent to this relying party.
func (rp *RelyingParty) DestinationID() string {
	return rp.MetadataSet + "|" + rp.EntityID
}

// Provider is the metadata lookup contract consumed by the core.
type Provider interface {
	// CurrentSourceID returns the entity ID of the hosted identity source
	// in the given metadata set.
	CurrentSourceID(ctx context.Context, set string) (string, error)

	// IdentitySource returns the descriptor for an identity source.
	IdentitySource(ctx context.Context, entityID, set string) (*IdentitySource, error)

	// RelyingParty returns the descriptor for a relying party.
	RelyingParty(ctx context.Context, entityID, set string) (*RelyingParty, error)

	// ListRelyingParties returns all relying parties in the set, ordered by
	// entity ID so reconciliation output is stable.
	ListRelyingParties(ctx context.Context, set string) ([]*RelyingParty, error)
}
