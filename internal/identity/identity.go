// Package identity resolves the per-request identity context: which
// identity source authenticated the user, and which attribute value
// identifies them for consent purposes.
package identity

import (
	"context"
	"fmt"

	"consentadmin/internal/metadata"
	"consentadmin/internal/session"
	dErrors "consentadmin/pkg/domain-errors"
)

// Context is the immutable identity context of one request. It is created
// once by the Resolver and never mutated afterwards.
type Context struct {
	// SourceID disambiguates where the user authenticated:
	// "saml20-idp-remote|<idp>" when bridged through a remote identity
	// provider, "<set>|<entity-id>" for the local one. Bridged and local
	// authentications must never collide in targeted-ID derivation.
	SourceID string

	// UserID is the authoritative user identifier for consent purposes.
	UserID string

	// RawAttributes is the attribute set asserted at authentication time,
	// before any release pipeline runs.
	RawAttributes map[string][]string
}

// Resolver derives the identity context from a session and the hosted
// identity-source metadata.
type Resolver struct {
	metadata metadata.Provider
}

func NewResolver(provider metadata.Provider) *Resolver {
	return &Resolver{metadata: provider}
}

// Resolve builds the identity context for the session and returns it
// together with the hosted identity-source descriptor.
//
// Errors: CodeMissingIdentifier when the user-identifying attribute is
// absent or empty; metadata lookup failures pass through wrapped.
func (r *Resolver) Resolve(ctx context.Context, sess session.Session) (*Context, *metadata.IdentitySource, error) {
	idpEntityID, err := r.metadata.CurrentSourceID(ctx, metadata.SetIdPHosted)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve hosted identity source: %w", err)
	}
	idpMeta, err := r.metadata.IdentitySource(ctx, idpEntityID, metadata.SetIdPHosted)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve identity source descriptor: %w", err)
	}

	sourceID := idpMeta.MetadataSet + "|" + idpMeta.EntityID
	if remoteIdP, ok := sess.AuthData(session.AuthDataRemoteIdP); ok {
		// Authenticated via a bridged remote identity provider.
		sourceID = metadata.SetIdPRemote + "|" + remoteIdP
	}

	attributes := sess.Attributes()
	userIDAttr := idpMeta.UserIDAttributeName()
	userIDs := attributes[userIDAttr]
	if len(userIDs) == 0 || userIDs[0] == "" {
		return nil, nil, dErrors.New(dErrors.CodeMissingIdentifier,
			fmt.Sprintf("could not generate user identifier for storing consent: attribute %q was not available", userIDAttr))
	}

	return &Context{
		SourceID:      sourceID,
		UserID:        userIDs[0],
		RawAttributes: copyAttributes(attributes),
	}, idpMeta, nil
}

func copyAttributes(attributes map[string][]string) map[string][]string {
	out := make(map[string][]string, len(attributes))
	for name, values := range attributes {
		out[name] = append([]string(nil), values...)
	}
	return out
}
