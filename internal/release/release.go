// Package release replays the attribute release pipeline for a relying
// party in passive mode: rules run to completion with interactive steps
// forced to their defaults, so the result is exactly the attribute set that
// would be released, without ever blocking on a user decision.
package release

import (
	"context"
	"fmt"
	"strings"

	"consentadmin/internal/identity"
	"consentadmin/internal/metadata"
	dErrors "consentadmin/pkg/domain-errors"
)

// State is the execution state threaded through the release pipeline. Rules
// mutate Attributes in place and may branch on the descriptors or the
// remote source.
type State struct {
	Attributes  map[string][]string
	Source      *metadata.IdentitySource
	Destination *metadata.RelyingParty

	// RemoteSourceID is set when the user authenticated through a bridged
	// remote identity provider. Rules may branch on it.
	RemoteSourceID string

	// Passive marks a non-interactive run. Rules that would normally
	// request user interaction must apply their default outcome instead of
	// suspending.
	Passive bool
}

// Runner executes the configured release pipeline against a state. It must
// not suspend for user interaction when the state is passive.
type Runner interface {
	RunPassive(ctx context.Context, state *State) error
}

// ReleasedAttributeSet is the attribute set as it would actually be sent to
// the relying party, after pipeline execution and exemption filtering. It is
// recomputed fresh on every pass; rules may be time-dependent, so it is
// never cached across requests.
type ReleasedAttributeSet struct {
	RelyingPartyID string
	Attributes     map[string][]string
}

// Simulator drives the release pipeline for consent reconciliation.
type Simulator struct {
	runner Runner
}

func NewSimulator(runner Runner) *Simulator {
	return &Simulator{runner: runner}
}

// Simulate runs the pipeline for the relying party and strips every
// attribute in excluded plus the relying party's own consent-exempt set.
// Exempted attributes never reach the fingerprint, so excluding an attribute
// from tracking cannot invalidate existing consent.
//
// Errors: CodePipelineFailure when the pipeline signals an unrecoverable
// error; the caller must abort reconciliation rather than report an unknown
// release state.
func (s *Simulator) Simulate(
	ctx context.Context,
	idCtx *identity.Context,
	source *metadata.IdentitySource,
	rp *metadata.RelyingParty,
	excluded []string,
) (*ReleasedAttributeSet, error) {
	state := &State{
		Attributes:  copyAttributes(idCtx.RawAttributes),
		Source:      source,
		Destination: rp,
		Passive:     true,
	}
	if remote, ok := remoteSource(idCtx.SourceID); ok {
		state.RemoteSourceID = remote
	}

	if err := s.runner.RunPassive(ctx, state); err != nil {
		return nil, dErrors.Wrap(dErrors.CodePipelineFailure,
			fmt.Sprintf("release pipeline failed for relying party %q", rp.EntityID), err)
	}

	for _, name := range excluded {
		delete(state.Attributes, name)
	}
	for _, name := range rp.ConsentExemptAttributes {
		delete(state.Attributes, name)
	}

	return &ReleasedAttributeSet{
		RelyingPartyID: rp.EntityID,
		Attributes:     state.Attributes,
	}, nil
}

// remoteSource extracts the remote identity provider from a bridged source
// ID of the form "<set>-idp-remote|<idp>".
func remoteSource(sourceID string) (string, bool) {
	if !strings.Contains(sourceID, "-idp-remote|") {
		return "", false
	}
	i := strings.Index(sourceID, "|")
	return sourceID[i+1:], true
}

func copyAttributes(attributes map[string][]string) map[string][]string {
	out := make(map[string][]string, len(attributes))
	for name, values := range attributes {
		out[name] = append([]string(nil), values...)
	}
	return out
}
