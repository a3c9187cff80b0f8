package reconcile

import (
	"context"
	"fmt"
	"time"

	"consentadmin/internal/consent"
	"consentadmin/internal/fingerprint"
	"consentadmin/internal/identity"
	"consentadmin/internal/metadata"
	"consentadmin/internal/platform/metrics"
	"consentadmin/internal/release"
	"consentadmin/internal/session"
	dErrors "consentadmin/pkg/domain-errors"
)

// Service is the request-level orchestrator: it resolves the identity
// context, fans out over relying parties for listings, and drives single
// relying-party actions. Each call is fully synchronous and stateless;
// nothing derived is cached across requests.
type Service struct {
	resolver  *identity.Resolver
	metadata  metadata.Provider
	calc      *fingerprint.Calculator
	simulator *release.Simulator
	engine    *Engine
	actions   *Actions
	store     consent.Store

	hashAttributes bool
	exclude        []string
	metrics        *metrics.Metrics
}

func NewService(
	resolver *identity.Resolver,
	provider metadata.Provider,
	calc *fingerprint.Calculator,
	simulator *release.Simulator,
	engine *Engine,
	actions *Actions,
	store consent.Store,
	cfg EngineConfig,
	m *metrics.Metrics,
) *Service {
	return &Service{
		resolver:       resolver,
		metadata:       provider,
		calc:           calc,
		simulator:      simulator,
		engine:         engine,
		actions:        actions,
		store:          store,
		hashAttributes: cfg.HashAttributes,
		exclude:        cfg.ExcludeAttributes,
		metrics:        m,
	}
}

// Listing reconciles every candidate relying party for the session's user.
func (s *Service) Listing(ctx context.Context, sess session.Session) ([]Entry, error) {
	idCtx, source, err := s.resolver.Resolve(ctx, sess)
	if err != nil {
		return nil, err
	}

	rps, err := s.metadata.ListRelyingParties(ctx, metadata.SetSPRemote)
	if err != nil {
		return nil, fmt.Errorf("list relying parties: %w", err)
	}

	hashedUserID := s.calc.HashedUserID(idCtx.UserID, idCtx.SourceID)
	start := time.Now()
	records, err := s.store.GetConsents(ctx, hashedUserID)
	if err != nil {
		return nil, fmt.Errorf("load consent records: %w", err)
	}
	s.metrics.ObserveStore("get", time.Since(start))

	return s.engine.Reconcile(ctx, idCtx, source, rps, IndexRecords(records))
}

// ApplyAction applies a grant or revoke for one relying party and reports
// whether a record is stored afterwards. Fingerprints are recomputed fresh;
// whatever was displayed earlier does not participate.
func (s *Service) ApplyAction(ctx context.Context, sess session.Session, action Action, rpEntityID string) (bool, error) {
	idCtx, source, err := s.resolver.Resolve(ctx, sess)
	if err != nil {
		return false, err
	}

	rp, err := s.metadata.RelyingParty(ctx, rpEntityID, metadata.SetSPRemote)
	if err != nil {
		return false, fmt.Errorf("relying party %q: %w", rpEntityID, err)
	}

	released, err := s.simulator.Simulate(ctx, idCtx, source, rp, s.exclude)
	if err != nil {
		return false, err
	}

	hashedUserID := s.calc.HashedUserID(idCtx.UserID, idCtx.SourceID)
	targetedID := s.calc.TargetedID(idCtx.UserID, idCtx.SourceID, rp.DestinationID())
	attributeHash := fingerprint.AttributeFingerprint(released.Attributes, s.hashAttributes)

	outcome, err := s.actions.Apply(ctx, action, hashedUserID, rp.EntityID, targetedID, attributeHash)
	if err != nil {
		return false, err
	}
	return outcome == OutcomeStored, nil
}

// ParseAction translates the wire action parameter: "true" grants, "false"
// revokes, anything else is rejected before any storage call.
func ParseAction(raw string) (Action, error) {
	switch raw {
	case "true":
		return ActionGrant, nil
	case "false":
		return ActionRevoke, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidAction,
			fmt.Sprintf("unknown consent action %q", raw))
	}
}
