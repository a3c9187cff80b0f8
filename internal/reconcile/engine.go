package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"consentadmin/internal/fingerprint"
	"consentadmin/internal/identity"
	"consentadmin/internal/metadata"
	"consentadmin/internal/platform/metrics"
	"consentadmin/internal/release"
)

// Engine derives the consent status of every candidate relying party by
// replaying the release pipeline and diffing fresh fingerprints against
// stored records. It is read-only: it never writes to the consent store.
type Engine struct {
	calc      *fingerprint.Calculator
	simulator *release.Simulator

	hashAttributes bool
	exclude        []string
	locale         string

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// EngineConfig carries the deployment policy the engine applies.
type EngineConfig struct {
	// HashAttributes stores one-way fingerprints instead of canonical
	// attribute serializations.
	HashAttributes bool

	// ExcludeAttributes are exempt from consent tracking deployment-wide.
	ExcludeAttributes []string

	// Locale selects localized descriptor fields; defaults to "en".
	Locale string
}

func NewEngine(
	calc *fingerprint.Calculator,
	simulator *release.Simulator,
	cfg EngineConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Engine {
	locale := cfg.Locale
	if locale == "" {
		locale = "en"
	}
	return &Engine{
		calc:           calc,
		simulator:      simulator,
		hashAttributes: cfg.HashAttributes,
		exclude:        cfg.ExcludeAttributes,
		locale:         locale,
		logger:         logger,
		metrics:        m,
		tracer:         otel.Tracer("consentadmin/reconcile"),
	}
}

// Reconcile classifies every relying party in rps against the stored
// fingerprint map (targeted ID -> attribute hash). Relying parties on the
// identity source's consent-disabled list are never surfaced. Output
// preserves input order.
//
// Errors: a pipeline failure for any relying party aborts the whole pass; a
// relying party with unknown release state must never be reported as
// none/ok by default.
func (e *Engine) Reconcile(
	ctx context.Context,
	idCtx *identity.Context,
	source *metadata.IdentitySource,
	rps []*metadata.RelyingParty,
	stored map[string]string,
) ([]Entry, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "reconcile",
		trace.WithAttributes(attribute.Int("relying_parties", len(rps))))
	defer span.End()

	hashedUserID := e.calc.HashedUserID(idCtx.UserID, idCtx.SourceID)

	entries := make([]Entry, 0, len(rps))
	for _, rp := range rps {
		if source.ConsentDisabledFor(rp.EntityID) {
			continue
		}

		released, err := e.simulator.Simulate(ctx, idCtx, source, rp, e.exclude)
		if err != nil {
			return nil, fmt.Errorf("reconcile %q: %w", rp.EntityID, err)
		}

		fp := fingerprint.Fingerprint{
			HashedUserID:  hashedUserID,
			TargetedID:    e.calc.TargetedID(idCtx.UserID, idCtx.SourceID, rp.DestinationID()),
			AttributeHash: fingerprint.AttributeFingerprint(released.Attributes, e.hashAttributes),
		}

		status := classify(stored, fp.TargetedID, fp.AttributeHash)
		e.metrics.IncrementStatus(string(status))
		e.logger.DebugContext(ctx, "reconciled relying party",
			"relying_party", rp.EntityID,
			"status", status,
		)

		entries = append(entries, Entry{
			RelyingPartyID:     rp.EntityID,
			DisplayName:        e.displayName(rp),
			Description:        e.description(rp),
			ServiceURL:         rp.ServiceURL,
			Status:             status,
			Fingerprint:        fp,
			ReleasedAttributes: released.Attributes,
		})
	}

	e.metrics.ObserveReconcile(time.Since(start))
	return entries, nil
}

func classify(stored map[string]string, targetedID, attributeHash string) Status {
	storedHash, ok := stored[targetedID]
	if !ok {
		return StatusNone
	}
	if storedHash == attributeHash {
		return StatusOK
	}
	return StatusChanged
}

// displayName resolves the relying party's name through the fallback chain:
// localized name, localized organization display name, raw entity ID.
func (e *Engine) displayName(rp *metadata.RelyingParty) string {
	if name, ok := rp.Name.Resolve(e.locale); ok {
		return name
	}
	if name, ok := rp.OrganizationDisplayName.Resolve(e.locale); ok {
		return name
	}
	return rp.EntityID
}

// description is resolved only when the relying party publishes one; the
// consumer decides the empty-state presentation.
func (e *Engine) description(rp *metadata.RelyingParty) string {
	desc, _ := rp.Description.Resolve(e.locale)
	return desc
}
