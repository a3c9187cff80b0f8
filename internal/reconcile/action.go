package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"consentadmin/internal/audit"
	"consentadmin/internal/consent"
	"consentadmin/internal/platform/metrics"
	dErrors "consentadmin/pkg/domain-errors"
	"consentadmin/pkg/requestcontext"
)

// Actions applies user-issued consent decisions for a single relying party.
// Fingerprints are always recomputed at action time; if attributes changed
// between render and click, the fresh fingerprint wins silently.
type Actions struct {
	store   consent.Store
	audit   *audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewActions(store consent.Store, publisher *audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Actions {
	return &Actions{store: store, audit: publisher, logger: logger, metrics: m}
}

// Apply executes the action against the consent store.
//
//   - ActionGrant upserts the record; a changed status resolves back to ok
//     by the user re-confirming. Returns OutcomeStored.
//   - ActionRevoke deletes the record. Zero removed records means the
//     reconciliation view and the store diverged; that surfaces as
//     CodeStorageInconsistency, never as silent success. Returns
//     OutcomeNotStored on success.
//   - Any other action is rejected with CodeInvalidAction before any store
//     call.
func (a *Actions) Apply(ctx context.Context, action Action, hashedUserID, relyingPartyID, targetedID, attributeHash string) (Outcome, error) {
	switch action {
	case ActionGrant:
		start := time.Now()
		if err := a.store.SaveConsent(ctx, hashedUserID, targetedID, attributeHash); err != nil {
			a.metrics.IncrementAction(string(action), "error")
			return "", fmt.Errorf("save consent for %q: %w", relyingPartyID, err)
		}
		a.metrics.ObserveStore("save", time.Since(start))
		a.metrics.IncrementAction(string(action), string(OutcomeStored))
		a.emit(ctx, audit.EventConsentGranted, hashedUserID, relyingPartyID, targetedID)
		return OutcomeStored, nil

	case ActionRevoke:
		start := time.Now()
		removed, err := a.store.DeleteConsent(ctx, hashedUserID, targetedID)
		if err != nil {
			a.metrics.IncrementAction(string(action), "error")
			return "", fmt.Errorf("delete consent for %q: %w", relyingPartyID, err)
		}
		a.metrics.ObserveStore("delete", time.Since(start))
		if removed == 0 {
			a.metrics.IncrementAction(string(action), "inconsistent")
			return "", dErrors.New(dErrors.CodeStorageInconsistency,
				fmt.Sprintf("revoke for %q removed no records; consent view and store have diverged", relyingPartyID))
		}
		a.metrics.IncrementAction(string(action), string(OutcomeNotStored))
		a.emit(ctx, audit.EventConsentRevoked, hashedUserID, relyingPartyID, targetedID)
		return OutcomeNotStored, nil

	default:
		a.metrics.IncrementAction(string(action), "invalid")
		return "", dErrors.New(dErrors.CodeInvalidAction,
			fmt.Sprintf("unknown consent action %q", action))
	}
}

// emit records the compliance event. Audit failures are logged, not
// propagated; the user's decision has already been applied.
func (a *Actions) emit(ctx context.Context, event audit.EventType, hashedUserID, relyingPartyID, targetedID string) {
	if a.audit == nil {
		return
	}
	err := a.audit.Emit(ctx, audit.Event{
		Category:     audit.CategoryCompliance,
		Action:       string(event),
		HashedUserID: hashedUserID,
		RelyingParty: relyingPartyID,
		TargetedID:   targetedID,
		RequestID:    requestcontext.RequestID(ctx),
	})
	if err != nil {
		a.logger.WarnContext(ctx, "audit emit failed",
			"event", string(event),
			"error", err.Error(),
		)
	}
}
