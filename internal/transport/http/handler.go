// Package httptransport is the thin HTTP layer over the reconciliation
// service. It translates query parameters and domain errors; business logic
// stays in the service.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"consentadmin/internal/platform/middleware"
	"consentadmin/internal/reconcile"
	"consentadmin/internal/session"
	dErrors "consentadmin/pkg/domain-errors"
	"consentadmin/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/consent-mocks.go -package=mocks ConsentService

// ConsentService defines the reconciliation operations the handler drives.
type ConsentService interface {
	Listing(ctx context.Context, sess session.Session) ([]reconcile.Entry, error)
	ApplyAction(ctx context.Context, sess session.Session, action reconcile.Action, rpEntityID string) (bool, error)
}

// Handler serves the consent administration surface.
type Handler struct {
	logger   *slog.Logger
	sessions session.Provider
	service  ConsentService

	showDescription bool
	returnURL       string
}

func New(service ConsentService, sessions session.Provider, logger *slog.Logger, showDescription bool, returnURL string) *Handler {
	return &Handler{
		logger:          logger,
		sessions:        sessions,
		service:         service,
		showDescription: showDescription,
		returnURL:       returnURL,
	}
}

// Register mounts the consent routes with the shared middleware stack.
func (h *Handler) Register(r chi.Router) {
	r.Route("/consent", func(consentRouter chi.Router) {
		consentRouter.Use(middleware.Recovery(h.logger))
		consentRouter.Use(middleware.RequestID)
		consentRouter.Use(middleware.RequestTime)
		consentRouter.Use(middleware.Logger(h.logger))
		consentRouter.Use(middleware.Timeout(30 * time.Second))
		consentRouter.Get("/", h.handleConsent)
	})
}

// handleConsent serves the reconciliation view. A logout parameter ends the
// session before anything else; action+cv drive a single relying-party
// grant/revoke; otherwise the full listing is returned.
func (h *Handler) handleConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessions.FromRequest(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	if r.URL.Query().Has("logout") {
		h.handleLogout(w, r, sess)
		return
	}

	if !sess.IsAuthenticated() {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	action := r.URL.Query().Get("action")
	target := r.URL.Query().Get("cv")
	if action != "" && target != "" {
		h.handleAction(w, r, sess, action, target)
		return
	}

	entries, err := h.service.Listing(ctx, sess)
	if err != nil {
		h.logger.ErrorContext(ctx, "reconciliation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		h.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, listingResponse{
		RelyingParties:  toListingEntries(entries),
		ShowDescription: h.showDescription,
	})
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request, sess session.Session, rawAction, target string) {
	ctx := r.Context()

	action, err := reconcile.ParseAction(rawAction)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid consent action",
			"request_id", requestcontext.RequestID(ctx),
			"action", rawAction,
		)
		h.writeError(ctx, w, err)
		return
	}

	isStored, err := h.service.ApplyAction(ctx, sess, action, target)
	if err != nil {
		h.logger.ErrorContext(ctx, "consent action failed",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(action),
			"relying_party", target,
			"error", err.Error(),
		)
		h.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, actionResponse{IsStored: isStored})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request, sess session.Session) {
	if err := sess.Logout(h.returnURL); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, h.returnURL, http.StatusSeeOther)
}

func (h *Handler) writeError(_ context.Context, w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), errorResponse{Error: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
