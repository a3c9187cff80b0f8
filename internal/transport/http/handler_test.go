package httptransport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"consentadmin/internal/reconcile"
	"consentadmin/internal/session"
	"consentadmin/internal/transport/http/mocks"
	dErrors "consentadmin/pkg/domain-errors"
)

type fakeSession struct {
	authenticated bool
	loggedOut     bool
	logoutURL     string
}

func (s *fakeSession) IsAuthenticated() bool { return s.authenticated }

func (s *fakeSession) Attributes() map[string][]string { return nil }

func (s *fakeSession) AuthData(string) (string, bool) { return "", false }

func (s *fakeSession) Logout(returnURL string) error {
	s.loggedOut = true
	s.logoutURL = returnURL
	return nil
}

type fakeProvider struct {
	sess session.Session
	err  error
}

func (p *fakeProvider) FromRequest(*http.Request) (session.Session, error) {
	return p.sess, p.err
}

type HandlerSuite struct {
	suite.Suite

	ctrl     *gomock.Controller
	service  *mocks.MockConsentService
	sess     *fakeSession
	provider *fakeProvider
	router   chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockConsentService(s.ctrl)
	s.sess = &fakeSession{authenticated: true}
	s.provider = &fakeProvider{sess: s.sess}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := New(s.service, s.provider, logger, true, "https://idp.example.org/")
	s.router = chi.NewRouter()
	handler.Register(s.router)
}

func (s *HandlerSuite) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (s *HandlerSuite) TestListing() {
	entries := []reconcile.Entry{
		{
			RelyingPartyID:     "https://sp1.example.com",
			DisplayName:        "Service One",
			Description:        "A service",
			ServiceURL:         "https://sp1.example.com/about",
			Status:             reconcile.StatusOK,
			ReleasedAttributes: map[string][]string{"mail": {"u1@example.org"}},
		},
		{
			RelyingPartyID: "https://sp2.example.com",
			DisplayName:    "https://sp2.example.com",
			Status:         reconcile.StatusNone,
		},
	}
	s.service.EXPECT().Listing(gomock.Any(), s.sess).Return(entries, nil)

	rec := s.get("/consent/")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("application/json", rec.Header().Get("Content-Type"))

	var body listingResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.True(body.ShowDescription)
	s.Require().Len(body.RelyingParties, 2)
	s.Equal("https://sp1.example.com", body.RelyingParties[0].ID)
	s.Equal("Service One", body.RelyingParties[0].Name)
	s.Equal("A service", body.RelyingParties[0].Description)
	s.Equal("ok", body.RelyingParties[0].Status)
	s.Equal("none", body.RelyingParties[1].Status)
}

func (s *HandlerSuite) TestListingFailure() {
	s.service.EXPECT().Listing(gomock.Any(), s.sess).
		Return(nil, dErrors.New(dErrors.CodeInternal, "boom"))

	rec := s.get("/consent/")

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.JSONEq(`{"error":"internal"}`, rec.Body.String())
}

func (s *HandlerSuite) TestGrantAction() {
	s.service.EXPECT().
		ApplyAction(gomock.Any(), s.sess, reconcile.ActionGrant, "https://sp1.example.com").
		Return(true, nil)

	rec := s.get("/consent/?action=true&cv=https%3A%2F%2Fsp1.example.com")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"isStored":true}`, rec.Body.String())
}

func (s *HandlerSuite) TestRevokeAction() {
	s.service.EXPECT().
		ApplyAction(gomock.Any(), s.sess, reconcile.ActionRevoke, "https://sp1.example.com").
		Return(false, nil)

	rec := s.get("/consent/?action=false&cv=https%3A%2F%2Fsp1.example.com")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"isStored":false}`, rec.Body.String())
}

func (s *HandlerSuite) TestInvalidActionNeverReachesService() {
	// No ApplyAction expectation: the parameter is rejected first.
	rec := s.get("/consent/?action=maybe&cv=https%3A%2F%2Fsp1.example.com")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.JSONEq(`{"error":"invalid_action"}`, rec.Body.String())
}

func (s *HandlerSuite) TestRevokeInconsistencyMapsToConflict() {
	s.service.EXPECT().
		ApplyAction(gomock.Any(), s.sess, reconcile.ActionRevoke, "https://sp1.example.com").
		Return(false, dErrors.New(dErrors.CodeStorageInconsistency, "diverged"))

	rec := s.get("/consent/?action=false&cv=https%3A%2F%2Fsp1.example.com")

	s.Equal(http.StatusConflict, rec.Code)
	s.JSONEq(`{"error":"storage_inconsistency"}`, rec.Body.String())
}

func (s *HandlerSuite) TestActionWithoutTargetFallsBackToListing() {
	s.service.EXPECT().Listing(gomock.Any(), s.sess).Return(nil, nil)

	rec := s.get("/consent/?action=true")

	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestUnauthenticated() {
	s.sess.authenticated = false

	rec := s.get("/consent/")

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.JSONEq(`{"error":"unauthorized"}`, rec.Body.String())
}

func (s *HandlerSuite) TestSessionResolutionFailure() {
	s.provider.err = dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	s.provider.sess = nil

	rec := s.get("/consent/")

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestLogout() {
	rec := s.get("/consent/?logout")

	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("https://idp.example.org/", rec.Header().Get("Location"))
	s.True(s.sess.loggedOut)
	s.Equal("https://idp.example.org/", s.sess.logoutURL)

	cookies := rec.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal(session.SessionCookie, cookies[0].Name)
	s.Empty(cookies[0].Value)
	s.Negative(cookies[0].MaxAge)
}

func (s *HandlerSuite) TestLogoutWorksWithoutAuthentication() {
	s.sess.authenticated = false

	rec := s.get("/consent/?logout")

	s.Equal(http.StatusSeeOther, rec.Code)
	s.True(s.sess.loggedOut)
}

func TestWriteErrorDefaultsToInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	h := &Handler{}
	h.writeError(nil, rec, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal"}`, rec.Body.String())
}
