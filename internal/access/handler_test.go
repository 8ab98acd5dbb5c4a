package access

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type stubDecisionService struct {
	decision Decision
	err      error
	lastIn   CheckInput
}

func (s *stubDecisionService) CheckRight(ctx context.Context, input CheckInput) (Decision, error) {
	s.lastIn = input
	return s.decision, s.err
}

func newTestRouter(service DecisionService) http.Handler {
	h := NewHandler(nil, service)
	r := chi.NewRouter()
	r.Route("/access", h.MountRoutes)
	return r
}

func TestHandleCheckReturnsDecision(t *testing.T) {
	service := &stubDecisionService{decision: Decision{
		Allowed: true,
		Reason:  ReasonAllowed,
		Context: DecisionContext{UserID: 7, Right: "backoffice:dashboard"},
	}}
	router := newTestRouter(service)

	body := `{"userId": 7, "orgId": 10, "right": "backoffice:dashboard"}`
	req := httptest.NewRequest(http.MethodPost, "/access/check", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var decision Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	require.True(t, decision.Allowed)
	require.Equal(t, ReasonAllowed, decision.Reason)

	require.EqualValues(t, 7, service.lastIn.UserID)
	require.NotNil(t, service.lastIn.OrgID)
	require.EqualValues(t, 10, *service.lastIn.OrgID)
}

func TestHandleCheckDeniedIsStillHTTP200(t *testing.T) {
	service := &stubDecisionService{decision: Decision{Allowed: false, Reason: ReasonDenied}}
	router := newTestRouter(service)

	body := `{"userId": 7, "right": "backoffice:dashboard"}`
	req := httptest.NewRequest(http.MethodPost, "/access/check", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var decision Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonDenied, decision.Reason)
}

func TestHandleCheckRejectsMissingFields(t *testing.T) {
	router := newTestRouter(&stubDecisionService{})

	req := httptest.NewRequest(http.MethodPost, "/access/check", strings.NewReader(`{"userId": 7}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/access/check", strings.NewReader(`not json`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRights(t *testing.T) {
	router := newTestRouter(&stubDecisionService{})

	req := httptest.NewRequest(http.MethodGet, "/access/rights", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Rights []string `json:"rights"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Rights)
}
