package groups

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

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/groups", h.MountRoutes)
	return r
}

func TestBulkAddMembersPartialFailureResponse(t *testing.T) {
	repo := newMemoryRepo()
	membership := newMemoryMembership()
	svc := newTestService(repo, membership)
	router := newTestRouter(svc)

	_, err := svc.CreateGroup(context.Background(), CreateGroupInput{Name: "org-ops", OrgID: int64Ptr(10)})
	require.NoError(t, err)
	membership.setActive(10, 1)

	body := `{"userIds": [1, 2, 3]}`
	req := httptest.NewRequest(http.MethodPost, "/groups/1/members/bulk", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var payload struct {
		Detail         string  `json:"detail"`
		FailingUserIDs []int64 `json:"failingUserIds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, []int64{2, 3}, payload.FailingUserIDs)
}

func TestBulkAddMembersSuccessCounts(t *testing.T) {
	repo := newMemoryRepo()
	membership := newMemoryMembership()
	svc := newTestService(repo, membership)
	router := newTestRouter(svc)

	_, err := svc.CreateGroup(context.Background(), CreateGroupInput{Name: "org-ops", OrgID: int64Ptr(10)})
	require.NoError(t, err)
	membership.setActive(10, 1)
	membership.setActive(10, 2)

	_, err = svc.AddMember(context.Background(), 1, 1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/groups/1/members/bulk", strings.NewReader(`{"userIds": [1, 2]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var result BulkAddResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, 2, result.RequestedCount)
	require.EqualValues(t, 1, result.InsertedCount)
}

func TestBulkAddMembersRequiresIDs(t *testing.T) {
	svc := newTestService(newMemoryRepo(), newMemoryMembership())
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/groups/1/members/bulk", strings.NewReader(`{"userIds": []}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
