package handlers_test

import (
	"net/http"
	"testing"

	"github.com/anonto42/warbler/pkg/liketoggle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications(t *testing.T) {
	s := newTestServer(t)
	s.store.MustSignup("alice")
	bob := s.store.MustSignup("bob")
	first := s.store.MustPost(bob, "one").ID.Hex()
	second := s.store.MustPost(bob, "two").ID.Hex()

	s.login("alice")
	csrf := s.csrf()
	require.Equal(t, http.StatusOK, s.toggle(first, csrf).Code)
	require.Equal(t, http.StatusOK, s.toggle(second, csrf).Code)

	s.login("bob")
	headers := map[string]string{liketoggle.CSRFHeader: csrf}

	rec := s.do(http.MethodGet, "/api/v1/notifications/unread-count", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 2}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/notifications?limit=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Notifications []struct {
			ID       uint   `json:"id"`
			TargetID string `json:"target_id"`
			Actor    struct {
				Username string `json:"username"`
			} `json:"actor"`
		} `json:"notifications"`
		Meta map[string]interface{} `json:"meta"`
	}](t, rec)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, second, page.Notifications[0].TargetID, "newest first")
	assert.Equal(t, "alice", page.Notifications[0].Actor.Username)
	assert.Equal(t, true, page.Meta["hasNextPage"])

	rec = s.do(http.MethodPut, "/api/v1/notifications/"+itoa(page.Notifications[0].ID)+"/read", nil, headers)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/notifications/unread-count", nil, nil)
	assert.JSONEq(t, `{"count": 1}`, rec.Body.String())

	rec = s.do(http.MethodPut, "/api/v1/notifications/999/read", nil, headers)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPut, "/api/v1/notifications/read-all", nil, headers)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/notifications/unread-count", nil, nil)
	assert.JSONEq(t, `{"count": 0}`, rec.Body.String())
}
