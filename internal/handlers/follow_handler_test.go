package handlers_test

import (
	"net/http"
	"testing"

	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/pkg/liketoggle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow(t *testing.T) {
	s := newTestServer(t)
	alice := s.store.MustSignup("alice")
	bob := s.store.MustSignup("bob")
	s.login("alice")
	headers := map[string]string{liketoggle.CSRFHeader: s.csrf()}

	rec := s.do(http.MethodPost, "/api/v1/users/"+itoa(alice.ID)+"/follow", nil, headers)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/users/999/follow", nil, headers)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/users/"+itoa(bob.ID)+"/follow", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"following": true}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/users/"+itoa(bob.ID)+"/follow", nil, headers)
	assert.Equal(t, http.StatusConflict, rec.Code)

	notifications := s.store.Notifications.All()
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationFollow, notifications[0].Type)
	assert.Equal(t, bob.ID, notifications[0].RecipientID)

	rec = s.do(http.MethodGet, "/api/v1/users/"+itoa(bob.ID)+"/followers", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	followers := decode[[]models.UserCompact](t, rec)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)

	rec = s.do(http.MethodGet, "/api/v1/users/"+itoa(alice.ID)+"/following", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.UserCompact](t, rec), 1)

	rec = s.do(http.MethodDelete, "/api/v1/users/"+itoa(bob.ID)+"/follow", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"following": false}`, rec.Body.String())

	rec = s.do(http.MethodDelete, "/api/v1/users/"+itoa(bob.ID)+"/follow", nil, headers)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
