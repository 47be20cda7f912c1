package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/anonto42/warbler/pkg/liketoggle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessage(t *testing.T) {
	s := newTestServer(t)
	alice := s.store.MustSignup("alice")
	s.login("alice")
	headers := map[string]string{liketoggle.CSRFHeader: s.csrf()}

	rec := s.postJSON("/api/v1/messages", map[string]string{"text": "first warble"}, headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	msg := decode[models.Message](t, rec)
	assert.Equal(t, alice.ID, msg.UserID)
	assert.Equal(t, "first warble", msg.Text)

	rec = s.postJSON("/api/v1/messages", map[string]string{"text": strings.Repeat("a", 141)}, headers)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.postJSON("/api/v1/messages", map[string]string{"text": ""}, headers)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMessage(t *testing.T) {
	s := newTestServer(t)
	bob := s.store.MustSignup("bob")
	s.store.MustSignup("alice")
	id := s.store.MustPost(bob, "hi").ID.Hex()
	s.login("alice")

	rec := s.do(http.MethodGet, "/api/v1/messages/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.EnrichedMessage](t, rec)
	assert.Equal(t, "bob", got.Author.Username)
	assert.False(t, got.IsLiked)

	rec = s.do(http.MethodGet, "/api/v1/messages/not-an-id", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMessage(t *testing.T) {
	s := newTestServer(t)
	alice := s.store.MustSignup("alice")
	s.store.MustSignup("bob")
	id := s.store.MustPost(alice, "mine").ID.Hex()

	s.login("bob")
	bobCSRF := s.csrf()
	require.Equal(t, http.StatusOK, s.toggle(id, bobCSRF).Code)

	rec := s.do(http.MethodDelete, "/api/v1/messages/"+id, nil, map[string]string{liketoggle.CSRFHeader: bobCSRF})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	s.login("alice")
	rec = s.do(http.MethodDelete, "/api/v1/messages/"+id, nil, map[string]string{liketoggle.CSRFHeader: s.csrf()})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := s.store.Messages.GetMessageByID(context.Background(), id)
	assert.ErrorIs(t, err, repositories.ErrMessageNotFound)
	count, err := s.store.Likes.GetLikesCountByMessageID(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, count)
}
