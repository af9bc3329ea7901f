package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"blogpose/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureMailer records reset mails instead of sending them.
type captureMailer struct {
	mu   sync.Mutex
	urls []string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, _, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, resetURL)
	return nil
}

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.urls)
	url := m.urls[len(m.urls)-1]
	i := strings.LastIndex(url, "/")
	return url[i+1:]
}

func withCaptureMailer(s *Server) *captureMailer {
	m := &captureMailer{}
	s.resetService = service.NewPasswordResetService(s.userRepo, m, s.config.BaseURL,
		time.Duration(s.config.ResetTokenTTL)*time.Second)
	return m
}

func TestRequestPasswordReset(t *testing.T) {
	t.Run("unknown and known addresses get the same 202", func(t *testing.T) {
		s := newTestServer(t)
		m := withCaptureMailer(s)
		createTestUser(t, s, "alice_2024", "alice@example.com")

		known := doJSON(t, s, http.MethodPost, "/api/auth/resetpassword",
			map[string]interface{}{"email": "alice@example.com"}, "")
		unknown := doJSON(t, s, http.MethodPost, "/api/auth/resetpassword",
			map[string]interface{}{"email": "nobody@example.com"}, "")

		require.Equal(t, http.StatusAccepted, known.StatusCode)
		require.Equal(t, http.StatusAccepted, unknown.StatusCode)
		assert.Equal(t, decodeBody(t, known)["message"], decodeBody(t, unknown)["message"])
		assert.Len(t, m.urls, 1, "only the real account gets mail")
	})

	t.Run("missing email is a 400", func(t *testing.T) {
		s := newTestServer(t)
		resp := doJSON(t, s, http.MethodPost, "/api/auth/resetpassword", map[string]interface{}{}, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestResetPasswordFlow(t *testing.T) {
	s := newTestServer(t)
	m := withCaptureMailer(s)
	createTestUser(t, s, "alice_2024", "alice@example.com")

	resp := doJSON(t, s, http.MethodPost, "/api/auth/resetpassword",
		map[string]interface{}{"email": "alice@example.com"}, "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	token := m.lastToken(t)

	t.Run("mailed token accepts a new password", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodPost, "/api/auth/resetpassword/"+token, map[string]interface{}{
			"password":         "a-brand-new-password",
			"confirm_password": "a-brand-new-password",
		}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		login := doJSON(t, s, http.MethodPost, "/api/auth/login", map[string]interface{}{
			"username": "alice_2024", "password": "a-brand-new-password",
		}, "")
		assert.Equal(t, http.StatusOK, login.StatusCode)

		stale := doJSON(t, s, http.MethodPost, "/api/auth/login", map[string]interface{}{
			"username": "alice_2024", "password": testPassword,
		}, "")
		assert.Equal(t, http.StatusUnauthorized, stale.StatusCode, "the old password must stop working")
	})

	t.Run("a consumed token is rejected on second use", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodPost, "/api/auth/resetpassword/"+token, map[string]interface{}{
			"password":         "yet-another-password",
			"confirm_password": "yet-another-password",
		}, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bogus token and consumed token fail identically", func(t *testing.T) {
		consumed := doJSON(t, s, http.MethodPost, "/api/auth/resetpassword/"+token, map[string]interface{}{
			"password":         "yet-another-password",
			"confirm_password": "yet-another-password",
		}, "")
		bogus := doJSON(t, s, http.MethodPost, "/api/auth/resetpassword/ffffffffffffffff", map[string]interface{}{
			"password":         "yet-another-password",
			"confirm_password": "yet-another-password",
		}, "")
		assert.Equal(t, decodeBody(t, consumed)["error"], decodeBody(t, bogus)["error"])
	})

	t.Run("mismatched confirmation is a field error", func(t *testing.T) {
		s := newTestServer(t)
		m := withCaptureMailer(s)
		createTestUser(t, s, "bob_20240", "bob@example.com")

		resp := doJSON(t, s, http.MethodPost, "/api/auth/resetpassword",
			map[string]interface{}{"email": "bob@example.com"}, "")
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		resp = doJSON(t, s, http.MethodPost, "/api/auth/resetpassword/"+m.lastToken(t), map[string]interface{}{
			"password":         "a-brand-new-password",
			"confirm_password": "something-else",
		}, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
