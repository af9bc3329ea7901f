package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blogpose/internal/cache"
	"blogpose/internal/config"
	"blogpose/internal/database"
	"blogpose/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "hunter2hunter2"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWTSecret:          "test-secret-key-for-handler-tests-only",
		Port:               "0",
		Env:                "test",
		BaseURL:            "http://localhost:8375",
		AvatarDir:          t.TempDir(),
		AllowedOrigins:     "http://localhost:5173",
		ResetTokenTTL:      1800,
		ResetSweepInterval: 600,
	}
}

// newTestServer builds a Server backed by in-memory sqlite and miniredis.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	return NewServerWithDeps(testConfig(t), db, rdb)
}

// createTestUser inserts a user directly with a bcrypt-hashed password.
func createTestUser(t *testing.T, s *Server, username, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		FullName:      "Test User " + username,
		Username:      username,
		Email:         email,
		Password:      string(hash),
		StreetAddress: "12 Example Street",
		Country:       "Testland",
		City:          "Testville",
	}
	require.NoError(t, s.userRepo.Create(context.Background(), user))
	return user
}

// sessionFor issues a valid session token for the given user.
func sessionFor(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user.ID, user.Username, 24*time.Hour)
	require.NoError(t, err)
	return token
}

// doJSON performs a request against the fiber app with an optional
// bearer token and JSON body.
func doJSON(t *testing.T, s *Server, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
