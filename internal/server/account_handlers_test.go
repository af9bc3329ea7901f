package server

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAccount(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "alice_2024", "alice@example.com")

	resp := doJSON(t, s, http.MethodGet, "/api/account", nil, sessionFor(t, s, user))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)["user"].(map[string]interface{})
	assert.Equal(t, "alice_2024", body["username"])
	assert.NotContains(t, body, "password")
}

func TestUpdateAccount(t *testing.T) {
	t.Run("JSON profile update", func(t *testing.T) {
		s := newTestServer(t)
		user := createTestUser(t, s, "alice_2024", "alice@example.com")

		resp := doJSON(t, s, http.MethodPut, "/api/account", map[string]interface{}{
			"full_name":      "Alice Beatrice Carol",
			"username":       "alice_2024",
			"email":          "alice@example.com",
			"street_address": "12 Example Street",
			"country":        "Wonderland",
			"city":           "Heartsville",
		}, sessionFor(t, s, user))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)["user"].(map[string]interface{})
		assert.Equal(t, "Alice Beatrice Carol", body["full_name"])
	})

	t.Run("username held by another account rejected", func(t *testing.T) {
		s := newTestServer(t)
		alice := createTestUser(t, s, "alice_2024", "alice@example.com")
		createTestUser(t, s, "bob_20240", "bob@example.com")

		resp := doJSON(t, s, http.MethodPut, "/api/account", map[string]interface{}{
			"full_name":      "Alice Beatrice Carol",
			"username":       "bob_20240",
			"email":          "alice@example.com",
			"street_address": "12 Example Street",
			"country":        "Wonderland",
			"city":           "Heartsville",
		}, sessionFor(t, s, alice))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

// uploadAvatar PUTs a multipart profile update carrying the given image bytes.
func uploadAvatar(t *testing.T, s *Server, token string, imageBytes []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("full_name", "Alice Beatrice Carol"))
	require.NoError(t, w.WriteField("username", "alice_2024"))
	require.NoError(t, w.WriteField("email", "alice@example.com"))
	require.NoError(t, w.WriteField("street_address", "12 Example Street"))
	require.NoError(t, w.WriteField("country", "Wonderland"))
	require.NoError(t, w.WriteField("city", "Heartsville"))

	part, err := w.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(imageBytes)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/account", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAvatarUpload(t *testing.T) {
	t.Run("oversized image is stored scaled to the avatar bound", func(t *testing.T) {
		s := newTestServer(t)
		user := createTestUser(t, s, "alice_2024", "alice@example.com")

		resp := uploadAvatar(t, s, sessionFor(t, s, user), pngBytes(t, 500, 250))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)["user"].(map[string]interface{})
		filename := body["avatar_file"].(string)
		assert.NotEqual(t, "default.jpg", filename)

		f, err := os.Open(filepath.Join(s.config.AvatarDir, filename))
		require.NoError(t, err)
		defer f.Close()

		stored, _, err := image.Decode(f)
		require.NoError(t, err)
		bounds := stored.Bounds()
		assert.LessOrEqual(t, bounds.Dx(), avatarSize)
		assert.LessOrEqual(t, bounds.Dy(), avatarSize)
		assert.Equal(t, avatarSize, bounds.Dx(), "the longer edge lands exactly on the bound")
	})

	t.Run("replacing an avatar removes the previous file", func(t *testing.T) {
		s := newTestServer(t)
		user := createTestUser(t, s, "alice_2024", "alice@example.com")
		token := sessionFor(t, s, user)

		resp := uploadAvatar(t, s, token, pngBytes(t, 200, 200))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		first := decodeBody(t, resp)["user"].(map[string]interface{})["avatar_file"].(string)

		resp = uploadAvatar(t, s, token, pngBytes(t, 200, 200))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		second := decodeBody(t, resp)["user"].(map[string]interface{})["avatar_file"].(string)

		assert.NotEqual(t, first, second)
		_, err := os.Stat(filepath.Join(s.config.AvatarDir, first))
		assert.True(t, os.IsNotExist(err), "the replaced avatar file should be gone")
		_, err = os.Stat(filepath.Join(s.config.AvatarDir, second))
		assert.NoError(t, err)
	})

	t.Run("non-image upload rejected", func(t *testing.T) {
		s := newTestServer(t)
		user := createTestUser(t, s, "alice_2024", "alice@example.com")

		resp := uploadAvatar(t, s, sessionFor(t, s, user), []byte("definitely not an image"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
