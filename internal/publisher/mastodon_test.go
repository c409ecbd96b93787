package publisher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aprstoot/internal/config"
	"aprstoot/internal/logger"
)

func mastodonConfig(t *testing.T, baseURL string) config.MastodonConfig {
	t.Helper()
	dir := t.TempDir()
	return config.MastodonConfig{
		BaseURL:          baseURL,
		Account:          "op@example.org",
		Password:         "hunter2",
		ClientSecretFile: filepath.Join(dir, "fedicli.secret"),
		TokenFile:        filepath.Join(dir, "fediacc.secret"),
		Timeout:          2 * time.Second,
	}
}

func TestRegisterLoginPublish(t *testing.T) {
	var registered, loggedIn int
	var postedStatus, authHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/apps":
			registered++
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "APRSTOOT 1.0", r.Form.Get("client_name"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"client_id":"cid","client_secret":"csecret"}`))
		case "/oauth/token":
			loggedIn++
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "password", r.Form.Get("grant_type"))
			assert.Equal(t, "cid", r.Form.Get("client_id"))
			assert.Equal(t, "op@example.org", r.Form.Get("username"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok123"}`))
		case "/api/v1/statuses":
			require.NoError(t, r.ParseForm())
			postedStatus = r.Form.Get("status")
			authHeader = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"1"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := mastodonConfig(t, srv.URL)
	client := NewMastodonClient(cfg, logger.NopLogger())
	ctx := context.Background()

	require.NoError(t, client.EnsureRegistered(ctx))
	require.NoError(t, client.Login(ctx))
	require.NoError(t, client.Publish(ctx, "N0CALL: Hello"))

	assert.Equal(t, 1, registered)
	assert.Equal(t, 1, loggedIn)
	assert.Equal(t, "N0CALL: Hello", postedStatus)
	assert.Equal(t, "Bearer tok123", authHeader)

	// Credentials cached to disk for the next startup.
	secret, err := os.ReadFile(cfg.ClientSecretFile)
	require.NoError(t, err)
	assert.Equal(t, "cid\ncsecret\n", string(secret))

	token, err := os.ReadFile(cfg.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, "tok123\n", string(token))
}

func TestRegisterSkippedWhenSecretFileExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer srv.Close()

	cfg := mastodonConfig(t, srv.URL)
	require.NoError(t, os.WriteFile(cfg.ClientSecretFile, []byte("cid\ncsecret\n"), 0600))
	require.NoError(t, os.WriteFile(cfg.TokenFile, []byte("tok123\n"), 0600))

	client := NewMastodonClient(cfg, logger.NopLogger())
	ctx := context.Background()

	require.NoError(t, client.EnsureRegistered(ctx))
	require.NoError(t, client.Login(ctx))
}

func TestRegisterUnreadableSecretFileFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer srv.Close()

	cfg := mastodonConfig(t, srv.URL)
	// A directory makes the read fail with something other than not-exist.
	// Registering anyway would overwrite credentials that are still there.
	cfg.ClientSecretFile = t.TempDir()

	client := NewMastodonClient(cfg, logger.NopLogger())
	err := client.EnsureRegistered(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client secret file")
}

func TestLoginBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid credentials"}`))
	}))
	defer srv.Close()

	cfg := mastodonConfig(t, srv.URL)
	require.NoError(t, os.WriteFile(cfg.ClientSecretFile, []byte("cid\ncsecret\n"), 0600))

	client := NewMastodonClient(cfg, logger.NopLogger())
	require.NoError(t, client.EnsureRegistered(context.Background()))

	err := client.Login(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, authErr.IsFatal())
}

func TestPublishServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := mastodonConfig(t, srv.URL)
	client := NewMastodonClient(cfg, logger.NopLogger())

	err := client.Publish(context.Background(), "N0CALL: Hello")
	require.Error(t, err)

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, http.StatusInternalServerError, pubErr.StatusCode)
}

func TestPublishConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately, so the port refuses connections

	cfg := mastodonConfig(t, srv.URL)
	client := NewMastodonClient(cfg, logger.NopLogger())

	err := client.Publish(context.Background(), "N0CALL: Hello")
	require.Error(t, err)

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Zero(t, pubErr.StatusCode)
}
