package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, tokenURL string) (*Session, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "token.json"))
	cfg := Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://127.0.0.1:0/whoop/callback",
		AuthURL:      "https://example.test/oauth/auth",
		TokenURL:     tokenURL,
	}
	return NewSession(cfg, store, nil, nil), store
}

func writeTokenResponse(w http.ResponseWriter, access, refresh string, expiresIn int64) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
		"expires_in":    expiresIn,
		"scope":         "offline",
	})
}

func TestAccessTokenValidTokenSkipsRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("token endpoint should not be called")
	}))
	defer srv.Close()

	session, store := newTestSession(t, srv.URL)
	require.NoError(t, store.Save(Token{
		AccessToken: "still-good",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	got, err := session.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "still-good", got)
}

func TestAccessTokenRefreshesExpiredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
		writeTokenResponse(w, "new-access", "new-refresh", 3600)
	}))
	defer srv.Close()

	session, store := newTestSession(t, srv.URL)
	require.NoError(t, store.Save(Token{
		AccessToken:  "stale",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}))

	got, err := session.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-access", got)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "new-refresh", saved.RefreshToken)
	assert.True(t, saved.ExpiresAt.After(time.Now()))
}

func TestConcurrentRefreshSingleFlight(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		writeTokenResponse(w, "shared-access", "shared-refresh", 3600)
	}))
	defer srv.Close()

	session, store := newTestSession(t, srv.URL)
	require.NoError(t, store.Save(Token{
		AccessToken:  "stale",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}))

	const callers = 10
	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := session.AccessToken(context.Background())
			require.NoError(t, err)
			results[i] = tok
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "all callers must share one refresh request")
	for _, tok := range results {
		assert.Equal(t, "shared-access", tok)
	}
}

func TestRefreshRejectedDiscardsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}))
	defer srv.Close()

	session, store := newTestSession(t, srv.URL)
	require.NoError(t, store.Save(Token{
		AccessToken:  "stale",
		RefreshToken: "revoked",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}))

	_, err := session.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrReauthenticationRequired)

	// Token pair must be gone.
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, StateReauthenticationRequired, session.Status())
}

func TestRefreshServerErrorKeepsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	session, store := newTestSession(t, srv.URL)
	stored := Token{
		AccessToken:  "stale",
		RefreshToken: "still-usable",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	require.NoError(t, store.Save(stored))

	_, err := session.AccessToken(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReauthenticationRequired)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "still-usable", saved.RefreshToken, "a provider outage must not destroy the refresh token")
}

func TestRefreshExpiryNeverMovesBackwards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeTokenResponse(w, "short-lived", "", 60)
	}))
	defer srv.Close()

	session, store := newTestSession(t, srv.URL)
	farFuture := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	require.NoError(t, store.Save(Token{
		AccessToken:  "stale",
		RefreshToken: "keep-me",
		ExpiresAt:    farFuture,
	}))

	_, err := session.ForceRefresh(context.Background())
	require.NoError(t, err)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.False(t, saved.ExpiresAt.Before(farFuture), "recorded expiry went backwards")
	assert.Equal(t, "keep-me", saved.RefreshToken, "missing refresh_token in response must keep the prior one")
}

func TestRefreshWithoutStoredTokenRequiresAuth(t *testing.T) {
	session, _ := newTestSession(t, "http://127.0.0.1:1/token")

	_, err := session.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, StateUnauthenticated, session.Status())
}

func TestCompleteAuthorizationWithoutBegin(t *testing.T) {
	session, _ := newTestSession(t, "http://127.0.0.1:1/token")

	_, err := session.CompleteAuthorization(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrAuthorizationNotStarted)
}

func TestAuthorizationFlowEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "the-code", r.Form.Get("code"))
		writeTokenResponse(w, "exchanged-access", "exchanged-refresh", 3600)
	}))
	defer srv.Close()

	session, store := newTestSession(t, srv.URL)

	authURL, err := session.BeginAuthorization(context.Background())
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Equal(t, "code", parsed.Query().Get("response_type"))
	assert.Equal(t, StatePendingAuthorization, session.Status())

	// Simulate the browser redirect against the bound listener.
	callbackAddr := session.pending.listener.Addr().String()
	go func() {
		redirect := fmt.Sprintf("http://%s/whoop/callback?code=the-code&state=%s", callbackAddr, state)
		resp, err := http.Get(redirect)
		if err == nil {
			resp.Body.Close()
		}
	}()

	tok, err := session.CompleteAuthorization(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "exchanged-access", tok.AccessToken)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "exchanged-refresh", saved.RefreshToken)
	assert.Equal(t, StateAuthenticated, session.Status())
}

func TestAuthorizationTimeout(t *testing.T) {
	session, _ := newTestSession(t, "http://127.0.0.1:1/token")

	_, err := session.BeginAuthorization(context.Background())
	require.NoError(t, err)

	_, err = session.CompleteAuthorization(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrAuthorizationTimeout)
	assert.NotEqual(t, StatePendingAuthorization, session.Status())
}

func TestCallbackStateMismatch(t *testing.T) {
	cb, err := listenCallback("http://127.0.0.1:0/whoop/callback", "expected-state")
	require.NoError(t, err)

	addr := cb.listener.Addr().String()
	go func() {
		resp, err := http.Get(fmt.Sprintf("http://%s/whoop/callback?code=x&state=wrong", addr))
		if err == nil {
			resp.Body.Close()
		}
	}()

	_, err = cb.Wait(context.Background(), 5*time.Second)
	assert.ErrorIs(t, err, ErrStateMismatch)
}
