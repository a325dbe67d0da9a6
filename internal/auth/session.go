// Package auth manages the WHOOP OAuth2 token lifecycle: the browser
// authorization flow, durable token storage, and single-flight refresh.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Scopes requested from the provider. "offline" is what grants the refresh
// token.
const oauthScopes = "read:recovery read:cycles read:sleep read:workout read:profile read:body_measurement offline"

const maxTokenResponseBytes = 1 << 20

// State is the coarse position in the auth lifecycle, reported by Status.
type State string

const (
	StateUnauthenticated          State = "unauthenticated"
	StatePendingAuthorization     State = "pending_authorization"
	StateAuthenticated            State = "authenticated"
	StateExpired                  State = "expired"
	StateReauthenticationRequired State = "reauthentication_required"
)

// Config carries the provider endpoints and client credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
}

// Session owns the token lifecycle. All methods are safe for concurrent use;
// refresh and code exchange are serialized through a single-flight group so
// concurrent callers never race a one-shot refresh token.
type Session struct {
	cfg   Config
	store *Store
	http  *http.Client
	log   *zap.Logger
	now   func() time.Time

	group singleflight.Group

	mu           sync.Mutex
	pending      *callbackListener
	pendingState string
	refreshDead  bool // last refresh was rejected by the provider
}

// NewSession creates a session over the given token store.
func NewSession(cfg Config, store *Store, httpClient *http.Client, log *zap.Logger) *Session {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		cfg:   cfg,
		store: store,
		http:  httpClient,
		log:   log,
		now:   time.Now,
	}
}

// Status reports the current auth state without touching the network.
func (s *Session) Status() State {
	s.mu.Lock()
	pending := s.pending != nil
	dead := s.refreshDead
	s.mu.Unlock()

	if pending {
		return StatePendingAuthorization
	}
	if dead {
		return StateReauthenticationRequired
	}

	tok, err := s.store.Load()
	if err != nil {
		return StateUnauthenticated
	}
	if !tok.Valid(s.now()) {
		return StateExpired
	}
	return StateAuthenticated
}

// AccessToken returns an access token guaranteed usable for at least one
// request, refreshing first when the stored token is at or past expiry.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	tok, err := s.store.Load()
	if err != nil {
		return "", err
	}
	if tok.Valid(s.now()) {
		return tok.AccessToken, nil
	}
	return s.refresh(ctx)
}

// ForceRefresh refreshes regardless of the recorded expiry. The provider
// client uses it after an unexpected 401.
func (s *Session) ForceRefresh(ctx context.Context) (string, error) {
	return s.refresh(ctx)
}

// refresh funnels all callers through one outbound refresh request. Every
// waiter observes the same result.
func (s *Session) refresh(ctx context.Context) (string, error) {
	v, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		tok, err := s.store.Load()
		if err != nil {
			return "", err
		}
		// Another caller may have refreshed while we waited on the group.
		if tok.Valid(s.now()) {
			return tok.AccessToken, nil
		}
		if tok.RefreshToken == "" {
			s.discard()
			return "", ErrReauthenticationRequired
		}

		form := url.Values{}
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", tok.RefreshToken)
		form.Set("client_id", s.cfg.ClientID)
		form.Set("client_secret", s.cfg.ClientSecret)
		form.Set("scope", "offline")

		fresh, status, err := s.postTokenForm(ctx, form)
		if err != nil {
			return "", err
		}
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			// Refresh token revoked or already consumed. The stored pair is
			// useless now.
			s.log.Warn("refresh token rejected, discarding stored token", zap.Int("status", status))
			s.discard()
			return "", ErrReauthenticationRequired
		}
		if status != http.StatusOK {
			return "", fmt.Errorf("token endpoint returned status %d", status)
		}

		saved := s.applyToken(fresh, tok)
		if err := s.store.Save(saved); err != nil {
			return "", err
		}
		s.mu.Lock()
		s.refreshDead = false
		s.mu.Unlock()
		s.log.Info("access token refreshed", zap.Time("expires_at", saved.ExpiresAt))
		return saved.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// BeginAuthorization starts a callback listener and returns the provider
// authorization URL to open in a browser. Any previous pending flow is torn
// down first.
func (s *Session) BeginAuthorization(ctx context.Context) (string, error) {
	state, err := newState()
	if err != nil {
		return "", err
	}

	listener, err := listenCallback(s.cfg.RedirectURI, state)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.pending != nil {
		s.pending.Close()
	}
	s.pending = listener
	s.pendingState = state
	s.mu.Unlock()

	params := url.Values{}
	params.Set("client_id", s.cfg.ClientID)
	params.Set("redirect_uri", s.cfg.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", oauthScopes)
	params.Set("state", state)

	return s.cfg.AuthURL + "?" + params.Encode(), nil
}

// CompleteAuthorization blocks until the redirect arrives or the timeout
// elapses, then exchanges the code and persists the resulting token. The
// listener is released on every path.
func (s *Session) CompleteAuthorization(ctx context.Context, timeout time.Duration) (Token, error) {
	s.mu.Lock()
	listener := s.pending
	s.pending = nil
	s.pendingState = ""
	s.mu.Unlock()

	if listener == nil {
		return Token{}, ErrAuthorizationNotStarted
	}

	code, err := listener.Wait(ctx, timeout)
	if err != nil {
		return Token{}, err
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("redirect_uri", s.cfg.RedirectURI)
	form.Set("code", code)

	resp, status, err := s.postTokenForm(ctx, form)
	if err != nil {
		return Token{}, err
	}
	if status != http.StatusOK {
		return Token{}, fmt.Errorf("code exchange returned status %d", status)
	}

	tok := s.applyToken(resp, Token{})
	if err := s.store.Save(tok); err != nil {
		return Token{}, err
	}

	s.mu.Lock()
	s.refreshDead = false
	s.mu.Unlock()
	s.log.Info("authorization complete", zap.Time("expires_at", tok.ExpiresAt))
	return tok, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

// postTokenForm posts a form to the token endpoint. Transport failures come
// back as errors; HTTP failures come back as the status code so callers can
// classify revocation against outage.
func (s *Session) postTokenForm(ctx context.Context, form url.Values) (tokenResponse, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, 0, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return tokenResponse{}, 0, fmt.Errorf("token endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxTokenResponseBytes))
		return tokenResponse{}, resp.StatusCode, nil
	}

	var tr tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenResponseBytes)).Decode(&tr); err != nil {
		return tokenResponse{}, 0, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return tokenResponse{}, 0, errors.New("token response missing access_token")
	}
	return tr, http.StatusOK, nil
}

// applyToken builds the stored Token from a token endpoint response. Expiry
// never moves backwards across refreshes; a shorter grant keeps the prior
// deadline.
func (s *Session) applyToken(tr tokenResponse, prev Token) Token {
	tok := Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		Scope:        tr.Scope,
		ExpiresAt:    s.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = prev.RefreshToken
	}
	if tok.ExpiresAt.Before(prev.ExpiresAt) {
		tok.ExpiresAt = prev.ExpiresAt
	}
	return tok
}

func (s *Session) discard() {
	if err := s.store.Clear(); err != nil {
		s.log.Warn("failed to clear stale token", zap.Error(err))
	}
	s.mu.Lock()
	s.refreshDead = true
	s.mu.Unlock()
}
