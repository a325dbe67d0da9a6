package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const successPage = `<html><head><title>WHOOP Authorization Successful</title></head>
<body style="font-family:sans-serif;text-align:center;margin-top:50px">
<h1>Authorization Successful</h1>
<p>WHOOP has authorized this application. You can close this window.</p>
</body></html>`

const failurePage = `<html><head><title>WHOOP Authorization Failed</title></head>
<body style="font-family:sans-serif;text-align:center;margin-top:50px">
<h1>Authorization Failed</h1>
<p>%s</p>
</body></html>`

// newState generates a cryptographically random OAuth state parameter.
func newState() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

type callbackResult struct {
	code string
	err  error
}

// callbackListener is a scoped HTTP listener for a single OAuth redirect. It
// lives only between BeginAuthorization and the end of CompleteAuthorization
// and is closed on every exit path.
type callbackListener struct {
	expectedState string
	listener      net.Listener
	server        *http.Server
	resultCh      chan callbackResult
	resultOnce    sync.Once
	closeOnce     sync.Once
}

// listenCallback binds the redirect URI's host/port and serves its path.
func listenCallback(redirectURI, expectedState string) (*callbackListener, error) {
	if expectedState == "" {
		return nil, errors.New("expected state is required")
	}

	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("parse redirect uri: %w", err)
	}
	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s for oauth callback: %w", addr, err)
	}

	cb := &callbackListener{
		expectedState: expectedState,
		listener:      ln,
		resultCh:      make(chan callbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, cb.handleRedirect)
	cb.server = &http.Server{Handler: mux}

	go func() {
		if serveErr := cb.server.Serve(cb.listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			cb.trySend(callbackResult{err: serveErr})
		}
	}()

	return cb, nil
}

// Wait blocks until the redirect arrives, the timeout elapses, or the context
// is cancelled. The listener is closed before Wait returns.
func (c *callbackListener) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	defer c.Close()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-c.resultCh:
		return res.code, res.err
	case <-timer.C:
		return "", ErrAuthorizationTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *callbackListener) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.server.Close()
	})
	return err
}

func (c *callbackListener) handleRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if state := q.Get("state"); state != c.expectedState {
		c.trySend(callbackResult{err: ErrStateMismatch})
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, failurePage, "State mismatch (possible CSRF attack). Please try again.")
		return
	}
	if oauthErr := q.Get("error"); oauthErr != "" {
		if desc := q.Get("error_description"); desc != "" {
			oauthErr = oauthErr + ": " + desc
		}
		c.trySend(callbackResult{err: fmt.Errorf("provider denied authorization: %s", oauthErr)})
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, failurePage, oauthErr)
		return
	}
	code := q.Get("code")
	if code == "" {
		c.trySend(callbackResult{err: errors.New("redirect carried no authorization code")})
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, failurePage, "No authorization code received. Please try again.")
		return
	}

	c.trySend(callbackResult{code: code})
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, successPage)
}

func (c *callbackListener) trySend(res callbackResult) {
	c.resultOnce.Do(func() {
		c.resultCh <- res
	})
}
