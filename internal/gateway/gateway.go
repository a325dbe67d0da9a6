// Package gateway exposes the MCP server over a websocket endpoint for
// remote clients, alongside a health check. Stdio remains the primary
// transport; the gateway is optional and off unless an address is
// configured.
package gateway

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

// Gateway serves /mcp (websocket JSON-RPC) and /healthz.
type Gateway struct {
	mcp      *server.MCPServer
	apiKey   string
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a gateway over an MCP server. An empty apiKey disables
// authentication, intended only for localhost use.
func New(mcp *server.MCPServer, apiKey string, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		mcp:    mcp,
		apiKey: apiKey,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Clients are local MCP bridges, not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiters: make(map[string]*rate.Limiter),
	}
}

// Handler returns the gateway's HTTP mux.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", g.handleHealth)
	mux.HandleFunc("/mcp", g.handleMCP)
	return mux
}

// Serve runs the gateway until the context is cancelled.
func (g *Gateway) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	g.log.Info("gateway listening", zap.String("addr", addr))
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (g *Gateway) handleMCP(w http.ResponseWriter, r *http.Request) {
	if g.apiKey != "" && r.Header.Get("X-API-Key") != g.apiKey {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
		return
	}
	if !g.limiter(clientIP(r)).Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	g.log.Info("mcp websocket session opened", zap.String("remote", r.RemoteAddr))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		resp := g.mcp.HandleMessage(r.Context(), json.RawMessage(raw))
		if resp == nil {
			// Notifications have no response.
			continue
		}
		out, err := json.Marshal(resp)
		if err != nil {
			g.log.Error("marshal mcp response", zap.Error(err))
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			g.log.Warn("websocket write error", zap.Error(err))
			return
		}
	}
}

// limiter returns the per-IP limiter, 60 requests/min with burst 10.
func (g *Gateway) limiter(ip string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.limiters[ip]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Second), 10)
		g.limiters[ip] = l
	}
	return l
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
