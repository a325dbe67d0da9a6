package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()
	mcpSrv := server.NewMCPServer("gateway-test", "0.0.0",
		server.WithToolCapabilities(false),
	)
	mcpSrv.AddTools(server.ServerTool{
		Tool: mcp.NewTool("echo", mcp.WithDescription("echo a message")),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		},
	})
	gw := New(mcpSrv, apiKey, nil)
	ts := httptest.NewServer(gw.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	ts := newTestGateway(t, "")
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestMCPRejectsBadAPIKey(t *testing.T) {
	ts := newTestGateway(t, "secret")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/mcp"

	header := http.Header{"X-API-Key": []string{"wrong"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMCPInitializeOverWebsocket(t *testing.T) {
	ts := newTestGateway(t, "secret")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/mcp"

	header := http.Header{"X-API-Key": []string{"secret"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	init := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(init)))

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var reply struct {
		ID     int `json:"id"`
		Result struct {
			ServerInfo struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &reply))
	assert.Equal(t, 1, reply.ID)
	assert.Equal(t, "gateway-test", reply.Result.ServerInfo.Name)
}

func TestNotificationProducesNoResponse(t *testing.T) {
	ts := newTestGateway(t, "")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/mcp"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	note := `{"jsonrpc":"2.0","method":"notifications/initialized"}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(note)))

	// A follow-up request must get the first reply; the notification
	// must not have produced one.
	ping := `{"jsonrpc":"2.0","id":7,"method":"ping"}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(ping)))

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var reply struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &reply))
	assert.Equal(t, 7, reply.ID)
}
