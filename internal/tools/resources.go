package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"whoop-coach-mcp/internal/cycle"
)

var resProfile = mcp.NewResource(
	"whoop://user/profile",
	"WHOOP profile",
	mcp.WithResourceDescription("The authenticated user's basic profile."),
	mcp.WithMIMEType("application/json"),
)

var resRecentHealth = mcp.NewResource(
	"whoop://health/recent",
	"Recent health snapshot",
	mcp.WithResourceDescription("The current cycle's summary: sleep, recovery, strain, and workouts."),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) profileResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	p, err := h.deps.Client.Profile(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) recentHealthResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	c, err := h.deps.Resolver.Resolve(ctx, cycle.Target{Current: true})
	if err != nil {
		return nil, err
	}
	s, err := h.deps.Builder.Build(ctx, c)
	if err != nil {
		h.deps.Log.Error("recent health resource", zap.Error(err))
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
