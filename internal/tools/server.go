// Package tools registers the MCP tool and resource surface. Handlers stay
// thin: parse arguments, call into the domain packages, render the result.
package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"whoop-coach-mcp/internal/auth"
	"whoop-coach-mcp/internal/cycle"
	"whoop-coach-mcp/internal/prompt"
	"whoop-coach-mcp/internal/summary"
	"whoop-coach-mcp/internal/whoop"
)

// Client is the provider surface the handlers need.
type Client interface {
	summary.Fetcher
	WorkoutByID(ctx context.Context, id string) (*whoop.Workout, error)
	Profile(ctx context.Context) (*whoop.Profile, error)
	BodyMeasurement(ctx context.Context) (*whoop.BodyMeasurement, error)
}

// Builder builds daily summaries.
type Builder interface {
	Build(ctx context.Context, cycle whoop.Cycle) (*summary.DailySummary, error)
}

// Deps carries everything the tool handlers use.
type Deps struct {
	Session  *auth.Session
	Client   Client
	Resolver *cycle.Resolver
	Builder  Builder
	Prompts  *prompt.Store
	Location *time.Location
	Log      *zap.Logger
}

// New creates the MCP server with every tool and resource registered.
func New(deps Deps, version string) *server.MCPServer {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}

	s := server.NewMCPServer("whoop-coach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("WHOOP coaching server. Resolves dates onto physiological cycles (sleep-to-sleep days), builds daily summaries, and scores sleep, recovery, readiness, and workouts. Authenticate first with authenticate_with_whoop."),
	)

	h := &handlers{deps: deps}

	s.AddTools(
		server.ServerTool{Tool: toolAuthenticate, Handler: h.authenticate},
		server.ServerTool{Tool: toolCompleteAuth, Handler: h.completeAuthentication},
		server.ServerTool{Tool: toolAuthStatus, Handler: h.authStatus},
		server.ServerTool{Tool: toolDailySummary, Handler: h.dailySummary},
		server.ServerTool{Tool: toolSleepData, Handler: h.sleepData},
		server.ServerTool{Tool: toolRecoveryData, Handler: h.recoveryData},
		server.ServerTool{Tool: toolCycleData, Handler: h.cycleData},
		server.ServerTool{Tool: toolWorkoutData, Handler: h.workoutData},
		server.ServerTool{Tool: toolSleepAnalysis, Handler: h.sleepAnalysis},
		server.ServerTool{Tool: toolRecoveryAnalysis, Handler: h.recoveryAnalysis},
		server.ServerTool{Tool: toolReadiness, Handler: h.readiness},
		server.ServerTool{Tool: toolWorkoutAnalysis, Handler: h.workoutAnalysis},
		server.ServerTool{Tool: toolProfile, Handler: h.profile},
		server.ServerTool{Tool: toolBodyMeasurements, Handler: h.bodyMeasurements},
		server.ServerTool{Tool: toolSetPrompt, Handler: h.setCustomPrompt},
		server.ServerTool{Tool: toolGetPrompt, Handler: h.getCustomPrompt},
		server.ServerTool{Tool: toolClearPrompt, Handler: h.clearCustomPrompt},
	)

	s.AddResources(
		server.ServerResource{Resource: resProfile, Handler: h.profileResource},
		server.ServerResource{Resource: resRecentHealth, Handler: h.recentHealthResource},
	)

	return s
}
