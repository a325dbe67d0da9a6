package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"whoop-coach-mcp/internal/analytics"
	"whoop-coach-mcp/internal/auth"
	"whoop-coach-mcp/internal/cycle"
	"whoop-coach-mcp/internal/render"
	"whoop-coach-mcp/internal/whoop"
)

const defaultAuthWait = 120 * time.Second

type handlers struct {
	deps Deps
}

// renderOpts loads the custom prompt fresh on every call so a prompt change
// takes effect immediately.
func (h *handlers) renderOpts() render.Options {
	opts := render.Options{Location: h.deps.Location}
	p, err := h.deps.Prompts.Get()
	if err != nil {
		h.deps.Log.Warn("custom prompt unreadable", zap.Error(err))
		return opts
	}
	opts.CustomPrompt = p
	return opts
}

// userError translates domain errors into actionable messages. Unknown
// errors pass through as-is.
func userError(err error) *mcp.CallToolResult {
	var noCycle *cycle.NoCycleError
	switch {
	case errors.Is(err, auth.ErrAuthenticationRequired):
		return mcp.NewToolResultError("You are not authenticated with WHOOP. Use the authenticate_with_whoop tool to authenticate.")
	case errors.Is(err, auth.ErrReauthenticationRequired):
		return mcp.NewToolResultError("Your WHOOP session has expired and could not be refreshed. Use the authenticate_with_whoop tool to re-authenticate.")
	case errors.Is(err, cycle.ErrInvalidDate):
		return mcp.NewToolResultError("Invalid date. Use YYYY-MM-DD format, 'today', or 'yesterday'.")
	case errors.As(err, &noCycle):
		return mcp.NewToolResultError(fmt.Sprintf("No WHOOP cycle found for %s. The band may have been off or data has not synced yet.", noCycle.Date.Format("2006-01-02")))
	case errors.Is(err, whoop.ErrRateLimited):
		return mcp.NewToolResultError("WHOOP rate limit reached. Wait a minute and try again.")
	case errors.Is(err, whoop.ErrUnavailable):
		return mcp.NewToolResultError("WHOOP is temporarily unavailable. Try again shortly.")
	case errors.Is(err, whoop.ErrNotFound):
		return mcp.NewToolResultError("The requested record was not found.")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (h *handlers) resolve(ctx context.Context, req mcp.CallToolRequest) (whoop.Cycle, *mcp.CallToolResult) {
	target, err := h.deps.Resolver.ParseDateInput(req.GetString("date", ""))
	if err != nil {
		return whoop.Cycle{}, userError(err)
	}
	c, err := h.deps.Resolver.Resolve(ctx, target)
	if err != nil {
		return whoop.Cycle{}, userError(err)
	}
	return c, nil
}

// --- auth ---

func (h *handlers) authenticate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := h.deps.Session.BeginAuthorization(ctx)
	if err != nil {
		h.deps.Log.Error("begin authorization", zap.Error(err))
		return userError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Open this URL in your browser to authorize WHOOP access:\n\n%s\n\nThen call complete_whoop_authentication to finish.", url)), nil
}

func (h *handlers) completeAuthentication(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wait := defaultAuthWait
	if raw := req.GetString("timeout_seconds", ""); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return mcp.NewToolResultError("timeout_seconds must be a positive integer"), nil
		}
		wait = time.Duration(secs) * time.Second
	}

	tok, err := h.deps.Session.CompleteAuthorization(ctx, wait)
	if err != nil {
		if errors.Is(err, auth.ErrAuthorizationTimeout) {
			return mcp.NewToolResultError("Timed out waiting for the browser authorization. Run authenticate_with_whoop again."), nil
		}
		if errors.Is(err, auth.ErrAuthorizationNotStarted) {
			return mcp.NewToolResultError("No authorization in progress. Run authenticate_with_whoop first."), nil
		}
		h.deps.Log.Error("complete authorization", zap.Error(err))
		return userError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Authenticated with WHOOP. Token valid until %s.", tok.ExpiresAt.In(h.deps.Location).Format(time.RFC1123))), nil
}

func (h *handlers) authStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := h.deps.Session.Status()
	switch state {
	case auth.StateAuthenticated:
		return mcp.NewToolResultText("Authenticated with WHOOP."), nil
	case auth.StateExpired:
		return mcp.NewToolResultText("Token expired; it will refresh automatically on the next call."), nil
	case auth.StatePendingAuthorization:
		return mcp.NewToolResultText("Authorization in progress. Call complete_whoop_authentication to finish."), nil
	case auth.StateReauthenticationRequired:
		return mcp.NewToolResultText("Stored token was rejected. Use authenticate_with_whoop to re-authenticate."), nil
	default:
		return mcp.NewToolResultText("Not authenticated. Use authenticate_with_whoop to connect your WHOOP account."), nil
	}
}

// --- data ---

func (h *handlers) dailySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errRes := h.resolve(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	s, err := h.deps.Builder.Build(ctx, c)
	if err != nil {
		h.deps.Log.Error("build summary", zap.Int64("cycle_id", c.ID), zap.Error(err))
		return userError(err), nil
	}
	return mcp.NewToolResultText(render.Summary(s, h.renderOpts())), nil
}

func (h *handlers) sleepData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errRes := h.resolve(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	sl, errRes := h.cycleSleep(ctx, c)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(render.SleepRecord(sl, h.renderOpts())), nil
}

func (h *handlers) recoveryData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errRes := h.resolve(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	rec, errRes := h.cycleRecovery(ctx, c)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(render.RecoveryRecord(rec, h.renderOpts())), nil
}

func (h *handlers) cycleData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errRes := h.resolve(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(render.CycleRecord(&c, h.renderOpts())), nil
}

func (h *handlers) workoutData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errRes := h.resolve(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	w, errRes := h.latestCycleWorkout(ctx, c)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(render.WorkoutRecord(w, h.renderOpts())), nil
}

// --- analysis ---

func (h *handlers) sleepAnalysis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errRes := h.resolve(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	sl, errRes := h.cycleSleep(ctx, c)
	if errRes != nil {
		return errRes, nil
	}
	res, ok := analytics.AnalyzeSleep(*sl)
	if !ok {
		return mcp.NewToolResultError("This sleep has not been scored yet; analysis is not available."), nil
	}
	return mcp.NewToolResultText(render.SleepQuality(res, h.renderOpts())), nil
}

func (h *handlers) recoveryAnalysis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errRes := h.resolve(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	rec, errRes := h.cycleRecovery(ctx, c)
	if errRes != nil {
		return errRes, nil
	}
	res, ok := analytics.AnalyzeRecovery(*rec)
	if !ok {
		return mcp.NewToolResultError("This recovery has not been scored yet; analysis is not available."), nil
	}
	return mcp.NewToolResultText(render.RecoveryLoad(res, h.renderOpts())), nil
}

func (h *handlers) readiness(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errRes := h.resolve(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	s, err := h.deps.Builder.Build(ctx, c)
	if err != nil {
		h.deps.Log.Error("build summary for readiness", zap.Int64("cycle_id", c.ID), zap.Error(err))
		return userError(err), nil
	}
	res := analytics.AnalyzeReadiness(analytics.ReadinessInput{
		Recovery:  s.Recovery,
		PrevSleep: s.Sleep,
		Cycle:     &c,
	})
	return mcp.NewToolResultText(render.Readiness(res, h.renderOpts())), nil
}

func (h *handlers) workoutAnalysis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var w *whoop.Workout
	if id := req.GetString("workout_id", ""); id != "" {
		found, err := h.deps.Client.WorkoutByID(ctx, id)
		if err != nil {
			return userError(err), nil
		}
		w = found
	} else {
		recent, err := h.deps.Client.Workouts(ctx, whoop.Query{Limit: 1})
		if err != nil {
			return userError(err), nil
		}
		if len(recent) == 0 {
			return mcp.NewToolResultError("No workouts found on this account."), nil
		}
		w = &recent[0]
	}

	res, ok := analytics.AnalyzeWorkout(*w)
	if !ok {
		return mcp.NewToolResultError("This workout has not been scored yet; analysis is not available."), nil
	}
	return mcp.NewToolResultText(render.WorkoutAnalysis(res, h.renderOpts())), nil
}

// --- profile ---

func (h *handlers) profile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.deps.Client.Profile(ctx)
	if err != nil {
		return userError(err), nil
	}
	return mcp.NewToolResultText(render.Profile(p, h.renderOpts())), nil
}

func (h *handlers) bodyMeasurements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := h.deps.Client.BodyMeasurement(ctx)
	if err != nil {
		return userError(err), nil
	}
	return mcp.NewToolResultText(render.BodyMeasurement(m, h.renderOpts())), nil
}

// --- custom prompt ---

func (h *handlers) setCustomPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("prompt parameter is required"), nil
	}
	if err := h.deps.Prompts.Set(p); err != nil {
		return mcp.NewToolResultError("failed to save prompt: " + err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Custom prompt set: %q", p)), nil
}

func (h *handlers) getCustomPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.deps.Prompts.Get()
	if err != nil {
		return mcp.NewToolResultError("failed to read prompt: " + err.Error()), nil
	}
	if p == "" {
		return mcp.NewToolResultText("No custom prompt is set."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Current custom prompt: %q", p)), nil
}

func (h *handlers) clearCustomPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.deps.Prompts.Clear(); err != nil {
		return mcp.NewToolResultError("failed to clear prompt: " + err.Error()), nil
	}
	return mcp.NewToolResultText("Custom prompt cleared."), nil
}

// --- record selection helpers ---

// cycleSleep fetches the sleep that ended within the cycle's window.
func (h *handlers) cycleSleep(ctx context.Context, c whoop.Cycle) (*whoop.Sleep, *mcp.CallToolResult) {
	start, end := h.deps.Resolver.Window(c)
	sleeps, err := h.deps.Client.Sleeps(ctx, whoop.Query{Start: start.Add(-12 * time.Hour), End: end})
	if err != nil {
		return nil, userError(err)
	}
	for i := range sleeps {
		sl := &sleeps[i]
		if sl.Nap {
			continue
		}
		if !sl.End.Before(start) && sl.End.Before(end) {
			return sl, nil
		}
	}
	return nil, mcp.NewToolResultError("No sleep recorded for this cycle.")
}

// cycleRecovery fetches the recovery keyed to the cycle.
func (h *handlers) cycleRecovery(ctx context.Context, c whoop.Cycle) (*whoop.Recovery, *mcp.CallToolResult) {
	start, end := h.deps.Resolver.Window(c)
	recoveries, err := h.deps.Client.Recoveries(ctx, whoop.Query{Start: start, End: end})
	if err != nil {
		return nil, userError(err)
	}
	for i := range recoveries {
		if recoveries[i].CycleID == c.ID {
			return &recoveries[i], nil
		}
	}
	return nil, mcp.NewToolResultError("No recovery recorded for this cycle yet.")
}

// latestCycleWorkout returns the most recent workout starting in the cycle.
func (h *handlers) latestCycleWorkout(ctx context.Context, c whoop.Cycle) (*whoop.Workout, *mcp.CallToolResult) {
	start, end := h.deps.Resolver.Window(c)
	workouts, err := h.deps.Client.Workouts(ctx, whoop.Query{Start: start, End: end})
	if err != nil {
		return nil, userError(err)
	}
	for i := range workouts {
		w := &workouts[i]
		if !w.Start.Before(start) && w.Start.Before(end) {
			return w, nil
		}
	}
	return nil, mcp.NewToolResultError("No workouts recorded in this cycle.")
}
