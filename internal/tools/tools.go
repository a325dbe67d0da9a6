package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const dateArgDescription = "Date as YYYY-MM-DD, 'today', or 'yesterday'. Omit for the current cycle. Days follow your physiological cycle (sleep to sleep), not the calendar."

var toolAuthenticate = mcp.NewTool("authenticate_with_whoop",
	mcp.WithDescription("Start the WHOOP OAuth flow. Returns an authorization URL to open in a browser; afterwards call complete_whoop_authentication to finish."),
)

var toolCompleteAuth = mcp.NewTool("complete_whoop_authentication",
	mcp.WithDescription("Wait for the browser authorization started by authenticate_with_whoop to finish and store the resulting token."),
	mcp.WithString("timeout_seconds", mcp.Description("How long to wait for the browser redirect. Defaults to 120.")),
)

var toolAuthStatus = mcp.NewTool("check_whoop_authentication",
	mcp.WithDescription("Report whether a usable WHOOP token is stored."),
)

var toolDailySummary = mcp.NewTool("get_daily_summary",
	mcp.WithDescription("Comprehensive daily summary for a physiological cycle: sleep, recovery, strain, workouts, and time-aware recommendations."),
	mcp.WithString("date", mcp.Description(dateArgDescription)),
)

var toolSleepData = mcp.NewTool("get_sleep_data",
	mcp.WithDescription("The sleep record for a cycle: duration, stages, efficiency, performance, disturbances."),
	mcp.WithString("date", mcp.Description(dateArgDescription)),
)

var toolRecoveryData = mcp.NewTool("get_recovery_data",
	mcp.WithDescription("The recovery record for a cycle: recovery score, HRV, resting heart rate, SpO2, skin temperature."),
	mcp.WithString("date", mcp.Description(dateArgDescription)),
)

var toolCycleData = mcp.NewTool("get_cycle_data",
	mcp.WithDescription("The physiological cycle itself: strain, heart rate, energy expenditure, and cycle boundaries."),
	mcp.WithString("date", mcp.Description(dateArgDescription)),
)

var toolWorkoutData = mcp.NewTool("get_workout_data",
	mcp.WithDescription("The most recent workout within a cycle: sport, duration, strain, calories, distance, elevation."),
	mcp.WithString("date", mcp.Description(dateArgDescription)),
)

var toolSleepAnalysis = mcp.NewTool("get_sleep_quality_analysis",
	mcp.WithDescription("Sleep quality analysis: efficiency and continuity tiers, stage distribution against optimal ranges, and targeted recommendations."),
	mcp.WithString("date", mcp.Description(dateArgDescription)),
)

var toolRecoveryAnalysis = mcp.NewTool("get_recovery_load_analysis",
	mcp.WithDescription("Recovery load breakdown by physiological system (cardiovascular, musculoskeletal, metabolic) with the limiting factor and recovery strategies."),
	mcp.WithString("date", mcp.Description(dateArgDescription)),
)

var toolReadiness = mcp.NewTool("get_training_readiness",
	mcp.WithDescription("Training readiness composite (0-100) weighing recovery, last night's sleep, and accrued strain, with contributing factors."),
	mcp.WithString("date", mcp.Description(dateArgDescription)),
)

var toolWorkoutAnalysis = mcp.NewTool("get_workout_analysis",
	mcp.WithDescription("Detailed workout analysis: heart rate zone distribution, elevation, strain-per-hour intensity, and training focus."),
	mcp.WithString("workout_id", mcp.Description("Workout UUID. Omit to analyze the most recent workout.")),
)

var toolProfile = mcp.NewTool("get_profile",
	mcp.WithDescription("The authenticated user's basic WHOOP profile."),
)

var toolBodyMeasurements = mcp.NewTool("get_body_measurements",
	mcp.WithDescription("The user's body measurements: height, weight, max heart rate."),
)

var toolSetPrompt = mcp.NewTool("set_custom_prompt",
	mcp.WithDescription("Set a custom coaching prompt that is prepended to every rendered result."),
	mcp.WithString("prompt", mcp.Required(), mcp.Description("The custom prompt text.")),
)

var toolGetPrompt = mcp.NewTool("get_custom_prompt",
	mcp.WithDescription("Show the current custom coaching prompt, if any."),
)

var toolClearPrompt = mcp.NewTool("clear_custom_prompt",
	mcp.WithDescription("Remove the custom coaching prompt."),
)
