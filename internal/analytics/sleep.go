// Package analytics holds the stateless scoring functions. Every function is
// a pure transform of provider records into a result struct; nothing here
// touches the network or mutates its input. Sections whose source data is
// absent are omitted from results rather than reported as zero.
package analytics

import (
	"time"

	"whoop-coach-mcp/internal/whoop"
)

// Quality tiers shared across analyses.
const (
	TierExcellent = "excellent"
	TierGood      = "good"
	TierFair      = "fair"
	TierPoor      = "poor"
)

// Latency thresholds: under 15 minutes is fast, under 30 normal.
const (
	latencyFast   = 15 * time.Minute
	latencyNormal = 30 * time.Minute
)

// SleepStageBreakdown is the share of asleep time spent in each stage.
type SleepStageBreakdown struct {
	LightPercent float64 `json:"light_percent"`
	DeepPercent  float64 `json:"deep_percent"`
	REMPercent   float64 `json:"rem_percent"`
}

// SleepQualityResult scores one night of sleep.
type SleepQualityResult struct {
	SleepID           string               `json:"sleep_id"`
	Quality           string               `json:"quality"`
	EfficiencyPercent *float64             `json:"efficiency_percent,omitempty"`
	Performance       *float64             `json:"performance_percent,omitempty"`
	Consistency       *float64             `json:"consistency_percent,omitempty"`
	Latency           *time.Duration       `json:"latency,omitempty"`
	LatencyTier       string               `json:"latency_tier,omitempty"`
	Continuity        string               `json:"continuity"`
	Disturbances      int                  `json:"disturbances"`
	TimeAsleep        time.Duration        `json:"time_asleep"`
	TimeInBed         time.Duration        `json:"time_in_bed"`
	Stages            *SleepStageBreakdown `json:"stages,omitempty"`
	Recommendations   []string             `json:"recommendations"`
}

// AnalyzeSleep scores efficiency, latency, continuity, and stage balance for
// a single sleep record. Returns false when the record carries no score.
func AnalyzeSleep(s whoop.Sleep) (SleepQualityResult, bool) {
	if s.Score == nil {
		return SleepQualityResult{}, false
	}
	score := s.Score
	stages := score.StageSummary

	res := SleepQualityResult{
		SleepID:           s.ID,
		EfficiencyPercent: score.SleepEfficiencyPercentage,
		Performance:       score.SleepPerformancePercentage,
		Consistency:       score.SleepConsistencyPercentage,
		Disturbances:      stages.DisturbanceCount,
		TimeAsleep:        time.Duration(stages.AsleepMilli()) * time.Millisecond,
		TimeInBed:         time.Duration(stages.TotalInBedTimeMilli) * time.Millisecond,
	}

	res.Quality = efficiencyTier(score.SleepEfficiencyPercentage)
	res.Continuity = continuityTier(stages.DisturbanceCount)

	if latency := sleepLatency(stages); latency >= 0 {
		d := latency
		res.Latency = &d
		res.LatencyTier = latencyTier(latency)
	}

	if asleep := stages.AsleepMilli(); asleep > 0 {
		res.Stages = &SleepStageBreakdown{
			LightPercent: pct(stages.TotalLightSleepTimeMilli, asleep),
			DeepPercent:  pct(stages.TotalSlowWaveSleepTimeMilli, asleep),
			REMPercent:   pct(stages.TotalRemSleepTimeMilli, asleep),
		}
	}

	res.Recommendations = sleepRecommendations(res)
	return res, true
}

func efficiencyTier(eff *float64) string {
	if eff == nil {
		return TierFair
	}
	switch {
	case *eff > 85:
		return TierExcellent
	case *eff > 75:
		return TierGood
	case *eff > 65:
		return TierFair
	default:
		return TierPoor
	}
}

func continuityTier(disturbances int) string {
	switch {
	case disturbances < 2:
		return TierExcellent
	case disturbances < 4:
		return TierGood
	case disturbances < 6:
		return TierFair
	default:
		return TierPoor
	}
}

func latencyTier(latency time.Duration) string {
	switch {
	case latency < latencyFast:
		return "fast"
	case latency < latencyNormal:
		return "normal"
	default:
		return "slow"
	}
}

// sleepLatency estimates time to fall asleep from awake time before the
// first sleep stage. The API does not expose latency directly; awake time at
// the front of the in-bed window is the usable proxy.
func sleepLatency(stages whoop.StageSummary) time.Duration {
	if stages.TotalInBedTimeMilli == 0 {
		return -1
	}
	gap := stages.TotalInBedTimeMilli - stages.AsleepMilli() - stages.TotalAwakeTimeMilli
	if gap < 0 {
		gap = 0
	}
	return time.Duration(gap) * time.Millisecond
}

// sleepRecommendations keys advice to the weakest sub-metric.
func sleepRecommendations(res SleepQualityResult) []string {
	var recs []string
	switch {
	case res.Quality == TierExcellent && res.Disturbances < 3:
		recs = append(recs, "Great sleep quality - maintain current sleep habits.")
	case res.Disturbances > 4:
		recs = append(recs, "Consider improving your sleep environment to reduce disturbances.")
	case res.Latency != nil && *res.Latency >= latencyNormal:
		recs = append(recs, "Focus on a consistent bedtime routine to fall asleep faster.")
	default:
		recs = append(recs, "Consider sleep hygiene improvements for better efficiency.")
	}
	if res.Performance != nil && *res.Performance < 70 {
		recs = append(recs, "You slept well short of your body's computed need - aim for an earlier bedtime tonight.")
	}
	if res.Stages != nil && res.Stages.REMPercent < 15 {
		recs = append(recs, "REM share was low - alcohol and late screens are the usual suspects.")
	}
	return recs
}

func pct(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
