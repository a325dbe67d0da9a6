package render

import (
	"fmt"
	"strings"

	"whoop-coach-mcp/internal/analytics"
)

// SleepQuality renders a sleep quality analysis.
func SleepQuality(res analytics.SleepQualityResult, opts Options) string {
	var b strings.Builder
	opts.prefix(&b)

	b.WriteString("# Sleep Quality Analysis\n\n")
	b.WriteString(fmt.Sprintf("**Overall quality:** %s\n\n", res.Quality))

	b.WriteString(fmt.Sprintf("- **Time asleep:** %s (%s in bed)\n", hoursMinutes(res.TimeAsleep), hoursMinutes(res.TimeInBed)))
	if res.EfficiencyPercent != nil {
		b.WriteString(fmt.Sprintf("- **Efficiency:** %.1f%%\n", *res.EfficiencyPercent))
	}
	if res.Performance != nil {
		b.WriteString(fmt.Sprintf("- **Performance:** %.0f%%\n", *res.Performance))
	}
	if res.Latency != nil {
		b.WriteString(fmt.Sprintf("- **Latency:** %s (%s)\n", hoursMinutes(*res.Latency), res.LatencyTier))
	}
	b.WriteString(fmt.Sprintf("- **Continuity:** %s (%d disturbances)\n", res.Continuity, res.Disturbances))

	if res.Stages != nil {
		b.WriteString("\n## Stage Distribution\n")
		b.WriteString(fmt.Sprintf("- Light: %.1f%% (optimal 45-55%%)\n", res.Stages.LightPercent))
		b.WriteString(fmt.Sprintf("- Deep: %.1f%% (optimal 15-20%%)\n", res.Stages.DeepPercent))
		b.WriteString(fmt.Sprintf("- REM: %.1f%% (optimal 20-25%%)\n", res.Stages.REMPercent))
	}

	writeRecommendations(&b, res.Recommendations)
	return b.String()
}

// RecoveryLoad renders a recovery load breakdown. Systems the provider did
// not report simply do not appear.
func RecoveryLoad(res analytics.RecoveryLoadResult, opts Options) string {
	var b strings.Builder
	opts.prefix(&b)

	b.WriteString("# Recovery Load Analysis\n\n")
	b.WriteString(fmt.Sprintf("**Recovery:** %.0f%% (%s)\n\n", res.RecoveryScore, res.Status))
	b.WriteString(fmt.Sprintf("- **HRV:** %.0f ms\n", res.HRVMilli))
	b.WriteString(fmt.Sprintf("- **Resting heart rate:** %.0f bpm\n", res.RestingHeartRate))
	if res.SpO2Percent != nil {
		b.WriteString(fmt.Sprintf("- **SpO2:** %.1f%%\n", *res.SpO2Percent))
	}
	if res.SkinTempCelsius != nil {
		b.WriteString(fmt.Sprintf("- **Skin temperature:** %s\n", fahrenheit(*res.SkinTempCelsius)))
	}

	if len(res.Systems) > 0 {
		b.WriteString("\n## System Load Breakdown\n")
		for _, sys := range res.Systems {
			b.WriteString(fmt.Sprintf("- %s: %.0f%% (%s load)\n", sys.System, sys.Percent, sys.Level))
		}
		if res.LimitingFactor != "" {
			b.WriteString(fmt.Sprintf("\nPrimary limiting factor: %s.\n", res.LimitingFactor))
		}
	} else {
		b.WriteString("\nNo per-system load sub-scores were reported for this recovery.\n")
	}

	if res.Calibrating {
		b.WriteString("\nAccount is calibrating; treat scores as provisional.\n")
	}
	writeRecommendations(&b, res.Recommendations)
	return b.String()
}

// Readiness renders a training readiness composite.
func Readiness(res analytics.TrainingReadinessResult, opts Options) string {
	var b strings.Builder
	opts.prefix(&b)

	b.WriteString("# Training Readiness\n\n")
	b.WriteString(fmt.Sprintf("**Overall readiness:** %s (%.1f/100)\n\n", res.Level, res.Score))
	b.WriteString(fmt.Sprintf("- Recovery score: %.0f%% (weight 40%%)\n", res.RecoveryScore))
	b.WriteString(fmt.Sprintf("- Sleep performance: %.0f%% (weight 30%%)\n", res.SleepPerformance))
	b.WriteString(fmt.Sprintf("- Sleep efficiency: %.1f%% (weight 20%%)\n", res.SleepEfficiency))
	b.WriteString(fmt.Sprintf("- Day strain: %.1f/21 (weight 10%%)\n", res.Strain))
	b.WriteString(fmt.Sprintf("\n**Recommendation:** %s\n", res.Advice))

	if len(res.Factors) > 0 {
		b.WriteString("\n## Contributing Factors\n")
		for _, f := range res.Factors {
			b.WriteString("- " + f + "\n")
		}
	}
	return b.String()
}

// WorkoutAnalysis renders a workout analysis. A record without zone data
// gets no zone section.
func WorkoutAnalysis(res analytics.WorkoutAnalysisResult, opts Options) string {
	var b strings.Builder
	opts.prefix(&b)

	b.WriteString(fmt.Sprintf("# Workout Analysis: %s\n\n", res.SportName))
	b.WriteString(fmt.Sprintf("- **Duration:** %s\n", hoursMinutes(res.Duration)))
	b.WriteString(fmt.Sprintf("- **Strain:** %.1f / 21.0 (%.1f per hour)\n", res.Strain, res.StrainPerHour))
	b.WriteString(fmt.Sprintf("- **Calories:** %.0f kcal\n", res.Calories))
	b.WriteString(fmt.Sprintf("- **Heart rate:** avg %d, max %d bpm\n", res.AverageHeartRate, res.MaxHeartRate))
	if res.DistanceMiles != nil {
		b.WriteString(fmt.Sprintf("- **Distance:** %.2f mi\n", *res.DistanceMiles))
	}
	if res.ElevationGainFt != nil {
		b.WriteString(fmt.Sprintf("- **Elevation gain:** %.0f ft\n", *res.ElevationGainFt))
	}
	if res.AltitudeChangeFt != nil {
		b.WriteString(fmt.Sprintf("- **Net elevation:** %+.0f ft\n", *res.AltitudeChangeFt))
	}

	if len(res.Zones) > 0 {
		b.WriteString("\n## Heart Rate Zones\n")
		labels := []string{"Zone 0 (rest)", "Zone 1", "Zone 2", "Zone 3", "Zone 4", "Zone 5 (max)"}
		for i, z := range res.Zones {
			b.WriteString(fmt.Sprintf("- %s: %.1f%%\n", labels[i], z.Percent))
		}
		b.WriteString(fmt.Sprintf("\nTraining focus: %s.\n", res.TrainingFocus))
	}
	return b.String()
}

func writeRecommendations(b *strings.Builder, recs []string) {
	if len(recs) == 0 {
		return
	}
	b.WriteString("\n## Recommendations\n")
	for _, rec := range recs {
		b.WriteString("- " + rec + "\n")
	}
}
