package render

import (
	"fmt"
	"strings"
	"time"

	"whoop-coach-mcp/internal/whoop"
)

// SleepRecord renders one sleep activity in full.
func SleepRecord(sl *whoop.Sleep, opts Options) string {
	var b strings.Builder
	opts.prefix(&b)
	loc := opts.loc()

	kind := "Night Sleep"
	if sl.Nap {
		kind = "Nap"
	}
	b.WriteString(fmt.Sprintf("# %s on %s\n\n", kind, sl.Start.In(loc).Format("January 2, 2006")))
	b.WriteString(fmt.Sprintf("- **Started:** %s\n", sl.Start.In(loc).Format("3:04 PM MST")))
	b.WriteString(fmt.Sprintf("- **Ended:** %s\n", sl.End.In(loc).Format("3:04 PM MST")))

	if sl.Score == nil {
		b.WriteString(fmt.Sprintf("\nScore state: %s - metrics not yet available.\n", sl.ScoreState))
		return b.String()
	}
	score := sl.Score
	stages := score.StageSummary

	asleep := time.Duration(stages.AsleepMilli()) * time.Millisecond
	inBed := time.Duration(stages.TotalInBedTimeMilli) * time.Millisecond
	b.WriteString(fmt.Sprintf("- **Asleep:** %s of %s in bed\n", hoursMinutes(asleep), hoursMinutes(inBed)))
	if p := score.SleepPerformancePercentage; p != nil {
		b.WriteString(fmt.Sprintf("- **Performance:** %.0f%%\n", *p))
	}
	if e := score.SleepEfficiencyPercentage; e != nil {
		b.WriteString(fmt.Sprintf("- **Efficiency:** %.1f%%\n", *e))
	}
	if c := score.SleepConsistencyPercentage; c != nil {
		b.WriteString(fmt.Sprintf("- **Consistency:** %.0f%%\n", *c))
	}
	if r := score.RespiratoryRate; r != nil {
		b.WriteString(fmt.Sprintf("- **Respiratory rate:** %.1f breaths/min\n", *r))
	}

	b.WriteString("\n## Stages\n")
	b.WriteString(fmt.Sprintf("- Light: %s\n", hoursMinutes(time.Duration(stages.TotalLightSleepTimeMilli)*time.Millisecond)))
	b.WriteString(fmt.Sprintf("- Deep (SWS): %s\n", hoursMinutes(time.Duration(stages.TotalSlowWaveSleepTimeMilli)*time.Millisecond)))
	b.WriteString(fmt.Sprintf("- REM: %s\n", hoursMinutes(time.Duration(stages.TotalRemSleepTimeMilli)*time.Millisecond)))
	b.WriteString(fmt.Sprintf("- Awake: %s\n", hoursMinutes(time.Duration(stages.TotalAwakeTimeMilli)*time.Millisecond)))
	b.WriteString(fmt.Sprintf("- Sleep cycles: %d, disturbances: %d\n", stages.SleepCycleCount, stages.DisturbanceCount))

	need := time.Duration(score.SleepNeeded.TotalNeedMilli()) * time.Millisecond
	if need > 0 {
		b.WriteString(fmt.Sprintf("\nSleep need was %s.\n", hoursMinutes(need)))
	}
	return b.String()
}

// RecoveryRecord renders one recovery in full.
func RecoveryRecord(r *whoop.Recovery, opts Options) string {
	var b strings.Builder
	opts.prefix(&b)

	b.WriteString("# Recovery\n\n")
	if r.Score == nil {
		b.WriteString(fmt.Sprintf("Score state: %s - metrics not yet available.\n", r.ScoreState))
		return b.String()
	}
	score := r.Score

	status := "Red (Low)"
	switch {
	case score.RecoveryScore >= 67:
		status = "Green (High)"
	case score.RecoveryScore >= 34:
		status = "Yellow (Medium)"
	}
	b.WriteString(fmt.Sprintf("- **Status:** %s\n", status))
	b.WriteString(fmt.Sprintf("- **Recovery score:** %.0f%%\n", score.RecoveryScore))
	b.WriteString(fmt.Sprintf("- **HRV:** %.0f ms\n", score.HRVRmssdMilli))
	b.WriteString(fmt.Sprintf("- **Resting heart rate:** %.0f bpm\n", score.RestingHeartRate))
	if score.SpO2Percentage != nil {
		b.WriteString(fmt.Sprintf("- **SpO2:** %.1f%%\n", *score.SpO2Percentage))
	}
	if score.SkinTempCelsius != nil {
		b.WriteString(fmt.Sprintf("- **Skin temperature:** %s\n", fahrenheit(*score.SkinTempCelsius)))
	}
	if score.UserCalibrating {
		b.WriteString("\nYour account is still calibrating; expect scores to settle over the first month.\n")
	}
	return b.String()
}

// CycleRecord renders one cycle in full.
func CycleRecord(c *whoop.Cycle, opts Options) string {
	var b strings.Builder
	opts.prefix(&b)
	loc := opts.loc()

	b.WriteString(fmt.Sprintf("# Cycle starting %s\n\n", c.Start.In(loc).Format("January 2, 2006 3:04 PM")))
	if c.End == nil {
		b.WriteString("- **Status:** in progress\n")
	} else {
		b.WriteString(fmt.Sprintf("- **Ended:** %s\n", c.End.In(loc).Format("January 2, 2006 3:04 PM")))
	}
	if c.Score == nil {
		b.WriteString(fmt.Sprintf("- Score state: %s\n", c.ScoreState))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("- **Strain:** %.1f / 21.0 (%s)\n", c.Score.Strain, strainLevel(c.Score.Strain)))
	b.WriteString(fmt.Sprintf("- **Avg HR:** %d bpm, **max HR:** %d bpm\n", c.Score.AverageHeartRate, c.Score.MaxHeartRate))
	b.WriteString(fmt.Sprintf("- **Energy:** %.0f kcal\n", c.Score.Kilojoule/kilojoulesPerKcal))
	return b.String()
}

// WorkoutRecord renders one workout in full.
func WorkoutRecord(w *whoop.Workout, opts Options) string {
	var b strings.Builder
	opts.prefix(&b)
	loc := opts.loc()

	b.WriteString(fmt.Sprintf("# %s on %s\n\n", w.SportName, w.Start.In(loc).Format("January 2, 2006")))
	b.WriteString(fmt.Sprintf("- **Time:** %s - %s (%s)\n",
		w.Start.In(loc).Format("3:04 PM"), w.End.In(loc).Format("3:04 PM"), hoursMinutes(w.End.Sub(w.Start))))

	if w.Score == nil {
		b.WriteString(fmt.Sprintf("- Score state: %s\n", w.ScoreState))
		return b.String()
	}
	score := w.Score
	b.WriteString(fmt.Sprintf("- **Strain:** %.1f / 21.0\n", score.Strain))
	b.WriteString(fmt.Sprintf("- **Calories:** %.0f kcal\n", score.Kilojoule/kilojoulesPerKcal))
	b.WriteString(fmt.Sprintf("- **Heart rate:** avg %d, max %d bpm\n", score.AverageHeartRate, score.MaxHeartRate))
	if score.DistanceMeter != nil {
		b.WriteString(fmt.Sprintf("- **Distance:** %.2f mi (%.0f m)\n", *score.DistanceMeter/metersPerMile, *score.DistanceMeter))
	}
	if score.AltitudeGainMeter != nil {
		b.WriteString(fmt.Sprintf("- **Elevation gain:** %.0f ft (%.0f m)\n", *score.AltitudeGainMeter*feetPerMeter, *score.AltitudeGainMeter))
	}
	if score.PercentRecorded < 100 && score.PercentRecorded > 0 {
		b.WriteString(fmt.Sprintf("- Data quality: %.0f%% recorded\n", score.PercentRecorded))
	}
	return b.String()
}

// strainLevel maps strain onto the provider's named bands.
func strainLevel(strain float64) string {
	switch {
	case strain >= 18:
		return "All Out (18.0-21.0)"
	case strain >= 14:
		return "Strenuous (14.0-17.9)"
	case strain >= 10:
		return "Moderate (10.0-13.9)"
	case strain >= 4:
		return "Light (4.0-9.9)"
	default:
		return "Minimal (0.0-3.9)"
	}
}
