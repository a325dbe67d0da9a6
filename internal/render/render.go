// Package render turns summaries and analysis results into the markdown text
// returned to tool callers. US units first, metric in parentheses, matching
// how the provider's own app displays data.
package render

import (
	"fmt"
	"strings"
	"time"

	"whoop-coach-mcp/internal/analytics"
	"whoop-coach-mcp/internal/summary"
	"whoop-coach-mcp/internal/whoop"
)

// Options carries rendering context. CustomPrompt, when set, is prepended to
// every rendered result; it is explicit configuration, never ambient state.
type Options struct {
	CustomPrompt string
	Location     *time.Location
	Now          func() time.Time
}

func (o Options) loc() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.UTC
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) prefix(b *strings.Builder) {
	if o.CustomPrompt != "" {
		b.WriteString(o.CustomPrompt)
		b.WriteString("\n\n")
	}
}

const (
	kilojoulesPerKcal = 4.184
	metersPerMile     = 1609.34
	feetPerMeter      = 3.28084
)

// Summary renders the full daily summary.
func Summary(s *summary.DailySummary, opts Options) string {
	var b strings.Builder
	opts.prefix(&b)

	loc := opts.loc()
	if s.Cycle.End == nil {
		b.WriteString("# Today's Summary\n\n")
		b.WriteString("**Current cycle** - your most recent physiological day, still in progress.\n")
		b.WriteString(fmt.Sprintf("Current time: %s\n\n", opts.now().In(loc).Format("3:04 PM MST")))
	} else {
		b.WriteString(fmt.Sprintf("# Summary for %s\n\n", s.Cycle.Start.In(loc).Format("Monday, January 2, 2006")))
		b.WriteString("**Historical data** - a completed physiological cycle.\n\n")
	}

	b.WriteString("## Sleep\n")
	writeSleepSection(&b, s, loc)

	b.WriteString("## Recovery\n")
	writeRecoverySection(&b, s)

	b.WriteString("## Strain\n")
	writeStrainSection(&b, s)

	b.WriteString("## Workouts\n")
	writeWorkoutSection(&b, s)

	if len(s.Recommendations) > 0 {
		b.WriteString("## Recommendations\n")
		for _, rec := range s.Recommendations {
			b.WriteString("- " + rec + "\n")
		}
	}
	return b.String()
}

func writeSleepSection(b *strings.Builder, s *summary.DailySummary, loc *time.Location) {
	if msg, degraded := s.SectionErrors["sleep"]; degraded {
		b.WriteString(fmt.Sprintf("Sleep data unavailable: %s\n\n", msg))
		return
	}
	if s.Sleep == nil {
		b.WriteString("No sleep recorded for this cycle.\n\n")
		return
	}
	sl := s.Sleep
	b.WriteString(fmt.Sprintf("- **Bedtime:** %s, woke %s\n",
		sl.Start.In(loc).Format("3:04 PM"), sl.End.In(loc).Format("3:04 PM")))
	if sl.Score == nil {
		b.WriteString("- Score still processing.\n\n")
		return
	}
	score := sl.Score
	asleep := time.Duration(score.StageSummary.AsleepMilli()) * time.Millisecond
	inBed := time.Duration(score.StageSummary.TotalInBedTimeMilli) * time.Millisecond
	b.WriteString(fmt.Sprintf("- **Duration:** %s asleep, %s in bed\n", hoursMinutes(asleep), hoursMinutes(inBed)))
	if p := score.SleepPerformancePercentage; p != nil {
		b.WriteString(fmt.Sprintf("- **Performance:** %.0f%%\n", *p))
	}
	if e := score.SleepEfficiencyPercentage; e != nil {
		b.WriteString(fmt.Sprintf("- **Efficiency:** %.1f%%\n", *e))
	}
	b.WriteString(fmt.Sprintf("- **Stages:** light %s, deep %s, REM %s\n",
		hoursMinutes(time.Duration(score.StageSummary.TotalLightSleepTimeMilli)*time.Millisecond),
		hoursMinutes(time.Duration(score.StageSummary.TotalSlowWaveSleepTimeMilli)*time.Millisecond),
		hoursMinutes(time.Duration(score.StageSummary.TotalRemSleepTimeMilli)*time.Millisecond)))
	b.WriteString(fmt.Sprintf("- **Disturbances:** %d\n\n", score.StageSummary.DisturbanceCount))
}

func writeRecoverySection(b *strings.Builder, s *summary.DailySummary) {
	if msg, degraded := s.SectionErrors["recovery"]; degraded {
		b.WriteString(fmt.Sprintf("Recovery data unavailable: %s\n\n", msg))
		return
	}
	if s.Recovery == nil || s.Recovery.Score == nil {
		b.WriteString("No recovery score for this cycle yet.\n\n")
		return
	}
	score := s.Recovery.Score
	b.WriteString(fmt.Sprintf("- **Recovery:** %.0f%% (%s)\n",
		score.RecoveryScore, analytics.RecoveryStatus(score.RecoveryScore)))
	b.WriteString(fmt.Sprintf("- **HRV:** %.0f ms\n", score.HRVRmssdMilli))
	b.WriteString(fmt.Sprintf("- **Resting HR:** %.0f bpm\n", score.RestingHeartRate))
	if score.SpO2Percentage != nil {
		b.WriteString(fmt.Sprintf("- **SpO2:** %.1f%%\n", *score.SpO2Percentage))
	}
	if score.SkinTempCelsius != nil {
		b.WriteString(fmt.Sprintf("- **Skin temp:** %s\n", fahrenheit(*score.SkinTempCelsius)))
	}
	if score.UserCalibrating {
		b.WriteString("- Account still calibrating; scores may shift.\n")
	}
	b.WriteString("\n")
}

func writeStrainSection(b *strings.Builder, s *summary.DailySummary) {
	if s.Strain == nil {
		b.WriteString("Strain not yet scored for this cycle.\n\n")
		return
	}
	b.WriteString(fmt.Sprintf("- **Day strain:** %.1f / 21.0\n", *s.Strain))
	if s.Cycle.Score != nil {
		b.WriteString(fmt.Sprintf("- **Avg HR:** %d bpm, **max HR:** %d bpm\n",
			s.Cycle.Score.AverageHeartRate, s.Cycle.Score.MaxHeartRate))
		b.WriteString(fmt.Sprintf("- **Energy:** %.0f kcal\n", s.Cycle.Score.Kilojoule/kilojoulesPerKcal))
	}
	b.WriteString("\n")
}

func writeWorkoutSection(b *strings.Builder, s *summary.DailySummary) {
	if msg, degraded := s.SectionErrors["workouts"]; degraded {
		b.WriteString(fmt.Sprintf("Workout data unavailable: %s\n\n", msg))
		return
	}
	if len(s.Workouts) == 0 {
		b.WriteString("No workouts recorded in this cycle.\n\n")
		return
	}
	for _, w := range s.Workouts {
		line := fmt.Sprintf("- **%s** (%s)", w.SportName, hoursMinutes(w.End.Sub(w.Start)))
		if w.Score != nil {
			line += fmt.Sprintf(": strain %.1f, %.0f kcal", w.Score.Strain, w.Score.Kilojoule/kilojoulesPerKcal)
			if w.Score.DistanceMeter != nil {
				line += fmt.Sprintf(", %.2f mi", *w.Score.DistanceMeter/metersPerMile)
			}
		}
		b.WriteString(line + "\n")
	}
	t := s.Totals
	b.WriteString(fmt.Sprintf("\n**Totals:** %d workouts, %s, %.0f kcal",
		t.Count, hoursMinutes(t.TotalDuration), t.TotalCalories))
	if t.TotalMiles > 0 {
		b.WriteString(fmt.Sprintf(", %.2f mi", t.TotalMiles))
	}
	if t.MaxStrain > 0 {
		b.WriteString(fmt.Sprintf(", max strain %.1f", t.MaxStrain))
	}
	b.WriteString("\n\n")
}

func hoursMinutes(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func fahrenheit(celsius float64) string {
	return fmt.Sprintf("%.1f°F (%.1f°C)", celsius*9/5+32, celsius)
}

// Profile renders the basic user profile.
func Profile(p *whoop.Profile, opts Options) string {
	var b strings.Builder
	opts.prefix(&b)
	b.WriteString("# WHOOP Profile\n\n")
	b.WriteString(fmt.Sprintf("- **Name:** %s %s\n", p.FirstName, p.LastName))
	b.WriteString(fmt.Sprintf("- **Email:** %s\n", p.Email))
	b.WriteString(fmt.Sprintf("- **User ID:** %d\n", p.UserID))
	return b.String()
}

// BodyMeasurement renders body metrics, US units first.
func BodyMeasurement(m *whoop.BodyMeasurement, opts Options) string {
	inches := m.HeightMeter / 0.0254
	feet := int(inches / 12)
	pounds := m.WeightKilogram * 2.20462

	var b strings.Builder
	opts.prefix(&b)
	b.WriteString("# Body Measurements\n\n")
	b.WriteString(fmt.Sprintf("- **Height:** %d'%.0f\" (%.2f m)\n", feet, inches-float64(feet)*12, m.HeightMeter))
	b.WriteString(fmt.Sprintf("- **Weight:** %.1f lb (%.1f kg)\n", pounds, m.WeightKilogram))
	b.WriteString(fmt.Sprintf("- **Max heart rate:** %d bpm\n", m.MaxHeartRate))
	return b.String()
}
