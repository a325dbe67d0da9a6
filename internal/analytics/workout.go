package analytics

import (
	"time"

	"whoop-coach-mcp/internal/whoop"
)

// Unit conversions for display.
const (
	kilojoulesPerKcal = 4.184
	metersPerMile     = 1609.34
	feetPerMeter      = 3.28084
)

// ZoneShare is the share of workout time spent in one heart rate zone.
type ZoneShare struct {
	Zone    int     `json:"zone"`
	Percent float64 `json:"percent"`
}

// WorkoutAnalysisResult scores a single workout. Zones is nil when the
// record predates zone tracking; it is never rendered as all-zero.
type WorkoutAnalysisResult struct {
	WorkoutID        string        `json:"workout_id"`
	SportName        string        `json:"sport_name"`
	Duration         time.Duration `json:"duration"`
	Strain           float64       `json:"strain"`
	Calories         float64       `json:"calories"`
	AverageHeartRate int           `json:"average_heart_rate"`
	MaxHeartRate     int           `json:"max_heart_rate"`

	// StrainPerHour is the workout's intensity density: strain earned per
	// hour of activity.
	StrainPerHour float64 `json:"strain_per_hour"`

	DistanceMiles    *float64 `json:"distance_miles,omitempty"`
	ElevationGainFt  *float64 `json:"elevation_gain_ft,omitempty"`
	AltitudeChangeFt *float64 `json:"altitude_change_ft,omitempty"`

	Zones         []ZoneShare `json:"zones,omitempty"`
	TrainingFocus string      `json:"training_focus,omitempty"`
}

// AnalyzeWorkout derives zone distribution, elevation, and intensity metrics
// for one workout. Returns false when the record carries no score.
func AnalyzeWorkout(w whoop.Workout) (WorkoutAnalysisResult, bool) {
	if w.Score == nil {
		return WorkoutAnalysisResult{}, false
	}
	score := w.Score
	duration := w.End.Sub(w.Start)

	res := WorkoutAnalysisResult{
		WorkoutID:        w.ID,
		SportName:        w.SportName,
		Duration:         duration,
		Strain:           score.Strain,
		Calories:         score.Kilojoule / kilojoulesPerKcal,
		AverageHeartRate: score.AverageHeartRate,
		MaxHeartRate:     score.MaxHeartRate,
	}
	if hours := duration.Hours(); hours > 0 {
		res.StrainPerHour = score.Strain / hours
	}

	if score.DistanceMeter != nil {
		miles := *score.DistanceMeter / metersPerMile
		res.DistanceMiles = &miles
	}
	if score.AltitudeGainMeter != nil {
		ft := *score.AltitudeGainMeter * feetPerMeter
		res.ElevationGainFt = &ft
	}
	if score.AltitudeChangeMeter != nil {
		ft := *score.AltitudeChangeMeter * feetPerMeter
		res.AltitudeChangeFt = &ft
	}

	if score.ZoneDurations != nil {
		if total := score.ZoneDurations.TotalMilli(); total > 0 {
			z := score.ZoneDurations
			res.Zones = []ZoneShare{
				{Zone: 0, Percent: pct(z.ZoneZeroMilli, total)},
				{Zone: 1, Percent: pct(z.ZoneOneMilli, total)},
				{Zone: 2, Percent: pct(z.ZoneTwoMilli, total)},
				{Zone: 3, Percent: pct(z.ZoneThreeMilli, total)},
				{Zone: 4, Percent: pct(z.ZoneFourMilli, total)},
				{Zone: 5, Percent: pct(z.ZoneFiveMilli, total)},
			}
			res.TrainingFocus = trainingFocus(z, total)
		}
	}
	return res, true
}

// trainingFocus classifies the session by where the time went: over 30% in
// zones 4-5 is high intensity, over 30% in zones 3-4 moderate.
func trainingFocus(z *whoop.ZoneDurations, total int64) string {
	hi := float64(z.ZoneFourMilli+z.ZoneFiveMilli) / float64(total)
	mid := float64(z.ZoneThreeMilli+z.ZoneFourMilli) / float64(total)
	switch {
	case hi > 0.3:
		return "high intensity"
	case mid > 0.3:
		return "moderate intensity"
	default:
		return "low intensity / recovery"
	}
}
