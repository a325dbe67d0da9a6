package analytics

import (
	"whoop-coach-mcp/internal/whoop"
)

// Recovery readiness bands.
const (
	recoveryReady   = 67.0
	recoveryCaution = 34.0
)

// SystemLoad is one physiological system's contribution to recovery load.
type SystemLoad struct {
	System  string  `json:"system"`
	Percent float64 `json:"percent"`
	Level   string  `json:"level"`
}

// RecoveryLoadResult breaks a recovery down by contributing system. Systems
// is empty when the provider supplied no sub-scores; a missing sub-score is
// never reported as zero load.
type RecoveryLoadResult struct {
	CycleID          int64        `json:"cycle_id"`
	RecoveryScore    float64      `json:"recovery_score"`
	Status           string       `json:"status"`
	Calibrating      bool         `json:"calibrating"`
	HRVMilli         float64      `json:"hrv_rmssd_milli"`
	RestingHeartRate float64      `json:"resting_heart_rate"`
	SpO2Percent      *float64     `json:"spo2_percent,omitempty"`
	SkinTempCelsius  *float64     `json:"skin_temp_celsius,omitempty"`
	Systems          []SystemLoad `json:"systems,omitempty"`
	LimitingFactor   string       `json:"limiting_factor,omitempty"`
	Recommendations  []string     `json:"recommendations"`
}

// AnalyzeRecovery decomposes a recovery record into its per-system load
// breakdown. Returns false when the record carries no score.
func AnalyzeRecovery(r whoop.Recovery) (RecoveryLoadResult, bool) {
	if r.Score == nil {
		return RecoveryLoadResult{}, false
	}
	score := r.Score

	res := RecoveryLoadResult{
		CycleID:          r.CycleID,
		RecoveryScore:    score.RecoveryScore,
		Status:           RecoveryStatus(score.RecoveryScore),
		Calibrating:      score.UserCalibrating,
		HRVMilli:         score.HRVRmssdMilli,
		RestingHeartRate: score.RestingHeartRate,
		SpO2Percent:      score.SpO2Percentage,
		SkinTempCelsius:  score.SkinTempCelsius,
	}

	for _, sys := range []struct {
		name string
		load *float64
	}{
		{"cardiovascular", score.CardiovascularLoad},
		{"musculoskeletal", score.MusculoskeletalLoad},
		{"metabolic", score.MetabolicLoad},
	} {
		if sys.load == nil {
			continue
		}
		res.Systems = append(res.Systems, SystemLoad{
			System:  sys.name,
			Percent: *sys.load,
			Level:   loadLevel(*sys.load),
		})
	}

	if factor := highestLoad(res.Systems); factor != "" {
		res.LimitingFactor = factor
	}
	res.Recommendations = recoveryRecommendations(score.RecoveryScore, res.LimitingFactor)
	return res, true
}

// RecoveryStatus maps a recovery score onto the green/yellow/red bands.
func RecoveryStatus(score float64) string {
	switch {
	case score > recoveryReady:
		return "ready"
	case score > recoveryCaution:
		return "caution"
	default:
		return "not ready"
	}
}

func loadLevel(pct float64) string {
	switch {
	case pct > 70:
		return "high"
	case pct > 40:
		return "moderate"
	default:
		return "low"
	}
}

func highestLoad(systems []SystemLoad) string {
	name, best := "", -1.0
	for _, s := range systems {
		if s.Percent > best {
			name, best = s.System, s.Percent
		}
	}
	return name
}

func recoveryRecommendations(score float64, limiting string) []string {
	var recs []string
	switch {
	case score > recoveryReady:
		recs = append(recs, "Full intensity training recommended.")
	case score > 50:
		recs = append(recs, "Light to moderate training recommended.")
	case score > recoveryCaution:
		recs = append(recs, "Recovery day recommended - focus on sleep and nutrition.")
	default:
		recs = append(recs, "Active recovery only - prioritize rest.")
	}
	switch limiting {
	case "cardiovascular":
		recs = append(recs, "Cardiovascular load is the limiting factor: gentle aerobic activity and breathing exercises help.")
	case "musculoskeletal":
		recs = append(recs, "Musculoskeletal load is the limiting factor: stretching, massage, and gentle movement help.")
	case "metabolic":
		recs = append(recs, "Metabolic load is the limiting factor: nutrition, hydration, and adequate sleep help.")
	}
	return recs
}
