package analytics

import (
	"fmt"

	"whoop-coach-mcp/internal/whoop"
)

// Readiness composite weights. Strain contributes inversely: a fully strained
// day (21 on the provider's scale) leaves nothing in the tank.
const (
	weightRecovery    = 0.4
	weightPerformance = 0.3
	weightEfficiency  = 0.2
	weightStrain      = 0.1
	maxStrain         = 21.0
	strainScale       = 4.76
)

// TrainingReadinessResult is the weighted composite of recovery, sleep, and
// accrued strain, with the factors that produced it.
type TrainingReadinessResult struct {
	Score   float64  `json:"score"`
	Level   string   `json:"level"`
	Advice  string   `json:"advice"`
	Factors []string `json:"factors"`

	RecoveryScore    float64 `json:"recovery_score"`
	SleepPerformance float64 `json:"sleep_performance"`
	SleepEfficiency  float64 `json:"sleep_efficiency"`
	Strain           float64 `json:"strain"`
}

// ReadinessInput carries the three records the composite draws from. Any of
// them may lack a score; missing components contribute their zero weight and
// are called out in Factors instead of silently passing as healthy.
type ReadinessInput struct {
	Recovery  *whoop.Recovery
	PrevSleep *whoop.Sleep
	Cycle     *whoop.Cycle
}

// AnalyzeReadiness computes the 0-100 training readiness composite.
func AnalyzeReadiness(in ReadinessInput) TrainingReadinessResult {
	var res TrainingReadinessResult

	if in.Recovery != nil && in.Recovery.Score != nil {
		res.RecoveryScore = in.Recovery.Score.RecoveryScore
	} else {
		res.Factors = append(res.Factors, "no recovery score available; recovery contributed 0 to the composite")
	}
	if in.PrevSleep != nil && in.PrevSleep.Score != nil {
		if p := in.PrevSleep.Score.SleepPerformancePercentage; p != nil {
			res.SleepPerformance = *p
		}
		if e := in.PrevSleep.Score.SleepEfficiencyPercentage; e != nil {
			res.SleepEfficiency = *e
		}
	} else {
		res.Factors = append(res.Factors, "no scored sleep from last night; sleep contributed 0 to the composite")
	}
	if in.Cycle != nil && in.Cycle.Score != nil {
		res.Strain = in.Cycle.Score.Strain
	}

	strainHeadroom := (maxStrain - res.Strain) * strainScale
	if strainHeadroom > 100 {
		strainHeadroom = 100
	}
	if strainHeadroom < 0 {
		strainHeadroom = 0
	}

	res.Score = res.RecoveryScore*weightRecovery +
		res.SleepPerformance*weightPerformance +
		res.SleepEfficiency*weightEfficiency +
		strainHeadroom*weightStrain

	res.Level, res.Advice = readinessLevel(res.Score)
	res.Factors = append(res.Factors, readinessFactors(res)...)
	return res
}

func readinessLevel(score float64) (level, advice string) {
	switch {
	case score >= 80:
		return TierExcellent, "Perfect day for high-intensity training or competition."
	case score >= 65:
		return TierGood, "Good for moderate to high-intensity training."
	case score >= 50:
		return TierFair, "Light to moderate training recommended."
	default:
		return TierPoor, "Recovery day recommended - focus on rest and recovery."
	}
}

func readinessFactors(res TrainingReadinessResult) []string {
	var factors []string
	switch {
	case res.RecoveryScore > recoveryReady:
		factors = append(factors, fmt.Sprintf("recovery %.0f%% - body is ready", res.RecoveryScore))
	case res.RecoveryScore > recoveryCaution:
		factors = append(factors, fmt.Sprintf("recovery %.0f%% - proceed with caution", res.RecoveryScore))
	default:
		factors = append(factors, fmt.Sprintf("recovery %.0f%% - body needs rest", res.RecoveryScore))
	}

	switch {
	case res.SleepPerformance > 80:
		factors = append(factors, fmt.Sprintf("sleep performance %.0f%% - well rested", res.SleepPerformance))
	case res.SleepPerformance > 60:
		factors = append(factors, fmt.Sprintf("sleep performance %.0f%% - adequately rested", res.SleepPerformance))
	default:
		factors = append(factors, fmt.Sprintf("sleep performance %.0f%% - under-slept", res.SleepPerformance))
	}

	switch {
	case res.Strain < 15:
		factors = append(factors, fmt.Sprintf("strain %.1f/21 - low accumulated load", res.Strain))
	case res.Strain < 18:
		factors = append(factors, fmt.Sprintf("strain %.1f/21 - moderate accumulated load", res.Strain))
	default:
		factors = append(factors, fmt.Sprintf("strain %.1f/21 - high accumulated load", res.Strain))
	}
	return factors
}
