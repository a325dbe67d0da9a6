package summary

import (
	"fmt"
	"time"

	"whoop-coach-mcp/internal/whoop"
)

// Recommendations switch from training guidance to wind-down guidance at
// 18:00 local. Only the advice is time-aware; record selection never is.
const eveningCutoffHour = 18

// Recovery bands for target strain guidance.
const (
	recoveryGreen  = 67.0
	recoveryYellow = 34.0
)

// recommend produces the summary's guidance lines. Historical (closed)
// cycles get a single context note; live guidance only makes sense for the
// cycle that is still accruing strain.
func (b *Builder) recommend(s *DailySummary) []string {
	if s.Cycle.End != nil {
		return []string{"This is a completed physiological cycle; guidance applies to the current one."}
	}

	local := b.now().In(b.loc)
	if local.Hour() < eveningCutoffHour {
		return b.dayRecommendations(s)
	}
	return b.eveningRecommendations(s)
}

// dayRecommendations scale training guidance by the recovery band and nudge
// toward more activity when accrued strain sits well under the band's target.
func (b *Builder) dayRecommendations(s *DailySummary) []string {
	var recs []string

	strain := 0.0
	if s.Strain != nil {
		strain = *s.Strain
	}

	if s.Recovery == nil || s.Recovery.Score == nil {
		recs = append(recs, "Recovery data is still processing; listen to your body when choosing training intensity.")
		return recs
	}

	score := s.Recovery.Score.RecoveryScore
	var lowTarget float64
	switch {
	case score > recoveryGreen:
		recs = append(recs, fmt.Sprintf("Green recovery (%.0f%%): ready for high-intensity training.", score))
		recs = append(recs, fmt.Sprintf("Target strain: 14.0-18.0 (current: %.1f/21.0).", strain))
		lowTarget = 14
	case score > recoveryYellow:
		recs = append(recs, fmt.Sprintf("Yellow recovery (%.0f%%): moderate training recommended.", score))
		recs = append(recs, fmt.Sprintf("Target strain: 10.0-14.0 (current: %.1f/21.0).", strain))
		lowTarget = 10
	default:
		recs = append(recs, fmt.Sprintf("Red recovery (%.0f%%): prioritize rest and recovery.", score))
		recs = append(recs, fmt.Sprintf("Target strain: below 10.0 (current: %.1f/21.0).", strain))
	}

	if lowTarget > 0 && strain < lowTarget/2 {
		recs = append(recs, "Strain is well below today's target; there is room to add a workout.")
	}
	return recs
}

// eveningRecommendations favor wind-down: sleep preparation, a high-strain
// caution, and a bedtime target sized from how last night actually went.
func (b *Builder) eveningRecommendations(s *DailySummary) []string {
	recs := []string{
		"Focus on recovery and sleep preparation.",
		"Consider a wind-down routine to optimize tomorrow's recovery.",
	}

	if s.Strain != nil && *s.Strain > 14 {
		recs = append(recs, fmt.Sprintf("Strain was high today (%.1f/21.0); prioritize quality sleep for recovery.", *s.Strain))
	}

	if target, ok := bedtimeTarget(s.PrevSleep); ok {
		recs = append(recs, target)
	}
	return recs
}

// bedtimeTarget sizes tonight's in-bed window from last night's sleep: the
// shortfall against computed need, inflated by observed efficiency, becomes
// extra time in bed.
func bedtimeTarget(prev *whoop.Sleep) (string, bool) {
	if prev == nil || prev.Score == nil {
		return "", false
	}
	score := prev.Score

	asleep := time.Duration(score.StageSummary.AsleepMilli()) * time.Millisecond
	need := time.Duration(score.SleepNeeded.TotalNeedMilli()) * time.Millisecond
	if asleep <= 0 || need <= 0 {
		return "", false
	}

	inBed := need
	if eff := score.SleepEfficiencyPercentage; eff != nil && *eff > 0 {
		inBed = time.Duration(float64(need) / (*eff / 100))
	}

	if asleep < need {
		deficit := need - asleep
		return fmt.Sprintf("You slept %s short of your need last night; plan about %s in bed tonight.",
			formatDuration(deficit), formatDuration(inBed)), true
	}
	return fmt.Sprintf("Last night covered your sleep need; about %s in bed keeps you on track.",
		formatDuration(inBed)), true
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}
