// Package summary assembles the per-cycle daily summary: the cycle's sleep,
// recovery, and workouts joined with time-aware recommendations. All record
// selection is scoped by the cycle's exact timestamps; calendar-day windows
// are never used, so a workout can belong to at most one summary.
package summary

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"whoop-coach-mcp/internal/whoop"
)

// Fetcher is the slice of the provider client the builder needs.
type Fetcher interface {
	Sleeps(ctx context.Context, q whoop.Query) ([]whoop.Sleep, error)
	Recoveries(ctx context.Context, q whoop.Query) ([]whoop.Recovery, error)
	Workouts(ctx context.Context, q whoop.Query) ([]whoop.Workout, error)
}

// WorkoutTotals aggregates the cycle's workouts.
type WorkoutTotals struct {
	Count         int           `json:"count"`
	TotalDuration time.Duration `json:"total_duration"`
	TotalCalories float64       `json:"total_calories"`
	TotalMiles    float64       `json:"total_miles"`
	MaxStrain     float64       `json:"max_strain"`
}

// DailySummary is one cycle's complete picture. Nil sections mean the data
// was missing or its fetch failed; SectionErrors records why.
type DailySummary struct {
	Cycle     whoop.Cycle     `json:"cycle"`
	Sleep     *whoop.Sleep    `json:"sleep,omitempty"`
	PrevSleep *whoop.Sleep    `json:"previous_sleep,omitempty"`
	Recovery  *whoop.Recovery `json:"recovery,omitempty"`
	Workouts  []whoop.Workout `json:"workouts,omitempty"`
	Totals    WorkoutTotals   `json:"workout_totals"`

	// Strain is the cycle's self-reported load, nil when unscored.
	Strain *float64 `json:"strain,omitempty"`

	Recommendations []string `json:"recommendations"`

	// SectionErrors maps a degraded section name to what went wrong.
	SectionErrors map[string]string `json:"section_errors,omitempty"`
}

const kilojoulesPerKcal = 4.184

// Builder builds daily summaries.
type Builder struct {
	fetcher Fetcher
	loc     *time.Location
	log     *zap.Logger
	now     func() time.Time
}

func NewBuilder(fetcher Fetcher, loc *time.Location, log *zap.Logger) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{fetcher: fetcher, loc: loc, log: log, now: time.Now}
}

// Build assembles the summary for a resolved cycle. Sleep, recovery, and
// workouts are fetched concurrently; a failed fetch degrades its own section
// and never aborts the others.
func (b *Builder) Build(ctx context.Context, cycle whoop.Cycle) (*DailySummary, error) {
	start := cycle.Start
	end := b.now()
	if cycle.End != nil {
		end = *cycle.End
	}

	var (
		sleeps     []whoop.Sleep
		recoveries []whoop.Recovery
		workouts   []whoop.Workout

		sleepErr, recoveryErr, workoutErr error
	)

	// Fetch errors are captured per section rather than returned, so the
	// group only propagates context cancellation.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Reach back far enough to also pick up the previous night's sleep.
		sleeps, sleepErr = b.fetcher.Sleeps(gctx, whoop.Query{
			Start: start.Add(-36 * time.Hour),
			End:   end,
		})
		return nil
	})
	g.Go(func() error {
		recoveries, recoveryErr = b.fetcher.Recoveries(gctx, whoop.Query{
			Start: start,
			End:   end,
		})
		return nil
	})
	g.Go(func() error {
		workouts, workoutErr = b.fetcher.Workouts(gctx, whoop.Query{
			Start: start,
			End:   end,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &DailySummary{Cycle: cycle}
	if cycle.Score != nil {
		strain := cycle.Score.Strain
		s.Strain = &strain
	}

	if sleepErr != nil {
		b.degrade(s, "sleep", sleepErr)
	} else {
		s.Sleep, s.PrevSleep = pickSleeps(sleeps, cycle, end)
	}

	if recoveryErr != nil {
		b.degrade(s, "recovery", recoveryErr)
	} else {
		s.Recovery = pickRecovery(recoveries, cycle.ID)
	}

	if workoutErr != nil {
		b.degrade(s, "workouts", workoutErr)
	} else {
		s.Workouts = attributeWorkouts(workouts, cycle, end)
		s.Totals = totals(s.Workouts)
	}

	s.Recommendations = b.recommend(s)
	return s, nil
}

func (b *Builder) degrade(s *DailySummary, section string, err error) {
	b.log.Warn("summary section degraded", zap.String("section", section), zap.Error(err))
	if s.SectionErrors == nil {
		s.SectionErrors = make(map[string]string)
	}
	s.SectionErrors[section] = err.Error()
}

// pickSleeps selects the cycle's own sleep (the one ending inside the cycle
// window) and the previous night's sleep (latest one ending at or before the
// cycle start). Naps are skipped for both. Records arrive most recent first.
func pickSleeps(sleeps []whoop.Sleep, cycle whoop.Cycle, end time.Time) (own, prev *whoop.Sleep) {
	for i := range sleeps {
		sl := &sleeps[i]
		if sl.Nap {
			continue
		}
		switch {
		case own == nil && !sl.End.Before(cycle.Start) && sl.End.Before(end):
			own = sl
		case prev == nil && !sl.End.After(cycle.Start):
			prev = sl
		}
		if own != nil && prev != nil {
			break
		}
	}
	return own, prev
}

func pickRecovery(recoveries []whoop.Recovery, cycleID int64) *whoop.Recovery {
	for i := range recoveries {
		if recoveries[i].CycleID == cycleID {
			return &recoveries[i]
		}
	}
	return nil
}

// attributeWorkouts keeps workouts starting within [cycle.start, cycle.end).
// For a closed cycle the workout must also finish by the cycle end, so a
// session spanning the boundary counts against exactly one summary.
func attributeWorkouts(workouts []whoop.Workout, cycle whoop.Cycle, end time.Time) []whoop.Workout {
	var kept []whoop.Workout
	for _, w := range workouts {
		if w.Start.Before(cycle.Start) || !w.Start.Before(end) {
			continue
		}
		if cycle.End != nil && w.End.After(*cycle.End) {
			continue
		}
		kept = append(kept, w)
	}
	return kept
}

func totals(workouts []whoop.Workout) WorkoutTotals {
	var t WorkoutTotals
	t.Count = len(workouts)
	for _, w := range workouts {
		t.TotalDuration += w.End.Sub(w.Start)
		if w.Score == nil {
			continue
		}
		t.TotalCalories += w.Score.Kilojoule / kilojoulesPerKcal
		if w.Score.DistanceMeter != nil {
			t.TotalMiles += *w.Score.DistanceMeter / 1609.34
		}
		if w.Score.Strain > t.MaxStrain {
			t.MaxStrain = w.Score.Strain
		}
	}
	return t
}
