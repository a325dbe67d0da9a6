package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whoop-coach-mcp/internal/whoop"
)

type fakeFetcher struct {
	sleeps     []whoop.Sleep
	recoveries []whoop.Recovery
	workouts   []whoop.Workout

	sleepErr    error
	recoveryErr error
	workoutErr  error
}

func (f *fakeFetcher) Sleeps(ctx context.Context, q whoop.Query) ([]whoop.Sleep, error) {
	return f.sleeps, f.sleepErr
}

func (f *fakeFetcher) Recoveries(ctx context.Context, q whoop.Query) ([]whoop.Recovery, error) {
	return f.recoveries, f.recoveryErr
}

func (f *fakeFetcher) Workouts(ctx context.Context, q whoop.Query) ([]whoop.Workout, error) {
	return f.workouts, f.workoutErr
}

func f64(v float64) *float64 { return &v }

func ptrTime(t time.Time) *time.Time { return &t }

func testCycle() whoop.Cycle {
	return whoop.Cycle{
		ID:    100,
		Start: time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC),
		End:   ptrTime(time.Date(2024, 1, 16, 6, 30, 0, 0, time.UTC)),
		Score: &whoop.CycleScore{Strain: 12.5},
	}
}

func workoutAt(id string, start time.Time, d time.Duration, strain float64) whoop.Workout {
	return whoop.Workout{
		ID:    id,
		Start: start,
		End:   start.Add(d),
		Score: &whoop.WorkoutScore{Strain: strain, Kilojoule: 2092, DistanceMeter: f64(1609.34)},
	}
}

func newTestBuilder(f *fakeFetcher) *Builder {
	return NewBuilder(f, time.UTC, nil)
}

// In-window workout at 20:00 counts; the 08:00 one the next day, outside the
// cycle window, does not.
func TestBuildWorkoutAttributionWindow(t *testing.T) {
	cycle := testCycle()
	in := workoutAt("in", time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC), time.Hour, 9)
	out := workoutAt("out", time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC), time.Hour, 7)
	b := newTestBuilder(&fakeFetcher{workouts: []whoop.Workout{out, in}})

	s, err := b.Build(context.Background(), cycle)
	require.NoError(t, err)
	require.Len(t, s.Workouts, 1)
	assert.Equal(t, "in", s.Workouts[0].ID)
	assert.Equal(t, 1, s.Totals.Count)
	assert.InDelta(t, 500, s.Totals.TotalCalories, 0.1)
	assert.InDelta(t, 1.0, s.Totals.TotalMiles, 0.001)
	assert.Equal(t, 9.0, s.Totals.MaxStrain)
}

// A workout spanning the boundary between two cycles is attributed to at
// most one of them, never both.
func TestBuildWorkoutSpanningBoundaryNotDoubleCounted(t *testing.T) {
	cycle := testCycle()
	spanning := workoutAt("span", time.Date(2024, 1, 16, 6, 0, 0, 0, time.UTC), time.Hour, 5)
	b := newTestBuilder(&fakeFetcher{workouts: []whoop.Workout{spanning}})

	s, err := b.Build(context.Background(), cycle)
	require.NoError(t, err)

	next := whoop.Cycle{ID: 101, Start: *cycle.End}
	s2, err := b.Build(context.Background(), next)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(s.Workouts)+len(s2.Workouts), 1,
		"a boundary-spanning workout must not appear in both adjacent summaries")
}

func TestBuildPicksCycleSleepAndPreviousSleep(t *testing.T) {
	cycle := testCycle()
	own := whoop.Sleep{
		ID:    "own",
		Start: time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 15, 7, 10, 0, 0, time.UTC),
	}
	prev := whoop.Sleep{
		ID:    "prev",
		Start: time.Date(2024, 1, 13, 23, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 14, 6, 45, 0, 0, time.UTC),
	}
	nap := whoop.Sleep{
		ID:    "nap",
		Nap:   true,
		Start: time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC),
	}
	b := newTestBuilder(&fakeFetcher{sleeps: []whoop.Sleep{nap, own, prev}})

	s, err := b.Build(context.Background(), cycle)
	require.NoError(t, err)
	require.NotNil(t, s.Sleep)
	assert.Equal(t, "own", s.Sleep.ID)
	require.NotNil(t, s.PrevSleep)
	assert.Equal(t, "prev", s.PrevSleep.ID)
}

func TestBuildMatchesRecoveryByCycleID(t *testing.T) {
	cycle := testCycle()
	b := newTestBuilder(&fakeFetcher{recoveries: []whoop.Recovery{
		{CycleID: 99, Score: &whoop.RecoveryScore{RecoveryScore: 30}},
		{CycleID: 100, Score: &whoop.RecoveryScore{RecoveryScore: 75}},
	}})

	s, err := b.Build(context.Background(), cycle)
	require.NoError(t, err)
	require.NotNil(t, s.Recovery)
	assert.Equal(t, int64(100), s.Recovery.CycleID)
}

// One failing fetch degrades its own section; the others still populate.
func TestBuildSectionDegradation(t *testing.T) {
	cycle := testCycle()
	b := newTestBuilder(&fakeFetcher{
		sleepErr: errors.New("sleep endpoint down"),
		recoveries: []whoop.Recovery{
			{CycleID: 100, Score: &whoop.RecoveryScore{RecoveryScore: 60}},
		},
		workouts: []whoop.Workout{
			workoutAt("w", time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC), time.Hour, 6),
		},
	})

	s, err := b.Build(context.Background(), cycle)
	require.NoError(t, err)
	assert.Nil(t, s.Sleep)
	assert.Contains(t, s.SectionErrors, "sleep")
	require.NotNil(t, s.Recovery)
	require.Len(t, s.Workouts, 1)
}

func TestBuildMissingDataIsNotAnError(t *testing.T) {
	s, err := newTestBuilder(&fakeFetcher{}).Build(context.Background(), testCycle())
	require.NoError(t, err)
	assert.Nil(t, s.Sleep)
	assert.Nil(t, s.Recovery)
	assert.Empty(t, s.Workouts)
	assert.Empty(t, s.SectionErrors)
	require.NotNil(t, s.Strain)
	assert.Equal(t, 12.5, *s.Strain)
}

func TestRecommendationsHistoricalCycle(t *testing.T) {
	s, err := newTestBuilder(&fakeFetcher{}).Build(context.Background(), testCycle())
	require.NoError(t, err)
	require.Len(t, s.Recommendations, 1)
	assert.Contains(t, s.Recommendations[0], "completed physiological cycle")
}

func openCycleAt(strain float64) whoop.Cycle {
	return whoop.Cycle{
		ID:    200,
		Start: time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC),
		Score: &whoop.CycleScore{Strain: strain},
	}
}

func TestRecommendationsDaytimeByRecoveryBand(t *testing.T) {
	tests := []struct {
		name     string
		recovery float64
		want     string
	}{
		{"green band", 80, "high-intensity"},
		{"yellow band", 50, "moderate training"},
		{"red band", 20, "prioritize rest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder(&fakeFetcher{recoveries: []whoop.Recovery{
				{CycleID: 200, Score: &whoop.RecoveryScore{RecoveryScore: tt.recovery}},
			}})
			b.now = func() time.Time {
				return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
			}

			s, err := b.Build(context.Background(), openCycleAt(3))
			require.NoError(t, err)
			joined := strings.Join(s.Recommendations, " ")
			assert.Contains(t, joined, tt.want)
		})
	}
}

func TestRecommendationsSuggestActivityWhenStrainLow(t *testing.T) {
	b := newTestBuilder(&fakeFetcher{recoveries: []whoop.Recovery{
		{CycleID: 200, Score: &whoop.RecoveryScore{RecoveryScore: 80}},
	}})
	b.now = func() time.Time { return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) }

	s, err := b.Build(context.Background(), openCycleAt(4))
	require.NoError(t, err)
	joined := strings.Join(s.Recommendations, " ")
	assert.Contains(t, joined, "room to add a workout")
}

func TestRecommendationsEveningWindDown(t *testing.T) {
	eff := 92.0
	prev := whoop.Sleep{
		ID:    "prev",
		Start: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 15, 6, 30, 0, 0, time.UTC),
		Score: &whoop.SleepScore{
			StageSummary: whoop.StageSummary{
				TotalLightSleepTimeMilli:    4 * 3600 * 1000,
				TotalSlowWaveSleepTimeMilli: 3600 * 1000,
				TotalRemSleepTimeMilli:      3600 * 1000,
			},
			SleepNeeded:               whoop.SleepNeeded{BaselineMilli: 8 * 3600 * 1000},
			SleepEfficiencyPercentage: &eff,
		},
	}
	b := newTestBuilder(&fakeFetcher{sleeps: []whoop.Sleep{prev}})
	b.now = func() time.Time { return time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC) }

	cycle := openCycleAt(16)
	s, err := b.Build(context.Background(), cycle)
	require.NoError(t, err)
	joined := strings.Join(s.Recommendations, " ")
	assert.Contains(t, joined, "wind-down")
	assert.Contains(t, joined, "Strain was high today")
	assert.Contains(t, joined, "short of your need last night")
}
