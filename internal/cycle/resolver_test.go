package cycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whoop-coach-mcp/internal/whoop"
)

type fakeLister struct {
	cycles []whoop.Cycle
	last   whoop.Query
	err    error
}

func (f *fakeLister) Cycles(ctx context.Context, q whoop.Query) ([]whoop.Cycle, error) {
	f.last = q
	if f.err != nil {
		return nil, f.err
	}
	out := f.cycles
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func ptrTime(t time.Time) *time.Time { return &t }

func closedCycle(id int64, start, end time.Time) whoop.Cycle {
	return whoop.Cycle{ID: id, Start: start, End: ptrTime(end)}
}

func TestParseDateInput(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	r := NewResolver(&fakeLister{}, loc, nil)
	r.now = func() time.Time { return time.Date(2025, 6, 2, 15, 0, 0, 0, loc) }

	tests := []struct {
		input       string
		wantCurrent bool
		wantDate    time.Time
		wantErr     error
	}{
		{input: "", wantCurrent: true},
		{input: "today", wantCurrent: true},
		{input: "yesterday", wantDate: time.Date(2025, 6, 1, 0, 0, 0, 0, loc)},
		{input: "2025-05-20", wantDate: time.Date(2025, 5, 20, 0, 0, 0, 0, loc)},
		{input: "05/20/2025", wantErr: ErrInvalidDate},
		{input: "2025-13-40", wantErr: ErrInvalidDate},
		{input: "tomorrow", wantErr: ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			target, err := r.ParseDateInput(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCurrent, target.Current)
			if !tt.wantCurrent {
				assert.True(t, tt.wantDate.Equal(target.Date), "got %v want %v", target.Date, tt.wantDate)
			}
		})
	}
}

func TestResolveCurrentUsesMostRecentCycle(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	open := whoop.Cycle{ID: 7, Start: time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC)}
	lister := &fakeLister{cycles: []whoop.Cycle{open}}
	r := NewResolver(lister, loc, nil)

	got, err := r.Resolve(context.Background(), Target{Current: true})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, 1, lister.last.Limit)
	assert.True(t, lister.last.Start.IsZero(), "current resolution must not filter by window")
	assert.True(t, lister.last.End.IsZero())
}

func TestResolveCurrentNoData(t *testing.T) {
	r := NewResolver(&fakeLister{}, time.UTC, nil)

	_, err := r.Resolve(context.Background(), Target{Current: true})
	var noCycle *NoCycleError
	assert.ErrorAs(t, err, &noCycle)
}

// A cycle that ends before noon belongs to the previous day; one that runs
// past noon belongs to the day it ended on.
func TestResolveDateNoonBoundary(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	// Cycle A: June 1 waking day, closed at 06:10 on June 2.
	a := closedCycle(1,
		time.Date(2025, 5, 31, 22, 15, 0, 0, loc),
		time.Date(2025, 6, 2, 6, 10, 0, 0, loc))
	// Cycle B: June 2 waking day, closed at 23:05 on June 2.
	b := closedCycle(2,
		time.Date(2025, 6, 2, 6, 10, 0, 0, loc),
		time.Date(2025, 6, 2, 23, 5, 0, 0, loc))
	r := NewResolver(&fakeLister{cycles: []whoop.Cycle{b, a}}, loc, nil)

	june1, err := r.ParseDateInput("2025-06-01")
	require.NoError(t, err)
	got, err := r.Resolve(context.Background(), june1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID, "cycle ending before next-day noon belongs to June 1")

	june2, err := r.ParseDateInput("2025-06-02")
	require.NoError(t, err)
	got, err = r.Resolve(context.Background(), june2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)
}

func TestResolveDateSkipsCyclesPastCutoff(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	// Closed at 13:00 on June 2: past the noon cutoff, belongs to June 2.
	late := closedCycle(3,
		time.Date(2025, 6, 1, 23, 0, 0, 0, loc),
		time.Date(2025, 6, 2, 13, 0, 0, 0, loc))
	early := closedCycle(2,
		time.Date(2025, 5, 31, 23, 0, 0, 0, loc),
		time.Date(2025, 6, 1, 23, 0, 0, 0, loc))
	r := NewResolver(&fakeLister{cycles: []whoop.Cycle{late, early}}, loc, nil)

	target, err := r.ParseDateInput("2025-06-01")
	require.NoError(t, err)
	got, err := r.Resolve(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)
}

// A cycle that closed before the requested date even began is a data gap,
// not a match.
func TestResolveDateDataGap(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	stale := closedCycle(4,
		time.Date(2025, 5, 27, 23, 0, 0, 0, loc),
		time.Date(2025, 5, 28, 7, 0, 0, 0, loc))
	r := NewResolver(&fakeLister{cycles: []whoop.Cycle{stale}}, loc, nil)

	target, err := r.ParseDateInput("2025-06-01")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), target)
	var noCycle *NoCycleError
	require.ErrorAs(t, err, &noCycle)
	assert.Equal(t, "2025-06-01", noCycle.Date.Format("2006-01-02"))
}

func TestResolveDateOpenCycleCountsAsNow(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	open := whoop.Cycle{ID: 5, Start: time.Date(2025, 6, 1, 4, 0, 0, 0, loc)}
	r := NewResolver(&fakeLister{cycles: []whoop.Cycle{open}}, loc, nil)
	r.now = func() time.Time { return time.Date(2025, 6, 1, 18, 0, 0, 0, loc) }

	target, err := r.ParseDateInput("2025-06-01")
	require.NoError(t, err)
	got, err := r.Resolve(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ID)
}

func TestResolvePropagatesClientErrors(t *testing.T) {
	wantErr := errors.New("backend down")
	r := NewResolver(&fakeLister{err: wantErr}, time.UTC, nil)

	_, err := r.Resolve(context.Background(), Target{Current: true})
	assert.ErrorIs(t, err, wantErr)
}

func TestWindowCapsOpenCycleAtNow(t *testing.T) {
	r := NewResolver(&fakeLister{}, time.UTC, nil)
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	open := whoop.Cycle{Start: now.Add(-10 * time.Hour)}
	start, end := r.Window(open)
	assert.Equal(t, open.Start, start)
	assert.Equal(t, now, end)

	closed := closedCycle(1, now.Add(-30*time.Hour), now.Add(-8*time.Hour))
	_, end = r.Window(closed)
	assert.Equal(t, *closed.End, end)
}
