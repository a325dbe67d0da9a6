// Package cycle maps user-facing date input onto WHOOP physiological cycles.
//
// A cycle runs sleep to sleep, not midnight to midnight, so "June 1st" means
// the cycle that wrapped the user's June 1st waking day. The resolution rule
// is purely structural: the latest cycle that ended by noon of the following
// day belongs to the requested date. Time-of-day heuristics are never used.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"whoop-coach-mcp/internal/whoop"
)

// ErrInvalidDate means the input was not YYYY-MM-DD, "today", or "yesterday".
var ErrInvalidDate = errors.New("invalid date: use YYYY-MM-DD, today, or yesterday")

// NoCycleError means no cycle covers the requested date, usually because the
// band was off or data has not synced.
type NoCycleError struct {
	Date time.Time
}

func (e *NoCycleError) Error() string {
	return fmt.Sprintf("no cycle found for %s", e.Date.Format("2006-01-02"))
}

var dateInputPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Lister is the slice of the provider client the resolver needs.
type Lister interface {
	Cycles(ctx context.Context, q whoop.Query) ([]whoop.Cycle, error)
}

// Resolver turns dates into cycles.
type Resolver struct {
	cycles Lister
	loc    *time.Location
	log    *zap.Logger
	now    func() time.Time
}

// NewResolver builds a resolver using the given local timezone for date
// boundary arithmetic.
func NewResolver(cycles Lister, loc *time.Location, log *zap.Logger) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{cycles: cycles, loc: loc, log: log, now: time.Now}
}

// Target is a parsed date input. Current is true when the caller wants
// whatever cycle is active right now.
type Target struct {
	Current bool
	Date    time.Time // midnight in the resolver's timezone, when !Current
}

// ParseDateInput accepts "", "today", "yesterday", or YYYY-MM-DD. Empty and
// "today" both mean the currently active cycle.
func (r *Resolver) ParseDateInput(input string) (Target, error) {
	switch input {
	case "", "today":
		return Target{Current: true}, nil
	case "yesterday":
		y := r.now().In(r.loc).AddDate(0, 0, -1)
		return Target{Date: midnight(y)}, nil
	}
	if !dateInputPattern.MatchString(input) {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
	}
	d, err := time.ParseInLocation("2006-01-02", input, r.loc)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
	}
	return Target{Date: d}, nil
}

// Resolve finds the cycle for the target. For Current it asks for the single
// most recent cycle with no window filter, so the answer is whatever cycle is
// active now, open or just closed.
func (r *Resolver) Resolve(ctx context.Context, target Target) (whoop.Cycle, error) {
	if target.Current {
		return r.resolveCurrent(ctx)
	}
	return r.resolveDate(ctx, target.Date)
}

func (r *Resolver) resolveCurrent(ctx context.Context) (whoop.Cycle, error) {
	cycles, err := r.cycles.Cycles(ctx, whoop.Query{Limit: 1})
	if err != nil {
		return whoop.Cycle{}, err
	}
	if len(cycles) == 0 {
		return whoop.Cycle{}, &NoCycleError{Date: midnight(r.now().In(r.loc))}
	}
	return cycles[0], nil
}

// resolveDate picks the latest cycle that ended by noon of the day after the
// target date. A cycle ending in that half-day belongs to the previous waking
// day; anything later belongs to the next one.
func (r *Resolver) resolveDate(ctx context.Context, date time.Time) (whoop.Cycle, error) {
	dayStart := date
	cutoff := date.AddDate(0, 0, 1).Add(12 * time.Hour)

	cycles, err := r.cycles.Cycles(ctx, whoop.Query{
		Start: dayStart.Add(-36 * time.Hour),
		End:   cutoff,
		Limit: 10,
	})
	if err != nil {
		return whoop.Cycle{}, err
	}

	now := r.now()
	for _, c := range cycles {
		end := now
		if c.End != nil {
			end = *c.End
		}
		if end.After(cutoff) {
			continue
		}
		// Guard against data gaps: a cycle that closed before the target
		// date even began is stale, not a match.
		if !end.After(dayStart) {
			break
		}
		return c, nil
	}

	r.log.Debug("no cycle matched date", zap.Time("date", date), zap.Int("candidates", len(cycles)))
	return whoop.Cycle{}, &NoCycleError{Date: date}
}

// Window is the time span a cycle covers, with open cycles capped at now.
func (r *Resolver) Window(c whoop.Cycle) (start, end time.Time) {
	start = c.Start
	end = r.now()
	if c.End != nil {
		end = *c.End
	}
	return start, end
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
