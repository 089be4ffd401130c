package poller

import (
	"context"
	"time"

	"storj.io/common/time2"
)

// Refresher blocks until the next opportunity to paint a new frame. It
// returns false if ctx is done first.
type Refresher interface {
	WaitRefresh(ctx context.Context) bool
}

// Vsync is a Refresher that fires on a fixed grid of display refreshes.
type Vsync struct {
	period time.Duration
	epoch  time.Time
}

// NewVsync returns a Vsync with the given refresh period, anchored at the
// current time. A non-positive period never waits.
func NewVsync(period time.Duration) *Vsync {
	return &Vsync{period: period, epoch: time.Now()}
}

// WaitRefresh implements Refresher.
func (v *Vsync) WaitRefresh(ctx context.Context) bool {
	if v.period <= 0 {
		return ctx.Err() == nil
	}
	return time2.Sleep(ctx, v.untilNext(time.Now()))
}

// untilNext returns how long after now the next refresh on the grid is. A
// now exactly on the grid waits a full period.
func (v *Vsync) untilNext(now time.Time) time.Duration {
	return v.period - now.Sub(v.epoch)%v.period
}

// Immediate is a Refresher that never waits.
type Immediate struct{}

// WaitRefresh implements Refresher.
func (Immediate) WaitRefresh(ctx context.Context) bool {
	return ctx.Err() == nil
}
