// Package input forwards local pointer and keyboard interactions to the
// remote host.
package input

import (
	"context"
	"sync"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"

	"github.com/jtolio/remotectl/remote"
	"github.com/jtolio/remotectl/report"
	"github.com/jtolio/remotectl/surface"
)

var (
	mon = monkit.Package()

	// Error is the error class for rejected interactions.
	Error = errs.Class("input")
)

type Config struct {
	Throttle time.Duration `default:"16ms" help:"minimum time between forwarded pointer moves"`
}

// Sender delivers actions to the remote host.
type Sender interface {
	Mouse(context.Context, remote.MouseRequest) error
	Keyboard(ctx context.Context, key string) error
}

// Forwarder turns interactions with the display surface into remote
// actions. Every action is sent on its own goroutine; failures are logged
// and reported but never retried.
type Forwarder struct {
	sender   Sender
	reporter report.Reporter
	limiter  *rate.Limiter
	now      func() time.Time

	wg sync.WaitGroup
}

// New returns a Forwarder. A nil reporter discards outcomes.
func New(cfg Config, sender Sender, reporter report.Reporter) *Forwarder {
	if reporter == nil {
		reporter = report.Discard
	}
	return &Forwarder{
		sender:   sender,
		reporter: reporter,
		limiter:  rate.NewLimiter(rate.Every(cfg.Throttle), 1),
		now:      time.Now,
	}
}

// Move forwards a pointer position given in viewport coordinates. The
// position is translated relative to rect. Moves arriving sooner than the
// throttle interval after the last accepted move are dropped; Move reports
// whether this one was accepted.
func (f *Forwarder) Move(ctx context.Context, clientX, clientY float64, rect surface.Rect) bool {
	if !f.limiter.AllowN(f.now(), 1) {
		mon.Counter("moves_dropped").Inc(1)
		return false
	}
	x, y := rect.Relative(clientX, clientY)
	f.dispatch(ctx, report.OpMove, func(ctx context.Context) error {
		return f.sender.Mouse(ctx, remote.MouseRequest{Action: remote.ActionMove, X: x, Y: y})
	})
	return true
}

// Click forwards a button click. The click is placed at the origin of rect,
// not at the pointer position.
func (f *Forwarder) Click(ctx context.Context, button Button, rect surface.Rect) error {
	if !KnownButton(button) {
		return Error.New("unknown button %q", button)
	}
	x, y := rect.Origin()
	f.dispatch(ctx, report.OpClick, func(ctx context.Context) error {
		return f.sender.Mouse(ctx, remote.MouseRequest{
			Action: remote.ActionClick,
			Button: string(button),
			X:      x,
			Y:      y,
		})
	})
	return nil
}

// Key forwards a key press. key must be one of Keys.
func (f *Forwarder) Key(ctx context.Context, key string) error {
	if !KnownKey(key) {
		return Error.New("unknown key %q", key)
	}
	f.dispatch(ctx, report.OpKey, func(ctx context.Context) error {
		return f.sender.Keyboard(ctx, key)
	})
	return nil
}

// Close waits for dispatched actions to finish.
func (f *Forwarder) Close() error {
	f.wg.Wait()
	return nil
}

// dispatch runs send in the background on a context detached from ctx's
// cancellation, so actions outlive the interaction that triggered them.
func (f *Forwarder) dispatch(ctx context.Context, op report.Op, send func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		err := send(ctx)
		f.reporter.Report(report.Outcome{Op: op, Err: err, At: time.Now()})
		if err != nil {
			mon.Counter("forward_failures").Inc(1)
			slog.Error("failed to forward input", err, "op", string(op))
		}
	}()
}
