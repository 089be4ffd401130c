// Package poller keeps the display surface supplied with the remote host's
// latest screen frame.
package poller

import (
	"context"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"golang.org/x/exp/slog"
	"storj.io/common/time2"

	"github.com/jtolio/remotectl/report"
	"github.com/jtolio/remotectl/surface"
)

var mon = monkit.Package()

type Config struct {
	Interval      time.Duration `default:"33ms" help:"minimum delay between the end of one frame request and the next"`
	RefreshPeriod time.Duration `default:"16.667ms" help:"display refresh period to align frame requests to. 0 disables"`
}

// ScreenSource fetches the latest encoded frame from the remote host.
type ScreenSource interface {
	Screen(context.Context) (string, error)
}

// Display receives frames as they arrive.
type Display interface {
	Publish(payload string) surface.Frame
}

type Poller struct {
	cfg      Config
	source   ScreenSource
	display  Display
	refresh  Refresher
	reporter report.Reporter
}

// New returns a Poller. A nil refresh uses a Vsync at cfg.RefreshPeriod and
// a nil reporter discards outcomes.
func New(cfg Config, source ScreenSource, display Display, refresh Refresher, reporter report.Reporter) *Poller {
	if refresh == nil {
		refresh = NewVsync(cfg.RefreshPeriod)
	}
	if reporter == nil {
		reporter = report.Discard
	}
	return &Poller{
		cfg:      cfg,
		source:   source,
		display:  display,
		refresh:  refresh,
		reporter: reporter,
	}
}

// Run polls until ctx is canceled. After every attempt, successful or not,
// it waits at least the configured interval and then for the next refresh
// before firing again. Canceling ctx abandons the pending attempt; a request
// already in flight completes but its frame is not published.
func (p *Poller) Run(ctx context.Context) error {
	for {
		_ = p.Poll(ctx)
		if !time2.Sleep(ctx, p.cfg.Interval) {
			break
		}
		if !p.refresh.WaitRefresh(ctx) {
			break
		}
	}
	return ctx.Err()
}

// Poll performs a single frame request and publishes the result. The
// request runs detached from ctx: if ctx is canceled first, Poll returns
// immediately and the request is left to finish unpublished.
func (p *Poller) Poll(ctx context.Context) error {
	type result struct {
		image string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		image, err := p.source.Screen(context.WithoutCancel(ctx))
		p.reporter.Report(report.Outcome{Op: report.OpPoll, Err: err, At: time.Now()})
		if err != nil {
			mon.Counter("poll_failures").Inc(1)
			slog.Error("failed to fetch screen", err)
		}
		done <- result{image: image, err: err}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-done:
		if r.err != nil {
			return r.err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		f := p.display.Publish(r.image)
		slog.Debug("frame published", "seq", f.Seq, "bytes", len(r.image))
		return nil
	}
}
