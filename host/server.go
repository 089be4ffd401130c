// Package host serves the local screen and accepts pointer and keyboard
// input from remote clients.
package host

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dsnet/try"
	"github.com/spacemonkeygo/monkit/v3"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/webhelp.v1/wherr"
	"gopkg.in/webhelp.v1/whfatal"
	"gopkg.in/webhelp.v1/whmux"
	"storj.io/common/time2"

	"github.com/jtolio/remotectl/remote"
	"github.com/jtolio/remotectl/utils"
)

var mon = monkit.Package()

type Config struct {
	FrameInterval   time.Duration `default:"33ms" help:"the interval between screen captures"`
	ErrorBackoff    time.Duration `default:"100ms" help:"how long to wait after a failed capture"`
	MoveInterval    time.Duration `default:"16ms" help:"how often the latest queued pointer move is applied"`
	ArchiveInterval time.Duration `default:"10s" help:"minimum interval between archived frames"`
}

type ScreenshotSource interface {
	Screenshot(context.Context) (*utils.SerializedImage, error)
}

type ScreenshotDest interface {
	Store(context.Context, time.Time, *utils.SerializedImage) error
}

type Actuator interface {
	Move(ctx context.Context, x, y int) error
	Click(ctx context.Context, x, y int, button string) error
	Press(ctx context.Context, key string) error
}

type capture struct {
	ts      time.Time
	img     *utils.SerializedImage
	encoded string
}

type point struct{ x, y int }

type Server struct {
	cfg      Config
	source   ScreenshotSource
	dest     ScreenshotDest
	actuator Actuator
	paused   atomic.Bool
	latest   atomic.Pointer[capture]
	move     atomic.Pointer[point]

	http.Handler
}

// New returns a host Server. dest may be nil to disable archiving.
func New(cfg Config, source ScreenshotSource, dest ScreenshotDest, actuator Actuator) *Server {
	s := &Server{
		cfg:      cfg,
		source:   source,
		dest:     dest,
		actuator: actuator,
	}
	s.Handler = whmux.Dir{
		"screen":      whmux.Exact(http.HandlerFunc(s.pageScreen)),
		"mouse":       whmux.ExactPath(whmux.Method{"POST": http.HandlerFunc(s.actionMouse)}),
		"keyboard":    whmux.ExactPath(whmux.Method{"POST": http.HandlerFunc(s.actionKeyboard)}),
		"pause":       whmux.ExactPath(whmux.Method{"POST": http.HandlerFunc(s.actionPause)}),
		"resume":      whmux.ExactPath(whmux.Method{"POST": http.HandlerFunc(s.actionResume)}),
		"favicon.ico": whmux.Exact(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})),
	}
	return s
}

// Run captures the screen and applies queued pointer moves until ctx is
// canceled.
func (s *Server) Run(ctx context.Context) error {
	var group errgroup.Group
	group.Go(func() error { return s.runCapture(ctx) })
	group.Go(func() error { return s.runMoves(ctx) })
	if s.dest != nil {
		group.Go(func() error { return s.runArchive(ctx) })
	}
	return group.Wait()
}

func (s *Server) runCapture(ctx context.Context) error {
	var wait time.Duration
	for time2.Sleep(ctx, wait) {
		wait = s.cfg.FrameInterval
		if s.paused.Load() {
			continue
		}
		if err := s.Capture(ctx); err != nil {
			slog.Error("failed to capture screenshot", err)
			wait = s.cfg.ErrorBackoff
		}
	}
	return ctx.Err()
}

// Capture takes one screenshot and makes it the latest frame.
func (s *Server) Capture(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	ts := time.Now()
	img, err := s.source.Screenshot(ctx)
	if err != nil {
		return err
	}
	s.latest.Store(&capture{ts: ts, img: img, encoded: img.Base64()})
	return nil
}

func (s *Server) runMoves(ctx context.Context) error {
	for time2.Sleep(ctx, s.cfg.MoveInterval) {
		s.applyMove(ctx)
	}
	return ctx.Err()
}

// applyMove moves the pointer to the most recently queued position, if any.
// Positions queued in between are skipped.
func (s *Server) applyMove(ctx context.Context) {
	p := s.move.Swap(nil)
	if p == nil {
		return
	}
	if err := s.actuator.Move(ctx, p.x, p.y); err != nil {
		slog.Error("failed to move pointer", err)
	}
}

func (s *Server) runArchive(ctx context.Context) error {
	var last *capture
	for time2.Sleep(ctx, s.cfg.ArchiveInterval) {
		c := s.latest.Load()
		if c == nil || c == last {
			continue
		}
		last = c
		if err := s.dest.Store(ctx, c.ts, c.img); err != nil {
			slog.Error("failed to archive screenshot", err)
		}
	}
	return ctx.Err()
}

func (s *Server) pageScreen(w http.ResponseWriter, r *http.Request) {
	c := s.latest.Load()
	if c == nil {
		http.Error(w, "No frame available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	try.E(json.NewEncoder(w).Encode(remote.ScreenResponse{Image: c.encoded}))
}

func (s *Server) actionMouse(w http.ResponseWriter, r *http.Request) {
	var req remote.MouseRequest
	decodeJSON(r, &req)
	switch req.Action {
	case remote.ActionMove:
		s.move.Store(&point{x: req.X, y: req.Y})
	case remote.ActionClick:
		button := req.Button
		if button == "" {
			button = "left"
		}
		if err := s.actuator.Click(r.Context(), req.X, req.Y, button); err != nil {
			whfatal.Error(wherr.InternalServerError.New("click failed: %v", err))
		}
	default:
		whfatal.Error(wherr.BadRequest.New("unknown action %q", req.Action))
	}
	ok(w)
}

func (s *Server) actionKeyboard(w http.ResponseWriter, r *http.Request) {
	var req remote.KeyboardRequest
	decodeJSON(r, &req)
	if req.Key != "" {
		if err := s.actuator.Press(r.Context(), req.Key); err != nil {
			whfatal.Error(wherr.InternalServerError.New("key press failed: %v", err))
		}
	}
	ok(w)
}

func (s *Server) actionPause(w http.ResponseWriter, r *http.Request) {
	s.paused.Store(true)
	ok(w)
}

func (s *Server) actionResume(w http.ResponseWriter, r *http.Request) {
	s.paused.Store(false)
	ok(w)
}

func decodeJSON(r *http.Request, v interface{}) {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v); err != nil {
		whfatal.Error(wherr.BadRequest.New("invalid request body: %v", err))
	}
}

func ok(w http.ResponseWriter) {
	try.E1(w.Write([]byte("OK")))
}
