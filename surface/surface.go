package surface

import (
	"math"
	"sync/atomic"
	"time"
)

// Rect is the bounding rectangle of the rendered frame in viewport
// coordinates, as reported by the display at the time of an interaction.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Origin returns the rectangle's top-left corner rounded to whole units.
func (r Rect) Origin() (x, y int) {
	return Round(r.Left), Round(r.Top)
}

// Relative translates viewport coordinates into whole-unit coordinates
// relative to the rectangle.
func (r Rect) Relative(clientX, clientY float64) (x, y int) {
	return Round(clientX - r.Left), Round(clientY - r.Top)
}

// Round rounds half-way values toward positive infinity, so -0.5 becomes 0
// and 0.5 becomes 1.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Surface holds the currently displayed frame. Each Publish replaces the
// previous frame.
type Surface struct {
	seq    atomic.Uint64
	latest atomic.Pointer[Frame]
}

// New returns an empty Surface.
func New() *Surface {
	return &Surface{}
}

// Publish makes payload the displayed frame and returns it.
func (s *Surface) Publish(payload string) Frame {
	f := Frame{
		Seq:      s.seq.Add(1),
		Payload:  payload,
		Received: time.Now(),
	}
	s.latest.Store(&f)
	return f
}

// Latest returns the displayed frame, if any has been published.
func (s *Surface) Latest() (Frame, bool) {
	f := s.latest.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}
