// Package report carries the outcome of every request the client sends to
// the remote host, so callers can observe failures without scraping logs.
package report

import (
	"sync"
	"time"
)

// Op names the kind of request an Outcome describes.
type Op string

const (
	OpPoll  Op = "poll"
	OpMove  Op = "move"
	OpClick Op = "click"
	OpKey   Op = "key"
)

// Outcome is the result of a single request. Err is nil on success.
type Outcome struct {
	Op  Op
	Err error
	At  time.Time
}

// Reporter receives outcomes. Implementations must be safe for concurrent
// use.
type Reporter interface {
	Report(Outcome)
}

// Discard drops every outcome.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Outcome) {}

// Chan sends outcomes on a channel without blocking. Outcomes are dropped
// when the channel is full.
type Chan chan Outcome

// Report implements Reporter.
func (c Chan) Report(o Outcome) {
	select {
	case c <- o:
	default:
	}
}

// Multi fans an outcome out to several reporters.
type Multi []Reporter

// Report implements Reporter.
func (m Multi) Report(o Outcome) {
	for _, r := range m {
		r.Report(o)
	}
}

// Counts is a success/failure pair.
type Counts struct {
	Succeeded int
	Failed    int
}

// Tally counts outcomes per Op.
type Tally struct {
	mu     sync.Mutex
	counts map[Op]Counts
}

// Report implements Reporter.
func (t *Tally) Report(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts == nil {
		t.counts = make(map[Op]Counts)
	}
	c := t.counts[o.Op]
	if o.Err != nil {
		c.Failed++
	} else {
		c.Succeeded++
	}
	t.counts[o.Op] = c
}

// Get returns the counts for op.
func (t *Tally) Get(op Op) Counts {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[op]
}
