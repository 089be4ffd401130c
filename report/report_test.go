package report

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTally(t *testing.T) {
	var tally Tally
	assert.Equal(t, Counts{}, tally.Get(OpPoll))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				err = errors.New("boom")
			}
			tally.Report(Outcome{Op: OpPoll, Err: err})
		}(i)
	}
	wg.Wait()
	tally.Report(Outcome{Op: OpKey})

	assert.Equal(t, Counts{Succeeded: 5, Failed: 5}, tally.Get(OpPoll))
	assert.Equal(t, Counts{Succeeded: 1}, tally.Get(OpKey))
	assert.Equal(t, Counts{}, tally.Get(OpMove))
}

func TestChanDropsWhenFull(t *testing.T) {
	ch := make(Chan, 1)
	ch.Report(Outcome{Op: OpMove})
	ch.Report(Outcome{Op: OpClick})

	assert.Equal(t, OpMove, (<-ch).Op)
	assert.Len(t, ch, 0)
}

func TestMulti(t *testing.T) {
	var a, b Tally
	Multi{&a, &b, Discard}.Report(Outcome{Op: OpClick})
	assert.Equal(t, 1, a.Get(OpClick).Succeeded)
	assert.Equal(t, 1, b.Get(OpClick).Succeeded)
}
