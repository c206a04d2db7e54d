package store

import (
	"strconv"
	"sync"
	"time"
)

// idSource hands out post ids from a high resolution clock. Ids are strictly
// increasing within a process even when the clock stalls or steps back.
type idSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newIDSource(now func() time.Time) *idSource {
	return &idSource{now: now}
}

func (g *idSource) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.now().UnixNano()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return strconv.FormatInt(n, 10)
}
