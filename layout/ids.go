package layout

import (
	"sync"
	"time"
)

// IDAllocator mints temporary ids for areas and seats created before the
// server has seen them. Values are wall-clock milliseconds, bumped when the
// clock has not advanced so two calls never collide.
type IDAllocator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{now: time.Now}
}

func (a *IDAllocator) Next() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now
	if a.now != nil {
		now = a.now
	}
	id := now().UnixMilli()
	if id <= a.last {
		id = a.last + 1
	}
	a.last = id
	return id
}
