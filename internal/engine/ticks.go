package engine

import (
	"sync"
	"time"
)

type intervalTickSource struct {
	interval time.Duration
}

// NewIntervalTickSource ticks every interval using a time.Ticker. Ticks the
// receiver is too slow to take are dropped, never queued.
func NewIntervalTickSource(interval time.Duration) TickSource {
	if interval <= 0 {
		interval = time.Second
	}
	return intervalTickSource{interval: interval}
}

func (s intervalTickSource) Start(gen uint64, out chan<- uint64) func() {
	ticker := time.NewTicker(s.interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case out <- gen:
				case <-done:
					return
				}
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
