package ambient

import (
	"context"
	"sync"
	"time"

	"routinetimer/internal/logging"
	"routinetimer/internal/types"
)

const (
	publisherQueueSize = 128
	sinkTimeout        = 5 * time.Second
)

type opKind int

const (
	opStart opKind = iota
	opUpdate
	opEnd
)

func (k opKind) String() string {
	switch k {
	case opStart:
		return "start"
	case opUpdate:
		return "update"
	default:
		return "end"
	}
}

type op struct {
	kind     opKind
	gen      uint64
	snapshot types.AmbientSnapshot
}

// Publisher keeps at most one live ambient surface. Calls never block the
// caller; a single worker applies them to every sink in order. Each surface
// has a generation, and work queued for a superseded surface is discarded by
// the worker instead of overwriting the newer surface.
type Publisher struct {
	sinks  []Sink
	logger logging.Logger

	mu     sync.Mutex
	gen    uint64
	live   bool
	last   types.AmbientSnapshot
	closed bool

	// shown is only touched by the worker.
	shown uint64

	queue chan op
	stop  chan struct{}
	wg    sync.WaitGroup
}

func NewPublisher(sinks []Sink, logger logging.Logger) *Publisher {
	p := &Publisher{
		sinks:  sinks,
		logger: logging.OrNop(logger),
		queue:  make(chan op, publisherQueueSize),
		stop:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Start opens a new surface, ending the current one first.
func (p *Publisher) Start(routineName string, snapshot types.AmbientSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if snapshot.RoutineName == "" {
		snapshot.RoutineName = routineName
	}
	if p.live {
		p.enqueueLocked(op{kind: opEnd, gen: p.gen, snapshot: p.last})
	}
	p.gen++
	p.live = true
	p.last = snapshot
	p.enqueueLocked(op{kind: opStart, gen: p.gen, snapshot: snapshot})
}

// Update replaces the live surface content. It is a no-op with no surface.
func (p *Publisher) Update(snapshot types.AmbientSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.live {
		return
	}
	p.last = snapshot
	p.enqueueLocked(op{kind: opUpdate, gen: p.gen, snapshot: snapshot})
}

// End tears the live surface down with a final snapshot. It is a no-op with
// no surface.
func (p *Publisher) End(final types.AmbientSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.live {
		return
	}
	p.live = false
	p.enqueueLocked(op{kind: opEnd, gen: p.gen, snapshot: final})
}

// Live reports whether a surface is open from the caller's point of view.
func (p *Publisher) Live() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

func (p *Publisher) enqueueLocked(item op) {
	select {
	case p.queue <- item:
	default:
		p.logger.Warn("ambient_queue_full", logging.F("op", item.kind.String()), logging.F("generation", item.gen))
	}
}

func (p *Publisher) currentGen() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for {
		select {
		case item := <-p.queue:
			p.apply(item)
		case <-p.stop:
			for {
				select {
				case item := <-p.queue:
					p.apply(item)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) apply(item op) {
	switch item.kind {
	case opStart:
		if item.gen != p.currentGen() {
			p.logger.Debug("ambient_op_stale", logging.F("op", "start"), logging.F("generation", item.gen))
			return
		}
		p.shown = item.gen
		p.show(item.snapshot)
	case opUpdate:
		if item.gen != p.shown || item.gen != p.currentGen() {
			p.logger.Debug("ambient_op_stale", logging.F("op", "update"), logging.F("generation", item.gen))
			return
		}
		p.show(item.snapshot)
	case opEnd:
		if item.gen != p.shown {
			return
		}
		p.shown = 0
		p.end(item.snapshot)
	}
}

func (p *Publisher) show(snapshot types.AmbientSnapshot) {
	for _, sink := range p.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		err := sink.Show(ctx, snapshot)
		cancel()
		if err != nil {
			p.logger.Warn("ambient_sink_failed", logging.F("sink", sink.Name()), logging.F("op", "show"), logging.Err(err))
		}
	}
}

func (p *Publisher) end(final types.AmbientSnapshot) {
	for _, sink := range p.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		err := sink.End(ctx, final)
		cancel()
		if err != nil {
			p.logger.Warn("ambient_sink_failed", logging.F("sink", sink.Name()), logging.F("op", "end"), logging.Err(err))
		}
	}
}

// Close ends any live surface, drains queued work and stops the worker.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.live {
		p.live = false
		p.enqueueLocked(op{kind: opEnd, gen: p.gen, snapshot: p.last})
	}
	p.closed = true
	close(p.stop)
	p.mu.Unlock()
	p.wg.Wait()
}
