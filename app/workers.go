package app

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned when work is submitted after Stop.
var ErrPoolClosed = errors.New("worker pool closed")

// Gauge is the minimal gauge surface the pool reports on. Satisfied by
// prometheus gauges.
type Gauge interface {
	Inc()
	Dec()
}

type task struct {
	run func() (any, error)
	out chan result
}

type result struct {
	value any
	err   error
}

// Pool is a bounded worker pool for blocking handler invocations. The
// dispatcher submits work and resumes when it completes; multiple
// requests may have work in flight concurrently. Sizing and queue
// depth are external policy, set from configuration.
type Pool struct {
	tasks   chan task
	workers int
	quit    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	queueDepth Gauge
	busy       Gauge
}

// NewPool creates a pool with the given worker count and queue depth.
// Non-positive values fall back to sane defaults.
func NewPool(workers, queue int) *Pool {
	if workers <= 0 {
		workers = 8
	}
	if queue <= 0 {
		queue = 64
	}
	return &Pool{
		tasks:   make(chan task, queue),
		workers: workers,
		quit:    make(chan struct{}),
	}
}

// Instrument wires gauges for queued tasks and busy workers. Call
// before Start.
func (p *Pool) Instrument(queueDepth, busy Gauge) {
	p.queueDepth = queueDepth
	p.busy = busy
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
}

// Stop prevents new submissions and waits for in-flight work.
func (p *Pool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case t := <-p.tasks:
			if p.queueDepth != nil {
				p.queueDepth.Dec()
			}
			if p.busy != nil {
				p.busy.Inc()
			}
			value, err := t.run()
			if p.busy != nil {
				p.busy.Dec()
			}
			t.out <- result{value: value, err: err}
		}
	}
}

// Do submits fn and waits for its result. If the caller's context is
// done first, Do returns the context error; the task itself is not
// cancelled and runs to completion, its result discarded.
func (p *Pool) Do(ctx context.Context, fn func() (any, error)) (any, error) {
	out := make(chan result, 1) // buffered so a discarded task never leaks a worker

	select {
	case p.tasks <- task{run: fn, out: out}:
		if p.queueDepth != nil {
			p.queueDepth.Inc()
		}
	case <-p.quit:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-out:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
