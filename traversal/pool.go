// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

// Package traversal implements TraversalTask (spec §4.2): the
// recursively-spawnable work unit that walks one of the Controller's
// three mirror trees, fanning out one task per child and joining before
// returning.
package traversal

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a bounded worker pool executing traversal work, adapted from
// the teacher's WalkPool/SchemaWalkPool (model/high/v3/walk_pool.go,
// schema_pool.go): workers submit their own descendant work and return
// immediately rather than blocking on it, and a caller joins the whole
// fan-out by waiting on inFlight to drain back to zero instead of a
// per-call WaitGroup. That is what lets a worker keep draining the queue
// instead of parking on a child it just enqueued behind itself.
type Pool struct {
	workChan chan func()
	wg       sync.WaitGroup
	shutdown atomic.Bool
	workers  int
	inFlight atomic.Int64 // tracks work in progress for WaitForCompletion

	// condition variable for blocking wait (no polling)
	mu   sync.Mutex
	cond *sync.Cond
}

// DefaultQueueSize is the buffer size for pending traversal work.
const DefaultQueueSize = 4096

// DefaultWorkers returns one worker per available core.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// NewPool creates a bounded pool with the given number of workers. If
// workers <= 0, it defaults to DefaultWorkers().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	p := &Pool{
		workChan: make(chan func(), DefaultQueueSize),
		workers:  workers,
	}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for fn := range p.workChan {
		if fn != nil {
			fn()
			if p.inFlight.Add(-1) == 0 {
				p.mu.Lock()
				p.cond.Broadcast()
				p.mu.Unlock()
			}
		}
	}
}

// Submit queues fn for async execution, returning false (without running
// fn) if the queue is full or the pool has been shut down.
func (p *Pool) Submit(fn func()) bool {
	if p.shutdown.Load() || fn == nil {
		return false
	}
	p.inFlight.Add(1)
	select {
	case p.workChan <- fn:
		return true
	default:
		p.inFlight.Add(-1)
		return false
	}
}

// SubmitOrRun submits fn to the pool, falling back to running it
// synchronously on the calling goroutine when the queue is full.
func (p *Pool) SubmitOrRun(fn func()) {
	if fn == nil {
		return
	}
	if !p.Submit(fn) {
		fn()
	}
}

// Shutdown closes the work queue and waits for every worker to drain.
func (p *Pool) Shutdown() {
	p.shutdown.Store(true)
	close(p.workChan)
	p.wg.Wait()
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// IsIdle returns true if the pool has no work queued or in progress.
func (p *Pool) IsIdle() bool {
	return p.inFlight.Load() == 0
}

// WaitForCompletion blocks until every submitted unit of work - including
// descendants submitted from within other work - has finished. Unlike a
// WaitGroup scoped to one fan-out level, this counts the whole subtree
// recursively queued through Submit/SubmitOrRun, so it is safe to call
// from the goroutine that kicked off a recursive traversal without
// itself occupying a worker slot.
func (p *Pool) WaitForCompletion() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.inFlight.Load() > 0 {
		p.cond.Wait()
	}
}
