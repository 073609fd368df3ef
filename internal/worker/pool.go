package worker

import (
	"context"
	"sync"
)

// Job is one unit of work, typically one document
type Job interface {
	Execute(ctx context.Context) Result
}

// Result carries a job's outcome; GetError is nil on success
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of goroutines. A collector drains
// results as they arrive, so any number of jobs may be submitted before Wait.
type Pool struct {
	workers int
	queue   chan Job
	out     chan Result
	results []Result

	running   sync.WaitGroup
	collector sync.WaitGroup

	ctx        context.Context
	cancel     context.CancelFunc
	closeQueue func()
	closeOut   func()
}

// NewPool returns a pool bound to parent; cancelling parent stops the workers
func NewPool(parent context.Context, workers int) *Pool {
	if parent == nil {
		parent = context.Background()
	}
	workers = max(workers, 1)
	ctx, cancel := context.WithCancel(parent)

	p := &Pool{
		workers: workers,
		queue:   make(chan Job, workers*2),
		out:     make(chan Result, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
	p.closeQueue = sync.OnceFunc(func() { close(p.queue) })
	p.closeOut = sync.OnceFunc(func() { close(p.out) })
	return p
}

// Start launches the workers and the result collector
func (p *Pool) Start() {
	p.collector.Add(1)
	go func() {
		defer p.collector.Done()
		for r := range p.out {
			p.results = append(p.results, r)
		}
	}()

	p.running.Add(p.workers)
	for range p.workers {
		go p.work()
	}
}

func (p *Pool) work() {
	defer p.running.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.out <- job.Execute(p.ctx)
		}
	}
}

// Submit queues job and reports false once the pool is cancelled
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.queue <- job:
		return true
	}
}

// Wait closes the queue, lets queued jobs finish and returns their results
// in completion order
func (p *Pool) Wait() []Result {
	p.closeQueue()
	p.drain()
	p.cancel()
	return p.results
}

// Shutdown cancels outstanding work and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancel()
	p.drain()
}

func (p *Pool) drain() {
	p.running.Wait()
	p.closeOut()
	p.collector.Wait()
}
