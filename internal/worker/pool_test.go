package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type stubResult struct{ err error }

func (r stubResult) GetError() error { return r.err }

// stubJob records how many jobs run at once and can block until released
type stubJob struct {
	fail    bool
	hold    time.Duration
	running *atomic.Int32
	peak    *atomic.Int32
	ran     *atomic.Int32
	started chan struct{}
}

func (j *stubJob) Execute(ctx context.Context) Result {
	if j.ran != nil {
		j.ran.Add(1)
	}
	if j.running != nil {
		n := j.running.Add(1)
		defer j.running.Add(-1)
		for {
			p := j.peak.Load()
			if n <= p || j.peak.CompareAndSwap(p, n) {
				break
			}
		}
	}
	if j.started != nil {
		close(j.started)
	}
	if j.hold > 0 {
		select {
		case <-time.After(j.hold):
		case <-ctx.Done():
			return stubResult{err: ctx.Err()}
		}
	}
	if j.fail {
		return stubResult{err: errors.New("document failed")}
	}
	return stubResult{}
}

func TestNewPool_Workers(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{5, 5},
		{1, 1},
		{0, 1},
		{-3, 1},
	}
	for _, tt := range tests {
		if got := NewPool(context.Background(), tt.in).workers; got != tt.want {
			t.Errorf("NewPool(%d).workers = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPool_RunsEveryJob(t *testing.T) {
	pool := NewPool(context.Background(), 3)
	pool.Start()

	var ran atomic.Int32
	for range 12 {
		if !pool.Submit(&stubJob{ran: &ran}) {
			t.Fatal("Submit rejected a job on a live pool")
		}
	}

	if got := len(pool.Wait()); got != 12 {
		t.Errorf("expected 12 results, got %d", got)
	}
	if ran.Load() != 12 {
		t.Errorf("expected 12 executions, got %d", ran.Load())
	}
}

func TestPool_LargeBacklog(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	done := make(chan int)
	go func() {
		for range 500 {
			pool.Submit(&stubJob{})
		}
		done <- len(pool.Wait())
	}()

	select {
	case n := <-done:
		if n != 500 {
			t.Errorf("expected 500 results, got %d", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool deadlocked with a large backlog")
	}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	const workers = 4
	pool := NewPool(context.Background(), workers)
	pool.Start()

	var running, peak atomic.Int32
	for range 40 {
		pool.Submit(&stubJob{running: &running, peak: &peak, hold: 5 * time.Millisecond})
	}
	pool.Wait()

	if peak.Load() > workers {
		t.Errorf("peak concurrency %d exceeded %d workers", peak.Load(), workers)
	}
	if peak.Load() == 0 {
		t.Error("no job recorded as running")
	}
}

func TestPool_ErrorsStayWithTheirJob(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	pool.Submit(&stubJob{fail: true})
	pool.Submit(&stubJob{})
	pool.Submit(&stubJob{fail: true})

	failed := 0
	for _, r := range pool.Wait() {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 2 {
		t.Errorf("expected 2 failed results, got %d", failed)
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	accepted := make(chan bool)
	go func() { accepted <- pool.Submit(&stubJob{}) }()

	select {
	case ok := <-accepted:
		if ok {
			t.Error("Submit after shutdown should be rejected")
		}
	case <-time.After(time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_ParentCancelStopsWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(&stubJob{started: started, hold: time.Minute})
	<-started
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return after parent cancel")
	}
}
