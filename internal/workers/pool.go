package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"media-thumbnailer/internal/logging"
	"media-thumbnailer/internal/memory"
	"media-thumbnailer/internal/metrics"
	"media-thumbnailer/internal/thumbnail"

	"github.com/Jeffail/tunny"
)

// ErrPoolClosed is delivered for requests submitted after Close.
var ErrPoolClosed = errors.New("worker pool is closed")

// Generator is the work each pool task performs.
type Generator interface {
	Generate(ctx context.Context, req thumbnail.Request) (*thumbnail.Result, error)
}

// Outcome is the single value delivered for a submitted request.
type Outcome struct {
	Result *thumbnail.Result
	Err    error
}

type job struct {
	ctx context.Context
	req thumbnail.Request
}

// Pool runs thumbnail requests on a fixed number of workers.
type Pool struct {
	pool    *tunny.Pool
	gen     Generator
	monitor *memory.Monitor
	log     *logging.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool starts size workers running gen. monitor may be nil, in which
// case tasks never wait for memory.
func NewPool(size int, gen Generator, monitor *memory.Monitor) *Pool {
	size = clamp(size, 0)
	p := &Pool{
		gen:     gen,
		monitor: monitor,
		log:     logging.For("workers"),
	}
	p.pool = tunny.NewFunc(size, func(payload interface{}) interface{} {
		j := payload.(*job)
		return p.run(j.ctx, j.req)
	})
	metrics.WorkerPoolSize.Set(float64(size))
	p.log.Info("started %d thumbnail workers", size)
	return p
}

// Submit queues req and returns a channel that receives exactly one Outcome.
//
// ctx bounds only the wait for memory and for a free worker. Once a worker
// picks the request up it runs to completion; callers that stop listening
// simply never read the buffered Outcome.
func (p *Pool) Submit(ctx context.Context, req thumbnail.Request) <-chan Outcome {
	out := make(chan Outcome, 1)

	go func() {
		if err := p.monitor.Wait(ctx); err != nil {
			out <- Outcome{Err: err}
			return
		}
		if err := ctx.Err(); err != nil {
			out <- Outcome{Err: err}
			return
		}

		p.mu.RLock()
		defer p.mu.RUnlock()
		if p.closed {
			out <- Outcome{Err: ErrPoolClosed}
			return
		}

		metrics.WorkerPoolQueueLength.Set(float64(p.pool.QueueLength() + 1))
		o := p.pool.Process(&job{ctx: context.WithoutCancel(ctx), req: req}).(Outcome)
		metrics.WorkerPoolQueueLength.Set(float64(p.pool.QueueLength()))
		out <- o
	}()

	return out
}

// Generate submits req and waits for its outcome or for ctx to end.
func (p *Pool) Generate(ctx context.Context, req thumbnail.Request) (*thumbnail.Result, error) {
	select {
	case o := <-p.Submit(ctx, req):
		return o.Result, o.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) run(ctx context.Context, req thumbnail.Request) (o Outcome) {
	metrics.WorkerPoolBusy.Inc()
	defer metrics.WorkerPoolBusy.Dec()

	defer func() {
		if r := recover(); r != nil {
			metrics.WorkerPanicsTotal.Inc()
			p.log.Error("panic generating thumbnail for %q: %v\n%s", req.SourceRef, r, debug.Stack())
			o = Outcome{Err: thumbnail.NewError(thumbnail.DecodeFailed,
				"unable to generate thumbnail", fmt.Errorf("panic: %v", r))}
		}
	}()

	res, err := p.gen.Generate(ctx, req)
	return Outcome{Result: res, Err: err}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.pool.GetSize()
}

// QueueLength returns the number of requests waiting for or held by a
// worker.
func (p *Pool) QueueLength() int64 {
	return p.pool.QueueLength()
}

// Close waits for requests already handed to the pool, then stops the
// workers. Later submissions receive ErrPoolClosed.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.pool.Close()
	metrics.WorkerPoolSize.Set(0)
	p.log.Info("thumbnail workers stopped")
}
