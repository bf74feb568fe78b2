package kdf

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	ErrPoolClosed = errors.New("kdf: pool closed")
)

// Request describes one PBKDF2 derivation. A zero PRF means DefaultPRF.
type Request struct {
	PRF        PRF
	Password   []byte
	Salt       []byte
	Iterations int
	Length     int
}

type job struct {
	req    Request
	result chan result
}

type result struct {
	key []byte
	err error
}

// Pool bounds the number of derivations running at once. PBKDF2 is CPU bound
// by construction, so callers deriving many keys share a fixed set of workers.
type Pool struct {
	jobs      chan job
	done      chan struct{}
	wg        sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewPool starts a pool with the given number of workers.
// workers <= 0 uses runtime.NumCPU().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		jobs: make(chan job),
		done: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case j := <-p.jobs:
			prf := j.req.PRF
			if prf == 0 {
				prf = DefaultPRF
			}
			key, err := DeriveWith(prf, j.req.Password, j.req.Salt, j.req.Iterations, j.req.Length)
			j.result <- result{key: key, err: err}
		case <-p.done:
			return
		}
	}
}

// Derive queues req and waits for its key. If ctx ends first the wait is
// abandoned; a derivation already running finishes in the background and its
// result is dropped.
func (p *Pool) Derive(ctx context.Context, req Request) ([]byte, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	j := job{req: req, result: make(chan result, 1)}
	select {
	case p.jobs <- j:
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-j.result:
		return r.key, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the workers after their current derivation. It is safe to call
// more than once.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.done)
	})
	p.wg.Wait()
	return nil
}
