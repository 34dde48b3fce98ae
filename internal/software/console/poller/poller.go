package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"ride-console/internal/general/logger"
)

var ErrAlreadyRunning = errors.New("poller already running")

// FetchFunc performs one request. It should honour ctx cancellation.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Result is the outcome of one fetch, stamped with the generation that issued it.
type Result[T any] struct {
	Value      T
	Err        error
	Generation uint64
	Duration   time.Duration
}

// Poller calls a fetch function immediately on Start and then on a fixed interval.
// At most one fetch is in flight; ticks that land while one is outstanding are skipped.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	logger   *logger.Logger
	out      chan Result[T]

	mu      sync.Mutex
	gen     atomic.Uint64
	running bool
	cancel  context.CancelFunc
	stopped chan struct{} // closed by Stop; unblocks pending deliveries
	done    chan struct{} // closed when the loop goroutine exits

	skipped atomic.Uint64
}

// New builds a stopped poller.
func New[T any](name string, interval time.Duration, fetch FetchFunc[T], logger *logger.Logger) *Poller[T] {
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		logger:   logger,
		out:      make(chan Result[T], 1),
	}
}

// Results delivers fetch outcomes. Consumers must pass each one through Accept.
func (p *Poller[T]) Results() <-chan Result[T] {
	return p.out
}

// Name returns the poller's label, used in logs and warnings.
func (p *Poller[T]) Name() string {
	return p.name
}

// Start begins polling. The loop stops when ctx is done or Stop is called.
func (p *Poller[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	gen := p.gen.Add(1)
	p.running = true
	p.cancel = cancel
	p.stopped = make(chan struct{})
	p.done = make(chan struct{})

	go p.loop(loopCtx, gen, p.stopped, p.done)

	p.logger.Info(ctx, "poller_started", "Polling loop started",
		map[string]any{"poller": p.name, "interval": p.interval.String(), "generation": gen})
	return nil
}

// Stop cancels the loop and any in-flight request and waits for the loop to exit.
// It does not wait for a fetch that ignores cancellation; that result is discarded.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.gen.Add(1)
	p.cancel()
	close(p.stopped)
	done := p.done
	p.mu.Unlock()

	<-done
	p.logger.Info(context.Background(), "poller_stopped", "Polling loop stopped",
		map[string]any{"poller": p.name, "skipped_ticks": p.skipped.Load()})
}

// Accept reports whether r belongs to the current, running generation.
func (p *Poller[T]) Accept(r Result[T]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && r.Generation == p.gen.Load()
}

// Running reports whether the loop is active.
func (p *Poller[T]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// SkippedTicks counts ticks dropped because a fetch was still outstanding.
func (p *Poller[T]) SkippedTicks() uint64 {
	return p.skipped.Load()
}

func (p *Poller[T]) loop(ctx context.Context, gen uint64, stopped <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// per generation, so a fetch orphaned by Stop cannot block a restarted loop
	var inFlight atomic.Bool

	p.tick(ctx, gen, &inFlight, stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, gen, &inFlight, stopped)
		}
	}
}

// tick launches a fetch unless one is already outstanding.
func (p *Poller[T]) tick(ctx context.Context, gen uint64, inFlight *atomic.Bool, stopped <-chan struct{}) {
	if !inFlight.CompareAndSwap(false, true) {
		n := p.skipped.Add(1)
		p.logger.Debug(ctx, "poll_tick_skipped", "Previous request still in flight",
			map[string]any{"poller": p.name, "skipped_ticks": n})
		return
	}

	go func() {
		defer inFlight.Store(false)

		started := time.Now()
		value, err := p.fetch(ctx)
		res := Result[T]{Value: value, Err: err, Generation: gen, Duration: time.Since(started)}

		select {
		case <-stopped:
			return
		default:
		}
		// the flag stays set until the result is handed over
		select {
		case p.out <- res:
		case <-stopped:
		}
	}()
}
