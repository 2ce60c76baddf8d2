package debounce

import (
	"context"
	"sync"
	"time"
)

// RunFunc does the debounced work for the captured input.
type RunFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// ApplyFunc receives the result of the most recent trigger only.
type ApplyFunc[In, Out any] func(in In, out Out, err error)

// Debouncer coalesces triggers that arrive within delay of each other and
// applies only the result belonging to the latest trigger. A run that is
// superseded while in flight has its context cancelled and its result
// dropped. After Stop no result is applied.
type Debouncer[In, Out any] struct {
	delay time.Duration
	run   RunFunc[In, Out]
	apply ApplyFunc[In, Out]

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	cancel     context.CancelFunc
	stopped    bool
	wg         sync.WaitGroup
}

func New[In, Out any](delay time.Duration, run RunFunc[In, Out], apply ApplyFunc[In, Out]) *Debouncer[In, Out] {
	return &Debouncer[In, Out]{delay: delay, run: run, apply: apply}
}

// Trigger schedules a run for in, replacing any pending or in-flight run.
func (d *Debouncer[In, Out]) Trigger(in In) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.generation++
	gen := d.generation
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen, in) })
}

func (d *Debouncer[In, Out]) fire(gen uint64, in In) {
	d.mu.Lock()
	if d.stopped || gen != d.generation {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.wg.Add(1)
	d.mu.Unlock()
	defer d.wg.Done()
	defer cancel()

	out, err := d.run(ctx, in)

	d.mu.Lock()
	current := !d.stopped && gen == d.generation
	d.mu.Unlock()
	if current && d.apply != nil {
		d.apply(in, out, err)
	}
}

// Stop cancels pending and in-flight work and waits for running callbacks
// to return. Later triggers are ignored. It must not be called from apply.
func (d *Debouncer[In, Out]) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()
	d.wg.Wait()
}
