package sim

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"factory-sim/internal/logging"
	"factory-sim/internal/telemetry"
)

// DispatcherOptions tunes an async dispatcher.
type DispatcherOptions struct {
	Workers   int
	QueueSize int
	Policy    RetryPolicy
	// RateLimit caps deliveries per second; zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Dispatcher delivers records to a remote sink from a bounded queue served
// by a pool of workers, so the simulation never waits on the network.
type Dispatcher struct {
	name    string
	sink    RecordWriter
	stats   *DeliveryStats
	policy  RetryPolicy
	limiter *rate.Limiter
	queue   chan telemetry.Record
	g       *errgroup.Group
	stop    context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the worker pool. Workers keep ctx's values but not its
// cancellation: queued records are still delivered after the run is
// interrupted, and only Flush's deadline cuts delivery short.
func NewDispatcher(ctx context.Context, name string, sink RecordWriter, stats *DeliveryStats, opts DispatcherOptions) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	d := &Dispatcher{
		name:   name,
		sink:   sink,
		stats:  stats,
		policy: opts.Policy,
		queue:  make(chan telemetry.Record, opts.QueueSize),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	wctx, stop := context.WithCancel(context.WithoutCancel(ctx))
	d.stop = stop
	g, gctx := errgroup.WithContext(wctx)
	for i := 0; i < opts.Workers; i++ {
		g.Go(func() error {
			for rec := range d.queue {
				dispatchQueueDepth.WithLabelValues(d.name).Set(float64(len(d.queue)))
				d.deliver(gctx, rec)
			}
			return nil
		})
	}
	d.g = g
	return d
}

// Write enqueues rec without blocking. A full or closed queue fails the
// record immediately with ErrQueueFull.
func (d *Dispatcher) Write(rec telemetry.Record) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.closed {
		select {
		case d.queue <- rec:
			return nil
		default:
		}
	}
	de := newDeliveryError(d.name, rec, ErrQueueFull)
	d.stats.Failure(de)
	return de
}

func (d *Dispatcher) deliver(ctx context.Context, rec telemetry.Record) {
	log := logging.FromContext(ctx)
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			d.stats.Failure(newDeliveryError(d.name, rec, err))
			return
		}
	}
	if err := deliverWithRetry(ctx, d.name, d.policy, func() error { return d.sink.Write(rec) }); err != nil {
		de := newDeliveryError(d.name, rec, err)
		d.stats.Failure(de)
		log.Warn("delivery failed", "sink", d.name, "machine", rec.MachineID, "err", err)
		return
	}
	d.stats.Success(d.name)
}

// Flush closes the queue and waits for the workers to drain it. Records
// written after Flush are rejected. If ctx ends first, in-flight retries are
// abandoned and the remaining records are counted as failures.
func (d *Dispatcher) Flush(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- d.g.Wait() }()
	select {
	case err := <-done:
		d.stop()
		dispatchQueueDepth.WithLabelValues(d.name).Set(0)
		if err != nil {
			return err
		}
		return flushWriter(ctx, d.sink)
	case <-ctx.Done():
		d.stop()
		return ctx.Err()
	}
}
