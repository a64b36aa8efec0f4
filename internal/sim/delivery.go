package sim

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"factory-sim/internal/config"
	"factory-sim/internal/logging"
	"factory-sim/internal/telemetry"
)

// RetryPolicy bounds the attempts made for one record or batch.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// PolicyFrom derives the retry policy of a delivery configuration.
func PolicyFrom(d config.Delivery) RetryPolicy {
	return RetryPolicy{MaxAttempts: d.MaxAttempts, Backoff: d.RetryBackoff}
}

// deliverWithRetry calls send until it succeeds or the policy is exhausted
// and returns the last send error. The backoff doubles after every failure.
func deliverWithRetry(ctx context.Context, sink string, policy RetryPolicy, send func() error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := wait.Backoff{
		Duration: policy.Backoff,
		Factor:   2,
		Jitter:   0.1,
		Steps:    attempts,
	}
	var (
		lastErr error
		tries   int
	)
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(context.Context) (bool, error) {
		tries++
		if lastErr = send(); lastErr != nil {
			logging.FromContext(ctx).Debug("delivery attempt failed", "sink", sink, "attempt", tries, "err", lastErr)
			return false, nil
		}
		return true, nil
	})
	deliveryAttempts.WithLabelValues(sink).Observe(float64(tries))
	if err == nil {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("after %d attempts: %w", tries, lastErr)
	}
	return err
}

// trackedWriter delivers synchronously on the caller's goroutine and
// records the outcome.
type trackedWriter struct {
	ctx    context.Context
	name   string
	sink   RecordWriter
	stats  *DeliveryStats
	policy RetryPolicy
}

// Track wraps a local sink: one attempt per record, outcome counted in stats.
func Track(ctx context.Context, name string, sink RecordWriter, stats *DeliveryStats) RecordWriter {
	return &trackedWriter{ctx: ctx, name: name, sink: sink, stats: stats, policy: RetryPolicy{MaxAttempts: 1}}
}

func (t *trackedWriter) Write(rec telemetry.Record) error {
	err := deliverWithRetry(t.ctx, t.name, t.policy, func() error { return t.sink.Write(rec) })
	if err != nil {
		de := newDeliveryError(t.name, rec, err)
		t.stats.Failure(de)
		return de
	}
	t.stats.Success(t.name)
	return nil
}

func (t *trackedWriter) Flush(ctx context.Context) error {
	return flushWriter(ctx, t.sink)
}

// NewDelivery wraps a remote sink according to the configured delivery mode.
// The returned writer never blocks on the network in async or buffered mode.
func NewDelivery(ctx context.Context, name string, sink RecordWriter, d config.Delivery, stats *DeliveryStats) RecordWriter {
	policy := PolicyFrom(d)
	switch d.Mode {
	case config.DeliverySync:
		return &trackedWriter{ctx: ctx, name: name, sink: sink, stats: stats, policy: policy}
	case config.DeliveryBuffered:
		return NewBuffer(name, sink, stats, policy)
	default:
		return NewDispatcher(ctx, name, sink, stats, DispatcherOptions{
			Workers:   d.Workers,
			QueueSize: d.QueueSize,
			Policy:    policy,
			RateLimit: d.RateLimit,
			RateBurst: d.RateBurst,
		})
	}
}
