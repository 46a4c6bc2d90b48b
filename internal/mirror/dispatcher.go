package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/metrics"
	"golang.org/x/sync/semaphore"
)

const (
	defaultTimeout     = 5 * time.Second
	defaultMaxInFlight = 32
)

// Call is one mirror operation executed by the Dispatcher.
type Call func(ctx context.Context, m Mirror) error

type DispatcherParams struct {
	Mirror      Mirror
	Logger      *logger.Logger
	Metrics     *metrics.MirrorMetrics
	Timeout     time.Duration
	MaxInFlight int64
}

// Dispatcher runs mirror calls in the background. Callers never wait on a
// submitted call and never see its error.
type Dispatcher struct {
	mirror  Mirror
	logg    *logger.Logger
	metrics *metrics.MirrorMetrics
	timeout time.Duration
	slots   *semaphore.Weighted
	wg      sync.WaitGroup
}

// NewDispatcher builds a dispatcher. A nil Mirror yields a dispatcher that
// drops every call, which is how mirroring is switched off.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxInFlight := params.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	return &Dispatcher{
		mirror:  params.Mirror,
		logg:    params.Logger,
		metrics: params.Metrics,
		timeout: timeout,
		slots:   semaphore.NewWeighted(maxInFlight),
	}, nil
}

// Enabled reports whether submitted calls reach a mirror.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.mirror != nil
}

// Submit schedules call under a detached, time-bounded context. The call is
// dropped when mirroring is disabled or all slots are busy.
func (d *Dispatcher) Submit(ctx context.Context, op string, call Call) {
	if !d.Enabled() || call == nil {
		return
	}
	ctx = d.logg.WithField(ctx, "mirror_op", op)
	if !d.slots.TryAcquire(1) {
		d.metrics.IncOutcome(op, metrics.OutcomeDropped)
		d.logg.Warn(ctx, "mirror saturated, dropping call")
		return
	}

	d.wg.Add(1)
	d.metrics.TrackInFlight(1)
	go func() {
		defer d.wg.Done()
		defer d.slots.Release(1)
		defer d.metrics.TrackInFlight(-1)

		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		start := time.Now()
		err := d.run(callCtx, call)
		d.metrics.ObserveDuration(op, time.Since(start))

		if err != nil {
			d.metrics.IncOutcome(op, metrics.OutcomeFailure)
			d.logg.Warn(d.logg.WithField(ctx, "err", pkgerrors.Dump(err)), "mirror call failed")
			return
		}
		d.metrics.IncOutcome(op, metrics.OutcomeSuccess)
		d.logg.Debug(ctx, "mirror call completed")
	}()
}

func (d *Dispatcher) run(ctx context.Context, call Call) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("panic: %v", r), ErrUnavailable.Message())
		}
	}()
	if err := call(ctx, d.mirror); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, ErrUnavailable.Message())
	}
	return nil
}

// Wait blocks until in-flight calls finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	if d == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
