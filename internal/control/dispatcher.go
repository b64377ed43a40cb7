// Package control implements the optimistic control-action dispatcher.
// Submitting an action writes the new value to the store immediately, then
// issues one confirming request to the backend. The result commits the
// value, rolls it back, or is discarded when a newer submission for the
// same control superseded it. Supersession never aborts the in-flight
// request; only its effect on state is dropped (last-submit-wins).
package control

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/shroombox/boxtop/internal/log"
	"github.com/shroombox/boxtop/internal/store"
)

// Well-known control names. Settings fields use dotted names routed by the
// confirmer, e.g. "pid.kp" or "humidifier.burst_min_s".
const (
	ControlPhase  = "phase"
	ControlSystem = "system"
)

// Outcome classifies how a resolved action affected state.
type Outcome int

const (
	// OutcomeCommitted: the backend accepted the value; it is now confirmed.
	OutcomeCommitted Outcome = iota
	// OutcomeRolledBack: the backend rejected the value (or the request
	// failed); the UI reverted to the last confirmed value.
	OutcomeRolledBack
	// OutcomeSuperseded: a newer submission for the same control replaced
	// this one; the result was discarded entirely.
	OutcomeSuperseded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeRolledBack:
		return "rolled_back"
	case OutcomeSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Confirmer sends the confirming request for a control change.
// Any returned error counts as rejection; there are no partial successes.
type Confirmer func(ctx context.Context, name, value string) error

// Result carries the outcome of one confirming request back to Resolve.
type Result struct {
	Name      string
	Value     string
	Seq       uint64
	RequestID string
	Err       error
}

// Config holds dispatcher construction options.
type Config struct {
	Store   *store.Store
	Confirm Confirmer

	// Timeout bounds each confirming request. A timed-out request is a
	// rejection. Zero means 10s.
	Timeout time.Duration

	// Tracer records a span per confirming request. Nil disables tracing.
	Tracer trace.Tracer
}

// Dispatcher serializes optimistic actions per control name. It must only
// be driven from the UI update loop; the thunks it returns are safe to run
// on other goroutines because they never touch dispatcher state.
type Dispatcher struct {
	store   *store.Store
	confirm Confirmer
	timeout time.Duration
	tracer  trace.Tracer

	mu  sync.Mutex
	seq map[string]uint64
}

// New creates a dispatcher.
func New(cfg Config) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("control")
	}
	return &Dispatcher{
		store:   cfg.Store,
		confirm: cfg.Confirm,
		timeout: timeout,
		tracer:  tracer,
		seq:     make(map[string]uint64),
	}
}

// Submit applies value optimistically and returns the confirming operation.
// Run the returned thunk asynchronously and feed its Result to Resolve.
// Submitting again for the same name before resolution supersedes the
// earlier request: its eventual result will be discarded.
func (d *Dispatcher) Submit(name, value string) func() Result {
	d.mu.Lock()
	d.seq[name]++
	seq := d.seq[name]
	d.mu.Unlock()

	requestID := uuid.NewString()
	if prev := d.store.Control(name); prev.Pending != nil {
		log.Info(log.CatControl, "Superseding in-flight action",
			"control", name, "old_value", *prev.Pending, "new_value", value)
	}

	// Optimistic write: the UI shows value before any network activity.
	d.store.SetPending(name, value)
	log.Debug(log.CatControl, "Submitting control action",
		"control", name, "value", value, "request_id", requestID)

	return func() Result {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		ctx, span := d.tracer.Start(ctx, "control.confirm", trace.WithAttributes(
			attribute.String("control.name", name),
			attribute.String("control.value", value),
			attribute.String("request.id", requestID),
		))
		err := d.confirm(ctx, name, value)
		if err != nil {
			span.RecordError(err)
		}
		span.End()

		return Result{Name: name, Value: value, Seq: seq, RequestID: requestID, Err: err}
	}
}

// Resolve reconciles a confirming request's result with current state.
// Only the most recent submission for a control may mutate confirmed
// state; stale results are discarded regardless of success or failure.
func (d *Dispatcher) Resolve(r Result) Outcome {
	d.mu.Lock()
	current := d.seq[r.Name]
	d.mu.Unlock()

	if r.Seq != current {
		log.Debug(log.CatControl, "Discarding superseded result",
			"control", r.Name, "value", r.Value, "request_id", r.RequestID)
		return OutcomeSuperseded
	}

	if r.Err != nil {
		log.Warn(log.CatControl, "Control action rejected, reverting",
			"control", r.Name, "value", r.Value, "error", r.Err)
		d.store.Rollback(r.Name)
		return OutcomeRolledBack
	}

	log.Info(log.CatControl, "Control action confirmed",
		"control", r.Name, "value", r.Value)
	d.store.Commit(r.Name, r.Value)
	return OutcomeCommitted
}
