// Package stream maintains the live log tail from the controller backend.
// A Tailer owns one SSE subscription for as long as it is started: it opens
// the stream, forwards each payload line in arrival order, and reconnects
// with exponential backoff after any transport failure. Stopping releases
// the subscription unconditionally from any state.
package stream

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/shroombox/boxtop/internal/log"
	"github.com/shroombox/boxtop/internal/pubsub"
)

// ConnState is the tailer's connection state.
type ConnState int

const (
	StateClosed ConnState = iota
	StateConnecting
	StateOpen
	StateErrored
)

func (s ConnState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Event kinds published on the tailer's broker.
const (
	LineReceived pubsub.Kind = "stream.line"
	StateChanged pubsub.Kind = "stream.state"
)

// Event is the payload of a tailer event. Line is set for LineReceived;
// State (and Err on error transitions) for StateChanged.
type Event struct {
	Line  string
	State ConnState
	Err   error
}

// heartbeat is the keep-alive payload the backend emits between log lines.
const heartbeat = "♥"

// Opener opens the backend's SSE log endpoint.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// Config holds tailer construction options.
type Config struct {
	// Open opens the log stream. Required.
	Open Opener

	// MinDelay is the first reconnect delay after a drop; each failed
	// attempt doubles it up to MaxDelay. A successful open resets it.
	MinDelay time.Duration
	MaxDelay time.Duration

	// Tracer records a span per connect attempt. Nil disables tracing.
	Tracer trace.Tracer
}

// Tailer runs the reconnecting log tail. At most one subscription is live
// per tailer at any time.
type Tailer struct {
	open     Opener
	minDelay time.Duration
	maxDelay time.Duration
	tracer   trace.Tracer
	broker   *pubsub.Broker[Event]

	mu     sync.Mutex
	state  ConnState
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped tailer.
func New(cfg Config) *Tailer {
	minDelay := cfg.MinDelay
	if minDelay <= 0 {
		minDelay = time.Second
	}
	maxDelay := cfg.MaxDelay
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("stream")
	}
	return &Tailer{
		open:     cfg.Open,
		minDelay: minDelay,
		maxDelay: maxDelay,
		tracer:   tracer,
		broker:   pubsub.NewBroker[Event](),
		state:    StateClosed,
	}
}

// Broker exposes the tailer's event broker for subscription.
func (t *Tailer) Broker() *pubsub.Broker[Event] {
	return t.broker
}

// State returns the current connection state.
func (t *Tailer) State() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start begins tailing. Calling Start while the tailer is already running
// is a no-op; a stopped tailer can be started again.
func (t *Tailer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.loop(ctx, t.done)
}

// Stop tears the subscription down and waits for the tail loop to exit.
// It is unconditional and idempotent: it may be called from any state,
// any number of times, and always leaves the tailer Closed.
func (t *Tailer) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Tailer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer t.setState(StateClosed, nil)

	delay := t.minDelay
	attempt := 0
	for {
		attempt++
		t.setState(StateConnecting, nil)
		connCtx, span := t.tracer.Start(ctx, "stream.connect",
			trace.WithAttributes(attribute.Int("connect.attempt", attempt)))
		body, err := t.open(connCtx)
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn(log.CatStream, "Log stream connect failed", "error", err, "retry_in", delay)
			t.setState(StateErrored, err)
			if !sleepCtx(ctx, delay) {
				return
			}
			delay = t.nextDelay(delay)
			continue
		}

		t.setState(StateOpen, nil)
		delay = t.minDelay
		log.Info(log.CatStream, "Log stream connected")

		err = t.consume(ctx, body)
		_ = body.Close()
		if ctx.Err() != nil {
			return
		}

		// The stream never ends on its own; reaching here means the
		// transport dropped.
		log.Warn(log.CatStream, "Log stream dropped", "error", err, "retry_in", delay)
		t.setState(StateErrored, err)
		if !sleepCtx(ctx, delay) {
			return
		}
		delay = t.nextDelay(delay)
	}
}

// consume reads SSE frames until the stream errors or ctx is cancelled.
// Each complete frame's payload is forwarded as one log line; heartbeat
// frames are dropped.
func (t *Tailer) consume(ctx context.Context, body io.Reader) error {
	scanner := bufio.NewScanner(body)
	var data strings.Builder

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Text()
		if line == "" {
			// Blank line terminates the frame.
			if payload := data.String(); payload != "" && payload != heartbeat {
				t.broker.Publish(LineReceived, Event{Line: payload})
			}
			data.Reset()
			continue
		}
		if rest, ok := strings.CutPrefix(line, "data: "); ok {
			data.WriteString(rest)
		}
	}
	return scanner.Err()
}

func (t *Tailer) setState(s ConnState, err error) {
	t.mu.Lock()
	changed := t.state != s
	t.state = s
	t.mu.Unlock()
	if changed {
		t.broker.Publish(StateChanged, Event{State: s, Err: err})
	}
}

func (t *Tailer) nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > t.maxDelay {
		d = t.maxDelay
	}
	return d
}

// sleepCtx waits for d, returning false if ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
