// Package store holds the single observable state snapshot the dashboard
// renders from. The stream listener, the status poller, and the control
// dispatcher write to it; render code only reads snapshots. Every write
// publishes a change event so views can refresh.
package store

import (
	"context"
	"sync"

	"github.com/shroombox/boxtop/internal/api"
	"github.com/shroombox/boxtop/internal/pubsub"
)

// Change kinds published on the store's broker.
const (
	StatusChanged       pubsub.Kind = "store.status"
	MeasurementsChanged pubsub.Kind = "store.measurements"
	SettingsChanged     pubsub.Kind = "store.settings"
	LogsChanged         pubsub.Kind = "store.logs"
	ControlChanged      pubsub.Kind = "store.control"
)

// Change is the payload of a store change event. Control identifies the
// affected control for ControlChanged events and is empty otherwise.
type Change struct {
	Control string
}

// ControlValue is a named control parameter with its last confirmed value
// and, while a confirming request is in flight, the optimistically shown
// pending value.
type ControlValue struct {
	Confirmed string
	Pending   *string
}

// Effective returns the value the UI should display: the pending value if a
// request is in flight, the confirmed value otherwise.
func (v ControlValue) Effective() string {
	if v.Pending != nil {
		return *v.Pending
	}
	return v.Confirmed
}

// Snapshot is a point-in-time copy of the dashboard state.
type Snapshot struct {
	Status       api.SystemStatus
	Measurements api.Measurements
	Settings     api.Settings
	Logs         []string
	Controls     map[string]ControlValue
}

// Store aggregates the dashboard state. Writes happen on the update loop;
// the mutex makes snapshots safe to take from anywhere.
type Store struct {
	mu           sync.RWMutex
	status       api.SystemStatus
	measurements api.Measurements
	settings     api.Settings
	logs         *LogBuffer
	controls     map[string]ControlValue
	broker       *pubsub.Broker[Change]
}

// New creates a store whose log pane retains logCapacity lines.
func New(logCapacity int) *Store {
	return &Store{
		logs:     NewLogBuffer(logCapacity),
		controls: make(map[string]ControlValue),
		broker:   pubsub.NewBroker[Change](),
	}
}

// Listener subscribes to change events; the subscription is released when
// ctx is cancelled.
func (s *Store) Listener(ctx context.Context) *pubsub.ContinuousListener[Change] {
	return pubsub.NewContinuousListener(ctx, s.broker)
}

// Close shuts down the change broker.
func (s *Store) Close() {
	s.broker.Close()
}

// SetStatus records the latest system status.
func (s *Store) SetStatus(st api.SystemStatus) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	s.broker.Publish(StatusChanged, Change{})
}

// SetMeasurements records the latest sensor snapshot.
func (s *Store) SetMeasurements(m api.Measurements) {
	s.mu.Lock()
	s.measurements = m
	s.mu.Unlock()
	s.broker.Publish(MeasurementsChanged, Change{})
}

// SetSettings records the controller configuration.
func (s *Store) SetSettings(cfg api.Settings) {
	s.mu.Lock()
	s.settings = cfg
	s.mu.Unlock()
	s.broker.Publish(SettingsChanged, Change{})
}

// AppendLog adds a line to the bounded log buffer.
func (s *Store) AppendLog(line string) {
	s.mu.Lock()
	s.logs.Append(line)
	s.mu.Unlock()
	s.broker.Publish(LogsChanged, Change{})
}

// ClearLogs empties the log buffer.
func (s *Store) ClearLogs() {
	s.mu.Lock()
	s.logs.Clear()
	s.mu.Unlock()
	s.broker.Publish(LogsChanged, Change{})
}

// Control returns the current value of a named control.
func (s *Store) Control(name string) ControlValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controls[name]
}

// SetConfirmed seeds or overwrites a control's confirmed value without
// touching any pending state. Used when loading settings from the backend.
func (s *Store) SetConfirmed(name, value string) {
	s.mu.Lock()
	cv := s.controls[name]
	cv.Confirmed = value
	s.controls[name] = cv
	s.mu.Unlock()
	s.broker.Publish(ControlChanged, Change{Control: name})
}

// SetPending applies an optimistic value for a control. The UI shows it
// immediately while the confirming request is in flight.
func (s *Store) SetPending(name, value string) {
	s.mu.Lock()
	cv := s.controls[name]
	cv.Pending = &value
	s.controls[name] = cv
	s.mu.Unlock()
	s.broker.Publish(ControlChanged, Change{Control: name})
}

// Commit confirms a control value and clears its pending state.
func (s *Store) Commit(name, value string) {
	s.mu.Lock()
	s.controls[name] = ControlValue{Confirmed: value}
	s.mu.Unlock()
	s.broker.Publish(ControlChanged, Change{Control: name})
}

// Rollback clears a control's pending state, reverting the displayed value
// to the last confirmed one.
func (s *Store) Rollback(name string) {
	s.mu.Lock()
	cv := s.controls[name]
	cv.Pending = nil
	s.controls[name] = cv
	s.mu.Unlock()
	s.broker.Publish(ControlChanged, Change{Control: name})
}

// Snapshot returns a copy of the full dashboard state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	controls := make(map[string]ControlValue, len(s.controls))
	for k, v := range s.controls {
		controls[k] = v
	}

	return Snapshot{
		Status:       s.status,
		Measurements: s.measurements,
		Settings:     s.settings,
		Logs:         s.logs.Snapshot(),
		Controls:     controls,
	}
}
