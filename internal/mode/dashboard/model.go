// Package dashboard implements the fruiting-chamber dashboard TUI mode.
//
// The dashboard shows:
//   - Status header with controller run state and log stream health
//   - Latest sensor readings polled from the device backend
//   - Phase selector and settings panels with optimistic apply
//   - Live device log pane fed by the reconnecting SSE tail
package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/shroombox/boxtop/internal/api"
	"github.com/shroombox/boxtop/internal/control"
	"github.com/shroombox/boxtop/internal/keys"
	"github.com/shroombox/boxtop/internal/log"
	"github.com/shroombox/boxtop/internal/mode"
	"github.com/shroombox/boxtop/internal/pubsub"
	"github.com/shroombox/boxtop/internal/store"
	"github.com/shroombox/boxtop/internal/stream"
	"github.com/shroombox/boxtop/internal/ui/help"
	"github.com/shroombox/boxtop/internal/ui/toaster"
)

// Panel identifies the focusable dashboard panels.
type Panel int

const (
	PanelPhase Panel = iota
	PanelSettings
	PanelLogs
)

// panelCount is the number of focus stops in the tab cycle.
const panelCount = 3

// Message types

type statusMsg struct {
	status api.SystemStatus
	err    error
}

type measurementsMsg struct {
	measurements api.Measurements
	err          error
}

type settingsMsg struct {
	settings api.Settings
	err      error
}

// actionResultMsg carries a finished control request back to the update loop.
type actionResultMsg struct {
	result control.Result
}

type pollTickMsg struct{}

type clearErrorMsg struct{}

// Model holds the dashboard mode state.
type Model struct {
	services mode.Services
	keys     keys.KeyMap

	// Listener lifecycle; cancel releases the broker subscriptions.
	ctx            context.Context
	cancel         context.CancelFunc
	storeListener  *pubsub.ContinuousListener[store.Change]
	streamListener *pubsub.ContinuousListener[stream.Event]

	// Rendered state. snap is refreshed from the store on change events;
	// streamState mirrors the tailer, which owns the connection.
	snap        store.Snapshot
	streamState stream.ConnState
	paused      bool

	// Selection and focus
	focus       Panel
	phaseCursor int
	cursorMoved bool

	logView viewport.Model

	// Overlays
	showHelp  bool
	helpModal help.Model
	form      *settingsForm

	// Dimensions
	width  int
	height int

	// Transient error banner
	err        error
	errContext string
}

// New creates a new dashboard mode model.
func New(services mode.Services) Model {
	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		services:       services,
		keys:           keys.DefaultKeyMap(),
		ctx:            ctx,
		cancel:         cancel,
		storeListener:  services.Store.Listener(ctx),
		streamListener: pubsub.NewContinuousListener(ctx, services.Tailer.Broker()),
		snap:           services.Store.Snapshot(),
		streamState:    services.Tailer.State(),
		helpModal:      help.New(),
		logView:        viewport.New(0, 0),
	}
}

// Close releases the model's broker subscriptions.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Init starts the listeners, the first fetches, and the poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.storeListener.Listen(),
		m.streamListener.Listen(),
		m.fetchStatus(),
		m.fetchMeasurements(),
		m.fetchSettings(),
		m.pollTick(),
	)
}

// SetSize handles terminal resize.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.helpModal = m.helpModal.SetSize(width, height)
	if m.form != nil {
		f := m.form.SetSize(width, height)
		m.form = &f
	}
	m.layoutLogView()
	return m
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[store.Change]:
		return m.handleStoreChange(msg)

	case pubsub.Event[stream.Event]:
		return m.handleStreamEvent(msg)

	case statusMsg:
		return m.handleStatus(msg)

	case measurementsMsg:
		return m.handleMeasurements(msg)

	case settingsMsg:
		return m.handleSettings(msg)

	case actionResultMsg:
		return m.handleActionResult(msg)

	case pollTickMsg:
		return m, tea.Batch(m.fetchStatus(), m.fetchMeasurements(), m.pollTick())

	case clearErrorMsg:
		m.err = nil
		m.errContext = ""
		return m, nil

	case formSubmitMsg:
		m.form = nil
		if len(msg.changes) == 0 {
			return m, nil
		}
		cmds := make([]tea.Cmd, 0, len(msg.changes))
		for _, ch := range msg.changes {
			cmds = append(cmds, m.submit(ch.control, ch.value))
		}
		return m, tea.Batch(cmds...)

	case formCancelMsg:
		m.form = nil
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Unhandled messages still feed an open form (cursor blink etc).
	if m.form != nil {
		f, cmd := m.form.Update(msg)
		m.form = &f
		return m, cmd
	}
	return m, nil
}

// handleStoreChange refreshes the rendered snapshot after a store write.
func (m Model) handleStoreChange(msg pubsub.Event[store.Change]) (Model, tea.Cmd) {
	m.snap = m.services.Store.Snapshot()

	switch msg.Kind {
	case store.LogsChanged:
		m.refreshLogView()
	case store.SettingsChanged:
		// Align the cursor with the active phase until the user moves it.
		if !m.cursorMoved {
			m.phaseCursor = phaseIndex(m.snap.Settings.Environment.CurrentPhase)
		}
	}
	return m, m.storeListener.Listen()
}

// handleStreamEvent feeds tail lines into the store and tracks connection
// state transitions.
func (m Model) handleStreamEvent(msg pubsub.Event[stream.Event]) (Model, tea.Cmd) {
	switch msg.Kind {
	case stream.LineReceived:
		m.services.Store.AppendLog(msg.Payload.Line)

	case stream.StateChanged:
		prev := m.streamState
		m.streamState = msg.Payload.State
		if msg.Payload.State == stream.StateErrored && prev == stream.StateOpen {
			log.Warn(log.CatStream, "Log stream dropped", "error", msg.Payload.Err)
		}
	}
	return m, m.streamListener.Listen()
}

func (m Model) handleStatus(msg statusMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		log.ErrorErr(log.CatAPI, "Status fetch failed", msg.err)
		return m.showError(msg.err, "fetching status")
	}
	m.services.Store.SetStatus(msg.status)
	// Seed the confirmed run state unless a toggle is in flight.
	if m.services.Store.Control(control.ControlSystem).Pending == nil {
		m.services.Store.SetConfirmed(control.ControlSystem, systemAction(msg.status.Running))
	}
	return m, nil
}

func (m Model) handleMeasurements(msg measurementsMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		log.ErrorErr(log.CatAPI, "Measurements fetch failed", msg.err)
		return m.showError(msg.err, "fetching measurements")
	}
	m.services.Store.SetMeasurements(msg.measurements)
	return m, nil
}

func (m Model) handleSettings(msg settingsMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		log.ErrorErr(log.CatAPI, "Settings fetch failed", msg.err)
		return m.showError(msg.err, "fetching settings")
	}
	m.services.Store.SetSettings(msg.settings)
	if m.services.Store.Control(control.ControlPhase).Pending == nil {
		m.services.Store.SetConfirmed(control.ControlPhase, msg.settings.Environment.CurrentPhase)
	}
	return m, nil
}

// handleActionResult resolves a finished control request against the
// dispatcher. Superseded results are dropped without touching the store.
func (m Model) handleActionResult(msg actionResultMsg) (Model, tea.Cmd) {
	outcome := m.services.Dispatcher.Resolve(msg.result)
	switch outcome {
	case control.OutcomeCommitted:
		return m, tea.Batch(
			mode.Toast(controlLabel(msg.result.Name)+" applied", toaster.StyleSuccess),
			m.fetchStatus(),
			m.fetchSettings(),
		)

	case control.OutcomeRolledBack:
		return m, mode.Toast(controlLabel(msg.result.Name)+" rejected: "+msg.result.Err.Error(), toaster.StyleError)
	}
	return m, nil
}

// handleKey handles keyboard input for the dashboard view.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// Overlays swallow input while open.
	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		case "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}
	if m.form != nil {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		f, cmd := m.form.Update(msg)
		m.form = &f
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.NextPanel):
		m.focus = (m.focus + 1) % panelCount
		return m, nil

	case key.Matches(msg, m.keys.PrevPanel):
		m.focus = (m.focus + panelCount - 1) % panelCount
		return m, nil

	case key.Matches(msg, m.keys.Phase):
		m.focus = PanelPhase
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.fetchStatus(), m.fetchMeasurements(), m.fetchSettings())

	case key.Matches(msg, m.keys.StartStop):
		return m, m.submit(control.ControlSystem, systemAction(!m.runningEffective()))

	case key.Matches(msg, m.keys.EditHumid):
		f := newHumidifierForm(m.snap.Settings.Humidifier).SetSize(m.width, m.height)
		m.form = &f
		return m, nil

	case key.Matches(msg, m.keys.EditPID):
		f := newPIDForm(m.snap.Settings.PID).SetSize(m.width, m.height)
		m.form = &f
		return m, nil

	case key.Matches(msg, m.keys.ClearLogs):
		m.services.Store.ClearLogs()
		return m, nil

	case key.Matches(msg, m.keys.PauseStream):
		return m.togglePause()

	case key.Matches(msg, m.keys.Reconnect):
		m.services.Tailer.Stop()
		m.paused = false
		m.services.Tailer.Start()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(-1), nil

	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(1), nil

	case key.Matches(msg, m.keys.Enter):
		if m.focus == PanelPhase {
			return m.applySelectedPhase()
		}
		return m, nil
	}

	// Log pane extras
	if m.focus == PanelLogs {
		switch msg.String() {
		case "g":
			m.logView.GotoTop()
		case "G":
			m.logView.GotoBottom()
		}
	}
	return m, nil
}

// handleMouse handles zone clicks and wheel scrolling.
func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if m.showHelp || m.form != nil {
		return m, nil
	}

	if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease {
		for i := range api.Phases {
			if z := zone.Get(makePhaseZoneID(i)); z != nil && z.InBounds(msg) {
				m.focus = PanelPhase
				m.phaseCursor = i
				m.cursorMoved = true
				return m, nil
			}
		}
		if z := zone.Get(zonePanelSettings); z != nil && z.InBounds(msg) {
			m.focus = PanelSettings
			return m, nil
		}
		if z := zone.Get(zonePanelLogs); z != nil && z.InBounds(msg) {
			m.focus = PanelLogs
			return m, nil
		}
		if z := zone.Get(zonePanelPhase); z != nil && z.InBounds(msg) {
			m.focus = PanelPhase
			return m, nil
		}
	}

	// Wheel scrolling over the log pane
	if z := zone.Get(zonePanelLogs); z != nil && z.InBounds(msg) {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.logView.ScrollUp(3)
		case tea.MouseButtonWheelDown:
			m.logView.ScrollDown(3)
		}
	}
	return m, nil
}

// moveCursor moves the active panel's selection or scrolls the log pane.
func (m Model) moveCursor(delta int) Model {
	switch m.focus {
	case PanelPhase:
		next := m.phaseCursor + delta
		if next >= 0 && next < len(api.Phases) {
			m.phaseCursor = next
			m.cursorMoved = true
		}
	case PanelLogs:
		if delta < 0 {
			m.logView.ScrollUp(1)
		} else {
			m.logView.ScrollDown(1)
		}
	}
	return m
}

// applySelectedPhase submits the phase under the cursor. Reselecting the
// effective phase is a no-op.
func (m Model) applySelectedPhase() (Model, tea.Cmd) {
	selected := api.Phases[m.phaseCursor]
	if selected == m.effectivePhase() {
		return m, nil
	}
	return m, m.submit(control.ControlPhase, selected)
}

// togglePause stops or restarts the log tail without clearing the pane.
func (m Model) togglePause() (Model, tea.Cmd) {
	if m.paused {
		m.paused = false
		m.services.Tailer.Start()
		return m, nil
	}
	m.paused = true
	m.services.Tailer.Stop()
	return m, nil
}

// submit hands a control action to the dispatcher. The pending value is
// visible in the store before the returned command runs.
func (m Model) submit(name, value string) tea.Cmd {
	thunk := m.services.Dispatcher.Submit(name, value)
	return func() tea.Msg {
		return actionResultMsg{result: thunk()}
	}
}

func (m Model) showError(err error, context string) (Model, tea.Cmd) {
	m.err = err
	m.errContext = context
	return m, scheduleErrorClear()
}

// effectivePhase returns the phase the UI should display, preferring an
// in-flight optimistic value over the confirmed one.
func (m Model) effectivePhase() string {
	if v := m.snap.Controls[control.ControlPhase].Effective(); v != "" {
		return v
	}
	return m.snap.Settings.Environment.CurrentPhase
}

// runningEffective returns the displayed run state, preferring an
// in-flight toggle.
func (m Model) runningEffective() bool {
	if p := m.snap.Controls[control.ControlSystem].Pending; p != nil {
		return *p == "start"
	}
	return m.snap.Status.Running
}

// refreshLogView reloads the log pane, keeping follow mode when the user
// is already at the bottom.
func (m *Model) refreshLogView() {
	follow := m.logView.AtBottom() || m.logView.TotalLineCount() == 0
	m.logView.SetContent(strings.Join(m.snap.Logs, "\n"))
	if follow {
		m.logView.GotoBottom()
	}
}

// Async commands

func (m Model) fetchStatus() tea.Cmd {
	client := m.services.Client
	return func() tea.Msg {
		st, err := client.SystemStatus(context.Background())
		return statusMsg{status: st, err: err}
	}
}

func (m Model) fetchMeasurements() tea.Cmd {
	client := m.services.Client
	return func() tea.Msg {
		meas, err := client.LatestMeasurements(context.Background())
		return measurementsMsg{measurements: meas, err: err}
	}
}

func (m Model) fetchSettings() tea.Cmd {
	client := m.services.Client
	return func() tea.Msg {
		s, err := client.Settings(context.Background())
		return settingsMsg{settings: s, err: err}
	}
}

func (m Model) pollTick() tea.Cmd {
	return tea.Tick(m.services.Config.Server.PollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func scheduleErrorClear() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearErrorMsg{}
	})
}

// Helpers

func phaseIndex(phase string) int {
	for i, p := range api.Phases {
		if p == phase {
			return i
		}
	}
	return 0
}

func systemAction(running bool) string {
	if running {
		return "start"
	}
	return "stop"
}

func controlLabel(name string) string {
	switch {
	case name == control.ControlPhase:
		return "Phase"
	case name == control.ControlSystem:
		return "Controller"
	case strings.HasPrefix(name, "humidifier."):
		return "Humidifier setting"
	case strings.HasPrefix(name, "pid."):
		return "PID setting"
	case strings.HasPrefix(name, "environment."):
		return "Setpoint"
	default:
		return name
	}
}
