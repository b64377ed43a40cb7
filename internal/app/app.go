// Package app contains the root application model.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/shroombox/boxtop/internal/config"
	"github.com/shroombox/boxtop/internal/keys"
	"github.com/shroombox/boxtop/internal/log"
	"github.com/shroombox/boxtop/internal/mode"
	"github.com/shroombox/boxtop/internal/mode/dashboard"
	"github.com/shroombox/boxtop/internal/pubsub"
	"github.com/shroombox/boxtop/internal/ui/logoverlay"
	"github.com/shroombox/boxtop/internal/ui/styles"
	"github.com/shroombox/boxtop/internal/ui/toaster"
	"github.com/shroombox/boxtop/internal/watcher"
)

// toastDuration is how long a toast stays on screen.
const toastDuration = 3 * time.Second

// Model is the root application state.
type Model struct {
	dashboard dashboard.Model
	services  mode.Services
	keys      keys.KeyMap

	// Centralized toaster, shown over whatever the dashboard renders.
	toaster toaster.Model

	debugMode   bool
	logOverlay  logoverlay.Model
	logCtx      context.Context
	logCancel   context.CancelFunc
	logListener *pubsub.ContinuousListener[string]

	// Config file watcher for hot reload (pubsub-based)
	watcherHandle   *watcher.Watcher
	watcherCtx      context.Context
	watcherCancel   context.CancelFunc
	watcherListener *pubsub.ContinuousListener[watcher.WatcherEvent]

	width  int
	height int
}

// Config holds root model construction options.
type Config struct {
	Services  mode.Services
	DebugMode bool
}

// New creates the root application model. The config file watcher and the
// debug log listener are optional; the app runs without either.
func New(cfg Config) Model {
	m := Model{
		dashboard:  dashboard.New(cfg.Services),
		services:   cfg.Services,
		keys:       keys.DefaultKeyMap(),
		debugMode:  cfg.DebugMode,
		logOverlay: logoverlay.New(),
	}

	if cfg.Services.ConfigPath != "" {
		w, err := watcher.New(watcher.DefaultConfig(cfg.Services.ConfigPath))
		if err == nil {
			if err := w.Start(); err == nil {
				m.watcherHandle = w
				m.watcherCtx, m.watcherCancel = context.WithCancel(context.Background())
				m.watcherListener = pubsub.NewContinuousListener(m.watcherCtx, w.Broker())
			} else {
				_ = w.Stop()
			}
		}
		// The app works fine without hot reload; don't fail startup over it.
	}

	if cfg.DebugMode {
		m.logCtx, m.logCancel = context.WithCancel(context.Background())
		m.logListener = log.NewListener(m.logCtx)
	}

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.dashboard.Init()}
	if m.watcherListener != nil {
		cmds = append(cmds, m.watcherListener.Listen())
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.dashboard = m.dashboard.SetSize(msg.Width, msg.Height)
		m.toaster = m.toaster.SetSize(msg.Width, msg.Height)
		m.logOverlay.SetSize(msg.Width, msg.Height)
		return m, nil

	case pubsub.Event[string]:
		// New diagnostic log entry; refresh the overlay if it is open.
		m.logOverlay.Refresh()
		return m, m.logListener.Listen()

	case pubsub.Event[watcher.WatcherEvent]:
		return m.handleWatcherEvent(msg)

	case tea.KeyMsg:
		if m.debugMode && key.Matches(msg, m.keys.LogOverlay) {
			m.logOverlay.Toggle()
			return m, nil
		}
		if m.logOverlay.Visible() {
			var cmd tea.Cmd
			m.logOverlay, cmd = m.logOverlay.Update(msg)
			return m, cmd
		}

	case mode.ShowToastMsg:
		m.toaster = m.toaster.Show(msg.Message, msg.Style)
		return m, toaster.ScheduleDismiss(toastDuration)

	case toaster.DismissMsg:
		m.toaster = m.toaster.Hide()
		return m, nil

	case logoverlay.CloseMsg:
		m.logOverlay.Hide()
		return m, nil
	}

	var cmd tea.Cmd
	m.dashboard, cmd = m.dashboard.Update(msg)
	return m, cmd
}

// handleWatcherEvent reloads the config file after an on-disk change.
func (m Model) handleWatcherEvent(msg pubsub.Event[watcher.WatcherEvent]) (tea.Model, tea.Cmd) {
	switch msg.Kind {
	case watcher.ConfigChanged:
		cfg, err := config.Load(m.services.ConfigPath)
		if err != nil {
			log.ErrorErr(log.CatConfig, "Config reload failed", err, "path", m.services.ConfigPath)
			return m, tea.Batch(
				mode.Toast("Config reload failed: "+err.Error(), toaster.StyleError),
				m.watcherListener.Listen(),
			)
		}

		*m.services.Config = cfg
		styles.ApplyTheme(cfg.Theme.Highlight, cfg.Theme.Subtle, cfg.Theme.Error, cfg.Theme.Success)
		log.Info(log.CatConfig, "Config reloaded", "path", m.services.ConfigPath)
		return m, tea.Batch(
			mode.Toast("Configuration reloaded", toaster.StyleInfo),
			m.watcherListener.Listen(),
		)

	case watcher.WatchError:
		log.Warn(log.CatWatcher, "Watcher error received", "error", msg.Payload.Err)
		return m, m.watcherListener.Listen()
	}

	return m, m.watcherListener.Listen()
}

// View implements tea.Model.
func (m Model) View() string {
	view := m.dashboard.View()
	view = m.toaster.Overlay(view, m.width, m.height)
	return m.logOverlay.Overlay(view)
}

// Close releases watcher, listener, and stream resources. Call after the
// program exits.
func (m Model) Close() error {
	m.dashboard.Close()
	if m.logCancel != nil {
		m.logCancel()
	}
	if m.watcherCancel != nil {
		m.watcherCancel()
	}

	var err error
	if m.watcherHandle != nil {
		err = m.watcherHandle.Stop()
	}
	m.services.Tailer.Stop()
	m.services.Store.Close()
	return err
}
