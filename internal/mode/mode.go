// Package mode defines the mode controller interface and shared services.
package mode

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/shroombox/boxtop/internal/api"
	"github.com/shroombox/boxtop/internal/config"
	"github.com/shroombox/boxtop/internal/control"
	"github.com/shroombox/boxtop/internal/store"
	"github.com/shroombox/boxtop/internal/stream"
	"github.com/shroombox/boxtop/internal/ui/toaster"
)

// Services contains shared dependencies injected into mode controllers.
type Services struct {
	Client     *api.Client
	Store      *store.Store
	Dispatcher *control.Dispatcher
	Tailer     *stream.Tailer
	Config     *config.Config
	ConfigPath string
}

// ShowToastMsg asks the app to display a toast notification.
type ShowToastMsg struct {
	Message string
	Style   toaster.Style
}

// Toast returns a command that shows a toast notification.
func Toast(message string, style toaster.Style) tea.Cmd {
	return func() tea.Msg {
		return ShowToastMsg{Message: message, Style: style}
	}
}
