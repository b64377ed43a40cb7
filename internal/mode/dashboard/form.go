package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shroombox/boxtop/internal/api"
	"github.com/shroombox/boxtop/internal/ui/overlay"
	"github.com/shroombox/boxtop/internal/ui/styles"
)

// formField is one numeric input in a settings form, bound to a control name.
type formField struct {
	label   string
	control string
	input   textinput.Model
	initial string
}

// formChange is a field whose value differs from the loaded settings.
type formChange struct {
	control string
	value   string
}

// formSubmitMsg carries the changed fields when a settings form is accepted.
type formSubmitMsg struct {
	changes []formChange
}

// formCancelMsg is produced when a settings form is dismissed.
type formCancelMsg struct{}

var (
	formLabelStyle = lipgloss.NewStyle().
			Foreground(styles.FormInputLabelColor).
			Width(16)

	formFocusedLabelStyle = lipgloss.NewStyle().
				Foreground(styles.FormInputFocusedLabelColor).
				Width(16)

	formErrorStyle = lipgloss.NewStyle().Foreground(styles.StatusErrorColor)

	formBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.OverlayBorderColor).
			Padding(0, 2)
)

// settingsForm edits a group of numeric controls inline.
type settingsForm struct {
	title   string
	fields  []formField
	focus   int
	errText string
	width   int
	height  int
}

func newField(label, control string, value float64) formField {
	ti := textinput.New()
	ti.Placeholder = "0"
	ti.CharLimit = 10
	ti.Width = 12
	initial := strconv.FormatFloat(value, 'f', -1, 64)
	ti.SetValue(initial)
	return formField{label: label, control: control, input: ti, initial: initial}
}

// newHumidifierForm builds the humidifier burst editor from current settings.
func newHumidifierForm(s api.HumidifierSettings) settingsForm {
	f := settingsForm{
		title: "Humidifier bursts",
		fields: []formField{
			newField("Burst min (s)", "humidifier.burst_min_s", s.BurstMinS),
			newField("Burst max (s)", "humidifier.burst_max_s", s.BurstMaxS),
		},
	}
	f.fields[0].input.Focus()
	return f
}

// newPIDForm builds the fan PID gain editor from current settings.
func newPIDForm(s api.PIDSettings) settingsForm {
	f := settingsForm{
		title: "Fan PID gains",
		fields: []formField{
			newField("Kp", "pid.kp", s.Kp),
			newField("Ki", "pid.ki", s.Ki),
			newField("Kd", "pid.kd", s.Kd),
		},
	}
	f.fields[0].input.Focus()
	return f
}

// SetSize records overlay placement dimensions.
func (f settingsForm) SetSize(width, height int) settingsForm {
	f.width = width
	f.height = height
	return f
}

// Update handles form input. Submission and cancellation surface as
// formSubmitMsg / formCancelMsg commands.
func (f settingsForm) Update(msg tea.Msg) (settingsForm, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return f.updateFocused(msg)
	}

	switch keyMsg.String() {
	case "esc":
		return f, func() tea.Msg { return formCancelMsg{} }

	case "tab", "down":
		f.setFocus((f.focus + 1) % len(f.fields))
		return f, nil

	case "shift+tab", "up":
		f.setFocus((f.focus + len(f.fields) - 1) % len(f.fields))
		return f, nil

	case "enter":
		changes, err := f.collect()
		if err != nil {
			f.errText = err.Error()
			return f, nil
		}
		return f, func() tea.Msg { return formSubmitMsg{changes: changes} }
	}

	f.errText = ""
	return f.updateFocused(msg)
}

func (f settingsForm) updateFocused(msg tea.Msg) (settingsForm, tea.Cmd) {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd
}

func (f *settingsForm) setFocus(i int) {
	f.fields[f.focus].input.Blur()
	f.focus = i
	f.fields[f.focus].input.Focus()
}

// collect validates all fields and returns the ones that changed.
func (f settingsForm) collect() ([]formChange, error) {
	var changes []formChange
	for _, field := range f.fields {
		raw := strings.TrimSpace(field.input.Value())
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", field.label, raw)
		}
		if raw != field.initial {
			changes = append(changes, formChange{control: field.control, value: raw})
		}
	}
	return changes, nil
}

// View renders the form box.
func (f settingsForm) View() string {
	var b strings.Builder
	b.WriteString(styles.PanelTitleStyle.Render(f.title))
	b.WriteString("\n\n")
	for i, field := range f.fields {
		label := formLabelStyle
		if i == f.focus {
			label = formFocusedLabelStyle
		}
		b.WriteString(label.Render(field.label))
		b.WriteString(field.input.View())
		b.WriteString("\n")
	}
	if f.errText != "" {
		b.WriteString("\n")
		b.WriteString(formErrorStyle.Render(f.errText))
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).
		Render("enter apply  tab next  esc cancel"))
	return formBoxStyle.Render(b.String())
}

// Overlay renders the form centered over the background.
func (f settingsForm) Overlay(bg string) string {
	return overlay.Place(overlay.Config{
		Width:    f.width,
		Height:   f.height,
		Position: overlay.Center,
	}, f.View(), bg)
}
