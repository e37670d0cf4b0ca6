// Package tui is the terminal front end. It is a thin consumer: every tick it
// feeds the edited inputs to the orchestrator facade, polls it, and renders
// the events it gets back. No business logic lives here.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/entitan/internal/orchestrator"
	"github.com/jask/entitan/internal/settings"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	labelStyle    = lipgloss.NewStyle().Width(16)
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	mismatchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Padding(0, 1)
)

const (
	fieldLauncher = iota
	fieldConfig
	fieldGame
	fieldLocale
	fieldCount
)

type tickMsg time.Time

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Update key.Binding
	Run    key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Update: key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "update Config.wtf")),
		Run:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "run sequence")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Update, k.Run, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Update, k.Run, k.Quit}}
}

// App is the bubbletea model.
type App struct {
	fac    *orchestrator.Facade
	tick   time.Duration
	inputs []textinput.Model
	focus  int
	status string
	width  int
	height int
	keys   keyMap

	// window geometry loaded at startup, carried through to shutdown save
	geometry *settings.Geometry
}

// New seeds the UI and the facade from persisted settings.
func New(fac *orchestrator.Facade, st settings.Settings, tick time.Duration) App {
	labels := [fieldCount]string{"Battle.net", "Config.wtf", "WoW Executable", "Preferred Locale"}
	values := [fieldCount]string{st.LauncherPath, st.ConfigPath, st.GamePath, orchestrator.NormalizeLocale(st.PreferredLocale)}

	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		inp := textinput.New()
		inp.Prompt = ""
		inp.Placeholder = labels[i]
		inp.SetValue(values[i])
		if i == 0 {
			inp.Focus()
		}
		inputs[i] = inp
	}

	fac.SetLauncherPath(st.LauncherPath)
	fac.SetGamePath(st.GamePath)
	fac.SetPreferredLocale(st.PreferredLocale)
	fac.SetConfigPath(st.ConfigPath)

	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	return App{
		fac:      fac,
		tick:     tick,
		inputs:   inputs,
		keys:     newKeyMap(),
		geometry: st.Geometry,
	}
}

func (a App) Init() tea.Cmd {
	return a.tickCmd()
}

func (a App) tickCmd() tea.Cmd {
	return tea.Tick(a.tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		for i := range a.inputs {
			a.inputs[i].Width = max(20, msg.Width-24)
		}
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Next):
			a.moveFocus(1)
			return a, nil
		case key.Matches(msg, a.keys.Prev):
			a.moveFocus(-1)
			return a, nil
		case key.Matches(msg, a.keys.Update):
			a.observeInputs()
			if err := a.fac.UpdateConfig(); err != nil {
				a.status = "Error updating config: " + err.Error()
			} else {
				a.status = "Config.wtf updated"
			}
			return a, nil
		case key.Matches(msg, a.keys.Run):
			a.observeInputs()
			if err := a.fac.StartRun(); err != nil {
				a.status = err.Error()
			} else {
				a.status = "Starting run sequence..."
			}
			return a, nil
		}
		var cmd tea.Cmd
		a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
		return a, cmd

	case tickMsg:
		a.observeInputs()
		for _, ev := range a.fac.Poll() {
			a.status = ev.Text
		}
		return a, a.tickCmd()
	}
	return a, nil
}

func (a *App) moveFocus(dir int) {
	a.inputs[a.focus].Blur()
	a.focus = (a.focus + dir + len(a.inputs)) % len(a.inputs)
	a.inputs[a.focus].Focus()
}

// observeInputs pushes the edited values into the facade. The preferred
// locale is normalized on every observation, not only on commit; the input
// box is written back so the user sees the normalized value.
func (a *App) observeInputs() {
	a.fac.SetLauncherPath(a.inputs[fieldLauncher].Value())
	a.fac.SetGamePath(a.inputs[fieldGame].Value())
	a.fac.SetConfigPath(a.inputs[fieldConfig].Value())

	raw := a.inputs[fieldLocale].Value()
	norm := orchestrator.NormalizeLocale(raw)
	a.fac.SetPreferredLocale(norm)
	if raw == norm {
		return
	}
	a.inputs[fieldLocale].SetValue(norm)
	switch {
	case raw == "":
		// cleared: fall back to the default quietly
	case norm == orchestrator.DefaultLocale && !hasASCIILetter(raw):
		a.status = "Preferred locale invalid; reset to " + orchestrator.DefaultLocale
	default:
		a.status = "Preferred locale filtered to letters only (max 4)"
	}
}

func hasASCIILetter(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			return true
		}
	}
	return false
}

func (a App) View() string {
	var rows []string
	rows = append(rows, titleStyle.Render("enTitan - Titan Reforged Locale Launcher"), "")

	audio, audioOK := a.fac.AudioLocale()
	text, textOK := a.fac.TextLocale()
	rows = append(rows, a.localeRow("audioLocale:", audio, audioOK))
	rows = append(rows, a.localeRow("textLocale:", text, textOK))
	rows = append(rows, "")

	labels := [fieldCount]string{"Battle.net:", "Config.wtf:", "WoW Executable:", "Pref. Locale:"}
	for i, inp := range a.inputs {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(labels[i]), inp.View()))
	}

	rows = append(rows, "")
	if a.fac.RunActive() {
		rows = append(rows, statusStyle.Render("Run sequence active; waiting for it to finish"))
	}
	if a.status != "" {
		rows = append(rows, statusStyle.Render(a.status))
	}
	rows = append(rows, "", a.footer())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a App) localeRow(label string, value string, ok bool) string {
	text := "(not available)"
	style := mismatchStyle
	if ok {
		text = value
		if strings.EqualFold(value, a.fac.PreferredLocale()) {
			style = matchStyle
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), style.Render(text))
}

func (a App) footer() string {
	parts := ""
	for i, b := range a.keys.ShortHelp() {
		if i > 0 {
			parts += "  "
		}
		parts += b.Help().Key + " " + b.Help().Desc
	}
	return footerStyle.Render(parts)
}

// Snapshot captures what should be persisted at shutdown.
func (a App) Snapshot() settings.Settings {
	return settings.Settings{
		LauncherPath:    a.inputs[fieldLauncher].Value(),
		ConfigPath:      a.inputs[fieldConfig].Value(),
		GamePath:        a.inputs[fieldGame].Value(),
		PreferredLocale: a.fac.PreferredLocale(),
		Geometry:        a.geometry,
	}
}
