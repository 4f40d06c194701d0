package app

import (
	"fmt"
	"strings"

	"routinetimer/internal/app/sanitizer"
	"routinetimer/internal/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultWidth     = 60
	maxProgressWidth = 48
	maxTitleWidth    = 40
)

type Options struct {
	// Routine, when set, is started (by id or name) as soon as the player opens.
	Routine string
}

type Model struct {
	api      ExecutionAPI
	keys     keyMap
	help     help.Model
	progress progress.Model
	launch   string

	state     types.ExecutionState
	stats     types.HistoryStats
	loaded    bool
	completed string
	status    string
	statusErr bool

	stream       <-chan types.ExecutionEvent
	cancelStream func()
	width        int
}

func NewModel(api ExecutionAPI, opts Options) Model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = maxProgressWidth
	keys := defaultKeyMap()
	keys.setActive(false)
	return Model{
		api:      api,
		keys:     keys,
		help:     help.New(),
		progress: bar,
		launch:   strings.TrimSpace(opts.Routine),
		width:    defaultWidth,
	}
}

func Run(api ExecutionAPI, opts Options) error {
	model := NewModel(api, opts)
	p := tea.NewProgram(&model, tea.WithAltScreen())
	_, err := p.Run()
	model.stopStream()
	return err
}

func (m *Model) Init() tea.Cmd {
	launch := consumeAutoStartCmd(m.api)
	if m.launch != "" {
		launch = startRoutineCmd(m.api, m.launch)
	}
	return tea.Batch(fetchExecutionCmd(m.api), openEventStreamCmd(m.api), launch)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case executionMsg:
		if msg.err != nil {
			m.setError(msg.action + " failed: " + msg.err.Error())
			return m, nil
		}
		if msg.resp != nil {
			if msg.action == actionStart {
				m.completed = ""
			}
			m.applyState(msg.resp.State, msg.resp.Stats)
		}
		return m, nil
	case autoStartMsg:
		if msg.err != nil {
			m.setError("auto start check failed: " + msg.err.Error())
			return m, nil
		}
		if msg.resp == nil || !msg.resp.Pending || msg.resp.Routine == nil {
			return m, nil
		}
		m.setStatus("auto start: " + sanitizer.Label(msg.resp.Routine.Name, maxTitleWidth))
		return m, startRoutineCmd(m.api, msg.resp.Routine.ID)
	case eventStreamMsg:
		if msg.err != nil {
			m.setError("event stream: " + msg.err.Error())
			return m, retryStreamCmd()
		}
		m.stopStream()
		m.stream = msg.ch
		m.cancelStream = msg.cancel
		return m, waitEventCmd(m.stream)
	case executionEventMsg:
		m.applyEvent(msg.event)
		return m, waitEventCmd(m.stream)
	case eventStreamClosedMsg:
		m.stopStream()
		return m, retryStreamCmd()
	case streamRetryMsg:
		return m, openEventStreamCmd(m.api)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Leave):
		m.stopStream()
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Toggle):
		if m.state.IsRunning {
			return controlCmd(m.api, actionPause)
		}
		return controlCmd(m.api, actionResume)
	case key.Matches(msg, m.keys.Skip):
		return controlCmd(m.api, actionSkip)
	case key.Matches(msg, m.keys.QuitRoutine):
		return controlCmd(m.api, actionQuit)
	case key.Matches(msg, m.keys.Copy):
		m.copyStepLine()
	}
	return nil
}

func (m *Model) applyState(state types.ExecutionState, stats types.HistoryStats) {
	m.state = state
	m.stats = stats
	m.loaded = true
	m.keys.setActive(state.Active())
}

func (m *Model) applyEvent(event types.ExecutionEvent) {
	m.applyState(event.State, event.Stats)
	switch event.Kind {
	case types.ExecutionEventStarted:
		m.completed = ""
	case types.ExecutionEventCompleted:
		if event.Run != nil {
			m.completed = event.Run.RoutineName
		}
		m.setStatus("")
	case types.ExecutionEventQuit:
		m.completed = ""
		m.setStatus("routine ended early")
	}
	if event.Warning != "" {
		m.setError(event.Warning)
	}
}

func (m *Model) copyStepLine() {
	line := m.stepLine()
	if line == "" {
		return
	}
	method, err := CopyText(line)
	if err != nil {
		m.setError("copy failed: " + err.Error())
		return
	}
	m.setStatus("copied (" + method.String() + ")")
}

// stepLine is the plain one-line description of the current step.
func (m *Model) stepLine() string {
	step, ok := m.state.CurrentStep()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s: step %d of %d, %s, %s left",
		sanitizer.Label(m.state.Routine.Name, 0),
		m.state.StepIndex+1, len(m.state.Routine.Steps),
		sanitizer.Label(step.Title, 0),
		formatClock(m.state.SecondsRemaining))
}

func (m *Model) setStatus(status string) {
	m.status = status
	m.statusErr = false
}

func (m *Model) setError(status string) {
	m.status = status
	m.statusErr = true
}

func (m *Model) resize(width int) {
	if width <= 0 {
		return
	}
	m.width = width
	m.help.Width = width
	m.progress.Width = min(maxProgressWidth, max(10, width-12))
}

func (m *Model) stopStream() {
	if m.cancelStream != nil {
		m.cancelStream()
	}
	m.cancelStream = nil
	m.stream = nil
}
