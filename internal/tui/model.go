// Package tui provides the Bubble Tea keyer emulator.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/cwkeyer/internal/keyer"
	"github.com/verte-zerg/cwkeyer/internal/pot"
	"github.com/verte-zerg/cwkeyer/internal/surface"
)

// TickInterval is the emulated main loop period.
const TickInterval = 10 * time.Millisecond

// Options configures the emulator.
type Options struct {
	Device *keyer.Device
	Cells  *surface.Cells
	// Knob is the virtual potentiometer turned by the arrow keys. nil
	// disables the arrows.
	Knob     *pot.Knob
	KnobStep int32
	// Practice returns text to play at the keying speed. nil disables
	// playback.
	Practice func() string
}

type tickMsg time.Time

// Model implements the Bubble Tea emulator UI.
type Model struct {
	dev      *keyer.Device
	cells    *surface.Cells
	knob     *pot.Knob
	knobStep int32
	practice func() string

	keys  keyMap
	help  help.Model
	input textinput.Model

	sending bool
	width   int
	height  int
	status  string

	start   time.Time
	queue   []rune
	nextAt  int64
	playing bool
}

// NewModel constructs the emulator model.
func NewModel(opts Options) *Model {
	in := textinput.New()
	in.Placeholder = "text to send"
	in.CharLimit = 256
	in.Prompt = "send> "
	step := opts.KnobStep
	if step <= 0 {
		step = 64
	}
	return &Model{
		dev:      opts.Device,
		cells:    opts.Cells,
		knob:     opts.Knob,
		knobStep: step,
		practice: opts.Practice,
		keys:     defaultKeyMap(),
		help:     help.New(),
		input:    in,
		start:    time.Now(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		m.step(time.Time(msg).Sub(m.start).Milliseconds())
		return m, tick()
	case tea.KeyMsg:
		if m.sending {
			return m.updateSending(msg)
		}
		return m.updateKeying(msg)
	default:
		return m, nil
	}
}

func (m *Model) updateSending(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		n := m.dev.Text(m.input.Value())
		m.status = fmt.Sprintf("sent %d characters", n)
		m.stopSending()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.stopSending()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateKeying(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Faster):
		m.turnKnob(m.knobStep)
	case key.Matches(msg, m.keys.Slower):
		m.turnKnob(-m.knobStep)
	case key.Matches(msg, m.keys.Commit):
		m.commit()
	case key.Matches(msg, m.keys.Clear):
		m.dev.Clear()
		m.status = "screen cleared"
	case key.Matches(msg, m.keys.Send):
		m.sending = true
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Play):
		m.togglePlay()
	case msg.Type == tea.KeySpace:
		m.dev.Character(' ')
	case msg.Type == tea.KeyRunes && !msg.Alt:
		m.dev.Text(string(msg.Runes))
	}
	return m, nil
}

func (m *Model) stopSending() {
	m.sending = false
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) turnKnob(delta int32) {
	if m.knob == nil {
		m.status = "no potentiometer"
		return
	}
	raw := m.knob.Turn(delta)
	m.status = fmt.Sprintf("knob %d", raw)
}

func (m *Model) commit() {
	if !m.dev.Settings().Dirty() {
		m.status = "settings unchanged"
		return
	}
	if err := m.dev.Commit(context.Background()); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	m.status = "settings saved"
}

func (m *Model) togglePlay() {
	if m.practice == nil {
		m.status = "no practice text"
		return
	}
	m.playing = !m.playing
	if !m.playing {
		m.queue = nil
		m.status = "playback stopped"
		return
	}
	m.status = "playing practice"
}

// step runs one pass of the device loop at nowMs.
func (m *Model) step(nowMs int64) {
	m.dev.Tick(nowMs)
	if !m.playing {
		return
	}
	if len(m.queue) == 0 {
		m.queue = []rune(m.practice())
		m.nextAt = nowMs
		if len(m.queue) == 0 {
			m.playing = false
			return
		}
	}
	if nowMs < m.nextAt {
		return
	}
	m.dev.Character(m.queue[0])
	m.queue = m.queue[1:]
	m.nextAt = nowMs + charMs(m.dev.WPM())
}

// charMs is the average character time at wpm: a PARIS word is fifty
// dits and five characters.
func charMs(wpm int) int64 {
	if wpm <= 0 {
		return 1000
	}
	return int64(12000 / wpm)
}
