package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/cwkeyer/internal/display"
	"github.com/verte-zerg/cwkeyer/internal/keyer"
	"github.com/verte-zerg/cwkeyer/internal/model"
	"github.com/verte-zerg/cwkeyer/internal/pot"
	"github.com/verte-zerg/cwkeyer/internal/settings"
	"github.com/verte-zerg/cwkeyer/internal/surface"
)

func newTestModel(t *testing.T, practice func() string) *Model {
	t.Helper()
	geom := display.DefaultGeometry()
	cells := surface.NewCells(geom, 240, 135)
	ctrl, err := display.NewController(geom, cells, nil)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	sctx := settings.NewContext(filepath.Join(t.TempDir(), settings.FileName), model.DefaultSettings())
	knob := pot.NewKnob(4095, 0)
	cfg := pot.DefaultConfig()
	cfg.AlwaysOn = true
	sampler, err := pot.New(cfg, knob, nil, nil, nil)
	if err != nil {
		t.Fatalf("sampler: %v", err)
	}
	dev, err := keyer.New(keyer.Options{Settings: sctx, Display: ctrl, Sampler: sampler})
	if err != nil {
		t.Fatalf("device: %v", err)
	}
	dev.Start(context.Background())
	return NewModel(Options{Device: dev, Cells: cells, Knob: knob, KnobStep: 4095, Practice: practice})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTypedKeysReachTheScreen(t *testing.T) {
	m := newTestModel(t, nil)
	m.Update(runes("cq"))
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m.Update(runes("de"))
	row := m.cells.Rows()[0]
	if !strings.HasPrefix(row, "CQ DE") {
		t.Fatalf("unexpected first row %q", row)
	}
	if !strings.Contains(m.View(), "CQ DE") {
		t.Fatalf("view does not show the screen")
	}
}

func TestKnobAndTickChangeSpeed(t *testing.T) {
	m := newTestModel(t, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tickMsg(m.start.Add(time.Second)))
	if got := m.dev.WPM(); got != 35 {
		t.Fatalf("expected 35 wpm after turning the knob fully, got %d", got)
	}
	if !strings.Contains(m.renderFooter(), "35 WPM") || !strings.Contains(m.renderFooter(), "unsaved") {
		t.Fatalf("footer missing speed or dirty marker: %s", m.renderFooter())
	}
}

func TestCommitSavesSettings(t *testing.T) {
	m := newTestModel(t, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.status != "settings unchanged" {
		t.Fatalf("unexpected status %q", m.status)
	}
	m.dev.Settings().SetWPM(31)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.status != "settings saved" {
		t.Fatalf("unexpected status %q", m.status)
	}
	stored, err := settings.Load(m.dev.Settings().Path())
	if err != nil || stored.WPM != 31 {
		t.Fatalf("expected saved wpm 31, got %d (%v)", stored.WPM, err)
	}
}

func TestSendLine(t *testing.T) {
	m := newTestModel(t, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if !m.sending {
		t.Fatalf("tab should open the send line")
	}
	m.Update(runes("qrz?"))
	if m.dev.Chars() != 0 {
		t.Fatalf("typing into the send line should not key")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.sending {
		t.Fatalf("enter should close the send line")
	}
	if got := m.dev.Display().Text(); got != "QRZ?" {
		t.Fatalf("expected QRZ? on screen, got %q", got)
	}
}

func TestEscCancelsSendLineBeforeQuitting(t *testing.T) {
	m := newTestModel(t, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.sending || cmd != nil {
		t.Fatalf("esc should only cancel the send line")
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("esc should quit when not sending")
	}
}

func TestClearKey(t *testing.T) {
	m := newTestModel(t, nil)
	m.Update(runes("abc"))
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.dev.Display().Text() != "" {
		t.Fatalf("expected empty display")
	}
}

func TestPracticePlaysAtKeyingSpeed(t *testing.T) {
	m := newTestModel(t, func() string { return "EE " })
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	if !m.playing {
		t.Fatalf("ctrl+p should start playback")
	}
	// 20 wpm is 600 ms per character.
	m.step(1)
	m.step(300)
	if got := m.dev.Display().Text(); got != "E" {
		t.Fatalf("expected one character after 300ms, got %q", got)
	}
	m.step(601)
	if got := m.dev.Display().Text(); got != "EE" {
		t.Fatalf("expected two characters after 600ms, got %q", got)
	}
}

func TestCharMs(t *testing.T) {
	if charMs(20) != 600 || charMs(0) != 1000 {
		t.Fatalf("unexpected character timing %d/%d", charMs(20), charMs(0))
	}
}
