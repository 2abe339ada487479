package keyer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/cwkeyer/internal/display"
	"github.com/verte-zerg/cwkeyer/internal/model"
	"github.com/verte-zerg/cwkeyer/internal/pot"
	"github.com/verte-zerg/cwkeyer/internal/settings"
	"github.com/verte-zerg/cwkeyer/internal/surface"
	"github.com/verte-zerg/cwkeyer/internal/tone"
)

type fakeJournal struct {
	started  int
	finished []string
	commits  [][]byte
	startErr error
}

func (j *fakeJournal) StartSession(ctx context.Context, startedAt time.Time, wpm int) (int64, error) {
	if j.startErr != nil {
		return 0, j.startErr
	}
	j.started++
	return int64(j.started), nil
}

func (j *fakeJournal) FinishSession(ctx context.Context, id int64, endedAt time.Time, wpm int, text string) error {
	j.finished = append(j.finished, text)
	return nil
}

func (j *fakeJournal) RecordCommit(ctx context.Context, at time.Time, document []byte) error {
	j.commits = append(j.commits, document)
	return nil
}

type rig struct {
	dev     *Device
	cells   *surface.Cells
	knob    *pot.Knob
	player  *tone.Logger
	journal *fakeJournal
	ctx     *settings.Context
}

func newRig(t *testing.T) *rig {
	t.Helper()
	geom := display.DefaultGeometry()
	cells := surface.NewCells(geom, 240, 135)
	ctrl, err := display.NewController(geom, cells, nil)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	sctx := settings.NewContext(filepath.Join(t.TempDir(), settings.FileName), model.DefaultSettings())
	knob := pot.NewKnob(4095, 0)
	sampler, err := pot.New(pot.DefaultConfig(), knob, nil, sctx.PotActivated, nil)
	if err != nil {
		t.Fatalf("sampler: %v", err)
	}
	player := tone.NewLogger(nil)
	journal := &fakeJournal{}
	dev, err := New(Options{
		Settings: sctx,
		Display:  ctrl,
		Sampler:  sampler,
		Player:   player,
		Journal:  journal,
	})
	if err != nil {
		t.Fatalf("device: %v", err)
	}
	dev.Start(context.Background())
	return &rig{dev: dev, cells: cells, knob: knob, player: player, journal: journal, ctx: sctx}
}

func TestNewRequiresSettingsAndDisplay(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without settings")
	}
	sctx := settings.NewContext("", model.DefaultSettings())
	if _, err := New(Options{Settings: sctx}); err == nil {
		t.Fatalf("expected error without display")
	}
}

func TestStartActivatesPotentiometer(t *testing.T) {
	r := newRig(t)
	if !r.ctx.PotActivated() {
		t.Fatalf("expected pot activated after start")
	}
	if r.journal.started != 1 {
		t.Fatalf("expected a journal session, got %d", r.journal.started)
	}
}

func TestTextEchoesToDisplay(t *testing.T) {
	r := newRig(t)
	n := r.dev.Text("cq cq\nde w1aw")
	if n != 13 {
		t.Fatalf("expected 13 characters, got %d", n)
	}
	rows := r.cells.Rows()
	if rows[0] != "CQ CQ DE W1AW" {
		t.Fatalf("unexpected first row %q", rows[0])
	}
	if r.player.Tones() != 10 {
		t.Fatalf("expected a blip per non-space character, got %d", r.player.Tones())
	}
}

func TestNoSidetoneWhenDisabled(t *testing.T) {
	r := newRig(t)
	r.ctx.Update(func(s *model.Settings) { s.HzSidetone = 0 })
	r.dev.Character('E')
	if r.player.Tones() != 0 {
		t.Fatalf("expected silence with hz_sidetone 0")
	}
}

func TestTickAppliesPotentiometerSpeed(t *testing.T) {
	r := newRig(t)
	r.knob.Set(4095)
	r.dev.Tick(1000)
	if r.dev.WPM() != 35 {
		t.Fatalf("expected 35 wpm, got %d", r.dev.WPM())
	}
	if !r.ctx.Dirty() {
		t.Fatalf("speed change should dirty the settings")
	}
}

func TestCommitJournalsDocument(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	if err := r.dev.Commit(ctx); err != nil {
		t.Fatalf("clean commit: %v", err)
	}
	if len(r.journal.commits) != 0 {
		t.Fatalf("clean commit should not be journaled")
	}
	r.ctx.SetWPM(28)
	if err := r.dev.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(r.journal.commits) != 1 {
		t.Fatalf("expected one journaled commit, got %d", len(r.journal.commits))
	}
	stored, err := settings.Load(r.ctx.Path())
	if err != nil || stored.WPM != 28 {
		t.Fatalf("expected stored wpm 28, got %d (%v)", stored.WPM, err)
	}
}

func TestCloseFinishesSession(t *testing.T) {
	r := newRig(t)
	r.dev.Text("TEST")
	if err := r.dev.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(r.journal.finished) != 1 || r.journal.finished[0] != "TEST" {
		t.Fatalf("unexpected finished sessions %v", r.journal.finished)
	}
	if err := r.dev.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if len(r.journal.finished) != 1 {
		t.Fatalf("session finished twice")
	}
}

func TestJournalFailureIsNotFatal(t *testing.T) {
	geom := display.DefaultGeometry()
	ctrl, err := display.NewController(geom, surface.NewCells(geom, 240, 135), nil)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	var logs []string
	dev, err := New(Options{
		Settings: settings.NewContext("", model.DefaultSettings()),
		Display:  ctrl,
		Journal:  &fakeJournal{startErr: errors.New("disk full")},
		Logf:     func(format string, args ...any) { logs = append(logs, format) },
	})
	if err != nil {
		t.Fatalf("device: %v", err)
	}
	dev.Start(context.Background())
	dev.Character('K')
	if err := dev.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(logs) == 0 {
		t.Fatalf("expected the journal failure to be logged")
	}
}

func TestClearResetsDisplay(t *testing.T) {
	r := newRig(t)
	r.dev.Text("ABC")
	r.dev.Clear()
	if r.dev.Display().Text() != "" {
		t.Fatalf("expected empty display")
	}
	if r.dev.Chars() != 3 {
		t.Fatalf("clear should not reset the session count")
	}
}
