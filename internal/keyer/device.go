// Package keyer wires the settings, display, potentiometer, sidetone and
// journal into one device loop.
package keyer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/verte-zerg/cwkeyer/internal/display"
	"github.com/verte-zerg/cwkeyer/internal/model"
	"github.com/verte-zerg/cwkeyer/internal/pot"
	"github.com/verte-zerg/cwkeyer/internal/settings"
	"github.com/verte-zerg/cwkeyer/internal/tone"
)

// Journal records sessions and settings commits. *store.Store satisfies it.
type Journal interface {
	StartSession(ctx context.Context, startedAt time.Time, wpm int) (int64, error)
	FinishSession(ctx context.Context, id int64, endedAt time.Time, wpm int, text string) error
	RecordCommit(ctx context.Context, at time.Time, document []byte) error
}

// Options configures a Device. Settings and Display are required.
type Options struct {
	Settings *settings.Context
	Display  *display.Controller
	Sampler  *pot.Sampler
	Player   tone.Player
	Journal  Journal
	Logf     func(format string, args ...any)
	Now      func() time.Time
}

// Device is the keyer control loop. All methods are synchronous and
// serialized by the device lock.
type Device struct {
	mu       sync.Mutex
	settings *settings.Context
	display  *display.Controller
	sampler  *pot.Sampler
	player   tone.Player
	journal  Journal
	logf     func(format string, args ...any)
	now      func() time.Time

	sessionID   int64
	sessionOpen bool
	session     strings.Builder
	chars       int
}

// New validates opts and returns a device.
func New(opts Options) (*Device, error) {
	if opts.Settings == nil {
		return nil, errors.New("keyer: settings context is required")
	}
	if opts.Display == nil {
		return nil, errors.New("keyer: display controller is required")
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	if opts.Player == nil {
		opts.Player = tone.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Device{
		settings: opts.Settings,
		display:  opts.Display,
		sampler:  opts.Sampler,
		player:   opts.Player,
		journal:  opts.Journal,
		logf:     opts.Logf,
		now:      opts.Now,
	}, nil
}

// Start initialises the potentiometer and opens a journal session. Journal
// failures are logged and keying continues without a journal.
func (d *Device) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sampler != nil {
		wpm, err := d.sampler.Init()
		if err != nil {
			d.logf("keyer: potentiometer disabled: %v", err)
		} else {
			d.settings.SetPotActivated(true)
			d.logf("keyer: potentiometer at %d wpm", wpm)
		}
	}
	if d.journal != nil && !d.sessionOpen {
		id, err := d.journal.StartSession(ctx, d.now(), d.settings.Snapshot().WPM)
		if err != nil {
			d.logf("keyer: journal session not started: %v", err)
			return
		}
		d.sessionID = id
		d.sessionOpen = true
	}
}

// Character echoes one decoded character and plays its sidetone blip.
func (d *Device) Character(ch rune) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.character(ch)
}

// Text echoes every character of s. Letters are uppercased and line
// breaks become spaces.
func (d *Device) Text(s string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range s {
		switch {
		case r == '\r':
			continue
		case r == '\n' || r == '\t':
			r = ' '
		case !unicode.IsPrint(r):
			continue
		}
		d.character(unicode.ToUpper(r))
		n++
	}
	return n
}

func (d *Device) character(ch rune) {
	d.display.OnCharacter(ch)
	d.session.WriteRune(ch)
	d.chars++
	snap := d.settings.Snapshot()
	if snap.HzSidetone > 0 && ch != ' ' {
		if err := d.player.Tone(snap.HzSidetone, model.DitMs(snap.WPM)); err != nil {
			d.logf("keyer: sidetone failed: %v", err)
		}
	}
}

// Clear empties the display.
func (d *Device) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.display.Reset()
}

// Tick polls the potentiometer. A debounced change becomes the new speed.
func (d *Device) Tick(nowMs int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sampler == nil {
		return
	}
	d.sampler.Poll(nowMs, func(wpm int) {
		d.settings.SetWPM(wpm)
		d.logf("keyer: speed %d wpm", wpm)
	})
}

// WPM returns the current keying speed.
func (d *Device) WPM() int {
	return d.settings.Snapshot().WPM
}

// Chars returns how many characters were echoed since Start.
func (d *Device) Chars() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chars
}

// Commit saves dirty settings and journals the saved document.
func (d *Device) Commit(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, err := d.settings.Commit()
	if err != nil {
		return err
	}
	if doc == nil || d.journal == nil {
		return nil
	}
	if err := d.journal.RecordCommit(ctx, d.now(), doc); err != nil {
		d.logf("keyer: commit not journaled: %v", err)
	}
	return nil
}

// Close silences the sidetone and finishes the journal session.
func (d *Device) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	if err := d.player.NoTone(); err != nil {
		errs = append(errs, err)
	}
	if d.sessionOpen {
		if err := d.journal.FinishSession(ctx, d.sessionID, d.now(), d.settings.Snapshot().WPM, d.session.String()); err != nil {
			errs = append(errs, err)
		}
		d.sessionOpen = false
	}
	return errors.Join(errs...)
}

// Settings returns the settings context.
func (d *Device) Settings() *settings.Context { return d.settings }

// Display returns the display controller.
func (d *Device) Display() *display.Controller { return d.display }

// Sampler returns the potentiometer sampler, or nil.
func (d *Device) Sampler() *pot.Sampler { return d.sampler }
