// Package tone generates the keyer sidetone.
package tone

import (
	"sync"
)

// Player starts and stops a square-wave tone. A durationMs of zero or less
// plays until NoTone.
type Player interface {
	Tone(freqHz, durationMs int) error
	NoTone() error
}

// Logger is the Player for targets without a sounder. It only records and
// logs the requests.
type Logger struct {
	mu      sync.Mutex
	logf    func(format string, args ...any)
	playing bool
	freqHz  int
	tones   int
}

var _ Player = (*Logger)(nil)

// NewLogger returns a silent player. logf may be nil.
func NewLogger(logf func(format string, args ...any)) *Logger {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Logger{logf: logf}
}

// Tone implements Player.
func (l *Logger) Tone(freqHz, durationMs int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.playing = freqHz > 0
	l.freqHz = freqHz
	l.tones++
	l.logf("tone: %d Hz for %d ms", freqHz, durationMs)
	return nil
}

// NoTone implements Player.
func (l *Logger) NoTone() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.playing = false
	return nil
}

// Playing reports whether a tone is sounding and at what pitch.
func (l *Logger) Playing() (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.playing, l.freqHz
}

// Tones counts Tone calls.
func (l *Logger) Tones() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tones
}
