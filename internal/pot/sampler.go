// Package pot turns a speed potentiometer into debounced WPM changes.
//
// A poll reads the ADC at most once per interval. The raw value must move
// by more than a noise threshold before it is remapped onto the WPM range,
// and the remapped value must move by more than a change threshold before
// the speed callback runs.
package pot

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
)

// Config holds the sampler tunables.
type Config struct {
	FullScale      int32 // highest raw ADC reading
	NoiseThreshold int32 // raw movement ignored as jitter
	// ChangeThresholdTenths is the mapped WPM movement, in tenths of a
	// WPM, that must be exceeded before a new speed is emitted.
	ChangeThresholdTenths int
	IntervalMs            int64
	LowWPM                int
	HighWPM               int
	AlwaysOn              bool
}

// DefaultConfig matches a 12-bit ADC mapped onto 13..35 WPM.
func DefaultConfig() Config {
	return Config{
		FullScale:             4095,
		NoiseThreshold:        200,
		ChangeThresholdTenths: 9,
		IntervalMs:            250,
		LowWPM:                13,
		HighWPM:               35,
	}
}

// Validate rejects tunables the arithmetic cannot use.
func (c Config) Validate() error {
	switch {
	case c.FullScale <= 0:
		return errors.New("pot: full scale must be positive")
	case c.NoiseThreshold < 0:
		return errors.New("pot: noise threshold must not be negative")
	case c.ChangeThresholdTenths < 0:
		return errors.New("pot: change threshold must not be negative")
	case c.IntervalMs < 0:
		return errors.New("pot: poll interval must not be negative")
	case c.LowWPM <= 0 || c.HighWPM <= 0:
		return fmt.Errorf("pot: wpm bounds must be positive (%d..%d)", c.LowWPM, c.HighWPM)
	}
	return nil
}

// ADC is the analog input the potentiometer wiper is connected to.
// analog.PinADC satisfies it.
type ADC interface {
	Read() (analog.Sample, error)
}

// EnablePin gates the potentiometer. A High reading means the feature is
// switched off. gpio.PinIn satisfies it.
type EnablePin interface {
	Read() gpio.Level
}

// State is the hysteresis memory carried across polls.
type State struct {
	LastStableWPM  int
	LastRawReading int32
	LowWPM         int
	HighWPM        int
	LastSampleMs   int64
}

// Sampler polls a potentiometer. It is safe for concurrent use.
type Sampler struct {
	mu        sync.Mutex
	cfg       Config
	adc       ADC
	enable    EnablePin
	activated func() bool
	logf      func(format string, args ...any)
	state     State
	sampled   bool
}

// New returns a sampler. enable may be nil when no enable pin is fitted.
// activated reports the persisted feature flag; nil means never activated,
// so only AlwaysOn polls.
func New(cfg Config, adc ADC, enable EnablePin, activated func() bool, logf func(string, ...any)) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if adc == nil {
		return nil, errors.New("pot: adc is required")
	}
	if activated == nil {
		activated = func() bool { return false }
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Sampler{
		cfg:       cfg,
		adc:       adc,
		enable:    enable,
		activated: activated,
		logf:      logf,
		state: State{
			LowWPM:  cfg.LowWPM,
			HighWPM: cfg.HighWPM,
		},
	}, nil
}

// Init takes the first reading and seeds the hysteresis memory with it.
// It returns the mapped WPM. A failed read leaves the state at the low
// bound and is returned to the caller.
func (s *Sampler) Init() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sample, err := s.adc.Read()
	if err != nil {
		s.state.LastStableWPM = s.cfg.LowWPM
		return s.cfg.LowWPM, fmt.Errorf("pot: initial read: %w", err)
	}
	raw := s.clamp(sample.Raw)
	s.state.LastRawReading = raw
	s.state.LastStableWPM = s.mapRaw(raw)
	return s.state.LastStableWPM, nil
}

// Poll evaluates one sample when the interval has elapsed and calls setWPM
// at most once.
func (s *Sampler) Poll(nowMs int64, setWPM func(int)) {
	s.mu.Lock()
	wpm, changed := s.poll(nowMs)
	s.mu.Unlock()
	if changed && setWPM != nil {
		setWPM(wpm)
	}
}

func (s *Sampler) poll(nowMs int64) (int, bool) {
	if !s.cfg.AlwaysOn && !s.activated() {
		return 0, false
	}
	if s.sampled && nowMs-s.state.LastSampleMs <= s.cfg.IntervalMs {
		return 0, false
	}
	if s.enable != nil && s.enable.Read() == gpio.High {
		return 0, false
	}

	sample, err := s.adc.Read()
	s.state.LastSampleMs = nowMs
	s.sampled = true
	if err != nil {
		s.logf("pot: read failed: %v", err)
		return 0, false
	}

	raw := s.clamp(sample.Raw)
	if abs32(raw-s.state.LastRawReading) <= s.cfg.NoiseThreshold {
		return 0, false
	}
	s.state.LastRawReading = raw

	mapped := s.mapRaw(raw)
	if absInt(mapped-s.state.LastStableWPM)*10 <= s.cfg.ChangeThresholdTenths {
		return 0, false
	}
	s.state.LastStableWPM = mapped
	return mapped, true
}

// State returns a copy of the hysteresis memory.
func (s *Sampler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the tunables in use.
func (s *Sampler) Config() Config {
	return s.cfg
}

func (s *Sampler) clamp(raw int32) int32 {
	if raw < 0 {
		return 0
	}
	if raw > s.cfg.FullScale {
		return s.cfg.FullScale
	}
	return raw
}

func (s *Sampler) mapRaw(raw int32) int {
	return int(mapRange(int64(raw), 0, int64(s.cfg.FullScale), int64(s.cfg.LowWPM), int64(s.cfg.HighWPM)))
}

// mapRange rescales x linearly with integer division truncating toward zero.
func mapRange(x, inMin, inMax, outMin, outMax int64) int64 {
	if inMax == inMin {
		return outMin
	}
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
