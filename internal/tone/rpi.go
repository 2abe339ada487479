package tone

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

// CycleLen is the PWM period in clock ticks. The PWM clock runs at
// freqHz*CycleLen so one period is one tone cycle.
const CycleLen uint32 = 64

// MaxVolume is the sidetone_volume value that gives a 50% duty cycle.
const MaxVolume = 20

// pwmPin is the part of rpio.Pin the sidetone drives.
type pwmPin interface {
	Pwm()
	Freq(freq int)
	DutyCycle(dutyLen, cycleLen uint32)
}

// RPi plays the sidetone on a Raspberry Pi hardware PWM pin (BCM 12, 13,
// 18 or 19).
type RPi struct {
	mu     sync.Mutex
	pin    pwmPin
	volume int
	timer  *time.Timer
	// gen identifies the current stop timer; older callbacks see a
	// different value and do nothing.
	gen    uint64
	close  func() error
	after  func(time.Duration, func()) *time.Timer
}

var _ Player = (*RPi)(nil)

// OpenRPi maps the GPIO registers and configures bcmPin for PWM.
func OpenRPi(bcmPin, volume int) (*RPi, error) {
	switch bcmPin {
	case 12, 13, 18, 19:
	default:
		return nil, fmt.Errorf("tone: BCM %d has no hardware PWM", bcmPin)
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open rpio: %w", err)
	}
	pin := rpio.Pin(bcmPin)
	r := newRPi(pin, volume, rpio.Close)
	pin.Pwm()
	pin.DutyCycle(0, CycleLen)
	return r, nil
}

func newRPi(pin pwmPin, volume int, closeFn func() error) *RPi {
	return &RPi{
		pin:    pin,
		volume: volume,
		close:  closeFn,
		after:  time.AfterFunc,
	}
}

// SetVolume changes the duty cycle used by later tones.
func (r *RPi) SetVolume(volume int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = volume
}

// Tone implements Player.
func (r *RPi) Tone(freqHz, durationMs int) error {
	if freqHz <= 0 {
		return r.NoTone()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
	r.pin.Freq(freqHz * int(CycleLen))
	r.pin.DutyCycle(dutyFor(r.volume, CycleLen), CycleLen)
	if durationMs > 0 {
		gen := r.gen
		r.timer = r.after(time.Duration(durationMs)*time.Millisecond, func() {
			r.expire(gen)
		})
	}
	return nil
}

// NoTone implements Player.
func (r *RPi) NoTone() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
	r.pin.DutyCycle(0, CycleLen)
	return nil
}

// Close silences the pin and releases the GPIO mapping.
func (r *RPi) Close() error {
	if err := r.NoTone(); err != nil {
		return err
	}
	if r.close == nil {
		return nil
	}
	if err := r.close(); err != nil {
		return errors.Join(errors.New("tone: failed to close rpio"), err)
	}
	return nil
}

// expire silences the pin unless another tone or NoTone replaced the
// timer that fired.
func (r *RPi) expire(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	r.timer = nil
	r.pin.DutyCycle(0, CycleLen)
}

func (r *RPi) stopTimerLocked() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// dutyFor scales volume 0..MaxVolume onto 0..50% of the cycle.
func dutyFor(volume int, cycleLen uint32) uint32 {
	if volume <= 0 {
		return 0
	}
	if volume > MaxVolume {
		volume = MaxVolume
	}
	return uint32(volume) * (cycleLen / 2) / MaxVolume
}
