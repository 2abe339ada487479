package pot

import (
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// Knob is a software potentiometer for hosts without an ADC. Readings are
// reported against a 3.3 V reference.
type Knob struct {
	mu        sync.Mutex
	raw       int32
	fullScale int32
}

// NewKnob returns a knob resting at raw on a 0..fullScale range.
func NewKnob(fullScale, raw int32) *Knob {
	k := &Knob{fullScale: fullScale}
	k.Set(raw)
	return k
}

// Read implements ADC.
func (k *Knob) Read() (analog.Sample, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return analog.Sample{V: k.volts(k.raw), Raw: k.raw}, nil
}

// Range mirrors analog.PinADC.
func (k *Knob) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{V: 0, Raw: 0}, analog.Sample{V: k.volts(k.fullScale), Raw: k.fullScale}
}

// Set moves the wiper to raw, clamped to the range.
func (k *Knob) Set(raw int32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.raw = clampRaw(raw, k.fullScale)
}

// Turn moves the wiper by delta and returns the new position.
func (k *Knob) Turn(delta int32) int32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.raw = clampRaw(k.raw+delta, k.fullScale)
	return k.raw
}

// Raw returns the wiper position.
func (k *Knob) Raw() int32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.raw
}

func (k *Knob) volts(raw int32) physic.ElectricPotential {
	if k.fullScale <= 0 {
		return 0
	}
	return physic.ElectricPotential(int64(raw) * int64(3300*physic.MilliVolt) / int64(k.fullScale))
}

func clampRaw(raw, fullScale int32) int32 {
	if raw < 0 {
		return 0
	}
	if raw > fullScale {
		return fullScale
	}
	return raw
}
