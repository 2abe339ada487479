// Package config provides configuration helpers and TOML parsing.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/cwkeyer/internal/display"
	"github.com/verte-zerg/cwkeyer/internal/pot"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Display       DisplayConfig  `toml:"display"`
	Potentiometer PotConfig      `toml:"potentiometer"`
	Sidetone      SidetoneConfig `toml:"sidetone"`
	Paths         PathsConfig    `toml:"paths"`
	Practice      PracticeConfig `toml:"practice"`
}

// DisplayConfig maps screen geometry.
type DisplayConfig struct {
	Rows       *int   `toml:"rows"`
	Cols       *int   `toml:"cols"`
	RowOffsets *[]int `toml:"row-offsets"`
	Column     *int   `toml:"column"`
	Width      *int   `toml:"width"`
	Height     *int   `toml:"height"`
	Scale      *int   `toml:"scale"`
}

// PotConfig maps potentiometer tunables.
type PotConfig struct {
	FullScale       *int  `toml:"full-scale"`
	NoiseThreshold  *int  `toml:"noise-threshold"`
	ChangeThreshold *int  `toml:"change-threshold-tenths"`
	IntervalMs      *int  `toml:"interval-ms"`
	LowWPM          *int  `toml:"low-wpm"`
	HighWPM         *int  `toml:"high-wpm"`
	AlwaysOn        *bool `toml:"always-on"`
}

// SidetoneConfig selects the sidetone output.
type SidetoneConfig struct {
	Backend *string `toml:"backend"`
	Pin     *int    `toml:"pin"`
}

// PathsConfig overrides storage locations.
type PathsConfig struct {
	Settings *string `toml:"settings"`
	DB       *string `toml:"db"`
	WordList *string `toml:"wordlist"`
}

// PracticeConfig maps feed defaults.
type PracticeConfig struct {
	Groups    *int    `toml:"groups"`
	GroupSize *int    `toml:"group-size"`
	Charset   *string `toml:"charset"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Tunables are the contract parameters of the display and potentiometer.
type Tunables struct {
	Geometry display.Geometry
	Pot      pot.Config
	WidthPx  int
	HeightPx int
	Scale    int
}

// DefaultTunables returns a 4x13 display on a 240x135 panel and a 12-bit
// potentiometer.
func DefaultTunables() Tunables {
	return Tunables{
		Geometry: display.DefaultGeometry(),
		Pot:      pot.DefaultConfig(),
		WidthPx:  240,
		HeightPx: 135,
		Scale:    2,
	}
}

// Apply overlays every value set in the file onto t.
func (fc FileConfig) Apply(t *Tunables) {
	d := fc.Display
	setInt(&t.Geometry.Rows, d.Rows)
	setInt(&t.Geometry.Cols, d.Cols)
	setInt(&t.Geometry.Column, d.Column)
	setInt(&t.WidthPx, d.Width)
	setInt(&t.HeightPx, d.Height)
	setInt(&t.Scale, d.Scale)
	if d.RowOffsets != nil {
		t.Geometry.RowOffsets = append([]int(nil), (*d.RowOffsets)...)
	} else if d.Rows != nil && *d.Rows != len(t.Geometry.RowOffsets) && *d.Rows > 0 {
		t.Geometry.RowOffsets = display.EvenRowOffsets(*d.Rows, 15, t.HeightPx)
	}

	p := fc.Potentiometer
	if p.FullScale != nil {
		t.Pot.FullScale = int32(*p.FullScale)
	}
	if p.NoiseThreshold != nil {
		t.Pot.NoiseThreshold = int32(*p.NoiseThreshold)
	}
	setInt(&t.Pot.ChangeThresholdTenths, p.ChangeThreshold)
	if p.IntervalMs != nil {
		t.Pot.IntervalMs = int64(*p.IntervalMs)
	}
	setInt(&t.Pot.LowWPM, p.LowWPM)
	setInt(&t.Pot.HighWPM, p.HighWPM)
	if p.AlwaysOn != nil {
		t.Pot.AlwaysOn = *p.AlwaysOn
	}
}

// Validate rejects tunables that cannot drive the display or sampler.
func (t Tunables) Validate() error {
	if err := t.Geometry.Validate(); err != nil {
		return err
	}
	if err := t.Pot.Validate(); err != nil {
		return err
	}
	if t.WidthPx <= 0 || t.HeightPx <= 0 {
		return errors.New("config: panel size must be positive")
	}
	if t.Scale <= 0 {
		return errors.New("config: scale must be positive")
	}
	return nil
}

func setInt(target, value *int) {
	if value != nil {
		*target = *value
	}
}
