package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/cwkeyer/internal/config"
	"github.com/verte-zerg/cwkeyer/internal/display"
	"github.com/verte-zerg/cwkeyer/internal/keyer"
	"github.com/verte-zerg/cwkeyer/internal/pot"
	"github.com/verte-zerg/cwkeyer/internal/settings"
	"github.com/verte-zerg/cwkeyer/internal/store"
	"github.com/verte-zerg/cwkeyer/internal/surface"
	"github.com/verte-zerg/cwkeyer/internal/tone"
)

type rigOptions struct {
	// pixels adds a framebuffer mirror of the screen.
	pixels bool
	logf   func(format string, args ...any)
}

// rig is an emulated keyer: a terminal grid (and optionally a framebuffer)
// for the display, a virtual knob for the potentiometer, the configured
// sidetone and the journal.
type rig struct {
	tunables config.Tunables
	dev      *keyer.Device
	cells    *surface.Cells
	pixels   *surface.Pixels
	knob     *pot.Knob
	store    *store.Store
	rpi      *tone.RPi
}

func openRig(ctx context.Context, cmd *cobra.Command, fileCfg config.FileConfig, opts rigOptions) (*rig, error) {
	logf := opts.logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	tun := config.DefaultTunables()
	fileCfg.Apply(&tun)
	if err := tun.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	r := &rig{tunables: tun}
	r.cells = surface.NewCells(tun.Geometry, tun.WidthPx, tun.HeightPx)
	var surf display.Surface = r.cells
	if opts.pixels {
		pcfg := surface.DefaultPixelsConfig()
		pcfg.Width = tun.WidthPx
		pcfg.Height = tun.HeightPx
		pcfg.Scale = tun.Scale
		px, err := surface.NewPixels(pcfg)
		if err != nil {
			return nil, err
		}
		r.pixels = px
		surf = surface.NewMirror(r.cells, px)
	}
	ctrl, err := display.NewController(tun.Geometry, surf, logf)
	if err != nil {
		return nil, err
	}

	sctx := openSettings(resolveSettingsPath(cmd, fileCfg), logErrln)
	r.knob = pot.NewKnob(tun.Pot.FullScale, knobRawFor(sctx.Snapshot().WPM, tun.Pot))
	sampler, err := pot.New(tun.Pot, r.knob, nil, sctx.PotActivated, logf)
	if err != nil {
		return nil, err
	}

	player, err := r.openPlayer(sctx.Snapshot().SidetoneVolume, logf)
	if err != nil {
		return nil, err
	}

	var journal keyer.Journal
	if !noJournal {
		st, err := store.Open(resolveDBPath(cmd, fileCfg))
		if err != nil {
			r.close()
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		r.store = st
		journal = st
	}

	dev, err := keyer.New(keyer.Options{
		Settings: sctx,
		Display:  ctrl,
		Sampler:  sampler,
		Player:   player,
		Journal:  journal,
		Logf:     logf,
	})
	if err != nil {
		r.close()
		return nil, err
	}
	r.dev = dev
	dev.Start(ctx)
	return r, nil
}

func (r *rig) openPlayer(volume int, logf func(string, ...any)) (tone.Player, error) {
	switch strings.ToLower(sidetoneBackend) {
	case "", "log":
		return tone.NewLogger(logf), nil
	case "rpi":
		p, err := tone.OpenRPi(sidetonePin, volume)
		if err != nil {
			return nil, fmt.Errorf("failed to open sidetone: %w", err)
		}
		r.rpi = p
		return p, nil
	default:
		return nil, fmt.Errorf("unknown sidetone backend %q (use log or rpi)", sidetoneBackend)
	}
}

// close finishes the session and releases hardware and the journal.
func (r *rig) close() {
	if r.dev != nil {
		if err := r.dev.Close(context.Background()); err != nil {
			logErrf("failed to close session: %v\n", err)
		}
	}
	if r.rpi != nil {
		if err := r.rpi.Close(); err != nil {
			logErrf("failed to release sidetone: %v\n", err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			logErrf("failed to close db: %v\n", err)
		}
	}
}

// openSettings loads the document at path. Missing or unreadable documents
// fall back to defaults with a warning.
func openSettings(path string, warn func(args ...any)) *settings.Context {
	sctx, err := settings.Open(path)
	var perr *settings.ParseError
	switch {
	case err == nil:
	case errors.Is(err, settings.ErrNotFound):
		warn("no settings at", path+", using defaults")
	case errors.As(err, &perr):
		warn("ignoring unreadable settings:", perr)
	default:
		warn("failed to load settings:", err)
	}
	return sctx
}

// knobRawFor returns the knob position that maps to wpm.
func knobRawFor(wpm int, cfg pot.Config) int32 {
	span := cfg.HighWPM - cfg.LowWPM
	if span <= 0 {
		return 0
	}
	if wpm <= cfg.LowWPM {
		return 0
	}
	if wpm >= cfg.HighWPM {
		return cfg.FullScale
	}
	return int32(int64(wpm-cfg.LowWPM) * int64(cfg.FullScale) / int64(span))
}

// knobStep turns the knob by roughly one WPM per key press.
func knobStep(cfg pot.Config) int32 {
	span := cfg.HighWPM - cfg.LowWPM
	if span <= 0 {
		return cfg.FullScale
	}
	step := cfg.FullScale / int32(span)
	if step <= cfg.NoiseThreshold {
		step = cfg.NoiseThreshold + 1
	}
	return step
}

// parseSettingValue accepts integers and true/false.
func parseSettingValue(raw string) (int, error) {
	if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		return v, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer or boolean", raw)
	}
	if b {
		return 1, nil
	}
	return 0, nil
}
