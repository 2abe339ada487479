// Package display renders a stream of characters onto a small fixed screen
// as wrapped, auto-scrolling text.
package display

import (
	"fmt"
	"sync"
)

// Surface is the capability the controller draws through. Coordinates are
// in pixels; y is the vertical middle of a text row.
type Surface interface {
	Init() error
	Clear()
	DrawText(text string, x, y int)
	WidthPx() int
	HeightPx() int
}

// Logf is a printf-style logger; nil discards.
type Logf func(format string, args ...any)

// compactMin keeps small buffers from being copied on every eviction.
const compactMin = 64

// Controller owns the display buffer and redraws the surface after every
// appended character. The newest characters are always kept; when the
// wrapped text needs more rows than the screen has, whole leading rows are
// evicted.
type Controller struct {
	mu      sync.Mutex
	geom    Geometry
	surface Surface
	logf    Logf

	initialized bool

	// arena[start:] is the live buffer.
	arena []rune
	start int

	layout    Layout
	evictions int
	redraws   int
}

// NewController validates geom and returns a controller drawing on s.
func NewController(geom Geometry, s Surface, logf Logf) (*Controller, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("display: nil surface")
	}
	offsets := make([]int, geom.Rows)
	copy(offsets, geom.RowOffsets)
	geom.RowOffsets = offsets
	return &Controller{
		geom:    geom,
		surface: s,
		logf:    logf,
		layout:  make(Layout, geom.Rows),
	}, nil
}

// Geometry returns the layout the controller was built with.
func (c *Controller) Geometry() Geometry {
	return c.geom
}

// OnCharacter appends ch and redraws the whole screen once.
func (c *Controller) OnCharacter(ch rune) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.arena = append(c.arena, ch)
	lines, dropped, rounds := settle(c.arena[c.start:], c.geom.Rows, c.geom.Cols)
	if dropped > 0 {
		c.start += dropped
		c.evictions += rounds
		c.compact()
	}
	c.layout = toLayout(lines)
	c.redraw()
}

// Reset empties the buffer and blanks the screen.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.arena = c.arena[:0]
	c.start = 0
	c.layout = make(Layout, c.geom.Rows)
	c.redraw()
}

// Layout returns a copy of the rows currently on screen.
func (c *Controller) Layout() Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(Layout, len(c.layout))
	copy(out, c.layout)
	return out
}

// Text returns the live buffer content.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.arena[c.start:])
}

// Evictions returns how many times leading rows were dropped.
func (c *Controller) Evictions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}

// Redraws returns how many full-screen redraws were issued.
func (c *Controller) Redraws() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redraws
}

// compact moves the live buffer to the front of the arena once the dead
// prefix outgrows it.
func (c *Controller) compact() {
	live := len(c.arena) - c.start
	if c.start < compactMin || c.start < live {
		return
	}
	n := copy(c.arena, c.arena[c.start:])
	c.arena = c.arena[:n]
	c.start = 0
}

func (c *Controller) redraw() {
	if !c.ensureInit() {
		return
	}
	c.surface.Clear()
	for i, row := range c.layout {
		if row == "" {
			continue
		}
		c.surface.DrawText(row, c.geom.Column, c.geom.RowOffsets[i])
	}
	c.redraws++
}

func (c *Controller) ensureInit() bool {
	if c.initialized {
		return true
	}
	if err := c.surface.Init(); err != nil {
		c.log("display init failed: %v", err)
		return false
	}
	c.initialized = true
	if h := c.surface.HeightPx(); h > 0 && c.geom.RowOffsets[c.geom.Rows-1] >= h {
		c.log("display: last row at y=%d is outside a %dpx high surface", c.geom.RowOffsets[c.geom.Rows-1], h)
	}
	return true
}

func (c *Controller) log(format string, args ...any) {
	if c.logf == nil {
		return
	}
	c.logf(format, args...)
}
