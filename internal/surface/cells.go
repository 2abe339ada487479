// Package surface provides display surfaces for the scrolling text
// controller: a character-cell grid for terminals and tests, and an
// in-memory pixel framebuffer drawn with tinyfont.
package surface

import (
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/cwkeyer/internal/display"
)

// Cells maps the controller's pixel rows back onto a grid of text rows.
type Cells struct {
	mu       sync.Mutex
	geom     display.Geometry
	widthPx  int
	heightPx int
	cellPx   int

	rows        []string
	initialized bool
	draws       int
}

// NewCells returns a grid for geom on a screen of the given pixel size.
func NewCells(geom display.Geometry, widthPx, heightPx int) *Cells {
	cellPx := 1
	if geom.Cols > 0 && widthPx > geom.Cols {
		cellPx = widthPx / geom.Cols
	}
	return &Cells{
		geom:     geom,
		widthPx:  widthPx,
		heightPx: heightPx,
		cellPx:   cellPx,
		rows:     make([]string, geom.Rows),
	}
}

// Init implements display.Surface.
func (c *Cells) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialized = true
	c.rows = make([]string, c.geom.Rows)
	return nil
}

// Clear implements display.Surface.
func (c *Cells) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.rows {
		c.rows[i] = ""
	}
}

// DrawText implements display.Surface. Each rune takes one cell whatever
// its terminal width; text past the last cell is cut.
func (c *Cells) DrawText(text string, x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row := c.rowAt(y)
	if row < 0 {
		return
	}
	indent := 0
	if x > c.geom.Column {
		indent = (x - c.geom.Column) / c.cellPx
	}
	if indent >= c.geom.Cols {
		return
	}
	// One rune per cell, matching the controller's wrap.
	line := []rune(c.rows[row])
	for len(line) < indent {
		line = append(line, ' ')
	}
	line = append(line[:indent], []rune(text)...)
	if len(line) > c.geom.Cols {
		line = line[:c.geom.Cols]
	}
	c.rows[row] = string(line)
	c.draws++
}

// WidthPx implements display.Surface.
func (c *Cells) WidthPx() int { return c.widthPx }

// HeightPx implements display.Surface.
func (c *Cells) HeightPx() int { return c.heightPx }

// Rows returns every row padded to at least Cols terminal columns.
func (c *Cells) Rows() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.rows))
	for i, row := range c.rows {
		out[i] = runewidth.FillRight(row, c.geom.Cols)
	}
	return out
}

// Initialized reports whether Init has run.
func (c *Cells) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Draws returns the number of DrawText calls that landed on a row.
func (c *Cells) Draws() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draws
}

// rowAt returns the last row whose offset is at or above y.
func (c *Cells) rowAt(y int) int {
	row := -1
	for i := 0; i < c.geom.Rows && i < len(c.geom.RowOffsets); i++ {
		if c.geom.RowOffsets[i] > y {
			break
		}
		row = i
	}
	return row
}
