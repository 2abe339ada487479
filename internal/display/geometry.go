package display

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry is returned when a Geometry cannot describe a screen.
var ErrInvalidGeometry = errors.New("display: invalid geometry")

// Geometry describes the fixed text layout of the screen.
type Geometry struct {
	Rows       int   // row capacity R
	Cols       int   // characters per row C
	RowOffsets []int // pixel Y of each row, top to bottom
	Column     int   // pixel X every row is drawn at
}

// DefaultGeometry matches a 135x240 TFT in landscape with size-3 text:
// four rows of thirteen characters.
func DefaultGeometry() Geometry {
	return Geometry{
		Rows:       4,
		Cols:       13,
		RowOffsets: []int{15, 50, 86, 123},
		Column:     1,
	}
}

// Capacity is the number of characters a full screen holds.
func (g Geometry) Capacity() int {
	return g.Rows * g.Cols
}

// Validate rejects geometries that cannot be rendered.
func (g Geometry) Validate() error {
	if g.Rows <= 0 {
		return fmt.Errorf("%w: rows must be > 0, got %d", ErrInvalidGeometry, g.Rows)
	}
	if g.Cols <= 0 {
		return fmt.Errorf("%w: cols must be > 0, got %d", ErrInvalidGeometry, g.Cols)
	}
	if len(g.RowOffsets) < g.Rows {
		return fmt.Errorf("%w: %d rows need %d row offsets, got %d", ErrInvalidGeometry, g.Rows, g.Rows, len(g.RowOffsets))
	}
	for i := 1; i < g.Rows; i++ {
		if g.RowOffsets[i] <= g.RowOffsets[i-1] {
			return fmt.Errorf("%w: row offsets must increase (row %d at %d, row %d at %d)", ErrInvalidGeometry, i-1, g.RowOffsets[i-1], i, g.RowOffsets[i])
		}
	}
	if g.Column < 0 {
		return fmt.Errorf("%w: column must be >= 0, got %d", ErrInvalidGeometry, g.Column)
	}
	return nil
}

// EvenRowOffsets spreads rows evenly over heightPx, first row at top.
// It is used when only a row count is configured.
func EvenRowOffsets(rows, top, heightPx int) []int {
	if rows <= 0 {
		return nil
	}
	out := make([]int, rows)
	if rows == 1 {
		out[0] = top
		return out
	}
	step := (heightPx - top) / rows
	if step < 1 {
		step = 1
	}
	for i := range out {
		out[i] = top + i*step
	}
	return out
}
