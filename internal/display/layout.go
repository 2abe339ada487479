package display

// Layout is the wrapped view of the display buffer: at most Rows rows of
// at most Cols characters each. Trailing rows that received nothing are
// empty strings.
type Layout []string

// Joined concatenates all rows in row order.
func (l Layout) Joined() string {
	n := 0
	for _, row := range l {
		n += len(row)
	}
	b := make([]byte, 0, n)
	for _, row := range l {
		b = append(b, row...)
	}
	return string(b)
}

// wrapRunes lays buf out row by row. Each row takes characters in order
// until one more would exceed cols; there is no word-boundary awareness.
// overflow reports that some character found every row already full.
func wrapRunes(buf []rune, rows, cols int) (lines [][]rune, overflow bool) {
	lines = make([][]rune, rows)
	row := 0
	for _, ch := range buf {
		for row < rows && len(lines[row])+1 > cols {
			row++
		}
		if row == rows {
			overflow = true
			continue
		}
		lines[row] = append(lines[row], ch)
	}
	return lines, overflow
}

// Wrap lays text out for a geometry, evicting leading rows exactly as the
// controller does, and returns the surviving layout together with the
// number of characters evicted from the front.
func Wrap(text string, rows, cols int) (Layout, int) {
	if rows <= 0 || cols <= 0 {
		return nil, 0
	}
	lines, dropped, _ := settle([]rune(text), rows, cols)
	return toLayout(lines), dropped
}

// settle repeats the wrap, dropping a prefix the length of row one after
// every overflowing attempt, until the buffer fits. It returns the final
// lines, how many leading characters were dropped and in how many rounds.
func settle(buf []rune, rows, cols int) (lines [][]rune, dropped, rounds int) {
	for {
		var overflow bool
		lines, overflow = wrapRunes(buf[dropped:], rows, cols)
		if !overflow {
			return lines, dropped, rounds
		}
		dropped += len(lines[0])
		rounds++
	}
}

func toLayout(lines [][]rune) Layout {
	out := make(Layout, len(lines))
	for i, line := range lines {
		out[i] = string(line)
	}
	return out
}
