package surface

import (
	"strings"
	"testing"

	"github.com/verte-zerg/cwkeyer/internal/display"
)

func TestCellsMapsRowOffsets(t *testing.T) {
	c := NewCells(display.DefaultGeometry(), 240, 135)
	if err := c.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	c.DrawText("CQ CQ", 1, 15)
	c.DrawText("DE W1AW", 1, 86)

	rows := c.Rows()
	if rows[0] != "CQ CQ        " {
		t.Fatalf("unexpected row 0: %q", rows[0])
	}
	if rows[1] != "             " {
		t.Fatalf("expected blank row 1, got %q", rows[1])
	}
	if rows[2] != "DE W1AW      " {
		t.Fatalf("unexpected row 2: %q", rows[2])
	}
}

func TestCellsClear(t *testing.T) {
	c := NewCells(display.DefaultGeometry(), 240, 135)
	c.DrawText("73", 1, 50)
	c.Clear()
	for i, row := range c.Rows() {
		if row != "             " {
			t.Fatalf("row %d not cleared: %q", i, row)
		}
	}
}

func TestCellsTruncatesLongText(t *testing.T) {
	c := NewCells(display.DefaultGeometry(), 240, 135)
	c.DrawText("ABCDEFGHIJKLMNOP", 1, 15)
	if got := c.Rows()[0]; got != "ABCDEFGHIJKLM" {
		t.Fatalf("expected cut at 13 cells, got %q", got)
	}
}

func TestCellsCountsRunesNotColumns(t *testing.T) {
	c := NewCells(display.DefaultGeometry(), 240, 135)
	wide := strings.Repeat("語", 13)
	c.DrawText(wide+"語", 1, 15)
	if got := c.Rows()[0]; got != wide {
		t.Fatalf("expected 13 wide runes, got %q (%d runes)", got, len([]rune(got)))
	}
	c.DrawText("ÅÄ", 1, 50)
	if got := c.Rows()[1]; got != "ÅÄ           " {
		t.Fatalf("unexpected accented row %q", got)
	}
}

func TestCellsIgnoresRowsAboveFirstOffset(t *testing.T) {
	c := NewCells(display.DefaultGeometry(), 240, 135)
	c.DrawText("X", 1, 2)
	if c.Draws() != 0 {
		t.Fatalf("expected draw above row 0 to be dropped")
	}
}

func TestCellsWithController(t *testing.T) {
	c := NewCells(display.DefaultGeometry(), 240, 135)
	ctrl, err := display.NewController(display.DefaultGeometry(), c, nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	for _, ch := range "CQ CQ DE W1AW K" {
		ctrl.OnCharacter(ch)
	}
	if !c.Initialized() {
		t.Fatalf("expected lazy init through the controller")
	}
	rows := c.Rows()
	if rows[0] != "CQ CQ DE W1AW" || rows[1] != " K           " {
		t.Fatalf("unexpected rows %q", rows)
	}
}
