package stats

import (
	"testing"

	"github.com/verte-zerg/cwkeyer/internal/model"
)

func TestTopCharsByFrequency(t *testing.T) {
	counts := []model.CharCount{
		{Char: "E", Count: 3},
		{Char: "A", Count: 4},
		{Char: "T", Count: 4},
		{Char: "Q", Count: 1},
	}
	top := TopChars(counts, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 chars, got %d", len(top))
	}
	if top[0] != "A" || top[1] != "T" {
		t.Fatalf("unexpected order: %v", top)
	}
	if all := TopChars(counts, 0); len(all) != 4 {
		t.Fatalf("expected all chars, got %v", all)
	}
}
