package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/cwkeyer/internal/model"
)

func TestSessionMetricsUsesParisWord(t *testing.T) {
	wpm, cpm := SessionMetrics(100, 60000)
	if math.Abs(cpm-100) > 1e-9 || math.Abs(wpm-20) > 1e-9 {
		t.Fatalf("expected 20 wpm / 100 cpm, got %.2f / %.2f", wpm, cpm)
	}
	if wpm, cpm := SessionMetrics(10, 0); wpm != 0 || cpm != 0 {
		t.Fatalf("zero duration should give zero metrics")
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: expected %.1f, got %.1f", i, want[i], got[i])
		}
	}
}

func TestSparklineSpansRange(t *testing.T) {
	line := Sparkline([]float64{0, 5, 10})
	if len(line) != 3 || line[0] != ' ' || line[2] != '@' {
		t.Fatalf("unexpected sparkline %q", line)
	}
	if flat := Sparkline([]float64{3, 3}); flat != "++" {
		t.Fatalf("unexpected flat sparkline %q", flat)
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderSessionTable(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	sessions := []model.SessionRecord{{
		ID:        7,
		StartedAt: start,
		EndedAt:   start.Add(2 * time.Minute),
		WPM:       25,
		Chars:     50,
		Text:      "THE QUICK BROWN FOX JUMPS OVER THE LAZY DOG",
	}}
	var buf bytes.Buffer
	if err := RenderSessionTable(&buf, sessions); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "2m00s") || !strings.Contains(out, "5.0") {
		t.Fatalf("expected duration and effective wpm in:\n%s", out)
	}
	if !strings.Contains(out, "THE QUICK BROWN FOX JUM~") {
		t.Fatalf("expected truncated text preview in:\n%s", out)
	}
}
