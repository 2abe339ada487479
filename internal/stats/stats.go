// Package stats contains keying statistics and journal reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/cwkeyer/internal/model"
)

const sparkChars = " .:-=+*#%@"

// charsPerWord is the PARIS word length including the word gap.
const charsPerWord = 5.0

// SessionMetrics computes the effective WPM and CPM for a session.
func SessionMetrics(chars int, durationMs int64) (wpm, cpm float64) {
	if durationMs <= 0 || chars <= 0 {
		return 0, 0
	}
	minutes := float64(durationMs) / 60000.0
	cpm = float64(chars) / minutes
	wpm = cpm / charsPerWord
	return wpm, cpm
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints totals for the sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalChars int
	var totalMs int64
	var setWPM float64
	bestWPM := 0.0
	for _, s := range sessions {
		totalChars += s.Chars
		totalMs += s.DurationMs()
		setWPM += float64(s.WPM)
		if wpm, _ := SessionMetrics(s.Chars, s.DurationMs()); wpm > bestWPM {
			bestWPM = wpm
		}
	}
	avgWPM, avgCPM := SessionMetrics(totalChars, totalMs)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Characters: %d", totalChars),
		fmt.Sprintf("Keying time: %s", formatDuration(totalMs)),
		fmt.Sprintf("Avg set WPM: %.1f", setWPM/float64(len(sessions))),
		fmt.Sprintf("Effective WPM: %.2f", avgWPM),
		fmt.Sprintf("Best effective WPM: %.2f", bestWPM),
		fmt.Sprintf("Effective CPM: %.2f", avgCPM),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSessionTable prints one row per session.
func RenderSessionTable(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		return nil
	}
	cols := []column{
		{title: "ID", right: true},
		{title: "Started"},
		{title: "Duration", right: true},
		{title: "Set WPM", right: true},
		{title: "Eff WPM", right: true},
		{title: "Chars", right: true},
		{title: "Text"},
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		wpm, _ := SessionMetrics(s.Chars, s.DurationMs())
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.ID),
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			formatDuration(s.DurationMs()),
			fmt.Sprintf("%d", s.WPM),
			fmt.Sprintf("%.1f", wpm),
			fmt.Sprintf("%d", s.Chars),
			preview(s.Text, 24),
		})
	}
	if _, err := fmt.Fprintln(w, "Sessions"); err != nil {
		return err
	}
	for _, line := range formatTable(cols, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTrend prints smoothed sparklines of set and effective speed.
func RenderTrend(w io.Writer, sessions []model.SessionRecord, window int) error {
	if len(sessions) < 2 {
		return nil
	}
	set := make([]float64, len(sessions))
	eff := make([]float64, len(sessions))
	for i, s := range sessions {
		set[i] = float64(s.WPM)
		eff[i], _ = SessionMetrics(s.Chars, s.DurationMs())
	}
	lines := []string{
		"Trend",
		"Set WPM       |" + Sparkline(MovingAverage(set, window)) + "|",
		"Effective WPM |" + Sparkline(MovingAverage(eff, window)) + "|",
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCharTable prints character counts, most frequent first.
func RenderCharTable(w io.Writer, counts []model.CharCount, top int) error {
	if len(counts) == 0 {
		_, err := fmt.Fprintln(w, "No characters keyed.")
		return err
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	cols := []column{{title: "Char"}, {title: "Count", right: true}, {title: "Share", right: true}}
	rows := make([][]string, 0, len(counts))
	for _, ch := range TopChars(counts, top) {
		for _, c := range counts {
			if c.Char != ch {
				continue
			}
			rows = append(rows, []string{
				c.Char,
				fmt.Sprintf("%d", c.Count),
				fmt.Sprintf("%.1f%%", float64(c.Count)/float64(total)*100),
			})
		}
	}
	if _, err := fmt.Fprintln(w, "Characters"); err != nil {
		return err
	}
	for _, line := range formatTable(cols, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func formatDuration(ms int64) string {
	secs := ms / 1000
	if secs >= 3600 {
		return fmt.Sprintf("%dh%02dm", secs/3600, (secs%3600)/60)
	}
	return fmt.Sprintf("%dm%02ds", secs/60, secs%60)
}

func preview(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "~"
}
