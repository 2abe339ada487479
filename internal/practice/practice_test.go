package practice

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGroupsUseCharset(t *testing.T) {
	g := NewWithSeed(1)
	groups := g.Groups(10, 5, Digits)
	if len(groups) != 10 {
		t.Fatalf("expected 10 groups, got %d", len(groups))
	}
	for _, group := range groups {
		if len(group) != 5 {
			t.Fatalf("expected 5 characters, got %q", group)
		}
		for _, r := range group {
			if !strings.ContainsRune(Digits, r) {
				t.Fatalf("unexpected character %q in %q", r, group)
			}
		}
	}
}

func TestGroupsDeterministicWithSeed(t *testing.T) {
	a := NewWithSeed(42).Groups(4, 5, Letters)
	b := NewWithSeed(42).Groups(4, 5, Letters)
	if strings.Join(a, " ") != strings.Join(b, " ") {
		t.Fatalf("same seed gave %v and %v", a, b)
	}
}

func TestGroupsRejectsEmptyInput(t *testing.T) {
	g := NewWithSeed(1)
	if g.Groups(0, 5, Letters) != nil || g.Groups(3, 5, "") != nil {
		t.Fatalf("expected nil for empty requests")
	}
}

func TestWordsWeightedPrefersFocus(t *testing.T) {
	g := NewWithSeed(7)
	words := []string{"EEE", "TTT"}
	picks := g.WordsWeighted(words, 400, "Q", 0)
	if len(picks) != 400 {
		t.Fatalf("expected 400 picks, got %d", len(picks))
	}
	words = []string{"QQQ", "TTT"}
	picks = g.WordsWeighted(words, 400, "Q", 10)
	q := 0
	for _, p := range picks {
		if p == "QQQ" {
			q++
		}
	}
	if q < 300 {
		t.Fatalf("expected focus word to dominate, got %d/400", q)
	}
}

func TestTextTrailingSpace(t *testing.T) {
	if got := Text([]string{"CQ", "DE", "K1ABC"}); got != "CQ DE K1ABC " {
		t.Fatalf("unexpected text %q", got)
	}
	if Text(nil) != "" {
		t.Fatalf("expected empty text")
	}
}

func TestSendable(t *testing.T) {
	for _, word := range []string{"CQ", "5NN", "K1ABC/P", "QRL?"} {
		if !Sendable(word) {
			t.Fatalf("expected %q to be sendable", word)
		}
	}
	for _, word := range []string{"", "RÉSUMÉ", "a", "TAB\t"} {
		if Sendable(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}

func TestCharset(t *testing.T) {
	if Charset("mixed") != Letters+Digits {
		t.Fatalf("unexpected mixed charset")
	}
	if Charset("kmr") != "KMR" {
		t.Fatalf("expected literal uppercase set, got %q", Charset("kmr"))
	}
}

func TestLoadWordsFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	content := "# qso words\ncq\n\nrésumé\n73\n  de  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	words, err := LoadWords(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if strings.Join(words, ",") != "CQ,73,DE" {
		t.Fatalf("unexpected words %v", words)
	}
}

func TestLoadWordsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("ümlaut\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadWords(path); err == nil {
		t.Fatalf("expected error for list without sendable words")
	}
}
