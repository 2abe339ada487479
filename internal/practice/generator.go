// Package practice builds morse practice text.
package practice

import (
	"math/rand"
	"strings"
	"time"
)

// Generator produces randomized practice text.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Groups returns count random code groups of size characters drawn from
// charset.
func (g *Generator) Groups(count, size int, charset string) []string {
	set := []rune(charset)
	if count <= 0 || size <= 0 || len(set) == 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var b strings.Builder
		for j := 0; j < size; j++ {
			b.WriteRune(set[g.rnd.Intn(len(set))])
		}
		result = append(result, b.String())
	}
	return result
}

// Words selects count words uniformly.
func (g *Generator) Words(words []string, count int) []string {
	if count <= 0 || len(words) == 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, words[g.rnd.Intn(len(words))])
	}
	return result
}

// WordsWeighted selects words with a bias toward words containing focus
// characters. Each focus character in a word adds factor to its weight.
func (g *Generator) WordsWeighted(words []string, count int, focus string, factor float64) []string {
	if count <= 0 || len(words) == 0 {
		return nil
	}
	weights := make([]float64, len(words))
	total := 0.0
	for i, word := range words {
		hits := 0
		for _, r := range word {
			if strings.ContainsRune(focus, r) {
				hits++
			}
		}
		w := 1.0 + float64(hits)*factor
		weights[i] = w
		total += w
	}

	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		r := g.rnd.Float64() * total
		acc := 0.0
		idx := len(words) - 1
		for j, w := range weights {
			acc += w
			if r <= acc {
				idx = j
				break
			}
		}
		result = append(result, words[idx])
	}
	return result
}

// Text joins practice items with single spaces and a trailing space, the
// way they are keyed.
func Text(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return strings.Join(items, " ") + " "
}
