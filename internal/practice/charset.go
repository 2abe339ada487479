package practice

import "strings"

// Charsets usable with Groups.
const (
	Letters     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Digits      = "0123456789"
	Punctuation = ".,?/=+-"
)

// sendable holds every character with a morse code.
const sendable = Letters + Digits + ".,?/=+-()'\":;@!&_$"

// Sendable reports whether every rune of word can be keyed.
func Sendable(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !strings.ContainsRune(sendable, r) {
			return false
		}
	}
	return true
}

// Charset resolves a named set ("letters", "digits", "mixed", "all") or
// returns name uppercased as a literal set.
func Charset(name string) string {
	switch strings.ToLower(name) {
	case "", "letters":
		return Letters
	case "digits":
		return Digits
	case "mixed":
		return Letters + Digits
	case "all":
		return Letters + Digits + Punctuation
	default:
		return strings.ToUpper(name)
	}
}
