package practice

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadWords reads one word per line, uppercases it and drops words that
// cannot be keyed.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !Sendable(line) {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list %s has no sendable words", path)
	}
	return words, nil
}

// DefaultWords is a short list of common QSO words.
var DefaultWords = []string{
	"CQ", "DE", "K", "KN", "BK", "AR", "SK", "TU", "UR", "RST", "599", "5NN",
	"NAME", "QTH", "RIG", "ANT", "WX", "HR", "ES", "FB", "OM", "73", "GM",
	"GA", "GE", "PSE", "AGN", "QRZ", "QSL", "QRS", "QRQ", "TNX", "FER",
}
