package render

import "strings"

// Wrap breaks text into lines no wider than maxWidth at word boundaries. A
// single word wider than maxWidth gets a line of its own.
func Wrap(text string, maxWidth float64, measure func(string) float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		next := line + " " + w
		if measure(next) > maxWidth {
			lines = append(lines, line)
			line = w
			continue
		}
		line = next
	}
	return append(lines, line)
}
