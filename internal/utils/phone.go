package utils

import "strings"

// DigitsOnly strips every non-digit rune, e.g. "+62 812-3456" becomes "628123456".
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
