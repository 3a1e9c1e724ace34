package words

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes runes and drops combining marks, so "é" and "e"
// compare equal. Submissions and bank contents go through the same path.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, trims and folds diacritics. Every word that enters
// the system (bank contents, submissions, theme names) is normalized with
// this exact function so comparisons are plain string equality.
func Normalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return folded
}
