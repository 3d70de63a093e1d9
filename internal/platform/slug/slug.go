package slug

import (
	"strings"
	"unicode"
)

// MaxSubjectRunes bounds subject slugs so note file names stay short.
const MaxSubjectRunes = 48

const fallbackSubject = "unsorted"

// Subject turns a study subject into a file-name-safe slug. Letters and
// digits of any script are kept, lowercased; every other run becomes one
// dash. Empty subjects map to "unsorted".
func Subject(input string) string {
	var b strings.Builder
	dash := false
	n := 0
	for _, r := range strings.TrimSpace(input) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			dash = true
			continue
		}
		sep := dash && n > 0
		need := 1
		if sep {
			need++
		}
		if n+need > MaxSubjectRunes {
			break
		}
		if sep {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
		n += need
		dash = false
	}
	s := b.String()
	if s == "" {
		return fallbackSubject
	}
	return s
}
