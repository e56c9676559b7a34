package statement

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/secmon-lab/threatline/pkg/domain/model"
)

// joinWithAnd joins elements as "A, B and C".
func joinWithAnd(elems []string) string {
	switch len(elems) {
	case 0:
		return ""
	case 1:
		return elems[0]
	default:
		return strings.Join(elems[:len(elems)-1], ", ") + " and " + elems[len(elems)-1]
	}
}

// joinTechniques renders techniques as "{label} or {label} ...".
func joinTechniques(techniques []model.AttackTechnique) string {
	labels := make([]string, len(techniques))
	for i, t := range techniques {
		labels[i] = t.Label()
	}
	return strings.Join(labels, " or ")
}

// lowerFirst lower-cases the first rune of s.
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// articleFor returns "An" when the actor starts with a vowel, otherwise "A".
func articleFor(actor string) string {
	if vowelPattern.MatchString(actor) {
		return "An"
	}
	return "A"
}
