package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics, so "Simulação" and "simulacao"
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokens folds s and splits it on anything that is not a letter or digit.
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// ContainsPhrase reports whether the folded token sequence of text contains the
// folded tokens of phrase as a contiguous run. Matching is on whole words, so
// "cet" does not match "cetico" and "o que" matches "sabe o que é".
func ContainsPhrase(text, phrase string) bool {
	hay := " " + strings.Join(Tokens(text), " ") + " "
	needle := strings.Join(Tokens(phrase), " ")
	if needle == "" {
		return false
	}
	return strings.Contains(hay, " "+needle+" ")
}
