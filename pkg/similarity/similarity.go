// Package similarity implements the character-trigram overlap heuristic used
// for near-duplicate detection. It measures structural lexical overlap, not
// semantic similarity: paraphrases with low character overlap score near zero.
package similarity

import (
	"strings"
	"unicode"
)

// normalize lowercases the text and strips all whitespace.
func normalize(text string) []rune {
	var runes []rune
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) {
			continue
		}
		runes = append(runes, r)
	}
	return runes
}

// Trigrams returns the set of contiguous 3-rune substrings of the normalized
// text. Texts shorter than 3 runes after normalization yield an empty set.
func Trigrams(text string) map[string]struct{} {
	runes := normalize(text)
	if len(runes) < 3 {
		return map[string]struct{}{}
	}
	set := make(map[string]struct{}, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}
	return set
}

// Score returns the Jaccard overlap of the trigram sets of a and b, in [0,1].
// If either set is empty the score is 0, so short texts never match.
func Score(a, b string) float64 {
	ta := Trigrams(a)
	tb := Trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
