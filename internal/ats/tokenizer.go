package ats

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// minTokenLength is exclusive: tokens need more runes than this.
const minTokenLength = 2

// stopwords is the bilingual French/English list ignored by the keyword strategy.
var stopwords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "de": {}, "du": {}, "des": {}, "un": {}, "une": {},
	"et": {}, "est": {}, "en": {}, "pour": {}, "avec": {}, "dans": {}, "sur": {}, "par": {},
	"au": {}, "aux": {}, "ou": {}, "a": {}, "à": {}, "que": {}, "qui": {}, "se": {},
	"ce": {}, "il": {}, "elle": {}, "son": {}, "sa": {}, "ses": {}, "vous": {}, "nous": {},
	"je": {}, "tu": {}, "ils": {}, "elles": {},
	"the": {}, "of": {}, "for": {}, "in": {}, "to": {}, "and": {}, "is": {}, "are": {},
	"with": {}, "on": {}, "at": {}, "by": {}, "an": {}, "be": {}, "has": {},
}

// Tokenize lowercases text and returns its meaningful words in order.
//
// A word starts with a letter at a word boundary, continues with letters,
// digits, '+' or '#', and must end on a word boundary. "c++" therefore
// yields "c", like a regular expression using \b would. Stop-words and
// words of two runes or fewer are dropped.
func Tokenize(text string) []string {
	runes := []rune(strings.ToLower(norm.NFC.String(text)))

	var tokens []string
	for i := 0; i < len(runes); {
		end := matchWord(runes, i)
		if end == -1 {
			i++
			continue
		}

		word := string(runes[i:end])
		if _, stop := stopwords[word]; !stop && utf8.RuneCountInString(word) > minTokenLength {
			tokens = append(tokens, word)
		}
		i = end
	}

	return tokens
}

// matchWord returns the end of the word starting at start, or -1.
func matchWord(runes []rune, start int) int {
	if !unicode.IsLetter(runes[start]) || !boundary(runes, start) {
		return -1
	}

	end := start + 1
	for end < len(runes) && wordBody(runes[end]) {
		end++
	}

	// Backtrack until the word ends on a boundary, as a greedy regex would.
	for ; end > start; end-- {
		if boundary(runes, end) {
			return end
		}
	}
	return -1
}

func wordBody(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#'
}

func wordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

// boundary reports whether a word boundary lies before runes[pos].
func boundary(runes []rune, pos int) bool {
	before := pos > 0 && wordChar(runes[pos-1])
	after := pos < len(runes) && wordChar(runes[pos])
	return before != after
}
