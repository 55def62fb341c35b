package search

import (
	"strings"
	"unicode"
)

const (
	ngramSize     = 3
	soundexLength = 3
)

// normalizeQuery lowercases, trims and collapses whitespace, returning the tokens.
func normalizeQuery(raw string) []string {
	return strings.Fields(strings.ToLower(raw))
}

// levenshtein returns the edit distance between a and b in runes.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for j := range previous {
		previous[j] = j
	}
	for i := 1; i <= len(a); i++ {
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[j] = min(previous[j]+1, current[j-1]+1, previous[j-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(b)]
}

// similarity is 1 minus the edit distance normalized by the longer word.
// Two empty words are identical.
func similarity(a, b string) float64 {
	left, right := []rune(a), []rune(b)
	longest := max(len(left), len(right))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(left, right))/float64(longest)
}

// soundexDigit maps a lowercase ASCII letter to its consonant class. Vowels
// and h, w, y map to '0', which separates duplicates and is then dropped.
func soundexDigit(r rune) (byte, bool) {
	switch r {
	case 'b', 'f', 'p', 'v':
		return '1', true
	case 'c', 'g', 'j', 'k', 'q', 's', 'x', 'z':
		return '2', true
	case 'd', 't':
		return '3', true
	case 'l':
		return '4', true
	case 'm', 'n':
		return '5', true
	case 'r':
		return '6', true
	case 'a', 'e', 'i', 'o', 'u', 'h', 'w', 'y':
		return '0', true
	default:
		return 0, false
	}
}

// soundex returns the first letter followed by three class digits.
func soundex(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return ""
	}
	code := make([]byte, 0, soundexLength)
	previous, _ := soundexDigit(runes[0])
	for _, r := range runes[1:] {
		digit, ok := soundexDigit(r)
		if !ok {
			continue
		}
		if digit == previous {
			continue
		}
		previous = digit
		if digit == '0' {
			continue
		}
		code = append(code, digit)
		if len(code) == soundexLength {
			break
		}
	}
	for len(code) < soundexLength {
		code = append(code, '0')
	}
	return string(unicode.ToUpper(runes[0])) + string(code)
}

// ngrams returns every overlapping 3-rune substring of word, duplicates kept.
func ngrams(word string) []string {
	runes := []rune(word)
	if len(runes) < ngramSize {
		return nil
	}
	grams := make([]string, 0, len(runes)-ngramSize+1)
	for i := 0; i+ngramSize <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+ngramSize]))
	}
	return grams
}

// sharedNgrams counts the query grams, repeats included, that occur in word.
func sharedNgrams(queryGrams []string, wordGrams map[string]struct{}) int {
	shared := 0
	for _, gram := range queryGrams {
		if _, ok := wordGrams[gram]; ok {
			shared++
		}
	}
	return shared
}

// indexedWord caches the per-word signals of a candidate field.
type indexedWord struct {
	text  string
	code  string
	grams map[string]struct{}
}

func indexWords(text string) []indexedWord {
	fields := strings.Fields(text)
	words := make([]indexedWord, 0, len(fields))
	for _, field := range fields {
		grams := make(map[string]struct{})
		for _, gram := range ngrams(field) {
			grams[gram] = struct{}{}
		}
		words = append(words, indexedWord{text: field, code: soundex(field), grams: grams})
	}
	return words
}
