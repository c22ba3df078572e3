package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitSentences splits a transcript after '.', '?' or '!' when the next
// non-space character is an upper-case letter. Whitespace between the
// terminator and the capital is dropped; empty pieces are discarded.
func SplitSentences(transcript string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(transcript); {
		r, size := utf8.DecodeRuneInString(transcript[i:])
		i += size

		if r != '.' && r != '?' && r != '!' {
			continue
		}

		// Look past any whitespace for a capital letter
		j := i
		for j < len(transcript) {
			next, nsize := utf8.DecodeRuneInString(transcript[j:])
			if !unicode.IsSpace(next) {
				break
			}
			j += nsize
		}
		if j >= len(transcript) {
			continue
		}
		next, _ := utf8.DecodeRuneInString(transcript[j:])
		if !unicode.IsUpper(next) {
			continue
		}

		sentences = appendSentence(sentences, transcript[start:i])
		start = j
		i = j
	}

	return appendSentence(sentences, transcript[start:])
}

func appendSentence(sentences []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return sentences
	}
	return append(sentences, s)
}

// WordCount counts whitespace-separated words
func WordCount(sentence string) int {
	return len(strings.Fields(sentence))
}

// Segmenter is the sentence segmenter used by the batch pipeline
type Segmenter struct{}

// Segment splits a transcript into sentences
func (Segmenter) Segment(transcript string) []string {
	return SplitSentences(transcript)
}

// WordCount counts words in a sentence
func (Segmenter) WordCount(sentence string) int {
	return WordCount(sentence)
}
