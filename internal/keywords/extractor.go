// Package keywords ranks candidate phrases in a document with a
// co-occurrence graph (RAKE).
package keywords

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// DefaultMaxKeywords is the number of phrases kept when callers have no preference.
const DefaultMaxKeywords = 15

// tokenPattern matches a word or a run of punctuation. Words keep inner dots
// and apostrophes plus trailing + and # so "node.js", "don't", "c++" and "c#"
// survive as single tokens.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['.][\p{L}\p{N}]+)*[+#]*|[^\p{L}\p{N}\s]+`)

// Extractor is safe for concurrent use; it holds no per-call state.
type Extractor struct {
	stopwords StopwordProvider
	minWords  int
	maxWords  int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPhraseLength bounds candidate phrases by word count. Zero leaves a
// bound open.
func WithPhraseLength(minWords, maxWords int) Option {
	return func(e *Extractor) {
		e.minWords = minWords
		e.maxWords = maxWords
	}
}

// NewExtractor returns an Extractor splitting phrases at the words of stopwords.
// A nil provider means no stop words.
func NewExtractor(stopwords StopwordProvider, opts ...Option) *Extractor {
	if stopwords == nil {
		stopwords = EmptyStopwords()
	}
	e := &Extractor{stopwords: stopwords}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stopwords returns the provider in use.
func (e *Extractor) Stopwords() StopwordProvider { return e.stopwords }

type rankedPhrase struct {
	text  string
	score float64
}

// Extract returns at most maxKeywords phrases of text, highest score first.
// Ties keep the order in which phrases first appear.
func (e *Extractor) Extract(text string, maxKeywords int) []string {
	if maxKeywords <= 0 || strings.TrimSpace(text) == "" {
		return []string{}
	}

	stopwords := e.stopwords
	if s, ok := stopwords.(snapshotter); ok {
		stopwords = s.Snapshot()
	}

	phrases := e.candidatePhrases(text, stopwords)
	if len(phrases) == 0 {
		return []string{}
	}

	wordScores := scoreWords(phrases)

	seen := make(map[string]bool, len(phrases))
	ranked := make([]rankedPhrase, 0, len(phrases))
	for _, phrase := range phrases {
		joined := strings.Join(phrase, " ")
		if seen[joined] {
			continue
		}
		seen[joined] = true

		var score float64
		for _, w := range phrase {
			score += wordScores[w]
		}
		ranked = append(ranked, rankedPhrase{text: joined, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > maxKeywords {
		ranked = ranked[:maxKeywords]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.text
	}
	return out
}

// candidatePhrases splits text into runs of non-stop words, breaking at
// punctuation and line ends. Every occurrence is returned, in text order.
func (e *Extractor) candidatePhrases(text string, stopwords StopwordProvider) [][]string {
	var phrases [][]string
	var current []string

	flush := func() {
		if len(current) > 0 && e.acceptLength(len(current)) {
			phrases = append(phrases, current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		for _, token := range tokenPattern.FindAllString(line, -1) {
			if !isWord(token) {
				flush()
				continue
			}
			word := strings.ToLower(token)
			if stopwords.IsStopword(word) {
				flush()
				continue
			}
			current = append(current, word)
		}
		flush()
	}
	return phrases
}

func (e *Extractor) acceptLength(n int) bool {
	if e.minWords > 0 && n < e.minWords {
		return false
	}
	if e.maxWords > 0 && n > e.maxWords {
		return false
	}
	return true
}

// scoreWords returns degree/frequency for every word. A word's degree is the
// summed length of the phrases it occurs in, itself included.
func scoreWords(phrases [][]string) map[string]float64 {
	frequency := make(map[string]int)
	degree := make(map[string]int)
	for _, phrase := range phrases {
		for _, w := range phrase {
			frequency[w]++
			degree[w] += len(phrase)
		}
	}

	scores := make(map[string]float64, len(frequency))
	for w, f := range frequency {
		scores[w] = float64(degree[w]) / float64(f)
	}
	return scores
}

func isWord(token string) bool {
	for _, r := range token {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// Words returns the lowercase word tokens of text, stop words included.
func Words(text string) []string {
	var words []string
	for _, token := range tokenPattern.FindAllString(text, -1) {
		if isWord(token) {
			words = append(words, strings.ToLower(token))
		}
	}
	return words
}

// HasWords reports whether text contains at least one word token.
func HasWords(text string) bool {
	for _, token := range tokenPattern.FindAllString(text, -1) {
		if isWord(token) {
			return true
		}
	}
	return false
}
