package keywords

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// StopwordProvider decides which words break candidate phrases apart.
// Implementations must be safe for concurrent use.
type StopwordProvider interface {
	IsStopword(word string) bool
	Language() string
}

// snapshotter is implemented by providers whose word list can change at
// runtime; Extract pins one snapshot for the whole call.
type snapshotter interface {
	Snapshot() StopwordProvider
}

// ErrUnsupportedLanguage is returned when no built-in list exists for a language.
var ErrUnsupportedLanguage = errors.New("no stop-word list for language")

// StopwordSet is an immutable set of lowercase stop words.
type StopwordSet struct {
	language string
	words    map[string]struct{}
}

// NewStopwordSet builds a set from words, lowercasing and trimming each one.
func NewStopwordSet(language string, words []string) *StopwordSet {
	set := &StopwordSet{language: language, words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set.words[w] = struct{}{}
		}
	}
	return set
}

func (s *StopwordSet) IsStopword(word string) bool {
	_, ok := s.words[word]
	return ok
}

func (s *StopwordSet) Language() string { return s.language }

// Len returns the number of words in the set.
func (s *StopwordSet) Len() int { return len(s.words) }

// Words returns the sorted word list.
func (s *StopwordSet) Words() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// ParseStopwords reads one word per line. Blank lines and lines starting
// with '#' are ignored.
func ParseStopwords(language string, r io.Reader) (*StopwordSet, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stop words: %w", err)
	}
	return NewStopwordSet(language, words), nil
}

// EmptyStopwords returns a provider that treats no word as a stop word.
// Phrases are then split at punctuation and line breaks only.
func EmptyStopwords() *StopwordSet {
	return NewStopwordSet("none", nil)
}

var builtin = map[string]*StopwordSet{
	"english": NewStopwordSet("english", englishStopwords),
}

// StopwordsFor returns the built-in list for language.
func StopwordsFor(language string) (*StopwordSet, error) {
	set, ok := builtin[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	return set, nil
}

// English returns the built-in English list.
func English() *StopwordSet { return builtin["english"] }

// englishStopwords is the NLTK English corpus list.
var englishStopwords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "you're",
	"you've", "you'll", "you'd", "your", "yours", "yourself", "yourselves", "he",
	"him", "his", "himself", "she", "she's", "her", "hers", "herself", "it", "it's",
	"its", "itself", "they", "them", "their", "theirs", "themselves", "what", "which",
	"who", "whom", "this", "that", "that'll", "these", "those", "am", "is", "are",
	"was", "were", "be", "been", "being", "have", "has", "had", "having", "do",
	"does", "did", "doing", "a", "an", "the", "and", "but", "if", "or", "because",
	"as", "until", "while", "of", "at", "by", "for", "with", "about", "against",
	"between", "into", "through", "during", "before", "after", "above", "below",
	"to", "from", "up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "then", "once", "here", "there", "when", "where", "why", "how", "all",
	"any", "both", "each", "few", "more", "most", "other", "some", "such", "no",
	"nor", "not", "only", "own", "same", "so", "than", "too", "very", "s", "t",
	"can", "will", "just", "don", "don't", "should", "should've", "now", "d", "ll",
	"m", "o", "re", "ve", "y", "ain", "aren", "aren't", "couldn", "couldn't",
	"didn", "didn't", "doesn", "doesn't", "hadn", "hadn't", "hasn", "hasn't",
	"haven", "haven't", "isn", "isn't", "ma", "mightn", "mightn't", "mustn",
	"mustn't", "needn", "needn't", "shan", "shan't", "shouldn", "shouldn't",
	"wasn", "wasn't", "weren", "weren't", "won", "won't", "wouldn", "wouldn't",
}
