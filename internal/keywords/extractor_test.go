package keywords

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestExtract(t *testing.T) {
	extractor := NewExtractor(English())

	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{
			name: "resume sentence",
			text: "Experienced Python developer with machine learning background",
			max:  DefaultMaxKeywords,
			want: []string{"experienced python developer", "machine learning background"},
		},
		{
			name: "job sentence ranks longer phrases first",
			text: "Looking for Python developer experienced in machine learning",
			max:  DefaultMaxKeywords,
			want: []string{"python developer experienced", "machine learning", "looking"},
		},
		{
			name: "degree over frequency",
			text: "kubernetes operator, kubernetes, cloud native operator development",
			max:  DefaultMaxKeywords,
			want: []string{"cloud native operator development", "kubernetes operator", "kubernetes"},
		},
		{
			name: "truncated to max",
			text: "kubernetes operator, kubernetes, cloud native operator development",
			max:  2,
			want: []string{"cloud native operator development", "kubernetes operator"},
		},
		{
			name: "ties keep first appearance",
			text: "gamma delta; alpha beta",
			max:  DefaultMaxKeywords,
			want: []string{"gamma delta", "alpha beta"},
		},
		{
			name: "repeated phrases appear once",
			text: "python, python, java",
			max:  DefaultMaxKeywords,
			want: []string{"python", "java"},
		},
		{
			name: "tech tokens stay whole",
			text: "Experience with C++ and node.js",
			max:  DefaultMaxKeywords,
			want: []string{"experience", "c++", "node.js"},
		},
		{
			name: "line breaks split phrases",
			text: "Go developer\nKubernetes",
			max:  DefaultMaxKeywords,
			want: []string{"go developer", "kubernetes"},
		},
		{name: "empty text", text: "", max: DefaultMaxKeywords, want: []string{}},
		{name: "whitespace only", text: " \n\t ", max: DefaultMaxKeywords, want: []string{}},
		{name: "no words", text: "!!! ... ???", max: DefaultMaxKeywords, want: []string{}},
		{name: "only stop words", text: "and the of it", max: DefaultMaxKeywords, want: []string{}},
		{name: "zero max", text: "python developer", max: 0, want: []string{}},
		{name: "negative max", text: "python developer", max: -3, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractor.Extract(tt.text, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestExtractNeverExceedsMax(t *testing.T) {
	extractor := NewExtractor(English())
	text := `Senior backend engineer. Distributed systems, Go, Kubernetes, PostgreSQL,
Kafka and gRPC. Experience designing APIs; on-call rotations; mentoring junior engineers.`

	full := extractor.Extract(text, 1000)
	for k := 0; k <= len(full)+2; k++ {
		got := extractor.Extract(text, k)
		if len(got) > k {
			t.Fatalf("Extract(_, %d) returned %d phrases", k, len(got))
		}
		// A shorter result is a prefix of the full ranking.
		if !reflect.DeepEqual(got, full[:len(got)]) {
			t.Fatalf("Extract(_, %d) = %q is not a prefix of %q", k, got, full)
		}
	}
}

func TestExtractPhraseLength(t *testing.T) {
	extractor := NewExtractor(English(), WithPhraseLength(1, 2))
	got := extractor.Extract("cloud native operator development, kubernetes", DefaultMaxKeywords)
	want := []string{"kubernetes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractWithoutStopwords(t *testing.T) {
	// Without a list only punctuation and line breaks split phrases.
	for _, provider := range []StopwordProvider{nil, EmptyStopwords()} {
		extractor := NewExtractor(provider)
		got := extractor.Extract("Python developer with machine learning. Go", DefaultMaxKeywords)
		want := []string{"python developer with machine learning", "go"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

func TestStopwordsForUnknownLanguage(t *testing.T) {
	_, err := StopwordsFor("klingon")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}

	set, err := StopwordsFor(" English ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.IsStopword("the") || set.IsStopword("python") {
		t.Error("english list does not behave as expected")
	}
}

func TestCustomStopwordProvider(t *testing.T) {
	domain := NewStopwordSet("recruiting", []string{"looking", "for", "in", "experienced"})
	got := NewExtractor(domain).Extract("Looking for Python developer experienced in machine learning", 5)
	want := []string{"python developer", "machine learning"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractConcurrent(t *testing.T) {
	extractor := NewExtractor(English())
	text := "Experienced Python developer with machine learning background"
	want := extractor.Extract(text, DefaultMaxKeywords)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := extractor.Extract(text, DefaultMaxKeywords); !reflect.DeepEqual(got, want) {
				t.Errorf("concurrent extract = %q, want %q", got, want)
			}
		}()
	}
	wg.Wait()
}

func TestWords(t *testing.T) {
	got := Words("Hello, C# World!")
	want := []string{"hello", "c#", "world"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words = %q, want %q", got, want)
	}
	if HasWords("... !!") {
		t.Error("punctuation only text has no words")
	}
	if !HasWords("   x ") {
		t.Error("expected a word")
	}
}

func BenchmarkExtract(b *testing.B) {
	extractor := NewExtractor(English())
	text := `Senior backend engineer with strong experience in distributed systems, Go and Kubernetes.
You will design event-driven services on Kafka, own PostgreSQL schemas and mentor engineers.`
	for b.Loop() {
		extractor.Extract(text, DefaultMaxKeywords)
	}
}
