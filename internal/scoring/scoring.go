// Package scoring combines the semantic and keyword signals into a final score.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"resumatch/internal/keywords"
	"resumatch/internal/types"
)

const weightTolerance = 1e-9

// Weights are the coefficients of the semantic and keyword scores.
type Weights struct {
	Semantic float64
	Keyword  float64
}

// DefaultWeights returns the standard 0.7 / 0.3 split.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.7, Keyword: 0.3}
}

// Validate requires non-negative weights whose sum is in (0, 1].
func (w Weights) Validate() error {
	if w.Semantic < 0 || w.Keyword < 0 {
		return fmt.Errorf("weights must be non-negative (semantic=%v, keyword=%v)", w.Semantic, w.Keyword)
	}
	sum := w.Semantic + w.Keyword
	if sum <= 0 {
		return fmt.Errorf("weights must not both be zero")
	}
	if sum > 1+weightTolerance {
		return fmt.Errorf("weights must sum to at most 1, got %v", sum)
	}
	return nil
}

// Aggregate returns round2(Semantic*semantic + Keyword*overlap).
func (w Weights) Aggregate(semantic, overlap float64) float64 {
	return Round2(w.Semantic*semantic + w.Keyword*overlap)
}

// Types converts w for inclusion in a report.
func (w Weights) Types() types.Weights {
	return types.Weights{Semantic: w.Semantic, Keyword: w.Keyword}
}

// Aggregate combines the scores with DefaultWeights.
func Aggregate(semantic, overlap float64) float64 {
	return DefaultWeights().Aggregate(semantic, overlap)
}

// OverlapMode decides when a job keyword counts as present in the resume.
type OverlapMode string

const (
	// OverlapExact matches whole phrases.
	OverlapExact OverlapMode = "exact"
	// OverlapToken matches a job phrase when each of its words occurs in
	// some resume phrase.
	OverlapToken OverlapMode = "token"
)

// ParseOverlapMode maps a configuration value to an OverlapMode. Empty means exact.
func ParseOverlapMode(s string) (OverlapMode, error) {
	switch OverlapMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", OverlapExact:
		return OverlapExact, nil
	case OverlapToken:
		return OverlapToken, nil
	}
	return "", fmt.Errorf("unknown overlap mode %q", s)
}

// Overlap returns the percentage of distinct job keywords present in the
// resume keywords, rounded to two decimals. An empty job set gives 0.
func Overlap(resume, job []string, mode OverlapMode) float64 {
	matched, missing := Breakdown(resume, job, mode)
	total := len(matched) + len(missing)
	if total == 0 {
		return 0
	}
	return Round2(float64(len(matched)) / float64(total) * 100)
}

// Breakdown splits the distinct job keywords into those present in the
// resume and those absent, both in job rank order.
func Breakdown(resume, job []string, mode OverlapMode) (matched, missing []string) {
	matched, missing = []string{}, []string{}

	phrases := make(map[string]struct{}, len(resume))
	words := make(map[string]struct{})
	for _, r := range resume {
		phrases[normalize(r)] = struct{}{}
		for _, w := range keywords.Words(r) {
			words[w] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(job))
	for _, j := range job {
		key := normalize(j)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if present(key, phrases, words, mode) {
			matched = append(matched, j)
		} else {
			missing = append(missing, j)
		}
	}
	return matched, missing
}

func present(phrase string, phrases, words map[string]struct{}, mode OverlapMode) bool {
	if _, ok := phrases[phrase]; ok {
		return true
	}
	if mode != OverlapToken {
		return false
	}
	tokens := keywords.Words(phrase)
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if _, ok := words[t]; !ok {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Round2 rounds x to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
