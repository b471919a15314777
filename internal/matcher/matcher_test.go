package matcher

import (
	"context"
	stderrors "errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/keywords"
	"resumatch/internal/scoring"
	"resumatch/internal/similarity"
	"resumatch/internal/types"
)

const (
	scenarioResume = "Experienced Python developer with machine learning background"
	scenarioJob    = "Looking for Python developer experienced in machine learning"
	chefResume     = "Chef specializing in Italian cuisine"
	backendJob     = "Senior backend engineer, distributed systems"
)

// vectorEmbedder returns fixed vectors keyed by text.
type vectorEmbedder struct {
	vectors map[string][]float32
	calls   atomic.Int64
}

func (v *vectorEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v.calls.Add(1)
	if vec, ok := v.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func (v *vectorEmbedder) Model() string { return "vectors" }

type errEmbedder struct{ err error }

func (e errEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, e.err }
func (errEmbedder) Model() string                                        { return "err" }

type recordingRecorder struct {
	mu      sync.Mutex
	matches int
	errs    int
}

func (r *recordingRecorder) RecordMatch(_ context.Context, _ time.Duration, _ *types.MatchReport, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches++
	if err != nil {
		r.errs++
	}
}

func scenarioEmbedder() *vectorEmbedder {
	return &vectorEmbedder{vectors: map[string][]float32{
		scenarioResume: {0.8, 0.6, 0},
		scenarioJob:    {0.6, 0.8, 0},
		chefResume:     {1, 0, 0},
		backendJob:     {0.1, 1, 0},
	}}
}

func newPipeline(t *testing.T, embedder *vectorEmbedder, mode scoring.OverlapMode) *Pipeline {
	t.Helper()
	opts := DefaultOptions()
	opts.OverlapMode = mode
	p, err := New(keywords.NewExtractor(keywords.English()), similarity.NewComparator(embedder, time.Second, nil), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestRunRelatedDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("exact overlap", func(t *testing.T) {
		report, err := newPipeline(t, scenarioEmbedder(), scoring.OverlapExact).Run(ctx, scenarioResume, scenarioJob)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.SemanticScore != 96 {
			t.Errorf("SemanticScore = %v, want 96", report.SemanticScore)
		}
		// RAKE keeps "experienced python developer" and "python developer experienced" apart.
		if report.KeywordScore != 0 {
			t.Errorf("KeywordScore = %v, want 0", report.KeywordScore)
		}
		if report.FinalScore != 67.2 {
			t.Errorf("FinalScore = %v, want 67.2", report.FinalScore)
		}
		if want := []string{"experienced python developer", "machine learning background"}; !reflect.DeepEqual(report.ResumeKeywords, want) {
			t.Errorf("ResumeKeywords = %q, want %q", report.ResumeKeywords, want)
		}
		if want := []string{"python developer experienced", "machine learning", "looking"}; !reflect.DeepEqual(report.JobKeywords, want) {
			t.Errorf("JobKeywords = %q, want %q", report.JobKeywords, want)
		}
		if len(report.MatchedKeywords) != 0 || len(report.MissingKeywords) != 3 {
			t.Errorf("matched=%q missing=%q", report.MatchedKeywords, report.MissingKeywords)
		}
	})

	t.Run("token overlap", func(t *testing.T) {
		report, err := newPipeline(t, scenarioEmbedder(), scoring.OverlapToken).Run(ctx, scenarioResume, scenarioJob)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.SemanticScore <= 80 {
			t.Errorf("SemanticScore = %v, want > 80", report.SemanticScore)
		}
		if report.KeywordScore != 66.67 {
			t.Errorf("KeywordScore = %v, want 66.67", report.KeywordScore)
		}
		if report.FinalScore != 87.2 {
			t.Errorf("FinalScore = %v, want 87.2", report.FinalScore)
		}
		if want := []string{"python developer experienced", "machine learning"}; !reflect.DeepEqual(report.MatchedKeywords, want) {
			t.Errorf("MatchedKeywords = %q, want %q", report.MatchedKeywords, want)
		}
		if want := []string{"looking"}; !reflect.DeepEqual(report.MissingKeywords, want) {
			t.Errorf("MissingKeywords = %q, want %q", report.MissingKeywords, want)
		}
		if report.Weights != (types.Weights{Semantic: 0.7, Keyword: 0.3}) {
			t.Errorf("Weights = %+v", report.Weights)
		}
	})
}

func TestRunUnrelatedDocuments(t *testing.T) {
	for _, mode := range []scoring.OverlapMode{scoring.OverlapExact, scoring.OverlapToken} {
		report, err := newPipeline(t, scenarioEmbedder(), mode).Run(context.Background(), chefResume, backendJob)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.SemanticScore >= 20 {
			t.Errorf("%s: SemanticScore = %v, want < 20", mode, report.SemanticScore)
		}
		if report.KeywordScore != 0 {
			t.Errorf("%s: KeywordScore = %v, want 0", mode, report.KeywordScore)
		}
		if math.Abs(report.FinalScore-0.7*report.SemanticScore) > 0.01 {
			t.Errorf("%s: FinalScore = %v, want about %v", mode, report.FinalScore, 0.7*report.SemanticScore)
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	tests := []struct {
		name, resume, job, document string
	}{
		{"empty resume", "", "Backend engineer role", "resume"},
		{"blank job", "Go developer", " \n\t", "job"},
		{"punctuation only resume", "---", "Backend engineer role", "resume"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := scenarioEmbedder()
			recorder := &recordingRecorder{}
			opts := DefaultOptions()
			opts.Recorder = recorder
			p, err := New(keywords.NewExtractor(keywords.English()), similarity.NewComparator(embedder, time.Second, nil), opts)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			report, err := p.Run(context.Background(), tt.resume, tt.job)
			if report != nil {
				t.Errorf("expected no report, got %+v", report)
			}
			if !errors.IsType(err, errors.ErrorTypeEmptyInput) {
				t.Fatalf("expected empty_input error, got %v", err)
			}
			appErr, _ := errors.As(err)
			if appErr.Context["document"] != tt.document {
				t.Errorf("document = %v, want %s", appErr.Context["document"], tt.document)
			}
			if embedder.calls.Load() != 0 {
				t.Errorf("embedder called %d times", embedder.calls.Load())
			}
			if recorder.matches != 1 || recorder.errs != 1 {
				t.Errorf("recorder = %+v", recorder)
			}
		})
	}
}

func TestRunIdenticalDocuments(t *testing.T) {
	text := "Senior Go engineer building distributed systems and Kubernetes operators"
	report, err := newPipeline(t, scenarioEmbedder(), scoring.OverlapExact).Run(context.Background(), text, text)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.SemanticScore != 100 || report.KeywordScore != 100 || report.FinalScore != 100 {
		t.Errorf("report = %+v", report)
	}
	if len(report.MissingKeywords) != 0 {
		t.Errorf("MissingKeywords = %q", report.MissingKeywords)
	}
}

func TestRunEncodingFailure(t *testing.T) {
	comparator := similarity.NewComparator(errEmbedder{err: stderrors.New("quota exceeded")}, time.Second, nil)
	p, err := New(keywords.NewExtractor(keywords.English()), comparator, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	report, err := p.Run(context.Background(), scenarioResume, scenarioJob)
	if report != nil {
		t.Error("expected no report")
	}
	if !errors.IsType(err, errors.ErrorTypeEncoding) {
		t.Fatalf("expected encoding error, got %v", err)
	}
}

func TestRunRespectsMaxKeywords(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxKeywords = 1
	p, err := New(keywords.NewExtractor(keywords.English()), similarity.NewComparator(scenarioEmbedder(), time.Second, nil), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := p.Run(context.Background(), scenarioResume, scenarioJob)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.ResumeKeywords) != 1 || len(report.JobKeywords) != 1 {
		t.Errorf("keyword sets exceed max: %q %q", report.ResumeKeywords, report.JobKeywords)
	}
}

func TestRunZeroMaxKeywords(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxKeywords = 0
	p, err := New(keywords.NewExtractor(keywords.English()), similarity.NewComparator(scenarioEmbedder(), time.Second, nil), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := p.Run(context.Background(), scenarioResume, scenarioJob)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.ResumeKeywords) != 0 || len(report.JobKeywords) != 0 {
		t.Errorf("zero max kept keywords: %q %q", report.ResumeKeywords, report.JobKeywords)
	}
	if report.KeywordScore != 0 || report.FinalScore != 67.2 {
		t.Errorf("KeywordScore = %v, FinalScore = %v, want 0 and 67.2", report.KeywordScore, report.FinalScore)
	}
}

func TestRunConcurrent(t *testing.T) {
	p := newPipeline(t, scenarioEmbedder(), scoring.OverlapToken)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := p.Run(context.Background(), scenarioResume, scenarioJob)
			if err != nil {
				t.Errorf("Run: %v", err)
				return
			}
			if report.FinalScore != 87.2 {
				t.Errorf("FinalScore = %v", report.FinalScore)
			}
		}()
	}
	wg.Wait()
}

func TestNewValidation(t *testing.T) {
	extractor := keywords.NewExtractor(nil)
	comparator := similarity.NewComparator(scenarioEmbedder(), time.Second, nil)

	tests := []struct {
		name       string
		extractor  *keywords.Extractor
		comparator *similarity.Comparator
		mutate     func(*Options)
	}{
		{"nil extractor", nil, comparator, func(*Options) {}},
		{"nil comparator", extractor, nil, func(*Options) {}},
		{"negative max", extractor, comparator, func(o *Options) { o.MaxKeywords = -1 }},
		{"weights too large", extractor, comparator, func(o *Options) { o.Weights = scoring.Weights{Semantic: 1, Keyword: 1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			if _, err := New(tt.extractor, tt.comparator, opts); !errors.IsType(err, errors.ErrorTypeConfig) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}

	p, err := New(extractor, comparator, Options{Weights: scoring.DefaultWeights()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Options().MaxKeywords != 0 || p.Options().OverlapMode != scoring.OverlapExact {
		t.Errorf("zero options: %+v", p.Options())
	}
}

func TestExtractKeywords(t *testing.T) {
	p := newPipeline(t, scenarioEmbedder(), scoring.OverlapExact)

	report, err := p.ExtractKeywords(context.Background(), scenarioJob, 2)
	if err != nil {
		t.Fatalf("ExtractKeywords: %v", err)
	}
	if want := []string{"python developer experienced", "machine learning"}; !reflect.DeepEqual(report.Keywords, want) {
		t.Errorf("Keywords = %q, want %q", report.Keywords, want)
	}
	if report.Language != "english" {
		t.Errorf("Language = %q", report.Language)
	}

	report, err = p.ExtractKeywords(context.Background(), "", 5)
	if err != nil || len(report.Keywords) != 0 {
		t.Errorf("empty text = %q, %v", report.Keywords, err)
	}

	report, err = p.ExtractKeywords(context.Background(), scenarioJob, 0)
	if err != nil || len(report.Keywords) != 0 {
		t.Errorf("zero max = %q, %v", report.Keywords, err)
	}

	report, err = p.ExtractKeywords(context.Background(), scenarioJob, -1)
	if err != nil || len(report.Keywords) != 3 {
		t.Errorf("pipeline default = %q, %v", report.Keywords, err)
	}
}

func hashingConfig() *config.Config {
	return &config.Config{
		Embedding: config.EmbeddingConfig{
			Provider:   "hashing",
			Model:      "local",
			Timeout:    time.Second,
			Dimensions: 256,
		},
		Matching: config.MatchingConfig{
			MaxKeywords:    15,
			SemanticWeight: 0.7,
			KeywordWeight:  0.3,
			OverlapMode:    "exact",
			Stopwords:      config.StopwordsConfig{Language: "english"},
		},
	}
}

func TestScore(t *testing.T) {
	text := "Backend engineer with Go, PostgreSQL and Kafka experience"
	report, err := Score(context.Background(), text, text, hashingConfig(), nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if report.SemanticScore != 100 || report.KeywordScore != 100 || report.FinalScore != 100 {
		t.Errorf("report = %+v", report)
	}

	_, err = Score(context.Background(), "", "Backend engineer role", hashingConfig(), nil)
	if !errors.IsType(err, errors.ErrorTypeEmptyInput) {
		t.Errorf("expected empty_input error, got %v", err)
	}
}

func TestBuildStopwords(t *testing.T) {
	t.Run("unknown language", func(t *testing.T) {
		cfg := hashingConfig()
		cfg.Matching.Stopwords.Language = "klingon"
		_, err := Build(cfg, nil, nil)
		appErr, ok := errors.As(err)
		if !ok || appErr.Code != errors.ErrCodeUnknownLanguage {
			t.Fatalf("expected UNKNOWN_LANGUAGE, got %v", err)
		}
		if !stderrors.Is(err, keywords.ErrUnsupportedLanguage) {
			t.Error("cause should be ErrUnsupportedLanguage")
		}
	})

	t.Run("file list", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stopwords.txt")
		if err := os.WriteFile(path, []byte("looking\nfor\nin\nexperienced\n"), 0600); err != nil {
			t.Fatal(err)
		}
		cfg := hashingConfig()
		cfg.Matching.Stopwords = config.StopwordsConfig{Language: "recruiting", File: path}

		components, err := Build(cfg, nil, nil)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		defer components.Close()

		report, err := components.Pipeline.ExtractKeywords(context.Background(), scenarioJob, 5)
		if err != nil {
			t.Fatalf("ExtractKeywords: %v", err)
		}
		if want := []string{"python developer", "machine learning"}; !reflect.DeepEqual(report.Keywords, want) {
			t.Errorf("Keywords = %q, want %q", report.Keywords, want)
		}
		if report.Language != "recruiting" {
			t.Errorf("Language = %q", report.Language)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := hashingConfig()
		cfg.Matching.Stopwords.File = filepath.Join(t.TempDir(), "missing.txt")
		if _, err := Build(cfg, nil, nil); !errors.IsType(err, errors.ErrorTypeIO) {
			t.Errorf("expected IO error, got %v", err)
		}
	})
}

func TestBuildExtractor(t *testing.T) {
	cfg := hashingConfig()
	// An unusable embedding section must not matter here.
	cfg.Embedding.Provider = "gemini"
	cfg.Embedding.APIKey = ""

	extractor, err := BuildExtractor(cfg, nil)
	if err != nil {
		t.Fatalf("BuildExtractor: %v", err)
	}
	got := extractor.Extract(scenarioResume, 15)
	if want := []string{"experienced python developer", "machine learning background"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %q, want %q", got, want)
	}

	cfg.Matching.Stopwords.Language = "klingon"
	if _, err := BuildExtractor(cfg, nil); !errors.IsType(err, errors.ErrorTypeConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}
