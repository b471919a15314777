// Package matcher runs the resume/job matching pipeline: keyword extraction,
// semantic comparison and score aggregation.
package matcher

import (
	"context"
	"fmt"
	"time"

	"resumatch/internal/errors"
	"resumatch/internal/keywords"
	"resumatch/internal/scoring"
	"resumatch/internal/similarity"
	"resumatch/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Recorder receives match telemetry.
type Recorder interface {
	RecordMatch(ctx context.Context, duration time.Duration, report *types.MatchReport, err error)
}

// Options holds the pipeline policy.
type Options struct {
	// MaxKeywords caps each keyword set. Zero keeps no keywords, so the
	// overlap score is 0.
	MaxKeywords int
	Weights     scoring.Weights
	OverlapMode scoring.OverlapMode
	Recorder    Recorder
	Logger      *errors.Logger
}

// DefaultOptions returns 15 keywords, 0.7/0.3 weights and exact overlap.
func DefaultOptions() Options {
	return Options{
		MaxKeywords: keywords.DefaultMaxKeywords,
		Weights:     scoring.DefaultWeights(),
		OverlapMode: scoring.OverlapExact,
	}
}

// Pipeline matches a resume against a job description. It holds only
// read-only collaborators and is safe for concurrent use.
type Pipeline struct {
	extractor  *keywords.Extractor
	comparator *similarity.Comparator
	opts       Options
}

// New validates opts and returns a pipeline over the given collaborators.
func New(extractor *keywords.Extractor, comparator *similarity.Comparator, opts Options) (*Pipeline, error) {
	if extractor == nil || comparator == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"pipeline requires a keyword extractor and a comparator", nil)
	}
	if opts.MaxKeywords < 0 {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("max keywords must not be negative, got %d", opts.MaxKeywords), nil)
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid score weights", err)
	}
	if opts.OverlapMode == "" {
		opts.OverlapMode = scoring.OverlapExact
	}
	return &Pipeline{extractor: extractor, comparator: comparator, opts: opts}, nil
}

// Options returns the effective options.
func (p *Pipeline) Options() Options { return p.opts }

// Extractor returns the keyword extractor in use.
func (p *Pipeline) Extractor() *keywords.Extractor { return p.extractor }

// Run scores resumeText against jobText. Empty input is rejected with an
// empty_input error before any model is invoked.
func (p *Pipeline) Run(ctx context.Context, resumeText, jobText string) (report *types.MatchReport, err error) {
	start := time.Now()
	ctx, span := otel.Tracer("resumatch.matcher").Start(ctx, "matcher.run")
	defer span.End()
	defer func() {
		if p.opts.Recorder != nil {
			p.opts.Recorder.RecordMatch(ctx, time.Since(start), report, err)
		}
	}()

	span.SetAttributes(
		attribute.Int("input.resume_length", len(resumeText)),
		attribute.Int("input.job_length", len(jobText)),
	)

	if err := validateDocument(types.Document{Label: types.LabelResume, Text: resumeText}); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := validateDocument(types.Document{Label: types.LabelJob, Text: jobText}); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var (
		resumeKeywords []string
		jobKeywords    []string
		semantic       float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resumeKeywords = p.extractor.Extract(resumeText, p.opts.MaxKeywords)
		return nil
	})
	g.Go(func() error {
		jobKeywords = p.extractor.Extract(jobText, p.opts.MaxKeywords)
		return nil
	})
	g.Go(func() error {
		var err error
		semantic, err = p.comparator.Similarity(gctx, resumeText, jobText)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		p.opts.Logger.LogError(err, "Match failed")
		return nil, err
	}

	matched, missing := scoring.Breakdown(resumeKeywords, jobKeywords, p.opts.OverlapMode)
	overlap := scoring.Overlap(resumeKeywords, jobKeywords, p.opts.OverlapMode)

	report = &types.MatchReport{
		SemanticScore:   semantic,
		KeywordScore:    overlap,
		FinalScore:      p.opts.Weights.Aggregate(semantic, overlap),
		ResumeKeywords:  resumeKeywords,
		JobKeywords:     jobKeywords,
		MatchedKeywords: matched,
		MissingKeywords: missing,
		Weights:         p.opts.Weights.Types(),
	}

	span.SetAttributes(
		attribute.Float64("score.semantic", report.SemanticScore),
		attribute.Float64("score.keyword", report.KeywordScore),
		attribute.Float64("score.final", report.FinalScore),
		attribute.Int("keywords.resume", len(resumeKeywords)),
		attribute.Int("keywords.job", len(jobKeywords)),
	)
	p.opts.Logger.Debug("Match completed",
		"semantic_score", report.SemanticScore,
		"keyword_score", report.KeywordScore,
		"final_score", report.FinalScore,
		"duration", time.Since(start))

	return report, nil
}

// ExtractKeywords ranks the phrases of text. A negative maxKeywords uses
// the pipeline's configured maximum.
func (p *Pipeline) ExtractKeywords(ctx context.Context, text string, maxKeywords int) (*types.KeywordReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxKeywords < 0 {
		maxKeywords = p.opts.MaxKeywords
	}
	return &types.KeywordReport{
		Language: p.extractor.Stopwords().Language(),
		Keywords: p.extractor.Extract(text, maxKeywords),
	}, nil
}

func validateDocument(doc types.Document) error {
	if keywords.HasWords(doc.Text) {
		return nil
	}
	return errors.NewEmptyInputError(fmt.Sprintf("%s text is empty", doc.Label)).
		WithContext("document", string(doc.Label))
}
