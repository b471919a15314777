package matcher

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"resumatch/internal/config"
	"resumatch/internal/embedding"
	"resumatch/internal/errors"
	"resumatch/internal/keywords"
	"resumatch/internal/scoring"
	"resumatch/internal/similarity"
	"resumatch/internal/types"
)

// Telemetry receives both embedding and match telemetry.
type Telemetry interface {
	embedding.Recorder
	Recorder
}

// Components is a pipeline assembled from configuration together with the
// handles that need closing.
type Components struct {
	Pipeline  *Pipeline
	Embedder  *embedding.Service
	Stopwords keywords.StopwordProvider

	closers []io.Closer
}

// Build assembles the pipeline described by cfg. telemetry may be nil.
func Build(cfg *config.Config, logger *errors.Logger, telemetry Telemetry) (*Components, error) {
	c := &Components{}

	stopwords, err := buildStopwords(cfg.Matching.Stopwords, logger)
	if err != nil {
		return nil, err
	}
	c.Stopwords = stopwords
	if closer, ok := stopwords.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	var embedOpts []embedding.ServiceOption
	if telemetry != nil {
		embedOpts = append(embedOpts, embedding.WithRecorder(telemetry))
	}
	svc, err := embedding.NewService(&cfg.Embedding, logger, embedOpts...)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Embedder = svc
	c.closers = append(c.closers, svc)

	mode, err := scoring.ParseOverlapMode(cfg.Matching.OverlapMode)
	if err != nil {
		_ = c.Close()
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid overlap mode", err)
	}

	extractor := newExtractor(stopwords, cfg.Matching)
	comparator := similarity.NewComparator(svc, cfg.Embedding.Timeout, logger)

	opts := Options{
		MaxKeywords: cfg.Matching.MaxKeywords,
		Weights: scoring.Weights{
			Semantic: cfg.Matching.SemanticWeight,
			Keyword:  cfg.Matching.KeywordWeight,
		},
		OverlapMode: mode,
		Logger:      logger,
	}
	if telemetry != nil {
		opts.Recorder = telemetry
	}

	pipeline, err := New(extractor, comparator, opts)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Pipeline = pipeline

	logger.Debug("Matching pipeline ready",
		"provider", cfg.Embedding.Provider,
		"model", svc.Model(),
		"stopwords", stopwords.Language(),
		"max_keywords", pipeline.Options().MaxKeywords,
		"overlap_mode", string(mode))
	return c, nil
}

// Close releases the stop-word watcher and the embedding cache.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return stderrors.Join(errs...)
}

// BuildExtractor assembles only the keyword extractor described by cfg, for
// callers that never embed. The stop-word file, if any, is not watched.
func BuildExtractor(cfg *config.Config, logger *errors.Logger) (*keywords.Extractor, error) {
	swCfg := cfg.Matching.Stopwords
	swCfg.Watch = false
	stopwords, err := buildStopwords(swCfg, logger)
	if err != nil {
		return nil, err
	}
	return newExtractor(stopwords, cfg.Matching), nil
}

func newExtractor(stopwords keywords.StopwordProvider, cfg config.MatchingConfig) *keywords.Extractor {
	return keywords.NewExtractor(stopwords,
		keywords.WithPhraseLength(cfg.MinPhraseWords, cfg.MaxPhraseWords))
}

func buildStopwords(cfg config.StopwordsConfig, logger *errors.Logger) (keywords.StopwordProvider, error) {
	if cfg.File != "" {
		fs, err := keywords.LoadStopwordsFile(cfg.File, cfg.Language, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Watch {
			if err := fs.Watch(cfg.DebounceDelay); err != nil {
				logger.Warn("Stop-word hot reload disabled", "file", cfg.File, "error", err.Error())
			}
		}
		return fs, nil
	}

	set, err := keywords.StopwordsFor(cfg.Language)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeUnknownLanguage,
			fmt.Sprintf("no built-in stop words for language %q; set matching.stopwords.file", cfg.Language), err)
	}
	return set, nil
}

// Score builds a pipeline from cfg, runs a single match and releases it.
func Score(ctx context.Context, resumeText, jobText string, cfg *config.Config, logger *errors.Logger) (*types.MatchReport, error) {
	components, err := Build(cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Warn("Failed to release pipeline resources", "error", err.Error())
		}
	}()
	return components.Pipeline.Run(ctx, resumeText, jobText)
}
